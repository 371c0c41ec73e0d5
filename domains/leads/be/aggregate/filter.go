// Package aggregate derives table, pipeline and leaderboard views from an
// in-memory lead collection. Nothing in this package performs I/O.
package aggregate

import (
	"strings"

	"github.com/simple-easy-sites/simple-sales-crm/domains/leads/be/model"
)

// Filter narrows a lead collection. Every set clause must hold for a lead to
// be kept; the zero value keeps everything.
type Filter struct {
	SearchTerm        string
	Status            *model.LeadStatus
	DocumentStatus    *model.DocumentStatus
	CallbackDateStart *model.Date
	CallbackDateEnd   *model.Date
	CreationDateStart *model.Date
	CreationDateEnd   *model.Date
	FundingAmountMin  *float64
	FundingAmountMax  *float64
	DefaultsMin       *int
	DefaultsMax       *int
}

// Apply returns the leads matching f in their input order.
func Apply(leads []model.Lead, f Filter) []model.Lead {
	out := make([]model.Lead, 0, len(leads))
	term := strings.ToLower(strings.TrimSpace(f.SearchTerm))
	for _, lead := range leads {
		if f.matches(lead, term) {
			out = append(out, lead)
		}
	}
	return out
}

func (f Filter) matches(lead model.Lead, term string) bool {
	return matchesSearch(lead, term) &&
		(f.Status == nil || lead.Status == *f.Status) &&
		(f.DocumentStatus == nil || lead.DocumentStatus == *f.DocumentStatus) &&
		f.matchesCallback(lead) &&
		f.matchesCreation(lead) &&
		f.matchesFunding(lead) &&
		f.matchesDefaults(lead)
}

func matchesSearch(lead model.Lead, term string) bool {
	if term == "" {
		return true
	}
	fields := []string{lead.MerchantName, lead.BusinessName, deref(lead.Email), lead.Location}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func (f Filter) matchesCallback(lead model.Lead) bool {
	if f.CallbackDateStart == nil && f.CallbackDateEnd == nil {
		return true
	}
	if lead.CallbackDate == nil || lead.CallbackDate.IsZero() {
		return false
	}
	return inDateRange(*lead.CallbackDate, f.CallbackDateStart, f.CallbackDateEnd)
}

func (f Filter) matchesCreation(lead model.Lead) bool {
	if f.CreationDateStart == nil && f.CreationDateEnd == nil {
		return true
	}
	return inDateRange(lead.CreationDate, f.CreationDateStart, f.CreationDateEnd)
}

func inDateRange(d model.Date, start, end *model.Date) bool {
	if start != nil && d.Before(*start) {
		return false
	}
	if end != nil && d.After(*end) {
		return false
	}
	return true
}

func (f Filter) matchesFunding(lead model.Lead) bool {
	floor := 0.0
	if f.FundingAmountMin != nil {
		floor = *f.FundingAmountMin
	}
	if lead.AmountLookingFor < floor {
		return false
	}
	return f.FundingAmountMax == nil || lead.AmountLookingFor <= *f.FundingAmountMax
}

func (f Filter) matchesDefaults(lead model.Lead) bool {
	if f.DefaultsMin == nil && f.DefaultsMax == nil {
		return true
	}
	if !lead.HasDefaults {
		return f.DefaultsMin == nil || *f.DefaultsMin <= 0
	}
	count := lead.DefaultsCount()
	if f.DefaultsMin != nil && count < *f.DefaultsMin {
		return false
	}
	return f.DefaultsMax == nil || count <= *f.DefaultsMax
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
