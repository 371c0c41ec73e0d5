package aggregate

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/simple-easy-sites/simple-sales-crm/domains/leads/be/model"
)

// SortKey names a sortable table column.
type SortKey string

const (
	SortMerchantName      SortKey = "merchantName"
	SortBusinessName      SortKey = "businessName"
	SortMainPhoneNumber   SortKey = "mainPhoneNumber"
	SortEmail             SortKey = "email"
	SortLocation          SortKey = "location"
	SortMonthlyRevenue    SortKey = "monthlyRevenue"
	SortAmountLookingFor  SortKey = "amountLookingFor"
	SortNumberOfPositions SortKey = "numberOfPositions"
	SortHasDefaults       SortKey = "hasDefaults"
	SortNumberOfDefaults  SortKey = "numberOfDefaults"
	SortDocumentStatus    SortKey = "documentStatus"
	SortDocumentType      SortKey = "documentType"
	SortStatus            SortKey = "status"
	SortCallbackDate      SortKey = "callbackDate"
	SortCreationDate      SortKey = "creationDate"
)

var sortKeys = []SortKey{
	SortMerchantName, SortBusinessName, SortMainPhoneNumber, SortEmail, SortLocation,
	SortMonthlyRevenue, SortAmountLookingFor, SortNumberOfPositions, SortHasDefaults,
	SortNumberOfDefaults, SortDocumentStatus, SortDocumentType, SortStatus,
	SortCallbackDate, SortCreationDate,
}

// SortKeys lists every sortable column.
func SortKeys() []SortKey {
	return append([]SortKey(nil), sortKeys...)
}

// ParseSortKey validates a raw column name.
func ParseSortKey(raw string) (SortKey, error) {
	for _, k := range sortKeys {
		if string(k) == raw {
			return k, nil
		}
	}
	return "", fmt.Errorf("unsupported sort key %q", raw)
}

// Direction is the sort order of a column.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// SortState is the active table sort.
type SortState struct {
	Key       SortKey
	Direction Direction
}

// DefaultSort orders the table by creation date, newest first.
var DefaultSort = SortState{Key: SortCreationDate, Direction: Descending}

// Toggle returns the state after a column header is selected: the same column
// flips direction, a different column starts ascending.
func (s SortState) Toggle(key SortKey) SortState {
	if s.Key == key {
		if s.Direction == Ascending {
			return SortState{Key: key, Direction: Descending}
		}
		return SortState{Key: key, Direction: Ascending}
	}
	return SortState{Key: key, Direction: Ascending}
}

// Sort returns a sorted copy of leads. The sort is stable so ties keep their
// input order. Leads without a callback always sink to the bottom when
// sorting by callback date.
func Sort(leads []model.Lead, state SortState) []model.Lead {
	out := append([]model.Lead(nil), leads...)
	if state.Key == "" {
		return out
	}
	desc := state.Direction == Descending

	if state.Key == SortCallbackDate {
		sort.SliceStable(out, func(i, j int) bool {
			a, aok := out[i].CallbackAt(time.UTC)
			b, bok := out[j].CallbackAt(time.UTC)
			switch {
			case !aok:
				return false
			case !bok:
				return true
			case desc:
				return a.After(b)
			default:
				return a.Before(b)
			}
		})
		return out
	}

	cmp := comparator(state.Key)
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return cmp(out[j], out[i]) < 0
		}
		return cmp(out[i], out[j]) < 0
	})
	return out
}

type compareFunc func(a, b model.Lead) int

func comparator(key SortKey) compareFunc {
	switch key {
	case SortMonthlyRevenue:
		return byFloat(func(l model.Lead) float64 { return l.MonthlyRevenue })
	case SortAmountLookingFor:
		return byFloat(func(l model.Lead) float64 { return l.AmountLookingFor })
	case SortNumberOfPositions:
		return byFloat(func(l model.Lead) float64 { return float64(l.NumberOfPositions) })
	case SortNumberOfDefaults:
		return byFloat(func(l model.Lead) float64 { return float64(l.DefaultsCount()) })
	case SortHasDefaults:
		return byFloat(func(l model.Lead) float64 {
			if l.HasDefaults {
				return 1
			}
			return 0
		})
	case SortCreationDate:
		return func(a, b model.Lead) int { return a.CreationDate.Compare(b.CreationDate) }
	case SortMerchantName:
		return byText(func(l model.Lead) string { return l.MerchantName })
	case SortBusinessName:
		return byText(func(l model.Lead) string { return l.BusinessName })
	case SortMainPhoneNumber:
		return byText(func(l model.Lead) string { return l.MainPhoneNumber })
	case SortEmail:
		return byText(func(l model.Lead) string { return deref(l.Email) })
	case SortLocation:
		return byText(func(l model.Lead) string { return l.Location })
	case SortDocumentStatus:
		return byText(func(l model.Lead) string { return string(l.DocumentStatus) })
	case SortDocumentType:
		return byText(func(l model.Lead) string { return string(l.DocumentType) })
	case SortStatus:
		return byText(func(l model.Lead) string { return string(l.Status) })
	}
	return func(model.Lead, model.Lead) int { return 0 }
}

func byFloat(value func(model.Lead) float64) compareFunc {
	return func(a, b model.Lead) int {
		av, bv := value(a), value(b)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	}
}

func byText(value func(model.Lead) string) compareFunc {
	return func(a, b model.Lead) int {
		return strings.Compare(strings.ToLower(value(a)), strings.ToLower(value(b)))
	}
}
