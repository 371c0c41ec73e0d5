package aggregate

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/simple-easy-sites/simple-sales-crm/domains/leads/be/model"
)

// allValue selects every status or document status.
const allValue = "all"

// QueryError lists the query parameters that could not be parsed.
type QueryError struct {
	Fields map[string][]string
}

func (e *QueryError) Error() string {
	return "invalid query parameters"
}

func (e *QueryError) add(param, message string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[param] = append(e.Fields[param], message)
}

// ParseFilter binds a Filter from query parameters. Blank values and "all"
// leave the matching clause unset.
func ParseFilter(values url.Values) (Filter, error) {
	var (
		f    Filter
		qerr QueryError
	)

	f.SearchTerm = strings.TrimSpace(values.Get("search"))

	if raw := param(values, "status"); raw != "" && raw != allValue {
		status, err := model.ParseLeadStatus(raw)
		if err != nil {
			qerr.add("status", err.Error())
		} else {
			f.Status = &status
		}
	}
	if raw := param(values, "documentStatus"); raw != "" && raw != allValue {
		status, err := model.ParseDocumentStatus(raw)
		if err != nil {
			qerr.add("documentStatus", err.Error())
		} else {
			f.DocumentStatus = &status
		}
	}

	f.CallbackDateStart = parseDateParam(values, "callbackDateStart", &qerr)
	f.CallbackDateEnd = parseDateParam(values, "callbackDateEnd", &qerr)
	f.CreationDateStart = parseDateParam(values, "creationDateStart", &qerr)
	f.CreationDateEnd = parseDateParam(values, "creationDateEnd", &qerr)
	f.FundingAmountMin = parseFloatParam(values, "fundingAmountMin", &qerr)
	f.FundingAmountMax = parseFloatParam(values, "fundingAmountMax", &qerr)
	f.DefaultsMin = parseIntParam(values, "defaultsMin", &qerr)
	f.DefaultsMax = parseIntParam(values, "defaultsMax", &qerr)

	checkDateRange(f.CallbackDateStart, f.CallbackDateEnd, "callbackDateStart", "callbackDateEnd", &qerr)
	checkDateRange(f.CreationDateStart, f.CreationDateEnd, "creationDateStart", "creationDateEnd", &qerr)
	if f.FundingAmountMin != nil && f.FundingAmountMax != nil && *f.FundingAmountMin > *f.FundingAmountMax {
		qerr.add("fundingAmountMin", "fundingAmountMin must not exceed fundingAmountMax")
	}
	if f.DefaultsMin != nil && f.DefaultsMax != nil && *f.DefaultsMin > *f.DefaultsMax {
		qerr.add("defaultsMin", "defaultsMin must not exceed defaultsMax")
	}

	if len(qerr.Fields) > 0 {
		return Filter{}, &qerr
	}
	return f, nil
}

// ParseSort binds the table sort from the "sort" and "direction" parameters,
// falling back to DefaultSort when no column is named.
func ParseSort(values url.Values) (SortState, error) {
	var qerr QueryError

	raw := param(values, "sort")
	if raw == "" {
		return DefaultSort, nil
	}
	key, err := ParseSortKey(raw)
	if err != nil {
		qerr.add("sort", err.Error())
	}

	direction := Ascending
	switch strings.ToLower(param(values, "direction")) {
	case "", string(Ascending):
	case string(Descending):
		direction = Descending
	default:
		qerr.add("direction", fmt.Sprintf("direction must be %q or %q", Ascending, Descending))
	}

	if len(qerr.Fields) > 0 {
		return SortState{}, &qerr
	}
	return SortState{Key: key, Direction: direction}, nil
}

// ParseLimit reads a leaderboard size, defaulting to DefaultBoardSize.
func ParseLimit(values url.Values) (int, error) {
	raw := param(values, "limit")
	if raw == "" {
		return DefaultBoardSize, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		qerr := &QueryError{}
		qerr.add("limit", "limit must be a positive integer")
		return 0, qerr
	}
	return n, nil
}

func param(values url.Values, name string) string {
	return strings.TrimSpace(values.Get(name))
}

func parseDateParam(values url.Values, name string, qerr *QueryError) *model.Date {
	raw := param(values, name)
	if raw == "" {
		return nil
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		qerr.add(name, err.Error())
		return nil
	}
	return &d
}

func parseFloatParam(values url.Values, name string, qerr *QueryError) *float64 {
	raw := param(values, name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		qerr.add(name, name+" must be a finite non-negative number")
		return nil
	}
	return &v
}

func checkDateRange(start, end *model.Date, startName, endName string, qerr *QueryError) {
	if start != nil && end != nil && start.After(*end) {
		qerr.add(startName, startName+" must not be after "+endName)
	}
}

func parseIntParam(values url.Values, name string, qerr *QueryError) *int {
	raw := param(values, name)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		qerr.add(name, name+" must be a non-negative integer")
		return nil
	}
	return &v
}
