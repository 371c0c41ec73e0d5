package aggregate

import (
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/simple-easy-sites/simple-sales-crm/domains/leads/be/model"
)

func date(t *testing.T, raw string) *model.Date {
	t.Helper()
	d, err := model.ParseDate(raw)
	require.NoError(t, err)
	return &d
}

func ptr[T any](v T) *T { return &v }

func newLead(name string, amount float64, status model.LeadStatus) model.Lead {
	return model.Lead{
		ID:               uuid.New(),
		AgentID:          "agent-1",
		MerchantName:     name,
		BusinessName:     name + " LLC",
		MainPhoneNumber:  "+15555550100",
		AmountLookingFor: amount,
		MonthlyRevenue:   amount / 5,
		Status:           status,
		DocumentStatus:   model.DefaultDocumentStatus,
		DocumentType:     model.DefaultDocumentType,
		CreationDate:     model.Date{Year: 2025, Month: time.January, Day: 15},
	}
}

func ids(leads []model.Lead) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(leads))
	for _, l := range leads {
		out = append(out, l.ID)
	}
	return out
}

func sampleLeads(t *testing.T) []model.Lead {
	t.Helper()

	a := newLead("Acme Diner", 50000, model.StatusNeedsFollowUp)
	a.Email = ptr("owner@acmediner.com")
	a.Location = "Austin, TX"
	a.CallbackDate = date(t, "2025-03-01")

	b := newLead("Bolt Garage", 25000, model.StatusAwaitingCallback)
	b.HasDefaults = true
	b.NumberOfDefaults = ptr(2)
	b.DefaultsDescription = ptr("Missed two payments")
	b.CreationDate = *date(t, "2025-02-10")

	c := newLead("Cedar Florist", 120000, model.StatusClosedFunded)
	c.CallbackDate = date(t, "2025-02-20")
	c.CallbackTime = &model.ClockTime{Hour: 9, Minute: 30}

	d := newLead("Delta Deli", 75000, model.StatusNeedsFollowUp)
	d.HasDefaults = true
	d.NumberOfDefaults = ptr(5)
	d.DefaultsDescription = ptr("Stacked positions")
	d.Location = "Dallas, TX"

	return []model.Lead{a, b, c, d}
}

func TestApplyZeroFilterIsIdentity(t *testing.T) {
	t.Parallel()

	leads := sampleLeads(t)
	require.Equal(t, leads, Apply(leads, Filter{}))
}

func TestApplySearchIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	leads := sampleLeads(t)
	require.Len(t, Apply(leads, Filter{SearchTerm: "ACMEDINER.com"}), 1)
	require.Len(t, Apply(leads, Filter{SearchTerm: " tx "}), 2)
	require.Len(t, Apply(leads, Filter{SearchTerm: "garage llc"}), 1)
	require.Empty(t, Apply(leads, Filter{SearchTerm: "nowhere"}))
}

func TestApplyFundingRangeIsInclusive(t *testing.T) {
	t.Parallel()

	leads := sampleLeads(t)

	got := Apply(leads, Filter{FundingAmountMin: ptr(40000.0), FundingAmountMax: ptr(60000.0)})
	require.Equal(t, []uuid.UUID{leads[0].ID}, ids(got))

	got = Apply(leads, Filter{FundingAmountMin: ptr(50000.0), FundingAmountMax: ptr(75000.0)})
	require.Equal(t, []uuid.UUID{leads[0].ID, leads[3].ID}, ids(got))

	got = Apply(leads, Filter{FundingAmountMin: ptr(60001.0)})
	require.NotContains(t, ids(got), leads[0].ID)

	got = Apply(leads, Filter{FundingAmountMax: ptr(25000.0)})
	require.Equal(t, []uuid.UUID{leads[1].ID}, ids(got))
}

func TestApplyCallbackRangeExcludesUnscheduled(t *testing.T) {
	t.Parallel()

	leads := sampleLeads(t)

	got := Apply(leads, Filter{CallbackDateStart: date(t, "2025-02-20")})
	require.Equal(t, []uuid.UUID{leads[0].ID, leads[2].ID}, ids(got))

	got = Apply(leads, Filter{CallbackDateEnd: date(t, "2025-02-20")})
	require.Equal(t, []uuid.UUID{leads[2].ID}, ids(got))
}

func TestApplyCreationRangeIsInclusive(t *testing.T) {
	t.Parallel()

	leads := sampleLeads(t)
	got := Apply(leads, Filter{CreationDateStart: date(t, "2025-02-10"), CreationDateEnd: date(t, "2025-02-10")})
	require.Equal(t, []uuid.UUID{leads[1].ID}, ids(got))
}

func TestApplyDefaultsRange(t *testing.T) {
	t.Parallel()

	leads := sampleLeads(t)

	testCases := []struct {
		name string
		min  *int
		max  *int
		want []uuid.UUID
	}{
		{name: "both unset", want: ids(leads)},
		{name: "zero floor keeps clean leads", min: ptr(0), max: ptr(3), want: []uuid.UUID{leads[0].ID, leads[1].ID, leads[2].ID}},
		{name: "positive floor drops clean leads", min: ptr(1), want: []uuid.UUID{leads[1].ID, leads[3].ID}},
		{name: "only max", max: ptr(4), want: []uuid.UUID{leads[0].ID, leads[1].ID, leads[2].ID}},
		{name: "exact", min: ptr(5), max: ptr(5), want: []uuid.UUID{leads[3].ID}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Apply(leads, Filter{DefaultsMin: tc.min, DefaultsMax: tc.max})
			require.Equal(t, tc.want, ids(got))
		})
	}
}

func TestApplyIsConjunctive(t *testing.T) {
	t.Parallel()

	leads := sampleLeads(t)
	status := model.StatusNeedsFollowUp
	got := Apply(leads, Filter{Status: &status, SearchTerm: "dallas"})
	require.Equal(t, []uuid.UUID{leads[3].ID}, ids(got))

	docs := model.DocumentsSubmitted
	require.Empty(t, Apply(leads, Filter{Status: &status, DocumentStatus: &docs}))
}

func TestSortToggle(t *testing.T) {
	t.Parallel()

	state := DefaultSort
	state = state.Toggle(SortAmountLookingFor)
	require.Equal(t, SortState{Key: SortAmountLookingFor, Direction: Ascending}, state)
	state = state.Toggle(SortAmountLookingFor)
	require.Equal(t, SortState{Key: SortAmountLookingFor, Direction: Descending}, state)
	state = state.Toggle(SortMerchantName)
	require.Equal(t, SortState{Key: SortMerchantName, Direction: Ascending}, state)
}

func TestSortAmountDirectionsAreReversed(t *testing.T) {
	t.Parallel()

	leads := sampleLeads(t)
	asc := Sort(leads, SortState{Key: SortAmountLookingFor, Direction: Ascending})
	desc := Sort(leads, SortState{Key: SortAmountLookingFor, Direction: Descending})

	ascIDs := ids(asc)
	descIDs := ids(desc)
	for i := range ascIDs {
		require.Equal(t, ascIDs[i], descIDs[len(descIDs)-1-i])
	}
	require.Equal(t, leads[1].ID, ascIDs[0])
	require.Equal(t, leads[2].ID, descIDs[0])
}

func TestSortCallbacksMissingAlwaysLast(t *testing.T) {
	t.Parallel()

	leads := sampleLeads(t)
	for _, dir := range []Direction{Ascending, Descending} {
		sorted := Sort(leads, SortState{Key: SortCallbackDate, Direction: dir})
		require.NotNil(t, sorted[0].CallbackDate)
		require.NotNil(t, sorted[1].CallbackDate)
		require.Nil(t, sorted[2].CallbackDate)
		require.Nil(t, sorted[3].CallbackDate)
		require.Equal(t, leads[1].ID, sorted[2].ID, "ties keep input order")
	}

	asc := Sort(leads, SortState{Key: SortCallbackDate, Direction: Ascending})
	require.Equal(t, leads[2].ID, asc[0].ID)
	desc := Sort(leads, SortState{Key: SortCallbackDate, Direction: Descending})
	require.Equal(t, leads[0].ID, desc[0].ID)
}

func TestSortTextIsCaseInsensitiveAndStable(t *testing.T) {
	t.Parallel()

	a := newLead("zeta", 1, model.StatusNeedsFollowUp)
	b := newLead("Alpha", 1, model.StatusNeedsFollowUp)
	c := newLead("alpha", 1, model.StatusNeedsFollowUp)

	sorted := Sort([]model.Lead{a, b, c}, SortState{Key: SortMerchantName, Direction: Ascending})
	require.Equal(t, []uuid.UUID{b.ID, c.ID, a.ID}, ids(sorted))

	byDefaults := Sort(sampleLeads(t), SortState{Key: SortHasDefaults, Direction: Descending})
	require.True(t, byDefaults[0].HasDefaults)
	require.True(t, byDefaults[1].HasDefaults)
	require.False(t, byDefaults[2].HasDefaults)
}

func TestSortDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	leads := sampleLeads(t)
	before := ids(leads)
	_ = Sort(leads, SortState{Key: SortAmountLookingFor, Direction: Descending})
	require.Equal(t, before, ids(leads))
}

func TestPipelineIsPartitionInDisplayOrder(t *testing.T) {
	t.Parallel()

	leads := sampleLeads(t)
	groups := Pipeline(leads)

	require.Len(t, groups, 3)
	require.Equal(t, model.StatusNeedsFollowUp, groups[0].Status)
	require.Equal(t, model.StatusAwaitingCallback, groups[1].Status)
	require.Equal(t, model.StatusClosedFunded, groups[2].Status)
	require.Equal(t, []uuid.UUID{leads[0].ID, leads[3].ID}, ids(groups[0].Leads))
	require.Equal(t, model.StatusStyle(model.StatusClosedFunded), groups[2].Style)

	seen := map[uuid.UUID]int{}
	for _, g := range groups {
		require.NotEmpty(t, g.Leads)
		for _, l := range g.Leads {
			seen[l.ID]++
		}
	}
	require.Len(t, seen, len(leads))
	for _, count := range seen {
		require.Equal(t, 1, count)
	}
}

func TestTopFundingExcludesTerminal(t *testing.T) {
	t.Parallel()

	leads := sampleLeads(t)
	top := TopFunding(leads, DefaultBoardSize)
	require.Equal(t, []uuid.UUID{leads[3].ID, leads[0].ID, leads[1].ID}, ids(top))
	require.Len(t, TopFunding(leads, 1), 1)
}

func TestAtRiskKeepsNaturalOrder(t *testing.T) {
	t.Parallel()

	leads := sampleLeads(t)
	leads[3].Status = model.StatusDefaultsDelayed
	require.Equal(t, []uuid.UUID{leads[1].ID}, ids(AtRisk(leads, DefaultBoardSize)))

	leads[3].Status = model.StatusReadyToClose
	require.Equal(t, []uuid.UUID{leads[1].ID, leads[3].ID}, ids(AtRisk(leads, DefaultBoardSize)))
}

func TestUpcomingCallbacksOverdue(t *testing.T) {
	t.Parallel()

	leads := sampleLeads(t)
	extra := newLead("Echo Bakery", 10000, model.StatusInProgress)
	extra.CallbackDate = date(t, "2025-02-25")
	extra.CallbackTime = &model.ClockTime{Hour: 8, Minute: 0}
	leads = append(leads, extra)

	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	callbacks := UpcomingCallbacks(leads, DefaultBoardSize, now, time.UTC)

	require.Len(t, callbacks, 3)
	require.Equal(t, leads[2].ID, callbacks[0].Lead.ID)
	require.False(t, callbacks[0].Overdue, "terminal leads are never overdue")
	require.Equal(t, extra.ID, callbacks[1].Lead.ID)
	require.True(t, callbacks[1].Overdue)
	require.Equal(t, leads[0].ID, callbacks[2].Lead.ID)
	require.False(t, callbacks[2].Overdue, "date-only callbacks are due until the day ends")

	nextDay := time.Date(2025, time.March, 2, 0, 0, 0, 0, time.UTC)
	callbacks = UpcomingCallbacks(leads, DefaultBoardSize, nextDay, time.UTC)
	require.True(t, callbacks[2].Overdue)
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	leads := sampleLeads(t)
	now := time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)
	stats := Summarize(leads, now, time.UTC)

	require.Equal(t, 4, stats.Total)
	require.Equal(t, 3, stats.InPipeline)
	require.Equal(t, 1, stats.ClosedFunded)
	require.Equal(t, 1, stats.FollowUpsDue)
	require.InDelta(t, 150000, stats.PipelineAmount, 0.001)
}

func TestFundingScenario(t *testing.T) {
	t.Parallel()

	lead := newLead("Scenario Shop", 50000, model.StatusNeedsFollowUp)
	lead.MonthlyRevenue = 10000
	leads := []model.Lead{lead}

	require.Len(t, Apply(leads, Filter{FundingAmountMin: ptr(40000.0), FundingAmountMax: ptr(60000.0)}), 1)
	require.Empty(t, Apply(leads, Filter{FundingAmountMin: ptr(60001.0)}))
}

func TestParseFilter(t *testing.T) {
	t.Parallel()

	values := url.Values{}
	values.Set("search", " acme ")
	values.Set("status", "all")
	values.Set("documentStatus", "Waiting on Documents")
	values.Set("callbackDateStart", "2025-03-01")
	values.Set("fundingAmountMin", "40000")
	values.Set("defaultsMax", "3")

	f, err := ParseFilter(values)
	require.NoError(t, err)
	require.Equal(t, "acme", f.SearchTerm)
	require.Nil(t, f.Status)
	require.Equal(t, model.DocumentsWaiting, *f.DocumentStatus)
	require.Equal(t, "2025-03-01", f.CallbackDateStart.String())
	require.InDelta(t, 40000, *f.FundingAmountMin, 0.001)
	require.Nil(t, f.FundingAmountMax)
	require.Equal(t, 3, *f.DefaultsMax)

	f, err = ParseFilter(url.Values{})
	require.NoError(t, err)
	require.Equal(t, Filter{}, f)
}

func TestParseFilterCollectsErrors(t *testing.T) {
	t.Parallel()

	values := url.Values{}
	values.Set("status", "Lost")
	values.Set("creationDateEnd", "yesterday")
	values.Set("fundingAmountMax", "-1")

	_, err := ParseFilter(values)
	var qerr *QueryError
	require.ErrorAs(t, err, &qerr)
	require.Contains(t, qerr.Fields, "status")
	require.Contains(t, qerr.Fields, "creationDateEnd")
	require.Contains(t, qerr.Fields, "fundingAmountMax")
}

func TestParseFilterRejectsNonFiniteAmounts(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"NaN", "nan", "+Inf", "Inf", "-Inf"} {
		for _, name := range []string{"fundingAmountMin", "fundingAmountMax"} {
			_, err := ParseFilter(url.Values{name: {raw}})
			var qerr *QueryError
			require.ErrorAs(t, err, &qerr, "%s=%s", name, raw)
			require.Contains(t, qerr.Fields, name)
		}
	}
}

func TestParseFilterRejectsInvertedRanges(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		values url.Values
		field  string
	}{
		{name: "funding", values: url.Values{"fundingAmountMin": {"60000"}, "fundingAmountMax": {"40000"}}, field: "fundingAmountMin"},
		{name: "defaults", values: url.Values{"defaultsMin": {"3"}, "defaultsMax": {"1"}}, field: "defaultsMin"},
		{name: "callback", values: url.Values{"callbackDateStart": {"2024-03-10"}, "callbackDateEnd": {"2024-03-01"}}, field: "callbackDateStart"},
		{name: "creation", values: url.Values{"creationDateStart": {"2024-03-10"}, "creationDateEnd": {"2024-03-09"}}, field: "creationDateStart"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseFilter(tc.values)
			var qerr *QueryError
			require.ErrorAs(t, err, &qerr)
			require.Contains(t, qerr.Fields, tc.field)
		})
	}
}

func TestParseFilterAcceptsEqualBounds(t *testing.T) {
	t.Parallel()

	f, err := ParseFilter(url.Values{
		"fundingAmountMin":  {"50000"},
		"fundingAmountMax":  {"50000"},
		"defaultsMin":       {"2"},
		"defaultsMax":       {"2"},
		"callbackDateStart": {"2024-03-10"},
		"callbackDateEnd":   {"2024-03-10"},
	})
	require.NoError(t, err)
	require.Equal(t, 50000.0, *f.FundingAmountMax)
}

func TestParseSort(t *testing.T) {
	t.Parallel()

	state, err := ParseSort(url.Values{})
	require.NoError(t, err)
	require.Equal(t, DefaultSort, state)

	state, err = ParseSort(url.Values{"sort": {"amountLookingFor"}, "direction": {"DESC"}})
	require.NoError(t, err)
	require.Equal(t, SortState{Key: SortAmountLookingFor, Direction: Descending}, state)

	_, err = ParseSort(url.Values{"sort": {"agentId"}})
	require.Error(t, err)

	limit, err := ParseLimit(url.Values{})
	require.NoError(t, err)
	require.Equal(t, DefaultBoardSize, limit)
	_, err = ParseLimit(url.Values{"limit": {"0"}})
	require.Error(t, err)
}
