package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/simple-easy-sites/simple-sales-crm/domains/leads/be/model"
	"github.com/simple-easy-sites/simple-sales-crm/domains/leads/be/service"
	"github.com/simple-easy-sites/simple-sales-crm/platform/go/httpx"
)

type mockService struct {
	listFn      func(ctx context.Context) ([]model.Lead, error)
	getFn       func(ctx context.Context, id uuid.UUID) (model.Lead, error)
	createFn    func(ctx context.Context, input service.CreateInput) (model.Lead, error)
	updateFn    func(ctx context.Context, id uuid.UUID, input service.LeadInput) (model.Lead, error)
	deleteFn    func(ctx context.Context, id uuid.UUID) error
	addNoteFn   func(ctx context.Context, id uuid.UUID, text string) (model.Lead, error)
	logUpdateFn func(ctx context.Context, id uuid.UUID, input service.LogUpdateInput) (model.Lead, error)
}

func (m *mockService) List(ctx context.Context) ([]model.Lead, error) {
	if m.listFn == nil {
		panic("listFn not configured")
	}
	return m.listFn(ctx)
}

func (m *mockService) Get(ctx context.Context, id uuid.UUID) (model.Lead, error) {
	if m.getFn == nil {
		panic("getFn not configured")
	}
	return m.getFn(ctx, id)
}

func (m *mockService) Create(ctx context.Context, input service.CreateInput) (model.Lead, error) {
	if m.createFn == nil {
		panic("createFn not configured")
	}
	return m.createFn(ctx, input)
}

func (m *mockService) Update(ctx context.Context, id uuid.UUID, input service.LeadInput) (model.Lead, error) {
	if m.updateFn == nil {
		panic("updateFn not configured")
	}
	return m.updateFn(ctx, id, input)
}

func (m *mockService) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFn == nil {
		panic("deleteFn not configured")
	}
	return m.deleteFn(ctx, id)
}

func (m *mockService) AddNote(ctx context.Context, id uuid.UUID, text string) (model.Lead, error) {
	if m.addNoteFn == nil {
		panic("addNoteFn not configured")
	}
	return m.addNoteFn(ctx, id, text)
}

func (m *mockService) LogUpdate(ctx context.Context, id uuid.UUID, input service.LogUpdateInput) (model.Lead, error) {
	if m.logUpdateFn == nil {
		panic("logUpdateFn not configured")
	}
	return m.logUpdateFn(ctx, id, input)
}

type exportCounter map[string]int

func (c exportCounter) RecordExport(format string) {
	c[format]++
}

var testNow = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

func newRouter(t *testing.T, svc service.Service, opts Options) http.Handler {
	t.Helper()
	if opts.Now == nil {
		opts.Now = func() time.Time { return testNow }
	}
	r := chi.NewRouter()
	r.Route("/api/v1", New(svc, zaptest.NewLogger(t), opts).Routes)
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func decodeProblem(t *testing.T, resp *httptest.ResponseRecorder) httpx.ProblemDetails {
	t.Helper()
	require.Equal(t, httpx.ProblemContentType, resp.Header().Get("Content-Type"))
	var problem httpx.ProblemDetails
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &problem))
	return problem
}

func lead(name string, status model.LeadStatus, amount float64, created int) model.Lead {
	return model.Lead{
		ID:               uuid.New(),
		MerchantName:     name,
		BusinessName:     name + " LLC",
		AmountLookingFor: amount,
		Status:           status,
		CreationDate:     model.Date{Year: 2024, Month: time.March, Day: created},
	}
}

func sampleLeads() []model.Lead {
	callback := model.Date{Year: 2024, Month: time.March, Day: 9}
	overdue := lead("Overdue", model.StatusAwaitingCallback, 20000, 2)
	overdue.CallbackDate = &callback

	return []model.Lead{
		lead("Alpha", model.StatusNeedsFollowUp, 10000, 5),
		lead("Bravo", model.StatusClosedFunded, 90000, 4),
		overdue,
	}
}

func TestLeadsListFiltersAndSorts(t *testing.T) {
	t.Parallel()

	svc := &mockService{listFn: func(ctx context.Context) ([]model.Lead, error) {
		return sampleLeads(), nil
	}}

	resp := do(t, newRouter(t, svc, Options{}), http.MethodGet, "/api/v1/leads?fundingAmountMin=15000&sort=amountLookingFor&direction=desc", "")
	require.Equal(t, http.StatusOK, resp.Code)

	var body leadListResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, 3, body.Total)
	require.Equal(t, 2, body.Matched)
	require.Equal(t, "Bravo", body.Items[0].MerchantName)
	require.Equal(t, "Overdue", body.Items[1].MerchantName)
	require.Equal(t, "desc", string(body.Sort.Direction))
	require.NotEmpty(t, body.Items[0].StatusStyle.TextColor)
}

func TestLeadsListDefaultSortIsNewestFirst(t *testing.T) {
	t.Parallel()

	svc := &mockService{listFn: func(ctx context.Context) ([]model.Lead, error) {
		return sampleLeads(), nil
	}}

	resp := do(t, newRouter(t, svc, Options{}), http.MethodGet, "/api/v1/leads", "")
	require.Equal(t, http.StatusOK, resp.Code)

	var body leadListResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, []string{"Alpha", "Bravo", "Overdue"}, []string{body.Items[0].MerchantName, body.Items[1].MerchantName, body.Items[2].MerchantName})
	require.Equal(t, "2024-03-05", body.Items[0].CreationDate.String())
}

func TestLeadsListInvalidQuery(t *testing.T) {
	t.Parallel()

	router := newRouter(t, &mockService{}, Options{})

	resp := do(t, router, http.MethodGet, "/api/v1/leads?fundingAmountMin=lots&creationDateStart=03/10/2024", "")
	require.Equal(t, http.StatusBadRequest, resp.Code)
	problem := decodeProblem(t, resp)
	require.NotNil(t, problem.Errors)
	require.Contains(t, *problem.Errors, "fundingAmountMin")
	require.Contains(t, *problem.Errors, "creationDateStart")

	resp = do(t, router, http.MethodGet, "/api/v1/leads?sort=color&direction=sideways", "")
	require.Equal(t, http.StatusBadRequest, resp.Code)
	problem = decodeProblem(t, resp)
	require.Contains(t, *problem.Errors, "sort")
	require.Contains(t, *problem.Errors, "direction")
}

func TestLeadsListRemoteFailure(t *testing.T) {
	t.Parallel()

	svc := &mockService{listFn: func(ctx context.Context) ([]model.Lead, error) {
		return nil, &service.RemoteError{Op: "list leads", Err: errors.New("timeout")}
	}}

	resp := do(t, newRouter(t, svc, Options{}), http.MethodGet, "/api/v1/leads", "")
	require.Equal(t, http.StatusBadGateway, resp.Code)
	problem := decodeProblem(t, resp)
	require.Equal(t, "could not list leads", *problem.Detail)
}

func TestLeadsCreate(t *testing.T) {
	t.Parallel()

	created := lead("Alice", model.StatusNeedsFollowUp, 50000, 10)
	svc := &mockService{}
	svc.createFn = func(ctx context.Context, input service.CreateInput) (model.Lead, error) {
		require.Equal(t, "Alice", input.MerchantName)
		require.Equal(t, "Lender A: 15000", *input.PositionBalances)
		require.Len(t, input.Positions, 0)
		require.Equal(t, "first call", *input.InitialNote)
		require.Nil(t, input.SourceQuickNoteID)
		return created, nil
	}

	body := `{"merchantName":"Alice","businessName":"Alice LLC","mainPhoneNumber":"555-123-4567","positionBalances":"Lender A: 15000","initialNote":"first call"}`
	resp := do(t, newRouter(t, svc, Options{}), http.MethodPost, "/api/v1/leads", body)
	require.Equal(t, http.StatusCreated, resp.Code)
	require.Equal(t, "/api/v1/leads/"+created.ID.String(), resp.Header().Get("Location"))
}

func TestLeadsCreateRejections(t *testing.T) {
	t.Parallel()

	svc := &mockService{}
	svc.createFn = func(ctx context.Context, input service.CreateInput) (model.Lead, error) {
		if input.MerchantName == "" {
			return model.Lead{}, &service.ValidationError{Fields: service.FieldErrors{"merchantName": {"merchantName is required"}}}
		}
		return model.Lead{}, service.ErrUnauthenticated
	}
	router := newRouter(t, svc, Options{})

	resp := do(t, router, http.MethodPost, "/api/v1/leads", "")
	require.Equal(t, http.StatusBadRequest, resp.Code)

	resp = do(t, router, http.MethodPost, "/api/v1/leads", `{"merchantName":`)
	require.Equal(t, http.StatusBadRequest, resp.Code)

	resp = do(t, router, http.MethodPost, "/api/v1/leads", `{"businessName":"x"}`)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	problem := decodeProblem(t, resp)
	require.Contains(t, *problem.Errors, "merchantName")

	resp = do(t, router, http.MethodPost, "/api/v1/leads", `{"merchantName":"x"}`)
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestLeadsGetAndNotFound(t *testing.T) {
	t.Parallel()

	known := lead("Alice", model.StatusInProgress, 1, 1)
	known.Notes = []model.Note{
		{ID: uuid.New(), Text: "old", Timestamp: testNow.Add(-time.Hour)},
		{ID: uuid.New(), Text: "new", Timestamp: testNow},
	}
	svc := &mockService{getFn: func(ctx context.Context, id uuid.UUID) (model.Lead, error) {
		if id == known.ID {
			return known, nil
		}
		return model.Lead{}, service.ErrNotFound
	}}
	router := newRouter(t, svc, Options{})

	resp := do(t, router, http.MethodGet, "/api/v1/leads/"+known.ID.String(), "")
	require.Equal(t, http.StatusOK, resp.Code)
	var body LeadResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, "new", body.Notes[0].Text)

	resp = do(t, router, http.MethodGet, "/api/v1/leads/"+uuid.NewString(), "")
	require.Equal(t, http.StatusNotFound, resp.Code)

	resp = do(t, router, http.MethodGet, "/api/v1/leads/not-a-uuid", "")
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestLeadsUpdate(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	svc := &mockService{}
	svc.updateFn = func(ctx context.Context, leadID uuid.UUID, input service.LeadInput) (model.Lead, error) {
		require.Equal(t, id, leadID)
		require.False(t, input.HasDefaults)
		require.Len(t, input.Positions, 1)
		require.Equal(t, "Weekly", input.Positions[0].PaymentFrequency)
		return model.Lead{ID: leadID, MerchantName: input.MerchantName}, nil
	}

	body := `{"merchantName":"Alice","businessName":"A","mainPhoneNumber":"555","hasDefaults":false,"positions":[{"lenderName":"L","originalAmount":10,"currentBalance":5,"paymentFrequency":"Weekly"}]}`
	resp := do(t, newRouter(t, svc, Options{}), http.MethodPut, "/api/v1/leads/"+id.String(), body)
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestLeadsDeleteRequiresConfirmation(t *testing.T) {
	t.Parallel()

	deleted := 0
	svc := &mockService{deleteFn: func(ctx context.Context, id uuid.UUID) error {
		deleted++
		return nil
	}}
	router := newRouter(t, svc, Options{})
	target := "/api/v1/leads/" + uuid.NewString()

	resp := do(t, router, http.MethodDelete, target, "")
	require.Equal(t, http.StatusPreconditionRequired, resp.Code)
	require.Zero(t, deleted)

	resp = do(t, router, http.MethodDelete, target+"?confirm=true", "")
	require.Equal(t, http.StatusNoContent, resp.Code)
	require.Equal(t, 1, deleted)
}

func TestLeadsAddNoteAndLogUpdate(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	svc := &mockService{}
	svc.addNoteFn = func(ctx context.Context, leadID uuid.UUID, text string) (model.Lead, error) {
		require.Equal(t, "called back", text)
		return model.Lead{ID: leadID}, nil
	}
	svc.logUpdateFn = func(ctx context.Context, leadID uuid.UUID, input service.LogUpdateInput) (model.Lead, error) {
		require.Equal(t, "left voicemail", *input.Note)
		require.Equal(t, "2024-03-12", input.Callback.Date)
		require.Equal(t, "10:15", input.Callback.Time)
		require.Nil(t, input.Status)
		return model.Lead{ID: leadID}, nil
	}
	router := newRouter(t, svc, Options{})

	resp := do(t, router, http.MethodPost, "/api/v1/leads/"+id.String()+"/notes", `{"text":"called back"}`)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = do(t, router, http.MethodPost, "/api/v1/leads/"+id.String()+"/updates", `{"note":"left voicemail","callback":{"date":"2024-03-12","time":"10:15"}}`)
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestLeadsPipeline(t *testing.T) {
	t.Parallel()

	svc := &mockService{listFn: func(ctx context.Context) ([]model.Lead, error) {
		return sampleLeads(), nil
	}}

	resp := do(t, newRouter(t, svc, Options{}), http.MethodGet, "/api/v1/leads/pipeline", "")
	require.Equal(t, http.StatusOK, resp.Code)

	var body pipelineResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Len(t, body.Groups, 3)
	require.Equal(t, string(model.StatusNeedsFollowUp), body.Groups[0].Status)
	require.Equal(t, string(model.StatusAwaitingCallback), body.Groups[1].Status)
	require.Equal(t, string(model.StatusClosedFunded), body.Groups[2].Status)
	require.Equal(t, 90000.0, body.Groups[2].Amount)
}

func TestLeadsExport(t *testing.T) {
	t.Parallel()

	counter := exportCounter{}
	svc := &mockService{listFn: func(ctx context.Context) ([]model.Lead, error) {
		return sampleLeads(), nil
	}}
	router := newRouter(t, svc, Options{Exports: counter})

	resp := do(t, router, http.MethodGet, "/api/v1/leads/export?format=csv&status=Closed+%2F+Funded", "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "text/csv; charset=utf-8", resp.Header().Get("Content-Type"))
	require.Contains(t, resp.Header().Get("Content-Disposition"), "leads.csv")
	lines := strings.Split(strings.TrimSpace(resp.Body.String()), "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[1], "Bravo,"))

	resp = do(t, router, http.MethodGet, "/api/v1/leads/export?format=xlsx", "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.NotZero(t, resp.Body.Len())

	resp = do(t, router, http.MethodGet, "/api/v1/leads/export?format=pdf", "")
	require.Equal(t, http.StatusBadRequest, resp.Code)

	require.Equal(t, exportCounter{"csv": 1, "xlsx": 1}, counter)
}

func TestDashboard(t *testing.T) {
	t.Parallel()

	svc := &mockService{listFn: func(ctx context.Context) ([]model.Lead, error) {
		return sampleLeads(), nil
	}}

	resp := do(t, newRouter(t, svc, Options{}), http.MethodGet, "/api/v1/dashboard?limit=2", "")
	require.Equal(t, http.StatusOK, resp.Code)

	var body dashboardResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, 3, body.Stats.Total)
	require.Equal(t, 1, body.Stats.ClosedFunded)
	require.Equal(t, 1, body.Stats.FollowUpsDue)
	require.Len(t, body.TopFunding, 2)
	require.Equal(t, "Overdue", body.TopFunding[0].MerchantName)
	require.Equal(t, "Alpha", body.TopFunding[1].MerchantName)
	require.Len(t, body.UpcomingCallbacks, 1)
	require.True(t, body.UpcomingCallbacks[0].Overdue)

	resp = do(t, newRouter(t, svc, Options{}), http.MethodGet, "/api/v1/dashboard?limit=0", "")
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestStatuses(t *testing.T) {
	t.Parallel()

	resp := do(t, newRouter(t, &mockService{}, Options{}), http.MethodGet, "/api/v1/statuses", "")
	require.Equal(t, http.StatusOK, resp.Code)

	var body statusesResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Len(t, body.Statuses, len(model.Statuses()))
	require.Equal(t, string(model.StatusNeedsFollowUp), body.Statuses[0].Value)
	require.True(t, body.Statuses[6].Terminal)
	require.Equal(t, 5, body.DefaultBoardLimit)
}
