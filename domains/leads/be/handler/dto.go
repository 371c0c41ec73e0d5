package handler

import (
	"time"

	"github.com/google/uuid"

	"github.com/simple-easy-sites/simple-sales-crm/domains/leads/be/aggregate"
	"github.com/simple-easy-sites/simple-sales-crm/domains/leads/be/model"
	"github.com/simple-easy-sites/simple-sales-crm/domains/leads/be/service"
)

type positionPayload struct {
	ID               *uuid.UUID `json:"id,omitempty"`
	LenderName       string     `json:"lenderName"`
	OriginalAmount   float64    `json:"originalAmount"`
	CurrentBalance   float64    `json:"currentBalance"`
	PaymentFrequency string     `json:"paymentFrequency,omitempty"`
}

// LeadRequest is the body of create and update calls. InitialNote is read on create only.
type LeadRequest struct {
	MerchantName         string            `json:"merchantName"`
	BusinessName         string            `json:"businessName"`
	MainPhoneNumber      string            `json:"mainPhoneNumber"`
	SecondaryPhoneNumber *string           `json:"secondaryPhoneNumber,omitempty"`
	Email                *string           `json:"email,omitempty"`
	Location             string            `json:"location,omitempty"`
	MonthlyRevenue       float64           `json:"monthlyRevenue"`
	AmountLookingFor     float64           `json:"amountLookingFor"`
	NumberOfPositions    int               `json:"numberOfPositions"`
	Positions            []positionPayload `json:"positions,omitempty"`
	PositionBalances     *string           `json:"positionBalances,omitempty"`
	HasDefaults          bool              `json:"hasDefaults"`
	NumberOfDefaults     *int              `json:"numberOfDefaults,omitempty"`
	DefaultsDescription  *string           `json:"defaultsDescription,omitempty"`
	DocumentStatus       string            `json:"documentStatus,omitempty"`
	DocumentType         string            `json:"documentType,omitempty"`
	DocumentNotes        string            `json:"documentNotes,omitempty"`
	Status               string            `json:"status,omitempty"`
	CallbackDate         string            `json:"callbackDate,omitempty"`
	CallbackTime         string            `json:"callbackTime,omitempty"`
	InitialNote          *string           `json:"initialNote,omitempty"`
}

// ToLeadInput converts the wire body into the service input.
func (r LeadRequest) ToLeadInput() service.LeadInput {
	input := service.LeadInput{
		MerchantName:         r.MerchantName,
		BusinessName:         r.BusinessName,
		MainPhoneNumber:      r.MainPhoneNumber,
		SecondaryPhoneNumber: r.SecondaryPhoneNumber,
		Email:                r.Email,
		Location:             r.Location,
		MonthlyRevenue:       r.MonthlyRevenue,
		AmountLookingFor:     r.AmountLookingFor,
		NumberOfPositions:    r.NumberOfPositions,
		PositionBalances:     r.PositionBalances,
		HasDefaults:          r.HasDefaults,
		NumberOfDefaults:     r.NumberOfDefaults,
		DefaultsDescription:  r.DefaultsDescription,
		DocumentStatus:       r.DocumentStatus,
		DocumentType:         r.DocumentType,
		DocumentNotes:        r.DocumentNotes,
		Status:               r.Status,
		CallbackDate:         r.CallbackDate,
		CallbackTime:         r.CallbackTime,
	}
	for _, p := range r.Positions {
		input.Positions = append(input.Positions, service.PositionInput{
			ID:               p.ID,
			LenderName:       p.LenderName,
			OriginalAmount:   p.OriginalAmount,
			CurrentBalance:   p.CurrentBalance,
			PaymentFrequency: p.PaymentFrequency,
		})
	}
	return input
}

type noteRequest struct {
	Text string `json:"text"`
}

type callbackPayload struct {
	Date string `json:"date"`
	Time string `json:"time,omitempty"`
}

type logUpdateRequest struct {
	Note     *string          `json:"note,omitempty"`
	Callback *callbackPayload `json:"callback,omitempty"`
	Status   *string          `json:"status,omitempty"`
}

func (r logUpdateRequest) toServiceInput() service.LogUpdateInput {
	input := service.LogUpdateInput{Note: r.Note, Status: r.Status}
	if r.Callback != nil {
		input.Callback = &service.CallbackInput{Date: r.Callback.Date, Time: r.Callback.Time}
	}
	return input
}

// LeadResponse is the wire shape of a lead, with derived totals and notes newest first.
type LeadResponse struct {
	ID                   uuid.UUID        `json:"id"`
	AgentID              string           `json:"agentId"`
	MerchantName         string           `json:"merchantName"`
	BusinessName         string           `json:"businessName"`
	MainPhoneNumber      string           `json:"mainPhoneNumber"`
	SecondaryPhoneNumber *string          `json:"secondaryPhoneNumber,omitempty"`
	Email                *string          `json:"email,omitempty"`
	Location             string           `json:"location"`
	MonthlyRevenue       float64          `json:"monthlyRevenue"`
	AmountLookingFor     float64          `json:"amountLookingFor"`
	NumberOfPositions    int              `json:"numberOfPositions"`
	Positions            []model.Position `json:"positions"`
	TotalOriginal        float64          `json:"totalOriginal"`
	TotalRemaining       float64          `json:"totalRemaining"`
	HasDefaults          bool             `json:"hasDefaults"`
	NumberOfDefaults     *int             `json:"numberOfDefaults,omitempty"`
	DefaultsDescription  *string          `json:"defaultsDescription,omitempty"`
	DocumentStatus       string           `json:"documentStatus"`
	DocumentType         string           `json:"documentType"`
	DocumentNotes        string           `json:"documentNotes"`
	Status               string           `json:"status"`
	StatusStyle          model.Style      `json:"statusStyle"`
	CallbackDate         *model.Date      `json:"callbackDate,omitempty"`
	CallbackTime         *model.ClockTime `json:"callbackTime,omitempty"`
	CreationDate         model.Date       `json:"creationDate"`
	Notes                []model.Note     `json:"notes"`
	CreatedAt            time.Time        `json:"createdAt"`
	UpdatedAt            time.Time        `json:"updatedAt"`
}

// ToLeadResponse renders lead for the API.
func ToLeadResponse(lead model.Lead) LeadResponse {
	positions := lead.Positions
	if positions == nil {
		positions = []model.Position{}
	}
	return LeadResponse{
		ID:                   lead.ID,
		AgentID:              lead.AgentID,
		MerchantName:         lead.MerchantName,
		BusinessName:         lead.BusinessName,
		MainPhoneNumber:      lead.MainPhoneNumber,
		SecondaryPhoneNumber: lead.SecondaryPhoneNumber,
		Email:                lead.Email,
		Location:             lead.Location,
		MonthlyRevenue:       lead.MonthlyRevenue,
		AmountLookingFor:     lead.AmountLookingFor,
		NumberOfPositions:    lead.NumberOfPositions,
		Positions:            positions,
		TotalOriginal:        lead.TotalOriginal(),
		TotalRemaining:       lead.TotalRemaining(),
		HasDefaults:          lead.HasDefaults,
		NumberOfDefaults:     lead.NumberOfDefaults,
		DefaultsDescription:  lead.DefaultsDescription,
		DocumentStatus:       string(lead.DocumentStatus),
		DocumentType:         string(lead.DocumentType),
		DocumentNotes:        lead.DocumentNotes,
		Status:               string(lead.Status),
		StatusStyle:          model.StatusStyle(lead.Status),
		CallbackDate:         lead.CallbackDate,
		CallbackTime:         lead.CallbackTime,
		CreationDate:         lead.CreationDate,
		Notes:                lead.NotesNewestFirst(),
		CreatedAt:            lead.CreatedAt,
		UpdatedAt:            lead.UpdatedAt,
	}
}

func toLeadResponses(leads []model.Lead) []LeadResponse {
	items := make([]LeadResponse, 0, len(leads))
	for _, lead := range leads {
		items = append(items, ToLeadResponse(lead))
	}
	return items
}

type sortPayload struct {
	Key       aggregate.SortKey   `json:"key"`
	Direction aggregate.Direction `json:"direction"`
}

type leadListResponse struct {
	Items []LeadResponse `json:"items"`
	Total int            `json:"total"`
	// Matched counts the leads left after filtering; Total counts every lead of the agent.
	Matched int         `json:"matched"`
	Sort    sortPayload `json:"sort"`
}

type statusGroupResponse struct {
	Status string         `json:"status"`
	Style  model.Style    `json:"style"`
	Count  int            `json:"count"`
	Amount float64        `json:"amount"`
	Leads  []LeadResponse `json:"leads"`
}

type pipelineResponse struct {
	Groups []statusGroupResponse `json:"groups"`
}

func toPipelineResponse(groups []aggregate.StatusGroup) pipelineResponse {
	resp := pipelineResponse{Groups: make([]statusGroupResponse, 0, len(groups))}
	for _, g := range groups {
		var amount float64
		for _, lead := range g.Leads {
			amount += lead.AmountLookingFor
		}
		resp.Groups = append(resp.Groups, statusGroupResponse{
			Status: string(g.Status),
			Style:  g.Style,
			Count:  len(g.Leads),
			Amount: amount,
			Leads:  toLeadResponses(g.Leads),
		})
	}
	return resp
}

type statsResponse struct {
	Total          int     `json:"total"`
	InPipeline     int     `json:"inPipeline"`
	FollowUpsDue   int     `json:"followUpsDue"`
	ClosedFunded   int     `json:"closedFunded"`
	PipelineAmount float64 `json:"pipelineAmount"`
}

type callbackResponse struct {
	Lead    LeadResponse `json:"lead"`
	At      time.Time    `json:"at"`
	Overdue bool         `json:"overdue"`
}

type dashboardResponse struct {
	Stats             statsResponse      `json:"stats"`
	TopFunding        []LeadResponse     `json:"topFunding"`
	AtRisk            []LeadResponse     `json:"atRisk"`
	UpcomingCallbacks []callbackResponse `json:"upcomingCallbacks"`
}

func toDashboardResponse(stats aggregate.Stats, top, atRisk []model.Lead, callbacks []aggregate.Callback) dashboardResponse {
	resp := dashboardResponse{
		Stats: statsResponse{
			Total:          stats.Total,
			InPipeline:     stats.InPipeline,
			FollowUpsDue:   stats.FollowUpsDue,
			ClosedFunded:   stats.ClosedFunded,
			PipelineAmount: stats.PipelineAmount,
		},
		TopFunding:        toLeadResponses(top),
		AtRisk:            toLeadResponses(atRisk),
		UpcomingCallbacks: make([]callbackResponse, 0, len(callbacks)),
	}
	for _, c := range callbacks {
		resp.UpcomingCallbacks = append(resp.UpcomingCallbacks, callbackResponse{
			Lead:    ToLeadResponse(c.Lead),
			At:      c.At,
			Overdue: c.Overdue,
		})
	}
	return resp
}

type statusOption struct {
	Value    string      `json:"value"`
	Style    model.Style `json:"style"`
	Terminal bool        `json:"terminal"`
}

type statusesResponse struct {
	Statuses          []statusOption      `json:"statuses"`
	DocumentStatuses  []string            `json:"documentStatuses"`
	DocumentTypes     []string            `json:"documentTypes"`
	PaymentFrequency  []string            `json:"paymentFrequencies"`
	SortKeys          []aggregate.SortKey `json:"sortKeys"`
	DefaultSort       sortPayload         `json:"defaultSort"`
	DefaultBoardLimit int                 `json:"defaultBoardLimit"`
}

func buildStatusesResponse() statusesResponse {
	resp := statusesResponse{
		SortKeys:          aggregate.SortKeys(),
		DefaultSort:       sortPayload{Key: aggregate.DefaultSort.Key, Direction: aggregate.DefaultSort.Direction},
		DefaultBoardLimit: aggregate.DefaultBoardSize,
		PaymentFrequency:  []string{string(model.PaymentDaily), string(model.PaymentWeekly)},
	}
	for _, s := range model.Statuses() {
		resp.Statuses = append(resp.Statuses, statusOption{Value: string(s), Style: model.StatusStyle(s), Terminal: s.Terminal()})
	}
	for _, s := range model.DocumentStatuses() {
		resp.DocumentStatuses = append(resp.DocumentStatuses, string(s))
	}
	for _, d := range model.DocumentTypes() {
		resp.DocumentTypes = append(resp.DocumentTypes, string(d))
	}
	return resp
}
