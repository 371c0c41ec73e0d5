package service

import (
	"time"

	"github.com/simple-easy-sites/simple-sales-crm/domains/leads/be/model"
	"github.com/simple-easy-sites/simple-sales-crm/platform/go/persistence"
)

func mapLead(record persistence.Lead) model.Lead {
	lead := model.Lead{
		ID:                   record.LeadID,
		AgentID:              record.AgentID,
		MerchantName:         record.MerchantName,
		BusinessName:         record.BusinessName,
		MainPhoneNumber:      record.MainPhoneNumber,
		SecondaryPhoneNumber: record.SecondaryPhoneNumber,
		Email:                record.Email,
		Location:             record.Location,
		MonthlyRevenue:       record.MonthlyRevenue,
		AmountLookingFor:     record.AmountLookingFor,
		NumberOfPositions:    record.NumberOfPositions,
		Positions:            make([]model.Position, 0, len(record.Positions)),
		HasDefaults:          record.HasDefaults,
		NumberOfDefaults:     record.NumberOfDefaults,
		DefaultsDescription:  record.DefaultsDescription,
		DocumentStatus:       model.DocumentStatus(record.DocumentStatus),
		DocumentType:         model.DocumentType(record.DocumentType),
		DocumentNotes:        record.DocumentNotes,
		Status:               model.LeadStatus(record.Status),
		CreationDate:         model.DateOf(record.CreationDate),
		Notes:                make([]model.Note, 0, len(record.Notes)),
		CreatedAt:            record.CreatedAt,
		UpdatedAt:            record.UpdatedAt,
	}

	for _, p := range record.Positions {
		lead.Positions = append(lead.Positions, model.Position{
			ID:               p.ID,
			LenderName:       p.LenderName,
			OriginalAmount:   p.OriginalAmount,
			CurrentBalance:   p.CurrentBalance,
			PaymentFrequency: model.PaymentFrequency(p.PaymentFrequency),
		})
	}
	for _, n := range record.Notes {
		lead.Notes = append(lead.Notes, model.Note{
			ID:                n.ID,
			Timestamp:         n.Timestamp,
			Text:              n.Text,
			AgentID:           n.AgentID,
			SourceQuickNoteID: n.SourceQuickNoteID,
		})
	}

	if record.CallbackDate != nil {
		date := model.DateOf(*record.CallbackDate)
		lead.CallbackDate = &date
		if record.CallbackTime != nil {
			if clock, err := model.ParseClockTime(*record.CallbackTime); err == nil {
				lead.CallbackTime = &clock
			}
		}
	}

	lead.NormalizeDefaults()
	return lead
}

func toNoteRecord(n model.Note) persistence.NoteRecord {
	return persistence.NoteRecord{
		ID:                n.ID,
		Timestamp:         n.Timestamp,
		Text:              n.Text,
		AgentID:           n.AgentID,
		SourceQuickNoteID: n.SourceQuickNoteID,
	}
}

func toNoteRecords(notes []model.Note) []persistence.NoteRecord {
	records := make([]persistence.NoteRecord, 0, len(notes))
	for _, n := range notes {
		records = append(records, toNoteRecord(n))
	}
	return records
}

func toPositionRecords(positions []model.Position) []persistence.PositionRecord {
	records := make([]persistence.PositionRecord, 0, len(positions))
	for _, p := range positions {
		records = append(records, persistence.PositionRecord{
			ID:               p.ID,
			LenderName:       p.LenderName,
			OriginalAmount:   p.OriginalAmount,
			CurrentBalance:   p.CurrentBalance,
			PaymentFrequency: string(p.PaymentFrequency),
		})
	}
	return records
}

func toDateColumn(d *model.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.In(time.UTC)
	return &t
}

func toClockColumn(c *model.ClockTime) *string {
	if c == nil {
		return nil
	}
	s := c.String()
	return &s
}
