package model

import "fmt"

// LeadStatus is the pipeline stage of a lead. The declared order of the
// constants is the display order of the pipeline.
type LeadStatus string

const (
	StatusNeedsFollowUp    LeadStatus = "Needs follow-up"
	StatusEmailedForDocs   LeadStatus = "Emailed for Docs"
	StatusAwaitingCallback LeadStatus = "Awaiting Callback"
	StatusInProgress       LeadStatus = "In progress / Closing"
	StatusDocsSubmitted    LeadStatus = "Docs submitted"
	StatusReadyToClose     LeadStatus = "Ready to Close"
	StatusClosedFunded     LeadStatus = "Closed / Funded"
	StatusDefaultsDelayed  LeadStatus = "Defaults / Delayed"
)

// DefaultStatus is assigned to leads created without an explicit status.
const DefaultStatus = StatusNeedsFollowUp

var statusOrder = []LeadStatus{
	StatusNeedsFollowUp,
	StatusEmailedForDocs,
	StatusAwaitingCallback,
	StatusInProgress,
	StatusDocsSubmitted,
	StatusReadyToClose,
	StatusClosedFunded,
	StatusDefaultsDelayed,
}

// Statuses returns every lead status in display order.
func Statuses() []LeadStatus {
	return append([]LeadStatus(nil), statusOrder...)
}

// ParseLeadStatus converts a raw value into a LeadStatus, rejecting anything
// outside the closed set.
func ParseLeadStatus(raw string) (LeadStatus, error) {
	for _, s := range statusOrder {
		if string(s) == raw {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown lead status %q", raw)
}

// Valid reports whether s is a member of the closed status set.
func (s LeadStatus) Valid() bool {
	_, err := ParseLeadStatus(string(s))
	return err == nil
}

// Terminal reports whether the lead has left the active pipeline.
func (s LeadStatus) Terminal() bool {
	return s == StatusClosedFunded || s == StatusDefaultsDelayed
}

// Rank is the position of s in display order, or -1 when s is unknown.
func (s LeadStatus) Rank() int {
	for i, candidate := range statusOrder {
		if candidate == s {
			return i
		}
	}
	return -1
}

// DocumentStatus tracks how far document collection has progressed.
type DocumentStatus string

const (
	DocumentsNotReceived DocumentStatus = "No Documents Received"
	DocumentsWaiting     DocumentStatus = "Waiting on Documents"
	DocumentsPartial     DocumentStatus = "Partial Docs Received"
	DocumentsSubmitted   DocumentStatus = "Bank Statements Submitted"
)

// DefaultDocumentStatus is assigned when a lead is created without one.
const DefaultDocumentStatus = DocumentsNotReceived

var documentStatusOrder = []DocumentStatus{
	DocumentsNotReceived,
	DocumentsWaiting,
	DocumentsPartial,
	DocumentsSubmitted,
}

// DocumentStatuses returns every document status in display order.
func DocumentStatuses() []DocumentStatus {
	return append([]DocumentStatus(nil), documentStatusOrder...)
}

// ParseDocumentStatus converts a raw value into a DocumentStatus.
func ParseDocumentStatus(raw string) (DocumentStatus, error) {
	for _, s := range documentStatusOrder {
		if string(s) == raw {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown document status %q", raw)
}

// DocumentType describes what kind of documents the merchant supplies.
type DocumentType string

const (
	DocumentTypeBankStatements DocumentType = "Bank Statements"
	DocumentTypeOther          DocumentType = "Other"
	DocumentTypeUnspecified    DocumentType = "Unspecified"
)

// DefaultDocumentType is assigned when a lead is created without one.
const DefaultDocumentType = DocumentTypeBankStatements

var documentTypeOrder = []DocumentType{
	DocumentTypeBankStatements,
	DocumentTypeOther,
	DocumentTypeUnspecified,
}

// DocumentTypes returns every document type in display order.
func DocumentTypes() []DocumentType {
	return append([]DocumentType(nil), documentTypeOrder...)
}

// ParseDocumentType converts a raw value into a DocumentType.
func ParseDocumentType(raw string) (DocumentType, error) {
	for _, t := range documentTypeOrder {
		if string(t) == raw {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown document type %q", raw)
}
