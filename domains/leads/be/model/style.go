package model

// Style is the colour pairing used to render a status badge. Values are
// design tokens resolved by the client.
type Style struct {
	TextColor string `json:"textColor"`
	BgColor   string `json:"bgColor"`
}

// NeutralStyle is rendered for values that do not belong to the status set.
var NeutralStyle = Style{TextColor: "gray-700", BgColor: "gray-200"}

// StatusStyle maps every lead status to its badge style.
func StatusStyle(s LeadStatus) Style {
	//exhaustive:enforce
	switch s {
	case StatusNeedsFollowUp:
		return Style{TextColor: "status-needs-follow-up-text", BgColor: "status-needs-follow-up-bg"}
	case StatusEmailedForDocs:
		return Style{TextColor: "status-emailed-for-docs-text", BgColor: "status-emailed-for-docs-bg"}
	case StatusAwaitingCallback:
		return Style{TextColor: "status-awaiting-callback-text", BgColor: "status-awaiting-callback-bg"}
	case StatusInProgress:
		return Style{TextColor: "status-in-progress-text", BgColor: "status-in-progress-bg"}
	case StatusDocsSubmitted:
		return Style{TextColor: "status-docs-submitted-text", BgColor: "status-docs-submitted-bg"}
	case StatusReadyToClose:
		return Style{TextColor: "status-ready-to-close-text", BgColor: "status-ready-to-close-bg"}
	case StatusClosedFunded:
		return Style{TextColor: "status-closed-funded-text", BgColor: "status-closed-funded-bg"}
	case StatusDefaultsDelayed:
		return Style{TextColor: "status-defaults-delayed-text", BgColor: "status-defaults-delayed-bg"}
	}
	return NeutralStyle
}
