package sqlassets

import _ "embed"

//go:embed schema/leads.sql
var LeadsSQL string

//go:embed schema/quick_notes.sql
var QuickNotesSQL string
