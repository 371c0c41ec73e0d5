// Package export renders a lead table as CSV or XLSX.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/simple-easy-sites/simple-sales-crm/domains/leads/be/model"
)

// Format is an export file type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

const sheetName = "Leads"

// ParseFormat accepts csv or xlsx, defaulting blank input to csv.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// ContentType returns the media type of f.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Filename returns the download name for f.
func (f Format) Filename() string {
	return "leads." + string(f)
}

// Header is the column row of every export.
var Header = []string{
	"Merchant Name", "Business Name", "Main Phone", "Secondary Phone", "Email", "Location",
	"Monthly Revenue", "Amount Looking For", "Positions", "Total Remaining", "Has Defaults",
	"Number Of Defaults", "Document Status", "Document Type", "Status", "Callback Date",
	"Callback Time", "Creation Date", "Latest Note",
}

// Row flattens a lead into the export columns.
func Row(lead model.Lead) []string {
	latest := ""
	if note, ok := lead.LatestNote(); ok {
		latest = note.Text
	}
	defaults := ""
	if lead.HasDefaults {
		defaults = strconv.Itoa(lead.DefaultsCount())
	}
	callbackDate, callbackTime := "", ""
	if lead.CallbackDate != nil {
		callbackDate = lead.CallbackDate.String()
	}
	if lead.CallbackTime != nil {
		callbackTime = lead.CallbackTime.String()
	}

	return []string{
		lead.MerchantName,
		lead.BusinessName,
		lead.MainPhoneNumber,
		optional(lead.SecondaryPhoneNumber),
		optional(lead.Email),
		lead.Location,
		formatAmount(lead.MonthlyRevenue),
		formatAmount(lead.AmountLookingFor),
		strconv.Itoa(lead.NumberOfPositions),
		formatAmount(lead.TotalRemaining()),
		strconv.FormatBool(lead.HasDefaults),
		defaults,
		string(lead.DocumentStatus),
		string(lead.DocumentType),
		string(lead.Status),
		callbackDate,
		callbackTime,
		lead.CreationDate.String(),
		latest,
	}
}

// Write renders leads in format f.
func Write(w io.Writer, f Format, leads []model.Lead) error {
	switch f {
	case FormatXLSX:
		return WriteXLSX(w, leads)
	default:
		return WriteCSV(w, leads)
	}
}

// WriteCSV writes a header row followed by one row per lead.
func WriteCSV(w io.Writer, leads []model.Lead) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, lead := range leads {
		if err := writer.Write(csvRow(lead)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// freeTextColumns index the agent-typed cells of Row. Phones and email are
// validated on input and cannot start a formula.
var freeTextColumns = []int{0, 1, 5, 18}

// csvRow is Row with free text neutralized so spreadsheets open it as text.
// Workbook cells are typed as strings and need no escaping.
func csvRow(lead model.Lead) []string {
	row := Row(lead)
	for _, i := range freeTextColumns {
		row[i] = escapeFormula(row[i])
	}
	return row
}

// escapeFormula prefixes values a spreadsheet would evaluate as a formula
// with a single quote.
func escapeFormula(v string) string {
	if v == "" {
		return v
	}
	switch v[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + v
	}
	return v
}

// WriteXLSX writes a single-sheet workbook. Amount columns are numeric cells.
func WriteXLSX(w io.Writer, leads []model.Lead) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(Header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, lead := range leads {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := xlsxRow(lead)
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	if err := f.SetColWidth(sheetName, "A", "S", 18); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// xlsxRow is Row with the numeric columns kept as numbers.
func xlsxRow(lead model.Lead) []any {
	text := Row(lead)
	row := make([]any, len(text))
	for i, v := range text {
		row[i] = v
	}
	row[6] = lead.MonthlyRevenue
	row[7] = lead.AmountLookingFor
	row[8] = lead.NumberOfPositions
	row[9] = lead.TotalRemaining()
	row[10] = lead.HasDefaults
	return row
}

func optional(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
