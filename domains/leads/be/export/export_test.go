package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/simple-easy-sites/simple-sales-crm/domains/leads/be/model"
)

func sampleLeads() []model.Lead {
	email := "alice@example.com"
	defaults := 2
	callback := model.Date{Year: 2024, Month: time.March, Day: 15}
	clock := model.ClockTime{Hour: 9, Minute: 30}
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

	return []model.Lead{
		{
			ID:                uuid.New(),
			MerchantName:      "Alice Smith",
			BusinessName:      "Smith Bakery",
			MainPhoneNumber:   "555-123-4567",
			Email:             &email,
			MonthlyRevenue:    42000,
			AmountLookingFor:  50000,
			NumberOfPositions: 1,
			Positions:         []model.Position{{LenderName: "Lender A", OriginalAmount: 20000, CurrentBalance: 15000}},
			HasDefaults:       true,
			NumberOfDefaults:  &defaults,
			DocumentStatus:    model.DocumentsWaiting,
			DocumentType:      model.DocumentTypeBankStatements,
			Status:            model.StatusAwaitingCallback,
			CallbackDate:      &callback,
			CallbackTime:      &clock,
			CreationDate:      model.Date{Year: 2024, Month: time.March, Day: 1},
			Notes: []model.Note{
				{Text: "older", Timestamp: now.Add(-time.Hour)},
				{Text: "newest", Timestamp: now},
			},
		},
		{
			ID:              uuid.New(),
			MerchantName:    "Bob, Jr.",
			BusinessName:    "Bob's Garage",
			MainPhoneNumber: "555-000-1111",
			Status:          model.StatusNeedsFollowUp,
			CreationDate:    model.Date{Year: 2024, Month: time.February, Day: 20},
		},
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	f, err := ParseFormat("")
	require.NoError(t, err)
	require.Equal(t, FormatCSV, f)

	f, err = ParseFormat(" XLSX ")
	require.NoError(t, err)
	require.Equal(t, FormatXLSX, f)
	require.Equal(t, "leads.xlsx", f.Filename())

	_, err = ParseFormat("pdf")
	require.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleLeads()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, Header, records[0])

	first := records[1]
	require.Equal(t, "Alice Smith", first[0])
	require.Equal(t, "alice@example.com", first[4])
	require.Equal(t, "15000.00", first[9])
	require.Equal(t, "2", first[11])
	require.Equal(t, "2024-03-15", first[15])
	require.Equal(t, "09:30", first[16])
	require.Equal(t, "newest", first[18])

	second := records[2]
	require.Equal(t, "Bob, Jr.", second[0])
	require.Equal(t, "", second[4])
	require.Equal(t, "", second[11])
}

func TestWriteXLSX(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleLeads()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{sheetName}, f.GetSheetList())

	header, err := f.GetCellValue(sheetName, "A1")
	require.NoError(t, err)
	require.Equal(t, "Merchant Name", header)

	name, err := f.GetCellValue(sheetName, "A3")
	require.NoError(t, err)
	require.Equal(t, "Bob, Jr.", name)

	revenue, err := f.GetCellValue(sheetName, "G2")
	require.NoError(t, err)
	require.Equal(t, "42000", revenue)
}

func TestWriteCSVNeutralizesFormulas(t *testing.T) {
	t.Parallel()

	lead := model.Lead{
		ID:              uuid.New(),
		MerchantName:    "=HYPERLINK(\"http://evil.test\",\"click\")",
		BusinessName:    "+cmd|' /C calc'!A0",
		MainPhoneNumber: "+1 555-123-4567",
		Location:        "@SUM(1+1)",
		Status:          model.StatusNeedsFollowUp,
		CreationDate:    model.Date{Year: 2024, Month: time.March, Day: 1},
		Notes:           []model.Note{{Text: "-2+3", Timestamp: time.Now()}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []model.Lead{lead}))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)

	row := records[1]
	require.Equal(t, "'"+lead.MerchantName, row[0])
	require.Equal(t, "'"+lead.BusinessName, row[1])
	require.Equal(t, "'@SUM(1+1)", row[5])
	require.Equal(t, "'-2+3", row[18])
	require.Equal(t, "+1 555-123-4567", row[2])

	// Row keeps raw values for typed workbook cells.
	require.Equal(t, lead.MerchantName, Row(lead)[0])
}

func TestEscapeFormula(t *testing.T) {
	t.Parallel()

	require.Equal(t, "", escapeFormula(""))
	require.Equal(t, "Smith Bakery", escapeFormula("Smith Bakery"))
	require.Equal(t, "'\tx", escapeFormula("\tx"))
	require.Equal(t, "'=1", escapeFormula("=1"))
}
