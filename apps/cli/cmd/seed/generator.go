package seed

import (
	"fmt"
	"math"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/simple-easy-sites/simple-sales-crm/domains/leads/be/model"
	leadsservice "github.com/simple-easy-sites/simple-sales-crm/domains/leads/be/service"
)

var lenderSuffixes = []string{"Capital", "Funding", "Advance", "Financial", "Partners"}

var quickNoteTemplates = []string{
	"Call back %s at %s about a %s advance",
	"%s (%s) wants %s, send application",
	"Left voicemail for %s %s, needs %s",
}

// Generator produces demo leads and quick notes. The same seed yields the
// same sequence.
type Generator struct {
	faker *gofakeit.Faker
}

// NewGenerator returns a Generator seeded with seed. Zero picks a random seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{faker: gofakeit.New(seed)}
}

// Lead returns a lead relative to today, with an initial note.
func (g *Generator) Lead(today time.Time) leadsservice.CreateInput {
	f := g.faker

	email := f.Email()
	positions := g.positions(f.IntRange(0, 3))
	input := leadsservice.CreateInput{
		LeadInput: leadsservice.LeadInput{
			MerchantName:      f.Name(),
			BusinessName:      fmt.Sprintf("%s %s", f.Company(), f.BuzzWord()),
			MainPhoneNumber:   f.Phone(),
			Email:             &email,
			Location:          fmt.Sprintf("%s, %s", f.City(), f.StateAbr()),
			MonthlyRevenue:    roundTo(f.Float64Range(20_000, 400_000), 1_000),
			AmountLookingFor:  roundTo(f.Float64Range(10_000, 250_000), 500),
			NumberOfPositions: len(positions),
			Positions:         positions,
			DocumentStatus:    string(pick(f, model.DocumentStatuses())),
			DocumentType:      string(model.DefaultDocumentType),
			Status:            string(pick(f, model.Statuses())),
		},
	}

	if f.Number(1, 5) == 1 {
		defaults := f.IntRange(1, 3)
		description := f.Sentence(6)
		input.HasDefaults = true
		input.NumberOfDefaults = &defaults
		input.DefaultsDescription = &description
	}

	if input.Status == string(model.StatusAwaitingCallback) || f.Bool() {
		input.CallbackDate = today.AddDate(0, 0, f.IntRange(-3, 14)).Format(time.DateOnly)
		if f.Bool() {
			input.CallbackTime = fmt.Sprintf("%02d:%02d", f.IntRange(9, 17), 15*f.IntRange(0, 3))
		}
	}

	note := f.Sentence(10)
	input.InitialNote = &note
	return input
}

// QuickNote returns a jotted note in the shape agents type them.
func (g *Generator) QuickNote() string {
	f := g.faker
	template := quickNoteTemplates[f.IntRange(0, len(quickNoteTemplates)-1)]
	amount := fmt.Sprintf("%dk", f.IntRange(10, 250))
	return fmt.Sprintf(template, f.FirstName(), f.Phone(), amount)
}

func (g *Generator) positions(n int) []leadsservice.PositionInput {
	f := g.faker
	positions := make([]leadsservice.PositionInput, 0, n)
	for i := 0; i < n; i++ {
		original := roundTo(f.Float64Range(5_000, 150_000), 500)
		frequency := model.PaymentDaily
		if f.Bool() {
			frequency = model.PaymentWeekly
		}
		positions = append(positions, leadsservice.PositionInput{
			LenderName:       fmt.Sprintf("%s %s", f.LastName(), lenderSuffixes[f.IntRange(0, len(lenderSuffixes)-1)]),
			OriginalAmount:   original,
			CurrentBalance:   roundTo(original*f.Float64Range(0.1, 1), 100),
			PaymentFrequency: string(frequency),
		})
	}
	return positions
}

func pick[T any](f *gofakeit.Faker, values []T) T {
	return values[f.IntRange(0, len(values)-1)]
}

func roundTo(v, step float64) float64 {
	return math.Round(v/step) * step
}
