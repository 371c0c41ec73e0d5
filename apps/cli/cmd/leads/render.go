package leads

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/simple-easy-sites/simple-sales-crm/domains/leads/be/aggregate"
	"github.com/simple-easy-sites/simple-sales-crm/domains/leads/be/model"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	titleStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
	overdueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// statusColors are the terminal counterparts of the status badge tokens.
var statusColors = map[model.LeadStatus]lipgloss.Color{
	model.StatusNeedsFollowUp:    lipgloss.Color("214"),
	model.StatusEmailedForDocs:   lipgloss.Color("39"),
	model.StatusAwaitingCallback: lipgloss.Color("141"),
	model.StatusInProgress:       lipgloss.Color("33"),
	model.StatusDocsSubmitted:    lipgloss.Color("44"),
	model.StatusReadyToClose:     lipgloss.Color("48"),
	model.StatusClosedFunded:     lipgloss.Color("34"),
	model.StatusDefaultsDelayed:  lipgloss.Color("160"),
}

var printer = message.NewPrinter(language.English)

func money(v float64) string {
	return printer.Sprintf("$%.0f", v)
}

func status(s model.LeadStatus) string {
	color, ok := statusColors[s]
	if !ok {
		return mutedStyle.Render(string(s))
	}
	return lipgloss.NewStyle().Foreground(color).Render(string(s))
}

func callback(lead model.Lead) string {
	if lead.CallbackDate == nil || lead.CallbackDate.IsZero() {
		return "-"
	}
	if lead.CallbackTime == nil {
		return lead.CallbackDate.String()
	}
	return lead.CallbackDate.String() + " " + lead.CallbackTime.String()
}

func header(w io.Writer, columns ...string) error {
	for i, column := range columns {
		sep := "\t"
		if i == len(columns)-1 {
			sep = "\n"
		}
		if _, err := fmt.Fprint(w, headerStyle.Render(column)+sep); err != nil {
			return err
		}
	}
	return nil
}

func renderTable(out io.Writer, leads []model.Lead) error {
	if len(leads) == 0 {
		_, err := fmt.Fprintln(out, mutedStyle.Render("No leads match."))
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if err := header(w, "ID", "Merchant", "Business", "Phone", "Amount", "Positions", "Status", "Callback", "Created"); err != nil {
		return err
	}
	for _, lead := range leads {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			lead.ID, lead.MerchantName, lead.BusinessName, lead.MainPhoneNumber, money(lead.AmountLookingFor),
			lead.NumberOfPositions, status(lead.Status), callback(lead), lead.CreationDate); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("%d leads", len(leads))))
	return err
}

func renderPipeline(out io.Writer, groups []aggregate.StatusGroup) error {
	if len(groups) == 0 {
		_, err := fmt.Fprintln(out, mutedStyle.Render("The pipeline is empty."))
		return err
	}

	for _, group := range groups {
		var total float64
		for _, lead := range group.Leads {
			total += lead.AmountLookingFor
		}
		if _, err := fmt.Fprintf(out, "%s (%d, %s)\n", status(group.Status), len(group.Leads), money(total)); err != nil {
			return err
		}
		for _, lead := range group.Leads {
			if _, err := fmt.Fprintf(out, "  %s - %s  %s\n", lead.MerchantName, lead.BusinessName, money(lead.AmountLookingFor)); err != nil {
				return err
			}
		}
	}
	return nil
}

type dashboard struct {
	Stats     aggregate.Stats
	Top       []model.Lead
	AtRisk    []model.Lead
	Callbacks []aggregate.Callback
}

func buildDashboard(leads []model.Lead, limit int, now time.Time, loc *time.Location) dashboard {
	return dashboard{
		Stats:     aggregate.Summarize(leads, now, loc),
		Top:       aggregate.TopFunding(leads, limit),
		AtRisk:    aggregate.AtRisk(leads, limit),
		Callbacks: aggregate.UpcomingCallbacks(leads, limit, now, loc),
	}
}

func renderDashboard(out io.Writer, d dashboard, loc *time.Location) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	lines := [][2]string{
		{"Total leads", fmt.Sprint(d.Stats.Total)},
		{"In pipeline", fmt.Sprint(d.Stats.InPipeline)},
		{"Follow-ups due", fmt.Sprint(d.Stats.FollowUpsDue)},
		{"Closed / Funded", fmt.Sprint(d.Stats.ClosedFunded)},
		{"Pipeline amount", money(d.Stats.PipelineAmount)},
	}
	for _, line := range lines {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", headerStyle.Render(line[0]), line[1]); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if err := renderBoard(out, "Top funding", d.Top); err != nil {
		return err
	}
	if err := renderBoard(out, "At risk", d.AtRisk); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(out, "\n%s\n", titleStyle.Render("Upcoming callbacks")); err != nil {
		return err
	}
	if len(d.Callbacks) == 0 {
		_, err := fmt.Fprintln(out, mutedStyle.Render("  none scheduled"))
		return err
	}
	for _, cb := range d.Callbacks {
		when := cb.At.In(loc).Format("2006-01-02 15:04")
		if cb.Lead.CallbackTime == nil {
			when = cb.Lead.CallbackDate.String()
		}
		if cb.Overdue {
			when = overdueStyle.Render(when + " overdue")
		}
		if _, err := fmt.Fprintf(out, "  %s  %s - %s\n", when, cb.Lead.MerchantName, cb.Lead.BusinessName); err != nil {
			return err
		}
	}
	return nil
}

func renderBoard(out io.Writer, title string, leads []model.Lead) error {
	if _, err := fmt.Fprintf(out, "\n%s\n", titleStyle.Render(title)); err != nil {
		return err
	}
	if len(leads) == 0 {
		_, err := fmt.Fprintln(out, mutedStyle.Render("  none"))
		return err
	}
	for i, lead := range leads {
		if _, err := fmt.Fprintf(out, "  %d. %s - %s  %s  %s\n", i+1, lead.MerchantName, lead.BusinessName, money(lead.AmountLookingFor), status(lead.Status)); err != nil {
			return err
		}
	}
	return nil
}
