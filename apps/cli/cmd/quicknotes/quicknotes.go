package quicknotes

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/simple-easy-sites/simple-sales-crm/apps/cli/cmd/workspace"
	leadsservice "github.com/simple-easy-sites/simple-sales-crm/domains/leads/be/service"
	"github.com/simple-easy-sites/simple-sales-crm/domains/quicknotes/be/service"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// previewLength caps the text column of the list.
const previewLength = 60

// Command groups the quick note helpers.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "quicknotes",
		Aliases: []string{"quick-notes", "qn"},
		Short:   "List, add and convert an agent's quick notes",
	}

	cmd.AddCommand(listCommand())
	cmd.AddCommand(addCommand())
	cmd.AddCommand(convertCommand())
	return cmd
}

func listCommand() *cobra.Command {
	var (
		opts workspace.Options
		all  bool
	)

	c := &cobra.Command{
		Use:   "list",
		Short: "Print pending quick notes, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, ws, err := workspace.Open(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer ws.Close()

			if err := ws.QuickNotes.Refresh(ctx); err != nil {
				return fmt.Errorf("load quick notes: %w", err)
			}
			notes := ws.QuickNotes.Pending()
			if all {
				notes = ws.QuickNotes.QuickNotes()
			}
			return renderList(cmd.OutOrStdout(), notes, len(ws.QuickNotes.Pending()))
		},
	}
	opts.Bind(c, true)
	c.Flags().BoolVar(&all, "all", false, "include converted notes")
	return c
}

func addCommand() *cobra.Command {
	var opts workspace.Options

	c := &cobra.Command{
		Use:   "add <text>",
		Short: "Jot down a quick note",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, ws, err := workspace.Open(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer ws.Close()

			note, err := ws.QuickNotes.Create(ctx, strings.Join(args, " "))
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Quick note saved. ID: %s\n", note.ID)
			return nil
		},
	}
	opts.Bind(c, true)
	return c
}

// leadFlags collects the lead form of the convert dialog.
type leadFlags struct {
	merchantName     string
	businessName     string
	phone            string
	email            string
	location         string
	amountLookingFor float64
	monthlyRevenue   float64
	status           string
	initialNote      string
}

func (f leadFlags) input() service.ConvertInput {
	input := service.ConvertInput{
		Lead: leadsservice.LeadInput{
			MerchantName:     f.merchantName,
			BusinessName:     f.businessName,
			MainPhoneNumber:  f.phone,
			Location:         f.location,
			AmountLookingFor: f.amountLookingFor,
			MonthlyRevenue:   f.monthlyRevenue,
			Status:           f.status,
		},
	}
	if strings.TrimSpace(f.email) != "" {
		email := f.email
		input.Lead.Email = &email
	}
	if strings.TrimSpace(f.initialNote) != "" {
		note := f.initialNote
		input.InitialNote = &note
	}
	return input
}

func convertCommand() *cobra.Command {
	var (
		opts workspace.Options
		lead leadFlags
	)

	c := &cobra.Command{
		Use:   "convert <quick-note-id>",
		Short: "Turn a pending quick note into a lead",
		Long:  "Create a lead from the given fields. The quick note text becomes the lead's first note unless --initial-note is set.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid quick note id %q", args[0])
			}

			ctx, ws, err := workspace.Open(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer ws.Close()

			if err := ws.QuickNotes.Refresh(ctx); err != nil {
				return fmt.Errorf("load quick notes: %w", err)
			}

			conversion, err := ws.QuickNotes.Convert(ctx, id, lead.input())
			var partial *service.PartialConversionError
			if errors.As(err, &partial) {
				fmt.Fprintln(cmd.ErrOrStderr(), warningStyle.Render("Lead created but the quick note is still pending: "+partial.Err.Error()))
				fmt.Fprintf(cmd.OutOrStdout(), "Lead ID: %s\n", partial.Lead.ID)
				return nil
			}
			if err != nil {
				return describe(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Converted. Lead ID: %s | Leads in book: %d\n", conversion.Lead.ID, len(ws.Leads.Leads()))
			return nil
		},
	}

	opts.Bind(c, true)
	c.Flags().StringVar(&lead.merchantName, "merchant-name", "", "merchant name")
	c.Flags().StringVar(&lead.businessName, "business-name", "", "business name")
	c.Flags().StringVar(&lead.phone, "phone", "", "main phone number")
	c.Flags().StringVar(&lead.email, "email", "", "email")
	c.Flags().StringVar(&lead.location, "location", "", "location")
	c.Flags().Float64Var(&lead.amountLookingFor, "amount", 0, "amount looking for")
	c.Flags().Float64Var(&lead.monthlyRevenue, "monthly-revenue", 0, "monthly revenue")
	c.Flags().StringVar(&lead.status, "status", "", "initial status (default Needs follow-up)")
	c.Flags().StringVar(&lead.initialNote, "initial-note", "", "first note; defaults to the quick note text")

	_ = c.MarkFlagRequired("merchant-name")
	_ = c.MarkFlagRequired("business-name")
	_ = c.MarkFlagRequired("phone")

	return c
}

// describe flattens validation errors into a single line per field.
func describe(err error) error {
	var fields map[string][]string
	var qerr *service.ValidationError
	var lerr *leadsservice.ValidationError
	switch {
	case errors.As(err, &qerr):
		fields = qerr.Fields
	case errors.As(err, &lerr):
		fields = lerr.Fields
	case errors.Is(err, service.ErrNotPending):
		return fmt.Errorf("the quick note was already converted")
	case errors.Is(err, service.ErrNotFound):
		return fmt.Errorf("quick note not found for this agent")
	default:
		return err
	}

	parts := make([]string, 0, len(fields))
	for field, messages := range fields {
		parts = append(parts, field+": "+strings.Join(messages, ", "))
	}
	sort.Strings(parts)
	return fmt.Errorf("invalid input: %s", strings.Join(parts, "; "))
}

func renderList(out io.Writer, notes []service.QuickNote, pending int) error {
	if len(notes) == 0 {
		_, err := fmt.Fprintln(out, mutedStyle.Render("No quick notes."))
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
		headerStyle.Render("ID"), headerStyle.Render("Created"), headerStyle.Render("Status"), headerStyle.Render("Text")); err != nil {
		return err
	}
	for _, note := range notes {
		state := string(note.Status)
		if note.ConvertedLeadID != nil {
			state += " -> " + note.ConvertedLeadID.String()
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", note.ID, note.CreatedAt.Format("2006-01-02 15:04"), state, preview(note.Text)); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("%d pending", pending)))
	return err
}

// preview collapses whitespace and truncates to previewLength runes.
func preview(text string) string {
	runes := []rune(strings.Join(strings.Fields(text), " "))
	if len(runes) <= previewLength {
		return string(runes)
	}
	return string(runes[:previewLength-3]) + "..."
}
