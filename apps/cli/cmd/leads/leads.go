package leads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/simple-easy-sites/simple-sales-crm/apps/cli/cmd/workspace"
	"github.com/simple-easy-sites/simple-sales-crm/domains/leads/be/aggregate"
	"github.com/simple-easy-sites/simple-sales-crm/domains/leads/be/export"
	"github.com/simple-easy-sites/simple-sales-crm/domains/leads/be/model"
	"github.com/simple-easy-sites/simple-sales-crm/platform/go/storage"
)

// Command groups the read-only lead views.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "Inspect an agent's leads",
		Long:  "Render an agent's leads as a filtered table, the status pipeline or the dashboard, or export them.",
	}

	cmd.AddCommand(tableCommand())
	cmd.AddCommand(pipelineCommand())
	cmd.AddCommand(dashboardCommand())
	cmd.AddCommand(exportCommand())
	return cmd
}

// queryFlags mirrors the list query parameters of the API.
type queryFlags map[string]*string

var filterParams = []struct {
	name  string
	param string
	usage string
}{
	{"search", "search", "case-insensitive match on merchant, business, email or location"},
	{"status", "status", "lead status, or all"},
	{"document-status", "documentStatus", "document status, or all"},
	{"callback-from", "callbackDateStart", "earliest callback date (YYYY-MM-DD)"},
	{"callback-to", "callbackDateEnd", "latest callback date (YYYY-MM-DD)"},
	{"created-from", "creationDateStart", "earliest creation date (YYYY-MM-DD)"},
	{"created-to", "creationDateEnd", "latest creation date (YYYY-MM-DD)"},
	{"funding-min", "fundingAmountMin", "minimum amount looking for"},
	{"funding-max", "fundingAmountMax", "maximum amount looking for"},
	{"defaults-min", "defaultsMin", "minimum number of defaults"},
	{"defaults-max", "defaultsMax", "maximum number of defaults"},
}

func bindFilter(cmd *cobra.Command) queryFlags {
	q := queryFlags{}
	for _, p := range filterParams {
		q[p.param] = cmd.Flags().String(p.name, "", p.usage)
	}
	return q
}

func bindSort(cmd *cobra.Command, q queryFlags) {
	q["sort"] = cmd.Flags().String("sort", "", "column to sort by (default creationDate, newest first)")
	q["direction"] = cmd.Flags().String("direction", "", "asc or desc")
}

func (q queryFlags) values() url.Values {
	values := url.Values{}
	for param, value := range q {
		if value != nil && strings.TrimSpace(*value) != "" {
			values.Set(param, *value)
		}
	}
	return values
}

// selectLeads binds the filter and sort and applies them to leads.
func selectLeads(leads []model.Lead, values url.Values) ([]model.Lead, error) {
	filter, err := aggregate.ParseFilter(values)
	if err != nil {
		return nil, queryError(err)
	}
	sortState, err := aggregate.ParseSort(values)
	if err != nil {
		return nil, queryError(err)
	}
	return aggregate.Sort(aggregate.Apply(leads, filter), sortState), nil
}

func queryError(err error) error {
	var qerr *aggregate.QueryError
	if !errors.As(err, &qerr) {
		return err
	}
	parts := make([]string, 0, len(qerr.Fields))
	for _, p := range filterParams {
		for _, msg := range qerr.Fields[p.param] {
			parts = append(parts, fmt.Sprintf("--%s: %s", p.name, msg))
		}
	}
	for _, param := range []string{"sort", "direction", "limit"} {
		for _, msg := range qerr.Fields[param] {
			parts = append(parts, fmt.Sprintf("--%s: %s", param, msg))
		}
	}
	return fmt.Errorf("invalid flags: %s", strings.Join(parts, "; "))
}

// loadLeads opens the workspace and refreshes the agent's leads.
func loadLeads(ctx context.Context, opts workspace.Options) ([]model.Lead, *workspace.Workspace, error) {
	ctx, ws, err := workspace.Open(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	if err := ws.Leads.Refresh(ctx); err != nil {
		ws.Close()
		return nil, nil, fmt.Errorf("load leads: %w", err)
	}
	return ws.Leads.Leads(), ws, nil
}

func tableCommand() *cobra.Command {
	var opts workspace.Options

	c := &cobra.Command{
		Use:   "table",
		Short: "Print the filtered and sorted lead table",
	}
	opts.Bind(c, true)
	query := bindFilter(c)
	bindSort(c, query)

	c.RunE = func(cmd *cobra.Command, args []string) error {
		all, ws, err := loadLeads(cmd.Context(), opts)
		if err != nil {
			return err
		}
		defer ws.Close()

		selected, err := selectLeads(all, query.values())
		if err != nil {
			return err
		}
		return renderTable(cmd.OutOrStdout(), selected)
	}
	return c
}

func pipelineCommand() *cobra.Command {
	var opts workspace.Options

	c := &cobra.Command{
		Use:   "pipeline",
		Short: "Print leads grouped by status in pipeline order",
	}
	opts.Bind(c, true)
	query := bindFilter(c)

	c.RunE = func(cmd *cobra.Command, args []string) error {
		all, ws, err := loadLeads(cmd.Context(), opts)
		if err != nil {
			return err
		}
		defer ws.Close()

		filter, err := aggregate.ParseFilter(query.values())
		if err != nil {
			return queryError(err)
		}
		return renderPipeline(cmd.OutOrStdout(), aggregate.Pipeline(aggregate.Apply(all, filter)))
	}
	return c
}

func dashboardCommand() *cobra.Command {
	var (
		opts  workspace.Options
		limit int
	)

	c := &cobra.Command{
		Use:   "dashboard",
		Short: "Print headline stats, leaderboards and upcoming callbacks",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 {
				return fmt.Errorf("invalid flags: --limit: limit must be a positive integer")
			}

			all, ws, err := loadLeads(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer ws.Close()

			d := buildDashboard(all, limit, time.Now(), ws.Location)
			return renderDashboard(cmd.OutOrStdout(), d, ws.Location)
		},
	}
	opts.Bind(c, true)
	c.Flags().IntVar(&limit, "limit", aggregate.DefaultBoardSize, "rows per leaderboard")
	return c
}

func exportCommand() *cobra.Command {
	var (
		opts    workspace.Options
		format  string
		output  string
		archive string
		envKey  string
	)

	c := &cobra.Command{
		Use:   "export",
		Short: "Write the filtered lead table as CSV or XLSX",
	}
	opts.Bind(c, true)
	query := bindFilter(c)
	bindSort(c, query)
	c.Flags().StringVar(&format, "format", string(export.FormatCSV), "csv or xlsx")
	c.Flags().StringVarP(&output, "output", "o", "", "file to write (default leads.<format>; - for stdout)")
	c.Flags().StringVar(&archive, "archive", os.Getenv("EXPORT_ARCHIVE_URL"), "also upload to gs://<bucket> or file:///<dir>/<bucket> (EXPORT_ARCHIVE_URL)")
	c.Flags().StringVar(&envKey, "env-key", "dev", "environment prefix of archived objects (e.g. dev, stg, prod)")

	c.RunE = func(cmd *cobra.Command, args []string) error {
		f, err := export.ParseFormat(format)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		all, ws, err := loadLeads(ctx, opts)
		if err != nil {
			return err
		}
		defer ws.Close()

		selected, err := selectLeads(all, query.values())
		if err != nil {
			return err
		}

		if archive != "" {
			loc, err := archiveExport(ctx, archive, envKey, opts.AgentID, f, selected, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Archived %d leads to %s\n", len(selected), loc)
		}

		if output == "-" {
			return writeExport(cmd.OutOrStdout(), f, selected)
		}
		if output == "" {
			output = f.Filename()
		}
		if err := writeFile(output, f, selected); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d leads to %s\n", len(selected), output)
		return nil
	}
	return c
}

func writeFile(path string, f export.Format, leads []model.Lead) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return writeExport(file, f, leads)
}

// archiveExport uploads the export under the agent's prefix and returns where it landed.
func archiveExport(ctx context.Context, archiveURL, envKey, agentID string, f export.Format, leads []model.Lead, now time.Time) (storage.ObjectLocation, error) {
	archive, bucket, err := storage.OpenArchive(ctx, archiveURL)
	if err != nil {
		return storage.ObjectLocation{}, err
	}
	prefix, err := storage.AgentPrefix(envKey, agentID)
	if err != nil {
		return storage.ObjectLocation{}, err
	}
	if err := archive.Check(ctx, bucket, prefix); err != nil {
		return storage.ObjectLocation{}, fmt.Errorf("check archive: %w", err)
	}
	loc, err := storage.ResolveObjectLocation(bucket, prefix, storage.ExportKey(f.Filename(), now))
	if err != nil {
		return storage.ObjectLocation{}, err
	}

	var body bytes.Buffer
	if err := writeExport(&body, f, leads); err != nil {
		return storage.ObjectLocation{}, err
	}
	if err := archive.Put(ctx, loc, f.ContentType(), body.Bytes()); err != nil {
		return storage.ObjectLocation{}, fmt.Errorf("archive export: %w", err)
	}
	return loc, nil
}

func writeExport(w io.Writer, f export.Format, leads []model.Lead) error {
	if err := export.Write(w, f, leads); err != nil {
		return fmt.Errorf("write %s export: %w", f, err)
	}
	return nil
}
