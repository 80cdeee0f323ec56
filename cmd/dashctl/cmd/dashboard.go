package cmd

import (
    "errors"
    "fmt"
    "io"
    "text/tabwriter"

    "github.com/HamedShams/agile-dashboard/internal/composer"
    "github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
    Use:   "dashboard",
    Short: "Print the project overview, flow and quality KPIs",
    Long: `Fetch the dashboard data for one project and print the headline
metrics the web dashboard shows.

Examples:
  dashctl dashboard --project DEMO
  dashctl dashboard -p DEMO --days 14 --json`,
    RunE: runDashboard,
}

type dashboardReport struct {
    Overview composer.Overview    `json:"overview"`
    Flow     composer.FlowView    `json:"flow"`
    Quality  composer.QualityView `json:"quality"`
}

func runDashboard(cmd *cobra.Command, args []string) error {
    w := wire()
    project := w.cfg.JiraDefaultProject
    if project == "" { return errors.New("no project: pass --project or set JIRA_DEFAULT_PROJECT") }
    ctx := cmd.Context()
    days := w.cfg.DefaultDays
    rep := dashboardReport{
        Overview: w.views.Overview(ctx, project, days),
        Flow:     w.views.Flow(ctx, project, days),
        Quality:  w.views.Quality(ctx, project, days),
    }
    for _, st := range []composer.State{rep.Overview.State, rep.Flow.State, rep.Quality.State} {
        if err := viewError(st); err != nil { return err }
    }
    if asJSON { return printJSON(cmd.OutOrStdout(), rep) }
    renderDashboard(cmd.OutOrStdout(), rep)
    return nil
}

func renderDashboard(out io.Writer, rep dashboardReport) {
    ov, fl, q := rep.Overview, rep.Flow, rep.Quality
    fmt.Fprintf(out, "%s, last %d days\n\n", ov.Project, ov.Days)
    tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
    fmt.Fprintf(tw, "Issues\t%d\n", ov.TotalIssues)
    fmt.Fprintf(tw, "Completed\t%d (%.1f%%)\n", ov.CompletedIssues, ov.CompletionRate)
    fmt.Fprintf(tw, "Avg velocity\t%d pts\n", ov.AvgVelocity)
    fmt.Fprintf(tw, "Avg cycle time\t%d days\n", fl.AvgCycleTime)
    fmt.Fprintf(tw, "Throughput\t%d\n", fl.Throughput)
    fmt.Fprintf(tw, "WIP\t%d\n", fl.WIP)
    fmt.Fprintf(tw, "Contributors\t%d\n", ov.ActiveContributors)
    fmt.Fprintf(tw, "Bug rate\t%.1f%%\n", q.BugRate)
    fmt.Fprintf(tw, "Defect rate\t%.1f%%\n", q.DefectRate)
    fmt.Fprintf(tw, "First-time fix\t%.1f%%\n", q.FirstTimeFix)
    tw.Flush()
    if len(ov.Velocity) > 0 {
        fmt.Fprintln(out, "\nVelocity")
        tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
        for _, v := range ov.Velocity {
            fmt.Fprintf(tw, "  %s\t%.0f/%.0f\n", v.Sprint, v.Completed, v.Planned)
        }
        tw.Flush()
    }
}
