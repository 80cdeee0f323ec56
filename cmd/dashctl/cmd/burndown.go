package cmd

import (
    "fmt"
    "io"
    "strconv"
    "text/tabwriter"

    "github.com/HamedShams/agile-dashboard/internal/composer"
    "github.com/spf13/cobra"
)

var burndownCmd = &cobra.Command{
    Use:   "burndown <sprint-id>",
    Short: "Print a sprint's burndown and completion forecast",
    Args:  cobra.ExactArgs(1),
    RunE: func(cmd *cobra.Command, args []string) error {
        id, err := strconv.ParseInt(args[0], 10, 64)
        if err != nil || id <= 0 { return fmt.Errorf("invalid sprint id %q", args[0]) }
        v := wire().views.Burndown(cmd.Context(), id)
        if err := viewError(v.State); err != nil { return err }
        if asJSON { return printJSON(cmd.OutOrStdout(), v) }
        renderBurndown(cmd.OutOrStdout(), v)
        return nil
    },
}

func renderBurndown(out io.Writer, v composer.BurndownView) {
    name := strconv.FormatInt(v.SprintID, 10)
    if v.Sprint != nil && v.Sprint.Name != "" { name = v.Sprint.Name }
    fmt.Fprintf(out, "%s\n\n", name)
    tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
    fmt.Fprintln(tw, "Day\tRemaining\tIdeal")
    for _, p := range v.Points {
        fmt.Fprintf(tw, "%s\t%.1f\t%.1f\n", p.Label, p.Remaining, p.Ideal)
    }
    tw.Flush()
    status := "behind"
    if v.Prediction.OnTrack { status = "on track" }
    fmt.Fprintf(out, "\nForecast: %.1f%% projected, %d days left, %s\n", v.Prediction.ProjectedCompletion, v.Prediction.DaysRemaining, status)
}
