package cmd

import (
    "fmt"

    "github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
    Use:   "check",
    Short: "Verify Jira credentials",
    RunE: func(cmd *cobra.Command, args []string) error {
        w := wire()
        if err := w.cfg.Validate(); err != nil { return err }
        if !w.client.TestConnection(cmd.Context()) {
            return fmt.Errorf("cannot reach %s with the configured credentials", w.cfg.JiraBaseURL)
        }
        fmt.Fprintf(cmd.OutOrStdout(), "connected to %s\n", w.cfg.JiraBaseURL)
        return nil
    },
}
