package cmd

import (
    "errors"
    "fmt"
    "io"
    "text/tabwriter"

    "github.com/HamedShams/agile-dashboard/internal/adapters/jira"
    "github.com/HamedShams/agile-dashboard/internal/domain"
    "github.com/spf13/cobra"
)

var (
    issuesStatus   string
    issuesType     string
    issuesAssignee string
    issuesActive   bool
)

var issuesCmd = &cobra.Command{
    Use:   "issues",
    Short: "List a project's issues by status, type, assignee or open sprint",
    Long: `List issues of one project. Without a filter every issue is listed,
most recently updated first.

Examples:
  dashctl issues -p DEMO --status "In Progress"
  dashctl issues -p DEMO --type Bug
  dashctl issues -p DEMO --assignee 5b10ac8d82e05b22cc7d4ef5 --days 14
  dashctl issues -p DEMO --active-sprint --json`,
    RunE: runIssues,
}

func init() {
    issuesCmd.Flags().StringVar(&issuesStatus, "status", "", "only issues in this status")
    issuesCmd.Flags().StringVar(&issuesType, "type", "", "only issues of this type")
    issuesCmd.Flags().StringVar(&issuesAssignee, "assignee", "", "account id; issues assigned to it and updated within --days")
    issuesCmd.Flags().BoolVar(&issuesActive, "active-sprint", false, "only issues in open sprints")
    issuesCmd.MarkFlagsMutuallyExclusive("status", "type", "assignee", "active-sprint")
}

var issueListFields = []string{"summary", "status", "issuetype", "assignee", "updated"}

func issuesJQL(project string, days int) string {
    switch {
    case issuesAssignee != "":
        return jira.IssuesByAssignee(project, issuesAssignee, days)
    case issuesActive:
        return jira.ActiveSprintIssues(project)
    case issuesType != "":
        return jira.IssueType(project, issuesType)
    default:
        return jira.ProjectIssues(project, issuesStatus)
    }
}

func runIssues(cmd *cobra.Command, args []string) error {
    w := wire()
    project := w.cfg.JiraDefaultProject
    if project == "" { return errors.New("no project: pass --project or set JIRA_DEFAULT_PROJECT") }
    issues, total, err := w.client.SearchAll(cmd.Context(), issuesJQL(project, w.cfg.DefaultDays), issueListFields)
    if err != nil { return err }
    if asJSON { return printJSON(cmd.OutOrStdout(), issues) }
    renderIssues(cmd.OutOrStdout(), issues, total)
    return nil
}

func renderIssues(out io.Writer, issues []domain.Issue, total int) {
    tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
    fmt.Fprintln(tw, "Key\tType\tStatus\tAssignee\tSummary")
    for _, is := range issues {
        who := "-"
        if a := is.Fields.Assignee; a != nil && a.DisplayName != "" { who = a.DisplayName }
        fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", is.Key, is.Fields.IssueType.Name, is.Fields.Status.Name, who, is.Fields.Summary)
    }
    tw.Flush()
    if total > len(issues) {
        fmt.Fprintf(out, "\n%d of %d shown\n", len(issues), total)
    }
}
