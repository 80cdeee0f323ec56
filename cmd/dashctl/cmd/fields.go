package cmd

import (
    "encoding/json"
    "fmt"
    "io"
    "os"
    "sort"
    "strings"
    "text/tabwriter"

    "github.com/HamedShams/agile-dashboard/internal/config"
    "github.com/spf13/cobra"
)

var (
    fieldsWrite  string
    fieldsCustom bool
)

var fieldsCmd = &cobra.Command{
    Use:   "fields",
    Short: "List Jira fields and the custom-field mapping they imply",
    Long: `List the field catalog of the Jira site. With --write the raw catalog
is saved where JIRA_FIELDS_FILE can pick it up, so story points, sprint,
epic link and flagged resolve to this site's custom field ids.`,
    RunE: runFields,
}

func init() {
    fieldsCmd.Flags().StringVarP(&fieldsWrite, "write", "w", "", "save the catalog to this path")
    fieldsCmd.Flags().BoolVar(&fieldsCustom, "custom", false, "only custom fields")
}

type fieldRow struct {
    ID     string `json:"id"`
    Name   string `json:"name"`
    Custom bool   `json:"custom"`
}

func runFields(cmd *cobra.Command, args []string) error {
    w := wire()
    catalog, err := w.client.GetFields(cmd.Context())
    if err != nil { return err }
    if fieldsWrite != "" {
        data, err := json.MarshalIndent(catalog, "", "  ")
        if err != nil { return err }
        if err := os.WriteFile(fieldsWrite, data, 0o644); err != nil { return err }
        m, err := config.LoadFieldsFile(fieldsWrite)
        if err != nil { return err }
        fmt.Fprintf(cmd.OutOrStdout(), "wrote %d fields to %s (story points=%s sprint=%s epic link=%s flagged=%s)\n",
            len(catalog), fieldsWrite, m.StoryPoints, m.Sprint, m.EpicLink, m.Flagged)
        return nil
    }
    rows := fieldRows(catalog, fieldsCustom)
    if asJSON { return printJSON(cmd.OutOrStdout(), rows) }
    renderFields(cmd.OutOrStdout(), rows)
    return nil
}

func fieldRows(catalog []map[string]any, customOnly bool) []fieldRow {
    rows := make([]fieldRow, 0, len(catalog))
    for _, f := range catalog {
        id, _ := f["id"].(string)
        name, _ := f["name"].(string)
        custom, _ := f["custom"].(bool)
        if id == "" { continue }
        if !custom { custom = strings.HasPrefix(id, "customfield_") }
        if customOnly && !custom { continue }
        rows = append(rows, fieldRow{ID: id, Name: name, Custom: custom})
    }
    sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
    return rows
}

func renderFields(out io.Writer, rows []fieldRow) {
    tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
    fmt.Fprintln(tw, "ID\tNAME")
    for _, r := range rows { fmt.Fprintf(tw, "%s\t%s\n", r.ID, r.Name) }
    tw.Flush()
}
