package cmd

import (
    "encoding/json"
    "fmt"
    "io"
    "os"
    "strings"

    "github.com/HamedShams/agile-dashboard/internal/adapters/jira"
    "github.com/HamedShams/agile-dashboard/internal/composer"
    "github.com/HamedShams/agile-dashboard/internal/config"
    "github.com/HamedShams/agile-dashboard/internal/dashboard"
    "github.com/HamedShams/agile-dashboard/internal/logger"
    "github.com/rs/zerolog"
    "github.com/spf13/cobra"
    "github.com/spf13/viper"
)

var (
    cfgFile string
    verbose bool
    asJSON  bool
)

var rootCmd = &cobra.Command{
    Use:   "dashctl",
    Short: "Operator CLI for the agile dashboard",
    Long: `dashctl talks to Jira with the same client, cache and metrics the
dashboard server uses.

Settings come from the server's environment (JIRA_BASE_URL, JIRA_EMAIL, ...)
and can be overridden by a config file, DASH_* variables or flags.

Example:
  dashctl check
  dashctl dashboard --project DEMO --days 14
  dashctl burndown 42
  dashctl issues --active-sprint
  dashctl fields --write config/jira_fields.json`,
    SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
    return rootCmd.Execute()
}

func init() {
    cobra.OnInitialize(initConfig)

    rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default .dashctl.yaml)")
    rootCmd.PersistentFlags().String("jira-url", "", "Jira base URL")
    rootCmd.PersistentFlags().StringP("project", "p", "", "project key")
    rootCmd.PersistentFlags().Int("days", 0, "look-back window in days")
    rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print JSON instead of text")
    rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log requests to stderr")

    viper.BindPFlag("jira_base_url", rootCmd.PersistentFlags().Lookup("jira-url"))
    viper.BindPFlag("project", rootCmd.PersistentFlags().Lookup("project"))
    viper.BindPFlag("days", rootCmd.PersistentFlags().Lookup("days"))

    rootCmd.AddCommand(checkCmd, dashboardCmd, burndownCmd, fieldsCmd, issuesCmd)
}

func initConfig() {
    if cfgFile != "" {
        viper.SetConfigFile(cfgFile)
    } else {
        viper.AddConfigPath(".")
        viper.SetConfigType("yaml")
        viper.SetConfigName(".dashctl")
    }
    viper.SetEnvPrefix("DASH")
    viper.AutomaticEnv()
    if err := viper.ReadInConfig(); err == nil && verbose {
        fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
    }
}

// loadConfig layers viper settings over the server's environment config.
func loadConfig() config.Config {
    cfg := config.Load()
    if v := viper.GetString("jira_base_url"); v != "" { cfg.JiraBaseURL = strings.TrimRight(v, "/") }
    if v := viper.GetString("jira_email"); v != "" { cfg.JiraEmail = v }
    if v := viper.GetString("jira_api_token"); v != "" { cfg.JiraAPIToken = v }
    if v := viper.GetString("project"); v != "" { cfg.JiraDefaultProject = strings.ToUpper(v) }
    if v := viper.GetInt("days"); v > 0 { cfg.DefaultDays = v }
    if v := viper.GetDuration("render_timeout"); v > 0 { cfg.RenderTimeout = v }
    return cfg
}

func newLogger(cfg config.Config) zerolog.Logger {
    if !verbose { return zerolog.Nop() }
    cfg.AppEnv = "dev"
    return logger.NewWithWriter(cfg, os.Stderr)
}

// wiring is the client, cache and view stack a command runs against.
type wiring struct {
    cfg    config.Config
    client *jira.Client
    views  *composer.Composer
}

func wire() wiring {
    cfg := loadConfig()
    log := newLogger(cfg)
    jc := jira.NewClient(cfg, log)
    orch := dashboard.New(jc, log)
    return wiring{cfg: cfg, client: jc, views: composer.New(orch, log, cfg.RenderTimeout, cfg.DefaultDays)}
}

func printJSON(w io.Writer, v any) error {
    enc := json.NewEncoder(w)
    enc.SetIndent("", "  ")
    return enc.Encode(v)
}

// viewError turns a failed or unfinished view into a command error.
func viewError(st composer.State) error {
    if st.Error != "" { return fmt.Errorf("%s", st.Error) }
    if st.Loading { return fmt.Errorf("timed out waiting for Jira; try a larger DASH_RENDER_TIMEOUT") }
    return nil
}
