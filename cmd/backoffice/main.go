package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dcadvisors/backoffice/internal/app"
	"github.com/dcadvisors/backoffice/internal/config"
)

var (
	cfgFile   string
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "backoffice",
	Short: "DC Advisors back office",
	Long:  `Back office for accounts-receivable credit notifications: templates, customers and e-mail history.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	RunE:  runConfigValidate,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("backoffice version %s\n", version)
		if commit != "unknown" {
			fmt.Printf("  commit: %s\n", commit)
		}
		if buildTime != "unknown" {
			fmt.Printf("  built:  %s\n", buildTime)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")

	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(serveCmd, configCmd, versionCmd, renderCmd, userCmd)
}

// loadConfig reads the -c file, or returns the defaults when none is given
func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return config.Default(), nil
	}
	return config.Load(cfgFile)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	application, err := app.New(cfg, version)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	return application.Run(context.Background())
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if cfgFile == "" {
		return fmt.Errorf("config file is required (use -c flag)")
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}

	users := make([]string, 0, len(cfg.Auth.Users))
	for name := range cfg.Auth.Users {
		users = append(users, name)
	}
	sort.Strings(users)

	fmt.Printf("Configuration is valid\n")
	fmt.Printf("  API: %s\n", cfg.Server.ListenAddr)
	fmt.Printf("  Auth: enabled=%t users=%v session_ttl=%s\n", cfg.Auth.Enabled, users, cfg.Auth.SessionTTL)
	fmt.Printf("  Default subject: %s\n", cfg.Mail.DefaultSubject)
	fmt.Printf("  Template seeds: %d (current: %s)\n", len(cfg.Templates.Seed), currentSeed(cfg))
	fmt.Printf("  Customers: %d\n", len(cfg.Customers))
	fmt.Printf("  Logging: %s/%s\n", cfg.Logging.Level, cfg.Logging.Format)
	if cfg.Metrics.Enabled {
		fmt.Printf("  Metrics: %s%s\n", cfg.Metrics.ListenAddr, cfg.Metrics.Path)
	} else {
		fmt.Printf("  Metrics: disabled\n")
	}

	return nil
}

func currentSeed(cfg *config.Config) string {
	switch {
	case cfg.Templates.Current != "":
		return cfg.Templates.Current
	case len(cfg.Templates.Seed) > 0 && cfg.Templates.Seed[0].ID != "":
		return cfg.Templates.Seed[0].ID
	case len(cfg.Templates.Seed) > 0:
		return "first"
	}
	return "default"
}
