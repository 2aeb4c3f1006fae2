package cmd

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/abhisek/mirrorgen/internal/logger"
	"github.com/abhisek/mirrorgen/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "mirrorgen",
	Short: "Generate audited mirror items from photographed questions",
	Long: "mirrorgen turns a photographed multiple-choice question into a new \"mirror\" item\n" +
		"that assesses the same skill, audits it with a second model call and retries with\n" +
		"the auditor's feedback until the item is approved or the attempts run out.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Variables already set in the environment win over .env.
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides MIRRORGEN_DB env var)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("log-mode", "", "Log encoding: dev or prod (overrides MIRRORGEN_LOG_MODE)")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(chartCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then MIRRORGEN_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

func newLogger(cmd *cobra.Command) (*logger.Logger, error) {
	mode, _ := cmd.Flags().GetString("log-mode")
	if mode == "" {
		mode = os.Getenv("MIRRORGEN_LOG_MODE")
	}
	verbose, _ := cmd.Flags().GetBool("verbose")
	return logger.New(mode, verbose)
}

// openStore opens the run database selected by --db or the environment.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, err
	}
	return store.Open(dbPath)
}
