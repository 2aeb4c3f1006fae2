package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/mirrorgen/internal/audit"
	"github.com/abhisek/mirrorgen/internal/store"
	"github.com/abhisek/mirrorgen/internal/taxonomy"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect past generation runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		status, _ := cmd.Flags().GetString("status")

		s, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		runs, err := s.RunRepo().ListRuns(cmd.Context(), store.QueryOpts{Limit: limit, Status: status})
		if err != nil {
			return fmt.Errorf("query runs: %w", err)
		}
		if len(runs) == 0 {
			fmt.Println("No runs found.")
			return nil
		}

		fmt.Printf("%-8s  %-19s  %-9s  %-8s  %-28s  %s\n",
			"ID", "Timestamp", "Status", "Attempts", "Model", "Image")
		fmt.Println(strings.Repeat("─", 100))
		for _, r := range runs {
			fmt.Printf("%-8s  %-19s  %-9s  %-8s  %-28s  %s\n",
				truncate(r.ID, 8),
				r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				r.Status,
				fmt.Sprintf("%d/%d", r.Attempts, r.MaxAttempts),
				truncate(r.Model, 28),
				r.ImageName,
			)
		}
		return nil
	},
}

var runsViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show a run with its attempt history",
	Long:  "Show a run with its attempt history. The ID may be abbreviated to any unique prefix.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		r, err := s.RunRepo().GetRun(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("get run: %w", err)
		}
		if r == nil {
			return fmt.Errorf("run %s not found", args[0])
		}

		printRun(r)

		usage, err := s.EventRepo().LLMUsageByModel(cmd.Context(), store.QueryOpts{RunID: r.ID})
		if err != nil {
			return fmt.Errorf("query run usage: %w", err)
		}
		if len(usage) > 0 {
			fmt.Println()
			printCost(usage)
		}
		return nil
	},
}

func printRun(r *store.RunRecord) {
	sep := strings.Repeat("─", 60)

	fmt.Printf("ID:        %s\n", r.ID)
	fmt.Printf("Time:      %s\n", r.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("Status:    %s\n", r.Status)
	fmt.Printf("Attempts:  %d/%d\n", r.Attempts, r.MaxAttempts)
	fmt.Printf("Model:     %s\n", r.Model)
	fmt.Printf("Image:     %s\n", r.ImageName)
	if r.Context != "" {
		fmt.Printf("Context:   %s\n", r.Context)
	}

	var sel taxonomy.Selection
	if err := json.Unmarshal(r.Taxonomy, &sel); err == nil {
		fmt.Println("Taxonomy:")
		for _, f := range sel.Ordered() {
			fmt.Printf("  %s: %s\n", taxonomy.Label(f.Name), f.Value)
		}
	}

	for _, a := range r.History {
		fmt.Println()
		fmt.Println(sep)
		fmt.Printf("ATTEMPT %d  key %s  %s\n", a.Number, a.ForcedKey, a.Stage)
		fmt.Println(sep)
		if a.FeedbackIn != "" {
			fmt.Printf("Feedback in:\n%s\n", indent(a.FeedbackIn))
		}
		if a.ErrorMessage != "" {
			fmt.Printf("Error (%s): %s\n", a.ErrorKind, a.ErrorMessage)
		}
		if a.RawResponse != "" {
			fmt.Printf("Raw response:\n%s\n", indent(a.RawResponse))
		}
		if len(a.Verdict) > 0 {
			var v audit.Verdict
			if err := json.Unmarshal(a.Verdict, &v); err == nil {
				printVerdict(&v)
			}
		}
	}

	fmt.Println()
	fmt.Println(sep)
	if len(r.Item) == 0 {
		fmt.Println("NO APPROVED ITEM")
		fmt.Println(sep)
		if r.LastFeedback != "" {
			fmt.Printf("Last feedback:\n%s\n", indent(r.LastFeedback))
		}
		if r.LastError != "" {
			fmt.Printf("Last error: %s\n", r.LastError)
		}
		return
	}
	fmt.Println("APPROVED ITEM")
	fmt.Println(sep)
	var buf bytes.Buffer
	if err := json.Indent(&buf, r.Item, "", "  "); err != nil {
		fmt.Println(string(r.Item))
		return
	}
	fmt.Println(buf.String())
}

func printVerdict(v *audit.Verdict) {
	fmt.Printf("Verdict: %s\n", v.Decision)
	for _, c := range v.Criteria {
		mark := "✓"
		if !c.Passed {
			mark = "✗"
		}
		fmt.Printf("  %s %s", mark, c.Criterion.Label())
		if c.Comment != "" {
			fmt.Printf(": %s", c.Comment)
		}
		fmt.Println()
	}
	if v.Feedback != "" {
		fmt.Printf("Feedback:\n%s\n", indent(v.Feedback))
	}
}

func indent(s string) string {
	return "  " + strings.ReplaceAll(strings.TrimRight(s, "\n"), "\n", "\n  ")
}

func init() {
	runsListCmd.Flags().IntP("limit", "n", 20, "Number of runs to show")
	runsListCmd.Flags().String("status", "", "Filter by status (approved, exhausted)")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsViewCmd)
}
