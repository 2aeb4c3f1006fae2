package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/mirrorgen/internal/llm"
	"github.com/abhisek/mirrorgen/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect LLM request/response events",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM events",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := eventQueryOpts(cmd)
		if err != nil {
			return err
		}
		opts.Limit, _ = cmd.Flags().GetInt("limit")

		s, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		events, err := s.EventRepo().QueryLLMEvents(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No LLM events found.")
			return nil
		}

		fmt.Printf("%-5s  %-19s  %-10s  %-11s  %-24s  %-6s  %-6s  %-7s  %s\n",
			"ID", "Timestamp", "Purpose", "Run", "Model", "In", "Out", "Ms", "OK")
		fmt.Println(strings.Repeat("─", 110))
		for _, e := range events {
			ok := "✓"
			if !e.Success {
				ok = "✗"
			}
			run := "-"
			if e.RunID != "" {
				run = fmt.Sprintf("%s#%d", truncate(e.RunID, 8), e.Attempt)
			}
			fmt.Printf("%-5d  %-19s  %-10s  %-11s  %-24s  %-6d  %-6d  %-7d  %s\n",
				e.ID,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				e.Purpose,
				run,
				truncate(e.Model, 24),
				e.InputTokens,
				e.OutputTokens,
				e.LatencyMs,
				ok,
			)
		}
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "View full request/response for an LLM event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var id int
		if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		s, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		e, err := s.EventRepo().GetLLMEvent(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if e == nil {
			return fmt.Errorf("event %d not found", id)
		}

		sep := strings.Repeat("─", 60)

		fmt.Printf("ID:        %d\n", e.ID)
		fmt.Printf("Time:      %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("Provider:  %s\n", e.Provider)
		fmt.Printf("Model:     %s\n", e.Model)
		fmt.Printf("Purpose:   %s\n", e.Purpose)
		if e.RunID != "" {
			fmt.Printf("Run:       %s (attempt %d)\n", e.RunID, e.Attempt)
		}
		fmt.Printf("Tokens:    %d in / %d out\n", e.InputTokens, e.OutputTokens)
		if c := llm.LookupCost(e.Model); c != nil {
			fmt.Printf("Cost:      %s\n", formatCost(c.Cost(e.InputTokens, e.OutputTokens)))
		}
		fmt.Printf("Latency:   %dms\n", e.LatencyMs)
		fmt.Printf("Success:   %v\n", e.Success)
		if e.ErrorMessage != "" {
			fmt.Printf("Error:     %s\n", e.ErrorMessage)
		}

		for _, part := range []struct{ title, body string }{
			{"REQUEST", e.RequestBody},
			{"RESPONSE", e.ResponseBody},
		} {
			fmt.Println()
			fmt.Println(sep)
			fmt.Println(part.title)
			fmt.Println(sep)
			if part.body == "" {
				fmt.Println("(not captured)")
				continue
			}
			fmt.Println(part.body)
		}
		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregated LLM token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := eventQueryOpts(cmd)
		if err != nil {
			return err
		}

		s, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		ctx := cmd.Context()
		stats, err := s.EventRepo().LLMUsageByPurpose(ctx, opts)
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}
		if len(stats) == 0 {
			fmt.Println("No LLM usage recorded yet.")
			return nil
		}

		fmt.Println("Usage by Purpose")
		fmt.Println(strings.Repeat("─", 72))
		fmt.Printf("%-16s  %6s  %10s  %10s  %10s  %8s\n",
			"Purpose", "Calls", "Input", "Output", "Total", "Avg Ms")
		fmt.Println(strings.Repeat("─", 72))

		var totalCalls, totalIn, totalOut int
		for _, st := range stats {
			fmt.Printf("%-16s  %6d  %10d  %10d  %10d  %8d\n",
				st.Purpose, st.Calls, st.InputTokens, st.OutputTokens, st.InputTokens+st.OutputTokens, st.AvgLatencyMs)
			totalCalls += st.Calls
			totalIn += st.InputTokens
			totalOut += st.OutputTokens
		}
		fmt.Println(strings.Repeat("─", 72))
		fmt.Printf("%-16s  %6d  %10d  %10d  %10d\n",
			"TOTAL", totalCalls, totalIn, totalOut, totalIn+totalOut)

		usage, err := s.EventRepo().LLMUsageByModel(ctx, opts)
		if err != nil {
			return fmt.Errorf("query model usage: %w", err)
		}
		if len(usage) > 0 {
			fmt.Println()
			printCost(usage)
		}
		return nil
	},
}

// eventQueryOpts reads the --purpose and --run filters shared by list and
// stats. A run may be given by a unique ID prefix.
func eventQueryOpts(cmd *cobra.Command) (store.QueryOpts, error) {
	var opts store.QueryOpts
	opts.Purpose, _ = cmd.Flags().GetString("purpose")
	run, _ := cmd.Flags().GetString("run")
	if run == "" {
		return opts, nil
	}

	s, err := openStore(cmd)
	if err != nil {
		return opts, fmt.Errorf("open database: %w", err)
	}
	defer s.Close()

	r, err := s.RunRepo().GetRun(cmd.Context(), run)
	if err != nil {
		return opts, fmt.Errorf("get run: %w", err)
	}
	if r == nil {
		return opts, fmt.Errorf("run %s not found", run)
	}
	opts.RunID = r.ID
	return opts, nil
}

// printCost prints the estimated cost table for usage grouped by model.
func printCost(usage []store.LLMModelUsage) {
	fmt.Println("Estimated Cost (USD)")
	fmt.Println(strings.Repeat("─", 72))
	fmt.Printf("%-32s  %6s  %10s  %10s  %10s\n",
		"Model", "Calls", "Input", "Output", "Cost")
	fmt.Println(strings.Repeat("─", 72))

	var total float64
	var unknown []string
	for _, mu := range usage {
		cost := "?"
		if c := llm.LookupCost(mu.Model); c != nil {
			usd := c.Cost(mu.InputTokens, mu.OutputTokens)
			total += usd
			cost = formatCost(usd)
		} else {
			unknown = append(unknown, mu.Model)
		}
		fmt.Printf("%-32s  %6d  %10d  %10d  %10s\n",
			truncate(mu.Model, 32), mu.Calls, mu.InputTokens, mu.OutputTokens, cost)
	}

	fmt.Println(strings.Repeat("─", 72))
	label := "TOTAL"
	if len(unknown) > 0 {
		label = "TOTAL (partial)"
	}
	fmt.Printf("%-32s  %6s  %10s  %10s  %10s\n", label, "", "", "", formatCost(total))
	if len(unknown) > 0 {
		fmt.Printf("\nPricing unavailable for: %s\n", strings.Join(unknown, ", "))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	for _, c := range []*cobra.Command{llmListCmd, llmStatsCmd} {
		c.Flags().StringP("purpose", "p", "", "Filter by purpose (item-gen or item-audit)")
		c.Flags().StringP("run", "r", "", "Filter by run ID or unique prefix")
	}
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of events to show")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
}
