package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/mirrorgen/internal/audit"
	"github.com/abhisek/mirrorgen/internal/item"
	"github.com/abhisek/mirrorgen/internal/itemgen"
	"github.com/abhisek/mirrorgen/internal/llm"
	"github.com/abhisek/mirrorgen/internal/logger"
	"github.com/abhisek/mirrorgen/internal/taxonomy"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Preview generated candidates without the retry loop (no database)",
	Long: `Generate candidates for a question image and show each one with the auditor's verdict.

This is a stateless developer tool: no retries, no feedback threading, no run
history and no LLM event log. Useful for tuning prompts and comparing models.`,
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().String("image", "", "Photographed source question (required)")
	previewCmd.Flags().String("taxonomy", "", "YAML taxonomy selection (required)")
	previewCmd.Flags().String("context", "", "Optional instructions for the generator")
	previewCmd.Flags().String("key", "", "Force the correct option to this letter (default: random)")
	previewCmd.Flags().Int("count", 1, "Number of candidates to generate")
	previewCmd.Flags().Bool("no-audit", false, "Skip the audit call")
	_ = previewCmd.MarkFlagRequired("image")
	_ = previewCmd.MarkFlagRequired("taxonomy")
}

func runPreview(cmd *cobra.Command, args []string) error {
	imagePath, _ := cmd.Flags().GetString("image")
	taxPath, _ := cmd.Flags().GetString("taxonomy")
	userContext, _ := cmd.Flags().GetString("context")
	keyVal, _ := cmd.Flags().GetString("key")
	count, _ := cmd.Flags().GetInt("count")
	noAudit, _ := cmd.Flags().GetBool("no-audit")

	pick := itemgen.RandomKey
	if keyVal != "" {
		key := item.Letter(strings.ToUpper(keyVal))
		if !key.Valid() {
			return fmt.Errorf("invalid key %q: must be one of A, B, C or D", keyVal)
		}
		pick = itemgen.FixedKeys(key)
	}

	img, err := item.LoadImage(imagePath)
	if err != nil {
		return err
	}
	sel, err := taxonomy.Load(taxPath)
	if err != nil {
		return err
	}

	// No EventRepo, so events are not recorded.
	ctx := cmd.Context()
	provider, err := llm.NewProviderFromEnv(ctx, nil, logger.NewNop())
	if err != nil {
		return fmt.Errorf("LLM provider: %w", err)
	}
	gen := itemgen.New(provider, itemgen.DefaultConfig())
	aud := audit.New(provider, audit.DefaultConfig())

	fmt.Printf("Image: %s (%s), model %s\n", img.Name, img.MIMEType, provider.ModelID())
	fmt.Printf("Generating %d candidate(s)...\n\n", count)

	var approved int
	for i := 1; i <= count; i++ {
		key := pick()
		c, err := gen.Generate(ctx, itemgen.GenerationRequest{
			Image:     img,
			Taxonomy:  sel,
			Context:   userContext,
			ForcedKey: key,
		})
		if err != nil {
			fmt.Printf("Candidate %d (key %s): generation failed: %v\n", i, key, err)
			if raw, ok := item.RawResponse(err); ok {
				fmt.Printf("Raw response:\n%s\n", indent(raw))
			}
			fmt.Println()
			continue
		}

		fmt.Printf("── Candidate %d/%d (key %s) ──\n", i, count, key)
		fmt.Println(c.Stem)
		for _, l := range item.Letters {
			mark := " "
			if l == c.Key {
				mark = "*"
			}
			fmt.Printf(" %s%s) %s\n", mark, l, c.Options[l].Text)
		}
		if n := len(c.Charts()); n > 0 {
			fmt.Printf("Charts: %d\n", n)
		}

		if !noAudit {
			fmt.Println()
			v, err := aud.Audit(ctx, c, sel)
			if err != nil {
				fmt.Printf("Audit failed: %v\n\n", err)
				continue
			}
			if v.Approved() {
				approved++
			}
			printVerdict(v)
		}
		fmt.Println()
	}

	if !noAudit {
		fmt.Printf("── Summary: %d/%d approved ──\n", approved, count)
	}
	return nil
}
