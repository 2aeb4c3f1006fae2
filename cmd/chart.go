package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/mirrorgen/internal/chart"
	"github.com/abhisek/mirrorgen/internal/item"
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Render a chart spec to a PNG preview",
	Long: "Render one chart spec (the JSON object an item carries in graficos_enunciado\n" +
		"or an option's graficos) to a PNG file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		specPath, _ := cmd.Flags().GetString("spec")
		outPath, _ := cmd.Flags().GetString("out")

		data, err := os.ReadFile(specPath)
		if err != nil {
			return fmt.Errorf("read chart spec: %w", err)
		}
		var spec item.ChartSpec
		if err := json.Unmarshal(data, &spec); err != nil {
			return fmt.Errorf("parse chart spec: %w", err)
		}

		r, err := chart.RendererFromEnv()
		if err != nil {
			return err
		}
		png, err := r.Render(spec)
		if err != nil {
			return err
		}
		if err := os.WriteFile(outPath, png, 0o644); err != nil {
			return fmt.Errorf("write preview: %w", err)
		}
		fmt.Printf("Wrote %s (%s)\n", outPath, spec.Type)
		return nil
	},
}

func init() {
	chartCmd.Flags().String("spec", "", "JSON file with one chart spec")
	chartCmd.Flags().StringP("out", "o", "chart.png", "Output PNG file")
	_ = chartCmd.MarkFlagRequired("spec")
}
