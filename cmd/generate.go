package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/abhisek/mirrorgen/internal/audit"
	"github.com/abhisek/mirrorgen/internal/chart"
	"github.com/abhisek/mirrorgen/internal/export"
	"github.com/abhisek/mirrorgen/internal/item"
	"github.com/abhisek/mirrorgen/internal/itemgen"
	"github.com/abhisek/mirrorgen/internal/llm"
	"github.com/abhisek/mirrorgen/internal/logger"
	"github.com/abhisek/mirrorgen/internal/pipeline"
	"github.com/abhisek/mirrorgen/internal/taxonomy"
	"github.com/abhisek/mirrorgen/internal/tui"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate an audited mirror item from a question image",
	Example: `  mirrorgen generate --image pregunta.png --taxonomy taxonomia.yaml --out-docx item.docx
  mirrorgen generate --image pregunta.jpg --taxonomy taxonomia.yaml --tui`,
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.String("image", "", "Photographed source question (PNG, JPEG, WebP or GIF)")
	f.String("taxonomy", "", "YAML file with the resolved taxonomy selection")
	f.String("context", "", "Optional instructions for the generator")
	f.Int("attempts", 0, "Maximum generation attempts (overrides MIRRORGEN_MAX_ATTEMPTS)")
	f.String("feedback-policy", "", "Feedback after a failed generation: keep or error (overrides MIRRORGEN_FEEDBACK_POLICY)")
	f.String("out-docx", "", "Write the approved item as a Word document")
	f.String("out-xlsx", "", "Write the approved item as an Excel workbook")
	f.String("out-json", "", "Write the approved item as JSON")
	f.String("charts", "", "Directory for PNG previews of the item's charts")
	f.Bool("tui", false, "Run in the interactive terminal UI")

	_ = generateCmd.MarkFlagRequired("image")
	_ = generateCmd.MarkFlagRequired("taxonomy")
}

type generateOptions struct {
	imagePath    string
	taxonomyPath string
	context      string
	attempts     int
	policy       string
	outDocx      string
	outXlsx      string
	outJSON      string
	chartsDir    string
	interactive  bool
}

func readGenerateOptions(cmd *cobra.Command) generateOptions {
	f := cmd.Flags()
	var o generateOptions
	o.imagePath, _ = f.GetString("image")
	o.taxonomyPath, _ = f.GetString("taxonomy")
	o.context, _ = f.GetString("context")
	o.attempts, _ = f.GetInt("attempts")
	o.policy, _ = f.GetString("feedback-policy")
	o.outDocx, _ = f.GetString("out-docx")
	o.outXlsx, _ = f.GetString("out-xlsx")
	o.outJSON, _ = f.GetString("out-json")
	o.chartsDir, _ = f.GetString("charts")
	o.interactive, _ = f.GetBool("tui")
	return o
}

func (o generateOptions) pipelineConfig() (pipeline.Config, error) {
	cfg := pipeline.ConfigFromEnv()
	if o.attempts > 0 {
		cfg.MaxAttempts = o.attempts
	}
	if o.policy != "" {
		p, err := pipeline.ParseFeedbackPolicy(o.policy)
		if err != nil {
			return cfg, err
		}
		cfg.FeedbackPolicy = p
	}
	return cfg, cfg.Validate()
}

func runGenerate(cmd *cobra.Command, args []string) error {
	opts := readGenerateOptions(cmd)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	log := logger.NewNop()
	if !opts.interactive {
		// zap writes to stderr, which would tear the full-screen UI.
		l, err := newLogger(cmd)
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		defer l.Sync()
		log = l
	}

	img, err := item.LoadImage(opts.imagePath)
	if err != nil {
		return err
	}
	sel, err := taxonomy.Load(opts.taxonomyPath)
	if err != nil {
		return err
	}
	cfg, err := opts.pipelineConfig()
	if err != nil {
		return fmt.Errorf("invalid pipeline configuration: %w", err)
	}

	st, err := openStore(cmd)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	provider, err := llm.NewProviderFromEnv(ctx, st.EventRepo(), log)
	if err != nil {
		return fmt.Errorf("LLM provider not configured: %w", err)
	}

	ctrl := pipeline.New(
		itemgen.New(provider, itemgen.DefaultConfig()),
		audit.New(provider, audit.DefaultConfig()),
		cfg,
	)
	ctrl.Logger = log

	in := pipeline.RunInput{
		ID:       uuid.NewString(),
		Image:    img,
		Taxonomy: sel,
		Context:  opts.context,
	}
	log.Info("run started", "run_id", in.ID, "image", img.Name, "model", provider.ModelID(),
		"max_attempts", cfg.MaxAttempts, "feedback_policy", cfg.FeedbackPolicy)

	var out *pipeline.Outcome
	if opts.interactive {
		out, err = tui.Run(ctx, tui.Options{
			ImageName:   img.Name,
			MaxAttempts: cfg.MaxAttempts,
			Context:     opts.context,
			Run: func(ctx context.Context, userContext string, observe pipeline.Observer) (*pipeline.Outcome, error) {
				in.Context = userContext
				c := *ctrl
				c.Observer = observe
				return c.Run(ctx, in)
			},
		})
	} else {
		out, err = ctrl.Run(ctx, in)
	}
	if err != nil {
		return err
	}

	rec, err := pipeline.NewRunRecord(in.ID, provider.ModelID(), in, cfg, out)
	if err != nil {
		return err
	}
	// The outcome is still reported when history cannot be written.
	if err := st.RunRepo().SaveRun(context.WithoutCancel(ctx), rec); err != nil {
		log.Error("save run failed", "run_id", in.ID, "error", err)
	}

	w := cmd.OutOrStdout()
	if !opts.interactive {
		fmt.Fprintln(w, tui.Summary(out, 100))
	}
	fmt.Fprintf(w, "Run %s\n", in.ID)

	c, err := export.FromOutcome(out)
	if errors.Is(err, export.ErrNotApproved) {
		if opts.outDocx != "" || opts.outXlsx != "" || opts.outJSON != "" {
			fmt.Fprintln(cmd.ErrOrStderr(), "No approved item; nothing exported.")
		}
		return nil
	}
	if err != nil {
		return err
	}

	writers := []struct {
		path  string
		write func(io.Writer, *item.CandidateItem) error
	}{
		{opts.outDocx, export.Word},
		{opts.outXlsx, export.Excel},
		{opts.outJSON, export.JSON},
	}
	for _, wr := range writers {
		if wr.path == "" {
			continue
		}
		if err := writeFile(wr.path, c, wr.write); err != nil {
			return err
		}
		fmt.Fprintf(w, "Wrote %s\n", wr.path)
	}

	if opts.chartsDir != "" {
		n, err := renderCharts(opts.chartsDir, c, log)
		if err != nil {
			return err
		}
		if n > 0 {
			fmt.Fprintf(w, "Wrote %d chart preview(s) to %s\n", n, opts.chartsDir)
		}
	}
	return nil
}

func writeFile(path string, c *item.CandidateItem, write func(io.Writer, *item.CandidateItem) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := write(f, c); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// renderCharts writes one PNG per renderable chart. A chart that fails to
// render is logged and skipped; the item itself is already approved.
func renderCharts(dir string, c *item.CandidateItem, log *logger.Logger) (int, error) {
	rows := export.ChartRows(c)
	if len(rows) == 0 {
		return 0, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create chart directory: %w", err)
	}
	r, err := chart.RendererFromEnv()
	if err != nil {
		return 0, err
	}

	n := 0
	for _, cr := range rows {
		png, err := r.Render(cr.Spec)
		if errors.Is(err, chart.ErrNotRenderable) {
			log.Debug("chart has no preview", "chart", cr.Slug(), "type", cr.Spec.Type)
			continue
		}
		if err != nil {
			log.Warn("chart preview failed", "chart", cr.Slug(), "type", cr.Spec.Type, "error", err)
			continue
		}
		if err := os.WriteFile(filepath.Join(dir, cr.Slug()+".png"), png, 0o644); err != nil {
			return n, fmt.Errorf("write chart preview: %w", err)
		}
		n++
	}
	return n, nil
}
