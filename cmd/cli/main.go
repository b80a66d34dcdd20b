package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"aigate/adapters/excel"
	"aigate/app"
	"aigate/domain/dataset"
	"aigate/internal"
	"aigate/internal/cache"
	"aigate/internal/config"
	"aigate/internal/extract"
	"aigate/internal/migration"
	"aigate/internal/monitor"
	"aigate/internal/report"
	"aigate/internal/trend"
	"aigate/internal/validation"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "aigate-cli",
		Short: "Check AI-generated series and narratives before they are shown to users",
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newValidateCmd(),
		newReportCmd(),
		newMigrateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type seriesFlags struct {
	file     string
	labelCol string
	valueCol string
	context  string
	metric   string
}

func (f *seriesFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "Series file: .xlsx, .csv or .json")
	cmd.Flags().StringVar(&f.labelCol, "label-col", "", "Label column (default: first column)")
	cmd.Flags().StringVar(&f.valueCol, "value-col", "", "Value column (default: first numeric column)")
	cmd.Flags().StringVar(&f.context, "context", string(trend.ContextRevenue), "Series context: revenue|expense|generic")
	cmd.Flags().StringVar(&f.metric, "metric", "", "Metric name used in the narrative")
	_ = cmd.MarkFlagRequired("file")
}

func (f *seriesFlags) input() (trend.InsightInput, dataset.Dataset, error) {
	ds, err := loadSeries(f.file, excel.SeriesColumns{Label: f.labelCol, Value: f.valueCol})
	if err != nil {
		return trend.InsightInput{}, ds, err
	}
	return trend.InsightInput{
		Series:  ds.DataPoints,
		Context: trend.ParseContext(f.context),
		Metric:  f.metric,
	}, ds, nil
}

func newAnalyzeCmd() *cobra.Command {
	var flags seriesFlags
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Compute trend facts and a checked insight for a series",
		Long: `Compute trend facts for a series and generate the insight narrative from them.

Example: aigate-cli analyze --file omzet.xlsx --value-col Pendapatan --context revenue`,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, ds, err := flags.input()
			if err != nil {
				return err
			}
			if !ds.Success {
				return fmt.Errorf("series could not be read: %s", strings.Join(ds.Errors, "; "))
			}

			svc := newService()
			analysis, insight, verdict := svc.Analyze(input)
			if asJSON {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"analysis": analysis,
					"insight":  insight,
					"verdict":  verdict,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "📊 TREND ANALYSIS (%d points)\n", analysis.Points)
			fmt.Fprintf(out, "Direction: %s\n", analysis.Direction)
			fmt.Fprintf(out, "Overall change: %+.1f%%\n", analysis.OverallChangePct)
			fmt.Fprintf(out, "Average change per period: %+.1f%%\n", analysis.AvgPeriodGrowthPct)
			fmt.Fprintf(out, "Consistency: %.2f\n", analysis.Consistency)
			fmt.Fprintf(out, "\n💡 INSIGHT (%s confidence)\n%s\n%s\n", insight.Confidence, insight.Summary, insight.Recommendation)
			if insight.Prediction != "" {
				fmt.Fprintf(out, "%s\n", insight.Prediction)
			}
			for _, alert := range insight.Alerts {
				fmt.Fprintf(out, "⚠️  %s\n", alert)
			}
			printVerdict(out, verdict)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of text")
	return cmd
}

func newValidateCmd() *cobra.Command {
	var file, narrative, module string
	var confirm bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run raw model output through the validation gate",
		Long: `Run a model response (JSON, fenced JSON or "Label: value" lines) through the
schema, semantic and business stages and print the verdict as JSON.

Use --file - to read from stdin.

Example: aigate-cli validate --file response.txt --narrative "Pendapatan naik 20%"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			svc := newService()
			resp, err := svc.Process(cmd.Context(), app.Request{
				Module:      module,
				ModelOutput: string(raw),
				Narrative:   narrative,
			})
			if err != nil {
				return err
			}
			if confirm && resp.Verdict.RequiresConfirmation {
				resp.Verdict = validation.Confirm(resp.Verdict)
				resp.CanRender = resp.Verdict.CanRender
			}
			if err := printJSON(cmd.OutOrStdout(), resp); err != nil {
				return err
			}
			if err := resp.Err(module); err != nil {
				return err
			}
			if !resp.CanRender {
				return fmt.Errorf("output needs confirmation before it can be rendered, rerun with --confirm")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Model output file, or - for stdin")
	cmd.Flags().StringVar(&narrative, "narrative", "", "Narrative to check instead of the one in the output")
	cmd.Flags().StringVar(&module, "module", "chart", "Module the output belongs to")
	cmd.Flags().BoolVar(&confirm, "confirm", false, "Acknowledge confirmation warnings")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newReportCmd() *cobra.Command {
	var flags seriesFlags
	var title, output string
	var asHTML bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render a Markdown or HTML trend report for a series",
		Long: `Render the trend facts, insight and data quality checks of a series as a report.

Example: aigate-cli report --file biaya.csv --context expense --html -o biaya.html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, ds, err := flags.input()
			if err != nil {
				return err
			}
			if !ds.Success {
				return fmt.Errorf("series could not be read: %s", strings.Join(ds.Errors, "; "))
			}
			if title == "" {
				title = strings.TrimSuffix(filepath.Base(flags.file), filepath.Ext(flags.file))
			}

			md := newService().Report(title, input)
			content := []byte(md)
			if asHTML {
				content = report.ToHTML(md)
			}

			if output == "" {
				_, err := cmd.OutOrStdout().Write(content)
				return err
			}
			if err := os.WriteFile(output, content, 0o644); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Report written to %s\n", output)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&title, "title", "", "Report title (default: file name)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().BoolVar(&asHTML, "html", false, "Render HTML instead of Markdown")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the decision log schema in DATABASE_URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := sqlx.Connect(cfg.Database.Driver, cfg.Database.URL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			runner := migration.NewRunner()
			if err := runner.Run(cmd.Context(), db); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Schema %s is up to date (%s)\n", runner.Version(), cfg.Database.Driver)
			return nil
		},
	}
}

// newService builds an in-process pipeline; the CLI keeps no decision history
func newService() *app.GatekeeperService {
	logger := internal.NewLogger(internal.LogLevelWarn)
	engine := trend.NewEngine()
	mon := monitor.New(monitor.WithLogger(logger.With("Monitor")))
	cfg := config.Default()
	return app.NewGatekeeperService(engine, validation.NewGate(engine), mon, cache.New[string](), nil, app.ServiceConfig{
		TTLFresh:         cfg.Cache.TTLFresh,
		TTLStale:         cfg.Cache.TTLStale,
		RateLimitGrace:   cfg.Cache.RateLimitGrace,
		BatchConcurrency: cfg.Gate.BatchConcurrency,
	})
}

// loadSeries reads a spreadsheet, or parses a JSON file as model output
func loadSeries(path string, cols excel.SeriesColumns) (dataset.Dataset, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".csv":
		return excel.NewSeriesReader(path).ReadSeries(cols)
	default:
		raw, err := os.ReadFile(path)
		if err != nil {
			return dataset.Dataset{}, fmt.Errorf("failed to read %s: %w", path, err)
		}
		return extract.ParseDataset(string(raw)), nil
	}
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return raw, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printVerdict(w io.Writer, v validation.Verdict) {
	status := "✅ passed"
	if !v.Passed {
		status = fmt.Sprintf("❌ stopped at %s", v.Stage)
	}
	fmt.Fprintf(w, "\n🔎 GATE: %s (can render: %t)\n", status, v.CanRender)
	for _, e := range v.Errors {
		fmt.Fprintf(w, "   🚫 %s\n", e)
	}
	for _, warning := range v.Warnings {
		fmt.Fprintf(w, "   ⚠️  %s\n", warning)
	}
}
