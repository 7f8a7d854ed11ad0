// Command abut computes contact matrices for mechanical assemblies
// and analyzes the resulting contact graph.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/chazu/abut/pkg/assembly"
	"github.com/chazu/abut/pkg/config"
	"github.com/chazu/abut/pkg/contact"
	"github.com/chazu/abut/pkg/engine"
	"github.com/chazu/abut/pkg/export"
	"github.com/chazu/abut/pkg/graph"
	"github.com/chazu/abut/pkg/kernel/sdfx"
	"github.com/chazu/abut/pkg/measure"
	"github.com/chazu/abut/pkg/output"
)

func main() {
	var (
		configPath string
		tolerance  float64
		parallel   bool
		workers    int
		noFilter   bool
		outputDir  string
	)

	rootCmd := &cobra.Command{
		Use:   "abut",
		Short: "Contact detection and graph analysis for mechanical assemblies",
	}

	// loadConfig merges the config file with any command-line overrides.
	loadConfig := func(cmd *cobra.Command) (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		if cmd.Flags().Changed("tolerance") {
			cfg.Contact.Tolerance = tolerance
		}
		if cmd.Flags().Changed("parallel") {
			cfg.Parallel.Enabled = parallel
		}
		if cmd.Flags().Changed("workers") {
			cfg.Parallel.Workers = workers
		}
		if noFilter {
			cfg.Contact.BBoxFilter = false
		}
		if cmd.Flags().Changed("output") {
			cfg.Output.Dir = outputDir
		}
		return cfg, nil
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze <file.3mf>",
		Short: "Analyze part contacts in a 3MF assembly file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			asm, err := assembly.Load(args[0])
			if err != nil {
				return err
			}
			return runAnalysis(cfg, asm, stem(args[0]))
		},
	}

	sceneCmd := &cobra.Command{
		Use:   "scene <file.lisp>",
		Short: "Build an assembly from a scene script and analyze it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			source, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading scene: %w", err)
			}

			eng := engine.NewEngine(sdfx.New())
			asm, evalErrs, err := eng.Evaluate(string(source))
			if err != nil {
				return err
			}
			if len(evalErrs) > 0 {
				for _, e := range evalErrs {
					fmt.Fprintf(os.Stderr, "%s: %s\n", args[0], e.Error())
				}
				return fmt.Errorf("scene evaluation failed with %d error(s)", len(evalErrs))
			}
			return runAnalysis(cfg, asm, stem(args[0]))
		},
		Args: cobra.ExactArgs(1),
	}

	for _, cmd := range []*cobra.Command{analyzeCmd, sceneCmd} {
		cmd.Flags().StringVar(&configPath, "config", "", "Config file path")
		cmd.Flags().Float64Var(&tolerance, "tolerance", 1e-3, "Contact distance tolerance in model units")
		cmd.Flags().BoolVar(&parallel, "parallel", false, "Evaluate part pairs in parallel")
		cmd.Flags().IntVar(&workers, "workers", 0, "Worker count for parallel evaluation (0 = all CPUs)")
		cmd.Flags().BoolVar(&noFilter, "no-bbox-filter", false, "Disable the bounding-box pre-filter")
		cmd.Flags().StringVar(&outputDir, "output", "outputs", "Output directory")
	}

	rootCmd.AddCommand(analyzeCmd, sceneCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runAnalysis is the shared pipeline: contact matrix, graph analysis,
// summary, and result files.
func runAnalysis(cfg *config.Config, asm *assembly.Assembly, name string) error {
	log, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer log.Sync()

	builder := contact.NewBuilder(measure.New(), contact.Options{
		Tolerance:  cfg.Contact.Tolerance,
		BBoxFilter: cfg.Contact.BBoxFilter,
		Parallel:   cfg.Parallel.Enabled,
		Workers:    cfg.Parallel.Workers,
		BatchSize:  cfg.Parallel.BatchSize,
	}, log)

	matrix, stats := builder.Compute(asm.Parts())

	g, err := graph.FromMatrix(matrix, asm.Names())
	if err != nil {
		return err
	}

	opts := graph.Options{
		Centrality: cfg.Analysis.Centrality,
		Bridges:    cfg.Analysis.Bridges,
	}
	// Large assemblies skip the detailed passes, matching the
	// max_detailed_parts setting.
	if cfg.Analysis.MaxDetailedParts > 0 && asm.Len() > cfg.Analysis.MaxDetailedParts {
		log.Info("assembly exceeds max_detailed_parts, skipping centrality and bridges",
			zap.Int("parts", asm.Len()),
			zap.Int("max_detailed_parts", cfg.Analysis.MaxDetailedParts),
		)
		opts = graph.Options{}
	}
	analysis := graph.Analyze(g, opts)

	if err := export.WriteSummary(os.Stdout, g, analysis); err != nil {
		return err
	}

	mgr, err := output.NewManager(cfg.Output.Dir)
	if err != nil {
		return err
	}

	matrixPath := mgr.MatrixPath(name + "_contact_matrix")
	mf, err := os.Create(matrixPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", matrixPath, err)
	}
	if err := export.WriteMatrixCSV(mf, matrix, asm.Names(), cfg.Delimiter()); err != nil {
		mf.Close()
		return err
	}
	if err := mf.Close(); err != nil {
		return err
	}

	report := export.NewReport(name, g, stats, cfg.Contact.Tolerance, analysis)
	reportPath := mgr.ReportPath(name + "_analysis")
	rf, err := os.Create(reportPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", reportPath, err)
	}
	if err := report.WriteJSON(rf); err != nil {
		rf.Close()
		return err
	}
	if err := rf.Close(); err != nil {
		return err
	}

	fmt.Printf("\nContact matrix exported to %s\n", matrixPath)
	fmt.Printf("Analysis report written to %s\n", reportPath)
	return nil
}

// newLogger builds a zap logger per the log config: console format
// uses the development encoder, json the production one.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	var zc zap.Config
	if strings.EqualFold(cfg.Log.Format, "json") {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// stem returns the file name without directory or extension.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
