package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kakutei/tax-calculator/internal/calculation"
	"github.com/kakutei/tax-calculator/internal/config"
	"github.com/kakutei/tax-calculator/internal/domain"
	"github.com/kakutei/tax-calculator/internal/httpapi"
	"github.com/kakutei/tax-calculator/internal/output"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

type rootOptions struct {
	verbose bool
	logger  *slog.Logger
	parser  *config.InputParser
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{parser: config.NewInputParser()}

	root := &cobra.Command{
		Use:           "taxcalc",
		Short:         "確定申告 tax calculator for Japanese sole proprietors",
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.logger = buildLoggerFromEnv(cmd.ErrOrStderr(), opts.verbose)
		},
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newCalculateCmd(opts),
		newCompareCmd(opts),
		newValidateCmd(opts),
		newExampleCmd(opts),
		newServeCmd(opts),
	)
	return root
}

// engine builds an engine for the configuration's rule overrides.
func (o *rootOptions) engine(cfg *domain.Configuration) (*calculation.CalculationEngine, error) {
	ce, err := calculation.NewCalculationEngineWithRules(cfg.TaxRules)
	if err != nil {
		return nil, err
	}
	ce.SetLogger(calculation.NewSlogLogger(o.logger))
	return ce, nil
}

type reportFlags struct {
	input   string
	format  string
	saveDir string
}

func (f *reportFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "tax return or configuration file (YAML or JSON)")
	cmd.Flags().StringVarP(&f.format, "format", "f", "console",
		fmt.Sprintf("output format: %v", output.AvailableFormatterNames()))
	cmd.Flags().StringVar(&f.saveDir, "save-dir", "", "also write the report to a timestamped file in this directory")
	_ = cmd.MarkFlagRequired("input")
}

// emit renders report to w and, when requested, to a file in saveDir.
func (f *reportFlags) emit(w io.Writer, logger *slog.Logger, report *output.Report) error {
	formatter, err := output.LookupFormatter(f.format)
	if err != nil {
		return err
	}
	data, err := formatter.Format(report)
	if err != nil {
		return fmt.Errorf("failed to format report: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if f.saveDir == "" {
		return nil
	}
	if err := os.MkdirAll(f.saveDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path, err := output.WriteFormatted(formatter, report, f.saveDir, time.Now())
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	logger.Info("report saved", "path", path, "format", formatter.Name())
	return nil
}

func newCalculateCmd(opts *rootOptions) *cobra.Command {
	var flags reportFlags
	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Calculate the taxes for one return",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.parser.LoadFromFile(flags.input)
			if err != nil {
				return err
			}
			ce, err := opts.engine(cfg)
			if err != nil {
				return err
			}
			result, err := ce.CalculateAllTaxes(&cfg.TaxReturn)
			if err != nil {
				return err
			}
			opts.logger.Debug("calculated return", "tax_year", cfg.TaxReturn.TaxSettings.TaxYear,
				"total_tax", result.TotalTax.String())
			return flags.emit(cmd.OutOrStdout(), opts.logger, output.NewResultReport(&cfg.TaxReturn, result))
		},
	}
	flags.register(cmd)
	return cmd
}

func newCompareCmd(opts *rootOptions) *cobra.Command {
	var flags reportFlags
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare the baseline return with the configured scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.parser.LoadFromFile(flags.input)
			if err != nil {
				return err
			}
			if len(cfg.Scenarios) == 0 {
				opts.logger.Warn("configuration has no scenarios; reporting the baseline only", "input", flags.input)
			}
			ce, err := opts.engine(cfg)
			if err != nil {
				return err
			}
			cmp, err := ce.RunScenarios(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return flags.emit(cmd.OutOrStdout(), opts.logger, output.NewReport(&cfg.TaxReturn, cmp))
		},
	}
	flags.register(cmd)
	return cmd
}

func newValidateCmd(opts *rootOptions) *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a return or configuration file without calculating",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.parser.LoadFromFile(input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is valid: %d年分, %d transactions, %d scenarios\n",
				input, cfg.TaxReturn.TaxSettings.TaxYear, len(cfg.TaxReturn.Transactions), len(cfg.Scenarios))
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "tax return or configuration file (YAML or JSON)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newExampleCmd(opts *rootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "example",
		Short: "Write an example configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			example := opts.parser.CreateExampleConfiguration()
			if out == "" {
				return opts.parser.WriteConfiguration(cmd.OutOrStdout(), example, config.FormatYAML)
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			if err := opts.parser.WriteConfiguration(f, example, config.FormatFromFilename(out)); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "example configuration written to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "destination file; the extension selects YAML or JSON (default stdout)")
	return cmd
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		addr      string
		rateLimit float64
		burst     int
		cacheTTL  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the calculation API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ce := calculation.NewCalculationEngine()
			ce.SetLogger(calculation.NewSlogLogger(opts.logger))
			limit := rate.Limit(rateLimit)
			if rateLimit <= 0 {
				limit = rate.Inf
			}
			srv := httpapi.New(ce, opts.logger,
				httpapi.WithRateLimit(limit, burst),
				httpapi.WithResultCache(cacheTTL),
			).HTTPServer(addr)

			errCh := make(chan error, 1)
			go func() {
				opts.logger.Info("tax calculator listening", "addr", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case <-ctx.Done():
				ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := srv.Shutdown(ctxShutdown); err != nil {
					opts.logger.Error("server shutdown error", "err", err)
					return err
				}
				return nil
			case err := <-errCh:
				opts.logger.Error("server error", "err", err)
				return err
			}
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().Float64Var(&rateLimit, "rate-limit", float64(httpapi.DefaultRateLimit), "API requests per second; 0 disables limiting")
	cmd.Flags().IntVar(&burst, "burst", httpapi.DefaultBurst, "rate limiter burst size")
	cmd.Flags().DurationVar(&cacheTTL, "cache-ttl", httpapi.DefaultCacheTTL, "how long identical requests are answered from cache; 0 disables the cache")
	return cmd
}
