package main

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"rnaseqde/adapters/excel"
	"rnaseqde/app"
	"rnaseqde/domain/core"
	"rnaseqde/domain/expression"
	"rnaseqde/internal/container"
	"rnaseqde/internal/visual"

	"github.com/spf13/cobra"
)

type analyzeOptions struct {
	input      string
	format     string
	geneColumn string
	samples    []string
	fdr        float64
	baseMean   float64
	log2fc     float64
	seed       int64
	out        string
	xlsx       string
	report     string
}

func newAnalyzeCmd(newContainer containerFactory) *cobra.Command {
	defaults := expression.DefaultThresholds()
	opts := analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run differential expression on a count matrix",
		Long: `Run the differential expression pipeline on a count matrix file and
write the filtered results.

Each --sample flag names one sample column and its condition label.

Example: rnaseqde analyze --input counts.csv --gene-column gene_id \
  --sample T1=treated --sample T2=treated --sample U1=untreated --sample U2=untreated \
  --fdr 0.05 --seed 42 --out DE_results.csv --report report.html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var seed *int64
			if cmd.Flags().Changed("seed") {
				seed = &opts.seed
			}
			c, err := newContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(context.Background())
			return runAnalyze(cmd.Context(), c, opts, seed, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.input, "input", "", "Count matrix file (csv, tsv/txt or xlsx)")
	cmd.Flags().StringVar(&opts.format, "format", "", "Input format; guessed from the file extension when empty")
	cmd.Flags().StringVar(&opts.geneColumn, "gene-column", "", "Column holding gene identifiers")
	cmd.Flags().StringArrayVar(&opts.samples, "sample", nil, "Sample column and condition as NAME=LABEL (repeatable)")
	cmd.Flags().Float64Var(&opts.fdr, "fdr", defaults.FDRCutoff, "FDR cutoff (0.001, 0.01 or 0.05)")
	cmd.Flags().Float64Var(&opts.baseMean, "base-mean", defaults.BaseMeanCutoff, "Minimum base mean")
	cmd.Flags().Float64Var(&opts.log2fc, "log2fc", defaults.Log2FCCutoff, "Minimum absolute log2 fold change")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "Random seed; defaults to ANALYSIS_SEED or a fresh seed")
	cmd.Flags().StringVar(&opts.out, "out", "DE_results.csv", "CSV output path")
	cmd.Flags().StringVar(&opts.xlsx, "xlsx", "", "Optional Excel output path")
	cmd.Flags().StringVar(&opts.report, "report", "", "Optional HTML report with heatmap, MA and volcano plots")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("gene-column")

	return cmd
}

func runAnalyze(ctx context.Context, c *container.Container, opts analyzeOptions, seed *int64, stdout io.Writer) error {
	thresholds := expression.FilterThresholds{FDRCutoff: opts.fdr, BaseMeanCutoff: opts.baseMean, Log2FCCutoff: opts.log2fc}
	if err := thresholds.Validate(); err != nil {
		return err
	}

	sel, conditions, err := parseSamples(opts.geneColumn, opts.samples)
	if err != nil {
		return err
	}

	format := expression.FormatFromFilename(opts.input)
	if opts.format != "" {
		if format, err = expression.ParseFormat(opts.format); err != nil {
			return err
		}
	}

	f, err := os.Open(opts.input)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	m, err := c.Reader.ReadMatrix(f, format)
	c.Metrics.ObserveUpload(string(format), err)
	if err != nil {
		return err
	}

	table, err := c.Service.Run(ctx, app.RunRequest{
		Source:     filepath.Base(opts.input),
		Matrix:     m,
		Selection:  sel,
		Conditions: conditions,
		Seed:       seed,
	})
	if err != nil {
		return err
	}
	view := expression.Filter(table, thresholds)

	if err := writeFile(opts.out, func(w io.Writer) error { return excel.WriteCSV(w, view.Rows) }); err != nil {
		return err
	}
	if opts.xlsx != "" {
		if err := writeFile(opts.xlsx, func(w io.Writer) error { return excel.WriteXLSX(w, view.Rows) }); err != nil {
			return err
		}
	}
	if opts.report != "" {
		values, err := c.Heatmaps.Matrix(ctx, table, view)
		if err != nil && !stderrors.Is(err, core.ErrEmptyView) {
			return err
		}
		html, err := visual.BuildReport(ctx, visual.ReportInput{
			Title:   fmt.Sprintf("RNA-seq DE report: %s", filepath.Base(opts.input)),
			Table:   table,
			View:    view,
			Heatmap: values,
		})
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.report, html, 0o644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}

	fmt.Fprintf(stdout, "Differential expression completed! %d genes analyzed.\n", table.Len())
	fmt.Fprintf(stdout, "%d significant genes detected after filtering.\n", view.Len())
	fmt.Fprintf(stdout, "run %s, seed %d, %s p-values\n", table.RunID, table.Seed, table.PValueMethod)
	return nil
}

// parseSamples turns NAME=LABEL pairs into a selection and condition map.
func parseSamples(geneColumn string, pairs []string) (expression.Selection, expression.ConditionMap, error) {
	sel := expression.Selection{GeneColumn: geneColumn}
	conditions := expression.ConditionMap{}
	for _, pair := range pairs {
		name, label, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return sel, nil, core.NewConfigurationError(fmt.Sprintf("--sample must be NAME=LABEL, got %q", pair))
		}
		sel.Samples = append(sel.Samples, name)
		if label = strings.TrimSpace(label); label != "" {
			conditions[name] = label
		}
	}
	return sel, conditions, nil
}

// writeFile buffers the output so a failed export never leaves a partial file.
func writeFile(path string, write func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func newRunsCmd(newContainer containerFactory) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent pipeline runs from the run ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(context.Background())

			runs, err := c.Service.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RUN\tCREATED\tSOURCE\tGENES\tSEED\tMETHOD\tSTATUS")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
					r.RunID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Source, r.Genes, r.Seed, r.PValueMethod, r.Status)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of runs to show")
	return cmd
}
