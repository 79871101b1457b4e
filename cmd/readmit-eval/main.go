// Command readmit-eval is the protocol front end for the nested
// cross-validation engine: it validates run configurations, enumerates
// hyperparameter grids, and checks that a label file supports the requested
// stratified partitioning before any training time is spent.
package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/clinstat/readmit/eval"
	"github.com/clinstat/readmit/pkg/log"
	"github.com/clinstat/readmit/split"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var loglevel string

	root := &cobra.Command{
		Use:   "readmit-eval",
		Short: "Nested cross-validation evaluation protocol for readmission classifiers",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetupLogger(loglevel)
		},
	}
	root.PersistentFlags().StringVar(&loglevel, "log-level", "info", "log level (debug|info|warn|error)")

	root.AddCommand(newPlanCmd())
	root.AddCommand(newCheckCmd())
	return root
}

func newPlanCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Validate a run configuration and enumerate its hyperparameter grid",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			candidates := cfg.Grid.Enumerate()
			fmt.Fprintf(cmd.OutOrStdout(), "outer folds: %d\ninner folds: %d\nseed: %d\ncandidates: %d\ntrainings per run: %d\n",
				cfg.OuterFolds, cfg.InnerFolds, cfg.Seed, len(candidates),
				cfg.OuterFolds*(len(candidates)*cfg.InnerFolds+cfg.InnerFolds+1))
			for _, cand := range candidates {
				line, err := json.Marshal(cand)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(line))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "run configuration JSON file")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func newCheckCmd() *cobra.Command {
	var (
		labelsPath string
		outer      int
		inner      int
		seed       uint64
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check that a label file supports the requested stratified partitioning",
		RunE: func(cmd *cobra.Command, args []string) error {
			labels, err := loadLabels(labelsPath)
			if err != nil {
				return err
			}

			folds, err := split.Partition(labels, outer, seed)
			if err != nil {
				return err
			}

			parent := posRatio(labels)
			fmt.Fprintf(cmd.OutOrStdout(), "cases: %d\npositive ratio: %.4f\n", len(labels), parent)
			for i, fold := range folds {
				validLabels := make([]float64, len(fold.Valid))
				for j, idx := range fold.Valid {
					validLabels[j] = labels[idx]
				}
				fmt.Fprintf(cmd.OutOrStdout(), "fold %d: train=%d valid=%d valid positive ratio=%.4f\n",
					i, len(fold.Train), len(fold.Valid), posRatio(validLabels))

				// The inner loop partitions each outer-training portion again.
				trainLabels := make([]float64, len(fold.Train))
				for j, idx := range fold.Train {
					trainLabels[j] = labels[idx]
				}
				if _, err := split.Partition(trainLabels, inner, seed); err != nil {
					return fmt.Errorf("outer fold %d cannot support %d inner folds: %w", i, inner, err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "partition plan is feasible")
			return nil
		},
	}
	cmd.Flags().StringVarP(&labelsPath, "labels", "l", "", "CSV file with one 0/1 label per row (first column)")
	cmd.Flags().IntVar(&outer, "outer", 5, "outer fold count")
	cmd.Flags().IntVar(&inner, "inner", 5, "inner fold count")
	cmd.Flags().Uint64Var(&seed, "seed", 42, "partition seed")
	_ = cmd.MarkFlagRequired("labels")
	return cmd
}

func loadConfig(path string) (eval.RunConfig, error) {
	cfg := eval.DefaultRunConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func loadLabels(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}

	labels := make([]float64, 0, len(rows))
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		v, err := strconv.ParseFloat(row[0], 64)
		if err != nil {
			if i == 0 {
				// header row
				continue
			}
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		labels = append(labels, v)
	}
	return labels, nil
}

func posRatio(labels []float64) float64 {
	if len(labels) == 0 {
		return 0
	}
	pos := 0
	for _, label := range labels {
		if label == 1 {
			pos++
		}
	}
	return float64(pos) / float64(len(labels))
}
