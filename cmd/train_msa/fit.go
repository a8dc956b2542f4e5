package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/neurlang/msahmm/config"
	"github.com/neurlang/msahmm/datasets"
	"github.com/neurlang/msahmm/history"
	"github.com/neurlang/msahmm/trainer"
)

func newFitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit a model to the sequences of a FASTA file",
		Long: `Fits the alignment model, optionally preceded by the substitution model, to
every sequence of the FASTA file. Settings come from the run file given by
--config; flags that are set explicitly take precedence.`,
		Args: cobra.NoArgs,
		RunE: runFit,
	}
	f := cmd.Flags()
	f.String("fasta", "", "FASTA file with the sequences to train on")
	f.String("config", "", "YAML run file")
	f.Int("model-length", 0, "number of match states")
	f.Int("batch-size", 256, "sequences per optimizer step")
	f.Float32("lr", 0.1, "learning rate")
	f.Int("epochs", 4, "number of epochs")
	f.Bool("no-substitution", false, "disable the substitution transform")
	f.Bool("no-prior", false, "disable the emission prior")
	f.Bool("verbose", true, "log training progress")
	f.Int64("seed", 0, "shuffle seed, 0 seeds from the clock")
	f.Int("replicas", 0, "force the data-parallel strategy over this many replicas")
	f.String("metrics-addr", "", "serve prometheus metrics on this address")
	f.Bool("evaluate", false, "print the log-likelihood of every sequence after training")
	_ = cmd.MarkFlagRequired("fasta")
	return cmd
}

// runConfig merges the run file with the explicitly set flags
func runConfig(cmd *cobra.Command) (*config.File, trainer.Config, error) {
	f := cmd.Flags()
	file := &config.File{}
	if path, _ := f.GetString("config"); path != "" {
		var err error
		if file, err = config.Load(path); err != nil {
			return nil, trainer.Config{}, err
		}
	}
	if f.Changed("model-length") {
		file.ModelLength, _ = f.GetInt("model-length")
	}
	if f.Changed("batch-size") {
		file.BatchSize, _ = f.GetInt("batch-size")
	}
	if f.Changed("epochs") {
		file.Epochs, _ = f.GetInt("epochs")
	}
	if f.Changed("seed") {
		file.Seed, _ = f.GetInt64("seed")
	}
	if f.Changed("replicas") {
		file.Replicas, _ = f.GetInt("replicas")
	}
	if f.Changed("metrics-addr") {
		file.MetricsAddr, _ = f.GetString("metrics-addr")
	}
	if f.Changed("no-substitution") {
		v, _ := f.GetBool("no-substitution")
		v = !v
		file.UseSubstitution = &v
	}
	if f.Changed("no-prior") {
		v, _ := f.GetBool("no-prior")
		v = !v
		file.UsePrior = &v
	}
	if f.Changed("verbose") {
		v, _ := f.GetBool("verbose")
		file.Verbose = &v
	}
	if f.Changed("history") || file.History.Kind == "" {
		file.History.Kind, _ = f.GetString("history")
	}
	if f.Changed("history-dsn") {
		file.History.DSN, _ = f.GetString("history-dsn")
	}
	cfg, err := file.Trainer()
	if err != nil {
		return nil, cfg, err
	}
	// an explicit --lr 0 reaches validation instead of meaning the default
	if f.Changed("lr") {
		cfg.LearningRate, _ = f.GetFloat32("lr")
	}
	return file, cfg, nil
}

func readFasta(path string) (*datasets.MemoryStore, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fd.Close()
	return datasets.ReadFasta(fd)
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintln(os.Stderr, "metrics:", err)
		}
	}()
	return srv
}

func runFit(cmd *cobra.Command, _ []string) error {
	file, cfg, err := runConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Logger = newLogger(cmd)
	cfg.Debug, _ = cmd.Flags().GetBool("debug")

	path, _ := cmd.Flags().GetString("fasta")
	seqs, err := readFasta(path)
	if err != nil {
		return err
	}

	if file.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		cfg.Metrics = trainer.MustNewMetrics(reg)
		srv := serveMetrics(file.MetricsAddr, reg)
		defer srv.Close()
	}

	store, err := history.NewStore(file.History.Kind, file.History.DSN)
	if err != nil {
		return err
	}
	defer history.CloseIfSupported(store)

	model, hist, err := trainer.Fit(seqs, nil, cfg)
	if err != nil {
		return err
	}
	if err := store.Save(context.Background(), hist); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s: %d sequences, %d steps, final loss %.4f\n",
		hist.RunID, seqs.Count(), hist.Steps(), hist.Final())

	if evaluate, _ := cmd.Flags().GetBool("evaluate"); evaluate {
		ll, err := trainer.Evaluate(model, seqs, nil, cfg.BatchSize)
		if err != nil {
			return err
		}
		for i, v := range ll {
			fmt.Fprintf(out, "%s\t%.4f\n", seqs.ID(i), v)
		}
	}
	return nil
}
