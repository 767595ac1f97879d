package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Prabal729/disease-2/internal/pipeline"
	"github.com/Prabal729/disease-2/internal/predict"
)

var predictFlags struct {
	symptoms []string
	preset   string
	echo     bool
}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict a disease from a set of symptoms",
	Long: `Predict a disease from the selected symptoms and append the result to
the prediction log.

Usage:
  symptomdash predict --symptom fever --symptom cough
  symptomdash predict --preset "Flu-like"`,
	RunE: runPredict,
}

func init() {
	f := predictCmd.Flags()
	f.StringArrayVarP(&predictFlags.symptoms, "symptom", "s", nil, "Selected symptom (repeatable)")
	f.StringVar(&predictFlags.preset, "preset", "", "Select the symptoms matching a named preset")
	f.BoolVar(&predictFlags.echo, "echo", false, "Echo the logged record as JSON to stderr")
}

func runPredict(cmd *cobra.Command, _ []string) error {
	opts := pipeline.Options{Paths: cfg.Paths}
	if predictFlags.echo {
		opts.Echo = os.Stderr
	}
	p, err := pipeline.New(opts)
	if err != nil {
		return err
	}
	defer p.Close()

	symptoms := predictFlags.symptoms
	if predictFlags.preset != "" {
		preset, ok := predict.PresetByName(predictFlags.preset)
		if !ok {
			return fmt.Errorf("unknown preset %q", predictFlags.preset)
		}
		symptoms = append(symptoms, preset.Match(p.Bundle().Features)...)
	}
	if len(symptoms) == 0 {
		return fmt.Errorf("select at least one symptom with --symptom or --preset")
	}

	outcome, err := p.Predict(cmd.Context(), symptoms)
	if err != nil && !errors.Is(err, predict.ErrLogWrite) {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Disease:     %s\n", outcome.Disease)
	if outcome.ConfidencePercent != nil {
		fmt.Fprintf(out, "Confidence:  %.1f%%\n", *outcome.ConfidencePercent)
	} else {
		fmt.Fprintf(out, "Confidence:  n/a\n")
	}
	level, recs := predict.Recommendations(outcome.ConfidencePercent)
	fmt.Fprintf(out, "Level:       %s\n", level)
	for _, r := range recs {
		fmt.Fprintf(out, "  - %s\n", r)
	}
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
	}
	return nil
}
