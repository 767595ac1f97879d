package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Prabal729/disease-2/internal/dataset"
	"github.com/Prabal729/disease-2/internal/display"
	"github.com/Prabal729/disease-2/internal/pipeline"
)

var inspectFlags struct {
	rows   int
	recent int
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show resolved artifacts, a dataset sample and recent predictions",
	RunE:  runInspect,
}

func init() {
	f := inspectCmd.Flags()
	f.IntVar(&inspectFlags.rows, "rows", 10, "Dataset rows to show")
	f.IntVar(&inspectFlags.recent, "recent", 5, "Recent predictions to show")
}

func runInspect(cmd *cobra.Command, _ []string) error {
	p, err := pipeline.New(pipeline.Options{Paths: cfg.Paths})
	if err != nil {
		return err
	}
	defer p.Close()

	out := cmd.OutOrStdout()
	b := p.Bundle()
	fmt.Fprintln(out, b.Describe())
	fmt.Fprintln(out)

	ds := p.Dataset()
	if ds.Empty() {
		fmt.Fprintln(out, "No dataset available")
	} else {
		title := fmt.Sprintf("Dataset sample (%d of %d records)", min(inspectFlags.rows, ds.XAll.NumRows()), ds.XAll.NumRows())
		if _, err := display.Display(out, ds.XAll, title, inspectFlags.rows); err != nil {
			return err
		}
		if s := dataset.Summarize(ds.XAll, ds.YAll(), dataset.DecodeLabels(ds.YAll(), b.Labels), len(b.Features)); s.TotalRecords > 0 {
			fmt.Fprintf(out, "\nMost common disease: %s\nMost common symptom: %s\n", s.MostCommonDisease, s.MostCommonSymptom)
		}
	}

	recent, err := p.Recent(inspectFlags.recent)
	if err != nil {
		return fmt.Errorf("read prediction log: %w", err)
	}
	fmt.Fprintf(out, "\nRecent predictions (%d)\n", len(recent))
	for _, r := range recent {
		conf := "n/a"
		if r.ConfidencePercent != nil {
			conf = fmt.Sprintf("%.1f%%", *r.ConfidencePercent)
		}
		fmt.Fprintf(out, "  %s  %-20s %6s  %d symptoms\n", r.Timestamp.Format("2006-01-02 15:04:05"), r.PredictedDisease, conf, r.NumSymptoms)
	}
	return nil
}
