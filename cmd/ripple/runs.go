package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/ripple/internal/export"
	"github.com/san-kum/ripple/internal/storage"
	"github.com/san-kum/ripple/internal/viz"
)

var (
	dataDir    string
	plotMetric string
	plotSVG    string
)

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println(viz.Subtle.Render("no runs found"))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tGRID\tFRAMES\tELAPSED\tENERGY\tSTABILITY\tWHEN")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%dx%d\t%d\t%s\t%.4g\t%.2f\t%s\n",
			r.ID, r.Width, r.Height, r.Frames, r.Elapsed.Round(time.Millisecond),
			r.Metrics["energy"], r.Metrics["stability"], r.Timestamp.Format(time.DateTime))
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	series, err := st.LoadSeries(args[0])
	if err != nil {
		return err
	}
	values, ok := series.Values[plotMetric]
	if !ok {
		return fmt.Errorf("run %s has no %q series (available: %v)", args[0], plotMetric, series.Names())
	}

	fmt.Println(viz.Plot(values, fmt.Sprintf("%s (%s)", plotMetric, args[0]), 72, 12))
	if plotSVG != "" {
		svg := export.SeriesToSVG(series.Frames, values, 640, 240, "#00ccff")
		if err := os.WriteFile(plotSVG, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Println(viz.Metric("svg", plotSVG))
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	return storage.New(dataDir).ExportJSON(os.Stdout, args[0])
}
