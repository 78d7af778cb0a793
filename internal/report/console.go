// Package report renders analysis snapshots for the terminal.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/i474232898/temperature-anomalies/internal/analysis"
	"github.com/i474232898/temperature-anomalies/internal/weather"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

const rule = 80

// Write renders snap in the given format. rows is the number of records shown
// from each end of the record table.
func Write(out io.Writer, format string, snap analysis.Snapshot, rows int) error {
	switch format {
	case FormatText:
		return NewPrinter(out, rows).Snapshot(snap)
	case FormatJSON:
		return WriteJSON(out, snap, rows)
	default:
		return fmt.Errorf("unknown output format %q (want %s or %s)", format, FormatText, FormatJSON)
	}
}

// Printer writes human readable tables.
type Printer struct {
	out  io.Writer
	rows int
}

func NewPrinter(out io.Writer, rows int) *Printer {
	return &Printer{out: out, rows: rows}
}

// Snapshot prints both engine reports, the timing line and the live comparison.
func (p *Printer) Snapshot(snap analysis.Snapshot) error {
	for _, r := range []*analysis.Report{snap.Sequential, snap.Parallel} {
		if r == nil {
			continue
		}
		if err := p.Report(r); err != nil {
			return err
		}
	}

	p.heading("TIMING")
	fmt.Fprintln(p.out, snap.Timing.String())

	if snap.Comparison != nil {
		p.heading("LIVE COMPARISON")
		p.Comparison(*snap.Comparison)
	}
	return nil
}

// Report prints the record preview, seasonal statistics and anomaly summary
// of one pipeline run.
func (p *Printer) Report(r *analysis.Report) error {
	p.heading(fmt.Sprintf("%s ENGINE", strings.ToUpper(r.Engine)))
	fmt.Fprintf(p.out, "Run ID:    %s\n", r.RunID)
	fmt.Fprintf(p.out, "Records:   %d\n", len(r.Records))
	fmt.Fprintf(p.out, "Duration:  %v\n", r.Duration)
	for _, s := range r.Stages {
		fmt.Fprintf(p.out, "  %-10s %v\n", s.Stage, s.Duration)
	}

	fmt.Fprintln(p.out, "\nRecords:")
	if err := p.records(r.Records); err != nil {
		return err
	}

	fmt.Fprintln(p.out, "\nSeasonal statistics:")
	if err := p.stats(r.Stats); err != nil {
		return err
	}

	fmt.Fprintln(p.out, "\nAnomalies:")
	if err := p.summary(r.Summary()); err != nil {
		return err
	}
	fmt.Fprintf(p.out, "Total: %d anomalous, %d normal, %d unknown\n",
		r.Counts[weather.StatusAnomalous], r.Counts[weather.StatusNormal], r.Counts[weather.StatusUnknown])

	if len(r.MissingKeys) > 0 {
		fmt.Fprintf(p.out, "\nMissing seasonal statistics (%d):\n", len(r.MissingKeys))
		for _, m := range r.MissingKeys {
			fmt.Fprintf(p.out, "  - %s (%d records)\n", m.Key, m.Records)
		}
	}
	return nil
}

// Comparison prints the live comparison verdict.
func (p *Printer) Comparison(c analysis.Comparison) {
	fmt.Fprintf(p.out, "Historic average temperature in %s (%s) is %.2f°C\n", c.City, c.Season, c.HistoricalMean)
	if c.Verdict == analysis.VerdictUnavailable {
		fmt.Fprintf(p.out, "Current temperature unavailable: %s\n", c.Error)
		return
	}
	fmt.Fprintf(p.out, "Temperature in %s is %.2f°C (%s)\n", c.City, *c.Current, c.Provider)
	switch c.Verdict {
	case analysis.VerdictAnomalous:
		fmt.Fprintf(p.out, "Anomalous difference (%.2f) is detected\n", *c.Difference)
	default:
		fmt.Fprintf(p.out, "Difference (%.2f) is normal\n", *c.Difference)
	}
}

func (p *Printer) heading(title string) {
	fmt.Fprintln(p.out, "\n"+strings.Repeat("=", rule))
	fmt.Fprintln(p.out, title)
	fmt.Fprintln(p.out, strings.Repeat("=", rule))
}

func (p *Printer) records(records []weather.Record) error {
	tw := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tCITY\tDATE\tTEMP\tSEASON\tMOVING AVG\tSEASONAL MEAN\tSTATUS")

	head, tail := Preview(len(records), p.rows)
	write := func(i int) {
		r := records[i]
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%s\t%s\t%s\t%s\n",
			i, r.City, r.Timestamp.Format(weather.DateLayout), r.Temperature, r.Season,
			formatOptional(r.MovingAverage), formatOptional(r.SeasonalMean), r.Status)
	}
	for _, i := range head {
		write(i)
	}
	if len(tail) > 0 {
		fmt.Fprintln(tw, "...\t\t\t\t\t\t\t")
		for _, i := range tail {
			write(i)
		}
	}
	return tw.Flush()
}

func (p *Printer) stats(stats []weather.SeasonalStat) error {
	tw := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "CITY\tSEASON\tCOUNT\tMEAN\tSTD\tMIN\tMAX\t")
	for _, s := range stats {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t%s\t\n",
			s.City, s.Season, s.Count, formatFloat(s.Mean), formatFloat(s.Std), formatFloat(s.Min), formatFloat(s.Max))
	}
	return tw.Flush()
}

func (p *Printer) summary(rows []analysis.AnomalySummary) error {
	tw := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "CITY\tSEASON\tANOMALOUS\tNORMAL\tUNKNOWN\t")
	for _, s := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t\n", s.City, s.Season, s.Anomalous, s.Normal, s.Unknown)
	}
	return tw.Flush()
}

// Preview returns the indices of the first and last rows of an n-row table.
// rows <= 0 selects every row.
// tail is empty when head already covers every row.
func Preview(n, rows int) (head, tail []int) {
	if rows <= 0 || n <= 2*rows {
		head = make([]int, n)
		for i := range head {
			head[i] = i
		}
		return head, nil
	}
	for i := 0; i < rows; i++ {
		head = append(head, i)
		tail = append(tail, n-rows+i)
	}
	return head, tail
}

func formatOptional(v *float64) string {
	if v == nil {
		return "NaN"
	}
	return formatFloat(*v)
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.2f", v)
}

type engineDoc struct {
	*analysis.Report
	Summary []analysis.AnomalySummary `json:"summary"`
	Head    []weather.Record          `json:"head"`
	Tail    []weather.Record          `json:"tail"`
}

type snapshotDoc struct {
	GeneratedAt string               `json:"generatedAt"`
	Records     int                  `json:"records"`
	Engines     []engineDoc          `json:"engines"`
	Timing      timingDoc            `json:"timing"`
	Comparison  *analysis.Comparison `json:"comparison"`
}

type timingDoc struct {
	SequentialSeconds float64 `json:"sequentialSeconds"`
	ParallelSeconds   float64 `json:"parallelSeconds"`
	Speedup           float64 `json:"speedup"`
	Summary           string  `json:"summary"`
}

// WriteJSON writes a machine readable rendition of snap.
func WriteJSON(out io.Writer, snap analysis.Snapshot, rows int) error {
	doc := snapshotDoc{
		GeneratedAt: snap.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"),
		Records:     snap.Records,
		Timing: timingDoc{
			SequentialSeconds: snap.Timing.Sequential.Seconds(),
			ParallelSeconds:   snap.Timing.Parallel.Seconds(),
			Speedup:           snap.Timing.Speedup,
			Summary:           snap.Timing.String(),
		},
		Comparison: snap.Comparison,
	}

	for _, r := range []*analysis.Report{snap.Sequential, snap.Parallel} {
		if r == nil {
			continue
		}
		head, tail := Preview(len(r.Records), rows)
		ed := engineDoc{Report: r, Summary: r.Summary()}
		for _, i := range head {
			ed.Head = append(ed.Head, r.Records[i])
		}
		for _, i := range tail {
			ed.Tail = append(ed.Tail, r.Records[i])
		}
		doc.Engines = append(doc.Engines, ed)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
