// Package report renders a post-stream summary of recorded spark results:
// an HTML energy chart (go-echarts) and a CSV dump, the analysis-tooling
// sibling spec §1 names as out of scope for the core itself.
package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/ncruces/go-strftime"

	"github.com/chr-visesky/skillbarcap/internal/spark"
)

// Sample is one recorded tick.
type Sample struct {
	Tick   int
	Result spark.SparkResult
}

// Recorder accumulates Samples across a stream. Not safe for concurrent
// use; feed it from the same goroutine driving Detector.ProcessFrame.
type Recorder struct {
	samples []Sample
	tick    int
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder { return &Recorder{} }

// Record appends one tick's result. A nil res (the detector's warm-up
// ticks) appends nothing, but the tick counter still advances across
// skipped nils so Tick values line up with the caller's own frame index.
func (r *Recorder) Record(res *spark.SparkResult) {
	r.tick++
	if res == nil {
		return
	}
	r.samples = append(r.samples, Sample{Tick: r.tick, Result: *res})
}

// Samples returns the recorded samples in tick order.
func (r *Recorder) Samples() []Sample { return r.samples }

// RenderHTML writes an HTML line chart of Energy, NonSparkEnergy and
// Progress across the recorded stream to w.
func (r *Recorder) RenderHTML(w io.Writer, title string) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Theme: "dark", Width: "960px", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("%d ticks", len(r.samples))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "tick"}),
	)

	ticks := make([]string, len(r.samples))
	energy := make([]opts.LineData, len(r.samples))
	nonSpark := make([]opts.LineData, len(r.samples))
	progress := make([]opts.LineData, len(r.samples))
	for i, s := range r.samples {
		ticks[i] = strconv.Itoa(s.Tick)
		energy[i] = opts.LineData{Value: s.Result.Energy}
		nonSpark[i] = opts.LineData{Value: s.Result.NonSparkEnergy}
		progress[i] = opts.LineData{Value: s.Result.Progress * 255}
	}

	line.SetXAxis(ticks).
		AddSeries("Energy", energy).
		AddSeries("NonSparkEnergy", nonSpark).
		AddSeries("Progress (x255)", progress)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return fmt.Errorf("report: rendering chart: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteCSV writes one row per recorded sample.
func (r *Recorder) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()
	if err := cw.Write([]string{"tick", "state", "energy", "non_spark_energy", "progress", "is_fade50", "spark_detected", "spark_index", "cycle_id"}); err != nil {
		return fmt.Errorf("report: writing CSV header: %w", err)
	}
	for _, s := range r.samples {
		row := []string{
			strconv.Itoa(s.Tick),
			s.Result.State.String(),
			strconv.FormatFloat(s.Result.Energy, 'f', 3, 64),
			strconv.FormatFloat(s.Result.NonSparkEnergy, 'f', 3, 64),
			strconv.FormatFloat(s.Result.Progress, 'f', 4, 64),
			strconv.FormatBool(s.Result.IsFade50),
			strconv.FormatBool(s.Result.SparkDetected),
			strconv.Itoa(s.Result.SparkIndex),
			s.Result.CycleID,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("report: writing CSV row: %w", err)
		}
	}
	return nil
}

// Filename formats a report filename from layout (a strftime pattern, e.g.
// config.Config.ReportFilenameLayout) and the given timestamp, the way a
// capture tool names per-session artifacts.
func Filename(dir, layout, ext string, at time.Time) string {
	name := strftime.Format(layout, at)
	return filepath.Join(dir, name+ext)
}

// SaveHTML renders the HTML report and writes it to dir using Filename.
func (r *Recorder) SaveHTML(dir, layout string, at time.Time) (string, error) {
	path := Filename(dir, layout, ".html", at)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("report: creating %q: %w", path, err)
	}
	defer f.Close()
	title := fmt.Sprintf("skillbarcap session %s", at.Format(time.RFC3339))
	if err := r.RenderHTML(f, title); err != nil {
		return "", err
	}
	return path, nil
}

// SaveCSV writes the CSV dump to dir using Filename.
func (r *Recorder) SaveCSV(dir, layout string, at time.Time) (string, error) {
	path := Filename(dir, layout, ".csv", at)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("report: creating %q: %w", path, err)
	}
	defer f.Close()
	return path, r.WriteCSV(f)
}
