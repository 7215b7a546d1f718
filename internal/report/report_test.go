package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/chr-visesky/skillbarcap/internal/spark"
)

func TestRecorder_RecordSkipsNilResults(t *testing.T) {
	r := NewRecorder()
	r.Record(nil)
	r.Record(&spark.SparkResult{State: spark.Fill, Progress: 0.5})
	if len(r.Samples()) != 1 {
		t.Fatalf("expected 1 recorded sample, got %d", len(r.Samples()))
	}
	if r.Samples()[0].Tick != 2 {
		t.Fatalf("expected the recorded sample to carry tick 2 (ticks still advance on skipped nils), got %d", r.Samples()[0].Tick)
	}
}

func TestRecorder_WriteCSV(t *testing.T) {
	r := NewRecorder()
	r.Record(&spark.SparkResult{State: spark.Fill, Progress: 0.25, Energy: 100, NonSparkEnergy: 90, CycleID: "abc"})
	r.Record(&spark.SparkResult{State: spark.TurnLight, Progress: 1, Energy: 120, NonSparkEnergy: 90, CycleID: "abc"})

	var buf bytes.Buffer
	if err := r.WriteCSV(&buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "tick,state,energy") {
		t.Fatalf("expected a CSV header, got %q", out)
	}
	if strings.Count(out, "\n") < 3 {
		t.Fatalf("expected a header plus 2 data rows, got %q", out)
	}
	if !strings.Contains(out, "abc") {
		t.Fatalf("expected the cycle id column to be present, got %q", out)
	}
}

func TestRecorder_RenderHTML(t *testing.T) {
	r := NewRecorder()
	r.Record(&spark.SparkResult{State: spark.Fill, Progress: 0.25, Energy: 100, NonSparkEnergy: 90})
	var buf bytes.Buffer
	if err := r.RenderHTML(&buf, "test session"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatalf("expected non-empty HTML output")
	}
}

func TestFilename_FormatsWithLayout(t *testing.T) {
	at := time.Date(2026, 7, 31, 14, 5, 0, 0, time.UTC)
	got := Filename("/tmp", "skillbarcap-%Y%m%d-%H%M%S", ".html", at)
	want := "/tmp/skillbarcap-20260731-140500.html"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
