// Metric set for G-code generation
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package metrics

import (
	"time"
)

// WriterMetrics holds the metrics recorded while rendering jobs.
type WriterMetrics struct {
	// Emitter operations
	Operations    *Counter
	Suppressed    *Counter
	BytesEmitted  *Counter
	FragmentBytes *Histogram

	// Job runs
	JobLines      *Counter
	JobErrors     *Counter
	Renders       *Counter
	RenderSeconds *Histogram
	FilamentUsed  *Gauge

	registry *Registry
}

// NewWriterMetrics creates and registers the metric set on its own registry.
func NewWriterMetrics() *WriterMetrics {
	wm := &WriterMetrics{
		Operations: NewCounter("gcodewriter_operations_total",
			"Emitter operations invoked, by operation"),
		Suppressed: NewCounter("gcodewriter_operations_suppressed_total",
			"Emitter operations that produced no text, by operation"),
		BytesEmitted: NewCounter("gcodewriter_bytes_emitted_total",
			"Bytes of G-code produced, by operation"),
		FragmentBytes: NewHistogram("gcodewriter_fragment_bytes",
			"Size of non-empty emitted fragments", ExponentialBuckets(8, 2, 8)),
		JobLines: NewCounter("gcodewriter_job_lines_total",
			"Job script lines processed"),
		JobErrors: NewCounter("gcodewriter_job_errors_total",
			"Job runs that failed, by error code"),
		Renders: NewCounter("gcodewriter_renders_total",
			"Render passes, by result"),
		RenderSeconds: NewHistogram("gcodewriter_render_seconds",
			"Wall time of a render pass", ExponentialBuckets(0.001, 4, 8)),
		FilamentUsed: NewGauge("gcodewriter_filament_used_mm",
			"Filament consumed by the last render, by tool"),
		registry: NewRegistry(),
	}
	for _, m := range []Metric{
		wm.Operations, wm.Suppressed, wm.BytesEmitted, wm.FragmentBytes,
		wm.JobLines, wm.JobErrors, wm.Renders, wm.RenderSeconds, wm.FilamentUsed,
	} {
		wm.registry.MustRegister(m)
	}
	return wm
}

// RecordFragment records one emitter call and the text it returned.
func (wm *WriterMetrics) RecordFragment(op string, text string) {
	l := Labels{"op": op}
	wm.Operations.Inc(l)
	if text == "" {
		wm.Suppressed.Inc(l)
		return
	}
	wm.BytesEmitted.Add(l, uint64(len(text)))
	wm.FragmentBytes.Observe(nil, float64(len(text)))
}

// RecordRender records the outcome of one render pass. code is empty on
// success.
func (wm *WriterMetrics) RecordRender(elapsed time.Duration, code string) {
	wm.RenderSeconds.Observe(nil, elapsed.Seconds())
	if code == "" {
		wm.Renders.Inc(Labels{"result": "ok"})
		return
	}
	wm.Renders.Inc(Labels{"result": "error"})
	wm.JobErrors.Inc(Labels{"code": code})
}

// SetFilamentUsed records the filament consumed by a tool.
func (wm *WriterMetrics) SetFilamentUsed(tool string, mm float64) {
	wm.FilamentUsed.Set(Labels{"tool": tool}, mm)
}

// Gather returns all metrics in Prometheus text format
func (wm *WriterMetrics) Gather() string {
	return wm.registry.Gather()
}

// Registry returns the internal registry
func (wm *WriterMetrics) Registry() *Registry {
	return wm.registry
}
