// Package metrics exports decode counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"firestige.xyz/framepeek/internal/pipeline"
	"firestige.xyz/framepeek/pkg/plugin"
)

// Frame stages reported under the "stage" label.
const (
	StageReceived    = "received"
	StageFiltered    = "filtered"
	StageDecoded     = "decoded"
	StageDecodeError = "decode_error"
	StageReported    = "reported"
	StageReportError = "report_error"
)

// PipelineCollector reads pipeline and capturer counters at scrape time.
type PipelineCollector struct {
	pipeline func() pipeline.Stats
	capture  func() plugin.CaptureStats

	framesDesc  *prometheus.Desc
	skippedDesc *prometheus.Desc
}

// NewPipelineCollector creates a collector. capture may be nil.
func NewPipelineCollector(stats func() pipeline.Stats, capture func() plugin.CaptureStats) *PipelineCollector {
	return &PipelineCollector{
		pipeline: stats,
		capture:  capture,
		framesDesc: prometheus.NewDesc(
			"framepeek_frames_total",
			"Total number of frames per pipeline stage",
			[]string{"stage"}, nil,
		),
		skippedDesc: prometheus.NewDesc(
			"framepeek_capture_skipped_total",
			"Total number of captured frames skipped for an unsupported link type",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *PipelineCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.framesDesc
	ch <- c.skippedDesc
}

// Collect implements prometheus.Collector.
func (c *PipelineCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.pipeline()
	stages := []struct {
		stage string
		value uint64
	}{
		{StageReceived, s.Received},
		{StageFiltered, s.Filtered},
		{StageDecoded, s.Decoded},
		{StageDecodeError, s.DecodeErrors},
		{StageReported, s.Reported},
		{StageReportError, s.ReportErrors},
	}
	for _, st := range stages {
		ch <- prometheus.MustNewConstMetric(c.framesDesc, prometheus.CounterValue, float64(st.value), st.stage)
	}

	if c.capture != nil {
		ch <- prometheus.MustNewConstMetric(c.skippedDesc, prometheus.CounterValue, float64(c.capture().PacketsSkipped))
	}
}
