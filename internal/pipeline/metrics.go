package pipeline

import (
	"sync/atomic"
)

// Metrics contains pipeline counters.
type Metrics struct {
	Received     atomic.Uint64
	Filtered     atomic.Uint64
	Decoded      atomic.Uint64
	DecodeErrors atomic.Uint64
	Reported     atomic.Uint64
	ReportErrors atomic.Uint64
}

// NewMetrics creates a new metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Snapshot copies the current counter values.
func (m *Metrics) Snapshot() Stats {
	return Stats{
		Received:     m.Received.Load(),
		Filtered:     m.Filtered.Load(),
		Decoded:      m.Decoded.Load(),
		DecodeErrors: m.DecodeErrors.Load(),
		Reported:     m.Reported.Load(),
		ReportErrors: m.ReportErrors.Load(),
	}
}

// Stats represents pipeline statistics.
type Stats struct {
	Received     uint64 `json:"received" yaml:"received"`
	Filtered     uint64 `json:"filtered" yaml:"filtered"`
	Decoded      uint64 `json:"decoded" yaml:"decoded"`
	DecodeErrors uint64 `json:"decode_errors" yaml:"decode_errors"`
	Reported     uint64 `json:"reported" yaml:"reported"`
	ReportErrors uint64 `json:"report_errors" yaml:"report_errors"`
}
