package monitor

import "time"

// ProbeStatus is the last observed state of one dependency.
type ProbeStatus struct {
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
	LatencyMS int64     `json:"latency_ms"`
	CheckedAt time.Time `json:"checked_at"`
}

// Status aggregates every registered probe.
type Status struct {
	Healthy   bool                   `json:"healthy"`
	Probes    map[string]ProbeStatus `json:"probes"`
	LastCheck time.Time              `json:"last_check"`
}
