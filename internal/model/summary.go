package model

import (
	"sort"
	"time"
)

// ProtocolStats counts candidates and working proxies for one protocol.
type ProtocolStats struct {
	Total   int `json:"total"`
	Working int `json:"working"`
}

// ReasonCount is the number of failed outcomes sharing a reason.
type ReasonCount struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

// Summary aggregates a set of probe outcomes.
type Summary struct {
	// Total is the number of outcomes.
	Total int `json:"total"`

	// Working is the number of outcomes with an empty Error.
	Working int `json:"working"`

	// Failed is Total minus Working.
	Failed int `json:"failed"`

	// SuccessRatePct is Working/Total as a percentage. 0 when Total is 0.
	SuccessRatePct float64 `json:"success_rate_pct"`

	// AvgLatency, MinLatency and MaxLatency cover working proxies only.
	AvgLatency time.Duration `json:"avg_latency"`
	MinLatency time.Duration `json:"min_latency"`
	MaxLatency time.Duration `json:"max_latency"`

	// ByProtocol holds per-protocol totals keyed by protocol name.
	ByProtocol map[Protocol]ProtocolStats `json:"by_protocol"`

	// Reasons lists failure reasons ordered by descending count, then by reason.
	Reasons []ReasonCount `json:"reasons,omitempty"`

	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration `json:"elapsed"`
}

// Summarize computes a Summary over outcomes.
func Summarize(outcomes []ProbeOutcome, elapsed time.Duration) Summary {
	s := Summary{
		Total:      len(outcomes),
		ByProtocol: make(map[Protocol]ProtocolStats),
		Elapsed:    elapsed,
	}

	reasons := make(map[string]int)
	var latencySum time.Duration

	for _, o := range outcomes {
		ps := s.ByProtocol[o.Candidate.Protocol]
		ps.Total++

		if !o.OK() {
			reasons[o.Error]++
			s.ByProtocol[o.Candidate.Protocol] = ps
			continue
		}

		ps.Working++
		s.ByProtocol[o.Candidate.Protocol] = ps
		s.Working++

		latencySum += o.Latency
		if s.MinLatency == 0 || o.Latency < s.MinLatency {
			s.MinLatency = o.Latency
		}
		if o.Latency > s.MaxLatency {
			s.MaxLatency = o.Latency
		}
	}

	s.Failed = s.Total - s.Working
	if s.Total > 0 {
		s.SuccessRatePct = float64(s.Working) / float64(s.Total) * 100.0
	}
	if s.Working > 0 {
		s.AvgLatency = latencySum / time.Duration(s.Working)
	}

	for reason, count := range reasons {
		s.Reasons = append(s.Reasons, ReasonCount{Reason: reason, Count: count})
	}
	sort.Slice(s.Reasons, func(i, j int) bool {
		if s.Reasons[i].Count != s.Reasons[j].Count {
			return s.Reasons[i].Count > s.Reasons[j].Count
		}
		return s.Reasons[i].Reason < s.Reasons[j].Reason
	})

	return s
}

// Working returns the outcomes whose proxy works, preserving order.
func Working(outcomes []ProbeOutcome) []ProbeOutcome {
	result := make([]ProbeOutcome, 0, len(outcomes))
	for _, o := range outcomes {
		if o.OK() {
			result = append(result, o)
		}
	}
	return result
}
