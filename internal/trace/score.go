package trace

import "fmt"

// Score turns a Result into the two malloc-lab grading numbers: a
// utilization score (0..1, the peak ratio) and a throughput score in
// operations per second. The combined score a real lab assignment reports
// is a weighted sum of the two; that weighting is a grading-policy
// decision external to this package, so Score only exposes the raw
// components plus the Trace's own declared Weight for a caller to combine.
type Score struct {
	Utilization float64
	OpsPerSec   float64
	Weight      float64
}

// ScoreOf computes a Score from a Result and the Trace it came from.
func ScoreOf(t *Trace, r Result) Score {
	var ops float64
	if r.Elapsed > 0 {
		ops = float64(r.Ops) / r.Elapsed.Seconds()
	}
	return Score{
		Utilization: r.PeakUtilization,
		OpsPerSec:   ops,
		Weight:      t.Weight,
	}
}

func (s Score) String() string {
	return fmt.Sprintf("util=%.3f ops/sec=%.0f weight=%.2f", s.Utilization, s.OpsPerSec, s.Weight)
}
