package perfmon

import (
	"fmt"
	"math"
)

// Web vital names accepted from the browser widget.
const (
	VitalLCP  = "LCP"
	VitalFCP  = "FCP"
	VitalCLS  = "CLS"
	VitalINP  = "INP"
	VitalTTFB = "TTFB"
	VitalFID  = "FID"
)

var knownVitals = map[string]struct{}{
	VitalLCP: {}, VitalFCP: {}, VitalCLS: {}, VitalINP: {}, VitalTTFB: {}, VitalFID: {},
}

const (
	maxVitalPathLen = 2048
	maxVitalMillis  = 120000
)

// Vital is one measurement posted by the widget.
type Vital struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Rating string  `json:"rating"`
	Path   string  `json:"path"`
}

// Validate checks the name and value range.
func (v Vital) Validate() error {
	if _, ok := knownVitals[v.Name]; !ok {
		return fmt.Errorf("unknown vital %q", v.Name)
	}
	if math.IsNaN(v.Value) || math.IsInf(v.Value, 0) || v.Value < 0 {
		return fmt.Errorf("vital %s: value out of range", v.Name)
	}
	if v.Name != VitalCLS && v.Value > maxVitalMillis {
		return fmt.Errorf("vital %s: value exceeds %d ms", v.Name, maxVitalMillis)
	}
	if len(v.Path) > maxVitalPathLen {
		return fmt.Errorf("path exceeds maximum length of %d", maxVitalPathLen)
	}
	return nil
}

func normalizeRating(r string) string {
	switch r {
	case "good", "needs-improvement", "poor":
		return r
	default:
		return "unknown"
	}
}
