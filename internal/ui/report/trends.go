package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"archcheck/internal/data/history"
)

func RenderTrendTSV(points []history.TrendPoint) ([]byte, error) {
	var buf strings.Builder

	buf.WriteString("Timestamp\tRun\tPassed\tFailedRules\tViolations\tDeltaFailed\tDeltaViolations\n")
	for _, point := range points {
		buf.WriteString(fmt.Sprintf(
			"%s\t%s\t%t\t%d\t%d\t%d\t%d\n",
			point.StartedAt.UTC().Format(time.RFC3339),
			point.RunID,
			point.Passed,
			point.FailedRules,
			point.Violations,
			point.DeltaFailed,
			point.DeltaViolations,
		))
	}

	return []byte(buf.String()), nil
}

type trendJSONPoint struct {
	RunID           string    `json:"run_id"`
	StartedAt       time.Time `json:"started_at"`
	Passed          bool      `json:"passed"`
	FailedRules     int       `json:"failed_rules"`
	Violations      int       `json:"violations"`
	DeltaFailed     int       `json:"delta_failed"`
	DeltaViolations int       `json:"delta_violations"`
}

func RenderTrendJSON(points []history.TrendPoint) ([]byte, error) {
	out := make([]trendJSONPoint, 0, len(points))
	for _, p := range points {
		out = append(out, trendJSONPoint{
			RunID:           p.RunID,
			StartedAt:       p.StartedAt.UTC(),
			Passed:          p.Passed,
			FailedRules:     p.FailedRules,
			Violations:      p.Violations,
			DeltaFailed:     p.DeltaFailed,
			DeltaViolations: p.DeltaViolations,
		})
	}
	return json.MarshalIndent(out, "", "  ")
}
