package history

import (
	"fmt"
	"math"
	"time"
)

// BuildTrendReport turns a run sequence (oldest first) into per-run deltas
// plus a moving average of missing names over the window.
func BuildTrendReport(runs []Run, window time.Duration) (TrendReport, error) {
	if len(runs) == 0 {
		return TrendReport{}, fmt.Errorf("no runs available")
	}

	points := make([]TrendPoint, 0, len(runs))
	for i, current := range runs {
		point := TrendPoint{
			StartedAt:        current.StartedAt,
			CommitHash:       current.CommitHash,
			FileCount:        current.FileCount,
			MissingCount:     current.MissingCount,
			LocalImportCount: current.LocalImportCount,
			SyntaxErrorCount: current.SyntaxErrorCount,
		}

		if i > 0 {
			prev := runs[i-1]
			point.DeltaFiles = current.FileCount - prev.FileCount
			point.DeltaMissing = current.MissingCount - prev.MissingCount
			point.DeltaLocalImports = current.LocalImportCount - prev.LocalImportCount
		}

		point.AvgMissing = round2(movingAverage(runs, i, window))
		point.WindowHours = round2(window.Hours())
		points = append(points, point)
	}

	return TrendReport{
		SchemaVersion: SchemaVersion,
		Since:         runs[0].StartedAt,
		Until:         runs[len(runs)-1].StartedAt,
		Window:        window.String(),
		RunCount:      len(points),
		Points:        points,
	}, nil
}

func movingAverage(runs []Run, index int, window time.Duration) float64 {
	if window <= 0 {
		return float64(runs[index].MissingCount)
	}

	cutoff := runs[index].StartedAt.Add(-window)
	total := 0
	count := 0
	for i := index; i >= 0; i-- {
		if runs[i].StartedAt.Before(cutoff) {
			break
		}
		total += runs[i].MissingCount
		count++
	}
	if count == 0 {
		return 0
	}
	return float64(total) / float64(count)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
