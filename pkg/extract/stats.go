package extract

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/montanaflynn/stats"
)

const topValueCount = 3

// encodeStatistics summarizes every column of a table and serializes the
// result to one JSON string. The index metadata layer only takes flat
// values, so the composite summary travels string-encoded.
func encodeStatistics(header []string, rows [][]string) string {
	summary := make(map[string]map[string]any, len(header))
	for i, name := range header {
		var values []string
		for _, row := range rows {
			if i < len(row) {
				if v := strings.TrimSpace(row[i]); v != "" {
					values = append(values, v)
				}
			}
		}
		summary[name] = columnSummary(values)
	}

	b, err := json.Marshal(summary)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func columnSummary(values []string) map[string]any {
	if len(values) == 0 {
		return map[string]any{"type": "empty", "count": 0}
	}

	if nums, ok := parseNumbers(values); ok {
		min, _ := stats.Min(nums)
		max, _ := stats.Max(nums)
		mean, _ := stats.Mean(nums)
		median, _ := stats.Median(nums)
		return map[string]any{
			"type":   "numeric",
			"count":  len(nums),
			"min":    min,
			"max":    max,
			"mean":   mean,
			"median": median,
		}
	}

	if times, ok := parseTimes(values); ok {
		min, max := times[0], times[0]
		for _, t := range times[1:] {
			if t.Before(min) {
				min = t
			}
			if t.After(max) {
				max = t
			}
		}
		return map[string]any{
			"type":      "temporal",
			"count":     len(times),
			"min":       min.Format("2006-01-02"),
			"max":       max.Format("2006-01-02"),
			"span_days": int(max.Sub(min).Hours() / 24),
		}
	}

	return categoricalSummary(values)
}

func categoricalSummary(values []string) map[string]any {
	counts := make(map[string]int)
	var order []string
	for _, v := range values {
		if _, seen := counts[v]; !seen {
			order = append(order, v)
		}
		counts[v]++
	}

	// Count descending, first occurrence breaking ties, so the summary is
	// deterministic for a given table.
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	top := make([]map[string]any, 0, topValueCount)
	for _, v := range order {
		if len(top) == topValueCount {
			break
		}
		top = append(top, map[string]any{"value": v, "count": counts[v]})
	}

	return map[string]any{
		"type":          "categorical",
		"count":         len(values),
		"unique_values": len(counts),
		"top_values":    top,
	}
}

func parseNumbers(values []string) ([]float64, bool) {
	nums := make([]float64, 0, len(values))
	for _, v := range values {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, false
		}
		nums = append(nums, n)
	}
	return nums, true
}

var timeLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	time.RFC3339,
}

func parseTimes(values []string) ([]time.Time, bool) {
	times := make([]time.Time, 0, len(values))
	for _, v := range values {
		parsed := false
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				times = append(times, t)
				parsed = true
				break
			}
		}
		if !parsed {
			return nil, false
		}
	}
	return times, true
}
