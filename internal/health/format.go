package health

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Format selects one of the report encodings.
type Format string

const (
	FormatHuman      Format = "human"
	FormatJSON       Format = "json"
	FormatPrometheus Format = "prometheus"
)

// ParseFormat maps a CLI format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatHuman, FormatJSON, FormatPrometheus:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown format type: %q", s)
	}
}

// FormatReport renders the report in the requested encoding. The encodings
// are exclusive; callers pick exactly one.
func FormatReport(r *Report, format Format) (string, error) {
	switch format {
	case FormatJSON:
		raw, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal report: %w", err)
		}
		return string(raw), nil
	case FormatHuman:
		return formatHuman(r), nil
	case FormatPrometheus:
		return formatPrometheus(r), nil
	default:
		return "", fmt.Errorf("unknown format type: %q", format)
	}
}

var statusGlyphs = map[Status]string{
	StatusPass:    "✅",
	StatusFail:    "❌",
	StatusWarning: "⚠️",
	StatusError:   "💥",
	StatusSkip:    "⏭️",
}

func glyph(s Status) string {
	if g, ok := statusGlyphs[s]; ok {
		return g
	}
	return "❓"
}

func formatHuman(r *Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🏥 MCPO Health Check Report\n")
	fmt.Fprintf(&b, "📅 Timestamp: %s\n", r.Timestamp.Format("2006-01-02T15:04:05Z07:00"))
	fmt.Fprintf(&b, "📊 Overall Status: %s\n\n", strings.ToUpper(string(r.OverallStatus)))

	fmt.Fprintf(&b, "📈 Summary:\n")
	fmt.Fprintf(&b, "   Total Checks: %d\n", r.Summary.Total)
	fmt.Fprintf(&b, "   ✅ Passed: %d\n", r.Summary.Passed)
	fmt.Fprintf(&b, "   ❌ Failed: %d\n", r.Summary.Failed)
	fmt.Fprintf(&b, "   ⚠️  Warnings: %d\n", r.Summary.Warnings)
	fmt.Fprintf(&b, "   ⏭️  Skipped: %d\n\n", r.Summary.Skipped)

	for _, c := range r.Checks {
		fmt.Fprintf(&b, "%s %s\n", glyph(c.Status), titleWords(c.Name))
		fmt.Fprintf(&b, "   Status: %s\n", c.Status)
		fmt.Fprintf(&b, "   Message: %s\n", c.Message)
		fmt.Fprintf(&b, "   Duration: %gs\n", c.Duration)
		if len(c.Details) > 0 {
			raw, err := json.MarshalIndent(c.Details, "   ", "    ")
			if err == nil {
				fmt.Fprintf(&b, "   Details: %s\n", raw)
			}
		}
		b.WriteByte('\n')
	}

	return strings.TrimRight(b.String(), "\n")
}

var overallValues = map[Status]float64{
	StatusPass:    1,
	StatusWarning: 0.5,
	StatusFail:    0,
}

var checkValues = map[Status]float64{
	StatusPass:    1,
	StatusWarning: 0.5,
	StatusFail:    0,
	StatusError:   0,
	StatusSkip:    -1,
}

// formatPrometheus writes the flat exposition lines: one overall gauge and a
// status plus duration gauge per check, all stamped with the run timestamp.
func formatPrometheus(r *Report) string {
	ts := r.Timestamp.UnixMilli()

	var lines []string
	lines = append(lines, fmt.Sprintf("mcpo_health_overall{} %s %d", formatValue(overallValues[r.OverallStatus]), ts))
	for _, c := range r.Checks {
		lines = append(lines, fmt.Sprintf("mcpo_health_check{check=%q} %s %d", c.Name, formatValue(checkValues[c.Status]), ts))
		lines = append(lines, fmt.Sprintf("mcpo_health_check_duration{check=%q} %s %d", c.Name, formatValue(c.Duration), ts))
	}

	return strings.Join(lines, "\n")
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func titleWords(name string) string {
	words := strings.Split(strings.ReplaceAll(name, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
