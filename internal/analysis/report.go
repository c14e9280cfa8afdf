package analysis

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/relabs-tech/fall_detector/internal/fuzzy"
)

// WriteReport writes a plain-text analysis report: the per-label feature
// distributions and the memberships suggested from them.
func WriteReport(path string, nWindows int, summaries Summaries, p *fuzzy.Params) error {
	var b strings.Builder
	b.WriteString("# Fall analysis report\n")
	fmt.Fprintf(&b, "Windows: %d\n\n", nWindows)

	names := make([]string, 0, len(summaries))
	for name := range summaries {
		names = append(names, name)
	}
	sort.Strings(names)

	b.WriteString("## Percentiles per label\n")
	for _, name := range names {
		s := summaries[name]
		fmt.Fprintf(&b, "- %-10s ADL : %s\n", name, statsLine(s.ADL))
		fmt.Fprintf(&b, "  %-10s FALL: %s\n", "", statsLine(s.FALL))
		fmt.Fprintf(&b, "  %-10s thr = %.3f\n", "", s.Threshold)
	}

	b.WriteString("\n## Suggested memberships\n")
	writeVariable(&b, "accel", p.Accel)
	writeVariable(&b, "gyro", p.Gyro)

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func statsLine(st FeatureStats) string {
	return fmt.Sprintf("min=%.3f p10=%.3f p25=%.3f p50=%.3f p75=%.3f p90=%.3f p95=%.3f max=%.3f",
		st.Min, st.P10, st.P25, st.P50, st.P75, st.P90, st.P95, st.Max)
}

func writeVariable(b *strings.Builder, name string, v fuzzy.VariableParams) {
	fmt.Fprintf(b, "- %s [%g..%g]\n", name, v.Universe[0], v.Universe[1])
	terms := make([]string, 0, len(v.Terms))
	for t := range v.Terms {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	for _, t := range terms {
		pts := v.Terms[t]
		parts := make([]string, len(pts))
		for i, p := range pts {
			parts[i] = fmt.Sprintf("%.4f", p)
		}
		fmt.Fprintf(b, "    %-6s: [%s]\n", t, strings.Join(parts, ", "))
	}
}
