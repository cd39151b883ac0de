package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/oedlab/fimdesign/internal/engine"
	"github.com/oedlab/fimdesign/internal/optim"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ccff"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899"))

	valueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ff88"))

	failStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff4444"))
)

// Summary renders one evaluation as a styled block.
func Summary(model string, ev *engine.Evaluation) string {
	rows, cols := ev.Assembly.S.Dims()
	np := ev.Assembly.F.SymmetricDim()

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("design evaluation: %s", model)))
	b.WriteString("\n")
	line := func(label string, value string) {
		b.WriteString(fmt.Sprintf("  %s %s\n", labelStyle.Render(label+":"), valueStyle.Render(value)))
	}
	line("criterion", string(ev.Criterion))
	line("score", fmt.Sprintf("%.6g", ev.Score))
	line("combinations", fmt.Sprintf("%d", len(ev.Trajectories)))
	line("S", fmt.Sprintf("%d x %d", rows, cols))
	line("F", fmt.Sprintf("%d x %d", np, np))
	return b.String()
}

// Ranking renders a scan result, best first marked, candidates in input
// order.
func Ranking(ranked []optim.Ranked, best *optim.Ranked) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("design scan"))
	b.WriteString("\n")
	for i, r := range ranked {
		marker := "  "
		if best != nil && r.Grid == best.Grid {
			marker = valueStyle.Render("* ")
		}
		if r.Err != nil {
			b.WriteString(fmt.Sprintf("%s[%d] %s %s\n", marker, i, labelStyle.Render(r.Name), failStyle.Render(fmt.Sprintf("failed: %v", r.Err))))
			continue
		}
		b.WriteString(fmt.Sprintf("%s[%d] %s score=%s\n", marker, i, labelStyle.Render(r.Name), valueStyle.Render(fmt.Sprintf("%.6g", r.Score))))
	}
	return b.String()
}
