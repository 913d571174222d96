package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github/chapool/mtw-recovery/internal/recovery"
)

var outcomeStyle = lipgloss.NewStyle().
	Border(lipgloss.NormalBorder()).
	BorderForeground(lipgloss.Color("62")).
	Padding(0, 1)

// RenderOutcome renders the final result: explorer links of every broadcast tx or the error.
func RenderOutcome(outcome recovery.Outcome, explorerURL string) string {
	var s strings.Builder

	if len(outcome.TxHashes) > 0 {
		s.WriteString(successStyle.Render(fmt.Sprintf("Recovered funds from %d wallet(s)", len(outcome.TxHashes))))
		for _, hash := range outcome.TxHashes {
			s.WriteString("\n  " + fmt.Sprintf(explorerURL, hash))
		}
	}

	if outcome.Error.Valid {
		if s.Len() > 0 {
			s.WriteString("\n")
		}
		s.WriteString(errorStyle.Render(outcome.Error.String))
	}

	return outcomeStyle.Render(s.String()) + "\n"
}
