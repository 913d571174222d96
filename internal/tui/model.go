package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github/chapool/mtw-recovery/internal/recovery"
	"github/chapool/mtw-recovery/internal/signing"
)

const maxLogs = 8

type walletRow struct {
	address string
	state   string
	txHash  string
	err     error
}

type Model struct {
	primary     string
	signer      string
	explorerURL string
	wallets     []*walletRow
	current     int
	deeplink    string
	logs        []string
	outcome     *recovery.Outcome
	spinner     spinner.Model
	progress    progress.Model
	width       int
	quit        bool
}

type WalletsMsg struct {
	Signer  string
	Wallets []string
}

type WalletStartMsg struct {
	Wallet string
}

type TransitionMsg struct {
	Transition signing.Transition
}

type WalletDoneMsg struct {
	Wallet string
	TxHash string
	Err    error
}

// DeeplinkMsg carries a deeplink the user has to open, an empty one hides it again.
type DeeplinkMsg struct {
	Deeplink string
}

type OutcomeMsg struct {
	Outcome recovery.Outcome
}

type LogMsg struct {
	Message string
}

// NewModel returns the progress view of one recovery for primary. explorerURL is a
// format string taking a tx hash.
func NewModel(primary string, explorerURL string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return Model{
		primary:     primary,
		explorerURL: explorerURL,
		current:     -1,
		spinner:     sp,
		progress:    progress.New(progress.WithDefaultGradient()),
		width:       80,
	}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quit = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = max(msg.Width-20, 10)

	case WalletsMsg:
		m.signer = msg.Signer
		m.wallets = make([]*walletRow, 0, len(msg.Wallets))
		for _, w := range msg.Wallets {
			m.wallets = append(m.wallets, &walletRow{address: w, state: recovery.WalletPending})
		}
		m = m.log(fmt.Sprintf("Found %d wallet(s), signer %s", len(msg.Wallets), msg.Signer))

	case WalletStartMsg:
		m.current = m.index(msg.Wallet)

	case TransitionMsg:
		if row := m.row(m.current); row != nil {
			row.state = string(msg.Transition.To)
		}
		if msg.Transition.To == signing.StateBroadcasting || msg.Transition.To == signing.StateFailed {
			m.deeplink = ""
		}

	case WalletDoneMsg:
		if row := m.row(m.index(msg.Wallet)); row != nil {
			row.err = msg.Err
			row.txHash = msg.TxHash
			row.state = recovery.WalletRecovered
			if msg.Err != nil {
				row.state = recovery.WalletFailed
			}
		}
		m.deeplink = ""
		if msg.Err != nil {
			m = m.log(fmt.Sprintf("%s failed: %v", msg.Wallet, msg.Err))
		} else {
			m = m.log(fmt.Sprintf("%s recovered in %s", msg.Wallet, msg.TxHash))
		}

	case DeeplinkMsg:
		m.deeplink = msg.Deeplink

	case LogMsg:
		m = m.log(msg.Message)

	case OutcomeMsg:
		outcome := msg.Outcome
		m.outcome = &outcome
		m.deeplink = ""
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) index(wallet string) int {
	for i, row := range m.wallets {
		if row.address == wallet {
			return i
		}
	}

	return -1
}

func (m Model) row(i int) *walletRow {
	if i < 0 || i >= len(m.wallets) {
		return nil
	}

	return m.wallets[i]
}

func (m Model) log(message string) Model {
	m.logs = append(m.logs, fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), message))
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}

	return m
}

func (m Model) done() int {
	n := 0
	for _, row := range m.wallets {
		if row.state == recovery.WalletRecovered || row.state == recovery.WalletFailed {
			n++
		}
	}

	return n
}

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).MarginBottom(1)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	deeplinkStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("205")).
			Padding(0, 1)
)

func (m Model) View() string {
	if m.quit {
		return "Shutting down...\n"
	}

	var s strings.Builder

	s.WriteString(headerStyle.Render("Wallet recovery for " + m.primary))
	s.WriteString("\n")

	if m.signer == "" {
		s.WriteString(m.spinner.View() + " Discovering wallets...\n")
		return s.String()
	}

	if len(m.wallets) > 0 {
		s.WriteString(m.progress.ViewAs(float64(m.done()) / float64(len(m.wallets))))
		s.WriteString("\n\n")
	}

	for i, row := range m.wallets {
		line := fmt.Sprintf("%s %-42s %-18s", stateIcon(row.state), row.address, row.state)
		switch {
		case row.err != nil:
			line += " " + errorStyle.Render(row.err.Error())
		case row.txHash != "":
			line += " " + successStyle.Render(fmt.Sprintf(m.explorerURL, row.txHash))
		case i == m.current && m.outcome == nil:
			line += " " + m.spinner.View()
		}
		s.WriteString(line + "\n")
	}

	if m.deeplink != "" {
		s.WriteString("\n")
		s.WriteString(deeplinkStyle.Width(max(m.width-4, 20)).Render("Open this link with your wallet app:\n" + m.deeplink))
		s.WriteString("\n")
	}

	if len(m.logs) > 0 {
		s.WriteString("\n")
		s.WriteString(mutedStyle.Render(strings.Join(m.logs, "\n")))
		s.WriteString("\n")
	}

	if m.outcome != nil {
		s.WriteString("\n")
		s.WriteString(RenderOutcome(*m.outcome, m.explorerURL))
	} else {
		s.WriteString("\n" + mutedStyle.Render("Press 'q' to quit") + "\n")
	}

	return s.String()
}

func stateIcon(state string) string {
	switch state {
	case recovery.WalletPending:
		return "⏸"
	case recovery.WalletRecovered:
		return "✅"
	case recovery.WalletFailed:
		return "❌"
	default:
		return "⏳"
	}
}
