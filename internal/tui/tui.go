// Package tui renders live snapshots in the terminal.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mlrig/hwmon/internal/domain"
)

// Stats is the slice of the sampler the view needs.
type Stats interface {
	Latest() (domain.Snapshot, bool)
	ResetTotals()
}

// Model polls the sampler for the latest snapshot and renders it as a
// card grid. 'r' resets the running network totals, 'q' quits.
type Model struct {
	stats      Stats
	latest     domain.Snapshot
	have       bool
	resetFlash time.Time
	width      int
	height     int
}

func New(stats Stats) *Model {
	return &Model{stats: stats, width: 120, height: 40}
}

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second/4, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m *Model) Init() tea.Cmd { return tickCmd() }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			m.stats.ResetTotals()
			m.resetFlash = time.Now()
		}
	case tickMsg:
		if snap, ok := m.stats.Latest(); ok {
			m.latest = snap
			m.have = true
		}
		return m, tickCmd()
	}
	return m, nil
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("45"))
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true)
	naStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
	gaugeFill   = "█"
	gaugeEmpty  = "░"
	cardStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("60")).
			Padding(0, 1).
			MarginRight(1)
)

func (m *Model) View() string {
	if !m.have {
		return subtleStyle.Render("waiting for first sample...")
	}
	s := m.latest

	header := titleStyle.Render("Hardware Monitor") + "  " +
		subtleStyle.Render(s.Timestamp.Format("Mon Jan 2 15:04:05 2006"))
	if time.Since(m.resetFlash) < 2*time.Second {
		header += "  " + labelStyle.Render("totals reset")
	}

	cards := []string{
		m.cpuCard(s.CPU),
		m.memCard(s.Memory),
	}
	cards = append(cards, m.diskCards(s.Disk)...)
	if netCard := m.netCard(s.Network); netCard != "" {
		cards = append(cards, netCard)
	}
	cards = append(cards, m.gpuCards(s.GPU)...)

	body := wrapCards(cards, m.width)
	footer := subtleStyle.Render("q quit · r reset totals")

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m *Model) cpuCard(cpu *domain.CPUStats) string {
	if cpu == nil {
		return card("CPU", naStyle.Render("unavailable"))
	}
	body := gaugeBar(cpu.Overall, 28)
	if cpu.FrequencyMHz != nil {
		body += fmt.Sprintf("\n%d cores @ %.0f MHz", cpu.LogicalCores, *cpu.FrequencyMHz)
	} else {
		body += fmt.Sprintf("\n%d cores", cpu.LogicalCores)
	}
	return card("CPU", body)
}

func (m *Model) memCard(mem *domain.MemoryStats) string {
	if mem == nil {
		return card("Memory", naStyle.Render("unavailable"))
	}
	body := fmt.Sprintf("%s\n%.1f/%.1f GiB | swap %3.0f%%",
		gaugeBar(mem.UsedPercent, 28),
		gib(mem.UsedBytes), gib(mem.TotalBytes), mem.SwapPercent)
	return card("Memory", body)
}

func (m *Model) diskCards(disks []domain.PartitionStat) []string {
	if disks == nil {
		return []string{card("Disk", naStyle.Render("unavailable"))}
	}
	cards := make([]string, 0, len(disks))
	for _, d := range disks {
		body := fmt.Sprintf("%s\n%.1f/%.1f GiB  R %s/s  W %s/s",
			gaugeBar(d.UsedPercent, 24),
			gib(d.UsedBytes), gib(d.TotalBytes),
			rate(d.ReadBytesSec), rate(d.WriteBytesSec))
		cards = append(cards, card("Disk "+d.Mountpoint, body))
	}
	return cards
}

func (m *Model) netCard(ifaces []domain.InterfaceStat) string {
	if ifaces == nil {
		return card("Network", naStyle.Render("unavailable"))
	}
	lines := make([]string, 0, len(ifaces))
	for _, n := range ifaces {
		state := "down"
		if n.Up {
			state = "up"
		}
		lines = append(lines, fmt.Sprintf("%-8s %-4s tx %8s/s rx %8s/s  Σtx %s Σrx %s",
			truncate(n.Name, 8), state,
			rate(n.SendBytesSec), rate(n.RecvBytesSec),
			sizeOf(n.BytesSent), sizeOf(n.BytesRecv)))
	}
	if len(lines) == 0 {
		return ""
	}
	return card("Network", strings.Join(lines, "\n"))
}

func (m *Model) gpuCards(gpus []domain.GPUStat) []string {
	if gpus == nil {
		return nil
	}
	cards := make([]string, 0, len(gpus))
	for _, g := range gpus {
		body := gaugeBar(g.Utilization, 24)
		body += fmt.Sprintf("\nmem %.1f/%.1f GiB",
			gib(g.MemUsedBytes), gib(g.MemTotalBytes))
		if g.TemperatureC != nil {
			body += fmt.Sprintf("  %2.0f°C", *g.TemperatureC)
		}
		if g.PowerWatts != nil {
			body += fmt.Sprintf("  %.0fW", *g.PowerWatts)
		}
		cards = append(cards, card(fmt.Sprintf("GPU %d %s", g.Index, truncate(g.Name, 14)), body))
	}
	return cards
}

func card(title, body string) string {
	return cardStyle.Render(labelStyle.Render(title) + "\n" + body)
}

// wrapCards lays out cards in rows that fit the terminal width.
func wrapCards(cards []string, width int) string {
	var rows []string
	var row []string
	rowWidth := 0
	for _, c := range cards {
		w := lipgloss.Width(c)
		if rowWidth+w > width && len(row) > 0 {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row, rowWidth = nil, 0
		}
		row = append(row, c)
		rowWidth += w
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func gaugeBar(pct float64, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int((pct / 100) * float64(width))
	if filled > width {
		filled = width
	}
	return fmt.Sprintf("[%s%s] %5.1f%%",
		strings.Repeat(gaugeFill, filled),
		strings.Repeat(gaugeEmpty, width-filled),
		pct)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func gib(b uint64) float64 { return float64(b) / (1024 * 1024 * 1024) }

func rate(bytesSec float64) string {
	switch {
	case bytesSec >= 1024*1024:
		return fmt.Sprintf("%.1fM", bytesSec/(1024*1024))
	case bytesSec >= 1024:
		return fmt.Sprintf("%.1fK", bytesSec/1024)
	default:
		return fmt.Sprintf("%.0fB", bytesSec)
	}
}

func sizeOf(b uint64) string {
	switch {
	case b >= 1024*1024*1024:
		return fmt.Sprintf("%.1fG", float64(b)/(1024*1024*1024))
	case b >= 1024*1024:
		return fmt.Sprintf("%.1fM", float64(b)/(1024*1024))
	case b >= 1024:
		return fmt.Sprintf("%.1fK", float64(b)/1024)
	default:
		return fmt.Sprintf("%dB", b)
	}
}

// Run starts the terminal view and blocks until the user quits or the
// context is cancelled.
func Run(ctx context.Context, stats Stats) error {
	prog := tea.NewProgram(New(stats), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := prog.Run()
	return err
}
