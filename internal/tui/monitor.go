// Package tui is the interactive bedside-monitor view.
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/icco/genecg/internal/audio"
	"github.com/icco/genecg/internal/conduction"
	"github.com/icco/genecg/internal/ecg"
	"github.com/icco/genecg/internal/session"
	"go.uber.org/zap"
)

const (
	stripRows      = 8
	defaultColumns = 80
	alarmPct       = 90 // ischemia above this beeps with the alarm tone
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	traceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true)

	alarmStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)

// Beeper sounds a tone. *audio.Beeper implements it.
type Beeper interface {
	Trigger(audio.Tone)
}

// tickMsg drives one frame.
type tickMsg time.Time

// IschemiaMsg replaces the coronary inputs, e.g. after a config reload.
type IschemiaMsg ecg.IschemiaInputs

// Options configures the monitor.
type Options struct {
	FPS    int
	Lead   string
	Beeper Beeper
	Logger *zap.Logger
}

// Model is the bubbletea model for the monitor.
type Model struct {
	sess    *session.Session
	beeper  Beeper
	log     *zap.Logger
	fps     int
	start   time.Time
	last    session.Tick
	lead    string
	message string
	width   int
	height  int
}

// NewModel wraps a session. Playback of the conduction pathway starts with
// the first frame.
func NewModel(sess *session.Session, opts Options) Model {
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	lead := "II"
	if strings.EqualFold(opts.Lead, "avr") {
		lead = "aVR"
		sess.SetLead(ecg.AVRLead())
	}
	return Model{
		sess:   sess,
		beeper: opts.Beeper,
		log:    opts.Logger,
		fps:    opts.FPS,
		lead:   lead,
		width:  defaultColumns,
	}
}

func tickAtFPS(fps int) tea.Cmd {
	return tea.Tick(time.Second/time.Duration(fps), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tickAtFPS(m.fps)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		return m.frame(time.Time(msg)), tickAtFPS(m.fps)

	case IschemiaMsg:
		m.sess.SetIschemia(ecg.IschemiaInputs(msg))
		m.message = "Configuration reloaded"
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) frame(now time.Time) Model {
	if m.start.IsZero() {
		m.start = now
		m.sess.Scheduler().Play(0)
	}
	t := m.sess.Step(now.Sub(m.start).Seconds())
	if t.Beat && m.beeper != nil {
		tone := audio.ToneBeat
		if t.IschemiaPct > alarmPct {
			tone = audio.ToneAlarm
		}
		m.beeper.Trigger(tone)
	}
	m.last = t
	return m
}

func (m Model) push(cmds ...ecg.Command) {
	if err := m.sess.Queue().Push(cmds...); err != nil {
		m.log.Warn("rejected key command", zap.Error(err))
	}
}

func (m Model) adjustIschemia(fn func(*ecg.IschemiaInputs)) {
	in := m.sess.Ischemia()
	fn(&in)
	in.StenosisPct = math.Max(0, math.Min(100, in.StenosisPct))
	in.ThrombusPct = math.Max(0, math.Min(100, in.ThrombusPct))
	in.METs = math.Max(1, math.Min(20, in.METs))
	m.sess.SetIschemia(in)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.sess.Params()
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "+", "=":
		if p.HeartRate < 300 {
			m.push(ecg.Command{Param: "heart_rate", Value: math.Min(300, p.HeartRate+5)})
		}
	case "-", "_":
		if p.HeartRate > 20 {
			m.push(ecg.Command{Param: "heart_rate", Value: math.Max(20, p.HeartRate-5)})
		}
	case "up", "k":
		m.adjustIschemia(func(in *ecg.IschemiaInputs) { in.StenosisPct += 5 })
	case "down", "j":
		m.adjustIschemia(func(in *ecg.IschemiaInputs) { in.StenosisPct -= 5 })
	case "right", "t":
		m.adjustIschemia(func(in *ecg.IschemiaInputs) { in.ThrombusPct += 5 })
	case "left", "T":
		m.adjustIschemia(func(in *ecg.IschemiaInputs) { in.ThrombusPct -= 5 })
	case "e":
		m.adjustIschemia(func(in *ecg.IschemiaInputs) { in.METs++ })
	case "E":
		m.adjustIschemia(func(in *ecg.IschemiaInputs) { in.METs-- })
	case "b":
		v := 1.0
		if p.PBiphasic {
			v = 0
		}
		m.push(ecg.Command{Param: "p_biphasic", Value: v})
	case " ":
		sched := m.sess.Scheduler()
		if sched.Playing() {
			sched.Stop()
			m.message = "Conduction paused"
		} else {
			sched.Play(m.last.Now * 1000)
			m.message = "Conduction playing"
		}
	case "r":
		m.sess.Scheduler().Restart(m.last.Now * 1000)
		m.message = "Conduction restarted"
	case "l":
		if m.lead == "II" {
			m.lead = "aVR"
			m.sess.SetLead(ecg.AVRLead())
		} else {
			m.lead = "II"
			m.sess.SetLead(ecg.DefaultLead())
		}
		m.message = "Lead " + m.lead
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	t := m.last
	in := m.sess.Ischemia()

	b.WriteString(titleStyle.Render("genecg monitor") + "  " + labelStyle.Render("Lead ") + valueStyle.Render(m.lead) + "\n\n")

	hr := valueStyle.Render(fmt.Sprintf("%3.0f", t.Params.HeartRate))
	pct := fmt.Sprintf("%5.1f%%", t.IschemiaPct)
	if t.IschemiaPct > alarmPct {
		pct = alarmStyle.Render(pct)
	} else {
		pct = valueStyle.Render(pct)
	}
	b.WriteString(fmt.Sprintf("%s %s  %s %s  %s %s  %s %d\n",
		labelStyle.Render("HR"), hr,
		labelStyle.Render("Ischemia"), pct,
		labelStyle.Render("ST"), valueStyle.Render(fmt.Sprintf("%+.2f mV", t.Morphology.EffST)),
		labelStyle.Render("Beats"), t.Beats,
	))
	b.WriteString(labelStyle.Render(fmt.Sprintf("Stenosis %.0f%%  Thrombus %.0f%%  METs %.0f",
		in.StenosisPct, in.ThrombusPct, in.METs)) + "\n\n")

	cols := max(10, m.width-2)
	for _, line := range plotStrip(t.Strip, cols, stripRows, -1, 1.5) {
		b.WriteString(traceStyle.Render(line) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(renderStepBar(m.sess.Scheduler().StepOrder(), t.Conduction) + "\n")
	b.WriteString(renderItems(t.Conduction) + "\n")

	if m.message != "" {
		b.WriteString(labelStyle.Render(m.message) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("+/-: heart rate • ↑↓: stenosis • ←→: thrombus • e/E: METs • b: biphasic P"))
	b.WriteString("\n" + helpStyle.Render("space: play/pause conduction • r: restart • l: lead II/aVR • q: quit"))
	return b.String()
}

// renderStepBar shows one cell per conduction step, filled up to the
// active one.
func renderStepBar(order []int, f conduction.Frame) string {
	colors := []string{"#00FFFF", "#0099FF", "#3333FF", "#9900FF", "#FF00FF"}

	bar := strings.Builder{}
	bar.WriteString(labelStyle.Render("Conduction "))
	for i, step := range order {
		var cellStyle lipgloss.Style
		color := lipgloss.Color(colors[i%len(colors)])
		cell := fmt.Sprintf(" %d ", step)

		switch {
		case f.Active && i == f.StepIndex:
			cell = " ▶ "
			cellStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(color).
				Bold(true)
		case f.Active && i < f.StepIndex:
			cellStyle = lipgloss.NewStyle().Foreground(color)
		default:
			cellStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))
		}
		bar.WriteString(cellStyle.Render(cell))
	}

	status := " Stopped"
	statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	if f.Active {
		status = fmt.Sprintf(" %3.0f%% of %.0f ms", f.Progress*100, f.Duration)
		statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")).Bold(true)
	}
	bar.WriteString(statusStyle.Render(status))
	return bar.String()
}

// renderItems lists the active step's items with an intensity meter.
func renderItems(f conduction.Frame) string {
	if !f.Active || len(f.Items) == 0 {
		return labelStyle.Render("  (no active items)")
	}
	const meter = 10
	var b strings.Builder
	for _, it := range f.Items {
		lit := int(math.Round(it.Alpha * meter))
		b.WriteString(fmt.Sprintf("  %-5s %-10s %s %-9s",
			it.Kind, it.Mode,
			traceStyle.Render(strings.Repeat("█", lit))+labelStyle.Render(strings.Repeat("·", meter-lit)),
			it.Phase,
		))
		if it.Mode == conduction.Sequential {
			b.WriteString(labelStyle.Render(fmt.Sprintf(" head (%.2f, %.2f)", it.Head.X, it.Head.Y)))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
