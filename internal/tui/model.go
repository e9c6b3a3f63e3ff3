package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
)

const maxEvents = 200

// Snapshot is the dashboard state after one generation.
type Snapshot struct {
	RunID        string
	Generation   int
	Generations  int
	BestFitness  float64
	BestSteps    int
	BestState    string
	MeanFitness  float64
	Unique       int
	Stabilized   int
	TimedOut     int
	Preview      string
	Finished     bool
	LastDuration time.Duration
}

type Event struct {
	Timestamp time.Time
	Kind      string // "BEST", "DONE", "ERROR"
	Message   string
}

type (
	MsgSnapshot Snapshot
	MsgEvent    Event
	MsgShutdown struct{}
	MsgTick     time.Time
)

type Model struct {
	title     string
	startTime time.Time
	snapshot  Snapshot
	events    []Event
	prevBest  float64
	seenBest  bool

	width int
	ready bool

	progress progress.Model
}

func NewModel(title string) Model {
	return Model{
		title:     title,
		startTime: time.Now(),
		events:    make([]Event, 0, maxEvents),
		progress:  progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

func tick() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return MsgTick(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.ready = true
		m.progress.Width = max(10, min(60, msg.Width-20))
		return m, nil

	case MsgSnapshot:
		s := Snapshot(msg)
		if !m.seenBest || s.BestFitness > m.prevBest {
			m.addEvent(Event{
				Timestamp: time.Now(),
				Kind:      "BEST",
				Message:   fmt.Sprintf("generation %d best fitness %.3f (%d steps)", s.Generation, s.BestFitness, s.BestSteps),
			})
		}
		if m.seenBest {
			m.prevBest = m.snapshot.BestFitness
		} else {
			m.prevBest = s.BestFitness
		}
		m.seenBest = true
		m.snapshot = s
		if s.Finished {
			m.addEvent(Event{Timestamp: time.Now(), Kind: "DONE", Message: "evolution finished"})
		}
		return m, nil

	case MsgEvent:
		m.addEvent(Event(msg))
		return m, nil

	case MsgTick:
		return m, tick()

	case MsgShutdown:
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) addEvent(e Event) {
	m.events = append(m.events, e)
	if len(m.events) > maxEvents {
		m.events = m.events[1:]
	}
}

func (m Model) fraction() float64 {
	if m.snapshot.Generations <= 0 {
		if m.snapshot.Finished {
			return 1
		}
		return 0
	}
	return min(1, float64(m.snapshot.Generation)/float64(m.snapshot.Generations))
}

func (m Model) recentEvents(n int) []string {
	start := max(0, len(m.events)-n)
	lines := make([]string, 0, len(m.events)-start)
	for _, e := range m.events[start:] {
		style := styleEventInfo
		icon := "•"
		switch e.Kind {
		case "BEST":
			icon = "↗"
		case "DONE":
			icon = "✓"
		case "ERROR":
			icon = "✗"
			style = styleEventError
		}
		lines = append(lines, style.Render(fmt.Sprintf("[%s] %s %s", e.Timestamp.Format("15:04:05"), icon, e.Message)))
	}
	return lines
}

func (m Model) previewLines() string {
	return strings.TrimRight(m.snapshot.Preview, "\n")
}
