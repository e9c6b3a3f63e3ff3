package tui

import (
	"context"
	"errors"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"lifeevo/internal/evo"
	"lifeevo/internal/render"
)

var ErrDisabled = errors.New("tui disabled")

type Config struct {
	Title       string
	RunID       string
	Generations int
	// Seed window dimensions used to draw the best genome preview.
	SeedWidth  int
	SeedHeight int
}

// Dashboard drives a bubbletea program from evolution notifications.
type Dashboard struct {
	cfg Config

	mu      sync.RWMutex
	program *tea.Program
	done    chan struct{}
	final   tea.Model
}

func NewDashboard(cfg Config) *Dashboard {
	return &Dashboard{cfg: cfg}
}

// Enabled reports whether stdout can host the dashboard.
func Enabled() bool {
	return term.IsTerminal(int(os.Stdout.Fd())) && os.Getenv("TERM") != "dumb"
}

// Start runs the program in the background until ctx is cancelled or Stop
// is called. It returns ErrDisabled when stdout is not an interactive
// terminal.
func (d *Dashboard) Start(ctx context.Context) error {
	if !Enabled() {
		return ErrDisabled
	}
	d.start(ctx)
	return nil
}

func (d *Dashboard) start(ctx context.Context, opts ...tea.ProgramOption) {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(NewModel(d.cfg.Title), opts...)
	done := make(chan struct{})

	d.mu.Lock()
	d.program = p
	d.done = done
	d.mu.Unlock()

	go func() {
		defer close(done)
		final, _ := p.Run()
		d.mu.Lock()
		d.final = final
		d.mu.Unlock()
	}()
}

// Stop asks the program to quit and waits for the terminal to be restored.
func (d *Dashboard) Stop() {
	d.mu.RLock()
	p, done := d.program, d.done
	d.mu.RUnlock()
	if p == nil {
		return
	}
	p.Send(MsgShutdown{})
	<-done
}

func (d *Dashboard) send(msg tea.Msg) {
	d.mu.RLock()
	p := d.program
	d.mu.RUnlock()
	if p != nil {
		p.Send(msg)
	}
}

// Observer forwards generation records to the dashboard. It is safe to use
// before Start or when Start failed; messages are dropped then.
func (d *Dashboard) Observer() evo.Observer {
	return evo.ObserverFuncs{
		Generation: func(record evo.GenerationRecord) {
			d.send(MsgSnapshot(SnapshotFromRecord(d.cfg, record)))
		},
		Result: func(result evo.RunResult) {
			s := Snapshot{RunID: d.cfg.RunID, Generations: d.cfg.Generations, Generation: d.cfg.Generations, Finished: true}
			if n := len(result.Generations); n > 0 {
				s = SnapshotFromRecord(d.cfg, result.Generations[n-1])
				s.Finished = true
			}
			s.BestFitness = result.Best.Fitness
			s.BestSteps = result.Best.Steps
			s.BestState = result.Best.State.String()
			s.Preview = preview(d.cfg, result.Best)
			d.send(MsgSnapshot(s))
		},
	}
}

// SnapshotFromRecord converts one generation record into dashboard state.
func SnapshotFromRecord(cfg Config, record evo.GenerationRecord) Snapshot {
	diag := record.Diagnostics
	return Snapshot{
		RunID:        cfg.RunID,
		Generation:   record.Generation,
		Generations:  cfg.Generations,
		BestFitness:  record.Best.Fitness,
		BestSteps:    record.Best.Steps,
		BestState:    record.Best.State.String(),
		MeanFitness:  diag.MeanFitness,
		Unique:       diag.UniqueGenomes,
		Stabilized:   diag.Stabilized,
		TimedOut:     diag.TimedOut,
		Preview:      preview(cfg, record.Best),
		LastDuration: diag.Duration,
	}
}

func preview(cfg Config, best evo.ScoredGenome) string {
	if cfg.SeedWidth <= 0 || cfg.SeedHeight <= 0 || best.Genome.Len() != cfg.SeedWidth*cfg.SeedHeight {
		return ""
	}
	return render.Seed(best.Genome, cfg.SeedWidth, cfg.SeedHeight, render.Options{Alive: '█', Dead: '·'})
}
