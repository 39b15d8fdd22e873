package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/amendment-desk/internal/catalog"
	"github.com/Veraticus/amendment-desk/internal/common"
	"github.com/Veraticus/amendment-desk/internal/model"
	"github.com/Veraticus/amendment-desk/internal/wizard"
)

// Outcome is how a wizard run ended.
type Outcome struct {
	Addendum  *model.CompletedAddendum
	Cancelled bool
}

// WizardUI runs a wizard session in the terminal. Its OnComplete and OnCancel
// methods are the session's completion and cancel callbacks:
//
//	ui := tui.NewWizardUI(cat)
//	session := wizard.NewSession(cat,
//		wizard.WithCompletion(ui.OnComplete),
//		wizard.WithCancel(ui.OnCancel),
//	)
//	outcome, err := ui.Run(ctx, session)
type WizardUI struct {
	catalog *catalog.Catalog
	program *tea.Program
	config  Config
	mu      sync.Mutex
}

// NewWizardUI creates a terminal UI for wizards built on catalog c.
func NewWizardUI(c *catalog.Catalog, opts ...Option) *WizardUI {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &WizardUI{catalog: c, config: cfg}
}

// OnComplete forwards a submitted addendum to the running program.
func (u *WizardUI) OnComplete(a model.CompletedAddendum) {
	u.send(completedMsg{addendum: a})
}

// OnCancel forwards a closed wizard to the running program.
func (u *WizardUI) OnCancel() {
	u.send(cancelledMsg{})
}

// send never blocks: callbacks run on the session loop, which the program
// may be waiting on.
func (u *WizardUI) send(msg tea.Msg) {
	u.mu.Lock()
	p := u.program
	u.mu.Unlock()
	if p != nil {
		go p.Send(msg)
	}
}

// Run starts the session loop and the program, and blocks until the wizard
// completes, is cancelled, or ctx ends.
func (u *WizardUI) Run(ctx context.Context, s *wizard.Session) (Outcome, error) {
	logger := common.LoggerOrDefault(u.config.Logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loopDone := make(chan error, 1)
	go func() {
		loopDone <- s.Run(ctx)
	}()

	if u.config.AltScreen {
		defer cleanupTerminal()
	}

	m := newWizardModel(ctx, s, u.catalog, u.config)
	p := tea.NewProgram(m, u.programOptions(ctx)...)

	u.mu.Lock()
	u.program = p
	u.mu.Unlock()

	final, err := p.Run()

	u.mu.Lock()
	u.program = nil
	u.mu.Unlock()

	cancel()
	if loopErr := <-loopDone; loopErr != nil && !errors.Is(loopErr, context.Canceled) {
		logger.Warn("wizard session ended with error", "error", loopErr)
	}

	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return Outcome{Cancelled: true}, nil
		}
		return Outcome{}, fmt.Errorf("failed to run wizard UI: %w", err)
	}

	wm, ok := final.(WizardModel)
	if !ok {
		return Outcome{}, fmt.Errorf("unexpected model type %T", final)
	}
	if a, done := wm.Completed(); done {
		return Outcome{Addendum: &a}, nil
	}
	return Outcome{Cancelled: true}, wm.Err()
}

// RunHistory shows a contract's history until the user quits.
func RunHistory(ctx context.Context, contract *model.Contract, load ContractLoader, opts ...Option) error {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.AltScreen {
		defer cleanupTerminal()
	}

	m := NewHistoryModel(ctx, contract, load, opts...)
	p := tea.NewProgram(m, programOptions(ctx, cfg)...)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("failed to run history UI: %w", err)
	}
	return nil
}

func (u *WizardUI) programOptions(ctx context.Context) []tea.ProgramOption {
	return programOptions(ctx, u.config)
}

func programOptions(ctx context.Context, cfg Config) []tea.ProgramOption {
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if cfg.Input != nil {
		opts = append(opts, tea.WithInput(cfg.Input))
	}
	if cfg.Output != nil {
		opts = append(opts, tea.WithOutput(cfg.Output))
	}
	return opts
}

// cleanupTerminal restores the terminal if the program exits abnormally.
// Errors are ignored; this is best effort.
func cleanupTerminal() {
	_, _ = os.Stdout.Write([]byte("\033[?1049l")) // leave alternate screen
	_, _ = os.Stdout.Write([]byte("\033[?25h"))   // show cursor
	_, _ = os.Stdout.Write([]byte("\033[m"))      // reset colors
}
