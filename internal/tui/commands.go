package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/amendment-desk/internal/model"
	"github.com/Veraticus/amendment-desk/internal/wizard"
)

// waitForState blocks until the session publishes its next snapshot.
func waitForState(ctx context.Context, updates <-chan wizard.State) tea.Cmd {
	return func() tea.Msg {
		select {
		case st := <-updates:
			return stateMsg{state: st}
		case <-ctx.Done():
			return sessionEndedMsg{err: ctx.Err()}
		}
	}
}

// dispatch applies an action off the update loop. The session may call back
// into the program while handling it.
func dispatch(ctx context.Context, s *wizard.Session, a wizard.Action, wait time.Duration) tea.Cmd {
	return func() tea.Msg {
		dctx, cancel := context.WithTimeout(ctx, wait)
		defer cancel()

		st, err := s.Dispatch(dctx, a)
		return dispatchedMsg{state: st, err: err, action: a.Kind}
	}
}

// closeSession cancels the wizard. The session reports back through its
// cancel callback.
func closeSession(s *wizard.Session) tea.Cmd {
	return func() tea.Msg {
		return stateMsg{state: s.Close()}
	}
}

// loadContract reloads the contract shown in the history view.
func loadContract(ctx context.Context, load func(context.Context) (*model.Contract, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		contract, err := load(ctx)
		return contractLoadedMsg{contract: contract, err: err}
	}
}
