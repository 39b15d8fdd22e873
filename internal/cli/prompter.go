package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/Veraticus/amendment-desk/internal/catalog"
	"github.com/Veraticus/amendment-desk/internal/common"
	"github.com/Veraticus/amendment-desk/internal/model"
	"github.com/Veraticus/amendment-desk/internal/wizard"
)

// WizardPrompter drives a wizard session from a line-oriented terminal.
// Typed lines go through the same interpreter as speech, so "go back" or a
// spoken date work the same way in both.
type WizardPrompter struct {
	writer   io.Writer
	reader   *LineReader
	logger   *slog.Logger
	bar      *progressbar.ProgressBar
	result   *model.CompletedAddendum
	done     chan struct{}
	catalog  *catalog.Catalog
	types    []model.AddendumTypeInfo
	barType  model.AddendumType
	mu       sync.Mutex
	doneOnce sync.Once
}

// NewWizardPrompter creates a line-mode wizard over reader and writer.
func NewWizardPrompter(reader io.Reader, writer io.Writer, c *catalog.Catalog, logger *slog.Logger) *WizardPrompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}

	return &WizardPrompter{
		writer:  writer,
		reader:  NewLineReader(reader),
		logger:  common.LoggerOrDefault(logger),
		done:    make(chan struct{}),
		catalog: c,
		types:   c.ListAll(),
	}
}

// OnComplete is the session's completion callback.
func (p *WizardPrompter) OnComplete(a model.CompletedAddendum) {
	p.mu.Lock()
	p.result = &a
	p.mu.Unlock()
	p.finish()
}

// OnCancel is the session's cancel callback.
func (p *WizardPrompter) OnCancel() {
	p.finish()
}

func (p *WizardPrompter) finish() {
	p.doneOnce.Do(func() {
		close(p.done)
	})
}

// Run starts the session and prompts until the addendum is submitted or the
// wizard is cancelled. A nil addendum means the user cancelled; end of input
// counts as cancelling.
func (p *WizardPrompter) Run(ctx context.Context, s *wizard.Session) (*model.CompletedAddendum, error) {
	ctx, cancel := context.WithCancel(ctx)
	loopDone := make(chan error, 1)
	go func() {
		loopDone <- s.Run(ctx)
	}()
	defer func() {
		cancel()
		<-loopDone
	}()

	p.println(FormatTitle("New Addendum"))

	var shown wizard.State
	reprompt := true

	for {
		select {
		case <-p.done:
			return p.outcome(), nil
		default:
		}

		st := s.State()
		if reprompt || promptChanged(shown, st) {
			p.render(shown, st)
			shown = st
			reprompt = false
		}

		// Input waits while the wizard is busy so it is not applied to a
		// step the user has not seen yet.
		lines := p.reader.Lines()
		if st.IsProcessing {
			lines = nil
		}

		select {
		case <-p.done:
			return p.outcome(), nil

		case <-ctx.Done():
			s.Close()
			return nil, ctx.Err()

		case <-s.Updates():

		case line, ok := <-lines:
			if !ok {
				s.Close()
				if err := p.reader.Err(); err != nil {
					return nil, fmt.Errorf("failed to read input: %w", err)
				}
				return nil, nil
			}
			again, err := p.handleLine(ctx, s, st, line)
			if err != nil {
				if errors.Is(err, wizard.ErrSessionStopped) {
					return p.outcome(), nil
				}
				return nil, err
			}
			reprompt = again
		}
	}
}

func (p *WizardPrompter) outcome() *model.CompletedAddendum {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.result
}

// promptChanged reports whether the user needs a new prompt.
func promptChanged(a, b wizard.State) bool {
	return a.Step != b.Step ||
		a.SelectedType != b.SelectedType ||
		a.FieldIndex != b.FieldIndex ||
		a.IsProcessing != b.IsProcessing ||
		a.Error != b.Error ||
		a.GeneratedContent != b.GeneratedContent ||
		a.Transcript != b.Transcript
}

func (p *WizardPrompter) render(prev, st wizard.State) {
	if st.Transcript != "" && st.Transcript != prev.Transcript {
		p.println(SubtleStyle.Render(fmt.Sprintf("%s heard “%s”", VoiceIcon, st.Transcript)))
	}
	if st.Error != "" {
		p.println(FormatError(st.Error))
	}

	switch st.Step {
	case wizard.StepTypeSelection:
		p.println("")
		for i, info := range p.types {
			line := fmt.Sprintf("  %2d. %s %s", i+1, info.Icon, info.Label)
			if info.CommonlyUsed {
				line += SubtleStyle.Render(" ★")
			}
			p.println(line)
		}
		p.prompt("Addendum type (number or name, q to quit)")

	case wizard.StepDetails:
		info := p.catalog.MustGetInfo(st.SelectedType)
		if st.IsProcessing {
			p.updateBar(info, len(info.RequiredFields))
			p.println(FormatInfo("Drafting addendum..."))
			return
		}
		if st.Error != "" && allCaptured(info, st) {
			p.prompt("[R]etry, [B]ack, [Q]uit")
			return
		}
		p.updateBar(info, st.FieldIndex)
		field := info.RequiredFields[st.FieldIndex]
		if field.Placeholder != "" {
			p.println(SubtleStyle.Render("  " + field.Placeholder))
		}
		p.prompt(field.VoicePrompt)

	case wizard.StepReview:
		info := p.catalog.MustGetInfo(st.SelectedType)
		p.println(RenderBox(info.Label, st.GeneratedContent))
		p.prompt("[C]onfirm, [E]dit, [Q]uit")

	case wizard.StepConfirm:
		if st.IsProcessing {
			p.println(FormatInfo("Submitting..."))
			return
		}
		info := p.catalog.MustGetInfo(st.SelectedType)
		p.println(BoldStyle.Render(fmt.Sprintf("%s %s", info.Icon, info.Label)))
		for _, f := range info.RequiredFields {
			if v, ok := st.Details[f.Key]; ok && !v.IsEmpty() {
				p.println(fmt.Sprintf("  %s %s", SubtleStyle.Render(f.Label+":"), v.String()))
			}
		}
		if st.Error != "" {
			p.prompt("[S]ubmit, [R]etry, [B]ack, [Q]uit")
			return
		}
		p.prompt("[S]ubmit, [B]ack, [Q]uit")
	}
}

// handleLine applies one line of input. It reports whether the same prompt
// should be shown again.
func (p *WizardPrompter) handleLine(ctx context.Context, s *wizard.Session, st wizard.State, line string) (bool, error) {
	choice := strings.ToLower(line)

	switch choice {
	case "q", "quit":
		s.Close()
		return false, nil
	case "v", "voice":
		return p.toggleVoice(ctx, s)
	}

	switch st.Step {
	case wizard.StepTypeSelection:
		return p.handleTypeSelection(ctx, s, line)

	case wizard.StepDetails:
		info := p.catalog.MustGetInfo(st.SelectedType)
		if st.Error != "" && allCaptured(info, st) {
			switch choice {
			case "r", "retry":
				return p.dispatch(ctx, s, wizard.Retry())
			case "b", "back":
				return p.dispatch(ctx, s, wizard.Back())
			}
			return p.invalidChoice()
		}
		if line == "" {
			p.println(FormatWarning("Type a value, or say it if voice is on."))
			return true, nil
		}
		next, err := s.Dispatch(ctx, wizard.Text(line))
		if err != nil {
			return false, err
		}
		if rejected(info, st, next) {
			field := info.RequiredFields[st.FieldIndex]
			p.println(FormatWarning(fmt.Sprintf("That doesn't look like a %s for %s.", field.Type, field.Label)))
			return true, nil
		}
		return false, nil

	case wizard.StepReview:
		switch choice {
		case "c", "confirm":
			return p.dispatch(ctx, s, wizard.Confirm())
		case "e", "edit", "b", "back":
			return p.dispatch(ctx, s, wizard.Edit())
		}
		return p.spoken(ctx, s, st, line)

	case wizard.StepConfirm:
		switch choice {
		case "s", "submit":
			return p.dispatch(ctx, s, wizard.Submit())
		case "b", "back":
			return p.dispatch(ctx, s, wizard.Back())
		case "r", "retry":
			if st.Error != "" {
				return p.dispatch(ctx, s, wizard.Retry())
			}
		}
		return p.spoken(ctx, s, st, line)
	}

	return false, nil
}

func (p *WizardPrompter) handleTypeSelection(ctx context.Context, s *wizard.Session, line string) (bool, error) {
	if line == "" {
		return true, nil
	}

	if n, err := strconv.Atoi(line); err == nil {
		if n < 1 || n > len(p.types) {
			p.println(FormatError(fmt.Sprintf("Choose a number between 1 and %d.", len(p.types))))
			return true, nil
		}
		return p.dispatch(ctx, s, wizard.SelectType(p.types[n-1].Type))
	}

	next, err := s.Dispatch(ctx, wizard.Text(line))
	if err != nil {
		return false, err
	}
	if !next.HasSelectedType() && next.Step == wizard.StepTypeSelection {
		p.println(FormatWarning(fmt.Sprintf("No addendum type matches %q.", line)))
		return true, nil
	}
	return false, nil
}

// spoken passes free text to the wizard's command grammar, so phrases like
// "looks good" work at the keyboard too.
func (p *WizardPrompter) spoken(ctx context.Context, s *wizard.Session, st wizard.State, line string) (bool, error) {
	if line == "" {
		return true, nil
	}
	next, err := s.Dispatch(ctx, wizard.Text(line))
	if err != nil {
		return false, err
	}
	if promptChanged(st, next) {
		return false, nil
	}
	return p.invalidChoice()
}

func (p *WizardPrompter) dispatch(ctx context.Context, s *wizard.Session, a wizard.Action) (bool, error) {
	if _, err := s.Dispatch(ctx, a); err != nil {
		return false, err
	}
	return false, nil
}

func (p *WizardPrompter) invalidChoice() (bool, error) {
	p.println(FormatError("Invalid choice. Please try again."))
	return true, nil
}

func (p *WizardPrompter) toggleVoice(ctx context.Context, s *wizard.Session) (bool, error) {
	ch := s.Voice()
	if ch == nil || !ch.Supported() {
		p.println(FormatWarning("Voice input is not available."))
		return true, nil
	}
	if ch.Listening() {
		p.println(FormatInfo("Voice off."))
		return p.dispatch(ctx, s, wizard.StopVoice())
	}
	p.println(FormatInfo(VoiceIcon + " Listening. Speak your answer, or keep typing."))
	return p.dispatch(ctx, s, wizard.StartVoice())
}

// updateBar shows how many fields of info have been captured.
func (p *WizardPrompter) updateBar(info model.AddendumTypeInfo, captured int) {
	if p.bar == nil || p.barType != info.Type {
		p.barType = info.Type
		p.bar = progressbar.NewOptions(len(info.RequiredFields),
			progressbar.OptionSetWriter(p.writer),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(20),
			progressbar.OptionSetDescription(fmt.Sprintf("[cyan][bold]%s[reset]", info.Label)),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	}
	if err := p.bar.Set(captured); err != nil {
		p.logger.Warn("failed to update progress bar", "error", err)
	}
	p.println("")
}

func (p *WizardPrompter) prompt(text string) {
	if _, err := fmt.Fprint(p.writer, FormatPrompt(text)); err != nil {
		p.logger.Warn("failed to write prompt", "error", err)
	}
}

func (p *WizardPrompter) println(text string) {
	if _, err := fmt.Fprintln(p.writer, text); err != nil {
		p.logger.Warn("failed to write output", "error", err)
	}
}

func allCaptured(info model.AddendumTypeInfo, st wizard.State) bool {
	for _, f := range info.RequiredFields {
		if v, ok := st.Details[f.Key]; f.Required && (!ok || v.IsEmpty()) {
			return false
		}
	}
	return true
}

// rejected reports whether typed input left the current field untouched,
// which is how the wizard ignores a value of the wrong kind.
func rejected(info model.AddendumTypeInfo, before, after wizard.State) bool {
	if after.Step != wizard.StepDetails || after.IsProcessing || after.Error != "" {
		return false
	}
	if after.FieldIndex != before.FieldIndex || before.FieldIndex >= len(info.RequiredFields) {
		return false
	}
	key := info.RequiredFields[before.FieldIndex].Key
	a, hadA := before.Details[key]
	b, hadB := after.Details[key]
	return hadA == hadB && a.String() == b.String()
}
