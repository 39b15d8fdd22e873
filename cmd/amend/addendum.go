package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Veraticus/amendment-desk/internal/amendment"
	"github.com/Veraticus/amendment-desk/internal/catalog"
	"github.com/Veraticus/amendment-desk/internal/cli"
	"github.com/Veraticus/amendment-desk/internal/common"
	"github.com/Veraticus/amendment-desk/internal/config"
	"github.com/Veraticus/amendment-desk/internal/generate"
	"github.com/Veraticus/amendment-desk/internal/llm"
	"github.com/Veraticus/amendment-desk/internal/metrics"
	"github.com/Veraticus/amendment-desk/internal/model"
	"github.com/Veraticus/amendment-desk/internal/publish"
	"github.com/Veraticus/amendment-desk/internal/service"
	"github.com/Veraticus/amendment-desk/internal/tui"
	"github.com/Veraticus/amendment-desk/internal/voice"
	"github.com/Veraticus/amendment-desk/internal/wizard"
	"github.com/spf13/cobra"
)

func addendumCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "addendum <contract-id>",
		Short: "Draft an addendum with the guided wizard",
		Long: `Open the addendum wizard for a contract.

Pick an addendum type, answer each field by typing or speaking, review the
generated document, and submit it. Submitted addenda are stored as pending
amendments on the contract.

Voice input needs a speech source (voice.source or --voice):
  ws://host/path          streaming speech service
  cmd:program args...     external speech-to-text program
  file:/path/to/log       tailed transcript file`,
		Args: cobra.ExactArgs(1),
		RunE: runAddendum,
	}

	cmd.Flags().Bool("plain", false, "Use line prompts instead of the full-screen wizard")
	cmd.Flags().String("voice", "", "Speech source, overrides voice.source")
	cmd.Flags().Bool("listen", false, "Start listening as soon as the wizard opens")
	cmd.Flags().String("record", "", "Write every rendered frame to this directory")
	cmd.Flags().String("generator", "", "Content generator (template, llm), overrides generator.backend")

	return cmd
}

func runAddendum(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	contractID := args[0]

	plain, _ := cmd.Flags().GetBool("plain")
	source, _ := cmd.Flags().GetString("voice")
	listen, _ := cmd.Flags().GetBool("listen")
	recordDir, _ := cmd.Flags().GetString("record")
	backend, _ := cmd.Flags().GetString("generator")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if source != "" {
		cfg.Voice.Source = source
	}
	if backend != "" {
		cfg.Generator.Backend = backend
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	contract, err := store.GetContract(ctx, contractID)
	if errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("contract %s not found", contractID)
	}
	if err != nil {
		return fmt.Errorf("failed to load contract: %w", err)
	}

	// Full-screen mode owns the terminal, so logs go to a file.
	if !plain {
		restore, err := redirectLogs()
		if err != nil {
			return err
		}
		defer restore()
	}
	logger := slog.Default()

	tel, err := initTelemetry(cfg.Telemetry.Tracing, cfg.Telemetry.Metrics, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Warn("failed to shut down telemetry", "error", err)
		}
	}()

	recorder, err := metrics.NewWizardMetrics(tel.meter)
	if err != nil {
		return fmt.Errorf("failed to create wizard metrics: %w", err)
	}

	generator, closeGenerator, err := buildGenerator(cfg, logger)
	if err != nil {
		return err
	}
	defer closeGenerator()

	var created *model.ContractAmendment
	submitOpts := []amendment.SubmitterOption{
		amendment.WithSubmitLogger(logger),
		amendment.OnCreated(func(a model.ContractAmendment) {
			created = &a
		}),
	}
	publisher, closePublisher := buildPublisher(cfg, logger)
	defer closePublisher()
	if publisher != nil {
		submitOpts = append(submitOpts, amendment.WithPublisher(publisher))
	}

	cat := catalog.Default()
	submitter := amendment.NewSubmitter(store, cat, contract.ID, submitOpts...)

	recognizer, err := voice.FromSource(cfg.Voice.Source, logger)
	if err != nil {
		return fmt.Errorf("failed to set up voice input: %w", err)
	}
	channel := voice.NewChannel(recognizer,
		voice.WithSilenceWindow(cfg.Voice.SilenceWindow),
		voice.WithLogger(logger),
	)

	sessionOpts := []wizard.Option{
		wizard.WithGenerator(metrics.NewTracedGenerator(generator, tel.tracer)),
		wizard.WithSubmitter(metrics.NewTracedSubmitter(submitter, tel.tracer)),
		wizard.WithVoice(channel),
		wizard.WithRecorder(recorder),
		wizard.WithLogger(logger),
		wizard.WithGenerationTimeout(cfg.Wizard.GenerationTimeout),
		wizard.WithSubmissionTimeout(cfg.Wizard.SubmissionTimeout),
	}

	recorder.Opened(ctx)
	logger.Info("addendum wizard opened",
		"contract_id", contract.ID,
		"generator", cfg.Generator.Backend,
		"voice", channel.Supported())

	out := cmd.OutOrStdout()

	var addendum *model.CompletedAddendum
	if plain {
		addendum, err = runPlainWizard(ctx, cmd.InOrStdin(), out, cat, contract, sessionOpts, logger)
	} else {
		addendum, err = runScreenWizard(ctx, cat, sessionOpts, listen, recordDir, logger)
	}
	if err != nil {
		return err
	}

	if addendum == nil {
		fmt.Fprintln(out, cli.FormatWarning("Addendum wizard closed. Nothing was submitted."))
		return nil
	}

	info := cat.MustGetInfo(addendum.AddendumType)
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("%s submitted for %s", amendment.Title(info), contract.KeyTerms.PropertyAddress)))
	if created != nil {
		fmt.Fprintln(out, cli.InfoStyle.Render(fmt.Sprintf("  Amendment %s is %s", created.ID, statusLabel(created.Status))))
	}
	return nil
}

func runPlainWizard(ctx context.Context, in io.Reader, out io.Writer, cat *catalog.Catalog, contract *model.Contract, opts []wizard.Option, logger *slog.Logger) (*model.CompletedAddendum, error) {
	prompter := cli.NewWizardPrompter(in, out, cat, logger)
	session := wizard.NewSession(cat, append(opts,
		wizard.WithCompletion(prompter.OnComplete),
		wizard.WithCancel(prompter.OnCancel),
	)...)

	handler := cli.NewInterruptHandler(out)
	ctx = handler.HandleInterrupts(ctx, true)

	fmt.Fprintln(out, cli.SubtitleStyle.Render(fmt.Sprintf("%s %s (v%d)", cli.AddendumIcon, contract.KeyTerms.PropertyAddress, contract.CurrentVersion.Version)))

	addendum, err := prompter.Run(ctx, session)
	if err != nil {
		if handler.WasInterrupted() {
			return nil, nil
		}
		return nil, err
	}
	return addendum, nil
}

func runScreenWizard(ctx context.Context, cat *catalog.Catalog, opts []wizard.Option, listen bool, recordDir string, logger *slog.Logger) (*model.CompletedAddendum, error) {
	uiOpts := []tui.Option{
		tui.WithLogger(logger),
		tui.WithVoice(listen),
	}
	if recordDir != "" {
		rec, err := tui.NewRecorder(recordDir)
		if err != nil {
			return nil, err
		}
		defer func() { _ = rec.Close() }()
		uiOpts = append(uiOpts, tui.WithRecorder(rec))
	}

	ui := tui.NewWizardUI(cat, uiOpts...)
	session := wizard.NewSession(cat, append(opts,
		wizard.WithCompletion(ui.OnComplete),
		wizard.WithCancel(ui.OnCancel),
	)...)

	outcome, err := ui.Run(ctx, session)
	if err != nil {
		return nil, err
	}
	return outcome.Addendum, nil
}

// buildGenerator returns the configured content generator and a func that
// releases its resources.
func buildGenerator(cfg *config.Config, logger *slog.Logger) (generate.Generator, func(), error) {
	if cfg.Generator.Backend != config.BackendLLM {
		return generate.TemplateGenerator{}, func() {}, nil
	}

	drafter, err := llm.NewDrafter(cfg.LLM, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM drafter: %w", err)
	}

	g := generate.NewLLMGenerator(drafter,
		generate.WithFallback(generate.TemplateGenerator{}),
		generate.WithFallbackOnError(cfg.Generator.FallbackOnError),
		generate.WithTripThreshold(cfg.Generator.TripThreshold),
		generate.WithOpenTimeout(cfg.Generator.OpenTimeout),
		generate.WithGeneratorLogger(logger),
	)
	return g, drafter.Close, nil
}

// buildPublisher connects to NATS when announcements are enabled. A server
// that cannot be reached disables announcements for this run.
func buildPublisher(cfg *config.Config, logger *slog.Logger) (service.AddendumPublisher, func()) {
	if !cfg.NATS.Enabled {
		return nil, func() {}
	}

	conn, publisher, err := publish.Connect(cfg.NATS.URL, cfg.NATS.ClientName, cfg.NATS.Timeout,
		publish.WithSubject(cfg.NATS.Subject),
		publish.WithLogger(logger),
	)
	if err != nil {
		logger.Warn("amendment announcements disabled", "error", err)
		return nil, func() {}
	}

	return publisher, func() {
		if err := conn.Drain(); err != nil {
			conn.Close()
		}
	}
}
