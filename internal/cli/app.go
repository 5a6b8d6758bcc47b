package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/marketcraft/internal/config"
	"github.com/roach88/marketcraft/internal/identity"
	"github.com/roach88/marketcraft/internal/item"
	"github.com/roach88/marketcraft/internal/market"
	"github.com/roach88/marketcraft/internal/notify"
	"github.com/roach88/marketcraft/internal/store"
	"github.com/roach88/marketcraft/internal/trade"
)

// app is the market opened for a single command.
type app struct {
	ctx     context.Context
	cfg     config.Config
	backend store.Backend
	market  *market.Service
	rec     *notify.Recorder
	out     *OutputFormatter
	logger  *slog.Logger
}

// openApp resolves configuration, opens the record store and builds the
// market service. Player messages are printed in text mode and collected
// for the response in JSON mode.
func openApp(cmd *cobra.Command, opts *RootOptions) (*app, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Database != "" {
		cfg.Storage.Path = opts.Database
	}
	if opts.Driver != "" {
		cfg.Storage.Driver = opts.Driver
		if err := cfg.Validate(); err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid storage driver", err)
		}
	}

	logger := cfg.Log.NewLogger(cmd.ErrOrStderr(), opts.Verbose)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger.Debug("opening store", "driver", cfg.Storage.Driver, "path", cfg.Storage.Path)
	backend, err := store.OpenDriver(store.Driver(cfg.Storage.Driver), cfg.Storage.Path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open store", err)
	}

	a := &app{
		ctx:     ctx,
		cfg:     cfg,
		backend: backend,
		rec:     notify.NewRecorder(),
		logger:  logger,
		out: &OutputFormatter{
			Format:    opts.Format,
			Writer:    cmd.OutOrStdout(),
			ErrWriter: cmd.ErrOrStderr(),
			Verbose:   opts.Verbose,
		},
	}

	sinks := []notify.Sink{a.rec}
	if opts.Format != "json" {
		sinks = append(sinks, notify.NewWriterSink(cmd.OutOrStdout(), a.playerName))
	}
	if opts.Verbose {
		sinks = append(sinks, notify.LogSink{Logger: logger})
	}
	a.market = market.New(backend, cfg.Limits,
		market.WithLogger(logger),
		market.WithSink(notify.Multi(sinks...)),
	)
	return a, nil
}

// Close releases the record store.
func (a *app) Close() {
	if err := a.backend.Close(); err != nil {
		a.logger.Error("error closing store", "error", err)
	}
}

func (a *app) playerName(id uuid.UUID) string {
	return a.market.Players().Name(a.ctx, id)
}

// player resolves a registered player by name.
func (a *app) player(name string) (identity.Player, error) {
	p, err := a.market.Players().Resolve(a.ctx, name)
	if errors.Is(err, identity.ErrUnknownPlayer) {
		return identity.Player{}, NewExitError(ExitCommandError, fmt.Sprintf("unknown player %q (register with: player add %s)", name, name))
	}
	if err != nil {
		return identity.Player{}, WrapExitError(ExitFailure, "failed to resolve player", err)
	}
	return p, nil
}

// messages returns what players were told during the command.
func (a *app) messages() []Message {
	entries := a.rec.Entries()
	out := make([]Message, 0, len(entries))
	for _, e := range entries {
		out = append(out, Message{Player: a.playerName(e.Actor), Text: e.Message})
	}
	return out
}

// finish reports the outcome of a market operation. Refusals exit with
// ExitFailure and carry their code; other failures are wrapped as errors.
func (a *app) finish(text string, data interface{}, err error) error {
	if err == nil {
		return a.out.Result(text, data, a.messages())
	}

	code := market.CodeOf(err)
	if !market.IsRefusal(err) {
		return WrapExitError(ExitFailure, "operation failed", err)
	}
	// Text mode already printed what the player was told.
	if a.out.Format == "json" || len(a.rec.Entries()) == 0 {
		if outErr := a.out.Refusal(code, refusalMessage(err), nil, a.messages()); outErr != nil {
			return outErr
		}
	}
	return NewExitError(ExitFailure, code)
}

func refusalMessage(err error) string {
	var e *market.Error
	if errors.As(err, &e) {
		return e.Message
	}
	var rej *trade.Rejection
	if errors.As(err, &rej) {
		return rej.Message
	}
	return err.Error()
}

// parseStack reads a TYPE:amount argument.
func parseStack(text string) (item.Stack, error) {
	st, err := item.Parse(text)
	if err != nil {
		return item.Stack{}, WrapExitError(ExitCommandError, "invalid item", err)
	}
	return st, nil
}

// withApp opens the market for the duration of fn.
func withApp(cmd *cobra.Command, opts *RootOptions, fn func(a *app) error) error {
	a, err := openApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
