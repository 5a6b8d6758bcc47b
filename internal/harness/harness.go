package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/roach88/marketcraft/internal/config"
	"github.com/roach88/marketcraft/internal/item"
	"github.com/roach88/marketcraft/internal/market"
	"github.com/roach88/marketcraft/internal/notify"
	"github.com/roach88/marketcraft/internal/store"
	"github.com/roach88/marketcraft/internal/testutil"
	"github.com/roach88/marketcraft/internal/vault"
)

// Harness runs one scenario against a private market.
// It uses a deterministic clock and id generator so transcripts are
// reproducible.
type Harness struct {
	ctx     context.Context
	backend store.Backend
	market  *market.Service
	rec     *notify.Recorder
	logger  *slog.Logger

	players map[string]uuid.UUID
	names   map[uuid.UUID]string

	shopViews  map[string]*market.ShopView
	vaultViews map[string]*market.VaultView
}

// stepError marks a step the harness cannot execute. It aborts the run
// instead of becoming an outcome code.
type stepError struct{ err error }

func (e *stepError) Error() string { return e.err.Error() }
func (e *stepError) Unwrap() error { return e.err }

// Option configures a harness run.
type Option func(*runConfig)

type runConfig struct {
	logger *slog.Logger
}

// WithLogger routes market logs to l instead of discarding them.
func WithLogger(l *slog.Logger) Option {
	return func(c *runConfig) { c.logger = l }
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Execution flow:
//  1. Register players, create shops, fill inventories and vaults
//  2. Run each step, recording its outcome code and the messages it produced
//  3. Evaluate assertions and the expected transcript
//
// An error is returned only when the scenario cannot be executed; failed
// expectations are reported through Result.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := runConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}

	st, err := store.Open(store.MemoryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	limits := config.Default().Limits
	if scenario.Limits != nil {
		limits = *scenario.Limits
	}

	rec := notify.NewRecorder()
	h := &Harness{
		ctx:     context.Background(),
		backend: st,
		rec:     rec,
		logger:  cfg.logger,
		market: market.New(st, limits,
			market.WithSink(rec),
			market.WithLogger(cfg.logger),
			market.WithGenerator(testutil.NewSequentialIDs()),
			market.WithClock(testutil.NewDeterministicClock()),
		),
		players:    make(map[string]uuid.UUID),
		names:      make(map[uuid.UUID]string),
		shopViews:  make(map[string]*market.ShopView),
		vaultViews: make(map[string]*market.VaultView),
	}

	if err := h.seed(scenario); err != nil {
		return nil, fmt.Errorf("failed to seed scenario %s: %w", scenario.Name, err)
	}
	rec.Reset()

	result := NewResult(scenario.Name)
	for i, step := range scenario.Steps {
		sr, err := h.runStep(i, step)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Action, err)
		}
		result.Steps = append(result.Steps, sr)
		if sr.Code != sr.Expect {
			result.AddError(fmt.Sprintf("step %d (%s %s): expected %s, got %s", i+1, sr.Actor, sr.Action, sr.Expect, sr.Code))
		}
	}

	actx := &AssertionContext{Ctx: h.ctx, Market: h.market, Players: h.players}
	for _, msg := range EvaluateAssertions(scenario.Assertions, actx) {
		result.AddError(msg)
	}

	if scenario.ExpectTranscript != nil {
		if got := result.Transcript(); !slices.Equal(got, scenario.ExpectTranscript) {
			result.AddError(transcriptMismatch(scenario.ExpectTranscript, got))
		}
	}

	h.logger.Info("scenario finished", "scenario", scenario.Name, "pass", result.Pass, "steps", len(result.Steps))
	return result, nil
}

// seed builds the starting world.
func (h *Harness) seed(s *Scenario) error {
	players := h.market.Players()
	for _, p := range s.Players {
		player, err := players.Register(h.ctx, p.Name, p.Admin)
		if err != nil {
			return err
		}
		h.players[p.Name] = player.ID
		h.names[player.ID] = p.Name
	}

	for _, shop := range s.Shops {
		offered, required, err := parsePair(shop.Offered, shop.Required)
		if err != nil {
			return err
		}
		if _, err := h.market.CreateShop(h.ctx, h.players[shop.Owner], shop.Name, offered, required); err != nil {
			return fmt.Errorf("create shop %s/%s: %w", shop.Owner, shop.Name, err)
		}
	}

	for _, inv := range s.Inventories {
		for _, text := range inv.Items {
			st, err := item.Parse(text)
			if err != nil {
				return err
			}
			left, err := h.market.Give(h.ctx, h.players[inv.Player], st)
			if err != nil {
				return err
			}
			if left > 0 {
				return fmt.Errorf("inventory of %s is full, %d %s left over", inv.Player, left, st.Type)
			}
		}
	}

	vaults := store.NewRecords[vault.Slots](h.backend, store.KindVault)
	for _, v := range s.Vaults {
		slots := vault.Slots{}
		for slot, text := range v.Slots {
			st, err := item.Parse(text)
			if err != nil {
				return err
			}
			slots[slot] = st
		}
		if err := slots.Validate(h.market.Layout()); err != nil {
			return fmt.Errorf("vault %s/%s: %w", v.Owner, v.Shop, err)
		}
		name := market.NormalizeShopName(v.Shop)
		if err := vaults.Save(h.ctx, h.players[v.Owner], name, slots); err != nil {
			return fmt.Errorf("vault %s/%s: %w", v.Owner, v.Shop, err)
		}
	}
	return nil
}

// runStep executes one step and collects the messages it produced.
func (h *Harness) runStep(index int, step Step) (StepResult, error) {
	mark := len(h.rec.Entries())
	sr := StepResult{
		Index:  index,
		Action: step.Action,
		Actor:  step.Actor,
		Shop:   step.Shop,
		Expect: step.Expect,
	}

	detail, err := h.dispatch(step, &sr)
	var bad *stepError
	if errors.As(err, &bad) {
		return sr, bad
	}
	sr.Code = market.CodeOf(err)
	sr.Detail = detail

	for _, e := range h.rec.Entries()[mark:] {
		sr.Messages = append(sr.Messages, Message{Player: h.name(e.Actor), Text: e.Message})
	}
	h.logger.Debug("step executed", "step", index+1, "action", step.Action, "actor", step.Actor, "code", sr.Code)
	return sr, nil
}

// dispatch performs the market call behind a step.
func (h *Harness) dispatch(step Step, sr *StepResult) (string, error) {
	actor := h.players[step.Actor]
	owner := actor
	if step.Owner != "" && step.Action != ActionAdminRemoveShop {
		owner = h.players[step.Owner]
	}
	key := step.View
	if key == "" {
		key = step.Shop
	}

	switch step.Action {
	case ActionCreateShop:
		offered, required, err := parsePair(step.Offered, step.Required)
		if err != nil {
			return "", &stepError{err}
		}
		_, err = h.market.CreateShop(h.ctx, actor, step.Shop, offered, required)
		return "", err

	case ActionOpenShop:
		view, err := h.market.OpenShop(h.ctx, actor, owner, step.Shop)
		if err != nil {
			return "", err
		}
		h.shopViews[key] = view
		return market.StockLabel(view.Stock()), nil

	case ActionBuy:
		return h.buy(step, key, actor, owner, sr)

	case ActionCloseShop:
		view, ok := h.shopViews[key]
		if !ok {
			return "", &stepError{fmt.Errorf("no shop view %q", key)}
		}
		sr.Shop = view.Shop().Name
		view.Close()
		return "", nil

	case ActionOpenVault:
		view, err := h.market.OpenVault(h.ctx, actor, step.Shop)
		if err != nil {
			return "", err
		}
		h.vaultViews[key] = view
		return "", nil

	case ActionDeposit, ActionWithdraw:
		view, ok := h.vaultViews[key]
		if !ok {
			return "", &stepError{fmt.Errorf("no vault view %q", key)}
		}
		sr.Shop = view.Shop().Name
		var moved int
		var err error
		if step.Action == ActionDeposit {
			moved, err = view.Deposit(h.ctx, *step.Slot)
		} else {
			moved, err = view.Withdraw(h.ctx, *step.Slot)
		}
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("moved %d", moved), nil

	case ActionCloseVault:
		view, ok := h.vaultViews[key]
		if !ok {
			return "", &stepError{fmt.Errorf("no vault view %q", key)}
		}
		sr.Shop = view.Shop().Name
		return "", view.Close(h.ctx)

	case ActionRemoveShop:
		_, err := h.market.RemoveShop(h.ctx, actor, step.Shop)
		return "", err

	case ActionAdminRemoveShop:
		sr.Shop = step.Owner + "/" + step.Shop
		_, err := h.market.AdminRemoveShop(h.ctx, actor, step.Owner, step.Shop)
		return "", err
	}
	return "", &stepError{fmt.Errorf("unknown action %q", step.Action)}
}

// buy purchases through a named open view, or opens the shop for the
// duration of the step when no view is open under key.
func (h *Harness) buy(step Step, key string, actor, owner uuid.UUID, sr *StepResult) (string, error) {
	view, ok := h.shopViews[key]
	if !ok {
		if step.Shop == "" {
			return "", &stepError{fmt.Errorf("no shop view %q", key)}
		}
		opened, err := h.market.OpenShop(h.ctx, actor, owner, step.Shop)
		if err != nil {
			return "", err
		}
		defer opened.Close()
		view = opened
	}
	sr.Shop = view.Shop().Name

	times := max(step.Times, 1)
	bought := 0
	for i := 0; i < times; i++ {
		if _, err := view.Buy(h.ctx); err != nil {
			if times > 1 {
				return fmt.Sprintf("bought %d", bought), err
			}
			return "", err
		}
		bought++
	}
	if times > 1 {
		return fmt.Sprintf("bought %d, %s", bought, market.StockLabel(view.Stock())), nil
	}
	return market.StockLabel(view.Stock()), nil
}

func (h *Harness) name(id uuid.UUID) string {
	if n, ok := h.names[id]; ok {
		return n
	}
	return id.String()
}

func parsePair(offered, required string) (item.Stack, item.Stack, error) {
	o, err := item.Parse(offered)
	if err != nil {
		return item.Stack{}, item.Stack{}, err
	}
	r, err := item.Parse(required)
	if err != nil {
		return item.Stack{}, item.Stack{}, err
	}
	return o, r, nil
}

func transcriptMismatch(want, got []string) string {
	for i := 0; i < len(want) || i < len(got); i++ {
		var w, g string
		if i < len(want) {
			w = want[i]
		}
		if i < len(got) {
			g = got[i]
		}
		if w != g {
			return fmt.Sprintf("transcript line %d: expected %q, got %q", i+1, w, g)
		}
	}
	return "transcript mismatch"
}
