// Package identity maps player names to actor identities.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/marketcraft/internal/store"
)

// ErrUnknownPlayer is returned when a name has no registered player.
var ErrUnknownPlayer = errors.New("unknown player")

// Player is a registered actor.
type Player struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Admin bool      `json:"admin,omitempty"`
}

// Directory stores players keyed by their folded name, with a second record
// per player keyed by id.
type Directory struct {
	backend store.Backend
	records *store.Records[Player]
	byID    *store.Records[Player]
	gen     Generator
	logger  *slog.Logger
}

// Option configures a Directory.
type Option func(*Directory)

// WithGenerator sets the id generator.
func WithGenerator(g Generator) Option {
	return func(d *Directory) { d.gen = g }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Directory) { d.logger = l }
}

// NewDirectory returns a directory backed by b.
func NewDirectory(b store.Backend, opts ...Option) *Directory {
	d := &Directory{
		backend: b,
		records: store.NewRecords[Player](b, store.KindPlayer),
		byID:    store.NewRecords[Player](b, store.KindPlayerID),
		gen:     UUIDv7Generator{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// FoldName canonicalizes a player name for lookup.
func FoldName(name string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(name)))
}

// Register creates a player. Registering an existing name returns the stored
// player and updates its admin flag.
func (d *Directory) Register(ctx context.Context, name string, admin bool) (Player, error) {
	key := FoldName(name)
	if key == "" {
		return Player{}, fmt.Errorf("register: player name is required")
	}

	p, err := d.records.Load(ctx, uuid.Nil, key)
	switch {
	case err == nil:
		if p.Admin == admin {
			return p, nil
		}
		p.Admin = admin
	case errors.Is(err, store.ErrNotFound):
		p = Player{ID: d.gen.NewID(), Name: strings.TrimSpace(name), Admin: admin}
	default:
		return Player{}, fmt.Errorf("register %s: %w", name, err)
	}

	if err := d.save(ctx, key, p); err != nil {
		return Player{}, fmt.Errorf("register %s: %w", name, err)
	}
	d.logger.Debug("player registered", "name", p.Name, "id", p.ID, "admin", p.Admin)
	return p, nil
}

// save writes the name record and the id index together.
func (d *Directory) save(ctx context.Context, key string, p Player) error {
	byName, err := d.records.Write(uuid.Nil, key, p)
	if err != nil {
		return err
	}
	byID, err := d.byID.Write(uuid.Nil, p.ID.String(), p)
	if err != nil {
		return err
	}
	return d.backend.PutBatch(ctx, []store.Write{byName, byID})
}

// Resolve finds a player by name. Unknown names return a placeholder player
// whose id is Placeholder(name), together with ErrUnknownPlayer.
func (d *Directory) Resolve(ctx context.Context, name string) (Player, error) {
	p, err := d.records.Load(ctx, uuid.Nil, FoldName(name))
	if errors.Is(err, store.ErrNotFound) {
		return Player{ID: Placeholder(name), Name: name}, fmt.Errorf("%w: %s", ErrUnknownPlayer, name)
	}
	if err != nil {
		return Player{}, fmt.Errorf("resolve %s: %w", name, err)
	}
	return p, nil
}

// ByID finds a registered player by id.
func (d *Directory) ByID(ctx context.Context, id uuid.UUID) (Player, error) {
	p, err := d.byID.Load(ctx, uuid.Nil, id.String())
	if errors.Is(err, store.ErrNotFound) {
		return Player{}, fmt.Errorf("%w: %s", ErrUnknownPlayer, id)
	}
	if err != nil {
		return Player{}, fmt.Errorf("player %s: %w", id, err)
	}
	return p, nil
}

// Name returns the player's name, or the id when the player is unknown.
func (d *Directory) Name(ctx context.Context, id uuid.UUID) string {
	p, err := d.ByID(ctx, id)
	if err != nil {
		return id.String()
	}
	return p.Name
}

// List returns all registered players ordered by name.
func (d *Directory) List(ctx context.Context) ([]Player, error) {
	keys, err := d.records.Names(ctx, uuid.Nil)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	players := make([]Player, 0, len(keys))
	for _, key := range keys {
		p, err := d.records.Load(ctx, uuid.Nil, key)
		if err != nil {
			return nil, fmt.Errorf("list players: %w", err)
		}
		players = append(players, p)
	}
	sort.SliceStable(players, func(i, j int) bool {
		return FoldName(players[i].Name) < FoldName(players[j].Name)
	})
	return players, nil
}
