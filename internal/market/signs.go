package market

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/roach88/marketcraft/internal/store"
)

// SignHeader is the first front line a shop sign must carry.
const SignHeader = "Marketcraft"

// Location is a block position in a world.
type Location struct {
	World string `json:"world" yaml:"world"`
	X     int    `json:"x" yaml:"x"`
	Y     int    `json:"y" yaml:"y"`
	Z     int    `json:"z" yaml:"z"`
}

// Key renders the location as "world,x,y,z".
func (l Location) Key() string {
	return fmt.Sprintf("%s,%d,%d,%d", l.World, l.X, l.Y, l.Z)
}

func (l Location) String() string { return l.Key() }

// ParseLocation reads a "world,x,y,z" key.
func ParseLocation(key string) (Location, error) {
	parts := strings.Split(key, ",")
	if len(parts) != 4 || strings.TrimSpace(parts[0]) == "" {
		return Location{}, fmt.Errorf("invalid location %q: want world,x,y,z", key)
	}
	coords := make([]int, 3)
	for i, p := range parts[1:] {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Location{}, fmt.Errorf("invalid location %q: %w", key, err)
		}
		coords[i] = n
	}
	return Location{World: strings.TrimSpace(parts[0]), X: coords[0], Y: coords[1], Z: coords[2]}, nil
}

// Sign is the state of a placed sign block.
type Sign struct {
	Location  Location `json:"location" yaml:"location"`
	FrontLine string   `json:"front_line" yaml:"front_line"`
	Waxed     bool     `json:"waxed" yaml:"waxed"`
}

// Formatted reports whether the sign can be linked to a shop.
func (s Sign) Formatted() bool {
	return strings.TrimSpace(s.FrontLine) == SignHeader && s.Waxed
}

// SignLink ties a sign location to a shop.
type SignLink struct {
	Location Location  `json:"location"`
	Owner    uuid.UUID `json:"owner"`
	Shop     string    `json:"shop"`
}

const msgBadSign = "This sign is not formatted correctly. " +
	"The first line on the FRONT side should read 'Marketcraft'. " +
	"Other lines can include different text or be left blank. " +
	"Additionally, the sign must be waxed."

// Sign links are global: they live under the nil owner keyed by location.
func (s *Service) signLink(ctx context.Context, loc Location) (SignLink, bool, error) {
	link, err := s.signs.Load(ctx, uuid.Nil, loc.Key())
	if errors.Is(err, store.ErrNotFound) {
		return SignLink{}, false, nil
	}
	if err != nil {
		return SignLink{}, false, err
	}
	return link, true, nil
}

func (s *Service) allSigns(ctx context.Context) ([]SignLink, error) {
	keys, err := s.signs.Names(ctx, uuid.Nil)
	if err != nil {
		return nil, fmt.Errorf("list signs: %w", err)
	}
	links := make([]SignLink, 0, len(keys))
	for _, key := range keys {
		link, err := s.signs.Load(ctx, uuid.Nil, key)
		if err != nil {
			return nil, fmt.Errorf("list signs: %w", err)
		}
		links = append(links, link)
	}
	return links, nil
}

// Signs returns the sign links owned by a player.
func (s *Service) Signs(ctx context.Context, owner uuid.UUID) ([]SignLink, error) {
	links, err := s.allSigns(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Filter(links, func(l SignLink, _ int) bool { return l.Owner == owner }), nil
}

// SignsFor returns the sign links pointing at one shop.
func (s *Service) SignsFor(ctx context.Context, owner uuid.UUID, shop string) ([]SignLink, error) {
	links, err := s.Signs(ctx, owner)
	if err != nil {
		return nil, err
	}
	shop = NormalizeShopName(shop)
	return lo.Filter(links, func(l SignLink, _ int) bool { return l.Shop == shop }), nil
}

// LinkSign registers a formatted sign as the entrance to one of owner's shops.
func (s *Service) LinkSign(ctx context.Context, owner uuid.UUID, sign Sign, shop string) (SignLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !sign.Formatted() {
		return SignLink{}, s.refused(owner, refuse(CodeSignInvalid, msgBadSign))
	}
	shop = NormalizeShopName(shop)
	exists, err := s.shops.Exists(ctx, owner, shop)
	if err != nil {
		return SignLink{}, s.failed(owner, "link sign", err)
	}
	if !exists {
		return SignLink{}, s.refused(owner, refuse(CodeShopNotFound, "You do not have a shop by this name."))
	}
	if _, linked, err := s.signLink(ctx, sign.Location); err != nil {
		return SignLink{}, s.failed(owner, "link sign", err)
	} else if linked {
		return SignLink{}, s.refused(owner, refuse(CodeSignLinked, "This sign is already registered to a shop."))
	}
	owned, err := s.Signs(ctx, owner)
	if err != nil {
		return SignLink{}, s.failed(owner, "link sign", err)
	}
	if len(owned) >= s.limits.Signs {
		return SignLink{}, s.refused(owner, refuse(CodeSignLimit, "You have reached your limit of shop signs."))
	}

	link := SignLink{Location: sign.Location, Owner: owner, Shop: shop}
	if err := s.signs.Save(ctx, uuid.Nil, sign.Location.Key(), link); err != nil {
		s.logger.Warn("save sign failed", "owner", owner, "location", sign.Location.Key(), "error", err)
		s.tell(owner, "An error occurred while saving your sign data. Please try again later.")
		return SignLink{}, fmt.Errorf("link sign: %w", err)
	}
	s.tell(owner, "Sign registered for shop %s.", shop)
	return link, nil
}

// UnlinkSign removes the actor's sign link at loc.
func (s *Service) UnlinkSign(ctx context.Context, actor uuid.UUID, loc Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unlinkSign(ctx, actor, loc, false)
}

// AdminUnlinkSign removes any sign link at loc.
func (s *Service) AdminUnlinkSign(ctx context.Context, admin uuid.UUID, loc Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireAdmin(ctx, admin); err != nil {
		return err
	}
	return s.unlinkSign(ctx, admin, loc, true)
}

func (s *Service) unlinkSign(ctx context.Context, actor uuid.UUID, loc Location, override bool) error {
	link, linked, err := s.signLink(ctx, loc)
	if err != nil {
		return s.failed(actor, "unlink sign", err)
	}
	if !linked {
		return s.refused(actor, refuse(CodeSignNotFound, "No sign link found at this location."))
	}
	if !override && link.Owner != actor {
		return s.refused(actor, refuse(CodeNotOwner, "You do not have permission to remove this sign link."))
	}
	if _, err := s.signs.Delete(ctx, uuid.Nil, loc.Key()); err != nil {
		s.logger.Warn("remove sign failed", "location", loc.Key(), "error", err)
		s.tell(actor, "An error occurred while removing sign data. Please try again later.")
		return fmt.Errorf("unlink sign: %w", err)
	}
	s.tell(actor, "Sign link successfully removed.")
	return nil
}

// BreakSign decides whether the actor may break the sign at loc. Linked
// signs must be unlinked first.
func (s *Service) BreakSign(ctx context.Context, actor uuid.UUID, loc Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, linked, err := s.signLink(ctx, loc)
	if err != nil {
		return s.failed(actor, "break sign", err)
	}
	if !linked {
		return nil
	}
	admin := false
	if p, err := s.players.ByID(ctx, actor); err == nil {
		admin = p.Admin
	}
	if link.Owner == actor || admin {
		return s.refused(actor, refuse(CodeSignLinked, "This is a registered sign. Please unlink the sign before breaking it."))
	}
	return s.refused(actor, refuse(CodeNotOwner, "You do not have permission to break this sign."))
}

// UseSign opens the shop linked to the sign at loc for the actor.
func (s *Service) UseSign(ctx context.Context, actor uuid.UUID, loc Location) (*ShopView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, linked, err := s.signLink(ctx, loc)
	if err != nil {
		return nil, s.failed(actor, "use sign", err)
	}
	if !linked {
		return nil, s.refused(actor, refuse(CodeSignNotFound, "No sign link found at this location."))
	}
	exists, err := s.shops.Exists(ctx, link.Owner, link.Shop)
	if err != nil {
		return nil, s.failed(actor, "use sign", err)
	}
	if !exists {
		return nil, s.refused(actor, refuse(CodeShopNotFound, "This shop does not exist"))
	}
	s.tell(actor, "Opening shop %s", link.Shop)
	return s.openShop(ctx, actor, link.Owner, link.Shop)
}
