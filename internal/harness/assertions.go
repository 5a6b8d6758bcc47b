package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/marketcraft/internal/item"
	"github.com/roach88/marketcraft/internal/market"
	"github.com/roach88/marketcraft/internal/vault"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Subject  string // What was measured
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed: %s %s: expected %s, got %s", e.Type, e.Subject, e.Expected, e.Actual)
}

// AssertionContext gives assertions access to the final market state.
type AssertionContext struct {
	Ctx     context.Context
	Market  *market.Service
	Players map[string]uuid.UUID
}

func (a *AssertionContext) player(name string) (uuid.UUID, error) {
	id, ok := a.Players[name]
	if !ok {
		return uuid.Nil, fmt.Errorf("unknown player %q", name)
	}
	return id, nil
}

// assertStock compares the shop's selling stock.
func assertStock(actx *AssertionContext, assertion Assertion) error {
	owner, err := actx.player(assertion.Owner)
	if err != nil {
		return err
	}
	n, err := actx.Market.Stock(actx.Ctx, owner, assertion.Shop)
	if err != nil {
		return fmt.Errorf("stock %s/%s: %w", assertion.Owner, assertion.Shop, err)
	}
	return compareCount(AssertStock, assertion.Owner+"/"+assertion.Shop, assertion.Count, n)
}

// assertInventoryCount compares how many of an item a player holds.
func assertInventoryCount(actx *AssertionContext, assertion Assertion) error {
	id, err := actx.player(assertion.Player)
	if err != nil {
		return err
	}
	want, err := item.Parse(assertion.Item)
	if err != nil {
		return err
	}
	inv, err := actx.Market.Inventory(actx.Ctx, id)
	if err != nil {
		return fmt.Errorf("inventory %s: %w", assertion.Player, err)
	}
	return compareCount(AssertInventoryCount, assertion.Player+" "+want.Type, assertion.Count, inv.Count(want))
}

// assertVaultCount compares how many of an item a vault holds, in one
// partition or across both.
func assertVaultCount(actx *AssertionContext, assertion Assertion) error {
	owner, err := actx.player(assertion.Owner)
	if err != nil {
		return err
	}
	want, err := item.Parse(assertion.Item)
	if err != nil {
		return err
	}
	slots, err := actx.Market.Vault(actx.Ctx, owner, assertion.Shop)
	if err != nil {
		return fmt.Errorf("vault %s/%s: %w", assertion.Owner, assertion.Shop, err)
	}

	layout := actx.Market.Layout()
	partitions := []vault.Partition{vault.Selling, vault.Buying}
	if assertion.Partition != "" {
		partitions = []vault.Partition{vault.Partition(assertion.Partition)}
	}
	n := 0
	names := make([]string, 0, len(partitions))
	for _, p := range partitions {
		n += slots.Count(layout, p, want)
		names = append(names, string(p))
	}

	subject := fmt.Sprintf("%s/%s %s %s", assertion.Owner, assertion.Shop, strings.Join(names, "+"), want.Type)
	return compareCount(AssertVaultCount, subject, assertion.Count, n)
}

// assertShopExists checks whether the shop is present.
func assertShopExists(actx *AssertionContext, assertion Assertion) error {
	owner, err := actx.player(assertion.Owner)
	if err != nil {
		return err
	}
	_, err = actx.Market.Shop(actx.Ctx, owner, assertion.Shop)
	exists := err == nil
	if err != nil && !market.IsCode(err, market.CodeShopNotFound) {
		return fmt.Errorf("shop %s/%s: %w", assertion.Owner, assertion.Shop, err)
	}
	if exists != assertion.Exists {
		return &AssertionError{
			Type:     AssertShopExists,
			Subject:  assertion.Owner + "/" + assertion.Shop,
			Expected: fmt.Sprint(assertion.Exists),
			Actual:   fmt.Sprint(exists),
		}
	}
	return nil
}

func compareCount(typ, subject string, want, got int) error {
	if want == got {
		return nil
	}
	return &AssertionError{
		Type:     typ,
		Subject:  subject,
		Expected: fmt.Sprint(want),
		Actual:   fmt.Sprint(got),
	}
}

// EvaluateAssertions evaluates all assertions against the final state.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertStock:
			err = assertStock(actx, assertion)
		case AssertInventoryCount:
			err = assertInventoryCount(actx, assertion)
		case AssertVaultCount:
			err = assertVaultCount(actx, assertion)
		case AssertShopExists:
			err = assertShopExists(actx, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
