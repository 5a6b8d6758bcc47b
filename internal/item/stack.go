package item

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultMaxStack is the stack size used when a descriptor does not carry one.
const DefaultMaxStack = 64

// Stack is a typed, counted item descriptor.
type Stack struct {
	Type     string `json:"type" yaml:"type"`
	Amount   int    `json:"amount" yaml:"amount"`
	MaxStack int    `json:"max_stack,omitempty" yaml:"max_stack,omitempty"`
	Meta     []byte `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// New returns a normalized stack of the given type and amount.
func New(typ string, amount int) Stack {
	return Stack{Type: NormalizeType(typ), Amount: amount, MaxStack: DefaultMaxStack}
}

// NormalizeType canonicalizes an item type name: NFC, trimmed, upper case.
func NormalizeType(typ string) string {
	return strings.ToUpper(strings.TrimSpace(norm.NFC.String(typ)))
}

// Normalize returns a copy with a canonical type and a non-zero max stack.
func (s Stack) Normalize() Stack {
	s.Type = NormalizeType(s.Type)
	if s.MaxStack <= 0 {
		s.MaxStack = DefaultMaxStack
	}
	return s
}

// Max returns the effective maximum stack size.
func (s Stack) Max() int {
	if s.MaxStack <= 0 {
		return DefaultMaxStack
	}
	return s.MaxStack
}

// IsEmpty reports whether the stack represents an empty slot.
func (s Stack) IsEmpty() bool {
	return s.Type == "" || s.Amount <= 0
}

// Similar reports whether two stacks are interchangeable, ignoring Amount.
func Similar(a, b Stack) bool {
	if a.IsEmpty() || b.IsEmpty() {
		return false
	}
	return NormalizeType(a.Type) == NormalizeType(b.Type) &&
		a.Max() == b.Max() &&
		bytes.Equal(a.Meta, b.Meta)
}

// WithAmount returns a copy of the stack holding n items.
func (s Stack) WithAmount(n int) Stack {
	s.Amount = n
	if s.Meta != nil {
		s.Meta = append([]byte(nil), s.Meta...)
	}
	return s
}

// Validate checks that the stack can be used as a shop offer or payment.
func (s Stack) Validate() error {
	if NormalizeType(s.Type) == "" {
		return fmt.Errorf("item type is required")
	}
	if s.Amount <= 0 {
		return fmt.Errorf("item %s: amount must be positive, got %d", s.Type, s.Amount)
	}
	if s.Amount > s.Max() {
		return fmt.Errorf("item %s: amount %d exceeds max stack size %d", s.Type, s.Amount, s.Max())
	}
	return nil
}

// String renders the stack as TYPE:amount.
func (s Stack) String() string {
	if s.IsEmpty() {
		return "empty"
	}
	return s.Type + ":" + strconv.Itoa(s.Amount)
}

// Parse reads a TYPE:amount pair. The amount defaults to 1 when omitted.
func Parse(text string) (Stack, error) {
	typ, amountText, found := strings.Cut(text, ":")
	amount := 1
	if found {
		n, err := strconv.Atoi(strings.TrimSpace(amountText))
		if err != nil {
			return Stack{}, fmt.Errorf("parse item %q: invalid amount: %w", text, err)
		}
		amount = n
	}
	s := New(typ, amount)
	if err := s.Validate(); err != nil {
		return Stack{}, fmt.Errorf("parse item %q: %w", text, err)
	}
	return s, nil
}
