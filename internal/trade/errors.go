package trade

import (
	"errors"
	"fmt"
)

// RejectionCode categorizes an expected, user-facing purchase failure.
type RejectionCode string

const (
	// CodeNotTradeable means the shop lacks an offered or required item.
	CodeNotTradeable RejectionCode = "NOT_TRADEABLE"

	// CodeInsufficientStock means the vault holds less than one trade's worth of stock.
	CodeInsufficientStock RejectionCode = "INSUFFICIENT_STOCK"

	// CodeVaultFull means the vault's buying partition cannot take the payment.
	CodeVaultFull RejectionCode = "VAULT_FULL"

	// CodeInsufficientFunds means the buyer does not hold enough payment items.
	CodeInsufficientFunds RejectionCode = "INSUFFICIENT_FUNDS"

	// CodeInventoryFull means the buyer has no free slot for the purchased item.
	CodeInventoryFull RejectionCode = "INVENTORY_FULL"
)

// Rejection is a validation failure. It is reported to the buyer, not logged
// as an error, and guarantees nothing was changed.
type Rejection struct {
	Code    RejectionCode
	Message string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s: %s", r.Code, r.Message)
}

// IsRejection reports whether err is (or wraps) a Rejection.
func IsRejection(err error) bool {
	var r *Rejection
	return errors.As(err, &r)
}

// RejectionCodeOf returns the code of a wrapped Rejection, or "".
func RejectionCodeOf(err error) RejectionCode {
	var r *Rejection
	if errors.As(err, &r) {
		return r.Code
	}
	return ""
}

// ErrPlanOverflow is returned when a planned mutation could not place every
// item. The purchase is abandoned before anything is written.
var ErrPlanOverflow = errors.New("purchase plan does not fit")

var messages = map[RejectionCode]string{
	CodeNotTradeable:      "This shop is not set up for trading.",
	CodeInsufficientStock: "Insufficient stock in the shop for this purchase.",
	CodeVaultFull:         "Shop owner's vault does not have enough space for the transaction.",
	CodeInsufficientFunds: "You do not have enough items to make this purchase.",
	CodeInventoryFull:     "Your inventory is full. Unable to complete the purchase.",
}

func reject(code RejectionCode) *Rejection {
	return &Rejection{Code: code, Message: messages[code]}
}
