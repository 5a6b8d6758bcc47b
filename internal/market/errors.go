package market

import (
	"errors"
	"fmt"

	"github.com/roach88/marketcraft/internal/trade"
)

// Code categorizes a refused market operation.
type Code string

const (
	CodeShopNotFound   Code = "SHOP_NOT_FOUND"
	CodeShopLimit      Code = "SHOP_LIMIT"
	CodeInvalidShop    Code = "INVALID_SHOP"
	CodeVaultNotEmpty  Code = "VAULT_NOT_EMPTY"
	CodeInUse          Code = "IN_USE"
	CodeNotAdmin       Code = "NOT_ADMIN"
	CodeNotOwner       Code = "NOT_OWNER"
	CodeUnknownPlayer  Code = "UNKNOWN_PLAYER"
	CodeItemNotAllowed Code = "ITEM_NOT_ALLOWED"
	CodeVaultFull      Code = "VAULT_FULL"
	CodeInventoryFull  Code = "INVENTORY_FULL"
	CodeInvalidSlot    Code = "INVALID_SLOT"
	CodeViewClosed     Code = "VIEW_CLOSED"
	CodeSignInvalid    Code = "SIGN_INVALID"
	CodeSignLinked     Code = "SIGN_LINKED"
	CodeSignLimit      Code = "SIGN_LIMIT"
	CodeSignNotFound   Code = "SIGN_NOT_FOUND"
)

// Error is a refused operation. Message is what the acting player is told.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func refuse(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsCode reports whether err is a market Error with the given code.
func IsCode(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// IsRefusal reports whether err is an expected refusal (a market Error or a
// trade rejection) rather than an internal failure.
func IsRefusal(err error) bool {
	var e *Error
	return errors.As(err, &e) || trade.IsRejection(err)
}

// CodeOf returns the refusal code carried by err, "OK" for nil and "ERROR"
// for internal failures.
func CodeOf(err error) string {
	if err == nil {
		return "OK"
	}
	var e *Error
	if errors.As(err, &e) {
		return string(e.Code)
	}
	if c := trade.RejectionCodeOf(err); c != "" {
		return string(c)
	}
	return "ERROR"
}

// Player-facing messages that are not tied to a single refusal.
const (
	msgUnexpected   = "An unexpected error has occurred, please wait a moment then try again."
	msgNoPermission = "You don't have permission to run this command."
)
