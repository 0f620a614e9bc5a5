package services

import (
	"errors"
	"fmt"
)

// Domain errors. Handlers branch on these with errors.Is; Code maps them to
// the machine-readable reason returned to clients.
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInsufficientPoints  = errors.New("insufficient points")
	ErrOutOfStock          = errors.New("voucher template is out of stock")
	ErrTemplateNotFound    = errors.New("voucher template not found")
	ErrTemplateInactive    = errors.New("voucher template is inactive")
	ErrAlreadyRedeemed     = errors.New("voucher already redeemed")
	ErrExpired             = errors.New("voucher expired")
	ErrDuplicateSubmission = errors.New("duplicate submission")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrBackendUnavailable  = errors.New("backend unavailable")
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrNotFound, "NotFound"},
	{ErrInvalidInput, "InvalidInput"},
	{ErrInsufficientBalance, "InsufficientBalance"},
	{ErrInsufficientPoints, "InsufficientPoints"},
	{ErrOutOfStock, "OutOfStock"},
	{ErrTemplateNotFound, "TemplateNotFound"},
	{ErrTemplateInactive, "TemplateInactive"},
	{ErrAlreadyRedeemed, "AlreadyRedeemed"},
	{ErrExpired, "Expired"},
	{ErrDuplicateSubmission, "DuplicateSubmission"},
	{ErrEmailTaken, "EmailTaken"},
	{ErrInvalidCredentials, "InvalidCredentials"},
	{ErrBackendUnavailable, "BackendUnavailable"},
}

// Code returns the reason code for err. Unknown errors are reported as
// BackendUnavailable so nothing internal leaks to the caller.
func Code(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return "BackendUnavailable"
}

// backendErr keeps err in the chain so driver labels such as
// TransientTransactionError still reach the session retry loop.
func backendErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrBackendUnavailable, err)
}

func invalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
