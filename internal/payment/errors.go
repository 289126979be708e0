package payment

import (
	"errors"
	"strings"
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrHashGeneration      = errors.New("hash generation failed")
	ErrIncompletePayload   = errors.New("incomplete payment payload")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrNetwork             = errors.New("payment page network error")
	ErrInvalidSignature    = errors.New("invalid notification signature")
)

// IncompletePayloadError names the gateway fields that were empty.
type IncompletePayloadError struct {
	Missing []string
}

func (e *IncompletePayloadError) Error() string {
	return ErrIncompletePayload.Error() + ": missing " + strings.Join(e.Missing, ", ")
}

func (e *IncompletePayloadError) Is(target error) bool {
	return target == ErrIncompletePayload
}

// PaymentError is a failure that is shown to the payer as-is.
type PaymentError struct {
	Message string
	Err     error
}

func (e *PaymentError) Error() string {
	return e.Message
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}
