// Package outcome classifies what the hosted payment page did into a single
// terminal result per payment attempt.
package outcome

import "carelink-backend/internal/payment"

type Kind string

const (
	KindSuccess   Kind = "success"
	KindCancelled Kind = "cancelled"
	KindError     Kind = "error"
)

// Outcome is the result of one payment attempt. PaymentID and OrderID are set
// for KindSuccess, Message for KindError.
type Outcome struct {
	Kind      Kind   `json:"kind"`
	PaymentID string `json:"payment_id,omitempty"`
	OrderID   string `json:"order_id,omitempty"`
	Message   string `json:"message,omitempty"`
	Cause     error  `json:"-"`
}

// Err returns the payer-facing error of a failed outcome, nil otherwise.
func (o Outcome) Err() error {
	if o.Kind != KindError {
		return nil
	}
	return &payment.PaymentError{Message: o.Message, Err: o.Cause}
}

func Success(paymentID, orderID string) Outcome {
	return Outcome{Kind: KindSuccess, PaymentID: paymentID, OrderID: orderID}
}

func Cancelled() Outcome {
	return Outcome{Kind: KindCancelled}
}

func Error(message string) Outcome {
	return Outcome{Kind: KindError, Message: message}
}

type State string

const (
	StatePending   State = "pending"
	StateSucceeded State = "succeeded"
	StateCancelled State = "cancelled"
	StateFailed    State = "failed"
)

func (s State) Terminal() bool {
	return s != StatePending
}

func stateFor(k Kind) State {
	switch k {
	case KindSuccess:
		return StateSucceeded
	case KindCancelled:
		return StateCancelled
	default:
		return StateFailed
	}
}

// Source records which channel produced the outcome.
type Source string

const (
	SourceRedirect Source = "redirect"
	SourceMessage  Source = "message"
	SourceLoad     Source = "load_error"
	SourceDismiss  Source = "dismiss"
)
