package payment

import (
	"encoding/json"
	"time"

	"carelink-backend/internal/models"
)

// CheckoutResponse carries everything the app needs to post the gateway form.
type CheckoutResponse struct {
	OrderID   string            `json:"order_id"`
	ActionURL string            `json:"action_url"`
	Fields    map[string]string `json:"fields"`
	Status    string            `json:"status"`
}

type EventRequest struct {
	Type string `json:"type" binding:"required,oneof=navigation message load_error dismiss"`
	URL  string `json:"url" binding:"required_if=Type navigation"`
	// Data is the in-page message, either as a JSON object or as the raw
	// string the page posted.
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

// messageBytes returns the message payload as the page sent it.
func (r EventRequest) messageBytes() []byte {
	var s string
	if err := json.Unmarshal(r.Data, &s); err == nil {
		return []byte(s)
	}
	return r.Data
}

type AttemptResponse struct {
	OrderID       string     `json:"order_id"`
	Status        string     `json:"status"`
	Amount        string     `json:"amount"`
	Currency      string     `json:"currency"`
	Items         string     `json:"items,omitempty"`
	PaymentID     string     `json:"payment_id,omitempty"`
	Message       string     `json:"message,omitempty"`
	ResolvedBy    string     `json:"resolved_by,omitempty"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
	GatewayStatus string     `json:"gateway_status,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func NewAttemptResponse(a *models.PaymentAttempt) AttemptResponse {
	return AttemptResponse{
		OrderID:       a.ID,
		Status:        string(a.Status),
		Amount:        a.Amount.StringFixed(2),
		Currency:      a.Currency,
		Items:         a.Items,
		PaymentID:     a.PaymentID,
		Message:       a.FailureMessage,
		ResolvedBy:    a.ResolvedBy,
		ResolvedAt:    a.ResolvedAt,
		GatewayStatus: a.GatewayStatus,
		CreatedAt:     a.CreatedAt,
	}
}

type EventResponse struct {
	// Intercepted tells the app to stop loading the navigated URL.
	Intercepted bool            `json:"intercepted"`
	Attempt     AttemptResponse `json:"attempt"`
}
