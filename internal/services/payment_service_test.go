package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"carelink-backend/internal/models"
	"carelink-backend/internal/payment"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkoutRequest() payment.PaymentRequest {
	return payment.PaymentRequest{
		OrderID: "client-chosen",
		Amount:  decimal.RequireFromString("1500.5"),
		Items:   "Consultation",
		Customer: payment.Customer{
			FirstName: "Nimal", LastName: "Perera", Email: "nimal@example.com", Phone: "0771234567",
			Address: "Galle Road", City: "Colombo", Country: "Sri Lanka",
		},
	}
}

func TestStartCheckout(t *testing.T) {
	svc, db, registry := newTestPaymentService(t)
	ctx := context.Background()

	res, err := svc.StartCheckout(ctx, 7, checkoutRequest())
	require.NoError(t, err)

	orderID := res.Attempt.ID
	assert.Len(t, orderID, 32)
	assert.NotEqual(t, "client-chosen", orderID)
	assert.Equal(t, orderID, res.Fields[payment.FieldOrderID])
	assert.Equal(t, "1500.50", res.Fields[payment.FieldAmount])
	assert.Equal(t, "LKR", res.Fields[payment.FieldCurrency])
	hash, err := payment.ComputeHash("1211149", orderID, "1500.50", "LKR", "secret123")
	require.NoError(t, err)
	assert.Equal(t, hash, res.Fields[payment.FieldHash])

	var stored models.PaymentAttempt
	require.NoError(t, db.First(&stored, "id = ?", orderID).Error)
	assert.Equal(t, models.PaymentStatusPending, stored.Status)
	assert.Equal(t, uint(7), stored.UserID)
	assert.Equal(t, "1500.50", stored.Amount.StringFixed(2))

	_, ok := registry.Get(orderID)
	assert.True(t, ok)

	second, err := svc.StartCheckout(ctx, 7, checkoutRequest())
	require.NoError(t, err)
	assert.NotEqual(t, orderID, second.Attempt.ID)
}

func TestStartCheckoutInvalidStoresNothing(t *testing.T) {
	svc, db, registry := newTestPaymentService(t)

	req := checkoutRequest()
	req.Amount = decimal.Zero
	_, err := svc.StartCheckout(context.Background(), 7, req)
	assert.ErrorIs(t, err, payment.ErrInvalidAmount)

	req = checkoutRequest()
	req.Currency = "JPY"
	_, err = svc.StartCheckout(context.Background(), 7, req)
	assert.ErrorIs(t, err, payment.ErrUnsupportedCurrency)

	var count int64
	db.Model(&models.PaymentAttempt{}).Count(&count)
	assert.Zero(t, count)
	assert.Zero(t, registry.Len())
}

func TestHandleEventRedirectSuccess(t *testing.T) {
	svc, _, registry := newTestPaymentService(t)
	ctx := context.Background()

	res, err := svc.StartCheckout(ctx, 7, checkoutRequest())
	require.NoError(t, err)
	orderID := res.Attempt.ID

	ev, err := svc.HandleEvent(ctx, 7, orderID, PaymentEvent{Kind: EventNavigation, URL: "https://sandbox.payhere.lk/pay/step2"})
	require.NoError(t, err)
	assert.False(t, ev.Intercepted)
	assert.Equal(t, models.PaymentStatusPending, ev.Attempt.Status)

	url := fmt.Sprintf("%s?status_code=2&payment_id=PAY42&order_id=%s", testReturnURL, orderID)
	ev, err = svc.HandleEvent(ctx, 7, orderID, PaymentEvent{Kind: EventNavigation, URL: url})
	require.NoError(t, err)
	assert.True(t, ev.Intercepted)
	assert.Equal(t, models.PaymentStatusSucceeded, ev.Attempt.Status)
	assert.Equal(t, "PAY42", ev.Attempt.PaymentID)
	assert.Equal(t, "redirect", ev.Attempt.ResolvedBy)
	assert.NotNil(t, ev.Attempt.ResolvedAt)
	assert.Zero(t, registry.Len())

	// Later signals do not change the outcome.
	ev, err = svc.HandleEvent(ctx, 7, orderID, PaymentEvent{Kind: EventMessage, Data: []byte(`{"type":"payment_error","message":"late"}`)})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSucceeded, ev.Attempt.Status)

	ev, err = svc.HandleEvent(ctx, 7, orderID, PaymentEvent{Kind: EventNavigation, URL: testCancelURL})
	require.NoError(t, err)
	assert.True(t, ev.Intercepted)
	assert.Equal(t, models.PaymentStatusSucceeded, ev.Attempt.Status)
}

func TestHandleEventOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		event   func(orderID string) PaymentEvent
		status  models.PaymentStatus
		source  string
		message string
	}{
		{
			name:   "Cancel redirect",
			event:  func(string) PaymentEvent { return PaymentEvent{Kind: EventNavigation, URL: testCancelURL + "?order_id=x"} },
			status: models.PaymentStatusCancelled,
			source: "redirect",
		},
		{
			name: "Return without success code",
			event: func(id string) PaymentEvent {
				return PaymentEvent{Kind: EventNavigation, URL: testReturnURL + "?status_code=-2&order_id=" + id}
			},
			status:  models.PaymentStatusFailed,
			source:  "redirect",
			message: "Payment was not completed (status_code=-2)",
		},
		{
			name: "Success message",
			event: func(id string) PaymentEvent {
				return PaymentEvent{Kind: EventMessage, Data: []byte(`{"type":"payment_success","payment_id":"P1"}`)}
			},
			status: models.PaymentStatusSucceeded,
			source: "message",
		},
		{
			name:    "Error message",
			event:   func(string) PaymentEvent { return PaymentEvent{Kind: EventMessage, Data: []byte(`{"type":"payment_error"}`)} },
			status:  models.PaymentStatusFailed,
			source:  "message",
			message: "Payment failed",
		},
		{
			name:    "Load error",
			event:   func(string) PaymentEvent { return PaymentEvent{Kind: EventLoadError, Error: "net::ERR_INTERNET_DISCONNECTED"} },
			status:  models.PaymentStatusFailed,
			source:  "load_error",
			message: "Payment page failed to load. Please check your connection and try again.",
		},
		{
			name:   "Dismiss",
			event:  func(string) PaymentEvent { return PaymentEvent{Kind: EventDismiss} },
			status: models.PaymentStatusCancelled,
			source: "dismiss",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestPaymentService(t)
			ctx := context.Background()
			res, err := svc.StartCheckout(ctx, 3, checkoutRequest())
			require.NoError(t, err)

			ev, err := svc.HandleEvent(ctx, 3, res.Attempt.ID, tt.event(res.Attempt.ID))
			require.NoError(t, err)
			assert.Equal(t, tt.status, ev.Attempt.Status)
			assert.Equal(t, tt.source, ev.Attempt.ResolvedBy)
			assert.Equal(t, tt.message, ev.Attempt.FailureMessage)
		})
	}
}

func TestHandleEventIgnoresMalformedMessage(t *testing.T) {
	svc, _, _ := newTestPaymentService(t)
	ctx := context.Background()
	res, err := svc.StartCheckout(ctx, 3, checkoutRequest())
	require.NoError(t, err)

	for _, data := range []string{`not json`, `{"type":"payment_success"}`, `{"type":"payment_success","payment_id":"P","order_id":"other"}`, `{"type":"resize"}`} {
		ev, err := svc.HandleEvent(ctx, 3, res.Attempt.ID, PaymentEvent{Kind: EventMessage, Data: []byte(data)})
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusPending, ev.Attempt.Status, data)
	}
}

func TestHandleEventErrors(t *testing.T) {
	svc, _, _ := newTestPaymentService(t)
	ctx := context.Background()
	res, err := svc.StartCheckout(ctx, 3, checkoutRequest())
	require.NoError(t, err)

	_, err = svc.HandleEvent(ctx, 4, res.Attempt.ID, PaymentEvent{Kind: EventDismiss})
	assert.ErrorIs(t, err, ErrAttemptNotFound)

	_, err = svc.HandleEvent(ctx, 3, "missing", PaymentEvent{Kind: EventDismiss})
	assert.ErrorIs(t, err, ErrAttemptNotFound)

	_, err = svc.HandleEvent(ctx, 3, res.Attempt.ID, PaymentEvent{Kind: "teleport"})
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestHandleEventReopensAfterRestart(t *testing.T) {
	svc, _, registry := newTestPaymentService(t)
	ctx := context.Background()
	res, err := svc.StartCheckout(ctx, 3, checkoutRequest())
	require.NoError(t, err)

	registry.Close(res.Attempt.ID)

	ev, err := svc.HandleEvent(ctx, 3, res.Attempt.ID, PaymentEvent{Kind: EventNavigation, URL: testCancelURL})
	require.NoError(t, err)
	assert.True(t, ev.Intercepted)
	assert.Equal(t, models.PaymentStatusCancelled, ev.Attempt.Status)
}

func TestHandleEventConcurrentSignals(t *testing.T) {
	svc, db, _ := newTestPaymentService(t)
	ctx := context.Background()
	res, err := svc.StartCheckout(ctx, 3, checkoutRequest())
	require.NoError(t, err)
	orderID := res.Attempt.ID

	events := []PaymentEvent{
		{Kind: EventNavigation, URL: testReturnURL + "?status_code=2&payment_id=P9&order_id=" + orderID},
		{Kind: EventMessage, Data: []byte(`{"type":"payment_cancel"}`)},
		{Kind: EventDismiss},
	}
	var wg sync.WaitGroup
	for _, ev := range events {
		wg.Add(1)
		go func(ev PaymentEvent) {
			defer wg.Done()
			_, _ = svc.HandleEvent(ctx, 3, orderID, ev)
		}(ev)
	}
	wg.Wait()

	var stored models.PaymentAttempt
	require.NoError(t, db.First(&stored, "id = ?", orderID).Error)
	assert.True(t, stored.Status.Terminal())
	assert.NotEmpty(t, stored.ResolvedBy)
}

func TestHandleNotify(t *testing.T) {
	svc, db, _ := newTestPaymentService(t)
	ctx := context.Background()
	res, err := svc.StartCheckout(ctx, 3, checkoutRequest())
	require.NoError(t, err)
	orderID := res.Attempt.ID

	params := func(amount, currency, status string) map[string]string {
		return map[string]string{
			"merchant_id":      "1211149",
			"order_id":         orderID,
			"payment_id":       "320025071278",
			"payhere_amount":   amount,
			"payhere_currency": currency,
			"status_code":      status,
			"method":           "VISA",
			"md5sig":           payment.ComputeNotifySignature("1211149", orderID, amount, currency, status, "secret123"),
		}
	}

	_, err = svc.HandleNotify(ctx, params("99.00", "LKR", "2"))
	assert.ErrorIs(t, err, ErrNotifyMismatch)

	bad := params("1500.50", "LKR", "2")
	bad["md5sig"] = "00000000000000000000000000000000"
	_, err = svc.HandleNotify(ctx, bad)
	assert.ErrorIs(t, err, payment.ErrInvalidSignature)

	_, err = svc.HandleNotify(ctx, params("1500.50", "LKR", "2"))
	require.NoError(t, err)

	var stored models.PaymentAttempt
	require.NoError(t, db.First(&stored, "id = ?", orderID).Error)
	assert.Equal(t, string(payment.NotifySucceeded), stored.GatewayStatus)
	assert.Equal(t, "320025071278", stored.GatewayPaymentID)
	assert.Equal(t, "VISA", stored.GatewayMethod)
	assert.NotNil(t, stored.NotifiedAt)
	assert.Equal(t, models.PaymentStatusPending, stored.Status)
}

func TestExpirePending(t *testing.T) {
	svc, db, registry := newTestPaymentService(t)
	ctx := context.Background()

	old, err := svc.StartCheckout(ctx, 3, checkoutRequest())
	require.NoError(t, err)
	fresh, err := svc.StartCheckout(ctx, 3, checkoutRequest())
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.PaymentAttempt{}).
		Where("id = ?", old.Attempt.ID).
		UpdateColumn("created_at", time.Now().Add(-2*time.Hour)).Error)

	n, err := svc.ExpirePending(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := svc.GetAttempt(ctx, 3, old.Attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCancelled, got.Status)
	assert.Equal(t, "dismiss", got.ResolvedBy)

	got, err = svc.GetAttempt(ctx, 3, fresh.Attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, got.Status)
	assert.Equal(t, 1, registry.Len())
}

func TestExpirePendingSkipsUnreadableAttempts(t *testing.T) {
	svc, db, registry := newTestPaymentService(t)
	ctx := context.Background()

	good, err := svc.StartCheckout(ctx, 3, checkoutRequest())
	require.NoError(t, err)
	broken, err := svc.StartCheckout(ctx, 3, checkoutRequest())
	require.NoError(t, err)

	// Simulate a restart: the broken attempt has no live interceptor and its
	// stored payload cannot be decoded.
	registry.Close(broken.Attempt.ID)
	require.NoError(t, db.Model(&models.PaymentAttempt{}).
		Where("id = ?", broken.Attempt.ID).
		UpdateColumn("payload", `"not a form"`).Error)
	require.NoError(t, db.Model(&models.PaymentAttempt{}).
		Where("id IN ?", []string{good.Attempt.ID, broken.Attempt.ID}).
		UpdateColumn("created_at", time.Now().Add(-2*time.Hour)).Error)

	n, err := svc.ExpirePending(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := svc.GetAttempt(ctx, 3, good.Attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCancelled, got.Status)

	got, err = svc.GetAttempt(ctx, 3, broken.Attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, got.Status)
}

func TestAttemptReaper(t *testing.T) {
	svc, db, _ := newTestPaymentService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	res, err := svc.StartCheckout(ctx, 3, checkoutRequest())
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.PaymentAttempt{}).
		Where("id = ?", res.Attempt.ID).
		UpdateColumn("created_at", time.Now().Add(-time.Hour)).Error)

	reaper := NewAttemptReaper(svc, 10*time.Millisecond, time.Minute, nil)
	go reaper.Start(ctx)
	defer reaper.Stop()

	assert.Eventually(t, func() bool {
		got, err := svc.GetAttempt(ctx, 3, res.Attempt.ID)
		return err == nil && got.Status == models.PaymentStatusCancelled
	}, 2*time.Second, 20*time.Millisecond)
}

func TestAttemptReaperRejectsNonPositiveSettings(t *testing.T) {
	svc, db, _ := newTestPaymentService(t)
	ctx := context.Background()

	res, err := svc.StartCheckout(ctx, 3, checkoutRequest())
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.PaymentAttempt{}).
		Where("id = ?", res.Attempt.ID).
		UpdateColumn("created_at", time.Now().Add(-time.Hour)).Error)

	for _, r := range []*AttemptReaper{
		NewAttemptReaper(svc, 0, time.Minute, nil),
		NewAttemptReaper(svc, -time.Second, time.Minute, nil),
		NewAttemptReaper(svc, time.Millisecond, 0, nil),
	} {
		assert.NotPanics(t, func() { r.Start(ctx) })
		r.Stop()
	}

	got, err := svc.GetAttempt(ctx, 3, res.Attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, got.Status)
}
