package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"carelink-backend/internal/models"
	"carelink-backend/internal/payment"
	"carelink-backend/internal/payment/outcome"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrAttemptNotFound = errors.New("payment attempt not found")
	ErrUnknownEvent    = errors.New("unknown payment event")
	ErrNotifyMismatch  = errors.New("notification does not match payment attempt")
)

// EventKind is the type of signal the app forwards from the payment page.
type EventKind string

const (
	EventNavigation EventKind = "navigation"
	EventMessage    EventKind = "message"
	EventLoadError  EventKind = "load_error"
	EventDismiss    EventKind = "dismiss"
)

type PaymentEvent struct {
	Kind EventKind
	// URL is set for navigation events.
	URL string
	// Data is the raw in-page message for message events.
	Data []byte
	// Error describes a load error.
	Error string
}

type CheckoutResult struct {
	Attempt   *models.PaymentAttempt
	ActionURL string
	Fields    payment.FormPayload
}

type EventResult struct {
	Attempt *models.PaymentAttempt
	// Intercepted is true when the page must not load the navigated URL.
	Intercepted bool
}

type PaymentService struct {
	db       *gorm.DB
	driver   payment.Driver
	attempts *outcome.Registry
	log      *zap.Logger
}

func NewPaymentService(db *gorm.DB, driver payment.Driver, attempts *outcome.Registry, log *zap.Logger) *PaymentService {
	if log == nil {
		log = zap.NewNop()
	}
	return &PaymentService{db: db, driver: driver, attempts: attempts, log: log}
}

func newOrderID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// StartCheckout opens a new attempt with a fresh order id. Nothing is stored
// when the payload cannot be built.
func (s *PaymentService) StartCheckout(ctx context.Context, userID uint, req payment.PaymentRequest) (*CheckoutResult, error) {
	if req.OrderID != "" {
		s.log.Debug("Replacing client supplied order id", zap.String("client_order_id", req.OrderID))
	}
	req.OrderID = newOrderID()

	checkout, err := s.driver.Checkout(req)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(checkout.Fields)
	if err != nil {
		return nil, err
	}

	attempt := &models.PaymentAttempt{
		ID:       req.OrderID,
		UserID:   userID,
		Amount:   req.Amount.Round(2),
		Currency: checkout.Fields[payment.FieldCurrency],
		Items:    req.Items,
		Status:   models.PaymentStatusPending,
		Payload:  datatypes.JSON(payload),
	}
	if err := s.db.WithContext(ctx).Create(attempt).Error; err != nil {
		return nil, err
	}

	if _, err := s.openInterceptor(attempt); err != nil {
		return nil, err
	}

	s.log.Info("Payment attempt started",
		zap.String("order_id", attempt.ID),
		zap.Uint("user_id", userID),
		zap.String("amount", checkout.Fields[payment.FieldAmount]),
		zap.String("currency", attempt.Currency))

	return &CheckoutResult{Attempt: attempt, ActionURL: checkout.ActionURL, Fields: checkout.Fields}, nil
}

func (s *PaymentService) openInterceptor(attempt *models.PaymentAttempt) (*outcome.Interceptor, error) {
	var fields payment.FormPayload
	if err := json.Unmarshal(attempt.Payload, &fields); err != nil {
		return nil, fmt.Errorf("read payload of attempt %s: %w", attempt.ID, err)
	}

	orderID := attempt.ID
	i, err := s.attempts.Open(outcome.Options{
		ReturnURL: fields[payment.FieldReturnURL],
		CancelURL: fields[payment.FieldCancelURL],
		OrderID:   orderID,
		Logger:    s.log,
		OnResolve: func(o outcome.Outcome, src outcome.Source) {
			s.recordOutcome(orderID, o, src)
		},
	})
	if errors.Is(err, outcome.ErrAttemptExists) {
		if existing, ok := s.attempts.Get(orderID); ok {
			return existing, nil
		}
	}
	return i, err
}

// recordOutcome persists the first terminal outcome. The status guard in the
// WHERE clause keeps it first-wins across processes as well.
func (s *PaymentService) recordOutcome(orderID string, o outcome.Outcome, src outcome.Source) {
	defer s.attempts.Close(orderID)

	status := models.PaymentStatusFailed
	switch o.Kind {
	case outcome.KindSuccess:
		status = models.PaymentStatusSucceeded
	case outcome.KindCancelled:
		status = models.PaymentStatusCancelled
	}

	now := time.Now()
	res := s.db.Model(&models.PaymentAttempt{}).
		Where("id = ? AND status = ?", orderID, models.PaymentStatusPending).
		Updates(map[string]interface{}{
			"status":          status,
			"payment_id":      o.PaymentID,
			"failure_message": o.Message,
			"resolved_by":     string(src),
			"resolved_at":     &now,
			"updated_at":      now,
		})
	if res.Error != nil {
		s.log.Error("Failed to record payment outcome", zap.String("order_id", orderID), zap.Error(res.Error))
		return
	}
	if res.RowsAffected == 0 {
		s.log.Warn("Payment attempt was already resolved", zap.String("order_id", orderID))
	}
}

// GetAttempt returns an attempt owned by userID.
func (s *PaymentService) GetAttempt(ctx context.Context, userID uint, orderID string) (*models.PaymentAttempt, error) {
	var attempt models.PaymentAttempt
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", orderID, userID).First(&attempt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAttemptNotFound
	}
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

// HandleEvent feeds a payment page signal to the attempt's interceptor.
// Signals for resolved attempts are no-ops.
func (s *PaymentService) HandleEvent(ctx context.Context, userID uint, orderID string, ev PaymentEvent) (*EventResult, error) {
	attempt, err := s.GetAttempt(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	if attempt.Status.Terminal() {
		intercepted := false
		if ev.Kind == EventNavigation {
			// Still tell the page to stop at the return or cancel URL.
			matcher := outcome.NewInterceptor(s.interceptorOptions(attempt))
			intercepted = matcher.HandleNavigation(ev.URL)
		}
		return &EventResult{Attempt: attempt, Intercepted: intercepted}, nil
	}

	interceptor, ok := s.attempts.Get(orderID)
	if !ok {
		// Attempt opened by an earlier process.
		interceptor, err = s.openInterceptor(attempt)
		if err != nil {
			return nil, err
		}
	}

	result := &EventResult{}
	switch ev.Kind {
	case EventNavigation:
		result.Intercepted = interceptor.HandleNavigation(ev.URL)
	case EventMessage:
		interceptor.HandleMessage(ev.Data)
	case EventLoadError:
		interceptor.HandleLoadError(errors.New(ev.Error))
	case EventDismiss:
		interceptor.Dismiss()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Kind)
	}

	result.Attempt, err = s.GetAttempt(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *PaymentService) interceptorOptions(attempt *models.PaymentAttempt) outcome.Options {
	var fields payment.FormPayload
	_ = json.Unmarshal(attempt.Payload, &fields)
	return outcome.Options{
		ReturnURL: fields[payment.FieldReturnURL],
		CancelURL: fields[payment.FieldCancelURL],
		OrderID:   attempt.ID,
	}
}

// HandleNotify verifies and stores a gateway notification. The client side
// outcome of the attempt is left untouched.
func (s *PaymentService) HandleNotify(ctx context.Context, params map[string]string) (*models.PaymentAttempt, error) {
	n, err := s.driver.VerifyNotification(params)
	if err != nil {
		return nil, err
	}

	var attempt models.PaymentAttempt
	if err := s.db.WithContext(ctx).First(&attempt, "id = ?", n.OrderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}

	amount, err := payment.NormalizeAmount(n.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotifyMismatch, err)
	}
	if amount != attempt.Amount.StringFixed(2) || !strings.EqualFold(n.Currency, attempt.Currency) {
		s.log.Warn("Notification amount does not match attempt",
			zap.String("order_id", attempt.ID),
			zap.String("notified_amount", amount),
			zap.String("notified_currency", n.Currency))
		return nil, ErrNotifyMismatch
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&attempt).Updates(map[string]interface{}{
		"gateway_status":     string(n.Status),
		"gateway_payment_id": n.PaymentID,
		"gateway_method":     n.Method,
		"notified_at":        &now,
		"updated_at":         now,
	}).Error; err != nil {
		return nil, err
	}

	s.log.Info("Gateway notification recorded",
		zap.String("order_id", attempt.ID),
		zap.String("gateway_status", string(n.Status)),
		zap.String("payment_id", n.PaymentID))
	return &attempt, nil
}

// ExpirePending cancels attempts that stayed pending longer than maxAge, as
// if the user had left the payment page. It returns how many were dismissed.
func (s *PaymentService) ExpirePending(ctx context.Context, maxAge time.Duration) (int, error) {
	var stale []models.PaymentAttempt
	cutoff := time.Now().Add(-maxAge)
	if err := s.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", models.PaymentStatusPending, cutoff).
		Find(&stale).Error; err != nil {
		return 0, err
	}

	expired := 0
	for i := range stale {
		interceptor, ok := s.attempts.Get(stale[i].ID)
		if !ok {
			var err error
			interceptor, err = s.openInterceptor(&stale[i])
			if err != nil {
				s.log.Error("Cannot expire payment attempt", zap.String("order_id", stale[i].ID), zap.Error(err))
				continue
			}
		}
		interceptor.Dismiss()
		expired++
	}
	return expired, nil
}
