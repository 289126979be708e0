package outcome

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"carelink-backend/internal/payment"

	"go.uber.org/zap"
)

// DefaultSuccessCode is the status_code the gateway puts on the return URL of
// a completed payment.
const DefaultSuccessCode = "2"

// In-page message types posted by the hosted payment page.
const (
	MessagePaymentSuccess = "payment_success"
	MessagePaymentError   = "payment_error"
	MessagePaymentCancel  = "payment_cancel"
)

type Options struct {
	// ReturnURL and CancelURL are matched as prefixes of observed URLs.
	ReturnURL string
	CancelURL string
	// OrderID, when set, must match the order_id of a success redirect.
	OrderID     string
	SuccessCode string
	// OnResolve is called exactly once, outside the interceptor's lock.
	OnResolve func(Outcome, Source)
	Logger    *zap.Logger
}

// Interceptor watches the navigation and message events of one payment
// attempt. The first terminal signal wins; every later signal is a no-op.
// It is safe for concurrent use.
type Interceptor struct {
	opts Options
	log  *zap.Logger

	mu      sync.Mutex
	state   State
	outcome Outcome
	source  Source
}

func NewInterceptor(opts Options) *Interceptor {
	if opts.SuccessCode == "" {
		opts.SuccessCode = DefaultSuccessCode
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Interceptor{
		opts:  opts,
		log:   log.With(zap.String("order_id", opts.OrderID)),
		state: StatePending,
	}
}

func (i *Interceptor) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// Outcome returns the terminal outcome and its source, or false while pending.
func (i *Interceptor) Outcome() (Outcome, Source, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.state.Terminal() {
		return Outcome{}, "", false
	}
	return i.outcome, i.source, true
}

// HandleNavigation classifies a URL the payment page is about to load. It
// reports whether the URL belongs to the payment flow's return or cancel
// targets, in which case the caller should stop loading it.
func (i *Interceptor) HandleNavigation(rawURL string) bool {
	target := i.match(rawURL)
	switch target {
	case matchCancel:
		i.resolve(Cancelled(), SourceRedirect)
		return true
	case matchReturn:
		i.resolve(i.classifyReturn(rawURL), SourceRedirect)
		return true
	default:
		return false
	}
}

type matchKind int

const (
	matchNone matchKind = iota
	matchReturn
	matchCancel
)

// match picks the longest configured prefix, so a cancel URL nested under the
// return URL (or the reverse) is still told apart.
func (i *Interceptor) match(rawURL string) matchKind {
	returnHit := hasURLPrefix(rawURL, i.opts.ReturnURL)
	cancelHit := hasURLPrefix(rawURL, i.opts.CancelURL)
	switch {
	case returnHit && cancelHit:
		if len(i.opts.CancelURL) >= len(i.opts.ReturnURL) {
			return matchCancel
		}
		return matchReturn
	case cancelHit:
		return matchCancel
	case returnHit:
		return matchReturn
	}
	return matchNone
}

// hasURLPrefix reports whether rawURL is prefix itself or lies below it. The
// prefix must end on a path, query or fragment boundary, so ".../return"
// does not match ".../returns-policy".
func hasURLPrefix(rawURL, prefix string) bool {
	if prefix == "" || !strings.HasPrefix(rawURL, prefix) {
		return false
	}
	if len(rawURL) == len(prefix) || strings.ContainsAny(prefix[len(prefix)-1:], "/?#&") {
		return true
	}
	switch rawURL[len(prefix)] {
	case '/', '?', '#':
		return true
	}
	return false
}

func (i *Interceptor) classifyReturn(rawURL string) Outcome {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Error("Payment response could not be read")
	}
	q := u.Query()
	status := strings.TrimSpace(q.Get("status_code"))
	paymentID := strings.TrimSpace(q.Get("payment_id"))
	orderID := strings.TrimSpace(q.Get("order_id"))

	switch {
	case status == "":
		return Error("Payment response is missing a status code")
	case status != i.opts.SuccessCode:
		return Error(fmt.Sprintf("Payment was not completed (status_code=%s)", status))
	case paymentID == "":
		return Error("Payment response is missing payment_id")
	case orderID == "":
		return Error("Payment response is missing order_id")
	case i.opts.OrderID != "" && orderID != i.opts.OrderID:
		return Error("Payment response belongs to a different order")
	}
	return Success(paymentID, orderID)
}

type pageMessage struct {
	Type      string `json:"type"`
	PaymentID string `json:"payment_id"`
	OrderID   string `json:"order_id"`
	Message   string `json:"message"`
}

// HandleMessage processes an in-page message. The channel is best effort:
// anything malformed is logged and dropped. It reports whether the message
// was understood.
func (i *Interceptor) HandleMessage(data []byte) bool {
	var msg pageMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		i.log.Warn("Ignoring unparseable payment message", zap.Error(err))
		return false
	}

	switch msg.Type {
	case MessagePaymentSuccess:
		orderID := msg.OrderID
		if orderID == "" {
			orderID = i.opts.OrderID
		}
		if msg.PaymentID == "" || orderID == "" {
			i.log.Warn("Ignoring payment_success message without identifiers")
			return false
		}
		if i.opts.OrderID != "" && orderID != i.opts.OrderID {
			i.log.Warn("Ignoring payment_success message for another order", zap.String("message_order_id", orderID))
			return false
		}
		i.resolve(Success(msg.PaymentID, orderID), SourceMessage)
	case MessagePaymentError:
		text := msg.Message
		if text == "" {
			text = "Payment failed"
		}
		i.resolve(Error(text), SourceMessage)
	case MessagePaymentCancel:
		i.resolve(Cancelled(), SourceMessage)
	default:
		i.log.Warn("Ignoring payment message of unknown type", zap.String("type", msg.Type))
		return false
	}
	return true
}

// HandleLoadError fails the attempt after a non-recoverable load or network
// error of the payment page.
func (i *Interceptor) HandleLoadError(err error) {
	o := Error("Payment page failed to load. Please check your connection and try again.")
	o.Cause = fmt.Errorf("%w: %v", payment.ErrNetwork, err)
	i.resolve(o, SourceLoad)
}

// Dismiss cancels the attempt if the user leaves before any terminal signal.
func (i *Interceptor) Dismiss() {
	i.resolve(Cancelled(), SourceDismiss)
}

func (i *Interceptor) resolve(o Outcome, src Source) bool {
	i.mu.Lock()
	if i.state.Terminal() {
		prev := i.source
		i.mu.Unlock()
		i.log.Debug("Ignoring signal for resolved payment attempt",
			zap.String("source", string(src)),
			zap.String("resolved_by", string(prev)),
			zap.String("kind", string(o.Kind)))
		return false
	}
	i.state = stateFor(o.Kind)
	i.outcome = o
	i.source = src
	i.mu.Unlock()

	i.log.Info("Payment attempt resolved",
		zap.String("source", string(src)),
		zap.String("kind", string(o.Kind)),
		zap.String("payment_id", o.PaymentID))

	if i.opts.OnResolve != nil {
		i.opts.OnResolve(o, src)
	}
	return true
}
