package payment

// Checkout is everything the client needs to render the hosted payment page.
type Checkout struct {
	ActionURL string
	Fields    FormPayload
}

// Notification is a verified server-to-server status callback.
type Notification struct {
	OrderID    string
	PaymentID  string
	Amount     string
	Currency   string
	StatusCode string
	Status     NotifyStatus
	Method     string
}

type NotifyStatus string

const (
	NotifySucceeded  NotifyStatus = "succeeded"
	NotifyPending    NotifyStatus = "pending"
	NotifyCancelled  NotifyStatus = "cancelled"
	NotifyFailed     NotifyStatus = "failed"
	NotifyChargeback NotifyStatus = "chargedback"
	NotifyUnknown    NotifyStatus = "unknown"
)

// Driver is the interface that all payment gateways must implement
type Driver interface {
	// Checkout builds the hosted checkout form for one attempt.
	Checkout(req PaymentRequest) (*Checkout, error)

	// VerifyNotification checks the callback signature and decodes it.
	VerifyNotification(params map[string]string) (*Notification, error)

	// Config returns the immutable gateway configuration in use.
	Config() Config
}
