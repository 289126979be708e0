package payment

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Gateway form field names. They are case-sensitive.
const (
	FieldMerchantID = "merchant_id"
	FieldReturnURL  = "return_url"
	FieldCancelURL  = "cancel_url"
	FieldNotifyURL  = "notify_url"
	FieldOrderID    = "order_id"
	FieldItems      = "items"
	FieldCurrency   = "currency"
	FieldAmount     = "amount"
	FieldFirstName  = "first_name"
	FieldLastName   = "last_name"
	FieldEmail      = "email"
	FieldPhone      = "phone"
	FieldAddress    = "address"
	FieldCity       = "city"
	FieldCountry    = "country"
	FieldHash       = "hash"
	FieldRecurrence = "recurrence"
	FieldDuration   = "duration"
	FieldStartupFee = "startup_fee"
)

// RequiredFields is every field the gateway rejects a checkout without, in
// the gateway's documented order.
var RequiredFields = []string{
	FieldMerchantID, FieldReturnURL, FieldCancelURL, FieldNotifyURL,
	FieldOrderID, FieldItems, FieldCurrency, FieldAmount,
	FieldFirstName, FieldLastName, FieldEmail, FieldPhone,
	FieldAddress, FieldCity, FieldCountry, FieldHash,
}

// FormPayload is the flat field set posted to the gateway checkout page.
type FormPayload map[string]string

// Missing returns the required fields that are absent or empty.
func (p FormPayload) Missing() []string {
	var missing []string
	for _, f := range RequiredFields {
		if strings.TrimSpace(p[f]) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

type FormBuilder struct {
	cfg Config
	log *zap.Logger
}

func NewFormBuilder(cfg Config, log *zap.Logger) *FormBuilder {
	if log == nil {
		log = zap.NewNop()
	}
	return &FormBuilder{cfg: cfg, log: log}
}

func (b *FormBuilder) Config() Config {
	return b.cfg
}

// Build validates req and assembles the gateway payload. It returns either a
// complete payload or an error, never a partial payload.
func (b *FormBuilder) Build(req PaymentRequest) (FormPayload, error) {
	amount, err := NormalizeAmount(req.Amount)
	if err != nil {
		return nil, err
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = strings.ToUpper(b.cfg.Currency)
	}
	if !b.cfg.supportsCurrency(currency) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCurrency, currency)
	}

	if req.NotifyURL != "" && req.NotifyURL != b.cfg.NotifyURL {
		b.log.Warn("Ignoring caller supplied notify_url",
			zap.String("order_id", req.OrderID),
			zap.String("notify_url", req.NotifyURL))
	}

	payload := FormPayload{
		FieldMerchantID: b.cfg.Credentials.MerchantID,
		FieldReturnURL:  firstNonEmpty(req.ReturnURL, b.cfg.ReturnURL),
		FieldCancelURL:  firstNonEmpty(req.CancelURL, b.cfg.CancelURL),
		FieldNotifyURL:  b.cfg.NotifyURL,
		FieldOrderID:    req.OrderID,
		FieldItems:      req.Items,
		FieldCurrency:   currency,
		FieldAmount:     amount,
		FieldFirstName:  req.Customer.FirstName,
		FieldLastName:   req.Customer.LastName,
		FieldEmail:      req.Customer.Email,
		FieldPhone:      req.Customer.Phone,
		FieldAddress:    req.Customer.Address,
		FieldCity:       req.Customer.City,
		FieldCountry:    req.Customer.Country,
	}

	if req.Recurrence != "" {
		payload[FieldRecurrence] = req.Recurrence
	}
	if req.Duration != "" {
		payload[FieldDuration] = req.Duration
	}
	if !req.StartupFee.IsZero() {
		fee, err := NormalizeAmount(req.StartupFee)
		if err != nil {
			return nil, fmt.Errorf("startup_fee: %w", err)
		}
		payload[FieldStartupFee] = fee
	}

	// The hash is checked last so that missing inputs are reported together.
	if missing := without(payload.Missing(), FieldHash); len(missing) > 0 {
		return nil, &IncompletePayloadError{Missing: missing}
	}

	hash, err := ComputeHash(b.cfg.Credentials.MerchantID, req.OrderID, amount, currency, b.cfg.Credentials.MerchantSecret)
	if err != nil {
		b.log.Error("Failed to compute payment hash",
			zap.String("order_id", req.OrderID),
			zap.String("merchant_secret", RedactSecret(b.cfg.Credentials.MerchantSecret)),
			zap.Error(err))
		return nil, err
	}
	payload[FieldHash] = hash

	if missing := payload.Missing(); len(missing) > 0 {
		return nil, &IncompletePayloadError{Missing: missing}
	}
	return payload, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func without(list []string, drop string) []string {
	out := list[:0:0]
	for _, v := range list {
		if v != drop {
			out = append(out, v)
		}
	}
	return out
}
