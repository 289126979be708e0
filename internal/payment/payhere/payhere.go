package payhere

import (
	"fmt"
	"sort"
	"strings"

	"carelink-backend/internal/payment"

	"go.uber.org/zap"
)

const (
	LiveCheckoutURL    = "https://www.payhere.lk/pay/checkout"
	SandboxCheckoutURL = "https://sandbox.payhere.lk/pay/checkout"

	// StatusSuccess is the status_code the gateway sends for a completed payment.
	StatusSuccess = "2"
)

var statusCodes = map[string]payment.NotifyStatus{
	"2":  payment.NotifySucceeded,
	"0":  payment.NotifyPending,
	"-1": payment.NotifyCancelled,
	"-2": payment.NotifyFailed,
	"-3": payment.NotifyChargeback,
}

type Driver struct {
	GatewayURL string
	builder    *payment.FormBuilder
	log        *zap.Logger
}

func NewDriver(cfg payment.Config, log *zap.Logger) *Driver {
	if log == nil {
		log = zap.NewNop()
	}
	gateway := LiveCheckoutURL
	if cfg.Sandbox {
		gateway = SandboxCheckoutURL
	}
	return &Driver{
		GatewayURL: gateway,
		builder:    payment.NewFormBuilder(cfg, log),
		log:        log,
	}
}

func (d *Driver) Config() payment.Config {
	return d.builder.Config()
}

func (d *Driver) Checkout(req payment.PaymentRequest) (*payment.Checkout, error) {
	fields, err := d.builder.Build(req)
	if err != nil {
		return nil, err
	}
	d.log.Info("Built checkout payload",
		zap.String("order_id", req.OrderID),
		zap.String("amount", fields[payment.FieldAmount]),
		zap.String("currency", fields[payment.FieldCurrency]))
	return &payment.Checkout{ActionURL: d.GatewayURL, Fields: fields}, nil
}

// VerifyNotification validates the md5sig of a notify_url callback.
func (d *Driver) VerifyNotification(params map[string]string) (*payment.Notification, error) {
	get := func(k string) string { return strings.TrimSpace(params[k]) }

	n := &payment.Notification{
		OrderID:    get("order_id"),
		PaymentID:  get("payment_id"),
		Amount:     get("payhere_amount"),
		Currency:   get("payhere_currency"),
		StatusCode: get("status_code"),
		Method:     get("method"),
	}
	merchantID := get("merchant_id")
	remoteSign := get("md5sig")

	var missing []string
	for k, v := range map[string]string{
		"merchant_id":      merchantID,
		"order_id":         n.OrderID,
		"payhere_amount":   n.Amount,
		"payhere_currency": n.Currency,
		"status_code":      n.StatusCode,
		"md5sig":           remoteSign,
	} {
		if v == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: missing %s", payment.ErrInvalidSignature, strings.Join(missing, ", "))
	}

	creds := d.Config().Credentials
	if merchantID != creds.MerchantID {
		return nil, fmt.Errorf("%w: merchant id mismatch", payment.ErrInvalidSignature)
	}

	localSign := payment.ComputeNotifySignature(merchantID, n.OrderID, n.Amount, n.Currency, n.StatusCode, creds.MerchantSecret)
	if !payment.VerifyNotifySignature(localSign, remoteSign) {
		d.log.Warn("Rejected notification with bad signature",
			zap.String("order_id", n.OrderID),
			zap.String("status_code", n.StatusCode))
		return nil, payment.ErrInvalidSignature
	}

	n.Status = payment.NotifyUnknown
	if s, ok := statusCodes[n.StatusCode]; ok {
		n.Status = s
	}
	return n, nil
}
