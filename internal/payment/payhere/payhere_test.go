package payhere

import (
	"testing"

	"carelink-backend/internal/payment"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDriver(sandbox bool) *Driver {
	return NewDriver(payment.Config{
		Credentials:         payment.MerchantCredentials{MerchantID: "1211149", MerchantSecret: "secret123"},
		ReturnURL:           "https://app.carelink.test/payment/success",
		CancelURL:           "https://app.carelink.test/payment/cancel",
		NotifyURL:           "https://api.carelink.test/api/v1/payment/notify",
		Currency:            "LKR",
		SupportedCurrencies: []string{"LKR"},
		Sandbox:             sandbox,
	}, zap.NewNop())
}

func TestCheckout(t *testing.T) {
	d := newTestDriver(true)
	checkout, err := d.Checkout(payment.PaymentRequest{
		OrderID: "ORD1",
		Amount:  decimal.NewFromInt(1000),
		Items:   "Consultation",
		Customer: payment.Customer{
			FirstName: "Nimal", LastName: "Perera", Email: "n@example.com", Phone: "0771234567",
			Address: "Galle Road", City: "Colombo", Country: "Sri Lanka",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, SandboxCheckoutURL, checkout.ActionURL)
	assert.Equal(t, "06F2B7C8E6E47023116C1E2314ABE37C", checkout.Fields[payment.FieldHash])

	assert.Equal(t, LiveCheckoutURL, newTestDriver(false).GatewayURL)
}

func TestCheckoutInvalid(t *testing.T) {
	checkout, err := newTestDriver(true).Checkout(payment.PaymentRequest{OrderID: "ORD1"})
	assert.Nil(t, checkout)
	assert.ErrorIs(t, err, payment.ErrInvalidAmount)
}

func notifyParams(status string) map[string]string {
	return map[string]string{
		"merchant_id":      "1211149",
		"order_id":         "ORD1",
		"payment_id":       "320025071278",
		"payhere_amount":   "1000.00",
		"payhere_currency": "LKR",
		"status_code":      status,
		"md5sig":           payment.ComputeNotifySignature("1211149", "ORD1", "1000.00", "LKR", status, "secret123"),
		"method":           "VISA",
	}
}

func TestVerifyNotification(t *testing.T) {
	tests := []struct {
		status   string
		expected payment.NotifyStatus
	}{
		{"2", payment.NotifySucceeded},
		{"0", payment.NotifyPending},
		{"-1", payment.NotifyCancelled},
		{"-2", payment.NotifyFailed},
		{"-3", payment.NotifyChargeback},
		{"9", payment.NotifyUnknown},
	}
	d := newTestDriver(true)
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			n, err := d.VerifyNotification(notifyParams(tt.status))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, n.Status)
			assert.Equal(t, "ORD1", n.OrderID)
			assert.Equal(t, "320025071278", n.PaymentID)
			assert.Equal(t, "VISA", n.Method)
		})
	}

	params := notifyParams("2")
	assert.Equal(t, "AA057E7EE275DFACE6F6FC3289FD4730", params["md5sig"])
}

func TestVerifyNotificationRejects(t *testing.T) {
	d := newTestDriver(true)

	tampered := notifyParams("2")
	tampered["payhere_amount"] = "1.00"
	_, err := d.VerifyNotification(tampered)
	assert.ErrorIs(t, err, payment.ErrInvalidSignature)

	flipped := notifyParams("-2")
	flipped["status_code"] = "2"
	_, err = d.VerifyNotification(flipped)
	assert.ErrorIs(t, err, payment.ErrInvalidSignature)

	otherMerchant := notifyParams("2")
	otherMerchant["merchant_id"] = "999"
	_, err = d.VerifyNotification(otherMerchant)
	assert.ErrorIs(t, err, payment.ErrInvalidSignature)

	missing := notifyParams("2")
	delete(missing, "md5sig")
	delete(missing, "order_id")
	_, err = d.VerifyNotification(missing)
	assert.ErrorIs(t, err, payment.ErrInvalidSignature)
	assert.Contains(t, err.Error(), "md5sig, order_id")
}
