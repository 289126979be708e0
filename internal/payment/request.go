package payment

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MerchantCredentials identify the merchant to the gateway.
type MerchantCredentials struct {
	MerchantID     string
	MerchantSecret string
}

// String never prints the secret in clear.
func (c MerchantCredentials) String() string {
	return fmt.Sprintf("merchant_id=%s merchant_secret=%s", c.MerchantID, RedactSecret(c.MerchantSecret))
}

// Config is the process-wide gateway configuration. It is built once at
// startup and passed by value.
type Config struct {
	Credentials         MerchantCredentials
	ReturnURL           string
	CancelURL           string
	NotifyURL           string
	Currency            string
	SupportedCurrencies []string
	Sandbox             bool
}

func (c Config) supportsCurrency(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, s := range c.SupportedCurrencies {
		if strings.EqualFold(s, code) {
			return true
		}
	}
	return false
}

type Customer struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address   string
	City      string
	Country   string
}

// PaymentRequest is the canonical shape of one payment attempt.
type PaymentRequest struct {
	OrderID  string
	Amount   decimal.Decimal
	Currency string
	Customer Customer
	Items    string

	ReturnURL string
	CancelURL string
	// NotifyURL is accepted for logging only; the configured value is always used.
	NotifyURL string

	Recurrence string
	Duration   string
	StartupFee decimal.Decimal
}

// requestAliases lists the accepted spellings of each canonical field.
var requestAliases = map[string][]string{
	"order_id":    {"order_id", "orderId", "orderID"},
	"amount":      {"amount"},
	"currency":    {"currency"},
	"items":       {"items", "item", "description"},
	"first_name":  {"first_name", "firstName"},
	"last_name":   {"last_name", "lastName"},
	"email":       {"email"},
	"phone":       {"phone", "phoneNumber", "phone_number"},
	"address":     {"address"},
	"city":        {"city"},
	"country":     {"country"},
	"return_url":  {"return_url", "returnUrl", "returnURL"},
	"cancel_url":  {"cancel_url", "cancelUrl", "cancelURL"},
	"notify_url":  {"notify_url", "notifyUrl", "notifyURL"},
	"recurrence":  {"recurrence"},
	"duration":    {"duration"},
	"startup_fee": {"startup_fee", "startupFee"},
}

// ParseRequest normalizes a loosely shaped payload (camelCase or snake_case
// keys, customer fields flat or nested under "customer") into a PaymentRequest.
func ParseRequest(raw map[string]interface{}) (PaymentRequest, error) {
	fields := raw
	if nested, ok := raw["customer"].(map[string]interface{}); ok {
		fields = make(map[string]interface{}, len(raw)+len(nested))
		for k, v := range raw {
			fields[k] = v
		}
		for k, v := range nested {
			if _, exists := fields[k]; !exists {
				fields[k] = v
			}
		}
	}

	str := func(name string) string {
		for _, alias := range requestAliases[name] {
			if v, ok := fields[alias]; ok && v != nil {
				return strings.TrimSpace(fmt.Sprintf("%v", v))
			}
		}
		return ""
	}
	value := func(name string) interface{} {
		for _, alias := range requestAliases[name] {
			if v, ok := fields[alias]; ok {
				return v
			}
		}
		return nil
	}

	amount, err := ParseAmount(value("amount"))
	if err != nil {
		return PaymentRequest{}, err
	}

	req := PaymentRequest{
		OrderID:  str("order_id"),
		Amount:   amount,
		Currency: strings.ToUpper(str("currency")),
		Items:    str("items"),
		Customer: Customer{
			FirstName: str("first_name"),
			LastName:  str("last_name"),
			Email:     str("email"),
			Phone:     str("phone"),
			Address:   str("address"),
			City:      str("city"),
			Country:   str("country"),
		},
		ReturnURL:  str("return_url"),
		CancelURL:  str("cancel_url"),
		NotifyURL:  str("notify_url"),
		Recurrence: str("recurrence"),
		Duration:   str("duration"),
	}

	if fee := value("startup_fee"); fee != nil && fee != "" {
		d, err := ParseAmount(fee)
		if err != nil {
			return PaymentRequest{}, fmt.Errorf("startup_fee: %w", err)
		}
		req.StartupFee = d
	}

	return req, nil
}
