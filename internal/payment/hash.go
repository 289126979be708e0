package payment

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
)

// ComputeHash builds the checkout hash the gateway expects:
//
//	UPPER(MD5(merchantID + orderID + amount + currency + UPPER(MD5(secret))))
//
// amount must already be normalized with NormalizeAmount.
func ComputeHash(merchantID, orderID, amount, currency, merchantSecret string) (string, error) {
	inputs := []struct {
		name  string
		value string
	}{
		{"merchant_id", merchantID},
		{"order_id", orderID},
		{"amount", amount},
		{"currency", currency},
		{"merchant_secret", merchantSecret},
	}
	for _, in := range inputs {
		if in.value == "" {
			return "", fmt.Errorf("%w: %s is empty", ErrHashGeneration, in.name)
		}
	}

	return upperMD5(merchantID + orderID + amount + currency + upperMD5(merchantSecret)), nil
}

// ComputeNotifySignature builds the md5sig the gateway attaches to its
// server-to-server notification.
func ComputeNotifySignature(merchantID, orderID, amount, currency, statusCode, merchantSecret string) string {
	return upperMD5(merchantID + orderID + amount + currency + statusCode + upperMD5(merchantSecret))
}

// VerifyNotifySignature compares signatures in constant time.
func VerifyNotifySignature(expected, received string) bool {
	if expected == "" || received == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToUpper(received))) == 1
}

// RedactSecret keeps a short prefix of a secret for diagnostics.
func RedactSecret(secret string) string {
	if len(secret) <= 3 {
		return "****"
	}
	return secret[:3] + "****"
}

func upperMD5(s string) string {
	sum := md5.Sum([]byte(s))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}
