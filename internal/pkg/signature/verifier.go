package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// ErrEmptySecret is a wiring-time failure: the service must not start
// without a shared gateway secret.
var ErrEmptySecret = errors.New("gateway secret is empty")

// Verifier authenticates a payment proof issued by the gateway.
type Verifier interface {
	Verify(orderID, paymentID, signature string) bool
}

// HMACVerifier checks the gateway signature: a hex encoded HMAC-SHA256 of
// "<orderID>|<paymentID>" keyed with the shared secret.
type HMACVerifier struct {
	secret []byte
}

// NewHMACVerifier builds a verifier for the given shared secret.
func NewHMACVerifier(secret string) (*HMACVerifier, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &HMACVerifier{secret: []byte(secret)}, nil
}

// Verify reports whether signature matches the expected digest. Malformed
// input yields false, never an error. Comparison is constant-time.
func (v *HMACVerifier) Verify(orderID, paymentID, signature string) bool {
	if orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	supplied, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(v.digest(orderID, paymentID), supplied)
}

// Sign produces the signature the gateway would issue for the pair. Used
// by tests and local gateway simulators.
func (v *HMACVerifier) Sign(orderID, paymentID string) string {
	return hex.EncodeToString(v.digest(orderID, paymentID))
}

func (v *HMACVerifier) digest(orderID, paymentID string) []byte {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return mac.Sum(nil)
}
