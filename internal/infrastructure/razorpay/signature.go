package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/example/ec-order-engine/internal/domain/payment"
)

// Verifier checks checkout callback signatures with the key secret
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Sign returns hex(HMAC-SHA256(secret, orderRef + "|" + paymentRef))
func Sign(secret, orderRef, paymentRef string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderRef + "|" + paymentRef))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares in constant time
func (v *Verifier) Verify(orderRef, paymentRef, signature string) error {
	expected := Sign(string(v.secret), orderRef, paymentRef)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return payment.ErrSignatureInvalid
	}
	return nil
}
