package id

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const PaymentLinkPrefix = "plink_"

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// GenerateULID returns a lexically sortable id for t.
func GenerateULID(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// NewPaymentLinkID returns ids such as plink_01j9z3k6w4b7...
func NewPaymentLinkID(t time.Time) string {
	return PaymentLinkPrefix + strings.ToLower(GenerateULID(t))
}

// IsPaymentLinkID is a cheap shape check used before hitting storage.
func IsPaymentLinkID(s string) bool {
	return strings.HasPrefix(s, PaymentLinkPrefix) && len(s) > len(PaymentLinkPrefix)
}
