package id

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaymentLinkID(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	a := NewPaymentLinkID(now)
	b := NewPaymentLinkID(now)

	require.True(t, IsPaymentLinkID(a))
	assert.NotEqual(t, a, b)
	assert.Len(t, a, len(PaymentLinkPrefix)+26)
	assert.Less(t, a, b, "ids minted in the same millisecond stay ordered")
}

func TestIsPaymentLinkID(t *testing.T) {
	assert.False(t, IsPaymentLinkID(""))
	assert.False(t, IsPaymentLinkID("plink_"))
	assert.False(t, IsPaymentLinkID("order_123"))
	assert.True(t, IsPaymentLinkID("plink_1"))
}
