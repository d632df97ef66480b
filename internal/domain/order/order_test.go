package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusEligibility(t *testing.T) {
	t.Run("only confirmed orders are dispatch eligible", func(t *testing.T) {
		assert.True(t, StatusConfirmed.IsDispatchEligible())
		for _, s := range []Status{StatusPending, StatusShipped, StatusDelivered, StatusReturned, StatusCancelled} {
			assert.False(t, s.IsDispatchEligible(), "status %s", s)
		}
	})

	t.Run("reconciliation covers confirmed through delivered", func(t *testing.T) {
		for _, s := range []Status{StatusConfirmed, StatusShipped, StatusDelivered} {
			assert.True(t, s.IsReconciliationEligible(), "status %s", s)
		}
		for _, s := range []Status{StatusPending, StatusReturned, StatusCancelled} {
			assert.False(t, s.IsReconciliationEligible(), "status %s", s)
		}
	})
}

func TestDeliveryDate(t *testing.T) {
	yangon, err := time.LoadLocation("Asia/Yangon")
	require.NoError(t, err)

	t.Run("uses the store-local calendar date", func(t *testing.T) {
		// 17:30 UTC is already past midnight on Nov 21 in Yangon (UTC+6:30)
		at := time.Date(2024, 11, 20, 17, 30, 0, 0, time.UTC)
		o := &Order{Status: StatusDelivered, DeliveredAt: &at}

		date, ok := o.DeliveryDate(yangon)
		require.True(t, ok)
		assert.Equal(t, "2024-11-21", date)
	})

	t.Run("undelivered orders have no delivery date", func(t *testing.T) {
		o := &Order{Status: StatusShipped}
		_, ok := o.DeliveryDate(yangon)
		assert.False(t, ok)
	})
}
