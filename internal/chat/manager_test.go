package chat_test

import (
	"context"
	"testing"
	"time"

	appErrors "github.com/aaravmahajanofficial/ebike-storefront/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerCustomer(t *testing.T) {
	f := newChatFixture(t)

	first, err := f.manager.Customer("s1")
	require.NoError(t, err)
	again, err := f.manager.Customer("s1")
	require.NoError(t, err)
	other, err := f.manager.Customer("s2")
	require.NoError(t, err)

	assert.Same(t, first, again)
	assert.NotSame(t, first, other)
}

func TestManagerSweep(t *testing.T) {
	t.Run("Success - Idle Clients Are Released", func(t *testing.T) {
		// Arrange
		f := newChatFixture(t)
		widget, err := f.manager.Customer("s1")
		require.NoError(t, err)
		tr := f.lastTransport()

		// Act
		f.clock.Advance(31 * time.Minute)
		released := f.manager.Sweep(context.Background())

		// Assert
		assert.Equal(t, 1, released)
		assert.True(t, tr.Closed())
		assert.Zero(t, tr.Subscribers())

		fresh, err := f.manager.Customer("s1")
		require.NoError(t, err)
		assert.NotSame(t, widget, fresh)
	})

	t.Run("Success - Recently Used Clients Stay", func(t *testing.T) {
		// Arrange
		f := newChatFixture(t)
		widget, err := f.manager.Customer("s1")
		require.NoError(t, err)

		// Act
		f.clock.Advance(20 * time.Minute)
		widget.View()
		f.clock.Advance(20 * time.Minute)
		released := f.manager.Sweep(context.Background())

		// Assert
		assert.Zero(t, released)
		assert.False(t, f.lastTransport().Closed())
	})
}

func TestManagerShutdown(t *testing.T) {
	// Arrange
	f := newChatFixture(t)
	_, err := f.manager.Customer("s1")
	require.NoError(t, err)
	customerTransport := f.lastTransport()
	_, err = f.manager.Admin("admin-1", "Support", adminToken)
	require.NoError(t, err)
	adminTransport := f.lastTransport()

	// Act
	require.NoError(t, f.manager.Shutdown(context.Background()))

	// Assert
	assert.True(t, customerTransport.Closed())
	assert.True(t, adminTransport.Closed())

	_, err = f.manager.Customer("s3")
	require.Error(t, err)
	appErr, ok := appErrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 503, appErr.StatusCode)
}
