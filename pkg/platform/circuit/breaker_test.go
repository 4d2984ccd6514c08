package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerTransitions(t *testing.T) {
	t.Run("starts closed", func(t *testing.T) {
		b := New("summary-cache")
		assert.Equal(t, "summary-cache", b.Name())
		assert.Equal(t, StateClosed, b.State())
		assert.Equal(t, "closed", b.State().String())
	})

	t.Run("opens on the threshold failure only", func(t *testing.T) {
		b := New("summary-cache", WithFailureThreshold(3))
		for i := 0; i < 2; i++ {
			fallback, change := b.RecordFailure()
			require.False(t, fallback)
			require.False(t, change.Opened)
		}
		fallback, change := b.RecordFailure()
		assert.True(t, fallback)
		assert.True(t, change.Opened)
		assert.Equal(t, "open", b.State().String())

		fallback, change = b.RecordFailure()
		assert.True(t, fallback)
		assert.False(t, change.Opened, "already open")
	})

	t.Run("a success while closed clears the failure streak", func(t *testing.T) {
		b := New("summary-cache", WithFailureThreshold(2))
		b.RecordFailure()
		b.RecordSuccess()
		b.RecordFailure()
		assert.False(t, b.IsOpen())
		b.RecordFailure()
		assert.True(t, b.IsOpen())
	})

	t.Run("closes after consecutive successes", func(t *testing.T) {
		b := New("summary-cache", WithFailureThreshold(1), WithSuccessThreshold(2))
		b.RecordFailure()

		primary, change := b.RecordSuccess()
		assert.False(t, primary)
		assert.False(t, change.Closed)

		b.RecordFailure()
		primary, _ = b.RecordSuccess()
		assert.False(t, primary, "a failure restarts the success streak")

		primary, change = b.RecordSuccess()
		assert.True(t, primary)
		assert.True(t, change.Closed)
		assert.False(t, b.IsOpen())
	})

	t.Run("reset closes immediately", func(t *testing.T) {
		b := New("summary-cache", WithFailureThreshold(1))
		b.RecordFailure()
		b.Reset()
		assert.Equal(t, StateClosed, b.State())
	})
}
