package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesEverySubscriber(t *testing.T) {
	b := New()
	a, cancelA := b.Subscribe(4)
	defer cancelA()
	c, cancelC := b.Subscribe(4)
	defer cancelC()

	b.Refresh()
	b.Toast(LevelSuccess, "saved")

	for _, ch := range []<-chan Event{a, c} {
		e := <-ch
		assert.Equal(t, Refresh, e.Kind)
		assert.False(t, e.At.IsZero())
		e = <-ch
		assert.Equal(t, Toast, e.Kind)
		assert.Equal(t, LevelSuccess, e.Level)
		assert.Equal(t, "saved", e.Message)
	}
}

func TestPublishDoesNotBlockOnFullSubscriber(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe(1)
	defer cancel()

	b.Refresh()
	b.Refresh()
	b.Toast(LevelError, "dropped")

	require.Len(t, ch, 1)
	assert.Equal(t, Refresh, (<-ch).Kind)
}

func TestCancelClosesChannel(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe(1)
	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)
	b.Refresh() // no subscribers left, must not panic
}

func TestNilBusIsSilent(t *testing.T) {
	var b *Bus
	assert.NotPanics(t, func() {
		b.Refresh()
		b.Toast(LevelInfo, "x")
	})
}
