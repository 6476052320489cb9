package reminder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_delivers_to_all_subscribers(t *testing.T) {
	bus := NewBus()

	var a, b []Fired
	bus.Subscribe(func(f Fired) { a = append(a, f) })
	bus.Subscribe(func(f Fired) { b = append(b, f) })

	bus.Publish(Fired{Kind: KindTask, Title: "Task Due Soon", ItemID: "t1"})

	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, "t1", a[0].ItemID)
	assert.Equal(t, a[0], b[0])
}

func TestBus_unsubscribe_stops_delivery(t *testing.T) {
	bus := NewBus()

	var got []Fired
	unsubscribe := bus.Subscribe(func(f Fired) { got = append(got, f) })

	bus.Publish(Fired{ItemID: "first"})
	unsubscribe()
	bus.Publish(Fired{ItemID: "second"})

	require.Len(t, got, 1)
	assert.Equal(t, "first", got[0].ItemID)
}

func TestBus_publish_with_no_subscribers(t *testing.T) {
	bus := NewBus()
	assert.NotPanics(t, func() {
		bus.Publish(Fired{ItemID: "t1"})
	})
}

func TestBus_subscriber_may_resubscribe(t *testing.T) {
	bus := NewBus()

	var got int
	unsubscribe := bus.Subscribe(func(Fired) { got++ })
	unsubscribe()
	bus.Subscribe(func(Fired) { got++ })

	bus.Publish(Fired{})
	assert.Equal(t, 1, got)
}
