package events

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublishReachesSubscribers(t *testing.T) {
	t.Parallel()

	b := NewBus(10)
	var got []Event
	b.Subscribe(func(e Event) { got = append(got, e) })

	b.Publish(Event{Type: CatalogChanged, ProductID: "p1"})

	require.Len(t, got, 1)
	require.Equal(t, CatalogChanged, got[0].Type)
	require.Equal(t, "p1", got[0].ProductID)
	require.False(t, got[0].At.IsZero())
}

func TestCancelStopsDelivery(t *testing.T) {
	t.Parallel()

	b := NewBus(10)
	var count int
	cancel := b.Subscribe(func(Event) { count++ })

	b.Publish(Event{Type: CatalogChanged})
	cancel()
	b.Publish(Event{Type: CatalogChanged})

	require.Equal(t, 1, count)
}

func TestRecentKeepsBoundedWindow(t *testing.T) {
	t.Parallel()

	b := NewBus(3)
	for i := 0; i < 5; i++ {
		b.Publish(Event{Type: CatalogChanged, ProductID: fmt.Sprintf("p%d", i)})
	}

	recent := b.Recent(0)
	require.Len(t, recent, 3)
	require.Equal(t, "p2", recent[0].ProductID)
	require.Equal(t, "p4", recent[2].ProductID)

	last := b.Recent(1)
	require.Len(t, last, 1)
	require.Equal(t, "p4", last[0].ProductID)
}

func TestPublishWithNoSubscribers(t *testing.T) {
	t.Parallel()

	b := NewBus(0)
	b.Publish(Event{Type: CatalogChanged})
	require.Len(t, b.Recent(10), 1)
}
