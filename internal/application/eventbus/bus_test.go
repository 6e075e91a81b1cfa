package eventbus_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwaldron/shopfloor-go/internal/application/eventbus"
	"github.com/mwaldron/shopfloor-go/internal/domain/events"
)

func TestBus_DeliversToSubscribersOfType(t *testing.T) {
	// Arrange
	bus := eventbus.New()
	var got []events.Event
	bus.Subscribe(events.EventJobQueued, func(e events.Event) {
		got = append(got, e)
	})

	// Act
	bus.Emit(events.EventJobQueued, events.JobPayload{JobID: "j1"}, "facility-1")
	bus.Emit(events.EventJobStarted, events.JobPayload{JobID: "j1"}, "facility-1")

	// Assert - only the subscribed type arrives
	require.Len(t, got, 1)
	assert.Equal(t, events.EventJobQueued, got[0].Type)
	assert.Equal(t, "facility-1", got[0].SourceID)
	payload, ok := got[0].Payload.(events.JobPayload)
	require.True(t, ok)
	assert.Equal(t, "j1", payload.JobID)
}

func TestBus_SequenceIsMonotonicAcrossTypes(t *testing.T) {
	bus := eventbus.New()
	var seqs []uint64
	bus.SubscribeToMany(events.AllEventTypes(), func(e events.Event) {
		seqs = append(seqs, e.Seq)
	})

	bus.Emit(events.EventJobQueued, events.JobPayload{}, "f")
	bus.Emit(events.EventInventoryChanged, events.InventoryPayload{}, "f")
	bus.Emit(events.EventJobStarted, events.JobPayload{}, "f")

	require.Equal(t, []uint64{1, 2, 3}, seqs)
	assert.Equal(t, uint64(3), bus.LastSeq())
}

func TestBus_UnsubscribeStopsDeliveryAndIsIdempotent(t *testing.T) {
	bus := eventbus.New()
	count := 0
	unsub := bus.Subscribe(events.EventJobQueued, func(events.Event) { count++ })

	bus.Emit(events.EventJobQueued, events.JobPayload{}, "f")
	unsub()
	unsub()
	bus.Emit(events.EventJobQueued, events.JobPayload{}, "f")

	assert.Equal(t, 1, count)
	assert.Zero(t, bus.SubscriberCount(events.EventJobQueued))
}

func TestBus_HandlerMayUnsubscribeDuringDispatch(t *testing.T) {
	bus := eventbus.New()
	count := 0
	var unsub func()
	unsub = bus.Subscribe(events.EventJobQueued, func(events.Event) {
		count++
		unsub()
	})

	bus.Emit(events.EventJobQueued, events.JobPayload{}, "f")
	bus.Emit(events.EventJobQueued, events.JobPayload{}, "f")

	assert.Equal(t, 1, count)
}

func TestBus_InventoryEmitsThroughPublisherInterface(t *testing.T) {
	// The bus satisfies the domain's Publisher port
	var pub events.Publisher = eventbus.New()
	pub.Emit(events.EventInventoryChanged, events.InventoryPayload{BaseItemID: "gear"}, "facility-1")
}
