package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversToSubscribers(t *testing.T) {
	bus := NewBus()

	var got []*Event
	bus.Subscribe(RunProgress, func(e *Event) {
		got = append(got, e)
	})

	bus.Emit(RunProgress, "runner", &RunProgressData{RunID: "r1", Current: 1, Total: 10})
	bus.Emit(RunProgress, "runner", &RunProgressData{RunID: "r1", Current: 2, Total: 10})

	require.Len(t, got, 2)
	assert.Equal(t, RunProgress, got[0].Type)
	assert.Equal(t, "runner", got[0].Source)
	data, ok := got[1].Data.(*RunProgressData)
	require.True(t, ok)
	assert.Equal(t, 2, data.Current)
}

func TestBusTypeIsolation(t *testing.T) {
	bus := NewBus()

	called := false
	bus.Subscribe(RunCompleted, func(e *Event) { called = true })

	bus.Emit(RunStarted, "runs", &RunStartedData{RunID: "r1"})
	assert.False(t, called)
}

func TestBusNoSubscribers(t *testing.T) {
	bus := NewBus()
	// Emitting without subscribers must not panic
	bus.Emit(RunFailed, "runs", &RunFailedData{RunID: "r1", Error: "boom"})
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus()

	count := 0
	unsubscribe := bus.Subscribe(RunProgress, func(e *Event) { count++ })

	bus.Emit(RunProgress, "runner", nil)
	unsubscribe()
	bus.Emit(RunProgress, "runner", nil)

	assert.Equal(t, 1, count)
}

func TestBusConcurrentEmit(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	count := 0
	bus.Subscribe(RunProgress, func(e *Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Emit(RunProgress, "runner", nil)
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 20, count)
}
