package glc

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingEvent struct{ n int }

func TestEvents_LatestConsumes(t *testing.T) {
	var events Events[pingEvent]
	_, ok := events.Latest()
	assert.False(t, ok)

	events.Send(pingEvent{1}, pingEvent{2})
	events.Send(pingEvent{3})
	assert.Equal(t, 3, events.Len())

	latest, ok := events.Latest()
	require.True(t, ok)
	assert.Equal(t, pingEvent{3}, latest)
	assert.Equal(t, 0, events.Len())

	_, ok = events.Latest()
	assert.False(t, ok)
}

func TestAddEvent_Idempotent(t *testing.T) {
	app := newApp()
	a := AddEvent[pingEvent](app)
	b := AddEvent[pingEvent](app)
	assert.Same(t, a, b)
	assert.Same(t, a, Resource[Events[pingEvent]](app))
}

func TestEvents_ClearedAtFinale(t *testing.T) {
	app := newApp()
	events := AddEvent[pingEvent](app)

	seen := 0
	app.UseSystem(System(func(e *Events[pingEvent]) {
		seen = e.Len()
	}).InStage(PostRender))

	events.Send(pingEvent{1})
	require.NoError(t, app.Update())

	assert.Equal(t, 1, seen, "unconsumed events live through the frame")
	assert.Equal(t, 0, events.Len(), "and are dropped at its end")
}

func TestEvents_ProducerBeforeConsumerSameFrame(t *testing.T) {
	app := newApp()
	AddEvent[pingEvent](app)

	var got []int
	app.UseSystem(System(func(e *Events[pingEvent]) {
		e.Send(pingEvent{42})
	}).InStage(PreUpdate))
	app.UseSystem(System(func(e *Events[pingEvent]) {
		if evt, ok := e.Latest(); ok {
			got = append(got, evt.n)
		}
	}).InStage(PostUpdate))

	require.NoError(t, app.Update())
	assert.Equal(t, []int{42}, got)
}

func TestHostQueue_FlushInto(t *testing.T) {
	var q hostQueue[pingEvent]
	var events Events[pingEvent]

	q.push(pingEvent{1})
	q.push(pingEvent{2})
	q.flushInto(&events)

	assert.Equal(t, 2, events.Len())
	latest, _ := events.Latest()
	assert.Equal(t, pingEvent{2}, latest)

	q.flushInto(&events)
	assert.Equal(t, 0, events.Len(), "a flush empties the queue")
}

func TestHostQueue_ConcurrentPush(t *testing.T) {
	var q hostQueue[pingEvent]
	var events Events[pingEvent]

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				q.push(pingEvent{i*100 + j})
			}
		}()
	}
	wg.Wait()

	q.flushInto(&events)
	assert.Equal(t, 800, events.Len())
}
