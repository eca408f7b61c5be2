package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type testEvent struct{ n int }

func TestPublishFanOut(t *testing.T) {
	b := NewBus[testEvent]()
	_, a := b.Subscribe(4)
	_, c := b.Subscribe(4)

	b.Publish(testEvent{n: 1})
	assert.Equal(t, testEvent{n: 1}, <-a)
	assert.Equal(t, testEvent{n: 1}, <-c)
}

func TestPublishDropsOnFullSubscriber(t *testing.T) {
	b := NewBus[testEvent]()
	_, slow := b.Subscribe(1)

	b.Publish(testEvent{n: 1})
	b.Publish(testEvent{n: 2}) // slow's buffer is full, dropped rather than blocking

	assert.Equal(t, testEvent{n: 1}, <-slow)
	select {
	case v := <-slow:
		t.Fatalf("expected no second event, got %+v", v)
	default:
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBus[testEvent]()
	id, ch := b.Subscribe(1)
	b.Unsubscribe(id)

	_, ok := <-ch
	assert.False(t, ok)
}

func TestCloseClosesAllSubscribers(t *testing.T) {
	b := NewBus[testEvent]()
	_, a := b.Subscribe(1)
	_, c := b.Subscribe(1)
	b.Close()

	_, okA := <-a
	_, okC := <-c
	assert.False(t, okA)
	assert.False(t, okC)
}
