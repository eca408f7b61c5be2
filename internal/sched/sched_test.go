package sched

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduleAndRunDue(t *testing.T) {
	s := New()
	now := time.Now()

	var fired []string
	s.Schedule(now, 10*time.Millisecond, func() { fired = append(fired, "a") })
	s.Schedule(now, 5*time.Millisecond, func() { fired = append(fired, "b") })
	s.Schedule(now, 20*time.Millisecond, func() { fired = append(fired, "c") })

	s.RunDue(now.Add(12 * time.Millisecond))
	assert.Equal(t, []string{"b", "a"}, fired)
	assert.Equal(t, 1, s.Len())

	s.RunDue(now.Add(25 * time.Millisecond))
	assert.Equal(t, []string{"b", "a", "c"}, fired)
	assert.Equal(t, 0, s.Len())
}

func TestCancel(t *testing.T) {
	s := New()
	now := time.Now()

	fired := false
	token := s.Schedule(now, 5*time.Millisecond, func() { fired = true })
	s.Cancel(token)

	s.RunDue(now.Add(time.Second))
	assert.False(t, fired)
}

func TestCancelUnknownTokenIsNoop(t *testing.T) {
	s := New()
	assert.NotPanics(t, func() { s.Cancel(Token(999)) })
}

func TestNextDeadline(t *testing.T) {
	s := New()
	_, ok := s.NextDeadline()
	assert.False(t, ok)

	now := time.Now()
	s.Schedule(now, 50*time.Millisecond, func() {})
	s.Schedule(now, 10*time.Millisecond, func() {})

	d, ok := s.NextDeadline()
	assert.True(t, ok)
	assert.Equal(t, now.Add(10*time.Millisecond), d)
}
