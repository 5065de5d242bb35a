package utils

import "time"

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (s SystemClock) Now() time.Time {
	return time.Now()
}

type MockClock struct {
	FixedNow time.Time
}

func (m *MockClock) Now() time.Time {
	return m.FixedNow
}

func (m *MockClock) SetNow(now time.Time) {
	m.FixedNow = now
}

// Today returns the clock's current date as an ISO date string (YYYY-MM-DD).
func Today(c Clock) string {
	return c.Now().Format("2006-01-02")
}

// CurrentMonth returns the clock's current month key (YYYY-MM).
func CurrentMonth(c Clock) string {
	return c.Now().Format("2006-01")
}
