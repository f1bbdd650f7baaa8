package clock_test

import (
	"testing"
	"time"

	"github.com/facturo/facturo/adapters/clock"
)

func TestReal_NowIsUTC(t *testing.T) {
	c := clock.Real{}

	got := c.Now()
	if got.Location() != time.UTC {
		t.Errorf("Now() location = %v, want UTC", got.Location())
	}

	now := time.Now()
	if d := now.Sub(got); d > time.Second || d < -time.Second {
		t.Errorf("Now() = %v, too far from wall clock %v", got, now)
	}
}

func TestFake_Now_Stable(t *testing.T) {
	fixed := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	c := clock.NewFake(fixed)

	for i := 0; i < 5; i++ {
		if got := c.Now(); !got.Equal(fixed) {
			t.Errorf("call %d: Now() = %v, want %v", i, got, fixed)
		}
	}
}

func TestFake_Set(t *testing.T) {
	c := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	next := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	c.Set(next)

	if got := c.Now(); !got.Equal(next) {
		t.Errorf("Now() = %v, want %v", got, next)
	}
}

func TestFake_Advance(t *testing.T) {
	initial := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := clock.NewFake(initial)

	c.Advance(24 * time.Hour)
	c.Advance(time.Hour)

	expected := initial.Add(25 * time.Hour)
	if got := c.Now(); !got.Equal(expected) {
		t.Errorf("Now() = %v, want %v", got, expected)
	}
}

func TestFake_ConcurrentAccess(t *testing.T) {
	c := clock.NewFake(time.Now())

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				_ = c.Now()
				c.Advance(time.Second)
			}
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}
