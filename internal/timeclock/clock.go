// Package timeclock provides the virtual clock: wall-clock time plus a
// persisted offset, so elapsed days can be simulated without waiting for
// them. Every component that needs "now" takes a *Clock; one process-wide
// instance is constructed at startup.
package timeclock

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/fishbit-app/fishbit/internal/constants"
	"github.com/fishbit-app/fishbit/internal/logger"
	"github.com/fishbit-app/fishbit/internal/storage"
)

// JumpFunc is called after a discontinuous time jump with the number of
// hours jumped and calendar-day boundaries crossed.
type JumpFunc func(hoursJumped float64, daysCrossed int)

type Clock struct {
	mu            sync.Mutex
	offset        time.Duration
	settings      storage.SettingsStore
	wall          func() time.Time // injectable for tests
	callbacks     []JumpFunc
	lastCheckDate string // process-local day latch
}

// New creates a clock backed by the given settings store, restoring any
// previously persisted offset. A missing or malformed stored offset is
// treated as zero.
func New(settings storage.SettingsStore) *Clock {
	c := &Clock{
		settings: settings,
		wall:     time.Now,
	}
	if settings != nil {
		if v, err := settings.GetSetting(constants.SettingTimeOffset); err == nil {
			if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
				c.offset = time.Duration(ms) * time.Millisecond
				logger.Debug("restored time offset", "ms", ms)
			}
		}
	}
	return c
}

// SetWallClock overrides the wall-clock source. Test hook.
func (c *Clock) SetWallClock(fn func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wall = fn
}

// Now returns the current virtual time: wall-clock time plus the offset.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wall().Add(c.offset)
}

// TodayString returns today's date in YYYY-MM-DD form, in UTC.
func (c *Clock) TodayString() string {
	return c.DateString(0)
}

// YesterdayString returns yesterday's date in YYYY-MM-DD form, in UTC.
func (c *Clock) YesterdayString() string {
	return c.DateString(1)
}

// DateString returns the date daysAgo days in the past, in YYYY-MM-DD form.
func (c *Clock) DateString(daysAgo int) string {
	return c.Now().UTC().AddDate(0, 0, -daysAgo).Format(constants.DateFormat)
}

// FastForward advances the virtual clock by the given number of hours,
// persists the new offset, and notifies subscribers with the hours jumped
// and the number of calendar-day boundaries crossed. Non-positive hours are
// a no-op.
func (c *Clock) FastForward(hours float64) {
	if hours <= 0 {
		return
	}

	c.mu.Lock()
	oldTime := c.wall().Add(c.offset)
	c.offset += time.Duration(hours * float64(time.Hour))
	newTime := c.wall().Add(c.offset)
	offsetMillis := c.offset.Milliseconds()
	c.mu.Unlock()

	c.persistOffset(offsetMillis)

	daysCrossed := daysCrossed(oldTime, newTime)
	logger.Info("fast-forwarded clock", "hours", hours, "days_crossed", daysCrossed)

	c.triggerJump(hours, daysCrossed)
}

// ResetToReal clears the offset and notifies subscribers, but only if the
// clock was actually simulated.
func (c *Clock) ResetToReal() {
	c.mu.Lock()
	hadOffset := c.offset != 0
	c.offset = 0
	c.mu.Unlock()

	if c.settings != nil {
		if err := c.settings.RemoveSetting(constants.SettingTimeOffset); err != nil {
			logger.Warn("failed to clear persisted time offset", "error", err)
		}
	}

	if hadOffset {
		logger.Info("clock reset to real time")
		c.triggerJump(0, 0)
	}
}

// OnJump registers a subscriber for time jump events.
func (c *Clock) OnJump(fn JumpFunc) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callbacks = append(c.callbacks, fn)
}

// IsSimulated reports whether the clock currently carries an offset.
func (c *Clock) IsSimulated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offset != 0
}

// Offset returns the current offset.
func (c *Clock) Offset() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offset
}

// OffsetString returns a human-readable description of the offset.
func (c *Clock) OffsetString() string {
	offset := c.Offset()
	if offset == 0 {
		return "No offset (real time)"
	}

	hours := int(offset.Hours())
	days := hours / 24
	remaining := hours % 24
	if days > 0 {
		return fmt.Sprintf("+%dd %dh", days, remaining)
	}
	return fmt.Sprintf("+%dh", hours)
}

// IsNewDay reports whether the calendar day has changed since the last
// check. The first call on a fresh process records the day and returns
// false.
func (c *Clock) IsNewDay() bool {
	today := c.TodayString()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lastCheckDate == "" {
		c.lastCheckDate = today
		return false
	}
	if c.lastCheckDate != today {
		c.lastCheckDate = today
		return true
	}
	return false
}

// MarkDailyCheckDone records that today's daily check has run.
func (c *Clock) MarkDailyCheckDone() {
	today := c.TodayString()
	c.mu.Lock()
	c.lastCheckDate = today
	c.mu.Unlock()
}

func (c *Clock) persistOffset(ms int64) {
	if c.settings == nil {
		return
	}
	if err := c.settings.SetSetting(constants.SettingTimeOffset, strconv.FormatInt(ms, 10)); err != nil {
		logger.Warn("failed to persist time offset", "error", err)
	}
}

func (c *Clock) triggerJump(hours float64, days int) {
	c.mu.Lock()
	callbacks := make([]JumpFunc, len(c.callbacks))
	copy(callbacks, c.callbacks)
	c.mu.Unlock()

	for _, fn := range callbacks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("time jump subscriber panicked", "panic", r)
				}
			}()
			fn(hours, days)
		}()
	}
}

// daysCrossed counts midnight crossings between two instants. Whole 24-hour
// spans count directly; a shorter jump that still lands on a different
// calendar date counts as one crossing.
func daysCrossed(start, end time.Time) int {
	startDay := start.UTC().Format(constants.DateFormat)
	endDay := end.UTC().Format(constants.DateFormat)
	if startDay == endDay {
		return 0
	}

	crossed := int(end.Sub(start).Hours() / 24)
	if crossed > 0 {
		return crossed
	}
	return 1
}
