package mstime

import (
	"math"
	"time"
)

const (
	nanosecondsInMillisecond = int64(time.Millisecond / time.Nanosecond)
	millisecondsInSecond     = int64(time.Second / time.Millisecond)
)

// Now returns the current local time, with precision of one millisecond.
func Now() time.Time {
	return ReduceToMillisecondPrecision(time.Now())
}

// UnixMilliToTime converts a number of milliseconds since the unix epoch
// to a time.Time.
func UnixMilliToTime(ms int64) time.Time {
	seconds := ms / millisecondsInSecond
	nanoseconds := (ms - seconds*millisecondsInSecond) * nanosecondsInMillisecond
	return time.Unix(seconds, nanoseconds)
}

// TimeToUnixMilli returns the number of milliseconds since the unix epoch.
func TimeToUnixMilli(t time.Time) int64 {
	return t.UnixNano() / nanosecondsInMillisecond
}

// ReduceToMillisecondPrecision drops everything below a millisecond from t.
func ReduceToMillisecondPrecision(t time.Time) time.Time {
	nanoseconds := int64(t.Nanosecond())
	millisecondPrecisionNanoSeconds := (nanoseconds / nanosecondsInMillisecond) * nanosecondsInMillisecond
	return time.Unix(t.Unix(), millisecondPrecisionNanoSeconds)
}

// TimeToSeconds returns t as fractional seconds since the unix epoch, with
// millisecond precision. This is the timestamp form stored in ledger records.
func TimeToSeconds(t time.Time) float64 {
	return float64(TimeToUnixMilli(t)) / float64(millisecondsInSecond)
}

// SecondsToTime converts fractional seconds since the unix epoch back to a
// time.Time, rounding to the nearest millisecond.
func SecondsToTime(seconds float64) time.Time {
	return UnixMilliToTime(int64(math.Round(seconds * float64(millisecondsInSecond))))
}

// Clock supplies the current time for anything that stamps records.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return Now()
}

// SystemClock is the Clock reading the local wall clock.
var SystemClock Clock = systemClock{}

// FixedClock always returns the same instant. Used for deterministic hashing.
type FixedClock time.Time

// Now implements Clock.
func (c FixedClock) Now() time.Time {
	return time.Time(c)
}

// StepClock starts at Start and advances by Step on every reading.
// It is not safe for concurrent use.
type StepClock struct {
	Start time.Time
	Step  time.Duration
	ticks int64
}

// Now implements Clock.
func (c *StepClock) Now() time.Time {
	t := c.Start.Add(time.Duration(c.ticks) * c.Step)
	c.ticks++
	return ReduceToMillisecondPrecision(t)
}
