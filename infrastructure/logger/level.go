package logger

import "strings"

// Level is the level at which a logger is configured. Messages below the
// current level are filtered.
type Level uint32

// Level constants.
const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
	LevelOff
)

// levelTags are the tags printed in log headers.
var levelTags = [...]string{"TRC", "DBG", "INF", "WRN", "ERR", "CRT", "OFF"}

// levelNames are the names accepted on the command line, in level order.
var levelNames = [...]string{"trace", "debug", "info", "warn", "error", "critical", "off"}

// SupportedLevels returns the level names LevelFromString accepts.
func SupportedLevels() []string {
	return levelNames[:]
}

// LevelFromString returns the level named by s, either by its name or by
// its tag, ignoring case. The info level and false are returned if s names
// no level.
func LevelFromString(s string) (l Level, ok bool) {
	for level := LevelTrace; level <= LevelOff; level++ {
		if strings.EqualFold(s, levelNames[level]) || strings.EqualFold(s, levelTags[level]) {
			return level, true
		}
	}
	return LevelInfo, false
}

// String returns the tag of the level used in log messages, or "OFF" if
// the level produces no output.
func (l Level) String() string {
	if l >= LevelOff {
		return levelTags[LevelOff]
	}
	return levelTags[l]
}
