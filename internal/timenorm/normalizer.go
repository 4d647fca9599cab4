// Package timenorm parses broker timestamps, shifts them between broker time
// and report time, and derives calendar, session and bucket labels.
// It is stateless apart from the configured session windows.
package timenorm

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"trade-reconciler/internal/domain"
)

// Parse errors. Both are fatal for reconciliation.
var (
	ErrEmptyTimestamp        = errors.New("empty timestamp")
	ErrUnrecognizedTimestamp = errors.New("unrecognized timestamp format")
)

// DefaultHourOffset converts broker time to report time.
const DefaultHourOffset = -8

// Accepted layouts, most specific first.
var layouts = []string{
	"2006.01.02 15:04:05",
	"2006.01.02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
}

// Session labels.
const (
	SessionNews       = "News"
	SessionOpening    = "Opening"
	SessionFloor      = "Floor"
	SessionClosing    = "Closing"
	SessionAfterHours = "AfterHours"
)

// SessionWindow is a half-open [Start, End) range of minutes of day.
type SessionWindow struct {
	Name  string `yaml:"name"`
	Start int    `yaml:"start"`
	End   int    `yaml:"end"`
}

// DefaultSessions are evaluated against the offset-shifted minute of day.
// Anything outside them is AfterHours.
var DefaultSessions = []SessionWindow{
	{Name: SessionNews, Start: 8*60 + 30, End: 9*60 + 30},
	{Name: SessionOpening, Start: 9*60 + 30, End: 10 * 60},
	{Name: SessionFloor, Start: 10 * 60, End: 15 * 60},
	{Name: SessionClosing, Start: 15 * 60, End: 16 * 60},
}

// bucketSizes are the discretization granularities in minutes.
var bucketSizes = [6]int{15, 30, 60, 120, 180, 240}

// Normalizer derives TimeSegments using a fixed set of session windows.
type Normalizer struct {
	sessions []SessionWindow
}

// New creates a Normalizer. A nil or empty slice selects DefaultSessions.
func New(sessions []SessionWindow) *Normalizer {
	if len(sessions) == 0 {
		sessions = DefaultSessions
	}
	s := make([]SessionWindow, len(sessions))
	copy(s, sessions)
	return &Normalizer{sessions: s}
}

// Parse parses a broker timestamp. The result carries no zone information
// and is returned in UTC so arithmetic between timestamps is exact.
func Parse(ts string) (time.Time, error) {
	ts = strings.TrimSpace(ts)
	if ts == "" {
		return time.Time{}, ErrEmptyTimestamp
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, ts, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnrecognizedTimestamp, ts)
}

// Normalize parses ts and derives its original and offset-shifted labels.
func (n *Normalizer) Normalize(ts string, offsetHours int) (domain.TimeSegments, error) {
	t, err := Parse(ts)
	if err != nil {
		return domain.TimeSegments{}, err
	}
	return n.Segments(t, offsetHours), nil
}

// Segments derives labels from an already parsed time.
func (n *Normalizer) Segments(t time.Time, offsetHours int) domain.TimeSegments {
	shifted := t.Add(time.Duration(offsetHours) * time.Hour)
	minute := shifted.Hour()*60 + shifted.Minute()

	return domain.TimeSegments{
		Original:    calendar(t),
		Shifted:     calendar(shifted),
		OffsetHours: offsetHours,
		Session:     n.Session(minute),
		Bucket15m:   bucket(minute, bucketSizes[0]),
		Bucket30m:   bucket(minute, bucketSizes[1]),
		Bucket1h:    bucket(minute, bucketSizes[2]),
		Bucket2h:    bucket(minute, bucketSizes[3]),
		Bucket3h:    bucket(minute, bucketSizes[4]),
		Bucket4h:    bucket(minute, bucketSizes[5]),
	}
}

// Session returns the label of the window containing minuteOfDay.
func (n *Normalizer) Session(minuteOfDay int) string {
	for _, w := range n.sessions {
		if minuteOfDay >= w.Start && minuteOfDay < w.End {
			return w.Name
		}
	}
	return SessionAfterHours
}

// Normalize uses DefaultSessions.
func Normalize(ts string, offsetHours int) (domain.TimeSegments, error) {
	return defaultNormalizer.Normalize(ts, offsetHours)
}

var defaultNormalizer = New(nil)

// MinutesBetween returns the absolute delta in minutes between two timestamps.
func MinutesBetween(a, b string) (float64, error) {
	ta, err := Parse(a)
	if err != nil {
		return 0, err
	}
	tb, err := Parse(b)
	if err != nil {
		return 0, err
	}
	return AbsMinutes(ta, tb), nil
}

// AbsMinutes returns |a - b| in minutes.
func AbsMinutes(a, b time.Time) float64 {
	return math.Abs(a.Sub(b).Minutes())
}

// ValidateSessions checks that windows are well formed and do not overlap.
func ValidateSessions(sessions []SessionWindow) error {
	for i, w := range sessions {
		if w.Name == "" {
			return fmt.Errorf("session %d: empty name", i)
		}
		if w.Start < 0 || w.End > 24*60 || w.Start >= w.End {
			return fmt.Errorf("session %s: invalid range [%d, %d)", w.Name, w.Start, w.End)
		}
		for j := 0; j < i; j++ {
			o := sessions[j]
			if w.Start < o.End && o.Start < w.End {
				return fmt.Errorf("session %s overlaps %s", w.Name, o.Name)
			}
		}
	}
	return nil
}

func calendar(t time.Time) domain.CalendarFields {
	return domain.CalendarFields{
		Date:    t.Format("2006-01-02"),
		Time:    t.Format("15:04:05"),
		Weekday: t.Weekday().String(),
		Month:   t.Month().String(),
	}
}

// bucket numbers sizeMinutes-wide slots within a day, 1-indexed and zero padded.
func bucket(minuteOfDay, sizeMinutes int) string {
	return fmt.Sprintf("%02d", minuteOfDay/sizeMinutes+1)
}
