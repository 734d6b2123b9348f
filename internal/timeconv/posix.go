// Package timeconv converts OASIS report date/time strings to epoch seconds.
package timeconv

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Sentinel is stored in place of a timestamp that could not be parsed.
const Sentinel float64 = -1

// MalformedTimestampError reports a date/time string that matched no known layout.
type MalformedTimestampError struct {
	Value string
}

func (e *MalformedTimestampError) Error() string {
	return fmt.Sprintf("timeconv: malformed timestamp %q", e.Value)
}

// Layouts carrying an explicit offset ("Z" or "+hh:mm").
var offsetLayouts = []string{
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04Z07:00",
}

// Layouts without an offset, read in the normalizer's location.
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

const dateOnlyLayout = "2006-01-02"

// Normalizer parses report timestamps. Strings without an offset are local
// times in loc.
type Normalizer struct {
	loc *time.Location
	log *zap.Logger
}

// NewNormalizer creates a Normalizer. A nil loc means time.Local and a nil
// log means zap.L().
func NewNormalizer(loc *time.Location, log *zap.Logger) *Normalizer {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = zap.L()
	}
	return &Normalizer{loc: loc, log: log}
}

// LoadLocation resolves a configured zone name. The empty string selects the
// process local zone.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, eris.Wrapf(err, "timeconv: load location %q", name)
	}
	return loc, nil
}

// With returns a copy of n that logs through log.
func (n *Normalizer) With(log *zap.Logger) *Normalizer {
	return &Normalizer{loc: n.loc, log: log}
}

// DateToISO expands a bare date to midnight of that date.
func DateToISO(date string) string {
	return date + " 00:00:00.000"
}

// Parse converts s to epoch seconds.
func (n *Normalizer) Parse(s string) (float64, error) {
	v := strings.TrimSpace(s)
	if _, err := time.Parse(dateOnlyLayout, v); err == nil {
		v = DateToISO(v)
	}

	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return epochSeconds(t), nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, v, n.loc); err == nil {
			return epochSeconds(t), nil
		}
	}
	return 0, &MalformedTimestampError{Value: s}
}

// ToEpochSeconds is Parse that logs failures and returns Sentinel instead of
// an error.
func (n *Normalizer) ToEpochSeconds(s string) float64 {
	secs, err := n.Parse(s)
	if err != nil {
		n.log.Error("failed to parse timestamp",
			zap.String("action", "posix"),
			zap.String("timestamp", s),
			zap.Error(err),
		)
		return Sentinel
	}
	return secs
}

func epochSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}
