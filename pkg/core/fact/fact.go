// Package fact holds the vocabulary shared by every stage of the publishing pipeline:
// the canonical fact key, the key/value payload written to the ledger and the ordered
// set of requesters waiting for a fact to become stable.
package fact

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrMalformedFact is returned when a fact key or payload violates the publishing contract.
var ErrMalformedFact = errors.New("malformed-fact")

// Key is the canonical identifier of a real-world fact. Two requesters asking about
// the same fact must resolve to the same Key.
type Key string

// String returns the key as a plain string.
func (k Key) String() string { return string(k) }

// Validate reports ErrMalformedFact for blank keys.
func (k Key) Validate() error {
	if strings.TrimSpace(string(k)) == "" {
		return fmt.Errorf("%w: empty fact key", ErrMalformedFact)
	}
	return nil
}

// Payload is the key/value assertion embedded in the ledger message.
type Payload map[string]any

// TimestampField is the payload entry carrying the wall-clock posting time.
const TimestampField = "timestamp"

// Validate reports ErrMalformedFact for empty payloads or payloads with blank feed names.
func (p Payload) Validate() error {
	if len(p) == 0 {
		return fmt.Errorf("%w: empty payload", ErrMalformedFact)
	}
	for name := range p {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: blank feed name", ErrMalformedFact)
		}
	}
	return nil
}

// WithTimestamp returns a copy of the payload carrying the given time in unix milliseconds.
func (p Payload) WithTimestamp(t time.Time) Payload {
	cp := make(Payload, len(p)+1)
	for k, v := range p {
		cp[k] = v
	}
	cp[TimestampField] = t.UnixMilli()
	return cp
}

var abbreviations = regexp.MustCompile(`\b(FC|AS|CF|RC)\b`)
var whitespace = regexp.MustCompile(`\s`)

// NormalizeTeamName strips club abbreviations and whitespace and upper-cases the name,
// so "Manchester City FC" and "manchester city" map to the same identifier.
func NormalizeTeamName(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	name = abbreviations.ReplaceAllString(name, "")
	return whitespace.ReplaceAllString(name, "")
}

// NewMatchKey builds the canonical key of a football fixture result:
// _HOME_AWAY_DD-MM-YYYY, with the date taken in UTC.
func NewMatchKey(home, away string, date time.Time) (Key, error) {
	h, a := NormalizeTeamName(home), NormalizeTeamName(away)
	if h == "" || a == "" {
		return "", fmt.Errorf("%w: team names are required", ErrMalformedFact)
	}
	return Key(fmt.Sprintf("_%s_%s_%s", h, a, date.UTC().Format("02-01-2006"))), nil
}
