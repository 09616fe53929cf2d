// Package idx mints and parses the ULID identifiers used for identities and
// request correlation.
package idx

import (
	"crypto/rand"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ID is the canonical 26 character Crockford base32 form of a ULID.
type ID string

// Zero is the empty ID. Only valid as a placeholder.
const Zero ID = ""

// ErrInvalid reports a string that is not a strict ULID.
var ErrInvalid = errors.New("idx: invalid ulid")

// Source hands out monotonically increasing ULIDs. It is safe for concurrent
// use; ulid.MonotonicEntropy itself is not, hence the mutex.
type Source struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewSource returns a Source backed by crypto/rand.
func NewSource() *Source {
	return &Source{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// NewAt mints an ID whose timestamp component is t.
func (s *Source) NewAt(t time.Time) (ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := ulid.New(ulid.Timestamp(t.UTC()), s.entropy)
	if err != nil {
		return Zero, err
	}
	return ID(u.String()), nil
}

var (
	defaultOnce sync.Once
	defaultSrc  *Source
)

func source() *Source {
	defaultOnce.Do(func() { defaultSrc = NewSource() })
	return defaultSrc
}

// New mints an ID for the current time from the process wide source. Entropy
// exhaustion within a single millisecond is the only failure mode, and it
// panics because the caller cannot do anything sensible with it.
func New() ID {
	return NewAt(time.Now())
}

// NewAt is New for an explicit timestamp.
func NewAt(t time.Time) ID {
	id, err := source().NewAt(t)
	if err != nil {
		panic("idx: " + err.Error())
	}
	return id
}

// Parse validates s as a strict ULID. Surrounding whitespace is ignored and
// lowercase input is normalised to the canonical uppercase form.
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, ErrInvalid
	}

	u, err := ulid.ParseStrict(s)
	if err != nil {
		return Zero, ErrInvalid
	}
	return ID(u.String()), nil
}

// MustParse is Parse for hard-coded test fixtures.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id ID) IsZero() bool   { return id == Zero }
func (id ID) String() string { return string(id) }

// Time returns the millisecond timestamp embedded in the ID, or the zero time
// when the ID does not parse.
func (id ID) Time() time.Time {
	u, err := ulid.ParseStrict(string(id))
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(u.Time()).UTC()
}
