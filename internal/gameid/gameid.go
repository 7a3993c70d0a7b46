// Package gameid generates session identifiers. An ID is a 48-bit millisecond
// timestamp followed by 80 random bits, base32 encoded with Crockford's
// lower-case alphabet, so IDs sort by creation time.
package gameid

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"sync"
	"time"

	"github.com/coder/quartz"

	"github.com/lox/casino/internal/randutil"
)

// Crockford's base32 alphabet, lower case.
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Length of an encoded ID.
const Length = 26

const rawSize = 16

var encoding = base32.NewEncoding(alphabet).WithPadding(base32.NoPadding)

// Generator creates IDs from a clock and a random source.
type Generator struct {
	mu    sync.Mutex
	clock quartz.Clock
	rng   randutil.Source
}

// NewGenerator creates a generator. A nil rng uses crypto/rand.
func NewGenerator(clock quartz.Clock, rng randutil.Source) *Generator {
	return &Generator{clock: clock, rng: rng}
}

var defaultGenerator = NewGenerator(quartz.NewReal(), nil)

// Generate creates an ID with the wall clock and crypto randomness.
func Generate() string {
	return defaultGenerator.New()
}

// New creates an ID.
func (g *Generator) New() string {
	var raw [rawSize]byte

	ms := g.clock.Now().UnixMilli()
	for i := 0; i < 6; i++ {
		raw[i] = byte(ms >> (40 - 8*i))
	}

	if g.rng == nil {
		if _, err := rand.Read(raw[6:]); err != nil {
			panic("failed to generate random bytes: " + err.Error())
		}
	} else {
		g.mu.Lock()
		for i := 6; i < rawSize; i++ {
			raw[i] = byte(g.rng.IntN(256))
		}
		g.mu.Unlock()
	}

	return encoding.EncodeToString(raw[:])
}

func decode(id string) ([]byte, error) {
	if len(id) != Length {
		return nil, fmt.Errorf("session ID must be exactly %d characters, got %d", Length, len(id))
	}
	raw, err := encoding.DecodeString(id)
	if err != nil {
		return nil, fmt.Errorf("invalid session ID %q: %w", id, err)
	}
	return raw, nil
}

// Validate checks that id is a well-formed session ID.
func Validate(id string) error {
	_, err := decode(id)
	return err
}

// Time returns the creation time encoded in id.
func Time(id string) (time.Time, error) {
	raw, err := decode(id)
	if err != nil {
		return time.Time{}, err
	}
	var ms int64
	for i := 0; i < 6; i++ {
		ms = ms<<8 | int64(raw[i])
	}
	return time.UnixMilli(ms), nil
}
