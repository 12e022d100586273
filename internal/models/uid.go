package models

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ErrUIDTime is returned for execution times a ULID cannot encode:
// before the Unix epoch or after ulid.MaxTime (year 10889).
var ErrUIDTime = errors.New("time out of range for uid")

var uidGen struct {
	sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// uidEntropy lazily seeds the shared monotonic source. Callers hold uidGen.
func uidEntropy() *ulid.MonotonicEntropy {
	if uidGen.entropy == nil {
		var buf [8]byte
		seed := time.Now().UnixNano()
		if _, err := cryptoRand.Read(buf[:]); err == nil {
			seed = int64(binary.LittleEndian.Uint64(buf[:]))
		}
		uidGen.entropy = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
	}
	return uidGen.entropy
}

// NewUID returns a row key for a trade leg executed now.
func NewUID() (string, error) {
	return NewUIDAt(time.Now())
}

// NewUIDAt returns a row key whose time component is at. Keys generated in
// the same millisecond keep increasing.
func NewUIDAt(at time.Time) (string, error) {
	if at.Before(time.Unix(0, 0)) || ulid.Timestamp(at) > ulid.MaxTime() {
		return "", fmt.Errorf("%w: %s", ErrUIDTime, at.Format(time.RFC3339))
	}

	uidGen.Lock()
	defer uidGen.Unlock()

	id, err := ulid.New(ulid.Timestamp(at), uidEntropy())
	if err != nil {
		// ulid.ErrMonotonicOverflow: the random part ran out within one millisecond.
		return "", fmt.Errorf("generate uid: %w", err)
	}
	return id.String(), nil
}
