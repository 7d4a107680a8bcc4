package id

import (
	"encoding/binary"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/oklog/ulid/v2"
)

// Deterministic returns the ULID whose timestamp is t and whose entropy is
// derived from seed. The same inputs always produce the same ID.
//
// Realized trades are journaled and indexed by ID: the timestamp keeps
// inserts in close-time order, and the derived entropy means replaying the
// same history reproduces the same IDs instead of minting fresh ones, so
// re-journaling after a reprocess stays idempotent.
func Deterministic(t time.Time, seed string) string {
	a := xxhash.Sum64String(seed)
	b := xxhash.Sum64String("\x00" + seed)

	var entropy [10]byte
	binary.BigEndian.PutUint64(entropy[:8], a)
	binary.BigEndian.PutUint16(entropy[8:], uint16(b))

	var u ulid.ULID
	if err := u.SetTime(ulid.Timestamp(t.UTC())); err != nil {
		// Only possible for timestamps beyond the ULID epoch range.
		panic(err)
	}
	if err := u.SetEntropy(entropy[:]); err != nil {
		panic(err)
	}
	return u.String()
}
