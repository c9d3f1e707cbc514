package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string. Account ids are ULIDs so they sort by
// creation time.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
