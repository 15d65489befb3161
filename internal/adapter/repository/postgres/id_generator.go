package postgres

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// ULIDGenerator hands out ids for wallets, ledger entries, outbox events and
// audit records. ULIDs sort by creation time, which keeps the id tie-breaker
// of the history listings in creation order.
type ULIDGenerator struct {
	now func() time.Time
}

func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{now: time.Now}
}

// NewULIDGeneratorWithClock stamps ids with the time returned by now.
func NewULIDGeneratorWithClock(now func() time.Time) *ULIDGenerator {
	return &ULIDGenerator{now: now}
}

// Generate returns a new ULID. Ids from one generator are strictly
// increasing, also within the same millisecond.
func (g *ULIDGenerator) Generate() string {
	return ulid.MustNew(ulid.Timestamp(g.now()), ulid.DefaultEntropy()).String()
}
