package postgres

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestULIDGenerator_Generate(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	gen := NewULIDGeneratorWithClock(func() time.Time { return at })

	prev := ""
	for i := 0; i < 100; i++ {
		id := gen.Generate()

		parsed, err := ulid.ParseStrict(id)
		require.NoError(t, err)
		assert.Equal(t, at.UnixMilli(), ulid.Time(parsed.Time()).UnixMilli())
		assert.Greater(t, id, prev, "ids from one millisecond must still increase")
		prev = id
	}
}

func TestULIDGenerator_DefaultClock(t *testing.T) {
	before := time.Now().Add(-time.Second)
	id := NewULIDGenerator().Generate()

	parsed, err := ulid.ParseStrict(id)
	require.NoError(t, err)
	assert.True(t, ulid.Time(parsed.Time()).After(before))
}
