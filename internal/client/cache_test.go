package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQueryCache_CommitAfterInvalidation(t *testing.T) {
	qc := newQueryCache(nil)
	k := Key{"savoir", "le-pain"}

	start := qc.begin(k)
	qc.invalidate(Key{"savoir", "s1"})
	assert.True(t, qc.commit(k, "v1", start), "an unrelated key does not block the write")

	start = qc.begin(k)
	qc.invalidate(All("savoir"))
	assert.False(t, qc.commit(k, "v2", start))
	v, ok := qc.fresh(k, time.Minute)
	assert.False(t, ok, "the entry was marked stale, got %v", v)

	// The id is only known from the response: it still counts.
	start = qc.begin(k)
	qc.invalidate(Key{"savoir", "s1"})
	assert.False(t, qc.commit(k, "v3", start, Key{"savoir", "s1"}, k))

	start = qc.begin(k)
	assert.True(t, qc.commit(k, "v4", start, Key{"savoir", "s1"}, k))
	qc.invalidate(Key{"savoir", "s1"})
	_, ok = qc.fresh(k, time.Minute)
	assert.False(t, ok, "linked keys are invalidated together")

	start = qc.begin(k)
	qc.reset()
	assert.False(t, qc.commit(k, "v5", start))
	assert.Empty(t, qc.pending)
}
