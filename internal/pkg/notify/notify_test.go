package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRaidEventSubject(t *testing.T) {
	assert.Equal(t, "raid.events.round", RaidEventSubject("round"))
}

func TestWithoutConnection(t *testing.T) {
	SetNatsConn(nil)

	require.NoError(t, PublishEvent(context.Background(), RaidEventSubject("spawned"), map[string]string{"a": "b"}))

	sub, err := Subscribe(SubjectRaidBids, func([]byte) {})
	require.NoError(t, err)
	assert.NoError(t, sub.Unsubscribe())
}
