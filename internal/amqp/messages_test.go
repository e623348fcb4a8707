package amqp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntrySyncMessageRoundTrip(t *testing.T) {
	msg := NewEntrySyncMessage(42, 3)
	assert.False(t, msg.Timestamp.IsZero())

	body, err := msg.ToJSON()
	require.NoError(t, err)

	got, err := EntrySyncMessageFromJSON(body)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.ID)
	assert.Equal(t, int64(3), got.Version)
}

func TestEntryDeleteMessageRoundTrip(t *testing.T) {
	msg := NewEntryDeleteMessage(7, "2024-03-11")
	body, err := msg.ToJSON()
	require.NoError(t, err)

	got, err := EntryDeleteMessageFromJSON(body)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.ID)
	assert.Equal(t, "2024-03-11", got.Date)
}

func TestMessageFromJSONRejectsGarbage(t *testing.T) {
	_, err := EntrySyncMessageFromJSON([]byte("not json"))
	assert.Error(t, err)

	_, err = EntryDeleteMessageFromJSON([]byte("{"))
	assert.Error(t, err)
}
