package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNullUUID(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	assert.Equal(t, uuid.NullUUID{UUID: id, Valid: true}, nullUUID(id))
	assert.Equal(t, uuid.NullUUID{}, nullUUID(uuid.Nil))
}

func TestNullTime(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, at, nullTime(&at).Time)
	assert.True(t, nullTime(&at).Valid)
	assert.False(t, nullTime(nil).Valid)
}

func TestNullJSON(t *testing.T) {
	t.Parallel()

	assert.Nil(t, nullJSON(nil))
	assert.Nil(t, nullJSON([]byte{}))
	assert.Equal(t, []byte(`{"a":1}`), nullJSON([]byte(`{"a":1}`)))
}
