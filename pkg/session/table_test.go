package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateServerWalksTopDown(t *testing.T) {
	tb := newTable(3)

	r1, err := tb.allocateServer()
	require.NoError(t, err)
	assert.Equal(t, ID(3), r1.ID)

	r2, err := tb.allocateServer()
	require.NoError(t, err)
	assert.Equal(t, ID(2), r2.ID)
}

func TestAllocateServerFullReturnsErrTableFull(t *testing.T) {
	tb := newTable(1)
	_, err := tb.allocateServer()
	require.NoError(t, err)

	_, err = tb.allocateServer()
	assert.ErrorIs(t, err, ErrTableFull)
}

func TestFreeServerReturnsSlotToPool(t *testing.T) {
	tb := newTable(1)
	r, err := tb.allocateServer()
	require.NoError(t, err)
	r.AuthToken = 42

	tb.freeServer(r.ID)

	got, err := tb.serverByID(r.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, got)

	again, err := tb.allocateServer()
	require.NoError(t, err)
	assert.Equal(t, AuthToken(0), again.AuthToken)
}

func TestServerByTokenStructuralEquality(t *testing.T) {
	tb := newTable(2)
	r, err := tb.allocateServer()
	require.NoError(t, err)
	r.State = StateCreated
	r.AuthToken = 7

	got, err := tb.serverByToken(7)
	require.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)

	_, err = tb.serverByToken(8)
	assert.ErrorIs(t, err, ErrNotFound)
}
