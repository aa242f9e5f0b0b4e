package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepoSetSensei(t *testing.T) {
	db, conn := openScripted(t, step{affected: 1})

	require.NoError(t, NewUserRepo(db).SetSensei(context.Background(), 5, true))
	assert.Equal(t, 0, conn.remaining())
}

func TestUserRepoDeleteMissingUser(t *testing.T) {
	db, _ := openScripted(t, step{affected: 0})

	err := NewUserRepo(db).Delete(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepoDelete(t *testing.T) {
	db, conn := openScripted(t, step{affected: 1})

	require.NoError(t, NewUserRepo(db).Delete(context.Background(), 5))
	assert.Equal(t, 0, conn.remaining())
}
