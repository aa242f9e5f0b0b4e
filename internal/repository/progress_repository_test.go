package repository

import (
	"context"
	"database/sql/driver"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0.0, Percentage(0, 0))  // empty course is 0, not an error
	assert.Equal(t, 0.0, Percentage(10, 0))
	assert.Equal(t, 100.0, Percentage(10, 10))
	assert.Equal(t, 50.0, Percentage(10, 5))
	assert.Equal(t, 33.33, Percentage(3, 1)) // rounded to two decimals
	assert.Equal(t, 66.67, Percentage(3, 2))
	assert.Equal(t, 14.29, Percentage(7, 1))
}

func TestProgressRepoIsComplete(t *testing.T) {
	db, conn := openScripted(t,
		step{cols: []string{"done"}, rows: [][]driver.Value{{int64(1)}}},
		step{cols: []string{"done"}, rows: [][]driver.Value{{int64(0)}}},
	)
	repo := NewProgressRepo(db)

	done, err := repo.IsComplete(context.Background(), 5, 42)
	require.NoError(t, err)
	assert.True(t, done)

	done, err = repo.IsComplete(context.Background(), 5, 43)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, 0, conn.remaining())
}
