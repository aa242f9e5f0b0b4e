package repository

// Repositories must survive a dropped connection: the first failing attempt
// is retried by the policy in internal/database.  These tests run the repos
// against a scripted driver that fails on cue.

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bytetech/academy-backend/internal/model"
)

// errConnRefused mimics the driver error seen when the server is briefly
// unreachable.  A plain error is used rather than driver.ErrBadConn because
// database/sql swallows ErrBadConn and retries on its own.
var errConnRefused = errors.New("dial tcp 127.0.0.1:3306: connect: connection refused")

// step scripts the outcome of one statement executed on the connection.
type step struct {
	err      error            // returned instead of running the statement
	cols     []string         // result set columns for queries
	rows     [][]driver.Value // result set rows
	rowsErr  error            // returned by Next after rows are exhausted
	affected int64            // RowsAffected for execs
	insertID int64            // LastInsertId for execs
}

type scriptedConn struct {
	mu    sync.Mutex
	steps []step
}

func (c *scriptedConn) next() (step, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.steps) == 0 {
		return step{}, errors.New("script exhausted")
	}
	s := c.steps[0]
	c.steps = c.steps[1:]
	return s, nil
}

func (c *scriptedConn) remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.steps)
}

func (c *scriptedConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not scripted") }
func (c *scriptedConn) Close() error                        { return nil }
func (c *scriptedConn) Begin() (driver.Tx, error)           { return nil, errors.New("not scripted") }

func (c *scriptedConn) QueryContext(_ context.Context, _ string, _ []driver.NamedValue) (driver.Rows, error) {
	s, err := c.next()
	if err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	return &scriptedRows{cols: s.cols, rows: s.rows, err: s.rowsErr}, nil
}

func (c *scriptedConn) ExecContext(_ context.Context, _ string, _ []driver.NamedValue) (driver.Result, error) {
	s, err := c.next()
	if err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	return scriptedResult{affected: s.affected, insertID: s.insertID}, nil
}

type scriptedRows struct {
	cols []string
	rows [][]driver.Value
	err  error
	pos  int
}

func (r *scriptedRows) Columns() []string { return r.cols }
func (r *scriptedRows) Close() error      { return nil }

func (r *scriptedRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.rows) {
		if r.err != nil {
			return r.err
		}
		return io.EOF
	}
	copy(dest, r.rows[r.pos])
	r.pos++
	return nil
}

type scriptedResult struct{ affected, insertID int64 }

func (r scriptedResult) LastInsertId() (int64, error) { return r.insertID, nil }
func (r scriptedResult) RowsAffected() (int64, error) { return r.affected, nil }

type scriptedDriver struct{ conn *scriptedConn }

func (d *scriptedDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

var scriptedSeq int64

// openScripted wires a *sql.DB to a connection that plays back steps in
// order, one per statement.
func openScripted(t *testing.T, steps ...step) (*sql.DB, *scriptedConn) {
	t.Helper()
	conn := &scriptedConn{steps: steps}
	name := fmt.Sprintf("scripted-%d", atomic.AddInt64(&scriptedSeq, 1))
	sql.Register(name, &scriptedDriver{conn: conn})
	db, err := sql.Open(name, "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, conn
}

func TestCourseRepoGetByIDRetriesDroppedConnection(t *testing.T) {
	created := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	db, conn := openScripted(t,
		step{err: errConnRefused},
		step{
			cols: []string{"id", "sensei_id", "name", "description", "price", "duration_hours", "miniature_ref", "preview_ref", "created_at"},
			rows: [][]driver.Value{
				{int64(7), int64(3), "Go from scratch", "intro", 49.0, 12.5, "mini.png", "prev.mp4", created},
			},
		},
	)

	c, err := NewCourseRepo(db).GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), c.ID)
	assert.Equal(t, uint64(3), c.SenseiID)
	assert.Equal(t, "Go from scratch", c.Name)
	assert.Equal(t, created, c.CreatedAt)
	assert.Equal(t, 0, conn.remaining())
}

func TestLessonRepoDeleteRetriesDroppedConnection(t *testing.T) {
	db, conn := openScripted(t,
		step{err: errConnRefused},
		step{affected: 1},
	)

	err := NewLessonRepo(db).Delete(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 0, conn.remaining())
}

func TestThreadRepoListRestartsCleanlyAfterMidScanFailure(t *testing.T) {
	cols := []string{"id", "lesson_id", "user_id", "topic", "created_at", "username", "message_count"}
	created := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	rowA := []driver.Value{int64(2), int64(5), int64(9), "stuck on pointers", created, "ana", int64(4)}
	rowB := []driver.Value{int64(1), int64(5), int64(8), "setup help", created, "bo", int64(1)}

	// First attempt yields one row then dies; the retry must not keep it.
	db, conn := openScripted(t,
		step{cols: cols, rows: [][]driver.Value{rowA}, rowsErr: errConnRefused},
		step{cols: cols, rows: [][]driver.Value{rowA, rowB}},
	)

	threads, err := NewThreadRepo(db).ListByLesson(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, threads, 2)
	assert.Equal(t, "stuck on pointers", threads[0].Topic)
	assert.Equal(t, "setup help", threads[1].Topic)
	assert.Equal(t, 0, conn.remaining())
}

func TestSectionRepoGetByIDMissingRowDoesNotRetry(t *testing.T) {
	db, conn := openScripted(t,
		step{cols: []string{"id", "course_id", "title"}},
		step{err: errors.New("must not be reached")},
	)

	_, err := NewSectionRepo(db).GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, conn.remaining())
}

func TestMessageRepoCreateRetriesDroppedConnection(t *testing.T) {
	db, conn := openScripted(t,
		step{err: errConnRefused},
		step{affected: 1, insertID: 11},
	)

	m := model.Message{ThreadID: 2, UserID: 9, Body: "same here"}
	err := NewMessageRepo(db).Create(context.Background(), &m)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), m.ID)
	assert.Equal(t, 0, conn.remaining())
}
