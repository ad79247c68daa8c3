package session

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	st, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	return st
}

func TestPutGetRoundTrip(t *testing.T) {
	st := newTestStore(t)
	id, dir, err := st.NewSessionDir()
	require.NoError(t, err)
	require.DirExists(t, dir)

	sess := &Session{
		ID:            id,
		Filename:      "report.pdf",
		OddPath:       filepath.Join(dir, "odd_pages.pdf"),
		EvenPath:      filepath.Join(dir, "even_pages.pdf"),
		TotalPages:    10,
		SelectedCount: 6,
		PageRange:     "1-6",
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, st.Put(sess))

	got, err := st.Get(id)
	require.NoError(t, err)
	assert.Equal(t, sess.Filename, got.Filename)
	assert.Equal(t, sess.TotalPages, got.TotalPages)
	assert.Equal(t, sess.PageRange, got.PageRange)
	assert.False(t, got.OddPrinted)
}

func TestGetMissing(t *testing.T) {
	st := newTestStore(t)
	_, err := st.Get("no-such-session")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetRejectsTraversal(t *testing.T) {
	st := newTestStore(t)
	for _, id := range []string{"", "..", "../etc", "a/b", `a\b`} {
		_, err := st.Get(id)
		assert.ErrorIs(t, err, ErrNotFound, "id %q", id)
	}
}

func TestUpdatePersists(t *testing.T) {
	st := newTestStore(t)
	id, _, err := st.NewSessionDir()
	require.NoError(t, err)
	require.NoError(t, st.Put(&Session{ID: id}))

	updated, err := st.Update(id, func(s *Session) error {
		s.RecordSubmission(SubsetEven, "P-1", "P")
		return nil
	})
	require.NoError(t, err)
	assert.True(t, updated.EvenPrinted)

	got, err := st.Get(id)
	require.NoError(t, err)
	assert.True(t, got.EvenPrinted)
	assert.Equal(t, "P-1", got.EvenJobID)
}

func TestUpdateMissing(t *testing.T) {
	st := newTestStore(t)
	_, err := st.Update("ghost", func(s *Session) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConcurrentUpdatesDoNotLoseFlags(t *testing.T) {
	st := newTestStore(t)
	id, _, err := st.NewSessionDir()
	require.NoError(t, err)
	require.NoError(t, st.Put(&Session{ID: id}))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = st.Update(id, func(s *Session) error {
			s.RecordSubmission(SubsetOdd, "P-1", "P")
			return nil
		})
	}()
	go func() {
		defer wg.Done()
		_, _ = st.Update(id, func(s *Session) error {
			s.RecordSubmission(SubsetEven, "P-2", "P")
			return nil
		})
	}()
	wg.Wait()

	got, err := st.Get(id)
	require.NoError(t, err)
	assert.True(t, got.OddPrinted, "odd submission lost")
	assert.True(t, got.EvenPrinted, "even submission lost")
}

func TestDeleteIdempotent(t *testing.T) {
	st := newTestStore(t)
	id, dir, err := st.NewSessionDir()
	require.NoError(t, err)
	require.NoError(t, st.Put(&Session{ID: id}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "odd_pages.pdf"), []byte("%PDF"), 0o644))

	require.NoError(t, st.Delete(id))
	assert.NoDirExists(t, dir)
	_, err = st.Get(id)
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting again, or deleting something that never existed, is fine
	assert.NoError(t, st.Delete(id))
	assert.NoError(t, st.Delete("never-existed"))
}
