package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrNotFound is returned for session ids with no backing directory.
var ErrNotFound = errors.New("session not found")

const snapshotName = "session.json"

// Store is the persistence boundary for sessions. Update is the only
// mutation path after creation; implementations must serialize
// concurrent updates of the same session so a read-modify-write cannot
// lose a printed flag.
type Store interface {
	NewSessionDir() (id, dir string, err error)
	Put(sess *Session) error
	Get(id string) (*Session, error)
	Update(id string, fn func(*Session) error) (*Session, error)
	Delete(id string) error
	Dir(id string) string
}

// FileStore keeps one directory per session under root, with the
// session snapshot stored next to the split files it references.
// Session existence is directory existence; there is no index file.
type FileStore struct {
	root string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFileStore creates the root directory if needed.
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create session root: %w", err)
	}
	return &FileStore{root: root, locks: make(map[string]*sync.Mutex)}, nil
}

// NewSessionDir allocates a fresh session directory and returns its id
// (the directory name) and absolute path.
func (s *FileStore) NewSessionDir() (string, string, error) {
	id := uuid.NewString()
	dir := filepath.Join(s.root, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create session dir: %w", err)
	}
	return id, dir, nil
}

// Dir returns the directory a session id maps to. The id is not
// required to exist.
func (s *FileStore) Dir(id string) string { return filepath.Join(s.root, id) }

// validID rejects ids that could escape the session root. Ids come in
// from URLs.
func validID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\`) && id != "." && id != ".."
}

// Put writes the session snapshot, creating or overwriting it.
func (s *FileStore) Put(sess *Session) error {
	if !validID(sess.ID) {
		return fmt.Errorf("invalid session id: %q", sess.ID)
	}
	lock := s.lockFor(sess.ID)
	lock.Lock()
	defer lock.Unlock()
	return s.write(sess)
}

// Get loads a session snapshot. Missing directory or snapshot both
// report ErrNotFound.
func (s *FileStore) Get(id string) (*Session, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	return s.read(id)
}

// Update applies fn to the stored session under the session's lock and
// persists the result, so two concurrent print submissions for the same
// session cannot lose each other's flags.
func (s *FileStore) Update(id string, fn func(*Session) error) (*Session, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.read(id)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	if err := s.write(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Delete removes the session directory and every file in it. Deleting
// a session that does not exist is a no-op.
func (s *FileStore) Delete(id string) error {
	if !validID(id) {
		return nil
	}
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	dir := s.Dir(id)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove session dir: %w", err)
	}
	s.mu.Lock()
	delete(s.locks, id)
	s.mu.Unlock()
	log.Info().Str("session_id", id).Msg("session cleaned up")
	return nil
}

func (s *FileStore) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.locks[id]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[id] = l
	return l
}

func (s *FileStore) read(id string) (*Session, error) {
	b, err := os.ReadFile(filepath.Join(s.Dir(id), snapshotName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

func (s *FileStore) write(sess *Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	path := filepath.Join(s.Dir(sess.ID), snapshotName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}
