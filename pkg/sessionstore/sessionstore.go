// Package sessionstore persists parsing sessions: project metadata,
// dependency maps, and a full-fidelity file snapshot.
//
// The package includes a BadgerDB-backed implementation for production use
// and an in-memory implementation for testing.
package sessionstore

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/canvasml/studio/pkg/vfs"
)

// ErrNotFound is returned when a session id does not exist in the store.
var ErrNotFound = errors.New("sessionstore: session not found")

// Session is one persisted parsing session.
type Session struct {
	ID              string            `msgpack:"id" json:"id"`
	Name            string            `msgpack:"name" json:"name"`
	Framework       string            `msgpack:"framework,omitempty" json:"framework,omitempty"`
	Description     string            `msgpack:"description,omitempty" json:"description,omitempty"`
	EntryPoint      string            `msgpack:"entry_point,omitempty" json:"entryPoint,omitempty"`
	Dependencies    map[string]string `msgpack:"deps,omitempty" json:"dependencies,omitempty"`
	DevDependencies map[string]string `msgpack:"dev_deps,omitempty" json:"devDependencies,omitempty"`
	Files           []*vfs.File       `msgpack:"files" json:"files"`
	CreatedAt       time.Time         `msgpack:"created_at" json:"createdAt"`
	UpdatedAt       time.Time         `msgpack:"updated_at" json:"updatedAt"`
}

// Store persists sessions by id.
type Store interface {
	// Put stores a session, overwriting any existing one with the same id.
	// An empty id is assigned; CreatedAt/UpdatedAt are maintained.
	Put(ctx context.Context, s *Session) error

	// Get retrieves a session. Returns ErrNotFound if not present.
	Get(ctx context.Context, id string) (*Session, error)

	// List iterates over all sessions in lexicographic id order.
	List(ctx context.Context) iter.Seq2[*Session, error]

	// Delete removes a session. No error if the id does not exist.
	Delete(ctx context.Context, id string) error

	// Close releases any resources held by the store.
	Close() error
}

// stamp fills in the id and timestamps before a write.
func stamp(s *Session) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
}

func encode(s *Session) ([]byte, error) {
	b, err := msgpack.Marshal(s)
	if err != nil {
		return nil, errors.New("sessionstore: encode: " + err.Error())
	}
	return b, nil
}

func decode(b []byte) (*Session, error) {
	var s Session
	if err := msgpack.Unmarshal(b, &s); err != nil {
		return nil, errors.New("sessionstore: decode: " + err.Error())
	}
	return &s, nil
}
