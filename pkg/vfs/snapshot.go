package vfs

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot is a deep, timestamped copy of the store's files.
type Snapshot struct {
	ID      string    `json:"id" msgpack:"id"`
	TakenAt time.Time `json:"taken_at" msgpack:"taken_at"`
	Files   []*File   `json:"files" msgpack:"files"`
}

// Snapshot captures the current file set. The copy shares nothing with the
// live store.
func (fs *FS) Snapshot() *Snapshot {
	return &Snapshot{
		ID:      uuid.NewString(),
		TakenAt: time.Now(),
		Files:   fs.Files(),
	}
}

// Restore replaces the store's contents with the snapshot's files. Every
// restored file gets status pristine; versions are carried over.
func (fs *FS) Restore(s *Snapshot) {
	fs.mu.Lock()
	fs.files = make(map[string]*File)
	fs.order = nil
	for _, f := range s.Files {
		c := f.Clone()
		c.Status = StatusPristine
		fs.insertLocked(c)
	}
	fs.mu.Unlock()
}

// Clone returns an independent copy of the store. Subscribers and pending
// notifications are not carried over.
func (fs *FS) Clone() *FS {
	return NewFromFiles(fs.Files())
}
