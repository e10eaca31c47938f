package vfs

import (
	"log/slog"
	"time"
)

// ChangeType tags a change record.
type ChangeType string

const (
	ChangeCreate ChangeType = "create"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
)

// ChangeRecord describes one mutation. Records are batched and delivered
// after a short idle window rather than synchronously, so high-frequency
// streaming writes coalesce into one notification.
type ChangeRecord struct {
	Type    ChangeType
	Path    string
	Version int
	At      time.Time
}

// Subscribe registers a listener for batched change records. The returned
// function unsubscribes. Listeners run on the debounce timer goroutine (or
// the Flush caller); a consumer that needs the absolute latest state should
// query the FS directly.
func (fs *FS) Subscribe(fn func([]ChangeRecord)) func() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	id := fs.nextSub
	fs.nextSub++
	fs.subs[id] = fn
	return func() {
		fs.mu.Lock()
		defer fs.mu.Unlock()
		delete(fs.subs, id)
	}
}

// recordLocked queues a change record and (re)arms the debounce timer.
// Callers hold fs.mu.
func (fs *FS) recordLocked(t ChangeType, f *File) {
	if len(fs.subs) == 0 && fs.pending == nil {
		// Nothing listening and nothing queued: skip the timer entirely.
		return
	}
	fs.pending = append(fs.pending, ChangeRecord{
		Type:    t,
		Path:    f.Path,
		Version: f.Version,
		At:      time.Now(),
	})
	if fs.timer == nil {
		fs.timer = time.AfterFunc(fs.debounce, fs.Flush)
	} else {
		fs.timer.Reset(fs.debounce)
	}
}

// Flush delivers all pending change records immediately. Used by the timer
// and by tests that cannot wait out the debounce window.
func (fs *FS) Flush() {
	fs.mu.Lock()
	if fs.timer != nil {
		fs.timer.Stop()
		fs.timer = nil
	}
	batch := fs.pending
	fs.pending = nil
	subs := make([]func([]ChangeRecord), 0, len(fs.subs))
	for _, fn := range fs.subs {
		subs = append(subs, fn)
	}
	fs.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	for _, fn := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("vfs: change listener panicked", "panic", r)
				}
			}()
			fn(batch)
		}()
	}
}

// Close stops the debounce timer and drops pending records and subscribers.
func (fs *FS) Close() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.timer != nil {
		fs.timer.Stop()
		fs.timer = nil
	}
	fs.pending = nil
	fs.subs = make(map[int]func([]ChangeRecord))
}
