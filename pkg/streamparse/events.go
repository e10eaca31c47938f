package streamparse

import (
	"time"

	"github.com/canvasml/studio/pkg/vfs"
)

// EventType tags a lifecycle event.
type EventType string

const (
	EventProjectStart EventType = "project_start"
	EventFileStart    EventType = "file_start"
	EventFileContent  EventType = "file_content"
	EventFileEnd      EventType = "file_end"
	EventDependency   EventType = "dependency"
	EventProjectEnd   EventType = "project_end"
)

// Event is one protocol milestone. Ordering from a single parser instance is
// total: a file's content events are always bounded by its own start/end, at
// most one file is open at a time, and project_end is terminal.
type Event struct {
	Type       EventType    `json:"type"`
	At         time.Time    `json:"at"`
	Project    *ProjectInfo `json:"project,omitempty"`
	Path       string       `json:"path,omitempty"`
	Content    string       `json:"content,omitempty"`
	File       *vfs.File    `json:"file,omitempty"`
	Dependency *Dependency  `json:"dependency,omitempty"`
	Summary    *Summary     `json:"summary,omitempty"`
}

// ProjectInfo carries project metadata from the stream preamble.
type ProjectInfo struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name,omitempty"`
	Framework   string `json:"framework,omitempty"`
	Description string `json:"description,omitempty"`
}

// Dependency is one validated dependency declaration.
type Dependency struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Dev     bool   `json:"dev,omitempty"`
}

// Summary accompanies project_end.
type Summary struct {
	FileCount int `json:"file_count"`
	TotalSize int `json:"total_size"`
}

// ParseError is one recoverable protocol anomaly. The parser's error list is
// bounded; the oldest entries are evicted on overflow.
type ParseError struct {
	At       time.Time `json:"at"`
	Message  string    `json:"message"`
	Fragment string    `json:"fragment,omitempty"`
}
