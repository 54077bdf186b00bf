package events

import (
	"context"
	"time"
)

// Event topic constants
const (
	TopicFileGenerated   = "etcd.file.generated"
	TopicOverrideSet     = "etcd.override.set"
	TopicOverrideDeleted = "etcd.override.deleted"
)

// FileGenerated is emitted after a managed file has been written.
type FileGenerated struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Size      int       `json:"size"`
	Published bool      `json:"published"`
	At        time.Time `json:"at"`
}

// OverrideSet is emitted when a database override is created or changed.
type OverrideSet struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// OverrideDeleted is emitted when a database override is removed.
type OverrideDeleted struct {
	Key string `json:"key"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
