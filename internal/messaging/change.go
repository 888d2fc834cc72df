package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Kind of change carried by a notification
const (
	KindCreated      = "created"
	KindUpdated      = "updated"
	KindDeleted      = "deleted"
	KindTransitioned = "transitioned"
)

// Change notifies that a record was committed on the backend
type Change struct {
	ID         string          `json:"id"`
	Entity     string          `json:"entity"`
	RecordID   int64           `json:"record_id"`
	Kind       string          `json:"kind"`
	Action     string          `json:"action,omitempty"`
	Status     string          `json:"status,omitempty"`
	SessionID  string          `json:"session_id,omitempty"`
	Record     json.RawMessage `json:"record,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// NewChange creates a change with a fresh id. record may be nil.
func NewChange(entity string, recordID int64, kind string, record interface{}) (Change, error) {
	c := Change{
		ID:         uuid.NewString(),
		Entity:     entity,
		RecordID:   recordID,
		Kind:       kind,
		OccurredAt: time.Now().UTC(),
	}
	if record != nil {
		data, err := json.Marshal(record)
		if err != nil {
			return Change{}, err
		}
		c.Record = data
	}
	return c, nil
}

// Handler processes one change. Returning an error puts the message back.
type Handler func(ctx context.Context, change Change) error

// Publisher sends change notifications
type Publisher interface {
	Publish(ctx context.Context, change Change) error
}

// Bus publishes and consumes change notifications
type Bus interface {
	Publisher
	Consume(ctx context.Context, handler Handler) error
	Close() error
}
