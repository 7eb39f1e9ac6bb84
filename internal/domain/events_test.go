package domain

import (
	"testing"
	"time"
)

func TestNewLifecycleEvent(t *testing.T) {
	event := NewLifecycleEvent(EventTypeTableReserved, "table-7", map[string]interface{}{
		"reserved_by": "user-1",
	})

	if event.EventType != EventTypeTableReserved {
		t.Errorf("expected event type %s, got %s", EventTypeTableReserved, event.EventType)
	}
	if event.AggregateID != "table-7" {
		t.Errorf("expected aggregate id table-7, got %s", event.AggregateID)
	}
	if event.Metadata["reserved_by"] != "user-1" {
		t.Error("metadata not set correctly")
	}
	if event.Timestamp.IsZero() {
		t.Error("timestamp should not be zero")
	}
	if time.Since(event.Timestamp) > time.Second {
		t.Error("timestamp should be close to current time")
	}
}
