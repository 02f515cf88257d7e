package scan

import (
	"encoding/json"
	"time"
)

// EventType tags the events a scan emits.
type EventType string

const (
	EventFound    EventType = "Found"
	EventProgress EventType = "Progress"
	EventDone     EventType = "Done"
)

// Event is one message of a scan's output stream.
//
// Found carries Seed and Indexes. Progress and Done carry the half-open
// seed range [Start, End) completed since the previous report; for Done, End
// is the final watermark.
type Event struct {
	Type      EventType `json:"type"`
	ScanID    string    `json:"scanId,omitempty"`
	ProfileID string    `json:"profileId,omitempty"`
	Seed      int32     `json:"seed"`
	Indexes   []int     `json:"indexes,omitempty"`
	Start     int64     `json:"start"`
	End       int64     `json:"end"`
	Timestamp int64     `json:"timestamp,omitempty"`
}

// FoundEvent reports a galaxy with matching stars.
func FoundEvent(seed int32, indexes []int) Event {
	return Event{Type: EventFound, Seed: seed, Indexes: indexes, Timestamp: time.Now().Unix()}
}

func ProgressEvent(p Progress) Event {
	return Event{Type: EventProgress, Start: p.Start, End: p.End, Timestamp: time.Now().Unix()}
}

func DoneEvent(p Progress) Event {
	return Event{Type: EventDone, Start: p.Start, End: p.End, Timestamp: time.Now().Unix()}
}

// MarshalJSON writes only the fields that belong to the event type.
func (e Event) MarshalJSON() ([]byte, error) {
	type common struct {
		Type      EventType `json:"type"`
		ScanID    string    `json:"scanId,omitempty"`
		ProfileID string    `json:"profileId,omitempty"`
		Timestamp int64     `json:"timestamp,omitempty"`
	}
	head := common{e.Type, e.ScanID, e.ProfileID, e.Timestamp}
	if e.Type == EventFound {
		indexes := e.Indexes
		if indexes == nil {
			indexes = []int{}
		}
		return json.Marshal(struct {
			common
			Seed    int32 `json:"seed"`
			Indexes []int `json:"indexes"`
		}{head, e.Seed, indexes})
	}
	return json.Marshal(struct {
		common
		Start int64 `json:"start"`
		End   int64 `json:"end"`
	}{head, e.Start, e.End})
}

// JSON returns the event as JSON bytes.
func (e Event) JSON() ([]byte, error) {
	return json.Marshal(e)
}
