package events

import (
	"encoding/json"

	"github.com/pkg/errors"
)

type envelope struct {
	Type EventType `json:"type"`
}

// NewEventFromJSON decodes one wire frame into its concrete event variant.
// Unknown fields are ignored; an unknown type is an error the caller can skip.
func NewEventFromJSON(b []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, errors.Wrap(err, "events: decode envelope")
	}

	var (
		e   Event
		err error
	)
	switch env.Type {
	case EventTypeToolStart:
		var v EventToolStart
		err = json.Unmarshal(b, &v)
		e = &v
	case EventTypeToolEnd:
		var v EventToolEnd
		err = json.Unmarshal(b, &v)
		e = &v
	case EventTypeToken:
		var v EventToken
		err = json.Unmarshal(b, &v)
		e = &v
	case EventTypeMissionStage:
		var v EventMissionStage
		err = json.Unmarshal(b, &v)
		e = &v
	case EventTypeMissionComplete:
		var v EventMissionComplete
		err = json.Unmarshal(b, &v)
		e = &v
	case EventTypeMissionError:
		var v EventMissionError
		err = json.Unmarshal(b, &v)
		e = &v
	default:
		return nil, errors.Errorf("events: unknown event type %q", env.Type)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "events: decode %s", env.Type)
	}
	return e, nil
}

// MarshalEvent encodes an event into the wire envelope, adding the type
// discriminator next to the variant's own fields.
func MarshalEvent(e Event) ([]byte, error) {
	if e == nil {
		return nil, errors.New("events: marshal nil event")
	}
	body, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrapf(err, "events: marshal %s", e.Type())
	}
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, errors.Wrapf(err, "events: marshal %s", e.Type())
	}
	m["type"] = string(e.Type())
	return json.Marshal(m)
}

// MarshalEvents encodes an ordered event list as a JSON array of envelopes.
func MarshalEvents(evs []Event) ([]byte, error) {
	frames := make([]json.RawMessage, 0, len(evs))
	for _, ev := range evs {
		b, err := MarshalEvent(ev)
		if err != nil {
			return nil, err
		}
		frames = append(frames, b)
	}
	return json.Marshal(frames)
}

// UnmarshalEvents decodes a JSON array of envelopes back into events.
func UnmarshalEvents(b []byte) ([]Event, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var frames []json.RawMessage
	if err := json.Unmarshal(b, &frames); err != nil {
		return nil, errors.Wrap(err, "events: decode event list")
	}
	out := make([]Event, 0, len(frames))
	for _, f := range frames {
		ev, err := NewEventFromJSON(f)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}
