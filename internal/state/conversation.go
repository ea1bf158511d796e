package state

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Conversation is the caller-held trip state carried from turn to turn.
// Transforms never mutate a Conversation in place; they build new slices.
type Conversation struct {
	POIs         []POI
	Requirements []Requirement
	Options      []ItineraryOption
}

// Snapshot is conversation state as received on the wire, one raw JSON
// value per field. Absent or null fields hydrate to empty collections.
type Snapshot struct {
	POIs         json.RawMessage
	Requirements json.RawMessage
	Options      json.RawMessage
}

// Hydrate validates each field independently (empty collections allowed,
// images optional) and parses it. Any violation rejects the whole state.
func (s Snapshot) Hydrate() (Conversation, error) {
	conv := Conversation{
		POIs:         []POI{},
		Requirements: []Requirement{},
		Options:      []ItineraryOption{},
	}
	opts := Options{AllowEmpty: true}

	raw, err := decodeField("pois", s.POIs)
	if err != nil {
		return Conversation{}, err
	}
	if raw != nil {
		if msgs := ValidatePOIs(raw, opts); len(msgs) > 0 {
			return Conversation{}, fmt.Errorf("%w: pois: %s", ErrInvalidState, joinMessages(msgs))
		}
		if conv.POIs, err = ParsePOIs(raw, opts); err != nil {
			return Conversation{}, fmt.Errorf("%w: pois: %w", ErrInvalidState, err)
		}
	}

	if raw, err = decodeField("requirements", s.Requirements); err != nil {
		return Conversation{}, err
	}
	if raw != nil {
		if msgs := ValidateRequirements(raw, opts); len(msgs) > 0 {
			return Conversation{}, fmt.Errorf("%w: requirements: %s", ErrInvalidState, joinMessages(msgs))
		}
		if conv.Requirements, err = ParseRequirements(raw, opts); err != nil {
			return Conversation{}, fmt.Errorf("%w: requirements: %w", ErrInvalidState, err)
		}
	}

	if raw, err = decodeField("plan", s.Options); err != nil {
		return Conversation{}, err
	}
	if raw != nil {
		if msgs := ValidateItineraryOptions(raw, opts); len(msgs) > 0 {
			return Conversation{}, fmt.Errorf("%w: plan: %s", ErrInvalidState, joinMessages(msgs))
		}
		if conv.Options, err = ParseItineraryOptions(raw, opts); err != nil {
			return Conversation{}, fmt.Errorf("%w: plan: %w", ErrInvalidState, err)
		}
	}

	return conv, nil
}

func decodeField(name string, data json.RawMessage) (any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	raw, err := DecodeJSON(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidState, name, err)
	}
	return raw, nil
}

// POINames lists names in collection order.
func POINames(pois []POI) []string {
	names := make([]string, len(pois))
	for i, p := range pois {
		names[i] = p.Name
	}
	return names
}
