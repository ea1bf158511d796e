// README: Typed messages of the staged chat stream.
package stream

import (
	"atlas/internal/intent"
	"atlas/internal/state"
)

// Type names a stage of the stream.
type Type string

const (
	TypeIntents      Type = "intents"
	TypePOIs         Type = "pois"
	TypeRequirements Type = "requirements"
	TypePlan         Type = "plan"
	TypePOIImages    Type = "poi_images"
	TypeDone         Type = "done"
	TypeError        Type = "error"
)

// Message is one frame sent to the client. Error frames carry Message instead of Data.
type Message struct {
	Type    Type   `json:"type"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// POIImages is the payload of a poi_images message.
type POIImages struct {
	Name   string         `json:"name"`
	Images state.ImageSet `json:"images"`
}

// Terminal reports whether m ends the sequence.
func (m Message) Terminal() bool {
	return m.Type == TypeDone || m.Type == TypeError
}

func intentsMessage(intents []intent.Intent) Message {
	return Message{Type: TypeIntents, Data: intents}
}

func poisMessage(pois []state.POI) Message {
	if pois == nil {
		pois = []state.POI{}
	}
	return Message{Type: TypePOIs, Data: pois}
}

func requirementsMessage(reqs []state.Requirement) Message {
	if reqs == nil {
		reqs = []state.Requirement{}
	}
	return Message{Type: TypeRequirements, Data: reqs}
}

func planMessage(options []state.ItineraryOption) Message {
	if options == nil {
		options = []state.ItineraryOption{}
	}
	return Message{Type: TypePlan, Data: options}
}

func imagesMessage(name string, urls []string) Message {
	return Message{Type: TypePOIImages, Data: POIImages{Name: name, Images: *state.NewImageSet(urls)}}
}

// ErrorMessage builds a terminal error frame.
func ErrorMessage(text string) Message {
	return Message{Type: TypeError, Message: text}
}
