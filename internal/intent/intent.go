// README: Structured intents extracted from a user message, plus list validation.
package intent

import (
	"errors"
	"fmt"
	"strings"

	"atlas/internal/state"
)

// Kind is the category of an intent.
type Kind string

const (
	KindPointsOfInterest    Kind = "Points_Of_Interest"
	KindScheduleRequirement Kind = "Schedule_Requirement"
	KindScheduleOption      Kind = "Schedule_Option"
	KindNotRelevant         Kind = "Not_Relevant"
	KindGeneralResponse     Kind = "General_Response"
)

// Action is what an intent asks to do with its value.
type Action string

const (
	ActionAdd    Action = "add"
	ActionRemove Action = "remove"
	ActionModify Action = "modify"
)

// PlaceholderValue is the reply used when classification cannot be trusted.
const PlaceholderValue = "We're working on it."

var (
	ErrInvalidJSON    = errors.New("classifier output is not json")
	ErrInvalidIntents = errors.New("classifier output is not a valid intent list")
)

// Intent is one structured instruction derived from a message.
type Intent struct {
	Kind     Kind   `json:"intent"`
	Action   Action `json:"action,omitempty"`
	Value    string `json:"value"`
	Response string `json:"response,omitempty"`
}

// Is reports whether the intent has the given kind and action.
func (i Intent) Is(kind Kind, action Action) bool {
	return i.Kind == kind && i.Action == action
}

// Placeholder is the single intent returned when classification is exhausted.
func Placeholder() []Intent {
	return []Intent{{Kind: KindGeneralResponse, Value: PlaceholderValue}}
}

var allowedActions = map[Kind][]Action{
	KindPointsOfInterest:    {ActionAdd, ActionRemove},
	KindScheduleRequirement: {ActionAdd, ActionRemove},
	KindScheduleOption:      {ActionAdd, ActionModify, ActionRemove},
	KindNotRelevant:         nil,
	KindGeneralResponse:     nil,
}

// Validate checks a decoded classifier payload and returns every violation.
func Validate(payload any) []string {
	obj, ok := payload.(map[string]any)
	if !ok {
		return []string{"payload must be an object"}
	}
	list, ok := obj["intents"].([]any)
	if !ok || len(list) == 0 {
		return []string{"intents must be a non-empty list"}
	}

	var errs []string
	for i, item := range list {
		path := fmt.Sprintf("intents[%d]", i)
		entry, ok := item.(map[string]any)
		if !ok {
			errs = append(errs, path+": must be an object")
			continue
		}
		kindRaw, _ := entry["intent"].(string)
		actions, known := allowedActions[Kind(kindRaw)]
		if !known {
			errs = append(errs, path+".intent: is invalid")
			continue
		}
		if v, ok := entry["value"].(string); !ok || v == "" {
			errs = append(errs, path+".value: must be a non-empty string")
		}
		if actions != nil {
			action, _ := entry["action"].(string)
			if !containsAction(actions, Action(action)) {
				errs = append(errs, fmt.Sprintf("%s.action: must be one of %s", path, joinActions(actions)))
			}
		}
	}
	return errs
}

// Parse decodes classifier text into a validated intent list.
func Parse(text string) ([]Intent, error) {
	payload, err := state.DecodeJSON([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	if errs := Validate(payload); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidIntents, strings.Join(errs, "; "))
	}

	list := payload.(map[string]any)["intents"].([]any)
	out := make([]Intent, 0, len(list))
	for _, item := range list {
		entry := item.(map[string]any)
		in := Intent{Kind: Kind(entry["intent"].(string)), Value: entry["value"].(string)}
		if action, ok := entry["action"].(string); ok {
			in.Action = Action(action)
		}
		if resp, ok := entry["response"].(string); ok {
			in.Response = resp
		}
		out = append(out, in)
	}
	return out, nil
}

func containsAction(actions []Action, a Action) bool {
	for _, allowed := range actions {
		if allowed == a {
			return true
		}
	}
	return false
}

func joinActions(actions []Action) string {
	parts := make([]string, len(actions))
	for i, a := range actions {
		parts[i] = string(a)
	}
	return strings.Join(parts, "/")
}
