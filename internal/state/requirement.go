package state

// Priority ranks how strongly a requirement should shape the plan.
type Priority string

const (
	PriorityMustHave  Priority = "must_have"
	PriorityPreferred Priority = "preferred"
	PriorityAvoid     Priority = "avoid"
)

// Requirement is a free-text trip constraint. Description is the key within a collection.
type Requirement struct {
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
}

// NewRequirement builds a requirement with the default priority.
func NewRequirement(description string) Requirement {
	return Requirement{Description: description, Priority: PriorityPreferred}
}

// ParseRequirements strictly parses a requirement collection.
func ParseRequirements(raw any, opts Options) ([]Requirement, error) {
	var v violations
	reqs := decodeRequirements(raw, opts, &v)
	if err := v.first(); err != nil {
		return nil, err
	}
	return reqs, nil
}

// ValidateRequirements reports every violation in a requirement collection.
func ValidateRequirements(raw any, opts Options) []string {
	var v violations
	decodeRequirements(raw, opts, &v)
	return v.messages()
}

func decodeRequirements(raw any, opts Options, v *violations) []Requirement {
	items, ok := collection(raw, requirementShapes, "requirements", opts.AllowEmpty, v)
	if !ok {
		return nil
	}
	out := make([]Requirement, 0, len(items))
	for i, item := range items {
		path := at("items", i)
		obj, ok := item.(map[string]any)
		if !ok {
			v.add(path, "must be an object")
			continue
		}
		before := v.len()
		r := Requirement{
			Description: requiredString(obj, "description", path, v),
			Priority:    decodePriority(obj, path, v),
		}
		if v.len() == before {
			out = append(out, r)
		}
	}
	return out
}

func decodePriority(obj map[string]any, path string, v *violations) Priority {
	raw, present := obj["priority"]
	if !present || raw == nil {
		return PriorityPreferred
	}
	s, _ := raw.(string)
	switch p := Priority(s); p {
	case PriorityMustHave, PriorityPreferred, PriorityAvoid:
		return p
	}
	v.add(field(path, "priority"), "must be one of: must_have, preferred, avoid")
	return ""
}
