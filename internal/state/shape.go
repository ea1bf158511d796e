package state

import "sort"

// shapeAdapter extracts the raw item list from one accepted input shape.
// Raw input is the generic tree produced by DecodeJSON.
type shapeAdapter func(raw any) ([]any, bool)

var (
	poiShapes = []shapeAdapter{
		bareList,
		wrappedUnder("poi", "pois", "results", "points_of_interest"),
		firstListField,
		singleNamedObject,
	}
	requirementShapes = []shapeAdapter{bareList, wrappedUnder("requirements")}
	optionShapes      = []shapeAdapter{bareList, wrappedUnder("options")}
)

// normalize tries each adapter in order and returns the first match.
func normalize(raw any, adapters []shapeAdapter) ([]any, bool) {
	for _, adapt := range adapters {
		if items, ok := adapt(raw); ok {
			return items, true
		}
	}
	return nil, false
}

func bareList(raw any) ([]any, bool) {
	items, ok := raw.([]any)
	return items, ok
}

func wrappedUnder(keys ...string) shapeAdapter {
	return func(raw any) ([]any, bool) {
		obj, ok := raw.(map[string]any)
		if !ok {
			return nil, false
		}
		for _, key := range keys {
			if items, ok := obj[key].([]any); ok {
				return items, true
			}
		}
		return nil, false
	}
}

// firstListField picks the first list-valued field, keys in sorted order.
func firstListField(raw any) ([]any, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, false
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if items, ok := obj[k].([]any); ok {
			return items, true
		}
	}
	return nil, false
}

func singleNamedObject(raw any) ([]any, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, false
	}
	if _, ok := obj["name"]; !ok {
		return nil, false
	}
	return []any{obj}, true
}

// collection resolves the item list and applies the empty-collection rule.
func collection(raw any, shapes []shapeAdapter, family string, allowEmpty bool, v *violations) ([]any, bool) {
	items, ok := normalize(raw, shapes)
	if !ok {
		v.addSentinel(family+" must be a list or an object wrapping one", ErrNoShape)
		return nil, false
	}
	if len(items) == 0 && !allowEmpty {
		v.addSentinel(family+" list is empty", ErrEmpty)
		return nil, false
	}
	return items, true
}
