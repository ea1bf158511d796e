// README: Itinerary option entity (option → days → blocks → transportation).
package state

// ItineraryOption is one candidate plan for the whole trip.
type ItineraryOption struct {
	Days         []Day  `json:"days"`
	OverallCost  string `json:"overall_cost"`
	GeneralNotes string `json:"general_notes"`
}

// Day is an ordered list of blocks with an optional lodging note.
type Day struct {
	Highlight string  `json:"highlight"`
	Lodging   string  `json:"lodging,omitempty"`
	Blocks    []Block `json:"blocks"`
}

// Block is a time slot within a day.
type Block struct {
	Time           string          `json:"time"`
	Description    string          `json:"description"`
	POIs           []POI           `json:"pois,omitempty"`
	Transportation *Transportation `json:"transportation,omitempty"`
}

// Transportation describes how the traveler reaches a block.
type Transportation struct {
	Duration string   `json:"duration"`
	Method   string   `json:"method"`
	Cost     *float64 `json:"cost,omitempty"`
}

// ParseItineraryOptions strictly parses a collection of itinerary options.
func ParseItineraryOptions(raw any, opts Options) ([]ItineraryOption, error) {
	var v violations
	options := decodeOptions(raw, opts, &v)
	if err := v.first(); err != nil {
		return nil, err
	}
	return options, nil
}

// ValidateItineraryOptions reports every violation, including nested POIs.
func ValidateItineraryOptions(raw any, opts Options) []string {
	var v violations
	decodeOptions(raw, opts, &v)
	return v.messages()
}

func decodeOptions(raw any, opts Options, v *violations) []ItineraryOption {
	items, ok := collection(raw, optionShapes, "options", opts.AllowEmpty, v)
	if !ok {
		return nil
	}
	out := make([]ItineraryOption, 0, len(items))
	for i, item := range items {
		if opt, ok := decodeOption(item, at("options", i), v); ok {
			out = append(out, opt)
		}
	}
	return out
}

func decodeOption(raw any, path string, v *violations) (ItineraryOption, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		v.add(path, "must be an object")
		return ItineraryOption{}, false
	}
	before := v.len()
	opt := ItineraryOption{
		OverallCost:  requiredString(obj, "overall_cost", path, v),
		GeneralNotes: requiredString(obj, "general_notes", path, v),
	}
	days, ok := nonEmptyList(obj, "days", path, v)
	if ok {
		for i, d := range days {
			if day, ok := decodeDay(d, at(field(path, "days"), i), v); ok {
				opt.Days = append(opt.Days, day)
			}
		}
	}
	return opt, v.len() == before
}

func decodeDay(raw any, path string, v *violations) (Day, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		v.add(path, "must be an object")
		return Day{}, false
	}
	before := v.len()
	day := Day{
		Highlight: requiredString(obj, "highlight", path, v),
		Lodging:   optionalString(obj, "lodging"),
	}
	blocks, ok := nonEmptyList(obj, "blocks", path, v)
	if ok {
		for i, b := range blocks {
			if block, ok := decodeBlock(b, at(field(path, "blocks"), i), v); ok {
				day.Blocks = append(day.Blocks, block)
			}
		}
	}
	return day, v.len() == before
}

func decodeBlock(raw any, path string, v *violations) (Block, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		v.add(path, "must be an object")
		return Block{}, false
	}
	before := v.len()
	block := Block{
		Time:        requiredString(obj, "time", path, v),
		Description: requiredString(obj, "description", path, v),
	}
	if rawPOIs, present := obj["pois"]; present && rawPOIs != nil {
		poisPath := field(path, "pois")
		items, ok := rawPOIs.([]any)
		switch {
		case !ok:
			v.add(poisPath, "must be a list")
		case len(items) == 0:
			v.add(poisPath, "must be a non-empty list")
		default:
			block.POIs = decodePOIItems(items, poisPath, Options{}, v)
		}
	}
	if rawTransport, present := obj["transportation"]; present && rawTransport != nil {
		block.Transportation = decodeTransportation(rawTransport, field(path, "transportation"), v)
	}
	return block, v.len() == before
}

func decodeTransportation(raw any, path string, v *violations) *Transportation {
	obj, ok := raw.(map[string]any)
	if !ok {
		v.add(path, "must be an object")
		return nil
	}
	t := &Transportation{
		Duration: requiredString(obj, "duration", path, v),
		Method:   requiredString(obj, "method", path, v),
	}
	if rawCost, present := obj["cost"]; present && rawCost != nil {
		cost, ok := number(rawCost)
		if !ok {
			v.add(field(path, "cost"), "must be a number")
		} else {
			t.Cost = &cost
		}
	}
	return t
}

func nonEmptyList(obj map[string]any, key, path string, v *violations) ([]any, bool) {
	items, ok := obj[key].([]any)
	if !ok || len(items) == 0 {
		v.add(field(path, key), "must be a non-empty list")
		return nil, false
	}
	return items, true
}
