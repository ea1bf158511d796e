// README: Point-of-interest entity: parse, validate and canonical JSON.
package state

import (
	"encoding/json"

	"atlas/internal/types"
)

// POIType classifies a point of interest.
type POIType string

const (
	POITypeRestaurant         POIType = "restaurant"
	POITypeLodging            POIType = "lodging"
	POITypeTouristDestination POIType = "tourist_destination"
	POITypeUnknown            POIType = "unknown"
)

// ParsePOIType maps free text onto the enum; anything unrecognized is a tourist destination.
func ParsePOIType(raw any) POIType {
	s, _ := raw.(string)
	switch t := POIType(s); t {
	case POITypeRestaurant, POITypeLodging, POITypeTouristDestination, POITypeUnknown:
		return t
	}
	return POITypeTouristDestination
}

// ImageSet holds hydrated image URLs. A nil *ImageSet on a POI means images
// have not been looked up yet; an empty set means none were found.
type ImageSet struct {
	URLs []string
}

// NewImageSet copies urls into a populated set.
func NewImageSet(urls []string) *ImageSet {
	out := make([]string, len(urls))
	copy(out, urls)
	return &ImageSet{URLs: out}
}

func (s ImageSet) MarshalJSON() ([]byte, error) {
	urls := s.URLs
	if urls == nil {
		urls = []string{}
	}
	return json.Marshal(struct {
		URLs []string `json:"urls"`
	}{URLs: urls})
}

// POI is a named place the traveler is interested in. Name is the key
// within a collection.
type POI struct {
	Name                string              `json:"name"`
	Description         string              `json:"description"`
	GeoCoordinate       types.GeoCoordinate `json:"geo_coordinate"`
	Type                POIType             `json:"poi_type"`
	OpeningHours        string              `json:"opening_hours,omitempty"`
	Address             string              `json:"address,omitempty"`
	SpecialInstructions string              `json:"special_instructions,omitempty"`
	Images              *ImageSet           `json:"images,omitempty"`
	Cost                string              `json:"cost"`
}

// WithImages returns a copy of p carrying urls as its image set.
func (p POI) WithImages(urls []string) POI {
	p.Images = NewImageSet(urls)
	return p
}

// ParsePOIs strictly parses a POI collection, failing on the first violation.
func ParsePOIs(raw any, opts Options) ([]POI, error) {
	var v violations
	pois := decodePOIs(raw, opts, &v)
	if err := v.first(); err != nil {
		return nil, err
	}
	return pois, nil
}

// ValidatePOIs reports every violation in a POI collection without failing.
func ValidatePOIs(raw any, opts Options) []string {
	var v violations
	decodePOIs(raw, opts, &v)
	return v.messages()
}

func decodePOIs(raw any, opts Options, v *violations) []POI {
	items, ok := collection(raw, poiShapes, "poi", opts.AllowEmpty, v)
	if !ok {
		return nil
	}
	return decodePOIItems(items, "items", opts, v)
}

func decodePOIItems(items []any, prefix string, opts Options, v *violations) []POI {
	out := make([]POI, 0, len(items))
	for i, item := range items {
		if p, ok := decodePOI(item, at(prefix, i), opts, v); ok {
			out = append(out, p)
		}
	}
	return out
}

func decodePOI(raw any, path string, opts Options, v *violations) (POI, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		v.add(path, "must be an object")
		return POI{}, false
	}
	before := v.len()

	p := POI{
		Name:                requiredString(obj, "name", path, v),
		Description:         requiredString(obj, "description", path, v),
		GeoCoordinate:       decodeGeo(obj["geo_coordinate"], field(path, "geo_coordinate"), v),
		Type:                ParsePOIType(obj["poi_type"]),
		OpeningHours:        optionalString(obj, "opening_hours"),
		Address:             optionalString(obj, "address"),
		SpecialInstructions: optionalString(obj, "special_instructions"),
		Images:              decodeImages(obj["images"]),
		Cost:                optionalString(obj, "cost"),
	}
	if opts.RequireImages && p.Images == nil {
		v.add(field(path, "images.urls"), "is required")
	}
	return p, v.len() == before
}

func decodeGeo(raw any, path string, v *violations) types.GeoCoordinate {
	obj, ok := raw.(map[string]any)
	if !ok {
		v.add(path, "must be an object")
		return types.GeoCoordinate{}
	}
	lat, ok := number(obj["lat"])
	if !ok {
		v.add(field(path, "lat"), "must be a number")
	}
	lng, ok := number(obj["lng"])
	if !ok {
		v.add(field(path, "lng"), "must be a number")
	}
	return types.GeoCoordinate{Lat: lat, Lng: lng}
}

// decodeImages keeps only well-formed http(s) URLs; a missing or malformed
// images object leaves the POI unhydrated.
func decodeImages(raw any) *ImageSet {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	urls, ok := obj["urls"].([]any)
	if !ok {
		return nil
	}
	set := &ImageSet{URLs: make([]string, 0, len(urls))}
	for _, u := range urls {
		if s, ok := u.(string); ok && validURL(s) {
			set.URLs = append(set.URLs, s)
		}
	}
	return set
}
