// README: Google Places text search exposed as a POI discovery collaborator.
package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"googlemaps.github.io/maps"

	"atlas/internal/state"
	"atlas/internal/types"
)

// PlacesService discovers POIs with the Google Places API.
type PlacesService struct {
	client      *maps.Client
	language    string
	results     int
	maxSpreadKm float64
}

// PlacesOptions tunes discovery. MaxSpreadKm drops results farther than that
// from the top match; zero disables the filter.
type PlacesOptions struct {
	Language    string
	Results     int
	MaxSpreadKm float64
}

// NewPlacesService creates a new PlacesService with the given API Key.
func NewPlacesService(apiKey string, opts PlacesOptions) (*PlacesService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &PlacesService{
		client:      client,
		language:    opts.Language,
		results:     opts.Results,
		maxSpreadKm: opts.MaxSpreadKm,
	}, nil
}

// Discover runs a text search and renders the hits as POI collection JSON.
func (s *PlacesService) Discover(ctx context.Context, query string) (string, error) {
	resp, err := s.client.TextSearch(ctx, &maps.TextSearchRequest{
		Query:    query,
		Language: s.language,
	})
	if err != nil {
		return "", fmt.Errorf("places api error: %w", err)
	}

	pois := toPOIs(resp.Results, s.results, s.maxSpreadKm)
	out, err := json.Marshal(map[string][]state.POI{"pois": pois})
	if err != nil {
		return "", fmt.Errorf("encode places: %w", err)
	}
	return string(out), nil
}

func toPOIs(results []maps.PlacesSearchResult, limit int, maxSpreadKm float64) []state.POI {
	named := lo.Filter(results, func(r maps.PlacesSearchResult, _ int) bool { return r.Name != "" })
	named = lo.UniqBy(named, func(r maps.PlacesSearchResult) string { return r.Name })

	pois := make([]state.POI, 0, len(named))
	var anchor *types.GeoCoordinate
	for _, r := range named {
		geo := types.GeoCoordinate{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng}
		if anchor == nil {
			anchor = &geo
		} else if maxSpreadKm > 0 && anchor.DistanceKm(geo) > maxSpreadKm {
			continue
		}

		pois = append(pois, state.POI{
			Name:          r.Name,
			Description:   describe(r),
			GeoCoordinate: geo,
			Type:          poiType(r.Types),
			OpeningHours:  openingHours(r.OpeningHours),
			Address:       r.FormattedAddress,
			Cost:          strings.Repeat("$", r.PriceLevel),
		})
		if limit > 0 && len(pois) >= limit {
			break
		}
	}
	return pois
}

func poiType(placeTypes []string) state.POIType {
	for _, t := range placeTypes {
		switch t {
		case "restaurant", "cafe", "bar", "bakery", "meal_takeaway", "meal_delivery", "food":
			return state.POITypeRestaurant
		case "lodging", "campground", "rv_park":
			return state.POITypeLodging
		case "tourist_attraction", "museum", "park", "amusement_park", "aquarium", "zoo",
			"art_gallery", "church", "hindu_temple", "mosque", "synagogue", "natural_feature", "point_of_interest":
			return state.POITypeTouristDestination
		}
	}
	return state.POITypeUnknown
}

func describe(r maps.PlacesSearchResult) string {
	label := "Place"
	for _, t := range r.Types {
		if t != "point_of_interest" && t != "establishment" {
			label = strings.ReplaceAll(t, "_", " ")
			label = strings.ToUpper(label[:1]) + label[1:]
			break
		}
	}
	if r.Rating > 0 {
		return fmt.Sprintf("%s rated %.1f (%d reviews)", label, r.Rating, r.UserRatingsTotal)
	}
	return label
}

func openingHours(h *maps.OpeningHours) string {
	if h == nil {
		return ""
	}
	if len(h.WeekdayText) > 0 {
		return strings.Join(h.WeekdayText, "; ")
	}
	if h.OpenNow != nil {
		if *h.OpenNow {
			return "Open now"
		}
		return "Closed now"
	}
	return ""
}
