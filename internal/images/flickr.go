// README: Flickr photo search used to hydrate POI images.
package images

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const flickrEndpoint = "https://api.flickr.com/services/rest/"

// Searcher returns up to count image URLs for a free-text query.
type Searcher interface {
	SearchImages(ctx context.Context, query string, count int) ([]string, error)
}

// FlickrSearcher calls flickr.photos.search and builds static photo URLs.
type FlickrSearcher struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// NewFlickrSearcher creates a searcher; the timeout bounds each request
// while context cancellation is still honoured.
func NewFlickrSearcher(apiKey string, timeout time.Duration) *FlickrSearcher {
	return &FlickrSearcher{
		apiKey:     apiKey,
		endpoint:   flickrEndpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type flickrResponse struct {
	Stat    string `json:"stat"`
	Message string `json:"message"`
	Photos  struct {
		Photo []flickrPhoto `json:"photo"`
	} `json:"photos"`
}

type flickrPhoto struct {
	ID     string `json:"id"`
	Secret string `json:"secret"`
	Server string `json:"server"`
}

func (p flickrPhoto) url() string {
	return fmt.Sprintf("https://live.staticflickr.com/%s/%s_%s_c.jpg", p.Server, p.ID, p.Secret)
}

func (s *FlickrSearcher) SearchImages(ctx context.Context, query string, count int) ([]string, error) {
	params := url.Values{}
	params.Set("method", "flickr.photos.search")
	params.Set("api_key", s.apiKey)
	params.Set("text", query)
	params.Set("per_page", strconv.Itoa(count))
	params.Set("page", "1")
	params.Set("format", "json")
	params.Set("nojsoncallback", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("flickr: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("flickr: do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("flickr: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("flickr: unexpected status %d", resp.StatusCode)
	}

	var fr flickrResponse
	if err := json.Unmarshal(body, &fr); err != nil {
		return nil, fmt.Errorf("flickr: unmarshal response: %w", err)
	}
	if fr.Stat != "ok" {
		return nil, fmt.Errorf("flickr: api error: %s", fr.Message)
	}

	urls := make([]string, 0, len(fr.Photos.Photo))
	for _, p := range fr.Photos.Photo {
		if p.ID == "" || p.Server == "" || p.Secret == "" {
			continue
		}
		urls = append(urls, p.url())
		if count > 0 && len(urls) >= count {
			break
		}
	}
	return urls, nil
}
