package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"atlas/internal/modules/turnlog"
)

type stubClassifier struct {
	mu      sync.Mutex
	replies []string
	calls   int
}

func (s *stubClassifier) Classify(ctx context.Context, message string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	if i >= len(s.replies) {
		i = len(s.replies) - 1
	}
	return s.replies[i], nil
}

func intentsReply(entries ...[3]string) string {
	type entry struct {
		Intent string `json:"intent"`
		Action string `json:"action,omitempty"`
		Value  string `json:"value"`
	}
	list := make([]entry, 0, len(entries))
	for _, e := range entries {
		list = append(list, entry{Intent: e[0], Action: e[1], Value: e[2]})
	}
	out, _ := json.Marshal(map[string]any{"intents": list})
	return string(out)
}

type stubDiscovery struct {
	mu      sync.Mutex
	byQuery map[string]string
	err     error
	queries []string
}

func (s *stubDiscovery) Discover(ctx context.Context, query string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	if s.err != nil {
		return "", s.err
	}
	reply, ok := s.byQuery[query]
	if !ok {
		return "", errors.New("unexpected query " + query)
	}
	return reply, nil
}

func poiJSON(name string, lat, lng float64) string {
	return fmt.Sprintf(`{"name":%q,"description":"about %s","geo_coordinate":{"lat":%v,"lng":%v}}`, name, name, lat, lng)
}

type stubPlanner struct {
	mu       sync.Mutex
	reply    string
	err      error
	payloads []string
}

func (s *stubPlanner) Plan(ctx context.Context, payload []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, string(payload))
	return s.reply, s.err
}

const onePlan = `{"options":[{"overall_cost":"$900","general_notes":"Easy pace","days":[
	{"highlight":"Arrival","blocks":[{"time":"Morning","description":"Check in"}]}]}]}`

type stubImages struct {
	mu    sync.Mutex
	urls  map[string][]string
	calls []string
}

func (s *stubImages) Lookup(ctx context.Context, name string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, name)
	if urls, ok := s.urls[name]; ok {
		return urls
	}
	return []string{}
}

func (s *stubImages) Hydrate(ctx context.Context, names []string, done func(string, []string)) error {
	for _, n := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		done(n, s.Lookup(ctx, n))
	}
	return nil
}

type stubRecorder struct {
	mu      sync.Mutex
	entries []turnlog.Entry
}

func (s *stubRecorder) Record(ctx context.Context, e turnlog.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
}
