package ai

import (
	"context"
	"fmt"
)

// Classifier maps a chat message to intent JSON.
type Classifier struct {
	agent Agent
}

func NewClassifier(agent Agent) *Classifier {
	return &Classifier{agent: agent}
}

func (c *Classifier) Classify(ctx context.Context, message string) (string, error) {
	return c.agent.Respond(ctx, message)
}

// Discoverer finds POIs for a free-text query using a language model.
type Discoverer struct {
	agent   Agent
	results int
}

// NewDiscoverer builds a Discoverer; results > 0 asks for that many places per query.
func NewDiscoverer(agent Agent, results int) *Discoverer {
	return &Discoverer{agent: agent, results: results}
}

func (d *Discoverer) Discover(ctx context.Context, query string) (string, error) {
	return d.agent.Respond(ctx, DiscoveryInput(query, d.results))
}

// DiscoveryInput appends the requested result count to a query.
func DiscoveryInput(query string, results int) string {
	if results <= 0 {
		return query
	}
	return fmt.Sprintf("%s, return %d results", query, results)
}

// Planner turns a JSON planning payload into itinerary JSON.
type Planner struct {
	agent Agent
}

func NewPlanner(agent Agent) *Planner {
	return &Planner{agent: agent}
}

func (p *Planner) Plan(ctx context.Context, payload []byte) (string, error) {
	return p.agent.Respond(ctx, string(payload))
}
