// README: Reconciliation engine; applies classified intents to conversation state and re-plans.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"atlas/internal/intent"
	"atlas/internal/modules/turnlog"
	"atlas/internal/state"
)

// Discovery returns untrusted POI collection JSON for a free-text query.
type Discovery interface {
	Discover(ctx context.Context, query string) (string, error)
}

// Planner returns untrusted itinerary JSON for a planning payload.
type Planner interface {
	Plan(ctx context.Context, payload []byte) (string, error)
}

// ImageHydrator looks up images for POI names and reports each result through
// done. A failed lookup reports an empty list.
type ImageHydrator interface {
	Hydrate(ctx context.Context, names []string, done func(name string, urls []string)) error
}

// Recorder keeps an audit trail of turns.
type Recorder interface {
	Record(ctx context.Context, e turnlog.Entry)
}

// Deps wires a TripPlanner. Recorder is optional.
type Deps struct {
	Classifier         intent.Classifier
	Discovery          Discovery
	Planner            Planner
	Images             ImageHydrator
	Recorder           Recorder
	ClassifierAttempts int
	CallTimeout        time.Duration
	Logger             *zap.Logger
}

// TripPlanner orchestrates classification, discovery and planning for a turn.
type TripPlanner struct {
	gate        *intent.Gate
	discovery   Discovery
	planner     Planner
	images      ImageHydrator
	recorder    Recorder
	callTimeout time.Duration
	logger      *zap.Logger
}

// NewTripPlanner creates a TripPlanner from its collaborators.
func NewTripPlanner(deps Deps) *TripPlanner {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	classifier := deps.Classifier
	if deps.CallTimeout > 0 {
		classifier = timeoutClassifier{next: classifier, timeout: deps.CallTimeout}
	}
	return &TripPlanner{
		gate:        intent.NewGate(classifier, deps.ClassifierAttempts, logger),
		discovery:   deps.Discovery,
		planner:     deps.Planner,
		images:      deps.Images,
		recorder:    deps.Recorder,
		callTimeout: deps.CallTimeout,
		logger:      logger,
	}
}

// Images exposes the hydrator for callers that fetch images out of band.
func (p *TripPlanner) Images() ImageHydrator {
	return p.images
}

// Classify runs the classification gate for a message.
func (p *TripPlanner) Classify(ctx context.Context, message string) (intent.Result, error) {
	if strings.TrimSpace(message) == "" {
		return intent.Result{}, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	return p.gate.Classify(ctx, message)
}

// ApplyPOIs removes then adds POIs. It returns the new collection and the
// names that were not present before discovery ran.
func (p *TripPlanner) ApplyPOIs(ctx context.Context, pois []state.POI, b Buckets) ([]state.POI, []string, error) {
	removeSet := lo.SliceToMap(b.RemovePOIs, func(name string) (string, struct{}) { return name, struct{}{} })
	out := lo.Filter(pois, func(poi state.POI, _ int) bool {
		_, drop := removeSet[poi.Name]
		return !drop
	})

	before := state.POINames(out)
	present := lo.SliceToMap(before, func(name string) (string, struct{}) { return name, struct{}{} })

	for _, query := range b.AddPOIs {
		found, err := p.discover(ctx, query)
		if err != nil {
			return nil, nil, err
		}
		for _, poi := range found {
			if _, dup := present[poi.Name]; dup {
				p.logger.Debug("skipping duplicate poi", zap.String("poi", poi.Name), zap.String("query", query))
				continue
			}
			present[poi.Name] = struct{}{}
			out = append(out, poi)
		}
	}

	added, _ := lo.Difference(state.POINames(out), before)
	return out, added, nil
}

func (p *TripPlanner) discover(ctx context.Context, query string) ([]state.POI, error) {
	callCtx, cancel := p.withTimeout(ctx)
	defer cancel()

	text, err := p.discovery.Discover(callCtx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrDiscoveryFailed, query, err)
	}
	raw, err := state.DecodeJSON([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrDiscoveryFailed, query, err)
	}
	opts := state.Options{}
	if msgs := state.ValidatePOIs(raw, opts); len(msgs) > 0 {
		p.logger.Warn("discovery output rejected", zap.String("query", query), zap.Strings("violations", msgs))
		return nil, fmt.Errorf("%w: %q: %s", ErrDiscoveryFailed, query, strings.Join(msgs, "; "))
	}
	pois, err := state.ParsePOIs(raw, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrDiscoveryFailed, query, err)
	}
	return pois, nil
}

// SearchPOIs runs discovery for one query outside a turn and returns the
// results with images attached.
func (p *TripPlanner) SearchPOIs(ctx context.Context, query string) ([]state.POI, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidInput)
	}
	found, err := p.discover(ctx, query)
	if err != nil {
		return nil, err
	}
	found = lo.UniqBy(found, func(poi state.POI) string { return poi.Name })
	return p.hydrate(ctx, found, state.POINames(found))
}

// ApplyRequirements removes then adds requirements by exact description.
// New requirements always get the default priority.
func (p *TripPlanner) ApplyRequirements(reqs []state.Requirement, b Buckets) []state.Requirement {
	removeSet := lo.SliceToMap(b.RemoveRequirements, func(d string) (string, struct{}) { return d, struct{}{} })
	out := lo.Filter(reqs, func(r state.Requirement, _ int) bool {
		_, drop := removeSet[r.Description]
		return !drop
	})
	for _, desc := range b.AddRequirements {
		if lo.ContainsBy(out, func(r state.Requirement) bool { return r.Description == desc }) {
			continue
		}
		out = append(out, state.NewRequirement(desc))
	}
	return out
}

type planRequest struct {
	POI          []state.POI             `json:"poi"`
	Requirements []state.Requirement     `json:"requirements"`
	Options      []state.ItineraryOption `json:"options,omitempty"`
}

// Plan asks the planner for itinerary options. Any failure yields an empty
// collection; planning never aborts a turn.
func (p *TripPlanner) Plan(ctx context.Context, pois []state.POI, reqs []state.Requirement, prior []state.ItineraryOption) []state.ItineraryOption {
	empty := []state.ItineraryOption{}

	payload, err := json.Marshal(planRequest{
		POI:          lo.Ternary(pois == nil, []state.POI{}, pois),
		Requirements: lo.Ternary(reqs == nil, []state.Requirement{}, reqs),
		Options:      prior,
	})
	if err != nil {
		p.logger.Error("encode plan request", zap.Error(err))
		return empty
	}

	callCtx, cancel := p.withTimeout(ctx)
	defer cancel()

	text, err := p.planner.Plan(callCtx, payload)
	if err != nil {
		p.logger.Warn("planner call failed", zap.Error(err))
		return empty
	}
	raw, err := state.DecodeJSON([]byte(text))
	if err != nil {
		p.logger.Warn("planner output is not json", zap.Error(err))
		return empty
	}
	if msgs := state.ValidateItineraryOptions(raw, state.Options{}); len(msgs) > 0 {
		p.logger.Warn("planner output rejected", zap.Strings("violations", msgs))
		return empty
	}
	options, err := state.ParseItineraryOptions(raw, state.Options{})
	if err != nil {
		p.logger.Warn("planner output rejected", zap.Error(err))
		return empty
	}
	return options
}

// PlanTrip applies one turn end to end. Images for newly added POIs are
// fetched before it returns.
func (p *TripPlanner) PlanTrip(ctx context.Context, turn Turn) (Outcome, error) {
	out, err := p.planTrip(ctx, turn)
	p.Record(ctx, turn, out, err, false)
	return out, err
}

func (p *TripPlanner) planTrip(ctx context.Context, turn Turn) (Outcome, error) {
	logger := p.logger.With(zap.String("turn_id", turn.ID))

	res, err := p.Classify(ctx, turn.Message)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{Intents: res.Intents, Degraded: res.Degraded, State: turn.State}

	b := Partition(res.Intents)
	if b.Empty() {
		logger.Info("no actionable intents", zap.Bool("degraded", res.Degraded))
		out.NoOp = true
		return out, nil
	}

	pois, added, err := p.ApplyPOIs(ctx, turn.State.POIs, b)
	if err != nil {
		return out, err
	}
	pois, err = p.hydrate(ctx, pois, added)
	if err != nil {
		return out, err
	}
	reqs := p.ApplyRequirements(turn.State.Requirements, b)
	options := p.Plan(ctx, pois, reqs, turn.State.Options)

	out.State = state.Conversation{POIs: pois, Requirements: reqs, Options: options}
	out.Added = added
	out.Removed = RemovedNames(turn.State.POIs, pois)
	logger.Info("turn applied",
		zap.Strings("added", added), zap.Strings("removed", out.Removed), zap.Int("options", len(options)))
	return out, nil
}

// hydrate fills images for the named POIs and returns a new collection.
func (p *TripPlanner) hydrate(ctx context.Context, pois []state.POI, names []string) ([]state.POI, error) {
	if len(names) == 0 || p.images == nil {
		return pois, nil
	}
	var mu sync.Mutex
	found := make(map[string][]string, len(names))
	err := p.images.Hydrate(ctx, names, func(name string, urls []string) {
		mu.Lock()
		defer mu.Unlock()
		found[name] = urls
	})
	if err != nil {
		return nil, err
	}
	return lo.Map(pois, func(poi state.POI, _ int) state.POI {
		if urls, ok := found[poi.Name]; ok {
			return poi.WithImages(urls)
		}
		return poi
	}), nil
}

// RemovedNames lists names in before that are missing from after.
func RemovedNames(before, after []state.POI) []string {
	removed, _ := lo.Difference(state.POINames(before), state.POINames(after))
	return removed
}

// Record writes an audit entry for a finished turn when a Recorder is configured.
func (p *TripPlanner) Record(ctx context.Context, turn Turn, out Outcome, turnErr error, streamed bool) {
	if p.recorder == nil || turn.ID == "" {
		return
	}
	intents, _ := json.Marshal(out.Intents)
	e := turnlog.Entry{
		TurnID:      turn.ID,
		UserID:      turn.UserID,
		Message:     turn.Message,
		Intents:     intents,
		Degraded:    out.Degraded,
		AddedPOIs:   out.Added,
		RemovedPOIs: out.Removed,
		OptionCount: len(out.State.Options),
		Outcome:     turnlog.OutcomeApplied,
		Streamed:    streamed,
	}
	switch {
	case turnErr != nil:
		e.Outcome = turnlog.OutcomeFailed
		e.ErrorMessage = turnErr.Error()
		if errors.Is(turnErr, context.Canceled) {
			e.ErrorMessage = "cancelled"
		}
	case out.NoOp:
		e.Outcome = turnlog.OutcomeNoOp
	}
	p.recorder.Record(ctx, e)
}

func (p *TripPlanner) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.callTimeout)
}

type timeoutClassifier struct {
	next    intent.Classifier
	timeout time.Duration
}

func (c timeoutClassifier) Classify(ctx context.Context, message string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.next.Classify(ctx, message)
}
