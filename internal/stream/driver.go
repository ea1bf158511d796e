package stream

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"atlas/internal/service"
	"atlas/internal/state"
)

// ErrPanic wraps a panic recovered while driving a turn.
var ErrPanic = errors.New("turn panicked")

// Request is one streamed turn.
type Request struct {
	TurnID  string
	UserID  string
	Message string
	State   state.Conversation
}

// Driver sequences a turn into messages:
//
//	intents → pois → requirements → plan → poi_images* → done
//
// or intents → error. A turn with nothing actionable echoes the prior
// state in the same shape without calling any collaborator.
type Driver struct {
	planner *service.TripPlanner
	logger  *zap.Logger
}

func NewDriver(planner *service.TripPlanner, logger *zap.Logger) *Driver {
	return &Driver{planner: planner, logger: logger}
}

// Stream starts the turn and returns its messages. The channel closes after
// the terminal message, or without one once ctx ends.
func (d *Driver) Stream(ctx context.Context, req Request) <-chan Message {
	out := make(chan Message, 8)
	go d.run(ctx, req, out)
	return out
}

type emitter struct {
	ctx context.Context
	out chan<- Message
}

// send delivers m unless ctx has ended.
func (e emitter) send(m Message) error {
	if err := e.ctx.Err(); err != nil {
		return err
	}
	select {
	case e.out <- m:
		return nil
	case <-e.ctx.Done():
		return e.ctx.Err()
	}
}

func (d *Driver) run(ctx context.Context, req Request, out chan<- Message) {
	defer close(out)
	logger := d.logger.With(zap.String("turn_id", req.TurnID))
	em := emitter{ctx: ctx, out: out}
	turn := service.Turn{ID: req.TurnID, UserID: req.UserID, Message: req.Message, State: req.State}

	outcome, err := d.safeDrive(ctx, turn, em)
	d.planner.Record(ctx, turn, outcome, err, true)

	switch {
	case ctx.Err() != nil:
		logger.Info("stream cancelled")
	case err != nil:
		logger.Error("stream failed", zap.Error(err))
		msg := err.Error()
		if errors.Is(err, ErrPanic) {
			msg = "internal error"
		}
		_ = em.send(ErrorMessage(msg))
	default:
		_ = em.send(Message{Type: TypeDone})
	}
}

func (d *Driver) safeDrive(ctx context.Context, turn service.Turn, em emitter) (outcome service.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return d.drive(ctx, turn, em)
}

type imageResult struct {
	name string
	urls []string
}

func (d *Driver) drive(ctx context.Context, turn service.Turn, em emitter) (service.Outcome, error) {
	res, err := d.planner.Classify(ctx, turn.Message)
	if err != nil {
		return service.Outcome{}, err
	}
	outcome := service.Outcome{Intents: res.Intents, Degraded: res.Degraded, State: turn.State}
	if err := em.send(intentsMessage(res.Intents)); err != nil {
		return outcome, err
	}

	b := service.Partition(res.Intents)
	if b.Empty() {
		outcome.NoOp = true
		for _, m := range []Message{
			poisMessage(turn.State.POIs),
			requirementsMessage(turn.State.Requirements),
			planMessage(turn.State.Options),
		} {
			if err := em.send(m); err != nil {
				return outcome, err
			}
		}
		return outcome, nil
	}

	pois, added, err := d.planner.ApplyPOIs(ctx, turn.State.POIs, b)
	if err != nil {
		return outcome, err
	}
	outcome.Added = added
	outcome.Removed = service.RemovedNames(turn.State.POIs, pois)
	if err := em.send(poisMessage(pois)); err != nil {
		return outcome, err
	}

	reqs := d.planner.ApplyRequirements(turn.State.Requirements, b)
	if err := em.send(requirementsMessage(reqs)); err != nil {
		return outcome, err
	}

	// Image lookups overlap planning; their messages wait until the plan is out.
	imgCtx, cancelImages := context.WithCancel(ctx)
	defer cancelImages()
	results := make(chan imageResult, len(added))
	hydrated := make(chan error, 1)
	if hydrator := d.planner.Images(); hydrator != nil && len(added) > 0 {
		go func() {
			err := hydrator.Hydrate(imgCtx, added, func(name string, urls []string) {
				results <- imageResult{name: name, urls: urls}
			})
			close(results)
			hydrated <- err
		}()
	} else {
		close(results)
		hydrated <- nil
	}

	options := d.planner.Plan(ctx, pois, reqs, turn.State.Options)
	outcome.State = state.Conversation{POIs: pois, Requirements: reqs, Options: options}
	if err := em.send(planMessage(options)); err != nil {
		return outcome, err
	}

	for r := range results {
		if err := em.send(imagesMessage(r.name, r.urls)); err != nil {
			return outcome, err
		}
	}
	if err := <-hydrated; err != nil {
		return outcome, err
	}
	return outcome, nil
}
