package turnlog

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrInvalidEntry is returned for entries missing a turn ID or outcome.
var ErrInvalidEntry = errors.New("invalid turn log entry")

// Outcome summarizes how a turn ended.
type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeNoOp    Outcome = "noop"
	OutcomeFailed  Outcome = "failed"
)

// Entry is one processed chat turn.
type Entry struct {
	TurnID       string
	UserID       string
	Message      string
	Intents      json.RawMessage
	Degraded     bool
	AddedPOIs    []string
	RemovedPOIs  []string
	OptionCount  int
	Outcome      Outcome
	ErrorMessage string
	Streamed     bool
	CreatedAt    time.Time
}
