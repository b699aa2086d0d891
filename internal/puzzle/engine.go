// Package puzzle owns the lifecycle of the session's single active puzzle.
package puzzle

import (
	"fmt"
	"strings"

	"github.com/goldencrow0001-crypto/open-world-puzzle-game/internal/models"
)

// State is the engine's position in the puzzle lifecycle.
type State int

const (
	// StateIdle means no puzzle is attached or being generated.
	StateIdle State = iota
	// StatePending means generation is in flight.
	StatePending
	// StateActive means a puzzle is attached and awaiting an answer.
	StateActive
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}

// Engine enforces the one-active-puzzle rule. At most one puzzle can be
// pending or active at a time; movement and further interaction are locked
// by callers while the engine is not idle.
type Engine struct {
	state  State
	active *models.Puzzle
	// generation identifies the Pending cycle currently in flight.
	// Attach rejects results carrying any other token, so a generation
	// the player dismissed cannot land on a later Pending cycle.
	generation uint64
}

func NewEngine() *Engine {
	return &Engine{state: StateIdle}
}

func (e *Engine) State() State {
	return e.state
}

// Active returns the attached puzzle, or nil outside StateActive.
func (e *Engine) Active() *models.Puzzle {
	return e.active
}

// Begin enters StatePending and hands back a token identifying this
// generation cycle. Only valid from StateIdle.
func (e *Engine) Begin() (uint64, error) {
	if e.state != StateIdle {
		return 0, fmt.Errorf("a puzzle is already %s", e.state)
	}
	e.generation++
	e.state = StatePending
	return e.generation, nil
}

// Attach binds a generated puzzle, moving Pending to Active. The token
// must come from the Begin call that opened the current Pending cycle;
// anything else is a stale generation and is rejected.
func (e *Engine) Attach(token uint64, p *models.Puzzle) error {
	if e.state != StatePending {
		return fmt.Errorf("cannot attach a puzzle while %s", e.state)
	}
	if token != e.generation {
		return fmt.Errorf("stale puzzle generation")
	}
	e.active = p
	e.state = StateActive
	return nil
}

// Restore re-attaches a puzzle from a loaded session, bypassing Pending.
// A nil puzzle resets the engine to idle.
func (e *Engine) Restore(p *models.Puzzle) {
	e.active = p
	if p == nil {
		e.state = StateIdle
	} else {
		e.state = StateActive
	}
}

// Submit checks a free-text answer against the active puzzle. A correct
// answer resolves the puzzle: the engine returns it (marked solved) and
// goes idle in the same step. An incorrect answer leaves the puzzle active
// so the player can retry.
func (e *Engine) Submit(answer string) (*models.Puzzle, bool, error) {
	if e.state != StateActive {
		return nil, false, fmt.Errorf("no active puzzle")
	}
	if !Matches(answer, e.active.Answer) {
		return nil, false, nil
	}
	resolved := e.active
	resolved.Solved = true
	e.active = nil
	e.state = StateIdle
	return resolved, true, nil
}

// Dismiss abandons the current puzzle without granting anything. Valid
// from Pending and Active; a no-op when idle.
func (e *Engine) Dismiss() {
	e.active = nil
	e.state = StateIdle
}

// Matches implements the deliberately permissive answer check: after
// trimming and lower-casing both sides, the submission is correct when it
// equals the answer or contains it as a substring. The substring rule lets
// "the answer is 4" pass for answer "4"; it also means very short answers
// match generously, which is accepted behavior rather than a defect.
func Matches(submission, answer string) bool {
	sub := strings.ToLower(strings.TrimSpace(submission))
	ans := strings.ToLower(strings.TrimSpace(answer))
	return sub == ans || strings.Contains(sub, ans)
}
