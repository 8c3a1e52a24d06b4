package session

import (
	"context"
	"fmt"
	"log"
	"time"
)

// OutcomeKind tags how a session loop ended.
type OutcomeKind int

const (
	// OutcomeUnregistered: the orchestrator sent an Unregister event.
	OutcomeUnregistered OutcomeKind = iota
	// OutcomeInterrupted: the run context was cancelled (signal).
	OutcomeInterrupted
	// OutcomeFailed: an external call failed; Err carries the cause.
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeUnregistered:
		return "unregistered"
	case OutcomeInterrupted:
		return "interrupted"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Outcome is the single tagged result of a session loop. All three ways
// out of the loop funnel through it so teardown happens in exactly one
// place.
type Outcome struct {
	Kind OutcomeKind
	Err  error
}

// teardownTimeout bounds the final Delete call, which must run even
// after the run context is cancelled.
const teardownTimeout = 10 * time.Second

// Run registers the session, drives the event loop until the
// orchestrator unregisters it, the context is cancelled or an external
// call fails, and then deletes the remote session. Delete is called
// exactly once on every exit path after a successful registration; a
// failed registration has nothing to delete.
//
// No call is ever retried: a leaked registration is worse than a dead
// session.
func Run(ctx context.Context, client Orchestrator, s *Session, iface SimulatorInterface) Outcome {
	sessionID, err := client.Register(ctx, iface)
	if err != nil {
		return Outcome{Kind: OutcomeFailed, Err: fmt.Errorf("failed to register simulator: %w", err)}
	}
	log.Printf("registered simulator %q as session %s", iface.Name, sessionID)
	s.setPhase(PhaseRegistered)

	outcome := s.loop(ctx, client, sessionID)

	// Teardown runs on a fresh context: the run context is already dead
	// on the interrupt path.
	dctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()
	if err := client.Delete(dctx, sessionID); err != nil {
		log.Printf("failed to delete session %s: %v", sessionID, err)
	} else {
		log.Printf("unregistered simulator session %s", sessionID)
	}
	s.setPhase(PhaseUnregistered)

	return outcome
}

// loop is the synchronous request/response cycle: push state, pull one
// event, dispatch. The event's sequence id is echoed on the next push.
func (s *Session) loop(ctx context.Context, client Orchestrator, sessionID string) Outcome {
	sequenceID := int64(1)
	for {
		if err := ctx.Err(); err != nil {
			return Outcome{Kind: OutcomeInterrupted, Err: err}
		}

		state := SimulatorState{
			SequenceID: sequenceID,
			State:      s.State().Map(),
			Halted:     s.Halted(),
		}
		event, err := client.Advance(ctx, sessionID, state)
		if err != nil {
			if ctx.Err() != nil {
				return Outcome{Kind: OutcomeInterrupted, Err: ctx.Err()}
			}
			return Outcome{Kind: OutcomeFailed, Err: fmt.Errorf("failed to advance session: %w", err)}
		}
		sequenceID = event.SequenceID
		log.Printf("event: %s (sequence %d)", event.Type, event.SequenceID)

		switch event.Type {
		case EventIdle:
			var idleFor time.Duration
			if event.Idle != nil {
				idleFor = time.Duration(event.Idle.CallbackTime * float64(time.Second))
			}
			if err := sleep(ctx, idleFor); err != nil {
				return Outcome{Kind: OutcomeInterrupted, Err: err}
			}
		case EventEpisodeStart:
			var cfg *EpisodeConfig
			if event.Start != nil {
				cfg = event.Start.Config
			}
			s.EpisodeStart(cfg)
		case EventEpisodeStep:
			var act Action
			if event.Step != nil {
				act = event.Step.Action
			}
			if err := s.EpisodeStep(ctx, act); err != nil {
				if ctx.Err() != nil {
					return Outcome{Kind: OutcomeInterrupted, Err: ctx.Err()}
				}
				return Outcome{Kind: OutcomeFailed, Err: err}
			}
		case EventEpisodeFinish:
			s.EpisodeFinish()
		case EventUnregister:
			return Outcome{Kind: OutcomeUnregistered}
		default:
			// Unrecognised event types are ignored; the next advance
			// call keeps the protocol moving.
		}
	}
}

// sleep blocks for d or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
