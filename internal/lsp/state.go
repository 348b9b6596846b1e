// Package lsp implements the client-side runtime of the Language Server
// Protocol: connection lifecycle, capability negotiation, feature pipelines,
// document sync, and the diagnostic pull scheduler. The wire types and their
// host/protocol conversions are deliberately out of scope here and come from
// go.lsp.dev/protocol.
package lsp

import "fmt"

// State is the internal lifecycle state of a Client. It is a strict superset
// of the public State exposed by Client.State(); Initial, StartFailed,
// Stopping and Stopped all collapse to Stopped for host consumption.
type State int

const (
	StateInitial State = iota
	StateStarting
	StateRunning
	StateStopping
	StateStopped
	StateStartFailed
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	case StateStartFailed:
		return "start-failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// PublicState is the coarser three-value state exposed to hosts.
type PublicState int

const (
	PublicStopped PublicState = iota
	PublicStarting
	PublicRunning
)

func (s PublicState) String() string {
	switch s {
	case PublicStopped:
		return "stopped"
	case PublicStarting:
		return "starting"
	case PublicRunning:
		return "running"
	default:
		return "unknown"
	}
}

// Public collapses the internal state machine down to the host-visible
// three-value state per spec.md §3.
func (s State) Public() PublicState {
	switch s {
	case StateStarting:
		return PublicStarting
	case StateRunning:
		return PublicRunning
	default:
		return PublicStopped
	}
}

// transition describes one edge of the state machine; validTransition
// reports whether an edge is listed. Client.setState does not consult it,
// so an unlisted transition is neither rejected nor logged.
type transition struct {
	from State
	to   State
}

var validTransitions = map[transition]bool{
	{StateInitial, StateStarting}:      true,
	{StateStarting, StateRunning}:      true,
	{StateStarting, StateStartFailed}:  true,
	{StateStarting, StateStopped}:      true, // close during Starting is fatal
	{StateStartFailed, StateStarting}:  true, // init-failed handler requested retry
	{StateRunning, StateStopping}:      true,
	{StateRunning, StateInitial}:       true, // restart policy: re-run start
	{StateStopping, StateStopped}:      true,
	{StateStopped, StateStopped}:       true, // idempotent stop
	{StateStopping, StateStopping}:     true, // idempotent stop
}

func validTransition(from, to State) bool {
	return validTransitions[transition{from, to}]
}
