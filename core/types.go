package core

import (
	"time"
)

// ActorID represents a unique identifier for an Actor.
type ActorID uint32

// MessageType defines the type of message being sent.
type MessageType uint8

// Message represents communication data between Actors.
type Message struct {
	// Type indicates the message category
	Type MessageType

	// Source is the ID of the sending Actor, zero for external callers
	Source ActorID

	// Target is the ID of the receiving Actor
	Target ActorID

	// Session is used for request-response correlation
	Session uint32

	// Data contains the actual message payload
	Data []byte

	// Timestamp when the message was created
	Timestamp time.Time
}

// ActorState represents the current state of an Actor.
type ActorState uint8

const (
	// ActorStateIdle means the Actor is waiting for messages
	ActorStateIdle ActorState = iota

	// ActorStateRunning means the Actor is processing a message
	ActorStateRunning

	// ActorStateStopping means the Actor is shutting down
	ActorStateStopping

	// ActorStateStopped means the Actor has been stopped
	ActorStateStopped
)

// String returns the string representation of ActorState.
func (s ActorState) String() string {
	switch s {
	case ActorStateIdle:
		return "idle"
	case ActorStateRunning:
		return "running"
	case ActorStateStopping:
		return "stopping"
	case ActorStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Message type categories.
const (
	// MessageTypeRequest for request messages
	MessageTypeRequest MessageType = iota

	// MessageTypeResponse for response messages
	MessageTypeResponse

	// MessageTypeError for error notifications
	MessageTypeError

	// MessageTypeSystem for system control messages
	MessageTypeSystem
)

// String returns the string representation of MessageType.
func (t MessageType) String() string {
	switch t {
	case MessageTypeRequest:
		return "request"
	case MessageTypeResponse:
		return "response"
	case MessageTypeError:
		return "error"
	case MessageTypeSystem:
		return "system"
	default:
		return "unknown"
	}
}

// ActorOptions contains configuration options for creating an Actor.
type ActorOptions struct {
	// MailboxSize sets the size of the Actor's message queue
	MailboxSize int

	// Name is a human-readable name for the Actor
	Name string

	// ProcessTimeout bounds the handling of one message. Zero means no
	// bound; a factorization has no internal cancellation point, so
	// workers run with zero and rely on the host to enforce limits.
	ProcessTimeout time.Duration
}

// DefaultActorOptions returns sensible default options.
func DefaultActorOptions() ActorOptions {
	return ActorOptions{
		MailboxSize:    1024,
		Name:           "",
		ProcessTimeout: 0,
	}
}

// ActorStats contains runtime statistics for an Actor.
type ActorStats struct {
	// ID of the Actor
	ID ActorID

	// Name of the Actor
	Name string

	// Current state
	State ActorState

	// Total messages processed
	MessagesProcessed uint64

	// Messages currently in mailbox
	MailboxSize int

	// Time when Actor was created
	CreatedAt time.Time

	// Last message processing time
	LastMessageAt time.Time
}
