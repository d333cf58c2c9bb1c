package core

import (
	"context"
)

// MessageHandler processes incoming messages for an Actor.
type MessageHandler interface {
	// HandleMessage processes a single message and returns the
	// response payload for session-correlated calls. A nil payload
	// with nil error acknowledges the message without data.
	HandleMessage(ctx context.Context, msg *Message) ([]byte, error)
}

// HandlerFunc adapts a plain function to the MessageHandler interface.
type HandlerFunc func(ctx context.Context, msg *Message) ([]byte, error)

// HandleMessage calls f(ctx, msg).
func (f HandlerFunc) HandleMessage(ctx context.Context, msg *Message) ([]byte, error) {
	return f(ctx, msg)
}

// Actor represents a computational unit that processes messages
// sequentially. Each Actor runs in its own goroutine and communicates
// through channels.
type Actor interface {
	// ID returns the unique identifier of this Actor.
	ID() ActorID

	// Start begins the Actor's message processing loop.
	// It should be called only once per Actor instance.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the Actor.
	// It will finish processing the current message before stopping.
	Stop() error

	// Send sends a message to this Actor's mailbox.
	// It returns an error if the Actor is stopped or mailbox is full.
	Send(msg *Message) error

	// Call sends a message and waits for the handler's response.
	// It blocks until a response is received or ctx expires.
	Call(ctx context.Context, msg *Message) (*Message, error)

	// Backlog returns the number of messages waiting in the mailbox.
	Backlog() int

	// Stats returns current runtime statistics for this Actor.
	Stats() ActorStats
}

// Router manages message routing between Actors.
type Router interface {
	// Register adds an Actor to the routing table, optionally under a
	// service name.
	Register(actor Actor, name string) error

	// Unregister removes an Actor from the routing table.
	Unregister(id ActorID) error

	// Route sends a message to the target Actor.
	Route(msg *Message) error

	// Lookup finds an Actor by its ID.
	Lookup(id ActorID) (Actor, bool)

	// LookupName finds an Actor by its service name.
	LookupName(name string) (Actor, bool)

	// List returns all registered Actor IDs.
	List() []ActorID

	// NextID generates the next available Actor ID.
	NextID() ActorID
}

// ActorSystem manages the lifecycle of all Actors in the system.
type ActorSystem interface {
	// NewActor creates, registers and starts a new Actor.
	NewActor(handler MessageHandler, opts ActorOptions) (Actor, error)

	// NewService creates, registers and starts a named Actor.
	NewService(name string, handler MessageHandler, opts ActorOptions) (Actor, error)

	// GetActor retrieves an Actor by its ID.
	GetActor(id ActorID) (Actor, bool)

	// GetService retrieves an Actor by service name.
	GetService(name string) (Actor, bool)

	// Send delivers a one-way message to an Actor.
	Send(to ActorID, msgType MessageType, data []byte) error

	// Call makes a synchronous call to a named service.
	Call(ctx context.Context, service string, msgType MessageType, data []byte) ([]byte, error)

	// Shutdown gracefully stops all Actors in the system.
	Shutdown(ctx context.Context) error

	// Stats returns statistics for all Actors.
	Stats() []ActorStats
}
