package core

import (
	"context"
	"fmt"
	"time"
)

// system implements the ActorSystem interface.
type system struct {
	router Router

	// System shutdown context
	ctx    context.Context
	cancel context.CancelFunc
}

// NewActorSystem creates a new ActorSystem instance.
func NewActorSystem() ActorSystem {
	ctx, cancel := context.WithCancel(context.Background())

	return &system{
		router: NewRouter(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// NewActor creates, registers and starts a new Actor.
func (s *system) NewActor(handler MessageHandler, opts ActorOptions) (Actor, error) {
	return s.newActor("", handler, opts)
}

// NewService creates, registers and starts a named Actor.
func (s *system) NewService(name string, handler MessageHandler, opts ActorOptions) (Actor, error) {
	if name == "" {
		return nil, fmt.Errorf("service name must not be empty")
	}
	if opts.Name == "" {
		opts.Name = name
	}
	return s.newActor(name, handler, opts)
}

func (s *system) newActor(name string, handler MessageHandler, opts ActorOptions) (Actor, error) {
	select {
	case <-s.ctx.Done():
		return nil, fmt.Errorf("actor system is shutting down")
	default:
	}

	if opts.MailboxSize <= 0 {
		opts.MailboxSize = DefaultActorOptions().MailboxSize
	}

	actor := NewActor(s.router.NextID(), handler, opts)

	if err := s.router.Register(actor, name); err != nil {
		return nil, fmt.Errorf("failed to register actor: %w", err)
	}

	if err := actor.Start(s.ctx); err != nil {
		s.router.Unregister(actor.ID())
		return nil, fmt.Errorf("failed to start actor: %w", err)
	}

	return actor, nil
}

// GetActor retrieves an Actor by its ID.
func (s *system) GetActor(id ActorID) (Actor, bool) {
	return s.router.Lookup(id)
}

// GetService retrieves an Actor by service name.
func (s *system) GetService(name string) (Actor, bool) {
	return s.router.LookupName(name)
}

// Send delivers a one-way message to an Actor.
func (s *system) Send(to ActorID, msgType MessageType, data []byte) error {
	msg := &Message{
		Type:      msgType,
		Target:    to,
		Data:      data,
		Timestamp: time.Now(),
	}

	return s.router.Route(msg)
}

// Call makes a synchronous call to a named service and returns the
// response payload.
func (s *system) Call(ctx context.Context, service string, msgType MessageType, data []byte) ([]byte, error) {
	target, exists := s.router.LookupName(service)
	if !exists {
		return nil, fmt.Errorf("service %q not found", service)
	}

	msg := &Message{
		Type:      msgType,
		Target:    target.ID(),
		Data:      data,
		Timestamp: time.Now(),
	}

	resp, err := target.Call(ctx, msg)
	if err != nil {
		return nil, err
	}

	if resp.Type == MessageTypeError {
		return nil, fmt.Errorf("service error: %s", string(resp.Data))
	}

	return resp.Data, nil
}

// Shutdown gracefully stops all Actors in the system.
func (s *system) Shutdown(ctx context.Context) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		for _, id := range s.router.List() {
			if actor, exists := s.router.Lookup(id); exists {
				// Errors here mean the actor is already stopped
				_ = actor.Stop()
			}
		}
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns statistics for all Actors.
func (s *system) Stats() []ActorStats {
	var stats []ActorStats

	for _, id := range s.router.List() {
		if actor, exists := s.router.Lookup(id); exists {
			stats = append(stats, actor.Stats())
		}
	}

	return stats
}
