package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/physio-booking/internal/booking"
	"github.com/wolfman30/physio-booking/internal/calendar"
	"github.com/wolfman30/physio-booking/internal/conversation"
	"github.com/wolfman30/physio-booking/pkg/logging"
)

// Config wires a Manager.
type Config struct {
	Store   Store
	Engine  *booking.Engine
	Driver  *conversation.Driver
	Stepper *calendar.Stepper
	TTL     time.Duration
	// CommitTimeout is the commit protocol's timeout; the session lock
	// outlives it so a slow commit cannot be submitted twice.
	CommitTimeout time.Duration
	Logger        *logging.Logger
}

// Manager runs inputs against stored flows. Each input holds the session
// lock from load to save, so a session sees at most one input at a time.
type Manager struct {
	store   Store
	engine  *booking.Engine
	driver  *conversation.Driver
	stepper *calendar.Stepper
	ttl     time.Duration
	lockTTL time.Duration
	logger  *logging.Logger
	newID   func() string
}

// NewManager validates cfg and applies defaults.
func NewManager(cfg Config) *Manager {
	if cfg.Store == nil || cfg.Engine == nil {
		panic("session: store and engine required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Stepper == nil {
		cfg.Stepper = calendar.NewStepper(cfg.Logger)
	}
	return &Manager{
		store:   cfg.Store,
		engine:  cfg.Engine,
		driver:  cfg.Driver,
		stepper: cfg.Stepper,
		ttl:     cfg.TTL,
		lockTTL: lockTTLFor(cfg.CommitTimeout),
		logger:  cfg.Logger,
		newID:   uuid.NewString,
	}
}

// Start creates a session and returns its opening offer.
func (m *Manager) Start(ctx context.Context) (string, booking.Result, error) {
	id := m.newID()
	flow := m.engine.Start()
	res, err := flow.Prompt(ctx)
	if err != nil {
		return "", booking.Result{}, fmt.Errorf("session: start: %w", err)
	}
	if err := m.store.Save(ctx, id, flow.State(), m.ttl); err != nil {
		return "", booking.Result{}, err
	}
	m.logger.Info("booking session started", "session_id", id)
	return id, res, nil
}

// StartChat creates a session and greets the client.
func (m *Manager) StartChat(ctx context.Context) (string, conversation.Reply, error) {
	if m.driver == nil {
		return "", conversation.Reply{}, errors.New("session: chat driver not configured")
	}
	id := m.newID()
	flow := m.engine.Start()
	reply, err := m.driver.Greet(ctx, flow)
	if err != nil {
		return "", reply, fmt.Errorf("session: start chat: %w", err)
	}
	if err := m.store.Save(ctx, id, flow.State(), m.ttl); err != nil {
		return "", conversation.Reply{}, err
	}
	m.logger.Info("chat session started", "session_id", id)
	return id, reply, nil
}

// Get re-emits the session's current offer.
func (m *Manager) Get(ctx context.Context, id string) (booking.Result, error) {
	var res booking.Result
	err := m.with(ctx, id, func(flow *booking.Flow) error {
		var err error
		res, err = flow.Prompt(ctx)
		return err
	})
	return res, err
}

// Dispatch applies an event directly.
func (m *Manager) Dispatch(ctx context.Context, id string, ev booking.Event) (booking.Result, error) {
	var res booking.Result
	err := m.with(ctx, id, func(flow *booking.Flow) error {
		var err error
		res, err = flow.Dispatch(ctx, ev)
		return err
	})
	return res, err
}

// Chat runs one free-text input through the conversational driver.
func (m *Manager) Chat(ctx context.Context, id, text string) (conversation.Reply, error) {
	if m.driver == nil {
		return conversation.Reply{}, errors.New("session: chat driver not configured")
	}
	var reply conversation.Reply
	err := m.with(ctx, id, func(flow *booking.Flow) error {
		var err error
		reply, err = m.driver.Handle(ctx, flow, text)
		return err
	})
	return reply, err
}

// Act runs one guided-calendar action.
func (m *Manager) Act(ctx context.Context, id string, a calendar.Action) (calendar.View, error) {
	var view calendar.View
	err := m.with(ctx, id, func(flow *booking.Flow) error {
		var err error
		view, err = m.stepper.Handle(ctx, flow, a)
		return err
	})
	return view, err
}

// with loads the flow, runs fn and persists whatever state fn left behind,
// including after a rejected event. Booked flows are removed.
func (m *Manager) with(ctx context.Context, id string, fn func(*booking.Flow) error) error {
	unlock, err := m.store.Lock(ctx, id, m.lockTTL)
	if err != nil {
		return err
	}
	defer unlock()

	state, err := m.store.Load(ctx, id)
	if err != nil {
		return err
	}
	flow := m.engine.Resume(state)
	runErr := fn(flow)

	// The reply already carries the booking; keep the session only while
	// the reservation is open.
	saveCtx := context.WithoutCancel(ctx)
	final := flow.State()
	if final.Booked() {
		if err := m.store.Delete(saveCtx, id); err != nil {
			m.logger.Warn("failed to delete completed session", "session_id", id, "error", err)
		}
		m.logger.Info("booking session completed", "session_id", id, "appointment_id", final.AppointmentID)
		return runErr
	}
	if err := m.store.Save(saveCtx, id, final, m.ttl); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}
