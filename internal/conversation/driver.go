package conversation

import (
	"context"
	"fmt"

	"github.com/wolfman30/physio-booking/internal/booking"
	"github.com/wolfman30/physio-booking/internal/observability/metrics"
	"github.com/wolfman30/physio-booking/pkg/logging"
)

// Reply is the bot's answer to one input.
type Reply struct {
	Messages []Message     `json:"messages"`
	State    booking.State `json:"state"`
	Matched  bool          `json:"matched"`
}

// Driver feeds interpreted input into a flow and renders the outcome.
type Driver struct {
	interpreter *Interpreter
	renderer    Renderer
	logger      *logging.Logger
	metrics     *metrics.BookingMetrics
}

// NewDriver creates a chat driver.
func NewDriver(interpreter *Interpreter, renderer Renderer, logger *logging.Logger, m *metrics.BookingMetrics) *Driver {
	if interpreter == nil {
		panic("conversation: interpreter required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Driver{interpreter: interpreter, renderer: renderer, logger: logger, metrics: m}
}

// Greet opens a conversation with the welcome and the flow's current offer.
func (d *Driver) Greet(ctx context.Context, flow *booking.Flow) (Reply, error) {
	res, err := flow.Prompt(ctx)
	if err != nil {
		return d.failure(flow), fmt.Errorf("conversation: greet: %w", err)
	}
	msgs := append([]Message{d.renderer.Welcome()}, d.renderer.Render(res.Directives)...)
	return Reply{Messages: msgs, State: res.State, Matched: true}, nil
}

// Handle interprets input against the flow's state and applies the result.
// Rejected events are rendered as re-prompts; only collaborator failures
// return an error.
func (d *Driver) Handle(ctx context.Context, flow *booking.Flow, input string) (Reply, error) {
	state := flow.State()
	snap, err := flow.Engine().Snapshot(ctx)
	if err != nil {
		return d.failure(flow), fmt.Errorf("conversation: catalog: %w", err)
	}

	in := d.interpreter.Interpret(state, snap, input)
	d.metrics.ObserveChatInput(string(state.Phase), in.Matched())

	if in.Category != nil {
		return Reply{Messages: []Message{d.renderer.CategoryOffer(*in.Category)}, State: state, Matched: true}, nil
	}

	if in.Event == nil {
		d.logger.Debug("chat input not matched", "phase", state.Phase, "reason", in.Miss)
		msgs := []Message{d.renderer.Miss(in.Miss)}
		if state.Booked() {
			return Reply{Messages: msgs, State: state}, nil
		}
		res, err := flow.Prompt(ctx)
		if err != nil {
			return d.failure(flow), fmt.Errorf("conversation: prompt: %w", err)
		}
		return Reply{Messages: append(msgs, d.renderer.Render(res.Directives)...), State: res.State}, nil
	}

	res, err := flow.Dispatch(ctx, in.Event)
	if err != nil && !booking.IsRejection(err) {
		d.logger.Error("chat event failed", "event", in.Event.Name(), "phase", state.Phase, "error", err)
		return d.failure(flow), fmt.Errorf("conversation: %w", err)
	}

	msgs := d.renderer.Render(res.Directives)
	if in.Greeting {
		msgs = append([]Message{d.renderer.Welcome()}, msgs...)
	}
	return Reply{Messages: msgs, State: res.State, Matched: true}, nil
}

func (d *Driver) failure(flow *booking.Flow) Reply {
	return Reply{Messages: []Message{d.renderer.Failure()}, State: flow.State()}
}
