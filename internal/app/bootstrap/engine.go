package bootstrap

import (
	"time"

	"github.com/wolfman30/physio-booking/internal/availability"
	"github.com/wolfman30/physio-booking/internal/booking"
	"github.com/wolfman30/physio-booking/internal/bookings"
	"github.com/wolfman30/physio-booking/internal/calendar"
	appconfig "github.com/wolfman30/physio-booking/internal/config"
	"github.com/wolfman30/physio-booking/internal/conversation"
	"github.com/wolfman30/physio-booking/internal/notify"
	"github.com/wolfman30/physio-booking/internal/observability/metrics"
	"github.com/wolfman30/physio-booking/internal/session"
	"github.com/wolfman30/physio-booking/pkg/logging"
)

// Engine is the wired booking core shared by every host.
type Engine struct {
	Ledger     *bookings.Ledger
	Protocol   *bookings.Protocol
	Calculator *availability.Calculator
	Flow       *booking.Engine
	Driver     *conversation.Driver
	Stepper    *calendar.Stepper
	Sessions   *session.Manager
}

// EngineOptions carries the runtime dependencies that are not config values.
type EngineOptions struct {
	Stores   Stores
	Sessions session.Store
	Metrics  *metrics.BookingMetrics
	Notifier bookings.Observer
	Now      func() time.Time
	Logger   *logging.Logger
}

// BuildEngine wires availability, the commit protocol, the flow engine and
// both drivers.
func BuildEngine(cfg *appconfig.Config, opts EngineOptions) *Engine {
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sessions == nil {
		opts.Sessions = session.NewMemoryStore()
	}

	ledger := bookings.NewLedger(opts.Stores.Appointments)
	protocol := bookings.NewProtocol(ledger, cfg.CommitTimeout, opts.Logger, opts.Metrics)
	if opts.Notifier != nil {
		protocol.Observe(opts.Notifier)
	}
	calc := availability.NewCalculator(opts.Stores.Shifts, ledger, availability.WithGranularity(cfg.SlotGranularityMinutes))

	flow := booking.NewEngine(booking.Config{
		Catalog:      opts.Stores.Catalog,
		Directory:    opts.Stores.Directory,
		Availability: calc,
		Committer:    protocol,
		HorizonDays:  cfg.BookingHorizonDays,
		Now:          opts.Now,
		Logger:       opts.Logger,
		Metrics:      opts.Metrics,
	})
	driver := conversation.NewDriver(
		conversation.NewInterpreter(conversation.Croatian(), opts.Now, cfg.ChatDateWindowDays),
		conversation.NewRenderer(cfg.ClinicName, cfg.ChatDateWindowDays),
		opts.Logger,
		opts.Metrics,
	)
	stepper := calendar.NewStepper(opts.Logger)
	manager := session.NewManager(session.Config{
		Store:         opts.Sessions,
		Engine:        flow,
		Driver:        driver,
		Stepper:       stepper,
		TTL:           cfg.SessionTTL,
		CommitTimeout: cfg.CommitTimeout,
		Logger:        opts.Logger,
	})

	return &Engine{
		Ledger:     ledger,
		Protocol:   protocol,
		Calculator: calc,
		Flow:       flow,
		Driver:     driver,
		Stepper:    stepper,
		Sessions:   manager,
	}
}

// BuildNotifier sends booking confirmations through SendGrid when a key is
// configured and logs them otherwise.
func BuildNotifier(cfg *appconfig.Config, logger *logging.Logger) *notify.Service {
	svcCfg := notify.Config{
		ClinicName: cfg.ClinicName,
		StaffEmail: cfg.StaffNotifyEmail,
		Logger:     logger,
	}
	if sender := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sender != nil {
		svcCfg.Email = sender
	}
	return notify.NewService(svcCfg)
}
