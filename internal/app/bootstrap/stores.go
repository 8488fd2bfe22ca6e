package bootstrap

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/physio-booking/internal/booking"
	"github.com/wolfman30/physio-booking/internal/clinic"
	appconfig "github.com/wolfman30/physio-booking/internal/config"
	"github.com/wolfman30/physio-booking/internal/schedule"
	"github.com/wolfman30/physio-booking/internal/session"
	"github.com/wolfman30/physio-booking/pkg/logging"
)

// Stores are the collaborators the engine reads and writes.
type Stores struct {
	Catalog      clinic.Catalog
	Directory    clinic.ClientDirectory
	Shifts       schedule.ShiftStore
	Appointments schedule.AppointmentStore
	Admin        schedule.AppointmentAdmin
	InMemory     bool
}

// appointmentRepository is the full schedule surface both backends provide.
type appointmentRepository interface {
	schedule.ShiftStore
	schedule.AppointmentStore
	schedule.AppointmentAdmin
}

// BuildStores returns Postgres-backed stores, or the seeded in-memory ones
// when the config asks for them or no database is available.
func BuildStores(cfg *appconfig.Config, pg *Postgres, now time.Time, logger *logging.Logger) (Stores, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if pg == nil || cfg.UseMemoryStore {
		return BuildMemoryStores(now, horizon(cfg))
	}
	catalog := clinic.NewPostgresRepository(pg.Pool)
	var appts appointmentRepository = schedule.NewPostgresRepository(pg.Pool)
	logger.Info("using postgres stores")
	return Stores{
		Catalog:      catalog,
		Directory:    catalog,
		Shifts:       appts,
		Appointments: appts,
		Admin:        appts,
	}, nil
}

// BuildMemoryStores seeds the default menu, clients and a roster covering
// days from now.
func BuildMemoryStores(now time.Time, days int) (Stores, error) {
	catalog := clinic.SeedCatalog()
	appts := schedule.NewMemoryStore(catalog.Eligible)
	if err := clinic.SeedRoster(appts, now, days+1); err != nil {
		return Stores{}, err
	}
	return Stores{
		Catalog:      catalog,
		Directory:    clinic.NewMemoryDirectory(clinic.SeedClients()...),
		Shifts:       appts,
		Appointments: appts,
		Admin:        appts,
		InMemory:     true,
	}, nil
}

// BuildSessionStore keeps sessions in Redis when a client is available.
func BuildSessionStore(client *redis.Client, logger *logging.Logger) session.Store {
	if client == nil {
		return session.NewMemoryStore()
	}
	return session.NewRedisStore(client, logger)
}

func horizon(cfg *appconfig.Config) int {
	if cfg == nil || cfg.BookingHorizonDays <= 0 {
		return booking.DefaultHorizonDays
	}
	return cfg.BookingHorizonDays
}
