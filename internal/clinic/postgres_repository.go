package clinic

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type rowQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresRepository reads the catalog and client registry from Postgres.
type PostgresRepository struct {
	db rowQuerier
}

// NewPostgresRepository creates a repository backed by a pgx pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("clinic: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db rowQuerier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const listPractitionersSQL = `
	SELECT id, first_name || ' ' || last_name, COALESCE(title, '')
	FROM users
	WHERE role = 'staff'
	ORDER BY id
`

func (r *PostgresRepository) ListPractitioners(ctx context.Context) ([]Practitioner, error) {
	rows, err := r.db.Query(ctx, listPractitionersSQL)
	if err != nil {
		return nil, fmt.Errorf("clinic: list practitioners: %w", err)
	}
	defer rows.Close()

	var out []Practitioner
	for rows.Next() {
		var p Practitioner
		if err := rows.Scan(&p.ID, &p.Name, &p.Role); err != nil {
			return nil, fmt.Errorf("clinic: scan practitioner: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

const listServicesSQL = `
	SELECT c.id, c.name, s.id, s.name, COALESCE(s.description, ''), s.price_cents, s.duration_minutes,
	       COALESCE(array_agg(ss.staff_id ORDER BY ss.staff_id) FILTER (WHERE ss.staff_id IS NOT NULL), '{}')::bigint[]
	FROM service_categories c
	JOIN services s ON s.category_id = c.id
	LEFT JOIN staff_services ss ON ss.service_id = s.id
	GROUP BY c.id, c.name, c.sort_order, s.id
	ORDER BY c.sort_order, c.id, s.id
`

func (r *PostgresRepository) ListServices(ctx context.Context) ([]ServiceCategory, error) {
	rows, err := r.db.Query(ctx, listServicesSQL)
	if err != nil {
		return nil, fmt.Errorf("clinic: list services: %w", err)
	}
	defer rows.Close()

	var out []ServiceCategory
	for rows.Next() {
		var (
			categoryID   int64
			categoryName string
			sub          SubService
		)
		if err := rows.Scan(&categoryID, &categoryName, &sub.ID, &sub.Name, &sub.Description, &sub.Price, &sub.DurationMinutes, &sub.EligibleStaffIDs); err != nil {
			return nil, fmt.Errorf("clinic: scan service: %w", err)
		}
		sub.CategoryID = categoryID
		if n := len(out); n == 0 || out[n-1].ID != categoryID {
			out = append(out, ServiceCategory{ID: categoryID, Name: categoryName})
		}
		last := &out[len(out)-1]
		last.SubServices = append(last.SubServices, sub)
	}
	return out, rows.Err()
}

const listClientsSQL = `
	SELECT id, first_name || ' ' || last_name, COALESCE(phone_number, ''), COALESCE(email, '')
	FROM users
	WHERE role = 'client'
	ORDER BY id
`

// FindClient loads the client registry and matches in process so the
// diacritic folding is identical to the in-memory directory.
func (r *PostgresRepository) FindClient(ctx context.Context, query string) (*ClientIdentity, error) {
	rows, err := r.db.Query(ctx, listClientsSQL)
	if err != nil {
		return nil, fmt.Errorf("clinic: list clients: %w", err)
	}
	defer rows.Close()

	var clients []ClientIdentity
	for rows.Next() {
		var c ClientIdentity
		if err := rows.Scan(&c.ID, &c.FullName, &c.Phone, &c.Email); err != nil {
			return nil, fmt.Errorf("clinic: scan client: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("clinic: list clients: %w", err)
	}
	return MatchClient(clients, query), nil
}
