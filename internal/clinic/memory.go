package clinic

import (
	"context"
	"sync"
)

// MemoryCatalog is an in-memory Catalog.
type MemoryCatalog struct {
	mu            sync.RWMutex
	practitioners []Practitioner
	categories    []ServiceCategory
}

// NewMemoryCatalog creates a catalog over the given roster and menu.
func NewMemoryCatalog(practitioners []Practitioner, categories []ServiceCategory) *MemoryCatalog {
	return &MemoryCatalog{practitioners: practitioners, categories: categories}
}

func (c *MemoryCatalog) ListPractitioners(ctx context.Context) ([]Practitioner, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Practitioner(nil), c.practitioners...), nil
}

func (c *MemoryCatalog) ListServices(ctx context.Context) ([]ServiceCategory, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ServiceCategory, len(c.categories))
	for i, cat := range c.categories {
		cat.SubServices = append([]SubService(nil), cat.SubServices...)
		out[i] = cat
	}
	return out, nil
}

// Eligible is suitable as a schedule.EligibilityFunc.
func (c *MemoryCatalog) Eligible(practitionerID, subServiceID int64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{Categories: c.categories}.Eligible(practitionerID, subServiceID)
}

// MemoryDirectory is an in-memory ClientDirectory.
type MemoryDirectory struct {
	mu      sync.RWMutex
	clients []ClientIdentity
	nextID  int64
}

// NewMemoryDirectory creates a directory seeded with clients.
func NewMemoryDirectory(clients ...ClientIdentity) *MemoryDirectory {
	d := &MemoryDirectory{}
	for _, c := range clients {
		d.Add(c)
	}
	return d
}

// Add registers a client, assigning an id when none is set.
func (d *MemoryDirectory) Add(c ClientIdentity) ClientIdentity {
	d.mu.Lock()
	defer d.mu.Unlock()
	if c.ID == 0 {
		d.nextID++
		c.ID = d.nextID
	} else if c.ID > d.nextID {
		d.nextID = c.ID
	}
	d.clients = append(d.clients, c)
	return c
}

func (d *MemoryDirectory) FindClient(ctx context.Context, query string) (*ClientIdentity, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return MatchClient(d.clients, query), nil
}
