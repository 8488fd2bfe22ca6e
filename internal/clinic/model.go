package clinic

import (
	"context"
	"fmt"
	"strings"
)

// Practitioner is a physiotherapist clients can book with.
type Practitioner struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

// SubService is a bookable treatment. Price is in euro cents.
type SubService struct {
	ID               int64   `json:"id"`
	CategoryID       int64   `json:"category_id"`
	Name             string  `json:"name"`
	Description      string  `json:"description,omitempty"`
	Price            int64   `json:"price_cents"`
	DurationMinutes  int     `json:"duration_minutes"`
	EligibleStaffIDs []int64 `json:"eligible_staff_ids"`
}

// EligibleFor reports whether the practitioner may perform the treatment.
func (s SubService) EligibleFor(practitionerID int64) bool {
	for _, id := range s.EligibleStaffIDs {
		if id == practitionerID {
			return true
		}
	}
	return false
}

// ServiceCategory groups sub-services in menu order.
type ServiceCategory struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	SubServices []SubService `json:"sub_services"`
}

// ClientIdentity is a registered client as resolved from free-text input.
type ClientIdentity struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Catalog exposes the read-only service menu and practitioner roster.
type Catalog interface {
	ListServices(ctx context.Context) ([]ServiceCategory, error)
	ListPractitioners(ctx context.Context) ([]Practitioner, error)
}

// ClientDirectory resolves a client from a name, phone number or email.
// A nil client with a nil error means no match.
type ClientDirectory interface {
	FindClient(ctx context.Context, query string) (*ClientIdentity, error)
}

// Snapshot is a point-in-time copy of the catalog used by the booking flow
// and the conversational matcher.
type Snapshot struct {
	Practitioners []Practitioner    `json:"practitioners"`
	Categories    []ServiceCategory `json:"categories"`
}

// LoadSnapshot reads the full catalog.
func LoadSnapshot(ctx context.Context, catalog Catalog) (Snapshot, error) {
	practitioners, err := catalog.ListPractitioners(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("clinic: list practitioners: %w", err)
	}
	categories, err := catalog.ListServices(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("clinic: list services: %w", err)
	}
	return Snapshot{Practitioners: practitioners, Categories: categories}, nil
}

// Practitioner looks up a practitioner by id.
func (s Snapshot) Practitioner(id int64) (Practitioner, bool) {
	for _, p := range s.Practitioners {
		if p.ID == id {
			return p, true
		}
	}
	return Practitioner{}, false
}

// SubService looks up a sub-service by id.
func (s Snapshot) SubService(id int64) (SubService, bool) {
	for _, c := range s.Categories {
		for _, sub := range c.SubServices {
			if sub.ID == id {
				return sub, true
			}
		}
	}
	return SubService{}, false
}

// Category looks up a category by id.
func (s Snapshot) Category(id int64) (ServiceCategory, bool) {
	for _, c := range s.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return ServiceCategory{}, false
}

// EligibleCategories returns the menu restricted to what the practitioner
// performs. Categories left empty are dropped; order is preserved.
func (s Snapshot) EligibleCategories(practitionerID int64) []ServiceCategory {
	var out []ServiceCategory
	for _, c := range s.Categories {
		filtered := ServiceCategory{ID: c.ID, Name: c.Name}
		for _, sub := range c.SubServices {
			if sub.EligibleFor(practitionerID) {
				filtered.SubServices = append(filtered.SubServices, sub)
			}
		}
		if len(filtered.SubServices) > 0 {
			out = append(out, filtered)
		}
	}
	return out
}

// Eligible reports whether the practitioner performs the sub-service.
func (s Snapshot) Eligible(practitionerID, subServiceID int64) bool {
	sub, ok := s.SubService(subServiceID)
	return ok && sub.EligibleFor(practitionerID)
}

// FormatPrice renders cents the way the clinic prints prices ("50 €", "35,50 €").
func FormatPrice(cents int64) string {
	euros, rest := cents/100, cents%100
	if rest == 0 {
		return fmt.Sprintf("%d €", euros)
	}
	return strings.Replace(fmt.Sprintf("%d.%02d €", euros, rest), ".", ",", 1)
}
