package clinic

import (
	"fmt"
	"time"

	"github.com/wolfman30/physio-booking/internal/schedule"
)

// SeedPractitioners returns the clinic's team.
func SeedPractitioners() []Practitioner {
	return []Practitioner{
		{ID: 1, Name: "Vukica Jurišić", Role: "Osnivačica i glavna fizioterapeutkinja"},
		{ID: 2, Name: "Marko Horvat", Role: "Viši fizioterapeut"},
		{ID: 3, Name: "Ivana Carić", Role: "Fizioterapeutkinja"},
	}
}

// SeedCategories returns the default service menu.
func SeedCategories() []ServiceCategory {
	return []ServiceCategory{
		{ID: 1, Name: "Dijagnostika i individualna procjena", SubServices: []SubService{
			{ID: 1, CategoryID: 1, Name: "Cjelovita klinička procjena", Price: 5000, DurationMinutes: 60, EligibleStaffIDs: []int64{1, 2}},
			{ID: 2, CategoryID: 1, Name: "Analiza biomehanike tijela", Price: 5000, DurationMinutes: 60, EligibleStaffIDs: []int64{1, 2}},
			{ID: 3, CategoryID: 1, Name: "Analiza obrazaca kretanja", Price: 5000, DurationMinutes: 60, EligibleStaffIDs: []int64{1, 2}},
			{ID: 4, CategoryID: 1, Name: "Procjena neuro-mišićne kontrole", Price: 5000, DurationMinutes: 60, EligibleStaffIDs: []int64{1}},
		}},
		{ID: 2, Name: "Fizikalne procedure i tehnologija", SubServices: []SubService{
			{ID: 5, CategoryID: 2, Name: "TECAR terapija", Price: 4500, DurationMinutes: 45, EligibleStaffIDs: []int64{2, 3}},
			{ID: 6, CategoryID: 2, Name: "Magnetoterapija", Price: 3000, DurationMinutes: 30, EligibleStaffIDs: []int64{2, 3}},
			{ID: 7, CategoryID: 2, Name: "Elektroterapija", Price: 2500, DurationMinutes: 30, EligibleStaffIDs: []int64{3}},
			{ID: 8, CategoryID: 2, Name: "Terapijski ultrazvuk", Price: 2500, DurationMinutes: 15, EligibleStaffIDs: []int64{2, 3}},
		}},
		{ID: 3, Name: "Specijalizirane manualne tehnike i koncepti", SubServices: []SubService{
			{ID: 9, CategoryID: 3, Name: "Maitland koncept", Price: 4500, DurationMinutes: 45, EligibleStaffIDs: []int64{1, 2}},
			{ID: 10, CategoryID: 3, Name: "DNS (Dinamička neuromuskularna stabilizacija)", Price: 6000, DurationMinutes: 60, EligibleStaffIDs: []int64{1}},
			{ID: 11, CategoryID: 3, Name: "PNF (Proprioceptivna neuromuskularna facilitacija)", Price: 5000, DurationMinutes: 45, EligibleStaffIDs: []int64{1, 2}},
			{ID: 12, CategoryID: 3, Name: "Bobath koncept", Price: 5000, DurationMinutes: 60, EligibleStaffIDs: []int64{1}},
			{ID: 13, CategoryID: 3, Name: "Mobilizacija i manipulacija", Price: 4000, DurationMinutes: 30, EligibleStaffIDs: []int64{1, 2}},
		}},
		{ID: 4, Name: "Prevencija, trening i edukacija", SubServices: []SubService{
			{ID: 14, CategoryID: 4, Name: "Prevencijski trening", Price: 4000, DurationMinutes: 60, EligibleStaffIDs: []int64{2}},
			{ID: 15, CategoryID: 4, Name: "Rekreativni trening", Price: 4000, DurationMinutes: 60, EligibleStaffIDs: []int64{2}},
			{ID: 16, CategoryID: 4, Name: "Edukacija klijenata", Price: 4000, DurationMinutes: 45, EligibleStaffIDs: []int64{1, 2, 3}},
		}},
	}
}

// SeedClients returns demo clients for local runs.
func SeedClients() []ClientIdentity {
	return []ClientIdentity{
		{ID: 1, FullName: "Ana Kovačević", Phone: "091 234 5678", Email: "ana.kovacevic@example.com"},
		{ID: 2, FullName: "Petar Novak", Phone: "+385 98 765 4321", Email: "petar.novak@example.com"},
		{ID: 3, FullName: "Lucija Đurić", Phone: "095 111 2233"},
	}
}

// SeedCatalog builds an in-memory catalog from the defaults.
func SeedCatalog() *MemoryCatalog {
	return NewMemoryCatalog(SeedPractitioners(), SeedCategories())
}

// SeedRoster fills store with the weekly roster for days calendar days
// starting at from. Weekends are off.
func SeedRoster(store *schedule.MemoryStore, from time.Time, days int) error {
	morning := schedule.Interval{Start: schedule.NewClock(8, 0), End: schedule.NewClock(14, 0)}
	afternoon := schedule.Interval{Start: schedule.NewClock(13, 0), End: schedule.NewClock(20, 0)}
	splitAM := schedule.Interval{Start: schedule.NewClock(8, 0), End: schedule.NewClock(12, 0)}
	splitPM := schedule.Interval{Start: schedule.NewClock(16, 0), End: schedule.NewClock(20, 0)}

	for i := 0; i < days; i++ {
		date := schedule.Day(from).AddDate(0, 0, i)
		wd := date.Weekday()
		if wd == time.Saturday || wd == time.Sunday {
			continue
		}
		shifts := []schedule.WorkShift{
			{PractitionerID: 1, Date: date, Type: schedule.ShiftMorning, Primary: morning},
			{PractitionerID: 2, Date: date, Type: schedule.ShiftAfternoon, Primary: afternoon},
		}
		if wd == time.Monday || wd == time.Wednesday || wd == time.Friday {
			pm := splitPM
			shifts = append(shifts, schedule.WorkShift{PractitionerID: 3, Date: date, Type: schedule.ShiftSplit, Primary: splitAM, Secondary: &pm})
		}
		for _, s := range shifts {
			if err := store.PutShift(s); err != nil {
				return fmt.Errorf("clinic: seed roster: %w", err)
			}
		}
	}
	return nil
}
