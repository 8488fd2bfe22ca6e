package calendar

import (
	"time"

	"github.com/wolfman30/physio-booking/internal/availability"
	"github.com/wolfman30/physio-booking/internal/booking"
	"github.com/wolfman30/physio-booking/internal/clinic"
	"github.com/wolfman30/physio-booking/internal/locale"
	"github.com/wolfman30/physio-booking/internal/schedule"
)

// DayCell is one day in the calendar strip.
type DayCell struct {
	Date      string   `json:"date"`
	Weekday   string   `json:"weekday"`
	Label     string   `json:"label"`
	Available bool     `json:"available"`
	Slots     []string `json:"slots,omitempty"`
}

// Notice is a banner shown above the current step.
type Notice struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Summary is the confirmation card.
type Summary struct {
	Practitioner string `json:"practitioner"`
	Service      string `json:"service"`
	Duration     int    `json:"duration_minutes"`
	Price        string `json:"price"`
	Date         string `json:"date"`
	DateLabel    string `json:"date_label"`
	Time         string `json:"time"`
}

// View is everything the guided calendar renders for one step.
type View struct {
	Step          int                      `json:"step"`
	Phase         booking.Phase            `json:"phase"`
	Practitioners []clinic.Practitioner    `json:"practitioners,omitempty"`
	Practitioner  *clinic.Practitioner     `json:"practitioner,omitempty"`
	Categories    []clinic.ServiceCategory `json:"categories,omitempty"`
	Days          []DayCell                `json:"days,omitempty"`
	Date          string                   `json:"date,omitempty"`
	Slots         []string                 `json:"slots,omitempty"`
	Summary       *Summary                 `json:"summary,omitempty"`
	AskIdentity   bool                     `json:"ask_identity,omitempty"`
	AppointmentID string                   `json:"appointment_id,omitempty"`
	CanRetry      bool                     `json:"can_retry,omitempty"`
	Notices       []Notice                 `json:"notices,omitempty"`
	State         booking.State            `json:"state"`
}

// StepOf numbers the phases as the calendar shows them.
func StepOf(phase booking.Phase) int {
	switch phase {
	case booking.PhaseSelectingService:
		return 2
	case booking.PhaseSelectingDate, booking.PhaseSelectingSlot:
		return 3
	case booking.PhaseAwaitingConfirmation:
		return 4
	case booking.PhaseAwaitingIdentity, booking.PhaseCommitted:
		return 5
	}
	return 1
}

// Strip lays offered days over a continuous run of n days from first;
// days without room are present but unavailable.
func Strip(first time.Time, n int, offered []availability.DaySlots) []DayCell {
	byDate := make(map[string][]schedule.ClockTime, len(offered))
	for _, d := range offered {
		byDate[schedule.FormatDate(d.Date)] = d.Slots
	}
	cells := make([]DayCell, 0, n)
	for i := 0; i < n; i++ {
		date := schedule.Day(first).AddDate(0, 0, i)
		key := schedule.FormatDate(date)
		slots := byDate[key]
		cells = append(cells, DayCell{
			Date:      key,
			Weekday:   locale.WeekdayShort(date.Weekday()),
			Label:     locale.ShortDate(date),
			Available: len(slots) > 0,
			Slots:     availability.FormatSlots(slots),
		})
	}
	return cells
}

func summaryCard(s booking.ConfirmSummary) *Summary {
	return &Summary{
		Practitioner: s.Practitioner.Name,
		Service:      s.Service.Name,
		Duration:     s.Service.DurationMinutes,
		Price:        clinic.FormatPrice(s.Service.Price),
		Date:         schedule.FormatDate(s.Date),
		DateLabel:    locale.LongDate(s.Date),
		Time:         s.Slot.String(),
	}
}

// Croatian banner texts keyed by notice code.
var noticeText = map[string]string{
	"unknown_practitioner": "Odabrani fizioterapeut nije dostupan.",
	"ineligible_service":   "Odabrani fizioterapeut ne izvodi tu uslugu.",
	"slot_unavailable":     "Odabrani termin nije slobodan.",
	"client_not_found":     "Klijent nije pronađen u evidenciji.",
	"invalid_transition":   "Taj korak trenutno nije moguć.",
	"commit_in_flight":     "Rezervacija je u tijeku.",
	"flow_completed":       "Rezervacija je već završena.",
	"no_availability":      "Za odabrani datum nema slobodnih termina.",
	"slot_taken":           "Termin je u međuvremenu zauzet. Odaberite drugi.",
	"commit_failed":        "Rezervacija nije uspjela. Pokušajte ponovno.",
}

func notice(code string) Notice {
	return Notice{Code: code, Message: noticeText[code]}
}
