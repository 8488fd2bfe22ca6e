package conversation

import (
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/physio-booking/internal/booking"
	"github.com/wolfman30/physio-booking/internal/clinic"
	"github.com/wolfman30/physio-booking/internal/locale"
	"github.com/wolfman30/physio-booking/internal/schedule"
)

// Option is a quick-reply button. Payload is what the client sends back
// as the next input when the button is pressed.
type Option struct {
	Label   string `json:"label"`
	Payload string `json:"payload"`
}

// Message is one bot message.
type Message struct {
	Text    string   `json:"text"`
	Options []Option `json:"options,omitempty"`
}

// SlotPayload is the input a slot button sends ("2026-02-25 u 14:00").
func SlotPayload(date time.Time, clock schedule.ClockTime) string {
	return schedule.FormatDate(date) + " u " + clock.String()
}

// Renderer turns directives into Croatian chat messages.
type Renderer struct {
	ClinicName string
	WindowDays int
}

// NewRenderer creates a renderer for the clinic.
func NewRenderer(clinicName string, windowDays int) Renderer {
	if windowDays <= 0 {
		windowDays = DefaultDateWindowDays
	}
	return Renderer{ClinicName: clinicName, WindowDays: windowDays}
}

// Welcome is the opening message of a conversation.
func (r Renderer) Welcome() Message {
	name := "sustav za rezervacije fizioterapije"
	if r.ClinicName != "" {
		name = r.ClinicName
	}
	return Message{Text: fmt.Sprintf("Dobrodošli u %s!\n\nPomoći ću vam pronaći slobodan termin. Možete odabrati ponuđenu opciju ili jednostavno napisati što trebate.", name)}
}

// Render renders directives in order.
func (r Renderer) Render(directives []booking.Directive) []Message {
	out := make([]Message, 0, len(directives))
	for _, d := range directives {
		out = append(out, r.render(d))
	}
	return out
}

func (r Renderer) render(d booking.Directive) Message {
	switch v := d.(type) {
	case booking.OfferPractitioners:
		msg := Message{Text: "Kojem fizioterapeutu se želite javiti?"}
		for _, p := range v.Practitioners {
			label := p.Name
			if p.Role != "" {
				label = fmt.Sprintf("%s (%s)", p.Name, p.Role)
			}
			msg.Options = append(msg.Options, Option{Label: label, Payload: p.Name})
		}
		return msg

	case booking.OfferServices:
		if len(v.Categories) == 0 {
			return Message{Text: fmt.Sprintf("%s trenutno nema usluga dostupnih za rezervaciju. Odaberite drugog fizioterapeuta.", v.Practitioner.Name)}
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Odabrali ste: %s. Koju uslugu želite?", v.Practitioner.Name)
		msg := Message{}
		for _, cat := range v.Categories {
			fmt.Fprintf(&b, "\n\n%s", cat.Name)
			for _, sub := range cat.SubServices {
				fmt.Fprintf(&b, "\n• %s", serviceLabel(sub))
				msg.Options = append(msg.Options, Option{Label: sub.Name, Payload: sub.Name})
			}
		}
		msg.Text = b.String()
		return msg

	case booking.OfferDates:
		if len(v.Days) == 0 {
			return Message{Text: "Nažalost, u narednom razdoblju nema slobodnih termina za ovu uslugu. Odaberite drugu uslugu ili fizioterapeuta."}
		}
		msg := Message{Text: "Odaberite datum:"}
		for _, day := range v.Days {
			msg.Options = append(msg.Options, Option{
				Label:   fmt.Sprintf("%s (%s)", locale.DayMonth(day.Date), slotCount(len(day.Slots))),
				Payload: schedule.FormatDate(day.Date),
			})
		}
		return msg

	case booking.OfferSlots:
		if len(v.Slots) == 0 {
			return Message{Text: fmt.Sprintf("Za %s više nema slobodnih termina. Odaberite drugi datum.", locale.DayMonth(v.Date))}
		}
		msg := Message{Text: fmt.Sprintf("Slobodni termini za %s:", locale.DayMonth(v.Date))}
		for _, s := range v.Slots {
			msg.Options = append(msg.Options, Option{Label: s.String(), Payload: SlotPayload(v.Date, s)})
		}
		return msg

	case booking.NoAvailability:
		return Message{Text: fmt.Sprintf("Nažalost, za %s nema slobodnih termina.", locale.DayMonth(v.Date))}

	case booking.ConfirmSummary:
		return Message{
			Text:    "Molim potvrdite rezervaciju:\n" + summaryText(v),
			Options: []Option{{Label: "Da, potvrđujem", Payload: "da"}, {Label: "Ne, drugi termin", Payload: "ne"}},
		}

	case booking.AskIdentity:
		return Message{Text: "Za dovršetak rezervacije upišite svoje ime i prezime, broj telefona ili e-mail adresu."}

	case booking.IdentityNotFound:
		return Message{Text: fmt.Sprintf("Nismo pronašli klijenta \"%s\" u evidenciji. Provjerite unos ili pokušajte s brojem telefona.", v.Query)}

	case booking.Booked:
		return Message{Text: fmt.Sprintf("Termin je rezerviran! Hvala, %s.\n%s\nBroj rezervacije: %s", v.Client.FullName, summaryText(v.Summary), v.AppointmentID)}

	case booking.CommitFailed:
		if v.SlotTaken {
			return Message{Text: "Nažalost, odabrani termin je u međuvremenu zauzet. Odaberite drugi termin."}
		}
		return Message{
			Text:    "Rezervacija nije uspjela zbog tehničke poteškoće. Napišite \"ponovi\" za novi pokušaj.",
			Options: []Option{{Label: "Pokušaj ponovno", Payload: "ponovi"}},
		}

	case booking.Reprompt:
		return Message{Text: repromptText(v.Code)}
	}
	return Message{Text: "Nisam siguran kako nastaviti. Napišite \"bok\" za početak."}
}

// Miss renders the neutral re-prompt for unmatched input.
func (r Renderer) Miss(reason MissReason) Message {
	switch reason {
	case MissEmpty:
		return Message{Text: "Napišite poruku ili odaberite jednu od ponuđenih opcija."}
	case MissTimeWithoutDate:
		return Message{Text: "Navedite i datum, npr. \"25.2. u 14:00\"."}
	case MissDateOutsideWindow:
		return Message{Text: fmt.Sprintf("Termine je moguće rezervirati od sutra do %d dana unaprijed.", r.WindowDays)}
	case MissFlowCompleted:
		return Message{Text: "Vaša rezervacija je završena. Napišite \"bok\" za novu rezervaciju."}
	}
	return Message{Text: "Nisam razumio. Odaberite jednu od ponuđenih opcija:"}
}

// CategoryOffer lists the services of a matched category.
func (r Renderer) CategoryOffer(cat clinic.ServiceCategory) Message {
	msg := Message{Text: fmt.Sprintf("U kategoriji \"%s\" nudimo:", cat.Name)}
	for _, sub := range cat.SubServices {
		msg.Options = append(msg.Options, Option{Label: serviceLabel(sub), Payload: sub.Name})
	}
	return msg
}

// Failure is shown when a collaborator is unavailable.
func (r Renderer) Failure() Message {
	return Message{Text: "Došlo je do tehničke poteškoće. Molimo pokušajte ponovno za nekoliko trenutaka."}
}

func serviceLabel(sub clinic.SubService) string {
	return fmt.Sprintf("%s (%d min, %s)", sub.Name, sub.DurationMinutes, clinic.FormatPrice(sub.Price))
}

func summaryText(s booking.ConfirmSummary) string {
	return fmt.Sprintf("Fizioterapeut: %s\nUsluga: %s\nDatum: %s\nVrijeme: %s",
		s.Practitioner.Name, serviceLabel(s.Service), locale.LongDate(s.Date), s.Slot)
}

func slotCount(n int) string {
	if n%10 == 1 && n%100 != 11 {
		return fmt.Sprintf("%d termin", n)
	}
	return fmt.Sprintf("%d termina", n)
}

func repromptText(code string) string {
	switch code {
	case "unknown_practitioner":
		return "Ne prepoznajem tog fizioterapeuta."
	case "ineligible_service":
		return "Odabrani fizioterapeut ne izvodi tu uslugu."
	case "slot_unavailable":
		return "Taj termin nije slobodan."
	case "commit_in_flight":
		return "Rezervacija je u tijeku, pričekajte trenutak."
	case "flow_completed":
		return "Rezervacija je već završena. Napišite \"bok\" za novu."
	}
	return "To trenutno nije moguće."
}
