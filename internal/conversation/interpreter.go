// Package conversation drives the booking flow from free text: a
// deterministic keyword and pattern matcher over the clinic's catalog, plus
// a Croatian renderer for the flow's directives.
package conversation

import (
	"strings"
	"time"

	"github.com/wolfman30/physio-booking/internal/booking"
	"github.com/wolfman30/physio-booking/internal/clinic"
	"github.com/wolfman30/physio-booking/internal/schedule"
)

// DefaultDateWindowDays bounds how far ahead typed dates are recognised.
const DefaultDateWindowDays = 30

// MissReason explains why an input produced no event.
type MissReason string

const (
	MissNone              MissReason = ""
	MissEmpty             MissReason = "empty"
	MissUnrecognized      MissReason = "unrecognized"
	MissTimeWithoutDate   MissReason = "time_without_date"
	MissDateOutsideWindow MissReason = "date_outside_window"
	MissFlowCompleted     MissReason = "flow_completed"
)

// Interpretation is the result of matching one input. At most one of Event
// and Category is set; Miss is set when neither is.
type Interpretation struct {
	Event    booking.Event
	Greeting bool
	// Category is offered when a category name matched and the practitioner
	// performs several of its services.
	Category *clinic.ServiceCategory
	Miss     MissReason
}

// Matched reports whether the input led anywhere.
func (i Interpretation) Matched() bool {
	return i.Event != nil || i.Category != nil
}

// Interpreter maps raw input to a flow event. It never mutates anything.
type Interpreter struct {
	vocab       Vocabulary
	greetings   phraseSet
	affirmative phraseSet
	negative    phraseSet
	retry       phraseSet
	now         func() time.Time
	windowDays  int
}

// NewInterpreter builds an interpreter. Candidate dates are the windowDays
// days starting tomorrow according to now.
func NewInterpreter(vocab Vocabulary, now func() time.Time, windowDays int) *Interpreter {
	if now == nil {
		now = time.Now
	}
	if windowDays <= 0 {
		windowDays = DefaultDateWindowDays
	}
	return &Interpreter{
		vocab:       vocab,
		greetings:   newPhraseSet(vocab.Greetings),
		affirmative: newPhraseSet(vocab.Affirmative),
		negative:    newPhraseSet(vocab.Negative),
		retry:       newPhraseSet(vocab.Retry),
		now:         now,
		windowDays:  windowDays,
	}
}

// Interpret applies, in order: greeting reset, practitioner, service,
// date/time, confirmation and identity matching for the current phase.
func (in *Interpreter) Interpret(state booking.State, snap clinic.Snapshot, input string) Interpretation {
	input = strings.TrimSpace(input)
	if input == "" {
		return Interpretation{Miss: MissEmpty}
	}
	tokens := clinic.Tokens(input)

	// Names typed at the identity prompt must not be swallowed by a
	// greeting match, so only a bare greeting resets there.
	if state.Phase == booking.PhaseAwaitingIdentity {
		if in.greetings.covers(tokens) {
			return Interpretation{Event: booking.Reset{}, Greeting: true}
		}
		return Interpretation{Event: booking.SubmitIdentity{Text: input}}
	}
	if in.greetings.contains(tokens) {
		return Interpretation{Event: booking.Reset{}, Greeting: true}
	}

	switch {
	case state.Phase == booking.PhaseCommitted:
		return in.interpretCommitted(state, tokens)
	case state.PractitionerID == 0:
		if p, ok := matchPractitioner(snap, input, tokens); ok {
			return Interpretation{Event: booking.SelectPractitioner{ID: p.ID}}
		}
		return Interpretation{Miss: MissUnrecognized}
	case state.SubServiceID == 0:
		return in.interpretService(state, snap, input, tokens)
	}

	if state.Phase == booking.PhaseAwaitingConfirmation {
		yes, no := in.affirmative.contains(tokens), in.negative.contains(tokens)
		switch {
		case yes && !no:
			return Interpretation{Event: booking.Confirm{Yes: true}}
		case no && !yes:
			return Interpretation{Event: booking.Confirm{Yes: false}}
		}
	}
	return in.interpretDateTime(state, input)
}

func (in *Interpreter) interpretCommitted(state booking.State, tokens []string) Interpretation {
	if state.CommitPending() && (in.retry.contains(tokens) || in.affirmative.contains(tokens)) {
		return Interpretation{Event: booking.RetryCommit{}}
	}
	return Interpretation{Miss: MissFlowCompleted}
}

func (in *Interpreter) interpretService(state booking.State, snap clinic.Snapshot, input string, tokens []string) Interpretation {
	if sub, ok := matchSubService(snap, state.PractitionerID, input, tokens); ok {
		return Interpretation{Event: booking.SelectService{SubServiceID: sub.ID}}
	}
	cat, ok := matchCategory(snap, input, tokens)
	if !ok {
		return Interpretation{Miss: MissUnrecognized}
	}
	var eligible []clinic.SubService
	for _, sub := range cat.SubServices {
		if sub.EligibleFor(state.PractitionerID) {
			eligible = append(eligible, sub)
		}
	}
	switch len(eligible) {
	case 0:
		// Let the flow reject it so the reply lists what is offered.
		return Interpretation{Event: booking.SelectService{SubServiceID: cat.SubServices[0].ID}}
	case 1:
		return Interpretation{Event: booking.SelectService{SubServiceID: eligible[0].ID}}
	}
	cat.SubServices = eligible
	return Interpretation{Category: &cat}
}

func (in *Interpreter) interpretDateTime(state booking.State, input string) Interpretation {
	first := schedule.Day(in.now()).AddDate(0, 0, 1)
	found := newDateParser(in.vocab, first, in.windowDays).parse(input)

	switch {
	case found.outside:
		return Interpretation{Miss: MissDateOutsideWindow}
	case found.hasDate && found.hasTime:
		return Interpretation{Event: booking.SelectSlot{Date: found.date, Time: found.clock}}
	case found.hasDate:
		return Interpretation{Event: booking.SelectDate{Date: found.date}}
	case found.hasTime:
		if !state.HasDate() {
			return Interpretation{Miss: MissTimeWithoutDate}
		}
		return Interpretation{Event: booking.SelectSlot{Time: found.clock}}
	}
	return Interpretation{Miss: MissUnrecognized}
}

func matchPractitioner(snap clinic.Snapshot, input string, tokens []string) (clinic.Practitioner, bool) {
	folded := clinic.Fold(input)
	for _, p := range snap.Practitioners {
		if strings.Contains(folded, clinic.Fold(p.Name)) {
			return p, true
		}
	}
	var hits []clinic.Practitioner
	for _, p := range snap.Practitioners {
		if anyTokenMatches(clinic.Tokens(p.Name), tokens) {
			hits = append(hits, p)
		}
	}
	if len(hits) == 1 {
		return hits[0], true
	}
	return clinic.Practitioner{}, false
}

// anyTokenMatches compares name tokens with input tokens, tolerating
// Croatian case endings ("Marko" / "kod Marka").
func anyTokenMatches(nameTokens, inputTokens []string) bool {
	for _, name := range nameTokens {
		if len(name) < 3 {
			continue
		}
		stem := strings.TrimRight(name, "aeiou")
		for _, tok := range inputTokens {
			if tok == name {
				return true
			}
			if len(stem) >= 4 && strings.HasPrefix(tok, stem) && len(tok) <= len(stem)+3 {
				return true
			}
		}
	}
	return false
}

const minMatchTokenLen = 3

func matchSubService(snap clinic.Snapshot, practitionerID int64, input string, tokens []string) (clinic.SubService, bool) {
	folded := clinic.Fold(input)
	var (
		best      []clinic.SubService
		bestScore int
	)
	for _, cat := range snap.Categories {
		for _, sub := range cat.SubServices {
			score := serviceScore(clinic.Fold(sub.Name), folded, tokens)
			if score == 0 || score < bestScore {
				continue
			}
			if score > bestScore {
				best, bestScore = nil, score
			}
			best = append(best, sub)
		}
	}
	if len(best) == 0 {
		return clinic.SubService{}, false
	}
	for _, sub := range best {
		if sub.EligibleFor(practitionerID) {
			return sub, true
		}
	}
	return best[0], true
}

func matchCategory(snap clinic.Snapshot, input string, tokens []string) (clinic.ServiceCategory, bool) {
	folded := clinic.Fold(input)
	var (
		best      clinic.ServiceCategory
		bestScore int
	)
	for _, cat := range snap.Categories {
		if len(cat.SubServices) == 0 {
			continue
		}
		if score := serviceScore(clinic.Fold(cat.Name), folded, tokens); score > bestScore {
			best, bestScore = cat, score
		}
	}
	return best, bestScore > 0
}

// serviceScore ranks a catalog name against input: whole-name containment
// in either direction beats shared words.
func serviceScore(name, folded string, tokens []string) int {
	if strings.Contains(folded, name) || (len(folded) >= minMatchTokenLen && strings.Contains(name, folded)) {
		return 100
	}
	nameTokens := clinic.Tokens(name)
	score := 0
	for _, tok := range tokens {
		if len(tok) < minMatchTokenLen {
			continue
		}
		for _, nt := range nameTokens {
			if nt == tok {
				score++
				break
			}
		}
	}
	return score
}
