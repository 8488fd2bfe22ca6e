package conversation

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/physio-booking/internal/clinic"
	"github.com/wolfman30/physio-booking/internal/locale"
	"github.com/wolfman30/physio-booking/internal/schedule"
)

var (
	isoDateRE   = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	shortDateRE = regexp.MustCompile(`\b(\d{1,2})\.(\d{1,2})\.(?:\s*(\d{4})\.?)?`)
	clockRE     = regexp.MustCompile(`\b(\d{1,2})[:.](\d{2})\s*(?:h|sati|sat)?\b`)
	hourRE      = regexp.MustCompile(`\b(\d{1,2})\s*(?:h|sati|sat)\b`)
	longDateRE  = buildLongDateRE()
)

// Folded month spellings mapped to month numbers.
var monthByName = func() map[string]time.Month {
	m := make(map[string]time.Month)
	for i, names := range locale.MonthNames() {
		for _, n := range names {
			m[clinic.Fold(n)] = time.Month(i + 1)
		}
	}
	return m
}()

func buildLongDateRE() *regexp.Regexp {
	var names []string
	for _, spellings := range locale.MonthNames() {
		for _, n := range spellings {
			names = append(names, regexp.QuoteMeta(clinic.Fold(n)))
		}
	}
	// Longer spellings first so "studenoga" wins over "studenog".
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			if len(names[j]) > len(names[i]) {
				names[i], names[j] = names[j], names[i]
			}
		}
	}
	return regexp.MustCompile(`\b(\d{1,2})\.?\s*(` + strings.Join(names, "|") + `)\b(?:\s+(\d{4})\.?)?`)
}

var weekdayStems = []struct {
	stem string
	day  time.Weekday
}{
	{"ponedjelj", time.Monday},
	{"utor", time.Tuesday},
	{"srijed", time.Wednesday},
	{"cetvrt", time.Thursday},
	{"petak", time.Friday},
	{"petk", time.Friday},
	{"subot", time.Saturday},
	{"nedjelj", time.Sunday},
}

// dateTime is what the parser found in one input.
type dateTime struct {
	date    time.Time
	hasDate bool
	outside bool
	clock   schedule.ClockTime
	hasTime bool
}

// dateParser resolves date tokens against a window of candidate days.
type dateParser struct {
	candidates       []time.Time
	tomorrow         phraseSet
	dayAfterTomorrow phraseSet
}

func newDateParser(vocab Vocabulary, first time.Time, window int) dateParser {
	days := make([]time.Time, window)
	for i := range days {
		days[i] = schedule.Day(first).AddDate(0, 0, i)
	}
	return dateParser{
		candidates:       days,
		tomorrow:         newPhraseSet(vocab.Tomorrow),
		dayAfterTomorrow: newPhraseSet(vocab.DayAfterTomorrow),
	}
}

// parse looks for one date and one time. Date tokens are removed before the
// time is parsed so "25.2." is never read as a clock time.
func (p dateParser) parse(input string) dateTime {
	text := clinic.Fold(input)
	var out dateTime

	if m := isoDateRE.FindStringSubmatchIndex(text); m != nil {
		y, mo, d := atoi(text[m[2]:m[3]]), atoi(text[m[4]:m[5]]), atoi(text[m[6]:m[7]])
		if date, ok := validDate(y, mo, d); ok {
			out.date, out.hasDate, out.outside = p.resolveExact(date)
			text = text[:m[0]] + " " + text[m[1]:]
		}
	}
	if !out.hasDate && !out.outside {
		if m := longDateRE.FindStringSubmatchIndex(text); m != nil {
			d := atoi(text[m[2]:m[3]])
			mo := monthByName[text[m[4]:m[5]]]
			year := 0
			if m[6] >= 0 {
				year = atoi(text[m[6]:m[7]])
			}
			out.date, out.hasDate, out.outside = p.resolveDayMonth(year, int(mo), d)
			text = text[:m[0]] + " " + text[m[1]:]
		}
	}
	if !out.hasDate && !out.outside {
		for _, m := range shortDateRE.FindAllStringSubmatchIndex(text, -1) {
			d, mo := atoi(text[m[2]:m[3]]), atoi(text[m[4]:m[5]])
			if mo < 1 || mo > 12 || d < 1 || d > 31 {
				continue
			}
			year := 0
			if m[6] >= 0 {
				year = atoi(text[m[6]:m[7]])
			}
			out.date, out.hasDate, out.outside = p.resolveDayMonth(year, mo, d)
			text = text[:m[0]] + " " + text[m[1]:]
			break
		}
	}
	if !out.hasDate && !out.outside {
		out.date, out.hasDate = p.relative(clinic.Tokens(text))
	}

	if m := clockRE.FindStringSubmatch(text); m != nil {
		out.clock, out.hasTime = validClock(atoi(m[1]), atoi(m[2]))
	} else if m := hourRE.FindStringSubmatch(text); m != nil {
		out.clock, out.hasTime = validClock(atoi(m[1]), 0)
	}
	return out
}

func (p dateParser) resolveExact(date time.Time) (time.Time, bool, bool) {
	for _, c := range p.candidates {
		if c.Equal(date) {
			return c, true, false
		}
	}
	return time.Time{}, false, true
}

func (p dateParser) resolveDayMonth(year, month, day int) (time.Time, bool, bool) {
	for _, c := range p.candidates {
		if c.Day() == day && int(c.Month()) == month && (year == 0 || c.Year() == year) {
			return c, true, false
		}
	}
	return time.Time{}, false, true
}

func (p dateParser) relative(tokens []string) (time.Time, bool) {
	if len(p.candidates) == 0 {
		return time.Time{}, false
	}
	if p.dayAfterTomorrow.contains(tokens) && len(p.candidates) > 1 {
		return p.candidates[1], true
	}
	if p.tomorrow.contains(tokens) {
		return p.candidates[0], true
	}
	for _, tok := range tokens {
		for _, w := range weekdayStems {
			if !strings.HasPrefix(tok, w.stem) {
				continue
			}
			for _, c := range p.candidates {
				if c.Weekday() == w.day {
					return c, true
				}
			}
		}
	}
	return time.Time{}, false
}

func validDate(y, m, d int) (time.Time, bool) {
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

func validClock(h, m int) (schedule.ClockTime, bool) {
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, false
	}
	return schedule.NewClock(h, m), true
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}
