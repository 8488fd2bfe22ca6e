// Package locale holds the clinic's Croatian calendar vocabulary.
package locale

import (
	"fmt"
	"time"
)

var weekdays = [...]string{"nedjelja", "ponedjeljak", "utorak", "srijeda", "četvrtak", "petak", "subota"}

var weekdaysShort = [...]string{"ned", "pon", "uto", "sri", "čet", "pet", "sub"}

// Genitive month names as used in dates ("25. veljače").
var monthsGenitive = [...]string{
	"siječnja", "veljače", "ožujka", "travnja", "svibnja", "lipnja",
	"srpnja", "kolovoza", "rujna", "listopada", "studenoga", "prosinca",
}

// Nominative month names ("veljača").
var monthsNominative = [...]string{
	"siječanj", "veljača", "ožujak", "travanj", "svibanj", "lipanj",
	"srpanj", "kolovoz", "rujan", "listopad", "studeni", "prosinac",
}

// Weekday returns the lowercase Croatian weekday name.
func Weekday(d time.Weekday) string {
	return weekdays[d]
}

// WeekdayShort returns a three-letter weekday abbreviation.
func WeekdayShort(d time.Weekday) string {
	return weekdaysShort[d]
}

// MonthGenitive returns the month name in the genitive case.
func MonthGenitive(m time.Month) string {
	return monthsGenitive[m-1]
}

// LongDate renders "srijeda, 25. veljače 2026.".
func LongDate(t time.Time) string {
	return fmt.Sprintf("%s, %d. %s %d.", Weekday(t.Weekday()), t.Day(), MonthGenitive(t.Month()), t.Year())
}

// DayMonth renders "srijeda, 25. veljače".
func DayMonth(t time.Time) string {
	return fmt.Sprintf("%s, %d. %s", Weekday(t.Weekday()), t.Day(), MonthGenitive(t.Month()))
}

// ShortDate renders "25.2.".
func ShortDate(t time.Time) string {
	return fmt.Sprintf("%d.%d.", t.Day(), int(t.Month()))
}

// MonthNames returns every accepted spelling of each month, indexed by
// month number minus one.
func MonthNames() [12][]string {
	var out [12][]string
	for i := 0; i < 12; i++ {
		out[i] = []string{monthsGenitive[i], monthsNominative[i]}
	}
	// Colloquial genitive.
	out[10] = append(out[10], "studenog")
	return out
}

// WeekdayNames returns the weekday names indexed by time.Weekday.
func WeekdayNames() [7]string {
	return weekdays
}
