package conversation

import (
	"github.com/wolfman30/physio-booking/internal/clinic"
)

// Vocabulary lists the keyword phrases the interpreter recognises. Phrases
// are compared after case and diacritic folding, token by token.
type Vocabulary struct {
	Greetings        []string
	Affirmative      []string
	Negative         []string
	Retry            []string
	Tomorrow         []string
	DayAfterTomorrow []string
}

// Croatian is the clinic's default vocabulary.
func Croatian() Vocabulary {
	return Vocabulary{
		Greetings:        []string{"zdravo", "hej", "bok", "pozdrav", "dobar dan", "dobro jutro", "dobra večer", "dobar"},
		Affirmative:      []string{"da", "potvrdi", "potvrđujem", "ok", "okej", "u redu", "može", "moze", "naravno", "tako je"},
		Negative:         []string{"ne", "otkaži", "cancel", "drugo", "drugi", "drugačije", "promijeni", "nikako"},
		Retry:            []string{"ponovi", "pokušaj", "pokušaj ponovno", "opet", "probaj"},
		Tomorrow:         []string{"sutra"},
		DayAfterTomorrow: []string{"prekosutra"},
	}
}

// phraseSet is a vocabulary list pre-tokenised for matching.
type phraseSet [][]string

func newPhraseSet(phrases []string) phraseSet {
	out := make(phraseSet, 0, len(phrases))
	for _, p := range phrases {
		if toks := clinic.Tokens(p); len(toks) > 0 {
			out = append(out, toks)
		}
	}
	return out
}

// contains reports whether any phrase occurs as a contiguous token run.
func (ps phraseSet) contains(tokens []string) bool {
	for _, phrase := range ps {
		if indexPhrase(tokens, phrase, nil) >= 0 {
			return true
		}
	}
	return false
}

// covers reports whether every token belongs to some phrase occurrence.
func (ps phraseSet) covers(tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}
	covered := make([]bool, len(tokens))
	for _, phrase := range ps {
		from := 0
		for {
			i := indexPhrase(tokens, phrase, &from)
			if i < 0 {
				break
			}
			for j := i; j < i+len(phrase); j++ {
				covered[j] = true
			}
		}
	}
	for _, c := range covered {
		if !c {
			return false
		}
	}
	return true
}

// indexPhrase finds phrase in tokens starting at *from (or 0) and advances *from.
func indexPhrase(tokens, phrase []string, from *int) int {
	start := 0
	if from != nil {
		start = *from
	}
	for i := start; i+len(phrase) <= len(tokens); i++ {
		match := true
		for j, p := range phrase {
			if tokens[i+j] != p {
				match = false
				break
			}
		}
		if match {
			if from != nil {
				*from = i + 1
			}
			return i
		}
	}
	return -1
}
