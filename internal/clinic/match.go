package clinic

import "strings"

const minPhoneDigits = 6

// MatchClient resolves free-text identity input against known clients: a
// case- and diacritic-insensitive full name, the phone digits, or the email.
func MatchClient(clients []ClientIdentity, query string) *ClientIdentity {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	folded := Fold(query)
	phone := nationalNumber(query)
	isEmail := strings.Contains(query, "@")

	for i := range clients {
		c := clients[i]
		switch {
		case isEmail:
			if c.Email != "" && strings.EqualFold(strings.TrimSpace(c.Email), query) {
				return &c
			}
		case Fold(c.FullName) == folded:
			return &c
		case len(phone) >= minPhoneDigits && c.Phone != "" && nationalNumber(c.Phone) == phone:
			return &c
		}
	}
	return nil
}
