package labels

// Canonical period names.
const (
	Spring = "Primavera"
	Summer = "Verano"
	Fall   = "Otoño"
)

// Periods lists the canonical periods in calendar order.
var Periods = []string{Spring, Summer, Fall}

var periodKeys = map[string]string{
	"primavera": Spring,
	"spring":    Spring,
	"verano":    Summer,
	"summer":    Summer,
	"otono":     Fall,
	"autumn":    Fall,
	"fall":      Fall,
}

// CanonicalPeriod folds case, accents and whitespace ("PRIMAVERA ",
// "otono") to the canonical period name. Unknown values come back trimmed
// with an upper-case first letter; blank values come back empty.
func CanonicalPeriod(s string) string {
	if IsBlank(s) {
		return ""
	}
	if p, ok := periodKeys[Key(s)]; ok {
		return p
	}
	return capitalize(collapse(s))
}

// IsPeriod reports whether s folds to one of Periods.
func IsPeriod(s string) bool {
	_, ok := periodKeys[Key(s)]
	return ok
}
