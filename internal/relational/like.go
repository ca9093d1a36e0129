package relational

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/twinq/internal/criteria"
)

// LikeEscape is the escape character declared in every like expression.
const LikeEscape = "~"

var likeEscaper = strings.NewReplacer(
	LikeEscape, LikeEscape+LikeEscape,
	"%", LikeEscape+"%",
	"_", LikeEscape+"_",
)

// LikePattern escapes the like wildcards in value, applies the match mode and
// lower-cases the result. The rendered expression lower-cases the column, so
// the comparison is case-insensitive.
func LikePattern(value string, mode criteria.MatchMode) string {
	escaped := likeEscaper.Replace(norm.NFC.String(value))
	// A Caser is stateful and must not be shared between goroutines.
	return cases.Lower(language.Und).String(mode.Wrap(escaped, "%"))
}
