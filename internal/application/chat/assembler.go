package chat

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/doeshing/sqlchat/internal/ports"
)

// sqlKeywords are re-joined when a model streams them one letter at a time.
var sqlKeywords = []string{"SELECT", "ORDER BY", "FROM", "WHERE", "GROUP BY", "JOIN", "ON", "LIMIT"}

type keywordFix struct {
	re        *regexp.Regexp
	canonical string
}

var (
	keywordFixes = compileKeywordFixes(sqlKeywords)
	multiSpace   = regexp.MustCompile(` {2,}`)
)

func compileKeywordFixes(keywords []string) []keywordFix {
	fixes := make([]keywordFix, 0, len(keywords))
	for _, kw := range keywords {
		words := strings.Fields(kw)
		spelled := make([]string, 0, len(words))
		for _, w := range words {
			letters := strings.Split(w, "")
			spelled = append(spelled, strings.Join(letters, " "))
		}
		pattern := `(?i)\b` + strings.Join(spelled, " +") + `\b`
		fixes = append(fixes, keywordFix{re: regexp.MustCompile(pattern), canonical: kw})
	}
	return fixes
}

// TokenAssembler turns streamed fragments into readable text and pushes the
// full text to the display after every fragment.
type TokenAssembler struct {
	display ports.StreamDisplay
	text    string
	count   int
}

// NewTokenAssembler builds an assembler bound to display. A nil display is allowed.
func NewTokenAssembler(display ports.StreamDisplay) *TokenAssembler {
	return &TokenAssembler{display: display}
}

// Append joins fragment onto the accumulated text and returns the new text.
func (a *TokenAssembler) Append(fragment string) string {
	fragment = strings.Trim(fragment, "\n")
	if fragment != "" {
		a.count++
		a.text = normalize(join(a.text, fragment))
	}
	if a.display != nil {
		a.display.Stream(a.text)
	}
	return a.text
}

// Text returns the accumulated text.
func (a *TokenAssembler) Text() string {
	return a.text
}

// Fragments returns how many non-empty fragments were joined.
func (a *TokenAssembler) Fragments() int {
	return a.count
}

func join(text, fragment string) string {
	switch {
	case text == "":
		return strings.TrimLeft(fragment, " ")
	case startsWithPunctuation(fragment):
		return strings.TrimRight(text, " ") + fragment
	case endsWithLetter(text) && !startsWithSpace(fragment):
		return text + fragment
	default:
		return strings.TrimRight(text, " ") + " " + strings.TrimLeft(fragment, " ")
	}
}

func normalize(text string) string {
	for _, fix := range keywordFixes {
		text = fix.re.ReplaceAllLiteralString(text, fix.canonical)
	}
	return multiSpace.ReplaceAllString(text, " ")
}

func startsWithPunctuation(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return strings.ContainsRune(`.,!?'"`, r)
}

func startsWithSpace(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsSpace(r)
}

func endsWithLetter(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return unicode.IsLetter(r)
}
