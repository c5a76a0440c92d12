package scripture

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Ref is a stable (surah, ayah_number) coordinate. Refs are how ayahs
// are addressed everywhere outside the store: in theme link input, in
// backup documents, and in diagnostics.
type Ref struct {
	Surah int `json:"surah"`
	Ayah  int `json:"ayah"`
}

// String returns the canonical "surah-ayah" form.
func (r Ref) String() string {
	return fmt.Sprintf("%d-%d", r.Surah, r.Ayah)
}

// refGrammar is the participle grammar for one ayah reference token.
// Examples: "2-155", "2:155", "2-155-157" (range), "2:155-157".
//
//nolint:govet // participle grammar tags are not standard struct tags
type refGrammar struct {
	Surah int  `parser:"@Int"`
	Ayah  int  `parser:"( \"-\" | \":\" ) @Int"`
	End   *int `parser:"( \"-\" @Int )?"`
}

var refLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Punct", Pattern: `[-:]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var refParser = participle.MustBuild[refGrammar](
	participle.Lexer(refLexer),
	participle.Elide("Whitespace"),
)

// ParseRef parses a single ayah reference token. Ranges are not
// expanded; use ParseRefList for list input.
func ParseRef(s string) (Ref, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Ref{}, fmt.Errorf("empty reference")
	}
	parsed, err := refParser.ParseString("", s)
	if err != nil {
		return Ref{}, fmt.Errorf("invalid reference %q: %w", s, err)
	}
	if parsed.End != nil {
		return Ref{}, fmt.Errorf("reference %q is a range", s)
	}
	return Ref{Surah: parsed.Surah, Ayah: parsed.Ayah}, nil
}

// maxRangeSpan bounds how many ayahs one range token may expand to.
// The longest surah has 286 ayahs.
const maxRangeSpan = 286

// ParseRefList parses newline-, comma- or semicolon-separated ayah
// reference tokens ("2-155", "2:155", ranges "2-153-157"). Malformed
// tokens are dropped with a diagnostic rather than failing the list.
// The result is deduplicated, preserving first-seen order.
func ParseRefList(input string) ([]Ref, []string) {
	tokens := strings.FieldsFunc(input, func(c rune) bool {
		return c == ',' || c == ';' || unicode.IsSpace(c)
	})

	var refs []Ref
	var diags []string
	seen := make(map[Ref]bool)
	add := func(r Ref) {
		if !seen[r] {
			seen[r] = true
			refs = append(refs, r)
		}
	}

	for _, tok := range tokens {
		parsed, err := refParser.ParseString("", tok)
		if err != nil {
			diags = append(diags, fmt.Sprintf("invalid reference %q", tok))
			continue
		}
		if parsed.Surah < 1 || parsed.Ayah < 1 {
			diags = append(diags, fmt.Sprintf("invalid reference %q", tok))
			continue
		}
		if parsed.End == nil {
			add(Ref{Surah: parsed.Surah, Ayah: parsed.Ayah})
			continue
		}
		end := *parsed.End
		if end < parsed.Ayah || end-parsed.Ayah > maxRangeSpan {
			diags = append(diags, fmt.Sprintf("invalid range %q", tok))
			continue
		}
		for a := parsed.Ayah; a <= end; a++ {
			add(Ref{Surah: parsed.Surah, Ayah: a})
		}
	}
	return refs, diags
}
