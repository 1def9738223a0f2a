package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrUnsupportedLocale is returned by ParseLocale for a language without an
// affirmative token table.
var ErrUnsupportedLocale = errors.New("unsupported locale")

// Locale carries the deployment-specific tokens the coercers depend on.
type Locale struct {
	Tag language.Tag
	// Affirmative lists the lower-case tokens read as true by
	// BooleanFromAffirmative.
	Affirmative []string
	// DecimalComma accepts "72,5" as 72.5 in OptionalNumber.
	DecimalComma bool
}

var (
	PortugueseBR = Locale{
		Tag:          language.BrazilianPortuguese,
		Affirmative:  []string{"sim"},
		DecimalComma: true,
	}
	English = Locale{
		Tag:         language.AmericanEnglish,
		Affirmative: []string{"yes"},
	}
)

// ParseLocale resolves a BCP 47 tag such as "pt-BR" or "en" to a Locale.
func ParseLocale(s string) (Locale, error) {
	tag, err := language.Parse(strings.TrimSpace(s))
	if err != nil {
		return Locale{}, fmt.Errorf("parse locale %q: %w", s, err)
	}
	base, _ := tag.Base()
	switch base.String() {
	case "pt":
		l := PortugueseBR
		l.Tag = tag
		return l, nil
	case "en":
		l := English
		l.Tag = tag
		return l, nil
	}
	return Locale{}, fmt.Errorf("%w: %s", ErrUnsupportedLocale, s)
}

// BooleanFromAffirmative reads a yes/no answer. Booleans pass through, nil
// is unknown, and anything else is true only when its lower-cased string
// form is one of the locale's affirmative tokens.
func (l Locale) BooleanFromAffirmative(v any) *bool {
	switch t := v.(type) {
	case nil:
		return nil
	case bool:
		return &t
	}
	s := cases.Lower(l.Tag).String(TrimmedString(v))
	for _, tok := range l.Affirmative {
		if s == tok {
			return boolPtr(true)
		}
	}
	return boolPtr(false)
}

// TrimmedString returns the string form of v without surrounding
// whitespace, or "" for nil and for values with no scalar string form.
func TrimmedString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(cast.ToString(v))
}

// OptionalString is TrimmedString with the empty string mapped to nil.
func OptionalString(v any) *string {
	s := TrimmedString(v)
	if s == "" {
		return nil
	}
	return &s
}

// OptionalNumber parses v as a number. Empty, unparseable and non-finite
// inputs are nil.
func (l Locale) OptionalNumber(v any) *float64 {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		if l.DecimalComma && strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
			s = strings.Replace(s, ",", ".", 1)
		}
		v = s
	case map[string]any, []any:
		return nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// OptionalInt is OptionalNumber truncated toward zero.
func (l Locale) OptionalInt(v any) *int {
	f := l.OptionalNumber(v)
	if f == nil || *f > math.MaxInt32 || *f < math.MinInt32 {
		return nil
	}
	n := int(*f)
	return &n
}

// Truthy is the boolean cast used for nested input, which is expected to be
// boolean-typed already: false, 0, NaN and "" are false, any other present
// value is true, and nil is unknown.
func Truthy(v any) *bool {
	switch t := v.(type) {
	case nil:
		return nil
	case bool:
		return &t
	case string:
		return boolPtr(t != "")
	case json.Number:
		f, err := t.Float64()
		return boolPtr(err != nil || (f != 0 && !math.IsNaN(f)))
	case map[string]any, []any:
		return boolPtr(true)
	}
	if f, err := cast.ToFloat64E(v); err == nil {
		return boolPtr(f != 0 && !math.IsNaN(f))
	}
	return boolPtr(true)
}

func boolPtr(b bool) *bool { return &b }

// orDefault fills an undetermined boolean leaf of a resolved group.
func orDefault(b *bool, def bool) *bool {
	if b != nil {
		return b
	}
	return boolPtr(def)
}
