// Package normalize turns client-submitted intake payloads into the
// canonical, sparse Record.
//
// A payload may be a nested document in the canonical shape, the nested
// Portuguese shape produced by the image extraction step, the flat legacy
// form with prefixed keys, or any mix of them: every field group is
// classified and resolved on its own. Fields that cannot be determined are
// left nil, so the result can be stored as a new document or applied as a
// merge patch without clobbering stored values.
//
// Normalization never fails. Unexpected shapes resolve to nothing.
package normalize

// Normalizer is immutable and safe for concurrent use.
type Normalizer struct {
	locale Locale
}

type Option func(*Normalizer)

// WithLocale sets the locale used for yes/no tokens and decimal parsing.
func WithLocale(l Locale) Option {
	return func(n *Normalizer) {
		n.locale = l
	}
}

// New returns a Normalizer for Brazilian Portuguese unless configured
// otherwise.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{locale: PortugueseBR}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

var defaultNormalizer = New()

// Normalize runs the default Brazilian Portuguese Normalizer.
func Normalize(raw map[string]any) *Record {
	return defaultNormalizer.Normalize(raw)
}

func (n *Normalizer) Locale() Locale { return n.locale }

// Normalize resolves every field group of raw and returns a freshly
// allocated Record holding only the fields that were determined.
func (n *Normalizer) Normalize(raw map[string]any) *Record {
	r := &Record{}
	if raw == nil {
		return r
	}
	l := n.locale

	resolveIdentity(l, raw, r)
	resolveNarrative(raw, r)

	r.Religion = resolveReligion(l, Classify(raw, religionKeys))
	r.Informant = resolveInformant(Classify(raw, informantKeys))
	r.PriorHospitalization = resolvePriorHospitalization(l, Classify(raw, priorHospitalizationKeys))
	r.FamilyHistory = resolveFamilyHistory(l, Classify(raw, familyHistoryKeys))
	r.AlcoholUse = resolveAlcoholUse(Classify(raw, alcoholUseKeys))
	r.TobaccoUse = resolveTobaccoUse(l, Classify(raw, tobaccoUseKeys))
	r.BodyCare = resolveBodyCare(l, Classify(raw, bodyCareKeys))
	r.SleepComfort = resolveSleepComfort(Classify(raw, sleepComfortKeys))
	r.NutritionHydration = resolveNutritionHydration(Classify(raw, nutritionHydrationKeys))
	r.PhysicalActivity = resolvePhysicalActivity(l, Classify(raw, physicalActivityKeys))
	r.Recreation = resolveRecreation(Classify(raw, recreationKeys))
	r.Housing = resolveHousing(l, Classify(raw, housingKeys))
	r.Vitals = resolveVitals(l, Classify(raw, vitalsKeys))

	return r
}

// groups lists the classified field groups by output key.
var groups = []struct {
	name string
	keys GroupKeys
}{
	{"religion", religionKeys},
	{"informant", informantKeys},
	{"priorHospitalization", priorHospitalizationKeys},
	{"familyHistory", familyHistoryKeys},
	{"alcoholUse", alcoholUseKeys},
	{"tobaccoUse", tobaccoUseKeys},
	{"bodyCare", bodyCareKeys},
	{"sleepComfort", sleepComfortKeys},
	{"nutritionHydration", nutritionHydrationKeys},
	{"physicalActivity", physicalActivityKeys},
	{"recreation", recreationKeys},
	{"housing", housingKeys},
	{"vitals", vitalsKeys},
}

// Dialects reports the dialect each field group of raw arrived in, keyed by
// the group's output key. Absent groups are omitted.
func Dialects(raw map[string]any) map[string]Dialect {
	out := make(map[string]Dialect)
	for _, g := range groups {
		if d := Classify(raw, g.keys).Dialect; d != DialectAbsent {
			out[g.name] = d
		}
	}
	return out
}
