package normalize

var (
	alcoholUseKeys = GroupKeys{
		Nested: []string{"alcoholUse", "etilismo"},
		Flat:   []string{"etilismoFrequencia", "etilismoTipo", "etilismoQuantidade"},
	}
	tobaccoUseKeys = GroupKeys{
		Nested: []string{"tobaccoUse", "tabagismo"},
		Flat:   []string{"tabagista", "cigarrosDia", "exTabagistaTempo"},
	}
	bodyCareKeys = GroupKeys{
		Nested: []string{"bodyCare", "cuidadoCorporal"},
		Flat:   []string{"higieneCorporal", "higieneBucal", "usoProtese"},
	}
	sleepComfortKeys = GroupKeys{
		Nested: []string{"sleepComfort", "sonoRepousoConforto"},
		Flat:   []string{"sono"},
	}
	nutritionHydrationKeys = GroupKeys{
		Nested: []string{"nutritionHydration", "nutricaoHidratacao"},
		Flat:   []string{"dietType", "dietComposition", "aguaDia", "sucoDia"},
	}
	physicalActivityKeys = GroupKeys{
		Nested: []string{"physicalActivity", "atividadeFisica"},
		Bare:   true,
	}
	recreationKeys = GroupKeys{
		Nested: []string{"recreation", "recreacao"},
		Flat:   []string{"recreacaoFrequencia", "recreacaoDuracao"},
	}
)

func resolveAlcoholUse(in GroupInput) *AlcoholUse {
	var out AlcoholUse
	switch in.Dialect {
	case DialectNested:
		out.Frequency = lookup(alcoholFrequencyCodes, in.Fields.get("frequency", "frequencia"))
		out.Type = in.Fields.str("type", "tipo")
		out.Amount = in.Fields.str("amount", "quantidade")
	case DialectFlat:
		out.Frequency = lookup(alcoholFrequencyCodes, in.Fields.get("etilismoFrequencia"))
		out.Type = in.Fields.str("etilismoTipo")
		out.Amount = in.Fields.str("etilismoQuantidade")
	default:
		return nil
	}
	if out.Frequency == nil && out.Type == nil && out.Amount == nil {
		return nil
	}
	return &out
}

func resolveTobaccoUse(l Locale, in GroupInput) *TobaccoUse {
	var out TobaccoUse
	switch in.Dialect {
	case DialectNested:
		out.IsSmoker = Truthy(in.Fields.get("isSmoker", "tabagista"))
		out.CigarettesPerDay = l.OptionalInt(in.Fields.get("cigarettesPerDay", "cigarrosPorDia"))
		out.YearsSinceQuitting = in.Fields.str("yearsSinceQuitting", "exTabagistaHaQuantoTempo")
	case DialectFlat:
		out.IsSmoker = l.BooleanFromAffirmative(in.Fields.get("tabagista"))
		out.CigarettesPerDay = l.OptionalInt(in.Fields.get("cigarrosDia"))
		out.YearsSinceQuitting = in.Fields.str("exTabagistaTempo")
	default:
		return nil
	}
	if out.IsSmoker == nil && out.CigarettesPerDay == nil && out.YearsSinceQuitting == nil {
		return nil
	}
	out.IsSmoker = orDefault(out.IsSmoker, false)
	return &out
}

func resolveBodyCare(l Locale, in GroupInput) *BodyCare {
	var out BodyCare
	switch in.Dialect {
	case DialectNested:
		out.BodyHygieneFrequency = in.Fields.str("bodyHygieneFrequency", "higieneCorporalFrequenciaDia")
		out.OralHygieneFrequency = in.Fields.str("oralHygieneFrequency", "higieneBucalFrequenciaDia")
		out.UsesProsthesis = Truthy(in.Fields.get("usesProsthesis", "usoProtese"))
	case DialectFlat:
		out.BodyHygieneFrequency = in.Fields.str("higieneCorporal")
		out.OralHygieneFrequency = in.Fields.str("higieneBucal")
		out.UsesProsthesis = l.BooleanFromAffirmative(in.Fields.get("usoProtese"))
	default:
		return nil
	}
	if out.BodyHygieneFrequency == nil && out.OralHygieneFrequency == nil && out.UsesProsthesis == nil {
		return nil
	}
	out.UsesProsthesis = orDefault(out.UsesProsthesis, false)
	return &out
}

func resolveSleepComfort(in GroupInput) *SleepComfort {
	var out SleepComfort
	switch in.Dialect {
	case DialectNested:
		out.Satisfaction = lookup(sleepSatisfactionCodes, in.Fields.get("satisfaction", "satisfacao"))
	case DialectFlat:
		out.Satisfaction = lookup(sleepSatisfactionCodes, in.Fields.get("sono"))
	default:
		return nil
	}
	if out.Satisfaction == nil {
		return nil
	}
	return &out
}

func resolveNutritionHydration(in GroupInput) *NutritionHydration {
	var out NutritionHydration
	switch in.Dialect {
	case DialectNested:
		out.Diet = nestedDiet(in.Fields.object("diet", "alimentacao"))
		if h := in.Fields.object("hydration", "hidratacao"); h != nil {
			out.Hydration = hydration(h.str("waterAmountPerDay", "aguaQuantidadeDia"), h.str("juiceAmountPerDay", "sucoQuantidadeDia"))
		}
	case DialectFlat:
		out.Diet = flatDiet(TrimmedString(in.Fields.get("dietType")), TrimmedString(in.Fields.get("dietComposition")))
		out.Hydration = hydration(in.Fields.str("aguaDia"), in.Fields.str("sucoDia"))
	default:
		return nil
	}
	if out.Diet == nil && out.Hydration == nil {
		return nil
	}
	return &out
}

func nestedDiet(f fields) *Diet {
	if f == nil {
		return nil
	}
	d := Diet{
		RichInFruit:      Truthy(f.get("richInFruit", "ricaEmFrutas")),
		RichInFat:        Truthy(f.get("richInFat", "ricaEmGordura")),
		RichInCarbs:      Truthy(f.get("richInCarbs", "ricaEmCarboidratos")),
		RichInFiber:      Truthy(f.get("richInFiber", "ricaEmFibras")),
		RichInProtein:    Truthy(f.get("richInProtein", "ricaEmProteina")),
		RichInVegetables: Truthy(f.get("richInVegetables", "ricaEmLegumesEVerduras")),
	}
	if allNil(d.RichInFruit, d.RichInFat, d.RichInCarbs, d.RichInFiber, d.RichInProtein, d.RichInVegetables) {
		return nil
	}
	d.RichInFruit = orDefault(d.RichInFruit, false)
	d.RichInFat = orDefault(d.RichInFat, false)
	d.RichInCarbs = orDefault(d.RichInCarbs, false)
	d.RichInFiber = orDefault(d.RichInFiber, false)
	d.RichInProtein = orDefault(d.RichInProtein, false)
	d.RichInVegetables = orDefault(d.RichInVegetables, false)
	return &d
}

// flatDiet fans the two single-choice legacy codes out into the six flags.
// Fruit answers only dietType; fiber answers only dietComposition.
func flatDiet(dietType, composition string) *Diet {
	if dietType == "" && composition == "" {
		return nil
	}
	return &Diet{
		RichInFruit:      boolPtr(dietType == dietFruit),
		RichInFat:        boolPtr(dietType == dietFat),
		RichInCarbs:      boolPtr(dietType == dietCarbs),
		RichInFiber:      boolPtr(composition == dietFiber),
		RichInProtein:    boolPtr(composition == dietProtein),
		RichInVegetables: boolPtr(composition == dietVegetables),
	}
}

func hydration(water, juice *string) *Hydration {
	if water == nil && juice == nil {
		return nil
	}
	return &Hydration{WaterAmountPerDay: water, JuiceAmountPerDay: juice}
}

func resolvePhysicalActivity(l Locale, in GroupInput) *PhysicalActivity {
	var practices *bool
	switch in.Dialect {
	case DialectNested:
		practices = Truthy(in.Fields.get("practices", "pratica"))
	case DialectBare:
		practices = l.BooleanFromAffirmative(in.Bare)
	}
	if practices == nil {
		return nil
	}
	return &PhysicalActivity{Practices: practices}
}

func resolveRecreation(in GroupInput) *Recreation {
	var out Recreation
	switch in.Dialect {
	case DialectNested:
		out.Frequency = lookup(recreationFrequencyCodes, in.Fields.get("frequency", "frequencia"))
		out.Duration = in.Fields.str("duration", "duracao")
	case DialectFlat:
		out.Frequency = lookup(recreationFrequencyCodes, in.Fields.get("recreacaoFrequencia"))
		out.Duration = in.Fields.str("recreacaoDuracao")
	default:
		return nil
	}
	if out.Frequency == nil && out.Duration == nil {
		return nil
	}
	return &out
}
