package normalize

var (
	religionKeys = GroupKeys{
		Nested: []string{"religion", "religiao"},
		Flat:   []string{"religiaoPraticante"},
		Bare:   true,
	}
	informantKeys = GroupKeys{
		Nested: []string{"informant", "informante"},
		Flat:   []string{"informanteObservacao"},
		Bare:   true,
	}
	priorHospitalizationKeys = GroupKeys{
		Nested: []string{"priorHospitalization", "internacaoAnterior"},
		Flat:   []string{"internacao", "internacaoOndeQuando", "internacaoMotivos"},
	}
	familyHistoryKeys = GroupKeys{
		Nested: []string{"familyHistory", "historiaFamiliar"},
		Flat:   []string{"hf_DM", "hf_HAS", "hf_cardiopatias", "hf_enxaqueca", "hf_TBC", "hf_CA"},
	}
)

// resolveIdentity reads the top-level identity scalars. Both dialects use
// the same keys, so there is no nested object to look for.
func resolveIdentity(l Locale, raw fields, r *Record) {
	r.Name = raw.str("name", "nome")
	r.VisitDate = raw.str("visitDate", "dataAtendimento")
	r.Birthplace = raw.str("birthplace", "naturalidade")
	r.Age = l.OptionalInt(raw.get("age", "idade"))
	r.Sex = lookup(sexCodes, raw.get("sex", "sexo"))
	r.ChildCount = l.OptionalInt(raw.get("childCount", "filhosQuantos"))
	r.Race = raw.str("race", "raca")
	r.MaritalStatus = raw.str("maritalStatus", "estadoCivil")
	r.Education = raw.str("education", "escolaridade")
	r.Profession = raw.str("profession", "profissao")
	r.Occupation = raw.str("occupation", "ocupacao")
	r.CurrentDiagnosis = raw.str("currentDiagnosis", "diagnosticoMedicoAtual")
}

func resolveNarrative(raw fields, r *Record) {
	r.CurrentIllnessHistory = raw.str("currentIllnessHistory", "hda")
	r.ProgressHistory = raw.str("progressHistory", "hp")
	r.UsualMedications = raw.str("usualMedications", "medicamentosUsuais")
}

func resolveReligion(l Locale, in GroupInput) *Religion {
	var out Religion
	switch in.Dialect {
	case DialectNested:
		out.Name = in.Fields.str("name", "nome")
		out.IsPracticing = Truthy(in.Fields.get("isPracticing", "praticante"))
	case DialectBare:
		out.Name = OptionalString(in.Bare)
		out.IsPracticing = l.BooleanFromAffirmative(in.Fields.get("religiaoPraticante"))
	case DialectFlat:
		out.IsPracticing = l.BooleanFromAffirmative(in.Fields.get("religiaoPraticante"))
	default:
		return nil
	}
	if out.Name == nil && out.IsPracticing == nil {
		return nil
	}
	out.IsPracticing = orDefault(out.IsPracticing, false)
	return &out
}

// resolveInformant keeps an unknown nested type verbatim: the free-text
// answer is clinically meaningful. A bare legacy code that is not in the
// table is kept as the note instead.
func resolveInformant(in GroupInput) *Informant {
	var out Informant
	switch in.Dialect {
	case DialectNested:
		raw := in.Fields.get("type", "tipo")
		out.Type = lookup(informantCodes, raw)
		if out.Type == nil {
			if s := OptionalString(raw); s != nil {
				t := InformantType(*s)
				out.Type = &t
			}
		}
		out.Note = in.Fields.str("note", "observacao")
	case DialectBare:
		out.Type = lookup(informantCodes, in.Bare)
		out.Note = in.Fields.str("informanteObservacao")
		if out.Type == nil && out.Note == nil {
			out.Note = OptionalString(in.Bare)
		}
	case DialectFlat:
		out.Note = in.Fields.str("informanteObservacao")
	default:
		return nil
	}
	if out.Type == nil && out.Note == nil {
		return nil
	}
	return &out
}

func resolvePriorHospitalization(l Locale, in GroupInput) *PriorHospitalization {
	var out PriorHospitalization
	switch in.Dialect {
	case DialectNested:
		out.Happened = Truthy(in.Fields.get("happened", "teve"))
		out.WhereWhen = in.Fields.str("whereWhen", "ondeQuando")
		out.Reasons = in.Fields.str("reasons", "motivos")
	case DialectFlat:
		out.Happened = l.BooleanFromAffirmative(in.Fields.get("internacao"))
		out.WhereWhen = in.Fields.str("internacaoOndeQuando")
		out.Reasons = in.Fields.str("internacaoMotivos")
	default:
		return nil
	}
	if out.Happened == nil && out.WhereWhen == nil && out.Reasons == nil {
		return nil
	}
	out.Happened = orDefault(out.Happened, false)
	return &out
}

func resolveFamilyHistory(l Locale, in GroupInput) *FamilyHistory {
	var out FamilyHistory
	switch in.Dialect {
	case DialectNested:
		f := in.Fields
		out = FamilyHistory{
			Diabetes:     Truthy(f.get("diabetes", "dm")),
			Hypertension: Truthy(f.get("hypertension", "has")),
			HeartDisease: Truthy(f.get("heartDisease", "cardiopatias")),
			Migraine:     Truthy(f.get("migraine", "enxaqueca")),
			Tuberculosis: Truthy(f.get("tuberculosis", "tbc")),
			Cancer:       Truthy(f.get("cancer", "ca")),
		}
	case DialectFlat:
		f := in.Fields
		out = FamilyHistory{
			Diabetes:     l.BooleanFromAffirmative(f.get("hf_DM")),
			Hypertension: l.BooleanFromAffirmative(f.get("hf_HAS")),
			HeartDisease: l.BooleanFromAffirmative(f.get("hf_cardiopatias")),
			Migraine:     l.BooleanFromAffirmative(f.get("hf_enxaqueca")),
			Tuberculosis: l.BooleanFromAffirmative(f.get("hf_TBC")),
			Cancer:       l.BooleanFromAffirmative(f.get("hf_CA")),
		}
	default:
		return nil
	}
	if allNil(out.Diabetes, out.Hypertension, out.HeartDisease, out.Migraine, out.Tuberculosis, out.Cancer) {
		return nil
	}
	out.Diabetes = orDefault(out.Diabetes, false)
	out.Hypertension = orDefault(out.Hypertension, false)
	out.HeartDisease = orDefault(out.HeartDisease, false)
	out.Migraine = orDefault(out.Migraine, false)
	out.Tuberculosis = orDefault(out.Tuberculosis, false)
	out.Cancer = orDefault(out.Cancer, false)
	return &out
}

func allNil(flags ...*bool) bool {
	for _, f := range flags {
		if f != nil {
			return false
		}
	}
	return true
}
