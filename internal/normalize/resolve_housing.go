package normalize

var (
	housingKeys = GroupKeys{
		Nested: []string{"housing", "moradia"},
		Flat:   []string{"moradiaTipo", "energiaEletrica", "aguaTratada", "coletaLixo", "quantosResidem", "quantosTrabalham"},
	}
	vitalsKeys = GroupKeys{
		Nested: []string{"vitals", "sinaisVitais"},
		Flat:   []string{"pesoKg", "alturaCm", "glicemiaCapilar", "paSistolica", "paDiastolica"},
	}
)

// resolveHousing defaults the utility flags to true, matching the paper
// form where they are pre-checked.
func resolveHousing(l Locale, in GroupInput) *Housing {
	var out Housing
	switch in.Dialect {
	case DialectNested:
		f := in.Fields
		out = Housing{
			Type:               lookup(housingTypeCodes, f.get("type", "tipo")),
			HasElectricity:     Truthy(f.get("hasElectricity", "energiaEletrica")),
			HasTreatedWater:    Truthy(f.get("hasTreatedWater", "aguaTratada")),
			HasTrashCollection: Truthy(f.get("hasTrashCollection", "coletaDeLixo")),
			ResidentsCount:     l.OptionalInt(f.get("residentsCount", "quantosResidem")),
			WorkersCount:       l.OptionalInt(f.get("workersCount", "quantosTrabalham")),
		}
	case DialectFlat:
		f := in.Fields
		out = Housing{
			Type:               lookup(housingTypeCodes, f.get("moradiaTipo")),
			HasElectricity:     l.BooleanFromAffirmative(f.get("energiaEletrica")),
			HasTreatedWater:    l.BooleanFromAffirmative(f.get("aguaTratada")),
			HasTrashCollection: l.BooleanFromAffirmative(f.get("coletaLixo")),
			ResidentsCount:     l.OptionalInt(f.get("quantosResidem")),
			WorkersCount:       l.OptionalInt(f.get("quantosTrabalham")),
		}
	default:
		return nil
	}
	if out.Type == nil && out.ResidentsCount == nil && out.WorkersCount == nil &&
		allNil(out.HasElectricity, out.HasTreatedWater, out.HasTrashCollection) {
		return nil
	}
	out.HasElectricity = orDefault(out.HasElectricity, true)
	out.HasTreatedWater = orDefault(out.HasTreatedWater, true)
	out.HasTrashCollection = orDefault(out.HasTrashCollection, true)
	return &out
}

func resolveVitals(l Locale, in GroupInput) *Vitals {
	var out Vitals
	switch in.Dialect {
	case DialectNested:
		f := in.Fields
		out = Vitals{
			WeightKg:         l.OptionalNumber(f.get("weightKg", "pesoKg")),
			HeightCm:         l.OptionalNumber(f.get("heightCm", "alturaCm")),
			CapillaryGlucose: f.str("capillaryGlucose", "glicemiaCapilar"),
			SystolicBP:       l.OptionalInt(f.get("systolicBP", "paSistolica")),
			DiastolicBP:      l.OptionalInt(f.get("diastolicBP", "paDiastolica")),
		}
	case DialectFlat:
		f := in.Fields
		out = Vitals{
			WeightKg:         l.OptionalNumber(f.get("pesoKg")),
			HeightCm:         l.OptionalNumber(f.get("alturaCm")),
			CapillaryGlucose: f.str("glicemiaCapilar"),
			SystolicBP:       l.OptionalInt(f.get("paSistolica")),
			DiastolicBP:      l.OptionalInt(f.get("paDiastolica")),
		}
	default:
		return nil
	}
	if out.WeightKg == nil && out.HeightCm == nil && out.CapillaryGlucose == nil &&
		out.SystolicBP == nil && out.DiastolicBP == nil {
		return nil
	}
	return &out
}
