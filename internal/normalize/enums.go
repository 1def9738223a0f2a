package normalize

// Code tables for the enumerated fields. Keys are the short codes of the
// legacy form, the labels printed on the paper form (which is what the
// extraction step reads back) and the canonical values themselves, so a
// canonical document normalizes to itself. Lookups are exact after
// trimming.

var sexCodes = map[string]Sex{
	"F":         SexFemale,
	"M":         SexMale,
	"feminino":  SexFemale,
	"masculino": SexMale,
}

var informantCodes = map[string]InformantType{
	"paciente":       InformantPatient,
	"membro_familia": InformantFamilyMember,
	"amigo":          InformantFriend,
	"outros":         InformantOther,

	"Paciente":          InformantPatient,
	"Membro da Família": InformantFamilyMember,
	"Amigo":             InformantFriend,
	"Outros":            InformantOther,

	string(InformantPatient):      InformantPatient,
	string(InformantFamilyMember): InformantFamilyMember,
	string(InformantFriend):       InformantFriend,
	string(InformantOther):        InformantOther,
}

var alcoholFrequencyCodes = map[string]AlcoholFrequency{
	"social":                 AlcoholSocial,
	"todos_os_dias":          AlcoholDaily,
	"tres_vezes_semana":      AlcoholThreeTimesWeekly,
	"mais_tres_vezes_semana": AlcoholMoreThanThreeTimesWeekly,

	"Social":                         AlcoholSocial,
	"Todos os dias":                  AlcoholDaily,
	"Três vezes por semana":          AlcoholThreeTimesWeekly,
	"Mais que três vezes por semana": AlcoholMoreThanThreeTimesWeekly,

	string(AlcoholDaily):                    AlcoholDaily,
	string(AlcoholThreeTimesWeekly):         AlcoholThreeTimesWeekly,
	string(AlcoholMoreThanThreeTimesWeekly): AlcoholMoreThanThreeTimesWeekly,
}

var sleepSatisfactionCodes = map[string]SleepSatisfaction{
	"satisfeito":   SleepSatisfied,
	"insatisfeito": SleepUnsatisfied,

	"Satisfeito":   SleepSatisfied,
	"Insatisfeito": SleepUnsatisfied,

	string(SleepSatisfied):   SleepSatisfied,
	string(SleepUnsatisfied): SleepUnsatisfied,
}

var recreationFrequencyCodes = map[string]RecreationFrequency{
	"tres_vezes_semana":      RecreationThreeTimesWeekly,
	"mais_tres_vezes_semana": RecreationMoreThanThreeTimesWeekly,

	"Três vezes/semana":         RecreationThreeTimesWeekly,
	"Mais de três vezes/semana": RecreationMoreThanThreeTimesWeekly,

	string(RecreationThreeTimesWeekly):         RecreationThreeTimesWeekly,
	string(RecreationMoreThanThreeTimesWeekly): RecreationMoreThanThreeTimesWeekly,
}

var housingTypeCodes = map[string]HousingType{
	"propria": HousingOwned,
	"cedida":  HousingLent,
	"alugada": HousingRented,

	"Própria": HousingOwned,
	"Cedida":  HousingLent,
	"Alugada": HousingRented,

	string(HousingOwned):  HousingOwned,
	string(HousingLent):   HousingLent,
	string(HousingRented): HousingRented,
}

// Flat-form diet codes. dietType and dietComposition are independent
// single-choice questions; each flag tests one of them.
const (
	dietFruit      = "frutas"
	dietFat        = "gordura"
	dietCarbs      = "carboidratos"
	dietFiber      = "fibras"
	dietProtein    = "proteina"
	dietVegetables = "legumes"
)

// lookup maps a raw value through table; unmapped or empty values are nil.
func lookup[T ~string](table map[string]T, v any) *T {
	s := TrimmedString(v)
	if s == "" {
		return nil
	}
	out, ok := table[s]
	if !ok {
		return nil
	}
	return &out
}
