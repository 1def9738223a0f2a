package normalize

import (
	"encoding/json"
	"sort"
)

// Sex is the canonical sex code.
type Sex string

const (
	SexFemale Sex = "F"
	SexMale   Sex = "M"
)

// InformantType identifies who provided the intake information.
type InformantType string

const (
	InformantPatient      InformantType = "Patient"
	InformantFamilyMember InformantType = "FamilyMember"
	InformantFriend       InformantType = "Friend"
	InformantOther        InformantType = "Other"
)

type AlcoholFrequency string

const (
	AlcoholSocial                   AlcoholFrequency = "Social"
	AlcoholDaily                    AlcoholFrequency = "Daily"
	AlcoholThreeTimesWeekly         AlcoholFrequency = "ThreeTimesWeekly"
	AlcoholMoreThanThreeTimesWeekly AlcoholFrequency = "MoreThanThreeTimesWeekly"
)

type SleepSatisfaction string

const (
	SleepSatisfied   SleepSatisfaction = "Satisfied"
	SleepUnsatisfied SleepSatisfaction = "Unsatisfied"
)

type RecreationFrequency string

const (
	RecreationThreeTimesWeekly         RecreationFrequency = "ThreeTimesWeekly"
	RecreationMoreThanThreeTimesWeekly RecreationFrequency = "MoreThanThreeTimesWeekly"
)

type HousingType string

const (
	HousingOwned  HousingType = "Owned"
	HousingLent   HousingType = "Lent"
	HousingRented HousingType = "Rented"
)

// Record is the canonical intake document. Every field is optional: a nil
// field was not determined from the input and is omitted when encoded, so
// the same value serves as a full document on insert and as a merge patch
// on update.
type Record struct {
	// Identity
	Name             *string `json:"name,omitempty"`
	VisitDate        *string `json:"visitDate,omitempty"`
	Birthplace       *string `json:"birthplace,omitempty"`
	Age              *int    `json:"age,omitempty"`
	Sex              *Sex    `json:"sex,omitempty"`
	ChildCount       *int    `json:"childCount,omitempty"`
	Race             *string `json:"race,omitempty"`
	MaritalStatus    *string `json:"maritalStatus,omitempty"`
	Education        *string `json:"education,omitempty"`
	Profession       *string `json:"profession,omitempty"`
	Occupation       *string `json:"occupation,omitempty"`
	CurrentDiagnosis *string `json:"currentDiagnosis,omitempty"`

	Religion  *Religion  `json:"religion,omitempty"`
	Informant *Informant `json:"informant,omitempty"`

	// Narrative history
	CurrentIllnessHistory *string `json:"currentIllnessHistory,omitempty"`
	ProgressHistory       *string `json:"progressHistory,omitempty"`
	UsualMedications      *string `json:"usualMedications,omitempty"`

	PriorHospitalization *PriorHospitalization `json:"priorHospitalization,omitempty"`
	FamilyHistory        *FamilyHistory        `json:"familyHistory,omitempty"`
	AlcoholUse           *AlcoholUse           `json:"alcoholUse,omitempty"`
	TobaccoUse           *TobaccoUse           `json:"tobaccoUse,omitempty"`
	BodyCare             *BodyCare             `json:"bodyCare,omitempty"`
	SleepComfort         *SleepComfort         `json:"sleepComfort,omitempty"`
	NutritionHydration   *NutritionHydration   `json:"nutritionHydration,omitempty"`
	PhysicalActivity     *PhysicalActivity     `json:"physicalActivity,omitempty"`
	Recreation           *Recreation           `json:"recreation,omitempty"`
	Housing              *Housing              `json:"housing,omitempty"`
	Vitals               *Vitals               `json:"vitals,omitempty"`
}

type Religion struct {
	Name         *string `json:"name,omitempty"`
	IsPracticing *bool   `json:"isPracticing,omitempty"`
}

type Informant struct {
	Type *InformantType `json:"type,omitempty"`
	Note *string        `json:"note,omitempty"`
}

type PriorHospitalization struct {
	Happened  *bool   `json:"happened,omitempty"`
	WhereWhen *string `json:"whereWhen,omitempty"`
	Reasons   *string `json:"reasons,omitempty"`
}

type FamilyHistory struct {
	Diabetes     *bool `json:"diabetes,omitempty"`
	Hypertension *bool `json:"hypertension,omitempty"`
	HeartDisease *bool `json:"heartDisease,omitempty"`
	Migraine     *bool `json:"migraine,omitempty"`
	Tuberculosis *bool `json:"tuberculosis,omitempty"`
	Cancer       *bool `json:"cancer,omitempty"`
}

type AlcoholUse struct {
	Frequency *AlcoholFrequency `json:"frequency,omitempty"`
	Type      *string           `json:"type,omitempty"`
	Amount    *string           `json:"amount,omitempty"`
}

type TobaccoUse struct {
	IsSmoker           *bool   `json:"isSmoker,omitempty"`
	CigarettesPerDay   *int    `json:"cigarettesPerDay,omitempty"`
	YearsSinceQuitting *string `json:"yearsSinceQuitting,omitempty"`
}

type BodyCare struct {
	BodyHygieneFrequency *string `json:"bodyHygieneFrequency,omitempty"`
	OralHygieneFrequency *string `json:"oralHygieneFrequency,omitempty"`
	UsesProsthesis       *bool   `json:"usesProsthesis,omitempty"`
}

type SleepComfort struct {
	Satisfaction *SleepSatisfaction `json:"satisfaction,omitempty"`
}

type NutritionHydration struct {
	Diet      *Diet      `json:"diet,omitempty"`
	Hydration *Hydration `json:"hydration,omitempty"`
}

// Diet holds the diet checkboxes of the paper form. The flags are not
// mutually exclusive.
type Diet struct {
	RichInFruit      *bool `json:"richInFruit,omitempty"`
	RichInFat        *bool `json:"richInFat,omitempty"`
	RichInCarbs      *bool `json:"richInCarbs,omitempty"`
	RichInFiber      *bool `json:"richInFiber,omitempty"`
	RichInProtein    *bool `json:"richInProtein,omitempty"`
	RichInVegetables *bool `json:"richInVegetables,omitempty"`
}

type Hydration struct {
	WaterAmountPerDay *string `json:"waterAmountPerDay,omitempty"`
	JuiceAmountPerDay *string `json:"juiceAmountPerDay,omitempty"`
}

type PhysicalActivity struct {
	Practices *bool `json:"practices,omitempty"`
}

type Recreation struct {
	Frequency *RecreationFrequency `json:"frequency,omitempty"`
	Duration  *string              `json:"duration,omitempty"`
}

type Housing struct {
	Type               *HousingType `json:"type,omitempty"`
	HasElectricity     *bool        `json:"hasElectricity,omitempty"`
	HasTreatedWater    *bool        `json:"hasTreatedWater,omitempty"`
	HasTrashCollection *bool        `json:"hasTrashCollection,omitempty"`
	ResidentsCount     *int         `json:"residentsCount,omitempty"`
	WorkersCount       *int         `json:"workersCount,omitempty"`
}

type Vitals struct {
	WeightKg         *float64 `json:"weightKg,omitempty"`
	HeightCm         *float64 `json:"heightCm,omitempty"`
	CapillaryGlucose *string  `json:"capillaryGlucose,omitempty"`
	SystolicBP       *int     `json:"systolicBP,omitempty"`
	DiastolicBP      *int     `json:"diastolicBP,omitempty"`
}

// Keys returns the sorted top-level keys present in the encoded record.
func (r *Record) Keys() []string {
	if r == nil {
		return nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsEmpty reports whether no top-level field was resolved.
func (r *Record) IsEmpty() bool {
	return len(r.Keys()) == 0
}
