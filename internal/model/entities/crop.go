package entities

import (
	"encoding/json"
	"strings"
)

// CropKind is the closed set of crop variants the irrigation policy distinguishes.
type CropKind int

const (
	KindGeneric CropKind = iota
	KindBanana
	KindCorn
)

// CropType identifies the crop grown in a field. Banana and Corn have a critical
// nutrient; every other crop is Generic and keeps its registry name.
type CropType struct {
	Kind CropKind
	Name string // upper-cased, e.g. "BANANA", "CORN", "SOJA"
}

var (
	Banana = CropType{Kind: KindBanana, Name: "BANANA"}
	Corn   = CropType{Kind: KindCorn, Name: "CORN"}
)

// genericName is how the unnamed generic crop prints.
const genericName = "GENERIC"

// Generic builds a crop type with no critical nutrient. An empty name and
// "GENERIC" both give the zero CropType, so it survives a print/parse round trip.
func Generic(name string) CropType {
	n := strings.ToUpper(strings.TrimSpace(name))
	if n == genericName {
		n = ""
	}
	return CropType{Kind: KindGeneric, Name: n}
}

// ParseCropType maps a registry name onto a CropType. "MILHO" is accepted as corn
// since older crop files were written in Portuguese.
func ParseCropType(name string) CropType {
	n := strings.ToUpper(strings.TrimSpace(name))
	switch n {
	case "BANANA":
		return Banana
	case "CORN", "MILHO":
		return Corn
	default:
		return Generic(n)
	}
}

func (t CropType) String() string {
	if t.Name == "" {
		return genericName
	}
	return t.Name
}

// CriticalNutrient returns the nutrient whose deficiency alone is enough to
// justify irrigation for this crop. ok is false for generic crops.
func (t CropType) CriticalNutrient() (n Nutrient, ok bool) {
	switch t.Kind {
	case KindBanana:
		return Potassium, true
	case KindCorn:
		return Nitrogen, true
	default:
		return "", false
	}
}

func (t CropType) MarshalJSON() ([]byte, error) { return json.Marshal(t.String()) }

func (t *CropType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*t = ParseCropType(s)
	return nil
}

func (t CropType) MarshalYAML() (any, error) { return t.String(), nil }

// UnmarshalYAML accepts the plain scalar form used in crops.yaml.
func (t *CropType) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	*t = ParseCropType(s)
	return nil
}

// NPKRequirement is the target dose per nutrient in g/m².
type NPKRequirement struct {
	Nitrogen   float64 `json:"nitrogen" yaml:"nitrogen"`
	Phosphorus float64 `json:"phosphorus" yaml:"phosphorus"`
	Potassium  float64 `json:"potassium" yaml:"potassium"`
}

// CropProfile is a registered crop. Only Type is read by the irrigation policy,
// the remaining fields are registry data.
type CropProfile struct {
	ID            string         `json:"id" yaml:"id"`
	Name          string         `json:"name" yaml:"name"`
	Type          CropType       `json:"crop_type" yaml:"crop_type"`
	AreaHectares  float64        `json:"area_hectares" yaml:"area_hectares"`
	PlantedOn     string         `json:"planted_on,omitempty" yaml:"planted_on,omitempty"` // YYYY-MM-DD
	NPK           NPKRequirement `json:"npk_requirements" yaml:"npk_requirements"`
	IdealPH       float64        `json:"ideal_ph" yaml:"ideal_ph"`
	IdealHumidity float64        `json:"ideal_humidity" yaml:"ideal_humidity"`
}
