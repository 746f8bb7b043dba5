package entities

// Nutrient is one of the three tracked macronutrients.
type Nutrient string

const (
	Nitrogen   Nutrient = "N"
	Phosphorus Nutrient = "P"
	Potassium  Nutrient = "K"
)

func (n Nutrient) Name() string {
	switch n {
	case Nitrogen:
		return "nitrogen"
	case Phosphorus:
		return "phosphorus"
	case Potassium:
		return "potassium"
	default:
		return string(n)
	}
}

// NPKStatus holds per-nutrient adequacy; true means sufficient.
type NPKStatus struct {
	N bool `json:"N"`
	P bool `json:"P"`
	K bool `json:"K"`
}

// AllAdequate is the zero-deficiency status.
var AllAdequate = NPKStatus{N: true, P: true, K: true}

func (s NPKStatus) Adequate(n Nutrient) bool {
	switch n {
	case Nitrogen:
		return s.N
	case Phosphorus:
		return s.P
	case Potassium:
		return s.K
	default:
		return true
	}
}

// Deficient lists inadequate nutrients in N, P, K order.
func (s NPKStatus) Deficient() []Nutrient {
	var out []Nutrient
	for _, n := range []Nutrient{Nitrogen, Phosphorus, Potassium} {
		if !s.Adequate(n) {
			out = append(out, n)
		}
	}
	return out
}
