package readings

type TempStatus string

const (
	TempCold     TempStatus = "COLD"
	TempIdeal    TempStatus = "IDEAL"
	TempHigh     TempStatus = "HIGH"
	TempCritical TempStatus = "CRITICAL"
)

func ClassifyTemperature(c float64) TempStatus {
	switch {
	case c < 15:
		return TempCold
	case c <= 25:
		return TempIdeal
	case c <= 35:
		return TempHigh
	default:
		return TempCritical
	}
}

type PHStatus string

const (
	PHAcidic   PHStatus = "ACIDIC"
	PHNeutral  PHStatus = "NEUTRAL"
	PHAlkaline PHStatus = "ALKALINE"
)

func ClassifyPH(ph float64) PHStatus {
	switch {
	case ph < 5.5:
		return PHAcidic
	case ph <= 7.5:
		return PHNeutral
	default:
		return PHAlkaline
	}
}
