package separator

import "stem-separator/src/lib/cerr"

type SplitType string

const (
	InvalidSplitType   SplitType = ""
	SplitTwoStemsType  SplitType = "2stems"
	SplitFourStemsType SplitType = "4stems"
	SplitFiveStemsType SplitType = "5stems"
)

var stemNames = map[SplitType][]string{
	SplitTwoStemsType:  {"vocals", "accompaniment"},
	SplitFourStemsType: {"vocals", "drums", "bass", "other"},
	SplitFiveStemsType: {"vocals", "drums", "bass", "piano", "other"},
}

func ConvertToSplitType(val string) (SplitType, error) {
	switch val {
	case string(SplitTwoStemsType):
		return SplitTwoStemsType, nil
	case string(SplitFourStemsType):
		return SplitFourStemsType, nil
	case string(SplitFiveStemsType):
		return SplitFiveStemsType, nil
	default:
		return InvalidSplitType, cerr.Field("split_type", val).Error("Value does not match any split type")
	}
}

// Stems lists the files the separator writes for this split type, in a fixed order.
func (s SplitType) Stems() []string {
	return append([]string{}, stemNames[s]...)
}
