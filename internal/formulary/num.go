package formulary

import (
	"strconv"
	"strings"
)

// ToNum reads the leading numeric token of a cell value. Unit suffixes such as
// "kcal/mL" and thousands-separator commas are tolerated; anything unparseable
// yields 0.0. It never fails.
func ToNum(value string) float64 {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return 0.0
	}
	token := strings.ReplaceAll(fields[0], ",", "")
	parsed, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0.0
	}
	return parsed
}
