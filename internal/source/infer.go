package source

import "time"

// valueKind is the per-cell classification used by InferType.
type valueKind int

const (
	kindInt valueKind = iota
	kindFloat
	kindDate
	kindBool
	kindText
)

// isIntString quickly checks if a string is an integer without allocating.
func isIntString(str string) bool {
	if len(str) == 0 || len(str) >= 20 {
		return false
	}

	i := 0
	if str[0] == '-' || str[0] == '+' {
		if len(str) == 1 {
			return false
		}
		i = 1
	}

	for ; i < len(str); i++ {
		c := str[i]
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// isFloatString quickly checks if a string is a decimal or exponent float.
func isFloatString(str string) bool {
	if len(str) == 0 || len(str) >= 25 {
		return false
	}

	hasDot := false
	hasExp := false
	i := 0

	if str[0] == '-' || str[0] == '+' {
		if len(str) == 1 {
			return false
		}
		i = 1
	}

	for ; i < len(str); i++ {
		c := str[i]
		switch {
		case c >= '0' && c <= '9':
			// Continue
		case c == '.':
			if hasDot || hasExp {
				return false
			}
			hasDot = true
		case c == 'e' || c == 'E':
			if hasExp || i == len(str)-1 {
				return false
			}
			hasExp = true
		default:
			return false
		}
	}
	return hasDot || hasExp
}

func isDateString(value string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	return false
}

func isBoolString(value string) bool {
	switch value {
	case "true", "True", "TRUE", "false", "False", "FALSE",
		"yes", "Yes", "YES", "no", "No", "NO", "y", "n", "t", "f":
		return true
	}
	return false
}

func classifyValue(v any) valueKind {
	switch v := v.(type) {
	case string:
		if isIntString(v) {
			return kindInt
		}
		if isFloatString(v) {
			return kindFloat
		}
		if isBoolString(v) {
			return kindBool
		}
		if isDateString(v) {
			return kindDate
		}
		return kindText
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return kindInt
	case float32, float64:
		return kindFloat
	case bool:
		return kindBool
	case time.Time:
		return kindDate
	default:
		return kindText
	}
}

// categoricalMaxDistinct bounds how many distinct values a categorical
// column may have; above it a text column stays text.
const categoricalMaxDistinct = 50

// InferType scans a column's cells and classifies the column. Int and float
// cells merge into numeric; any other mixture of kinds is mixed. Text
// columns with few distinct values relative to their size are categorical.
func InferType(cells []Cell) TypeCategory {
	var counts [kindText + 1]int
	nonMissing := 0
	distinct := make(map[string]struct{}, categoricalMaxDistinct+1)

	for _, c := range cells {
		if c.Missing {
			continue
		}
		nonMissing++
		kind := classifyValue(c.Value)
		counts[kind]++
		if kind == kindText && len(distinct) <= categoricalMaxDistinct {
			distinct[c.String()] = struct{}{}
		}
	}

	if nonMissing == 0 {
		return TypeText
	}

	numeric := counts[kindInt] + counts[kindFloat]
	switch {
	case numeric == nonMissing:
		return TypeNumeric
	case counts[kindDate] == nonMissing:
		return TypeDatetime
	case counts[kindBool] == nonMissing:
		return TypeBoolean
	case counts[kindText] == nonMissing:
		if len(distinct) <= categoricalMaxDistinct &&
			float64(len(distinct)) <= 0.1*float64(nonMissing) {
			return TypeCategorical
		}
		return TypeText
	default:
		return TypeMixed
	}
}
