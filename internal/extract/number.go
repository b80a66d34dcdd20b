package extract

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"aigate/domain/dataset"
)

// currency prefixes stripped before parsing, longest first so "Rp." wins over "Rp"
var currencyPrefixes = []string{"idr", "rp.", "rp", "usd", "us$", "eur", "gbp", "$", "€", "£", "¥"}

// ParseNumber reads a number the way models write them in prose: "Rp 1.500.000",
// "$2,300", "(450)", "2,5 jt", "1.2M". unit is empty when no magnitude word was written.
// Trillion-scale words are rejected because the unit enum stops at billion.
func ParseNumber(raw string) (value float64, unit dataset.Unit, ok bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, "", false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = strings.TrimSpace(s[1 : len(s)-1])
		negative = true
	}
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "−") {
		negative = !negative
		s = strings.TrimSpace(strings.TrimLeft(s, "-−"))
	}

	s, rupiah, foreign := stripCurrency(s)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))

	num, word := splitUnitWord(s)
	unit, ok = unitFromWord(word, foreign)
	if !ok {
		return 0, "", false
	}

	num = strings.TrimSpace(num)
	if strings.HasPrefix(num, "-") {
		negative = !negative
		num = num[1:]
	}
	num = strings.TrimPrefix(num, "+")
	num = normalizeSeparators(num, rupiah)
	if num == "" {
		return 0, "", false
	}

	v, err := strconv.ParseFloat(num, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, "", false
	}
	if negative {
		v = -v
	}
	return v, unit, true
}

// stripCurrency removes a leading currency marker. foreign is true for non-rupiah currencies.
func stripCurrency(s string) (rest string, rupiah, foreign bool) {
	lower := strings.ToLower(s)
	for _, prefix := range currencyPrefixes {
		if strings.HasPrefix(lower, prefix) {
			rupiah = prefix == "rp" || prefix == "rp." || prefix == "idr"
			return strings.TrimSpace(s[len(prefix):]), rupiah, !rupiah
		}
	}
	return s, false, false
}

// splitUnitWord separates trailing letters ("jt", "miliar", "M") from the numeric part
func splitUnitWord(s string) (num, word string) {
	runes := []rune(s)
	i := len(runes)
	for i > 0 && unicode.IsLetter(runes[i-1]) {
		i--
	}
	return strings.TrimSpace(string(runes[:i])), string(runes[i:])
}

func unitFromWord(word string, foreign bool) (dataset.Unit, bool) {
	switch word {
	case "":
		return "", true
	case "M":
		// Indonesian reports write miliar as M; "$1.2M" is a million
		if foreign {
			return dataset.UnitMillion, true
		}
		return dataset.UnitBillion, true
	case "m":
		return dataset.UnitMillion, true
	}

	switch strings.ToLower(word) {
	case "rb", "ribu", "k", "thousand", "thousands":
		return dataset.UnitThousand, true
	case "jt", "juta", "mn", "mio", "million", "millions":
		return dataset.UnitMillion, true
	case "miliar", "milyar", "b", "bn", "billion", "billions":
		return dataset.UnitBillion, true
	default:
		return "", false
	}
}

// normalizeSeparators rewrites thousands and decimal separators to Go float syntax.
// The separator appearing last is the decimal one when both are present; a lone separator
// followed by exactly three digits is a thousands separator (a period only in rupiah amounts).
func normalizeSeparators(num string, rupiah bool) string {
	num = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "", "'", "", "_", "").Replace(num)

	commas := strings.Count(num, ",")
	periods := strings.Count(num, ".")

	switch {
	case commas > 0 && periods > 0:
		if strings.LastIndex(num, ",") > strings.LastIndex(num, ".") {
			num = strings.ReplaceAll(num, ".", "")
			return strings.Replace(num, ",", ".", 1)
		}
		return strings.ReplaceAll(num, ",", "")
	case commas > 1:
		return strings.ReplaceAll(num, ",", "")
	case commas == 1:
		if digitsAfter(num, ",") == 3 && !rupiah {
			return strings.ReplaceAll(num, ",", "")
		}
		return strings.Replace(num, ",", ".", 1)
	case periods > 1:
		return strings.ReplaceAll(num, ".", "")
	case periods == 1 && rupiah && digitsAfter(num, ".") == 3:
		return strings.ReplaceAll(num, ".", "")
	default:
		return num
	}
}

func digitsAfter(num, sep string) int {
	return len(num) - strings.LastIndex(num, sep) - 1
}
