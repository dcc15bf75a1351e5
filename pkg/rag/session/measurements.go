package session

import (
	"regexp"
	"strconv"
	"strings"

	"commerce-assistant/pkg/store"
)

var (
	chestPattern    = regexp.MustCompile(`(?:^|[^\p{L}])(?:vòng ngực|vòng 1|ngực|chest)\s*:?\s*(\d{2,3})\s*(?:cm)?`)
	waistPattern    = regexp.MustCompile(`(?:^|[^\p{L}])(?:vòng eo|vòng 2|eo|waist)\s*:?\s*(\d{2,3})\s*(?:cm)?`)
	shoulderPattern = regexp.MustCompile(`(?:^|[^\p{L}])(?:vai|shoulder)\s*:?\s*(\d{2,3})\s*(?:cm)?`)

	heightMeters   = regexp.MustCompile(`(\d)\s*m\s*(\d{1,2})(?:\D|$)`)
	heightDecimal  = regexp.MustCompile(`(\d)[.,](\d{1,2})\s*m(?:\W|$)`)
	heightCm       = regexp.MustCompile(`(\d{3})\s*cm`)
	heightKeyword  = regexp.MustCompile(`(?:^|[^\p{L}])(?:cao|height)\s*:?\s*(\d{3})`)
	weightKg       = regexp.MustCompile(`(\d{2,3}(?:[.,]\d)?)\s*(?:kg|kí|ký)`)
	weightKeyword  = regexp.MustCompile(`(?:^|[^\p{L}])(?:nặng|weight)\s*:?\s*(\d{2,3}(?:[.,]\d)?)`)
	usualSizeRegex = regexp.MustCompile(`(?:thường mặc|hay mặc|đang mặc|usually wear|usual size)\s*(?:size\s*)?(xxxl|xxl|xl|xs|s|m|l|\d{2})(?:\W|$)`)
)

// ExtractMeasurements reads body measurements out of a free-text message.
// Values outside plausible human ranges are ignored.
func ExtractMeasurements(message string) store.Measurements {
	text := strings.ToLower(message)
	var m store.Measurements

	// girth measurements first, then blank them so "ngực 100cm" is not a height
	text, m.Chest = takeNumber(text, chestPattern, 60, 160)
	text, m.Waist = takeNumber(text, waistPattern, 50, 150)
	text, m.Shoulder = takeNumber(text, shoulderPattern, 30, 70)

	if sub := heightMeters.FindStringSubmatch(text); sub != nil {
		m.Height = metersToCm(sub[1], sub[2])
	} else if sub := heightDecimal.FindStringSubmatch(text); sub != nil {
		m.Height = metersToCm(sub[1], sub[2])
	} else if _, v := takeNumber(text, heightCm, 100, 230); v > 0 {
		m.Height = v
	} else if _, v := takeNumber(text, heightKeyword, 100, 230); v > 0 {
		m.Height = v
	}
	if m.Height < 100 || m.Height > 230 {
		m.Height = 0
	}

	if _, v := takeNumber(text, weightKg, 25, 200); v > 0 {
		m.Weight = v
	} else if _, v := takeNumber(text, weightKeyword, 25, 200); v > 0 {
		m.Weight = v
	}

	if sub := usualSizeRegex.FindStringSubmatch(text); sub != nil {
		m.UsualSize = strings.ToUpper(sub[1])
	}
	return m
}

func takeNumber(text string, re *regexp.Regexp, lo, hi float64) (string, float64) {
	loc := re.FindStringSubmatchIndex(text)
	if loc == nil {
		return text, 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(text[loc[2]:loc[3]], ",", "."), 64)
	if err != nil || v < lo || v > hi {
		return text, 0
	}
	return text[:loc[0]] + " " + text[loc[1]:], v
}

// metersToCm turns "1" "75" into 175 and "1" "7" into 170.
func metersToCm(meters, rest string) float64 {
	m, _ := strconv.Atoi(meters)
	r, _ := strconv.Atoi(rest)
	if len(rest) == 1 {
		r *= 10
	}
	return float64(m*100 + r)
}
