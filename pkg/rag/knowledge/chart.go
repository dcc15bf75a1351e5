package knowledge

import (
	"math"
	"strconv"
	"strings"

	"commerce-assistant/pkg/store"
)

type ChartKind string

const (
	ChartShirt ChartKind = "shirt"
	ChartPants ChartKind = "pants"
)

// Band is an inclusive measurement range in cm or kg.
type Band struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (b Band) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// distance is zero inside the band and grows linearly outside it.
func (b Band) distance(v float64) float64 {
	switch {
	case v < b.Min:
		return b.Min - v
	case v > b.Max:
		return v - b.Max
	}
	return 0
}

type SizeRow struct {
	Size   string `json:"size"`
	Girth  Band   `json:"girth"` // chest for shirts, waist for pants
	Height Band   `json:"height"`
	Weight Band   `json:"weight"`
}

type SizeChart struct {
	Kind ChartKind `json:"kind"`
	Rows []SizeRow `json:"rows"`
}

var shirtChart = SizeChart{Kind: ChartShirt, Rows: []SizeRow{
	{"S", Band{88, 92}, Band{160, 168}, Band{50, 58}},
	{"M", Band{92, 96}, Band{168, 173}, Band{58, 65}},
	{"L", Band{96, 100}, Band{173, 178}, Band{65, 72}},
	{"XL", Band{100, 104}, Band{178, 183}, Band{72, 80}},
	{"XXL", Band{104, 108}, Band{183, 188}, Band{80, 88}},
}}

var pantsChart = SizeChart{Kind: ChartPants, Rows: []SizeRow{
	{"S", Band{72, 76}, Band{160, 168}, Band{50, 58}},
	{"M", Band{76, 80}, Band{168, 173}, Band{58, 65}},
	{"L", Band{80, 84}, Band{173, 178}, Band{65, 72}},
	{"XL", Band{84, 88}, Band{178, 183}, Band{72, 80}},
	{"XXL", Band{88, 92}, Band{183, 188}, Band{80, 88}},
}}

// Recommend picks the chart row closest to the measurements. Height, weight
// and the girth relevant to the chart are compared; the row with the
// smallest total distance wins and ties go to the larger size.
func (c *SizeChart) Recommend(m store.Measurements) string {
	if c == nil || len(c.Rows) == 0 {
		return ""
	}
	girth := m.Chest
	if c.Kind == ChartPants {
		girth = m.Waist
	}

	best := ""
	bestScore := math.Inf(1)
	for _, row := range c.Rows {
		score := 0.0
		if m.Height > 0 {
			score += row.Height.distance(m.Height)
		}
		if m.Weight > 0 {
			score += row.Weight.distance(m.Weight)
		}
		if girth > 0 {
			score += row.Girth.distance(girth)
		}
		if score <= bestScore {
			best, bestScore = row.Size, score
		}
	}
	return best
}

// Render formats the chart for a prompt.
func (c *SizeChart) Render() string {
	if c == nil {
		return ""
	}
	girth := "ngực"
	if c.Kind == ChartPants {
		girth = "eo"
	}
	var b strings.Builder
	for _, r := range c.Rows {
		b.WriteString("- ")
		b.WriteString(r.Size)
		b.WriteString(": ")
		b.WriteString(girth + " " + formatBand(r.Girth) + "cm, ")
		b.WriteString("cao " + formatBand(r.Height) + "cm, ")
		b.WriteString("nặng " + formatBand(r.Weight) + "kg\n")
	}
	return b.String()
}

func formatBand(b Band) string {
	return strconv.FormatFloat(b.Min, 'f', -1, 64) + "-" + strconv.FormatFloat(b.Max, 'f', -1, 64)
}

var letterSizes = []string{"XXS", "XS", "S", "M", "L", "XL", "XXL", "XXXL"}

var freeSizes = map[string]bool{"free size": true, "freesize": true, "one size": true, "onesize": true}

// IsFreeSize reports whether the sizes are a single one-size-fits-all label.
func IsFreeSize(sizes []string) bool {
	return len(sizes) == 1 && freeSizes[strings.ToLower(strings.TrimSpace(sizes[0]))]
}

// sizeOrdinal places a size on a comparable axis. Letter sizes use their
// position, numeric sizes their value. ok is false for anything else.
func sizeOrdinal(size string) (value float64, numeric bool, ok bool) {
	s := strings.ToUpper(strings.TrimSpace(size))
	for i, l := range letterSizes {
		if s == l {
			return float64(i), false, true
		}
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n, true, true
	}
	return 0, false, false
}

// ClosestSize returns the available size nearest to want. An exact match
// (case-insensitive) is returned as listed; otherwise the nearest comparable
// size wins and ties go to the larger. With nothing comparable the first
// available size is used.
func ClosestSize(want string, available []string) string {
	if len(available) == 0 {
		return ""
	}
	for _, a := range available {
		if strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(want)) {
			return a
		}
	}

	w, wNum, ok := sizeOrdinal(want)
	if !ok {
		return available[0]
	}

	best := ""
	bestDist := math.Inf(1)
	bestVal := math.Inf(-1)
	for _, a := range available {
		v, num, ok := sizeOrdinal(a)
		if !ok || num != wNum {
			continue
		}
		d := math.Abs(v - w)
		if d < bestDist || (d == bestDist && v > bestVal) {
			best, bestDist, bestVal = a, d, v
		}
	}
	if best == "" {
		return available[0]
	}
	return best
}
