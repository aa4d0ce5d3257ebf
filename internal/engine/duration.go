package engine

import (
	"strconv"
	"strings"

	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/model"
)

// scienceBlockMinutes is fixed for the merged tab regardless of variant.
const scienceBlockMinutes = 60

var durationTable = map[model.Subject]map[model.Variant]int{
	model.SubjectMath:       {model.VariantHSA: 75, model.VariantTSA: 60},
	model.SubjectLiterature: {model.VariantHSA: 60, model.VariantTSA: 30},
	model.SubjectEnglish:    {model.VariantHSA: 60, model.VariantTSA: 60},
}

// Durations returns the allotted seconds for every tab, keyed by tab id.
func Durations(tabs []Tab, variant model.Variant) map[string]int {
	if !variant.Valid() {
		variant = model.VariantHSA
	}

	out := make(map[string]int, len(tabs))
	for i := range tabs {
		out[tabs[i].ID] = TabMinutes(&tabs[i], variant) * 60
	}
	return out
}

// TabMinutes returns the duration of a single tab in minutes.
func TabMinutes(tab *Tab, variant model.Variant) int {
	if tab.Merged() {
		return scienceBlockMinutes
	}
	if len(tab.Papers) == 0 {
		return 0
	}

	paper := tab.Papers[0]
	if byVariant, ok := durationTable[paper.Subject]; ok {
		if minutes, ok := byVariant[variant]; ok {
			return minutes
		}
	}
	return DeclaredMinutes(paper.Duration)
}

// DeclaredMinutes parses the leading integer of a paper's self-declared
// duration, so "90 phút" and "12.5" read as 90 and 12. Values without
// leading digits, including negative ones, yield 0.
func DeclaredMinutes(raw string) int {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "+")
	end := strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' })
	if end == -1 {
		end = len(s)
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
