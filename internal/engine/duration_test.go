package engine

import (
	"testing"

	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestDurations_VariantTable(t *testing.T) {
	papers := []model.ExamPaper{
		paper("math", model.SubjectMath),
		paper("lit", model.SubjectLiterature),
		paper("phy", model.SubjectPhysics),
		paper("che", model.SubjectChemistry),
		paper("bio", model.SubjectBiology),
	}
	tabs := Partition(papers)

	hsa := Durations(tabs, model.VariantHSA)
	assert.Equal(t, 4500, hsa["math"])
	assert.Equal(t, 3600, hsa["lit"])
	assert.Equal(t, 3600, hsa[ScienceTabID])

	tsa := Durations(tabs, model.VariantTSA)
	assert.Equal(t, 3600, tsa["math"])
	assert.Equal(t, 1800, tsa["lit"])
	assert.Equal(t, 3600, tsa[ScienceTabID])
}

func TestDurations_EnglishAndFallbacks(t *testing.T) {
	tabs := Partition([]model.ExamPaper{
		paper("eng", model.SubjectEnglish),
		{ID: "his", Subject: "history", Duration: " 45 "},
		{ID: "geo", Subject: "geography", Duration: "forty"},
		{ID: "phy", Subject: model.SubjectPhysics, Duration: "50"},
	})

	for _, v := range []model.Variant{model.VariantHSA, model.VariantTSA} {
		d := Durations(tabs, v)
		assert.Equal(t, 3600, d["eng"], v)
		assert.Equal(t, 2700, d["his"], v)
		assert.Equal(t, 0, d["geo"], v)
		// A lone science paper is a single-subject tab with no table entry.
		assert.Equal(t, 3000, d["phy"], v)
	}
}

func TestDurations_UnknownVariantUsesHSA(t *testing.T) {
	tabs := Partition([]model.ExamPaper{paper("math", model.SubjectMath)})
	assert.Equal(t, 4500, Durations(tabs, "XYZ")["math"])
}

func TestDeclaredMinutes(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"30", 30},
		{" 45 ", 45},
		{"90 phút", 90},
		{"90phut", 90},
		{"+20", 20},
		{"12.5", 12},
		{"", 0},
		{"-5", 0},
		{"phút 90", 0},
		{"99999999999999999999", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DeclaredMinutes(tt.raw), "DeclaredMinutes(%q)", tt.raw)
	}
}
