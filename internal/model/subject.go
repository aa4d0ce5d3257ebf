package model

import "strings"

// Subject is a subject code attached to an exam paper.
type Subject string

const (
	SubjectMath       Subject = "math"
	SubjectLiterature Subject = "literature"
	SubjectEnglish    Subject = "english"
	SubjectPhysics    Subject = "physics"
	SubjectChemistry  Subject = "chemistry"
	SubjectBiology    Subject = "biology"
)

var subjectNames = map[Subject]string{
	SubjectMath:       "Math",
	SubjectLiterature: "Literature",
	SubjectEnglish:    "English",
	SubjectPhysics:    "Physics",
	SubjectChemistry:  "Chemistry",
	SubjectBiology:    "Biology",
}

// DisplayName returns the human-readable subject name. Unknown codes are
// returned as-is.
func (s Subject) DisplayName() string {
	if name, ok := subjectNames[s]; ok {
		return name
	}
	return string(s)
}

// IsScience reports whether the subject belongs to the Physics/Chemistry/Biology block.
func (s Subject) IsScience() bool {
	return s == SubjectPhysics || s == SubjectChemistry || s == SubjectBiology
}

// Variant is the exam program variant; each has its own duration table.
type Variant string

const (
	VariantHSA Variant = "HSA"
	VariantTSA Variant = "TSA"
)

// ParseVariant normalizes a variant string. Anything unrecognized maps to HSA.
func ParseVariant(raw string) Variant {
	if strings.EqualFold(strings.TrimSpace(raw), string(VariantTSA)) {
		return VariantTSA
	}
	return VariantHSA
}

// Valid reports whether v is a known variant.
func (v Variant) Valid() bool {
	return v == VariantHSA || v == VariantTSA
}
