package validator

import (
	"testing"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newValidate() *govalidator.Validate {
	v := govalidator.New()
	v.SetTagName("binding")
	Register(v)
	return v
}

func TestExamVariantRule(t *testing.T) {
	v := newValidate()
	paper := []model.ExamPaper{{ID: "m1", Subject: model.SubjectMath}}

	ok := model.CreateExamGroupRequest{Title: "Mock 1", Variant: "tsa", Papers: paper}
	assert.NoError(t, v.Struct(ok))

	bad := model.CreateExamGroupRequest{Title: "Mock 1", Variant: "SAT", Papers: paper}
	err := v.Struct(bad)
	require.Error(t, err)
	fields := TranslateErrors(err)
	assert.Equal(t, "variant must be HSA or TSA", fields["variant"])
}

func TestTranslateErrors_NonValidation(t *testing.T) {
	fields := TranslateErrors(assert.AnError)
	assert.Equal(t, assert.AnError.Error(), fields["detail"])
}
