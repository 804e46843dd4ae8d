// Package decoder turns raw completion text into validated structures.
// Generative backends routinely wrap the requested JSON object in
// commentary; the decoder slices out the first balanced brace-delimited
// span and validates it against the expected shape. It never returns a
// partially populated value.
package decoder

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sanadsad75/exam-prep-assistant/internal/model"
)

// Kind classifies a decode failure.
type Kind string

const (
	// KindNoStructureFound means no balanced JSON object exists in the text.
	KindNoStructureFound Kind = "no_structure_found"
	// KindValidationFailed means an object was found but fails shape validation.
	KindValidationFailed Kind = "validation_failed"
)

// Error is a non-retryable decode failure. For validation failures Field
// holds the offending field path in JSON naming.
type Error struct {
	Kind   Kind
	Field  string
	Reason string
}

func (e *Error) Error() string {
	if e.Kind == KindNoStructureFound {
		return "decode: no JSON object found in response"
	}
	if e.Field != "" {
		return fmt.Sprintf("decode: validation failed at %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("decode: validation failed: %s", e.Reason)
}

func noStructure() *Error {
	return &Error{Kind: KindNoStructureFound}
}

func invalid(field, reason string) *Error {
	return &Error{Kind: KindValidationFailed, Field: field, Reason: reason}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report field paths using JSON names, not Go struct names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ExtractObject returns the first balanced top-level brace-delimited span
// in raw. Braces inside string literals are ignored, as are escaped
// quotes. If the first '{' never balances before the text ends, there is
// no object to decode.
func ExtractObject(raw string) (string, error) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", noStructure()
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], nil
			}
		}
	}
	return "", noStructure()
}

// Decode extracts the first balanced object from raw and parses it as T,
// applying the struct's validate tags. Either a fully valid value or an
// error comes back, never both.
func Decode[T any](raw string) (*T, error) {
	span, err := ExtractObject(raw)
	if err != nil {
		return nil, err
	}

	var v T
	if err := json.Unmarshal([]byte(span), &v); err != nil {
		if typeErr, ok := err.(*json.UnmarshalTypeError); ok {
			return nil, invalid(typeErr.Field, fmt.Sprintf("expected %s", typeErr.Type))
		}
		return nil, invalid("", err.Error())
	}

	if err := validate.Struct(&v); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			return nil, invalid(fieldPath(errs[0]), "failed "+errs[0].Tag())
		}
		return nil, invalid("", err.Error())
	}

	return &v, nil
}

// fieldPath strips the root struct name from a validator namespace, so
// "Analysis.sections[0].title" reports as "sections[0].title".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// DecodeAnalysis decodes and validates a study-plan analysis. Beyond the
// tag rules it enforces unique section ids, a dense 1-based study-flow
// ordering, and that every study-flow step references a known section.
func DecodeAnalysis(raw string) (*model.Analysis, error) {
	a, err := Decode[model.Analysis](raw)
	if err != nil {
		return nil, err
	}

	ids := make(map[string]bool, len(a.Sections))
	for i, s := range a.Sections {
		if ids[s.ID] {
			return nil, invalid(fmt.Sprintf("sections[%d].id", i), fmt.Sprintf("duplicate section id %q", s.ID))
		}
		ids[s.ID] = true
	}
	for i, step := range a.StudyFlow {
		if step.Order != i+1 {
			return nil, invalid(fmt.Sprintf("studyFlow[%d].order", i), fmt.Sprintf("want %d, got %d", i+1, step.Order))
		}
		if !ids[step.SectionID] {
			return nil, invalid(fmt.Sprintf("studyFlow[%d].sectionId", i), fmt.Sprintf("unknown section %q", step.SectionID))
		}
	}
	return a, nil
}

// DecodeSectionContent decodes and validates generated section content.
func DecodeSectionContent(raw string) (*model.SectionContent, error) {
	return Decode[model.SectionContent](raw)
}

// DecodeQuiz decodes and validates a generated quiz. Every question must
// carry unique option labels and a correctAnswer matching one of them.
func DecodeQuiz(raw string) (*model.Quiz, error) {
	q, err := Decode[model.Quiz](raw)
	if err != nil {
		return nil, err
	}
	if derr := validateQuestions(q.Questions); derr != nil {
		return nil, derr
	}
	return q, nil
}

// DecodeExam decodes and validates a final exam, under the same question
// rules as quizzes.
func DecodeExam(raw string) (*model.Exam, error) {
	e, err := Decode[model.Exam](raw)
	if err != nil {
		return nil, err
	}
	if derr := validateQuestions(e.Questions); derr != nil {
		return nil, derr
	}
	return e, nil
}

func validateQuestions(questions []model.Question) *Error {
	for i, q := range questions {
		labels := make(map[string]bool, len(q.Options))
		for j, o := range q.Options {
			if labels[o.Label] {
				return invalid(fmt.Sprintf("questions[%d].options[%d].label", i, j), fmt.Sprintf("duplicate label %q", o.Label))
			}
			labels[o.Label] = true
		}
		if !labels[q.CorrectAnswer] {
			return invalid(fmt.Sprintf("questions[%d].correctAnswer", i), fmt.Sprintf("%q matches no option label", q.CorrectAnswer))
		}
	}
	return nil
}
