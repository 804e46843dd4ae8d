package decoder

import (
	"errors"
	"strings"
	"testing"
)

func TestExtractObject(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"bare object", `{"a":1}`, `{"a":1}`, false},
		{"prose around object", "Here you go:\n{\"a\":1,\"b\":{\"c\":2}}\nThanks!", `{"a":1,"b":{"c":2}}`, false},
		{"nested objects", `{"a":{"b":{"c":1}}}`, `{"a":{"b":{"c":1}}}`, false},
		{"braces inside strings", `{"a":"}{"}`, `{"a":"}{"}`, false},
		{"escaped quote in string", `{"a":"say \"}\" loud"}`, `{"a":"say \"}\" loud"}`, false},
		{"trailing second object ignored", `{"a":1} and {"b":2}`, `{"a":1}`, false},
		{"no braces at all", "I could not produce JSON, sorry.", "", true},
		{"opening brace never closes", `{"a":1`, "", true},
		{"empty input", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractObject(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ExtractObject(%q) expected error, got %q", tt.raw, got)
				}
				var derr *Error
				if !errors.As(err, &derr) || derr.Kind != KindNoStructureFound {
					t.Errorf("expected no_structure_found, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractObject(%q): %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("ExtractObject(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

const validAnalysisJSON = `{
	"subjectName": "Biology",
	"mindMap": {"central": "Biology", "branches": [{"id": "b1", "name": "Cells", "children": []}]},
	"studyFlow": [
		{"order": 1, "sectionId": "s1", "title": "Photosynthesis", "reason": "foundation"},
		{"order": 2, "sectionId": "s2", "title": "Respiration", "reason": "builds on s1"}
	],
	"sections": [
		{"id": "s1", "number": 1, "title": "Photosynthesis", "difficulty": "Beginner", "keyPoints": ["light reactions"]},
		{"id": "s2", "number": 2, "title": "Respiration", "difficulty": "Intermediate"}
	]
}`

func TestDecodeAnalysis(t *testing.T) {
	t.Run("valid with surrounding prose", func(t *testing.T) {
		a, err := DecodeAnalysis("Sure, here is the plan:\n" + validAnalysisJSON + "\nLet me know!")
		if err != nil {
			t.Fatalf("DecodeAnalysis: %v", err)
		}
		if len(a.Sections) != 2 {
			t.Fatalf("expected 2 sections, got %d", len(a.Sections))
		}
		if a.Sections[0].ID != "s1" || a.Sections[1].ID != "s2" {
			t.Errorf("unexpected section ids: %q, %q", a.Sections[0].ID, a.Sections[1].ID)
		}
		if s := a.Section("s2"); s == nil || s.Title != "Respiration" {
			t.Errorf("Section(s2) lookup failed: %+v", s)
		}
		if s := a.Section("nope"); s != nil {
			t.Errorf("Section(nope) should be nil, got %+v", s)
		}
	})

	tests := []struct {
		name      string
		raw       string
		wantField string
	}{
		{
			"duplicate section id",
			strings.Replace(validAnalysisJSON, `"id": "s2"`, `"id": "s1"`, 1),
			"sections[1].id",
		},
		{
			"study flow order not dense",
			strings.Replace(validAnalysisJSON, `"order": 2`, `"order": 5`, 1),
			"studyFlow[1].order",
		},
		{
			"study flow references unknown section",
			strings.Replace(validAnalysisJSON, `"sectionId": "s2"`, `"sectionId": "s9"`, 1),
			"studyFlow[1].sectionId",
		},
		{
			"bad difficulty value",
			strings.Replace(validAnalysisJSON, `"difficulty": "Beginner"`, `"difficulty": "Expert"`, 1),
			"sections[0].difficulty",
		},
		{
			"empty sections",
			`{"subjectName":"x","mindMap":{"central":"x"},"studyFlow":[],"sections":[]}`,
			"sections",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeAnalysis(tt.raw)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			var derr *Error
			if !errors.As(err, &derr) {
				t.Fatalf("expected *decoder.Error, got %T: %v", err, err)
			}
			if derr.Kind != KindValidationFailed {
				t.Errorf("expected validation_failed, got %q", derr.Kind)
			}
			if derr.Field != tt.wantField {
				t.Errorf("expected field %q, got %q (%s)", tt.wantField, derr.Field, derr.Reason)
			}
		})
	}
}

func TestDecodeSectionContent(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		raw := `{
			"title": "Photosynthesis",
			"overview": "How plants convert light to energy.",
			"concepts": [{"name": "Light reactions", "explanation": "Occur in thylakoids.", "examples": ["chlorophyll"]}],
			"summary": ["Plants make glucose."],
			"suggestedVisuals": [{"type": "diagram", "description": "Chloroplast", "searchQuery": "chloroplast diagram"}]
		}`
		c, err := DecodeSectionContent(raw)
		if err != nil {
			t.Fatalf("DecodeSectionContent: %v", err)
		}
		if c.Title != "Photosynthesis" || len(c.Concepts) != 1 {
			t.Errorf("unexpected content: %+v", c)
		}
	})

	t.Run("missing overview", func(t *testing.T) {
		_, err := DecodeSectionContent(`{"title": "Photosynthesis"}`)
		var derr *Error
		if !errors.As(err, &derr) || derr.Kind != KindValidationFailed {
			t.Fatalf("expected validation_failed, got %v", err)
		}
		if derr.Field != "overview" {
			t.Errorf("expected field overview, got %q", derr.Field)
		}
	})

	t.Run("bad visual type", func(t *testing.T) {
		_, err := DecodeSectionContent(`{
			"title": "T", "overview": "O",
			"suggestedVisuals": [{"type": "hologram"}]
		}`)
		var derr *Error
		if !errors.As(err, &derr) || derr.Field != "suggestedVisuals[0].type" {
			t.Fatalf("expected suggestedVisuals[0].type failure, got %v", err)
		}
	})
}

const validQuizJSON = `{
	"questions": [
		{
			"id": 1,
			"question": "Where do light reactions occur?",
			"options": [{"label": "A", "text": "Thylakoid"}, {"label": "B", "text": "Stroma"}],
			"correctAnswer": "A",
			"explanation": "Thylakoid membranes host the light reactions."
		}
	]
}`

func TestDecodeQuiz(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		q, err := DecodeQuiz("Quiz below.\n" + validQuizJSON)
		if err != nil {
			t.Fatalf("DecodeQuiz: %v", err)
		}
		if len(q.Questions) != 1 || q.Questions[0].CorrectAnswer != "A" {
			t.Errorf("unexpected quiz: %+v", q)
		}
	})

	tests := []struct {
		name      string
		raw       string
		wantField string
	}{
		{
			"correct answer matches no label",
			strings.Replace(validQuizJSON, `"correctAnswer": "A"`, `"correctAnswer": "Z"`, 1),
			"questions[0].correctAnswer",
		},
		{
			"duplicate option labels",
			strings.Replace(validQuizJSON, `"label": "B"`, `"label": "A"`, 1),
			"questions[0].options[1].label",
		},
		{
			"empty questions",
			`{"questions": []}`,
			"questions",
		},
		{
			"question without options",
			`{"questions": [{"question": "Q?", "correctAnswer": "A"}]}`,
			"questions[0].options",
		},
		{
			"bare question still checks the answer",
			`{"questions":[{"id":1,"correctAnswer":"Z","options":[{"label":"A","text":"x"}]}]}`,
			"questions[0].correctAnswer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeQuiz(tt.raw)
			var derr *Error
			if !errors.As(err, &derr) {
				t.Fatalf("expected *decoder.Error, got %v", err)
			}
			if derr.Kind != KindValidationFailed {
				t.Errorf("expected validation_failed, got %q", derr.Kind)
			}
			if derr.Field != tt.wantField {
				t.Errorf("expected field %q, got %q (%s)", tt.wantField, derr.Field, derr.Reason)
			}
		})
	}

	t.Run("no structure at all", func(t *testing.T) {
		_, err := DecodeQuiz("The material was too short to make a quiz.")
		var derr *Error
		if !errors.As(err, &derr) || derr.Kind != KindNoStructureFound {
			t.Fatalf("expected no_structure_found, got %v", err)
		}
	})
}

func TestDecodeExam(t *testing.T) {
	e, err := DecodeExam(validQuizJSON)
	if err != nil {
		t.Fatalf("DecodeExam: %v", err)
	}
	if len(e.Questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(e.Questions))
	}

	_, err = DecodeExam(strings.Replace(validQuizJSON, `"correctAnswer": "A"`, `"correctAnswer": "C"`, 1))
	var derr *Error
	if !errors.As(err, &derr) || derr.Field != "questions[0].correctAnswer" {
		t.Errorf("expected correctAnswer failure, got %v", err)
	}
}

func TestDecodeTypeMismatch(t *testing.T) {
	// A wrong-typed field is a validation failure, not a raw JSON error.
	_, err := DecodeQuiz(`{"questions": "not a list"}`)
	var derr *Error
	if !errors.As(err, &derr) || derr.Kind != KindValidationFailed {
		t.Fatalf("expected validation_failed, got %v", err)
	}
	if derr.Field != "questions" {
		t.Errorf("expected field questions, got %q", derr.Field)
	}
}
