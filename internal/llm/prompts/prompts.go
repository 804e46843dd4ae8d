// Package prompts builds the prompt text for each generation stage from
// embedded templates. The templates spell out the exact JSON skeleton the
// decoder expects back.
package prompts

import (
	"bytes"
	"embed"
	"text/template"
)

//go:embed templates/*.txt
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.txt"))

// AnalyzeData holds template data for the study-plan analysis prompt.
type AnalyzeData struct {
	SubjectName string
	Documents   string
}

// SectionData holds template data for the section-content prompt.
type SectionData struct {
	SubjectName  string
	SectionTitle string
	Context      string
}

// QuizData holds template data for the per-section quiz prompt.
type QuizData struct {
	SectionTitle string
	Content      string
	NumQuestions int
}

// ExamData holds template data for the final-exam prompt.
type ExamData struct {
	Sections     string
	Content      string
	NumQuestions int
}

// BuildAnalyze builds the prompt that turns uploaded documents into a
// structured study plan.
func BuildAnalyze(data AnalyzeData) (string, error) {
	return build("analyze.txt", data)
}

// BuildSection builds the prompt for a detailed section explanation.
func BuildSection(data SectionData) (string, error) {
	return build("section.txt", data)
}

// BuildQuiz builds the prompt for a multiple-choice section quiz.
func BuildQuiz(data QuizData) (string, error) {
	return build("quiz.txt", data)
}

// BuildExam builds the prompt for the comprehensive final exam.
func BuildExam(data ExamData) (string, error) {
	return build("exam.txt", data)
}

func build(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
