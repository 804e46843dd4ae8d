package model

import "time"

// Difficulty represents a section's difficulty level.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "Beginner"
	DifficultyIntermediate Difficulty = "Intermediate"
	DifficultyAdvanced     Difficulty = "Advanced"
)

// VisualType represents the kind of visual aid a section suggests.
type VisualType string

const (
	VisualDiagram VisualType = "diagram"
	VisualImage   VisualType = "image"
	VisualVideo   VisualType = "video"
)

// ParsedDocument is the extraction outcome for one uploaded file.
// A failed file keeps its slot in the batch with Error set; it contributes
// no text to any prompt context.
type ParsedDocument struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
	IsImage  bool   `json:"isImage"`
	URL      string `json:"url,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Image describes an uploaded image retained for display.
type Image struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
	MimeType string `json:"mimetype"`
	Size     int64  `json:"size"`
}

// MindMapNode is one labeled branch of the mind map.
type MindMapNode struct {
	ID       string        `json:"id"`
	Name     string        `json:"name" validate:"required"`
	Children []MindMapNode `json:"children" validate:"dive"`
}

// MindMap is the hierarchical topic map produced by the analysis.
type MindMap struct {
	Central  string        `json:"central" validate:"required"`
	Branches []MindMapNode `json:"branches" validate:"dive"`
}

// StudyFlowStep is one entry in the recommended study order.
type StudyFlowStep struct {
	Order     int    `json:"order" validate:"required,min=1"`
	SectionID string `json:"sectionId" validate:"required"`
	Title     string `json:"title"`
	Reason    string `json:"reason"`
}

// Section is one topic unit within the analysis. ID is the cache key for
// the per-section content and quiz caches.
type Section struct {
	ID            string     `json:"id" validate:"required"`
	Number        int        `json:"number"`
	Title         string     `json:"title" validate:"required"`
	Description   string     `json:"description"`
	KeyPoints     []string   `json:"keyPoints"`
	Difficulty    Difficulty `json:"difficulty" validate:"required,oneof=Beginner Intermediate Advanced"`
	EstimatedTime string     `json:"estimatedTime"`
	Prerequisites []string   `json:"prerequisites"`
}

// Analysis is the structured study plan generated once per session.
type Analysis struct {
	SubjectName string          `json:"subjectName"`
	MindMap     MindMap         `json:"mindMap" validate:"required"`
	StudyFlow   []StudyFlowStep `json:"studyFlow" validate:"dive"`
	Sections    []Section       `json:"sections" validate:"required,min=1,dive"`
}

// Section returns the section with the given id, or nil.
func (a *Analysis) Section(id string) *Section {
	for i := range a.Sections {
		if a.Sections[i].ID == id {
			return &a.Sections[i]
		}
	}
	return nil
}

// Concept is one explained idea within generated section content.
type Concept struct {
	Name                string   `json:"name" validate:"required"`
	Explanation         string   `json:"explanation" validate:"required"`
	Examples            []string `json:"examples"`
	VisualAidSuggestion string   `json:"visualAidSuggestion,omitempty"`
}

// SuggestedVisual describes a visual aid worth finding for a section.
type SuggestedVisual struct {
	Type        VisualType `json:"type" validate:"required,oneof=diagram image video"`
	Description string     `json:"description"`
	SearchQuery string     `json:"searchQuery"`
}

// SectionContent is the detailed explanation generated once per
// (session, section) pair.
type SectionContent struct {
	Title            string            `json:"title" validate:"required"`
	Overview         string            `json:"overview" validate:"required"`
	Concepts         []Concept         `json:"concepts" validate:"dive"`
	Summary          []string          `json:"summary"`
	SuggestedVisuals []SuggestedVisual `json:"suggestedVisuals" validate:"dive"`
}

// Option is one answer choice of a multiple-choice question.
type Option struct {
	Label string `json:"label" validate:"required"`
	Text  string `json:"text"`
}

// Question is one multiple-choice question. CorrectAnswer must equal the
// label of one of Options; the decoder rejects anything else.
type Question struct {
	ID            int      `json:"id"`
	Question      string   `json:"question"`
	Options       []Option `json:"options" validate:"required,min=1,dive"`
	CorrectAnswer string   `json:"correctAnswer" validate:"required"`
	Explanation   string   `json:"explanation"`
}

// Quiz is a generated per-section quiz.
type Quiz struct {
	Questions []Question `json:"questions" validate:"required,min=1,dive"`
}

// Exam is the comprehensive final exam covering all sections.
type Exam struct {
	Questions []Question `json:"questions" validate:"required,min=1,dive"`
}

// Session is one upload batch and everything generated from it. The
// immutable part lives here; the per-section caches belong to the store.
type Session struct {
	ID          string           `json:"id"`
	SubjectName string           `json:"subjectName"`
	Documents   []ParsedDocument `json:"documents"`
	Images      []Image          `json:"images"`
	Analysis    *Analysis        `json:"analysis"`
	CreatedAt   time.Time        `json:"createdAt"`
}
