// Package study orchestrates the generation stages: analysis at session
// creation, then lazily section content, per-section quizzes, and one
// final exam. Each stage is memoized through the store's insert-once
// caches, so every completion call happens at most once per key from the
// caller's point of view. Two concurrent requests for the same uncached
// key may both reach the backend; the store keeps only the first stored
// result and both callers observe it.
package study

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sanadsad75/exam-prep-assistant/internal/decoder"
	"github.com/sanadsad75/exam-prep-assistant/internal/llm"
	"github.com/sanadsad75/exam-prep-assistant/internal/llm/prompts"
	"github.com/sanadsad75/exam-prep-assistant/internal/model"
	"github.com/sanadsad75/exam-prep-assistant/internal/store"
)

// Completer is the narrow completion contract the orchestrator depends on.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts llm.Options) (string, error)
}

// Per-stage completion options. The backend is free to return fewer or
// more questions than requested; only an empty question list is rejected.
var (
	analyzeOpts = llm.Options{MaxTokens: 8000, Temperature: 0.7}
	sectionOpts = llm.Options{MaxTokens: 6000, Temperature: 0.7}
	quizOpts    = llm.Options{MaxTokens: 4000, Temperature: 0.7}
	examOpts    = llm.Options{MaxTokens: 8000, Temperature: 0.7}
)

// Orchestrator decides what must be generated, in what order, and whether
// a cached artifact answers instead. No lock is held across a completion
// call.
type Orchestrator struct {
	store     *store.Store
	completer Completer
}

// New creates an orchestrator on top of a session store and a completer.
func New(s *store.Store, c Completer) *Orchestrator {
	return &Orchestrator{store: s, completer: c}
}

// CreateSession runs the analysis stage over an extracted upload batch
// and stores the resulting session. The session becomes visible only with
// its analysis populated; a failed analysis leaves no session behind.
func (o *Orchestrator) CreateSession(ctx context.Context, subjectName string, documents []model.ParsedDocument, images []model.Image) (*model.Session, error) {
	if strings.TrimSpace(subjectName) == "" {
		return nil, model.ErrMissingSubject
	}
	if len(documents) == 0 {
		return nil, model.ErrNoFiles
	}

	prompt, err := prompts.BuildAnalyze(prompts.AnalyzeData{
		SubjectName: subjectName,
		Documents:   labeledContext(documents),
	})
	if err != nil {
		return nil, fmt.Errorf("build analyze prompt: %w", err)
	}

	raw, err := o.completer.Complete(ctx, prompt, analyzeOpts)
	if err != nil {
		return nil, err
	}
	analysis, err := decoder.DecodeAnalysis(raw)
	if err != nil {
		return nil, err
	}

	sess := o.store.Create(subjectName, documents, images, analysis)
	slog.Info("session created", "session", sess.ID, "subject", subjectName, "sections", len(analysis.Sections))
	return sess, nil
}

// GetSession returns a session by id.
func (o *Orchestrator) GetSession(sessionID string) (*model.Session, error) {
	return o.store.Get(sessionID)
}

// GetAnalysis returns the session's immutable study plan.
func (o *Orchestrator) GetAnalysis(sessionID string) (*model.Analysis, error) {
	sess, err := o.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Analysis, nil
}

// GetSectionContent returns the detailed explanation for a section,
// generating and caching it on first request. Repeat calls return the
// stored value without touching the backend.
func (o *Orchestrator) GetSectionContent(ctx context.Context, sessionID, sectionID string) (*model.SectionContent, error) {
	if cached, err := o.store.SectionContent(sessionID, sectionID); err != nil || cached != nil {
		return cached, err
	}

	sess, err := o.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	section := sess.Analysis.Section(sectionID)
	if section == nil {
		return nil, model.ErrSectionNotFound
	}

	prompt, err := prompts.BuildSection(prompts.SectionData{
		SubjectName:  sess.SubjectName,
		SectionTitle: section.Title,
		Context:      documentContext(sess.Documents),
	})
	if err != nil {
		return nil, fmt.Errorf("build section prompt: %w", err)
	}

	slog.Info("generating section content", "session", sessionID, "section", sectionID, "title", section.Title)
	raw, err := o.completer.Complete(ctx, prompt, sectionOpts)
	if err != nil {
		return nil, err
	}
	content, err := decoder.DecodeSectionContent(raw)
	if err != nil {
		return nil, err
	}

	// A concurrent caller may have stored first; everyone gets the winner.
	return o.store.PutSectionContent(sessionID, sectionID, content)
}

// GetQuiz returns the multiple-choice quiz for a section, generating and
// caching it on first request. Quizzes are always generated from already
// materialized section content, never from raw documents; that dependency
// edge is enforced here and nowhere else.
func (o *Orchestrator) GetQuiz(ctx context.Context, sessionID, sectionID string, numQuestions int) (*model.Quiz, error) {
	if cached, err := o.store.Quiz(sessionID, sectionID); err != nil || cached != nil {
		return cached, err
	}

	content, err := o.GetSectionContent(ctx, sessionID, sectionID)
	if err != nil {
		return nil, err
	}

	sess, err := o.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	section := sess.Analysis.Section(sectionID)
	if section == nil {
		return nil, model.ErrSectionNotFound
	}

	serialized, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("serialize section content: %w", err)
	}

	prompt, err := prompts.BuildQuiz(prompts.QuizData{
		SectionTitle: section.Title,
		Content:      string(serialized),
		NumQuestions: numQuestions,
	})
	if err != nil {
		return nil, fmt.Errorf("build quiz prompt: %w", err)
	}

	slog.Info("generating quiz", "session", sessionID, "section", sectionID, "requested", numQuestions)
	raw, err := o.completer.Complete(ctx, prompt, quizOpts)
	if err != nil {
		return nil, err
	}
	quiz, err := decoder.DecodeQuiz(raw)
	if err != nil {
		return nil, err
	}

	return o.store.PutQuiz(sessionID, sectionID, quiz)
}

// GetFinalExam returns the session's comprehensive exam, generating it on
// first request from all document texts and the full section list.
func (o *Orchestrator) GetFinalExam(ctx context.Context, sessionID string, numQuestions int) (*model.Exam, error) {
	if cached, err := o.store.FinalExam(sessionID); err != nil || cached != nil {
		return cached, err
	}

	sess, err := o.store.Get(sessionID)
	if err != nil {
		return nil, err
	}

	prompt, err := prompts.BuildExam(prompts.ExamData{
		Sections:     sectionList(sess.Analysis.Sections),
		Content:      documentContext(sess.Documents),
		NumQuestions: numQuestions,
	})
	if err != nil {
		return nil, fmt.Errorf("build exam prompt: %w", err)
	}

	slog.Info("generating final exam", "session", sessionID, "requested", numQuestions)
	raw, err := o.completer.Complete(ctx, prompt, examOpts)
	if err != nil {
		return nil, err
	}
	exam, err := decoder.DecodeExam(raw)
	if err != nil {
		return nil, err
	}

	return o.store.PutFinalExam(sessionID, exam)
}

// labeledContext concatenates extracted document texts with filename
// headers, in upload order. Failed and image documents contribute nothing.
func labeledContext(documents []model.ParsedDocument) string {
	var parts []string
	for _, d := range documents {
		if d.Error != "" || d.IsImage {
			continue
		}
		parts = append(parts, "=== "+d.Filename+" ===\n"+d.Content)
	}
	return strings.Join(parts, "\n\n")
}

// documentContext concatenates extracted document texts in upload order,
// skipping failed and image documents.
func documentContext(documents []model.ParsedDocument) string {
	var parts []string
	for _, d := range documents {
		if d.Error != "" || d.IsImage {
			continue
		}
		parts = append(parts, d.Content)
	}
	return strings.Join(parts, "\n\n")
}

func sectionList(sections []model.Section) string {
	var sb strings.Builder
	for _, s := range sections {
		fmt.Fprintf(&sb, "%d. %s\n", s.Number, s.Title)
	}
	return sb.String()
}
