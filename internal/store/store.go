// Package store keeps all live sessions in process memory. Sessions are
// created once with their analysis already populated and are never
// deleted; the per-key caches are insert-once and never evicted, so a
// cached artifact stays bit-identical for the session's lifetime.
package store

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/sanadsad75/exam-prep-assistant/internal/model"
)

// Store is an in-memory session map, safe for concurrent readers and
// writers. It never calls out to the completion backend; it only holds
// what the orchestrator stores in it.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

// session pairs the immutable session data with its memoization caches.
// The caches do their own locking; finalExam is guarded by Store.mu.
type session struct {
	data           *model.Session
	sectionContent *cache.Cache
	quizzes        *cache.Cache
	finalExam      *model.Exam
}

// New creates an empty store.
func New() *Store {
	return &Store{sessions: make(map[string]*session)}
}

// Create allocates a unique session id, inserts the session and returns
// it. Sessions appear fully formed: analysis is set before the session is
// reachable by any reader.
func (s *Store) Create(subjectName string, documents []model.ParsedDocument, images []model.Image, analysis *model.Analysis) *model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	for s.sessions[id] != nil {
		id = uuid.NewString()
	}

	data := &model.Session{
		ID:          id,
		SubjectName: subjectName,
		Documents:   documents,
		Images:      images,
		Analysis:    analysis,
		CreatedAt:   time.Now(),
	}
	s.sessions[id] = &session{
		data:           data,
		sectionContent: cache.New(cache.NoExpiration, 0),
		quizzes:        cache.New(cache.NoExpiration, 0),
	}
	return data
}

// Get returns the session with the given id.
func (s *Store) Get(id string) (*model.Session, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return sess.data, nil
}

// SectionContent returns the cached content for a section, or nil if
// nothing has been stored for that key yet.
func (s *Store) SectionContent(sessionID, sectionID string) (*model.SectionContent, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	if v, ok := sess.sectionContent.Get(sectionID); ok {
		return v.(*model.SectionContent), nil
	}
	return nil, nil
}

// PutSectionContent inserts content for a section at most once. The first
// writer wins; a later insert for the same key is a no-op and the
// already-stored value comes back.
func (s *Store) PutSectionContent(sessionID, sectionID string, content *model.SectionContent) (*model.SectionContent, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.sectionContent.Add(sectionID, content, cache.NoExpiration); err != nil {
		// Lost the race. Entries are never evicted, so the winner is there.
		v, _ := sess.sectionContent.Get(sectionID)
		return v.(*model.SectionContent), nil
	}
	return content, nil
}

// Quiz returns the cached quiz for a section, or nil if absent.
func (s *Store) Quiz(sessionID, sectionID string) (*model.Quiz, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	if v, ok := sess.quizzes.Get(sectionID); ok {
		return v.(*model.Quiz), nil
	}
	return nil, nil
}

// PutQuiz inserts a quiz for a section under the same first-writer-wins
// discipline as PutSectionContent.
func (s *Store) PutQuiz(sessionID, sectionID string, quiz *model.Quiz) (*model.Quiz, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.quizzes.Add(sectionID, quiz, cache.NoExpiration); err != nil {
		v, _ := sess.quizzes.Get(sectionID)
		return v.(*model.Quiz), nil
	}
	return quiz, nil
}

// FinalExam returns the session's final exam, or nil if absent.
func (s *Store) FinalExam(sessionID string) (*model.Exam, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return sess.finalExam, nil
}

// PutFinalExam fills the session's single exam slot at most once and
// returns the stored exam. A concurrent second computation is discarded
// in favor of the first stored value.
func (s *Store) PutFinalExam(sessionID string, exam *model.Exam) (*model.Exam, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	if sess.finalExam != nil {
		return sess.finalExam, nil
	}
	sess.finalExam = exam
	return exam, nil
}

func (s *Store) lookup(id string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return sess, nil
}
