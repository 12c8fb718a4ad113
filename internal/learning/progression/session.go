package progression

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"sketch-predictor/internal/models"
)

var ErrFinished = errors.New("progression: all pages completed")

// Position describes the word currently being drawn.
type Position struct {
	Level            int    `json:"level"`
	Page             int    `json:"page"`
	Word             string `json:"word"`
	Index            int    `json:"index"`
	IsLastWordOfPage bool   `json:"isLastWordOfPage"`
	NextPage         int    `json:"nextPage,omitempty"`
	Finished         bool   `json:"finished"`
}

// Outcome is the verdict on one drawing.
type Outcome struct {
	Correct          bool    `json:"correct"`
	TargetWord       string  `json:"targetWord"`
	PredictedWord    string  `json:"predictedWord"`
	Confidence       float64 `json:"confidence"`
	IsLastWordOfPage bool    `json:"isLastWordOfPage"`
	NextPage         int     `json:"nextPage,omitempty"`
}

// Transition is what Advance did.
type Transition struct {
	PageCompleted bool     `json:"pageCompleted"`
	NextPage      int      `json:"nextPage,omitempty"`
	Finished      bool     `json:"finished"`
	Position      Position `json:"position"`
}

// Session is one learner's walk through a level. Safe for concurrent use.
type Session struct {
	level int
	pages []Page

	mu       sync.Mutex
	page     int
	word     int
	finished bool
}

func NewSession(c Curriculum, level int) (*Session, error) {
	pages, ok := c[level]
	if !ok || len(pages) == 0 {
		return nil, fmt.Errorf("progression: unknown level %d", level)
	}
	return &Session{level: level, pages: pages}, nil
}

func (s *Session) Current() Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position()
}

func (s *Session) position() Position {
	if s.finished {
		return Position{Level: s.level, Finished: true}
	}
	p := s.pages[s.page]
	pos := Position{
		Level:            s.level,
		Page:             p.Number,
		Word:             p.Words[s.word],
		Index:            s.word,
		IsLastWordOfPage: s.word == len(p.Words)-1,
	}
	if pos.IsLastWordOfPage && s.page+1 < len(s.pages) {
		pos.NextPage = s.pages[s.page+1].Number
	}
	return pos
}

// Evaluate compares the top prediction with the current word, ignoring case.
// It does not move the session.
func (s *Session) Evaluate(preds []models.Prediction) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evaluate(preds)
}

func (s *Session) evaluate(preds []models.Prediction) (Outcome, error) {
	if s.finished {
		return Outcome{}, ErrFinished
	}
	pos := s.position()
	out := Outcome{
		TargetWord:       pos.Word,
		IsLastWordOfPage: pos.IsLastWordOfPage,
		NextPage:         pos.NextPage,
	}
	if len(preds) > 0 {
		out.PredictedWord = preds[0].Label
		out.Confidence = preds[0].Confidence
		out.Correct = strings.EqualFold(strings.TrimSpace(preds[0].Label), pos.Word)
	}
	return out, nil
}

// Advance moves to the next word, crossing to the next page after the last
// word of a page.
func (s *Session) Advance() (Transition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advance()
}

func (s *Session) advance() (Transition, error) {
	if s.finished {
		return Transition{}, ErrFinished
	}

	var t Transition
	s.word++
	if s.word >= len(s.pages[s.page].Words) {
		t.PageCompleted = true
		s.word = 0
		s.page++
		if s.page >= len(s.pages) {
			s.finished = true
			t.Finished = true
		} else {
			t.NextPage = s.pages[s.page].Number
		}
	}
	t.Position = s.position()
	return t, nil
}

// Attempt evaluates preds and advances when the drawing was correct.
func (s *Session) Attempt(preds []models.Prediction) (Outcome, *Transition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out, err := s.evaluate(preds)
	if err != nil || !out.Correct {
		return out, nil, err
	}
	t, err := s.advance()
	if err != nil {
		return out, nil, err
	}
	return out, &t, nil
}

// Restart goes back to the first word of the level.
func (s *Session) Restart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page, s.word, s.finished = 0, 0, false
}
