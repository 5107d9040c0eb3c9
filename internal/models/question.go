package models

import (
	"encoding/json"
	"fmt"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	ShortAnswer    QuestionType = "short_answer"
	Essay          QuestionType = "essay"
)

// QuestionSet is the structured payload stored on a unit exam. Quizzes keep their
// payload opaque; exams are parsed so attempts can be scored.
type QuestionSet struct {
	Sections []QuestionSection `json:"sections"`
}

type QuestionSection struct {
	Title     string         `json:"title"`
	Questions []ExamQuestion `json:"questions"`
}

type ExamQuestion struct {
	ID      string          `json:"id"`
	Type    QuestionType    `json:"type"`
	Prompt  string          `json:"prompt"`
	Options []string        `json:"options,omitempty"`
	Answer  json.RawMessage `json:"answer,omitempty"`
	Points  float64         `json:"points"`
}

// ParseQuestionSet decodes an exam payload. An empty payload yields an empty set.
func ParseQuestionSet(raw []byte) (*QuestionSet, error) {
	set := &QuestionSet{}
	if len(raw) == 0 || string(raw) == "null" {
		return set, nil
	}
	if err := json.Unmarshal(raw, set); err != nil {
		return nil, fmt.Errorf("invalid question set: %w", err)
	}
	return set, nil
}

// Questions flattens all sections in order.
func (qs *QuestionSet) Questions() []ExamQuestion {
	var out []ExamQuestion
	for _, section := range qs.Sections {
		out = append(out, section.Questions...)
	}
	return out
}

// Validate checks ids are present and unique across sections.
func (qs *QuestionSet) Validate() error {
	seen := make(map[string]bool)
	for si, section := range qs.Sections {
		for qi, q := range section.Questions {
			if q.ID == "" {
				return fmt.Errorf("section %d question %d: id is required", si, qi)
			}
			if seen[q.ID] {
				return fmt.Errorf("duplicate question id %q", q.ID)
			}
			seen[q.ID] = true
			if q.Points < 0 {
				return fmt.Errorf("question %q: points must not be negative", q.ID)
			}
		}
	}
	return nil
}
