package services

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"

	"github.com/SAP-F-2025/learning-service/internal/models"
)

// ===== GRADING UTILITIES =====

// GradeResult is the outcome of scoring one attempt against its exam.
type GradeResult struct {
	EarnedPoints float64
	TotalPoints  float64
	// Score is a percentage rounded to two decimals.
	Score  float64
	Passed bool
}

// gradeAttempt scores answers against the exam question set. Questions without
// an answer key (essays) are left out of the total.
func gradeAttempt(set *models.QuestionSet, answers models.AttemptAnswers, passingScore int) GradeResult {
	var result GradeResult

	for _, q := range set.Questions() {
		if len(q.Answer) == 0 || q.Type == models.Essay {
			continue
		}
		points := q.Points
		if points <= 0 {
			points = 1
		}
		result.TotalPoints += points

		given, ok := answers[q.ID]
		if !ok || given == nil {
			continue
		}
		raw, err := json.Marshal(given)
		if err != nil {
			continue
		}
		credit, err := gradeQuestion(q, raw)
		if err != nil {
			continue
		}
		result.EarnedPoints += credit * points
	}

	if result.TotalPoints > 0 {
		result.Score = math.Round(result.EarnedPoints/result.TotalPoints*10000) / 100
	}
	result.Passed = result.Score >= float64(passingScore)
	return result
}

// gradeQuestion returns the fraction of credit earned, between 0 and 1.
func gradeQuestion(q models.ExamQuestion, studentAnswer json.RawMessage) (float64, error) {
	switch q.Type {
	case models.MultipleChoice:
		return gradeMultipleChoice(q.Answer, studentAnswer)
	case models.TrueFalse:
		return gradeTrueFalse(q.Answer, studentAnswer)
	case models.ShortAnswer:
		return gradeShortAnswer(q.Answer, studentAnswer)
	default:
		return 0, fmt.Errorf("unsupported question type: %s", q.Type)
	}
}

func gradeMultipleChoice(key json.RawMessage, studentAnswer json.RawMessage) (float64, error) {
	correctAnswers, err := stringList(key)
	if err != nil {
		return 0, fmt.Errorf("failed to unmarshal answer key: %w", err)
	}
	answer, err := stringList(studentAnswer)
	if err != nil {
		return 0, fmt.Errorf("failed to unmarshal student answer: %w", err)
	}

	// Perfect match scoring
	if reflect.DeepEqual(sortStrings(answer), sortStrings(correctAnswers)) {
		return 1, nil
	}

	// Partial credit for multiple correct answers
	if len(correctAnswers) > 1 {
		answerSet := make(map[string]bool)
		for _, a := range answer {
			answerSet[a] = true
		}
		correctSet := make(map[string]bool)
		for _, c := range correctAnswers {
			correctSet[c] = true
		}

		correct, incorrect := 0, 0
		for _, a := range answer {
			if correctSet[a] {
				correct++
			} else {
				incorrect++
			}
		}
		for _, c := range correctAnswers {
			if !answerSet[c] {
				incorrect++
			}
		}

		score := float64(correct-incorrect) / float64(len(correctAnswers))
		return math.Max(0, score), nil
	}

	return 0, nil
}

func gradeTrueFalse(key json.RawMessage, studentAnswer json.RawMessage) (float64, error) {
	var correct bool
	if err := json.Unmarshal(key, &correct); err != nil {
		return 0, fmt.Errorf("failed to unmarshal answer key: %w", err)
	}
	var answer bool
	if err := json.Unmarshal(studentAnswer, &answer); err != nil {
		return 0, fmt.Errorf("failed to unmarshal student answer: %w", err)
	}
	if answer == correct {
		return 1, nil
	}
	return 0, nil
}

func gradeShortAnswer(key json.RawMessage, studentAnswer json.RawMessage) (float64, error) {
	accepted, err := stringList(key)
	if err != nil {
		return 0, fmt.Errorf("failed to unmarshal answer key: %w", err)
	}
	var answer string
	if err := json.Unmarshal(studentAnswer, &answer); err != nil {
		return 0, fmt.Errorf("failed to unmarshal student answer: %w", err)
	}
	for _, a := range accepted {
		if compareStrings(answer, a, false) {
			return 1, nil
		}
	}
	return 0, nil
}

// stringList accepts either a JSON string or an array of strings.
func stringList(raw json.RawMessage) ([]string, error) {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, err
	}
	return []string{single}, nil
}

func compareStrings(s1, s2 string, caseSensitive bool) bool {
	s1, s2 = strings.TrimSpace(s1), strings.TrimSpace(s2)
	if !caseSensitive {
		return strings.EqualFold(s1, s2)
	}
	return s1 == s2
}

func sortStrings(arr []string) []string {
	out := append([]string(nil), arr...)
	sort.Strings(out)
	return out
}
