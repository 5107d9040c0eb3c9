package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/learning-service/internal/models"
)

func TestGradeQuestion(t *testing.T) {
	tests := []struct {
		name     string
		question models.ExamQuestion
		answer   string
		want     float64
	}{
		{name: "single choice correct", question: models.ExamQuestion{Type: models.MultipleChoice, Answer: json.RawMessage(`"b"`)}, answer: `"b"`, want: 1},
		{name: "single choice wrong", question: models.ExamQuestion{Type: models.MultipleChoice, Answer: json.RawMessage(`"b"`)}, answer: `"c"`, want: 0},
		{name: "multi choice any order", question: models.ExamQuestion{Type: models.MultipleChoice, Answer: json.RawMessage(`["a","b","c"]`)}, answer: `["c","a","b"]`, want: 1},
		{name: "multi choice partial", question: models.ExamQuestion{Type: models.MultipleChoice, Answer: json.RawMessage(`["a","b","c"]`)}, answer: `["a","b"]`, want: 1.0 / 3},
		{name: "multi choice floor at zero", question: models.ExamQuestion{Type: models.MultipleChoice, Answer: json.RawMessage(`["a","b","c"]`)}, answer: `["a","d"]`, want: 0},
		{name: "true false correct", question: models.ExamQuestion{Type: models.TrueFalse, Answer: json.RawMessage(`false`)}, answer: `false`, want: 1},
		{name: "true false wrong", question: models.ExamQuestion{Type: models.TrueFalse, Answer: json.RawMessage(`false`)}, answer: `true`, want: 0},
		{name: "short answer ignores case and spaces", question: models.ExamQuestion{Type: models.ShortAnswer, Answer: json.RawMessage(`"Osmosis"`)}, answer: `"  osmosis "`, want: 1},
		{name: "short answer alternatives", question: models.ExamQuestion{Type: models.ShortAnswer, Answer: json.RawMessage(`["ATP","adenosine triphosphate"]`)}, answer: `"Adenosine Triphosphate"`, want: 1},
		{name: "short answer wrong", question: models.ExamQuestion{Type: models.ShortAnswer, Answer: json.RawMessage(`"ATP"`)}, answer: `"ADP"`, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := gradeQuestion(tt.question, json.RawMessage(tt.answer))
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestGradeQuestion_MalformedAnswer(t *testing.T) {
	_, err := gradeQuestion(models.ExamQuestion{Type: models.TrueFalse, Answer: json.RawMessage(`true`)}, json.RawMessage(`"yes"`))
	assert.Error(t, err)

	_, err = gradeQuestion(models.ExamQuestion{Type: models.Essay}, json.RawMessage(`"text"`))
	assert.Error(t, err)
}

func TestGradeAttempt(t *testing.T) {
	set, err := models.ParseQuestionSet(sampleQuestions)
	require.NoError(t, err)

	tests := []struct {
		name       string
		answers    models.AttemptAnswers
		wantEarned float64
		wantScore  float64
		wantPassed bool
	}{
		{
			name:       "all correct",
			answers:    models.AttemptAnswers{"q1": "mitochondria", "q2": true, "q3": "chloroplasts", "q4": "water moves"},
			wantEarned: 4,
			wantScore:  100,
			wantPassed: true,
		},
		{
			name:       "true false wrong",
			answers:    models.AttemptAnswers{"q1": "mitochondria", "q2": false, "q3": " Chloroplast "},
			wantEarned: 3,
			wantScore:  75,
			wantPassed: true,
		},
		{
			name:       "only the one pointer",
			answers:    models.AttemptAnswers{"q1": "mitochondria"},
			wantEarned: 1,
			wantScore:  25,
		},
		{
			name:    "malformed answers earn nothing",
			answers: models.AttemptAnswers{"q2": "maybe", "q3": 42},
		},
		{
			name:    "no answers",
			answers: models.AttemptAnswers{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := gradeAttempt(set, tt.answers, 70)
			assert.Equal(t, 4.0, result.TotalPoints)
			assert.Equal(t, tt.wantEarned, result.EarnedPoints)
			assert.Equal(t, tt.wantScore, result.Score)
			assert.Equal(t, tt.wantPassed, result.Passed)
		})
	}
}

func TestGradeAttempt_RoundsAndDefaultsPoints(t *testing.T) {
	set, err := models.ParseQuestionSet([]byte(`{"sections":[{"questions":[
		{"id":"a","type":"true_false","answer":true},
		{"id":"b","type":"true_false","answer":true},
		{"id":"c","type":"true_false","answer":true}
	]}]}`))
	require.NoError(t, err)

	result := gradeAttempt(set, models.AttemptAnswers{"a": true}, 30)
	assert.Equal(t, 3.0, result.TotalPoints)
	assert.Equal(t, 33.33, result.Score)
	assert.True(t, result.Passed)
}

func TestGradeAttempt_NothingGradable(t *testing.T) {
	set, err := models.ParseQuestionSet([]byte(`{"sections":[{"questions":[{"id":"e","type":"essay","points":10}]}]}`))
	require.NoError(t, err)

	result := gradeAttempt(set, models.AttemptAnswers{"e": "long text"}, 0)
	assert.Zero(t, result.TotalPoints)
	assert.Zero(t, result.Score)
	// a zero passing score is met by a zero score
	assert.True(t, result.Passed)

	strict := gradeAttempt(set, models.AttemptAnswers{}, 60)
	assert.False(t, strict.Passed)
}
