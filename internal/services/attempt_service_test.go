package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/learning-service/internal/models"
)

func (f *fixture) startAttempt(t *testing.T, examID uint, userID string) *StartAttemptResponse {
	t.Helper()
	resp, err := f.sm.Attempt().Start(f.ctx, examID, userID)
	require.NoError(t, err)
	return resp
}

func TestAttemptService_StartAndResumeConflict(t *testing.T) {
	f := newFixture(t)
	ec := f.seedExamCourse(t, 3)

	started := f.startAttempt(t, ec.exam.ID, studentID)
	assert.Equal(t, 1, started.AttemptNumber)
	assert.Equal(t, models.AttemptInProgress, started.Status)
	assert.Equal(t, f.clock.Now(), started.StartedAt)
	assert.Nil(t, started.ExpiresAt)
	assert.Len(t, f.publisher.EventsOfType(models.ActivityAttemptStarted), 1)

	_, err := f.sm.Attempt().Start(f.ctx, ec.exam.ID, studentID)
	svcErr := requireKind(t, err, ErrConflict)
	assert.Equal(t, started.ID, svcErr.Details["attemptId"])
}

func TestAttemptService_ConcurrentStarts(t *testing.T) {
	f := newFixture(t)
	ec := f.seedExamCourse(t, 3)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.sm.Attempt().Start(f.ctx, ec.exam.ID, studentID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, conflicts)

	list, err := f.sm.Attempt().List(f.ctx, ec.exam.ID, studentID)
	require.NoError(t, err)
	assert.Len(t, list.Attempts, 1)
}

func TestAttemptService_AttemptLimit(t *testing.T) {
	f := newFixture(t)
	ec := f.seedExamCourse(t, 2)

	for i := 1; i <= 2; i++ {
		started := f.startAttempt(t, ec.exam.ID, studentID)
		assert.Equal(t, i, started.AttemptNumber)
		_, err := f.sm.Attempt().Submit(f.ctx, ec.exam.ID, started.ID, &SubmitAttemptRequest{}, studentID)
		require.NoError(t, err)
	}

	_, err := f.sm.Attempt().Start(f.ctx, ec.exam.ID, studentID)
	requireKind(t, err, ErrForbidden)
	assert.ErrorIs(t, err, ErrAttemptLimitExceeded)
}

func TestAttemptService_StartPreconditions(t *testing.T) {
	f := newFixture(t)
	ec := f.seedExamCourse(t, 1)
	now := f.clock.Now()

	draft := f.createExam(t, ec.course.ID, ec.unit.ID, &CreateExamRequest{Title: "Draft", MaxAttempts: 1})
	future := f.createExam(t, ec.course.ID, ec.unit.ID, &CreateExamRequest{
		Title: "Future", MaxAttempts: 1, IsPublished: true, AvailableFrom: timePtr(now.Add(24 * time.Hour)),
	})
	past := f.createExam(t, ec.course.ID, ec.unit.ID, &CreateExamRequest{
		Title: "Past", MaxAttempts: 1, IsPublished: true, AvailableUntil: timePtr(now.Add(-time.Hour)),
	})

	t.Run("unknown exam", func(t *testing.T) {
		_, err := f.sm.Attempt().Start(f.ctx, 9999, studentID)
		assert.ErrorIs(t, err, ErrExamNotFound)
	})

	t.Run("not enrolled", func(t *testing.T) {
		_, err := f.sm.Attempt().Start(f.ctx, ec.exam.ID, "outsider")
		assert.ErrorIs(t, err, ErrNotEnrolled)
	})

	t.Run("unpublished exam", func(t *testing.T) {
		_, err := f.sm.Attempt().Start(f.ctx, draft.ID, studentID)
		assert.ErrorIs(t, err, ErrExamNotPublished)
	})

	t.Run("not yet available", func(t *testing.T) {
		_, err := f.sm.Attempt().Start(f.ctx, future.ID, studentID)
		svcErr := requireKind(t, err, ErrForbidden)
		assert.Contains(t, svcErr.Message, now.Add(24*time.Hour).Format(time.RFC3339))
		assert.Contains(t, svcErr.Details, "availableFrom")
	})

	t.Run("no longer available", func(t *testing.T) {
		_, err := f.sm.Attempt().Start(f.ctx, past.ID, studentID)
		svcErr := requireKind(t, err, ErrForbidden)
		assert.Contains(t, svcErr.Message, now.Add(-time.Hour).Format(time.RFC3339))
	})

	t.Run("expired enrollment", func(t *testing.T) {
		enrollment, err := f.repo.Enrollment().GetByUserAndCourse(f.ctx, studentID, ec.course.ID)
		require.NoError(t, err)
		expires := now.Add(-time.Minute)
		enrollment.ExpiresAt = &expires
		require.NoError(t, f.repo.Enrollment().Update(f.ctx, enrollment))

		_, err = f.sm.Attempt().Start(f.ctx, ec.exam.ID, studentID)
		assert.ErrorIs(t, err, ErrNotEnrolled)
	})
}

func TestAttemptService_SaveAndSubmit(t *testing.T) {
	f := newFixture(t)
	ec := f.seedExamCourse(t, 2)
	started := f.startAttempt(t, ec.exam.ID, studentID)

	f.clock.Advance(90 * time.Second)
	saved, err := f.sm.Attempt().Save(f.ctx, ec.exam.ID, started.ID, &SaveAttemptRequest{
		Answers:         map[string]interface{}{"q1": "mitochondria", "q2": true},
		CurrentSection:  intPtr(0),
		CurrentQuestion: intPtr(2),
	}, studentID)
	require.NoError(t, err)
	assert.Equal(t, 2, saved.CurrentQuestion)
	assert.Equal(t, 90, saved.TimeUsed)
	assert.Len(t, saved.Answers.Data(), 2)

	f.clock.Advance(30 * time.Second)
	submitted, err := f.sm.Attempt().Submit(f.ctx, ec.exam.ID, started.ID, &SubmitAttemptRequest{
		Answers: map[string]interface{}{"q2": false, "q3": " Chloroplast "},
	}, studentID)
	require.NoError(t, err)
	assert.Equal(t, models.AttemptCompleted, submitted.Status)
	require.NotNil(t, submitted.Score)
	assert.Equal(t, 75.0, *submitted.Score)
	require.NotNil(t, submitted.Passed)
	assert.True(t, *submitted.Passed)
	require.NotNil(t, submitted.CompletedAt)
	assert.Equal(t, 120, submitted.TimeUsed)
	assert.Len(t, f.publisher.EventsOfType(models.ActivityAttemptSubmitted), 1)

	_, err = f.sm.Attempt().Save(f.ctx, ec.exam.ID, started.ID, &SaveAttemptRequest{}, studentID)
	assert.ErrorIs(t, err, ErrAttemptAlreadySubmitted)
	_, err = f.sm.Attempt().Submit(f.ctx, ec.exam.ID, started.ID, &SubmitAttemptRequest{}, studentID)
	assert.ErrorIs(t, err, ErrAttemptAlreadySubmitted)
}

func TestAttemptService_OwnershipIsHidden(t *testing.T) {
	f := newFixture(t)
	ec := f.seedExamCourse(t, 1)
	other := f.createExam(t, ec.course.ID, ec.unit.ID, &CreateExamRequest{Title: "Other", MaxAttempts: 1, IsPublished: true})
	started := f.startAttempt(t, ec.exam.ID, studentID)
	f.enroll(t, ec.course.ID, "student-2")

	_, err := f.sm.Attempt().Save(f.ctx, ec.exam.ID, started.ID, &SaveAttemptRequest{}, "student-2")
	assert.ErrorIs(t, err, ErrAttemptNotFound)

	_, err = f.sm.Attempt().Submit(f.ctx, other.ID, started.ID, &SubmitAttemptRequest{}, studentID)
	assert.ErrorIs(t, err, ErrAttemptNotFound)
}

func TestAttemptService_TimeLimit(t *testing.T) {
	f := newFixture(t)
	ec := f.seedExamCourse(t, 1)
	timed := f.createExam(t, ec.course.ID, ec.unit.ID, &CreateExamRequest{
		Title:       "Timed",
		Questions:   sampleQuestions,
		MaxAttempts: 1,
		TimeLimit:   intPtr(30),
		IsPublished: true,
	})

	started := f.startAttempt(t, timed.ID, studentID)
	require.NotNil(t, started.ExpiresAt)
	assert.Equal(t, f.clock.Now().Add(30*time.Minute), *started.ExpiresAt)

	_, err := f.sm.Attempt().Save(f.ctx, timed.ID, started.ID, &SaveAttemptRequest{
		Answers: map[string]interface{}{"q1": "mitochondria"},
	}, studentID)
	require.NoError(t, err)

	f.clock.Advance(31 * time.Minute)
	_, err = f.sm.Attempt().Save(f.ctx, timed.ID, started.ID, &SaveAttemptRequest{
		Answers: map[string]interface{}{"q2": true},
	}, studentID)
	assert.ErrorIs(t, err, ErrAttemptTimeExpired)

	// late submit keeps only what was saved in time
	submitted, err := f.sm.Attempt().Submit(f.ctx, timed.ID, started.ID, &SubmitAttemptRequest{
		Answers: map[string]interface{}{"q2": true, "q3": "chloroplast"},
	}, studentID)
	require.NoError(t, err)
	assert.Equal(t, 25.0, *submitted.Score)
	assert.False(t, *submitted.Passed)
}

func TestAttemptService_ListSummary(t *testing.T) {
	f := newFixture(t)
	ec := f.seedExamCourse(t, 3)

	first := f.startAttempt(t, ec.exam.ID, studentID)
	_, err := f.sm.Attempt().Submit(f.ctx, ec.exam.ID, first.ID, &SubmitAttemptRequest{
		Answers: map[string]interface{}{"q1": "mitochondria", "q2": true, "q3": "chloroplast"},
	}, studentID)
	require.NoError(t, err)

	second := f.startAttempt(t, ec.exam.ID, studentID)
	_, err = f.sm.Attempt().Submit(f.ctx, ec.exam.ID, second.ID, &SubmitAttemptRequest{}, studentID)
	require.NoError(t, err)

	third := f.startAttempt(t, ec.exam.ID, studentID)
	assert.Equal(t, 3, third.AttemptNumber)

	list, err := f.sm.Attempt().List(f.ctx, ec.exam.ID, studentID)
	require.NoError(t, err)
	assert.Len(t, list.Attempts, 3)
	assert.Equal(t, 3, list.Summary.TotalAttempts)
	assert.Equal(t, 2, list.Summary.CompletedAttempts)
	assert.Equal(t, 3, list.Summary.MaxAttempts)
	assert.True(t, list.Summary.HasInProgress)
	require.NotNil(t, list.Summary.InProgressAttemptID)
	assert.Equal(t, third.ID, *list.Summary.InProgressAttemptID)
	require.NotNil(t, list.Summary.BestScore)
	assert.Equal(t, 100.0, *list.Summary.BestScore)

	empty, err := f.sm.Attempt().List(f.ctx, ec.exam.ID, "student-2")
	require.NoError(t, err)
	assert.Empty(t, empty.Attempts)
	assert.Nil(t, empty.Summary.BestScore)
}

func TestSummarizeAttempts_NoAttempts(t *testing.T) {
	summary := summarizeAttempts(nil, 2)
	assert.Equal(t, AttemptSummary{MaxAttempts: 2}, summary)
}
