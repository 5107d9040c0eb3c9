package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/ordering"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
)

func progressOf(pm models.ProgressMap) datatypes.JSONType[models.ProgressMap] {
	return datatypes.NewJSONType(pm)
}

func seedCourse(t *testing.T, repo *Repository) (*models.Course, *models.Unit, *models.Lesson, *models.UnitExam) {
	t.Helper()
	ctx := context.Background()

	course := &models.Course{Title: "AP Calculus", APExamType: "AP Calculus AB", IsFree: true, Settings: models.DefaultCourseSettings()}
	require.NoError(t, repo.Course().Create(ctx, course))

	unit := &models.Unit{CourseID: course.ID, Title: "Limits", Order: 1}
	require.NoError(t, repo.Unit().Create(ctx, unit))

	lesson := &models.Lesson{UnitID: unit.ID, Title: "Intro", Order: 1}
	require.NoError(t, repo.Lesson().Create(ctx, lesson))

	exam := &models.UnitExam{UnitID: unit.ID, Title: "Limits exam", MaxAttempts: 2}
	require.NoError(t, repo.Exam().Create(ctx, exam))

	return course, unit, lesson, exam
}

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	course, unit, _, _ := seedCourse(t, repo)

	boom := errors.New("boom")
	err := repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Unit().Create(ctx, &models.Unit{CourseID: course.ID, Title: "Derivatives", Order: 2}); err != nil {
			return err
		}
		if err := tx.Unit().UpdateOrders(ctx, course.ID, []ordering.Update{{ID: unit.ID, Order: 5}}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	units, err := repo.Unit().ListByCourse(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, 1, units[0].Order)
}

func TestWithTransaction_Commits(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	course, _, _, _ := seedCourse(t, repo)

	err := repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		return tx.Unit().Create(ctx, &models.Unit{CourseID: course.ID, Title: "Derivatives", Order: 2})
	})
	require.NoError(t, err)

	units, err := repo.Unit().ListByCourse(ctx, course.ID)
	require.NoError(t, err)
	assert.Len(t, units, 2)
}

func TestEnrollment_CreateIfAbsent(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	course, _, _, _ := seedCourse(t, repo)

	var wg sync.WaitGroup
	created := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.Enrollment().CreateIfAbsent(ctx, &models.Enrollment{
				UserID: "u-1", CourseID: course.ID, Status: models.EnrollmentActive,
				Progress: progressOf(models.NewProgressMap()),
			})
			assert.NoError(t, err)
			created <- ok
		}()
	}
	wg.Wait()
	close(created)

	wins := 0
	for ok := range created {
		if ok {
			wins++
		}
	}
	assert.Equal(t, 1, wins)

	n, err := repo.Enrollment().CountByCourse(ctx, course.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestAttempt_SingleInFlight(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	_, _, _, exam := seedCourse(t, repo)

	first := &models.ExamAttempt{ExamID: exam.ID, UserID: "u-1", StartedAt: time.Now(), Status: models.AttemptInProgress}
	require.NoError(t, repo.Attempt().Create(ctx, first))

	err := repo.Attempt().Create(ctx, &models.ExamAttempt{ExamID: exam.ID, UserID: "u-1", StartedAt: time.Now()})
	assert.True(t, repositories.IsDuplicateError(err))

	// another user is unaffected
	require.NoError(t, repo.Attempt().Create(ctx, &models.ExamAttempt{ExamID: exam.ID, UserID: "u-2", StartedAt: time.Now()}))

	now := time.Now()
	first.CompletedAt = &now
	first.Status = models.AttemptCompleted
	require.NoError(t, repo.Attempt().Update(ctx, first))

	second := &models.ExamAttempt{ExamID: exam.ID, UserID: "u-1", StartedAt: now.Add(time.Second)}
	require.NoError(t, repo.Attempt().Create(ctx, second))

	count, err := repo.Attempt().CountCompleted(ctx, exam.ID, "u-1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	list, err := repo.Attempt().ListByExamAndUser(ctx, exam.ID, "u-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	completed, err := repo.Attempt().CompletedExamIDs(ctx, "u-1", []uint{exam.ID, 999})
	require.NoError(t, err)
	assert.Equal(t, map[uint]bool{exam.ID: true}, completed)
}

func TestUnitUpdateOrders_ScopedToCourse(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	course, unit, _, _ := seedCourse(t, repo)
	other, otherUnit, _, _ := seedCourse(t, repo)
	require.NotEqual(t, course.ID, other.ID)

	err := repo.Unit().UpdateOrders(ctx, course.ID, []ordering.Update{{ID: unit.ID, Order: 3}, {ID: otherUnit.ID, Order: 4}})
	assert.True(t, repositories.IsNotFoundError(err))

	got, err := repo.Unit().GetByID(ctx, unit.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Order)
}

func TestCourseDelete_Cascades(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	course, unit, lesson, exam := seedCourse(t, repo)
	require.NoError(t, repo.Quiz().Create(ctx, &models.LessonQuiz{LessonID: lesson.ID, Title: "Check"}))

	require.NoError(t, repo.Course().Delete(ctx, course.ID))

	_, err := repo.Unit().GetByID(ctx, unit.ID)
	assert.True(t, repositories.IsNotFoundError(err))
	_, err = repo.Lesson().GetByID(ctx, lesson.ID)
	assert.True(t, repositories.IsNotFoundError(err))
	_, err = repo.Exam().GetByID(ctx, exam.ID)
	assert.True(t, repositories.IsNotFoundError(err))
	quizzes, err := repo.Quiz().ListByLesson(ctx, lesson.ID)
	require.NoError(t, err)
	assert.Empty(t, quizzes)
}

func TestGetWithContent_Sorted(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	course, unit, _, _ := seedCourse(t, repo)

	require.NoError(t, repo.Unit().Create(ctx, &models.Unit{CourseID: course.ID, Title: "Zero", Order: 0}))
	require.NoError(t, repo.Lesson().Create(ctx, &models.Lesson{UnitID: unit.ID, Title: "Before", Order: 0}))

	full, err := repo.Course().GetWithContent(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, full.Units, 2)
	assert.Equal(t, "Zero", full.Units[0].Title)
	require.Len(t, full.Units[1].Lessons, 2)
	assert.Equal(t, "Before", full.Units[1].Lessons[0].Title)
	assert.Len(t, full.Units[1].Exams, 1)

	stats, err := repo.Course().ListWithStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.EqualValues(t, 2, stats[0].UnitCount)
	assert.EqualValues(t, 2, stats[0].LessonCount)
	assert.EqualValues(t, 1, stats[0].ExamCount)
}

func TestStoredValuesAreCopies(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	course, _, _, _ := seedCourse(t, repo)

	en := &models.Enrollment{UserID: "u-1", CourseID: course.ID, Progress: progressOf(models.NewProgressMap())}
	_, err := repo.Enrollment().CreateIfAbsent(ctx, en)
	require.NoError(t, err)

	got, err := repo.Enrollment().GetByUserAndCourse(ctx, "u-1", course.ID)
	require.NoError(t, err)
	got.Progress.Data().Lessons[42] = models.CompletionState{Completed: true}

	again, err := repo.Enrollment().GetByUserAndCourse(ctx, "u-1", course.ID)
	require.NoError(t, err)
	assert.False(t, again.Progress.Data().Lesson(42).Completed)
}
