package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/progress"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
)

type studentService struct {
	repo   repositories.Repository
	logger *slog.Logger
	audit  *auditor
	now    func() time.Time
}

func NewStudentService(deps Dependencies, audit *auditor) StudentService {
	return &studentService{
		repo:   deps.Repo,
		logger: deps.Logger,
		audit:  audit,
		now:    deps.Now,
	}
}

func (s *studentService) ListCourses(ctx context.Context, userID string, status progress.Status, sortKey progress.SortKey) ([]progress.CourseProgress, error) {
	enrollments, err := s.repo.Enrollment().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}

	rows := make([]progress.CourseProgress, 0, len(enrollments))
	for _, enrollment := range enrollments {
		course, err := s.repo.Course().GetWithContent(ctx, enrollment.CourseID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				s.logger.Warn("Enrollment references a missing course",
					"enrollment_id", enrollment.ID, "course_id", enrollment.CourseID)
				continue
			}
			return nil, fmt.Errorf("failed to load course %d: %w", enrollment.CourseID, err)
		}

		completed, err := s.repo.Attempt().CompletedExamIDs(ctx, userID, examIDsOf(course))
		if err != nil {
			return nil, fmt.Errorf("failed to load completed exams: %w", err)
		}

		rows = append(rows, progress.Compute(enrollment, course, completed))
	}

	rows = progress.Filter(rows, status)
	progress.Sort(rows, sortKey)
	return rows, nil
}

// MarkLessonProgress records a lesson's started/completed flags. With neither
// flag supplied the lesson is marked started.
func (s *studentService) MarkLessonProgress(ctx context.Context, userID string, courseID, lessonID uint, req *LessonProgressRequest) (*LessonProgressResponse, error) {
	var (
		resp  *LessonProgressResponse
		entry *models.ActivityLog
	)
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		enrollment, err := tx.Enrollment().LockByUserAndCourse(ctx, userID, courseID)
		if err != nil {
			return mapRepoError(err, ErrNotEnrolled, "load enrollment")
		}
		if !enrollment.IsActive(s.now()) {
			return ErrNotEnrolled
		}

		course, err := tx.Course().GetWithContent(ctx, courseID)
		if err != nil {
			return mapRepoError(err, ErrCourseNotFound, "load course content")
		}

		unit, found := findLesson(course, lessonID)
		if !found {
			return ErrLessonNotFound
		}

		pm := enrollment.Progress.Data().Clone()
		if course.Settings.ProgressTracking == models.ProgressTrackingLinear && !previousLessonsCompleted(course, lessonID, pm) {
			return ErrLessonLocked
		}

		state := pm.Lesson(lessonID)
		if req.Started == nil && req.Completed == nil {
			state.Started = true
		}
		if req.Started != nil {
			state.Started = *req.Started
		}
		if req.Completed != nil {
			state.Completed = *req.Completed
		}
		if state.Completed {
			state.Started = true
		}
		pm.Lessons[lessonID] = state
		enrollment.Progress = datatypes.NewJSONType(pm)

		row, err := syncEnrollmentProgress(ctx, tx, enrollment, course, s.now())
		if err != nil {
			return err
		}

		synced := enrollment.Progress.Data()
		resp = &LessonProgressResponse{
			LessonID:       lessonID,
			Lesson:         synced.Lesson(lessonID),
			Unit:           synced.Unit(unit.ID),
			CourseProgress: row.CourseProgress,
			Status:         row.Status,
			CompletedAt:    enrollment.CompletedAt,
		}

		entry, err = s.audit.record(ctx, tx, userID, models.ActivityLessonProgress, models.EntityLesson, lessonID, map[string]interface{}{
			"courseId":  courseID,
			"started":   state.Started,
			"completed": state.Completed,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit.publish(ctx, entry)

	s.logger.Info("Lesson progress recorded", "user_id", userID, "lesson_id", lessonID,
		"course_progress", resp.CourseProgress, "status", resp.Status)
	return resp, nil
}

// syncEnrollmentProgress recomputes every unit entry of the enrollment, sets or
// clears CompletedAt from the course status and stores the result.
func syncEnrollmentProgress(ctx context.Context, tx repositories.Repository, enrollment *models.Enrollment, course *models.Course, now time.Time) (progress.CourseProgress, error) {
	completed, err := tx.Attempt().CompletedExamIDs(ctx, enrollment.UserID, examIDsOf(course))
	if err != nil {
		return progress.CourseProgress{}, fmt.Errorf("failed to load completed exams: %w", err)
	}

	pm := enrollment.Progress.Data().Clone()
	for _, unit := range course.Units {
		pm.Units[unit.ID] = progress.UnitState(unit, pm, completed, course.Settings.CompletionCriteria)
	}
	enrollment.Progress = datatypes.NewJSONType(pm)

	row := progress.Compute(enrollment, course, completed)
	if row.Status == progress.StatusCompleted {
		if enrollment.CompletedAt == nil {
			enrollment.CompletedAt = &now
		}
	} else {
		enrollment.CompletedAt = nil
	}

	if err := tx.Enrollment().Update(ctx, enrollment); err != nil {
		return row, mapRepoError(err, ErrEnrollmentNotFound, "update enrollment")
	}
	return row, nil
}

func examIDsOf(course *models.Course) []uint {
	var ids []uint
	for _, unit := range course.Units {
		for _, exam := range unit.Exams {
			ids = append(ids, exam.ID)
		}
	}
	return ids
}

// findLesson returns the unit holding lessonID.
func findLesson(course *models.Course, lessonID uint) (models.Unit, bool) {
	for _, unit := range course.Units {
		for _, lesson := range unit.Lessons {
			if lesson.ID == lessonID {
				return unit, true
			}
		}
	}
	return models.Unit{}, false
}

// previousLessonsCompleted walks the course in order up to lessonID.
func previousLessonsCompleted(course *models.Course, lessonID uint, pm models.ProgressMap) bool {
	for _, unit := range course.Units {
		for _, lesson := range unit.Lessons {
			if lesson.ID == lessonID {
				return true
			}
			if !pm.Lesson(lesson.ID).Completed {
				return false
			}
		}
	}
	return true
}
