package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/learning-service/internal/cache"
	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"github.com/SAP-F-2025/learning-service/internal/validator"
)

// Duplicate copies a course into a new one inside a single transaction.
// Enrollments, attempts and activity are never copied.
func (s *courseService) Duplicate(ctx context.Context, sourceID uint, req *DuplicateCourseRequest, userID string) (*models.Course, error) {
	s.logger.Info("Duplicating course", "source_id", sourceID, "user_id", userID,
		"content", req.DuplicateContent, "quizzes", req.DuplicateQuizzes, "exams", req.DuplicateExams)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var (
		copied *models.Course
		entry  *models.ActivityLog
	)
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		source, err := tx.Course().GetWithContent(ctx, sourceID)
		if err != nil {
			return mapRepoError(err, ErrCourseNotFound, "load source course")
		}

		course, errs := buildDuplicate(source, req, userID)
		if len(errs) > 0 {
			return errs
		}
		if err := tx.Course().Create(ctx, course); err != nil {
			return fmt.Errorf("failed to create course copy: %w", err)
		}

		stats := duplicationStats{}
		if req.DuplicateContent {
			if stats, err = copyContent(ctx, tx, source, course.ID, req); err != nil {
				return err
			}
		}

		entry, err = s.audit.record(ctx, tx, userID, models.ActivityCourseDuplicated, models.EntityCourse, course.ID, map[string]interface{}{
			"sourceCourseId": sourceID,
			"units":          stats.units,
			"lessons":        stats.lessons,
			"quizzes":        stats.quizzes,
			"exams":          stats.exams,
		})
		if err != nil {
			return err
		}

		copied, err = tx.Course().GetWithContent(ctx, course.ID)
		return mapRepoError(err, ErrCourseNotFound, "load course copy")
	})
	if err != nil {
		return nil, err
	}

	s.audit.publish(ctx, entry)
	cache.InvalidateCourseCache(ctx, s.cache, 0)

	s.logger.Info("Course duplicated successfully", "source_id", sourceID, "course_id", copied.ID)
	return copied, nil
}

type duplicationStats struct {
	units, lessons, quizzes, exams int
}

// buildDuplicate resolves the new course row: request values win over the source.
func buildDuplicate(source *models.Course, req *DuplicateCourseRequest, userID string) (*models.Course, validator.ValidationErrors) {
	course := &models.Course{
		Title:       strings.TrimSpace(req.Title),
		Description: source.Description,
		APExamType:  source.APExamType,
		IsFree:      boolValue(req.IsFree, source.IsFree),
		Price:       source.Price,
		ImageURL:    source.ImageURL,
		IsPublished: req.PublishImmediately,
		Settings:    models.DefaultCourseSettings(),
		CreatedBy:   userID,
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.APExamType != nil {
		course.APExamType = strings.TrimSpace(*req.APExamType)
	}
	if req.Price != nil {
		course.Price = *req.Price
	}
	if req.ImageURL != nil {
		course.ImageURL = req.ImageURL
	}
	if course.IsFree {
		course.Price = 0
	} else if course.Price <= 0 {
		return nil, validator.ValidationErrors{{
			Field:   "price",
			Message: "is required for paid courses",
			Rule:    "business_logic",
		}}
	}

	if req.DuplicateSettings {
		course.Settings = source.Settings
		course.Settings.PrerequisiteCourseIDs = append(datatypes.JSONSlice[uint]{}, source.Settings.PrerequisiteCourseIDs...)
	}
	return course, nil
}

// copyContent recreates units and lessons with their order values, then quizzes
// and exams when requested. source must come from GetWithContent so every level
// is already sorted.
func copyContent(ctx context.Context, tx repositories.Repository, source *models.Course, courseID uint, req *DuplicateCourseRequest) (duplicationStats, error) {
	var stats duplicationStats

	for _, srcUnit := range source.Units {
		unit := &models.Unit{
			CourseID:    courseID,
			Title:       srcUnit.Title,
			Description: srcUnit.Description,
			Order:       srcUnit.Order,
		}
		if err := tx.Unit().Create(ctx, unit); err != nil {
			return stats, fmt.Errorf("failed to copy unit %d: %w", srcUnit.ID, err)
		}
		stats.units++

		for _, srcLesson := range srcUnit.Lessons {
			lesson := &models.Lesson{
				UnitID:      unit.ID,
				Title:       srcLesson.Title,
				Description: srcLesson.Description,
				Content:     srcLesson.Content,
				VideoURL:    srcLesson.VideoURL,
				Order:       srcLesson.Order,
				IsPublished: srcLesson.IsPublished,
			}
			if err := tx.Lesson().Create(ctx, lesson); err != nil {
				return stats, fmt.Errorf("failed to copy lesson %d: %w", srcLesson.ID, err)
			}
			stats.lessons++

			if !req.DuplicateQuizzes {
				continue
			}
			for _, srcQuiz := range srcLesson.Quizzes {
				quiz := &models.LessonQuiz{
					LessonID:     lesson.ID,
					Title:        srcQuiz.Title,
					Questions:    append(datatypes.JSON(nil), srcQuiz.Questions...),
					PassingScore: srcQuiz.PassingScore,
					IsPublished:  srcQuiz.IsPublished,
				}
				if err := tx.Quiz().Create(ctx, quiz); err != nil {
					return stats, fmt.Errorf("failed to copy quiz %d: %w", srcQuiz.ID, err)
				}
				stats.quizzes++
			}
		}

		if !req.DuplicateExams {
			continue
		}
		for _, srcExam := range srcUnit.Exams {
			exam := &models.UnitExam{
				UnitID:         unit.ID,
				Title:          srcExam.Title,
				Description:    srcExam.Description,
				Questions:      append(datatypes.JSON(nil), srcExam.Questions...),
				PassingScore:   srcExam.PassingScore,
				IsPublished:    srcExam.IsPublished,
				MaxAttempts:    srcExam.MaxAttempts,
				AvailableFrom:  srcExam.AvailableFrom,
				AvailableUntil: srcExam.AvailableUntil,
				TimeLimit:      srcExam.TimeLimit,
			}
			if err := tx.Exam().Create(ctx, exam); err != nil {
				return stats, fmt.Errorf("failed to copy exam %d: %w", srcExam.ID, err)
			}
			stats.exams++
		}
	}

	return stats, nil
}
