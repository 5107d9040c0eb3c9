package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
)

type CoursePostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewCoursePostgreSQL(db *gorm.DB) repositories.CourseRepository {
	return &CoursePostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (c *CoursePostgreSQL) Create(ctx context.Context, course *models.Course) error {
	if err := c.db.WithContext(ctx).Omit("Units").Create(course).Error; err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}
	return nil
}

func (c *CoursePostgreSQL) GetByID(ctx context.Context, id uint) (*models.Course, error) {
	var course models.Course
	if err := c.helpers.First(ctx, &course, id, "course"); err != nil {
		return nil, err
	}
	return &course, nil
}

func (c *CoursePostgreSQL) GetWithContent(ctx context.Context, id uint) (*models.Course, error) {
	var course models.Course
	err := c.db.WithContext(ctx).
		Preload("Units", byOrder).
		Preload("Units.Lessons", byOrder).
		Preload("Units.Lessons.Quizzes", byID).
		Preload("Units.Exams", byID).
		First(&course, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("course %d", id))
	}
	return &course, nil
}

func (c *CoursePostgreSQL) LockByID(ctx context.Context, id uint) (*models.Course, error) {
	var course models.Course
	if err := c.helpers.LockFirst(ctx, &course, id, "course"); err != nil {
		return nil, err
	}
	return &course, nil
}

func (c *CoursePostgreSQL) Update(ctx context.Context, course *models.Course) error {
	return c.helpers.UpdateExisting(ctx, course, "course", course.ID)
}

// Delete removes the course and everything under it in one transaction.
func (c *CoursePostgreSQL) Delete(ctx context.Context, id uint) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		units := tx.Model(&models.Unit{}).Select("id").Where("course_id = ?", id)
		lessons := tx.Model(&models.Lesson{}).Select("id").Where("unit_id IN (?)", units)
		exams := tx.Model(&models.UnitExam{}).Select("id").Where("unit_id IN (?)", units)

		steps := []struct {
			model interface{}
			query string
			arg   interface{}
		}{
			{&models.ExamAttempt{}, "exam_id IN (?)", exams},
			{&models.LessonQuiz{}, "lesson_id IN (?)", lessons},
			{&models.Lesson{}, "unit_id IN (?)", units},
			{&models.UnitExam{}, "unit_id IN (?)", units},
			{&models.Enrollment{}, "course_id = ?", id},
			{&models.Unit{}, "course_id = ?", id},
		}
		for _, step := range steps {
			if err := tx.Where(step.query, step.arg).Delete(step.model).Error; err != nil {
				return fmt.Errorf("failed to delete course content: %w", err)
			}
		}

		return NewSharedHelpers(tx).DeleteExisting(ctx, &models.Course{}, "course", id)
	})
}

func (c *CoursePostgreSQL) ListWithStats(ctx context.Context) ([]*models.CourseWithStats, error) {
	var rows []*models.CourseWithStats
	err := c.db.WithContext(ctx).
		Model(&models.Course{}).
		Select(`courses.*,
			(SELECT COUNT(*) FROM enrollments e WHERE e.course_id = courses.id) AS enrollment_count,
			(SELECT COUNT(*) FROM units u WHERE u.course_id = courses.id) AS unit_count,
			(SELECT COUNT(*) FROM lessons l JOIN units u ON u.id = l.unit_id WHERE u.course_id = courses.id) AS lesson_count,
			(SELECT COUNT(*) FROM unit_exams x JOIN units u ON u.id = x.unit_id WHERE u.course_id = courses.id) AS exam_count`).
		Order("courses.created_at DESC, courses.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return rows, nil
}
