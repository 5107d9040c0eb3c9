package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// CourseListKey is the key of the admin course list with stats.
const CourseListKey = "list:all"

// CourseDetailKey is the key of a course content tree.
func CourseDetailKey(courseID uint) string {
	return fmt.Sprintf("id:%d", courseID)
}

// InvalidateCourseCache drops everything derived from a course. Called after any
// write to the course or its units, lessons, quizzes, exams or enrollments.
func InvalidateCourseCache(ctx context.Context, cm *CacheManager, courseID uint) {
	if cm == nil {
		return
	}
	if courseID != 0 {
		SafeDelete(ctx, cm.Course, CourseDetailKey(courseID))
	}
	SafeInvalidatePattern(ctx, cm.Course, "list:*")
}
