package services

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/learning-service/internal/cache"
	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/validator"
)

func TestCourseService_Create(t *testing.T) {
	tests := []struct {
		name      string
		req       *CreateCourseRequest
		wantErr   bool
		wantPrice float64
	}{
		{
			name: "free by default",
			req:  &CreateCourseRequest{Title: "AP Chemistry", APExamType: "AP Chemistry"},
		},
		{
			name:      "paid with price",
			req:       &CreateCourseRequest{Title: "AP Physics", APExamType: "AP Physics 1", IsFree: boolPtr(false), Price: floatPtr(49)},
			wantPrice: 49,
		},
		{
			name:    "paid without price",
			req:     &CreateCourseRequest{Title: "AP Physics", APExamType: "AP Physics 1", IsFree: boolPtr(false)},
			wantErr: true,
		},
		{
			name:    "missing exam type",
			req:     &CreateCourseRequest{Title: "AP Physics"},
			wantErr: true,
		},
		{
			name:    "blank title",
			req:     &CreateCourseRequest{Title: "   ", APExamType: "AP Physics 1"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			course, err := f.sm.Course().Create(f.ctx, tt.req, adminID)
			if tt.wantErr {
				var verrs validator.ValidationErrors
				require.ErrorAs(t, err, &verrs)
				assert.Empty(t, f.publisher.GetPublishedEvents())
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, course.ID)
			assert.Equal(t, tt.wantPrice, course.Price)
			assert.Equal(t, adminID, course.CreatedBy)
			assert.False(t, course.IsPublished)
			assert.Equal(t, models.ProgressTrackingFree, course.Settings.ProgressTracking)
			assert.Len(t, f.publisher.EventsOfType(models.ActivityCourseCreated), 1)
		})
	}
}

func TestCourseService_CreateAppliesSettings(t *testing.T) {
	f := newFixture(t)
	course, err := f.sm.Course().Create(f.ctx, &CreateCourseRequest{
		Title:      "AP Statistics",
		APExamType: "AP Statistics",
		Settings: &CourseSettingsRequest{
			EnrollmentLimit:  intPtr(30),
			ProgressTracking: strPtr("linear"),
			PassingGrade:     intPtr(80),
		},
	}, adminID)
	require.NoError(t, err)
	assert.Equal(t, 30, *course.Settings.EnrollmentLimit)
	assert.Equal(t, models.ProgressTrackingLinear, course.Settings.ProgressTracking)
	assert.Equal(t, 80, course.Settings.PassingGrade)
	assert.Equal(t, models.CompletionAllLessons, course.Settings.CompletionCriteria)
}

func TestCourseService_DeleteWithEnrollments(t *testing.T) {
	f := newFixture(t)
	course := f.createCourse(t, "AP Biology")
	f.createUnit(t, course.ID, "Cells", nil)
	f.publish(t, course.ID)
	f.enroll(t, course.ID, studentID)

	err := f.sm.Course().Delete(f.ctx, course.ID, adminID)
	requireKind(t, err, ErrValidationFailed)
	assert.ErrorIs(t, err, ErrCourseHasEnrollments)

	_, err = f.sm.Course().Get(f.ctx, course.ID)
	assert.NoError(t, err)
}

func TestCourseService_DeleteWithoutEnrollments(t *testing.T) {
	f := newFixture(t)
	course := f.createCourse(t, "AP Biology")
	unit := f.createUnit(t, course.ID, "Cells", nil)
	f.createLesson(t, course.ID, unit.ID, "Organelles", nil)

	require.NoError(t, f.sm.Course().Delete(f.ctx, course.ID, adminID))

	_, err := f.sm.Course().Get(f.ctx, course.ID)
	assert.ErrorIs(t, err, ErrCourseNotFound)
	_, err = f.sm.Unit().Get(f.ctx, course.ID, unit.ID)
	assert.ErrorIs(t, err, ErrUnitNotFound)
	assert.Len(t, f.publisher.EventsOfType(models.ActivityCourseDeleted), 1)
}

func TestCourseService_DeleteMissing(t *testing.T) {
	f := newFixture(t)
	err := f.sm.Course().Delete(f.ctx, 404, adminID)
	requireKind(t, err, ErrNotFound)
}

func TestCourseService_PublishNeedsUnits(t *testing.T) {
	f := newFixture(t)
	course := f.createCourse(t, "AP Biology")

	_, err := f.sm.Course().SetPublished(f.ctx, course.ID, true, adminID)
	assert.ErrorIs(t, err, ErrCourseHasNoUnits)

	f.createUnit(t, course.ID, "Cells", nil)
	published, err := f.sm.Course().SetPublished(f.ctx, course.ID, true, adminID)
	require.NoError(t, err)
	assert.True(t, published.IsPublished)

	// unpublishing has no precondition
	unpublished, err := f.sm.Course().SetPublished(f.ctx, course.ID, false, adminID)
	require.NoError(t, err)
	assert.False(t, unpublished.IsPublished)
}

func TestCourseService_PricingFrozenOnceEnrolled(t *testing.T) {
	f := newFixture(t)
	course := f.createCourse(t, "AP Biology")
	f.createUnit(t, course.ID, "Cells", nil)

	// no enrollments yet: switching to paid is allowed
	updated, err := f.sm.Course().Update(f.ctx, course.ID, &UpdateCourseRequest{IsFree: boolPtr(false), Price: floatPtr(19)}, adminID)
	require.NoError(t, err)
	assert.Equal(t, 19.0, updated.Price)

	// back to free, then enroll
	updated, err = f.sm.Course().Update(f.ctx, course.ID, &UpdateCourseRequest{IsFree: boolPtr(true)}, adminID)
	require.NoError(t, err)
	assert.Zero(t, updated.Price)
	f.publish(t, course.ID)
	f.enroll(t, course.ID, studentID)

	_, err = f.sm.Course().Update(f.ctx, course.ID, &UpdateCourseRequest{IsFree: boolPtr(false), Price: floatPtr(19)}, adminID)
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.Fields(), "isFree")

	renamed, err := f.sm.Course().Update(f.ctx, course.ID, &UpdateCourseRequest{Title: strPtr("AP Biology 2026")}, adminID)
	require.NoError(t, err)
	assert.Equal(t, "AP Biology 2026", renamed.Title)
}

func TestCourseService_ListWithStats(t *testing.T) {
	f := newFixture(t)
	course := f.createCourse(t, "AP Biology")
	unit := f.createUnit(t, course.ID, "Cells", nil)
	f.createLesson(t, course.ID, unit.ID, "Organelles", nil)
	f.createLesson(t, course.ID, unit.ID, "Membranes", nil)
	f.publish(t, course.ID)
	f.enroll(t, course.ID, studentID)
	f.createCourse(t, "AP Chemistry")

	courses, err := f.sm.Course().List(f.ctx)
	require.NoError(t, err)
	require.Len(t, courses, 2)

	var bio *models.CourseWithStats
	for _, c := range courses {
		if c.ID == course.ID {
			bio = c
		}
	}
	require.NotNil(t, bio)
	assert.Equal(t, int64(1), bio.EnrollmentCount)
	assert.Equal(t, int64(1), bio.UnitCount)
	assert.Equal(t, int64(2), bio.LessonCount)
	assert.Equal(t, int64(0), bio.ExamCount)
}

func TestCourseService_ListIsCachedAndInvalidated(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := newFixtureWithCache(t, cache.NewCacheManager(client))
	f.createCourse(t, "AP Biology")

	courses, err := f.sm.Course().List(f.ctx)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.True(t, mr.Exists(cache.CourseCacheConfig.Prefix+cache.CourseListKey))

	// a write drops the cached list
	f.createCourse(t, "AP Chemistry")
	assert.False(t, mr.Exists(cache.CourseCacheConfig.Prefix+cache.CourseListKey))

	courses, err = f.sm.Course().List(f.ctx)
	require.NoError(t, err)
	assert.Len(t, courses, 2)
}

func TestCourseService_GetReturnsSortedContent(t *testing.T) {
	f := newFixture(t)
	course := f.createCourse(t, "AP Biology")
	second := f.createUnit(t, course.ID, "Genetics", nil)
	first := f.createUnit(t, course.ID, "Cells", intPtr(1))

	got, err := f.sm.Course().Get(f.ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, got.Units, 2)
	assert.Equal(t, first.ID, got.Units[0].ID)
	assert.Equal(t, second.ID, got.Units[1].ID)
}
