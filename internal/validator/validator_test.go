package validator

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/ordering"
)

func strPtr(s string) *string     { return &s }
func boolPtr(b bool) *bool        { return &b }
func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	var ve ValidationErrors
	require.ErrorAs(t, err, &ve)
	return ve.Fields()
}

func TestValidate_CourseCreate(t *testing.T) {
	v := New()

	t.Run("valid", func(t *testing.T) {
		req := &CourseCreateRequest{Title: "AP Calculus AB", APExamType: "AP Calculus AB"}
		assert.NoError(t, v.Validate(req))
	})

	t.Run("missing title and exam type", func(t *testing.T) {
		fields := fieldsOf(t, v.Validate(&CourseCreateRequest{}))
		assert.Contains(t, fields, "title")
		assert.Contains(t, fields, "apExamType")
	})

	t.Run("bad image url", func(t *testing.T) {
		req := &CourseCreateRequest{Title: "T", APExamType: "X", ImageURL: strPtr("not a url")}
		fields := fieldsOf(t, v.Validate(req))
		assert.Equal(t, "must be a valid URL", fields["imageUrl"])
	})

	t.Run("nested settings use json names", func(t *testing.T) {
		req := &CourseCreateRequest{
			Title:      "T",
			APExamType: "X",
			Settings: &CourseSettingsRequest{
				PassingGrade:     intPtr(120),
				ProgressTracking: strPtr("strict"),
			},
		}
		fields := fieldsOf(t, v.Validate(req))
		assert.Contains(t, fields, "settings.passingGrade")
		assert.Contains(t, fields, "settings.progressTracking")
	})
}

func TestBusinessValidator_PaidCourseNeedsPrice(t *testing.T) {
	bv := New().GetBusinessValidator()

	errs := bv.ValidateCourseCreate(&CourseCreateRequest{Title: "T", APExamType: "X", IsFree: boolPtr(false)})
	assert.Contains(t, errs.Fields(), "price")

	errs = bv.ValidateCourseCreate(&CourseCreateRequest{Title: "T", APExamType: "X", IsFree: boolPtr(false), Price: floatPtr(-1)})
	assert.Contains(t, errs.Fields(), "price")

	errs = bv.ValidateCourseCreate(&CourseCreateRequest{Title: "T", APExamType: "X", IsFree: boolPtr(false), Price: floatPtr(49)})
	assert.Empty(t, errs)
}

func TestBusinessValidator_PricingFrozenWithEnrollments(t *testing.T) {
	bv := New().GetBusinessValidator()
	existing := &models.Course{IsFree: false, Price: 49}

	errs := bv.ValidateCourseUpdate(&CourseUpdateRequest{Price: floatPtr(59)}, existing, true)
	assert.Contains(t, errs.Fields(), "price")

	errs = bv.ValidateCourseUpdate(&CourseUpdateRequest{IsFree: boolPtr(true)}, existing, true)
	assert.Contains(t, errs.Fields(), "isFree")

	errs = bv.ValidateCourseUpdate(&CourseUpdateRequest{Price: floatPtr(49), Title: strPtr("Renamed")}, existing, true)
	assert.Empty(t, errs)

	errs = bv.ValidateCourseUpdate(&CourseUpdateRequest{Price: floatPtr(59)}, existing, false)
	assert.Empty(t, errs)
}

func TestValidate_LessonTitleAndVideo(t *testing.T) {
	v := New()

	fields := fieldsOf(t, v.Validate(&LessonCreateRequest{Title: " ab ", VideoURL: strPtr("youtube")}))
	assert.Equal(t, "must be at least 3 characters", fields["title"])
	assert.Equal(t, "must be a valid URL", fields["videoUrl"])

	assert.NoError(t, v.Validate(&LessonCreateRequest{Title: "Limits", VideoURL: strPtr("https://videos.example.com/limits")}))
}

func TestValidate_ReorderEntries(t *testing.T) {
	v := New()

	assert.Error(t, v.Validate(&UnitReorderRequest{}))
	assert.Error(t, v.Validate(&UnitReorderRequest{UnitOrder: []ordering.Update{{ID: 0, Order: 1}}}))
	assert.Error(t, v.Validate(&LessonReorderRequest{LessonOrder: []ordering.Update{{ID: 1, Order: -1}}}))
	assert.Error(t, v.Validate(&LessonReorderRequest{LessonOrder: []ordering.Update{{ID: 1, Order: 0}}}))
	assert.NoError(t, v.Validate(&LessonReorderRequest{LessonOrder: []ordering.Update{{ID: 1, Order: 1}}}))
}

func TestBusinessValidator_Exam(t *testing.T) {
	bv := New().GetBusinessValidator()
	now := time.Now()
	later := now.Add(time.Hour)

	errs := bv.ValidateExamCreate(&ExamCreateRequest{Title: "Unit 1 test", MaxAttempts: 0})
	assert.Contains(t, errs.Fields(), "maxAttempts")

	errs = bv.ValidateExamCreate(&ExamCreateRequest{Title: "Unit 1 test", MaxAttempts: 1, AvailableFrom: &later, AvailableUntil: &now})
	assert.Contains(t, errs.Fields(), "availableUntil")

	errs = bv.ValidateExamCreate(&ExamCreateRequest{Title: "Unit 1 test", MaxAttempts: 1, Questions: json.RawMessage(`{"sections":[{"questions":[{"id":"q1"},{"id":"q1"}]}]}`)})
	assert.Contains(t, errs.Fields(), "questions")

	existing := &models.UnitExam{AvailableFrom: &later}
	errs = bv.ValidateExamUpdate(&ExamUpdateRequest{AvailableUntil: &now}, existing)
	assert.Contains(t, errs.Fields(), "availableUntil")
}
