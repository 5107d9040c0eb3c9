package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/learning-service/internal/cache"
	"github.com/SAP-F-2025/learning-service/internal/events"
	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories/memory"
)

const (
	adminID   = "admin-1"
	studentID = "student-1"
)

// testClock is a settable clock shared by every service of a fixture.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	ctx       context.Context
	repo      *memory.Repository
	publisher *events.MockEventPublisher
	clock     *testClock
	sm        ServiceManager
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithCache(t, nil)
}

func newFixtureWithCache(t *testing.T, cm *cache.CacheManager) *fixture {
	t.Helper()

	logger := testLogger()
	f := &fixture{
		ctx:       context.Background(),
		repo:      memory.NewRepository(),
		publisher: events.NewMockEventPublisher(logger),
		clock:     &testClock{t: time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC)},
	}
	f.sm = NewDefaultServiceManager(Dependencies{
		Repo:      f.repo,
		Logger:    logger,
		Cache:     cm,
		Publisher: f.publisher,
		Now:       f.clock.Now,
	})
	require.NoError(t, f.sm.Initialize(f.ctx))
	t.Cleanup(func() { _ = f.sm.Shutdown(context.Background()) })
	return f
}

func boolPtr(b bool) *bool           { return &b }
func intPtr(i int) *int              { return &i }
func floatPtr(f float64) *float64    { return &f }
func strPtr(s string) *string        { return &s }
func timePtr(t time.Time) *time.Time { return &t }

// requireKind asserts err is a ServiceError (or wraps one) of the given kind.
func requireKind(t *testing.T, err error, kind error) *ServiceError {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, kind)
	var svcErr *ServiceError
	require.True(t, errors.As(err, &svcErr), "expected ServiceError, got %T: %v", err, err)
	return svcErr
}

func (f *fixture) createCourse(t *testing.T, title string) *models.Course {
	t.Helper()
	course, err := f.sm.Course().Create(f.ctx, &CreateCourseRequest{
		Title:      title,
		APExamType: "AP Biology",
	}, adminID)
	require.NoError(t, err)
	return course
}

func (f *fixture) createUnit(t *testing.T, courseID uint, title string, order *int) *models.Unit {
	t.Helper()
	unit, err := f.sm.Unit().Create(f.ctx, courseID, &CreateUnitRequest{Title: title, Order: order}, adminID)
	require.NoError(t, err)
	return unit
}

func (f *fixture) createLesson(t *testing.T, courseID, unitID uint, title string, order *int) *models.Lesson {
	t.Helper()
	lesson, err := f.sm.Lesson().Create(f.ctx, courseID, unitID, &CreateLessonRequest{Title: title, Order: order}, adminID)
	require.NoError(t, err)
	return lesson
}

func (f *fixture) createExam(t *testing.T, courseID, unitID uint, req *CreateExamRequest) *models.UnitExam {
	t.Helper()
	exam, err := f.sm.Exam().Create(f.ctx, courseID, unitID, req, adminID)
	require.NoError(t, err)
	return exam
}

func (f *fixture) publish(t *testing.T, courseID uint) {
	t.Helper()
	_, err := f.sm.Course().SetPublished(f.ctx, courseID, true, adminID)
	require.NoError(t, err)
}

func (f *fixture) enroll(t *testing.T, courseID uint, userID string) *models.Enrollment {
	t.Helper()
	resp, err := f.sm.Enrollment().Enroll(f.ctx, &EnrollRequest{CourseID: courseID}, userID)
	require.NoError(t, err)
	require.NotNil(t, resp.Enrollment)
	return resp.Enrollment
}

// sampleQuestions is worth 4 gradable points; the essay is not scored.
var sampleQuestions = json.RawMessage(`{"sections":[{"title":"Cells","questions":[
	{"id":"q1","type":"multiple_choice","prompt":"Powerhouse?","options":["nucleus","mitochondria","ribosome"],"answer":"mitochondria","points":1},
	{"id":"q2","type":"true_false","prompt":"Plants have cell walls","answer":true,"points":1},
	{"id":"q3","type":"short_answer","prompt":"Site of photosynthesis","answer":["chloroplast","chloroplasts"],"points":2},
	{"id":"q4","type":"essay","prompt":"Explain osmosis","points":5}
]}]}`)

// examCourse is a published course with one unit, one lesson and one published
// exam allowing maxAttempts attempts. studentID is enrolled.
type examCourse struct {
	course *models.Course
	unit   *models.Unit
	lesson *models.Lesson
	exam   *models.UnitExam
}

func (f *fixture) seedExamCourse(t *testing.T, maxAttempts int) examCourse {
	t.Helper()
	course := f.createCourse(t, "AP Biology")
	unit := f.createUnit(t, course.ID, "Cells", nil)
	lesson := f.createLesson(t, course.ID, unit.ID, "Organelles", nil)
	exam := f.createExam(t, course.ID, unit.ID, &CreateExamRequest{
		Title:        "Cells exam",
		Questions:    sampleQuestions,
		PassingScore: 70,
		MaxAttempts:  maxAttempts,
		IsPublished:  true,
	})
	f.publish(t, course.ID)
	f.enroll(t, course.ID, studentID)
	return examCourse{course: course, unit: unit, lesson: lesson, exam: exam}
}
