package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/ordering"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
)

// statement is what gorm built for one call; nothing reaches a server.
type statement struct {
	SQL    string
	Vars   []interface{}
	Values map[string]interface{}
}

type statementLog struct {
	mu         sync.Mutex
	statements []statement
}

func (l *statementLog) capture(tx *gorm.DB) {
	st := statement{
		SQL:  tx.Statement.SQL.String(),
		Vars: append([]interface{}(nil), tx.Statement.Vars...),
	}
	if c, ok := tx.Statement.Clauses["VALUES"]; ok {
		if values, ok := c.Expression.(clause.Values); ok && len(values.Values) > 0 {
			st.Values = make(map[string]interface{}, len(values.Columns))
			for i, col := range values.Columns {
				st.Values[col.Name] = values.Values[0][i]
			}
		}
	}
	l.mu.Lock()
	l.statements = append(l.statements, st)
	l.mu.Unlock()
}

func (l *statementLog) all() []statement {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]statement(nil), l.statements...)
}

func (l *statementLog) last(t *testing.T) statement {
	t.Helper()
	all := l.all()
	require.NotEmpty(t, all, "no statement was built")
	return all[len(all)-1]
}

func setupDryRun(t *testing.T) (*gorm.DB, *statementLog) {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=learning password=learning dbname=learning port=5432 sslmode=disable",
	}), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	log := &statementLog{}
	require.NoError(t, db.Callback().Create().After("gorm:create").Register("test:capture_create", log.capture))
	require.NoError(t, db.Callback().Update().After("gorm:update").Register("test:capture_update", log.capture))
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("test:capture_query", log.capture))
	return db, log
}

func TestCourseCreate_PaidCourseStaysPaid(t *testing.T) {
	db, log := setupDryRun(t)
	repo := NewCoursePostgreSQL(db)

	course := &models.Course{
		Title:      "AP Chemistry",
		APExamType: "AP Chemistry",
		IsFree:     false,
		Price:      49.99,
		Settings:   models.DefaultCourseSettings(),
	}
	course.Settings.PassingGrade = 0

	require.NoError(t, repo.Create(context.Background(), course))

	st := log.last(t)
	assert.Contains(t, st.SQL, `INSERT INTO "courses"`)
	assert.Equal(t, false, st.Values["is_free"])
	assert.Equal(t, 49.99, st.Values["price"])
	assert.Equal(t, 0, st.Values["settings_passing_grade"])
	assert.False(t, course.IsFree)
	assert.Equal(t, 0, course.Settings.PassingGrade)
}

func TestExamAndQuizCreate_KeepZeroPassingScore(t *testing.T) {
	db, log := setupDryRun(t)
	ctx := context.Background()

	exam := &models.UnitExam{UnitID: 1, Title: "Unit 1 exam", PassingScore: 0, MaxAttempts: 3}
	require.NoError(t, NewExamPostgreSQL(db).Create(ctx, exam))
	st := log.last(t)
	assert.Contains(t, st.SQL, `INSERT INTO "unit_exams"`)
	assert.Equal(t, 0, st.Values["passing_score"])
	assert.Equal(t, 3, st.Values["max_attempts"])
	assert.Equal(t, 0, exam.PassingScore)

	quiz := &models.LessonQuiz{LessonID: 1, Title: "Warm-up", PassingScore: 0}
	require.NoError(t, NewQuizPostgreSQL(db).Create(ctx, quiz))
	st = log.last(t)
	assert.Contains(t, st.SQL, `INSERT INTO "lesson_quizzes"`)
	assert.Equal(t, 0, st.Values["passing_score"])
	assert.Equal(t, 0, quiz.PassingScore)
}

func TestAttemptCreate_TargetsInFlightIndex(t *testing.T) {
	db, log := setupDryRun(t)

	attempt := &models.ExamAttempt{ExamID: 7, UserID: "user-1", StartedAt: time.Now(), Status: models.AttemptInProgress}
	err := NewAttemptPostgreSQL(db).Create(context.Background(), attempt)

	// a dry run affects no rows, which is how a lost race looks
	assert.ErrorIs(t, err, repositories.ErrDuplicate)

	st := log.last(t)
	assert.Contains(t, st.SQL, `INSERT INTO "exam_attempts"`)
	assert.Contains(t, st.SQL, `ON CONFLICT ("exam_id","user_id") WHERE completed_at IS NULL DO NOTHING`)
	assert.Equal(t, uint(7), st.Values["exam_id"])
	assert.Equal(t, "user-1", st.Values["user_id"])
}

func TestEnrollmentCreateIfAbsent_DoesNothingOnConflict(t *testing.T) {
	db, log := setupDryRun(t)

	enrollment := &models.Enrollment{
		UserID:        "user-1",
		CourseID:      3,
		PaymentStatus: models.PaymentFree,
		Status:        models.EnrollmentActive,
		EnrolledAt:    time.Now(),
	}
	created, err := NewEnrollmentPostgreSQL(db).CreateIfAbsent(context.Background(), enrollment)
	require.NoError(t, err)
	assert.False(t, created)

	st := log.last(t)
	assert.Contains(t, st.SQL, `INSERT INTO "enrollments"`)
	assert.Contains(t, st.SQL, `ON CONFLICT ("user_id","course_id") DO NOTHING`)
	assert.Equal(t, "user-1", st.Values["user_id"])
	assert.Equal(t, uint(3), st.Values["course_id"])
}

func TestUnitUpdateOrders_QuotesOrderAndScopesToCourse(t *testing.T) {
	db, log := setupDryRun(t)

	err := NewUnitPostgreSQL(db).UpdateOrders(context.Background(), 5, []ordering.Update{{ID: 11, Order: 2}})
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	st := log.last(t)
	assert.Contains(t, st.SQL, `UPDATE "units" SET "order"=$1`)
	assert.Contains(t, st.SQL, `id = $`)
	assert.Contains(t, st.SQL, `"course_id" = $`)
	assert.Contains(t, st.Vars, 2)
	assert.Contains(t, st.Vars, uint(11))
	assert.Contains(t, st.Vars, uint(5))
}

func TestLessonUpdateOrders_StopsAtFirstMiss(t *testing.T) {
	db, log := setupDryRun(t)

	err := NewLessonPostgreSQL(db).UpdateOrders(context.Background(), 9, []ordering.Update{{ID: 1, Order: 2}, {ID: 2, Order: 1}})
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	all := log.all()
	require.Len(t, all, 1)
	assert.Contains(t, all[0].SQL, `UPDATE "lessons" SET "order"=$1`)
	assert.Contains(t, all[0].SQL, `"unit_id" = $`)
}

func TestCourseUpdate_WritesZeroValues(t *testing.T) {
	db, log := setupDryRun(t)

	course := &models.Course{ID: 4, Title: "AP Physics", APExamType: "AP Physics 1", IsFree: false, Price: 20}
	err := NewCoursePostgreSQL(db).Update(context.Background(), course)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	st := log.last(t)
	assert.Contains(t, st.SQL, `UPDATE "courses" SET`)
	assert.Contains(t, st.SQL, `"is_free"=`)
	assert.Contains(t, st.SQL, `"is_published"=`)
	assert.Contains(t, st.SQL, `"settings_passing_grade"=`)
	assert.NotContains(t, st.SQL, `"created_at"=`)
	assert.Contains(t, st.Vars, false)
}

func TestCourseLockByID_SelectsForUpdate(t *testing.T) {
	db, log := setupDryRun(t)

	_, err := NewCoursePostgreSQL(db).LockByID(context.Background(), 4)
	require.NoError(t, err)

	st := log.last(t)
	assert.Contains(t, st.SQL, `SELECT * FROM "courses"`)
	assert.Contains(t, st.SQL, `FOR UPDATE`)
}

func TestUserUpsert_RefreshesProfileColumns(t *testing.T) {
	db, log := setupDryRun(t)

	user := &models.User{ID: "casdoor-1", FullName: "Ada", Email: "ada@example.com", Role: models.RoleStudent}
	require.NoError(t, NewUserPostgreSQL(db).Upsert(context.Background(), user))
	require.NotNil(t, user.LastSeenAt)

	st := log.last(t)
	assert.Contains(t, st.SQL, `INSERT INTO "users"`)
	assert.Contains(t, st.SQL, `ON CONFLICT ("id") DO UPDATE SET`)
	assert.Contains(t, st.SQL, `"last_seen_at"="excluded"."last_seen_at"`)
	assert.NotContains(t, st.SQL, `"created_at"="excluded"`)
}
