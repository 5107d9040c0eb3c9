package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
)

// ===== ENROLLMENTS =====

type enrollmentRepo struct{ r *Repository }

func (e *enrollmentRepo) CreateIfAbsent(ctx context.Context, enrollment *models.Enrollment) (bool, error) {
	defer e.r.lock()()
	s := e.r.s
	if _, ok := s.courses[enrollment.CourseID]; !ok {
		return false, fmt.Errorf("course %d: %w", enrollment.CourseID, repositories.ErrNotFound)
	}
	for _, existing := range s.enrollments {
		if existing.UserID == enrollment.UserID && existing.CourseID == enrollment.CourseID {
			return false, nil
		}
	}
	enrollment.ID = s.nextID("enrollments")
	now := e.r.now()
	stamp(&enrollment.CreatedAt, &enrollment.UpdatedAt, now)
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = now
	}
	s.enrollments[enrollment.ID] = cloneEnrollment(*enrollment)
	return true, nil
}

func (e *enrollmentRepo) GetByUserAndCourse(ctx context.Context, userID string, courseID uint) (*models.Enrollment, error) {
	defer e.r.lock()()
	for _, existing := range e.r.s.enrollments {
		if existing.UserID == userID && existing.CourseID == courseID {
			out := cloneEnrollment(existing)
			return &out, nil
		}
	}
	return nil, fmt.Errorf("enrollment of %s in course %d: %w", userID, courseID, repositories.ErrNotFound)
}

func (e *enrollmentRepo) LockByUserAndCourse(ctx context.Context, userID string, courseID uint) (*models.Enrollment, error) {
	return e.GetByUserAndCourse(ctx, userID, courseID)
}

func (e *enrollmentRepo) ListByUser(ctx context.Context, userID string) ([]*models.Enrollment, error) {
	defer e.r.lock()()
	return e.filter(func(en models.Enrollment) bool { return en.UserID == userID }), nil
}

func (e *enrollmentRepo) ListByCourse(ctx context.Context, courseID uint) ([]*models.Enrollment, error) {
	defer e.r.lock()()
	return e.filter(func(en models.Enrollment) bool { return en.CourseID == courseID }), nil
}

func (e *enrollmentRepo) CountByCourse(ctx context.Context, courseID uint) (int64, error) {
	defer e.r.lock()()
	var n int64
	for _, en := range e.r.s.enrollments {
		if en.CourseID == courseID {
			n++
		}
	}
	return n, nil
}

func (e *enrollmentRepo) Update(ctx context.Context, enrollment *models.Enrollment) error {
	defer e.r.lock()()
	s := e.r.s
	existing, ok := s.enrollments[enrollment.ID]
	if !ok {
		return fmt.Errorf("enrollment %d: %w", enrollment.ID, repositories.ErrNotFound)
	}
	enrollment.CreatedAt = existing.CreatedAt
	enrollment.UpdatedAt = e.r.now()
	s.enrollments[enrollment.ID] = cloneEnrollment(*enrollment)
	return nil
}

// filter returns matches ordered by enrollment time, newest first. Caller holds the lock.
func (e *enrollmentRepo) filter(match func(models.Enrollment) bool) []*models.Enrollment {
	var out []*models.Enrollment
	for _, en := range e.r.s.enrollments {
		if match(en) {
			c := cloneEnrollment(en)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EnrolledAt.Equal(out[j].EnrolledAt) {
			return out[i].EnrolledAt.After(out[j].EnrolledAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// ===== ATTEMPTS =====

type attemptRepo struct{ r *Repository }

func (a *attemptRepo) Create(ctx context.Context, attempt *models.ExamAttempt) error {
	defer a.r.lock()()
	s := a.r.s
	if _, ok := s.exams[attempt.ExamID]; !ok {
		return fmt.Errorf("exam %d: %w", attempt.ExamID, repositories.ErrNotFound)
	}
	if attempt.CompletedAt == nil {
		for _, existing := range s.attempts {
			if existing.ExamID == attempt.ExamID && existing.UserID == attempt.UserID && existing.InProgress() {
				return fmt.Errorf("attempt in flight for exam %d: %w", attempt.ExamID, repositories.ErrDuplicate)
			}
		}
	}
	attempt.ID = s.nextID("exam_attempts")
	stamp(&attempt.CreatedAt, &attempt.UpdatedAt, a.r.now())
	s.attempts[attempt.ID] = cloneAttempt(*attempt)
	return nil
}

func (a *attemptRepo) GetByID(ctx context.Context, id uint) (*models.ExamAttempt, error) {
	defer a.r.lock()()
	attempt, ok := a.r.s.attempts[id]
	if !ok {
		return nil, fmt.Errorf("attempt %d: %w", id, repositories.ErrNotFound)
	}
	out := cloneAttempt(attempt)
	return &out, nil
}

func (a *attemptRepo) GetInProgress(ctx context.Context, examID uint, userID string) (*models.ExamAttempt, error) {
	defer a.r.lock()()
	for _, attempt := range a.r.s.attempts {
		if attempt.ExamID == examID && attempt.UserID == userID && attempt.InProgress() {
			out := cloneAttempt(attempt)
			return &out, nil
		}
	}
	return nil, fmt.Errorf("in-flight attempt for exam %d: %w", examID, repositories.ErrNotFound)
}

func (a *attemptRepo) CountCompleted(ctx context.Context, examID uint, userID string) (int64, error) {
	defer a.r.lock()()
	var n int64
	for _, attempt := range a.r.s.attempts {
		if attempt.ExamID == examID && attempt.UserID == userID && !attempt.InProgress() {
			n++
		}
	}
	return n, nil
}

func (a *attemptRepo) ListByExamAndUser(ctx context.Context, examID uint, userID string) ([]*models.ExamAttempt, error) {
	defer a.r.lock()()
	var out []*models.ExamAttempt
	for _, attempt := range a.r.s.attempts {
		if attempt.ExamID == examID && attempt.UserID == userID {
			c := cloneAttempt(attempt)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (a *attemptRepo) CompletedExamIDs(ctx context.Context, userID string, examIDs []uint) (map[uint]bool, error) {
	defer a.r.lock()()
	wanted := make(map[uint]bool, len(examIDs))
	for _, id := range examIDs {
		wanted[id] = true
	}
	out := make(map[uint]bool)
	for _, attempt := range a.r.s.attempts {
		if attempt.UserID == userID && wanted[attempt.ExamID] && !attempt.InProgress() {
			out[attempt.ExamID] = true
		}
	}
	return out, nil
}

func (a *attemptRepo) Update(ctx context.Context, attempt *models.ExamAttempt) error {
	defer a.r.lock()()
	s := a.r.s
	existing, ok := s.attempts[attempt.ID]
	if !ok {
		return fmt.Errorf("attempt %d: %w", attempt.ID, repositories.ErrNotFound)
	}
	attempt.CreatedAt = existing.CreatedAt
	attempt.UpdatedAt = a.r.now()
	s.attempts[attempt.ID] = cloneAttempt(*attempt)
	return nil
}

// ===== ACTIVITY =====

type activityRepo struct{ r *Repository }

func (a *activityRepo) Create(ctx context.Context, entry *models.ActivityLog) error {
	defer a.r.lock()()
	s := a.r.s
	entry.ID = s.nextID("activity_logs")
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = a.r.now()
	}
	s.activity = append(s.activity, *entry)
	return nil
}

func (a *activityRepo) ListByEntity(ctx context.Context, entityType string, entityID uint) ([]*models.ActivityLog, error) {
	defer a.r.lock()()
	var out []*models.ActivityLog
	for i := len(a.r.s.activity) - 1; i >= 0; i-- {
		entry := a.r.s.activity[i]
		if entry.EntityType == entityType && entry.EntityID == entityID {
			out = append(out, &entry)
		}
	}
	return out, nil
}

// ===== USERS =====

type userRepo struct{ r *Repository }

func (u *userRepo) Upsert(ctx context.Context, user *models.User) error {
	defer u.r.lock()()
	s := u.r.s
	now := u.r.now()
	if existing, ok := s.users[user.ID]; ok {
		user.CreatedAt = existing.CreatedAt
	}
	stamp(&user.CreatedAt, &user.UpdatedAt, now)
	user.LastSeenAt = &now
	s.users[user.ID] = *user
	return nil
}

func (u *userRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	defer u.r.lock()()
	user, ok := u.r.s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, repositories.ErrNotFound)
	}
	return &user, nil
}

func (u *userRepo) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	defer u.r.lock()()
	out := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		if user, ok := u.r.s.users[id]; ok {
			c := user
			out = append(out, &c)
		}
	}
	return out, nil
}
