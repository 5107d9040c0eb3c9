package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"github.com/SAP-F-2025/learning-service/internal/validator"
)

type attemptService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	audit     *auditor
	now       func() time.Time
}

func NewAttemptService(deps Dependencies, audit *auditor) AttemptService {
	return &attemptService{
		repo:      deps.Repo,
		logger:    deps.Logger,
		validator: deps.Validator,
		audit:     audit,
		now:       deps.Now,
	}
}

// ===== ATTEMPT LIFECYCLE =====

// Start opens a new attempt. Preconditions are checked in a fixed order so the
// caller always sees the first one that fails.
func (s *attemptService) Start(ctx context.Context, examID uint, userID string) (*StartAttemptResponse, error) {
	s.logger.Info("Starting attempt", "exam_id", examID, "user_id", userID)

	resolved, err := s.repo.Exam().GetWithCourse(ctx, examID)
	if err != nil {
		return nil, mapRepoError(err, ErrExamNotFound, "load exam")
	}
	exam := resolved.Exam
	now := s.now()

	if err := s.requireActiveEnrollment(ctx, userID, resolved.CourseID, now); err != nil {
		return nil, err
	}

	if !exam.IsPublished {
		return nil, ErrExamNotPublished
	}

	if err := checkAvailability(exam, now); err != nil {
		return nil, err
	}

	current, err := s.repo.Attempt().GetInProgress(ctx, examID, userID)
	switch {
	case err == nil:
		return nil, NewAttemptInProgressError(current.ID)
	case !repositories.IsNotFoundError(err):
		return nil, fmt.Errorf("failed to check in-progress attempt: %w", err)
	}

	completed, err := s.repo.Attempt().CountCompleted(ctx, examID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count attempts: %w", err)
	}
	if completed >= int64(exam.MaxAttempts) {
		return nil, ErrAttemptLimitExceeded
	}

	attemptNumber := int(completed) + 1
	attempt := &models.ExamAttempt{
		ExamID:    examID,
		UserID:    userID,
		StartedAt: now,
		Answers:   datatypes.NewJSONType(models.AttemptAnswers{}),
		Status:    models.AttemptInProgress,
	}

	var entry *models.ActivityLog
	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Attempt().Create(ctx, attempt); err != nil {
			return err
		}
		var err error
		entry, err = s.audit.record(ctx, tx, userID, models.ActivityAttemptStarted, models.EntityAttempt, attempt.ID, map[string]interface{}{
			"examId":        examID,
			"attemptNumber": attemptNumber,
		})
		return err
	})
	if err != nil {
		if repositories.IsDuplicateError(err) {
			// Lost the race against a concurrent start.
			return nil, s.inProgressConflict(ctx, examID, userID)
		}
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}

	s.audit.publish(ctx, entry)

	s.logger.Info("Attempt started", "attempt_id", attempt.ID, "exam_id", examID, "attempt_number", attemptNumber)
	return &StartAttemptResponse{
		ExamAttempt:   attempt,
		AttemptNumber: attemptNumber,
		ExpiresAt:     deadline(attempt, exam),
	}, nil
}

func (s *attemptService) List(ctx context.Context, examID uint, userID string) (*AttemptListResponse, error) {
	exam, err := s.repo.Exam().GetByID(ctx, examID)
	if err != nil {
		return nil, mapRepoError(err, ErrExamNotFound, "load exam")
	}

	attempts, err := s.repo.Attempt().ListByExamAndUser(ctx, examID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	return &AttemptListResponse{
		Attempts: attempts,
		Summary:  summarizeAttempts(attempts, exam.MaxAttempts),
	}, nil
}

// Save merges answers and moves the cursor of an in-progress attempt.
func (s *attemptService) Save(ctx context.Context, examID, attemptID uint, req *SaveAttemptRequest, userID string) (*models.ExamAttempt, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var attempt *models.ExamAttempt
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		var (
			exam *models.UnitExam
			err  error
		)
		attempt, exam, err = loadOwnAttempt(ctx, tx, examID, attemptID, userID)
		if err != nil {
			return err
		}
		if !attempt.InProgress() {
			return ErrAttemptAlreadySubmitted
		}

		now := s.now()
		if expired(attempt, exam, now) {
			return ErrAttemptTimeExpired
		}

		mergeAnswers(attempt, req.Answers)
		if req.CurrentSection != nil {
			attempt.CurrentSection = *req.CurrentSection
		}
		if req.CurrentQuestion != nil {
			attempt.CurrentQuestion = *req.CurrentQuestion
		}
		attempt.TimeUsed = secondsSince(attempt.StartedAt, now)

		return mapRepoError(tx.Attempt().Update(ctx, attempt), ErrAttemptNotFound, "save attempt")
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Attempt progress saved", "attempt_id", attemptID, "answers", len(attempt.Answers.Data()))
	return attempt, nil
}

// Submit scores the attempt, closes it and refreshes the learner's course progress.
func (s *attemptService) Submit(ctx context.Context, examID, attemptID uint, req *SubmitAttemptRequest, userID string) (*models.ExamAttempt, error) {
	s.logger.Info("Submitting attempt", "attempt_id", attemptID, "exam_id", examID, "user_id", userID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var (
		attempt *models.ExamAttempt
		entry   *models.ActivityLog
	)
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		var (
			exam *models.UnitExam
			err  error
		)
		attempt, exam, err = loadOwnAttempt(ctx, tx, examID, attemptID, userID)
		if err != nil {
			return err
		}
		if !attempt.InProgress() {
			return ErrAttemptAlreadySubmitted
		}

		now := s.now()
		if expired(attempt, exam, now) {
			s.logger.Info("Attempt submitted after time limit, keeping saved answers", "attempt_id", attemptID)
		} else {
			mergeAnswers(attempt, req.Answers)
		}

		set, err := models.ParseQuestionSet(exam.Questions)
		if err != nil {
			return fmt.Errorf("failed to parse exam %d questions: %w", exam.ID, err)
		}
		result := gradeAttempt(set, attempt.Answers.Data(), exam.PassingScore)

		attempt.Score = &result.Score
		attempt.Passed = &result.Passed
		attempt.Status = models.AttemptCompleted
		attempt.CompletedAt = &now
		attempt.TimeUsed = secondsSince(attempt.StartedAt, now)

		if err := tx.Attempt().Update(ctx, attempt); err != nil {
			return mapRepoError(err, ErrAttemptNotFound, "submit attempt")
		}

		if err := s.refreshProgress(ctx, tx, examID, userID, now); err != nil {
			return err
		}

		entry, err = s.audit.record(ctx, tx, userID, models.ActivityAttemptSubmitted, models.EntityAttempt, attempt.ID, map[string]interface{}{
			"examId":   examID,
			"score":    result.Score,
			"passed":   result.Passed,
			"timeUsed": attempt.TimeUsed,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit.publish(ctx, entry)

	s.logger.Info("Attempt submitted", "attempt_id", attemptID, "score", *attempt.Score, "passed", *attempt.Passed)
	return attempt, nil
}

// ===== HELPERS =====

func (s *attemptService) requireActiveEnrollment(ctx context.Context, userID string, courseID uint, now time.Time) error {
	enrollment, err := s.repo.Enrollment().GetByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return mapRepoError(err, ErrNotEnrolled, "load enrollment")
	}
	if !enrollment.IsActive(now) {
		return ErrNotEnrolled
	}
	return nil
}

func (s *attemptService) inProgressConflict(ctx context.Context, examID uint, userID string) error {
	current, err := s.repo.Attempt().GetInProgress(ctx, examID, userID)
	if err != nil {
		return fmt.Errorf("failed to load in-progress attempt: %w", err)
	}
	return NewAttemptInProgressError(current.ID)
}

// refreshProgress recomputes the enrollment once a new exam counts as completed.
func (s *attemptService) refreshProgress(ctx context.Context, tx repositories.Repository, examID uint, userID string, now time.Time) error {
	resolved, err := tx.Exam().GetWithCourse(ctx, examID)
	if err != nil {
		return mapRepoError(err, ErrExamNotFound, "load exam")
	}

	enrollment, err := tx.Enrollment().LockByUserAndCourse(ctx, userID, resolved.CourseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil
		}
		return fmt.Errorf("failed to load enrollment: %w", err)
	}

	course, err := tx.Course().GetWithContent(ctx, resolved.CourseID)
	if err != nil {
		return mapRepoError(err, ErrCourseNotFound, "load course content")
	}

	_, err = syncEnrollmentProgress(ctx, tx, enrollment, course, now)
	return err
}

// loadOwnAttempt hides attempts of other users or other exams behind a 404.
func loadOwnAttempt(ctx context.Context, repo repositories.Repository, examID, attemptID uint, userID string) (*models.ExamAttempt, *models.UnitExam, error) {
	attempt, err := repo.Attempt().GetByID(ctx, attemptID)
	if err != nil {
		return nil, nil, mapRepoError(err, ErrAttemptNotFound, "load attempt")
	}
	if attempt.ExamID != examID || attempt.UserID != userID {
		return nil, nil, ErrAttemptNotFound
	}

	exam, err := repo.Exam().GetByID(ctx, examID)
	if err != nil {
		return nil, nil, mapRepoError(err, ErrExamNotFound, "load exam")
	}
	return attempt, exam, nil
}

func checkAvailability(exam *models.UnitExam, now time.Time) error {
	if exam.AvailableFrom != nil && now.Before(*exam.AvailableFrom) {
		return NewExamNotYetAvailableError(*exam.AvailableFrom)
	}
	if exam.AvailableUntil != nil && now.After(*exam.AvailableUntil) {
		return NewExamNoLongerAvailableError(*exam.AvailableUntil)
	}
	return nil
}

// deadline is StartedAt plus the time limit, nil without a limit.
func deadline(attempt *models.ExamAttempt, exam *models.UnitExam) *time.Time {
	if exam.TimeLimit == nil || *exam.TimeLimit <= 0 {
		return nil
	}
	t := attempt.StartedAt.Add(time.Duration(*exam.TimeLimit) * time.Minute)
	return &t
}

func expired(attempt *models.ExamAttempt, exam *models.UnitExam, now time.Time) bool {
	d := deadline(attempt, exam)
	return d != nil && now.After(*d)
}

func mergeAnswers(attempt *models.ExamAttempt, answers map[string]interface{}) {
	if len(answers) == 0 {
		return
	}
	merged := models.AttemptAnswers{}
	for k, v := range attempt.Answers.Data() {
		merged[k] = v
	}
	for k, v := range answers {
		merged[k] = v
	}
	attempt.Answers = datatypes.NewJSONType(merged)
}

func secondsSince(start, now time.Time) int {
	if now.Before(start) {
		return 0
	}
	return int(now.Sub(start) / time.Second)
}

// summarizeAttempts expects attempts newest first.
func summarizeAttempts(attempts []*models.ExamAttempt, maxAttempts int) AttemptSummary {
	summary := AttemptSummary{
		TotalAttempts: len(attempts),
		MaxAttempts:   maxAttempts,
	}
	for _, a := range attempts {
		if a.InProgress() {
			if !summary.HasInProgress {
				id := a.ID
				summary.HasInProgress = true
				summary.InProgressAttemptID = &id
			}
			continue
		}
		summary.CompletedAttempts++
		if a.Score != nil && (summary.BestScore == nil || *a.Score > *summary.BestScore) {
			score := *a.Score
			summary.BestScore = &score
		}
	}
	return summary
}
