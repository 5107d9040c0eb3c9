package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/learning-service/internal/cache"
	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"github.com/SAP-F-2025/learning-service/internal/validator"
)

var emptyExamQuestions = datatypes.JSON(`{"sections":[]}`)

type examService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	cache     *cache.CacheManager
}

func NewExamService(deps Dependencies) ExamService {
	return &examService{
		repo:      deps.Repo,
		logger:    deps.Logger,
		validator: deps.Validator,
		cache:     deps.Cache,
	}
}

func (s *examService) List(ctx context.Context, courseID, unitID uint) ([]*models.UnitExam, error) {
	if _, err := getUnitInCourse(ctx, s.repo, courseID, unitID); err != nil {
		return nil, err
	}
	exams, err := s.repo.Exam().ListByUnit(ctx, unitID)
	if err != nil {
		return nil, fmt.Errorf("failed to list exams: %w", err)
	}
	return exams, nil
}

func (s *examService) Create(ctx context.Context, courseID, unitID uint, req *CreateExamRequest, userID string) (*models.UnitExam, error) {
	s.logger.Info("Creating exam", "unit_id", unitID, "user_id", userID, "title", req.Title)

	if errors := s.validator.GetBusinessValidator().ValidateExamCreate(req); len(errors) > 0 {
		return nil, errors
	}
	if _, err := getUnitInCourse(ctx, s.repo, courseID, unitID); err != nil {
		return nil, err
	}

	exam := &models.UnitExam{
		UnitID:         unitID,
		Title:          strings.TrimSpace(req.Title),
		Description:    req.Description,
		Questions:      examPayload(req.Questions),
		PassingScore:   req.PassingScore,
		IsPublished:    req.IsPublished,
		MaxAttempts:    req.MaxAttempts,
		AvailableFrom:  req.AvailableFrom,
		AvailableUntil: req.AvailableUntil,
		TimeLimit:      req.TimeLimit,
	}
	if err := s.repo.Exam().Create(ctx, exam); err != nil {
		return nil, fmt.Errorf("failed to create exam: %w", err)
	}

	cache.InvalidateCourseCache(ctx, s.cache, courseID)

	s.logger.Info("Exam created successfully", "exam_id", exam.ID)
	return exam, nil
}

func (s *examService) Get(ctx context.Context, courseID, unitID, examID uint) (*models.UnitExam, error) {
	return getExamInUnit(ctx, s.repo, courseID, unitID, examID)
}

func (s *examService) Update(ctx context.Context, courseID, unitID, examID uint, req *UpdateExamRequest, userID string) (*models.UnitExam, error) {
	exam, err := getExamInUnit(ctx, s.repo, courseID, unitID, examID)
	if err != nil {
		return nil, err
	}

	if errors := s.validator.GetBusinessValidator().ValidateExamUpdate(req, exam); len(errors) > 0 {
		return nil, errors
	}

	if req.Title != nil {
		exam.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		exam.Description = *req.Description
	}
	if req.Questions != nil {
		exam.Questions = examPayload(req.Questions)
	}
	if req.PassingScore != nil {
		exam.PassingScore = *req.PassingScore
	}
	if req.MaxAttempts != nil {
		exam.MaxAttempts = *req.MaxAttempts
	}
	if req.AvailableFrom != nil {
		exam.AvailableFrom = req.AvailableFrom
	}
	if req.AvailableUntil != nil {
		exam.AvailableUntil = req.AvailableUntil
	}
	if req.TimeLimit != nil {
		exam.TimeLimit = req.TimeLimit
	}

	if err := s.repo.Exam().Update(ctx, exam); err != nil {
		return nil, mapRepoError(err, ErrExamNotFound, "update exam")
	}

	cache.InvalidateCourseCache(ctx, s.cache, courseID)

	s.logger.Info("Exam updated successfully", "exam_id", examID, "user_id", userID)
	return exam, nil
}

// Delete removes the exam together with its attempts.
func (s *examService) Delete(ctx context.Context, courseID, unitID, examID uint, userID string) error {
	if _, err := getExamInUnit(ctx, s.repo, courseID, unitID, examID); err != nil {
		return err
	}

	if err := s.repo.Exam().Delete(ctx, examID); err != nil {
		return mapRepoError(err, ErrExamNotFound, "delete exam")
	}

	cache.InvalidateCourseCache(ctx, s.cache, courseID)

	s.logger.Info("Exam deleted", "exam_id", examID, "user_id", userID)
	return nil
}

func (s *examService) SetPublished(ctx context.Context, courseID, unitID, examID uint, published bool, userID string) (*models.UnitExam, error) {
	exam, err := getExamInUnit(ctx, s.repo, courseID, unitID, examID)
	if err != nil {
		return nil, err
	}

	exam.IsPublished = published
	if err := s.repo.Exam().Update(ctx, exam); err != nil {
		return nil, mapRepoError(err, ErrExamNotFound, "update exam")
	}

	cache.InvalidateCourseCache(ctx, s.cache, courseID)

	s.logger.Info("Exam publish state changed", "exam_id", examID, "is_published", published, "user_id", userID)
	return exam, nil
}

func examPayload(raw json.RawMessage) datatypes.JSON {
	if len(raw) == 0 || string(raw) == "null" {
		return append(datatypes.JSON(nil), emptyExamQuestions...)
	}
	return datatypes.JSON(append([]byte(nil), raw...))
}
