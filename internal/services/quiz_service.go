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

var emptyQuizQuestions = datatypes.JSON(`[]`)

type quizService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	cache     *cache.CacheManager
}

func NewQuizService(deps Dependencies) QuizService {
	return &quizService{
		repo:      deps.Repo,
		logger:    deps.Logger,
		validator: deps.Validator,
		cache:     deps.Cache,
	}
}

func (s *quizService) List(ctx context.Context, courseID, unitID, lessonID uint) ([]*models.LessonQuiz, error) {
	if _, err := getLessonInUnit(ctx, s.repo, courseID, unitID, lessonID); err != nil {
		return nil, err
	}
	quizzes, err := s.repo.Quiz().ListByLesson(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}
	return quizzes, nil
}

func (s *quizService) Create(ctx context.Context, courseID, unitID, lessonID uint, req *CreateQuizRequest, userID string) (*models.LessonQuiz, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	questions, err := quizPayload(req.Questions)
	if err != nil {
		return nil, err
	}
	if _, err := getLessonInUnit(ctx, s.repo, courseID, unitID, lessonID); err != nil {
		return nil, err
	}

	quiz := &models.LessonQuiz{
		LessonID:     lessonID,
		Title:        strings.TrimSpace(req.Title),
		Questions:    questions,
		PassingScore: req.PassingScore,
		IsPublished:  req.IsPublished,
	}
	if err := s.repo.Quiz().Create(ctx, quiz); err != nil {
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}

	cache.InvalidateCourseCache(ctx, s.cache, courseID)

	s.logger.Info("Quiz created", "lesson_id", lessonID, "quiz_id", quiz.ID, "user_id", userID)
	return quiz, nil
}

func (s *quizService) Update(ctx context.Context, courseID, unitID, lessonID, quizID uint, req *UpdateQuizRequest, userID string) (*models.LessonQuiz, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	quiz, err := s.getQuizInLesson(ctx, courseID, unitID, lessonID, quizID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		quiz.Title = strings.TrimSpace(*req.Title)
	}
	if req.Questions != nil {
		if quiz.Questions, err = quizPayload(req.Questions); err != nil {
			return nil, err
		}
	}
	if req.PassingScore != nil {
		quiz.PassingScore = *req.PassingScore
	}
	if req.IsPublished != nil {
		quiz.IsPublished = *req.IsPublished
	}

	if err := s.repo.Quiz().Update(ctx, quiz); err != nil {
		return nil, mapRepoError(err, ErrQuizNotFound, "update quiz")
	}

	cache.InvalidateCourseCache(ctx, s.cache, courseID)

	s.logger.Info("Quiz updated", "quiz_id", quizID, "user_id", userID)
	return quiz, nil
}

func (s *quizService) Delete(ctx context.Context, courseID, unitID, lessonID, quizID uint, userID string) error {
	if _, err := s.getQuizInLesson(ctx, courseID, unitID, lessonID, quizID); err != nil {
		return err
	}

	if err := s.repo.Quiz().Delete(ctx, quizID); err != nil {
		return mapRepoError(err, ErrQuizNotFound, "delete quiz")
	}

	cache.InvalidateCourseCache(ctx, s.cache, courseID)

	s.logger.Info("Quiz deleted", "quiz_id", quizID, "user_id", userID)
	return nil
}

func (s *quizService) getQuizInLesson(ctx context.Context, courseID, unitID, lessonID, quizID uint) (*models.LessonQuiz, error) {
	if _, err := getLessonInUnit(ctx, s.repo, courseID, unitID, lessonID); err != nil {
		return nil, err
	}
	quiz, err := s.repo.Quiz().GetByID(ctx, quizID)
	if err != nil {
		return nil, mapRepoError(err, ErrQuizNotFound, "load quiz")
	}
	if quiz.LessonID != lessonID {
		return nil, ErrQuizNotFound
	}
	return quiz, nil
}

// quizPayload stores the question list as given; it only has to be valid JSON.
func quizPayload(raw json.RawMessage) (datatypes.JSON, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return append(datatypes.JSON(nil), emptyQuizQuestions...), nil
	}
	if !json.Valid(raw) {
		return nil, validator.ValidationErrors{{
			Field:   "questions",
			Message: "must be valid JSON",
			Rule:    "json",
		}}
	}
	return datatypes.JSON(append([]byte(nil), raw...)), nil
}
