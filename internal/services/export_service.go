package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/progress"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
)

const rosterSheet = "Roster"

var rosterHeader = []interface{}{
	"User ID", "Name", "Email", "Payment Status", "Status",
	"Enrolled At", "Completed Lessons", "Completed Exams", "Progress %",
}

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewExportService(deps Dependencies) ExportService {
	return &exportService{
		repo:   deps.Repo,
		logger: deps.Logger,
		now:    deps.Now,
	}
}

// CourseRoster renders one row per enrollment of the course.
func (s *exportService) CourseRoster(ctx context.Context, courseID uint) (*RosterExport, error) {
	course, err := s.repo.Course().GetWithContent(ctx, courseID)
	if err != nil {
		return nil, mapRepoError(err, ErrCourseNotFound, "load course content")
	}

	enrollments, err := s.repo.Enrollment().ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}

	userIDs := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		userIDs = append(userIDs, e.UserID)
	}
	users, err := s.repo.User().GetByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	byID := make(map[string]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("Failed to close workbook", "error", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", rosterSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(rosterSheet, "A1", &rosterHeader); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(rosterSheet, 1, 1, style)
	}
	_ = f.SetColWidth(rosterSheet, "A", "I", 20)

	examIDs := examIDsOf(course)
	for i, enrollment := range enrollments {
		completed, err := s.repo.Attempt().CompletedExamIDs(ctx, enrollment.UserID, examIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load completed exams: %w", err)
		}
		row := progress.Compute(enrollment, course, completed)

		var name, email string
		if u, ok := byID[enrollment.UserID]; ok {
			name, email = u.FullName, u.Email
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []interface{}{
			enrollment.UserID,
			name,
			email,
			string(enrollment.PaymentStatus),
			string(enrollment.Status),
			enrollment.EnrolledAt.UTC().Format(time.RFC3339),
			row.CompletedLessons,
			row.CompletedExams,
			row.CourseProgress,
		}
		if err := f.SetSheetRow(rosterSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}

	s.logger.Info("Roster exported", "course_id", courseID, "rows", len(enrollments))
	return &RosterExport{
		FileName: fmt.Sprintf("course-%d-roster-%s.xlsx", courseID, s.now().Format("20060102")),
		Data:     buf.Bytes(),
	}, nil
}
