// Package progress derives per-course completion figures for a learner from
// already loaded course content, the enrollment progress map and exam attempts.
package progress

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/SAP-F-2025/learning-service/internal/models"
)

type Status string

const (
	StatusCompleted  Status = "completed"
	StatusInProgress Status = "in-progress"
	StatusNotStarted Status = "not-started"
)

// ParseStatus accepts the status tags used by the student course filter.
func ParseStatus(s string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusCompleted:
		return StatusCompleted, true
	case StatusInProgress:
		return StatusInProgress, true
	case StatusNotStarted:
		return StatusNotStarted, true
	}
	return "", false
}

type SortKey string

const (
	SortRecent   SortKey = "recent"
	SortTitle    SortKey = "title"
	SortProgress SortKey = "progress"
)

// ParseSortKey falls back to SortRecent for anything unknown.
func ParseSortKey(s string) SortKey {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case SortTitle:
		return SortTitle
	case SortProgress:
		return SortProgress
	default:
		return SortRecent
	}
}

// CourseProgress is one row of the student course list.
type CourseProgress struct {
	EnrollmentID     uint      `json:"enrollmentId"`
	CourseID         uint      `json:"courseId"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	APExamType       string    `json:"apExamType"`
	ImageURL         *string   `json:"imageUrl,omitempty"`
	EnrolledAt       time.Time `json:"enrolledAt"`
	TotalLessons     int       `json:"totalLessons"`
	CompletedLessons int       `json:"completedLessons"`
	TotalExams       int       `json:"totalExams"`
	CompletedExams   int       `json:"completedExams"`
	CourseProgress   int       `json:"courseProgress"`
	Status           Status    `json:"status"`
}

// Compute derives the progress row for one enrollment. completedExamIDs holds the
// exams for which the learner has at least one attempt with a completion time;
// pass or fail does not matter.
func Compute(enrollment *models.Enrollment, course *models.Course, completedExamIDs map[uint]bool) CourseProgress {
	pm := enrollment.Progress.Data()

	row := CourseProgress{
		EnrollmentID: enrollment.ID,
		CourseID:     course.ID,
		Title:        course.Title,
		Description:  course.Description,
		APExamType:   course.APExamType,
		ImageURL:     course.ImageURL,
		EnrolledAt:   enrollment.EnrolledAt,
	}

	for _, unit := range course.Units {
		for _, lesson := range unit.Lessons {
			row.TotalLessons++
			if pm.Lesson(lesson.ID).Completed {
				row.CompletedLessons++
			}
		}
		for _, exam := range unit.Exams {
			row.TotalExams++
			if completedExamIDs[exam.ID] {
				row.CompletedExams++
			}
		}
	}

	row.CourseProgress = Percentage(row.CompletedLessons+row.CompletedExams, row.TotalLessons+row.TotalExams)
	row.Status = CourseStatus(course.Units, pm)
	return row
}

// Percentage is done/total*100 rounded half away from zero, 0 for an empty total.
func Percentage(done, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}

// CourseStatus is completed when every unit is marked complete (and there is at
// least one unit), in-progress when any unit is started, otherwise not-started.
func CourseStatus(units []models.Unit, pm models.ProgressMap) Status {
	if len(units) == 0 {
		return StatusNotStarted
	}

	allComplete := true
	anyStarted := false
	for _, unit := range units {
		state := pm.Unit(unit.ID)
		if !state.Completed {
			allComplete = false
		}
		if state.Started || state.Completed {
			anyStarted = true
		}
	}

	switch {
	case allComplete:
		return StatusCompleted
	case anyStarted:
		return StatusInProgress
	default:
		return StatusNotStarted
	}
}

// UnitState recomputes a unit's entry from its lessons and, when the course
// counts all content, from its exams as well. A unit with nothing to complete
// keeps whatever was recorded.
func UnitState(unit models.Unit, pm models.ProgressMap, completedExamIDs map[uint]bool, criteria models.CompletionCriteria) models.CompletionState {
	countExams := criteria == models.CompletionAllContent
	if len(unit.Lessons) == 0 && (!countExams || len(unit.Exams) == 0) {
		return pm.Unit(unit.ID)
	}

	state := models.CompletionState{Completed: true}
	for _, lesson := range unit.Lessons {
		ls := pm.Lesson(lesson.ID)
		if ls.Started || ls.Completed {
			state.Started = true
		}
		if !ls.Completed {
			state.Completed = false
		}
	}
	if countExams {
		for _, exam := range unit.Exams {
			if completedExamIDs[exam.ID] {
				state.Started = true
			} else {
				state.Completed = false
			}
		}
	}
	return state
}

// Filter keeps rows with the given status. An empty status keeps everything.
func Filter(rows []CourseProgress, status Status) []CourseProgress {
	if status == "" {
		return rows
	}
	out := make([]CourseProgress, 0, len(rows))
	for _, r := range rows {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out
}

// Sort orders rows in place: title ascending, progress descending, or enrollment
// recency descending.
func Sort(rows []CourseProgress, key SortKey) {
	switch key {
	case SortTitle:
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Title < rows[j].Title })
	case SortProgress:
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].CourseProgress > rows[j].CourseProgress })
	default:
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].EnrolledAt.After(rows[j].EnrolledAt) })
	}
}
