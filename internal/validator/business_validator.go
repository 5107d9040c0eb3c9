package validator

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/learning-service/internal/models"
)

// BusinessValidator handles rules that span several fields or need the stored entity
type BusinessValidator struct {
	validate *validator.Validate
}

func newBusinessValidator(validate *validator.Validate) *BusinessValidator {
	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()
	return bv
}

// Validate validates struct tags for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	if err := bv.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateCourseCreate checks a new course: paid courses need a positive price.
func (bv *BusinessValidator) ValidateCourseCreate(req *CourseCreateRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	isFree := req.IsFree == nil || *req.IsFree
	if !isFree && req.Price == nil {
		errors = append(errors, ValidationError{
			Field:   "price",
			Message: "is required for paid courses",
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateCourseUpdate checks an update against the stored course. Pricing is
// frozen once anyone has enrolled.
func (bv *BusinessValidator) ValidateCourseUpdate(req *CourseUpdateRequest, existing *models.Course, hasEnrollments bool) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	if hasEnrollments {
		if req.IsFree != nil && *req.IsFree != existing.IsFree {
			errors = append(errors, ValidationError{
				Field:   "isFree",
				Message: "cannot be changed once students are enrolled",
				Value:   *req.IsFree,
				Rule:    "business_logic",
			})
		}
		if req.Price != nil && *req.Price != existing.Price {
			errors = append(errors, ValidationError{
				Field:   "price",
				Message: "cannot be changed once students are enrolled",
				Value:   *req.Price,
				Rule:    "business_logic",
			})
		}
	}

	isFree := existing.IsFree
	if req.IsFree != nil {
		isFree = *req.IsFree
	}
	price := existing.Price
	if req.Price != nil {
		price = *req.Price
	}
	if !isFree && price <= 0 {
		errors = append(errors, ValidationError{
			Field:   "price",
			Message: "is required for paid courses",
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateExamCreate checks tags, the availability window and the question set.
func (bv *BusinessValidator) ValidateExamCreate(req *ExamCreateRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)
	errors = append(errors, bv.ValidateAvailabilityWindow(req.AvailableFrom, req.AvailableUntil)...)
	errors = append(errors, bv.ValidateQuestionSet(req.Questions)...)

	return errors
}

// ValidateExamUpdate checks the merged window so a one-sided update cannot invert it.
func (bv *BusinessValidator) ValidateExamUpdate(req *ExamUpdateRequest, existing *models.UnitExam) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	from, until := existing.AvailableFrom, existing.AvailableUntil
	if req.AvailableFrom != nil {
		from = req.AvailableFrom
	}
	if req.AvailableUntil != nil {
		until = req.AvailableUntil
	}
	errors = append(errors, bv.ValidateAvailabilityWindow(from, until)...)

	if req.Questions != nil {
		errors = append(errors, bv.ValidateQuestionSet(req.Questions)...)
	}

	return errors
}

// ValidateAvailabilityWindow requires from <= until when both are set.
func (bv *BusinessValidator) ValidateAvailabilityWindow(from, until *time.Time) ValidationErrors {
	if from != nil && until != nil && from.After(*until) {
		return ValidationErrors{{
			Field:   "availableUntil",
			Message: "must not be before availableFrom",
			Value:   until,
			Rule:    "business_logic",
		}}
	}
	return nil
}

// ValidateQuestionSet parses an exam payload so scoring can rely on its shape.
func (bv *BusinessValidator) ValidateQuestionSet(raw []byte) ValidationErrors {
	set, err := models.ParseQuestionSet(raw)
	if err == nil {
		err = set.Validate()
	}
	if err != nil {
		return ValidationErrors{{
			Field:   "questions",
			Message: err.Error(),
			Rule:    "question_set",
		}}
	}
	return nil
}

// registerBusinessRules registers custom tag validators
func (bv *BusinessValidator) registerBusinessRules() {
	// Course title (1-200 characters after trimming)
	bv.validate.RegisterValidation("course_title", func(fl validator.FieldLevel) bool {
		n := utf8.RuneCountInString(strings.TrimSpace(fl.Field().String()))
		return n >= 1 && n <= 200
	})

	// Unit and lesson titles need at least 3 characters
	bv.validate.RegisterValidation("lesson_title", func(fl validator.FieldLevel) bool {
		return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) >= 3
	})

	// Exam type tag, e.g. "AP Biology"
	bv.validate.RegisterValidation("exam_type", func(fl validator.FieldLevel) bool {
		n := utf8.RuneCountInString(strings.TrimSpace(fl.Field().String()))
		return n >= 1 && n <= 100
	})

	bv.validate.RegisterValidation("progress_tracking", func(fl validator.FieldLevel) bool {
		switch models.ProgressTrackingMode(fl.Field().String()) {
		case models.ProgressTrackingLinear, models.ProgressTrackingFree:
			return true
		}
		return false
	})

	bv.validate.RegisterValidation("completion_criteria", func(fl validator.FieldLevel) bool {
		switch models.CompletionCriteria(fl.Field().String()) {
		case models.CompletionAllLessons, models.CompletionAllContent:
			return true
		}
		return false
	})
}
