package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/services"
	"github.com/SAP-F-2025/learning-service/internal/utils"
	"github.com/SAP-F-2025/learning-service/internal/validator"
)

const serviceName = "learning-service"

type HandlerManager struct {
	courseHandler  *CourseHandler
	unitHandler    *UnitHandler
	lessonHandler  *LessonHandler
	examHandler    *ExamHandler
	studentHandler *StudentHandler
	attemptHandler *AttemptHandler
	authHandler    *AuthHandler
	authMiddleware *AuthMiddleware
	serviceManager services.ServiceManager
	logger         utils.Logger
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	authMiddleware *AuthMiddleware,
) *HandlerManager {
	return &HandlerManager{
		courseHandler:  NewCourseHandler(serviceManager.Course(), serviceManager.Export(), validator, logger),
		unitHandler:    NewUnitHandler(serviceManager.Unit(), validator, logger),
		lessonHandler:  NewLessonHandler(serviceManager.Lesson(), serviceManager.Quiz(), validator, logger),
		examHandler:    NewExamHandler(serviceManager.Exam(), validator, logger),
		studentHandler: NewStudentHandler(serviceManager.Enrollment(), serviceManager.Student(), logger),
		attemptHandler: NewAttemptHandler(serviceManager.Attempt(), logger),
		authHandler:    NewAuthHandler(authMiddleware, logger),
		authMiddleware: authMiddleware,
		serviceManager: serviceManager,
		logger:         logger,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.HealthCheck)

	v1 := router.Group("/api/v1")

	// Auth routes, callback and logout work without an identity
	auth := v1.Group("/auth")
	{
		auth.GET("/callback", hm.authHandler.Callback)
		auth.POST("/logout", hm.authHandler.Logout)
		auth.GET("/me", hm.authMiddleware.Authenticate(), hm.authHandler.Me)
	}

	authed := v1.Group("")
	authed.Use(hm.authMiddleware.Authenticate())

	// Authoring routes - Admins only
	courses := authed.Group("/courses")
	courses.Use(hm.authMiddleware.RequireRole(models.RoleAdmin))
	{
		courses.GET("", hm.courseHandler.ListCourses)
		courses.POST("", hm.courseHandler.CreateCourse)
		courses.GET("/:id", hm.courseHandler.GetCourse)
		courses.PUT("/:id", hm.courseHandler.UpdateCourse)
		courses.DELETE("/:id", hm.courseHandler.DeleteCourse)
		courses.PATCH("/:id/publish", hm.courseHandler.PublishCourse)
		courses.POST("/:id/duplicate", hm.courseHandler.DuplicateCourse)
		courses.GET("/:id/export", hm.courseHandler.ExportRoster)

		units := courses.Group("/:id/units")
		{
			units.GET("", hm.unitHandler.ListUnits)
			units.POST("", hm.unitHandler.CreateUnit)
			units.PUT("/reorder", hm.unitHandler.ReorderUnits)
			units.GET("/:unitId", hm.unitHandler.GetUnit)
			units.PUT("/:unitId", hm.unitHandler.UpdateUnit)
			units.DELETE("/:unitId", hm.unitHandler.DeleteUnit)
		}

		lessons := units.Group("/:unitId/lessons")
		{
			lessons.GET("", hm.lessonHandler.ListLessons)
			lessons.POST("", hm.lessonHandler.CreateLesson)
			lessons.PUT("/reorder", hm.lessonHandler.ReorderLessons)
			lessons.GET("/:lessonId", hm.lessonHandler.GetLesson)
			lessons.PUT("/:lessonId", hm.lessonHandler.UpdateLesson)
			lessons.DELETE("/:lessonId", hm.lessonHandler.DeleteLesson)
			lessons.PATCH("/:lessonId/publish", hm.lessonHandler.PublishLesson)

			lessons.GET("/:lessonId/quizzes", hm.lessonHandler.ListQuizzes)
			lessons.POST("/:lessonId/quizzes", hm.lessonHandler.CreateQuiz)
			lessons.PUT("/:lessonId/quizzes/:quizId", hm.lessonHandler.UpdateQuiz)
			lessons.DELETE("/:lessonId/quizzes/:quizId", hm.lessonHandler.DeleteQuiz)
		}

		exams := units.Group("/:unitId/exams")
		{
			exams.GET("", hm.examHandler.ListExams)
			exams.POST("", hm.examHandler.CreateExam)
			exams.GET("/:examId", hm.examHandler.GetExam)
			exams.PUT("/:examId", hm.examHandler.UpdateExam)
			exams.DELETE("/:examId", hm.examHandler.DeleteExam)
			exams.PATCH("/:examId/publish", hm.examHandler.PublishExam)
		}
	}

	// Learner routes - any authenticated user
	enrollments := authed.Group("/enrollments")
	{
		enrollments.POST("", hm.studentHandler.Enroll)
		enrollments.GET("", hm.studentHandler.ListEnrollments)
	}

	student := authed.Group("/student")
	{
		student.GET("/courses", hm.studentHandler.ListCourses)
		student.POST("/courses/:courseId/lessons/:lessonId/progress", hm.studentHandler.MarkLessonProgress)

		student.POST("/exams/:examId/attempt", hm.attemptHandler.StartAttempt)
		student.GET("/exams/:examId/attempt", hm.attemptHandler.ListAttempts)
		student.PUT("/exams/:examId/attempt/:attemptId", hm.attemptHandler.SaveAttempt)
		student.POST("/exams/:examId/attempt/:attemptId/submit", hm.attemptHandler.SubmitAttempt)
	}
}

// HealthCheck reports whether the services and their store are reachable
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (hm *HandlerManager) HealthCheck(c *gin.Context) {
	body := gin.H{
		"service":   serviceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
		utils.GetLogger(c, hm.logger).Warn("Health check failed", "error", err)
		body["status"] = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	body["status"] = "healthy"
	c.JSON(http.StatusOK, body)
}
