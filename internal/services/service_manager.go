package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/learning-service/internal/cache"
	"github.com/SAP-F-2025/learning-service/internal/events"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"github.com/SAP-F-2025/learning-service/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	LogLevel slog.Level

	// Course list and detail caching
	Course ServiceConfig
}

type ServiceConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// Dependencies are shared by every service.
type Dependencies struct {
	Repo      repositories.Repository
	Logger    *slog.Logger
	Validator *validator.Validator
	Cache     *cache.CacheManager
	Publisher events.EventPublisher

	// Now is the clock; nil means time.Now in UTC.
	Now func() time.Time
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Validator == nil {
		d.Validator = validator.New()
	}
	if d.Cache == nil {
		d.Cache = cache.NewCacheManager(nil)
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	return d
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	deps   Dependencies
	config ServiceManagerConfig

	// Service instances
	courseService     CourseService
	unitService       UnitService
	lessonService     LessonService
	quizService       QuizService
	examService       ExamService
	enrollmentService EnrollmentService
	studentService    StudentService
	attemptService    AttemptService
	exportService     ExportService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(deps Dependencies, config ServiceManagerConfig) ServiceManager {
	deps = deps.withDefaults()
	if config.Course.CacheEnabled && config.Course.CacheTTL > 0 {
		deps.Cache.WithTTL(config.Course.CacheTTL)
	}
	return &serviceManager{
		deps:   deps,
		config: config,
	}
}

// NewDefaultServiceManager creates a service manager with default configuration
func NewDefaultServiceManager(deps Dependencies) ServiceManager {
	config := ServiceManagerConfig{
		LogLevel: slog.LevelInfo,
		Course: ServiceConfig{
			CacheEnabled: true,
			CacheTTL:     cache.CourseCacheConfig.TTL,
		},
	}

	return NewServiceManager(deps, config)
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.deps.Logger.Info("Initializing service manager")

	if sm.deps.Repo == nil {
		return fmt.Errorf("failed to initialize services: repository is required")
	}

	audit := newAuditor(sm.deps)

	sm.courseService = NewCourseService(sm.deps, audit, sm.config.Course.CacheEnabled)
	sm.unitService = NewUnitService(sm.deps, audit)
	sm.lessonService = NewLessonService(sm.deps, audit)
	sm.quizService = NewQuizService(sm.deps)
	sm.examService = NewExamService(sm.deps)
	sm.enrollmentService = NewEnrollmentService(sm.deps, audit)
	sm.studentService = NewStudentService(sm.deps, audit)
	sm.attemptService = NewAttemptService(sm.deps, audit)
	sm.exportService = NewExportService(sm.deps)

	sm.initialized = true
	sm.deps.Logger.Info("Service manager initialized successfully")

	return nil
}

func (sm *serviceManager) mustBeReady(name string) {
	if !sm.initialized {
		panic("service manager not initialized")
	}
	if sm.shutdown {
		panic(name + " service used after shutdown")
	}
}

// Service getters
func (sm *serviceManager) Course() CourseService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("course")
	return sm.courseService
}

func (sm *serviceManager) Unit() UnitService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("unit")
	return sm.unitService
}

func (sm *serviceManager) Lesson() LessonService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("lesson")
	return sm.lessonService
}

func (sm *serviceManager) Quiz() QuizService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("quiz")
	return sm.quizService
}

func (sm *serviceManager) Exam() ExamService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("exam")
	return sm.examService
}

func (sm *serviceManager) Enrollment() EnrollmentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("enrollment")
	return sm.enrollmentService
}

func (sm *serviceManager) Student() StudentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("student")
	return sm.studentService
}

func (sm *serviceManager) Attempt() AttemptService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("attempt")
	return sm.attemptService
}

func (sm *serviceManager) Export() ExportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("export")
	return sm.exportService
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}

	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.deps.Repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.deps.Logger.Info("Shutting down service manager")

	if sm.deps.Publisher != nil {
		if err := sm.deps.Publisher.Close(); err != nil {
			sm.deps.Logger.Error("Failed to close event publisher", "error", err)
		}
	}

	sm.shutdown = true
	sm.deps.Logger.Info("Service manager shut down completed")

	return nil
}
