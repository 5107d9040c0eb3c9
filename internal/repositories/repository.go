package repositories

import "context"

// Repository aggregates every repository of the service
type Repository interface {
	// Authoring
	Course() CourseRepository
	Unit() UnitRepository
	Lesson() LessonRepository
	Quiz() QuizRepository
	Exam() ExamRepository

	// Learner data
	Enrollment() EnrollmentRepository
	Attempt() AttemptRepository
	Activity() ActivityRepository
	User() UserRepository

	// Transaction support. Every repository reached through the argument shares
	// the transaction; returning an error rolls everything back.
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
