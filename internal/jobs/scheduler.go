package jobs

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Job interface that all scheduled jobs must implement
type Job interface {
	Run(ctx context.Context) error
}

// JobScheduler runs registered jobs at fixed intervals
type JobScheduler struct {
	scheduler gocron.Scheduler
	jobs      map[string]Job
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.Mutex
	running   bool
}

// NewJobScheduler creates a new job scheduler
func NewJobScheduler() (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &JobScheduler{
		scheduler: scheduler,
		jobs:      make(map[string]Job),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Register adds a job that runs every interval
func (s *JobScheduler) Register(name string, interval time.Duration, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}

	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			s.runJob(name, job)
		}),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to register job %q: %w", name, err)
	}

	s.jobs[name] = job
	log.Printf("✅ [SCHEDULER] Registered job: %s (every %v)", name, interval)
	return nil
}

// Start begins running all registered jobs
func (s *JobScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.scheduler.Start()
	log.Printf("🚀 [SCHEDULER] Started with %d jobs", len(s.jobs))
}

// runJob executes a job once and logs the outcome
func (s *JobScheduler) runJob(name string, job Job) {
	startTime := time.Now()
	if err := job.Run(s.ctx); err != nil {
		log.Printf("❌ [SCHEDULER] Job '%s' failed: %v", name, err)
		return
	}
	log.Printf("✅ [SCHEDULER] Job '%s' completed in %v", name, time.Since(startTime))
}

// RunNow immediately runs a specific job
func (s *JobScheduler) RunNow(name string) error {
	s.mu.Lock()
	job, exists := s.jobs[name]
	s.mu.Unlock()

	if !exists {
		return fmt.Errorf("job %q not found", name)
	}
	return job.Run(s.ctx)
}

// Stop cancels running jobs and shuts the scheduler down
func (s *JobScheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log.Println("🛑 [SCHEDULER] Stopping job scheduler...")
	s.running = false
	s.cancel()
	return s.scheduler.Shutdown()
}
