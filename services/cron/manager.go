package cron

import (
	"log"
	"time"

	"github.com/puretrustgold/puretrust-api/model"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron *cron.Cron
	db   *gorm.DB
}

// NewCronManager creates a new cron manager
func NewCronManager(db *gorm.DB) *CronManager {
	// Seconds precision
	c := cron.New(cron.WithSeconds())

	return &CronManager{
		cron: c,
		db:   db,
	}
}

// Start registers and starts all cron jobs
func (m *CronManager) Start() error {
	log.Println("Starting cron jobs...")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()

	log.Println("Cron jobs started successfully")
	return nil
}

// Stop stops all cron jobs and waits for running ones to finish
func (m *CronManager) Stop() {
	log.Println("Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Println("Cron jobs stopped")
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	// 1. Every minute: move quiet active sessions to waiting
	_, err := m.cron.AddFunc("0 * * * * *", func() {
		m.logJobStart("mark_waiting_sessions")
		m.MarkWaitingSessions()
	})
	if err != nil {
		return err
	}

	// 2. Every hour: close sessions abandoned by both sides
	_, err = m.cron.AddFunc("0 0 * * * *", func() {
		m.logJobStart("close_stale_sessions")
		m.CloseStaleSessions()
	})
	if err != nil {
		return err
	}

	// 3. Daily at 2 AM: prune old job logs
	_, err = m.cron.AddFunc("0 0 2 * * *", func() {
		m.logJobStart("cleanup_old_data")
		m.CleanupOldData()
	})
	if err != nil {
		return err
	}

	log.Println("All cron jobs registered successfully")
	return nil
}

// logJobStart logs the start of a cron job
func (m *CronManager) logJobStart(jobName string) {
	log.Printf("[CRON] Starting job: %s at %s", jobName, time.Now().Format(time.RFC3339))

	cronLog := model.CronJobLog{
		JobName:   jobName,
		Status:    "running",
		StartedAt: time.Now(),
	}
	if err := m.db.Create(&cronLog).Error; err != nil {
		log.Printf("[CRON] Failed to log job start for %s: %v", jobName, err)
	}
}

// logJobComplete marks the latest run of a job as completed
func (m *CronManager) logJobComplete(jobName, message string) {
	log.Printf("[CRON] Completed job: %s - %s", jobName, message)

	now := time.Now()
	err := m.db.Model(&model.CronJobLog{}).
		Where("job_name = ? AND status = ?", jobName, "running").
		Order("started_at DESC").
		Limit(1).
		Updates(map[string]interface{}{
			"status":       "completed",
			"completed_at": &now,
			"message":      message,
		}).Error
	if err != nil {
		log.Printf("[CRON] Failed to log job completion for %s: %v", jobName, err)
	}
}

// logJobError marks the latest run of a job as failed
func (m *CronManager) logJobError(jobName string, jobErr error) {
	log.Printf("[CRON] Job failed: %s - %v", jobName, jobErr)

	now := time.Now()
	err := m.db.Model(&model.CronJobLog{}).
		Where("job_name = ? AND status = ?", jobName, "running").
		Order("started_at DESC").
		Limit(1).
		Updates(map[string]interface{}{
			"status":       "failed",
			"completed_at": &now,
			"error_msg":    jobErr.Error(),
		}).Error
	if err != nil {
		log.Printf("[CRON] Failed to log job error for %s: %v", jobName, err)
	}
}
