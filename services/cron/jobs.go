package cron

import (
	"fmt"
	"time"

	"github.com/puretrustgold/puretrust-api/model"
)

const (
	// WaitingAfter is how long an active session may sit without an operator
	// reply before it is flagged waiting in the console queue.
	WaitingAfter = 10 * time.Minute

	// StaleAfter is how long an open session may sit with no messages from
	// either side before it is closed automatically.
	StaleAfter = 24 * time.Hour

	// LogRetention is how long cron job logs are kept
	LogRetention = 30 * 24 * time.Hour
)

// MarkWaitingSessions flags active sessions whose newest message is an
// unanswered visitor message older than the waiting threshold. The flag is a
// queue hint for operators; an operator reply flips the session back.
func (m *CronManager) MarkWaitingSessions() {
	jobName := "mark_waiting_sessions"
	cutoff := time.Now().UTC().Add(-WaitingAfter)

	// A session is waiting when its latest message is from the visitor,
	// unread, and older than the cutoff.
	result := m.db.Model(&model.ChatSession{}).
		Where("status = ?", model.SessionStatusActive).
		Where("last_message_at < ?", cutoff).
		Where(`EXISTS (
			SELECT 1 FROM chat_messages cm
			WHERE cm.session_id = chat_sessions.id
			  AND cm.sender_role = ?
			  AND cm.is_read = false
			  AND cm.created_at = (
				SELECT MAX(created_at) FROM chat_messages
				WHERE session_id = chat_sessions.id
			  )
		)`, model.SenderRoleUser).
		Update("status", model.SessionStatusWaiting)

	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to flag waiting sessions: %w", result.Error))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Flagged %d sessions as waiting", result.RowsAffected))
}

// CloseStaleSessions closes open sessions with no activity from either side
// for the stale threshold.
func (m *CronManager) CloseStaleSessions() {
	jobName := "close_stale_sessions"
	cutoff := time.Now().UTC().Add(-StaleAfter)

	result := m.db.Model(&model.ChatSession{}).
		Where("status IN ?", []model.SessionStatus{model.SessionStatusActive, model.SessionStatusWaiting}).
		Where("last_message_at < ?", cutoff).
		Update("status", model.SessionStatusClosed)

	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to close stale sessions: %w", result.Error))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Closed %d stale sessions", result.RowsAffected))
}

// CleanupOldData prunes aged cron job logs
func (m *CronManager) CleanupOldData() {
	jobName := "cleanup_old_data"
	cutoff := time.Now().UTC().Add(-LogRetention)

	result := m.db.Unscoped().
		Where("started_at < ?", cutoff).
		Delete(&model.CronJobLog{})

	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to prune job logs: %w", result.Error))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Pruned %d job log rows", result.RowsAffected))
}
