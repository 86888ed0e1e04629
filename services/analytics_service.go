package services

import (
	"context"
	"time"

	"github.com/puretrustgold/puretrust-api/model"
	"gorm.io/gorm"
)

// AnalyticsService aggregates back-office dashboard figures
type AnalyticsService struct {
	db *gorm.DB
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(db *gorm.DB) *AnalyticsService {
	return &AnalyticsService{db: db}
}

// revenuePerAppointment is the rough average sale value used for the
// dashboard's revenue estimate.
const revenuePerAppointment = 15000

// DayCount is one point in a per-day activity series
type DayCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int64  `json:"count"`
}

// DashboardStats is the admin dashboard payload
type DashboardStats struct {
	OpenChatSessions    int64            `json:"open_chat_sessions"`
	TotalChatSessions   int64            `json:"total_chat_sessions"`
	TotalChatMessages   int64            `json:"total_chat_messages"`
	UnreadChatMessages  int64            `json:"unread_chat_messages"`
	PendingAppointments int64            `json:"pending_appointments"`
	TotalAppointments   int64            `json:"total_appointments"`
	UnreadContacts      int64            `json:"unread_contacts"`
	PendingTransports   int64            `json:"pending_transports"`
	PublishedPosts      int64            `json:"published_posts"`
	EstimatedRevenue    int64            `json:"estimated_revenue"`
	SessionsLast7Days   []DayCount       `json:"sessions_last_7_days"`
	AppointmentsByState map[string]int64 `json:"appointments_by_status"`
	SessionsByLocation  map[string]int64 `json:"appointments_by_location"`
}

// GetDashboardStats collects all dashboard counters in one call
func (s *AnalyticsService) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{
		AppointmentsByState: map[string]int64{},
		SessionsByLocation:  map[string]int64{},
	}
	db := s.db.WithContext(ctx)

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.OpenChatSessions, db.Model(&model.ChatSession{}).
			Where("status IN ?", []model.SessionStatus{model.SessionStatusActive, model.SessionStatusWaiting})},
		{&stats.TotalChatSessions, db.Model(&model.ChatSession{})},
		{&stats.TotalChatMessages, db.Model(&model.ChatMessage{})},
		{&stats.UnreadChatMessages, db.Model(&model.ChatMessage{}).
			Where("sender_role = ? AND is_read = ?", model.SenderRoleUser, false)},
		{&stats.PendingAppointments, db.Model(&model.Appointment{}).
			Where("status = ?", model.AppointmentStatusPending)},
		{&stats.TotalAppointments, db.Model(&model.Appointment{})},
		{&stats.UnreadContacts, db.Model(&model.ContactMessage{}).
			Where("status = ?", model.ContactStatusUnread)},
		{&stats.PendingTransports, db.Model(&model.TransportRequest{}).
			Where("status = ?", "PENDING")},
		{&stats.PublishedPosts, db.Model(&model.BlogPost{}).Where("published = ?", true)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, err
		}
	}

	stats.EstimatedRevenue = stats.TotalAppointments * revenuePerAppointment

	// Last 7 days of new sessions
	since := time.Now().UTC().AddDate(0, 0, -6).Truncate(24 * time.Hour)
	var sessions []model.ChatSession
	if err := db.Select("created_at").
		Where("created_at >= ?", since).
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	times := make([]time.Time, len(sessions))
	for i, sess := range sessions {
		times[i] = sess.CreatedAt
	}
	stats.SessionsLast7Days = BucketByDay(times, since, 7)

	// Appointment distributions
	type statusRow struct {
		Status string
		N      int64
	}
	var byStatus []statusRow
	if err := db.Model(&model.Appointment{}).
		Select("status, count(*) as n").
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	for _, row := range byStatus {
		stats.AppointmentsByState[row.Status] = row.N
	}

	type locationRow struct {
		Location string
		N        int64
	}
	var byLocation []locationRow
	if err := db.Model(&model.Appointment{}).
		Select("location, count(*) as n").
		Group("location").
		Scan(&byLocation).Error; err != nil {
		return nil, err
	}
	for _, row := range byLocation {
		stats.SessionsByLocation[row.Location] = row.N
	}

	return stats, nil
}

// BucketByDay distributes timestamps into consecutive daily buckets starting
// at `start` (UTC midnight). Days without activity still appear with a zero
// count so chart axes stay continuous.
func BucketByDay(times []time.Time, start time.Time, days int) []DayCount {
	start = start.UTC().Truncate(24 * time.Hour)

	series := make([]DayCount, days)
	for i := range series {
		series[i] = DayCount{Date: start.AddDate(0, 0, i).Format("2006-01-02")}
	}

	for _, t := range times {
		// Integer conversion truncates toward zero, which would fold
		// timestamps up to a day before the window into the first bucket.
		d := t.UTC().Sub(start)
		if d < 0 {
			continue
		}
		idx := int(d.Hours() / 24)
		if idx < days {
			series[idx].Count++
		}
	}

	return series
}
