package analytics

import (
	"context"
	"database/sql"
	"time"
)

type DepartmentMeetingStats struct {
	DepartmentName    string  `json:"department_name"`
	TotalMeetings     int64   `json:"total_meetings"`
	AvgDuration       float64 `json:"avg_duration"`
	TotalParticipants int64   `json:"total_participants"`
	UniqueHosts       int64   `json:"unique_hosts"`
}

type MeetingDTO struct {
	ID               int64      `json:"id"`
	RoomID           string     `json:"room_id"`
	ParticipantCount int64      `json:"participant_count"`
	StartTime        time.Time  `json:"start_time"`
	EndTime          *time.Time `json:"end_time"`
	Duration         int64      `json:"duration"`
	DepartmentName   *string    `json:"department_name"`
	HostName         *string    `json:"host_name"`
}

type MeetingsReport struct {
	ByDepartment   []DepartmentMeetingStats `json:"by_department"`
	RecentMeetings []MeetingDTO             `json:"recent_meetings"`
}

type UserActivityStats struct {
	UserName        string     `json:"user_name"`
	Email           string     `json:"email"`
	DepartmentName  *string    `json:"department_name"`
	TotalActivities int64      `json:"total_activities"`
	LastActivity    *time.Time `json:"last_activity"`
}

type ActivityDTO struct {
	ID           int64     `json:"id"`
	UserID       *int64    `json:"user_id"`
	ActivityType string    `json:"activity_type"`
	Description  string    `json:"description"`
	Timestamp    time.Time `json:"timestamp"`
	UserName     *string   `json:"user_name"`
	Email        *string   `json:"email"`
}

type ActivityReport struct {
	UserActivity   []UserActivityStats `json:"user_activity"`
	RecentActivity []ActivityDTO       `json:"recent_activity"`
}

type IAnalyticsService interface {
	MeetingsReport(ctx context.Context) (*MeetingsReport, error)
	ActivityReport(ctx context.Context) (*ActivityReport, error)
}

type analyticsService struct {
	db *sql.DB
}

func NewAnalyticsService(db *sql.DB) IAnalyticsService {
	return &analyticsService{db: db}
}

func (svc *analyticsService) MeetingsReport(ctx context.Context) (*MeetingsReport, error) {
	const byDeptQ = `
	SELECT d.name,
	       COUNT(m.id),
	       COALESCE(AVG(m.duration), 0),
	       COALESCE(SUM(m.participant_count), 0),
	       COUNT(DISTINCT m.host_id)
	  FROM departments d
	  LEFT JOIN meetings m ON d.id = m.department_id
	 GROUP BY d.id, d.name
	 ORDER BY d.name`

	rows, err := svc.db.QueryContext(ctx, byDeptQ)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	report := &MeetingsReport{
		ByDepartment:   make([]DepartmentMeetingStats, 0),
		RecentMeetings: make([]MeetingDTO, 0),
	}
	for rows.Next() {
		var s DepartmentMeetingStats
		if err := rows.Scan(&s.DepartmentName, &s.TotalMeetings, &s.AvgDuration,
			&s.TotalParticipants, &s.UniqueHosts); err != nil {
			return nil, err
		}
		report.ByDepartment = append(report.ByDepartment, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	const recentQ = `
	SELECT m.id, m.room_id, m.participant_count, m.start_time, m.end_time,
	       coalesce(m.duration, 0), d.name, u.name
	  FROM meetings m
	  LEFT JOIN departments d ON m.department_id = d.id
	  LEFT JOIN users u ON m.host_id = u.id
	 ORDER BY m.start_time DESC
	 LIMIT 10`

	recent, err := svc.db.QueryContext(ctx, recentQ)
	if err != nil {
		return nil, err
	}
	defer recent.Close()

	for recent.Next() {
		var m MeetingDTO
		if err := recent.Scan(&m.ID, &m.RoomID, &m.ParticipantCount, &m.StartTime,
			&m.EndTime, &m.Duration, &m.DepartmentName, &m.HostName); err != nil {
			return nil, err
		}
		report.RecentMeetings = append(report.RecentMeetings, m)
	}
	return report, recent.Err()
}

func (svc *analyticsService) ActivityReport(ctx context.Context) (*ActivityReport, error) {
	const perUserQ = `
	SELECT u.name, u.email, d.name,
	       COUNT(ua.id),
	       MAX(ua.timestamp)
	  FROM users u
	  LEFT JOIN user_activity ua ON u.id = ua.user_id
	  LEFT JOIN departments d ON u.department_id = d.id
	 WHERE u.is_active = true
	 GROUP BY u.id, u.name, u.email, d.name
	 ORDER BY MAX(ua.timestamp) DESC NULLS LAST`

	rows, err := svc.db.QueryContext(ctx, perUserQ)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	report := &ActivityReport{
		UserActivity:   make([]UserActivityStats, 0),
		RecentActivity: make([]ActivityDTO, 0),
	}
	for rows.Next() {
		var s UserActivityStats
		if err := rows.Scan(&s.UserName, &s.Email, &s.DepartmentName,
			&s.TotalActivities, &s.LastActivity); err != nil {
			return nil, err
		}
		report.UserActivity = append(report.UserActivity, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	const recentQ = `
	SELECT ua.id, ua.user_id, ua.activity_type, coalesce(ua.description,''),
	       ua.timestamp, u.name, u.email
	  FROM user_activity ua
	  LEFT JOIN users u ON ua.user_id = u.id
	 ORDER BY ua.timestamp DESC
	 LIMIT 20`

	recent, err := svc.db.QueryContext(ctx, recentQ)
	if err != nil {
		return nil, err
	}
	defer recent.Close()

	for recent.Next() {
		var a ActivityDTO
		if err := recent.Scan(&a.ID, &a.UserID, &a.ActivityType, &a.Description,
			&a.Timestamp, &a.UserName, &a.Email); err != nil {
			return nil, err
		}
		report.RecentActivity = append(report.RecentActivity, a)
	}
	return report, recent.Err()
}
