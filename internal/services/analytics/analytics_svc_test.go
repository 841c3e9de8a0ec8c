package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (IAnalyticsService, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewAnalyticsService(db), mock
}

func TestMeetingsReport(t *testing.T) {
	req := require.New(t)
	svc, mock := newTestService(t)

	mock.ExpectQuery(`FROM departments d`).
		WillReturnRows(sqlmock.NewRows([]string{"name", "count", "avg", "sum", "hosts"}).
			AddRow("HR Department", int64(3), 1800.5, int64(12), int64(2)).
			AddRow("Tea Break Room", int64(0), 0.0, int64(0), int64(0)))

	start := time.Now().UTC()
	deptName := "HR Department"
	hostName := "HR Admin"
	mock.ExpectQuery(`FROM meetings m`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "room_id", "participant_count", "start_time", "end_time", "duration", "d.name", "u.name",
		}).AddRow(int64(1), "standup", int64(4), start, nil, int64(0), deptName, hostName))

	report, err := svc.MeetingsReport(context.Background())
	req.NoError(err)
	req.Len(report.ByDepartment, 2)
	req.Equal(int64(3), report.ByDepartment[0].TotalMeetings)
	req.Len(report.RecentMeetings, 1)
	req.Equal("standup", report.RecentMeetings[0].RoomID)
	req.Nil(report.RecentMeetings[0].EndTime)
	req.NoError(mock.ExpectationsWereMet())
}

func TestActivityReport(t *testing.T) {
	req := require.New(t)
	svc, mock := newTestService(t)

	last := time.Now().UTC()
	mock.ExpectQuery(`FROM users u`).
		WillReturnRows(sqlmock.NewRows([]string{"name", "email", "d.name", "count", "max"}).
			AddRow("HR Admin", "hr@company.com", "HR Department", int64(10), last).
			AddRow("John Doe", "john@company.com", nil, int64(0), nil))

	mock.ExpectQuery(`FROM user_activity ua`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "activity_type", "description", "timestamp", "u.name", "u.email",
		}).AddRow(int64(9), int64(1), "login", "User logged in successfully", last, "HR Admin", "hr@company.com"))

	report, err := svc.ActivityReport(context.Background())
	req.NoError(err)
	req.Len(report.UserActivity, 2)
	req.Nil(report.UserActivity[1].LastActivity)
	req.Len(report.RecentActivity, 1)
	req.Equal("login", report.RecentActivity[0].ActivityType)
	req.NoError(mock.ExpectationsWereMet())
}

func TestMeetingsReportPropagatesQueryError(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(`FROM departments d`).WillReturnError(context.DeadlineExceeded)

	_, err := svc.MeetingsReport(context.Background())
	require.Error(t, err)
}
