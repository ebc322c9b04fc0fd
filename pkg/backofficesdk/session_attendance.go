package backofficesdk

import (
	"context"

	"github.com/kantorkita/backoffice/pkg/querycache"
)

const tagAttendance = "Attendance"

// ListAttendance returns attendance rows for the filter window.
func (s *Session) ListAttendance(ctx context.Context, p AttendanceListParams) ([]AttendanceRecord, *Pagination, error) {
	params := querycache.Params{}
	if p.EmployeeID != "" {
		params["employee_id"] = p.EmployeeID
	}
	if p.From != "" {
		params["from"] = p.From
	}
	if p.To != "" {
		params["to"] = p.To
	}
	if p.Page > 0 {
		params["page"] = p.Page
	}

	opts := querycache.Options{
		Tags: []querycache.Tag{querycache.NewTag(tagAttendance)},
	}
	return cachedList[AttendanceRecord](ctx, s, "/api/attendance", params, opts)
}

// AttendanceSummary aggregates one day of attendance across all employees.
func (s *Session) AttendanceSummary(ctx context.Context, date string) (AttendanceSummary, error) {
	params := querycache.Params{"date": date}
	opts := querycache.Options{
		Tags: []querycache.Tag{querycache.NewTag(tagAttendance)},
	}
	return cachedOne[AttendanceSummary](ctx, s, "/api/attendance/summary", params, opts)
}
