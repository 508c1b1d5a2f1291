package models

import "time"

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceLate    AttendanceStatus = "LATE"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
	AttendanceHalfDay AttendanceStatus = "HALF_DAY"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceLate, AttendanceAbsent, AttendanceHalfDay:
		return true
	default:
		return false
	}
}

// CountsAsPresence reports whether the status counts toward the attendance
// rate (present, late or half-day rows all do).
func (s AttendanceStatus) CountsAsPresence() bool {
	return s == AttendancePresent || s == AttendanceLate || s == AttendanceHalfDay
}

// AttendanceRecord is one attendance row consumed read-only by the engine.
type AttendanceRecord struct {
	ID          string           `db:"id" json:"id"`
	TenantID    string           `db:"tenant_id" json:"tenant_id"`
	EmployeeID  string           `db:"employee_id" json:"employee_id"`
	Date        time.Time        `db:"date" json:"date"`
	Status      AttendanceStatus `db:"status" json:"status"`
	LateMinutes int              `db:"late_minutes" json:"late_minutes"`
}

// AttendanceSummary aggregates attendance rows over a period.
type AttendanceSummary struct {
	Present          int     `json:"present"`
	Late             int     `json:"late"`
	Absent           int     `json:"absent"`
	HalfDay          int     `json:"half_day"`
	Total            int     `json:"total"`
	TotalLateMinutes int     `json:"total_late_minutes"`
	AttendanceRate   float64 `json:"attendance_rate"`
}

// SummarizeAttendance derives counts and the attendance rate from raw rows.
func SummarizeAttendance(rows []AttendanceRecord) AttendanceSummary {
	summary := AttendanceSummary{Total: len(rows)}
	for _, row := range rows {
		switch row.Status {
		case AttendancePresent:
			summary.Present++
		case AttendanceLate:
			summary.Late++
		case AttendanceAbsent:
			summary.Absent++
		case AttendanceHalfDay:
			summary.HalfDay++
		}
		summary.TotalLateMinutes += row.LateMinutes
	}
	if summary.Total > 0 {
		attended := summary.Present + summary.Late + summary.HalfDay
		summary.AttendanceRate = float64(attended) / float64(summary.Total) * 100
	}
	return summary
}
