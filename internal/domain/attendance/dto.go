package attendance

type AttendanceResponse struct {
	ID            string  `json:"id"`
	EmployeeID    string  `json:"employee_id"`
	Date          string  `json:"date"`
	CheckIn       *string `json:"check_in,omitempty"`
	CheckOut      *string `json:"check_out,omitempty"`
	WorkHours     string  `json:"work_hours"`
	OvertimeHours string  `json:"overtime_hours"`
	Status        string  `json:"status"`
	UpdatedAt     string  `json:"updated_at"`
}

func ToResponse(att Attendance) AttendanceResponse {
	return AttendanceResponse{
		ID:            att.ID,
		EmployeeID:    att.EmployeeID,
		Date:          att.Date.Format("2006-01-02"),
		CheckIn:       ClockTimePtrToString(att.CheckIn),
		CheckOut:      ClockTimePtrToString(att.CheckOut),
		WorkHours:     att.WorkHours.String(),
		OvertimeHours: att.OvertimeHours.String(),
		Status:        string(att.Status),
		UpdatedAt:     att.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}
