package regularization

import (
	"time"

	"github.com/cmlabs-hris/attendance-regularization/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-regularization/internal/domain/regularization"
	"github.com/cmlabs-hris/attendance-regularization/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// DefaultStandardWorkHours is the length of a standard working day.
var DefaultStandardWorkHours = decimal.NewFromInt(8)

var secondsPerHour = decimal.NewFromInt(3600)

// Reconciler derives the attendance record an approved request implies.
// It is pure: the same request always yields the same mutation.
type Reconciler struct {
	standardHours decimal.Decimal
}

// NewReconciler returns a Reconciler for the given standard day. A zero or
// negative value falls back to DefaultStandardWorkHours.
func NewReconciler(standardHours decimal.Decimal) *Reconciler {
	if !standardHours.IsPositive() {
		standardHours = DefaultStandardWorkHours
	}
	return &Reconciler{standardHours: standardHours}
}

func (r *Reconciler) StandardHours() decimal.Decimal {
	return r.standardHours
}

// Reconcile computes the attendance mutation for req.
//
// The side of the day the employee did not dispute is carried forward from
// the recorded times: a check_in request keeps the recorded check-out and a
// check_out request keeps the recorded check-in. A full_day request uses only
// the requested times.
func (r *Reconciler) Reconcile(req regularization.RegularizationRequest) (attendance.AttendanceMutation, error) {
	checkIn, checkOut := effectiveTimes(req)

	switch {
	case checkIn != nil && checkOut != nil:
		worked := checkOut.Sub(*checkIn)
		if worked <= 0 {
			// Shifts crossing midnight are not supported.
			return attendance.AttendanceMutation{}, validator.ValidationErrors{{
				Field:   "requested_check_out",
				Message: "check-out must be later than check-in on the same day",
			}}
		}

		workHours := hours(worked)
		overtime := decimal.Zero
		if workHours.GreaterThan(r.standardHours) {
			overtime = workHours.Sub(r.standardHours)
			workHours = r.standardHours
		}

		return attendance.AttendanceMutation{
			CheckIn:       checkIn,
			CheckOut:      checkOut,
			WorkHours:     workHours,
			OvertimeHours: overtime,
			Status:        attendance.AttendanceStatusPresent,
		}, nil

	case req.RequestType == regularization.RequestTypeFullDay && checkIn == nil && checkOut == nil:
		return attendance.AttendanceMutation{
			WorkHours:     r.standardHours,
			OvertimeHours: decimal.Zero,
			Status:        attendance.AttendanceStatusPresent,
		}, nil

	default:
		return attendance.AttendanceMutation{
			CheckIn:       checkIn,
			CheckOut:      checkOut,
			WorkHours:     decimal.Zero,
			OvertimeHours: decimal.Zero,
			Status:        attendance.AttendanceStatusPartial,
		}, nil
	}
}

func effectiveTimes(req regularization.RegularizationRequest) (checkIn, checkOut *attendance.ClockTime) {
	checkIn = req.RequestedCheckIn
	checkOut = req.RequestedCheckOut

	switch req.RequestType {
	case regularization.RequestTypeCheckIn:
		if checkOut == nil {
			checkOut = req.CurrentCheckOut
		}
	case regularization.RequestTypeCheckOut:
		if checkIn == nil {
			checkIn = req.CurrentCheckIn
		}
	}

	return checkIn, checkOut
}

func hours(d time.Duration) decimal.Decimal {
	return decimal.NewFromInt(int64(d / time.Second)).Div(secondsPerHour)
}
