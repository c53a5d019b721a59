package regularization

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-regularization/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-regularization/internal/domain/audit"
	"github.com/cmlabs-hris/attendance-regularization/internal/domain/regularization"
	"github.com/cmlabs-hris/attendance-regularization/internal/domain/user"
	"github.com/cmlabs-hris/attendance-regularization/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-regularization/internal/pkg/validator"
	"github.com/cmlabs-hris/attendance-regularization/internal/repository/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCompanyID = "company-1"

var fixedNow = time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)

// unknownRequestID is a well-formed UUIDv7 that no test ever stores.
const unknownRequestID = "0190a5f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b"

type testEnv struct {
	svc            regularization.RegularizationService
	requests       regularization.RegularizationRepository
	attendances    attendance.AttendanceRepository
	audits         audit.AuditRepository
	db             *database.SQLiteDB
	gate           *countingGate
	reviewer       user.Actor
	employee       user.Actor
	otherEmployee  user.Actor
	pendingUser    user.Actor
	superAdmin     user.Actor
	foreignManager user.Actor
}

// countingGate delegates to RoleGate and counts how often it was asked.
type countingGate struct {
	calls atomic.Int64
	inner *user.RoleGate
}

func (g *countingGate) HasCapability(ctx context.Context, actor user.Actor, permission user.Permission) bool {
	g.calls.Add(1)
	return g.inner.HasCapability(ctx, actor, permission)
}

// failingAuditRepository fails every append.
type failingAuditRepository struct {
	audit.AuditRepository
}

func (f failingAuditRepository) Append(ctx context.Context, entry audit.AuditLog) (audit.AuditLog, error) {
	return audit.AuditLog{}, database.Unavailable("append audit log", errors.New("disk full"))
}

func actor(userID, employeeID, companyID string, role user.Role) user.Actor {
	return user.Actor{
		UserID:     userID,
		EmployeeID: &employeeID,
		CompanyID:  companyID,
		Role:       role,
		IPAddress:  "10.0.0.1",
		UserAgent:  "go-test",
	}
}

func newTestEnv(t *testing.T, auditOverride func(audit.AuditRepository) audit.AuditRepository) *testEnv {
	t.Helper()
	return newTestEnvWithClock(t, auditOverride, func() time.Time { return fixedNow })
}

func newTestEnvWithClock(t *testing.T, auditOverride func(audit.AuditRepository) audit.AuditRepository, now func() time.Time) *testEnv {
	t.Helper()

	db, err := database.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, sqlite.Migrate(context.Background(), db))

	env := &testEnv{
		requests:       sqlite.NewRegularizationRepository(db),
		attendances:    sqlite.NewAttendanceRepository(db),
		audits:         sqlite.NewAuditRepository(db),
		db:             db,
		gate:           &countingGate{inner: user.NewRoleGate()},
		reviewer:       actor("user-mgr", "emp-mgr", testCompanyID, user.RoleManager),
		employee:       actor("user-1", "emp-1", testCompanyID, user.RoleEmployee),
		otherEmployee:  actor("user-2", "emp-2", testCompanyID, user.RoleEmployee),
		pendingUser:    actor("user-3", "emp-3", testCompanyID, user.RolePending),
		foreignManager: actor("user-9", "emp-9", "company-2", user.RoleManager),
	}
	env.superAdmin = user.Actor{UserID: "root", CompanyID: testCompanyID, Role: user.RolePending, IsAdmin: true}

	auditRepo := env.audits
	if auditOverride != nil {
		auditRepo = auditOverride(auditRepo)
	}

	env.svc = NewRegularizationService(
		sqlite.NewTransactor(db),
		env.requests,
		env.attendances,
		auditRepo,
		env.gate,
		NewReconciler(DefaultStandardWorkHours),
		WithClock(now),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	return env
}

func strPtr(s string) *string { return &s }

func checkInRequest() regularization.SubmitRequest {
	return regularization.SubmitRequest{
		AttendanceDate:   "2024-03-01",
		RequestType:      "check_in",
		RequestedCheckIn: strPtr("09:05"),
		CurrentCheckOut:  strPtr("17:05"),
		Reason:           "badge reader was offline in the morning",
	}
}

// assertStatusMatchesAudit checks that the stored status equals the status
// implied by the latest audit entry.
func assertStatusMatchesAudit(t *testing.T, env *testEnv, id string) {
	t.Helper()
	ctx := context.Background()

	req, err := env.requests.GetByID(ctx, id, testCompanyID)
	require.NoError(t, err)
	entries, err := env.audits.ListForRequest(ctx, id, testCompanyID)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	implied, ok := regularization.StatusFromAuditAction(entries[len(entries)-1].Action)
	require.True(t, ok)
	assert.Equal(t, req.Status, implied)
}

func TestRegularizationService_SubmitAndApprove(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	id, err := env.svc.Submit(ctx, env.employee, checkInRequest())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	submitted, err := env.svc.Get(ctx, env.employee, id)
	require.NoError(t, err)
	assert.Equal(t, "pending", submitted.Status)
	assert.Equal(t, "emp-1", submitted.EmployeeID)
	assert.Equal(t, "2024-03-01", submitted.AttendanceDate)

	notes := "matches the door log"
	reviewed, err := env.svc.Review(ctx, env.reviewer, regularization.ReviewRequest{
		RequestID: id,
		Action:    "approved",
		Notes:     &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, "approved", reviewed.Status)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, "user-mgr", *reviewed.ReviewedBy)
	require.NotNil(t, reviewed.ReviewNotes)
	assert.Equal(t, notes, *reviewed.ReviewNotes)

	att, err := env.attendances.GetByEmployeeAndDate(ctx, "emp-1", testCompanyID, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotNil(t, att)
	assert.True(t, att.WorkHours.Equal(decimal.NewFromInt(8)))
	assert.True(t, att.OvertimeHours.IsZero())
	assert.Equal(t, attendance.AttendanceStatusPresent, att.Status)
	assert.Equal(t, "09:05:00", att.CheckIn.String())
	assert.Equal(t, "17:05:00", att.CheckOut.String())

	entries, err := env.svc.ListAuditForRequest(ctx, env.reviewer, id)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "submitted", entries[0].Action)
	assert.Equal(t, "employee", entries[0].ActorType)
	assert.Equal(t, "user-1", entries[0].ActorID)
	assert.Equal(t, "10.0.0.1", entries[0].IPAddress)
	assert.Equal(t, "approved", entries[1].Action)
	assert.Equal(t, "reviewer", entries[1].ActorType)
	assert.Equal(t, notes, entries[1].Reason)

	got, err := env.svc.GetAttendance(ctx, env.employee, "emp-1", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, "8", got.WorkHours)
	assert.Equal(t, "present", got.Status)

	assertStatusMatchesAudit(t, env, id)
}

func TestRegularizationService_DuplicatePendingSubmit(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, err := env.svc.Submit(ctx, env.employee, checkInRequest())
	require.NoError(t, err)

	_, err = env.svc.Submit(ctx, env.employee, checkInRequest())
	assert.ErrorIs(t, err, regularization.ErrRequestAlreadyPending)
	assert.ErrorIs(t, err, regularization.ErrConflict)

	filter := regularization.RegularizationFilter{}
	list, err := env.svc.List(ctx, env.reviewer, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.TotalCount)
}

func TestRegularizationService_ConcurrentReviews(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	id, err := env.svc.Submit(ctx, env.employee, checkInRequest())
	require.NoError(t, err)

	outcomes := []string{"approved", "rejected"}
	errs := make([]error, len(outcomes))

	var wg sync.WaitGroup
	for i, outcome := range outcomes {
		wg.Add(1)
		go func(i int, outcome string) {
			defer wg.Done()
			_, errs[i] = env.svc.Review(ctx, env.reviewer, regularization.ReviewRequest{RequestID: id, Action: outcome})
		}(i, outcome)
	}
	wg.Wait()

	winner := ""
	conflicts := 0
	for i, err := range errs {
		switch {
		case err == nil:
			winner = outcomes[i]
		case errors.Is(err, regularization.ErrRequestAlreadyReviewed):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.NotEmpty(t, winner)
	assert.Equal(t, 1, conflicts)

	final, err := env.svc.Get(ctx, env.reviewer, id)
	require.NoError(t, err)
	assert.Equal(t, winner, final.Status)

	entries, err := env.audits.ListForRequest(ctx, id, testCompanyID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, audit.ActionSubmitted, entries[0].Action)
	assert.NotEqual(t, audit.ActionSubmitted, entries[1].Action)

	assertStatusMatchesAudit(t, env, id)
}

func TestRegularizationService_ReconcileFailureRollsBack(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	id, err := env.svc.Submit(ctx, env.employee, regularization.SubmitRequest{
		AttendanceDate:    "2024-03-01",
		RequestType:       "full_day",
		RequestedCheckIn:  strPtr("22:00"),
		RequestedCheckOut: strPtr("06:00"),
		Reason:            "night shift",
	})
	require.NoError(t, err)

	_, err = env.svc.Review(ctx, env.reviewer, regularization.ReviewRequest{RequestID: id, Action: "approved"})
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))

	req, err := env.requests.GetByID(ctx, id, testCompanyID)
	require.NoError(t, err)
	assert.Equal(t, regularization.StatusPending, req.Status)
	assert.Nil(t, req.ReviewedBy)
	assert.Nil(t, req.ReviewedAt)

	att, err := env.attendances.GetByEmployeeAndDate(ctx, "emp-1", testCompanyID, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Nil(t, att)

	entries, err := env.audits.ListForRequest(ctx, id, testCompanyID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assertStatusMatchesAudit(t, env, id)

	// The request can still be rejected afterwards.
	_, err = env.svc.Review(ctx, env.reviewer, regularization.ReviewRequest{RequestID: id, Action: "rejected"})
	require.NoError(t, err)
	assertStatusMatchesAudit(t, env, id)
}

func TestRegularizationService_AuditFailureRollsBackSubmit(t *testing.T) {
	env := newTestEnv(t, func(inner audit.AuditRepository) audit.AuditRepository {
		return failingAuditRepository{AuditRepository: inner}
	})
	ctx := context.Background()

	_, err := env.svc.Submit(ctx, env.employee, checkInRequest())
	assert.ErrorIs(t, err, regularization.ErrStorageUnavailable)

	pending, err := env.requests.ListPendingFor(ctx, "emp-1", testCompanyID, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRegularizationService_AuditFailureRollsBackReview(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)

	id, err := env.svc.Submit(ctx, env.employee, checkInRequest())
	require.NoError(t, err)

	failing := NewRegularizationService(
		sqlite.NewTransactor(env.db),
		env.requests,
		env.attendances,
		failingAuditRepository{AuditRepository: env.audits},
		env.gate,
		NewReconciler(DefaultStandardWorkHours),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	_, err = failing.Review(ctx, env.reviewer, regularization.ReviewRequest{RequestID: id, Action: "approved"})
	assert.ErrorIs(t, err, regularization.ErrStorageUnavailable)

	req, err := env.requests.GetByID(ctx, id, testCompanyID)
	require.NoError(t, err)
	assert.Equal(t, regularization.StatusPending, req.Status)

	att, err := env.attendances.GetByEmployeeAndDate(ctx, "emp-1", testCompanyID, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Nil(t, att)
}

func TestRegularizationService_MoreInfoRequiredIsTerminal(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	id, err := env.svc.Submit(ctx, env.employee, checkInRequest())
	require.NoError(t, err)

	_, err = env.svc.Review(ctx, env.reviewer, regularization.ReviewRequest{
		RequestID: id,
		Action:    "more_info_required",
		Notes:     strPtr("attach the gate log"),
	})
	require.NoError(t, err)
	assertStatusMatchesAudit(t, env, id)

	_, err = env.svc.Review(ctx, env.reviewer, regularization.ReviewRequest{RequestID: id, Action: "approved"})
	assert.ErrorIs(t, err, regularization.ErrRequestAlreadyReviewed)

	// A fresh submission for the same day gets a new id.
	again, err := env.svc.Submit(ctx, env.employee, checkInRequest())
	require.NoError(t, err)
	assert.NotEqual(t, id, again)

	entries, err := env.audits.ListForRequest(ctx, id, testCompanyID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, audit.ActionMoreInfoRequested, entries[1].Action)
}

func TestRegularizationService_Authorization(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	id, err := env.svc.Submit(ctx, env.employee, checkInRequest())
	require.NoError(t, err)

	t.Run("employee cannot review", func(t *testing.T) {
		_, err := env.svc.Review(ctx, env.employee, regularization.ReviewRequest{RequestID: id, Action: "approved"})
		assert.ErrorIs(t, err, regularization.ErrForbidden)
		assertStatusMatchesAudit(t, env, id)
	})

	t.Run("pending role cannot submit", func(t *testing.T) {
		_, err := env.svc.Submit(ctx, env.pendingUser, checkInRequest())
		assert.ErrorIs(t, err, regularization.ErrForbidden)
	})

	t.Run("employee cannot file for someone else", func(t *testing.T) {
		req := checkInRequest()
		req.EmployeeID = "emp-2"
		_, err := env.svc.Submit(ctx, env.employee, req)
		assert.ErrorIs(t, err, regularization.ErrForbidden)
	})

	t.Run("company mismatch", func(t *testing.T) {
		req := checkInRequest()
		req.CompanyID = "company-2"
		_, err := env.svc.Submit(ctx, env.employee, req)
		assert.ErrorIs(t, err, regularization.ErrForbidden)
	})

	t.Run("reviewer from another company sees nothing", func(t *testing.T) {
		_, err := env.svc.Review(ctx, env.foreignManager, regularization.ReviewRequest{RequestID: id, Action: "approved"})
		assert.ErrorIs(t, err, regularization.ErrNotFound)

		_, err = env.svc.Get(ctx, env.foreignManager, id)
		assert.ErrorIs(t, err, regularization.ErrNotFound)
	})

	t.Run("employees read only their own requests", func(t *testing.T) {
		_, err := env.svc.Get(ctx, env.employee, id)
		assert.NoError(t, err)

		_, err = env.svc.Get(ctx, env.otherEmployee, id)
		assert.ErrorIs(t, err, regularization.ErrForbidden)

		_, err = env.svc.ListAuditForRequest(ctx, env.otherEmployee, id)
		assert.ErrorIs(t, err, regularization.ErrForbidden)

		_, err = env.svc.ListPendingFor(ctx, env.otherEmployee, "emp-1", "2024-03-01")
		assert.ErrorIs(t, err, regularization.ErrForbidden)

		own, err := env.svc.List(ctx, env.otherEmployee, regularization.RegularizationFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(0), own.TotalCount)
		assert.Equal(t, "0 of 0", own.Showing)
	})

	t.Run("manager may file on behalf of an employee", func(t *testing.T) {
		req := checkInRequest()
		req.EmployeeID = "emp-2"
		_, err := env.svc.Submit(ctx, env.reviewer, req)
		assert.NoError(t, err)
	})
}

func TestRegularizationService_PrivilegedBypass(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	id, err := env.svc.Submit(ctx, env.employee, checkInRequest())
	require.NoError(t, err)

	callsBefore := env.gate.calls.Load()
	reviewed, err := env.svc.Review(ctx, env.superAdmin, regularization.ReviewRequest{RequestID: id, Action: "rejected"})
	require.NoError(t, err)
	assert.Equal(t, "rejected", reviewed.Status)
	assert.Equal(t, callsBefore, env.gate.calls.Load(), "privileged actor must not consult the gate")

	// Company isolation still applies to privileged actors.
	foreignAdmin := env.superAdmin
	foreignAdmin.CompanyID = "company-2"
	_, err = env.svc.Get(ctx, foreignAdmin, id)
	assert.ErrorIs(t, err, regularization.ErrNotFound)

	noCompany := env.superAdmin
	noCompany.CompanyID = ""
	_, err = env.svc.Get(ctx, noCompany, id)
	assert.ErrorIs(t, err, regularization.ErrForbidden)
}

func TestRegularizationService_Validation(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		req   regularization.SubmitRequest
		field string
	}{
		{
			name:  "future date",
			req:   regularization.SubmitRequest{AttendanceDate: "2024-03-03", RequestType: "full_day", Reason: "x"},
			field: "attendance_date",
		},
		{
			name:  "blank reason",
			req:   regularization.SubmitRequest{AttendanceDate: "2024-03-01", RequestType: "full_day", Reason: "  "},
			field: "reason",
		},
		{
			name:  "bad type",
			req:   regularization.SubmitRequest{AttendanceDate: "2024-03-01", RequestType: "overtime", Reason: "x"},
			field: "request_type",
		},
		{
			name:  "bad time",
			req:   regularization.SubmitRequest{AttendanceDate: "2024-03-01", RequestType: "check_in", RequestedCheckIn: strPtr("9am"), Reason: "x"},
			field: "requested_check_in",
		},
		{
			name:  "bad date",
			req:   regularization.SubmitRequest{AttendanceDate: "01/03/2024", RequestType: "full_day", Reason: "x"},
			field: "attendance_date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Submit(ctx, env.employee, tt.req)
			var verrs validator.ValidationErrors
			require.True(t, errors.As(err, &verrs), "got %v", err)
			assert.Contains(t, verrs.ToMap(), tt.field)
		})
	}

	t.Run("unknown review action", func(t *testing.T) {
		_, err := env.svc.Review(ctx, env.reviewer, regularization.ReviewRequest{RequestID: "x", Action: "pending"})
		var verrs validator.ValidationErrors
		require.True(t, errors.As(err, &verrs))
		assert.Contains(t, verrs.ToMap(), "action")
	})

	t.Run("unknown request", func(t *testing.T) {
		_, err := env.svc.Review(ctx, env.reviewer, regularization.ReviewRequest{RequestID: unknownRequestID, Action: "approved"})
		assert.ErrorIs(t, err, regularization.ErrNotFound)

		_, err = env.svc.Get(ctx, env.reviewer, unknownRequestID)
		assert.ErrorIs(t, err, regularization.ErrNotFound)
	})

	t.Run("malformed request id", func(t *testing.T) {
		_, err := env.svc.Review(ctx, env.reviewer, regularization.ReviewRequest{RequestID: "missing", Action: "approved"})
		var verrs validator.ValidationErrors
		require.True(t, errors.As(err, &verrs))
		assert.Contains(t, verrs.ToMap(), "id")

		_, err = env.svc.Get(ctx, env.reviewer, "missing")
		require.True(t, errors.As(err, &verrs))
		assert.Contains(t, verrs.ToMap(), "id")

		_, err = env.svc.ListAuditForRequest(ctx, env.reviewer, "1; DROP TABLE x")
		require.True(t, errors.As(err, &verrs))
	})

	t.Run("attendance not yet recorded", func(t *testing.T) {
		_, err := env.svc.GetAttendance(ctx, env.reviewer, "emp-1", "2024-02-01")
		assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)
	})
}

func TestRegularizationService_ListPagination(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	for _, date := range []string{"2024-02-26", "2024-02-27", "2024-02-28"} {
		req := checkInRequest()
		req.AttendanceDate = date
		_, err := env.svc.Submit(ctx, env.employee, req)
		require.NoError(t, err)
	}

	list, err := env.svc.List(ctx, env.reviewer, regularization.RegularizationFilter{Page: 2, Limit: 2, SortBy: "attendance_date", SortOrder: "asc"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), list.TotalCount)
	assert.Equal(t, 2, list.TotalPages)
	assert.Equal(t, "3-3 of 3", list.Showing)
	require.Len(t, list.Regularizations, 1)
	assert.Equal(t, "2024-02-28", list.Regularizations[0].AttendanceDate)

	pending, err := env.svc.ListPendingFor(ctx, env.employee, "emp-1", "2024-02-27")
	require.NoError(t, err)
	require.Len(t, pending, 1)
}

func TestRegularizationService_ClockStepBackKeepsAuditOrder(t *testing.T) {
	var calls atomic.Int64
	// The clock goes back one second after the first read, as after an NTP correction.
	steppingClock := func() time.Time {
		if calls.Add(1) == 1 {
			return fixedNow
		}
		return fixedNow.Add(-time.Second)
	}

	env := newTestEnvWithClock(t, nil, steppingClock)
	ctx := context.Background()

	id, err := env.svc.Submit(ctx, env.employee, checkInRequest())
	require.NoError(t, err)

	_, err = env.svc.Review(ctx, env.reviewer, regularization.ReviewRequest{RequestID: id, Action: "rejected"})
	require.NoError(t, err)

	entries, err := env.audits.ListForRequest(ctx, id, testCompanyID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, audit.ActionSubmitted, entries[0].Action)
	assert.Equal(t, audit.ActionRejected, entries[1].Action)
	assert.False(t, entries[1].CreatedAt.Before(entries[0].CreatedAt))

	assertStatusMatchesAudit(t, env, id)
}
