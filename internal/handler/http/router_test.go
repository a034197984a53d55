package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/user"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/sse"
	"github.com/cmlabs-hris/payroll-engine/internal/repository/memory"
	notificationService "github.com/cmlabs-hris/payroll-engine/internal/service/notification"
	"github.com/cmlabs-hris/payroll-engine/internal/service/servicetest"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const handlerTestSecret = "test-secret-key-for-jwt"

// monday 09:00 UTC is on time under the default shift.
var monday = time.Date(2025, time.January, 6, 9, 0, 0, 0, time.UTC)

type testAPI struct {
	h      *servicetest.Harness
	jwt    jwt.Service
	router *chi.Mux
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	h := servicetest.New(t, monday)
	jwtService := jwt.NewJWTService(handlerTestSecret, time.Hour)

	notifSvc := notificationService.NewNotificationService(
		memory.NewNotificationRepository(h.Store),
		sse.NewHub(),
		notificationService.Config{BatchSize: 10, FlushInterval: 20 * time.Millisecond, WorkerCount: 1, QueueSize: 10},
	)
	t.Cleanup(notifSvc.Stop)

	router := NewRouter(RouterConfig{
		AppName:        "payroll-engine-test",
		Version:        "test",
		Env:            "test",
		LogLevel:       slog.LevelError,
		AllowedOrigins: []string{"http://localhost:3000"},
	}, jwtService, Handlers{
		Attendance:   NewAttendanceHandler(h.Attendance),
		Correction:   NewCorrectionHandler(h.Correction),
		Salary:       NewSalaryHandler(h.SalaryEngine, h.LedgerService),
		Cashbook:     NewCashbookHandler(h.CashbookService),
		Company:      NewCompanyHandler(h.Company),
		Notification: NewNotificationHandler(notifSvc, jwtService),
		Audit:        NewAuditHandler(h.Audit),
	})

	return &testAPI{h: h, jwt: jwtService, router: router}
}

func (a *testAPI) token(t *testing.T, actor user.Actor) string {
	t.Helper()
	token, _, err := a.jwt.GenerateAccessToken(actor)
	require.NoError(t, err)
	return token
}

func (a *testAPI) staff(t *testing.T, e employee.Employee) string {
	return a.token(t, user.Actor{UserID: e.UserID, EmployeeID: e.ID, CompanyID: a.h.CompanyID, Role: user.RoleStaff})
}

func (a *testAPI) manager(t *testing.T) string {
	return a.token(t, user.Actor{UserID: "manager-1", CompanyID: a.h.CompanyID, Role: user.RoleManager})
}

func (a *testAPI) owner(t *testing.T) string {
	return a.token(t, user.Actor{UserID: "owner-1", CompanyID: a.h.CompanyID, Role: user.RoleAdmin})
}

func (a *testAPI) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func decodeData(t *testing.T, env envelope, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func TestRouter_RequiresAuthentication(t *testing.T) {
	api := newTestAPI(t)

	rec, _ := api.do(t, http.MethodGet, "/api/v1/attendance/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = api.do(t, http.MethodGet, "/api/v1/attendance/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_RejectsSSETokenAsAccessToken(t *testing.T) {
	api := newTestAPI(t)
	emp := api.h.AddDailyEmployee(t, "Asha", 1000)
	sseToken, _, err := api.jwt.GenerateSSEToken(user.Actor{UserID: emp.UserID, EmployeeID: emp.ID, CompanyID: api.h.CompanyID, Role: user.RoleStaff})
	require.NoError(t, err)

	rec, _ := api.do(t, http.MethodGet, "/api/v1/attendance/me", sseToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_PermissionGroups(t *testing.T) {
	api := newTestAPI(t)
	emp := api.h.AddDailyEmployee(t, "Asha", 1000)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"staff cannot list salaries", http.MethodGet, "/api/v1/salaries", api.staff(t, emp), http.StatusForbidden},
		{"staff cannot read cashbook", http.MethodGet, "/api/v1/cashbook", api.staff(t, emp), http.StatusForbidden},
		{"manager reads salaries", http.MethodGet, "/api/v1/salaries", api.manager(t), http.StatusOK},
		{"manager cannot record payments", http.MethodPost, "/api/v1/ledger/payments", api.manager(t), http.StatusForbidden},
		{"manager cannot punch", http.MethodPost, "/api/v1/attendance/punch-in", api.manager(t), http.StatusForbidden},
		{"manager cannot read audit", http.MethodGet, "/api/v1/audit-logs", api.manager(t), http.StatusForbidden},
		{"owner reads audit", http.MethodGet, "/api/v1/audit-logs", api.owner(t), http.StatusOK},
		{"everyone reads settings", http.MethodGet, "/api/v1/company/settings", api.staff(t, emp), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := api.do(t, tt.method, tt.path, tt.token, nil)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestRouter_PunchAndReview(t *testing.T) {
	api := newTestAPI(t)
	emp := api.h.AddDailyEmployee(t, "Asha", 1000)
	staff := api.staff(t, emp)

	// Punch in
	rec, env := api.do(t, http.MethodPost, "/api/v1/attendance/punch-in", staff,
		map[string]interface{}{"image_proof_url": "https://files.example.com/in.jpg"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var punched struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decodeData(t, env, &punched)
	assert.Equal(t, "PENDING", punched.Status)

	// A second punch-in conflicts
	rec, env = api.do(t, http.MethodPost, "/api/v1/attendance/punch-in", staff,
		map[string]interface{}{"image_proof_url": "https://files.example.com/in.jpg"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, env.Success)

	// Punch out after a full shift
	api.h.Clock.Set(monday.Add(9 * time.Hour))
	rec, _ = api.do(t, http.MethodPost, "/api/v1/attendance/punch-out", staff,
		map[string]interface{}{"image_proof_url": "https://files.example.com/out.jpg"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Manager approves
	rec, env = api.do(t, http.MethodPatch, "/api/v1/attendance/"+punched.ID+"/status", api.manager(t),
		map[string]interface{}{"status": "APPROVED"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var approved struct {
		Status string `json:"status"`
	}
	decodeData(t, env, &approved)
	assert.Equal(t, "APPROVED", approved.Status)

	// Approving again is a conflict
	rec, _ = api.do(t, http.MethodPatch, "/api/v1/attendance/"+punched.ID+"/status", api.manager(t),
		map[string]interface{}{"status": "APPROVED"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Staff sees the record in their own listing
	rec, _ = api.do(t, http.MethodGet, "/api/v1/attendance/me", staff, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), punched.ID)
}

func TestRouter_BadInput(t *testing.T) {
	api := newTestAPI(t)
	emp := api.h.AddDailyEmployee(t, "Asha", 1000)

	rec, env := api.do(t, http.MethodPost, "/api/v1/attendance/punch-in", api.staff(t, emp), "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)

	rec, env = api.do(t, http.MethodPost, "/api/v1/ledger/payments", api.owner(t), map[string]interface{}{
		"employee_id":  emp.ID,
		"month":        1,
		"year":         2025,
		"amount":       "-5",
		"payment_mode": "CASH",
		"date":         "2025-01-10",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Details, "amount")

	rec, _ = api.do(t, http.MethodGet, "/api/v1/salaries/00000000-0000-0000-0000-000000000000", api.owner(t), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_PaymentFlow(t *testing.T) {
	api := newTestAPI(t)
	emp := api.h.AddDailyEmployee(t, "Asha", 1000)
	api.h.SeedApprovedDays(t, emp, 2025, time.January, 2, 9)
	owner := api.owner(t)

	rec, env := api.do(t, http.MethodPost, "/api/v1/ledger/payments", owner, map[string]interface{}{
		"employee_id":  emp.ID,
		"month":        1,
		"year":         2025,
		"amount":       "500",
		"payment_mode": "CASH",
		"date":         "2025-01-10",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var entry struct {
		ID     string `json:"id"`
		Amount string `json:"amount"`
	}
	decodeData(t, env, &entry)
	assert.Equal(t, "500", entry.Amount)

	// The synthesized salary is listed for the period
	rec, env = api.do(t, http.MethodGet, "/api/v1/salaries?month=1&year=2025&employee_id="+emp.ID, owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Salaries []struct {
			ID        string `json:"id"`
			NetAmount string `json:"net_amount"`
		} `json:"salaries"`
	}
	decodeData(t, env, &list)
	require.Len(t, list.Salaries, 1)
	assert.Equal(t, "2000", list.Salaries[0].NetAmount)

	// The cashbook mirrors the payment
	rec, _ = api.do(t, http.MethodGet, "/api/v1/cashbook?employee_id="+emp.ID, owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"500"`)

	// Approve then settle the rest
	salaryID := list.Salaries[0].ID
	rec, _ = api.do(t, http.MethodPost, "/api/v1/salaries/"+salaryID+"/approve", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, _ = api.do(t, http.MethodPost, "/api/v1/salaries/"+salaryID+"/mark-paid", owner, map[string]interface{}{
		"payment_date": "2025-01-31",
		"method":       "BANK_TRANSFER",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// A paid salary refuses further money
	rec, _ = api.do(t, http.MethodPost, "/api/v1/ledger/payments", owner, map[string]interface{}{
		"salary_id":    salaryID,
		"amount":       "1",
		"payment_mode": "CASH",
		"date":         "2025-01-31",
	})
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
}

func TestRouter_NotificationStream(t *testing.T) {
	api := newTestAPI(t)
	emp := api.h.AddDailyEmployee(t, "Asha", 1000)

	rec, env := api.do(t, http.MethodPost, "/api/v1/notifications/sse-token", api.staff(t, emp), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var tok struct {
		Token     string `json:"token"`
		ExpiresIn int    `json:"expires_in"`
	}
	decodeData(t, env, &tok)
	assert.Equal(t, 300, tok.ExpiresIn)

	srv := httptest.NewServer(api.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/notifications/stream?token="+tok.Token, nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: connected\n", line)
}

func TestRouter_NotificationStreamRejectsAccessToken(t *testing.T) {
	api := newTestAPI(t)
	emp := api.h.AddDailyEmployee(t, "Asha", 1000)

	rec, _ := api.do(t, http.MethodGet, "/api/v1/notifications/stream", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = api.do(t, http.MethodGet, "/api/v1/notifications/stream?token="+api.staff(t, emp), "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
