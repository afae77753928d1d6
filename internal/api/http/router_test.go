package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-sla/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-sla/internal/auth"
	"github.com/spec-kit/helpdesk-sla/internal/domain"
	"github.com/spec-kit/helpdesk-sla/internal/observability"
	"github.com/spec-kit/helpdesk-sla/internal/repository/memory"
	"github.com/spec-kit/helpdesk-sla/internal/service"
)

type testServer struct {
	app    *fiber.App
	tokens *auth.TokenManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.NewStore()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	tokens := auth.NewTokenManager("test-secret", 5)

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("helpdesk-sla", "test", nil),
		Tickets:        handlers.NewTicketsHandler(service.NewTicketService(service.TicketDependencies{Store: store, Logger: logger})),
		SLA:            handlers.NewSLAHandler(service.NewSLAService(service.SLADependencies{Store: store, Logger: logger})),
		Categories:     handlers.NewCategoriesHandler(service.NewCategoryService(store, logger, nil)),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
		Metrics:        metrics,
	})
	return &testServer{app: app, tokens: tokens}
}

func (s *testServer) do(t *testing.T, method, path, userID string, role domain.UserRole, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		token, _, err := s.tokens.GenerateToken(userID, role)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func data(body map[string]any) map[string]any {
	d, _ := body["data"].(map[string]any)
	return d
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func (s *testServer) seedTicket(t *testing.T) (categoryID, ticketID, updatedAt string) {
	t.Helper()
	status, body := s.do(t, "POST", "/api/v1/categories", "mgr-1", domain.UserRoleManager, map[string]any{
		"name": "Hardware", "first_response_sla": 120, "resolution_sla": 480,
	})
	require.Equal(t, fiber.StatusCreated, status)
	categoryID = data(body)["id"].(string)

	status, body = s.do(t, "POST", "/api/v1/tickets", "req-1", domain.UserRoleRequester, map[string]any{
		"title": "Printer jam", "description": "Tray 2", "category_id": categoryID,
	})
	require.Equal(t, fiber.StatusCreated, status)
	ticket := data(body)
	assert.Equal(t, "ON_TIME", ticket["sla_status"])
	assert.Equal(t, "MEDIUM", ticket["priority"])
	return categoryID, ticket["id"].(string), ticket["updated_at"].(string)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, "GET", "/health/live", "", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "alive", body["status"])

	status, body = s.do(t, "GET", "/health/ready", "", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ready", body["status"])

	status, _ = s.do(t, "GET", "/metrics", "", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestAPIRequiresAuthentication(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, "GET", "/api/v1/tickets", "", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))
}

func TestTicketLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	_, ticketID, updatedAt := s.seedTicket(t)
	path := "/api/v1/tickets/" + ticketID

	status, body := s.do(t, "PATCH", path, "req-1", domain.UserRoleRequester, map[string]any{"status": "RESOLVED"})
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN_CHANGE", errorCode(body))

	status, body = s.do(t, "PATCH", path, "agent-1", domain.UserRoleAgent, map[string]any{
		"status": "IN_PROGRESS", "agent_id": "agent-1", "expected_updated_at": updatedAt,
	})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "IN_PROGRESS", data(body)["status"])
	assert.NotEqual(t, updatedAt, data(body)["updated_at"])

	status, body = s.do(t, "PATCH", path, "agent-1", domain.UserRoleAgent, map[string]any{
		"title": "stale edit", "expected_updated_at": updatedAt,
	})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "CONFLICT", errorCode(body))

	status, body = s.do(t, "POST", path+"/comments", "agent-1", domain.UserRoleAgent, map[string]any{"content": "on my way"})
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, false, data(body)["is_internal"])

	status, body = s.do(t, "GET", path, "req-1", domain.UserRoleRequester, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.NotNil(t, data(body)["first_response_at"])
	assert.Len(t, data(body)["comments"], 1)

	status, _ = s.do(t, "GET", path, "req-2", domain.UserRoleRequester, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = s.do(t, "GET", path+"/audit-logs", "req-1", domain.UserRoleRequester, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body = s.do(t, "GET", path+"/audit-logs", "mgr-1", domain.UserRoleManager, nil)
	require.Equal(t, fiber.StatusOK, status)
	// created, status change, assignment, comment
	assert.Len(t, body["data"], 4)

	status, body = s.do(t, "GET", "/api/v1/tickets?status=in_progress&limit=5", "agent-1", domain.UserRoleAgent, nil)
	require.Equal(t, fiber.StatusOK, status)
	pagination := body["pagination"].(map[string]any)
	assert.Equal(t, float64(1), pagination["total"])
	assert.Equal(t, float64(5), pagination["limit"])
}

func TestCreateTicketValidation(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, "POST", "/api/v1/tickets", "req-1", domain.UserRoleRequester, map[string]any{
		"title": "No category",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	status, body = s.do(t, "POST", "/api/v1/tickets", "req-1", domain.UserRoleRequester, map[string]any{
		"title": "Unknown category", "category_id": "missing",
	})
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}

func TestSLAEndpointsAreStaffOnly(t *testing.T) {
	s := newTestServer(t)
	s.seedTicket(t)

	status, _ := s.do(t, "GET", "/api/v1/sla/breaches", "req-1", domain.UserRoleRequester, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body := s.do(t, "GET", "/api/v1/sla/at-risk", "agent-1", domain.UserRoleAgent, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Empty(t, body["data"])

	status, body = s.do(t, "GET", "/api/v1/sla/compliance?period=30d", "agent-1", domain.UserRoleAgent, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(1), data(body)["total_tickets"])

	status, _ = s.do(t, "GET", "/api/v1/sla/compliance?period=1y", "agent-1", domain.UserRoleAgent, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = s.do(t, "POST", "/api/v1/sla/reconcile", "agent-1", domain.UserRoleAgent, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body = s.do(t, "POST", "/api/v1/sla/reconcile", "mgr-1", domain.UserRoleManager, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(1), data(body)["scanned"])
	assert.Equal(t, float64(0), data(body)["updated"])
}

func TestCategoryEndpoints(t *testing.T) {
	s := newTestServer(t)
	categoryID, _, _ := s.seedTicket(t)
	path := "/api/v1/categories/" + categoryID

	status, _ := s.do(t, "POST", "/api/v1/categories", "agent-1", domain.UserRoleAgent, map[string]any{
		"name": "Network", "first_response_sla": 10, "resolution_sla": 60,
	})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body := s.do(t, "PATCH", path, "mgr-1", domain.UserRoleManager, map[string]any{"resolution_sla": 600})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(600), data(body)["resolution_sla"])

	status, body = s.do(t, "DELETE", path, "mgr-1", domain.UserRoleManager, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, data(body)["is_active"])

	status, body = s.do(t, "GET", "/api/v1/categories", "req-1", domain.UserRoleRequester, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Empty(t, body["data"])

	status, body = s.do(t, "GET", "/api/v1/categories?include_inactive=true", "req-1", domain.UserRoleRequester, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["data"], 1)
}
