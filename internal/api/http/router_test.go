package http

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/peterfiasco/easylawBe-sub000/internal/api/http/handlers"
	"github.com/peterfiasco/easylawBe-sub000/internal/auth"
	"github.com/peterfiasco/easylawBe-sub000/internal/domain"
	"github.com/peterfiasco/easylawBe-sub000/internal/events"
	"github.com/peterfiasco/easylawBe-sub000/internal/observability"
	"github.com/peterfiasco/easylawBe-sub000/internal/persistence"
	"github.com/peterfiasco/easylawBe-sub000/internal/pricing"
	"github.com/peterfiasco/easylawBe-sub000/internal/repository/memory"
	"github.com/peterfiasco/easylawBe-sub000/internal/service"
)

type testServer struct {
	app        *fiber.App
	userToken  string
	otherToken string
	adminToken string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	store := memory.NewStore()
	resolver := pricing.NewResolver(store.Pricing(), metrics)
	documents := service.NewDocumentService(service.DocumentDependencies{
		DocumentRepo: store.Documents(),
		MaxBytes:     1 << 20,
		Metrics:      metrics,
	})
	requests := service.NewRequestService(service.RequestDependencies{
		RequestRepo: store.Requests(),
		NoteRepo:    store.Notes(),
		Documents:   documents,
		Pricing:     resolver,
		Dispatcher:  events.NewInMemoryDispatcher(),
		Metrics:     metrics,
	})
	pricingService := service.NewPricingService(service.PricingDependencies{
		PricingRepo: store.Pricing(),
		Resolver:    resolver,
	})
	tokens := auth.NewTokenManager("test-secret", 30)

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("test", "dev", &persistence.Postgres{}, &persistence.Redis{}),
		Requests:       handlers.NewRequestsHandler(requests),
		Admin:          handlers.NewAdminHandler(requests, logger),
		Pricing:        handlers.NewPricingHandler(pricingService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
		Gatherer:       registry,
	})

	issue := func(p domain.Principal) string {
		token, _, err := tokens.Issue(p)
		require.NoError(t, err)
		return token
	}
	return &testServer{
		app:        app,
		userToken:  issue(domain.Principal{ID: "user-1", Role: domain.RoleUser}),
		otherToken: issue(domain.Principal{ID: "user-2", Role: domain.RoleUser}),
		adminToken: issue(domain.Principal{ID: "admin-1", Role: domain.RoleAdmin}),
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (*nethttp.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

func data(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	d, ok := body["data"].(map[string]any)
	require.True(t, ok, "missing data envelope: %v", body)
	return d
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func createDD(t *testing.T, s *testServer) string {
	t.Helper()
	resp, body := s.do(t, nethttp.MethodPost, "/api/v1/requests", s.userToken, map[string]any{
		"service_type": "due_diligence",
		"subtype":      "property",
		"details": map[string]string{
			"subject_name":  "Plot 4, Lekki Phase 1",
			"scope":         "Title search",
			"contact_email": "buyer@example.com",
		},
	})
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode, body)
	return data(t, body)["reference_number"].(string)
}

func TestRequestLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	ref := createDD(t, s)

	resp, body := s.do(t, nethttp.MethodGet, "/api/v1/requests/"+ref, s.userToken, nil)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	detail := data(t, body)
	assert.Equal(t, "submitted", detail["status"])
	total := detail["total_amount"].(map[string]any)
	assert.EqualValues(t, 3000000, total["minor"])
	assert.Equal(t, "NGN 30000.00", total["display"])
	assert.Len(t, detail["notes"], 1)

	resp, body = s.do(t, nethttp.MethodGet, "/api/v1/requests/"+ref, s.otherToken, nil)
	assert.Equal(t, nethttp.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", errorCode(body))

	resp, _ = s.do(t, nethttp.MethodPost, "/api/v1/admin/requests/"+ref+"/status", s.userToken, map[string]any{"status": "processing"})
	assert.Equal(t, nethttp.StatusForbidden, resp.StatusCode)

	resp, body = s.do(t, nethttp.MethodPost, "/api/v1/admin/requests/"+ref+"/status", s.adminToken, map[string]any{"status": "processing", "note": "Searching registry"})
	require.Equal(t, nethttp.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "processing", data(t, body)["status"])

	resp, body = s.do(t, nethttp.MethodPatch, "/api/v1/requests/"+ref, s.userToken, map[string]any{"details": map[string]string{"scope": "Full"}})
	assert.Equal(t, nethttp.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INVALID_STATE", errorCode(body))

	resp, body = s.do(t, nethttp.MethodPost, "/api/v1/admin/requests/"+ref+"/payments", s.adminToken, map[string]any{"amount": 3000000})
	require.Equal(t, nethttp.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "paid", data(t, body)["payment_status"])

	resp, body = s.do(t, nethttp.MethodPost, "/api/v1/admin/requests/"+ref+"/status", s.adminToken, map[string]any{"status": "completed"})
	require.Equal(t, nethttp.StatusOK, resp.StatusCode, body)
	assert.NotNil(t, data(t, body)["actual_completion"])

	resp, body = s.do(t, nethttp.MethodPost, "/api/v1/requests/"+ref+"/notes", s.userToken, map[string]any{"message": "Thanks!"})
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode, body)
	assert.Equal(t, "user", data(t, body)["origin"])
}

func TestCreateValidationAndAuth(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(t, nethttp.MethodPost, "/api/v1/requests", "", map[string]any{"service_type": "due_diligence"})
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))

	resp, body = s.do(t, nethttp.MethodPost, "/api/v1/requests", s.userToken, map[string]any{"service_type": "due_diligence", "subtype": "property"})
	assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	resp, body = s.do(t, nethttp.MethodGet, "/api/v1/nowhere", s.userToken, nil)
	assert.Equal(t, nethttp.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}

func TestCancelOverHTTP(t *testing.T) {
	s := newTestServer(t)
	ref := createDD(t, s)

	resp, body := s.do(t, nethttp.MethodPost, "/api/v1/requests/"+ref+"/cancel", s.userToken, map[string]any{})
	assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode, body)

	resp, body = s.do(t, nethttp.MethodPost, "/api/v1/requests/"+ref+"/cancel", s.userToken, map[string]any{"reason": "Bought elsewhere"})
	require.Equal(t, nethttp.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "cancelled", data(t, body)["status"])
}

func TestDocumentUploadAndDownload(t *testing.T) {
	s := newTestServer(t)
	ref := createDD(t, s)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("category", "evidence"))
	part, err := mw.CreateFormFile("file", "survey.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("survey plan 4411"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(nethttp.MethodPost, "/api/v1/requests/"+ref+"/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.userToken)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode)
	var created map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	doc := data(t, created)
	assert.Equal(t, "survey.txt", doc["name"])
	assert.Equal(t, "evidence", doc["category"])

	resp, body := s.do(t, nethttp.MethodPost, "/api/v1/requests/"+ref+"/documents", s.userToken, map[string]any{
		"name":    "letter.txt",
		"content": []byte("dear sir"),
	})
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode, body)

	dl := httptest.NewRequest(nethttp.MethodGet, "/api/v1/requests/"+ref+"/documents/"+doc["id"].(string), nil)
	dl.Header.Set("Authorization", "Bearer "+s.adminToken)
	resp, err = s.app.Test(dl, -1)
	require.NoError(t, err)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	content, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "survey plan 4411", string(content))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "survey.txt")

	resp, body = s.do(t, nethttp.MethodGet, "/api/v1/requests/"+ref, s.userToken, nil)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	docs := data(t, body)["documents"].([]any)
	require.Len(t, docs, 2)
	assert.Equal(t, "survey.txt", docs[0].(map[string]any)["name"])
}

func TestPricingEndpoints(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(t, nethttp.MethodGet, "/api/v1/quote?service_type=business_registration&subtype=incorporation&priority=urgent", "", nil)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode, body)
	quote := data(t, body)
	assert.Equal(t, "base_table", quote["source"])
	assert.EqualValues(t, 5000000, quote["total"].(map[string]any)["minor"])

	resp, body = s.do(t, nethttp.MethodGet, "/api/v1/quote?service_type=ip_protection&subtype=plant_variety", "", nil)
	assert.Equal(t, nethttp.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "PRICING_UNAVAILABLE", errorCode(body))

	entry := map[string]any{"service_type": "business_registration", "subtype": "incorporation", "priority": "urgent", "price": 4000000}
	resp, _ = s.do(t, nethttp.MethodPost, "/api/v1/admin/pricing", s.userToken, entry)
	assert.Equal(t, nethttp.StatusForbidden, resp.StatusCode)

	resp, body = s.do(t, nethttp.MethodPost, "/api/v1/admin/pricing", s.adminToken, entry)
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode, body)
	id := data(t, body)["id"].(string)

	resp, body = s.do(t, nethttp.MethodPost, "/api/v1/admin/pricing", s.adminToken, entry)
	assert.Equal(t, nethttp.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", errorCode(body))

	resp, body = s.do(t, nethttp.MethodGet, "/api/v1/quote?service_type=business_registration&subtype=incorporation&priority=urgent", "", nil)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, "entry", data(t, body)["source"])
	assert.EqualValues(t, 4000000, data(t, body)["total"].(map[string]any)["minor"])

	entry["price"] = 4500000
	resp, body = s.do(t, nethttp.MethodPut, "/api/v1/admin/pricing", s.adminToken, entry)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode, body)
	replaced := data(t, body)
	assert.Equal(t, id, replaced["previous"].(map[string]any)["id"])

	resp, body = s.do(t, nethttp.MethodGet, "/api/v1/admin/pricing?include_inactive=true", s.adminToken, nil)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Len(t, body["data"], 2)

	newID := replaced["entry"].(map[string]any)["id"].(string)
	resp, body = s.do(t, nethttp.MethodDelete, "/api/v1/admin/pricing/"+newID, s.adminToken, nil)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode, body)
	assert.Equal(t, false, data(t, body)["active"])
}

func TestExportAndOperationalEndpoints(t *testing.T) {
	s := newTestServer(t)
	createDD(t, s)

	req := httptest.NewRequest(nethttp.MethodGet, "/api/v1/admin/requests/export", nil)
	req.Header.Set("Authorization", "Bearer "+s.adminToken)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "spreadsheetml")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("PK")))

	resp, health := s.do(t, nethttp.MethodGet, "/health/ready", "", nil)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	deps := health["dependencies"].(map[string]any)
	assert.Equal(t, "disabled", deps["postgres"])
	assert.Equal(t, "disabled", deps["redis"])

	resp, _ = s.do(t, nethttp.MethodGet, "/metrics", "", nil)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
}
