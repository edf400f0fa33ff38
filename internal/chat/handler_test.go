package chat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lead_engine_backend/internal/verify"

	"github.com/gin-gonic/gin"
)

func newWebhookRouter(verifier verify.Verifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	// A nil service proves the request is rejected before any processing:
	// reaching the service would panic the test.
	h := NewHandler(nil, verifier, "expected-token")
	r := gin.New()
	r.GET("/webhooks/chat/:tenantId", h.HandleVerification)
	r.POST("/webhooks/chat/:tenantId", h.HandleDelivery)
	return r
}

func TestHandleDeliveryMalformedJSON(t *testing.T) {
	r := newWebhookRouter(verify.NoopVerifier{})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/chat/5aa3a078-5872-4dcb-9c84-6a852ad0c224", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 so the provider does not redeliver", rec.Code)
	}

	var result ProcessingResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(result.Errors) == 0 {
		t.Error("malformed payload must be reported in the result errors")
	}
	if result.Processed != 0 {
		t.Errorf("processed = %d, want 0", result.Processed)
	}
}

func TestHandleDeliveryInvalidTenantID(t *testing.T) {
	r := newWebhookRouter(verify.NoopVerifier{})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/chat/not-a-uuid", strings.NewReader(`{"messages":[]}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var result ProcessingResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(result.Errors) == 0 {
		t.Error("invalid tenant id must be reported in the result errors")
	}
}

func TestHandleDeliveryBadSignature(t *testing.T) {
	r := newWebhookRouter(verify.NewHMAC("secret"))

	req := httptest.NewRequest(http.MethodPost, "/webhooks/chat/5aa3a078-5872-4dcb-9c84-6a852ad0c224", strings.NewReader(`{"messages":[]}`))
	req.Header.Set(verify.Header, "sha256=deadbeef")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 for a bad signature", rec.Code)
	}
}

func TestHandleVerification(t *testing.T) {
	r := newWebhookRouter(verify.NoopVerifier{})

	req := httptest.NewRequest(http.MethodGet, "/webhooks/chat/any?hub.mode=subscribe&hub.verify_token=expected-token&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "12345" {
		t.Errorf("handshake = (%d, %q), want (200, 12345)", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/webhooks/chat/any?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("wrong token status = %d, want 403", rec.Code)
	}
}
