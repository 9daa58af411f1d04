package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordPostCreated()
	c.RecordPostCreated()
	c.RecordPostVisit()
	c.RecordCommentCreated()
	c.RecordContactReceived()
	c.RecordEmailSent()
	c.RecordEmailFailed()

	if got := testutil.ToFloat64(c.postsCreated); got != 2 {
		t.Errorf("posts created = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.postVisits); got != 1 {
		t.Errorf("post visits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.contactsRecv); got != 1 {
		t.Errorf("contacts received = %v, want 1", got)
	}
}

func TestCollector_HTTPStatusLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(404)

	if got := testutil.ToFloat64(c.httpStatus.WithLabelValues("200")); got != 2 {
		t.Errorf("status 200 = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.httpStatus.WithLabelValues("404")); got != 1 {
		t.Errorf("status 404 = %v, want 1", got)
	}
}

func TestCollector_WebhookOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordWebhookEvent("processed")
	c.RecordWebhookEvent("verification_failed")
	c.RecordWebhookEvent("processed")

	if got := testutil.ToFloat64(c.webhookEvents.WithLabelValues("processed")); got != 2 {
		t.Errorf("processed = %v, want 2", got)
	}
}

func TestHandler_ExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordPostCreated()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "inkwell_posts_created_total 1") {
		t.Errorf("body should contain posts counter, got:\n%s", w.Body.String())
	}
}
