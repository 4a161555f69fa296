package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_LabelsByRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())
	r.GET("/api/share/:token", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"label": "Acme"})
	})
	r.DELETE("/api/admin/share-links/:id", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	baseShare := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/api/share/:token", "200"))
	baseDel := testutil.ToFloat64(httpReqs.WithLabelValues("DELETE", "/api/admin/share-links/:id", "204"))
	baseMiss := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "unmatched", "404"))

	for _, tok := range []string{"tok-a", "tok-b", "tok-c"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/share/"+tok, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("GET share %s -> %d", tok, w.Code)
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/admin/share-links/1", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("DELETE -> %d", w.Code)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/wp-login.php", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("unmatched route -> %d", w.Code)
	}

	// Tokens never become label values.
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/api/share/:token", "200")); got != baseShare+3 {
		t.Fatalf("share counter = %v; want %v", got, baseShare+3)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("DELETE", "/api/admin/share-links/:id", "204")); got != baseDel+1 {
		t.Fatalf("delete counter = %v; want %v", got, baseDel+1)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "unmatched", "404")); got != baseMiss+1 {
		t.Fatalf("unmatched counter = %v; want %v", got, baseMiss+1)
	}
	if inFlight := testutil.ToFloat64(httpInflight); inFlight != 0 {
		t.Fatalf("httpInflight = %v; want 0", inFlight)
	}
}

func TestRecordRedactions_And_AttachmentRejection(t *testing.T) {
	base := testutil.ToFloat64(sanitizerRedactions)
	RecordRedactions(3)
	RecordRedactions(0)
	RecordRedactions(-1)
	if got := testutil.ToFloat64(sanitizerRedactions); got != base+3 {
		t.Fatalf("sanitizer_redactions_total = %v; want %v", got, base+3)
	}

	baseA := testutil.ToFloat64(attachmentRejections)
	RecordAttachmentRejection()
	if got := testutil.ToFloat64(attachmentRejections); got != baseA+1 {
		t.Fatalf("attachment_path_rejections_total = %v; want %v", got, baseA+1)
	}
}
