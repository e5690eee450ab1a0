package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestMetricsMiddlewarePassesThrough(t *testing.T) {
	handler := Metrics(nil, time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/scores", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != "short and stout" {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestStatusClass(t *testing.T) {
	cases := map[int]string{102: "1xx", 200: "2xx", 301: "3xx", 404: "4xx", 500: "5xx"}
	for code, want := range cases {
		if got := statusClass(code); got != want {
			t.Errorf("statusClass(%d) = %s, want %s", code, got, want)
		}
	}
}
