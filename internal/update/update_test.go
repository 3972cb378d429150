package update

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/matheuskafuri/kyou/internal/upstream"
)

func TestNewer(t *testing.T) {
	tests := []struct {
		latest, current string
		want            bool
	}{
		{"1.2.0", "1.1.9", true},
		{"1.2.0", "1.2.0", false},
		{"1.2", "1.2.1", false},
		{"1.10.0", "1.9.0", true},
		{"2.0.0", "dev", true},
		{"2.0.0-rc1", "1.9.0", true},
		{"nightly", "1.0.0", false},
	}
	for _, tt := range tests {
		if got := newer(tt.latest, tt.current); got != tt.want {
			t.Errorf("newer(%q, %q) = %v, want %v", tt.latest, tt.current, got, tt.want)
		}
	}
}

func TestCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tag_name": "v0.3.0"}`))
	}))
	defer srv.Close()
	client := upstream.New(upstream.Options{Timeout: time.Second})

	res := Check(context.Background(), client, srv.URL, "v0.2.1")
	if res == nil || res.LatestVersion != "0.3.0" {
		t.Errorf("Check = %+v, want 0.3.0", res)
	}
	if res := Check(context.Background(), client, srv.URL, "0.3.0"); res != nil {
		t.Errorf("expected no update when current, got %+v", res)
	}
}

func TestCheckFailureIsSilent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()
	client := upstream.New(upstream.Options{Timeout: time.Second})

	if res := Check(context.Background(), client, srv.URL, "0.1.0"); res != nil {
		t.Errorf("expected nil on failure, got %+v", res)
	}
}
