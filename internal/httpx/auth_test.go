package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAdminOnly(t *testing.T) {
	secret := []byte("test-secret")
	var reached bool
	handler := AdminOnly(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))

	call := func(authHeader string) int {
		reached = false
		req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
		if authHeader != "" {
			req.Header.Set("Authorization", authHeader)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := call(""); code != http.StatusUnauthorized || reached {
		t.Fatalf("no header: code %d, reached %v", code, reached)
	}
	if code := call("Bearer garbage"); code != http.StatusUnauthorized || reached {
		t.Fatalf("bad token: code %d, reached %v", code, reached)
	}

	token, err := IssueAdminToken(secret, "admin", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if code := call("Bearer " + token); code != http.StatusOK || !reached {
		t.Fatalf("valid token: code %d, reached %v", code, reached)
	}

	expired, err := IssueAdminToken(secret, "admin", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if code := call("Bearer " + expired); code != http.StatusUnauthorized {
		t.Fatalf("expired token accepted: %d", code)
	}

	other, err := IssueAdminToken([]byte("other-secret"), "admin", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if code := call("Bearer " + other); code != http.StatusUnauthorized {
		t.Fatalf("foreign-secret token accepted: %d", code)
	}
}
