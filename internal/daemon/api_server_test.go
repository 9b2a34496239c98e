package daemon

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuthMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	cases := []struct {
		name   string
		token  string
		header string
		want   int
	}{
		{name: "no token configured", token: "", header: "", want: http.StatusNoContent},
		{name: "missing header", token: "s3cret", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", token: "s3cret", header: "Basic s3cret", want: http.StatusUnauthorized},
		{name: "wrong token", token: "s3cret", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "valid", token: "s3cret", header: "Bearer s3cret", want: http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			authMiddleware(tc.token)(next).ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, w.Code)
			}
		})
	}
}
