package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hospital-frontdesk/config"
	"hospital-frontdesk/internal/domain/entity"
	"hospital-frontdesk/pkg/jwt"

	"github.com/google/uuid"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORSAllowList(t *testing.T) {
	handler := NewCORSMiddleware([]string{"http://reception.local"}).Handle(okHandler())

	tests := []struct {
		origin string
		want   string
	}{
		{"http://reception.local", "http://reception.local"},
		{"http://elsewhere.local", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/doctors", nil)
		req.Header.Set("Origin", tt.origin)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
			t.Errorf("origin %s: Access-Control-Allow-Origin = %q, want %q", tt.origin, got, tt.want)
		}
	}
}

func TestAuthenticatePlacesClaimsInContext(t *testing.T) {
	svc := jwt.NewJWTService(config.JWTConfig{Secret: "test-secret", AccessExpiry: time.Minute})
	doctorID := uuid.New()
	token, _, err := svc.GenerateAccessToken(uuid.New(), "doctor@hospital.test", entity.RoleIDDoctor, &doctorID)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	var gotRole int
	var gotDoctor uuid.UUID
	handler := NewAuthMiddleware(svc, nil).Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRole, _ = GetRoleIDFromContext(r.Context())
		gotDoctor, _ = GetDoctorIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	for name, setToken := range map[string]func(*http.Request){
		"header": func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) },
		"query":  func(r *http.Request) { r.URL.RawQuery = "access_token=" + token },
	} {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		setToken(req)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d, want 200", name, rec.Code)
		}
		if gotRole != entity.RoleIDDoctor || gotDoctor != doctorID {
			t.Fatalf("%s: role=%d doctor=%s, want %d %s", name, gotRole, gotDoctor, entity.RoleIDDoctor, doctorID)
		}
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name   string
		roleID int
		set    bool
		want   int
	}{
		{"allowed", entity.RoleIDReception, true, http.StatusOK},
		{"other role", entity.RoleIDDisplay, true, http.StatusForbidden},
		{"no identity", 0, false, http.StatusUnauthorized},
	}

	handler := RequireFrontDesk(okHandler())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/visits", nil)
			if tt.set {
				req = req.WithContext(WithUser(req.Context(), uuid.New(), tt.roleID))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
