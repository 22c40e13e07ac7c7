package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"server/internal/domain"
	"server/internal/middleware"
)

func TestAuthRegisterValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing email", `{"password": "longenough"}`},
		{"invalid email", `{"email": "nope", "password": "longenough"}`},
		{"short password", `{"email": "a@b.co", "password": "short"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := testApp()
			req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(tc.body))
			rec := doRequest(app.AuthRegister, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestAuthRegisterAndLogin(t *testing.T) {
	app := testApp()
	body := `{"email": "Donor@Example.org", "password": "correct-horse", "first_name": "Abebe"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
	rec := doRequest(app.AuthRegister, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var resp authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.User.Email != "donor@example.org" {
		t.Fatalf("email = %q, want lowercased", resp.User.Email)
	}
	claims, err := middleware.VerifyJWT(app.JWTSecret, resp.Token)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if claims.Role != "USER" {
		t.Fatalf("role claim = %q, want USER", claims.Role)
	}

	loginReq := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email": "donor@example.org", "password": "correct-horse"}`))
	loginRec := doRequest(app.AuthLogin, loginReq)
	if loginRec.Code != http.StatusOK {
		t.Fatalf("login status = %d, want %d", loginRec.Code, http.StatusOK)
	}
}

func TestAuthLoginRejectsWrongPassword(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("the-right-one"), bcrypt.MinCost)
	app := testApp()
	app.Users = &stubUsers{users: map[string]*domain.User{
		"donor@example.org": {
			ID:           "u1",
			Email:        "donor@example.org",
			PasswordHash: string(hash),
			Role:         domain.UserRoleUser,
			Status:       domain.UserStatusActive,
		},
	}}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email": "donor@example.org", "password": "wrong"}`))
	rec := doRequest(app.AuthLogin, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	unknownReq := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email": "nobody@example.org", "password": "wrong"}`))
	unknownRec := doRequest(app.AuthLogin, unknownReq)
	if unknownRec.Code != http.StatusUnauthorized {
		t.Fatalf("unknown email status = %d, want %d", unknownRec.Code, http.StatusUnauthorized)
	}
	if rec.Body.String() != unknownRec.Body.String() {
		t.Fatal("wrong-password and unknown-email responses must be identical")
	}
}

func TestAuthLoginRejectsSuspendedAccount(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("pw-longenough"), bcrypt.MinCost)
	app := testApp()
	app.Users = &stubUsers{users: map[string]*domain.User{
		"x@example.org": {
			ID:           "u1",
			Email:        "x@example.org",
			PasswordHash: string(hash),
			Status:       domain.UserStatusSuspended,
		},
	}}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email": "x@example.org", "password": "pw-longenough"}`))
	rec := doRequest(app.AuthLogin, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}
