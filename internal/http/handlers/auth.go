package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"server/internal/domain"
	"server/internal/middleware"
)

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Language  string `json:"language"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string  `json:"token"`
	User  userDTO `json:"user"`
}

type userDTO struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
	Language  string `json:"language"`
}

func userToDTO(u *domain.User) userDTO {
	return userDTO{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      string(u.Role),
		Language:  u.Language,
	}
}

func (a *App) AuthRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		a.error(w, http.StatusBadRequest, "bad_request", "valid email required")
		return
	}
	if len(req.Password) < 8 {
		a.error(w, http.StatusBadRequest, "bad_request", "password must be at least 8 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to hash password")
		return
	}

	language := req.Language
	if language == "" {
		language = middleware.LocaleFromContext(r.Context())
	}
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         domain.UserRoleUser,
		Status:       domain.UserStatusActive,
		Language:     language,
	}
	if country := middleware.CountryFromContext(r.Context()); country != "" {
		user.Country = country
	}

	if err := a.Users.Create(r.Context(), user); err != nil {
		if a.domainError(w, err) {
			return
		}
		a.Logger.Error().Err(err).Msg("user create failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to register")
		return
	}

	token, err := a.signToken(user)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to sign token")
		return
	}
	a.json(w, http.StatusCreated, authResponse{Token: token, User: userToDTO(user)})
}

func (a *App) AuthLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	user, err := a.Users.GetByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		// Same response for unknown email and wrong password.
		a.error(w, http.StatusUnauthorized, "unauthorized", "invalid credentials")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		a.error(w, http.StatusUnauthorized, "unauthorized", "invalid credentials")
		return
	}
	if user.Status != domain.UserStatusActive {
		a.error(w, http.StatusForbidden, "forbidden", "account suspended")
		return
	}

	token, err := a.signToken(user)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to sign token")
		return
	}
	a.json(w, http.StatusOK, authResponse{Token: token, User: userToDTO(user)})
}

func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	user, err := a.Users.GetByID(r.Context(), userID)
	if err != nil {
		if a.domainError(w, err) {
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to load user")
		return
	}
	a.json(w, http.StatusOK, userToDTO(user))
}

func (a *App) signToken(user *domain.User) (string, error) {
	return middleware.SignJWT(a.JWTSecret, middleware.TokenClaims{
		Sub:      user.ID,
		Role:     string(user.Role),
		Locale:   user.Language,
		Exp:      time.Now().Add(24 * time.Hour).Unix(),
		Issuer:   "kuraa-galaan",
		Audience: "kuraa-clients",
	})
}
