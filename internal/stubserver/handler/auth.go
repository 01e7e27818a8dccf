package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/pearguacamole/VroomVault/internal/platform/web"
	"github.com/pearguacamole/VroomVault/internal/stubserver/auth"
	stuberrors "github.com/pearguacamole/VroomVault/internal/stubserver/errors"
)

type signupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type credentials struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

// Signup registers an account.
func (a *api) Signup(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(r, a)
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		mLogger.WarnContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondFieldErrors(w, mLogger, []web.FieldError{{Loc: []string{"body"}, Msg: "JSON decode error", Type: "json_invalid"}})
		return
	}
	if err := a.validate.Struct(req); err != nil {
		mLogger.WarnContext(r.Context(), "Validation errors occurred", "error", err)
		web.RespondFieldErrors(w, mLogger, fieldErrors(err, "body"))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error hashing password", "error", err)
		web.RespondDetail(w, mLogger, http.StatusInternalServerError, "Failed to create user")
		return
	}
	if _, err := a.store.CreateUser(r.Context(), req.Name, req.Email, hash); err != nil {
		if errors.Is(err, stuberrors.ErrEmailTaken) {
			mLogger.WarnContext(r.Context(), "Email already registered")
			web.RespondDetail(w, mLogger, http.StatusBadRequest, "Email already registered")
			return
		}
		mLogger.ErrorContext(r.Context(), "Error creating user", "error", err)
		web.RespondDetail(w, mLogger, http.StatusInternalServerError, "Failed to create user")
		return
	}
	mLogger.InfoContext(r.Context(), "User created successfully")
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]string{"message": "User created successfully"})
}

// Token exchanges form-encoded credentials for a bearer token.
func (a *api) Token(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(r, a)
	if err := r.ParseForm(); err != nil {
		web.RespondFieldErrors(w, mLogger, []web.FieldError{{Loc: []string{"body"}, Msg: "Invalid form body", Type: "value_error"}})
		return
	}
	creds := credentials{Username: r.PostForm.Get("username"), Password: r.PostForm.Get("password")}
	if err := a.validate.Struct(creds); err != nil {
		web.RespondFieldErrors(w, mLogger, fieldErrors(err, "body"))
		return
	}

	user, err := a.store.FindUserByEmail(r.Context(), creds.Username)
	if err != nil || !auth.CheckPassword(user.PasswordHash, creds.Password) {
		mLogger.WarnContext(r.Context(), "Rejected credentials")
		web.RespondDetail(w, mLogger, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	token, err := a.issuer.Issue(user.Email)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error issuing token", "error", err)
		web.RespondDetail(w, mLogger, http.StatusInternalServerError, "Failed to issue token")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]string{"access_token": token, "token_type": "bearer"})
}

// Authenticate resolves the bearer token into the current user or responds 401.
func (a *api) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mLogger := loggerWithReqID(r, a)
		header := r.Header.Get("Authorization")
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			w.Header().Set("WWW-Authenticate", "Bearer")
			web.RespondDetail(w, mLogger, http.StatusUnauthorized, "Not authenticated")
			return
		}
		email, err := a.issuer.Verify(strings.TrimSpace(token))
		if err != nil {
			mLogger.WarnContext(r.Context(), "Rejected token", "error", err)
			web.RespondDetail(w, mLogger, http.StatusUnauthorized, "Invalid token")
			return
		}
		user, err := a.store.FindUserByEmail(r.Context(), email)
		if err != nil {
			web.RespondDetail(w, mLogger, http.StatusUnauthorized, "User not found")
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}
