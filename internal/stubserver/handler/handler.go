// Package handler provides the HTTP handlers of the stub catalog API.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pearguacamole/VroomVault/internal/platform/contextkeys"
	"github.com/pearguacamole/VroomVault/internal/platform/web"
	"github.com/pearguacamole/VroomVault/internal/stubserver/auth"
	"github.com/pearguacamole/VroomVault/internal/stubserver/store"
)

// maxImagesPerCar is how many uploaded images a car keeps; extra files are dropped.
const maxImagesPerCar = 10

// CatalogAPI defines the HTTP handlers of the catalog endpoints.
type CatalogAPI interface {
	Signup(w http.ResponseWriter, r *http.Request)
	Token(w http.ResponseWriter, r *http.Request)
	Authenticate(next http.Handler) http.Handler

	ListCars(w http.ResponseWriter, r *http.Request)
	SearchCars(w http.ResponseWriter, r *http.Request)
	FindCar(w http.ResponseWriter, r *http.Request)
	CreateCar(w http.ResponseWriter, r *http.Request)
	UpdateCar(w http.ResponseWriter, r *http.Request)
	DeleteCar(w http.ResponseWriter, r *http.Request)

	Image(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)
}

type api struct {
	store    store.CatalogStore
	issuer   *auth.Issuer
	validate *validator.Validate
	logger   *slog.Logger
}

// NewAPI creates a new instance of CatalogAPI.
func NewAPI(catalogStore store.CatalogStore, issuer *auth.Issuer, logger *slog.Logger) CatalogAPI {
	return &api{
		store:    catalogStore,
		issuer:   issuer,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.With("component", "api"),
	}
}

// HealthCheck is a simple health check endpoint.
func (a *api) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

type userKey struct{}

func withUser(ctx context.Context, u *store.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// currentUser returns the account resolved by Authenticate.
func currentUser(ctx context.Context) *store.User {
	u, _ := ctx.Value(userKey{}).(*store.User)
	return u
}

// fieldErrors converts validator errors into a 422 detail list located under loc.
func fieldErrors(err error, loc string) []web.FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []web.FieldError{{Loc: []string{loc}, Msg: err.Error(), Type: "value_error"}}
	}
	out := make([]web.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			out = append(out, web.FieldError{Loc: []string{loc, field}, Msg: "Field required", Type: "missing"})
		case "email":
			out = append(out, web.FieldError{Loc: []string{loc, field}, Msg: "value is not a valid email address", Type: "value_error"})
		default:
			out = append(out, web.FieldError{Loc: []string{loc, field}, Msg: "failed on rule: " + fe.Tag(), Type: "value_error"})
		}
	}
	return out
}

// parseID extracts the numeric car ID from the request path.
func parseID(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (int64, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		web.RespondFieldErrors(w, logger, []web.FieldError{{
			Loc:  []string{"path", "car_id"},
			Msg:  "Input should be a valid integer, unable to parse string as an integer",
			Type: "int_parsing",
		}})
		return 0, false
	}
	return id, true
}

// loggerWithReqID creates a logger with the request ID from the context.
func loggerWithReqID(r *http.Request, a *api) *slog.Logger {
	reqID, found := contextkeys.GetRequestID(r.Context())
	if !found {
		reqID = "unknown"
	}
	return a.logger.With("request_id", reqID)
}
