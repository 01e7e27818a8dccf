package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/pearguacamole/VroomVault/internal/platform/web"
	stuberrors "github.com/pearguacamole/VroomVault/internal/stubserver/errors"
	"github.com/pearguacamole/VroomVault/internal/stubserver/store"
)

const maxFormMemory = 32 << 20

// carResponse is the wire form of a car.
type carResponse struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	ImageURLs   []string `json:"image_urls"`
	OwnerID     int64    `json:"owner_id"`
}

type carForm struct {
	Title       string `validate:"required"`
	Description string `validate:"required"`
	Tags        string
}

// ListCars returns the caller's cars.
func (a *api) ListCars(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(r, a)
	user := currentUser(r.Context())
	cars, err := a.store.ListCars(r.Context(), user.ID)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving car list", "error", err)
		web.RespondDetail(w, mLogger, http.StatusInternalServerError, "Failed to fetch cars")
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved car list", "count", len(cars))
	web.RespondJSON(w, mLogger, http.StatusOK, serializeCars(r, cars))
}

// SearchCars returns the caller's cars matching the keyword query parameter.
func (a *api) SearchCars(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(r, a)
	if !r.URL.Query().Has("keyword") {
		web.RespondFieldErrors(w, mLogger, []web.FieldError{{Loc: []string{"query", "keyword"}, Msg: "Field required", Type: "missing"}})
		return
	}
	keyword := r.URL.Query().Get("keyword")
	user := currentUser(r.Context())
	cars, err := a.store.SearchCars(r.Context(), user.ID, keyword)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error searching cars", "keyword", keyword, "error", err)
		web.RespondDetail(w, mLogger, http.StatusInternalServerError, "Failed to search cars")
		return
	}
	mLogger.DebugContext(r.Context(), "Search completed", "keyword", keyword, "count", len(cars))
	web.RespondJSON(w, mLogger, http.StatusOK, serializeCars(r, cars))
}

// FindCar retrieves one car of the caller.
func (a *api) FindCar(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(r, a)
	id, ok := parseID(w, r, mLogger)
	if !ok {
		return
	}
	car, err := a.store.FindCar(r.Context(), currentUser(r.Context()).ID, id)
	if err != nil {
		a.respondStoreError(w, r, mLogger, "retrieve", id, err)
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, serializeCar(r, *car))
}

// CreateCar stores a car from a multipart form with optional images.
func (a *api) CreateCar(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(r, a)
	form, files, ok := a.parseCarForm(w, r, mLogger)
	if !ok {
		return
	}
	images, err := a.saveImages(r, files)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error saving images", "error", err)
		web.RespondDetail(w, mLogger, http.StatusInternalServerError, "Failed to store images")
		return
	}
	car, err := a.store.CreateCar(r.Context(), store.Car{
		Title:       form.Title,
		Description: form.Description,
		Tags:        splitTags(form.Tags),
		Images:      images,
		OwnerID:     currentUser(r.Context()).ID,
	})
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error creating car", "error", err)
		web.RespondDetail(w, mLogger, http.StatusInternalServerError, "Failed to create car")
		return
	}
	mLogger.InfoContext(r.Context(), "Car created successfully", "ID", car.ID, "images", len(car.Images))
	web.RespondJSON(w, mLogger, http.StatusOK, serializeCar(r, *car))
}

// UpdateCar replaces the fields of a car. The stored images are replaced only when new ones are uploaded.
func (a *api) UpdateCar(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(r, a)
	id, ok := parseID(w, r, mLogger)
	if !ok {
		return
	}
	user := currentUser(r.Context())
	existing, err := a.store.FindCar(r.Context(), user.ID, id)
	if err != nil {
		a.respondStoreError(w, r, mLogger, "update", id, err)
		return
	}
	form, files, ok := a.parseCarForm(w, r, mLogger)
	if !ok {
		return
	}

	updated := *existing
	updated.Title = form.Title
	updated.Description = form.Description
	updated.Tags = splitTags(form.Tags)
	if len(files) > 0 {
		images, err := a.saveImages(r, files)
		if err != nil {
			mLogger.ErrorContext(r.Context(), "Error saving images", "error", err)
			web.RespondDetail(w, mLogger, http.StatusInternalServerError, "Failed to store images")
			return
		}
		updated.Images = images
	}

	car, err := a.store.UpdateCar(r.Context(), updated)
	if err != nil {
		a.respondStoreError(w, r, mLogger, "update", id, err)
		return
	}
	if len(files) > 0 {
		if err := a.store.DeleteImages(r.Context(), existing.Images...); err != nil {
			mLogger.WarnContext(r.Context(), "Failed to delete replaced images", "ID", car.ID, "error", err)
		}
	}
	mLogger.InfoContext(r.Context(), "Car updated successfully", "ID", car.ID, "images", len(car.Images))
	web.RespondJSON(w, mLogger, http.StatusOK, serializeCar(r, *car))
}

// DeleteCar removes a car and its images.
func (a *api) DeleteCar(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(r, a)
	id, ok := parseID(w, r, mLogger)
	if !ok {
		return
	}
	car, err := a.store.DeleteCar(r.Context(), currentUser(r.Context()).ID, id)
	if err != nil {
		a.respondStoreError(w, r, mLogger, "delete", id, err)
		return
	}
	if err := a.store.DeleteImages(r.Context(), car.Images...); err != nil {
		mLogger.WarnContext(r.Context(), "Failed to delete car images", "ID", id, "error", err)
	}
	mLogger.InfoContext(r.Context(), "Car deleted successfully", "ID", id)
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]string{"message": "Car deleted successfully"})
}

// Image serves a stored image file.
func (a *api) Image(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(r, a)
	img, err := a.store.FindImage(r.Context(), r.PathValue("name"))
	if err != nil {
		web.RespondDetail(w, mLogger, http.StatusNotFound, "Not Found")
		return
	}
	w.Header().Set("Content-Type", img.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Data)
}

func (a *api) respondStoreError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, op string, id int64, err error) {
	if errors.Is(err, stuberrors.ErrCarNotFound) {
		logger.WarnContext(r.Context(), "Car not found", "operation", op, "ID", id)
		web.RespondDetail(w, logger, http.StatusNotFound, "Car not found")
		return
	}
	logger.ErrorContext(r.Context(), "Store error", "operation", op, "ID", id, "error", err)
	web.RespondDetail(w, logger, http.StatusInternalServerError, fmt.Sprintf("Failed to %s car %d", op, id))
}

// parseCarForm reads and validates the multipart body. It has responded when ok is false.
func (a *api) parseCarForm(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (carForm, []*multipart.FileHeader, bool) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		logger.WarnContext(r.Context(), "Error parsing multipart form", "error", err)
		web.RespondFieldErrors(w, logger, []web.FieldError{{Loc: []string{"body"}, Msg: "Invalid form body", Type: "value_error"}})
		return carForm{}, nil, false
	}
	form := carForm{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: strings.TrimSpace(r.FormValue("description")),
		Tags:        r.FormValue("tags"),
	}
	if err := a.validate.Struct(form); err != nil {
		logger.WarnContext(r.Context(), "Validation errors occurred", "error", err)
		web.RespondFieldErrors(w, logger, fieldErrors(err, "body"))
		return carForm{}, nil, false
	}
	var files []*multipart.FileHeader
	if r.MultipartForm != nil {
		files = r.MultipartForm.File["images"]
	}
	if len(files) > maxImagesPerCar {
		files = files[:maxImagesPerCar]
	}
	return form, files, true
}

// saveImages stores the uploaded files under fresh names and returns the names in upload order.
func (a *api) saveImages(r *http.Request, files []*multipart.FileHeader) ([]string, error) {
	names := make([]string, 0, len(files))
	for _, fh := range files {
		data, err := readFile(fh)
		if err != nil {
			return nil, err
		}
		mtype := mimetype.Detect(data)
		name := uuid.NewString() + mtype.Extension()
		if err := a.store.SaveImage(r.Context(), store.Image{Name: name, ContentType: mtype.String(), Data: data}); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()
	return io.ReadAll(f)
}

// splitTags splits comma-separated tags, trimming each one.
func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func serializeCars(r *http.Request, cars []store.Car) []carResponse {
	out := make([]carResponse, 0, len(cars))
	for _, c := range cars {
		out = append(out, serializeCar(r, c))
	}
	return out
}

// serializeCar renders a car with absolute image URLs on the host the request came to.
func serializeCar(r *http.Request, c store.Car) carResponse {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	urls := make([]string, 0, len(c.Images))
	for _, name := range c.Images {
		urls = append(urls, fmt.Sprintf("%s://%s/images/%s", scheme, r.Host, name))
	}
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	return carResponse{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Tags:        tags,
		ImageURLs:   urls,
		OwnerID:     c.OwnerID,
	}
}
