// Package catalog is the client side of the remote car catalog API: the
// product repository, the account operations and the HTTP transport they share.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	catalogerrors "github.com/pearguacamole/VroomVault/internal/catalog/errors"
)

// Product is a car listing as returned by the catalog API.
type Product struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        string   `json:"tags"`
	ImageURLs   []string `json:"image_urls"`
	OwnerID     string   `json:"owner_id,omitempty"`
}

type wireProduct struct {
	ID          json.RawMessage `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Tags        json.RawMessage `json:"tags"`
	ImageURLs   []string        `json:"image_urls"`
	OwnerID     json.RawMessage `json:"owner_id"`
}

// UnmarshalJSON accepts numeric or string ids and tags sent either as a list or as a raw string.
func (p *Product) UnmarshalJSON(data []byte) error {
	var w wireProduct
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	id, err := opaqueID(w.ID)
	if err != nil {
		return fmt.Errorf("id: %w", err)
	}
	if id == "" {
		return fmt.Errorf("id: missing")
	}
	owner, err := opaqueID(w.OwnerID)
	if err != nil {
		return fmt.Errorf("owner_id: %w", err)
	}
	tags, err := rawTags(w.Tags)
	if err != nil {
		return fmt.Errorf("tags: %w", err)
	}
	images := w.ImageURLs
	if images == nil {
		images = []string{}
	}
	*p = Product{
		ID:          id,
		Title:       w.Title,
		Description: w.Description,
		Tags:        tags,
		ImageURLs:   images,
		OwnerID:     owner,
	}
	return nil
}

// Cover returns the first image url, or "" when the product has none.
func (p Product) Cover() string {
	if len(p.ImageURLs) == 0 {
		return ""
	}
	return p.ImageURLs[0]
}

// TagList splits the raw tags string on commas, dropping blanks.
func (p Product) TagList() []string {
	var out []string
	for _, t := range strings.Split(p.Tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func opaqueID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return "", err
	}
	return n.String(), nil
}

func rawTags(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '[' {
		var list []string
		if err := json.Unmarshal(raw, &list); err != nil {
			return "", err
		}
		return strings.Join(list, ","), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", err
	}
	return s, nil
}

// Fields are the user-editable attributes of a product.
type Fields struct {
	Title       string `validate:"required"`
	Description string `validate:"required"`
	Tags        string
}

// FieldsOf returns the editable attributes of p.
func FieldsOf(p Product) Fields {
	return Fields{Title: p.Title, Description: p.Description, Tags: p.Tags}
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func fieldValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks the fields before anything is sent. Blank title or description is rejected.
func (f Fields) Validate() error {
	trimmed := Fields{
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		Tags:        f.Tags,
	}
	err := fieldValidator().Struct(trimmed)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return catalogerrors.Validation(err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name := strings.ToLower(fe.Field())
		if fe.Tag() == "required" {
			msgs = append(msgs, name+" is required")
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s is invalid", name))
	}
	return catalogerrors.Validation(strings.Join(msgs, "; "))
}
