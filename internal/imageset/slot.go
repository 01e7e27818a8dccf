// Package imageset maintains the ordered image slots of a product and turns
// them into a single upload payload.
package imageset

import (
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MaxImages is the hard cap on slots per product.
const MaxImages = 10

// Kind tells where the bytes of a slot live.
type Kind int

const (
	// Remote slots reference an image already stored by the catalog API.
	Remote Kind = iota
	// Local slots hold a newly selected file that has not been uploaded yet.
	Local
)

func (k Kind) String() string {
	if k == Remote {
		return "remote"
	}
	return "local"
}

// LocalFile is a file chosen by the user.
type LocalFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// ReadLocalFile loads a file from disk and detects its content type.
func ReadLocalFile(p string) (LocalFile, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return LocalFile{}, err
	}
	return LocalFile{
		Name:        filepath.Base(p),
		ContentType: mimetype.Detect(data).String(),
		Data:        data,
	}, nil
}

// Slot is one entry of the image sequence. URL is set for Remote slots,
// File and PreviewHandle for Local ones.
type Slot struct {
	Kind          Kind
	URL           string
	File          LocalFile
	PreviewHandle string
}

// RemoteSlot references a stored image.
func RemoteSlot(u string) Slot {
	return Slot{Kind: Remote, URL: u}
}

// LocalSlot wraps a selected file and assigns it a preview handle.
func LocalSlot(f LocalFile) Slot {
	if f.ContentType == "" {
		f.ContentType = mimetype.Detect(f.Data).String()
	}
	if f.Name == "" {
		f.Name = defaultFilename
	}
	return Slot{Kind: Local, File: f, PreviewHandle: uuid.NewString()}
}

const defaultFilename = "image"

// filenameFromURL returns the final path segment of u.
func filenameFromURL(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return defaultFilename
	}
	name := path.Base(parsed.Path)
	if name == "" || name == "." || name == "/" {
		return defaultFilename
	}
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	return name
}
