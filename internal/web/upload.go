package web

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/JonMunkholm/moderation/internal/core"
	"github.com/JonMunkholm/moderation/internal/sheet"
)

const (
	// multipartMemory is how much of a form is held in memory before
	// spilling file parts to disk.
	multipartMemory = 8 << 20

	// formOverhead allows for multipart boundaries and text fields.
	formOverhead = 64 << 10
)

var errNoFile = errors.New("no file provided")

// upload is one file part of a multipart form.
type upload struct {
	name string
	file multipart.File
}

// parseForm caps the body at files uploads and parses the multipart form.
func (s *Server) parseForm(w http.ResponseWriter, r *http.Request, files int) error {
	limit := s.cfg.Upload.MaxFileSize*int64(files) + formOverhead
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("file too large: request exceeds %d bytes", tooLarge.Limit)
		}
		return fmt.Errorf("%w: %v", errNoFile, err)
	}
	return nil
}

// openUpload opens the named file field. The caller closes the file.
func (s *Server) openUpload(r *http.Request, field string) (upload, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return upload{}, fmt.Errorf("%w: %s", errNoFile, field)
	}
	name := filepath.Base(header.Filename)
	if header.Size > s.cfg.Upload.MaxFileSize {
		file.Close()
		return upload{}, fmt.Errorf("file too large: %s is %d bytes, limit %d", name, header.Size, s.cfg.Upload.MaxFileSize)
	}
	return upload{name: name, file: file}, nil
}

// decode reads the upload into a table and closes it.
func (u upload) decode() (*sheet.Table, error) {
	defer u.file.Close()
	return sheet.Decode(u.name, u.file)
}

// resolveProfile returns the requested profile, or the configured default.
func (s *Server) resolveProfile(r *http.Request) (core.Profile, error) {
	key := r.FormValue("profile")
	if key == "" {
		key = s.cfg.Analysis.DefaultProfile
	}
	return core.Lookup(key)
}

// formBool reads a checkbox or boolean field. Unparseable values are false.
func formBool(r *http.Request, name string) bool {
	v := r.FormValue(name)
	if v == "on" {
		return true
	}
	b, _ := strconv.ParseBool(v)
	return b
}
