package httpd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/RubachokBoss/assignment-portal/internal/service"
)

// formValues reads url-encoded, multipart and JSON bodies into one shape.
func (h *Handler) formValues(w http.ResponseWriter, r *http.Request) (url.Values, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUpload)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var raw map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("invalid JSON body: %w", err)
		}
		values := url.Values{}
		for k, v := range raw {
			switch t := v.(type) {
			case nil:
			case string:
				values.Set(k, t)
			case float64:
				values.Set(k, strconv.FormatFloat(t, 'f', -1, 64))
			case bool:
				values.Set(k, strconv.FormatBool(t))
			default:
				values.Set(k, fmt.Sprint(t))
			}
		}
		return values, nil
	}

	if err := r.ParseMultipartForm(h.MaxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, fmt.Errorf("invalid form: %w", err)
	}
	return r.Form, nil
}

// upload returns nil when no file was sent in field.
func upload(r *http.Request, field string) (*service.Upload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}

	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", field, err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", field, err)
	}
	if len(content) == 0 {
		return nil, nil
	}

	return &service.Upload{Name: header.Filename, Content: content}, nil
}

func badForm(err error) error {
	return &service.ValidationError{Fields: map[string]string{"form": err.Error()}}
}
