package integration

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
)

type FilePart struct {
	Field       string
	Name        string
	ContentType string
	Content     []byte
}

// Form is a multipart/form-data payload for the LMS API.
type Form struct {
	fields [][2]string
	files  []FilePart
}

func NewForm() *Form {
	return &Form{}
}

func (f *Form) Set(key, value string) *Form {
	f.fields = append(f.fields, [2]string{key, value})
	return f
}

func (f *Form) Attach(part FilePart) *Form {
	f.files = append(f.files, part)
	return f
}

// Value returns the first value of key, for logging and tests.
func (f *Form) Value(key string) (string, bool) {
	for _, kv := range f.fields {
		if kv[0] == key {
			return kv[1], true
		}
	}
	return "", false
}

func (f *Form) HasFile(field string) bool {
	for _, p := range f.files {
		if p.Field == field {
			return true
		}
	}
	return false
}

func (f *Form) encode() ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, kv := range f.fields {
		if err := writer.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", kv[0], err)
		}
	}

	for _, p := range f.files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name=%q; filename=%q`, p.Field, p.Name))
		ct := p.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		header.Set("Content-Type", ct)

		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := part.Write(p.Content); err != nil {
			return nil, "", fmt.Errorf("failed to copy file content: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close form: %w", err)
	}

	return buf.Bytes(), writer.FormDataContentType(), nil
}
