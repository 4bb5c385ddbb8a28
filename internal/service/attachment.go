package service

import (
	"github.com/gabriel-vasile/mimetype"

	"github.com/RubachokBoss/assignment-portal/internal/service/integration"
)

var (
	documentTypes = []string{"application/pdf", "image/jpeg", "image/png", "image/gif"}
	avatarTypes   = []string{"image/jpeg", "image/png"}
)

// Upload is a file received from the browser, before it is forwarded.
type Upload struct {
	Name    string
	Content []byte
}

// filePart checks the content against allowed and builds the multipart
// part. The declared browser type is ignored, only the bytes count.
func (u *Upload) filePart(field string, allowed []string) (integration.FilePart, error) {
	if u == nil || len(u.Content) == 0 {
		return integration.FilePart{}, ErrUnsupportedFile
	}

	mt := mimetype.Detect(u.Content)
	for _, a := range allowed {
		if mt.Is(a) {
			return integration.FilePart{
				Field:       field,
				Name:        u.Name,
				ContentType: a,
				Content:     u.Content,
			}, nil
		}
	}

	return integration.FilePart{}, ErrUnsupportedFile
}

func attach(form *integration.Form, field string, u *Upload, allowed []string) error {
	if u == nil {
		return nil
	}
	part, err := u.filePart(field, allowed)
	if err != nil {
		return err
	}
	form.Attach(part)
	return nil
}
