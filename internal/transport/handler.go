package transport

import (
	"errors"
	"net/http"

	"digitronix/internal/auth"
	"digitronix/internal/domain"
	"digitronix/internal/middleware"
	"digitronix/internal/service"
	"digitronix/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// multipartMemory is how much of a multipart form is buffered in memory
// before parts spill to temporary files.
const multipartMemory = 8 << 20

// maxFormSize bounds a form request: one image plus its text fields.
const maxFormSize = storage.MaxImageSize + 1<<20

// MessageResponse acknowledges a mutation that returns no entity.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func respondMessage(w http.ResponseWriter, message string) {
	middleware.RespondWithJSON(w, http.StatusOK, MessageResponse{Success: true, Message: message})
}

// identityHandler is a handler that acts on behalf of the authenticated caller.
type identityHandler func(w http.ResponseWriter, r *http.Request, caller auth.Identity)

// withIdentity hands the caller's identity to h, answering 401 when the
// auth gate attached none.
func withIdentity(h identityHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := auth.IdentityFrom(r.Context())
		if !ok {
			middleware.RespondWithError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		h(w, r, caller)
	}
}

// pathID parses a uuid route parameter.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, domain.Validation("invalid %s", name)
	}
	return id, nil
}

// parseForm reads a multipart or urlencoded form. The returned upload is
// nil when no "image" part was sent; release must be called once the
// upload has been consumed.
func parseForm(w http.ResponseWriter, r *http.Request) (upload *service.ImageUpload, release func(), err error) {
	release = func() {}
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if !errors.Is(err, http.ErrNotMultipart) {
			return nil, release, domain.Validation("invalid form data")
		}
		if err := r.ParseForm(); err != nil {
			return nil, release, domain.Validation("invalid form data")
		}
		return nil, release, nil
	}

	form := r.MultipartForm
	release = func() { _ = form.RemoveAll() }

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, release, nil
	}
	if err != nil {
		return nil, release, domain.Validation("invalid image upload")
	}

	release = func() {
		_ = file.Close()
		_ = form.RemoveAll()
	}
	return &service.ImageUpload{Filename: header.Filename, Content: file}, release, nil
}
