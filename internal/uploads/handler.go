package uploads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/crestline/estatesite/internal/apierr"
	"github.com/crestline/estatesite/internal/telemetry/metrics"
	"github.com/crestline/estatesite/internal/telemetry/tracing"
	"github.com/crestline/estatesite/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	formMemory        = 1 << 20
	multipartOverhead = 512 << 10
)

var (
	errInvalidForm   = apierr.New(apierr.Validation, "invalid multipart form")
	errNoFile        = apierr.New(apierr.Validation, "no file uploaded")
	errTooManyFiles  = apierr.Newf(apierr.Validation, "too many files, at most %d per request", MaxFiles)
	errPathRequired  = apierr.New(apierr.Validation, "path is required")
	errInvalidDelete = apierr.New(apierr.Validation, "invalid request body")
)

type Handler struct {
	store          *Store
	metrics        *metrics.Manager
	detailedErrors bool
}

func NewHandler(store *Store, metrics *metrics.Manager, detailedErrors bool) *Handler {
	return &Handler{
		store:          store,
		metrics:        metrics,
		detailedErrors: detailedErrors,
	}
}

type singleResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	File    *StoredFile `json:"file"`
}

type multipleResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Files   []*StoredFile `json:"files"`
}

func (h *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/api/uploads/single", h.HandleUploadSingle).Methods("POST", "OPTIONS").Name("upload-single")
	r.HandleFunc("/api/uploads/multiple", h.HandleUploadMultiple).Methods("POST", "OPTIONS").Name("upload-multiple")
	r.HandleFunc("/api/uploads", h.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-upload")

	r.PathPrefix(PublicPrefix).Handler(
		http.StripPrefix(PublicPrefix, noDirListing(http.FileServer(http.Dir(h.store.Root())))),
	).Methods("GET", "HEAD").Name("uploaded-files")
}

func (h *Handler) HandleUploadSingle(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.uploads.single")
	defer span.End()

	form, err := h.parseForm(w, r, MaxFileSize+multipartOverhead)
	if err != nil {
		apierr.Write(w, err, h.detailedErrors)
		return
	}
	defer removeTempFiles(form)

	files := form.File["image"]
	if len(files) == 0 {
		apierr.Write(w, errNoFile, h.detailedErrors)
		return
	}

	kind := Kind(strings.TrimSpace(firstValue(form, "type")))
	span.SetAttributes(attribute.String("upload.type", string(kind)))

	stored, err := h.save(ctx, kind, files[0])
	if err != nil {
		apierr.Write(w, err, h.detailedErrors)
		return
	}

	pkg.WriteJSONOK(w, singleResponse{
		Success: true,
		Message: "file uploaded",
		File:    stored,
	})
}

func (h *Handler) HandleUploadMultiple(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.uploads.multiple")
	defer span.End()

	form, err := h.parseForm(w, r, MaxFiles*MaxFileSize+multipartOverhead)
	if err != nil {
		apierr.Write(w, err, h.detailedErrors)
		return
	}
	defer removeTempFiles(form)

	files := form.File["images"]
	switch {
	case len(files) == 0:
		apierr.Write(w, errNoFile, h.detailedErrors)
		return
	case len(files) > MaxFiles:
		apierr.Write(w, errTooManyFiles, h.detailedErrors)
		return
	}

	kind := Kind(strings.TrimSpace(firstValue(form, "type")))
	stored := make([]*StoredFile, 0, len(files))
	for _, fh := range files {
		f, err := h.save(ctx, kind, fh)
		if err != nil {
			// keep the batch all-or-nothing
			for _, s := range stored {
				if delErr := h.store.Delete(ctx, s.Path); delErr != nil {
					log.Errorf("roll back upload %s: %s", s.Path, delErr)
				}
			}
			apierr.Write(w, err, h.detailedErrors)
			return
		}
		stored = append(stored, f)
	}

	pkg.WriteJSONOK(w, multipleResponse{
		Success: true,
		Message: "files uploaded",
		Files:   stored,
	})
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.uploads.delete")
	defer span.End()

	var body struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apierr.Write(w, errInvalidDelete, h.detailedErrors)
		return
	}
	if strings.TrimSpace(body.Path) == "" {
		apierr.Write(w, errPathRequired, h.detailedErrors)
		return
	}

	if err := h.store.Delete(ctx, body.Path); err != nil {
		apierr.Write(w, err, h.detailedErrors)
		return
	}
	pkg.WriteJSONOK(w, apierr.Response{Success: true, Message: "file deleted"})
}

func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request, limit int64) (*multipart.Form, error) {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(formMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) || r.ContentLength > limit {
			return nil, ErrFileTooLarge
		}
		log.Debugf("parse upload form: %s", err)
		return nil, errInvalidForm
	}
	return r.MultipartForm, nil
}

func (h *Handler) save(ctx context.Context, kind Kind, fh *multipart.FileHeader) (*StoredFile, error) {
	if !kind.Valid() {
		return nil, ErrInvalidType
	}
	if fh.Size > MaxFileSize {
		return nil, ErrFileTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open uploaded file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Errorf("close uploaded file %s: %s", fh.Filename, err)
		}
	}()

	stored, err := h.store.Save(ctx, kind, fh.Filename, fh.Header.Get("Content-Type"), f)
	if err != nil {
		return nil, err
	}
	h.metrics.CounterUploadedFiles.WithLabelValues(string(kind)).Inc()
	return stored, nil
}

func firstValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

func removeTempFiles(form *multipart.Form) {
	if err := form.RemoveAll(); err != nil {
		log.Errorf("remove multipart temp files: %s", err)
	}
}

func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
