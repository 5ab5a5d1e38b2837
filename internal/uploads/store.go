package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/crestline/estatesite/internal/apierr"
	"github.com/crestline/estatesite/internal/telemetry/tracing"
	"github.com/crestline/estatesite/pkg"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	MaxFileSize  = 5 << 20
	MaxFiles     = 10
	PublicPrefix = "/uploads/"

	sniffLen       = 512
	maxNameLength  = 50
	fallbackName   = "image"
	filePermission = 0o644
)

var (
	ErrFileTooLarge    = apierr.New(apierr.Validation, "file too large, the limit is 5MB per file")
	ErrInvalidType     = apierr.New(apierr.Validation, "type must be buildings or units")
	ErrUnsupportedFile = apierr.New(apierr.Validation, "only jpeg, png, gif and webp images are allowed")
	ErrInvalidPath     = apierr.New(apierr.Validation, "invalid file path")
	ErrFileNotFound    = apierr.New(apierr.NotFound, "file not found")
)

type Kind string

const (
	KindBuildings Kind = "buildings"
	KindUnits     Kind = "units"
)

var Kinds = []Kind{KindBuildings, KindUnits}

func (k Kind) Valid() bool {
	return k == KindBuildings || k == KindUnits
}

var (
	allowedExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}
	allowedMimeTypes  = map[string]bool{"image/jpeg": true, "image/png": true, "image/gif": true, "image/webp": true}
	unsafeNameChars   = regexp.MustCompile(`[^a-z0-9_-]+`)
)

// StoredFile describes a saved upload. Path is relative to the uploads root.
type StoredFile struct {
	Path         string `json:"path"`
	URL          string `json:"url"`
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	MimeType     string `json:"mimetype"`
	Size         int64  `json:"size"`
}

// Store keeps uploaded images on disk, one directory per Kind.
type Store struct {
	root string
	now  func() time.Time
}

func NewStore(root string) (*Store, error) {
	if root == "" {
		return nil, errors.New("uploads root path is empty")
	}
	for _, k := range Kinds {
		if err := pkg.EnsureDir(filepath.Join(root, string(k))); err != nil {
			return nil, fmt.Errorf("create %s dir: %w", k, err)
		}
	}
	return &Store{root: root, now: time.Now}, nil
}

func (s *Store) Root() string {
	return s.root
}

// Save checks the name, declared type and content of an image and writes it under its kind directory.
func (s *Store) Save(ctx context.Context, kind Kind, originalName, declaredType string, src io.Reader) (_ *StoredFile, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "uploads.store.save")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("upload.type", string(kind)))

	if !kind.Valid() {
		return nil, ErrInvalidType
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExtensions[ext] {
		return nil, ErrUnsupportedFile
	}
	if declaredType != "" && !allowedMimeTypes[mimeBase(declaredType)] {
		return nil, ErrUnsupportedFile
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		if errors.Is(err, io.EOF) {
			return nil, ErrUnsupportedFile
		}
		return nil, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	sniffed := mimeBase(http.DetectContentType(head))
	if !allowedMimeTypes[sniffed] {
		log.Debugf("upload %q rejected, sniffed content type %s", originalName, sniffed)
		return nil, ErrUnsupportedFile
	}

	filename := s.generateName(originalName, ext)
	relPath := path.Join(string(kind), filename)
	fullPath := filepath.Join(s.root, string(kind), filename)

	dst, err := os.OpenFile(fullPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, filePermission)
	if err != nil {
		return nil, fmt.Errorf("create upload file: %w", err)
	}

	size, err := io.Copy(dst, io.LimitReader(io.MultiReader(bytes.NewReader(head), src), MaxFileSize+1))
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err == nil && size > MaxFileSize {
		err = ErrFileTooLarge
	}
	if err != nil {
		if removeErr := os.Remove(fullPath); removeErr != nil {
			log.Errorf("remove partial upload %s: %s", fullPath, removeErr)
		}
		if errors.Is(err, ErrFileTooLarge) {
			return nil, err
		}
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, ErrFileTooLarge
		}
		return nil, fmt.Errorf("write upload: %w", err)
	}

	log.Debugf("upload stored: %s (%d bytes)", relPath, size)
	return &StoredFile{
		Path:         relPath,
		URL:          PublicPrefix + relPath,
		Filename:     filename,
		OriginalName: originalName,
		MimeType:     sniffed,
		Size:         size,
	}, nil
}

// Delete removes a stored file given its path relative to the uploads root.
func (s *Store) Delete(ctx context.Context, relPath string) (err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "uploads.store.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	cleaned, err := cleanRelPath(relPath)
	if err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(s.root, filepath.FromSlash(cleaned))); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrFileNotFound
		}
		return fmt.Errorf("remove upload: %w", err)
	}

	log.Debugf("upload removed: %s", cleaned)
	return nil
}

// cleanRelPath accepts "<kind>/<file>", optionally with the public prefix, and nothing that leaves a kind directory.
func cleanRelPath(relPath string) (string, error) {
	p := strings.TrimPrefix(strings.TrimSpace(relPath), PublicPrefix)
	p = strings.TrimPrefix(p, "/")
	if p == "" || strings.Contains(p, `\`) || !filepath.IsLocal(p) {
		return "", ErrInvalidPath
	}

	cleaned := path.Clean(p)
	kind, file, ok := strings.Cut(cleaned, "/")
	if !ok || !Kind(kind).Valid() || file == "" || strings.Contains(file, "/") {
		return "", ErrInvalidPath
	}
	return cleaned, nil
}

func (s *Store) generateName(originalName, ext string) string {
	base := strings.ToLower(strings.TrimSuffix(filepath.Base(originalName), filepath.Ext(originalName)))
	base = strings.Trim(unsafeNameChars.ReplaceAllString(base, "-"), "-")
	if len(base) > maxNameLength {
		base = base[:maxNameLength]
	}
	if base == "" {
		base = fallbackName
	}
	return fmt.Sprintf("%s-%d-%s%s", base, s.now().UnixMilli(), uuid.NewString()[:8], ext)
}

func mimeBase(contentType string) string {
	base, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(base))
}
