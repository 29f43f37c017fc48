// Package domain contains the listing media gallery and hero image widgets.
package domain

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pendergraft/listingdesk/internal/notify"
	"github.com/pendergraft/listingdesk/internal/observability/metrics"
	"github.com/pendergraft/listingdesk/internal/validation"
	"github.com/pendergraft/listingdesk/pkg/client"
)

// DefaultDownloadPrefix is prepended to a content document id to form an image URL.
const DefaultDownloadPrefix = "/sfc/servlet.shepherd/document/download/"

// uploadConcurrency bounds parallel uploads of one batch.
const uploadConcurrency = 4

// Domain errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrFailed       = errors.New("media request failed")
)

// Image is one gallery entry. SerialNumber is its 1-based display position.
type Image struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	SerialNumber int    `json:"serialNumber"`
}

// File is one file to upload, its content base64-encoded.
type File struct {
	FileName string `json:"fileName"`
	Data     string `json:"data"`
}

// UploadFailure names a file that could not be uploaded.
type UploadFailure struct {
	FileName string `json:"fileName"`
	Message  string `json:"message"`
}

// UploadResult is the gallery after an upload batch.
type UploadResult struct {
	Images   []Image         `json:"images"`
	Uploaded []string        `json:"uploaded"`
	Failed   []UploadFailure `json:"failed"`
}

// Platform is the platform client subset used by the media widgets.
type Platform interface {
	ListFiles(ctx context.Context, recordID string) ([]client.MediaFile, error)
	UploadFile(ctx context.Context, fileName, base64Data, parentID string) error
	ReorderFiles(ctx context.Context, files []client.MediaFile) error
	FetchHeroImage(ctx context.Context, listingID string) (string, error)
}

// Service defines the media service interface.
type Service interface {
	// List returns the gallery of a listing. Load failures yield an empty gallery.
	List(ctx context.Context, listingID string) ([]Image, error)

	// Upload uploads a batch of files and returns the reloaded gallery.
	Upload(ctx context.Context, listingID string, files []File) (*UploadResult, error)

	// Move swaps the images at positions from and to (0-based) and persists the order.
	// The swapped order is returned even when persisting fails.
	Move(ctx context.Context, listingID string, from, to int) ([]Image, error)

	// HeroImage returns the listing's hero image URL, "" when there is none.
	HeroImage(ctx context.Context, listingID string) string
}

type service struct {
	platform Platform
	prefix   string
	logger   *slog.Logger
	notifier notify.Notifier
	now      func() time.Time
}

// NewService creates a new media service.
func NewService(platform Platform, downloadPrefix string, logger *slog.Logger) Service {
	if downloadPrefix == "" {
		downloadPrefix = DefaultDownloadPrefix
	}
	return &service{
		platform: platform,
		prefix:   downloadPrefix,
		logger:   logger,
		notifier: notify.Contextual{},
		now:      time.Now,
	}
}

func (s *service) List(ctx context.Context, listingID string) ([]Image, error) {
	if err := validation.ValidateRecordID(listingID); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return s.load(ctx, listingID), nil
}

func (s *service) load(ctx context.Context, listingID string) []Image {
	files, err := s.platform.ListFiles(ctx, listingID)
	if err != nil {
		s.logger.Error("fetching images", "listing", listingID, "error", err)
		return []Image{}
	}
	images := make([]Image, len(files))
	for i, f := range files {
		images[i] = Image{ID: f.ID, URL: s.prefix + f.ContentDocumentID, SerialNumber: i + 1}
	}
	return images
}

func (s *service) Upload(ctx context.Context, listingID string, files []File) (*UploadResult, error) {
	if err := validation.ValidateRecordID(listingID); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files", ErrInvalidInput)
	}
	for _, f := range files {
		if err := validation.ValidateFileName(f.FileName); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		if _, err := base64.StdEncoding.DecodeString(f.Data); err != nil {
			return nil, fmt.Errorf("%w: %s is not base64", ErrInvalidInput, f.FileName)
		}
	}

	// previews stand in for the uploads until the gallery is reloaded
	images := s.load(ctx, listingID)
	base := s.now().UnixMilli()
	temps := make([]string, len(files))
	for i := range files {
		temps[i] = fmt.Sprintf("temp-%d", base+int64(i))
		images = append(images, Image{ID: temps[i], SerialNumber: len(images) + 1})
	}

	var (
		mu  sync.Mutex
		res = &UploadResult{Uploaded: []string{}, Failed: []UploadFailure{}}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)
	for i, f := range files {
		g.Go(func() error {
			err := s.platform.UploadFile(gctx, f.FileName, f.Data, listingID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.Error("uploading file", "listing", listingID, "file", f.FileName, "error", err)
				msg := "Unknown Error"
				var apiErr *client.APIError
				if errors.As(err, &apiErr) && apiErr.Message != "" {
					msg = apiErr.Message
				}
				notify.Error(ctx, s.notifier, "Error", "Failed to upload file: "+msg)
				metrics.MediaUpload("error")
				res.Failed = append(res.Failed, UploadFailure{FileName: f.FileName, Message: msg})
				images = removeImage(images, temps[i])
				return nil
			}
			notify.Success(ctx, s.notifier, "Success", "File uploaded successfully")
			metrics.MediaUpload("ok")
			res.Uploaded = append(res.Uploaded, f.FileName)
			return nil
		})
	}
	_ = g.Wait()

	if len(res.Uploaded) > 0 {
		images = s.load(ctx, listingID)
	}
	res.Images = renumber(images)
	return res, nil
}

func (s *service) Move(ctx context.Context, listingID string, from, to int) ([]Image, error) {
	if err := validation.ValidateRecordID(listingID); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	images := s.load(ctx, listingID)
	if from < 0 || to < 0 || from >= len(images) || to >= len(images) {
		return nil, fmt.Errorf("%w: position out of range", ErrInvalidInput)
	}
	if from == to {
		return images, nil
	}

	images[from], images[to] = images[to], images[from]
	images = renumber(images)

	files := make([]client.MediaFile, len(images))
	for i, img := range images {
		files[i] = client.MediaFile{ID: img.ID, SerialNumber: img.SerialNumber}
	}
	if err := s.platform.ReorderFiles(ctx, files); err != nil {
		s.logger.Error("updating image order", "listing", listingID, "error", err)
		notify.Error(ctx, s.notifier, "Error", "Failed to update order")
		return images, fmt.Errorf("%w: updating order: %w", ErrFailed, err)
	}
	notify.Success(ctx, s.notifier, "Success", "Order updated successfully")
	return images, nil
}

func (s *service) HeroImage(ctx context.Context, listingID string) string {
	if validation.ValidateRecordID(listingID) != nil {
		return ""
	}
	url, err := s.platform.FetchHeroImage(ctx, listingID)
	if err != nil {
		s.logger.Warn("fetching hero image", "listing", listingID, "error", err)
		return ""
	}
	return url
}

func removeImage(images []Image, id string) []Image {
	out := images[:0]
	for _, img := range images {
		if img.ID != id {
			out = append(out, img)
		}
	}
	return out
}

func renumber(images []Image) []Image {
	for i := range images {
		images[i].SerialNumber = i + 1
	}
	return images
}
