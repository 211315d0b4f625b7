package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/cppla/contactbox/models"
	"github.com/cppla/contactbox/repository"
	"github.com/cppla/contactbox/storage"
	"github.com/cppla/contactbox/utils"
)

// UploadsPrefix is the URL path under which stored files are served.
const UploadsPrefix = "/uploads/"

const sniffLen = 3072

// ImageService implements the image operations.
type ImageService struct {
	repo     repository.ImageRepository
	store    storage.Storage
	lists    listCache
	maxBytes int64
}

// NewImageService wires an ImageService. Uploads larger than maxBytes are rejected.
func NewImageService(repo repository.ImageRepository, store storage.Storage, cache utils.Cache, maxBytes int64) *ImageService {
	return &ImageService{repo: repo, store: store, lists: newListCache(cache, "images"), maxBytes: maxBytes}
}

// Upload stores r under a fresh opaque key and records it.
// size is the declared length, or -1 when unknown.
func (s *ImageService) Upload(ctx context.Context, r io.Reader, originalName string, size int64) (*models.Image, error) {
	if r == nil {
		return nil, ErrNoFile
	}
	if size > s.maxBytes {
		return nil, ErrFileTooLarge
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, &StorageError{Op: "read upload", Err: err}
	}
	if n == 0 {
		return nil, ErrNoFile
	}
	head = head[:n]
	mt := mimetype.Detect(head)

	body := &countingReader{r: io.LimitReader(io.MultiReader(bytes.NewReader(head), r), s.maxBytes+1)}
	key := storage.NewKey(mt.Extension())
	if err := s.store.Save(ctx, key, body, size, mt.String()); err != nil {
		return nil, &StorageError{Op: "save file", Err: err}
	}
	if body.n > s.maxBytes {
		s.removeFile(ctx, key)
		return nil, ErrFileTooLarge
	}

	img := &models.Image{
		Filename:     key,
		OriginalName: cleanName(originalName),
		ContentType:  mt.String(),
		Size:         body.n,
	}
	if err := s.repo.Create(ctx, img); err != nil {
		s.removeFile(ctx, key)
		return nil, storeErr("save image", err)
	}
	s.lists.invalidate(ctx)
	return img, nil
}

// List returns every image record.
func (s *ImageService) List(ctx context.Context) ([]models.Image, error) {
	var images []models.Image
	key, hit := s.lists.get(ctx, &images)
	if hit {
		return images, nil
	}
	images, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeErr("list images", err)
	}
	s.lists.set(ctx, key, images)
	return images, nil
}

// Get returns one image record.
func (s *ImageService) Get(ctx context.Context, id string) (*models.Image, error) {
	img, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, storeErr("load image", err)
	}
	return img, nil
}

// Delete removes the stored file best-effort, then the record unconditionally.
func (s *ImageService) Delete(ctx context.Context, id string) error {
	img, err := s.repo.Get(ctx, id)
	if err != nil {
		return storeErr("load image", err)
	}
	s.removeFile(ctx, img.Filename)
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeErr("delete image", err)
	}
	s.lists.invalidate(ctx)
	return nil
}

// Open returns the stored file for key.
func (s *ImageService) Open(ctx context.Context, key string) (*storage.Object, error) {
	obj, err := s.store.Open(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) || errors.Is(err, storage.ErrInvalidKey) {
			return nil, ErrNotFound
		}
		return nil, &StorageError{Op: "open file", Err: err}
	}
	return obj, nil
}

func (s *ImageService) removeFile(ctx context.Context, key string) {
	if err := s.store.Remove(ctx, key); err != nil {
		utils.Sugar.Warnw("failed to remove stored file", "key", key, "error", err)
	}
}

// Links projects images onto their public URLs below baseURL.
func Links(images []models.Image, baseURL string) []models.ImageLink {
	base := strings.TrimRight(baseURL, "/")
	links := make([]models.ImageLink, 0, len(images))
	for _, img := range images {
		links = append(links, models.ImageLink{
			ID:  img.ID,
			URL: base + UploadsPrefix + url.PathEscape(img.Filename),
		})
	}
	return links
}

func cleanName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	if len(name) > 255 {
		name = name[:255]
	}
	return name
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
