package media

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	stdsync "sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxDownloadBytes bounds a single remote media download.
const maxDownloadBytes = 20 << 20

// ObjectStorage is the slice of the storage backend the service needs.
type ObjectStorage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// AttachResult reports what one attach request created.
type AttachResult struct {
	Assets []Asset `json:"assets"`
}

// Service downloads and stores product media. A request carries either an
// uploaded image, a single remote URL, or a list of remote URLs; the list
// form downloads concurrently and skips URLs that fail, the single form
// stores non-image URLs as external media without downloading.
type Service struct {
	repo   Repository
	store  ObjectStorage
	client *http.Client
	logger *zap.Logger
}

func NewService(repo Repository, store ObjectStorage, client *http.Client, logger *zap.Logger) *Service {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Service{repo: repo, store: store, client: client, logger: logger}
}

// Attach validates the input, stores the media and persists the assets in
// one batch.
func (s *Service) Attach(ctx context.Context, in AttachInput) (*AttachResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	sortOrder, err := s.repo.NextSortOrder(ctx, in.ProductID)
	if err != nil {
		return nil, fmt.Errorf("media: next sort order: %w", err)
	}

	var assets []Asset
	switch {
	case len(in.Image) > 0:
		asset, err := s.storeImage(ctx, in, uniqueFilename(in.ImageName), in.Image)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)

	case len(in.MediaURLs) > 0:
		assets, err = s.attachURLs(ctx, in)
		if err != nil {
			return nil, err
		}

	default:
		asset, err := s.attachURL(ctx, in)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}

	for i := range assets {
		assets[i].SortOrder = sortOrder + i
	}
	if err := s.repo.CreateBatch(ctx, assets); err != nil {
		return nil, fmt.Errorf("media: persist assets: %w", err)
	}

	return &AttachResult{Assets: assets}, nil
}

// attachURLs downloads every URL concurrently and stores whatever came
// back. A failed download drops that URL, it does not fail the request.
func (s *Service) attachURLs(ctx context.Context, in AttachInput) ([]Asset, error) {
	type download struct {
		url  string
		data []byte
	}
	results := make([]download, len(in.MediaURLs))

	var wg stdsync.WaitGroup
	for i, mediaURL := range in.MediaURLs {
		wg.Add(1)
		go func(i int, mediaURL string) {
			defer wg.Done()
			data, err := s.download(ctx, mediaURL)
			if err != nil {
				s.logger.Warn("Skipping media URL that failed to download",
					zap.String("url", mediaURL),
					zap.Error(err),
				)
				return
			}
			results[i] = download{url: mediaURL, data: data}
		}(i, mediaURL)
	}
	wg.Wait()

	var assets []Asset
	for _, res := range results {
		if len(res.data) == 0 {
			continue
		}
		asset, err := s.storeImage(ctx, in, filenameFromURL(res.url), res.data)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, nil
}

// attachURL stores a single remote URL: image URLs are downloaded, any
// other URL is kept as external media pointing at the remote.
func (s *Service) attachURL(ctx context.Context, in AttachInput) (Asset, error) {
	if !isImageURL(in.MediaURL) {
		return Asset{
			ID:        uuid.New(),
			ProductID: in.ProductID,
			VariantID: in.VariantID,
			Type:      TypeExternal,
			URL:       in.MediaURL,
			Alt:       in.Alt,
		}, nil
	}

	if err := s.validateImageURL(ctx, in.MediaURL); err != nil {
		return Asset{}, err
	}
	data, err := s.download(ctx, in.MediaURL)
	if err != nil {
		return Asset{}, &ValidationError{
			Code:    CodeInvalid,
			Message: fmt.Sprintf("Unable to download media from %s.", in.MediaURL),
		}
	}
	return s.storeImage(ctx, in, filenameFromURL(in.MediaURL), data)
}

func (s *Service) storeImage(ctx context.Context, in AttachInput, filename string, data []byte) (Asset, error) {
	key := fmt.Sprintf("products/%d/%s", in.ProductID, filename)
	storedURL, err := s.store.Put(ctx, key, data, contentTypeFor(filename))
	if err != nil {
		return Asset{}, fmt.Errorf("media: store image: %w", err)
	}
	return Asset{
		ID:        uuid.New(),
		ProductID: in.ProductID,
		VariantID: in.VariantID,
		Type:      TypeImage,
		URL:       storedURL,
		Alt:       in.Alt,
	}, nil
}

// validateImageURL checks the remote's content type before downloading.
func (s *Service) validateImageURL(ctx context.Context, mediaURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, mediaURL, nil)
	if err != nil {
		return &ValidationError{Code: CodeInvalid, Message: "Invalid media URL."}
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return &ValidationError{Code: CodeInvalid, Message: "Invalid media URL."}
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return &ValidationError{
			Code:    CodeInvalid,
			Message: fmt.Sprintf("Invalid file type: %s.", contentType),
		}
	}
	return nil
}

func (s *Service) download(ctx context.Context, mediaURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
}

// isImageURL guesses from the URL's extension whether it points at an image.
func isImageURL(mediaURL string) bool {
	parsed, err := url.Parse(mediaURL)
	if err != nil {
		return false
	}
	contentType := mime.TypeByExtension(strings.ToLower(path.Ext(parsed.Path)))
	return strings.HasPrefix(contentType, "image/")
}

// filenameFromURL derives a unique stored filename from the URL's basename.
func filenameFromURL(mediaURL string) string {
	parsed, err := url.Parse(mediaURL)
	if err != nil {
		return uniqueFilename("")
	}
	return uniqueFilename(path.Base(parsed.Path))
}

// uniqueFilename suffixes the name's stem with a random hex fragment so
// repeated attachments never collide in storage.
func uniqueFilename(name string) string {
	name = path.Base(name)
	if name == "." || name == "/" || name == "" {
		name = "media"
	}
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	hash := strings.ReplaceAll(uuid.New().String(), "-", "")
	return fmt.Sprintf("%s_%s%s", stem, hash, ext)
}

func contentTypeFor(filename string) string {
	contentType := mime.TypeByExtension(strings.ToLower(path.Ext(filename)))
	if contentType == "" {
		return "application/octet-stream"
	}
	return contentType
}
