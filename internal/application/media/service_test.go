package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	stdsync "sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRepo struct {
	mu        stdsync.Mutex
	assets    []Asset
	nextOrder int
}

func (r *fakeRepo) CreateBatch(_ context.Context, assets []Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assets = append(r.assets, assets...)
	return nil
}

func (r *fakeRepo) ListByProduct(_ context.Context, productID int64) ([]Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Asset
	for _, a := range r.assets {
		if a.ProductID == productID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeRepo) NextSortOrder(_ context.Context, _ int64) (int, error) {
	return r.nextOrder, nil
}

type fakeStore struct {
	mu      stdsync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (s *fakeStore) Put(_ context.Context, key string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	s.types[key] = contentType
	return "https://cdn.example.com/" + key, nil
}

func newTestService(repo *fakeRepo, store *fakeStore) *Service {
	return NewService(repo, store, nil, zap.NewNop())
}

func TestAttach_Validation(t *testing.T) {
	svc := newTestService(&fakeRepo{}, newFakeStore())

	tests := []struct {
		name     string
		input    AttachInput
		wantCode string
	}{
		{
			name:     "nothing provided",
			input:    AttachInput{ProductID: 1},
			wantCode: CodeRequired,
		},
		{
			name:     "image and url together",
			input:    AttachInput{ProductID: 1, Image: []byte("img"), ImageName: "a.png", MediaURL: "https://example.com/a.png"},
			wantCode: CodeDuplicatedInputItem,
		},
		{
			name:     "image and urls together",
			input:    AttachInput{ProductID: 1, Image: []byte("img"), ImageName: "a.png", MediaURLs: []string{"https://example.com/a.png"}},
			wantCode: CodeDuplicatedInputItem,
		},
		{
			name:     "alt too long",
			input:    AttachInput{ProductID: 1, MediaURL: "https://vimeo.com/1", Alt: strings.Repeat("x", AltCharLimit+1)},
			wantCode: CodeInvalid,
		},
		{
			name:     "multibyte alt over the limit",
			input:    AttachInput{ProductID: 1, MediaURL: "https://vimeo.com/1", Alt: strings.Repeat("ü", AltCharLimit+1)},
			wantCode: CodeInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Attach(t.Context(), tt.input)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantCode, verr.Code)
		})
	}
}

func TestAttach_MultibyteAltAtLimit(t *testing.T) {
	// The limit counts characters, so a maximum-length multibyte alt is
	// accepted even though it is twice as many bytes.
	svc := newTestService(&fakeRepo{}, newFakeStore())

	_, err := svc.Attach(t.Context(), AttachInput{
		ProductID: 1,
		MediaURL:  "https://vimeo.com/1",
		Alt:       strings.Repeat("ü", AltCharLimit),
	})
	require.NoError(t, err)
}

func TestAttach_ImageUpload(t *testing.T) {
	repo := &fakeRepo{nextOrder: 3}
	store := newFakeStore()
	svc := newTestService(repo, store)

	result, err := svc.Attach(t.Context(), AttachInput{
		ProductID: 7,
		Alt:       "front view",
		Image:     []byte("jpeg-bytes"),
		ImageName: "chair.jpg",
	})
	require.NoError(t, err)
	require.Len(t, result.Assets, 1)

	asset := result.Assets[0]
	assert.Equal(t, TypeImage, asset.Type)
	assert.Equal(t, int64(7), asset.ProductID)
	assert.Equal(t, "front view", asset.Alt)
	assert.Equal(t, 3, asset.SortOrder)
	assert.True(t, strings.HasPrefix(asset.URL, "https://cdn.example.com/products/7/chair_"))
	assert.True(t, strings.HasSuffix(asset.URL, ".jpg"))

	require.Len(t, store.objects, 1)
	for key, data := range store.objects {
		assert.Equal(t, []byte("jpeg-bytes"), data)
		assert.Equal(t, "image/jpeg", store.types[key])
	}
	assert.Len(t, repo.assets, 1)
}

func TestAttach_ExternalURL(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, newFakeStore())

	result, err := svc.Attach(t.Context(), AttachInput{
		ProductID: 7,
		MediaURL:  "https://vimeo.com/12345",
	})
	require.NoError(t, err)
	require.Len(t, result.Assets, 1)

	asset := result.Assets[0]
	assert.Equal(t, TypeExternal, asset.Type)
	// Non-image URLs are kept verbatim, nothing is downloaded or stored.
	assert.Equal(t, "https://vimeo.com/12345", asset.URL)
}

func TestAttach_ImageURLDownloaded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte("png-bytes"))
		}
	}))
	defer server.Close()

	repo := &fakeRepo{}
	store := newFakeStore()
	svc := newTestService(repo, store)

	result, err := svc.Attach(t.Context(), AttachInput{
		ProductID: 7,
		MediaURL:  server.URL + "/images/sofa.png",
	})
	require.NoError(t, err)
	require.Len(t, result.Assets, 1)

	asset := result.Assets[0]
	assert.Equal(t, TypeImage, asset.Type)
	assert.Contains(t, asset.URL, "products/7/sofa_")

	require.Len(t, store.objects, 1)
	for _, data := range store.objects {
		assert.Equal(t, []byte("png-bytes"), data)
	}
}

func TestAttach_ImageURLWrongContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
	}))
	defer server.Close()

	svc := newTestService(&fakeRepo{}, newFakeStore())

	_, err := svc.Attach(t.Context(), AttachInput{
		ProductID: 7,
		MediaURL:  server.URL + "/fake.png",
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, CodeInvalid, verr.Code)
}

func TestAttach_MediaURLsSkipsFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "broken") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("data-" + r.URL.Path))
	}))
	defer server.Close()

	variantID := int64(11)
	repo := &fakeRepo{}
	store := newFakeStore()
	svc := newTestService(repo, store)

	result, err := svc.Attach(t.Context(), AttachInput{
		ProductID: 7,
		VariantID: &variantID,
		MediaURLs: []string{
			server.URL + "/a.jpg",
			server.URL + "/broken.jpg",
			server.URL + "/b.jpg",
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Assets, 2)

	// Order of the input list is preserved for the survivors.
	assert.Contains(t, result.Assets[0].URL, "/a_")
	assert.Contains(t, result.Assets[1].URL, "/b_")
	assert.Equal(t, 0, result.Assets[0].SortOrder)
	assert.Equal(t, 1, result.Assets[1].SortOrder)
	for _, asset := range result.Assets {
		require.NotNil(t, asset.VariantID)
		assert.Equal(t, variantID, *asset.VariantID)
	}
	assert.Len(t, repo.assets, 2)
}

func TestIsImageURL(t *testing.T) {
	assert.True(t, isImageURL("https://example.com/a.jpg"))
	assert.True(t, isImageURL("https://example.com/path/b.PNG?size=large"))
	assert.False(t, isImageURL("https://vimeo.com/12345"))
	assert.False(t, isImageURL("https://example.com/doc.pdf"))
}
