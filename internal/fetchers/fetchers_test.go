package fetchers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perseus-data/solsync/internal/adapters/driven/feed"
	"github.com/perseus-data/solsync/internal/adapters/driven/storage/memory"
	"github.com/perseus-data/solsync/internal/core/domain"
	"github.com/perseus-data/solsync/internal/core/services"
)

func newTestClient(serverURL string) *feed.Client {
	return feed.NewClient(serverURL, "", feed.Options{RatePerSecond: 10000})
}

func newTestWriter() (*services.RecordWriter, *memory.RecordStore) {
	store := memory.NewRecordStore()
	return services.NewRecordWriter(store), store
}

func TestRegistry_Fetcher(t *testing.T) {
	writer, _ := newTestWriter()
	registry := NewRegistry(newTestClient("http://example.test"), writer)

	fetcher, err := registry.Fetcher(SourceCuriosity)

	require.NoError(t, err)
	assert.Equal(t, SourceCuriosity, fetcher.Source())
}

func TestRegistry_UnknownSource(t *testing.T) {
	writer, _ := newTestWriter()
	registry := NewRegistry(newTestClient("http://example.test"), writer)

	_, err := registry.Fetcher("oppy")

	assert.ErrorIs(t, err, domain.ErrUnknownSource)
}

func TestRegistry_Sources(t *testing.T) {
	writer, _ := newTestWriter()
	registry := NewRegistry(newTestClient("http://example.test"), writer)

	assert.Equal(t,
		[]string{SourceCuriosity, SourceOpportunity, SourcePerseverance, SourceSpirit},
		registry.Sources())
}

func TestPhotosFetcher_LatestSol(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/manifests/curiosity", r.URL.Path)
		_, _ = w.Write([]byte(`{"photo_manifest": {"max_sol": 4123, "total_photos": 695000, "status": "active"}}`))
	}))
	defer server.Close()

	writer, _ := newTestWriter()
	fetcher := newPhotosFetcher(SourceCuriosity, newTestClient(server.URL), writer)

	sol, err := fetcher.LatestSol(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 4123, sol)
}

func TestPhotosFetcher_LatestSol_MissingManifest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	writer, _ := newTestWriter()
	fetcher := newPhotosFetcher(SourceCuriosity, newTestClient(server.URL), writer)

	_, err := fetcher.LatestSol(context.Background())

	assert.ErrorIs(t, err, domain.ErrParse)
}

func TestPhotosFetcher_FetchSol_SinglePage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rovers/curiosity/photos", r.URL.Path)
		assert.Equal(t, "1000", r.URL.Query().Get("sol"))
		_, _ = w.Write([]byte(`{"photos": [
			{"id": 101, "sol": 1000, "camera": {"name": "NAVCAM", "full_name": "Navigation Camera"}, "img_src": "https://img.test/101.jpg", "earth_date": "2015-05-30"},
			{"id": 102, "sol": 1000, "camera": {"name": "MAST"}, "img_src": "https://img.test/102.jpg", "earth_date": "2015-05-30"}
		]}`))
	}))
	defer server.Close()

	writer, store := newTestWriter()
	fetcher := newPhotosFetcher(SourceCuriosity, newTestClient(server.URL), writer)

	inserted, err := fetcher.FetchSol(context.Background(), 1000)

	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	count, err := store.CountBySource(context.Background(), SourceCuriosity)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestPhotosFetcher_FetchSol_Paginates(t *testing.T) {
	pagesSeen := make([]string, 0, 2)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		pagesSeen = append(pagesSeen, page)

		if page == "1" {
			// Full page: exactly perPage items signals another page.
			fmt.Fprint(w, `{"photos": [`)
			for i := 0; i < perPage; i++ {
				if i > 0 {
					fmt.Fprint(w, ",")
				}
				fmt.Fprintf(w, `{"id": %d, "sol": 50, "camera": {"name": "PANCAM"}, "img_src": "https://img.test/%d.jpg", "earth_date": "2004-02-26"}`, i+1, i+1)
			}
			fmt.Fprint(w, `]}`)
			return
		}
		_, _ = w.Write([]byte(`{"photos": [
			{"id": 900, "sol": 50, "camera": {"name": "PANCAM"}, "img_src": "https://img.test/900.jpg", "earth_date": "2004-02-26"}
		]}`))
	}))
	defer server.Close()

	writer, _ := newTestWriter()
	fetcher := newPhotosFetcher(SourceSpirit, newTestClient(server.URL), writer)

	inserted, err := fetcher.FetchSol(context.Background(), 50)

	require.NoError(t, err)
	assert.Equal(t, perPage+1, inserted)
	assert.Equal(t, []string{"1", "2"}, pagesSeen)
}

func TestPhotosFetcher_FetchSol_SkipsMalformedItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"photos": [
			{"id": 7, "sol": 10, "camera": {"name": "FHAZ"}, "img_src": "https://img.test/7.jpg", "earth_date": "2012-08-16"},
			{"id": 8, "sol": 10, "camera": {"name": "FHAZ"}, "img_src": "https://img.test/8.jpg", "earth_date": "not-a-date"},
			{"sol": 10, "camera": {"name": "FHAZ"}, "img_src": "https://img.test/9.jpg", "earth_date": "2012-08-16"}
		]}`))
	}))
	defer server.Close()

	writer, store := newTestWriter()
	fetcher := newPhotosFetcher(SourceCuriosity, newTestClient(server.URL), writer)

	inserted, err := fetcher.FetchSol(context.Background(), 10)

	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	count, err := store.CountBySource(context.Background(), SourceCuriosity)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPhotosFetcher_FetchSol_PropagatesStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	writer, _ := newTestWriter()
	fetcher := newPhotosFetcher(SourceCuriosity, newTestClient(server.URL), writer)

	_, err := fetcher.FetchSol(context.Background(), 10)

	var statusErr *domain.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
}

func TestImagesFetcher_LatestSol(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rovers/perseverance/latest_sol", r.URL.Path)
		_, _ = w.Write([]byte(`{"latest_sol": 950}`))
	}))
	defer server.Close()

	writer, _ := newTestWriter()
	fetcher := newImagesFetcher(SourcePerseverance, newTestClient(server.URL), writer)

	sol, err := fetcher.LatestSol(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 950, sol)
}

func TestImagesFetcher_LatestSol_Missing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	writer, _ := newTestWriter()
	fetcher := newImagesFetcher(SourcePerseverance, newTestClient(server.URL), writer)

	_, err := fetcher.LatestSol(context.Background())

	assert.ErrorIs(t, err, domain.ErrParse)
}

func TestImagesFetcher_FetchSol(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rovers/perseverance/raw_images", r.URL.Path)
		_, _ = w.Write([]byte(`{"total_results": 2, "images": [
			{"imageID": "NLF_0900_001", "sol": 900, "camera": "NAVCAM_LEFT", "image_files": {"full_res": "https://img.test/a-full.png", "large": "https://img.test/a-large.png"}, "date_taken_utc": "2023-09-01T12:30:00Z"},
			{"imageID": "NRF_0900_002", "sol": 900, "camera": "NAVCAM_RIGHT", "image_files": {"large": "https://img.test/b-large.png"}, "date_taken_utc": "2023-09-01T12:31:00Z"}
		]}`))
	}))
	defer server.Close()

	writer, store := newTestWriter()
	fetcher := newImagesFetcher(SourcePerseverance, newTestClient(server.URL), writer)

	inserted, err := fetcher.FetchSol(context.Background(), 900)

	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	count, err := store.CountBySource(context.Background(), SourcePerseverance)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestImagesFetcher_FetchSol_StopsAtTotalResults(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		// Exactly perPage items but total_results says that is all of
		// them, so no second page is requested.
		fmt.Fprintf(w, `{"total_results": %d, "images": [`, perPage)
		for i := 0; i < perPage; i++ {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"imageID": "IMG_%03d", "sol": 5, "camera": "SUPERCAM", "image_files": {"full_res": "https://img.test/%d.png"}, "date_taken_utc": "2021-03-20T08:00:00Z"}`, i, i)
		}
		fmt.Fprint(w, `]}`)
	}))
	defer server.Close()

	writer, _ := newTestWriter()
	fetcher := newImagesFetcher(SourcePerseverance, newTestClient(server.URL), writer)

	inserted, err := fetcher.FetchSol(context.Background(), 5)

	require.NoError(t, err)
	assert.Equal(t, perPage, inserted)
	assert.Equal(t, 1, requests)
}

func TestImagesFetcher_FetchSol_Idempotent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"total_results": 1, "images": [
			{"imageID": "ZCAM_0033_001", "sol": 33, "camera": "MCZ_LEFT", "image_files": {"full_res": "https://img.test/z.png"}, "date_taken_utc": "2021-03-29T10:00:00Z"}
		]}`))
	}))
	defer server.Close()

	writer, _ := newTestWriter()
	fetcher := newImagesFetcher(SourcePerseverance, newTestClient(server.URL), writer)

	first, err := fetcher.FetchSol(context.Background(), 33)
	require.NoError(t, err)
	second, err := fetcher.FetchSol(context.Background(), 33)
	require.NoError(t, err)

	assert.Equal(t, 1, first)
	assert.Equal(t, 0, second)
}
