package fetchers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/perseus-data/solsync/internal/adapters/driven/feed"
	"github.com/perseus-data/solsync/internal/core/domain"
	"github.com/perseus-data/solsync/internal/core/ports/driven"
)

// earthDateLayout is the date format used by the photos API.
const earthDateLayout = "2006-01-02"

// photosFetcher handles the legacy photos API shape: a per-source
// manifest for the latest sol, and numbered pages of photo objects
// with nested camera metadata.
type photosFetcher struct {
	source string
	client *feed.Client
	writer driven.RecordWriter
}

var _ driven.SolFetcher = (*photosFetcher)(nil)

func newPhotosFetcher(source string, client *feed.Client, writer driven.RecordWriter) *photosFetcher {
	return &photosFetcher{source: source, client: client, writer: writer}
}

// manifestResponse is the photos API mission manifest payload.
type manifestResponse struct {
	PhotoManifest *struct {
		MaxSol      int    `json:"max_sol"`
		TotalPhotos int    `json:"total_photos"`
		Status      string `json:"status"`
	} `json:"photo_manifest"`
}

// photosResponse is one page of the photos API sol listing.
type photosResponse struct {
	Photos []photoItem `json:"photos"`
}

type photoItem struct {
	ID     int64 `json:"id"`
	Sol    int   `json:"sol"`
	Camera struct {
		Name     string `json:"name"`
		FullName string `json:"full_name"`
	} `json:"camera"`
	ImgSrc    string `json:"img_src"`
	EarthDate string `json:"earth_date"`
}

func (f *photosFetcher) Source() string {
	return f.source
}

func (f *photosFetcher) LatestSol(ctx context.Context) (int, error) {
	var resp manifestResponse
	path := "/manifests/" + f.source
	if err := f.client.GetJSON(ctx, path, nil, &resp); err != nil {
		return 0, err
	}

	if resp.PhotoManifest == nil {
		return 0, fmt.Errorf("%w: manifest for %s missing photo_manifest", domain.ErrParse, f.source)
	}

	return resp.PhotoManifest.MaxSol, nil
}

func (f *photosFetcher) FetchSol(ctx context.Context, sol int) (int, error) {
	path := "/rovers/" + f.source + "/photos"
	inserted := 0

	for page := 1; ; page++ {
		query := url.Values{}
		query.Set("sol", strconv.Itoa(sol))
		query.Set("page", strconv.Itoa(page))
		query.Set("per_page", strconv.Itoa(perPage))

		var resp photosResponse
		if err := f.client.GetJSON(ctx, path, query, &resp); err != nil {
			return inserted, err
		}

		items := make([]domain.RawPhoto, 0, len(resp.Photos))
		for _, photo := range resp.Photos {
			items = append(items, photo.toRaw(sol))
		}

		result, err := f.writer.Write(ctx, f.source, sol, items)
		if err != nil {
			return inserted, fmt.Errorf("write sol %d page %d: %w", sol, page, err)
		}
		inserted += result.Inserted

		if len(resp.Photos) < perPage {
			return inserted, nil
		}
	}
}

// toRaw maps a photos API item to the domain shape. A malformed
// earth_date leaves TakenAt zero so the writer skips the item.
func (p photoItem) toRaw(sol int) domain.RawPhoto {
	raw := domain.RawPhoto{
		Sol:    sol,
		Camera: p.Camera.Name,
		ImgURL: p.ImgSrc,
	}
	if p.ID > 0 {
		raw.ExternalID = strconv.FormatInt(p.ID, 10)
	}
	if taken, err := time.Parse(earthDateLayout, p.EarthDate); err == nil {
		raw.TakenAt = taken
	}
	if p.Camera.FullName != "" {
		raw.Metadata = map[string]string{"camera_full_name": p.Camera.FullName}
	}
	return raw
}
