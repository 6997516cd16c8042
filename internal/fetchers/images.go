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

// imagesFetcher handles the raw-images API shape used by newer
// missions: a latest-sol endpoint, and paged image objects carrying a
// string image id, flat camera name and per-resolution file URLs.
type imagesFetcher struct {
	source string
	client *feed.Client
	writer driven.RecordWriter
}

var _ driven.SolFetcher = (*imagesFetcher)(nil)

func newImagesFetcher(source string, client *feed.Client, writer driven.RecordWriter) *imagesFetcher {
	return &imagesFetcher{source: source, client: client, writer: writer}
}

// latestSolResponse is the raw-images API latest-sol payload.
type latestSolResponse struct {
	LatestSol *int `json:"latest_sol"`
}

// imagesResponse is one page of the raw-images API sol listing.
type imagesResponse struct {
	Images       []imageItem `json:"images"`
	TotalResults int         `json:"total_results"`
}

type imageItem struct {
	ImageID    string `json:"imageID"`
	Sol        int    `json:"sol"`
	Camera     string `json:"camera"`
	ImageFiles struct {
		FullRes string `json:"full_res"`
		Large   string `json:"large"`
	} `json:"image_files"`
	DateTakenUTC string `json:"date_taken_utc"`
}

func (f *imagesFetcher) Source() string {
	return f.source
}

func (f *imagesFetcher) LatestSol(ctx context.Context) (int, error) {
	var resp latestSolResponse
	path := "/rovers/" + f.source + "/latest_sol"
	if err := f.client.GetJSON(ctx, path, nil, &resp); err != nil {
		return 0, err
	}

	if resp.LatestSol == nil {
		return 0, fmt.Errorf("%w: latest_sol missing for %s", domain.ErrParse, f.source)
	}

	return *resp.LatestSol, nil
}

func (f *imagesFetcher) FetchSol(ctx context.Context, sol int) (int, error) {
	path := "/rovers/" + f.source + "/raw_images"
	inserted := 0
	seen := 0

	for page := 1; ; page++ {
		query := url.Values{}
		query.Set("sol", strconv.Itoa(sol))
		query.Set("page", strconv.Itoa(page))
		query.Set("per_page", strconv.Itoa(perPage))

		var resp imagesResponse
		if err := f.client.GetJSON(ctx, path, query, &resp); err != nil {
			return inserted, err
		}

		items := make([]domain.RawPhoto, 0, len(resp.Images))
		for _, image := range resp.Images {
			items = append(items, image.toRaw(sol))
		}

		result, err := f.writer.Write(ctx, f.source, sol, items)
		if err != nil {
			return inserted, fmt.Errorf("write sol %d page %d: %w", sol, page, err)
		}
		inserted += result.Inserted
		seen += len(resp.Images)

		if len(resp.Images) < perPage || (resp.TotalResults > 0 && seen >= resp.TotalResults) {
			return inserted, nil
		}
	}
}

// toRaw maps a raw-images API item to the domain shape. The full
// resolution URL wins when present; a malformed timestamp leaves
// TakenAt zero so the writer skips the item.
func (i imageItem) toRaw(sol int) domain.RawPhoto {
	raw := domain.RawPhoto{
		ExternalID: i.ImageID,
		Sol:        sol,
		Camera:     i.Camera,
		ImgURL:     i.ImageFiles.FullRes,
	}
	if raw.ImgURL == "" {
		raw.ImgURL = i.ImageFiles.Large
	}
	if taken, err := time.Parse(time.RFC3339, i.DateTakenUTC); err == nil {
		raw.TakenAt = taken
	}
	return raw
}
