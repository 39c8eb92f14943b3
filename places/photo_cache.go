package places

import (
	"context"
	"log"
	"time"

	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/datastore"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/models"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/temporal"
	"github.com/google/uuid"
)

const (
	// PhotoCacheTTL is how long a cached photo set stays valid. A set
	// aged exactly the TTL is still served from cache.
	PhotoCacheTTL = 30 * 24 * time.Hour

	// MaxPhotosPerPlace caps how many photos are fetched and cached.
	MaxPhotosPerPlace = 5
)

// photoFetcher is the slice of Client the cache gate depends on.
type photoFetcher interface {
	FetchPhotos(ctx context.Context, googlePlaceID string, limit int) ([]FetchedPhoto, error)
}

// PhotoCache decides whether cached place photos are still valid or
// must be refetched from the places API.
type PhotoCache struct {
	placeRepo *datastore.PlaceRepository
	fetcher   photoFetcher
	now       func() time.Time
}

func NewPhotoCache(placeRepo *datastore.PlaceRepository, fetcher photoFetcher) *PhotoCache {
	return &PhotoCache{
		placeRepo: placeRepo,
		fetcher:   fetcher,
		now:       time.Now,
	}
}

// PhotoResult is the structured outcome of a photo lookup. Success is
// false when no photos could be produced; callers treat that as "no
// photos available", never as a hard error.
type PhotoResult struct {
	Success bool                `json:"success"`
	Photos  []models.PlacePhoto `json:"photos"`
	Cached  bool                `json:"cached"`
	Error   string              `json:"error,omitempty"`
}

// GetPhotos returns the photo set for a place, serving from cache when
// the set is fresh and refetching when the oldest row has outlived the
// TTL. Upstream failures are folded into the result, not propagated.
func (pc *PhotoCache) GetPhotos(ctx context.Context, placeID, googlePlaceID string) PhotoResult {
	now := pc.now().UTC()

	cached, err := pc.placeRepo.GetPhotosByPlaceID(ctx, placeID)
	if err != nil {
		log.Printf("ERROR (PhotoCache): Failed to read cached photos for place %s: %v", placeID, err)
		return PhotoResult{Success: false, Photos: []models.PlacePhoto{}, Error: "failed to read photo cache"}
	}

	if len(cached) > 0 {
		// Rows are ordered newest first; the whole set expires together
		// when the oldest row goes stale.
		oldest := cached[len(cached)-1]
		if !temporal.Stale(oldest.CreatedAt, PhotoCacheTTL, now) {
			return PhotoResult{Success: true, Photos: cached, Cached: true}
		}

		if err := pc.placeRepo.DeletePhotosByPlaceID(ctx, placeID); err != nil {
			log.Printf("ERROR (PhotoCache): Failed to purge stale photos for place %s: %v", placeID, err)
			return PhotoResult{Success: false, Photos: []models.PlacePhoto{}, Error: "failed to purge stale photo cache"}
		}
		log.Printf("INFO (PhotoCache): Purged stale photo cache for place %s", placeID)
	}

	if googlePlaceID == "" {
		return PhotoResult{Success: false, Photos: []models.PlacePhoto{}, Error: "no Google Place ID provided"}
	}

	fetched, err := pc.fetcher.FetchPhotos(ctx, googlePlaceID, MaxPhotosPerPlace)
	if err != nil {
		log.Printf("WARN (PhotoCache): Places API fetch failed for place %s: %v", placeID, err)
		return PhotoResult{Success: false, Photos: []models.PlacePhoto{}, Error: "failed to fetch photos from places API"}
	}

	photos := make([]models.PlacePhoto, 0, len(fetched))
	for _, f := range fetched {
		photos = append(photos, models.PlacePhoto{
			ID:        uuid.NewString(),
			PlaceID:   placeID,
			CreatedAt: now,
			PhotoURL:  f.PhotoURL,
			Width:     f.Width,
			Height:    f.Height,
		})
	}

	if len(photos) > 0 {
		if err := pc.placeRepo.CreatePhotos(ctx, photos); err != nil {
			// The fetch succeeded; serve the photos even if caching them failed.
			log.Printf("WARN (PhotoCache): Failed to cache photos for place %s: %v", placeID, err)
		}
	}

	return PhotoResult{Success: true, Photos: photos, Cached: false}
}
