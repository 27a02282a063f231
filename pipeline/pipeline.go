// Package pipeline drives the catalog scan: fetch review summaries per app,
// qualify against the Japanese review threshold, enrich with store metadata,
// checkpoint periodically and emit the sorted ranking.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"steamrank/ranking"
	"steamrank/steam"
)

// Client is the subset of the Steam client the pipeline needs.
type Client interface {
	AppList(ctx context.Context) ([]steam.App, error)
	ReviewSummary(ctx context.Context, appid int, language string) (*steam.ReviewSummary, error)
	AppDetails(ctx context.Context, appid int) (*steam.AppDetails, error)
}

// Sink receives the accumulated ranking, both in progress and final.
type Sink interface {
	WriteCheckpoint(entries []ranking.Entry) error
	WriteFinal(entries []ranking.Entry) error
	RemoveCheckpoint() error
}

// Config holds pipeline tuning values.
type Config struct {
	// MinJPReviews is the qualification threshold: apps with fewer
	// Japanese reviews contribute no entry.
	MinJPReviews int
	// MaxApps caps the number of catalog entries processed. 0 = all.
	MaxApps int
	// SaveEvery is the checkpoint cadence in qualifying entries.
	SaveEvery int
	// RequestDelay is the fixed pause after every app, qualified or not.
	RequestDelay time.Duration
	// IncludeDetails enables the store metadata fetch. When enabled, an
	// app whose metadata cannot be fetched is skipped entirely.
	IncludeDetails bool
	// IncludePrice carries price fields into entries. Only meaningful
	// with IncludeDetails.
	IncludePrice bool
}

// Result summarizes one completed scan.
type Result struct {
	Entries    []ranking.Entry
	Scanned    int
	Qualified  int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Runner executes scans serially: one app finishes before the next begins.
type Runner struct {
	client Client
	sink   Sink
	config Config
}

// NewRunner creates a Runner with the given client, sink and configuration.
func NewRunner(client Client, sink Sink, cfg Config) *Runner {
	if cfg.MinJPReviews <= 0 {
		cfg.MinJPReviews = 200
	}
	if cfg.SaveEvery <= 0 {
		cfg.SaveEvery = 50
	}
	return &Runner{client: client, sink: sink, config: cfg}
}

// Run scans the catalog once and writes the sorted ranking through the sink.
// A catalog fetch failure or a final write failure is fatal; everything per
// app is a logged skip.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	started := time.Now()

	apps, err := r.client.AppList(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching catalog: %w", err)
	}
	slog.Info("catalog fetched", "apps", len(apps))

	limit := len(apps)
	if r.config.MaxApps > 0 && r.config.MaxApps < limit {
		limit = r.config.MaxApps
	}

	var results []ranking.Entry
	// The catalog can occasionally repeat an appid; the first occurrence
	// wins and duplicates are dropped before any HTTP call.
	seen := make(map[int]bool, limit)

	for i, app := range apps[:limit] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if i%100 == 0 {
			slog.Info("progress", "processed", i, "limit", limit, "qualified", len(results))
		}
		if seen[app.AppID] {
			continue
		}
		seen[app.AppID] = true

		entry, ok := r.processApp(ctx, app)
		if ok {
			results = append(results, entry)
			if len(results)%r.config.SaveEvery == 0 {
				slog.Info("writing checkpoint", "entries", len(results))
				if err := r.sink.WriteCheckpoint(results); err != nil {
					slog.Error("checkpoint write failed", "error", err)
				}
			}
		}

		if err := sleepCtx(ctx, r.config.RequestDelay); err != nil {
			return nil, err
		}
	}

	ranking.Sort(results)

	if err := r.sink.WriteFinal(results); err != nil {
		return nil, fmt.Errorf("writing final output: %w", err)
	}
	if err := r.sink.RemoveCheckpoint(); err != nil {
		slog.Error("checkpoint removal failed", "error", err)
	}

	slog.Info("scan complete", "scanned", limit, "qualified", len(results))
	return &Result{
		Entries:    results,
		Scanned:    limit,
		Qualified:  len(results),
		StartedAt:  started,
		FinishedAt: time.Now(),
	}, nil
}

// processApp runs the per-app sequence. The bool is false when the app does
// not qualify or a required fetch failed; such apps contribute nothing.
func (r *Runner) processApp(ctx context.Context, app steam.App) (ranking.Entry, bool) {
	jp, err := r.client.ReviewSummary(ctx, app.AppID, steam.LanguageJapanese)
	if err != nil {
		slog.Debug("japanese review summary unavailable", "appid", app.AppID, "error", err)
		return ranking.Entry{}, false
	}
	if jp.TotalReviews < r.config.MinJPReviews {
		return ranking.Entry{}, false
	}

	entry := ranking.Entry{
		AppID:          app.AppID,
		Name:           app.Name,
		TotalReviewsJP: jp.TotalReviews,
		PositiveRateJP: ranking.PositiveRate(jp.TotalPositive, jp.TotalReviews),
		StoreURL:       ranking.StoreURL(app.AppID),
		ImageURL:       ranking.CapsuleURL(app.AppID),
	}

	// The all-languages summary degrades gracefully: a miss leaves the
	// all-* fields null but the entry is still produced.
	if all, err := r.client.ReviewSummary(ctx, app.AppID, steam.LanguageAll); err != nil {
		slog.Debug("all-languages review summary unavailable", "appid", app.AppID, "error", err)
	} else {
		total := all.TotalReviews
		rate := ranking.PositiveRate(all.TotalPositive, all.TotalReviews)
		entry.TotalReviewsAll = &total
		entry.PositiveRateAll = &rate
	}

	if r.config.IncludeDetails {
		details, err := r.client.AppDetails(ctx, app.AppID)
		if err != nil {
			slog.Debug("store details unavailable, skipping", "appid", app.AppID, "error", err)
			return ranking.Entry{}, false
		}
		entry.ReleaseDate = details.ReleaseDate
		entry.Genres = details.Genres
		entry.Categories = details.Categories
		if r.config.IncludePrice {
			entry.PriceInitial = details.PriceInitial
			entry.PriceFinal = details.PriceFinal
			entry.DiscountPercent = details.DiscountPercent
		}
	}

	return entry, true
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
