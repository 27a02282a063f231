package ranking

import (
	"fmt"
	"math"
	"sort"
)

const (
	storeURLFormat   = "https://store.steampowered.com/app/%d"
	capsuleURLFormat = "https://cdn.akamai.steamstatic.com/steam/apps/%d/capsule_231x87.jpg"
)

// Entry is one game in the persisted ranking. Nullable fields serialize as
// explicit JSON nulls so the output schema stays stable across
// configurations; detail fields are null when metadata collection is
// disabled or the store omits them.
type Entry struct {
	AppID           int      `json:"appid"`
	Name            string   `json:"name"`
	TotalReviewsJP  int      `json:"total_reviews_jp"`
	PositiveRateJP  float64  `json:"positive_rate_jp"`
	TotalReviewsAll *int     `json:"total_reviews_all"`
	PositiveRateAll *float64 `json:"positive_rate_all"`
	StoreURL        string   `json:"store_url"`
	ImageURL        string   `json:"image_url"`
	ReleaseDate     *string  `json:"release_date"`
	Genres          []string `json:"genres"`
	Categories      []string `json:"categories"`
	PriceInitial    *int     `json:"price_initial"`
	PriceFinal      *int     `json:"price_final"`
	DiscountPercent *int     `json:"discount_percent"`
}

// PositiveRate returns the percentage of positive reviews rounded to two
// decimal places. A total below one is clamped to one so a zero-review
// summary yields 0 rather than dividing by zero.
func PositiveRate(positive, total int) float64 {
	if total < 1 {
		total = 1
	}
	rate := float64(positive) / float64(total) * 100
	return math.Round(rate*100) / 100
}

// StoreURL returns the store page URL for an app.
func StoreURL(appid int) string {
	return fmt.Sprintf(storeURLFormat, appid)
}

// CapsuleURL returns the capsule image URL for an app. The image is not
// guaranteed to exist for every app.
func CapsuleURL(appid int) string {
	return fmt.Sprintf(capsuleURLFormat, appid)
}

// Sort orders entries by Japanese positive rate, highest first. The sort is
// stable: ties keep their accumulation order.
func Sort(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].PositiveRateJP > entries[j].PositiveRateJP
	})
}
