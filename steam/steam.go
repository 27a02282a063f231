package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

const (
	APIBaseURL   = "https://api.steampowered.com"
	StoreBaseURL = "https://store.steampowered.com"
)

// Review language filters accepted by the appreviews endpoint.
const (
	LanguageJapanese = "japanese"
	LanguageAll      = "all"
)

// App is one catalog entry from the app list endpoint.
type App struct {
	AppID int    `json:"appid"`
	Name  string `json:"name"`
}

// ReviewSummary holds aggregate review counts for one language filter.
type ReviewSummary struct {
	TotalReviews  int `json:"total_reviews"`
	TotalPositive int `json:"total_positive"`
	TotalNegative int `json:"total_negative"`
}

// AppDetails holds the store metadata fields the ranking uses. Price fields
// are nil when the store omits price_overview (free or delisted apps).
type AppDetails struct {
	ReleaseDate     *string
	Genres          []string
	Categories      []string
	PriceInitial    *int
	PriceFinal      *int
	DiscountPercent *int
}

// Client fetches catalog, review and store-detail data from Steam.
type Client interface {
	AppList(ctx context.Context) ([]App, error)
	ReviewSummary(ctx context.Context, appid int, language string) (*ReviewSummary, error)
	AppDetails(ctx context.Context, appid int) (*AppDetails, error)
}

type httpClient struct {
	client    *http.Client
	apiKey    string
	apiBase   string
	storeBase string
}

// NewClient creates a Steam client using the given HTTP client. The API key
// authenticates the app list call; the store endpoints need no key.
func NewClient(client *http.Client, apiKey string) Client {
	return NewClientWithBaseURLs(client, apiKey, APIBaseURL, StoreBaseURL)
}

// NewClientWithBaseURLs creates a Steam client with custom base URLs (for
// testing).
func NewClientWithBaseURLs(client *http.Client, apiKey, apiBase, storeBase string) Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpClient{
		client:    client,
		apiKey:    apiKey,
		apiBase:   apiBase,
		storeBase: storeBase,
	}
}

func (c *httpClient) appListURL() string {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("include_games", "1")
	return fmt.Sprintf("%s/IStoreService/GetAppList/v1/?%s", c.apiBase, q.Encode())
}

func (c *httpClient) reviewURL(appid int, language string) string {
	q := url.Values{}
	q.Set("json", "1")
	q.Set("language", language)
	q.Set("purchase_type", "all")
	q.Set("num_per_page", "0")
	return fmt.Sprintf("%s/appreviews/%d?%s", c.storeBase, appid, q.Encode())
}

func (c *httpClient) detailsURL(appid int) string {
	q := url.Values{}
	q.Set("appids", strconv.Itoa(appid))
	return fmt.Sprintf("%s/api/appdetails?%s", c.storeBase, q.Encode())
}

func (c *httpClient) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	return c.client.Do(req)
}

// AppList fetches the full (appid, name) catalog. Failures here are fatal
// for the run: nothing can proceed without a catalog.
func (c *httpClient) AppList(ctx context.Context) ([]App, error) {
	resp, err := c.get(ctx, c.appListURL())
	if err != nil {
		return nil, fmt.Errorf("fetching app list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("app list returned status %d", resp.StatusCode)
	}

	var payload struct {
		Response struct {
			Apps []App `json:"apps"`
		} `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding app list response: %w", err)
	}

	return payload.Response.Apps, nil
}

// ReviewSummary fetches aggregate review counts for an app under the given
// language filter. Any failure (non-200, malformed JSON, missing
// query_summary) is returned as an error; callers treat it as a soft miss
// and skip that contribution rather than aborting.
func (c *httpClient) ReviewSummary(ctx context.Context, appid int, language string) (*ReviewSummary, error) {
	resp, err := c.get(ctx, c.reviewURL(appid, language))
	if err != nil {
		return nil, fmt.Errorf("fetching reviews for app %d: %w", appid, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reviews for app %d returned status %d", appid, resp.StatusCode)
	}

	var payload struct {
		QuerySummary *ReviewSummary `json:"query_summary"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding reviews for app %d: %w", appid, err)
	}
	if payload.QuerySummary == nil {
		return nil, fmt.Errorf("reviews for app %d missing query_summary", appid)
	}

	return payload.QuerySummary, nil
}

// detailsData mirrors the subset of the appdetails payload the ranking uses.
type detailsData struct {
	ReleaseDate struct {
		ComingSoon bool   `json:"coming_soon"`
		Date       string `json:"date"`
	} `json:"release_date"`
	Genres []struct {
		ID          string `json:"id"`
		Description string `json:"description"`
	} `json:"genres"`
	Categories []struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
	} `json:"categories"`
	PriceOverview *struct {
		Initial         int `json:"initial"`
		Final           int `json:"final"`
		DiscountPercent int `json:"discount_percent"`
	} `json:"price_overview"`
}

// AppDetails fetches store metadata for an app. The endpoint keys its
// response by the appid as a string and carries its own success flag; a
// false flag or a missing key is an error the caller treats as a soft miss.
func (c *httpClient) AppDetails(ctx context.Context, appid int) (*AppDetails, error) {
	resp, err := c.get(ctx, c.detailsURL(appid))
	if err != nil {
		return nil, fmt.Errorf("fetching details for app %d: %w", appid, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("details for app %d returned status %d", appid, resp.StatusCode)
	}

	var payload map[string]struct {
		Success bool         `json:"success"`
		Data    *detailsData `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding details for app %d: %w", appid, err)
	}

	entry, ok := payload[strconv.Itoa(appid)]
	if !ok || !entry.Success || entry.Data == nil {
		return nil, fmt.Errorf("details for app %d unavailable", appid)
	}

	d := entry.Data
	details := &AppDetails{}
	if d.ReleaseDate.Date != "" {
		date := d.ReleaseDate.Date
		details.ReleaseDate = &date
	}
	for _, g := range d.Genres {
		details.Genres = append(details.Genres, g.Description)
	}
	for _, cat := range d.Categories {
		details.Categories = append(details.Categories, cat.Description)
	}
	if p := d.PriceOverview; p != nil {
		initial, final, discount := p.Initial, p.Final, p.DiscountPercent
		details.PriceInitial = &initial
		details.PriceFinal = &final
		details.DiscountPercent = &discount
	}

	return details, nil
}
