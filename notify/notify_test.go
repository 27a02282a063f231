package notify

import (
	"strings"
	"testing"
	"time"

	"steamrank/ranking"
)

func entries(n int) []ranking.Entry {
	out := make([]ranking.Entry, n)
	for i := range out {
		out[i] = ranking.Entry{
			AppID:          100 + i,
			Name:           "Game",
			TotalReviewsJP: 300,
			PositiveRateJP: 90.0 - float64(i),
			StoreURL:       "https://store.steampowered.com/app/100",
		}
	}
	return out
}

func TestFormatSummary_Counts(t *testing.T) {
	msg := FormatSummary(entries(2), 5000, 90*time.Second)

	if !strings.Contains(msg, "Scanned 5000 apps, 2 qualified") {
		t.Errorf("expected counts in summary, got %q", msg)
	}
	if !strings.Contains(msg, "1m30s") {
		t.Errorf("expected elapsed time in summary, got %q", msg)
	}
}

func TestFormatSummary_TopEntriesCapped(t *testing.T) {
	msg := FormatSummary(entries(10), 5000, time.Minute)

	if strings.Count(msg, "<a href=") != topCount {
		t.Errorf("expected %d linked entries, got %d", topCount, strings.Count(msg, "<a href="))
	}
	if !strings.Contains(msg, "90.00%") {
		t.Errorf("expected formatted rate, got %q", msg)
	}
}

func TestFormatSummary_FewerThanTop(t *testing.T) {
	msg := FormatSummary(entries(1), 100, time.Minute)

	if strings.Count(msg, "<a href=") != 1 {
		t.Errorf("expected 1 linked entry, got %q", msg)
	}
}

func TestFormatSummary_EmptyRanking(t *testing.T) {
	msg := FormatSummary(nil, 100, time.Minute)

	if !strings.Contains(msg, "0 qualified") {
		t.Errorf("expected zero count, got %q", msg)
	}
	if strings.Contains(msg, "<a href=") {
		t.Errorf("expected no entry lines, got %q", msg)
	}
}

func TestFormatSummary_EscapesNames(t *testing.T) {
	e := entries(1)
	e[0].Name = "Cats & <Dogs>"
	msg := FormatSummary(e, 100, time.Minute)

	if !strings.Contains(msg, "Cats &amp; &lt;Dogs&gt;") {
		t.Errorf("expected HTML-escaped name, got %q", msg)
	}
}
