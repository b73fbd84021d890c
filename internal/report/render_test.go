package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var renderedAt = time.Date(2026, 8, 3, 6, 0, 0, 0, time.UTC)

func samplePages() []Page {
	return []Page{
		{
			URL: "https://example.com",
			Rows: []Row{
				{Category: "performance", Current: 70, Previous: 80, HasPrevious: true, Delta: -10, Triggered: true},
				{Category: "seo", Current: 92, Previous: 90, HasPrevious: true, Delta: 2},
			},
		},
		{
			URL: "https://broken.example",
			Err: "pagespeed https://broken.example: api status 429: Quota exceeded",
		},
		{
			URL:      "https://new.example",
			Baseline: true,
			Rows: []Row{
				{Category: "performance", Current: 100},
			},
		},
	}
}

func TestRender(t *testing.T) {
	html, err := Render(samplePages(), renderedAt)
	require.NoError(t, err)

	t.Run("is a self-contained document", func(t *testing.T) {
		assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
		assert.Contains(t, html, "<style>")
		assert.Contains(t, html, "2026-08-03 06:00 UTC")
	})

	t.Run("pages appear in given order", func(t *testing.T) {
		first := strings.Index(html, "https://example.com")
		second := strings.Index(html, "https://broken.example")
		third := strings.Index(html, "https://new.example")
		require.NotEqual(t, -1, first)
		require.NotEqual(t, -1, second)
		require.NotEqual(t, -1, third)
		assert.Less(t, first, second)
		assert.Less(t, second, third)
	})

	t.Run("triggered regression is marked declined", func(t *testing.T) {
		assert.Contains(t, html, `class="declined"`)
		assert.Contains(t, html, "down 10")
	})

	t.Run("small improvement is marked improved not declined", func(t *testing.T) {
		assert.Contains(t, html, `class="improved"`)
		assert.Contains(t, html, "up 2")
	})

	t.Run("alert section lists only triggered changes", func(t *testing.T) {
		assert.Contains(t, html, "1 alert(s) beyond threshold")
		assert.Contains(t, html, "80 to 70 (-10)")
		assert.NotContains(t, html, "90 to 92")
	})

	t.Run("score badges reflect buckets", func(t *testing.T) {
		assert.Contains(t, html, `score-badge ok">70<`)
		assert.Contains(t, html, `score-badge good">92<`)
	})

	t.Run("failed fetch renders as no data", func(t *testing.T) {
		assert.Contains(t, html, "No data this run")
		assert.Contains(t, html, "Quota exceeded")
	})

	t.Run("baseline page is labelled", func(t *testing.T) {
		assert.Contains(t, html, "First measurement for this URL")
	})
}

func TestRender_NoAlerts(t *testing.T) {
	pages := []Page{{
		URL: "https://example.com",
		Rows: []Row{
			{Category: "performance", Current: 91, Previous: 90, HasPrevious: true, Delta: 1},
		},
	}}

	html, err := Render(pages, renderedAt)
	require.NoError(t, err)
	assert.NotContains(t, html, "alert(s) beyond threshold")
}

func TestRender_EscapesURLs(t *testing.T) {
	pages := []Page{{
		URL: "https://example.com/?q=<script>alert(1)</script>",
		Err: "no data",
	}}

	html, err := Render(pages, renderedAt)
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>alert(1)</script>")
}

func TestRenderText(t *testing.T) {
	text := RenderText(samplePages(), renderedAt)

	assert.Contains(t, text, "Lighthouse Score Report")
	assert.Contains(t, text, "ALERTS (1):")
	assert.Contains(t, text, "https://example.com performance: 80 to 70 (-10)")
	assert.Contains(t, text, "performance      70 (prev 80, down 10)")
	assert.Contains(t, text, "no data this run")
	assert.Contains(t, text, "first measurement for this URL")
}

func TestRenderText_NoAlerts(t *testing.T) {
	pages := []Page{{
		URL:  "https://example.com",
		Rows: []Row{{Category: "seo", Current: 100, Previous: 100, HasPrevious: true}},
	}}

	text := RenderText(pages, renderedAt)
	assert.NotContains(t, text, "ALERTS")
	assert.Contains(t, text, "no change")
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "Lighthouse alert: 3 score change(s) beyond threshold", Subject(3))
	assert.Equal(t, "Lighthouse report: no significant score changes", Subject(0))
}

func TestBadgeClass(t *testing.T) {
	assert.Equal(t, "good", badgeClass(90))
	assert.Equal(t, "ok", badgeClass(89))
	assert.Equal(t, "ok", badgeClass(50))
	assert.Equal(t, "bad", badgeClass(49))
	assert.Equal(t, "bad", badgeClass(0))
	assert.Equal(t, "good", badgeClass(100))
}

func TestChangeClass(t *testing.T) {
	assert.Equal(t, "improved", changeClass(Row{HasPrevious: true, Delta: 4}))
	assert.Equal(t, "declined", changeClass(Row{HasPrevious: true, Delta: -6, Triggered: true}))
	assert.Equal(t, "no-change", changeClass(Row{HasPrevious: true, Delta: -3}), "regression under threshold stays neutral")
	assert.Equal(t, "no-change", changeClass(Row{HasPrevious: true, Delta: 0}))
	assert.Equal(t, "no-change", changeClass(Row{}))
}
