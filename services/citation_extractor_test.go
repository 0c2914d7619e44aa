package services

import (
	"testing"

	"github.com/AI-Template-SDK/senso-query-engine/internal/config"
	"github.com/AI-Template-SDK/senso-query-engine/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func TestExtractCitationsDedupPrefersMetadata(t *testing.T) {
	text := "See https://www.example.com/page?utm_source=x. Also https://example.com/page/ and [1] and (Smith, 2023)."
	metadata := models.ResponseMetadata{
		Citations: []models.RawCitation{
			{URL: "https://example.com/page", Title: "Example study", Snippet: "from the snippet"},
		},
	}

	citations := NewCitationExtractor(config.CitationConfig{}).ExtractCitations(text, metadata)
	require.Len(t, citations, 3)

	meta := citations[0]
	assert.Equal(t, "https://example.com/page", meta.URL)
	assert.Equal(t, "example.com", meta.Domain)
	assert.Equal(t, models.CitationTypeResearchPaper, meta.CitationType)
	assert.Equal(t, "from the snippet", meta.Excerpt)
	assert.InDelta(t, 0.5, meta.RelevanceScore, 1e-9)

	numbered := citations[1]
	assert.Equal(t, "Reference 1", numbered.Title)
	assert.Empty(t, numbered.URL)
	assert.Equal(t, models.CitationTypeResearchPaper, numbered.CitationType)
	assert.InDelta(t, 0.3, numbered.RelevanceScore, 1e-9)

	authored := citations[2]
	assert.Equal(t, "Smith, 2023", authored.Title)
	assert.Equal(t, "Smith", authored.Author)
	assert.Equal(t, "2023-01-01", authored.PublishedDate)
}

func TestExtractCitationsInlineURLs(t *testing.T) {
	text := "Sources: https://www.bbc.co.uk/news/acme, https://twitter.com/acme and (https://acme.com/pricing)."

	citations := NewCitationExtractor(config.CitationConfig{InlineRelevance: 0.4}).ExtractCitations(text, models.ResponseMetadata{})
	require.Len(t, citations, 3)

	assert.Equal(t, "https://www.bbc.co.uk/news/acme", citations[0].URL)
	assert.Equal(t, "bbc.co.uk", citations[0].Domain)
	assert.Equal(t, models.CitationTypeNewsArticle, citations[0].CitationType)
	assert.InDelta(t, 0.4, citations[0].RelevanceScore, 1e-9)
	assert.Equal(t, text, citations[0].Excerpt)

	assert.Equal(t, models.CitationTypeSocialMedia, citations[1].CitationType)
	assert.Equal(t, "https://acme.com/pricing", citations[2].URL)
	assert.Equal(t, models.CitationTypePrimarySource, citations[2].CitationType)
}

func TestExtractCitationsMetadataEntries(t *testing.T) {
	metadata := models.ResponseMetadata{
		Citations: []models.RawCitation{
			{URL: "https://arxiv.org/abs/1234", RelevanceScore: floatPtr(0.9), Excerpt: "abstract"},
			{URL: "https://ARXIV.org/abs/1234#section"},
			{Title: "Acme review roundup"},
			{},
		},
	}

	citations := NewCitationExtractor(config.CitationConfig{}).ExtractCitations("", metadata)
	require.Len(t, citations, 2)
	assert.InDelta(t, 0.9, citations[0].RelevanceScore, 1e-9)
	assert.Equal(t, "abstract", citations[0].Excerpt)
	assert.Equal(t, models.CitationTypeResearchPaper, citations[0].CitationType)
	assert.Equal(t, models.CitationTypeReview, citations[1].CitationType)
	assert.Empty(t, citations[1].Domain)
}

func TestExtractCitationsNothingFound(t *testing.T) {
	citations := NewCitationExtractor(config.CitationConfig{}).ExtractCitations("plain answer", models.ResponseMetadata{})
	assert.NotNil(t, citations)
	assert.Empty(t, citations)
}

func TestExtractCitationsRepeatedReference(t *testing.T) {
	citations := NewCitationExtractor(config.CitationConfig{}).ExtractCitations("First [2], again [2].", models.ResponseMetadata{})
	require.Len(t, citations, 1)
	assert.Equal(t, "Reference 2", citations[0].Title)
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"HTTPS://WWW.Example.com/Path/", "https://example.com/Path"},
		{"https://example.com/a?utm_source=x&utm_medium=y&id=7#frag", "https://example.com/a?id=7"},
		{"https://example.com/?fbclid=abc", "https://example.com"},
		{"not a url/", "not a url"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeURL(tt.in))
		})
	}
}
