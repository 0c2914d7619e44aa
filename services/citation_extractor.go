// services/citation_extractor.go
package services

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/AI-Template-SDK/senso-query-engine/internal/config"
	"github.com/AI-Template-SDK/senso-query-engine/internal/models"
)

var (
	inlineURLPattern  = regexp.MustCompile(`https?://[^\s\])}>]+`)
	referencePattern  = regexp.MustCompile(`\[(\d+)\]|\(([^)]+,\s*\d{4})\)`)
	domainPattern     = regexp.MustCompile(`https?://(?:www\.)?([^/\s]+)`)
	authorPattern     = regexp.MustCompile(`^([^,]+),`)
	yearPattern       = regexp.MustCompile(`(\d{4})`)
	trailingURLPunct  = ".,;:!?'\""
	trackingParams    = []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content", "fbclid", "gclid"}
	newsDomains       = []string{"news", "cnn", "bbc", "reuters"}
	socialDomains     = []string{"twitter", "facebook", "linkedin"}
	researchDomains   = []string{"arxiv", "pubmed"}
	researchTitleHint = []string{"study", "research"}
)

type citationExtractor struct {
	metadataRelevance  float64
	inlineRelevance    float64
	referenceRelevance float64
}

// NewCitationExtractor builds an extractor; zero relevance settings fall back to 0.5/0.5/0.3.
func NewCitationExtractor(cfg config.CitationConfig) CitationExtractor {
	e := &citationExtractor{
		metadataRelevance:  cfg.MetadataRelevance,
		inlineRelevance:    cfg.InlineRelevance,
		referenceRelevance: cfg.ReferenceRelevance,
	}
	if e.metadataRelevance == 0 {
		e.metadataRelevance = 0.5
	}
	if e.inlineRelevance == 0 {
		e.inlineRelevance = 0.5
	}
	if e.referenceRelevance == 0 {
		e.referenceRelevance = 0.3
	}
	return e
}

// ExtractCitations runs the metadata, inline URL and reference passes in that
// order. A URL captured by an earlier pass is skipped by later ones.
func (e *citationExtractor) ExtractCitations(text string, metadata models.ResponseMetadata) []*models.Citation {
	citations := []*models.Citation{}
	seen := make(map[string]bool)

	for _, raw := range metadata.Citations {
		if raw.URL == "" && raw.Title == "" {
			continue
		}
		if raw.URL != "" {
			key := normalizeURL(raw.URL)
			if seen[key] {
				continue
			}
			seen[key] = true
		}

		relevance := e.metadataRelevance
		if raw.RelevanceScore != nil && *raw.RelevanceScore != 0 {
			relevance = *raw.RelevanceScore
		}
		excerpt := raw.Excerpt
		if excerpt == "" {
			excerpt = raw.Snippet
		}

		citations = append(citations, &models.Citation{
			URL:            raw.URL,
			Title:          raw.Title,
			Domain:         extractDomain(raw.URL),
			Author:         raw.Author,
			PublishedDate:  raw.PublishedDate,
			Excerpt:        excerpt,
			RelevanceScore: relevance,
			CitationType:   classifyCitation(raw.URL, raw.Title),
		})
	}

	for _, match := range inlineURLPattern.FindAllString(text, -1) {
		link := strings.TrimRight(match, trailingURLPunct)
		key := normalizeURL(link)
		if seen[key] {
			continue
		}
		seen[key] = true

		citations = append(citations, &models.Citation{
			URL:            link,
			Domain:         extractDomain(link),
			Excerpt:        text,
			RelevanceScore: e.inlineRelevance,
			CitationType:   classifyCitation(link, ""),
		})
	}

	titles := make(map[string]bool)
	for _, m := range referencePattern.FindAllStringSubmatch(text, -1) {
		title := m[2]
		if m[1] != "" {
			title = "Reference " + m[1]
		}
		if titles[title] {
			continue
		}
		titles[title] = true

		citations = append(citations, &models.Citation{
			Title:          title,
			Author:         referenceAuthor(title),
			PublishedDate:  referenceDate(title),
			RelevanceScore: e.referenceRelevance,
			CitationType:   models.CitationTypeResearchPaper,
		})
	}

	return citations
}

func extractDomain(link string) string {
	if m := domainPattern.FindStringSubmatch(link); m != nil {
		return m[1]
	}
	return ""
}

// classifyCitation checks research, news, social and review signals in that order.
func classifyCitation(link, title string) models.CitationType {
	domain := strings.ToLower(extractDomain(link))
	title = strings.ToLower(title)

	switch {
	case containsAny(domain, researchDomains) || containsAny(title, researchTitleHint):
		return models.CitationTypeResearchPaper
	case containsAny(domain, newsDomains):
		return models.CitationTypeNewsArticle
	case containsAny(domain, socialDomains):
		return models.CitationTypeSocialMedia
	case strings.Contains(title, "review") || strings.Contains(domain, "review"):
		return models.CitationTypeReview
	default:
		return models.CitationTypePrimarySource
	}
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func referenceAuthor(ref string) string {
	if m := authorPattern.FindStringSubmatch(ref); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func referenceDate(ref string) string {
	if m := yearPattern.FindStringSubmatch(ref); m != nil {
		return m[1] + "-01-01"
	}
	return ""
}

// normalizeURL builds the dedup key: lowercase scheme and host, no www., no
// fragment, no tracking parameters and no trailing slash.
func normalizeURL(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Host == "" {
		return strings.ToLower(strings.TrimRight(raw, "/"))
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
	parsed.Fragment = ""
	if parsed.RawQuery != "" {
		q := parsed.Query()
		for _, p := range trackingParams {
			q.Del(p)
		}
		parsed.RawQuery = q.Encode()
	}
	parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	parsed.RawPath = ""

	return parsed.String()
}
