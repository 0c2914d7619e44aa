package services

import (
	"strings"
	"testing"

	"github.com/AI-Template-SDK/senso-query-engine/internal/models"
	"github.com/AI-Template-SDK/senso-query-engine/internal/providers/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectMentionsSentimentAndPosition(t *testing.T) {
	companyID := uuid.New()
	keywords := testutil.SampleKeywords(companyID, "Acme")
	text := "Acme is an excellent and reliable choice. Many users find Acme slow and expensive."

	mentions := NewMentionDetector().DetectMentions(text, keywords)
	require.Len(t, mentions, 2)

	first, second := mentions[0], mentions[1]
	assert.Equal(t, 0, first.PositionInResponse)
	assert.Equal(t, models.SentimentPositive, first.Sentiment)
	assert.InDelta(t, 1.0, first.SentimentScore, 1e-9)
	assert.True(t, first.IsPrimaryMention)
	assert.Equal(t, "", first.ContextBefore)
	assert.Equal(t, "Many users find Acme slow and expensive", first.ContextAfter)
	assert.Equal(t, companyID, first.CompanyID)
	assert.Equal(t, keywords[0].ID, first.KeywordID)

	assert.Equal(t, 58, second.PositionInResponse)
	assert.Equal(t, models.SentimentNegative, second.Sentiment)
	assert.InDelta(t, -1.0, second.SentimentScore, 1e-9)
	assert.False(t, second.IsPrimaryMention)
	assert.Equal(t, "Acme is an excellent and reliable choice", second.ContextBefore)
	assert.Equal(t, "Acme", text[second.PositionInResponse:second.PositionInResponse+len(second.MentionText)])
}

func TestDetectMentionsScoresTheOwnClause(t *testing.T) {
	companyID := uuid.New()
	text := "Acme is great, but Globex is terrible."

	mentions := NewMentionDetector().DetectMentions(text, testutil.SampleKeywords(companyID, "Acme", "Globex"))
	require.Len(t, mentions, 2)

	bySlug := map[string]*models.BrandMention{}
	for _, m := range mentions {
		bySlug[m.MentionText] = m
	}
	assert.Equal(t, models.SentimentPositive, bySlug["Acme"].Sentiment)
	assert.Equal(t, models.SentimentNegative, bySlug["Globex"].Sentiment)
}

func TestDetectMentionsPerClauseSentiment(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		sentiments []models.Sentiment
		primary    []bool
	}{
		{
			name:       "contrast inside one sentence",
			text:       "Acme is great but Acme support is bad.",
			sentiments: []models.Sentiment{models.SentimentPositive, models.SentimentNegative},
			primary:    []bool{true, false},
		},
		{
			name:       "separate sentences",
			text:       "Acme is reliable. Many teams find Acme slow and expensive today.",
			sentiments: []models.Sentiment{models.SentimentPositive, models.SentimentNegative},
			primary:    []bool{true, false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mentions := NewMentionDetector().DetectMentions(tt.text, testutil.SampleKeywords(uuid.New(), "Acme"))
			require.Len(t, mentions, len(tt.sentiments))
			for i, m := range mentions {
				assert.Equal(t, tt.sentiments[i], m.Sentiment, "mention %d", i)
				assert.Equal(t, tt.primary[i], m.IsPrimaryMention, "mention %d", i)
			}
		})
	}
}

func TestDetectMentionsPrimaryWithMultibyteText(t *testing.T) {
	// İ lowercases to a longer byte sequence, so offsets must come from the original text.
	text := strings.Repeat("İ", 100) + " Acme here."

	mentions := NewMentionDetector().DetectMentions(text, testutil.SampleKeywords(uuid.New(), "Acme"))
	require.Len(t, mentions, 1)
	assert.Equal(t, 201, mentions[0].PositionInResponse)
	assert.Equal(t, "Acme", text[201:205])
	assert.True(t, mentions[0].IsPrimaryMention)
}

func TestDetectMentionsFallsBackToSentence(t *testing.T) {
	text := "Acme, the vendor, is excellent."
	mentions := NewMentionDetector().DetectMentions(text, testutil.SampleKeywords(uuid.New(), "Acme"))
	require.Len(t, mentions, 1)
	assert.Equal(t, models.SentimentPositive, mentions[0].Sentiment)
}

func TestDetectMentionsWholeWordCaseInsensitive(t *testing.T) {
	text := "Acmeify is not acme. We compared ACME too."
	mentions := NewMentionDetector().DetectMentions(text, testutil.SampleKeywords(uuid.New(), "Acme"))
	require.Len(t, mentions, 2)
	assert.Equal(t, "acme", mentions[0].MentionText)
	assert.Equal(t, "ACME", mentions[1].MentionText)
	assert.Equal(t, models.SentimentNeutral, mentions[0].Sentiment)
	assert.Zero(t, mentions[0].SentimentScore)
}

func TestDetectMentionsSkipsUnusableKeywords(t *testing.T) {
	companyID := uuid.New()
	keywords := testutil.SampleKeywords(companyID, "Acme", " ")
	keywords[0].IsActive = false
	keywords = append(keywords, nil)

	mentions := NewMentionDetector().DetectMentions("Acme everywhere", keywords)
	assert.NotNil(t, mentions)
	assert.Empty(t, mentions)

	assert.Empty(t, NewMentionDetector().DetectMentions("", testutil.SampleKeywords(companyID, "Acme")))
}

func TestDetectMentionsQuotesKeyword(t *testing.T) {
	mentions := NewMentionDetector().DetectMentions("We tried C.R.M and CxRxM.", testutil.SampleKeywords(uuid.New(), "C.R.M"))
	require.Len(t, mentions, 1)
	assert.Equal(t, "C.R.M", mentions[0].MentionText)
}

func TestAnalyzeSentimentCountsEachWordOnce(t *testing.T) {
	label, score, hits := analyzeSentiment("great great great but slow")
	assert.Equal(t, 2, hits)
	assert.InDelta(t, 0.0, score, 1e-9)
	assert.Equal(t, models.SentimentNeutral, label)

	label, score, _ = analyzeSentiment("good, reliable, trusted, but costly")
	assert.InDelta(t, 0.5, score, 1e-9)
	assert.Equal(t, models.SentimentPositive, label)
}
