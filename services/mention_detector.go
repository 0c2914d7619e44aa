// services/mention_detector.go
package services

import (
	"regexp"
	"strings"

	"github.com/AI-Template-SDK/senso-query-engine/internal/models"
)

var (
	sentenceBoundary = regexp.MustCompile(`[.!?]+`)
	clauseBoundary   = regexp.MustCompile(`(?i)[,;:]|\b(?:but|however|although|though|yet|whereas|while)\b`)
	wordPattern      = regexp.MustCompile(`[a-z]+`)
)

var positiveWords = wordSet(
	"good", "great", "excellent", "amazing", "outstanding", "superior", "best",
	"innovative", "leader", "top", "quality", "reliable", "trusted", "recommended",
	"love", "like", "prefer", "choose", "successful", "impressive", "effective",
)

var negativeWords = wordSet(
	"bad", "terrible", "awful", "poor", "worst", "failed", "problem", "issue",
	"disappointing", "unreliable", "costly", "expensive", "difficult", "slow",
	"hate", "dislike", "avoid", "concern", "worried", "doubt", "questionable",
)

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// primaryWindow is the leading fraction of a response where every mention counts as primary.
const primaryWindow = 0.3

type span struct {
	start, end int
}

type mentionDetector struct{}

func NewMentionDetector() MentionDetector {
	return &mentionDetector{}
}

// DetectMentions returns every whole-word, case-insensitive occurrence of each keyword.
// Positions are byte offsets into text.
func (d *mentionDetector) DetectMentions(text string, keywords []*models.Keyword) []*models.BrandMention {
	mentions := []*models.BrandMention{}
	if text == "" {
		return mentions
	}

	sentences := splitSpans(text, sentenceBoundary)

	for _, kw := range keywords {
		if kw == nil || !kw.IsActive || strings.TrimSpace(kw.Keyword) == "" {
			continue
		}
		pattern := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(kw.Keyword) + `\b`)

		matches := pattern.FindAllStringIndex(text, -1)
		for _, loc := range matches {
			position := loc[0]
			mentionText := text[loc[0]:loc[1]]
			idx := containingSpan(sentences, position)
			sentence := sentences[idx]

			label, score := clauseSentiment(text[sentence.start:sentence.end], position-sentence.start)

			mentions = append(mentions, &models.BrandMention{
				CompanyID:          kw.CompanyID,
				KeywordID:          kw.ID,
				MentionText:        mentionText,
				ContextBefore:      spanText(text, sentences, idx-1),
				ContextAfter:       spanText(text, sentences, idx+1),
				Sentiment:          label,
				SentimentScore:     score,
				PositionInResponse: position,
				IsPrimaryMention:   isPrimaryMention(len(text), matches[0][0], position),
			})
		}
	}

	return mentions
}

// splitSpans cuts text at every match of sep, keeping exact offsets.
func splitSpans(text string, sep *regexp.Regexp) []span {
	var spans []span
	start := 0
	for _, loc := range sep.FindAllStringIndex(text, -1) {
		spans = append(spans, span{start, loc[0]})
		start = loc[1]
	}
	return append(spans, span{start, len(text)})
}

// containingSpan returns the last span starting at or before pos.
func containingSpan(spans []span, pos int) int {
	idx := 0
	for i, s := range spans {
		if s.start > pos {
			break
		}
		idx = i
	}
	return idx
}

func spanText(text string, spans []span, idx int) string {
	if idx < 0 || idx >= len(spans) {
		return ""
	}
	return strings.TrimSpace(text[spans[idx].start:spans[idx].end])
}

// clauseSentiment scores the clause around offset, falling back to the whole
// sentence when the clause carries no lexicon word.
func clauseSentiment(sentence string, offset int) (models.Sentiment, float64) {
	clauses := splitSpans(sentence, clauseBoundary)
	clause := clauses[containingSpan(clauses, offset)]

	if label, score, hits := analyzeSentiment(sentence[clause.start:clause.end]); hits > 0 {
		return label, score
	}
	label, score, _ := analyzeSentiment(sentence)
	return label, score
}

// analyzeSentiment applies the lexicon formula (pos-neg)/max(pos+neg,1). Each
// lexicon word counts once however often it appears.
func analyzeSentiment(text string) (models.Sentiment, float64, int) {
	seen := make(map[string]bool)
	positive, negative := 0, 0
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if seen[w] {
			continue
		}
		seen[w] = true
		if positiveWords[w] {
			positive++
		} else if negativeWords[w] {
			negative++
		}
	}

	hits := positive + negative
	if hits == 0 {
		return models.SentimentNeutral, 0, 0
	}

	score := float64(positive-negative) / float64(hits)
	switch {
	case score > 0.2:
		return models.SentimentPositive, score, hits
	case score < -0.2:
		return models.SentimentNegative, score, hits
	default:
		return models.SentimentNeutral, score, hits
	}
}

// isPrimaryMention compares byte offsets of the original text; first is the
// offset of the keyword's first match.
func isPrimaryMention(textLen, first, position int) bool {
	if float64(position)/float64(textLen) <= primaryWindow {
		return true
	}
	return position == first
}
