package service

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/giftguru/gift-guru-go/internal/constants"
	"github.com/giftguru/gift-guru-go/internal/domain"
)

const interestSignalSource = "tf-idf-analysis"

// English stop words excluded from interest extraction.
var stopwords = buildStopwordSet([]string{
	"a", "about", "above", "after", "again", "against", "all", "am", "an",
	"and", "any", "are", "as", "at", "be", "because", "been", "before",
	"being", "below", "between", "both", "but", "by", "can", "cannot",
	"could", "did", "do", "does", "doing", "down", "during", "each", "few",
	"for", "from", "further", "had", "has", "have", "having", "he", "her",
	"here", "hers", "herself", "him", "himself", "his", "how", "i", "if",
	"in", "into", "is", "it", "its", "itself", "just", "me", "more", "most",
	"my", "myself", "no", "nor", "not", "now", "of", "off", "on", "once",
	"only", "or", "other", "our", "ours", "ourselves", "out", "over", "own",
	"same", "she", "should", "so", "some", "such", "than", "that", "the",
	"their", "theirs", "them", "themselves", "then", "there", "these",
	"they", "this", "those", "through", "to", "too", "under", "until", "up",
	"very", "was", "we", "were", "what", "when", "where", "which", "while",
	"who", "whom", "why", "will", "with", "you", "your", "yours",
	"yourself", "yourselves",
})

func buildStopwordSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

type weightedTerm struct {
	term   string
	weight float64
}

// KeywordExtractor ranks the vocabulary of a post batch by TF-IDF weight.
//
// The document index accumulates across AddDocument calls, so a long-lived
// instance would let one session's vocabulary contaminate another's
// weighting. Callers must construct a fresh extractor per extraction pass.
type KeywordExtractor struct {
	termFreqs []map[string]int
	termOrder [][]string
	docFreq   map[string]int
}

func NewKeywordExtractor() *KeywordExtractor {
	return &KeywordExtractor{
		docFreq: make(map[string]int),
	}
}

// AddDocument tokenizes text and records it as one document in the corpus.
func (e *KeywordExtractor) AddDocument(text string) {
	tokens := tokenize(text)

	freqs := make(map[string]int, len(tokens))
	order := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if freqs[token] == 0 {
			order = append(order, token)
		}
		freqs[token]++
	}

	for term := range freqs {
		e.docFreq[term]++
	}

	e.termFreqs = append(e.termFreqs, freqs)
	e.termOrder = append(e.termOrder, order)
}

// TopTerms returns the n highest-weighted terms of document docIndex,
// each weight normalized against the batch maximum so the top term is
// exactly 1.0. Ties keep first-appearance order.
func (e *KeywordExtractor) TopTerms(docIndex, n int) []weightedTerm {
	if docIndex < 0 || docIndex >= len(e.termFreqs) {
		return nil
	}

	freqs := e.termFreqs[docIndex]
	order := e.termOrder[docIndex]
	if len(order) == 0 {
		return nil
	}

	docCount := float64(len(e.termFreqs))
	terms := make([]weightedTerm, 0, len(order))
	for _, term := range order {
		idf := math.Log(1 + docCount/float64(e.docFreq[term]))
		terms = append(terms, weightedTerm{
			term:   term,
			weight: float64(freqs[term]) * idf,
		})
	}

	sort.SliceStable(terms, func(i, j int) bool {
		return terms[i].weight > terms[j].weight
	})

	if n < len(terms) {
		terms = terms[:n]
	}

	maxWeight := terms[0].weight
	if maxWeight > 0 {
		for i := range terms {
			terms[i].weight = terms[i].weight / maxWeight
		}
	}

	return terms
}

// ExtractInterests converts a post batch into ranked interest signals.
// All post text is treated as a single document; the result is capped at
// the configured maximum and an empty or all-stop-word batch yields an
// empty list.
func (e *KeywordExtractor) ExtractInterests(posts []*domain.SocialPost) []*domain.InterestSignal {
	contents := make([]string, 0, len(posts))
	for _, post := range posts {
		if post.Content != "" {
			contents = append(contents, post.Content)
		}
	}

	e.AddDocument(strings.Join(contents, " "))

	terms := e.TopTerms(len(e.termFreqs)-1, constants.AnalyzerConfig.MaxSignals)

	signals := make([]*domain.InterestSignal, 0, len(terms))
	for _, t := range terms {
		signals = append(signals, &domain.InterestSignal{
			Category:   t.term,
			Confidence: t.weight,
			Source:     interestSignalSource,
		})
	}

	return signals
}

func tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if len(w) < constants.AnalyzerConfig.MinTokenLength {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}
