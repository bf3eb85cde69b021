package core

import (
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const DefaultMaxFeatures = 1000

var ErrEmptyVocabulary = errors.New("empty vocabulary: documents contain only stop words or no tokens")

// Runs of two or more letters, digits or underscores.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Tokenize lowercases text, splits it into word tokens and drops English stop words.
func Tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := raw[:0]
	for _, token := range raw {
		if !IsStopWord(token) {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// TfidfVectorizer maps documents to L2 normalized tf-idf vectors over a
// vocabulary capped at MaxFeatures terms. Fields are exported for gob.
type TfidfVectorizer struct {
	MaxFeatures int
	Terms       []string
	Vocabulary  map[string]int
	Idf         []float64
}

func NewTfidfVectorizer(maxFeatures int) *TfidfVectorizer {
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}
	return &TfidfVectorizer{MaxFeatures: maxFeatures}
}

// Fit learns the vocabulary and idf weights. When more than MaxFeatures terms
// occur, the most frequent across the corpus are kept, ties in alphabetical order.
func (v *TfidfVectorizer) Fit(docs []string) error {
	termCounts := make(map[string]int)
	docCounts := make(map[string]int)

	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, token := range Tokenize(doc) {
			termCounts[token]++
			if _, ok := seen[token]; !ok {
				seen[token] = struct{}{}
				docCounts[token]++
			}
		}
	}

	if len(termCounts) == 0 {
		return ErrEmptyVocabulary
	}

	terms := make([]string, 0, len(termCounts))
	for term := range termCounts {
		terms = append(terms, term)
	}

	if len(terms) > v.MaxFeatures {
		sort.Slice(terms, func(i, j int) bool {
			if termCounts[terms[i]] != termCounts[terms[j]] {
				return termCounts[terms[i]] > termCounts[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:v.MaxFeatures]
	}
	sort.Strings(terms)

	n := float64(len(docs))
	v.Terms = terms
	v.Vocabulary = make(map[string]int, len(terms))
	v.Idf = make([]float64, len(terms))
	for i, term := range terms {
		v.Vocabulary[term] = i
		v.Idf[i] = math.Log((1+n)/(1+float64(docCounts[term]))) + 1
	}

	return nil
}

// Transform returns one row per document. Terms outside the vocabulary are
// ignored; a document with no known terms becomes a zero row.
func (v *TfidfVectorizer) Transform(docs []string) *mat.Dense {
	if len(docs) == 0 || len(v.Terms) == 0 {
		return &mat.Dense{}
	}

	x := mat.NewDense(len(docs), len(v.Terms), nil)
	row := make([]float64, len(v.Terms))

	for i, doc := range docs {
		for j := range row {
			row[j] = 0
		}

		for _, token := range Tokenize(doc) {
			if idx, ok := v.Vocabulary[token]; ok {
				row[idx]++
			}
		}

		floats.Mul(row, v.Idf)
		if norm := floats.Norm(row, 2); norm > 0 {
			floats.Scale(1/norm, row)
		}

		x.SetRow(i, row)
	}

	return x
}

func (v *TfidfVectorizer) FitTransform(docs []string) (*mat.Dense, error) {
	if err := v.Fit(docs); err != nil {
		return nil, err
	}
	return v.Transform(docs), nil
}
