package core

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
)

// Pipeline is the fitted artifact: vectorizer followed by classifier.
type Pipeline struct {
	Vectorizer *TfidfVectorizer
	Classifier *LogisticRegression
}

func (p *Pipeline) Predict(texts []string) []string {
	return p.Classifier.Predict(p.Vectorizer.Transform(texts))
}

// Accuracy is the fraction of texts whose predicted label equals the given label.
func (p *Pipeline) Accuracy(texts, labels []string) (float64, error) {
	if len(texts) != len(labels) {
		return 0, fmt.Errorf("texts (%d) and labels (%d) differ", len(texts), len(labels))
	}
	if len(texts) == 0 {
		return 0, fmt.Errorf("cannot compute accuracy over zero samples")
	}

	correct := 0
	for i, predicted := range p.Predict(texts) {
		if predicted == labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(texts)), nil
}

var errUnfittedPipeline = errors.New("pipeline has not been fitted")

func EncodePipeline(w io.Writer, p *Pipeline) error {
	if p == nil || p.Vectorizer == nil || p.Classifier == nil || p.Classifier.Weights == nil {
		return errUnfittedPipeline
	}
	if err := gob.NewEncoder(w).Encode(p); err != nil {
		return fmt.Errorf("failed to encode pipeline: %w", err)
	}
	return nil
}

func DecodePipeline(r io.Reader) (*Pipeline, error) {
	var p Pipeline
	if err := gob.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to decode pipeline: %w", err)
	}
	if p.Vectorizer == nil || p.Classifier == nil || p.Classifier.Weights == nil {
		return nil, errUnfittedPipeline
	}
	return &p, nil
}
