package classifier

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/jbrukh/bayesian"
)

var ErrInsufficientTrainingData = errors.New("insufficient training data: at least two distinct categories are required")

// Example is one labelled description of the training corpus.
type Example struct {
	Text  string
	Label string
}

// Seed is always part of the training corpus, whatever is persisted.
var Seed = []Example{
	{Text: "Uber ride", Label: "Transport"},
	{Text: "Starbucks", Label: "Food"},
	{Text: "Salary", Label: "Salary"},
	{Text: "Freelance work", Label: "Income"},
	{Text: "Netflix", Label: "Entertainment"},
	{Text: "Rent", Label: "Rent"},
	{Text: "Gym", Label: "Health"},
	{Text: "Groceries", Label: "Food"},
	{Text: "Electric Bill", Label: "Utilities"},
}

// two or more word characters, like a default bag-of-words vectorizer
var tokenRegex = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

func Tokenize(text string) []string {
	return tokenRegex.FindAllString(strings.ToLower(text), -1)
}

// TrainCorpus returns seed followed by every labelled example with a non-empty text.
func TrainCorpus(seed []Example, labelled []Example) []Example {
	corpus := make([]Example, 0, len(seed)+len(labelled))
	corpus = append(corpus, seed...)
	for _, ex := range labelled {
		if strings.TrimSpace(ex.Text) == "" || strings.TrimSpace(ex.Label) == "" {
			continue
		}
		corpus = append(corpus, ex)
	}
	return corpus
}

// Model is a multinomial naive Bayes classifier fitted on one corpus. Class priors come from
// document counts and word likelihoods use add-one smoothing over the corpus vocabulary. Words
// outside the vocabulary are ignored.
type Model struct {
	classes   []bayesian.Class
	logPriors []float64
	counts    []map[string]float64
	totals    []float64
	vocab     map[string]struct{}
}

// Fit trains a fresh model. Classes keep their first-appearance order so ties resolve the same way
// for the same corpus.
func Fit(corpus []Example) (*Model, error) {
	seen := make(map[string]int)
	var classes []bayesian.Class
	docs := []float64{}
	for _, ex := range corpus {
		inx, ok := seen[ex.Label]
		if !ok {
			inx = len(classes)
			seen[ex.Label] = inx
			classes = append(classes, bayesian.Class(ex.Label))
			docs = append(docs, 0)
		}
		docs[inx]++
	}
	if len(classes) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInsufficientTrainingData, len(classes))
	}

	nb := bayesian.NewClassifier(classes...)
	for _, ex := range corpus {
		nb.Learn(Tokenize(ex.Text), bayesian.Class(ex.Label))
	}

	m := &Model{
		classes:   classes,
		logPriors: make([]float64, len(classes)),
		counts:    make([]map[string]float64, len(classes)),
		totals:    make([]float64, len(classes)),
		vocab:     make(map[string]struct{}),
	}
	wordTotals := nb.WordCount()
	for i, class := range classes {
		m.logPriors[i] = math.Log(docs[i] / float64(len(corpus)))
		m.totals[i] = float64(wordTotals[i])

		// the library exposes relative frequencies; scale them back to counts
		m.counts[i] = make(map[string]float64)
		for word, freq := range nb.WordsByClass(class) {
			m.counts[i][word] = math.Round(freq * m.totals[i])
			m.vocab[word] = struct{}{}
		}
	}
	return m, nil
}

// LogScores returns the joint log likelihood of text for every class, in Classes order.
func (m *Model) LogScores(text string) []float64 {
	var words []string
	for _, w := range Tokenize(text) {
		if _, ok := m.vocab[w]; ok {
			words = append(words, w)
		}
	}

	v := float64(len(m.vocab))
	scores := make([]float64, len(m.classes))
	for i := range m.classes {
		score := m.logPriors[i]
		for _, w := range words {
			score += math.Log((m.counts[i][w] + 1) / (m.totals[i] + v))
		}
		scores[i] = score
	}
	return scores
}

func (m *Model) Predict(text string) string {
	scores := m.LogScores(text)
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return string(m.classes[best])
}

func (m *Model) Classes() []string {
	out := make([]string, 0, len(m.classes))
	for _, c := range m.classes {
		out = append(out, string(c))
	}
	return out
}
