package classifier

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "lower cases words", text: "Uber Ride", want: []string{"uber", "ride"}},
		{name: "drops single characters", text: "a b cd", want: []string{"cd"}},
		{name: "splits on punctuation", text: "coffee@starbucks, 2x", want: []string{"coffee", "starbucks", "2x"}},
		{name: "empty", text: "   ", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.text))
		})
	}
}

func TestTrainCorpus(t *testing.T) {
	labelled := []Example{
		{Text: "Shell petrol", Label: "Transport"},
		{Text: "", Label: "Food"},
		{Text: "   ", Label: "Food"},
		{Text: "Dinner", Label: ""},
	}

	corpus := TrainCorpus(Seed, labelled)

	require.Len(t, corpus, len(Seed)+1)
	assert.Equal(t, Seed, corpus[:len(Seed)])
	assert.Equal(t, Example{Text: "Shell petrol", Label: "Transport"}, corpus[len(Seed)])
}

func TestFit_SeedCorpus(t *testing.T) {
	model, err := Fit(Seed)
	require.NoError(t, err)

	tests := []struct {
		text string
		want string
	}{
		{text: "Uber ride", want: "Transport"},
		{text: "Netflix", want: "Entertainment"},
		{text: "monthly electric bill", want: "Utilities"},
		{text: "groceries", want: "Food"},
		{text: "Uber ride home", want: "Transport"},
		// nothing in the vocabulary: the class with the most documents wins
		{text: "Coffee", want: "Food"},
		{text: "", want: "Food"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, model.Predict(tt.text))
		})
	}
}

func TestModel_LogScores(t *testing.T) {
	model, err := Fit(Seed)
	require.NoError(t, err)

	scores := model.LogScores("unknown words only")
	require.Len(t, scores, len(model.Classes()))
	assert.InDelta(t, math.Log(2.0/9.0), scores[1], 1e-9)
	assert.InDelta(t, math.Log(1.0/9.0), scores[0], 1e-9)

	// 12 distinct seed words; Utilities saw "electric" once out of 2 words
	scores = model.LogScores("electric")
	assert.InDelta(t, math.Log(1.0/9.0)+math.Log(2.0/14.0), scores[7], 1e-9)
	assert.InDelta(t, math.Log(2.0/9.0)+math.Log(1.0/14.0), scores[1], 1e-9)
}

func TestFit_TiesResolveToFirstClass(t *testing.T) {
	model, err := Fit([]Example{
		{Text: "bus", Label: "Transport"},
		{Text: "pizza", Label: "Food"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Transport", model.Predict("nothing known"))
	assert.Equal(t, "Food", model.Predict("pizza"))
}

func TestFit_ClassOrder(t *testing.T) {
	model, err := Fit(Seed)
	require.NoError(t, err)

	assert.Equal(t, []string{"Transport", "Food", "Salary", "Income", "Entertainment", "Rent", "Health", "Utilities"}, model.Classes())
}

func TestFit_InsufficientTrainingData(t *testing.T) {
	tests := []struct {
		name   string
		corpus []Example
	}{
		{name: "empty corpus", corpus: nil},
		{name: "single label", corpus: []Example{{Text: "bus", Label: "Transport"}, {Text: "taxi", Label: "Transport"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model, err := Fit(tt.corpus)
			assert.Nil(t, model)
			assert.True(t, errors.Is(err, ErrInsufficientTrainingData))
		})
	}
}

func TestFit_LearnsPersistedExamples(t *testing.T) {
	corpus := TrainCorpus(Seed, []Example{
		{Text: "Spotify subscription", Label: "Entertainment"},
		{Text: "Spotify family plan", Label: "Entertainment"},
	})

	model, err := Fit(corpus)
	require.NoError(t, err)
	assert.Equal(t, "Entertainment", model.Predict("spotify"))
}

func TestCache_ReusesModelForSameCorpus(t *testing.T) {
	cache, err := NewCache(8, time.Minute)
	require.NoError(t, err)
	defer cache.Close()

	first, err := cache.Model(Seed)
	require.NoError(t, err)
	cache.Wait()

	second, err := cache.Model(Seed)
	require.NoError(t, err)
	assert.Same(t, first, second)

	other, err := cache.Model(TrainCorpus(Seed, []Example{{Text: "Bus pass", Label: "Transport"}}))
	require.NoError(t, err)
	assert.NotSame(t, first, other)
}

func TestCache_NilFitsEveryTime(t *testing.T) {
	var cache *Cache

	model, err := cache.Model(Seed)
	require.NoError(t, err)
	assert.Equal(t, "Transport", model.Predict("Uber ride"))

	_, err = cache.Model(nil)
	assert.ErrorIs(t, err, ErrInsufficientTrainingData)
}

func TestCorpusKey(t *testing.T) {
	a := CorpusKey([]Example{{Text: "ab", Label: "c"}})
	b := CorpusKey([]Example{{Text: "a", Label: "bc"}})

	assert.NotEqual(t, a, b)
	assert.Equal(t, a, CorpusKey([]Example{{Text: "ab", Label: "c"}}))
}
