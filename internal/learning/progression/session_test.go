package progression

import (
	"testing"

	"sketch-predictor/internal/common/config"
	"sketch-predictor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoPages() Curriculum {
	return Curriculum{1: {
		{Number: 4, Words: []string{"cat", "dog"}},
		{Number: 5, Words: []string{"sun"}},
	}}
}

func top(label string, conf float64) []models.Prediction {
	return []models.Prediction{{Label: label, Confidence: conf}, {Label: "other", Confidence: 0.01}}
}

func TestSession_WalkThrough(t *testing.T) {
	s, err := NewSession(twoPages(), 1)
	require.NoError(t, err)

	pos := s.Current()
	assert.Equal(t, Position{Level: 1, Page: 4, Word: "cat", Index: 0}, pos)

	out, tr, err := s.Attempt(top("CAT", 0.8))
	require.NoError(t, err)
	assert.True(t, out.Correct)
	assert.Equal(t, "CAT", out.PredictedWord)
	require.NotNil(t, tr)
	assert.False(t, tr.PageCompleted)
	assert.Equal(t, "dog", tr.Position.Word)
	assert.True(t, tr.Position.IsLastWordOfPage)
	assert.Equal(t, 5, tr.Position.NextPage)

	out, tr, err = s.Attempt(top("cat", 0.9))
	require.NoError(t, err)
	assert.False(t, out.Correct)
	assert.True(t, out.IsLastWordOfPage)
	assert.Equal(t, 5, out.NextPage)
	assert.Nil(t, tr)
	assert.Equal(t, "dog", s.Current().Word)

	_, tr, err = s.Attempt(top("dog", 0.7))
	require.NoError(t, err)
	require.NotNil(t, tr)
	assert.True(t, tr.PageCompleted)
	assert.Equal(t, 5, tr.NextPage)
	assert.Equal(t, "sun", tr.Position.Word)
	assert.Zero(t, tr.Position.NextPage)

	tr2, err := s.Advance()
	require.NoError(t, err)
	assert.True(t, tr2.PageCompleted)
	assert.True(t, tr2.Finished)
	assert.True(t, s.Current().Finished)

	_, err = s.Advance()
	assert.ErrorIs(t, err, ErrFinished)
	_, _, err = s.Attempt(top("sun", 1))
	assert.ErrorIs(t, err, ErrFinished)

	s.Restart()
	assert.Equal(t, "cat", s.Current().Word)
}

func TestSession_EvaluateEmpty(t *testing.T) {
	s, err := NewSession(twoPages(), 1)
	require.NoError(t, err)

	out, err := s.Evaluate(nil)
	require.NoError(t, err)
	assert.False(t, out.Correct)
	assert.Equal(t, "cat", out.TargetWord)
	assert.Empty(t, out.PredictedWord)
}

func TestNewSession_UnknownLevel(t *testing.T) {
	_, err := NewSession(twoPages(), 9)
	assert.Error(t, err)
}

func TestFromConfig(t *testing.T) {
	c, err := FromConfig(config.ProgressionConfig{})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, c.Levels())

	c, err = FromConfig(config.ProgressionConfig{Levels: map[string][]config.PageConfig{
		"2": {
			{Number: 8, Words: []string{" Boat "}},
			{Number: 7, Words: []string{"Car", ""}},
		},
	}})
	require.NoError(t, err)
	assert.Equal(t, []Page{
		{Number: 7, Words: []string{"car"}},
		{Number: 8, Words: []string{"boat"}},
	}, c[2])

	bad := []map[string][]config.PageConfig{
		{"x": {{Number: 1, Words: []string{"a"}}}},
		{"0": {{Number: 1, Words: []string{"a"}}}},
		{"1": {}},
		{"1": {{Number: 1, Words: []string{" "}}}},
	}
	for _, levels := range bad {
		_, err := FromConfig(config.ProgressionConfig{Levels: levels})
		assert.Error(t, err, "%v", levels)
	}
}
