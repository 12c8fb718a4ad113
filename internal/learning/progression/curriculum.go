// Package progression tracks which word and page a learner is on.
package progression

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"sketch-predictor/internal/common/config"
)

// Page is one page of the reference document with the words drawn on it.
type Page struct {
	Number int
	Words  []string
}

// Curriculum maps a class level to its ordered pages.
type Curriculum map[int][]Page

// DefaultCurriculum is used when no levels are configured.
func DefaultCurriculum() Curriculum {
	return Curriculum{
		1: {
			{Number: 1, Words: []string{"cat", "dog", "fish"}},
			{Number: 2, Words: []string{"sun", "tree", "house"}},
		},
		2: {
			{Number: 3, Words: []string{"bird", "apple", "flower"}},
			{Number: 4, Words: []string{"car", "boat", "star"}},
		},
		3: {
			{Number: 5, Words: []string{"bicycle", "umbrella", "clock"}},
			{Number: 6, Words: []string{"butterfly", "guitar", "mountain"}},
		},
		4: {
			{Number: 7, Words: []string{"elephant", "airplane", "lighthouse"}},
			{Number: 8, Words: []string{"giraffe", "castle", "bridge"}},
		},
		5: {
			{Number: 9, Words: []string{"helicopter", "octopus", "windmill"}},
			{Number: 10, Words: []string{"saxophone", "kangaroo", "skyscraper"}},
		},
	}
}

// FromConfig builds a curriculum from the progression section. Empty config
// yields DefaultCurriculum. Pages are ordered by number, words are lowercased.
func FromConfig(cfg config.ProgressionConfig) (Curriculum, error) {
	if len(cfg.Levels) == 0 {
		return DefaultCurriculum(), nil
	}

	c := make(Curriculum, len(cfg.Levels))
	for key, pages := range cfg.Levels {
		level, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil || level <= 0 {
			return nil, fmt.Errorf("progression: invalid level %q", key)
		}

		out := make([]Page, 0, len(pages))
		for _, p := range pages {
			words := make([]string, 0, len(p.Words))
			for _, w := range p.Words {
				if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
					words = append(words, w)
				}
			}
			if len(words) == 0 {
				return nil, fmt.Errorf("progression: level %d page %d has no words", level, p.Number)
			}
			out = append(out, Page{Number: p.Number, Words: words})
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("progression: level %d has no pages", level)
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].Number < out[j].Number })
		c[level] = out
	}
	return c, nil
}

// Levels returns the configured level numbers in ascending order.
func (c Curriculum) Levels() []int {
	levels := make([]int, 0, len(c))
	for l := range c {
		levels = append(levels, l)
	}
	sort.Ints(levels)
	return levels
}
