package app

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/danieljelinko/alma-tv/internal/domain"
)

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

var partSplit = regexp.MustCompile(` and |,`)

var fillerWords = map[string]bool{
	"episode": true, "episodes": true, "of": true, "some": true, "please": true,
}

// ParsedRequest is the structured form of a free-text ask like
// "tomorrow two bluey and one puffin rock".
type ParsedRequest struct {
	DaysOffset int
	Items      []domain.RequestItem
}

// ParseRequestText turns a free-text request into request items. Series
// keywords resolve through the configured keyword map, then an exact
// case-insensitive match against known series, then the closest fuzzy
// match within a bounded edit distance.
func ParseRequestText(text string, knownSeries []string, keywordMap map[string]string) (ParsedRequest, error) {
	text = strings.ToLower(strings.TrimSpace(text))
	out := ParsedRequest{}

	if strings.Contains(text, "tomorrow") {
		out.DaysOffset = 1
		text = strings.ReplaceAll(text, "tomorrow", "")
	}
	text = strings.ReplaceAll(text, "today", "")

	for _, part := range partSplit.Split(text, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		count := 1
		words := make([]string, 0, 4)
		for _, w := range strings.Fields(part) {
			if !fillerWords[w] {
				words = append(words, w)
			}
		}
		if len(words) > 1 {
			if n, ok := numberWords[words[0]]; ok {
				count = n
				words = words[1:]
			} else if n, err := strconv.Atoi(words[0]); err == nil && n > 0 {
				count = n
				words = words[1:]
			}
		}
		keyword := strings.Join(words, " ")

		series, ok := resolveSeries(keyword, knownSeries, keywordMap)
		if !ok {
			return ParsedRequest{}, fmt.Errorf("unknown series keyword %q", keyword)
		}
		out.Items = append(out.Items, domain.RequestItem{Series: series, Count: count})
	}

	if len(out.Items) == 0 {
		return ParsedRequest{}, fmt.Errorf("no request found in %q", text)
	}
	return out, nil
}

func resolveSeries(keyword string, knownSeries []string, keywordMap map[string]string) (string, bool) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return "", false
	}

	if mapped, ok := keywordMap[keyword]; ok {
		return mapped, true
	}

	for _, series := range knownSeries {
		if strings.EqualFold(series, keyword) {
			return series, true
		}
	}

	// Closest fuzzy match; the distance bound scales with the keyword so
	// "blueie" reaches "Bluey" without "cars" reaching "Carmen".
	best := ""
	bestDist := -1
	for _, series := range knownSeries {
		d := levenshtein.ComputeDistance(keyword, strings.ToLower(series))
		if bestDist < 0 || d < bestDist {
			best, bestDist = series, d
		}
	}
	if best == "" {
		return "", false
	}
	maxDist := len([]rune(keyword))*2/5 + 1
	if bestDist > maxDist {
		return "", false
	}
	return best, true
}
