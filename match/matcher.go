// CLAUDE:SUMMARY Tiered quote matcher: exact → anchor → word → ratio prefixes, with offset mapping back to fragments.
// Package match locates a quoted string inside a page's fragment text.
//
// Matching runs on normalize.Match forms, so it is case-, punctuation- and
// whitespace-insensitive. Strategies form a fixed fallback ladder; the first
// tier that finds the needle wins, and the first page (in traversal order)
// with any winning tier ends the search — first-found, not best-found.
package match

import (
	"strings"
	"unicode/utf8"

	"github.com/hazyhaar/citenav/fragment"
	"github.com/hazyhaar/citenav/normalize"
	"github.com/hazyhaar/citenav/pagetext"
)

// Strategy names one tier of the fallback ladder.
type Strategy string

const (
	StrategyExact     Strategy = "exact"
	StrategyAnchor    Strategy = "anchor"
	StrategyWord      Strategy = "word"
	StrategyRatioFull Strategy = "ratio_full"
	StrategyRatio75   Strategy = "ratio_75"
	StrategyRatio50   Strategy = "ratio_50"
)

// anchorLen is the length of the centered quote slice used by the anchor
// tier: 7 runes each side of the midpoint. Less sensitive to truncation or
// extension at the quote's edges.
const anchorLen = 14

// minWordLen: the word tier only considers words longer than this.
const minWordLen = 3

// Result describes a located quote. Start/End index the contiguous fragment
// run [Start, End) within the page's fragment sequence; Fragments is that
// run. MatchedText is the normalized needle the winning tier found.
type Result struct {
	Page        int
	Fragments   []fragment.Fragment
	Start, End  int
	MatchedText string
	Strategy    Strategy
}

// Match walks pages in the given order and returns the first page's Result,
// or nil when no page matches. Pages with empty RawText are skipped: they
// have not been extracted (or extraction came up empty) and are excluded
// from matching.
func Match(quote string, pages []*pagetext.PageText) *Result {
	for _, pt := range pages {
		if res := MatchPage(quote, pt); res != nil {
			return res
		}
	}
	return nil
}

// MatchPage runs the strategy ladder against a single page.
func MatchPage(quote string, pt *pagetext.PageText) *Result {
	q := normalize.Match(quote)
	if q == "" || pt == nil || pt.RawText == "" {
		return nil
	}

	m := buildModel(pt)
	if m.joined == "" {
		return nil
	}

	for _, t := range ladder(q) {
		if t.needle == "" {
			continue
		}
		idx := strings.Index(m.joined, t.needle)
		if idx < 0 {
			continue
		}
		start, end := m.fragRange(idx, len(t.needle))
		return &Result{
			Page:        pt.Page,
			Fragments:   pt.Fragments[start:end],
			Start:       start,
			End:         end,
			MatchedText: t.needle,
			Strategy:    t.strategy,
		}
	}
	return nil
}

type tier struct {
	strategy Strategy
	needle   string
}

// ladder builds the ordered fallback tiers for a normalized quote. The word
// tier expands to one entry per qualifying word, in quote order, so the first
// word present in the page wins before any ratio tier is consulted.
func ladder(q string) []tier {
	tiers := []tier{
		{StrategyExact, q},
		{StrategyAnchor, anchor(q)},
	}
	for _, w := range strings.Fields(q) {
		if utf8.RuneCountInString(w) > minWordLen {
			tiers = append(tiers, tier{StrategyWord, w})
		}
	}
	tiers = append(tiers,
		tier{StrategyRatioFull, q},
		tier{StrategyRatio75, prefix(q, 0.75)},
		tier{StrategyRatio50, prefix(q, 0.50)},
	)
	return tiers
}

// anchor returns the centered anchorLen-rune slice of the quote, or "" when
// the quote is short enough that the exact tier already covered it.
func anchor(q string) string {
	r := []rune(q)
	if len(r) <= anchorLen {
		return ""
	}
	mid := len(r) / 2
	return strings.TrimSpace(string(r[mid-anchorLen/2 : mid+anchorLen/2]))
}

// prefix returns the leading ratio share of the quote, rune-wise.
func prefix(q string, ratio float64) string {
	r := []rune(q)
	n := int(float64(len(r)) * ratio)
	if n <= 0 || n >= len(r) {
		return ""
	}
	return strings.TrimSpace(string(r[:n]))
}

// pageModel is the page's fragment sequence flattened into one normalized
// string, with a per-byte owner index so a matched run maps back onto the
// contiguous fragment set whose spans overlap it. Each fragment contributes
// its normalized length plus one join space.
type pageModel struct {
	joined string
	fragAt []int // fragAt[i] = index of the fragment owning joined[i]
}

func buildModel(pt *pagetext.PageText) pageModel {
	var sb strings.Builder
	var fragAt []int

	for i, f := range pt.Fragments {
		n := normalize.Match(f.Text())
		if n == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
			fragAt = append(fragAt, i) // join space owned by the next fragment
		}
		sb.WriteString(n)
		for range len(n) {
			fragAt = append(fragAt, i)
		}
	}
	return pageModel{joined: sb.String(), fragAt: fragAt}
}

// fragRange maps a byte span of the joined text to the half-open fragment
// index range covering it.
func (m pageModel) fragRange(idx, length int) (start, end int) {
	start = m.fragAt[idx]
	end = m.fragAt[idx+length-1] + 1
	return start, end
}
