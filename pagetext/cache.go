// CLAUDE:SUMMARY Process-local page → extracted text cache, written only by the Extractor.
// Package pagetext maintains the per-page extracted text cache and the
// bounded-retry extractor that fills it from the rendering collaborator.
package pagetext

import (
	"sort"
	"strings"
	"sync"

	"github.com/hazyhaar/citenav/fragment"
)

// PageText is the extraction result for one page. RawText is the space-joined
// concatenation of fragment texts in order; it is empty iff extraction has
// not yet succeeded for the page.
type PageText struct {
	Page      int
	Fragments []fragment.Fragment
	RawText   string
}

// PageInfo is the host-facing snapshot form of a cache entry.
type PageInfo struct {
	Page int    `json:"page"`
	Text string `json:"text"`
}

// Cache maps page number to PageText. Only the Extractor writes entries;
// entries survive until Reset (document replaced).
type Cache struct {
	mu    sync.Mutex
	pages map[int]*PageText
}

func NewCache() *Cache {
	return &Cache{pages: make(map[int]*PageText)}
}

func (c *Cache) Put(pt *PageText) {
	c.mu.Lock()
	c.pages[pt.Page] = pt
	c.mu.Unlock()
}

func (c *Cache) Get(page int) (*PageText, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pt, ok := c.pages[page]
	return pt, ok
}

// Snapshot returns all known entries in ascending page order.
func (c *Cache) Snapshot() []PageInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]PageInfo, 0, len(c.pages))
	for _, pt := range c.pages {
		out = append(out, PageInfo{Page: pt.Page, Text: pt.RawText})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Page < out[j].Page })
	return out
}

// Reset drops every entry. Called when the hosting document is replaced.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.pages = make(map[int]*PageText)
	c.mu.Unlock()
}

// JoinText space-joins fragment texts in order, the same shape the matcher
// assumes when it maps offsets back to fragments.
func JoinText(frags []fragment.Fragment) string {
	var sb strings.Builder
	for i, f := range frags {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(f.Text())
	}
	return strings.TrimSpace(sb.String())
}
