package viewer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/citenav/dbopen"
	"github.com/hazyhaar/citenav/fragment/fragtest"
	"github.com/hazyhaar/citenav/journal"
	"github.com/hazyhaar/citenav/nav"
)

// fastConfig keeps navigation timing out of the tests' way.
func fastConfig() Config {
	return Config{
		Nav: NavConfig{SettleDelay: time.Millisecond, RingDuration: 50 * time.Millisecond},
	}
}

func contractProvider() *fragtest.Provider {
	p := fragtest.New()
	p.SetPage(1, "Master Services Agreement", "between the parties named below.")
	p.SetPage(2, "Section 4. Term.", "The term shall be twelve months.", "Renewal is automatic.")
	p.SetPage(3, "Section 9. Governing law.", "This agreement is governed by Dutch law.")
	return p
}

func TestViewer_JumpToWait_Found(t *testing.T) {
	p := contractProvider()
	v := New(p, fastConfig(), nil)

	out := v.JumpToWait(t.Context(), nav.Citation{Quote: "The term shall be twelve months."})
	if out.Status != nav.StatusFound || out.Page != 2 {
		t.Fatalf("outcome = %+v, want found on page 2", out)
	}
	if got := p.Scrolls(); len(got) != 1 || got[0] != 2 {
		t.Errorf("scrolls = %v, want [2]", got)
	}
}

func TestViewer_OnPageRendered_PopulatesCache(t *testing.T) {
	p := contractProvider()
	v := New(p, fastConfig(), nil)

	v.OnPageRendered(2)

	// Extraction runs off the notification path.
	deadline := time.Now().Add(2 * time.Second)
	for {
		pages := v.PageTexts()
		if pages[1].Text != "" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("page 2 never extracted")
		}
		time.Sleep(5 * time.Millisecond)
	}

	pages := v.PageTexts()
	if len(pages) != 3 {
		t.Fatalf("pages = %d, want 3", len(pages))
	}
	if pages[0].Text != "" || pages[2].Text != "" {
		t.Errorf("unextracted pages must report empty text: %+v", pages)
	}
	if !strings.Contains(pages[1].Text, "twelve months") {
		t.Errorf("page 2 text = %q", pages[1].Text)
	}
}

func TestViewer_Reset_ClearsEverything(t *testing.T) {
	p := contractProvider()
	v := New(p, fastConfig(), nil)

	out := v.JumpToWait(t.Context(), nav.Citation{Quote: "Renewal is automatic."})
	if out.Status != nav.StatusFound {
		t.Fatalf("outcome = %+v", out)
	}
	if !p.AnyHighlight() {
		t.Fatal("expected highlight after jump")
	}

	v.Reset()

	if p.AnyHighlight() {
		t.Error("highlight survived reset")
	}
	for _, pi := range v.PageTexts() {
		if pi.Text != "" {
			t.Errorf("cache survived reset: page %d = %q", pi.Page, pi.Text)
		}
	}
}

func TestViewer_JumpTo_RecordsJournal(t *testing.T) {
	db := dbopen.OpenMemory(t)
	j := journal.New(db)
	if err := j.Init(); err != nil {
		t.Fatal(err)
	}

	v := New(contractProvider(), fastConfig(), nil, WithJournal(j))

	v.JumpToWait(t.Context(), nav.Citation{Quote: "governed by Dutch law"})
	v.JumpToWait(t.Context(), nav.Citation{Quote: "clause that does not exist anywhere at all"})

	if err := j.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	j2 := journal.New(db)
	t.Cleanup(func() { j2.Close() })
	entries, err := j2.Recent(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Status != "not_found" || entries[1].Status != "found" {
		t.Errorf("statuses = %s, %s", entries[0].Status, entries[1].Status)
	}
	if entries[1].Page != 3 || entries[1].Strategy == "" {
		t.Errorf("found entry = %+v", entries[1])
	}
	if !strings.HasPrefix(entries[0].LookupID, "lkp_") {
		t.Errorf("lookup id = %q", entries[0].LookupID)
	}
}

// --- HTTP surface ---

func httpServer(t *testing.T, v *Viewer) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	v.RegisterHTTP(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTP_Jump(t *testing.T) {
	v := New(contractProvider(), fastConfig(), nil)
	srv := httpServer(t, v)

	body := strings.NewReader(`{"quote": "term shall be TWELVE months", "page": 7}`)
	resp, err := http.Post(srv.URL+"/jump", "application/json", body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var out nav.Outcome
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	// The hint points past the document; traversal finds page 2 anyway.
	if out.Status != nav.StatusFound || out.Page != 2 {
		t.Errorf("outcome = %+v, want found on page 2", out)
	}
}

func TestHTTP_Jump_BadBody(t *testing.T) {
	v := New(contractProvider(), fastConfig(), nil)
	srv := httpServer(t, v)

	resp, err := http.Post(srv.URL+"/jump", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHTTP_PagesAndExtract(t *testing.T) {
	v := New(contractProvider(), fastConfig(), nil)
	srv := httpServer(t, v)

	resp, err := http.Post(srv.URL+"/extract", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("extract status = %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/pages")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var pages []struct {
		Page int    `json:"page"`
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&pages); err != nil {
		t.Fatal(err)
	}
	if len(pages) != 3 {
		t.Fatalf("pages = %d, want 3", len(pages))
	}
	for _, pg := range pages {
		if pg.Text == "" {
			t.Errorf("page %d not extracted", pg.Page)
		}
	}
}

func TestHTTP_Lookups_DisabledWithoutJournal(t *testing.T) {
	v := New(contractProvider(), fastConfig(), nil)
	srv := httpServer(t, v)

	resp, err := http.Get(srv.URL + "/lookups")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

// --- MCP surface ---

var testMCPImpl = &mcp.Implementation{Name: "citenav-test", Version: "0.1.0"}

func mcpSession(t *testing.T, v *Viewer) *mcp.ClientSession {
	t.Helper()
	srv := mcp.NewServer(testMCPImpl, nil)
	v.RegisterMCP(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(testMCPImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func mcpCallTool(t *testing.T, session *mcp.ClientSession, name string, args any) string {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if err := result.GetError(); err != nil {
		t.Fatalf("CallTool(%s) tool error: %v", name, err)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent", name)
	}
	return tc.Text
}

func TestMCP_JumpTo(t *testing.T) {
	v := New(contractProvider(), fastConfig(), nil)
	session := mcpSession(t, v)

	text := mcpCallTool(t, session, "citenav_jump_to", map[string]any{
		"quote": "governed by dutch law",
	})

	var out nav.Outcome
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Status != nav.StatusFound || out.Page != 3 {
		t.Errorf("outcome = %+v, want found on page 3", out)
	}
}

func TestMCP_PageTexts(t *testing.T) {
	v := New(contractProvider(), fastConfig(), nil)
	session := mcpSession(t, v)

	mcpCallTool(t, session, "citenav_force_extraction", map[string]any{})
	text := mcpCallTool(t, session, "citenav_page_texts", map[string]any{})

	var resp struct {
		Pages []struct {
			Page int    `json:"page"`
			Text string `json:"text"`
		} `json:"pages"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Pages) != 3 {
		t.Fatalf("pages = %d, want 3", len(resp.Pages))
	}
	if !strings.Contains(resp.Pages[2].Text, "Dutch law") {
		t.Errorf("page 3 text = %q", resp.Pages[2].Text)
	}
}
