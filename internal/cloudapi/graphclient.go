package cloudapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/xblaster/sift/internal/planner"
)

// httpTimeout is the per-request timeout for every call this client makes.
const httpTimeout = 30 * time.Second

// maxErrorBody bounds how much of a non-2xx response body is folded into an
// error message, so a pathological HTML error page doesn't blow up logs.
const maxErrorBody = 2048

// readErrorBody reads at most maxErrorBody bytes of resp.Body for use in an
// error message. Graph API error bodies are JSON describing the
// failure; surfacing them is the whole point of this helper.
func readErrorBody(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return strings.TrimSpace(string(body))
}

// GraphClient is the concrete DeltaFetcher/ItemClient implementation, a thin
// net/http wrapper over a Microsoft-Graph-shaped drive API. It caches
// cumulative_path -> id lookups for the lifetime of a single organize run,
// per spec.md's "Ensure folder" contract.
type GraphClient struct {
	baseURL string
	tokens  TokenSource
	http    *http.Client

	mu        sync.Mutex
	folderIDs map[string]string
}

// NewGraphClient builds a client against baseURL (the drive API root),
// using tokens to authorize every request.
func NewGraphClient(baseURL string, tokens TokenSource) *GraphClient {
	return &GraphClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		tokens:    tokens,
		http:      &http.Client{Timeout: httpTimeout},
		folderIDs: make(map[string]string),
	}
}

func (c *GraphClient) authedRequest(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("cloudapi: acquire token: %w", err)
	}

	var reader *strings.Reader
	if body != nil {
		reader = strings.NewReader(string(body))
	} else {
		reader = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("cloudapi: build request %s %s: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cloudapi: request %s %s: %w", method, path, err)
	}
	return resp, nil
}

type deltaResponse struct {
	Value           []rawItem `json:"value"`
	NextLink        string    `json:"@odata.nextLink"`
	DeltaLink       string    `json:"@odata.deltaLink"`
}

// Delta fetches one page starting at cursor (empty for a fresh root delta).
// A cursor may be an absolute next/delta link under baseURL or a path
// relative to it.
func (c *GraphClient) Delta(ctx context.Context, cursor string) (DeltaPage, error) {
	path := "/root/delta?select=id,name,photo,location,file,deleted,parentReference"
	if cursor != "" {
		path = strings.TrimPrefix(cursor, c.baseURL)
	}

	resp, err := c.authedRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return DeltaPage{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return DeltaPage{}, fmt.Errorf("cloudapi: delta request returned status %d: %s", resp.StatusCode, readErrorBody(resp))
	}

	var dr deltaResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return DeltaPage{}, fmt.Errorf("cloudapi: decode delta page: %w", err)
	}

	page := DeltaPage{}
	for _, item := range dr.Value {
		if !item.isImage() {
			continue
		}
		page.Items = append(page.Items, item.toRecord())
	}

	page.NextLink = dr.NextLink
	page.Cursor = dr.DeltaLink
	return page, nil
}

// ScanAll drains every page from the given starting cursor, following
// pagination links until a terminal cursor is supplied, and returns the
// accumulated records plus the new resumable cursor.
func ScanAll(ctx context.Context, fetcher DeltaFetcher, startCursor string) ([]Record, string, error) {
	var all []Record
	next := startCursor

	for {
		page, err := fetcher.Delta(ctx, next)
		if err != nil {
			return nil, "", err
		}
		all = append(all, page.Items...)

		if page.Cursor != "" {
			return all, page.Cursor, nil
		}
		if page.NextLink == "" {
			return all, "", fmt.Errorf("cloudapi: delta page ended without a terminal cursor or next link")
		}
		next = page.NextLink
	}
}

type childLookupResponse struct {
	ID string `json:"id"`
}

// GetItemByPath looks up an item id by cumulative path, checking the
// in-run cache first.
func (c *GraphClient) GetItemByPath(ctx context.Context, path string) (string, error) {
	c.mu.Lock()
	if id, ok := c.folderIDs[path]; ok {
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	resp, err := c.authedRequest(ctx, http.MethodGet, "/root:/"+url.PathEscape(path), nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", errNotFound
	}
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("cloudapi: lookup %s returned status %d: %s", path, resp.StatusCode, readErrorBody(resp))
	}

	var lr childLookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return "", fmt.Errorf("cloudapi: decode lookup response: %w", err)
	}

	c.mu.Lock()
	c.folderIDs[path] = lr.ID
	c.mu.Unlock()

	return lr.ID, nil
}

// CreateFolder creates a child folder named name under parentID, with
// conflict behavior "fail" (name collisions surface as an error rather than
// silently renaming).
func (c *GraphClient) CreateFolder(ctx context.Context, parentID, name string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"name":                              name,
		"folder":                            map[string]any{},
		"@microsoft.graph.conflictBehavior": "fail",
	})
	if err != nil {
		return "", fmt.Errorf("cloudapi: encode create-folder request: %w", err)
	}

	resp, err := c.authedRequest(ctx, http.MethodPost, "/items/"+parentID+"/children", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("cloudapi: create folder %q under %s returned status %d: %s", name, parentID, resp.StatusCode, readErrorBody(resp))
	}

	var lr childLookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return "", fmt.Errorf("cloudapi: decode create-folder response: %w", err)
	}
	return lr.ID, nil
}

// MoveItem issues a metadata-only parent-reference update. No byte transfer
// occurs.
func (c *GraphClient) MoveItem(ctx context.Context, itemID, newParentID string) error {
	body, err := json.Marshal(map[string]any{
		"parentReference": map[string]any{"id": newParentID},
	})
	if err != nil {
		return fmt.Errorf("cloudapi: encode move request: %w", err)
	}

	resp, err := c.authedRequest(ctx, http.MethodPatch, "/items/"+itemID, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("cloudapi: move %s to parent %s returned status %d: %s", itemID, newParentID, resp.StatusCode, readErrorBody(resp))
	}
	return nil
}

var errNotFound = fmt.Errorf("cloudapi: item not found")

// EnsureFolder implements get_or_create: sanitize name, look it up by
// cumulative path, and create it on a 404. The (path -> id) result is
// cached for the lifetime of the client, covering both lookup hits and
// freshly created folders.
func (c *GraphClient) EnsureFolder(ctx context.Context, parentID, parentPath, name string) (id string, childPath string, err error) {
	sanitized := planner.Sanitize(name)
	childPath = parentPath + "/" + sanitized

	c.mu.Lock()
	if cached, ok := c.folderIDs[childPath]; ok {
		c.mu.Unlock()
		return cached, childPath, nil
	}
	c.mu.Unlock()

	id, err = c.GetItemByPath(ctx, childPath)
	if err == nil {
		return id, childPath, nil
	}
	if err != errNotFound {
		return "", "", err
	}

	id, err = c.CreateFolder(ctx, parentID, sanitized)
	if err != nil {
		return "", "", err
	}

	c.mu.Lock()
	c.folderIDs[childPath] = id
	c.mu.Unlock()

	return id, childPath, nil
}
