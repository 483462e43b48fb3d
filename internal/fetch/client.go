// Package fetch retrieves paper metadata and open-access PDFs by DOI. The
// primary source is the Semantic Scholar graph API; arXiv serves as a
// fallback for preprints.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// BaseURL is the Semantic Scholar graph API base URL.
	BaseURL = "https://api.semanticscholar.org/graph/v1"

	// RateLimit is 1 request per second, the unauthenticated S2 allowance.
	RateLimit = 1.0

	// PaperFields are the metadata fields requested for paper lookups.
	PaperFields = "title,authors,year,abstract,externalIds,openAccessPdf"
)

// Paper is the metadata recovered for a fetched paper.
type Paper struct {
	DOI      string   `json:"doi"`
	Title    string   `json:"title"`
	Authors  []string `json:"authors"`
	Year     int      `json:"year"`
	Abstract string   `json:"abstract,omitempty"`
	ArxivID  string   `json:"arxiv_id,omitempty"`
	PDFURL   string   `json:"pdf_url,omitempty"`
}

// Result is the outcome of a full fetch: metadata plus an optional cached
// PDF and the source that served it.
type Result struct {
	Paper   *Paper `json:"paper"`
	PDFPath string `json:"pdf_path,omitempty"`
	Source  string `json:"source"` // "semantic_scholar", "arxiv", or "none"
}

// Client is a rate-limited HTTP client for paper metadata and PDFs.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	apiKey     string
	baseURL    string
	arxivURL   string
	cacheDir   string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIKey sets the Semantic Scholar API key.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom API base URL (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithArxivURL sets a custom arXiv API base URL (for testing).
func WithArxivURL(u string) ClientOption {
	return func(c *Client) {
		c.arxivURL = u
	}
}

// WithCacheDir sets the directory PDFs are downloaded into.
func WithCacheDir(dir string) ClientOption {
	return func(c *Client) {
		c.cacheDir = dir
	}
}

// NewClient creates a paper fetch client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    BaseURL,
		arxivURL:   arxivBaseURL,
	}

	if key := os.Getenv("S2_API_KEY"); key != "" {
		c.apiKey = key
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// s2Paper mirrors the Semantic Scholar response shape.
type s2Paper struct {
	PaperID string `json:"paperId"`
	Title   string `json:"title"`
	Year    int    `json:"year"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
	Abstract    string        `json:"abstract"`
	ExternalIDs s2ExternalIDs `json:"externalIds"`
	OpenAccess  *struct {
		URL string `json:"url"`
	} `json:"openAccessPdf"`
}

// s2ExternalIDs is the externalIds object. CorpusId is numeric, unlike the
// other identifiers.
type s2ExternalIDs struct {
	DOI      string `json:"DOI,omitempty"`
	ArXiv    string `json:"ArXiv,omitempty"`
	PubMed   string `json:"PubMed,omitempty"`
	CorpusID int64  `json:"CorpusId,omitempty"`
}

// GetPaper fetches paper metadata from Semantic Scholar by DOI.
func (c *Client) GetPaper(ctx context.Context, doi string) (*Paper, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	u := fmt.Sprintf("%s/paper/%s?fields=%s", c.baseURL, url.PathEscape("DOI:"+doi), url.QueryEscape(PaperFields))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, doi); err != nil {
		return nil, err
	}

	var raw s2Paper
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	paper := &Paper{
		DOI:      doi,
		Title:    raw.Title,
		Year:     raw.Year,
		Abstract: raw.Abstract,
		ArxivID:  raw.ExternalIDs.ArXiv,
	}
	for _, a := range raw.Authors {
		paper.Authors = append(paper.Authors, a.Name)
	}
	if raw.OpenAccess != nil {
		paper.PDFURL = raw.OpenAccess.URL
	}

	return paper, nil
}

// FetchPaper fetches metadata and, when available, a PDF for the DOI.
// Sources are tried in priority order: Semantic Scholar open access, then
// the arXiv mirror if the paper has an arXiv ID. A paper without any
// retrievable PDF still yields a metadata-only result, not an error.
func (c *Client) FetchPaper(ctx context.Context, doi string) (*Result, error) {
	paper, err := c.GetPaper(ctx, doi)
	if err != nil {
		return nil, err
	}

	result := &Result{Paper: paper, Source: "semantic_scholar"}

	if paper.PDFURL != "" {
		if path, err := c.DownloadPDF(ctx, paper.PDFURL, doi); err == nil {
			result.PDFPath = path
			return result, nil
		}
	}

	if paper.ArxivID != "" {
		if path, err := c.DownloadPDF(ctx, arxivPDFURL(c.arxivURL, paper.ArxivID), "arxiv_"+paper.ArxivID); err == nil {
			result.PDFPath = path
			result.Source = "arxiv"
			return result, nil
		}
	}

	return result, nil
}

// DownloadPDF downloads a PDF into the cache directory, keyed by a
// sanitized identifier. A cache hit short-circuits the download.
func (c *Client) DownloadPDF(ctx context.Context, pdfURL, identifier string) (string, error) {
	if c.cacheDir == "" {
		return "", fmt.Errorf("%w: no cache directory configured", ErrNoPDF)
	}
	if err := os.MkdirAll(c.cacheDir, 0755); err != nil {
		return "", fmt.Errorf("creating cache directory: %w", err)
	}

	path := filepath.Join(c.cacheDir, SanitizeIdentifier(identifier)+".pdf")
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{StatusCode: resp.StatusCode, Message: "PDF download failed", PaperID: identifier}
	}

	tmp, err := os.CreateTemp(c.cacheDir, ".tmp-pdf-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("downloading PDF: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("renaming temp file: %w", err)
	}

	return path, nil
}

// SanitizeIdentifier makes a DOI or arXiv ID safe for use as a filename.
func SanitizeIdentifier(id string) string {
	id = strings.ReplaceAll(id, "/", "_")
	return strings.ReplaceAll(id, ":", "_")
}

// NormalizeDOI strips URL prefixes and lowercases a DOI for comparison.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	doi = strings.TrimPrefix(doi, "https://doi.org/")
	doi = strings.TrimPrefix(doi, "http://doi.org/")
	doi = strings.TrimPrefix(doi, "doi.org/")
	doi = strings.TrimPrefix(doi, "DOI:")
	return strings.ToLower(doi)
}

// checkStatus maps an HTTP error status to the client error taxonomy.
func checkStatus(resp *http.Response, paperID string) error {
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, paperID)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrAuthError, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	case resp.StatusCode >= 400:
		return &APIError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("HTTP %d", resp.StatusCode), PaperID: paperID}
	}
	return nil
}
