package fetch

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// arxivBaseURL is the arXiv Atom API endpoint.
const arxivBaseURL = "https://export.arxiv.org"

// atomFeed mirrors the subset of the arXiv Atom response we consume.
type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title     string       `xml:"title"`
	Published string       `xml:"published"`
	Summary   string       `xml:"summary"`
	DOI       string       `xml:"doi"`
	Authors   []atomAuthor `xml:"author"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

// GetArxivPaper fetches paper metadata from the arXiv Atom API.
func (c *Client) GetArxivPaper(ctx context.Context, arxivID string) (*Paper, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	u := fmt.Sprintf("%s/api/query?id_list=%s", c.arxivURL, arxivID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "arXiv query failed", PaperID: arxivID}
	}

	var feed atomFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("%w: parsing arXiv feed: %v", ErrInvalidResponse, err)
	}
	if len(feed.Entries) == 0 {
		return nil, fmt.Errorf("%w: arXiv:%s", ErrNotFound, arxivID)
	}

	entry := feed.Entries[0]
	paper := &Paper{
		DOI:      entry.DOI,
		Title:    strings.TrimSpace(entry.Title),
		Abstract: strings.TrimSpace(entry.Summary),
		ArxivID:  arxivID,
		PDFURL:   arxivPDFURL(c.arxivURL, arxivID),
	}
	for _, a := range entry.Authors {
		paper.Authors = append(paper.Authors, a.Name)
	}
	if len(entry.Published) >= 4 {
		if year, err := strconv.Atoi(entry.Published[:4]); err == nil {
			paper.Year = year
		}
	}

	return paper, nil
}

// arxivPDFURL builds the PDF mirror URL for an arXiv ID.
func arxivPDFURL(base, arxivID string) string {
	host := strings.Replace(base, "export.", "", 1)
	return fmt.Sprintf("%s/pdf/%s.pdf", host, arxivID)
}
