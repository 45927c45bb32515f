package scraper

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/gvsturm-ai/rental-hunter/httputil"
	"github.com/gvsturm-ai/rental-hunter/models"
	"github.com/gvsturm-ai/rental-hunter/storage"
)

// fetcher is the shared HTTP front for all source adapters: browser
// headers, bounded timeout via the injected client, and optional raw
// page archival for debugging markup drift.
type fetcher struct {
	client    *http.Client
	userAgent string
	archive   *storage.PageArchive
}

func (f *fetcher) get(ctx context.Context, source models.Source, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, source, err)
	}

	httputil.BrowserHeaders(req, f.userAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: status %d", ErrFetch, source, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read body: %v", ErrFetch, source, err)
	}

	if f.archive != nil {
		contentType := resp.Header.Get("Content-Type")
		if key, err := f.archive.Save(ctx, source, body, contentType); err != nil {
			log.Printf("[%s] page archive failed: %v", source, err)
		} else {
			log.Printf("[%s] archived page: %s", source, key)
		}
	}

	return body, nil
}
