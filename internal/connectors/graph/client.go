package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/halyard-labs/driftsync/internal/core/domain"
	"github.com/halyard-labs/driftsync/internal/core/ports/driven"
	"github.com/halyard-labs/driftsync/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.SourceClient = (*Client)(nil)

// DefaultTimeout is the per-request HTTP timeout.
const DefaultTimeout = 60 * time.Second

// driveItem is the subset of the Graph driveItem resource we read.
type driveItem struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModifiedDateTime"`
	WebURL       string    `json:"webUrl"`
	Folder       *struct{} `json:"folder,omitempty"`
}

// listResponse is one page of a children listing.
type listResponse struct {
	Value    []driveItem `json:"value"`
	NextLink string      `json:"@odata.nextLink"`
}

// Client lists and downloads drive files via the Graph API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	driveID    string
	limiter    *rate.Limiter
}

// New creates a Graph client with client-credentials authentication.
// The underlying oauth2 transport refreshes tokens transparently.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	httpClient := cfg.credentials().Client(ctx)
	httpClient.Timeout = DefaultTimeout

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		driveID:    cfg.DriveID,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
	}, nil
}

// NewWithHTTPClient creates a client with a caller-supplied HTTP client
// and base URL. Used by tests.
func NewWithHTTPClient(httpClient *http.Client, baseURL, driveID string) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		driveID:    driveID,
		limiter:    rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), 1),
	}
}

// ListFolder returns metadata for every file directly under the folder
// path, following @odata.nextLink until the listing is exhausted.
// Folders in the listing are ignored.
func (c *Client) ListFolder(ctx context.Context, folderPath string) ([]domain.RemoteFile, error) {
	next := fmt.Sprintf("%s/drives/%s/root:/%s:/children",
		c.baseURL, c.driveID, url.PathEscape(folderPath))

	var files []domain.RemoteFile
	pages := 0
	for next != "" {
		var page listResponse
		if err := c.getJSON(ctx, next, &page); err != nil {
			return nil, fmt.Errorf("list folder %s: %w", folderPath, err)
		}
		pages++

		for _, item := range page.Value {
			if item.Folder != nil {
				continue
			}
			files = append(files, domain.RemoteFile{
				ID:           item.ID,
				Name:         item.Name,
				LastModified: item.LastModified,
				Size:         item.Size,
				WebURL:       item.WebURL,
			})
		}
		next = page.NextLink
	}

	logger.Debug("Listed %s: %d files across %d page(s)", folderPath, len(files), pages)
	return files, nil
}

// GetContent downloads the raw bytes of a file. Graph answers with a
// redirect to a pre-authenticated download URL, which the HTTP client
// follows.
func (c *Client) GetContent(ctx context.Context, fileID string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/drives/%s/items/%s/content", c.baseURL, c.driveID, fileID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, fmt.Errorf("download %s: %w", fileID, err)
	}
	return io.ReadAll(resp.Body)
}

// getJSON performs a rate-limited GET and decodes the JSON body.
func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// checkStatus maps non-2xx responses to errors, surfacing throttling as
// domain.ErrRateLimited.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, string(body))
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, string(body))
	}
	return fmt.Errorf("graph api status %d: %s", resp.StatusCode, string(body))
}
