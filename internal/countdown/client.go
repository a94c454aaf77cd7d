package countdown

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/merchkit/countdown/internal/app/model"
)

// Client fetches the active timer for a product from the public read API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a read-API client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type listResponse struct {
	Success bool          `json:"success"`
	Timers  []model.Timer `json:"timers"`
}

// ActiveTimer returns the soonest-ending active timer for the product, or
// nil when the product has none.
func (c *Client) ActiveTimer(ctx context.Context, storeDomain, productID string) (*model.Timer, error) {
	u := fmt.Sprintf("%s/api/timer/%s?productId=%s",
		c.baseURL, url.PathEscape(storeDomain), url.QueryEscape(productID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("timer lookup returned status %d", resp.StatusCode)
	}

	var body listResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if !body.Success || len(body.Timers) == 0 {
		return nil, nil
	}

	// Results arrive soonest-ending first; the display shows only the first.
	return &body.Timers[0], nil
}
