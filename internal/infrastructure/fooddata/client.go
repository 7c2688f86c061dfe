package fooddata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/macrolens/mealtracker/internal/domain"
	"golang.org/x/time/rate"
)

const (
	maxAttempts      = 3
	maxErrorBodySize = 1024
	searchPageSize   = 15
)

// Client handles communication with the USDA FoodData Central API
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
	debug       bool
}

// NewClient creates a new FoodData Central client
func NewClient(apiKey, baseURL string) *Client {
	// FoodData Central allows 1000 requests per hour per key
	return NewClientWithLimit(apiKey, baseURL, 1000.0/3600.0, 10)
}

// NewClientWithLimit creates a client with an explicit request rate (per second) and burst.
func NewClientWithLimit(apiKey, baseURL string, perSecond float64, burst int) *Client {
	if burst < 1 {
		burst = 1
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiKey:      apiKey,
		baseURL:     baseURL,
		rateLimiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// SetDebug toggles verbose request logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

func (c *Client) debugLog(format string, args ...interface{}) {
	if c.debug {
		log.Printf("[FDC] "+format, args...)
	}
}

// exponentialBackoff returns the wait before retrying after the given attempt: 500ms, 1s, 2s...
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// readLimitedBody reads at most limit bytes so error bodies never flood the log
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// retryable reports whether a non-200 status should be retried. Client errors
// are final except 429.
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// get executes a GET with rate limiting and retries, decoding a 200 body into out
func (c *Client) get(ctx context.Context, reqURL string, out interface{}) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// waiting for a token would outlast the deadline
			return fmt.Errorf("%w: %v", domain.ErrRateLimited, err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", "MealTracker/1.0")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.debugLog("request error (attempt %d): %v", attempt, err)
			lastErr = fmt.Errorf("%w: %v", domain.ErrFoodDataFailure, err)
		} else {
			done, err := c.handleResponse(resp, attempt, out)
			if done {
				return err
			}
			lastErr = err
		}

		if attempt < maxAttempts {
			if err := sleepContext(ctx, exponentialBackoff(attempt)); err != nil {
				return err
			}
		}
	}

	log.Printf("[FDC] all %d attempts failed: %v", maxAttempts, lastErr)
	return lastErr
}

// handleResponse consumes resp. done is false when the request should be retried.
func (c *Client) handleResponse(resp *http.Response, attempt int, out interface{}) (done bool, err error) {
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return true, fmt.Errorf("failed to decode response: %w", err)
		}
		return true, nil
	}

	body, _ := readLimitedBody(resp.Body, maxErrorBodySize)
	c.debugLog("API error (attempt %d) status=%d body=%s", attempt, resp.StatusCode, string(body))

	if resp.StatusCode == http.StatusNotFound {
		return true, domain.ErrProductNotFound
	}
	err = fmt.Errorf("%w: status %d", domain.ErrFoodDataFailure, resp.StatusCode)
	return !retryable(resp.StatusCode), err
}

// SearchFoods searches FoodData Central. An empty result is ErrProductNotFound.
func (c *Client) SearchFoods(ctx context.Context, query string) (*domain.FDCSearchResponse, error) {
	c.debugLog("SearchFoods query=%q", query)

	params := url.Values{}
	params.Add("query", query)
	params.Add("api_key", c.apiKey)
	params.Add("dataType", "Foundation,SR Legacy,Survey (FNDDS),Branded")
	params.Add("pageSize", strconv.Itoa(searchPageSize))
	reqURL := fmt.Sprintf("%s/v1/foods/search?%s", c.baseURL, params.Encode())

	var searchResp domain.FDCSearchResponse
	if err := c.get(ctx, reqURL, &searchResp); err != nil {
		return nil, err
	}
	if len(searchResp.Foods) == 0 {
		c.debugLog("no foods found for query=%q", query)
		return nil, domain.ErrProductNotFound
	}

	c.debugLog("found %d foods for query=%q", len(searchResp.Foods), query)
	return &searchResp, nil
}

// foodDetails is the full-format food document. Its nutrients nest the
// nutrient definition instead of flattening it like search results do.
type foodDetails struct {
	FdcID         int    `json:"fdcId"`
	Description   string `json:"description"`
	DataType      string `json:"dataType"`
	BrandOwner    string `json:"brandOwner"`
	FoodNutrients []struct {
		Nutrient struct {
			ID       int    `json:"id"`
			Number   string `json:"number"`
			Name     string `json:"name"`
			UnitName string `json:"unitName"`
		} `json:"nutrient"`
		Amount float64 `json:"amount"`
	} `json:"foodNutrients"`
}

func (d *foodDetails) toFood() *domain.FDCFood {
	food := &domain.FDCFood{
		FdcID:       d.FdcID,
		Description: d.Description,
		DataType:    d.DataType,
		BrandOwner:  d.BrandOwner,
		Nutrients:   make([]domain.FDCNutrient, 0, len(d.FoodNutrients)),
	}
	for _, n := range d.FoodNutrients {
		food.Nutrients = append(food.Nutrients, domain.FDCNutrient{
			NutrientID:     n.Nutrient.ID,
			NutrientName:   n.Nutrient.Name,
			NutrientNumber: n.Nutrient.Number,
			UnitName:       n.Nutrient.UnitName,
			Value:          n.Amount,
		})
	}
	return food
}

// GetFoodDetails retrieves the full nutrient list of a single food
func (c *Client) GetFoodDetails(ctx context.Context, fdcID int) (*domain.FDCFood, error) {
	params := url.Values{}
	params.Add("api_key", c.apiKey)
	reqURL := fmt.Sprintf("%s/v1/food/%d?%s", c.baseURL, fdcID, params.Encode())

	var details foodDetails
	if err := c.get(ctx, reqURL, &details); err != nil {
		return nil, err
	}
	return details.toFood(), nil
}
