package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"chalfim/internal/models"
)

// Registry looks up a vehicle by identifier (plate or VIN).
// A nil vehicle with a nil error means the registry has no record.
type Registry interface {
	Lookup(ctx context.Context, identifier string) (*models.Vehicle, error)
}

// Client queries the public vehicle-registry datastore over HTTPS. TLS
// verification stays on; the request carries a bounded timeout so a slow
// registry cannot hang a search indefinitely.
type Client struct {
	httpClient *http.Client
	baseURL    string
	resourceID string
}

// NewClient creates a registry client for the given datastore endpoint
// and resource id.
func NewClient(baseURL, resourceID string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		resourceID: resourceID,
	}
}

// datastoreResponse is the subset of the datastore_search envelope we use.
// Record values arrive untyped because the registry mixes strings and
// numbers between datasets.
type datastoreResponse struct {
	Success bool `json:"success"`
	Result  struct {
		Records []map[string]interface{} `json:"records"`
	} `json:"result"`
}

// Lookup fetches the first record matching the identifier and extracts
// the vehicle summary from it.
func (c *Client) Lookup(ctx context.Context, identifier string) (*models.Vehicle, error) {
	q := url.Values{}
	q.Set("resource_id", c.resourceID)
	q.Set("q", identifier)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build registry request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: registry returned %s", models.ErrUpstream, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", models.ErrUpstream, err)
	}

	var payload datastoreResponse
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", models.ErrUpstream, err)
	}
	if !payload.Success {
		return nil, fmt.Errorf("%w: registry reported failure", models.ErrUpstream)
	}
	if len(payload.Result.Records) == 0 {
		return nil, nil
	}
	return vehicleFromRecord(payload.Result.Records[0]), nil
}

// vehicleFromRecord normalizes a raw registry record. Make and model each
// have two possible source fields depending on the dataset vintage.
func vehicleFromRecord(rec map[string]interface{}) *models.Vehicle {
	carMake := strings.TrimSpace(models.AsString(rec["tozar"]))
	if carMake == "" {
		carMake = strings.TrimSpace(models.AsString(rec["tozeret_nm"]))
	}
	model := strings.TrimSpace(models.AsString(rec["kinuy_mishari"]))
	if model == "" {
		model = strings.TrimSpace(models.AsString(rec["degem_nm"]))
	}
	year, _ := models.AsInt(rec["shnat_yitzur"])

	return &models.Vehicle{
		Make:  carMake,
		Model: model,
		Year:  year,
		Plate: models.AsString(rec["mispar_rechev"]),
	}
}
