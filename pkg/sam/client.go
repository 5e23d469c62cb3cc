// Package sam provides read access to the SAM.gov Get Opportunities public
// API.
package sam

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/Bemerick/AI-SAM-Research/internal/resilience"
)

const defaultBaseURL = "https://api.sam.gov/opportunities/v2"

// Client defines the SAM.gov operations used by ingestion.
type Client interface {
	SearchOpportunities(ctx context.Context, params SearchParams) ([]RawOpportunity, error)
	GetDescription(ctx context.Context, descriptionURL string) (string, error)
}

// SearchParams holds the query filters for the opportunity search endpoint.
// Dates use the API's MM/dd/yyyy format.
type SearchParams struct {
	PostedFrom string
	PostedTo   string
	NAICSCode  string
	PTypes     string
	Limit      int
	Offset     int
}

// RawOpportunity is the wire shape of a SAM.gov notice. It is normalized into
// model.Opportunity at the ingestion boundary; nothing downstream reads it.
type RawOpportunity struct {
	NoticeID           string        `json:"noticeId"`
	Title              string        `json:"title"`
	SolicitationNumber string        `json:"solicitationNumber"`
	FullParentPathName string        `json:"fullParentPathName"`
	PostedDate         string        `json:"postedDate"`
	Type               string        `json:"type"`
	NAICSCode          string        `json:"naicsCode"`
	ClassificationCode string        `json:"classificationCode"`
	ResponseDeadLine   string        `json:"responseDeadLine"`
	SetAside           string        `json:"typeOfSetAsideDescription"`
	Description        string        `json:"description"` // URL of the description resource
	UILink             string        `json:"uiLink"`
	PointOfContact     []ContactInfo `json:"pointOfContact"`
}

// ContactInfo is a point-of-contact entry on a notice.
type ContactInfo struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Type     string `json:"type"`
}

type searchResponse struct {
	TotalRecords      int              `json:"totalRecords"`
	OpportunitiesData []RawOpportunity `json:"opportunitiesData"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	retry   resilience.Policy
}

// NewClient creates a SAM.gov API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		retry: resilience.DefaultPolicy(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) SearchOpportunities(ctx context.Context, params SearchParams) ([]RawOpportunity, error) {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("postedFrom", params.PostedFrom)
	q.Set("postedTo", params.PostedTo)
	if params.NAICSCode != "" {
		q.Set("ncode", params.NAICSCode)
	}
	if params.PTypes != "" {
		q.Set("ptype", params.PTypes)
	}
	limit := params.Limit
	if limit <= 0 {
		limit = 100
	}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(params.Offset))

	reqURL := c.baseURL + "/search?" + q.Encode()

	body, err := resilience.Retry(ctx, c.retry, "sam.search", func(ctx context.Context) ([]byte, error) {
		return c.get(ctx, reqURL)
	})
	if err != nil {
		return nil, eris.Wrap(err, "sam: search opportunities")
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "sam: unmarshal search response")
	}
	return resp.OpportunitiesData, nil
}

// GetDescription fetches the notice description text. SAM returns the
// description as a separate resource linked from the search result.
func (c *httpClient) GetDescription(ctx context.Context, descriptionURL string) (string, error) {
	if descriptionURL == "" {
		return "", nil
	}

	u, err := url.Parse(descriptionURL)
	if err != nil {
		return "", eris.Wrapf(err, "sam: parse description url %s", descriptionURL)
	}
	q := u.Query()
	q.Set("api_key", c.apiKey)
	u.RawQuery = q.Encode()

	body, err := resilience.Retry(ctx, c.retry, "sam.description", func(ctx context.Context) ([]byte, error) {
		return c.get(ctx, u.String())
	})
	if err != nil {
		return "", eris.Wrap(err, "sam: get description")
	}

	var desc struct {
		Description string `json:"description"`
	}
	if err := json.Unmarshal(body, &desc); err != nil {
		// Some description resources return plain text.
		return string(body), nil
	}
	return desc.Description, nil
}

func (c *httpClient) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sam: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "sam: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "sam: read response")
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("sam: unexpected status %d: %s", resp.StatusCode, string(body))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	return body, nil
}
