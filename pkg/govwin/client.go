// Package govwin provides access to the GovWin IQ web service API.
package govwin

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/Bemerick/AI-SAM-Research/internal/resilience"
)

const defaultBaseURL = "https://services.govwin.com/neo-ws"

// Client defines the GovWin operations used by the matching pipeline.
type Client interface {
	Search(ctx context.Context, query string, max int) ([]Record, error)
	GetOpportunity(ctx context.Context, govwinID string) (*Record, error)
	GetContracts(ctx context.Context, govwinID string) ([]ContractRecord, error)
}

// Record is the wire shape of a GovWin opportunity. RawJSON preserves the
// full payload for storage.
type Record struct {
	ID                 string          `json:"id"`
	IQOppID            json.Number     `json:"iqOppId"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	SolicitationNumber string          `json:"solicitationNumber"`
	PrimaryNAICS       *NAICSRef       `json:"primaryNAICS"`
	RawJSON            json.RawMessage `json:"-"`
}

// NAICSRef is a NAICS code reference on a GovWin record.
type NAICSRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// GovWinID returns the identifier usable for follow-up API calls. The
// prefixed id (e.g. FBO4090400) is preferred over the bare iqOppId.
func (r *Record) GovWinID() string {
	if r.ID != "" {
		return r.ID
	}
	return r.IQOppID.String()
}

// ContractRecord is the wire shape of a contract attached to an opportunity.
type ContractRecord struct {
	ID             json.Number     `json:"id"`
	ContractNumber string          `json:"contractNumber"`
	Title          string          `json:"title"`
	Company        *CompanyRef     `json:"company"`
	EstimatedValue float64         `json:"estimatedValue"`
	AwardDate      string          `json:"awardDate"`
	StartDate      string          `json:"startDate"`
	ExpirationDate string          `json:"expirationDate"`
	Incumbent      bool            `json:"incumbent"`
	RawJSON        json.RawMessage `json:"-"`
}

// CompanyRef is the vendor reference on a contract.
type CompanyRef struct {
	ID   json.Number `json:"id"`
	Name string      `json:"name"`
}

// Credentials holds the OAuth2 password-grant inputs.
type Credentials struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
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

// WithRateLimit overrides the default request rate limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *httpClient) { c.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

type httpClient struct {
	creds   Credentials
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.Policy

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
}

// NewClient creates a GovWin API client. Authentication is lazy; the first
// request obtains a token.
func NewClient(creds Credentials, opts ...Option) Client {
	c := &httpClient{
		creds:   creds,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(2), 4),
		retry:   resilience.DefaultPolicy(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// ensureToken obtains or refreshes the access token. A 60 second buffer
// avoids using a token that expires mid-request.
func (c *httpClient) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.expiresAt.Add(-60*time.Second)) {
		return c.accessToken, nil
	}

	form := url.Values{
		"client_id":     {c.creds.ClientID},
		"client_secret": {c.creds.ClientSecret},
	}
	if c.refreshToken != "" {
		form.Set("grant_type", "refresh_token")
		form.Set("refresh_token", c.refreshToken)
	} else {
		form.Set("grant_type", "password")
		form.Set("username", c.creds.Username)
		form.Set("password", c.creds.Password)
		form.Set("scope", "read")
	}

	tok, err := c.requestToken(ctx, form)
	if err != nil && c.refreshToken != "" {
		// Refresh failed; fall back to a full password grant.
		c.refreshToken = ""
		form.Set("grant_type", "password")
		form.Del("refresh_token")
		form.Set("username", c.creds.Username)
		form.Set("password", c.creds.Password)
		form.Set("scope", "read")
		tok, err = c.requestToken(ctx, form)
	}
	if err != nil {
		return "", err
	}

	c.accessToken = tok.AccessToken
	c.refreshToken = tok.RefreshToken
	c.expiresAt = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return c.accessToken, nil
}

func (c *httpClient) requestToken(ctx context.Context, form url.Values) (*tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, eris.Wrap(err, "govwin: create token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "govwin: send token request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "govwin: read token response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("govwin: authentication failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, eris.Wrap(err, "govwin: unmarshal token response")
	}
	if tok.AccessToken == "" {
		return nil, eris.New("govwin: token response missing access_token")
	}
	return &tok, nil
}

func (c *httpClient) invalidateToken() {
	c.mu.Lock()
	c.accessToken = ""
	c.mu.Unlock()
}

func (c *httpClient) Search(ctx context.Context, query string, max int) ([]Record, error) {
	if max <= 0 {
		max = 10
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("max", strconv.Itoa(max))

	body, err := c.get(ctx, "/opportunities?"+q.Encode())
	if err != nil {
		return nil, eris.Wrap(err, "govwin: search opportunities")
	}

	var envelope struct {
		Opportunities []json.RawMessage `json:"opportunities"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, eris.Wrap(err, "govwin: unmarshal search response")
	}
	return decodeRecords(envelope.Opportunities)
}

func (c *httpClient) GetOpportunity(ctx context.Context, govwinID string) (*Record, error) {
	body, err := c.get(ctx, "/opportunities/"+url.PathEscape(govwinID))
	if err != nil {
		return nil, eris.Wrapf(err, "govwin: get opportunity %s", govwinID)
	}

	// The detail endpoint wraps single records in the same envelope as search.
	var envelope struct {
		Opportunities []json.RawMessage `json:"opportunities"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Opportunities) > 0 {
		recs, err := decodeRecords(envelope.Opportunities[:1])
		if err != nil {
			return nil, err
		}
		return &recs[0], nil
	}

	var rec Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, eris.Wrapf(err, "govwin: unmarshal opportunity %s", govwinID)
	}
	rec.RawJSON = json.RawMessage(body)
	return &rec, nil
}

func (c *httpClient) GetContracts(ctx context.Context, govwinID string) ([]ContractRecord, error) {
	body, err := c.get(ctx, "/opportunities/"+url.PathEscape(govwinID)+"/contracts")
	if err != nil {
		return nil, eris.Wrapf(err, "govwin: get contracts for %s", govwinID)
	}

	var envelope struct {
		Contracts []json.RawMessage `json:"contracts"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, eris.Wrap(err, "govwin: unmarshal contracts response")
	}

	contracts := make([]ContractRecord, 0, len(envelope.Contracts))
	for _, raw := range envelope.Contracts {
		var cr ContractRecord
		if err := json.Unmarshal(raw, &cr); err != nil {
			return nil, eris.Wrap(err, "govwin: unmarshal contract")
		}
		cr.RawJSON = raw
		contracts = append(contracts, cr)
	}
	return contracts, nil
}

func decodeRecords(raws []json.RawMessage) ([]Record, error) {
	recs := make([]Record, 0, len(raws))
	for _, raw := range raws {
		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, eris.Wrap(err, "govwin: unmarshal opportunity")
		}
		rec.RawJSON = raw
		recs = append(recs, rec)
	}
	return recs, nil
}

func (c *httpClient) get(ctx context.Context, path string) ([]byte, error) {
	return resilience.Retry(ctx, c.retry, "govwin.get", func(ctx context.Context) ([]byte, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "govwin: rate limiter")
		}

		token, err := c.ensureToken(ctx)
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, eris.Wrap(err, "govwin: create request")
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "govwin: send request")
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrap(err, "govwin: read response")
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return body, nil
		case resp.StatusCode == http.StatusUnauthorized:
			// Token revoked or expired early; re-authenticate on retry.
			c.invalidateToken()
			return nil, resilience.NewTransientError(
				eris.Errorf("govwin: unauthorized: %s", string(body)), resp.StatusCode)
		case resilience.IsTransientHTTPStatus(resp.StatusCode):
			return nil, resilience.NewTransientError(
				eris.Errorf("govwin: unexpected status %d: %s", resp.StatusCode, string(body)), resp.StatusCode)
		default:
			return nil, eris.Errorf("govwin: unexpected status %d: %s", resp.StatusCode, string(body))
		}
	})
}
