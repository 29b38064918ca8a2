// Package crmclient is a Go client for the CRM API plus a cached store of
// leads and properties that stays in sync with the server after mutations.
package crmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"estate_crm_backend/platform/logger"
)

const (
	defaultTimeout    = 30 * time.Second
	headerTotalCount  = "X-Total-Count"
	headerIdempotency = "Idempotency-Key"
	formFieldDocument = "document"
)

// Client calls the CRM REST API. baseURL is the API root, e.g. http://localhost:5000/api.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func WithLogger(log *logger.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// New creates an API client.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListLeads returns one page of leads and the number of matching leads.
func (c *Client) ListLeads(ctx context.Context, opts ListOptions) ([]Lead, int, error) {
	var leads []Lead
	header, err := c.doJSON(ctx, http.MethodGet, "/leads"+opts.query(), nil, &leads)
	if err != nil {
		return nil, 0, err
	}
	return leads, totalCount(header, len(leads)), nil
}

func (c *Client) GetLead(ctx context.Context, id string) (Lead, error) {
	var lead Lead
	_, err := c.doJSON(ctx, http.MethodGet, "/leads/"+url.PathEscape(id), nil, &lead)
	return lead, err
}

func (c *Client) CreateLead(ctx context.Context, in LeadInput) (Lead, error) {
	var lead Lead
	_, err := c.doJSON(ctx, http.MethodPost, "/leads", in, &lead)
	return lead, err
}

func (c *Client) UpdateLead(ctx context.Context, id string, patch LeadPatch) (Lead, error) {
	var lead Lead
	_, err := c.doJSON(ctx, http.MethodPut, "/leads/"+url.PathEscape(id), patch, &lead)
	return lead, err
}

func (c *Client) DeleteLead(ctx context.Context, id string) error {
	_, err := c.doJSON(ctx, http.MethodDelete, "/leads/"+url.PathEscape(id), nil, nil)
	return err
}

// UploadDocument streams doc as multipart form data and returns the updated
// lead. A non-empty idempotencyKey makes retries of the same upload safe.
func (c *Client) UploadDocument(ctx context.Context, leadID string, doc Document, idempotencyKey string) (Lead, error) {
	if doc.Reader == nil {
		return Lead{}, fmt.Errorf("upload document: nil reader")
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile(formFieldDocument, doc.FileName)
		if err == nil {
			_, err = io.Copy(part, doc.Reader)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := c.newRequest(ctx, http.MethodPost, "/leads/"+url.PathEscape(leadID)+"/upload", pr)
	if err != nil {
		pr.Close()
		return Lead{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if idempotencyKey != "" {
		req.Header.Set(headerIdempotency, idempotencyKey)
	}

	var lead Lead
	_, err = c.do(req, &lead)
	return lead, err
}

// DocumentURL returns the reference URL of the document at index.
func (c *Client) DocumentURL(ctx context.Context, leadID string, index int) (string, error) {
	var out struct {
		DownloadURL string `json:"downloadUrl"`
	}
	path := fmt.Sprintf("/leads/%s/download/%d", url.PathEscape(leadID), index)
	if _, err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return "", err
	}
	return out.DownloadURL, nil
}

// ListProperties returns one page of properties whose location contains opts.Search.
func (c *Client) ListProperties(ctx context.Context, opts ListOptions) ([]Property, int, error) {
	var properties []Property
	header, err := c.doJSON(ctx, http.MethodGet, "/properties"+opts.query(), nil, &properties)
	if err != nil {
		return nil, 0, err
	}
	return properties, totalCount(header, len(properties)), nil
}

func (c *Client) GetProperty(ctx context.Context, id string) (Property, error) {
	var property Property
	_, err := c.doJSON(ctx, http.MethodGet, "/properties/"+url.PathEscape(id), nil, &property)
	return property, err
}

func (c *Client) CreateProperty(ctx context.Context, in PropertyInput) (Property, error) {
	var property Property
	_, err := c.doJSON(ctx, http.MethodPost, "/properties", in, &property)
	return property, err
}

func (c *Client) UpdateProperty(ctx context.Context, id string, patch PropertyPatch) (Property, error) {
	var property Property
	_, err := c.doJSON(ctx, http.MethodPut, "/properties/"+url.PathEscape(id), patch, &property)
	return property, err
}

func (c *Client) DeleteProperty(ctx context.Context, id string) error {
	_, err := c.doJSON(ctx, http.MethodDelete, "/properties/"+url.PathEscape(id), nil, nil)
	return err
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) (http.Header, error) {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, out interface{}) (http.Header, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("crm api request failed", "error", err, "method", req.Method, "url", req.URL.String())
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil {
			c.log.Debug("crm api error body not json", "status", resp.StatusCode)
		}
		c.log.Warn("crm api error", "status", resp.StatusCode, "method", req.Method, "url", req.URL.String(), "message", apiErr.Message)
		return resp.Header, apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.Header, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.Header, nil
}

func (o ListOptions) query() string {
	params := url.Values{}
	if o.Search != "" {
		params.Set("search", o.Search)
	}
	if o.Page > 0 {
		params.Set("page", strconv.Itoa(o.Page))
	}
	if o.Limit > 0 {
		params.Set("limit", strconv.Itoa(o.Limit))
	}
	if len(params) == 0 {
		return ""
	}
	return "?" + params.Encode()
}

func totalCount(header http.Header, fallback int) int {
	total, err := strconv.Atoi(header.Get(headerTotalCount))
	if err != nil {
		return fallback
	}
	return total
}
