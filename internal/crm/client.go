// Package crm talks to the Salesforce REST API: password-grant login and
// SOQL queries over an authenticated session.
package crm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	defaultLoginURL   = "https://login.salesforce.com"
	defaultAPIVersion = "v59.0"
	maxErrorBody      = 64 * 1024
)

// Session is an authenticated CRM session: the access token and the instance
// endpoint it is valid for.
type Session struct {
	Token     string    `json:"token"`
	ServerURL string    `json:"server_url"`
	IssuedAt  time.Time `json:"issued_at"`
}

// Querier runs SOQL queries over one session.
type Querier interface {
	Query(ctx context.Context, q Query) ([]Record, error)
}

// Options configures a Client.
type Options struct {
	LoginURL     string
	APIVersion   string
	ClientID     string
	ClientSecret string
	// QueryRate caps outbound queries per second across all connections.
	// Zero or negative disables the limit.
	QueryRate  float64
	HTTPClient *http.Client
}

// Client logs in to the CRM and builds connections from sessions.
type Client struct {
	oauth      *oauth2.Config
	apiVersion string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(opts Options) *Client {
	loginURL := strings.TrimRight(strings.TrimSpace(opts.LoginURL), "/")
	if loginURL == "" {
		loginURL = defaultLoginURL
	}
	apiVersion := strings.TrimSpace(opts.APIVersion)
	if apiVersion == "" {
		apiVersion = defaultAPIVersion
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	limit := rate.Inf
	if opts.QueryRate > 0 {
		limit = rate.Limit(opts.QueryRate)
	}

	return &Client{
		oauth: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  loginURL + "/services/oauth2/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		apiVersion: apiVersion,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// Login authenticates with username and password and returns a new session.
func (c *Client) Login(ctx context.Context, username, password string) (Session, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	token, err := c.oauth.PasswordCredentialsToken(ctx, username, password)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return Session{}, fmt.Errorf("%w: %s", ErrAuthentication, describeRetrieveError(retrieveErr))
		}
		return Session{}, fmt.Errorf("login: %w", err)
	}

	instanceURL, _ := token.Extra("instance_url").(string)
	if strings.TrimSpace(instanceURL) == "" {
		return Session{}, fmt.Errorf("%w: token response has no instance_url", ErrAuthentication)
	}

	return Session{
		Token:     token.AccessToken,
		ServerURL: strings.TrimRight(instanceURL, "/"),
		IssuedAt:  time.Now().UTC(),
	}, nil
}

// Connect builds a connection that authenticates with the session token. It
// makes no network call.
func (c *Client) Connect(ctx context.Context, session Session) Querier {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	source := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: session.Token,
		TokenType:   "Bearer",
	})
	httpClient := oauth2.NewClient(ctx, source)
	httpClient.Timeout = c.httpClient.Timeout
	return &Connection{
		http:       httpClient,
		baseURL:    strings.TrimRight(session.ServerURL, "/"),
		apiVersion: c.apiVersion,
		limiter:    c.limiter,
	}
}

// Connection is an authenticated CRM connection.
type Connection struct {
	http       *http.Client
	baseURL    string
	apiVersion string
	limiter    *rate.Limiter
}

type queryResponse struct {
	TotalSize int      `json:"totalSize"`
	Done      bool     `json:"done"`
	Records   []Record `json:"records"`
}

type apiErrorBody struct {
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode"`
}

// Query renders q and returns the first page of matching records.
func (c *Connection) Query(ctx context.Context, q Query) ([]Record, error) {
	soql, err := q.Render()
	if err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for query slot: %w", err)
	}

	endpoint := fmt.Sprintf("%s/services/data/%s/query?q=%s", c.baseURL, c.apiVersion, url.QueryEscape(soql))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build query request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeAPIError(resp)
	}

	var body queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode query response: %w", err)
	}
	for _, record := range body.Records {
		delete(record, "attributes")
	}
	return body.Records, nil
}

func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}

	var bodies []apiErrorBody
	if err := json.Unmarshal(raw, &bodies); err == nil && len(bodies) > 0 {
		apiErr.Code = bodies[0].ErrorCode
		apiErr.Message = bodies[0].Message
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

func describeRetrieveError(err *oauth2.RetrieveError) string {
	if err.ErrorCode != "" {
		if err.ErrorDescription != "" {
			return err.ErrorCode + ": " + err.ErrorDescription
		}
		return err.ErrorCode
	}
	if err.Response != nil {
		return err.Response.Status
	}
	return "token request rejected"
}
