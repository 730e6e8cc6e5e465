package pocket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	defaultBaseURL = "https://getpocket.com/v3"
	defaultSiteURL = "https://getpocket.com"

	authorizeURLFormat = "%s/oauth/authorize?request_token=%s&redirect_uri=%s"

	endpointRequestToken = "/oauth/request"
	endpointAuthorize    = "/oauth/authorize"
	endpointGet          = "/get"

	// xErrorHeader used to parse error message from Headers on non-2XX responses
	xErrorHeader  = "X-Error"
	xAcceptHeader = "X-Accept"

	// Bodies are form encoded despite this content type.
	contentType = "application/json; charset=UTF-8"
	acceptType  = "application/json"

	defaultTimeout = 5 * time.Second

	// defaultMaxBodySize caps how much of a response body is read.
	defaultMaxBodySize = 32 << 20
)

// Client is a Pocket API client. It keeps no per-call state and can be
// shared between goroutines.
type Client struct {
	client      *http.Client
	consumerKey string
	baseURL     string
	siteURL     string
	userAgent   string
	maxBodySize int64
	logger      zerolog.Logger
}

// NewClient creates a client for the application identified by consumerKey.
// The key is not validated; Pocket rejects requests made with a bad one.
func NewClient(consumerKey string, opts ...Option) *Client {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: o.timeout,
		}
	}

	return &Client{
		client:      httpClient,
		consumerKey: consumerKey,
		baseURL:     o.baseURL,
		siteURL:     o.siteURL,
		userAgent:   o.userAgent,
		maxBodySize: o.maxBody,
		logger:      o.logger,
	}
}

// ConsumerKey returns the application key the client was created with.
func (c *Client) ConsumerKey() string {
	return c.consumerKey
}

// GetRequestToken obtains the request token that is used to authorize user in your application
func (c *Client) GetRequestToken(ctx context.Context, redirectURL string) (*RequestTokenResult, error) {
	const op = "request token"

	form := url.Values{
		"consumer_key": {c.consumerKey},
		"redirect_uri": {redirectURL},
	}

	var result RequestTokenResult
	body, status, err := c.doHTTP(ctx, op, endpointRequestToken, form, &result)
	if err != nil {
		return nil, err
	}

	if result.Code == "" {
		return nil, &DecodeError{
			Op:         op,
			StatusCode: status,
			Body:       body,
			Err:        errors.New("empty request token in API response"),
		}
	}

	return &result, nil
}

// GetAuthorizationURL generates link to authorize user.
// Both values are inserted as given, without escaping.
func (c *Client) GetAuthorizationURL(requestToken string, redirectURL string) string {
	return fmt.Sprintf(authorizeURLFormat, c.siteURL, requestToken, redirectURL)
}

// Authorize generates access token for user, that authorized in your app via link.
// Pocket answers with an error status until the user has approved the request token.
func (c *Client) Authorize(ctx context.Context, requestToken string) (*AccessTokenResult, error) {
	const op = "authorize"

	form := url.Values{
		"consumer_key": {c.consumerKey},
		"code":         {requestToken},
	}

	var result AccessTokenResult
	body, status, err := c.doHTTP(ctx, op, endpointAuthorize, form, &result)
	if err != nil {
		return nil, err
	}

	if result.AccessToken == "" {
		return nil, &DecodeError{
			Op:         op,
			StatusCode: status,
			Body:       body,
			Err:        errors.New("empty access token in API response"),
		}
	}

	return &result, nil
}

// Retrieve fetches every item of the user's list with complete details.
func (c *Client) Retrieve(ctx context.Context, accessToken string) (*ListResponse, error) {
	const op = "get"

	form := url.Values{
		"consumer_key": {c.consumerKey},
		"access_token": {accessToken},
		"state":        {"all"},
		"detailType":   {"complete"},
	}

	var result ListResponse
	body, status, err := c.doHTTP(ctx, op, endpointGet, form, &result)
	if err != nil {
		return nil, err
	}

	if result.Error != nil {
		return nil, &RemoteError{Op: op, Message: *result.Error}
	}

	if result.List == nil {
		return nil, &DecodeError{
			Op:         op,
			StatusCode: status,
			Body:       body,
			Err:        errors.New("missing list in API response"),
		}
	}

	c.logger.Debug().
		Int("items", len(result.List)).
		Int("status", result.Status).
		Int64("since", result.Since).
		Msg("Retrieved Pocket list")

	return &result, nil
}

// doHTTP posts form to endpoint and decodes the JSON answer into out.
// It returns the raw body and status code for callers that need to build
// their own DecodeError.
func (c *Client) doHTTP(ctx context.Context, op, endpoint string, form url.Values, out interface{}) (string, int, error) {
	requestURL := c.baseURL + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, &TransportError{Op: op, Err: errors.WithMessage(err, "failed to create new request")}
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set(xAcceptHeader, acceptType)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	c.logger.Debug().Str("op", op).Str("url", requestURL).Msg("Making Pocket API request")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", 0, &TransportError{Op: op, Err: errors.WithMessage(err, "failed to send http request")}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize+1))
	if err != nil {
		return "", resp.StatusCode, &TransportError{Op: op, Err: errors.WithMessage(err, "failed to read response body")}
	}
	if int64(len(raw)) > c.maxBodySize {
		return "", resp.StatusCode, &DecodeError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        errors.Errorf("response body exceeds %d bytes", c.maxBodySize),
		}
	}
	body := string(raw)

	c.logger.Debug().
		Str("op", op).
		Int("status", resp.StatusCode).
		Int("bytes", len(raw)).
		Msg("Pocket API response")
	c.logger.Trace().Str("op", op).Str("body", body).Msg("Pocket API response body")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return body, resp.StatusCode, &DecodeError{
			Op:         op,
			StatusCode: resp.StatusCode,
			XError:     resp.Header.Get(xErrorHeader),
			Body:       body,
			Err:        errors.Errorf("unexpected status code %d", resp.StatusCode),
		}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return body, resp.StatusCode, &DecodeError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       body,
			Err:        errors.WithMessage(err, "failed to parse response body"),
		}
	}

	return body, resp.StatusCode, nil
}
