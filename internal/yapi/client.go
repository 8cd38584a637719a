// Package yapi reads projects and interface definitions from a YApi server
// through its open API.
package yapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/yourorg/yapits/internal/filter"
	"github.com/yourorg/yapits/pkg/types"
)

const (
	DefaultTimeout    = 10 * time.Second
	DefaultMaxRetries = 3
	DefaultPageLimit  = 20
)

// APIError is a YApi envelope with a non-zero errcode.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("yapi errcode %d: %s", e.Code, e.Message)
}

// Client talks to one YApi server.
type Client struct {
	BaseURL    string
	Token      string
	Cookie     string
	MaxRetries int
	HTTPClient *http.Client
	Limiter    *rate.Limiter
	Logger     *zap.Logger
	// Sanitize keeps the token and cookie out of logs and transport errors.
	Sanitize filter.SanitizeConfig
}

var sleepFn = time.Sleep

// NewClient builds a client with the default timeout and a limiter allowing
// perSecond requests per second. perSecond <= 0 disables limiting.
func NewClient(baseURL, token, cookie string, perSecond float64, logger *zap.Logger) *Client {
	c := &Client{
		BaseURL:    baseURL,
		Token:      token,
		Cookie:     cookie,
		MaxRetries: DefaultMaxRetries,
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
		Logger:     logger,
	}
	c.Sanitize.SetDefaults()
	if perSecond > 0 {
		c.Limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
	return c
}

// Project returns the base path and name of a project.
func (c *Client) Project(ctx context.Context, id int) (*types.ProjectInfo, error) {
	var raw rawProject
	if err := c.get(ctx, "/api/project/get", url.Values{"id": {strconv.Itoa(id)}}, &raw); err != nil {
		return nil, errors.Wrapf(err, "get project %d", id)
	}
	return &types.ProjectInfo{ID: raw.ID, Name: raw.Name, BasePath: raw.BasePath}, nil
}

// Interface returns one endpoint definition.
func (c *Client) Interface(ctx context.Context, id int) (*types.ApiDocument, error) {
	var raw rawInterface
	if err := c.get(ctx, "/api/interface/get", url.Values{"id": {strconv.Itoa(id)}}, &raw); err != nil {
		return nil, errors.Wrapf(err, "get interface %d", id)
	}
	doc := raw.document()
	return &doc, nil
}

// CategoryPage is one page of a category listing. Total is the number of
// pages YApi reports.
type CategoryPage struct {
	Count int
	Total int
	List  []types.InterfaceSummary
}

// CategoryInterfaces lists one page of a category. page and limit default to
// 1 and 20.
func (c *Client) CategoryInterfaces(ctx context.Context, catID, page, limit int) (*CategoryPage, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	q := url.Values{
		"catid": {strconv.Itoa(catID)},
		"page":  {strconv.Itoa(page)},
		"limit": {strconv.Itoa(limit)},
	}
	var raw struct {
		Count int            `json:"count"`
		Total int            `json:"total"`
		List  []rawInterface `json:"list"`
	}
	if err := c.get(ctx, "/api/interface/list_cat", q, &raw); err != nil {
		return nil, errors.Wrapf(err, "list category %d page %d", catID, page)
	}
	out := &CategoryPage{Count: raw.Count, Total: raw.Total, List: make([]types.InterfaceSummary, 0, len(raw.List))}
	for _, r := range raw.List {
		out.List = append(out.List, types.InterfaceSummary{
			ID:         r.ID,
			CategoryID: r.CatID,
			ProjectID:  r.ProjectID,
			Path:       r.Path,
			Method:     r.Method,
			Title:      r.Title,
		})
	}
	return out, nil
}

// AllCategoryInterfaces walks every page of a category in listing order.
func (c *Client) AllCategoryInterfaces(ctx context.Context, catID int) ([]types.InterfaceSummary, error) {
	var out []types.InterfaceSummary
	for page := 1; ; page++ {
		p, err := c.CategoryInterfaces(ctx, catID, page, DefaultPageLimit)
		if err != nil {
			return nil, err
		}
		out = append(out, p.List...)
		if len(p.List) == 0 || page >= p.Total || (p.Count > 0 && len(out) >= p.Count) {
			return out, nil
		}
	}
}

type envelope struct {
	ErrCode int             `json:"errcode"`
	ErrMsg  string          `json:"errmsg"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	if c.Token != "" {
		q.Set("token", c.Token)
	}
	endpoint := strings.TrimRight(c.BaseURL, "/") + path + "?" + q.Encode()
	redacted := filter.RedactURL(endpoint, c.sanitize())
	c.debug("yapi request", zap.String("url", redacted))

	var lastErr error
	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if c.Limiter != nil {
			if err := c.Limiter.Wait(ctx); err != nil {
				return errors.Wrap(err, "rate limit")
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		if c.Cookie != "" {
			req.Header.Set("Cookie", c.Cookie)
		}

		if attempt == 0 && c.Logger != nil && c.Logger.Core().Enabled(zap.DebugLevel) {
			c.debug("yapi request headers", zap.Any("headers", filter.RedactHeaders(req.Header, c.sanitize())))
		}

		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var ue *url.Error
			if errors.As(err, &ue) {
				ue.URL = redacted
			}
			lastErr = err
			c.debug("yapi request failed", zap.Int("attempt", attempt), zap.Error(err))
			if attempt < c.MaxRetries {
				sleepFn(backoff(attempt))
				continue
			}
			return err
		}
		data, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = err
			if attempt < c.MaxRetries {
				sleepFn(backoff(attempt))
				continue
			}
			return err
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = errors.Newf("yapi status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
			if attempt < c.MaxRetries {
				wait := backoff(attempt)
				if resp.StatusCode == http.StatusTooManyRequests {
					if ra := strings.TrimSpace(resp.Header.Get("Retry-After")); ra != "" {
						if secs, err := strconv.Atoi(ra); err == nil {
							wait = time.Duration(secs) * time.Second
						}
					}
				}
				sleepFn(wait)
				continue
			}
			return lastErr
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return errors.Newf("yapi status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return errors.Wrap(err, "decode yapi envelope")
		}
		if env.ErrCode != 0 {
			return &APIError{Code: env.ErrCode, Message: env.ErrMsg}
		}
		if len(env.Data) == 0 || string(env.Data) == "null" {
			return errors.New("yapi response has no data")
		}
		return errors.Wrap(json.Unmarshal(env.Data, out), "decode yapi data")
	}
	if lastErr == nil {
		lastErr = errors.New("yapi request failed")
	}
	return lastErr
}

func (c *Client) sanitize() filter.SanitizeConfig {
	s := c.Sanitize
	s.SetDefaults()
	return s
}

func (c *Client) debug(msg string, fields ...zap.Field) {
	if c.Logger != nil {
		c.Logger.Debug(msg, fields...)
	}
}

func backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	return 500 * time.Millisecond << attempt
}
