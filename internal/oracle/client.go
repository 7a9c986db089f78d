package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
)

const (
	userAgent       = "Mozilla/5.0 (compatible; finance-tracker/1.0)"
	USDINRTicker    = "INR=X"
	MAX_BODY_LENGTH = 4 << 20
)

type Quote struct {
	Ticker   string
	Price    decimal.Decimal
	Currency string
	Exchange string
}

type SearchResult struct {
	Symbol    string
	Name      string
	QuoteType string
	Exchange  string
}

// Client talks to a Yahoo-Finance-compatible quote service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return NewClientWithHTTP(baseURL, &http.Client{Timeout: timeout})
}

func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// LatestQuote returns the last non-null daily close of ticker.
func (c *Client) LatestQuote(ctx context.Context, ticker string) (Quote, error) {
	const op = "quote"

	query := url.Values{}
	query.Set("range", "1d")
	query.Set("interval", "1d")

	jobj, err := c.getJSON(ctx, op, ticker, "/v8/finance/chart/"+url.PathEscape(ticker), query)
	if err != nil {
		return Quote{}, err
	}

	results, err := jsonpath.Get("$.chart.result", jobj)
	if list, ok := results.([]any); err != nil || !ok || len(list) == 0 {
		return Quote{}, &Error{Kind: KindNotFound, Op: op, Ticker: ticker, Err: errors.New("empty chart result")}
	}

	closes, err := jsonpath.Get("$.chart.result[0].indicators.quote[0].close", jobj)
	if err != nil {
		return Quote{}, &Error{Kind: KindMalformed, Op: op, Ticker: ticker, Err: err}
	}
	list, ok := closes.([]any)
	if !ok {
		return Quote{}, &Error{Kind: KindMalformed, Op: op, Ticker: ticker, Err: fmt.Errorf("close is %T, not a list", closes)}
	}

	var price decimal.Decimal
	found := false
	for i := len(list) - 1; i >= 0; i-- {
		if v, ok := list[i].(float64); ok {
			price = decimal.NewFromFloat(v)
			found = true
			break
		}
	}
	if !found || !price.IsPositive() {
		return Quote{}, &Error{Kind: KindNotFound, Op: op, Ticker: ticker, Err: errors.New("no close price in history")}
	}

	return Quote{
		Ticker:   ticker,
		Price:    price,
		Currency: optionalString(jobj, "$.chart.result[0].meta.currency"),
		Exchange: optionalString(jobj, "$.chart.result[0].meta.exchangeName"),
	}, nil
}

// USDINRRate returns how many rupees one US dollar buys.
func (c *Client) USDINRRate(ctx context.Context) (decimal.Decimal, error) {
	q, err := c.LatestQuote(ctx, USDINRTicker)
	if err != nil {
		return decimal.Zero, err
	}
	return q.Price, nil
}

// Search looks up symbols matching query. Results keep the service's order.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	const op = "search"

	params := url.Values{}
	params.Set("q", query)
	params.Set("quotesCount", strconv.Itoa(limit))
	params.Set("newsCount", "0")

	jobj, err := c.getJSON(ctx, op, "", "/v1/finance/search", params)
	if err != nil {
		return nil, err
	}

	jval, err := jsonpath.Get("$.quotes", jobj)
	if err != nil {
		return nil, &Error{Kind: KindMalformed, Op: op, Err: err}
	}
	quotes, ok := jval.([]any)
	if !ok {
		return nil, &Error{Kind: KindMalformed, Op: op, Err: fmt.Errorf("quotes is %T, not a list", jval)}
	}

	results := make([]SearchResult, 0, len(quotes))
	for _, q := range quotes {
		m, ok := q.(map[string]any)
		if !ok {
			continue
		}
		results = append(results, SearchResult{
			Symbol:    firstString(m, "symbol"),
			Name:      firstString(m, "longname", "shortname"),
			QuoteType: firstString(m, "quoteType"),
			Exchange:  firstString(m, "exchDisp", "exchange"),
		})
	}
	return results, nil
}

func (c *Client) getJSON(ctx context.Context, op, ticker, path string, query url.Values) (any, error) {
	addr := c.baseURL + path
	if len(query) > 0 {
		addr += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, &Error{Kind: KindMalformed, Op: op, Ticker: ticker, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindUnavailable, Op: op, Ticker: ticker, Err: transportError(err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &Error{Kind: KindNotFound, Op: op, Ticker: ticker, Err: errors.New(resp.Status)}
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &Error{Kind: KindRateLimited, Op: op, Ticker: ticker, Err: errors.New(resp.Status)}
	case resp.StatusCode != http.StatusOK:
		return nil, &Error{Kind: KindUnavailable, Op: op, Ticker: ticker, Err: errors.New(resp.Status)}
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(resp.Body, MAX_BODY_LENGTH)); err != nil {
		return nil, &Error{Kind: KindUnavailable, Op: op, Ticker: ticker, Err: transportError(err)}
	}

	var jobj any
	if err := json.Unmarshal(buf.Bytes(), &jobj); err != nil {
		return nil, &Error{Kind: KindMalformed, Op: op, Ticker: ticker, Err: err}
	}
	return jobj, nil
}

func transportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("timeout: %w", err)
	}
	return err
}

func optionalString(jobj any, path string) string {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return ""
	}
	// jsonpath may answer with a list of one
	if list, ok := jval.([]any); ok && len(list) > 0 {
		jval = list[0]
	}
	s, _ := jval.(string)
	return s
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
