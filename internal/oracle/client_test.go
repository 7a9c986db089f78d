package oracle

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartAAPL = `{"chart":{"result":[{"meta":{"currency":"USD","symbol":"AAPL","exchangeName":"NMS"},
"indicators":{"quote":[{"close":[187.5,189.25,null]}]}}],"error":null}}`

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 2*time.Second)
}

func TestLatestQuote(t *testing.T) {
	var gotPath, gotRange, gotUA string
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRange = r.URL.Query().Get("range")
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, chartAAPL)
	})

	q, err := client.LatestQuote(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/AAPL", gotPath)
	assert.Equal(t, "1d", gotRange)
	assert.NotEmpty(t, gotUA)
	assert.Equal(t, "189.25", q.Price.String())
	assert.Equal(t, "USD", q.Currency)
	assert.Equal(t, "NMS", q.Exchange)
}

func TestLatestQuote_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind Kind
	}{
		{name: "unknown ticker", status: http.StatusNotFound, body: `{"chart":{"result":null,"error":{"code":"Not Found"}}}`, wantKind: KindNotFound},
		{name: "rate limited", status: http.StatusTooManyRequests, body: `Too Many Requests`, wantKind: KindRateLimited},
		{name: "server error", status: http.StatusBadGateway, body: ``, wantKind: KindUnavailable},
		{name: "not json", status: http.StatusOK, body: `<html>`, wantKind: KindMalformed},
		{name: "null result", status: http.StatusOK, body: `{"chart":{"result":null}}`, wantKind: KindNotFound},
		{name: "no close values", status: http.StatusOK, body: `{"chart":{"result":[{"meta":{},"indicators":{"quote":[{"close":[null,null]}]}}]}}`, wantKind: KindNotFound},
		{name: "missing indicators", status: http.StatusOK, body: `{"chart":{"result":[{"meta":{}}]}}`, wantKind: KindMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})

			_, err := client.LatestQuote(context.Background(), "ZZZZ")
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, KindOf(err))
		})
	}
}

func TestLatestQuote_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 50*time.Millisecond)
	_, err := client.LatestQuote(context.Background(), "AAPL")

	require.Error(t, err)
	assert.Equal(t, KindUnavailable, KindOf(err))
	assert.Contains(t, err.Error(), "timeout")
}

func TestUSDINRRate(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/INR=X", r.URL.Path)
		fmt.Fprint(w, `{"chart":{"result":[{"meta":{"currency":"INR"},"indicators":{"quote":[{"close":[83.1,83.42]}]}}]}}`)
	})

	rate, err := client.USDINRRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "83.42", rate.String())
}

func TestSearch(t *testing.T) {
	var gotQuery, gotCount string
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotCount = r.URL.Query().Get("quotesCount")
		fmt.Fprint(w, `{"quotes":[
			{"symbol":"RELIANCE.NS","longname":"Reliance Industries Limited","shortname":"RELIANCE","quoteType":"EQUITY","exchDisp":"NSE"},
			{"symbol":"BTC-USD","shortname":"Bitcoin USD","quoteType":"CRYPTOCURRENCY","exchange":"CCC"},
			"garbage"
		]}`)
	})

	results, err := client.Search(context.Background(), "rel", 5)
	require.NoError(t, err)

	assert.Equal(t, "rel", gotQuery)
	assert.Equal(t, "5", gotCount)
	assert.Equal(t, []SearchResult{
		{Symbol: "RELIANCE.NS", Name: "Reliance Industries Limited", QuoteType: "EQUITY", Exchange: "NSE"},
		{Symbol: "BTC-USD", Name: "Bitcoin USD", QuoteType: "CRYPTOCURRENCY", Exchange: "CCC"},
	}, results)
}

func TestSearch_MissingQuotes(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"news":[]}`)
	})

	_, err := client.Search(context.Background(), "x", 5)
	assert.Equal(t, KindMalformed, KindOf(err))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(fmt.Errorf("plain")))
	wrapped := fmt.Errorf("wrap: %w", &Error{Kind: KindRateLimited, Op: "quote"})
	assert.Equal(t, KindRateLimited, KindOf(wrapped))
}
