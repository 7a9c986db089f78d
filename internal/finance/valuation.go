package finance

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Rhymond/go-money"
	appErrors "github.com/fatali-fataliyev/finance_tracker/customErrors"
	"github.com/fatali-fataliyev/finance_tracker/internal/contextutil"
	"github.com/fatali-fataliyev/finance_tracker/internal/oracle"
	"github.com/fatali-fataliyev/finance_tracker/logging"
	"github.com/shopspring/decimal"
)

// InferCurrency picks the currency of a holding. Indian listings are always INR and crypto or gold
// are always quoted in USD; otherwise the first known ISO code among quoted and requested wins.
func InferCurrency(ticker, category, quoted, requested string) string {
	ticker = strings.ToUpper(ticker)
	if strings.HasSuffix(ticker, ".NS") || strings.HasSuffix(ticker, ".BO") {
		return "INR"
	}
	if category == CategoryCrypto || category == CategoryGold {
		return DefaultCurrency
	}
	if code := knownCurrency(quoted); code != "" {
		return code
	}
	if code := knownCurrency(requested); code != "" {
		return code
	}
	return DefaultCurrency
}

func knownCurrency(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || money.GetCurrency(code) == nil {
		return ""
	}
	return code
}

// FormatMoney renders amount with the symbol and separators of currency.
func FormatMoney(amount decimal.Decimal, currency string) string {
	if money.GetCurrency(currency) == nil {
		return amount.StringFixed(2) + " " + currency
	}
	// to get a never nil currency the Money constructor is needed
	cur := *money.New(0, currency).Currency()
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

func (t *Tracker) lookupQuote(ctx context.Context, ticker string) (oracle.Quote, bool) {
	if t.oracle == nil || ticker == "" {
		return oracle.Quote{}, false
	}
	q, err := t.oracle.LatestQuote(ctx, ticker)
	if err != nil {
		logging.Logger.Warnf("[TraceID=%s] | quote lookup for %q failed (%s) | Error: %v", contextutil.TraceIDFromContext(ctx), ticker, oracle.KindOf(err), err)
		return oracle.Quote{}, false
	}
	return q, true
}

func (t *Tracker) usdINRRate(ctx context.Context) (decimal.Decimal, bool) {
	if t.oracle == nil {
		return t.fallbackRate, true
	}
	rate, err := t.oracle.USDINRRate(ctx)
	if err != nil {
		logging.Logger.Warnf("[TraceID=%s] | USD/INR rate lookup failed (%s), using fallback %s | Error: %v", contextutil.TraceIDFromContext(ctx), oracle.KindOf(err), t.fallbackRate, err)
		return t.fallbackRate, true
	}
	return rate, false
}

// ListInvestments returns every holding together with a freshly fetched USD/INR rate.
func (t *Tracker) ListInvestments(ctx context.Context) (InvestmentList, error) {
	invs, err := t.storage.GetInvestments(ctx)
	if err != nil {
		return InvestmentList{}, fmt.Errorf("failed to get investments: %w", err)
	}
	rate, fallback := t.usdINRRate(ctx)
	return InvestmentList{
		Investments:    invs,
		Rate:           rate,
		RateIsFallback: fallback,
		Summary:        Summarize(invs, rate),
	}, nil
}

func (t *Tracker) GetInvestmentById(ctx context.Context, id string) (Investment, error) {
	inv, err := t.storage.GetInvestmentById(ctx, id)
	if err != nil {
		return Investment{}, fmt.Errorf("failed to get investment by id: %w", err)
	}
	return inv, nil
}

func normalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

func validateInvestment(inv Investment) error {
	if inv.Name == "" {
		return appErrors.InvalidInput("investment name is empty")
	}
	if err := validateLength("name", inv.Name, MAX_NAME_LENGTH); err != nil {
		return err
	}
	if inv.Ticker != "" {
		if err := validateLength("ticker", inv.Ticker, MAX_TICKER_LENGTH); err != nil {
			return err
		}
		if !tickerRegex.MatchString(inv.Ticker) {
			return appErrors.InvalidInput("invalid ticker: %q", inv.Ticker)
		}
	}
	if inv.Category == "" {
		return appErrors.InvalidInput("investment category is empty")
	}
	if err := validateLength("category", inv.Category, MAX_CATEGORY_LENGTH); err != nil {
		return err
	}
	if err := validateAmount("quantity", inv.Quantity, MAX_PRICE_LIMIT); err != nil {
		return err
	}
	if err := validateAmount("buy_price", inv.BuyPrice, MAX_PRICE_LIMIT); err != nil {
		return err
	}
	if inv.CurrentPrice.IsNegative() || inv.CurrentPrice.GreaterThan(MAX_PRICE_LIMIT) {
		return appErrors.InvalidInput("current_price must be between 0 and %s", MAX_PRICE_LIMIT.String())
	}
	if err := validateLength("exchange", inv.Exchange, MAX_EXCHANGE_LENGTH); err != nil {
		return err
	}
	return validateDate("date", inv.Date)
}

// SaveInvestment stores a new holding priced from the latest quote when one is available.
// Quote failures never fail the create.
func (t *Tracker) SaveInvestment(ctx context.Context, req InvestmentRequest) (Investment, error) {
	inv := Investment{
		ID:       newID(),
		Name:     strings.TrimSpace(req.Name),
		Ticker:   normalizeTicker(req.Ticker),
		Category: strings.TrimSpace(req.Category),
		Quantity: roundPrice(req.Quantity),
		BuyPrice: roundPrice(req.BuyPrice),
		Date:     strings.TrimSpace(req.Date),
		Exchange: strings.TrimSpace(req.Exchange),
	}
	if inv.Date == "" {
		inv.Date = t.today()
	}
	inv.CurrentPrice = inv.BuyPrice
	if req.CurrentPrice != nil {
		inv.CurrentPrice = roundPrice(*req.CurrentPrice)
	}

	// validate before going to the network
	if err := validateInvestment(inv); err != nil {
		return Investment{}, err
	}

	quote, ok := t.lookupQuote(ctx, inv.Ticker)
	if ok {
		inv.CurrentPrice = roundPrice(quote.Price)
	}
	inv.Currency = InferCurrency(inv.Ticker, inv.Category, quote.Currency, req.Currency)
	if inv.Exchange == "" {
		inv.Exchange = quote.Exchange
	}
	if inv.Exchange == "" {
		inv.Exchange = DefaultExchange
	}

	if err := validateInvestment(inv); err != nil {
		return Investment{}, err
	}
	if err := t.storage.SaveInvestment(ctx, inv); err != nil {
		return Investment{}, fmt.Errorf("failed to save investment: %w", err)
	}
	return inv, nil
}

// UpdateInvestment merges patch into the stored holding. The currency rules for Indian listings
// and crypto or gold are applied again to the merged record. A new ticker without an explicit
// currency falls back to the default instead of keeping the old listing's currency.
func (t *Tracker) UpdateInvestment(ctx context.Context, id string, patch InvestmentPatch) (Investment, error) {
	inv, err := t.storage.GetInvestmentById(ctx, id)
	if err != nil {
		return Investment{}, fmt.Errorf("failed to get investment by id: %w", err)
	}

	storedTicker := inv.Ticker
	if patch.Name != nil {
		inv.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Ticker != nil {
		inv.Ticker = normalizeTicker(*patch.Ticker)
	}
	if patch.Category != nil {
		inv.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.Quantity != nil {
		inv.Quantity = roundPrice(*patch.Quantity)
	}
	if patch.BuyPrice != nil {
		inv.BuyPrice = roundPrice(*patch.BuyPrice)
	}
	if patch.CurrentPrice != nil {
		inv.CurrentPrice = roundPrice(*patch.CurrentPrice)
	}
	if patch.Date != nil {
		inv.Date = strings.TrimSpace(*patch.Date)
	}
	if patch.Exchange != nil {
		inv.Exchange = strings.TrimSpace(*patch.Exchange)
		if inv.Exchange == "" {
			inv.Exchange = DefaultExchange
		}
	}
	// the stored currency belongs to the stored ticker
	requested := ""
	if inv.Ticker == storedTicker {
		requested = inv.Currency
	}
	if patch.Currency != nil {
		requested = *patch.Currency
	}
	inv.Currency = InferCurrency(inv.Ticker, inv.Category, "", requested)

	if err := validateInvestment(inv); err != nil {
		return Investment{}, err
	}
	if err := t.storage.UpdateInvestment(ctx, inv); err != nil {
		return Investment{}, fmt.Errorf("failed to update investment: %w", err)
	}
	return inv, nil
}

func (t *Tracker) DeleteInvestment(ctx context.Context, id string) error {
	if err := t.storage.DeleteInvestment(ctx, id); err != nil {
		return fmt.Errorf("failed to delete investment: %w", err)
	}
	return nil
}

// RefreshInvestmentPrices re-prices every holding that has a ticker and returns how many were
// updated. Failed lookups and failed writes are skipped; earlier updates are kept.
func (t *Tracker) RefreshInvestmentPrices(ctx context.Context) (int, error) {
	invs, err := t.storage.GetInvestments(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get investments: %w", err)
	}

	traceID := contextutil.TraceIDFromContext(ctx)
	updated := 0
	for _, inv := range invs {
		if inv.Ticker == "" {
			continue
		}
		quote, ok := t.lookupQuote(ctx, inv.Ticker)
		if !ok {
			continue
		}
		price := roundPrice(quote.Price)
		if price.IsNegative() || price.GreaterThan(MAX_PRICE_LIMIT) {
			logging.Logger.Warnf("[TraceID=%s] | skipping out of range quote %s for investment %s", traceID, price, inv.ID)
			continue
		}
		if err := t.storage.UpdateInvestmentPrice(ctx, inv.ID, price); err != nil {
			logging.Logger.Warnf("[TraceID=%s] | skipping price update of investment %s | Error: %v", traceID, inv.ID, err)
			continue
		}
		updated++
	}
	logging.Logger.Infof("[TraceID=%s] | refreshed %d of %d investments", traceID, updated, len(invs))
	return updated, nil
}

func newTotals(currency string) CurrencyTotals {
	return CurrencyTotals{Currency: currency}
}

func (c *CurrencyTotals) add(invested, current decimal.Decimal) {
	c.Invested = c.Invested.Add(invested)
	c.Current = c.Current.Add(current)
}

func (c *CurrencyTotals) finish() {
	c.Gain = c.Current.Sub(c.Invested)
	c.InvestedDisplay = FormatMoney(c.Invested, c.Currency)
	c.CurrentDisplay = FormatMoney(c.Current, c.Currency)
	c.GainDisplay = FormatMoney(c.Gain, c.Currency)
}

// Summarize totals holdings per currency, sorted by currency code, and converts the USD and INR
// holdings into one INR total using rate.
func Summarize(invs []Investment, rate decimal.Decimal) PortfolioSummary {
	byCurrency := make(map[string]*CurrencyTotals)
	total := newTotals("INR")

	for _, inv := range invs {
		cur := inv.Currency
		if cur == "" {
			cur = DefaultCurrency
		}
		ct, ok := byCurrency[cur]
		if !ok {
			c := newTotals(cur)
			ct = &c
			byCurrency[cur] = ct
		}
		ct.add(inv.Invested(), inv.CurrentValue())

		switch cur {
		case "INR":
			total.add(inv.Invested(), inv.CurrentValue())
		case "USD":
			total.add(inv.Invested().Mul(rate), inv.CurrentValue().Mul(rate))
		}
	}

	summary := PortfolioSummary{ByCurrency: make([]CurrencyTotals, 0, len(byCurrency))}
	for _, ct := range byCurrency {
		ct.finish()
		summary.ByCurrency = append(summary.ByCurrency, *ct)
	}
	sort.Slice(summary.ByCurrency, func(i, j int) bool {
		return summary.ByCurrency[i].Currency < summary.ByCurrency[j].Currency
	})
	total.Invested = total.Invested.Round(2)
	total.Current = total.Current.Round(2)
	total.finish()
	summary.TotalINR = total
	return summary
}
