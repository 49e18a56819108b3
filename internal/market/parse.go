package market

import (
	"fmt"
	"time"

	"github.com/tidwall/gjson"
)

// ParseTick reads a raw tick payload field by field. Required numerics
// fail the parse; change/change_percent default to 0; optional fields are
// left absent. The payload shape is whatever the upstream feed sends, so
// both camelCase and snake_case keys are accepted.
func ParseTick(raw []byte, symbol string) (Tick, error) {
	doc := gjson.ParseBytes(raw)

	t := Tick{Symbol: symbol}

	var err error
	if t.Price, err = requiredNum(doc, "price"); err != nil {
		return Tick{}, err
	}
	if t.Open, err = requiredNum(doc, "open"); err != nil {
		return Tick{}, err
	}
	if t.High, err = requiredNum(doc, "high"); err != nil {
		return Tick{}, err
	}
	if t.Low, err = requiredNum(doc, "low"); err != nil {
		return Tick{}, err
	}
	if t.Close, err = requiredNum(doc, "close"); err != nil {
		return Tick{}, err
	}
	if t.Volume, err = requiredNum(doc, "volume"); err != nil {
		return Tick{}, err
	}

	t.Change = firstNum(doc, 0, "change")
	t.ChangePercent = firstNum(doc, 0, "changePercent", "change_percent")

	t.Timestamp = parseTimestamp(doc.Get("timestamp"))

	if r := first(doc, "sentiment"); r.Exists() {
		v := r.Float()
		t.Sentiment = &v
	}
	if r := first(doc, "volatility30d", "volatility_30d"); r.Exists() {
		v := r.Float()
		t.Volatility30d = &v
	}
	if r := first(doc, "marketCap", "market_cap"); r.Exists() {
		v := r.Int()
		t.MarketCap = &v
	}
	if r := first(doc, "peRatio", "pe_ratio"); r.Exists() {
		v := r.Float()
		t.PERatio = &v
	}
	t.Sector = doc.Get("sector").String()

	return t, nil
}

func requiredNum(doc gjson.Result, key string) (float64, error) {
	r := doc.Get(key)
	if !r.Exists() {
		return 0, fmt.Errorf("required numeric field %q is missing", key)
	}
	if r.Type != gjson.Number && r.Type != gjson.String {
		return 0, fmt.Errorf("field %q is not numeric: %s", key, r.Raw)
	}
	return r.Float(), nil
}

func firstNum(doc gjson.Result, def float64, keys ...string) float64 {
	if r := first(doc, keys...); r.Exists() {
		return r.Float()
	}
	return def
}

func first(doc gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if r := doc.Get(k); r.Exists() {
			return r
		}
	}
	return gjson.Result{}
}

func parseTimestamp(r gjson.Result) time.Time {
	if !r.Exists() {
		return time.Now().UTC()
	}
	if r.Type == gjson.Number {
		return time.UnixMilli(r.Int()).UTC()
	}
	if ts, err := time.Parse(time.RFC3339, r.String()); err == nil {
		return ts.UTC()
	}
	return time.Now().UTC()
}
