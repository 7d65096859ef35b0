package adapter

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"storefront/internal/pkg/httpclient"
	"storefront/internal/service/currency/domain"
	"storefront/internal/service/currency/domain/port"
)

// 确保 HTTPRateProvider 实现了 port.RateProvider 接口
var _ port.RateProvider = (*HTTPRateProvider)(nil)

// HTTPRateProvider 通过 HTTP GET 从外部汇率源拉取汇率
type HTTPRateProvider struct {
	client   *httpclient.Client
	endpoint httpclient.Endpoint
}

func NewHTTPRateProvider(client *httpclient.Client, endpoint httpclient.Endpoint) *HTTPRateProvider {
	return &HTTPRateProvider{client: client, endpoint: endpoint}
}

func (a *HTTPRateProvider) Name() string { return "http" }

func (a *HTTPRateProvider) FetchRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	var raw json.RawMessage
	if err := a.client.GetJSON(ctx, a.endpoint, nil, &raw); err != nil {
		return nil, errors.Wrap(err, "fetch exchange rates")
	}
	return ParseRates(raw)
}

// ParseRates 解析 {"EUR": 0.85, ...} 或 {"rates": {"EUR": 0.85, ...}} 两种格式
func ParseRates(data []byte) (map[string]decimal.Decimal, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, errors.Wrap(domain.ErrMalformedRates, err.Error())
	}
	if nested, ok := top["rates"]; ok {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(nested, &inner); err != nil {
			return nil, errors.Wrap(domain.ErrMalformedRates, "rates is not an object")
		}
		top = inner
	}

	rates := make(map[string]decimal.Decimal, len(top))
	for code, v := range top {
		dec := json.NewDecoder(bytes.NewReader(v))
		dec.UseNumber()
		var n json.Number
		if err := dec.Decode(&n); err != nil {
			return nil, errors.Wrapf(domain.ErrMalformedRates, "rate for %s is not a number", code)
		}
		r, err := decimal.NewFromString(n.String())
		if err != nil {
			return nil, errors.Wrapf(domain.ErrMalformedRates, "rate for %s: %v", code, err)
		}
		rates[code] = r
	}
	if len(rates) == 0 {
		return nil, errors.Wrap(domain.ErrMalformedRates, "no rates")
	}
	return rates, nil
}
