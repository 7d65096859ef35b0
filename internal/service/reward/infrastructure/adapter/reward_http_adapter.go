package adapter

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"storefront/internal/pkg/httpclient"
	"storefront/internal/service/reward/domain/port"
)

var _ port.RewardLookup = (*RewardHTTPAdapter)(nil)

// RewardHTTPAdapter 调用权威奖励服务 GET /reward_lookup
type RewardHTTPAdapter struct {
	client   *httpclient.Client
	endpoint httpclient.Endpoint
	timeout  time.Duration // 0 表示只受调用方 context 控制
}

// lookupResponse 用指针字段区分"字段缺失"和"零值"
type lookupResponse struct {
	AmountMinorUnits *int64           `json:"reward_amount_minor_units"`
	IsInstant        *bool            `json:"is_instant"`
	CoolingOffDays   *int             `json:"cooling_off_days"`
	Percentage       *decimal.Decimal `json:"percentage"`
}

func NewRewardHTTPAdapter(client *httpclient.Client, endpoint httpclient.Endpoint, timeout time.Duration) *RewardHTTPAdapter {
	return &RewardHTTPAdapter{client: client, endpoint: endpoint, timeout: timeout}
}

func (a *RewardHTTPAdapter) LookupReward(ctx context.Context, productID string, priceMinorUnits int64) (*port.LookupResult, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	params := url.Values{}
	params.Set("product_id", productID)
	params.Set("price_minor_units", strconv.FormatInt(priceMinorUnits, 10))

	var resp lookupResponse
	if err := a.client.GetJSON(ctx, a.endpoint, params, &resp); err != nil {
		return nil, errors.Wrapf(err, "reward lookup for %s", productID)
	}
	res, err := resp.toResult()
	if err != nil {
		return nil, errors.Wrapf(err, "reward lookup for %s", productID)
	}
	return res, nil
}

func (r lookupResponse) toResult() (*port.LookupResult, error) {
	switch {
	case r.AmountMinorUnits == nil:
		return nil, errors.Wrap(port.ErrMalformedLookup, "missing reward_amount_minor_units")
	case r.IsInstant == nil:
		return nil, errors.Wrap(port.ErrMalformedLookup, "missing is_instant")
	case r.Percentage == nil:
		return nil, errors.Wrap(port.ErrMalformedLookup, "missing percentage")
	}
	res := &port.LookupResult{
		AmountMinorUnits: *r.AmountMinorUnits,
		IsInstant:        *r.IsInstant,
		Percentage:       *r.Percentage,
	}
	if r.CoolingOffDays != nil {
		res.CoolingOffDays = *r.CoolingOffDays
	}
	return res, nil
}
