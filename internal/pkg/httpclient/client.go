// internal/pkg/httpclient/client.go

package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// ErrUnexpectedStatus 表示下游返回了非 2xx 状态码
var ErrUnexpectedStatus = errors.New("unexpected status code")

// maxBodyBytes 限制读取的响应体大小
const maxBodyBytes = 1 << 20

// Discoverer 通过服务名解析出一个可用实例，由 nacos.Client 实现。
type Discoverer interface {
	DiscoverServiceInstance(serviceName string) (string, int, error)
}

// Endpoint 描述一个下游接口：优先通过服务发现解析 Service，否则使用 URL。
type Endpoint struct {
	URL     string
	Service string
	Path    string
}

// Client 是一个可追踪的、可注入的HTTP客户端
type Client struct {
	Tracer     trace.Tracer
	HTTPClient *http.Client
	discoverer Discoverer
}

// NewClient 创建一个新的客户端实例。
// http.Client 不设置 Timeout，完全受控于每次请求传入的 context。
func NewClient(tracer trace.Tracer) *Client {
	httpClient := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
		},
	}
	return &Client{
		Tracer:     tracer,
		HTTPClient: httpClient,
	}
}

// WithDiscoverer 启用基于服务名的地址解析。
func (c *Client) WithDiscoverer(d Discoverer) *Client {
	c.discoverer = d
	return c
}

// Resolve 将 Endpoint 解析为可直接请求的 URL。
func (c *Client) Resolve(ep Endpoint) (string, error) {
	if ep.Service != "" && c.discoverer != nil {
		ip, port, err := c.discoverer.DiscoverServiceInstance(ep.Service)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("http://%s:%d%s", ip, port, ep.Path), nil
	}
	if ep.URL == "" {
		return "", errors.Errorf("endpoint for service %q has no url", ep.Service)
	}
	return ep.URL, nil
}

// GetJSON 发起一个带追踪的 GET 请求，并将 2xx 响应体解码到 out。
func (c *Client) GetJSON(ctx context.Context, ep Endpoint, params url.Values, out any) error {
	serviceURL, err := c.Resolve(ep)
	if err != nil {
		return errors.Wrap(err, "resolve endpoint")
	}
	body, err := c.Get(ctx, serviceURL, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrapf(err, "decode response from %s", serviceURL)
	}
	return nil
}

// Get 发起一个带追踪的 GET 请求，返回 2xx 响应体。
func (c *Client) Get(ctx context.Context, serviceURL string, params url.Values) ([]byte, error) {
	parsedURL, err := url.Parse(serviceURL)
	if err != nil {
		return nil, err
	}
	// 从 URL 中解析出服务名用于 Span
	spanName := fmt.Sprintf("call-%s", strings.Split(parsedURL.Host, ":")[0])

	ctx, span := c.Tracer.Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	downstreamURL := *parsedURL
	q := downstreamURL.Query()
	for key, values := range params {
		for _, value := range values {
			q.Add(key, value)
		}
	}
	downstreamURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downstreamURL.String(), nil)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	span.SetAttributes(
		attribute.String("http.url", downstreamURL.String()),
		attribute.String("http.method", http.MethodGet),
	)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := errors.Wrapf(ErrUnexpectedStatus, "service %s returned status %s", serviceURL, resp.Status)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "read response body")
	}
	return body, nil
}
