// internal/pkg/redis/client.go
package redis

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Client 封装 go-redis 的 UniversalClient，单地址为单机模式，多地址为集群模式。
type Client struct {
	client redis.UniversalClient
}

// NewClient 根据逗号分隔的地址创建客户端，并在启动时做一次连通性检查。
func NewClient(addrs string) (*Client, error) {
	list := strings.Split(addrs, ",")
	for i := range list {
		list[i] = strings.TrimSpace(list[i])
	}
	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        list,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, errors.Wrapf(err, "ping redis %s", addrs)
	}
	return &Client{client: rdb}, nil
}

// NewFromUniversal 包装一个已有的客户端，主要用于测试。
func NewFromUniversal(rdb redis.UniversalClient) *Client {
	return &Client{client: rdb}
}

// GetClient 返回底层客户端
func (c *Client) GetClient() redis.UniversalClient {
	return c.client
}

// Nil 判断错误是否为 key 不存在
func Nil(err error) bool {
	return errors.Is(err, redis.Nil)
}

func (c *Client) Close() error {
	return c.client.Close()
}
