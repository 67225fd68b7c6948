package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"igdb_mirror_v1_202610/internal/model"
	"igdb_mirror_v1_202610/pkg/net"
)

// CatalogClient 上游目录查询
type CatalogClient interface {
	// Query 对 kind 对应的 endpoint 发送查询体，返回结果数组的原始元素
	Query(ctx context.Context, kind model.Kind, body string) ([]json.RawMessage, error)
}

type catalogClient struct {
	baseURL    string
	clientID   string
	tokens     TokenProvider
	dispatcher net.Dispatcher
}

var _ CatalogClient = (*catalogClient)(nil)

// NewCatalogClient 创建上游目录客户端
func NewCatalogClient(baseURL, clientID string, tokens TokenProvider, dispatcher net.Dispatcher) CatalogClient {
	return &catalogClient{
		baseURL:    baseURL,
		clientID:   clientID,
		tokens:     tokens,
		dispatcher: dispatcher,
	}
}

func (c *catalogClient) Query(ctx context.Context, kind model.Kind, body string) ([]json.RawMessage, error) {
	resp, err := c.post(ctx, kind, body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		// 缓存中的凭证已失效 (上游吊销)，清除后换新凭证重试一次
		zap.S().Warnf("[CatalogClient] %s 返回 401，清除凭证缓存后重试", kind)
		c.tokens.Clear()
		if resp, err = c.post(ctx, kind, body); err != nil {
			return nil, err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			c.tokens.Clear()
			return nil, &UpstreamAuthError{Status: resp.StatusCode, Body: string(resp.Body)}
		}
	}
	if !resp.IsSuccess() {
		return nil, &UpstreamFetchError{Kind: kind, Status: resp.StatusCode, Body: string(resp.Body)}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(resp.Body, &items); err != nil {
		return nil, &UpstreamFetchError{Kind: kind, Status: resp.StatusCode, Body: "invalid response body: " + err.Error()}
	}
	return items, nil
}

// post 取凭证并发送一次请求
func (c *catalogClient) post(ctx context.Context, kind model.Kind, body string) (*net.Response, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.dispatcher.Post(ctx, c.baseURL+"/"+kind.Endpoint(), net.CatalogHeaders(c.clientID, token), body)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		// 超时、网络错误、熔断一律按非 2xx 处理
		return nil, &UpstreamFetchError{Kind: kind, Status: 0, Body: err.Error()}
	}
	return resp, nil
}
