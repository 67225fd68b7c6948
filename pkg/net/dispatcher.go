package net

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// Response 上游原始响应
type Response struct {
	StatusCode int
	Body       []byte
}

// IsSuccess 2xx 视为成功
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Dispatcher 网络调度器 (通用组件)
// 所有上游目录请求共用：全局限速 + 熔断 + 统一超时
type Dispatcher interface {
	// Post 发送 POST 请求
	// 非 2xx 响应正常返回 (由调用方解析)，只有网络错误/超时/熔断才返回 error
	Post(ctx context.Context, url string, headers map[string]string, body string) (*Response, error)

	// HTTPClient 底层 http.Client (共享代理与超时配置，供 OAuth 换取凭证使用)
	HTTPClient() *http.Client
}

// DispatcherConfig 调度器配置
type DispatcherConfig struct {
	Timeout       time.Duration
	RatePerSecond float64 // 跨类型的全局请求速率上限
	ProxyURL      string

	BreakerName     string
	BreakerFailures uint32        // 连续失败多少次后熔断
	BreakerTimeout  time.Duration // 熔断后多久进入半开

	// Observer 每次请求结束回调 (status 0 表示网络错误)
	Observer func(url string, status int, duration time.Duration)
	// OnStateChange 熔断状态变化回调
	OnStateChange func(name string, from, to gobreaker.State)
}

// ErrCircuitOpen 熔断中，请求未发出
var ErrCircuitOpen = errors.New("upstream circuit open")

// errUnhealthyStatus 5xx/429 计入熔断失败，但响应仍返回给调用方
var errUnhealthyStatus = errors.New("unhealthy upstream status")

type restyDispatcher struct {
	client   *resty.Client
	limiter  *rate.Limiter
	cb       *gobreaker.CircuitBreaker[*Response]
	observer func(url string, status int, duration time.Duration)
}

var _ Dispatcher = (*restyDispatcher)(nil)

// NewDispatcher 创建调度器
func NewDispatcher(cfg DispatcherConfig) Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 4
	}
	if cfg.BreakerName == "" {
		cfg.BreakerName = "igdb-api"
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = time.Minute
	}

	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", "igdb-mirror/1.0").
		SetHeader("Accept", "application/json")
	if cfg.ProxyURL != "" {
		client.SetProxy(cfg.ProxyURL)
	}

	failures := cfg.BreakerFailures
	cb := gobreaker.NewCircuitBreaker[*Response](gobreaker.Settings{
		Name:        cfg.BreakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: cfg.OnStateChange,
	})

	return &restyDispatcher{
		client:   client,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		cb:       cb,
		observer: cfg.Observer,
	}
}

func (d *restyDispatcher) HTTPClient() *http.Client {
	return d.client.GetClient()
}

// Post 发送请求 (限速 -> 熔断 -> 发送)
func (d *restyDispatcher) Post(ctx context.Context, url string, headers map[string]string, body string) (*Response, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := d.cb.Execute(func() (*Response, error) {
		r, err := d.client.R().
			SetContext(ctx).
			SetHeaders(headers).
			SetBody(body).
			Post(url)
		if err != nil {
			return nil, err
		}

		out := &Response{StatusCode: r.StatusCode(), Body: r.Body()}
		if out.StatusCode >= http.StatusInternalServerError || out.StatusCode == http.StatusTooManyRequests {
			return out, errUnhealthyStatus
		}
		return out, nil
	})

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	if d.observer != nil {
		d.observer(url, status, time.Since(start))
	}

	switch {
	case err == nil:
		return resp, nil
	case errors.Is(err, errUnhealthyStatus):
		return resp, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	default:
		return nil, err
	}
}
