package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"

	"igdb_mirror_v1_202610/internal/metrics"
)

// TokenSafetyMargin 凭证提前过期的余量，避免请求途中失效
const TokenSafetyMargin = 10 * time.Minute

// Credential 缓存中的访问凭证
type Credential struct {
	Token         string
	IssuedAt      time.Time
	ExpiresAt     time.Time // 已扣除安全余量
	RawTTLSeconds int64
}

// TokenStatus Inspect 返回值，仅用于观测
type TokenStatus struct {
	HasToken         bool       `json:"has_token"`
	ExpiresAt        *time.Time `json:"expires_at"`
	SecondsRemaining int64      `json:"seconds_remaining"`
}

// TokenProvider 访问凭证提供者
type TokenProvider interface {
	// Token 返回可用凭证，缓存有效时不发生网络请求
	Token(ctx context.Context) (string, error)
	// Refresh 强制换取新凭证
	Refresh(ctx context.Context) (string, error)
	// Clear 清除缓存 (管理员操作或上游返回 401)
	Clear()
	// Inspect 查看缓存状态，不修改状态
	Inspect() TokenStatus
}

// TokenConfig 凭证端点配置
type TokenConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
}

// TokenManager client credentials 凭证管理
// 单槽缓存：任一时刻最多持有一个有效凭证；并发刷新合并为一次请求
type TokenManager struct {
	cfg        TokenConfig
	httpClient *http.Client
	margin     time.Duration
	now        func() time.Time

	mu    sync.RWMutex
	cred  *Credential
	group singleflight.Group
}

var _ TokenProvider = (*TokenManager)(nil)

// NewTokenManager 创建凭证管理器
// httpClient 为空时使用 http.DefaultClient
func NewTokenManager(cfg TokenConfig, httpClient *http.Client) *TokenManager {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &TokenManager{
		cfg:        cfg,
		httpClient: httpClient,
		margin:     TokenSafetyMargin,
		now:        time.Now,
	}
}

func (m *TokenManager) Token(ctx context.Context) (string, error) {
	if m.cfg.ClientID == "" || m.cfg.ClientSecret == "" {
		metrics.TokenRefreshes.WithLabelValues("missing_credentials").Inc()
		return "", ErrCredentialsMissing
	}

	if token, ok := m.cached(); ok {
		return token, nil
	}
	return m.flight(ctx, false)
}

func (m *TokenManager) Refresh(ctx context.Context) (string, error) {
	if m.cfg.ClientID == "" || m.cfg.ClientSecret == "" {
		return "", ErrCredentialsMissing
	}
	return m.flight(ctx, true)
}

func (m *TokenManager) Clear() {
	m.mu.Lock()
	m.cred = nil
	m.mu.Unlock()
	zap.S().Info("[TokenManager] 凭证缓存已清除")
}

func (m *TokenManager) Inspect() TokenStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.cred == nil {
		return TokenStatus{}
	}
	remaining := int64(m.cred.ExpiresAt.Sub(m.now()).Seconds())
	if remaining <= 0 {
		return TokenStatus{}
	}
	expiresAt := m.cred.ExpiresAt
	return TokenStatus{
		HasToken:         true,
		ExpiresAt:        &expiresAt,
		SecondsRemaining: remaining,
	}
}

// ==================== 内部实现 ====================

func (m *TokenManager) cached() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.cred != nil && m.now().Before(m.cred.ExpiresAt) {
		return m.cred.Token, true
	}
	return "", false
}

// flight 合并并发刷新；force=false 时进入后再检查一次缓存
// 防止上一轮刷新刚结束时迟到的调用者重复请求
func (m *TokenManager) flight(ctx context.Context, force bool) (string, error) {
	v, err, _ := m.group.Do("token", func() (interface{}, error) {
		if !force {
			if token, ok := m.cached(); ok {
				return token, nil
			}
		}

		cred, err := m.exchange(ctx)
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		m.cred = cred
		m.mu.Unlock()
		return cred.Token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// exchange 向凭证端点发起一次 client credentials 请求
func (m *TokenManager) exchange(ctx context.Context) (*Credential, error) {
	cc := clientcredentials.Config{
		ClientID:     m.cfg.ClientID,
		ClientSecret: m.cfg.ClientSecret,
		TokenURL:     m.cfg.TokenURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	issuedAt := m.now()
	start := time.Now()
	tok, err := cc.Token(context.WithValue(ctx, oauth2.HTTPClient, m.httpClient))
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			status := 0
			if re.Response != nil {
				status = re.Response.StatusCode
			}
			metrics.TokenRefreshes.WithLabelValues("rejected").Inc()
			zap.S().Warnf("[TokenManager] 凭证端点拒绝请求 status=%d", status)
			return nil, &UpstreamAuthError{Status: status, Body: string(re.Body)}
		}
		metrics.TokenRefreshes.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("请求凭证失败: %w", err)
	}

	ttl := rawTTLSeconds(tok, start)
	lifetime := time.Duration(ttl)*time.Second - m.margin
	if lifetime <= 0 {
		// 有效期短于余量时缓存一半时长
		lifetime = time.Duration(ttl) * time.Second / 2
	}

	metrics.TokenRefreshes.WithLabelValues("success").Inc()
	zap.S().Infof("[TokenManager] 获取新凭证成功 ttl=%ds 缓存至 %s", ttl, issuedAt.Add(lifetime).Format(time.RFC3339))

	return &Credential{
		Token:         tok.AccessToken,
		IssuedAt:      issuedAt,
		ExpiresAt:     issuedAt.Add(lifetime),
		RawTTLSeconds: ttl,
	}, nil
}

// rawTTLSeconds 上游返回的 expires_in (秒)
func rawTTLSeconds(tok *oauth2.Token, start time.Time) int64 {
	if !tok.Expiry.IsZero() {
		return int64(math.Round(tok.Expiry.Sub(start).Seconds()))
	}
	if v, ok := tok.Extra("expires_in").(float64); ok {
		return int64(v)
	}
	return 0
}
