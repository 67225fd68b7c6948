package task

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"igdb_mirror_v1_202610/internal/service"
)

// TokenTask 凭证保活
// 剩余有效期低于阈值时提前刷新，同步任务几乎不会遇到刷新延迟
type TokenTask struct {
	tokens    service.TokenProvider
	cron      *cron.Cron
	schedule  string
	threshold time.Duration
	timeout   time.Duration
}

// NewTokenTask 创建凭证保活任务
func NewTokenTask(tokens service.TokenProvider, schedule string, threshold time.Duration) *TokenTask {
	if threshold <= 0 {
		threshold = 15 * time.Minute
	}
	return &TokenTask{
		tokens:    tokens,
		cron:      newCron(),
		schedule:  schedule,
		threshold: threshold,
		timeout:   time.Minute,
	}
}

// Start 启动定时任务
func (t *TokenTask) Start() error {
	if _, err := t.cron.AddFunc(t.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()
		if _, err := t.refreshJob(ctx); err != nil {
			zap.S().Errorf("[TokenTask] 凭证刷新失败: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("无法启动 Token 定时任务: %w", err)
	}

	// 首次执行
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()
		zap.S().Info("[TokenTask] 服务启动，正在执行首次 Token 检查...")
		if _, err := t.refreshJob(ctx); err != nil {
			zap.S().Errorf("[TokenTask] 首次凭证获取失败: %v", err)
		}
	}()

	t.cron.Start()
	zap.S().Infof("[TokenTask] 已启动 (%s，剩余不足 %s 时刷新)", t.schedule, t.threshold)
	return nil
}

// Stop 停止任务
func (t *TokenTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	zap.S().Info("[TokenTask] 已停止")
}

// refreshJob 检查并按需刷新，返回是否发生了刷新
func (t *TokenTask) refreshJob(ctx context.Context) (bool, error) {
	status := t.tokens.Inspect()
	if status.HasToken && time.Duration(status.SecondsRemaining)*time.Second > t.threshold {
		zap.S().Debugf("[TokenTask] 凭证剩余 %ds，无需刷新", status.SecondsRemaining)
		return false, nil
	}

	if _, err := t.tokens.Refresh(ctx); err != nil {
		return false, err
	}
	zap.S().Infof("[TokenTask] 凭证已刷新 (刷新前剩余 %ds)", status.SecondsRemaining)
	return true, nil
}

// RefreshNow 立即强制刷新
func (t *TokenTask) RefreshNow(ctx context.Context) error {
	_, err := t.tokens.Refresh(ctx)
	return err
}
