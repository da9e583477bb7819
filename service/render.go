package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"BrandScene-server/config"
	"BrandScene-server/models"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const TypeRenderVideo = "video:render"

type RenderPayload struct {
	VideoID string `json:"video_id"`
}

// RenderQueue 渲染任务入队端
type RenderQueue struct {
	client *asynq.Client
	log    *zap.Logger
}

func NewRenderQueue(cfg *config.Config, log *zap.Logger) *RenderQueue {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
	})
	return &RenderQueue{client: client, log: log}
}

// EnqueueRender 渲染任务入队
func (q *RenderQueue) EnqueueRender(videoID string) error {
	payload, err := json.Marshal(RenderPayload{VideoID: videoID})
	if err != nil {
		return fmt.Errorf("marshal payload failed: %w", err)
	}

	task := asynq.NewTask(TypeRenderVideo, payload,
		asynq.MaxRetry(3),             // 失败重试 3 次
		asynq.Timeout(30*time.Minute), // 渲染耗时较长，设置较长超时
		asynq.Retention(24*time.Hour), // 任务结果在 Redis 保留时间
	)

	info, err := q.client.Enqueue(task)
	if err != nil {
		return fmt.Errorf("enqueue failed: %w", err)
	}
	q.log.Info("渲染任务已提交", zap.String("videoId", videoID), zap.String("taskId", info.ID))
	return nil
}

func (q *RenderQueue) Close() error { return q.client.Close() }

// RenderProcessor 渲染任务消费者。当前渲染为模拟耗时，
// 但任务具备完整的状态机与可取消句柄，接入真实渲染器时只换 HandleRenderTask 的中段。
type RenderProcessor struct {
	DB  *gorm.DB
	Cfg *config.Config
	Log *zap.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	srv     *asynq.Server
}

func NewRenderProcessor(db *gorm.DB, cfg *config.Config, log *zap.Logger) *RenderProcessor {
	return &RenderProcessor{
		DB:      db,
		Cfg:     cfg,
		Log:     log,
		cancels: make(map[string]context.CancelFunc),
	}
}

// Start 启动任务消费者
func (p *RenderProcessor) Start() {
	p.srv = asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     p.Cfg.Redis.Addr,
			Password: p.Cfg.Redis.Password,
		},
		asynq.Config{
			Concurrency: p.Cfg.Render.Concurrency,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeRenderVideo, p.HandleRenderTask)

	p.Log.Info("渲染消费者启动", zap.Int("concurrency", p.Cfg.Render.Concurrency))
	go func() {
		if err := p.srv.Run(mux); err != nil {
			p.Log.Fatal("渲染消费者运行失败", zap.Error(err))
		}
	}()
}

// Shutdown 停止消费（等待在跑任务退出）
func (p *RenderProcessor) Shutdown() {
	if p.srv != nil {
		p.srv.Shutdown()
	}
}

func (p *RenderProcessor) registerCancel(videoID string, cancel context.CancelFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancels[videoID] = cancel
}

func (p *RenderProcessor) unregisterCancel(videoID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.cancels, videoID)
}

// CancelRender 取消正在渲染的任务，返回是否实际找到并取消
func (p *RenderProcessor) CancelRender(videoID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cancel, ok := p.cancels[videoID]; ok {
		cancel()
		delete(p.cancels, videoID)
		return true
	}
	return false
}

// HandleRenderTask 核心处理逻辑：标记 rendering -> 模拟渲染（可取消）->
// 写回成片 URL 并标记 completed。
func (p *RenderProcessor) HandleRenderTask(ctx context.Context, t *asynq.Task) error {
	var payload RenderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}

	video, err := models.GetVideoByID(p.DB, payload.VideoID)
	if err != nil {
		return fmt.Errorf("video not found: %v: %w", err, asynq.SkipRetry)
	}
	// 入队后被取消的任务直接跳过
	if video.Status == models.VideoStatusCancelled {
		p.Log.Info("渲染任务已取消，跳过", zap.String("videoId", video.ID))
		return nil
	}

	p.Log.Info("开始渲染", zap.String("videoId", video.ID), zap.String("scriptId", video.ScriptID))
	if err := models.UpdateVideoStatus(p.DB, video.ID, models.VideoStatusRendering, nil); err != nil {
		p.Log.Warn("标记 rendering 失败", zap.Error(err))
	}

	renderCtx, cancel := context.WithCancel(ctx)
	p.registerCancel(video.ID, cancel)
	defer p.unregisterCancel(video.ID)

	timer := time.NewTimer(p.Cfg.RenderDelay())
	defer timer.Stop()

	select {
	case <-renderCtx.Done():
		p.Log.Info("渲染被取消", zap.String("videoId", video.ID))
		if err := models.UpdateVideoStatus(p.DB, video.ID, models.VideoStatusCancelled, nil); err != nil {
			p.Log.Warn("标记 cancelled 失败", zap.Error(err))
		}
		return nil // 已取消，不重试
	case <-timer.C:
	}

	finalURL := fmt.Sprintf("renders/%s/final-%s.%s", video.ID, video.ScriptID, video.RenderSettings.Format)
	now := time.Now()
	if err := models.UpdateVideoStatus(p.DB, video.ID, models.VideoStatusCompleted, map[string]interface{}{
		"video_url":    finalURL,
		"completed_at": &now,
	}); err != nil {
		p.Log.Error("写回渲染结果失败", zap.Error(err))
		return err // 返回 err 触发重试
	}

	p.Log.Info("渲染完成", zap.String("videoId", video.ID), zap.String("url", finalURL))
	return nil
}
