package service

import (
	"context"
	"fmt"
	"time"

	"BrandScene-server/apperr"
	"BrandScene-server/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultTransitionDuration = 0.5

// RenderPresets 内置渲染预设，未指定字段逐项回退到 1080p
var RenderPresets = map[string]models.RenderSettings{
	"1080p":           {Resolution: "1920x1080", FPS: 30, Codec: "h264", Bitrate: "5000k", Format: "mp4"},
	"4k":              {Resolution: "3840x2160", FPS: 30, Codec: "h264", Bitrate: "20000k", Format: "mp4"},
	"social_square":   {Resolution: "1080x1080", FPS: 30, Codec: "h264", Bitrate: "4000k", Format: "mp4"},
	"social_vertical": {Resolution: "1080x1920", FPS: 30, Codec: "h264", Bitrate: "4000k", Format: "mp4"},
	"web":             {Resolution: "1280x720", FPS: 30, Codec: "h264", Bitrate: "3000k", Format: "mp4"},
}

// ResolveRenderSettings 先取预设（默认 1080p），再逐字段覆盖调用方给的值
func ResolveRenderSettings(preset string, overrides models.RenderSettings) models.RenderSettings {
	base, ok := RenderPresets[preset]
	if !ok {
		base = RenderPresets["1080p"]
	}
	if overrides.Resolution != "" {
		base.Resolution = overrides.Resolution
	}
	if overrides.FPS > 0 {
		base.FPS = overrides.FPS
	}
	if overrides.Codec != "" {
		base.Codec = overrides.Codec
	}
	if overrides.Bitrate != "" {
		base.Bitrate = overrides.Bitrate
	}
	if overrides.Format != "" {
		base.Format = overrides.Format
	}
	return base
}

// TimelineEntry 时间线上的一个分镜窗口 [startTime, endTime)
type TimelineEntry struct {
	SceneNumber    int                    `json:"sceneNumber"`
	StartTime      float64                `json:"startTime"`
	EndTime        float64                `json:"endTime"`
	Duration       float64                `json:"duration"`
	VideoClip      *models.VideoClip      `json:"videoClip,omitempty"`
	ImageVariation *models.ImageVariation `json:"imageVariation,omitempty"`
	Narration      string                 `json:"narration"`
}

// Timeline 拼接时间线
type Timeline struct {
	Entries        []TimelineEntry    `json:"entries"`
	TotalDuration  float64            `json:"totalDuration"`
	NarrationTrack *models.AudioTrack `json:"narrationTrack,omitempty"`
}

// CalculateTimeline 按分镜顺序累加时长铺出时间线
func CalculateTimeline(scenes []models.Scene, narration *models.AudioTrack) *Timeline {
	tl := &Timeline{Entries: make([]TimelineEntry, 0, len(scenes)), NarrationTrack: narration}
	cursor := 0.0
	for _, s := range scenes {
		entry := TimelineEntry{
			SceneNumber: s.SceneNumber,
			StartTime:   cursor,
			EndTime:     cursor + s.DurationSeconds,
			Duration:    s.DurationSeconds,
			Narration:   s.NarrationText,
		}
		if len(s.VideoClips) > 0 {
			clip := s.VideoClips[0]
			entry.VideoClip = &clip
		}
		for i := range s.ImageVariations {
			if s.ImageVariations[i].Selected {
				entry.ImageVariation = &s.ImageVariations[i]
				break
			}
		}
		tl.Entries = append(tl.Entries, entry)
		cursor = entry.EndTime
	}
	tl.TotalDuration = cursor
	return tl
}

// ValidateAssets 渲染前的素材检查：每个分镜要有视频片段或选中图，
// 脚本要有旁白音轨。返回缺失清单，空表示就绪。
func ValidateAssets(scenes []models.Scene, narration *models.AudioTrack) []string {
	var missing []string
	for _, s := range scenes {
		hasClip := len(s.VideoClips) > 0
		hasImage := false
		for _, v := range s.ImageVariations {
			if v.Selected {
				hasImage = true
				break
			}
		}
		if !hasClip && !hasImage {
			missing = append(missing, fmt.Sprintf("Scene %d: No video or image", s.SceneNumber))
		}
	}
	if narration == nil {
		missing = append(missing, "No narration audio track")
	}
	return missing
}

// DefaultTransitions 兜底转场：首尾 fade，中间 dissolve
func DefaultTransitions(sceneCount int) []TransitionConfig {
	if sceneCount < 2 {
		return nil
	}
	out := make([]TransitionConfig, sceneCount-1)
	for i := range out {
		t := "dissolve"
		if i == 0 || i == sceneCount-2 {
			t = "fade"
		}
		out[i] = TransitionConfig{Type: t, Duration: defaultTransitionDuration}
	}
	return out
}

// Stitcher 渲染编排：素材校验、转场、时间线、渲染任务入队
type Stitcher struct {
	DB    *gorm.DB
	Text  *TextClient
	Queue *RenderQueue
	Log   *zap.Logger
}

func NewStitcher(db *gorm.DB, text *TextClient, queue *RenderQueue, log *zap.Logger) *Stitcher {
	return &Stitcher{DB: db, Text: text, Queue: queue, Log: log}
}

// loadSceneAssets 脚本存在性检查 + 有序分镜（带素材）
func (s *Stitcher) loadSceneAssets(scriptID string) ([]models.Scene, error) {
	if _, err := models.GetScriptByID(s.DB, scriptID); err != nil {
		return nil, err
	}
	scenes, err := models.GetSceneAssetsByScript(s.DB, scriptID)
	if err != nil {
		return nil, err
	}
	if len(scenes) == 0 {
		return nil, apperr.Validation("No scenes found for this script")
	}
	return scenes, nil
}

// GenerateTransitions 为脚本的相邻分镜推荐转场（不落库，渲染时才写）
func (s *Stitcher) GenerateTransitions(ctx context.Context, scriptID string) ([]TransitionConfig, error) {
	scenes, err := s.loadSceneAssets(scriptID)
	if err != nil {
		return nil, err
	}
	return s.planTransitions(ctx, scenes), nil
}

// Timeline 计算脚本的拼接时间线
func (s *Stitcher) Timeline(scriptID string) (*Timeline, error) {
	scenes, err := s.loadSceneAssets(scriptID)
	if err != nil {
		return nil, err
	}
	narration, err := models.GetNarrationTrack(s.DB, scriptID)
	if err != nil {
		return nil, err
	}
	return CalculateTimeline(scenes, narration), nil
}

// planTransitions 优先走 AI 推荐，失败回退固定方案
func (s *Stitcher) planTransitions(ctx context.Context, scenes []models.Scene) []TransitionConfig {
	briefs := make([]SceneBrief, 0, len(scenes))
	for _, sc := range scenes {
		briefs = append(briefs, SceneBrief{
			Number:      sc.SceneNumber,
			Mood:        sc.Mood,
			Description: sc.VisualDescription,
			Duration:    sc.DurationSeconds,
		})
	}

	configs, err := s.Text.RecommendTransitions(ctx, briefs)
	if err != nil || len(configs) != len(scenes)-1 {
		if err != nil {
			s.Log.Warn("转场推荐失败，使用默认转场", zap.Error(err))
		}
		return DefaultTransitions(len(scenes))
	}
	return configs
}

// StartRendering 校验素材 -> 解析渲染参数 -> 生成转场 -> 建渲染记录并入队。
// 素材不全时返回 400，附缺失清单。
func (s *Stitcher) StartRendering(ctx context.Context, scriptID, preset string, overrides models.RenderSettings) (*models.Video, error) {
	scenes, err := s.loadSceneAssets(scriptID)
	if err != nil {
		return nil, err
	}

	narration, err := models.GetNarrationTrack(s.DB, scriptID)
	if err != nil {
		return nil, err
	}

	if missing := ValidateAssets(scenes, narration); len(missing) > 0 {
		return nil, apperr.Validation("Assets are not ready for rendering").WithDetails(missing)
	}

	settings := ResolveRenderSettings(preset, overrides)
	timeline := CalculateTimeline(scenes, narration)
	transitions := s.planTransitions(ctx, scenes)

	video := &models.Video{
		ID:              uuid.NewString(),
		ScriptID:        scriptID,
		VideoURL:        fmt.Sprintf("rendering-%s.%s", scriptID, settings.Format),
		DurationSeconds: timeline.TotalDuration,
		Resolution:      settings.Resolution,
		RenderSettings:  settings,
		Status:          models.VideoStatusRendering,
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(video).Error; err != nil {
			return err
		}
		records := make([]models.Transition, 0, len(transitions))
		for i, t := range transitions {
			records = append(records, models.Transition{
				ID:              uuid.NewString(),
				VideoID:         video.ID,
				FromSceneID:     scenes[i].ID,
				ToSceneID:       scenes[i+1].ID,
				TransitionType:  t.Type,
				DurationSeconds: t.Duration,
				Parameters:      models.TransitionParams{Reasoning: t.Reasoning},
			})
		}
		return models.BatchCreateTransitions(tx, records)
	})
	if err != nil {
		return nil, err
	}

	if err := s.Queue.EnqueueRender(video.ID); err != nil {
		// 入队失败直接标失败，避免永远停在 rendering
		_ = models.UpdateVideoStatus(s.DB, video.ID, models.VideoStatusFailed, nil)
		return nil, apperr.Internal(err)
	}

	s.Log.Info("渲染任务已入队",
		zap.String("videoId", video.ID),
		zap.String("scriptId", scriptID),
		zap.Float64("duration", timeline.TotalDuration),
	)
	return video, nil
}

// RenderProgress 状态到进度百分比的映射
func RenderProgress(status string) int {
	switch status {
	case models.VideoStatusRendering:
		return 50
	case models.VideoStatusCompleted:
		return 100
	default:
		return 0
	}
}

// RenderStatusInfo 渲染状态查询结果
type RenderStatusInfo struct {
	VideoID     string     `json:"videoId"`
	Status      string     `json:"status"`
	Progress    int        `json:"progress"`
	VideoURL    string     `json:"videoUrl,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// RenderStatus 查询脚本最近一次渲染的状态
func (s *Stitcher) RenderStatus(scriptID string) (*RenderStatusInfo, error) {
	video, err := models.LatestVideoByScript(s.DB, scriptID)
	if err != nil {
		return nil, err
	}
	if video == nil {
		return nil, apperr.NotFound("Render job", scriptID)
	}
	return &RenderStatusInfo{
		VideoID:     video.ID,
		Status:      video.Status,
		Progress:    RenderProgress(video.Status),
		VideoURL:    video.VideoURL,
		CompletedAt: video.CompletedAt,
	}, nil
}
