package api

import (
	"bytes"
	"fmt"
	"strings"

	"BrandScene-server/apperr"
	"BrandScene-server/models"
	"BrandScene-server/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// VideoHandler 素材接口：库存视频 / 旁白 / 配乐 / 素材清单
type VideoHandler struct {
	DB     *gorm.DB
	Stock  *service.StockClient
	Speech *service.SpeechClient
	Store  *service.AssetStore
	Log    *zap.Logger
}

func NewVideoHandler(db *gorm.DB, stock *service.StockClient, speech *service.SpeechClient, store *service.AssetStore, log *zap.Logger) *VideoHandler {
	return &VideoHandler{DB: db, Stock: stock, Speech: speech, Store: store, Log: log}
}

// SearchStockVideos 检索库存视频并作为候选片段落库。
// 不传 query 时用分镜的视觉描述检索。
func (h *VideoHandler) SearchStockVideos(c *gin.Context) {
	sceneID := c.Param("sceneId")
	scene, err := models.GetSceneByID(h.DB, sceneID)
	if err == gorm.ErrRecordNotFound {
		abortErr(c, apperr.NotFound("Scene", sceneID))
		return
	}
	if err != nil {
		abortErr(c, err)
		return
	}

	var req struct {
		Query string `json:"query"`
		Count int    `json:"count"`
	}
	if err := bindOptionalJSON(c, &req); err != nil {
		abortErr(c, apperr.Validation("Invalid request body"))
		return
	}
	query := req.Query
	if query == "" {
		query = scene.VisualDescription
	}

	results, err := h.Stock.Search(c.Request.Context(), query, req.Count)
	if err != nil {
		abortErr(c, err)
		return
	}

	clips := make([]models.VideoClip, 0, len(results))
	for _, r := range results {
		clips = append(clips, models.VideoClip{
			ID:               uuid.NewString(),
			SceneID:          scene.ID,
			SourceType:       models.ClipSourceStock,
			SourceURL:        r.SourceURL,
			DurationSeconds:  r.Duration,
			Resolution:       r.Resolution,
			ThumbnailURL:     r.ThumbnailURL,
			ProcessingStatus: models.ClipStatusCompleted,
		})
	}
	if len(clips) > 0 {
		if err := h.DB.Create(&clips).Error; err != nil {
			abortErr(c, err)
			return
		}
	}

	h.Log.Info("库存视频检索完成",
		zap.String("sceneId", scene.ID),
		zap.Int("clips", len(clips)),
	)
	respondCreated(c, clips, "Stock videos fetched successfully")
}

// SelectClip 选定视频片段
func (h *VideoHandler) SelectClip(c *gin.Context) {
	clipID := c.Param("clipId")
	clip, err := models.GetVideoClipByID(h.DB, clipID)
	if err == gorm.ErrRecordNotFound {
		abortErr(c, apperr.NotFound("Video clip", clipID))
		return
	}
	if err != nil {
		abortErr(c, err)
		return
	}
	h.Log.Info("视频片段已选定", zap.String("sceneId", clip.SceneID), zap.String("clipId", clip.ID))
	respondOK(c, clip, "Video clip selected")
}

// GenerateNarration 为整个脚本合成旁白，上传后建音轨记录
func (h *VideoHandler) GenerateNarration(c *gin.Context) {
	scriptID := c.Param("scriptId")
	script, err := models.GetScriptByID(h.DB, scriptID)
	if err == gorm.ErrRecordNotFound {
		abortErr(c, apperr.NotFound("Script", scriptID))
		return
	}
	if err != nil {
		abortErr(c, err)
		return
	}

	var req struct {
		VoiceID string `json:"voiceId"`
	}
	if err := bindOptionalJSON(c, &req); err != nil {
		abortErr(c, apperr.Validation("Invalid request body"))
		return
	}
	voiceID := req.VoiceID
	if voiceID == "" {
		voiceID = service.DefaultVoiceID
	}

	audio, err := h.Speech.Synthesize(c.Request.Context(), script.Content, voiceID)
	if err != nil {
		abortErr(c, err)
		return
	}

	objectName := fmt.Sprintf("narration/%s.mp3", script.ID)
	audioURL, err := h.Store.Upload(c.Request.Context(), bytes.NewReader(audio), objectName, int64(len(audio)))
	if err != nil {
		abortErr(c, apperr.ExternalService("Failed to store narration audio", err))
		return
	}

	duration := script.DurationSeconds
	if duration == 0 {
		duration = service.EstimateNarrationDuration(script.Content)
	}

	track := &models.AudioTrack{
		ID:              uuid.NewString(),
		ScriptID:        script.ID,
		TrackType:       models.TrackTypeNarration,
		AudioURL:        audioURL,
		DurationSeconds: duration,
		VoiceID:         voiceID,
	}
	if err := h.DB.Create(track).Error; err != nil {
		abortErr(c, err)
		return
	}

	h.Log.Info("旁白生成完成", zap.String("scriptId", script.ID), zap.String("trackId", track.ID))
	respondCreated(c, track, "Narration generated successfully")
}

// GenerateSceneNarration 合成单分镜旁白，返回音频地址与时长，不落音轨
func (h *VideoHandler) GenerateSceneNarration(c *gin.Context) {
	sceneID := c.Param("sceneId")
	scene, err := models.GetSceneByID(h.DB, sceneID)
	if err == gorm.ErrRecordNotFound {
		abortErr(c, apperr.NotFound("Scene", sceneID))
		return
	}
	if err != nil {
		abortErr(c, err)
		return
	}

	var req struct {
		VoiceID string `json:"voiceId"`
	}
	if err := bindOptionalJSON(c, &req); err != nil {
		abortErr(c, apperr.Validation("Invalid request body"))
		return
	}

	audio, err := h.Speech.Synthesize(c.Request.Context(), scene.NarrationText, req.VoiceID)
	if err != nil {
		abortErr(c, err)
		return
	}

	objectName := fmt.Sprintf("narration/scenes/%s.mp3", scene.ID)
	audioURL, err := h.Store.Upload(c.Request.Context(), bytes.NewReader(audio), objectName, int64(len(audio)))
	if err != nil {
		abortErr(c, apperr.ExternalService("Failed to store narration audio", err))
		return
	}

	respondOK(c, gin.H{
		"url":      audioURL,
		"duration": scene.DurationSeconds,
	}, "Scene narration generated")
}

// SuggestMusic 按分镜主导情绪推荐配乐
func (h *VideoHandler) SuggestMusic(c *gin.Context) {
	scriptID := c.Param("scriptId")
	script, err := models.GetScriptWithScenes(h.DB, scriptID)
	if err == gorm.ErrRecordNotFound {
		abortErr(c, apperr.NotFound("Script", scriptID))
		return
	}
	if err != nil {
		abortErr(c, err)
		return
	}

	// 主导情绪取第一个分镜，缺省回退脚本语气
	mood := script.Tone
	if len(script.Scenes) > 0 && script.Scenes[0].Mood != "" {
		mood = script.Scenes[0].Mood
	}
	tracks := service.SuggestMusic(strings.ToLower(mood))

	respondOK(c, gin.H{
		"mood":        mood,
		"suggestions": tracks,
	}, "")
}

// GetAssets 脚本的全部素材清单（分镜 + 片段 + 选中图）
func (h *VideoHandler) GetAssets(c *gin.Context) {
	scriptID := c.Param("scriptId")
	if _, err := models.GetScriptByID(h.DB, scriptID); err != nil {
		if err == gorm.ErrRecordNotFound {
			abortErr(c, apperr.NotFound("Script", scriptID))
			return
		}
		abortErr(c, err)
		return
	}

	scenes, err := models.GetSceneAssetsByScript(h.DB, scriptID)
	if err != nil {
		abortErr(c, err)
		return
	}
	narration, err := models.GetNarrationTrack(h.DB, scriptID)
	if err != nil {
		abortErr(c, err)
		return
	}

	respondOK(c, gin.H{
		"scenes":    scenes,
		"narration": narration,
	}, "")
}
