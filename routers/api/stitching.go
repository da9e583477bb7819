package api

import (
	"net/http"
	"time"

	"BrandScene-server/apperr"
	"BrandScene-server/models"
	"BrandScene-server/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 前端与后端不同源，放开来源检查
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StitchingHandler 合成接口：转场 / 时间线 / 渲染
type StitchingHandler struct {
	DB        *gorm.DB
	Stitcher  *service.Stitcher
	Processor *service.RenderProcessor
	Log       *zap.Logger
}

func NewStitchingHandler(db *gorm.DB, stitcher *service.Stitcher, processor *service.RenderProcessor, log *zap.Logger) *StitchingHandler {
	return &StitchingHandler{DB: db, Stitcher: stitcher, Processor: processor, Log: log}
}

// GenerateTransitions 推荐相邻分镜的转场
func (h *StitchingHandler) GenerateTransitions(c *gin.Context) {
	scriptID := c.Param("scriptId")
	transitions, err := h.Stitcher.GenerateTransitions(c.Request.Context(), scriptID)
	if err == gorm.ErrRecordNotFound {
		abortErr(c, apperr.NotFound("Script", scriptID))
		return
	}
	if err != nil {
		abortErr(c, err)
		return
	}
	respondOK(c, transitions, "Transitions generated successfully")
}

// GetTimeline 拼接时间线
func (h *StitchingHandler) GetTimeline(c *gin.Context) {
	scriptID := c.Param("scriptId")
	timeline, err := h.Stitcher.Timeline(scriptID)
	if err == gorm.ErrRecordNotFound {
		abortErr(c, apperr.NotFound("Script", scriptID))
		return
	}
	if err != nil {
		abortErr(c, err)
		return
	}
	respondOK(c, timeline, "")
}

// StartRender 发起渲染
func (h *StitchingHandler) StartRender(c *gin.Context) {
	scriptID := c.Param("scriptId")

	var req struct {
		Preset     string `json:"preset"`
		Resolution string `json:"resolution"`
		FPS        int    `json:"fps"`
		Codec      string `json:"codec"`
		Bitrate    string `json:"bitrate"`
		Format     string `json:"format"`
	}
	if err := bindOptionalJSON(c, &req); err != nil {
		abortErr(c, apperr.Validation("Invalid request body"))
		return
	}

	video, err := h.Stitcher.StartRendering(c.Request.Context(), scriptID, req.Preset, models.RenderSettings{
		Resolution: req.Resolution,
		FPS:        req.FPS,
		Codec:      req.Codec,
		Bitrate:    req.Bitrate,
		Format:     req.Format,
	})
	if err == gorm.ErrRecordNotFound {
		abortErr(c, apperr.NotFound("Script", scriptID))
		return
	}
	if err != nil {
		abortErr(c, err)
		return
	}
	respondOK(c, video, "Video rendering started successfully")
}

// RenderStatus 渲染状态与进度
func (h *StitchingHandler) RenderStatus(c *gin.Context) {
	scriptID := c.Param("scriptId")
	status, err := h.Stitcher.RenderStatus(scriptID)
	if err != nil {
		abortErr(c, err)
		return
	}
	respondOK(c, status, "")
}

// CancelRender 取消正在渲染的任务
func (h *StitchingHandler) CancelRender(c *gin.Context) {
	videoID := c.Param("videoId")
	video, err := models.GetVideoByID(h.DB, videoID)
	if err == gorm.ErrRecordNotFound {
		abortErr(c, apperr.NotFound("Video", videoID))
		return
	}
	if err != nil {
		abortErr(c, err)
		return
	}
	if video.Status != models.VideoStatusRendering {
		abortErr(c, apperr.Validation("Video is not rendering"))
		return
	}

	// 还没被消费者捞走的任务靠状态位跳过
	if !h.Processor.CancelRender(videoID) {
		if err := models.UpdateVideoStatus(h.DB, videoID, models.VideoStatusCancelled, nil); err != nil {
			abortErr(c, err)
			return
		}
	}
	h.Log.Info("渲染取消请求已处理", zap.String("videoId", videoID))
	respondOK(c, gin.H{"videoId": videoID, "status": models.VideoStatusCancelled}, "Render cancelled")
}

// ListPresets 渲染预设列表
func (h *StitchingHandler) ListPresets(c *gin.Context) {
	respondOK(c, service.RenderPresets, "")
}

// RenderStatusWS 渲染状态推送：每 2 秒推一次，到终态即收尾
func (h *StitchingHandler) RenderStatusWS(c *gin.Context) {
	scriptID := c.Param("scriptId")

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Log.Warn("WebSocket 升级失败", zap.Error(err))
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		status, err := h.Stitcher.RenderStatus(scriptID)
		if err != nil {
			_ = conn.WriteJSON(gin.H{"error": apperr.From(err).Code})
			return
		}
		if err := conn.WriteJSON(status); err != nil {
			return
		}
		switch status.Status {
		case models.VideoStatusCompleted, models.VideoStatusFailed, models.VideoStatusCancelled:
			return
		}

		select {
		case <-ticker.C:
		case <-c.Request.Context().Done():
			return
		}
	}
}
