package api

import (
	"fmt"

	"BrandScene-server/apperr"
	"BrandScene-server/models"
	"BrandScene-server/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultImageCount = 3
	maxImageCount     = 5
)

// SceneHandler 分镜与关键帧接口
type SceneHandler struct {
	DB    *gorm.DB
	Text  *service.TextClient
	Image *service.ImageClient
	Store *service.AssetStore
	Log   *zap.Logger
}

func NewSceneHandler(db *gorm.DB, text *service.TextClient, image *service.ImageClient, store *service.AssetStore, log *zap.Logger) *SceneHandler {
	return &SceneHandler{DB: db, Text: text, Image: image, Store: store, Log: log}
}

// GenerateScenes 把已审批脚本拆成分镜并落库
func (h *SceneHandler) GenerateScenes(c *gin.Context) {
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
	if !script.Approved {
		abortErr(c, apperr.Validation("Script must be approved before generating scenes"))
		return
	}

	breakdown, err := h.Text.BreakdownScenes(c.Request.Context(), script.Title, script.Content, script.DurationSeconds)
	if err != nil {
		abortErr(c, err)
		return
	}

	scenes := make([]models.Scene, 0, len(breakdown))
	for _, b := range breakdown {
		scenes = append(scenes, models.Scene{
			ID:                uuid.NewString(),
			ScriptID:          script.ID,
			SceneNumber:       b.SceneNumber,
			NarrationText:     b.NarrationText,
			VisualDescription: b.VisualDescription,
			DurationSeconds:   b.DurationSeconds,
			Mood:              b.Mood,
			CameraAngle:       b.CameraAngle,
			TransitionType:    b.TransitionType,
		})
	}
	if err := models.BatchCreateScenes(h.DB, scenes); err != nil {
		abortErr(c, err)
		return
	}

	h.Log.Info("分镜生成完成",
		zap.String("scriptId", script.ID),
		zap.Int("scenes", len(scenes)),
	)
	respondCreated(c, scenes, "Scenes generated successfully")
}

// ListScenes 脚本的分镜列表（含图片候选）
func (h *SceneHandler) ListScenes(c *gin.Context) {
	scriptID := c.Param("scriptId")
	if _, err := models.GetScriptByID(h.DB, scriptID); err != nil {
		if err == gorm.ErrRecordNotFound {
			abortErr(c, apperr.NotFound("Script", scriptID))
			return
		}
		abortErr(c, err)
		return
	}
	scenes, err := models.GetScenesByScript(h.DB, scriptID)
	if err != nil {
		abortErr(c, err)
		return
	}
	respondOK(c, scenes, "")
}

// GenerateImages 为分镜生成候选关键帧。单张失败跳过继续，全部失败才报错。
func (h *SceneHandler) GenerateImages(c *gin.Context) {
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
		Count *int `json:"count"`
	}
	if err := bindOptionalJSON(c, &req); err != nil {
		abortErr(c, apperr.Validation("Invalid request body"))
		return
	}
	count := defaultImageCount
	if req.Count != nil {
		count = *req.Count
	}
	if count < 1 || count > maxImageCount {
		abortErr(c, apperr.Validation("Image count must be between 1 and 5"))
		return
	}

	prompt := fmt.Sprintf("%s. Mood: %s. Camera angle: %s. Professional marketing video still, photorealistic, high quality.",
		scene.VisualDescription, scene.Mood, scene.CameraAngle)

	variations := make([]models.ImageVariation, 0, count)
	for i := 1; i <= count; i++ {
		url, err := h.Image.GenerateImage(c.Request.Context(), prompt)
		if err != nil {
			// 容忍单张失败，凑齐能生成的
			h.Log.Warn("关键帧生成失败，跳过",
				zap.String("sceneId", scene.ID),
				zap.Int("variation", i),
				zap.Error(err),
			)
			continue
		}

		// 外链转存 MinIO，失败就直接用源地址
		objectName := fmt.Sprintf("scenes/%s/variation-%d.png", scene.ID, i)
		if stored, err := h.Store.Mirror(c.Request.Context(), url, objectName); err == nil {
			url = stored
		} else {
			h.Log.Warn("图片转存失败，保留源地址", zap.String("object", objectName), zap.Error(err))
		}

		variations = append(variations, models.ImageVariation{
			ID:               uuid.NewString(),
			SceneID:          scene.ID,
			VariationNumber:  i,
			Prompt:           prompt,
			ImageURL:         url,
			GenerationParams: h.Image.Params(),
		})
	}
	if len(variations) == 0 {
		abortErr(c, apperr.AIService("Failed to generate any image variations", nil))
		return
	}

	if err := h.DB.Create(&variations).Error; err != nil {
		abortErr(c, err)
		return
	}
	respondCreated(c, variations, "Image variations generated successfully")
}

// SelectImage 选定候选图，同分镜其余取消选中
func (h *SceneHandler) SelectImage(c *gin.Context) {
	variationID := c.Param("variationId")
	selected, err := models.SelectImageVariation(h.DB, variationID)
	if err == gorm.ErrRecordNotFound {
		abortErr(c, apperr.NotFound("Image variation", variationID))
		return
	}
	if err != nil {
		abortErr(c, err)
		return
	}
	respondOK(c, selected, "Image variation selected")
}
