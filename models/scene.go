package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

type Scene struct {
	ID                string           `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ScriptID          string           `gorm:"index;type:varchar(64)" json:"scriptId"`
	SceneNumber       int              `json:"sceneNumber"`
	NarrationText     string           `gorm:"type:text" json:"narrationText"`
	VisualDescription string           `gorm:"type:text" json:"visualDescription"`
	DurationSeconds   float64          `json:"durationSeconds"`
	Mood              string           `json:"mood"`
	CameraAngle       string           `json:"cameraAngle"`
	TransitionType    string           `json:"transitionType"`
	ImageVariations   []ImageVariation `gorm:"foreignKey:SceneID" json:"imageVariations,omitempty"`
	VideoClips        []VideoClip      `gorm:"foreignKey:SceneID" json:"videoClips,omitempty"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

func (Scene) TableName() string { return "scene" }

// BatchCreateScenes 分镜由一次 AI 拆解整体写入
func BatchCreateScenes(db *gorm.DB, scenes []Scene) error {
	if len(scenes) == 0 {
		return nil
	}
	return db.Create(&scenes).Error
}

func GetSceneByID(db *gorm.DB, id string) (*Scene, error) {
	var s Scene
	if err := db.First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// GetScenesByScript 有序分镜 + 各自的图片候选
func GetScenesByScript(db *gorm.DB, scriptID string) ([]Scene, error) {
	var scenes []Scene
	err := db.
		Preload("ImageVariations", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("variation_number ASC")
		}).
		Where("script_id = ?", scriptID).
		Order("scene_number ASC").
		Find(&scenes).Error
	return scenes, err
}

// GetSceneAssetsByScript 有序分镜 + 视频片段 + 已选中的图片（素材清单 / 时间线用）
func GetSceneAssetsByScript(db *gorm.DB, scriptID string) ([]Scene, error) {
	var scenes []Scene
	err := db.
		Preload("VideoClips").
		Preload("ImageVariations", "selected = ?", true).
		Where("script_id = ?", scriptID).
		Order("scene_number ASC").
		Find(&scenes).Error
	return scenes, err
}

// GenerationParams 生图参数（显式结构落库）
type GenerationParams struct {
	Model   string `json:"model"`
	Size    string `json:"size"`
	Quality string `json:"quality"`
}

func (p GenerationParams) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *GenerationParams) Scan(value interface{}) error {
	return scanJSON(value, p)
}

type ImageVariation struct {
	ID               string           `gorm:"primaryKey;type:varchar(64)" json:"id"`
	SceneID          string           `gorm:"index;type:varchar(64)" json:"sceneId"`
	VariationNumber  int              `json:"variationNumber"`
	Prompt           string           `gorm:"type:text" json:"prompt"`
	ImageURL         string           `json:"imageUrl"`
	GenerationParams GenerationParams `gorm:"type:json" json:"generationParams"`
	Selected         bool             `json:"selected"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

func (ImageVariation) TableName() string { return "image_variation" }

// SelectImageVariation 选定某张候选图。单事务内先清掉同分镜的全部 selected
// 再置目标，保证并发下同一分镜不会出现两张选中。
func SelectImageVariation(db *gorm.DB, variationID string) (*ImageVariation, error) {
	var selected ImageVariation
	err := db.Transaction(func(tx *gorm.DB) error {
		var v ImageVariation
		if err := tx.First(&v, "id = ?", variationID).Error; err != nil {
			return err
		}
		now := time.Now()
		if err := tx.Model(&ImageVariation{}).
			Where("scene_id = ?", v.SceneID).
			Updates(map[string]interface{}{"selected": false, "updated_at": now}).Error; err != nil {
			return err
		}
		if err := tx.Model(&v).Updates(map[string]interface{}{
			"selected":   true,
			"updated_at": now,
		}).Error; err != nil {
			return err
		}
		v.Selected = true
		selected = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &selected, nil
}

// 视频片段来源与处理状态
const (
	ClipSourceStock     = "stock"
	ClipSourceGenerated = "generated"
	ClipSourceUploaded  = "uploaded"

	ClipStatusPending   = "pending"
	ClipStatusCompleted = "completed"
	ClipStatusFailed    = "failed"
)

type VideoClip struct {
	ID               string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	SceneID          string    `gorm:"index;type:varchar(64)" json:"sceneId"`
	SourceType       string    `json:"sourceType"`
	SourceURL        string    `json:"sourceUrl"`
	DurationSeconds  float64   `json:"durationSeconds"`
	Resolution       string    `json:"resolution"`
	ThumbnailURL     string    `json:"thumbnailUrl"`
	ProcessingStatus string    `json:"processingStatus"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func (VideoClip) TableName() string { return "video_clip" }

func GetVideoClipByID(db *gorm.DB, id string) (*VideoClip, error) {
	var c VideoClip
	if err := db.First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}
