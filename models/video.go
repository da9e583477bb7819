package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// 渲染状态（显式任务状态机，由 service/render.go 驱动）
const (
	VideoStatusPending   = "pending"
	VideoStatusRendering = "rendering"
	VideoStatusCompleted = "completed"
	VideoStatusFailed    = "failed"
	VideoStatusCancelled = "cancelled"
)

// RenderSettings 渲染参数五元组
type RenderSettings struct {
	Resolution string `json:"resolution"`
	FPS        int    `json:"fps"`
	Codec      string `json:"codec"`
	Bitrate    string `json:"bitrate"`
	Format     string `json:"format"`
}

func (s RenderSettings) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *RenderSettings) Scan(value interface{}) error {
	return scanJSON(value, s)
}

type Video struct {
	ID              string         `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ScriptID        string         `gorm:"index;type:varchar(64)" json:"scriptId"`
	VideoURL        string         `json:"videoUrl"`
	DurationSeconds float64        `json:"durationSeconds"`
	Resolution      string         `json:"resolution"`
	RenderSettings  RenderSettings `gorm:"type:json" json:"renderSettings"`
	Status          string         `json:"status"`
	CompletedAt     *time.Time     `json:"completedAt"`
	Transitions     []Transition   `gorm:"foreignKey:VideoID" json:"transitions,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

func (Video) TableName() string { return "video" }

func GetVideoByID(db *gorm.DB, id string) (*Video, error) {
	var v Video
	if err := db.First(&v, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

// LatestVideoByScript 最近一次渲染记录（状态查询用），带转场
func LatestVideoByScript(db *gorm.DB, scriptID string) (*Video, error) {
	var v Video
	err := db.Preload("Transitions").
		Where("script_id = ?", scriptID).
		Order("created_at DESC").First(&v).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// UpdateVideoStatus 渲染状态流转
func UpdateVideoStatus(db *gorm.DB, videoID, status string, fields map[string]interface{}) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	for k, v := range fields {
		updates[k] = v
	}
	return db.Model(&Video{}).Where("id = ?", videoID).Updates(updates).Error
}

// TransitionParams 转场附加参数（AI 推荐理由）
type TransitionParams struct {
	Reasoning string `json:"reasoning,omitempty"`
}

func (p TransitionParams) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *TransitionParams) Scan(value interface{}) error {
	return scanJSON(value, p)
}

type Transition struct {
	ID              string           `gorm:"primaryKey;type:varchar(64)" json:"id"`
	VideoID         string           `gorm:"index;type:varchar(64)" json:"videoId"`
	FromSceneID     string           `gorm:"type:varchar(64)" json:"fromSceneId"`
	ToSceneID       string           `gorm:"type:varchar(64)" json:"toSceneId"`
	TransitionType  string           `json:"transitionType"`
	DurationSeconds float64          `json:"durationSeconds"`
	Parameters      TransitionParams `gorm:"type:json" json:"parameters"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

func (Transition) TableName() string { return "transition" }

func BatchCreateTransitions(db *gorm.DB, ts []Transition) error {
	if len(ts) == 0 {
		return nil
	}
	return db.Create(&ts).Error
}
