package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// 脚本状态
const (
	ScriptStatusPending    = "pending"
	ScriptStatusGenerating = "generating"
	ScriptStatusGenerated  = "generated"
	ScriptStatusApproved   = "approved"
	ScriptStatusRejected   = "rejected"
)

// ScriptMetadata 脚本元信息（钩子/关键信息/CTA）
type ScriptMetadata struct {
	Hooks        []string `json:"hooks"`
	KeyMessages  []string `json:"keyMessages"`
	CallToAction string   `json:"callToAction"`
}

func (m ScriptMetadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

func (m *ScriptMetadata) Scan(value interface{}) error {
	return scanJSON(value, m)
}

type Script struct {
	ID              string         `gorm:"primaryKey;type:varchar(64)" json:"id"`
	CampaignID      string         `gorm:"index;type:varchar(64)" json:"campaignId"`
	VariantNumber   int            `json:"variantNumber"`
	Title           string         `json:"title"`
	Content         string         `gorm:"type:text" json:"content"`
	DurationSeconds float64        `json:"durationSeconds"`
	Tone            string         `json:"tone"`
	Style           string         `json:"style"`
	Metadata        ScriptMetadata `gorm:"type:json" json:"metadata"`
	Status          string         `json:"status"`
	Approved        bool           `json:"approved"`
	ApprovedAt      *time.Time     `json:"approvedAt"`
	Scenes          []Scene        `gorm:"foreignKey:ScriptID" json:"scenes,omitempty"`
	AudioTracks     []AudioTrack   `gorm:"foreignKey:ScriptID" json:"audioTracks,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

func (Script) TableName() string { return "script" }

func GetScriptByID(db *gorm.DB, id string) (*Script, error) {
	var s Script
	if err := db.First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// GetScriptWithScenes 脚本 + 有序分镜
func GetScriptWithScenes(db *gorm.DB, id string) (*Script, error) {
	var s Script
	err := db.
		Preload("Scenes", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("scene_number ASC")
		}).
		First(&s, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ApproveScript 审批脚本。单事务内：
//  1. 清掉同 campaign 其余脚本的 approved（保持单一审批）
//  2. 置本脚本 approved / approvedAt / status
//  3. 父项目 currentStage 无条件重置为 2（重复审批同样回到 2）
func ApproveScript(db *gorm.DB, scriptID string) (*Script, error) {
	var approved Script
	err := db.Transaction(func(tx *gorm.DB) error {
		var s Script
		if err := tx.First(&s, "id = ?", scriptID).Error; err != nil {
			return err
		}
		var c Campaign
		if err := tx.First(&c, "id = ?", s.CampaignID).Error; err != nil {
			return err
		}

		now := time.Now()
		if err := tx.Model(&Script{}).
			Where("campaign_id = ? AND id <> ?", s.CampaignID, s.ID).
			Updates(map[string]interface{}{"approved": false, "updated_at": now}).Error; err != nil {
			return err
		}
		if err := tx.Model(&s).Updates(map[string]interface{}{
			"approved":    true,
			"approved_at": now,
			"status":      ScriptStatusApproved,
			"updated_at":  now,
		}).Error; err != nil {
			return err
		}
		if err := tx.Model(&Project{}).Where("id = ?", c.ProjectID).Updates(map[string]interface{}{
			"current_stage": StageScenes,
			"updated_at":    now,
		}).Error; err != nil {
			return err
		}

		s.Approved = true
		s.ApprovedAt = &now
		s.Status = ScriptStatusApproved
		approved = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &approved, nil
}
