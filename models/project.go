package models

import (
	"time"

	"gorm.io/gorm"
)

// 项目状态
const (
	ProjectStatusDraft     = "draft"
	ProjectStatusActive    = "active"
	ProjectStatusCompleted = "completed"
	ProjectStatusArchived  = "archived"
)

// 项目阶段：1 文案 -> 2 分镜 -> 3 素材 -> 4 合成
const (
	StageScript = 1
	StageScenes = 2
	StageAssets = 3
	StageRender = 4
)

type User struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Email     string    `gorm:"type:varchar(255)" json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (User) TableName() string { return "user" }

type Project struct {
	ID           string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID       string     `gorm:"index;type:varchar(64)" json:"userId"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Status       string     `json:"status"`
	CurrentStage int        `json:"currentStage"`
	Campaigns    []Campaign `gorm:"foreignKey:ProjectID" json:"campaigns,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (Project) TableName() string { return "project" }

func CreateProject(db *gorm.DB, p *Project) error {
	return db.Create(p).Error
}

// GetProjectByID 项目详情，级联取 campaign / research / script / scene
func GetProjectByID(db *gorm.DB, id string) (*Project, error) {
	var p Project
	err := db.
		Preload("Campaigns").
		Preload("Campaigns.ResearchData").
		Preload("Campaigns.Scripts", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("variant_number ASC")
		}).
		Preload("Campaigns.Scripts.Scenes", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("scene_number ASC")
		}).
		First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProjectsByUser 当前用户的项目列表（按更新时间倒序）
func ListProjectsByUser(db *gorm.DB, userID string) ([]Project, error) {
	var list []Project
	err := db.
		Preload("Campaigns").
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&list).Error
	return list, err
}

// SetProjectStage 无条件覆盖项目阶段（审批脚本时重置为 2，非单调）
func SetProjectStage(db *gorm.DB, projectID string, stage int) error {
	return db.Model(&Project{}).Where("id = ?", projectID).Updates(map[string]interface{}{
		"current_stage": stage,
		"updated_at":    time.Now(),
	}).Error
}
