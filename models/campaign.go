package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// StringList JSON 字符串数组列（keyBenefits / sources 等）
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(value interface{}) error {
	return scanJSON(value, l)
}

type Campaign struct {
	ID                 string         `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ProjectID          string         `gorm:"index;type:varchar(64)" json:"projectId"`
	BrandName          string         `json:"brandName"`
	ProductName        string         `json:"productName"`
	ProductDescription string         `json:"productDescription"`
	TargetAudience     string         `json:"targetAudience"`
	KeyBenefits        StringList     `gorm:"type:json" json:"keyBenefits"`
	BrandVoice         string         `json:"brandVoice"`
	Tone               string         `json:"tone"`
	AdditionalContext  string         `json:"additionalContext"`
	VideoLength        int            `json:"videoLength"`
	VideoStyle         string         `json:"videoStyle"`
	ResearchData       []ResearchData `gorm:"foreignKey:CampaignID" json:"researchData,omitempty"`
	Scripts            []Script       `gorm:"foreignKey:CampaignID" json:"scripts,omitempty"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
}

func (Campaign) TableName() string { return "campaign" }

func CreateCampaign(db *gorm.DB, c *Campaign) error {
	return db.Create(c).Error
}

// GetCampaignByID 投放详情，带调研与脚本（脚本含分镜）
func GetCampaignByID(db *gorm.DB, id string) (*Campaign, error) {
	var c Campaign
	err := db.
		Preload("ResearchData", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at DESC")
		}).
		Preload("Scripts", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("variant_number ASC")
		}).
		Preload("Scripts.Scenes", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("scene_number ASC")
		}).
		First(&c, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ResearchResults 调研结果，落库为显式结构而不是开放 map
type ResearchResults struct {
	Insights           []string `json:"insights"`
	Trends             []string `json:"trends"`
	CompetitorAnalysis []string `json:"competitorAnalysis"`
	Recommendations    []string `json:"recommendations"`
	Sources            []string `json:"sources"`
	ConfidenceScore    float64  `json:"confidenceScore"`
}

func (r ResearchResults) Value() (driver.Value, error) {
	return json.Marshal(r)
}

func (r *ResearchResults) Scan(value interface{}) error {
	return scanJSON(value, r)
}

// ResearchData 只追加，"最新"取 created_at 最大的一条
type ResearchData struct {
	ID              string          `gorm:"primaryKey;type:varchar(64)" json:"id"`
	CampaignID      string          `gorm:"index;type:varchar(64)" json:"campaignId"`
	ResearchType    string          `json:"researchType"`
	Query           string          `json:"query"`
	Results         ResearchResults `gorm:"type:json" json:"results"`
	Sources         StringList      `gorm:"type:json" json:"sources"`
	ConfidenceScore float64         `json:"confidenceScore"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func (ResearchData) TableName() string { return "research_data" }

// LatestResearch 取最新一条调研，没有则返回 nil（脚本生成时可缺省）
func LatestResearch(db *gorm.DB, campaignID string) (*ResearchData, error) {
	var r ResearchData
	err := db.Where("campaign_id = ?", campaignID).Order("created_at DESC").First(&r).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}
