package models

import (
	"time"

	"gorm.io/gorm"
)

// 音轨类型
const (
	TrackTypeNarration = "narration"
	TrackTypeMusic     = "music"
	TrackTypeSFX       = "sfx"
)

type AudioTrack struct {
	ID              string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ScriptID        string    `gorm:"index;type:varchar(64)" json:"scriptId"`
	TrackType       string    `json:"trackType"`
	AudioURL        string    `json:"audioUrl"`
	DurationSeconds float64   `json:"durationSeconds"`
	VoiceID         string    `json:"voiceId"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (AudioTrack) TableName() string { return "audio_track" }

// GetNarrationTrack 脚本的旁白音轨，不存在返回 nil
func GetNarrationTrack(db *gorm.DB, scriptID string) (*AudioTrack, error) {
	var t AudioTrack
	err := db.Where("script_id = ? AND track_type = ?", scriptID, TrackTypeNarration).
		Order("created_at DESC").First(&t).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
