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

// 入参校验边界
const (
	maxNameLen        = 255
	maxDescriptionLen = 1000
	minBriefLen       = 10
	maxVoiceToneLen   = 100
	minVideoLength    = 10
	maxVideoLength    = 180
	defaultVideoLen   = 30
	defaultVariants   = 3
	maxVariants       = 5
)

// ProjectHandler 项目 / 投放 / 调研 / 脚本接口
type ProjectHandler struct {
	DB   *gorm.DB
	Text *service.TextClient
	Log  *zap.Logger
}

func NewProjectHandler(db *gorm.DB, text *service.TextClient, log *zap.Logger) *ProjectHandler {
	return &ProjectHandler{DB: db, Text: text, Log: log}
}

// CreateProject 创建项目
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortErr(c, apperr.Validation("Invalid request body"))
		return
	}
	if req.Name == "" || len(req.Name) > maxNameLen {
		abortErr(c, apperr.Validation("Project name must be between 1 and 255 characters"))
		return
	}
	if len(req.Description) > maxDescriptionLen {
		abortErr(c, apperr.Validation("Description must not exceed 1000 characters"))
		return
	}

	p := &models.Project{
		ID:           uuid.NewString(),
		UserID:       models.DemoUserID,
		Name:         req.Name,
		Description:  req.Description,
		Status:       models.ProjectStatusDraft,
		CurrentStage: models.StageScript,
	}
	if err := models.CreateProject(h.DB, p); err != nil {
		abortErr(c, err)
		return
	}
	respondCreated(c, p, "Project created successfully")
}

// ListProjects 当前用户的项目列表
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	list, err := models.ListProjectsByUser(h.DB, models.DemoUserID)
	if err != nil {
		abortErr(c, err)
		return
	}
	respondOK(c, list, "")
}

// GetProject 项目详情（级联投放/脚本/分镜）
func (h *ProjectHandler) GetProject(c *gin.Context) {
	id := c.Param("projectId")
	p, err := models.GetProjectByID(h.DB, id)
	if err == gorm.ErrRecordNotFound {
		abortErr(c, apperr.NotFound("Project", id))
		return
	}
	if err != nil {
		abortErr(c, err)
		return
	}
	respondOK(c, p, "")
}

type campaignRequest struct {
	BrandName          string   `json:"brandName"`
	ProductName        string   `json:"productName"`
	ProductDescription string   `json:"productDescription"`
	TargetAudience     string   `json:"targetAudience"`
	KeyBenefits        []string `json:"keyBenefits"`
	BrandVoice         string   `json:"brandVoice"`
	Tone               string   `json:"tone"`
	AdditionalContext  string   `json:"additionalContext"`
	VideoLength        int      `json:"videoLength"`
	VideoStyle         string   `json:"videoStyle"`
}

// validateCampaign 字段校验，任何记录写入前执行
func validateCampaign(req *campaignRequest, partial bool) error {
	if !partial || req.BrandName != "" {
		if req.BrandName == "" || len(req.BrandName) > maxNameLen {
			return apperr.Validation("Brand name must be between 1 and 255 characters")
		}
	}
	if !partial || req.ProductName != "" {
		if req.ProductName == "" || len(req.ProductName) > maxNameLen {
			return apperr.Validation("Product name must be between 1 and 255 characters")
		}
	}
	if !partial || req.ProductDescription != "" {
		if len(req.ProductDescription) < minBriefLen {
			return apperr.Validation("Product description must be at least 10 characters")
		}
	}
	if !partial || req.TargetAudience != "" {
		if len(req.TargetAudience) < minBriefLen {
			return apperr.Validation("Target audience must be at least 10 characters")
		}
	}
	if len(req.BrandVoice) > maxVoiceToneLen {
		return apperr.Validation("Brand voice must not exceed 100 characters")
	}
	if len(req.Tone) > maxVoiceToneLen {
		return apperr.Validation("Tone must not exceed 100 characters")
	}
	if req.VideoLength != 0 && (req.VideoLength < minVideoLength || req.VideoLength > maxVideoLength) {
		return apperr.Validation("Video length must be between 10 and 180 seconds")
	}
	return nil
}

// CreateCampaign 在项目下创建投放
func (h *ProjectHandler) CreateCampaign(c *gin.Context) {
	projectID := c.Param("projectId")
	if _, err := models.GetProjectByID(h.DB, projectID); err != nil {
		if err == gorm.ErrRecordNotFound {
			abortErr(c, apperr.NotFound("Project", projectID))
			return
		}
		abortErr(c, err)
		return
	}

	var req campaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortErr(c, apperr.Validation("Invalid request body"))
		return
	}
	if err := validateCampaign(&req, false); err != nil {
		abortErr(c, err)
		return
	}
	if req.VideoLength == 0 {
		req.VideoLength = defaultVideoLen
	}

	campaign := &models.Campaign{
		ID:                 uuid.NewString(),
		ProjectID:          projectID,
		BrandName:          req.BrandName,
		ProductName:        req.ProductName,
		ProductDescription: req.ProductDescription,
		TargetAudience:     req.TargetAudience,
		KeyBenefits:        req.KeyBenefits,
		BrandVoice:         req.BrandVoice,
		Tone:               req.Tone,
		AdditionalContext:  req.AdditionalContext,
		VideoLength:        req.VideoLength,
		VideoStyle:         req.VideoStyle,
	}
	if err := models.CreateCampaign(h.DB, campaign); err != nil {
		abortErr(c, err)
		return
	}
	respondCreated(c, campaign, "Campaign created successfully")
}

// GetCampaign 投放详情（带调研与脚本）
func (h *ProjectHandler) GetCampaign(c *gin.Context) {
	id := c.Param("campaignId")
	campaign, err := models.GetCampaignByID(h.DB, id)
	if err == gorm.ErrRecordNotFound {
		abortErr(c, apperr.NotFound("Campaign", id))
		return
	}
	if err != nil {
		abortErr(c, err)
		return
	}
	respondOK(c, campaign, "")
}

// UpdateCampaign 更新投放（只覆盖传入的字段）
func (h *ProjectHandler) UpdateCampaign(c *gin.Context) {
	id := c.Param("campaignId")
	campaign, err := models.GetCampaignByID(h.DB, id)
	if err == gorm.ErrRecordNotFound {
		abortErr(c, apperr.NotFound("Campaign", id))
		return
	}
	if err != nil {
		abortErr(c, err)
		return
	}

	var req campaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortErr(c, apperr.Validation("Invalid request body"))
		return
	}
	if err := validateCampaign(&req, true); err != nil {
		abortErr(c, err)
		return
	}

	updates := map[string]interface{}{}
	if req.BrandName != "" {
		updates["brand_name"] = req.BrandName
	}
	if req.ProductName != "" {
		updates["product_name"] = req.ProductName
	}
	if req.ProductDescription != "" {
		updates["product_description"] = req.ProductDescription
	}
	if req.TargetAudience != "" {
		updates["target_audience"] = req.TargetAudience
	}
	if req.KeyBenefits != nil {
		updates["key_benefits"] = models.StringList(req.KeyBenefits)
	}
	if req.BrandVoice != "" {
		updates["brand_voice"] = req.BrandVoice
	}
	if req.Tone != "" {
		updates["tone"] = req.Tone
	}
	if req.AdditionalContext != "" {
		updates["additional_context"] = req.AdditionalContext
	}
	if req.VideoLength != 0 {
		updates["video_length"] = req.VideoLength
	}
	if req.VideoStyle != "" {
		updates["video_style"] = req.VideoStyle
	}
	if len(updates) > 0 {
		if err := h.DB.Model(campaign).Updates(updates).Error; err != nil {
			abortErr(c, err)
			return
		}
	}

	updated, err := models.GetCampaignByID(h.DB, id)
	if err != nil {
		abortErr(c, err)
		return
	}
	respondOK(c, updated, "Campaign updated successfully")
}

// RunResearch 执行市场调研并落库
func (h *ProjectHandler) RunResearch(c *gin.Context) {
	id := c.Param("campaignId")
	campaign, err := models.GetCampaignByID(h.DB, id)
	if err == gorm.ErrRecordNotFound {
		abortErr(c, apperr.NotFound("Campaign", id))
		return
	}
	if err != nil {
		abortErr(c, err)
		return
	}

	query := fmt.Sprintf("Market research for %s (%s) targeting %s",
		campaign.ProductName, campaign.BrandName, campaign.TargetAudience)

	results, err := h.Text.ConductResearch(c.Request.Context(), service.ResearchQuery{
		Topic:          campaign.ProductName,
		Context:        campaign.ProductDescription,
		TargetAudience: campaign.TargetAudience,
	})
	if err != nil {
		abortErr(c, err)
		return
	}

	research := &models.ResearchData{
		ID:              uuid.NewString(),
		CampaignID:      campaign.ID,
		ResearchType:    "market",
		Query:           query,
		Results:         *results,
		Sources:         results.Sources,
		ConfidenceScore: results.ConfidenceScore,
	}
	if err := h.DB.Create(research).Error; err != nil {
		abortErr(c, err)
		return
	}

	h.Log.Info("调研完成",
		zap.String("campaignId", campaign.ID),
		zap.Float64("confidence", results.ConfidenceScore),
	)
	respondCreated(c, research, "Research completed successfully")
}

// GenerateScripts 生成脚本变体。variantCount 越界时直接 400，不写任何行。
func (h *ProjectHandler) GenerateScripts(c *gin.Context) {
	id := c.Param("campaignId")

	var req struct {
		VariantCount *int `json:"variantCount"`
	}
	if err := bindOptionalJSON(c, &req); err != nil {
		abortErr(c, apperr.Validation("Invalid request body"))
		return
	}
	count := defaultVariants
	if req.VariantCount != nil {
		count = *req.VariantCount
	}
	if count < 1 || count > maxVariants {
		abortErr(c, apperr.Validation("Variant count must be between 1 and 5"))
		return
	}

	campaign, err := models.GetCampaignByID(h.DB, id)
	if err == gorm.ErrRecordNotFound {
		abortErr(c, apperr.NotFound("Campaign", id))
		return
	}
	if err != nil {
		abortErr(c, err)
		return
	}

	// 有调研就带上下文，没有照样生成
	var research *models.ResearchResults
	latest, err := models.LatestResearch(h.DB, campaign.ID)
	if err != nil {
		abortErr(c, err)
		return
	}
	if latest != nil {
		research = &latest.Results
	}

	generated, err := h.Text.GenerateScriptVariants(c.Request.Context(), service.ScriptParams{
		BrandName:          campaign.BrandName,
		ProductName:        campaign.ProductName,
		ProductDescription: campaign.ProductDescription,
		TargetAudience:     campaign.TargetAudience,
		KeyBenefits:        campaign.KeyBenefits,
		BrandVoice:         campaign.BrandVoice,
		Tone:               campaign.Tone,
		Research:           research,
	}, count)
	if err != nil {
		abortErr(c, err)
		return
	}

	scripts := make([]models.Script, 0, count)
	for i, g := range generated {
		scripts = append(scripts, models.Script{
			ID:              uuid.NewString(),
			CampaignID:      campaign.ID,
			VariantNumber:   i + 1,
			Title:           g.Title,
			Content:         g.Content,
			DurationSeconds: g.DurationSeconds,
			Tone:            g.Tone,
			Style:           g.Style,
			Metadata:        g.Metadata,
			Status:          models.ScriptStatusGenerated,
		})
	}
	if err := h.DB.Create(&scripts).Error; err != nil {
		abortErr(c, err)
		return
	}

	h.Log.Info("脚本生成完成",
		zap.String("campaignId", campaign.ID),
		zap.Int("variants", len(scripts)),
	)
	respondCreated(c, scripts, "Scripts generated successfully")
}

// ApproveScript 审批脚本：单一审批 + 项目阶段重置为 2
func (h *ProjectHandler) ApproveScript(c *gin.Context) {
	id := c.Param("scriptId")
	script, err := models.ApproveScript(h.DB, id)
	if err == gorm.ErrRecordNotFound {
		abortErr(c, apperr.NotFound("Script", id))
		return
	}
	if err != nil {
		abortErr(c, err)
		return
	}
	respondOK(c, script, "Script approved successfully")
}
