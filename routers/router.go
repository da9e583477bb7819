package routers

import (
	"BrandScene-server/config"
	"BrandScene-server/routers/api"
	"BrandScene-server/routers/middleware"
	"BrandScene-server/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps 路由依赖，全部显式注入
type Deps struct {
	Cfg       *config.Config
	DB        *gorm.DB
	Redis     *redis.Client
	Log       *zap.Logger
	Text      *service.TextClient
	Image     *service.ImageClient
	Speech    *service.SpeechClient
	Stock     *service.StockClient
	Store     *service.AssetStore
	Stitcher  *service.Stitcher
	Processor *service.RenderProcessor
}

func InitRouter(d *Deps) *gin.Engine {
	gin.SetMode(d.Cfg.Server.Mode)
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logging(d.Log),
		middleware.Recovery(d.Log),
		middleware.ErrorHandler(d.Log, d.Cfg.Server.Mode),
	)

	health := api.NewHealthHandler(d.DB)
	r.GET("/health", health.Health)
	r.GET("/api/health", health.Health)

	project := api.NewProjectHandler(d.DB, d.Text, d.Log)
	scene := api.NewSceneHandler(d.DB, d.Text, d.Image, d.Store, d.Log)
	video := api.NewVideoHandler(d.DB, d.Stock, d.Speech, d.Store, d.Log)
	stitching := api.NewStitchingHandler(d.DB, d.Stitcher, d.Processor, d.Log)

	apiGroup := r.Group("/api", middleware.RateLimit(d.Redis, d.Cfg, d.Log))
	aiLimit := middleware.AIRateLimit(d.Redis, d.Cfg, d.Log)

	projects := apiGroup.Group("/projects")
	{
		projects.POST("", project.CreateProject)
		projects.GET("", project.ListProjects)
		projects.GET("/:projectId", project.GetProject)
		projects.POST("/:projectId/campaigns", project.CreateCampaign)
		projects.GET("/campaigns/:campaignId", project.GetCampaign)
		projects.PUT("/campaigns/:campaignId", project.UpdateCampaign)
		projects.POST("/campaigns/:campaignId/research", aiLimit, project.RunResearch)
		projects.POST("/campaigns/:campaignId/scripts", aiLimit, project.GenerateScripts)
		projects.PUT("/scripts/:scriptId/approve", project.ApproveScript)
	}

	scenes := apiGroup.Group("/scenes")
	{
		scenes.POST("/scripts/:scriptId/scenes", aiLimit, scene.GenerateScenes)
		scenes.GET("/scripts/:scriptId/scenes", scene.ListScenes)
		scenes.POST("/scenes/:sceneId/images", aiLimit, scene.GenerateImages)
		scenes.PUT("/images/:variationId/select", scene.SelectImage)
	}

	videos := apiGroup.Group("/videos")
	{
		videos.POST("/scenes/:sceneId/videos/search", video.SearchStockVideos)
		videos.PUT("/videos/:clipId/select", video.SelectClip)
		videos.POST("/scripts/:scriptId/narration", aiLimit, video.GenerateNarration)
		videos.POST("/scenes/:sceneId/narration", aiLimit, video.GenerateSceneNarration)
		videos.GET("/scripts/:scriptId/music/suggest", video.SuggestMusic)
		videos.GET("/scripts/:scriptId/assets", video.GetAssets)
	}

	stitch := apiGroup.Group("/stitching")
	{
		stitch.POST("/scripts/:scriptId/transitions", aiLimit, stitching.GenerateTransitions)
		stitch.GET("/scripts/:scriptId/timeline", stitching.GetTimeline)
		stitch.POST("/scripts/:scriptId/render", stitching.StartRender)
		stitch.GET("/scripts/:scriptId/render/status", stitching.RenderStatus)
		stitch.POST("/videos/:videoId/render/cancel", stitching.CancelRender)
		stitch.GET("/presets", stitching.ListPresets)
	}

	// 渲染进度推送（WebSocket 不走限流）
	r.GET("/api/stitching/scripts/:scriptId/render/ws", stitching.RenderStatusWS)

	return r
}
