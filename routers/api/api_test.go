package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"BrandScene-server/config"
	"BrandScene-server/models"
	"BrandScene-server/routers"
	"BrandScene-server/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testEnv struct {
	engine *gin.Engine
	db     *gorm.DB
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
	Meta struct {
		Timestamp string `json:"timestamp"`
		RequestID string `json:"requestId"`
	} `json:"meta"`
}

// fakeTextServer 按提示词内容分流的文本生成假服务
func fakeTextServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		prompt := string(body)

		var inner interface{}
		switch {
		case strings.Contains(prompt, "market research"):
			inner = map[string]interface{}{
				"insights":           []string{"受众偏好短平快内容"},
				"trends":             []string{"UGC 测评"},
				"competitorAnalysis": []string{"竞品主打低价"},
				"recommendations":    []string{"突出质感"},
				"sources":            []string{"report-2026"},
				"confidenceScore":    0.88,
			}
		case strings.Contains(prompt, "Break down the following video script"):
			inner = map[string]interface{}{
				"scenes": []map[string]interface{}{
					{"sceneNumber": 1, "narrationText": "开场钩子", "visualDescription": "城市清晨航拍", "durationSeconds": 5, "mood": "energetic", "cameraAngle": "wide shot", "transitionType": "fade"},
					{"sceneNumber": 2, "narrationText": "产品卖点", "visualDescription": "产品特写", "durationSeconds": 7, "mood": "professional", "cameraAngle": "close-up", "transitionType": "dissolve"},
					{"sceneNumber": 3, "narrationText": "立即购买", "visualDescription": "用户微笑使用产品", "durationSeconds": 3, "mood": "inspiring", "cameraAngle": "medium shot", "transitionType": "fade"},
				},
			}
		case strings.Contains(prompt, "recommend the best transition"):
			inner = map[string]interface{}{
				"transitions": []map[string]interface{}{
					{"fromScene": 1, "toScene": 2, "type": "fade", "duration": 0.5, "reasoning": "情绪过渡"},
					{"fromScene": 2, "toScene": 3, "type": "dissolve", "duration": 0.5, "reasoning": "节奏衔接"},
				},
			}
		default:
			inner = map[string]interface{}{
				"title":           "全新出发",
				"content":         "开场钩子。产品卖点。立即购买。",
				"durationSeconds": 15,
				"tone":            "inspirational",
				"style":           "storytelling",
				"metadata": map[string]interface{}{
					"hooks":        []string{"开场钩子"},
					"keyMessages":  []string{"产品卖点"},
					"callToAction": "立即购买",
				},
			}
		}

		content, err := json.Marshal(inner)
		require.NoError(t, err)
		require.NoError(t, json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": string(content)}},
			},
		}))
	}))
}

func fakeImageServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	mux.HandleFunc("/v1/images/generations", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]string{{"url": srv.URL + "/generated.png"}},
		}))
	})
	mux.HandleFunc("/generated.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	})
	return srv
}

func fakeStockServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/videos/search", r.URL.Path)
		require.NoError(t, json.NewEncoder(w).Encode(map[string]interface{}{
			"videos": []map[string]interface{}{
				{
					"id":       101,
					"duration": 12.0,
					"image":    "https://media.test/thumb-101.jpg",
					"video_files": []map[string]interface{}{
						{"quality": "sd", "width": 640, "height": 360, "link": "https://media.test/101-sd.mp4"},
						{"quality": "hd", "width": 1920, "height": 1080, "link": "https://media.test/101-hd.mp4"},
					},
				},
			},
		}))
	}))
}

// fakeSpeechServer 返回固定音频字节的语音合成假服务
func fakeSpeechServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasPrefix(r.URL.Path, "/v1/text-to-speech/"))
		require.Equal(t, "voice-key", r.Header.Get("xi-api-key"))
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("mp3-bytes"))
	}))
}

// fakeObjectStore 最小对象存储假服务：区域查询回固定区域，桶探测和上传一律放行
func fakeObjectStore(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("location") {
			w.Header().Set("Content-Type", "application/xml")
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><LocationConstraint xmlns="http://s3.amazonaws.com/doc/2006-03-01/">us-east-1</LocationConstraint>`))
			return
		}
		w.Header().Set("ETag", `"9b2cf535f27731c974343645a3985328"`)
	}))
}

// withNarrationStack 把语音合成和对象存储换成可用的假服务
func withNarrationStack(t *testing.T) func(*config.Config) {
	speechSrv := fakeSpeechServer(t)
	storeSrv := fakeObjectStore(t)
	t.Cleanup(speechSrv.Close)
	t.Cleanup(storeSrv.Close)
	return func(cfg *config.Config) {
		cfg.AI.VoiceAPI = speechSrv.URL
		cfg.AI.VoiceKey = "voice-key"
		cfg.MinIO.Endpoint = strings.TrimPrefix(storeSrv.URL, "http://")
	}
}

func newTestEnv(t *testing.T, opts ...func(*config.Config)) *testEnv {
	t.Helper()

	textSrv := fakeTextServer(t)
	imageSrv := fakeImageServer(t)
	stockSrv := fakeStockServer(t)
	t.Cleanup(textSrv.Close)
	t.Cleanup(imageSrv.Close)
	t.Cleanup(stockSrv.Close)

	cfg := &config.Config{}
	cfg.Server.Mode = gin.TestMode
	cfg.AI.TextAPI = textSrv.URL
	cfg.AI.TextKey = "test-key"
	cfg.AI.TextModel = "gpt-4-turbo-preview"
	cfg.AI.ImageAPI = imageSrv.URL
	cfg.AI.ImageModel = "dall-e-3"
	cfg.AI.VoiceAPI = "http://127.0.0.1:1"
	cfg.AI.StockAPI = stockSrv.URL
	cfg.AI.StockKey = "stock-key"
	cfg.MinIO.Endpoint = "127.0.0.1:9000"
	cfg.MinIO.AccessKey = "test"
	cfg.MinIO.SecretKey = "test"
	cfg.MinIO.Bucket = "test"
	cfg.Limits.WindowSeconds = 900
	cfg.Limits.MaxRequests = 10000
	cfg.Limits.AIPerMinute = 10000
	for _, opt := range opts {
		opt(cfg)
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, models.AutoMigrate(db))
	require.NoError(t, models.EnsureDemoUser(db))

	log := zap.NewNop()
	store, err := service.NewAssetStore(cfg, log)
	require.NoError(t, err)

	// Redis 不可用时限流放行，测试里直接指向打不通的端口
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
	})

	text := service.NewTextClient(cfg, log)
	queue := service.NewRenderQueue(cfg, log)
	processor := service.NewRenderProcessor(db, cfg, log)
	stitcher := service.NewStitcher(db, text, queue, log)

	engine := routers.InitRouter(&routers.Deps{
		Cfg:       cfg,
		DB:        db,
		Redis:     rdb,
		Log:       log,
		Text:      text,
		Image:     service.NewImageClient(cfg, log),
		Speech:    service.NewSpeechClient(cfg, log),
		Stock:     service.NewStockClient(cfg, log),
		Store:     store,
		Stitcher:  stitcher,
		Processor: processor,
	})
	return &testEnv{engine: engine, db: db}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func (e *testEnv) createProject(t *testing.T) models.Project {
	t.Helper()
	w, env := e.do(t, http.MethodPost, "/api/projects", gin.H{
		"name":        "夏季新品推广",
		"description": "面向年轻用户的新品宣传",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.True(t, env.Success)

	var p models.Project
	require.NoError(t, json.Unmarshal(env.Data, &p))
	return p
}

func (e *testEnv) createCampaign(t *testing.T, projectID string) models.Campaign {
	t.Helper()
	w, env := e.do(t, http.MethodPost, "/api/projects/"+projectID+"/campaigns", gin.H{
		"brandName":          "北辰家居",
		"productName":        "智能保温杯",
		"productDescription": "一款能提醒喝水并保温十二小时的智能水杯",
		"targetAudience":     "久坐办公室的年轻上班族",
		"keyBenefits":        []string{"保温", "喝水提醒"},
		"tone":               "inspirational",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.True(t, env.Success)

	var camp models.Campaign
	require.NoError(t, json.Unmarshal(env.Data, &camp))
	return camp
}

func TestCreateProjectValidation(t *testing.T) {
	e := newTestEnv(t)

	w, env := e.do(t, http.MethodPost, "/api/projects", gin.H{"name": ""})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.False(t, env.Success)
	require.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	require.NotEmpty(t, env.Meta.RequestID)
}

func TestCampaignShortBriefRejected(t *testing.T) {
	e := newTestEnv(t)
	p := e.createProject(t)

	w, env := e.do(t, http.MethodPost, "/api/projects/"+p.ID+"/campaigns", gin.H{
		"brandName":          "北辰家居",
		"productName":        "智能保温杯",
		"productDescription": "太短",
		"targetAudience":     "久坐办公室的年轻上班族",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	// 校验失败不落任何行
	var count int64
	require.NoError(t, e.db.Model(&models.Campaign{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestGenerateScriptsVariantCountBounds(t *testing.T) {
	e := newTestEnv(t)
	p := e.createProject(t)
	camp := e.createCampaign(t, p.ID)

	for _, bad := range []int{0, 6} {
		w, env := e.do(t, http.MethodPost, "/api/projects/campaigns/"+camp.ID+"/scripts", gin.H{"variantCount": bad})
		require.Equal(t, http.StatusBadRequest, w.Code, "variantCount=%d", bad)
		require.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	}

	var count int64
	require.NoError(t, e.db.Model(&models.Script{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestSelectImageVariationSingleSelected(t *testing.T) {
	e := newTestEnv(t)
	script := seedScript(t, e, 3)
	sceneID := script.Scenes[0].ID

	variations := make([]models.ImageVariation, 3)
	for i := range variations {
		variations[i] = models.ImageVariation{
			ID:              uuid.NewString(),
			SceneID:         sceneID,
			VariationNumber: i + 1,
			Selected:        i == 0, // 初始已有选中
		}
	}
	require.NoError(t, e.db.Create(&variations).Error)

	target := variations[2]
	w, env := e.do(t, http.MethodPut, "/api/scenes/images/"+target.ID+"/select", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, env.Success)

	var selected []models.ImageVariation
	require.NoError(t, e.db.Where("scene_id = ? AND selected = ?", sceneID, true).Find(&selected).Error)
	require.Len(t, selected, 1)
	require.Equal(t, target.ID, selected[0].ID)
}

func TestApproveScriptResetsStageNonMonotonic(t *testing.T) {
	e := newTestEnv(t)
	p := e.createProject(t)
	camp := e.createCampaign(t, p.ID)

	// 项目已经推进到素材阶段
	require.NoError(t, models.SetProjectStage(e.db, p.ID, models.StageAssets))

	scripts := []models.Script{
		{ID: uuid.NewString(), CampaignID: camp.ID, VariantNumber: 1, Content: "a", Status: models.ScriptStatusApproved, Approved: true},
		{ID: uuid.NewString(), CampaignID: camp.ID, VariantNumber: 2, Content: "b", Status: models.ScriptStatusGenerated},
	}
	require.NoError(t, e.db.Create(&scripts).Error)

	w, env := e.do(t, http.MethodPut, "/api/projects/scripts/"+scripts[1].ID+"/approve", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, env.Success)

	got, err := models.GetProjectByID(e.db, p.ID)
	require.NoError(t, err)
	require.Equal(t, models.StageScenes, got.CurrentStage)

	var approved []models.Script
	require.NoError(t, e.db.Where("campaign_id = ? AND approved = ?", camp.ID, true).Find(&approved).Error)
	require.Len(t, approved, 1)
	require.Equal(t, scripts[1].ID, approved[0].ID)
}

func TestGenerateImagesKeepsSourceURLWhenMirrorFails(t *testing.T) {
	e := newTestEnv(t)
	script := seedScript(t, e, 1)

	w, env := e.do(t, http.MethodPost, "/api/scenes/scenes/"+script.Scenes[0].ID+"/images", gin.H{"count": 2})
	require.Equal(t, http.StatusCreated, w.Code)
	require.True(t, env.Success)

	var variations []models.ImageVariation
	require.NoError(t, json.Unmarshal(env.Data, &variations))
	require.Len(t, variations, 2)
	for _, v := range variations {
		require.Contains(t, v.ImageURL, "/generated.png")
		require.Equal(t, "dall-e-3", v.GenerationParams.Model)
	}
}

func TestStockSearchCreatesClips(t *testing.T) {
	e := newTestEnv(t)
	script := seedScript(t, e, 1)

	w, env := e.do(t, http.MethodPost, "/api/videos/scenes/"+script.Scenes[0].ID+"/videos/search", gin.H{"query": "city sunrise"})
	require.Equal(t, http.StatusCreated, w.Code)

	var clips []models.VideoClip
	require.NoError(t, json.Unmarshal(env.Data, &clips))
	require.Len(t, clips, 1)
	require.Equal(t, "https://media.test/101-hd.mp4", clips[0].SourceURL)
	require.Equal(t, "1920x1080", clips[0].Resolution)
	require.Equal(t, models.ClipSourceStock, clips[0].SourceType)
	require.Equal(t, models.ClipStatusCompleted, clips[0].ProcessingStatus)
}

func TestGenerateNarrationCreatesTrack(t *testing.T) {
	e := newTestEnv(t, withNarrationStack(t))
	script := seedScript(t, e, 1)

	w, env := e.do(t, http.MethodPost, "/api/videos/scripts/"+script.ID+"/narration", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	require.True(t, env.Success)

	var track models.AudioTrack
	require.NoError(t, json.Unmarshal(env.Data, &track))
	require.Equal(t, models.TrackTypeNarration, track.TrackType)
	// 不传 voiceId 时走缺省音色
	require.Equal(t, service.DefaultVoiceID, track.VoiceID)
	require.Contains(t, track.AudioURL, "narration/"+script.ID+".mp3")
	// 脚本未记时长时按词数估算
	require.InDelta(t, service.EstimateNarrationDuration(script.Content), track.DurationSeconds, 1e-9)

	var count int64
	require.NoError(t, e.db.Model(&models.AudioTrack{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestGenerateNarrationUsesScriptDuration(t *testing.T) {
	e := newTestEnv(t, withNarrationStack(t))
	script := seedScript(t, e, 1)
	require.NoError(t, e.db.Model(script).Update("duration_seconds", 15).Error)

	w, env := e.do(t, http.MethodPost, "/api/videos/scripts/"+script.ID+"/narration", gin.H{"voiceId": "custom-voice"})
	require.Equal(t, http.StatusCreated, w.Code)

	var track models.AudioTrack
	require.NoError(t, json.Unmarshal(env.Data, &track))
	require.Equal(t, "custom-voice", track.VoiceID)
	require.Equal(t, 15.0, track.DurationSeconds)
}

func TestSceneNarrationDoesNotPersistTrack(t *testing.T) {
	e := newTestEnv(t, withNarrationStack(t))
	script := seedScript(t, e, 1)
	sceneID := script.Scenes[0].ID

	w, env := e.do(t, http.MethodPost, "/api/videos/scenes/"+sceneID+"/narration", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, env.Success)

	var got struct {
		URL      string  `json:"url"`
		Duration float64 `json:"duration"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.Contains(t, got.URL, "narration/scenes/"+sceneID+".mp3")
	require.Equal(t, script.Scenes[0].DurationSeconds, got.Duration)

	// 分镜旁白只回地址，不落音轨
	var count int64
	require.NoError(t, e.db.Model(&models.AudioTrack{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestTimelineEndpoint(t *testing.T) {
	e := newTestEnv(t)
	script := seedScript(t, e, 3)
	seedClips(t, e, script)
	seedNarration(t, e, script.ID)

	w, env := e.do(t, http.MethodGet, "/api/stitching/scripts/"+script.ID+"/timeline", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var tl service.Timeline
	require.NoError(t, json.Unmarshal(env.Data, &tl))
	require.Equal(t, 15.0, tl.TotalDuration)
	require.Len(t, tl.Entries, 3)
	require.Equal(t, 5.0, tl.Entries[1].StartTime)
	require.Equal(t, 12.0, tl.Entries[1].EndTime)
	require.NotNil(t, tl.NarrationTrack)
}

func TestStartRenderMissingAssets(t *testing.T) {
	e := newTestEnv(t)
	script := seedScript(t, e, 3)

	w, env := e.do(t, http.MethodPost, "/api/stitching/scripts/"+script.ID+"/render", gin.H{"fps": 60})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	var missing []string
	require.NoError(t, json.Unmarshal(env.Error.Details, &missing))
	require.Contains(t, missing, "Scene 1: No video or image")
	require.Contains(t, missing, "No narration audio track")

	var count int64
	require.NoError(t, e.db.Model(&models.Video{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestTransitionsEndpoint(t *testing.T) {
	e := newTestEnv(t)
	script := seedScript(t, e, 3)

	w, env := e.do(t, http.MethodPost, "/api/stitching/scripts/"+script.ID+"/transitions", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var transitions []service.TransitionConfig
	require.NoError(t, json.Unmarshal(env.Data, &transitions))
	require.Len(t, transitions, 2)
	require.Equal(t, "fade", transitions[0].Type)

	// 线上字段是小写 camelCase
	var raw []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &raw))
	for _, tr := range raw {
		require.Contains(t, tr, "type")
		require.Contains(t, tr, "duration")
		require.Contains(t, tr, "reasoning")
	}
}

func TestPresetsEndpoint(t *testing.T) {
	e := newTestEnv(t)

	w, env := e.do(t, http.MethodGet, "/api/stitching/presets", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var presets map[string]models.RenderSettings
	require.NoError(t, json.Unmarshal(env.Data, &presets))
	require.Equal(t, "1920x1080", presets["1080p"].Resolution)
	require.Contains(t, presets, "social_vertical")
}

func TestMusicSuggest(t *testing.T) {
	e := newTestEnv(t)
	script := seedScript(t, e, 3)

	w, env := e.do(t, http.MethodGet, "/api/videos/scripts/"+script.ID+"/music/suggest", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		Mood        string               `json:"mood"`
		Suggestions []service.MusicTrack `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.Equal(t, "energetic", got.Mood)
	require.NotEmpty(t, got.Suggestions)
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	w, _ := e.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = e.do(t, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestEndToEndFlow(t *testing.T) {
	e := newTestEnv(t)

	p := e.createProject(t)
	camp := e.createCampaign(t, p.ID)

	// 调研
	w, env := e.do(t, http.MethodPost, "/api/projects/campaigns/"+camp.ID+"/research", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	require.True(t, env.Success)
	require.NotEmpty(t, env.Data)

	// 三个脚本变体
	w, env = e.do(t, http.MethodPost, "/api/projects/campaigns/"+camp.ID+"/scripts", gin.H{"variantCount": 3})
	require.Equal(t, http.StatusCreated, w.Code)
	require.True(t, env.Success)

	var scripts []models.Script
	require.NoError(t, json.Unmarshal(env.Data, &scripts))
	require.Len(t, scripts, 3)

	// 审批第二个
	w, env = e.do(t, http.MethodPut, "/api/projects/scripts/"+scripts[1].ID+"/approve", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, env.Success)

	// 生成分镜
	w, env = e.do(t, http.MethodPost, "/api/scenes/scripts/"+scripts[1].ID+"/scenes", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	require.True(t, env.Success)

	var scenes []models.Scene
	require.NoError(t, json.Unmarshal(env.Data, &scenes))
	require.Len(t, scenes, 3)

	// 项目详情：审批脚本挂在投放下
	w, env = e.do(t, http.MethodGet, "/api/projects/"+p.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, env.Success)

	var got models.Project
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.Len(t, got.Campaigns, 1)
	require.Len(t, got.Campaigns[0].Scripts, 3)

	var approvedCount int
	for _, s := range got.Campaigns[0].Scripts {
		if s.Approved {
			approvedCount++
			require.Equal(t, scripts[1].ID, s.ID)
			require.Len(t, s.Scenes, 3)
		}
	}
	require.Equal(t, 1, approvedCount)
	require.Equal(t, models.StageScenes, got.CurrentStage)
}

// seedScript 造一个已审批脚本和 n 个分镜（时长 5/7/3 循环）
func seedScript(t *testing.T, e *testEnv, sceneCount int) *models.Script {
	t.Helper()
	p := e.createProject(t)
	camp := e.createCampaign(t, p.ID)

	script := &models.Script{
		ID:            uuid.NewString(),
		CampaignID:    camp.ID,
		VariantNumber: 1,
		Title:         "种子脚本",
		Content:       "开场钩子。产品卖点。立即购买。",
		Status:        models.ScriptStatusApproved,
		Approved:      true,
	}
	require.NoError(t, e.db.Create(script).Error)

	durations := []float64{5, 7, 3}
	moods := []string{"energetic", "professional", "inspiring"}
	for i := 0; i < sceneCount; i++ {
		scene := models.Scene{
			ID:                uuid.NewString(),
			ScriptID:          script.ID,
			SceneNumber:       i + 1,
			NarrationText:     fmt.Sprintf("第 %d 镜旁白", i+1),
			VisualDescription: fmt.Sprintf("第 %d 镜画面", i+1),
			DurationSeconds:   durations[i%len(durations)],
			Mood:              moods[i%len(moods)],
		}
		require.NoError(t, e.db.Create(&scene).Error)
		script.Scenes = append(script.Scenes, scene)
	}
	return script
}

func seedClips(t *testing.T, e *testEnv, script *models.Script) {
	t.Helper()
	for _, scene := range script.Scenes {
		clip := models.VideoClip{
			ID:               uuid.NewString(),
			SceneID:          scene.ID,
			SourceType:       models.ClipSourceStock,
			SourceURL:        "https://media.test/clip.mp4",
			DurationSeconds:  scene.DurationSeconds,
			ProcessingStatus: models.ClipStatusCompleted,
		}
		require.NoError(t, e.db.Create(&clip).Error)
	}
}

func seedNarration(t *testing.T, e *testEnv, scriptID string) {
	t.Helper()
	track := models.AudioTrack{
		ID:              uuid.NewString(),
		ScriptID:        scriptID,
		TrackType:       models.TrackTypeNarration,
		AudioURL:        "https://media.test/narration.mp3",
		DurationSeconds: 15,
		VoiceID:         service.DefaultVoiceID,
	}
	require.NoError(t, e.db.Create(&track).Error)
}
