package main

import (
	"flag"

	"BrandScene-server/config"
	"BrandScene-server/models"
	"BrandScene-server/routers"
	"BrandScene-server/service"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "配置文件路径")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		panic(err)
	}

	var log *zap.Logger
	if cfg.Server.Mode == "release" {
		log, err = zap.NewProduction()
	} else {
		log, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := models.InitDB(cfg.MySQL.DSN)
	if err != nil {
		log.Fatal("数据库初始化失败", zap.Error(err))
	}
	if err := models.EnsureDemoUser(db); err != nil {
		log.Fatal("初始化占位用户失败", zap.Error(err))
	}
	log.Info("数据库初始化完成")

	store, err := service.NewAssetStore(cfg, log)
	if err != nil {
		log.Fatal("对象存储初始化失败", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
	})

	text := service.NewTextClient(cfg, log)
	image := service.NewImageClient(cfg, log)
	speech := service.NewSpeechClient(cfg, log)
	stock := service.NewStockClient(cfg, log)

	queue := service.NewRenderQueue(cfg, log)
	defer queue.Close()

	processor := service.NewRenderProcessor(db, cfg, log)
	processor.Start()
	defer processor.Shutdown()

	stitcher := service.NewStitcher(db, text, queue, log)

	r := routers.InitRouter(&routers.Deps{
		Cfg:       cfg,
		DB:        db,
		Redis:     rdb,
		Log:       log,
		Text:      text,
		Image:     image,
		Speech:    speech,
		Stock:     stock,
		Store:     store,
		Stitcher:  stitcher,
		Processor: processor,
	})

	log.Info("服务启动", zap.String("port", cfg.Server.Port))
	if err := r.Run(cfg.Server.Port); err != nil {
		log.Fatal("服务退出", zap.Error(err))
	}
}
