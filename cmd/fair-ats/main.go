package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fair-ats-go/internal/anonymizer"
	"fair-ats-go/internal/api/handler"
	"fair-ats-go/internal/api/router"
	"fair-ats-go/internal/comparison"
	"fair-ats-go/internal/config"
	"fair-ats-go/internal/extractor"
	appCoreLogger "fair-ats-go/internal/logger"
	"fair-ats-go/internal/nlp"
	"fair-ats-go/internal/parser"
	"fair-ats-go/internal/scorer"
	"fair-ats-go/internal/storage"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	"github.com/spf13/pflag"
)

func main() {
	var configPath string
	var initConfig bool
	pflag.StringVarP(&configPath, "config", "c", "", "配置文件路径")
	pflag.BoolVar(&initConfig, "init-config", false, "生成示例配置文件后退出")
	pflag.Parse()

	if initConfig {
		target := configPath
		if target == "" {
			target = "config.yaml"
		}
		if err := config.CreateSampleConfig(target); err != nil {
			log.Fatalf("生成示例配置失败: %v", err)
		}
		log.Printf("示例配置已写入 %s", target)
		return
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	initLogger(cfg)
	glog.Info("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		glog.Fatalf("初始化存储失败: %v", err)
	}
	defer storageManager.Close()
	glog.Info("存储服务初始化成功")

	// NER边车不可用时降级为空识别器, 规则类脱敏仍然工作
	recognizer := nlp.NewRecognizer(ctx, cfg.NER)

	embedder, err := nlp.NewHTTPEmbedder(cfg.Embedding)
	if err != nil {
		glog.Fatalf("初始化嵌入客户端失败: %v", err)
	}
	glog.Info("嵌入客户端初始化成功")

	reranker, err := nlp.NewHTTPReranker(cfg.Reranker)
	if err != nil {
		glog.Fatalf("初始化交叉编码器客户端失败: %v", err)
	}
	glog.Info("交叉编码器客户端初始化成功")

	pdfExtractor, err := parser.NewEinoPDFTextExtractor(ctx,
		parser.WithEinoLogger(log.New(os.Stderr, "[EinoPDFMain] ", log.LstdFlags)))
	if err != nil {
		glog.Fatalf("创建Eino PDF提取器失败: %v", err)
	}
	glog.Info("使用Eino PDF解析器")

	anon := anonymizer.NewAnonymizer(recognizer)
	resumeParser := parser.NewResumeParser(recognizer)
	entityExtractor := extractor.NewExtractor(recognizer)
	matchScorer := scorer.NewScorer(embedder, entityExtractor)
	matchRanker := scorer.NewRanker(embedder, reranker, entityExtractor, cfg.Scoring.ShortlistSize)
	pipelineComparer := comparison.NewComparer(anon, matchScorer)

	handlers := router.Handlers{
		User:   handler.NewUserHandler(storageManager),
		Job:    handler.NewJobHandler(cfg, storageManager, anon, matchScorer),
		Resume: handler.NewResumeHandler(storageManager, pdfExtractor, resumeParser, anon),
		Match:  handler.NewMatchHandler(cfg, storageManager, anon, matchScorer, matchRanker, pipelineComparer),
	}

	h := server.New(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
	)
	h.Use(func(c context.Context, ctx *app.RequestContext) {
		glog.CtxInfof(c, "Request: %s %s", string(ctx.Method()), string(ctx.Path()))
		ctx.Next(c)
		glog.CtxInfof(c, "Response: status %d", ctx.Response.StatusCode())
	})

	router.RegisterRoutes(h, cfg, handlers)
	glog.Info("HTTP路由注册成功")

	glog.Infof("HTTP 服务器启动中，监听地址: %s", cfg.Server.Address)
	go func() {
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Fatalf("服务器关闭失败: %v", err)
	}
	glog.Info("优雅退出完成")
}

// initLogger 初始化zerolog全局日志, 并把Hertz框架日志接到同一个输出上
func initLogger(cfg *config.Config) {
	appCoreLogger.Init(appCoreLogger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})

	hertzCompatibleLogger := hertzadapter.From(appCoreLogger.Logger)
	glog.SetLogger(hertzCompatibleLogger)
	switch cfg.Logger.Level {
	case "debug":
		glog.SetLevel(glog.LevelDebug)
	case "warn":
		glog.SetLevel(glog.LevelWarn)
	case "error":
		glog.SetLevel(glog.LevelError)
	default:
		glog.SetLevel(glog.LevelInfo)
	}
}
