package router

import (
	"context"

	"fair-ats-go/internal/api/handler"
	"fair-ats-go/internal/config"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"
)

// Handlers 路由需要的全部处理器
type Handlers struct {
	User   *handler.UserHandler
	Job    *handler.JobHandler
	Resume *handler.ResumeHandler
	Match  *handler.MatchHandler
}

// RegisterRoutes 注册API路由。
// 读接口和匹配流水线开放访问; 岗位写操作和投递记录查询
// 挂在keyauth中间件后面, 令牌来自配置(api_token)。
func RegisterRoutes(h *server.Hertz, cfg *config.Config, handlers Handlers) {
	api := h.Group("/api/v1")

	// 健康检查
	api.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})

	// 账户
	api.POST("/users", handlers.User.HandleRegister)
	api.POST("/auth/login", handlers.User.HandleLogin)
	api.GET("/users/:user_id", handlers.User.HandleGetProfile)

	// 简历
	api.POST("/resume/upload", handlers.Resume.HandleResumeUpload)

	// 匹配流水线
	api.POST("/anonymize", handlers.Match.HandleAnonymize)
	api.POST("/match/score", handlers.Match.HandleScore)
	api.POST("/match/rank", handlers.Match.HandleRank)
	api.POST("/match/compare", handlers.Match.HandleCompare)

	// 岗位读接口
	api.GET("/jobs", handlers.Job.HandleListJobs)
	api.GET("/jobs/search", handlers.Job.HandleSearchJobs)
	api.GET("/jobs/:job_id", handlers.Job.HandleGetJob)

	// 候选人投递
	api.POST("/jobs/:job_id/apply", handlers.Job.HandleApply)

	// 岗位写操作与投递记录查询需要API令牌
	protected := api.Group("/", keyauth.New(
		keyauth.WithKeyLookUp("header:Authorization", "Bearer"),
		keyauth.WithValidator(func(ctx context.Context, c *app.RequestContext, key string) (bool, error) {
			return cfg.Server.APIToken != "" && key == cfg.Server.APIToken, nil
		}),
		keyauth.WithErrorHandler(func(ctx context.Context, c *app.RequestContext, err error) {
			c.JSON(consts.StatusUnauthorized, utils.H{"error": "无效的API令牌"})
			c.Abort()
		}),
	))

	protected.POST("/jobs", handlers.Job.HandleCreateJob)
	protected.PUT("/jobs/:job_id", handlers.Job.HandleUpdateJob)
	protected.DELETE("/jobs/:job_id", handlers.Job.HandleDeleteJob)
	protected.GET("/jobs/:job_id/applications", handlers.Job.HandleListApplications)
	protected.GET("/jobs/:job_id/applications/:application_id/resume", handlers.Job.HandleDownloadApplicationResume)
}
