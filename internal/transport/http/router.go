package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/richardliu001/transaction-service/internal/config"
	"github.com/richardliu001/transaction-service/internal/service"
)

func NewRouter(svc *service.TransactionService, rl config.RateLimitConfig, log *zap.SugaredLogger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggingMiddleware(log))
	r.Use(RateLimitMiddleware(rl.RPS, rl.Burst))
	RegisterHandlers(r, svc)
	return r
}
