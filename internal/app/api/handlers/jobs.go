package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/creditd/internal/app/service/settlement"
	"github.com/fatflowers/creditd/internal/platform/cache"
	cfgpkg "github.com/fatflowers/creditd/pkg/config"
	"github.com/fatflowers/creditd/pkg/logctx"
	"github.com/fatflowers/creditd/pkg/response"
)

// RegisterJobRoutes exposes the settlement job's operational endpoints:
// last-run status (read from the cache record) and a manual trigger.
func RegisterJobRoutes(r gin.IRouter, log *zap.SugaredLogger, cfg *cfgpkg.Config, store cache.Store, svc *settlement.Service) {
	r.GET("/jobs/credit-settlement", func(c *gin.Context) { jobStatus(c, log, store) })
	r.POST("/jobs/credit-settlement/run", func(c *gin.Context) { triggerJob(c, log, cfg, svc) })
}

func jobStatus(c *gin.Context, log *zap.SugaredLogger, store cache.Store) {
	raw, ok, err := store.Get(c.Request.Context(), settlement.LastRunKey)
	if err != nil {
		logctx.FromGin(c, log).Errorw("failed to read job run record", "err", err)
		c.JSON(http.StatusInternalServerError, response.ErrorT(response.APIResponseCodeError, "run record unavailable"))
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, response.ErrorT(response.APIResponseCodeBadRequest, "no run recorded yet"))
		return
	}

	var rec settlement.RunRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		logctx.FromGin(c, log).Errorw("corrupt job run record", "err", err)
		c.JSON(http.StatusInternalServerError, response.ErrorT(response.APIResponseCodeError, "corrupt run record"))
		return
	}
	c.JSON(http.StatusOK, response.OKT(rec))
}

func triggerJob(c *gin.Context, log *zap.SugaredLogger, cfg *cfgpkg.Config, svc *settlement.Service) {
	if cfg.Admin.Token != "" {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token != cfg.Admin.Token {
			c.JSON(http.StatusUnauthorized, response.ErrorT(response.APIResponseCodeBadRequest, "invalid admin token"))
			return
		}
	}

	logctx.FromGin(c, log).Infow("manual settlement run triggered")
	// The run fences itself via marker and lock, so firing in the background
	// from here is as safe as a scheduler trigger.
	go svc.Run(context.Background())
	c.JSON(http.StatusAccepted, response.OKT(map[string]string{"status": "triggered"}))
}
