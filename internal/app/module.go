package app

import (
	"github.com/fatflowers/creditd/internal/app/api/server"
	"github.com/fatflowers/creditd/internal/app/scheduler"
	"github.com/fatflowers/creditd/internal/app/service/settlement"
	"github.com/fatflowers/creditd/internal/platform/bus"
	"github.com/fatflowers/creditd/internal/platform/cache"
	"github.com/fatflowers/creditd/internal/platform/db"
	"github.com/fatflowers/creditd/pkg/config"
	"github.com/fatflowers/creditd/pkg/logger"
	"time"

	"go.uber.org/fx"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	cache.Module,
	bus.Module,
	settlement.Module,
	scheduler.Module,
	server.Module,
)
