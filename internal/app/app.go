package app

import (
	"context"
	"sync"

	"github.com/polybasket/polybasket/internal/storage"
	"github.com/polybasket/polybasket/pkg/cache"
	"github.com/polybasket/polybasket/pkg/config"
	"github.com/polybasket/polybasket/pkg/healthprobe"
	"github.com/polybasket/polybasket/pkg/httpserver"
	"github.com/polybasket/polybasket/pkg/websocket"
	"go.uber.org/zap"
)

// App is the main application orchestrator.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	client        *websocket.Client
	coordinator   *Coordinator
	writer        storage.Writer
	marketCache   cache.Cache
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}
