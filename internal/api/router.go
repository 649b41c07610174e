package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/presence/internal/api/handlers"
	"github.com/your-org/presence/internal/api/ws"
)

type RouterConfig struct {
	Verifier handlers.Verifier
	Records  handlers.RecordReader
	DB       handlers.Pinger
	MinIO    handlers.Pinger
	NATS     handlers.ConnPinger
	Hub      *ws.Hub
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	// Any origin may call the API; preflight is answered here, before any
	// business logic runs.
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Content-Type"},
	}))

	// System endpoints
	systemH := handlers.NewSystemHandler(cfg.DB, cfg.MinIO, cfg.NATS)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")

	// Live feed
	if cfg.Hub != nil {
		v1.GET("/ws", cfg.Hub.HandleWS)
	}

	// Verifications
	verifyH := handlers.NewVerifyHandler(cfg.Verifier)
	v1.POST("/verifications", verifyH.Create)

	// Records
	recordH := handlers.NewRecordHandler(cfg.Records)
	v1.GET("/records", recordH.List)
	v1.GET("/records/:email/:date", recordH.Get)

	return r
}
