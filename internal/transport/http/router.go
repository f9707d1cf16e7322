package http

import (
	"net/http"
	"time"

	"edustop-service/internal/app"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Services are the use cases exposed over HTTP.
type Services struct {
	Tasks    *app.TaskService
	EduStops *app.EduStopService
	Ranking  *app.RankingService
}

// RouterOptions configures cross-cutting behaviour of the router.
type RouterOptions struct {
	JWTSecret      string
	AllowedOrigins []string
}

// NewRouter wires every route with CORS, request IDs, access logs and auth.
func NewRouter(svc Services, opts RouterOptions, log zerolog.Logger) (*gin.Engine, error) {
	auth, err := NewAuthenticator(opts.JWTSecret)
	if err != nil {
		return nil, err
	}
	SetupValidator()

	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(opts.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = opts.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(RequestIDMiddleware())
	router.Use(AccessLog(log))

	router.GET("/healthz", func(c *gin.Context) {
		success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	ws := NewWSHandler(svc.Ranking, opts.AllowedOrigins, log)
	router.GET("/ws/ranking", ws.ServeWS)

	tasks := NewTaskHandler(svc.Tasks)
	stops := NewEduStopHandler(svc.EduStops)
	ranking := NewRankingHandler(svc.Ranking)

	api := router.Group("/api/v1")
	api.Use(RequireUser(auth))
	{
		api.POST("/edustops/search", stops.Search)
		api.POST("/edustops/verify", tasks.VerifyTask)
		api.GET("/edustops/:id", stops.Get)
		api.GET("/edustops/:id/request", tasks.RequestTask)

		api.GET("/users/ranking", ranking.Ranking)
	}
	return router, nil
}

// AccessLog writes one zerolog line per request.
func AccessLog(log zerolog.Logger) gin.HandlerFunc {
	log = log.With().Str("component", "http").Logger()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := log.Info()
		if status >= http.StatusInternalServerError {
			ev = log.Error()
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		ev.Str("request_id", c.GetString(ContextKeyRequestID)).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
