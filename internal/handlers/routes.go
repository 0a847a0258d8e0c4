package handlers

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/mapperinfluences/backend/internal/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router builds the gin engine with the full route table.
func (h *Handlers) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.GinLogger())
	router.Use(middleware.Metrics())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowCredentials = false
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Cookie"}
	router.Use(cors.New(corsConfig))

	// public surface
	oauth := router.Group("/oauth")
	{
		oauth.GET("/osu-redirect", h.OAuthRedirect)
		oauth.GET("/logout", h.Logout)
		oauth.POST("/admin", h.AdminLogin)
	}

	lb := router.Group("/leaderboard")
	{
		lb.GET("/user", h.GetUserLeaderboard)
		lb.GET("/beatmap", h.GetBeatmapLeaderboard)
	}

	router.GET("/graph", h.GetGraph)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// everything below needs a session cookie
	authed := router.Group("/", h.auth.Middleware())

	search := authed.Group("/search")
	{
		search.GET("/map", h.SearchMaps)
		search.GET("/map/:beatmap_id", h.SingleBeatmap)
		search.GET("/user/:query", h.SearchUsers)
	}

	influence := authed.Group("/influence")
	{
		influence.POST("", h.AddInfluence)
		influence.GET("/influences/:user_id", h.GetInfluences)
		influence.GET("/mentions/:user_id", h.GetMentions)
		influence.DELETE("/:influenced_to", h.DeleteInfluence)
		influence.PATCH("/:influenced_to/map", h.AddInfluenceBeatmaps)
		influence.DELETE("/:influenced_to/map/:beatmap_id", h.DeleteInfluenceBeatmap)
		influence.PATCH("/:influenced_to/description", h.UpdateInfluenceDescription)
		influence.PATCH("/:influenced_to/type/:type_id", h.UpdateInfluenceType)
	}

	users := authed.Group("/users")
	{
		users.GET("/me", h.GetMe)
		users.GET("/:user_id", h.GetUser)
		users.PATCH("/bio", h.UpdateBio)
		users.PATCH("/map", h.AddUserBeatmaps)
		users.DELETE("/map/:beatmap_id", h.DeleteUserBeatmap)
		users.POST("/influence-order", h.SetInfluenceOrder)
		users.GET("/preferences", h.GetActivityPreferences)
		users.POST("/preferences", h.SetActivityPreferences)
	}

	authed.GET("/activity", h.GetActivities)
	authed.GET("/ws", h.ActivityWebsocket)

	return router
}
