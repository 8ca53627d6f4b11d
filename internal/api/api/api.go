package api

import (
	"github.com/gin-contrib/cors"
	"github.com/wb-go/wbf/ginext"

	"eventease/cmd/middleware"
	"eventease/internal/service"
)

type Routers struct {
	Service service.Service
}

func NewRouters(r *Routers) *ginext.Engine {
	app := ginext.New("release")

	app.Use(middleware.LoggingMiddleware())
	app.Use(cors.Default())
	apiGroup := app.Group("/v1")

	apiGroup.POST("/auth/register", r.Service.Register)
	apiGroup.POST("/auth/login", r.Service.Login)
	apiGroup.POST("/auth/logout", r.Service.Logout)
	apiGroup.GET("/auth/me", r.Service.Me)

	apiGroup.GET("/events", r.Service.ListEvents)
	apiGroup.POST("/events", r.Service.CreateEvent)
	apiGroup.GET("/events/:id", r.Service.GetEvent)
	apiGroup.PATCH("/events/:id", r.Service.UpdateEvent)
	apiGroup.DELETE("/events/:id", r.Service.DeleteEvent)
	apiGroup.POST("/events/:id/participation", r.Service.ToggleParticipation)

	apiGroup.GET("/geocode/search", r.Service.SearchAddresses)
	apiGroup.GET("/geocode/reverse", r.Service.ReverseGeocode)
	apiGroup.GET("/weather", r.Service.Weather)

	apiGroup.GET("/calendar.ics", r.Service.CalendarFeed)

	return app
}
