package api

import (
	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, handler *Handler) {
	api := router.Group("/api")
	{
		api.GET("/geocode/:cep", handler.ResolvePostalCode)

		admin := api.Group("/admin")
		{
			admin.POST("/properties/match-leads", handler.MatchLeads)
			admin.PUT("/properties/:id/update-price", handler.UpdatePrice)
			admin.POST("/properties/backfill-coordinates", handler.BackfillCoordinates)
			admin.POST("/leads/:id/suggestions", handler.SuggestLeadProperties)
			admin.GET("/whatsapp/messages", handler.RecentMessages)
		}
	}
}
