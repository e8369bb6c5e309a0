package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mohdafzal1700/max-chat/internal/pkg/chat/presentation/controller"
)

// RegisterRoutes registers the realtime chat endpoint under the given router
// group. History/listing endpoints live with the external API service; the
// core exposes only the websocket surface.
func RegisterRoutes(g *gin.RouterGroup, socketCtl *controller.ChatSocketController) {
	// GET /api/v1/ws -> authenticated websocket session
	g.GET("/ws", socketCtl.Handle())
}
