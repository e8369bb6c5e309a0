package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/mohdafzal1700/max-chat/internal/pkg/chat/presentation/controller"
	httpHandler "github.com/mohdafzal1700/max-chat/internal/pkg/chat/presentation/http"
)

// RegisterRoutes mounts all version 1 API routes under /api/v1
func RegisterRoutes(r *gin.Engine, socketCtl *controller.ChatSocketController) {
	v1 := r.Group("/api/v1")
	httpHandler.RegisterRoutes(v1, socketCtl)
}
