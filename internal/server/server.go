package server

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/spelekhaty-ai/ummc-formulary/internal/config"
	"github.com/spelekhaty-ai/ummc-formulary/internal/formulary"
	"github.com/spelekhaty-ai/ummc-formulary/internal/storage"
)

type Server struct {
	router *gin.Engine
	cfg    config.Config
}

func New(db *storage.DB, cfg config.Config) *Server {
	router := gin.Default()

	h := &handler{svc: formulary.NewService(db), cfg: cfg}

	api := router.Group("/api")
	{
		api.GET("/health", h.health)
		api.GET("/formulary/cards", h.cards)
		api.GET("/formulary/products", h.products)
		api.GET("/formulary/export", h.export)
		api.POST("/dose", h.dose)
	}

	return &Server{router: router, cfg: cfg}
}

func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%d", s.cfg.ServerPort))
}

func (s *Server) Router() *gin.Engine {
	return s.router
}
