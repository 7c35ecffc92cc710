package server

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/spelekhaty-ai/ummc-formulary/internal"
	"github.com/spelekhaty-ai/ummc-formulary/internal/config"
	"github.com/spelekhaty-ai/ummc-formulary/internal/dosing"
	"github.com/spelekhaty-ai/ummc-formulary/internal/formulary"
	"github.com/spelekhaty-ai/ummc-formulary/internal/source"
)

type handler struct {
	svc *formulary.Service
	cfg config.Config
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handler) cards(c *gin.Context) {
	card, _, err := h.svc.CurrentViews()
	if err != nil {
		abortViews(c, err)
		return
	}

	view := formulary.FilterCards(card, c.Query("search"), splitList(c.Query("products")))
	c.JSON(http.StatusOK, gin.H{
		"label":    internal.AttributeLabel,
		"products": view.Products,
		"rows":     view.Rows,
	})
}

func (h *handler) products(c *gin.Context) {
	_, calc, err := h.svc.CurrentViews()
	if err != nil {
		abortViews(c, err)
		return
	}

	products := calc.Products
	if category := strings.TrimSpace(c.Query("category")); category != "" {
		products = formulary.ByCategory(calc, internal.Category(category))
	}
	c.JSON(http.StatusOK, gin.H{"columns": calc.Columns, "products": products})
}

func (h *handler) export(c *gin.Context) {
	card, _, err := h.svc.CurrentViews()
	if err != nil {
		abortViews(c, err)
		return
	}
	view := formulary.FilterCards(card, c.Query("search"), splitList(c.Query("products")))

	buf := &bytes.Buffer{}
	switch c.DefaultQuery("format", "csv") {
	case "xlsx":
		if err := formulary.WriteCardsXLSX(view, buf); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="formulary.xlsx"`)
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
	case "csv":
		if err := formulary.ExportCardsCSV(view, buf); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="formulary.csv"`)
		c.Data(http.StatusOK, "text/csv", buf.Bytes())
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported format"})
	}
}

type doseRequest struct {
	WeightKg     float64 `json:"weightKg"`
	KcalPerKg    float64 `json:"kcalPerKg"`
	ProteinPerKg float64 `json:"proteinPerKg"`

	TargetKcal      float64 `json:"targetKcal"`
	TargetProtein   float64 `json:"targetProtein"`
	PropofolRate    float64 `json:"propofolRateMlPerHr"`
	ClevidipineRate float64 `json:"clevidipineRateMlPerHr"`

	Product     string `json:"product"`
	Method      string `json:"method"`
	HoursPerDay int    `json:"hoursPerDay"`
	FeedsPerDay int    `json:"feedsPerDay"`
}

func (h *handler) dose(c *gin.Context) {
	var req doseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	_, calc, err := h.svc.CurrentViews()
	if err != nil {
		abortViews(c, err)
		return
	}

	product, ok := formulary.Product(calc, req.Product)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown product: " + req.Product})
		return
	}

	targetKcal, targetProtein := req.TargetKcal, req.TargetProtein
	if req.WeightKg > 0 {
		kcalPerKg := req.KcalPerKg
		if kcalPerKg == 0 {
			kcalPerKg = h.cfg.DefaultKcalPerKg
		}
		proteinPerKg := req.ProteinPerKg
		if proteinPerKg == 0 {
			proteinPerKg = h.cfg.DefaultProteinPerKg
		}
		kcal, protein := dosing.GoalsFromWeight(req.WeightKg, kcalPerKg, proteinPerKg)
		targetKcal, targetProtein = float64(kcal), float64(protein)
	}

	result, err := dosing.Compute(internal.DoseRequest{
		TargetKcal:      targetKcal,
		TargetProtein:   targetProtein,
		PropofolRate:    req.PropofolRate,
		ClevidipineRate: req.ClevidipineRate,
		Product:         product,
		Method:          internal.FeedingMethod(req.Method),
		HoursPerDay:     req.HoursPerDay,
		FeedsPerDay:     req.FeedsPerDay,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func abortViews(c *gin.Context, err error) {
	if errors.Is(err, source.ErrNoSource) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "formulary not loaded"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func splitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
