package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wanderplan/planner"
	"wanderplan/services"
)

func (h *Handler) buildPackage(c *gin.Context) (*planner.TripPackage, bool) {
	var req planner.PackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return nil, false
	}
	pkg, err := h.Packages.Build(req)
	if err != nil {
		h.abort(c, "handlers.BuildPackage", err)
		return nil, false
	}
	h.Metrics.packages.WithLabelValues(string(pkg.Style), boolLabel(pkg.Affordable)).Inc()
	return pkg, true
}

func (h *Handler) BuildPackage(c *gin.Context) {
	pkg, ok := h.buildPackage(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, pkg)
}

func (h *Handler) PackagePDF(c *gin.Context) {
	pkg, ok := h.buildPackage(c)
	if !ok {
		return
	}
	pdfBytes, err := services.PackagePDF(pkg)
	if err != nil {
		h.Logger.Error("package PDF failed", zap.String("op", "handlers.PackagePDF"), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate PDF"})
		return
	}
	c.Header("Content-Disposition", "attachment; filename=wanderplan-package.pdf")
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}
