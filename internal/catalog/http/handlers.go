package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pap-cedram/pap-backend/internal/catalog/domain"
	"github.com/pap-cedram/pap-backend/internal/catalog/filter"
	"github.com/pap-cedram/pap-backend/internal/catalog/service"
	"github.com/pap-cedram/pap-backend/internal/logging"
)

func (h *Handler) search(c *gin.Context) {
	sel, ok := selection(c)
	if !ok {
		return
	}
	res, err := h.svc.Search(c.Request.Context(), sel)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":           true,
		"projects":     res.Projects,
		"deliverables": res.Deliverables,
		"inactive":     res.Inactive,
	})
}

func (h *Handler) options(c *gin.Context) {
	sel, ok := selection(c)
	if !ok {
		return
	}
	opts, err := h.svc.Options(c.Request.Context(), sel)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "options": opts})
}

func (h *Handler) stats(c *gin.Context) {
	sel, ok := selection(c)
	if !ok {
		return
	}
	stats, err := h.svc.Stats(c.Request.Context(), sel)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "stats": stats})
}

func (h *Handler) createProject(c *gin.Context) {
	var req service.NewProject
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	p, err := h.svc.CreateProject(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "project": p})
}

func (h *Handler) addDeliverable(c *gin.Context) {
	var req service.NewDeliverable
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	d, err := h.svc.AddDeliverable(c.Request.Context(), c.Param("name"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "deliverable": d})
}

func (h *Handler) updateProjects(c *gin.Context) {
	var req updateProjectsReq
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Edits) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	items, err := h.svc.UpdateProjects(c.Request.Context(), req.Edits)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": items})
}

func (h *Handler) updateDeliverables(c *gin.Context) {
	var req updateDeliverablesReq
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Edits) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	items, err := h.svc.UpdateDeliverables(c.Request.Context(), req.Edits)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "deliverables": items})
}

func (h *Handler) deleteProject(c *gin.Context) {
	removed, err := h.svc.DeleteProject(c.Request.Context(), c.Param("name"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "deliverables_removed": removed})
}

func (h *Handler) normalize(c *gin.Context) {
	var req normalizeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	normalized, tags := h.svc.NormalizeLabels(req.Text)
	c.JSON(http.StatusOK, gin.H{"ok": true, "normalized": normalized, "tags": tags})
}

func (h *Handler) vocabulary(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "vocabulary": h.svc.Vocabulary()})
}

// selection reads the repeatable filter query parameters. It writes a 400
// and returns false when a year is not a number.
func selection(c *gin.Context) (filter.Selection, bool) {
	sel := filter.NewSelection()
	for _, raw := range c.QueryArray(string(filter.ByYear)) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		year, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid year: " + raw})
			return filter.Selection{}, false
		}
		sel.Years.Add(year)
	}
	sel.Periods.Append(c.QueryArray(string(filter.ByPeriod))...)
	sel.Categories.Append(c.QueryArray(string(filter.ByCategory))...)
	sel.Subcategories.Append(c.QueryArray(string(filter.BySubcategory))...)
	sel.Names.Append(c.QueryArray(string(filter.ByName))...)
	return sel, true
}

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrDuplicateName), errors.Is(err, domain.ErrConcurrentOverwrite):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrProjectNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrNameRequired),
		errors.Is(err, domain.ErrInvalidYear),
		errors.Is(err, domain.ErrInvalidPeriod),
		errors.Is(err, domain.ErrInvalidEstimate),
		errors.Is(err, domain.ErrTitleRequired),
		errors.Is(err, domain.ErrRowOutOfRange),
		errors.Is(err, domain.ErrImmutableName):
		status = http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		logging.FromContext(c.Request.Context()).Error("catalog request failed", zap.Error(err))
		c.JSON(status, gin.H{"ok": false, "error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"ok": false, "error": err.Error()})
}
