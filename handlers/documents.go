package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/patchdoc/patchdoc/internal/document"
	"github.com/patchdoc/patchdoc/internal/export"
	"github.com/patchdoc/patchdoc/internal/interpret"
	"github.com/patchdoc/patchdoc/internal/registry"
	"github.com/patchdoc/patchdoc/internal/schema"
	"github.com/patchdoc/patchdoc/internal/storage"
	"github.com/patchdoc/patchdoc/pkg/logger"
	"github.com/patchdoc/patchdoc/pkg/metrics"
)

// RegisterDocumentRoutes wires the schema and document API onto r.
// snapshots may be nil when no object storage is configured.
func RegisterDocumentRoutes(r gin.IRouter, svc registry.Service, snapshots *storage.SnapshotStore) {
	r.POST("/api/schemas", func(c *gin.Context) {
		var req struct {
			Name    string         `json:"name"`
			Version int            `json:"version"`
			Fields  []schema.Field `json:"fields"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		sc, err := schema.New(req.Name, req.Version, req.Fields)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := svc.RegisterSchema(sc); err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		logger.Infof("schema registered: %s v%d (%d fields)", sc.Name, sc.Version, len(sc.Fields))
		c.JSON(http.StatusCreated, gin.H{"name": sc.Name, "version": sc.Version, "resource": export.ResourceID(sc)})
	})

	r.GET("/api/schemas", func(c *gin.Context) {
		list := svc.Schemas()
		out := make([]gin.H, 0, len(list))
		for _, sc := range list {
			out = append(out, gin.H{"name": sc.Name, "version": sc.Version, "resource": export.ResourceID(sc)})
		}
		c.JSON(http.StatusOK, out)
	})

	r.GET("/api/schemas/:name/descriptor", func(c *gin.Context) {
		sc, ok := svc.SchemaNamed(c.Param("name"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown schema"})
			return
		}
		c.JSON(http.StatusOK, export.ToolDescriptor(sc))
	})

	r.POST("/api/documents", func(c *gin.Context) {
		var req struct {
			Schema string                 `json:"schema"`
			Values map[string]interface{} `json:"values,omitempty"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ld, err := svc.Create(req.Schema, req.Values)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": ld.ID, "schema": ld.SchemaName})
	})

	r.GET("/api/documents", func(c *gin.Context) {
		list, _ := svc.List()
		out := make([]gin.H, 0, len(list))
		for _, ld := range list {
			out = append(out, gin.H{"id": ld.ID, "schema": ld.SchemaName, "createdAt": ld.CreatedAt})
		}
		c.JSON(http.StatusOK, out)
	})

	r.GET("/api/documents/:id", func(c *gin.Context) {
		ld, err := svc.Get(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": ld.ID, "schema": ld.SchemaName, "values": ld.Doc.Values()})
	})

	r.DELETE("/api/documents/:id", func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.Status(http.StatusNoContent)
	})

	r.POST("/api/documents/:id/patch", func(c *gin.Context) {
		ld, err := svc.Get(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		var req struct {
			Patch  []document.Op `json:"patch"`
			Source string        `json:"source,omitempty"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		source := resolveSource(c, req.Source, "user")
		res := ld.Doc.ApplyPatch(req.Patch, source)
		if !res.Success {
			metrics.PatchesRejected.WithLabelValues(source).Inc()
			logger.Warnf("patch rejected for %s (source=%s): %s", ld.ID, source, res.Error)
			c.JSON(http.StatusUnprocessableEntity, res)
			return
		}
		metrics.PatchesApplied.WithLabelValues(source).Inc()
		logger.Infof("patch applied to %s (source=%s, ops=%d)", ld.ID, source, res.Applied)
		c.JSON(http.StatusOK, res)
	})

	r.POST("/api/documents/:id/interpret", func(c *gin.Context) {
		ld, err := svc.Get(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		var req struct {
			Text   string `json:"text"`
			Source string `json:"source,omitempty"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		// raw-text payloads default to "llm" when nothing identifies the caller
		source := resolveSource(c, req.Source, "llm")
		res := interpret.Interpret(ld.Doc, req.Text, source)
		metrics.Interpretations.WithLabelValues(string(res.Outcome)).Inc()
		switch res.Outcome {
		case interpret.OutcomeApplied:
			logger.Infof("interpreted payload applied to %s (source=%s, edits=%d)", ld.ID, source, res.EditsApplied)
			c.JSON(http.StatusOK, res)
		case interpret.OutcomeValidationError:
			logger.Warnf("interpreted payload rejected for %s: %s", ld.ID, res.Reason)
			c.JSON(http.StatusUnprocessableEntity, res)
		default:
			logger.Warnf("unparseable payload for %s: %s", ld.ID, res.Reason)
			c.JSON(http.StatusBadRequest, res)
		}
	})

	r.GET("/api/documents/:id/history", func(c *gin.Context) {
		ld, err := svc.Get(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusOK, ld.Doc.History())
	})

	r.DELETE("/api/documents/:id/history", func(c *gin.Context) {
		ld, err := svc.Get(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		ld.Doc.ClearHistory()
		c.Status(http.StatusNoContent)
	})

	r.GET("/api/documents/:id/summary", func(c *gin.Context) {
		ld, err := svc.Get(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.String(http.StatusOK, ld.Doc.IntentSummary())
	})

	r.GET("/api/documents/:id/context", func(c *gin.Context) {
		ld, err := svc.Get(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.String(http.StatusOK, export.PromptContext(ld.Doc))
	})

	r.GET("/api/documents/:id/resource", func(c *gin.Context) {
		ld, err := svc.Get(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		content, err := ld.Doc.ExportJSON()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"resource": export.ResourceID(ld.Doc.Schema()), "content": content})
	})

	r.POST("/api/documents/:id/save", func(c *gin.Context) {
		id := c.Param("id")
		if err := svc.Save(c.Request.Context(), id); err != nil {
			status := http.StatusInternalServerError
			if err == registry.ErrNotFound {
				status = http.StatusNotFound
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "saved": true})
	})

	r.POST("/api/documents/:id/restore", func(c *gin.Context) {
		ld, err := svc.Restore(c.Request.Context(), c.Param("id"))
		if err != nil {
			status := http.StatusInternalServerError
			if err == registry.ErrNotFound {
				status = http.StatusNotFound
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": ld.ID, "schema": ld.SchemaName, "values": ld.Doc.Values()})
	})

	r.POST("/api/documents/:id/snapshot", func(c *gin.Context) {
		if snapshots == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "snapshot storage not configured"})
			return
		}
		ld, err := svc.Get(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		payload, err := ld.Doc.ExportJSON()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		key, err := snapshots.Put(c.Request.Context(), ld.ID, payload)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		url, err := snapshots.PresignedURL(c.Request.Context(), key, 15*time.Minute)
		if err != nil {
			// the object is stored; the link is a convenience
			logger.Warnf("presign failed for %s: %v", key, err)
		}
		c.JSON(http.StatusCreated, gin.H{"key": key, "url": url})
	})
}

// resolveSource picks the audit source for a mutation: the verified token
// subject when auth is enabled, then the caller-declared source, then the
// route's fallback. The fallback never overrides an explicit identity.
func resolveSource(c *gin.Context, declared, fallback string) string {
	if v, ok := c.Get("source"); ok {
		if s, ok2 := v.(string); ok2 && s != "" {
			return s
		}
	}
	if declared != "" {
		return declared
	}
	return fallback
}
