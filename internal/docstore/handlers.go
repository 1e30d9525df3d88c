package docstore

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler exposes the store as a plain JSON CRUD API. Authentication is the
// caller's concern (RequireAPIKey is registered ahead of these routes).
type Handler struct {
	Store *Store
}

// Register mounts the CRUD routes on r.
func (h Handler) Register(r gin.IRoutes) {
	r.GET("/:collection", h.List)
	r.GET("/:collection/:id", h.Get)
	r.POST("/:collection", h.Create)
	r.PUT("/:collection/:id", h.Replace)
	r.DELETE("/:collection/:id", h.Delete)
}

func (h Handler) List(c *gin.Context) {
	docs, err := h.Store.List(c.Param("collection"))
	if err != nil {
		if errors.Is(err, ErrUnknownCollection) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown collection"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, docs)
}

func (h Handler) Get(c *gin.Context) {
	doc, ok := h.Store.Get(c.Param("collection"), c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h Handler) Create(c *gin.Context) {
	var doc Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document"})
		return
	}
	created, err := h.Store.Insert(c.Param("collection"), doc)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h Handler) Replace(c *gin.Context) {
	var doc Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document"})
		return
	}
	replaced, err := h.Store.Replace(c.Param("collection"), c.Param("id"), doc)
	if err != nil {
		if errors.Is(err, ErrUnknownCollection) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown collection"})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, replaced)
}

func (h Handler) Delete(c *gin.Context) {
	removed, err := h.Store.Delete(c.Param("collection"), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrUnknownCollection) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown collection"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
