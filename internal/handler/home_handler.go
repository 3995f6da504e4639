package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"basecode-go/pkg/model"
)

// HomeHandler serves the static pages
type HomeHandler struct{}

// NewHomeHandler creates a new home handler
func NewHomeHandler() *HomeHandler {
	return &HomeHandler{}
}

// RegisterRoutes registers the home routes
func (h *HomeHandler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/", h.Index)
	router.GET("/Home", h.Index)
	router.GET("/Home/Index", h.Index)
	router.GET("/Home/About", h.About)
	router.GET("/Home/Contact", h.Contact)
	router.GET("/Home/Error", h.Error)
}

// Index handles GET /Home/Index
func (h *HomeHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "home/index", newPage(c, "Home Page", nil))
}

// About handles GET /Home/About
func (h *HomeHandler) About(c *gin.Context) {
	c.HTML(http.StatusOK, "home/about", newPage(c, "About", nil))
}

// Contact handles GET /Home/Contact
func (h *HomeHandler) Contact(c *gin.Context) {
	c.HTML(http.StatusOK, "home/contact", newPage(c, "Contact", nil))
}

// Error handles GET /Home/Error
func (h *HomeHandler) Error(c *gin.Context) {
	renderError(c, http.StatusOK, "")
}

// NotFound renders the error page for unknown routes
func (h *HomeHandler) NotFound(c *gin.Context) {
	renderError(c, http.StatusNotFound, model.ErrorPageNotFound)
}
