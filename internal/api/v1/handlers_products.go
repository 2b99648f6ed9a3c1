package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spiritgear-io/spiritgear/internal/repository"
	"github.com/spiritgear-io/spiritgear/internal/service"
)

// handleListProducts returns the catalog, active products only unless the
// dashboard asks for everything.
func (r *APIRouter) handleListProducts(c *gin.Context) {
	activeOnly := c.Query("include_inactive") != "true"
	products, err := r.catalog.ListProducts(c.Request.Context(), activeOnly)
	if err != nil {
		sendError(c, http.StatusInternalServerError, "Failed to list products: "+err.Error())
		return
	}
	sendSuccess(c, products)
}

// handleGetProduct returns one product.
func (r *APIRouter) handleGetProduct(c *gin.Context) {
	product, err := r.catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrProductNotFound) {
		sendError(c, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		sendError(c, http.StatusInternalServerError, "Failed to load product: "+err.Error())
		return
	}
	sendSuccess(c, product)
}

func (r *APIRouter) handleCreateProduct(c *gin.Context) {
	var in service.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid product: "+err.Error())
		return
	}
	product, err := r.catalog.CreateProduct(c.Request.Context(), in)
	if err != nil {
		sendError(c, http.StatusBadRequest, "Failed to create product: "+err.Error())
		return
	}
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: product})
}

func (r *APIRouter) handleUpdateProduct(c *gin.Context) {
	var in service.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid product: "+err.Error())
		return
	}
	product, err := r.catalog.UpdateProduct(c.Request.Context(), c.Param("id"), in)
	if errors.Is(err, repository.ErrProductNotFound) {
		sendError(c, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		sendError(c, http.StatusBadRequest, "Failed to update product: "+err.Error())
		return
	}
	sendSuccess(c, product)
}

func (r *APIRouter) handleDeleteProduct(c *gin.Context) {
	err := r.catalog.DeleteProduct(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrProductNotFound) {
		sendError(c, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		sendError(c, http.StatusInternalServerError, "Failed to delete product: "+err.Error())
		return
	}
	sendSuccess(c, gin.H{"deleted": true})
}
