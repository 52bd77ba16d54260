package gateway

import (
	"net/http"

	"github.com/example/shopdesk/pkg/auth"
	"github.com/example/shopdesk/pkg/catalog"
	"github.com/example/shopdesk/pkg/models"
	"github.com/gin-gonic/gin"
)

// listProducts returns the purchasable catalog. Holders of change_product
// may pass all=true to include products taken out of sale.
func (g *Gateway) listProducts(c *gin.Context) {
	ctx := c.Request.Context()
	category := c.Query("category")

	var (
		products []models.Product
		err      error
	)
	if c.Query("all") == "true" {
		if err := g.svc.Authorizer.Authorize(ctx, identity(c), auth.ChangeProduct); err != nil {
			g.fail(c, err)
			return
		}
		products, err = g.svc.Catalog.ListAll(ctx, category)
	} else {
		products, err = g.svc.Catalog.ListPurchasable(ctx, category)
	}
	if err != nil {
		g.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products, "total": len(products)})
}

func (g *Gateway) getProduct(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		g.fail(c, err)
		return
	}
	product, err := g.svc.Catalog.Get(c.Request.Context(), id)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func bindProduct(c *gin.Context) (catalog.ProductInput, error) {
	var in catalog.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		return in, models.NewValidationError("", err.Error())
	}
	return in, nil
}

func (g *Gateway) createProduct(c *gin.Context) {
	in, err := bindProduct(c)
	if err != nil {
		g.fail(c, err)
		return
	}
	product, err := g.svc.Catalog.Create(c.Request.Context(), identity(c), in)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (g *Gateway) updateProduct(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		g.fail(c, err)
		return
	}
	in, err := bindProduct(c)
	if err != nil {
		g.fail(c, err)
		return
	}
	product, err := g.svc.Catalog.Update(c.Request.Context(), identity(c), id, in)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// deleteProduct takes the product out of sale; the row and any order lines
// referencing it stay.
func (g *Gateway) deleteProduct(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		g.fail(c, err)
		return
	}
	product, err := g.svc.Catalog.SoftDelete(c.Request.Context(), identity(c), id)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// uploadPhoto expects a multipart form with the image in the "photo" field.
func (g *Gateway) uploadPhoto(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		g.fail(c, err)
		return
	}
	fh, err := c.FormFile("photo")
	if err != nil {
		g.fail(c, models.NewValidationError("photo", "file is required"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		g.fail(c, err)
		return
	}
	defer f.Close()

	product, err := g.svc.Catalog.AttachPhoto(c.Request.Context(), identity(c), id, f, fh.Size, fh.Header.Get("Content-Type"))
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}
