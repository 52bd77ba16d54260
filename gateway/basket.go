package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (g *Gateway) viewBasket(c *gin.Context) {
	summary, err := g.svc.Basket.View(c.Request.Context(), sessionID(c))
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// addToBasket adds one unit. Products that are not on sale are reported
// with added=false and leave the basket as it was.
func (g *Gateway) addToBasket(c *gin.Context) {
	id, err := paramID(c, "product_id")
	if err != nil {
		g.fail(c, err)
		return
	}
	b, added, err := g.svc.Basket.Add(c.Request.Context(), sessionID(c), id)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": added, "count": b.Count, "totals": b.Totals()})
}

func (g *Gateway) removeFromBasket(c *gin.Context) {
	id, err := paramID(c, "product_id")
	if err != nil {
		g.fail(c, err)
		return
	}
	b, err := g.svc.Basket.Remove(c.Request.Context(), sessionID(c), id)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": b.Count, "totals": b.Totals()})
}

func (g *Gateway) clearBasket(c *gin.Context) {
	if err := g.svc.Basket.Clear(c.Request.Context(), sessionID(c)); err != nil {
		g.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// checkout places an order from the basket for the current identity, which
// may be anonymous.
func (g *Gateway) checkout(c *gin.Context) {
	detail, err := g.svc.Orders.Checkout(c.Request.Context(), identity(c), sessionID(c))
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, detail)
}
