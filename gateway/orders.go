package gateway

import (
	"net/http"
	"strconv"

	"github.com/example/shopdesk/pkg/events"
	"github.com/example/shopdesk/pkg/models"
	"github.com/example/shopdesk/pkg/order"
	"github.com/example/shopdesk/pkg/repository"
	"github.com/gin-gonic/gin"
)

const historyLimit = 100

func orderFilter(c *gin.Context) (repository.OrderFilter, error) {
	var filter repository.OrderFilter

	if v := c.Query("user_id"); v != "" {
		uid, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return filter, models.NewValidationError("user_id", "must be a positive integer")
		}
		filter.UserID = &uid
	}
	if v := c.Query("status"); v != "" {
		filter.Status = models.OrderStatus(v)
		if !filter.Status.Valid() {
			return filter, models.NewValidationError("status", "unknown status")
		}
	}
	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		if v := c.Query(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return filter, models.NewValidationError(name, "must be a non-negative integer")
			}
			*dst = n
		}
	}
	return filter, nil
}

func (g *Gateway) listOrders(c *gin.Context) {
	filter, err := orderFilter(c)
	if err != nil {
		g.fail(c, err)
		return
	}
	orders, err := g.svc.Orders.List(c.Request.Context(), filter)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "total": len(orders)})
}

func (g *Gateway) createOrder(c *gin.Context) {
	var in order.OrderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		g.fail(c, models.NewValidationError("", err.Error()))
		return
	}
	o, err := g.svc.Orders.CreateManual(c.Request.Context(), identity(c), in)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (g *Gateway) getOrder(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		g.fail(c, err)
		return
	}
	detail, err := g.svc.Orders.Detail(c.Request.Context(), id)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (g *Gateway) updateOrder(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		g.fail(c, err)
		return
	}
	var in order.OrderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		g.fail(c, models.NewValidationError("", err.Error()))
		return
	}
	o, err := g.svc.Orders.Update(c.Request.Context(), identity(c), id, in)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (g *Gateway) deliverOrder(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		g.fail(c, err)
		return
	}
	o, err := g.svc.Orders.Deliver(c.Request.Context(), identity(c), id)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (g *Gateway) cancelOrder(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		g.fail(c, err)
		return
	}
	o, err := g.svc.Orders.Cancel(c.Request.Context(), identity(c), id)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func bindLine(c *gin.Context) (order.LineInput, error) {
	var in order.LineInput
	if err := c.ShouldBindJSON(&in); err != nil {
		return in, models.NewValidationError("", err.Error())
	}
	return in, nil
}

func (g *Gateway) addLine(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		g.fail(c, err)
		return
	}
	in, err := bindLine(c)
	if err != nil {
		g.fail(c, err)
		return
	}
	line, err := g.svc.Orders.AddLine(c.Request.Context(), identity(c), id, in)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, line)
}

func (g *Gateway) updateLine(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		g.fail(c, err)
		return
	}
	lineID, err := paramID(c, "line_id")
	if err != nil {
		g.fail(c, err)
		return
	}
	in, err := bindLine(c)
	if err != nil {
		g.fail(c, err)
		return
	}
	line, err := g.svc.Orders.UpdateLine(c.Request.Context(), identity(c), id, lineID, in)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, line)
}

func (g *Gateway) deleteLine(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		g.fail(c, err)
		return
	}
	lineID, err := paramID(c, "line_id")
	if err != nil {
		g.fail(c, err)
		return
	}
	if err := g.svc.Orders.DeleteLine(c.Request.Context(), identity(c), id, lineID); err != nil {
		g.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (g *Gateway) orderHistory(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		g.fail(c, err)
		return
	}
	logs, err := g.svc.Audit.GetAuditLogs(c.Request.Context(), events.EntityOrder, id, historyLimit)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": logs})
}

func (g *Gateway) myOrders(c *gin.Context) {
	orders, err := g.svc.Orders.ListForUser(c.Request.Context(), identity(c).UserID)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "total": len(orders)})
}

func (g *Gateway) myOrder(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		g.fail(c, err)
		return
	}
	detail, err := g.svc.Orders.DetailForOwner(c.Request.Context(), identity(c), id)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}
