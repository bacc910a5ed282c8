package server

import (
	"net/http"

	"storefront/pkg/metrics"

	"github.com/labstack/echo/v4"
)

func registerRoutes(e *echo.Echo, h Handlers, authMW, adminMW echo.MiddlewareFunc) {
	//死活確認
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	api := e.Group("/api")

	h.Auth.RegisterRoutes(api.Group("/auth"), authMW)

	products := api.Group("/products")
	h.Product.RegisterRoutes(products)
	h.AdminProduct.RegisterRoutes(products, authMW, adminMW)

	orders := api.Group("/orders")
	h.Order.RegisterRoutes(orders, authMW)
	h.AdminOrder.RegisterRoutes(orders, authMW, adminMW)

	h.Contact.RegisterRoutes(api.Group("/contact"), authMW, adminMW)
}
