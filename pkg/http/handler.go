package http

import "github.com/labstack/echo/v4"

// HeaderUserID carries the caller identity. Authentication happens upstream;
// the service only records who asked.
const HeaderUserID = "X-User-ID"

// Handler defines HTTP route registration interface.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}
