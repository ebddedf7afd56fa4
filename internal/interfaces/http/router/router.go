package router

import (
	"github.com/gin-gonic/gin"
)

// RouteRegistrar is implemented by handlers that attach their own routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router mounts handler route groups under a versioned API prefix
type Router struct {
	engine     *gin.Engine
	apiVersion string
}

// RouterOption configures a Router
type RouterOption func(*Router)

// WithAPIVersion overrides the default "v1" prefix
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a Router bound to the given engine
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Mount registers every handler's routes under /api/<version>
func (r *Router) Mount(registrars ...RouteRegistrar) {
	api := r.engine.Group("/api/" + r.apiVersion)
	for _, registrar := range registrars {
		registrar.RegisterRoutes(api)
	}
}
