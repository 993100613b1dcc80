package main

import (
	"net/http"

	_ "github.com/jeamon/book-catalog/docs"
	"github.com/julienschmidt/httprouter"
	httpswagger "github.com/swaggo/http-swagger/v2"
)

// MiddlewareMap contains middlwares chain to
// use for public-facing and ops requests.
type MiddlewareMap struct {
	public func(httprouter.Handle) httprouter.Handle
	ops    func(httprouter.Handle) httprouter.Handle
}

// SetupRoutes injects book and ops related endpoints if required.
func (api *APIHandler) SetupRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.RedirectTrailingSlash = true
	router.HandleMethodNotAllowed = true
	router.HandleOPTIONS = true
	router.NotFound = fallbackHandler(m.public, api.NotFound)
	router.MethodNotAllowed = fallbackHandler(m.public, api.MethodNotAllowed)
	router.GlobalOPTIONS = CORSPreflightHandler()
	api.SetupBookRoutes(router, m)
	if api.config.OpsEndpointsEnable {
		api.SetupOpsRoutes(router, m)
	}
	router.GET("/swagger/*any", m.public(api.OpsHandlerWrapper(httpswagger.WrapHandler)))
	return router
}

// fallbackHandler exposes a chained handle as the plain http.Handler
// the router expects for requests matching no route.
func fallbackHandler(chain func(httprouter.Handle) httprouter.Handle, h httprouter.Handle) http.Handler {
	handle := chain(h)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handle(w, r, nil)
	})
}
