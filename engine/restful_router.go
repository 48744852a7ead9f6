package engine

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/log"
	"github.com/gorilla/mux"
)

// Route is a named REST endpoint
type Route struct {
	Name        string
	Method      string
	Pattern     string
	HandlerFunc http.HandlerFunc
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// RESTLogger wraps a handler with a debug line per request
func RESTLogger(inner http.Handler, name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		inner.ServeHTTP(rec, r)
		log.Debugf(log.RESTSys, "%s %s %s %d %s",
			r.Method, r.RequestURI, name, rec.status, time.Since(start))
	})
}

func (e *Engine) restRoutes() []Route {
	return []Route{
		{"Index", http.MethodGet, "/", nil},
		{"ListTWAPOrders", http.MethodGet, "/twap", e.restListTWAPOrders},
		{"GetTWAPOrder", http.MethodGet, "/twap/{id}", e.restGetTWAPOrder},
		{"GetTWAPFills", http.MethodGet, "/twap/{id}/fills", e.restGetTWAPFills},
		{"GetTWAPStatistics", http.MethodGet, "/twap/{id}/stats", e.restGetTWAPStatistics},
		{"GetPortfolio", http.MethodGet, "/portfolio", e.restGetPortfolio},
	}
}

// newRouter returns the read only REST multiplexer. When a listen address is
// configured, requests for any other host are not matched.
func (e *Engine) newRouter() *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	routes := e.restRoutes()
	host := e.Config.RemoteControl.ListenAddress
	for i := range routes {
		handler := routes[i].HandlerFunc
		if handler == nil {
			handler = indexHandler(routes)
		}
		r := router.Methods(routes[i].Method).
			Path(routes[i].Pattern).
			Name(routes[i].Name).
			Handler(RESTLogger(handler, routes[i].Name))
		if host != "" {
			r.Host(host)
		}
	}
	return router
}

func indexHandler(routes []Route) http.HandlerFunc {
	paths := make([]string, 0, len(routes))
	for i := range routes {
		if routes[i].Pattern != "/" {
			paths = append(paths, routes[i].Pattern)
		}
	}
	body := "TWAP terminal RESTful interface. Endpoints: " + strings.Join(paths, ", ")
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, body)
	}
}
