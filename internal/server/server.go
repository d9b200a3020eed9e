// Package server is restfused, the HTTP server exposing a backing
// directory over the REST API this project's clients mount: C7 (HTTP
// handlers) and C8 (the filesystem watcher and its broadcast hub).
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jacobsa/timeutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/restfuse-project/restfuse/internal/logger"
)

// recentModWindow bounds how long a just-mutated path waits for the
// corresponding fsnotify event before that attribution is given up on.
const recentModWindow = 2 * time.Second

// requestsTotal is registered once per process with the default registry
// that /metrics serves; every Server in the process shares it.
var requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "restfused_http_requests_total",
	Help: "Total HTTP requests served, by route and status class.",
}, []string{"route", "status_class"})

// Server serves a single backing directory over HTTP and WebSocket.
type Server struct {
	root string
	mods *recentMods
	hub  *Hub
	wch  *watcher

	router *mux.Router
	http   *http.Server

	requestsTotal *prometheus.CounterVec
}

// New builds a Server rooted at root, ready to ListenAndServe once
// constructed. It starts the filesystem watcher immediately.
func New(root, addr string) (*Server, error) {
	mods := newRecentMods(timeutil.RealClock(), recentModWindow)
	hub := newHub()

	wch, err := newWatcher(root, mods, hub)
	if err != nil {
		return nil, err
	}

	s := &Server{
		root: root,
		mods: mods,
		hub:  hub,
		wch:  wch,

		requestsTotal: requestsTotal,
	}

	s.router = s.newRouter()
	s.http = &http.Server{Addr: addr, Handler: s.router}

	go wch.Run()

	return s, nil
}

func (s *Server) newRouter() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/list/{path:.*}", s.instrument("list", s.handleList)).Methods(http.MethodGet)
	r.HandleFunc("/files/{path:.*}", s.instrument("read", s.handleRead)).Methods(http.MethodGet)
	r.HandleFunc("/files/{path:.*}", s.instrument("write", s.handleWrite)).Methods(http.MethodPut)
	r.HandleFunc("/files/{path:.*}", s.instrument("delete", s.handleDelete)).Methods(http.MethodDelete)
	r.HandleFunc("/files/{path:.*}", s.instrument("chmod", s.handleChmod)).Methods(http.MethodPatch)
	r.HandleFunc("/mkdir/{path:.*}", s.instrument("mkdir", s.handleMkdir)).Methods(http.MethodPost)
	r.HandleFunc("/ws", s.hub.ServeWS)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// instrument wraps h to record its outcome's status class in
// requestsTotal, the server's one ambient metric, and to log its entry and
// outcome at DEBUG severity.
func (s *Server) instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Debugf("<- %s %s", route, r.URL.Path)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)

		if rec.status >= 400 {
			logger.Debugf("-> (%s) error: %d", route, rec.status)
		} else {
			logger.Debugf("-> (%s) OK", route)
		}

		s.requestsTotal.WithLabelValues(route, statusClass(rec.status)).Inc()
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func statusClass(status int) string {
	switch {
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

// ListenAndServe blocks serving HTTP until the server is shut down.
func (s *Server) ListenAndServe() error {
	logger.Infof("server: listening on %s, serving %s", s.http.Addr, s.root)
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the HTTP server and the filesystem watcher.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.wch.Close(); err != nil {
		logger.Warnf("server: closing watcher: %v", err)
	}
	return s.http.Shutdown(ctx)
}
