// Package status serves a read-only, off-by-default HTTP view of a host's
// mesh members, for external monitoring. It sits entirely outside the mesh
// wire protocol: no status-server failure or absence affects dispatch,
// discovery, or any other core operation.
package status

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/bfix/gospel/logger"
	"github.com/gorilla/mux"
	gorillarpc "github.com/gorilla/rpc"
	rpcjson "github.com/gorilla/rpc/json"

	"github.com/bfix/mm/registry"
)

// MemberLister is the read-only view of a System's membership status that
// this package needs; satisfied by *system.System without importing it.
type MemberLister interface {
	AllMembersWithStatus(ctx context.Context) []registry.MemberInfo
}

// Server hosts the HTTP status surface: a plain JSON GET endpoint and a
// gorilla/rpc JSON-RPC 1.0 service exposing the same data.
type Server struct {
	lister MemberLister
	http   *http.Server
	router *mux.Router
}

// New builds a Server backed by lister, listening on addr once Start runs.
func New(lister MemberLister, addr string) *Server {
	router := mux.NewRouter()
	s := &Server{
		lister: lister,
		router: router,
		http: &http.Server{
			Handler:      router,
			Addr:         addr,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
	}
	router.HandleFunc("/members", s.handleMembers).Methods(http.MethodGet)

	rpcServer := gorillarpc.NewServer()
	rpcServer.RegisterCodec(rpcjson.NewCodec(), "application/json")
	if err := rpcServer.RegisterService(&StatusService{lister: lister}, ""); err != nil {
		panic(err) // only fails on a malformed service definition, a coding error
	}
	router.Handle("/rpc", rpcServer)
	return s
}

// Start runs the HTTP server in the background until ctx is done.
func (s *Server) Start(ctx context.Context) {
	go func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf(logger.WARN, "[status] server stopped: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			logger.Printf(logger.WARN, "[status] shutdown failed: %v", err)
		}
	}()
	logger.Printf(logger.INFO, "[status] listening on %s", s.http.Addr)
}

func (s *Server) handleMembers(w http.ResponseWriter, r *http.Request) {
	members := s.lister.AllMembersWithStatus(r.Context())
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(members); err != nil {
		logger.Printf(logger.WARN, "[status] encode response: %v", err)
	}
}
