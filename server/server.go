package server

import (
	"net/http"
	"sync/atomic"

	"github.com/aufmass/go-aufmass/config"
	"github.com/aufmass/go-aufmass/database"
	"github.com/aufmass/go-aufmass/guestcache"
)

var index atomic.Uint64

type Server struct {
	config config.Config
	store  *database.Store
	cache  *guestcache.Cache
}

func New(cfg config.Config, store *database.Store, cache *guestcache.Cache) *Server {
	return &Server{
		config: cfg,
		store:  store,
		cache:  cache,
	}
}

func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/guest/validate", s.ValidateGuestHttp)
	mux.HandleFunc("/api/guest/data", s.GuestDataHttp)
	mux.HandleFunc("/api/guest/update", s.GuestUpdateHttp)
	return mux
}
