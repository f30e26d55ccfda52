// Package server exposes a read-only HTTP API over an open book.
package server

import (
	"log"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bookgrep/bookgrep/internal/book"
	"github.com/bookgrep/bookgrep/internal/currency"
)

type Server struct {
	book     *book.Book
	base     string
	lookback int
	router   chi.Router
	addr     string
}

func New(bk *book.Book, base string, lookbackDays int, addr string) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	s := &Server{book: bk, base: base, lookback: lookbackDays, router: r, addr: addr}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/info", s.getInfo)

		r.Get("/accounts", s.listAccounts)
		r.Get("/accounts/{guid}", s.getAccount)
		r.Get("/accounts/{guid}/splits", s.listAccountSplits)

		r.Get("/transactions/{guid}", s.getTransaction)
		r.Get("/splits/{guid}", s.getSplit)

		r.Get("/search", s.search)
		r.Get("/prices", s.getPrice)
	})

	return s
}

// converter builds a fresh conversion session; the Converter's rate cache is
// not safe for concurrent use, so each request gets its own.
func (s *Server) converter() (*currency.Converter, error) {
	return currency.NewConverter(s.book, s.base, s.lookback)
}

func (s *Server) ListenAndServe() error {
	log.Printf("bookgrep server listening on %s", s.addr)
	return http.ListenAndServe(s.addr, s.router)
}

func (s *Server) Serve(ln net.Listener) error {
	log.Printf("bookgrep server listening on %s", ln.Addr())
	return http.Serve(ln, s.router)
}

func (s *Server) Handler() http.Handler {
	return s.router
}
