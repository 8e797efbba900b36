package app

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

const missingUsernameBody = `no "username" param provided`

// handleFeed serves the RSS document for the username named in the query
// string. Any path is accepted; only the query string is inspected.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(missingUsernameBody))
		return
	}

	doc, err := s.cache.GetOrCreate(username, s.generate)
	if err != nil {
		s.log.Error("feed generation failed",
			zap.String("username", username),
			zap.Error(err),
		)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream scholar query failed"))
		return
	}

	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(doc))
}

// generate assembles a document on its own deadline. It deliberately does
// not inherit the request context: a disconnecting client must not cancel
// work that coalesced waiters and future requests share.
func (s *Server) generate(username string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.SearchTimeout)
	defer cancel()
	return s.assembler.Assemble(ctx, username)
}
