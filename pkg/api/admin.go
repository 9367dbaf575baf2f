package api

import "net/http"

// handleAdminShutdown triggers this node's own graceful shutdown. It
// responds first, then invokes the callback the Server was built with
// -- typically cancelling the root context the serve command is
// running under.
func (s *Server) handleAdminShutdown(w http.ResponseWriter, r *http.Request) {
	writeOK(w, map[string]string{"status": "shutting_down"})
	if s.onAdmin != nil {
		s.onAdmin()
	}
}
