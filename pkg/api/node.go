package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pipebase/pipebuilder-sub000/pkg/apis"
	"github.com/pipebase/pipebuilder-sub000/pkg/nodeclient"
	"github.com/pipebase/pipebuilder-sub000/pkg/pberrors"
	"github.com/pipebase/pipebuilder-sub000/pkg/registry"
)

func (s *Server) mountNode(r chi.Router) {
	r.Route("/node", func(r chi.Router) {
		r.Get("/", s.handleListNode)
		r.Post("/activate", s.handleActivateNode)
		r.Post("/deactivate", s.handleDeactivateNode)
		r.Post("/shutdown", s.handleShutdownNode)
	})
}

func (s *Server) handleListNode(w http.ResponseWriter, r *http.Request) {
	role := apis.NodeRole(r.URL.Query().Get("role"))
	if role != "" && !role.Valid() {
		writeError(w, pberrors.InvalidRequestf("api: invalid node role %q", role))
		return
	}
	items, err := registry.ListResource[apis.NodeState](r.Context(), s.reg, registry.NodePrefix(role))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]apis.NodeState, 0, len(items))
	for _, it := range items {
		out = append(out, it.Value)
	}
	writeOK(w, out)
}

// nodeControlRequest is the documented {id} control body. Role is
// optional: node ids are scoped per-role in the registry
// (registry.NodeKey), so when the caller omits it, dispatch resolves
// it by checking each of the four roles in turn.
type nodeControlRequest struct {
	Role apis.NodeRole `json:"role,omitempty"`
	ID   string        `json:"id"`
}

var allNodeRoles = []apis.NodeRole{
	apis.NodeRoleAPI, apis.NodeRoleBuilder, apis.NodeRoleRepository, apis.NodeRoleScheduler,
}

// dispatch finds the target node's published NodeState, by id (and,
// if given, role), and dials its internal control surface at the
// external address the last heartbeat advertised.
func (s *Server) dispatch(r *http.Request, req nodeControlRequest) (*nodeclient.Client, error) {
	if req.ID == "" {
		return nil, pberrors.InvalidRequestf("api: id is required")
	}
	if req.Role != "" && !req.Role.Valid() {
		return nil, pberrors.InvalidRequestf("api: invalid node role %q", req.Role)
	}

	roles := allNodeRoles
	if req.Role != "" {
		roles = []apis.NodeRole{req.Role}
	}
	for _, role := range roles {
		state, err := registry.GetResource[apis.NodeState](r.Context(), s.reg, registry.NodeKey(role, req.ID), 0)
		if err == nil {
			return nodeclient.New(state.ExternalAddress), nil
		}
		if pberrors.KindOf(err) != pberrors.KindNotFound {
			return nil, err
		}
	}
	return nil, pberrors.NotFoundf("api: no node %q found in any role", req.ID)
}

func (s *Server) handleActivateNode(w http.ResponseWriter, r *http.Request) {
	var req nodeControlRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	client, err := s.dispatch(r, req)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := client.Activate(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, req)
}

func (s *Server) handleDeactivateNode(w http.ResponseWriter, r *http.Request) {
	var req nodeControlRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	client, err := s.dispatch(r, req)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := client.Deactivate(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, req)
}

func (s *Server) handleShutdownNode(w http.ResponseWriter, r *http.Request) {
	var req nodeControlRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	client, err := s.dispatch(r, req)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := client.Shutdown(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, req)
}
