package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/flagtactics/playbook/internal/handler/health"
	"github.com/flagtactics/playbook/internal/playbook"
)

type playPath struct {
	ID string `path:"id"`
}

type folderPath struct {
	ID string `path:"id"`
}

type sharePath struct {
	ShareID string `path:"shareId"`
}

type listPlaysQuery struct {
	FolderID string `query:"folderId" description:"Folder id, \"all-plays\" or \"unfiled\"."`
}

type putPlayRequest struct {
	playPath
	playbook.Play
}

type updateFolderRequest struct {
	folderPath
	FolderRequest
}

type createShareRequest struct {
	folderPath
	ShareRequest
}

type statusResponse struct {
	Status string `json:"status"`
}

// operation is one documented route. Requests and responses are keyed by
// HTTP status.
type operation struct {
	method, path, summary, description string
	req                                any
	resp                               map[int]any
	contentType                        string
}

func operations() []operation {
	authErrors := map[int]any{
		http.StatusUnauthorized: ErrorResponse{},
	}
	with := func(base map[int]any, extra map[int]any) map[int]any {
		out := make(map[int]any, len(base)+len(extra))
		for k, v := range base {
			out[k] = v
		}
		for k, v := range extra {
			out[k] = v
		}
		return out
	}

	return []operation{
		{
			method: http.MethodGet, path: "/healthz",
			summary:     "Health check",
			description: "Returns the health status of backend dependencies.",
			resp: map[int]any{
				http.StatusOK:                 health.Report{},
				http.StatusServiceUnavailable: health.Report{},
			},
		},
		{
			method: http.MethodPost, path: "/api/auth/register",
			summary:     "Register",
			description: "Creates an account and starts a session.",
			req:         AuthRequest{},
			resp: map[int]any{
				http.StatusCreated:    AccountResponse{},
				http.StatusBadRequest: ErrorResponse{},
				http.StatusConflict:   ErrorResponse{},
			},
		},
		{
			method: http.MethodPost, path: "/api/auth/login",
			summary:     "Log in",
			description: "Starts a session. The token is set as a cookie and returned in the body.",
			req:         AuthRequest{},
			resp: map[int]any{
				http.StatusOK:           AccountResponse{},
				http.StatusBadRequest:   ErrorResponse{},
				http.StatusUnauthorized: ErrorResponse{},
			},
		},
		{
			method: http.MethodPost, path: "/api/auth/logout",
			summary: "Log out",
			resp:    map[int]any{http.StatusOK: statusResponse{}},
		},
		{
			method: http.MethodGet, path: "/api/auth/me",
			summary: "Current account",
			resp:    with(authErrors, map[int]any{http.StatusOK: Account{}}),
		},
		{
			method: http.MethodGet, path: "/api/me/data",
			summary:     "Load user data",
			description: "Returns every play and folder. A user who never saved gets empty lists.",
			resp:        with(authErrors, map[int]any{http.StatusOK: playbook.UserData{}}),
		},
		{
			method: http.MethodPut, path: "/api/me/data",
			summary:     "Replace user data",
			description: "Overwrites the stored document. Last save wins.",
			req:         playbook.UserData{},
			resp: with(authErrors, map[int]any{
				http.StatusOK:         playbook.UserData{},
				http.StatusBadRequest: ErrorResponse{},
			}),
		},
		{
			method: http.MethodPost, path: "/api/me/data/sync",
			summary:     "Reconcile user data",
			description: "Merges the posted local copy into the stored copy by id. Local entities win.",
			req:         playbook.UserData{},
			resp: with(authErrors, map[int]any{
				http.StatusOK:       SyncResponse{},
				http.StatusConflict: ErrorResponse{},
			}),
		},
		{
			method: http.MethodGet, path: "/api/me/plays",
			summary: "List plays",
			req:     listPlaysQuery{},
			resp:    with(authErrors, map[int]any{http.StatusOK: []playbook.Play{}}),
		},
		{
			method: http.MethodGet, path: "/api/me/plays/{id}",
			summary: "Get play",
			req:     playPath{},
			resp: with(authErrors, map[int]any{
				http.StatusOK:       playbook.Play{},
				http.StatusNotFound: ErrorResponse{},
			}),
		},
		{
			method: http.MethodPut, path: "/api/me/plays/{id}",
			summary:     "Save play",
			description: "Creates or replaces a play.",
			req:         putPlayRequest{},
			resp: with(authErrors, map[int]any{
				http.StatusOK:         playbook.Play{},
				http.StatusCreated:    playbook.Play{},
				http.StatusBadRequest: ErrorResponse{},
			}),
		},
		{
			method: http.MethodDelete, path: "/api/me/plays/{id}",
			summary: "Delete play",
			req:     playPath{},
			resp: with(authErrors, map[int]any{
				http.StatusOK:       statusResponse{},
				http.StatusNotFound: ErrorResponse{},
			}),
		},
		{
			method: http.MethodGet, path: "/api/me/folders",
			summary: "List folders",
			resp:    with(authErrors, map[int]any{http.StatusOK: []FolderSummary{}}),
		},
		{
			method: http.MethodPost, path: "/api/me/folders",
			summary: "Create folder",
			req:     FolderRequest{},
			resp: with(authErrors, map[int]any{
				http.StatusCreated:    playbook.Folder{},
				http.StatusBadRequest: ErrorResponse{},
				http.StatusConflict:   ErrorResponse{},
			}),
		},
		{
			method: http.MethodPut, path: "/api/me/folders/{id}",
			summary:     "Update folder",
			description: "Renames or moves a folder. Moving a folder under its own descendant is rejected.",
			req:         updateFolderRequest{},
			resp: with(authErrors, map[int]any{
				http.StatusOK:         playbook.Folder{},
				http.StatusBadRequest: ErrorResponse{},
				http.StatusNotFound:   ErrorResponse{},
				http.StatusConflict:   ErrorResponse{},
			}),
		},
		{
			method: http.MethodDelete, path: "/api/me/folders/{id}",
			summary:     "Delete folder",
			description: "Subfolders move up to the deleted folder's parent and its plays become unfiled.",
			req:         folderPath{},
			resp: with(authErrors, map[int]any{
				http.StatusOK:       statusResponse{},
				http.StatusNotFound: ErrorResponse{},
			}),
		},
		{
			method: http.MethodPost, path: "/api/me/folders/{id}/share",
			summary:     "Share folder",
			description: "Publishes a snapshot of the folder's plays and returns its public link. Use all-plays to share every play.",
			req:         createShareRequest{},
			resp: with(authErrors, map[int]any{
				http.StatusCreated:             ShareSummary{},
				http.StatusNotFound:            ErrorResponse{},
				http.StatusUnprocessableEntity: ErrorResponse{},
			}),
		},
		{
			method: http.MethodGet, path: "/api/me/shares",
			summary: "List shares",
			resp:    with(authErrors, map[int]any{http.StatusOK: []ShareSummary{}}),
		},
		{
			method: http.MethodDelete, path: "/api/me/shares/{shareId}",
			summary: "Delete share",
			req:     sharePath{},
			resp: with(authErrors, map[int]any{
				http.StatusOK:       statusResponse{},
				http.StatusNotFound: ErrorResponse{},
			}),
		},
		{
			method: http.MethodGet, path: "/api/shared/{shareId}",
			summary:     "Get shared folder",
			description: "Public, read-only snapshot. No authentication.",
			req:         sharePath{},
			resp: map[int]any{
				http.StatusOK:              playbook.SharedFolder{},
				http.StatusNotFound:        ErrorResponse{},
				http.StatusGone:            ErrorResponse{},
				http.StatusTooManyRequests: ErrorResponse{},
			},
		},
		{
			method: http.MethodGet, path: "/api/me/events",
			summary:     "SSE sync stream",
			description: "Server-Sent Events announcing changes to the user's data. Pass token as query parameter.",
			contentType: "text/event-stream",
			resp:        map[int]any{http.StatusOK: nil},
		},
		{
			method: http.MethodGet, path: "/ws/sync",
			summary:     "WebSocket sync stream",
			description: "WebSocket carrying the same events as /api/me/events.",
			contentType: "text/plain",
			resp:        map[int]any{http.StatusSwitchingProtocols: nil},
		},
	}
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Flag Tactics API"
	r.Spec.Info.Version = "0.2.0"
	r.Spec.Info.WithDescription("Backend API for the Flag Tactics play designer.")

	for _, op := range operations() {
		oc, err := r.NewOperationContext(op.method, op.path)
		if err != nil {
			continue
		}
		oc.SetSummary(op.summary)
		if op.description != "" {
			oc.SetDescription(op.description)
		}
		if op.req != nil {
			oc.AddReqStructure(op.req)
		}
		for status, body := range op.resp {
			opts := []openapi.ContentOption{openapi.WithHTTPStatus(status)}
			if op.contentType != "" {
				opts = append(opts, openapi.WithContentType(op.contentType))
			}
			oc.AddRespStructure(body, opts...)
		}
		_ = r.AddOperation(oc)
	}

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
