package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime/types"

	"github.com/fieldops/dispatch/internal/apierr"
	"github.com/fieldops/dispatch/internal/audit"
	"github.com/fieldops/dispatch/internal/registry"
)

// AuditHandler serves the project audit timeline query.
type AuditHandler struct {
	store    *audit.Store
	users    *registry.UserRegistry
	projects *registry.ProjectRegistry
}

func NewAuditHandler(store *audit.Store, users *registry.UserRegistry, projects *registry.ProjectRegistry) *AuditHandler {
	return &AuditHandler{store: store, users: users, projects: projects}
}

// registryResolver adapts the registries to audit.NameResolver.
type registryResolver struct {
	users    *registry.UserRegistry
	projects *registry.ProjectRegistry
}

func (r registryResolver) UserName(ctx context.Context, id uuid.UUID) (string, bool) {
	u, err := r.users.Get(ctx, id)
	if err != nil {
		return "", false
	}
	return u.DisplayName(), true
}

func (r registryResolver) ProjectName(ctx context.Context, id uuid.UUID) (string, bool) {
	p, err := r.projects.Get(ctx, id)
	if err != nil {
		return "", false
	}
	return p.Name, true
}

type timelineEntryResponse struct {
	ID               types.UUID     `json:"id"`
	EntityType       string         `json:"entity_type"`
	EntityID         types.UUID     `json:"entity_id"`
	Action           string         `json:"action"`
	ActorID          *types.UUID    `json:"actor_id,omitempty"`
	ActorName        string         `json:"actor_name,omitempty"`
	Source           string         `json:"source"`
	TimestampUTC     string         `json:"timestamp_utc"`
	Changes          map[string]any `json:"changes,omitempty"`
	Context          map[string]any `json:"context,omitempty"`
	IntegrityHash    string         `json:"integrity_hash"`
	AffectedUserName string         `json:"affected_user_name,omitempty"`
	ProjectName      string         `json:"project_name,omitempty"`
	WorkerName       string         `json:"worker_name,omitempty"`
	ApprovedByName   string         `json:"approved_by_name,omitempty"`
}

// Timeline implements GET /projects/{pid}/audit-logs?section=…&month=YYYY-MM&limit&offset,
// the enriched project audit query.
func (h *AuditHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	pid, err := uuid.Parse(chi.URLParam(r, "pid"))
	if err != nil {
		writeError(w, apierr.Validation("invalid project id"))
		return
	}
	section := r.URL.Query().Get("section")
	month := r.URL.Query().Get("month")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	resolver := registryResolver{users: h.users, projects: h.projects}
	entries, err := h.store.ProjectTimeline(r.Context(), resolver, pid, section, month, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]timelineEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp := timelineEntryResponse{
			ID: e.ID, EntityType: e.EntityType, EntityID: e.EntityID, Action: e.Action,
			ActorName: e.ActorName, Source: e.Source, TimestampUTC: e.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
			Changes: e.Changes, Context: e.Context, IntegrityHash: e.IntegrityHash,
			AffectedUserName: e.AffectedUserName, ProjectName: e.ProjectName,
			WorkerName: e.WorkerName, ApprovedByName: e.ApprovedByName,
		}
		if e.ActorID != nil {
			aid := types.UUID(*e.ActorID)
			resp.ActorID = &aid
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, out)
}
