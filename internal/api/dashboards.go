package api

import (
	"net/http"

	eventbus "github.com/hanpama/hydrograph/internal/eventbus"
	events "github.com/hanpama/hydrograph/internal/events"
	hydrate "github.com/hanpama/hydrograph/internal/hydrate"
	store "github.com/hanpama/hydrograph/internal/store"
)

const (
	defaultDashboardListHydrate = "creator"
	defaultDashboardHydrate     = "creator, cards { card { creator } }"
)

type dashboardRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatorID   int64  `json:"creator_id"`
}

type dashboardCardRequest struct {
	CardID int64 `json:"card_id"`
	Row    int   `json:"row"`
	Col    int   `json:"col"`
	SizeX  int   `json:"size_x"`
	SizeY  int   `json:"size_y"`
}

func (h *Handler) listDashboards(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	directives, err := hydrateDirectives(r, defaultDashboardListHydrate)
	if err != nil {
		h.badRequest(w, err.Error())
		return
	}
	dashboards, err := h.db.ListDashboards(ctx)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.hyd.Hydrate(ctx, dashboards, directives...); err != nil {
		h.badRequest(w, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, dashboards)
}

func (h *Handler) createDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req dashboardRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, err.Error())
		return
	}
	if req.Name == "" || req.CreatorID == 0 {
		h.badRequest(w, "name and creator_id are required")
		return
	}
	dash, err := h.db.CreateDashboard(ctx, store.DashboardParams{
		Name: req.Name, Description: req.Description, CreatorID: req.CreatorID,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	eventbus.Publish(ctx, events.EntityCreate{
		Model: "dashboard", ModelID: dash["id"].(int64), ActorID: actorID(r), Object: dash,
	})
	h.writeJSON(w, http.StatusOK, dash)
}

func (h *Handler) getDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r)
	if err != nil {
		h.badRequest(w, "invalid dashboard id")
		return
	}
	directives, err := hydrateDirectives(r, defaultDashboardHydrate)
	if err != nil {
		h.badRequest(w, err.Error())
		return
	}
	dash, err := h.db.GetDashboard(ctx, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.hyd.HydrateOne(ctx, dash, directives...); err != nil {
		h.badRequest(w, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, dash)
}

func (h *Handler) updateDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r)
	if err != nil {
		h.badRequest(w, "invalid dashboard id")
		return
	}
	var req dashboardRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, err.Error())
		return
	}
	dash, err := h.db.UpdateDashboard(ctx, id, store.DashboardParams{
		Name: req.Name, Description: req.Description,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	eventbus.Publish(ctx, events.EntityUpdate{
		Model: "dashboard", ModelID: id, ActorID: actorID(r), Object: dash,
	})
	h.writeJSON(w, http.StatusOK, dash)
}

func (h *Handler) deleteDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r)
	if err != nil {
		h.badRequest(w, "invalid dashboard id")
		return
	}
	if err := h.db.DeleteDashboard(ctx, id); err != nil {
		h.writeError(w, err)
		return
	}
	eventbus.Publish(ctx, events.EntityDelete{Model: "dashboard", ModelID: id, ActorID: actorID(r)})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addDashboardCard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r)
	if err != nil {
		h.badRequest(w, "invalid dashboard id")
		return
	}
	var req dashboardCardRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, err.Error())
		return
	}
	if req.CardID == 0 {
		h.badRequest(w, "card_id is required")
		return
	}
	if _, err := h.db.GetDashboard(ctx, id); err != nil {
		h.writeError(w, err)
		return
	}
	placement, err := h.db.AddDashboardCard(ctx, id, store.DashboardCardParams{
		CardID: req.CardID, Row: req.Row, Col: req.Col, SizeX: req.SizeX, SizeY: req.SizeY,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.hyd.HydrateOne(ctx, placement, hydrate.Key("card")); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, placement)
}
