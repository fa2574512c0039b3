package api

import (
	"net/http"

	eventbus "github.com/hanpama/hydrograph/internal/eventbus"
	events "github.com/hanpama/hydrograph/internal/events"
	store "github.com/hanpama/hydrograph/internal/store"
)

const (
	defaultCardListHydrate = "creator"
	defaultCardHydrate     = "creator, collection"
)

type cardRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Display      string `json:"display"`
	DatasetQuery string `json:"dataset_query"`
	Database     string `json:"database"`
	CreatorID    int64  `json:"creator_id"`
	CollectionID *int64 `json:"collection_id"`
}

func (req cardRequest) params() store.CardParams {
	return store.CardParams{
		Name:         req.Name,
		Description:  req.Description,
		Display:      req.Display,
		DatasetQuery: req.DatasetQuery,
		Database:     req.Database,
		CreatorID:    req.CreatorID,
		CollectionID: req.CollectionID,
	}
}

func (h *Handler) listCards(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	directives, err := hydrateDirectives(r, defaultCardListHydrate)
	if err != nil {
		h.badRequest(w, err.Error())
		return
	}
	cards, err := h.db.ListCards(ctx)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.hyd.Hydrate(ctx, cards, directives...); err != nil {
		h.badRequest(w, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, cards)
}

func (h *Handler) createCard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req cardRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, err.Error())
		return
	}
	if req.Name == "" || req.DatasetQuery == "" || req.Database == "" || req.CreatorID == 0 {
		h.badRequest(w, "name, dataset_query, database and creator_id are required")
		return
	}
	card, err := h.db.CreateCard(ctx, req.params())
	if err != nil {
		h.writeError(w, err)
		return
	}
	eventbus.Publish(ctx, events.EntityCreate{
		Model: "card", ModelID: card["id"].(int64), ActorID: actorID(r), Object: card,
	})
	h.writeJSON(w, http.StatusOK, card)
}

func (h *Handler) getCard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r)
	if err != nil {
		h.badRequest(w, "invalid card id")
		return
	}
	directives, err := hydrateDirectives(r, defaultCardHydrate)
	if err != nil {
		h.badRequest(w, err.Error())
		return
	}
	card, err := h.db.GetCard(ctx, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.hyd.HydrateOne(ctx, card, directives...); err != nil {
		h.badRequest(w, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, card)
}

func (h *Handler) updateCard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r)
	if err != nil {
		h.badRequest(w, "invalid card id")
		return
	}
	var req cardRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, err.Error())
		return
	}
	card, err := h.db.UpdateCard(ctx, id, req.params())
	if err != nil {
		h.writeError(w, err)
		return
	}
	eventbus.Publish(ctx, events.EntityUpdate{
		Model: "card", ModelID: id, ActorID: actorID(r), Object: card,
	})
	h.writeJSON(w, http.StatusOK, card)
}

func (h *Handler) deleteCard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r)
	if err != nil {
		h.badRequest(w, "invalid card id")
		return
	}
	if err := h.db.DeleteCard(ctx, id); err != nil {
		h.writeError(w, err)
		return
	}
	eventbus.Publish(ctx, events.EntityDelete{Model: "card", ModelID: id, ActorID: actorID(r)})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) runCardQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r)
	if err != nil {
		h.badRequest(w, "invalid card id")
		return
	}
	card, err := h.db.GetCard(ctx, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	database, _ := card["database"].(string)
	datasetQuery, _ := card["dataset_query"].(string)
	res, err := h.exec.Run(ctx, id, database, datasetQuery)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}
