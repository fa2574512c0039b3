package api

import (
	"net/http"
	"strconv"

	eventbus "github.com/hanpama/hydrograph/internal/eventbus"
	events "github.com/hanpama/hydrograph/internal/events"
	store "github.com/hanpama/hydrograph/internal/store"
)

type userRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.db.ListUsers(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, users)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.badRequest(w, "invalid user id")
		return
	}
	user, err := h.db.GetUser(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req userRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, err.Error())
		return
	}
	if req.Email == "" {
		h.badRequest(w, "email is required")
		return
	}
	user, err := h.db.CreateUser(ctx, store.UserParams{
		Email: req.Email, FirstName: req.FirstName, LastName: req.LastName,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	eventbus.Publish(ctx, events.EntityCreate{
		Model: "user", ModelID: user["id"].(int64), ActorID: actorID(r), Object: user,
	})
	h.writeJSON(w, http.StatusOK, user)
}

type collectionRequest struct {
	Name    string `json:"name"`
	Color   string `json:"color"`
	OwnerID *int64 `json:"owner_id"`
}

func (h *Handler) listCollections(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	directives, err := hydrateDirectives(r, "owner")
	if err != nil {
		h.badRequest(w, err.Error())
		return
	}
	collections, err := h.db.ListCollections(ctx)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.hyd.Hydrate(ctx, collections, directives...); err != nil {
		h.badRequest(w, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, collections)
}

func (h *Handler) createCollection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req collectionRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, err.Error())
		return
	}
	if req.Name == "" {
		h.badRequest(w, "name is required")
		return
	}
	coll, err := h.db.CreateCollection(ctx, store.CollectionParams{
		Name: req.Name, Color: req.Color, OwnerID: req.OwnerID,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	eventbus.Publish(ctx, events.EntityCreate{
		Model: "collection", ModelID: coll["id"].(int64), ActorID: actorID(r), Object: coll,
	})
	h.writeJSON(w, http.StatusOK, coll)
}

func (h *Handler) listRevisions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	model := r.URL.Query().Get("model")
	rawID := r.URL.Query().Get("id")
	if model == "" || rawID == "" {
		h.badRequest(w, "model and id are required")
		return
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		h.badRequest(w, "invalid id")
		return
	}
	revs, err := h.db.ListRevisions(ctx, model, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	directives, err := hydrateDirectives(r, "user")
	if err != nil {
		h.badRequest(w, err.Error())
		return
	}
	if err := h.hyd.Hydrate(ctx, revs, directives...); err != nil {
		h.badRequest(w, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, revs)
}
