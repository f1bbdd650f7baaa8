package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/facturo/facturo/app"
	"github.com/facturo/facturo/domain/document"
)

// callerBusiness resolves the authenticated caller's business.
func (h *Handler) callerBusiness(r *http.Request) (document.Business, error) {
	id := getIdentity(r.Context())
	return h.tenants.GetBusinessByOwner(r.Context(), id.UserID)
}

type businessRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	TaxID    string `json:"tax_id"`
	Currency string `json:"currency"`
}

// BusinessCreate onboards the caller's business.
func (h *Handler) BusinessCreate(w http.ResponseWriter, r *http.Request) {
	var req businessRequest
	if err := decode(r, &req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}

	id := getIdentity(r.Context())
	b, err := h.tenants.CreateBusiness(r.Context(), id.UserID, app.BusinessInput{
		Name:     req.Name,
		Email:    req.Email,
		Address:  req.Address,
		Phone:    req.Phone,
		TaxID:    req.TaxID,
		Currency: req.Currency,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toBusinessView(b))
}

// BusinessGet returns the caller's business.
func (h *Handler) BusinessGet(w http.ResponseWriter, r *http.Request) {
	b, err := h.callerBusiness(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBusinessView(b))
}

// BusinessUpdate edits the caller's business profile. Snapshots on
// already issued documents never change.
func (h *Handler) BusinessUpdate(w http.ResponseWriter, r *http.Request) {
	var req businessRequest
	if err := decode(r, &req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}

	b, err := h.callerBusiness(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	updated, err := h.tenants.UpdateBusiness(r.Context(), b.ID, app.BusinessInput{
		Name:     req.Name,
		Email:    req.Email,
		Address:  req.Address,
		Phone:    req.Phone,
		TaxID:    req.TaxID,
		Currency: req.Currency,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBusinessView(updated))
}

type clientRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// ClientCreate stores a new client under the caller's business.
func (h *Handler) ClientCreate(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
	if err := decode(r, &req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}

	b, err := h.callerBusiness(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	c, err := h.tenants.CreateClient(r.Context(), b.ID, app.ClientInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toClientView(c))
}

// ClientList returns all clients of the caller's business.
func (h *Handler) ClientList(w http.ResponseWriter, r *http.Request) {
	b, err := h.callerBusiness(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	clients, err := h.tenants.ListClients(r.Context(), b.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toClientViews(clients))
}

// ClientGet returns one client scoped to the caller's business.
func (h *Handler) ClientGet(w http.ResponseWriter, r *http.Request) {
	b, err := h.callerBusiness(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	c, err := h.tenants.GetClient(r.Context(), b.ID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toClientView(c))
}

// ClientUpdate edits a client record.
func (h *Handler) ClientUpdate(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
	if err := decode(r, &req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}

	b, err := h.callerBusiness(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	c, err := h.tenants.UpdateClient(r.Context(), b.ID, chi.URLParam(r, "id"), app.ClientInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toClientView(c))
}

// ClientDelete removes a client from the caller's business.
func (h *Handler) ClientDelete(w http.ResponseWriter, r *http.Request) {
	b, err := h.callerBusiness(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.tenants.DeleteClient(r.Context(), b.ID, chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
