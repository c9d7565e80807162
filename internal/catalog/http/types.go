package http

import "github.com/pap-cedram/pap-backend/internal/catalog/service"

// Handler bundles the dependencies for catalog HTTP endpoints.
type Handler struct {
	svc *service.CatalogService
}

func New(svc *service.CatalogService) *Handler {
	return &Handler{svc: svc}
}

type updateProjectsReq struct {
	Edits []service.ProjectEdit `json:"edits"`
}

type updateDeliverablesReq struct {
	Edits []service.DeliverableEdit `json:"edits"`
}

type normalizeReq struct {
	Text string `json:"text"`
}
