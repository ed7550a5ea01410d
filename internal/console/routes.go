package console

import "github.com/go-chi/chi/v5"

// MountRoutes registers the console API under r.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/orders", h.ListOrders)
	r.Get("/payment-methods", h.PaymentMethods)
	r.Route("/orders/{id}/conversion", func(r chi.Router) {
		r.Post("/", h.BeginConversion)
		r.Get("/", h.GetConversion)
		r.Delete("/", h.CloseConversion)
		r.Put("/draft", h.ReplaceDraft)
		r.Post("/draft/items", h.AddItem)
		r.Patch("/draft/items/{index}", h.SetQuantity)
		r.Delete("/draft/items/{index}", h.RemoveItem)
		r.Post("/submit", h.Submit)
	})
}
