package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter собирает mux-роутер с CORS поверх всех маршрутов API.
func NewRouter(handler *Handler) http.Handler {
	r := mux.NewRouter()
	handler.RegisterRoutes(r)
	return cors.Default().Handler(r)
}
