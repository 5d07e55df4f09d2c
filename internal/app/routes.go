package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {
	r.HandleFunc("/api/day", deps.DashboardHandler.GetDay).Methods("GET")
	r.HandleFunc("/api/series/{kind}", deps.DashboardHandler.GetSeries).Methods("GET")

	r.HandleFunc("/api/bucketlist", deps.DashboardHandler.GetBucketList).Methods("GET")
	r.HandleFunc("/api/bucketlist/{itemId}/toggle", deps.DashboardHandler.ToggleBucketItem).Methods("PUT")

	r.HandleFunc("/api/status", deps.DashboardHandler.GetStatus).Methods("GET")
}
