package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/partnermap/internal/models"
	"github.com/hyperjump/partnermap/internal/search"
	"github.com/hyperjump/partnermap/internal/storage"
	"go.uber.org/zap"
)

const noBuild = "no build available"

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	snap := s.latest()
	if snap == nil {
		s.respondError(w, http.StatusServiceUnavailable, noBuild)
		return
	}
	carrier := r.URL.Query().Get("carrier")
	if carrier == "" {
		s.respondJSON(w, http.StatusOK, snap.result.Routes)
		return
	}
	routes := make([]models.Route, 0)
	for _, rt := range snap.result.Routes {
		if rt.Carrier == carrier {
			routes = append(routes, rt)
		}
	}
	s.respondJSON(w, http.StatusOK, routes)
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	snap := s.latest()
	if snap == nil {
		s.respondError(w, http.StatusServiceUnavailable, noBuild)
		return
	}
	id := chi.URLParam(r, "id")
	for _, rt := range snap.result.Routes {
		if rt.RouteID == id {
			s.respondJSON(w, http.StatusOK, rt)
			return
		}
	}
	s.respondError(w, http.StatusNotFound, "route not found")
}

func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	snap := s.latest()
	if snap == nil {
		s.respondError(w, http.StatusServiceUnavailable, noBuild)
		return
	}
	country := r.URL.Query().Get("country")
	if country == "" {
		s.respondJSON(w, http.StatusOK, snap.result.Locations)
		return
	}
	locations := make([]models.Location, 0)
	for _, l := range snap.result.Locations {
		if l.Country == country {
			locations = append(locations, l)
		}
	}
	s.respondJSON(w, http.StatusOK, locations)
}

func (s *Server) handleLocationRoutes(w http.ResponseWriter, r *http.Request) {
	snap := s.latest()
	if snap == nil {
		s.respondError(w, http.StatusServiceUnavailable, noBuild)
		return
	}
	// chi matches on the raw path when the request escapes characters such as commas.
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid location name")
		return
	}
	var loc *models.Location
	for i := range snap.result.Locations {
		if snap.result.Locations[i].Name == name {
			loc = &snap.result.Locations[i]
			break
		}
	}
	if loc == nil {
		s.respondError(w, http.StatusNotFound, "location not found")
		return
	}

	byID := make(map[string]models.Route, len(snap.result.Routes))
	for _, rt := range snap.result.Routes {
		byID[rt.RouteID] = rt
	}
	var ids []string
	if s.finder != nil {
		if ids, err = s.finder.RoutesThrough(r.Context(), name); err != nil {
			s.logger.Error("route lookup failed", zap.String("location", name), zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
	} else {
		ids = routesThrough(snap.result.Routes, name)
	}
	routes := make([]models.Route, 0, len(ids))
	for _, id := range ids {
		// The catalog may already hold a newer build than the one served.
		if rt, ok := byID[id]; ok {
			routes = append(routes, rt)
		}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"location": loc, "routes": routes})
}

// routesThrough returns the ids of routes with name among their points, in route order.
func routesThrough(routes []models.Route, name string) []string {
	var ids []string
	for _, rt := range routes {
		for _, p := range rt.Points {
			if p == name {
				ids = append(ids, rt.RouteID)
				break
			}
		}
	}
	return ids
}

func (s *Server) handleCarriers(w http.ResponseWriter, r *http.Request) {
	snap := s.latest()
	if snap == nil {
		s.respondError(w, http.StatusServiceUnavailable, noBuild)
		return
	}
	s.respondJSON(w, http.StatusOK, snap.result.Carriers())
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit := search.DefaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	s.logger.Debug("search request", zap.String("query", q), zap.Int("limit", limit))

	// The read lock keeps the index open until the search returns.
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		s.respondError(w, http.StatusServiceUnavailable, noBuild)
		return
	}
	hits, err := s.current.index.Search(r.Context(), q, limit)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"query": q, "hits": hits})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	// The read lock keeps the index open while it is counted.
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := s.current
	if snap == nil {
		s.respondError(w, http.StatusServiceUnavailable, noBuild)
		return
	}
	resp := map[string]interface{}{
		"summary":    snap.result.Summarize(),
		"updated_at": snap.updatedAt.Format(time.RFC3339),
	}
	if n, err := snap.index.DocCount(); err != nil {
		s.logger.Warn("status: count indexed documents failed", zap.Error(err))
	} else {
		resp["indexed_docs"] = n
	}
	if len(s.outputs) > 0 {
		files, total, err := storage.StatOutputs(s.outputs...)
		if err != nil {
			s.logger.Warn("status: stat outputs failed", zap.Error(err))
		} else {
			resp["outputs"] = files
			resp["disk_usage_bytes"] = total
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
