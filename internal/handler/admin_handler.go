package handler

import (
	"net/http"

	"github.com/boddenberg/bepit-bfa-go/internal/domain"
	"github.com/boddenberg/bepit-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Session — POST /api/admin/session
// ============================================================

func adminSessionHandler(auth *service.AdminAuth, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := auth.IssueSession(r.Header.Get(AdminKeyHeader))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, sess)
	}
}

// ============================================================
// Regions — /api/admin/regions
// ============================================================

func listRegionsHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		regions, err := svc.ListRegions(r.Context())
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(regions))
	}
}

func getRegionHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		region, err := svc.GetRegion(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, region)
	}
}

func createRegionHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.Region
		if !decodeJSON(w, r, &req) {
			return
		}
		region, err := svc.CreateRegion(r.Context(), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, region)
	}
}

func updateRegionHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.Region
		if !decodeJSON(w, r, &req) {
			return
		}
		region, err := svc.UpdateRegion(r.Context(), chi.URLParam(r, "id"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, region)
	}
}

func deleteRegionHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := svc.DeleteRegion(r.Context(), id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Success: true, ID: id})
	}
}

// ============================================================
// Cities — /api/admin/cities
// ============================================================

func listCitiesHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cities, err := svc.ListCities(r.Context(), r.URL.Query().Get("region_id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(cities))
	}
}

func getCityHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		city, err := svc.GetCity(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, city)
	}
}

func createCityHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.City
		if !decodeJSON(w, r, &req) {
			return
		}
		city, err := svc.CreateCity(r.Context(), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, city)
	}
}

func updateCityHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.City
		if !decodeJSON(w, r, &req) {
			return
		}
		city, err := svc.UpdateCity(r.Context(), chi.URLParam(r, "id"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, city)
	}
}

func deleteCityHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := svc.DeleteCity(r.Context(), id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Success: true, ID: id})
	}
}

// ============================================================
// Items — /api/admin/items
// ============================================================

func listItemsHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		items, err := svc.ListItems(r.Context(), domain.ItemFilter{
			CityID: q.Get("city_id"),
			Kind:   domain.ItemKind(q.Get("kind")),
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(items))
	}
}

func getItemHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, err := svc.GetItem(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

func createItemHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := domain.Item{Active: true}
		if !decodeJSON(w, r, &req) {
			return
		}
		item, err := svc.CreateItem(r.Context(), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, item)
	}
}

func updateItemHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := domain.Item{Active: true}
		if !decodeJSON(w, r, &req) {
			return
		}
		item, err := svc.UpdateItem(r.Context(), chi.URLParam(r, "id"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

func deleteItemHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := svc.DeleteItem(r.Context(), id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Success: true, ID: id})
	}
}

// ============================================================
// Metrics & logs
// ============================================================

func metricsSummaryHandler(svc *service.MetricsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := svc.Summary(r.Context())
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

func metricsRuntimeHandler(svc *service.MetricsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Runtime())
	}
}

func logsHandler(svc *service.MetricsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := domain.EventFilter{
			Type:           domain.EventType(q.Get("type")),
			RegionID:       q.Get("region_id"),
			ConversationID: q.Get("conversation_id"),
		}
		var err error
		if f.Limit, err = queryInt(r, "limit"); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if f.From, err = queryTime(r, "from"); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if f.To, err = queryTime(r, "to"); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		events, err := svc.Logs(r.Context(), f)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, events)
	}
}

// nonNil keeps empty lists as [] in JSON.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
