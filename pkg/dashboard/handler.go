package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/klokku/daybook/internal/rest"
	"github.com/klokku/daybook/pkg/bucketlist"
	"github.com/klokku/daybook/pkg/daily"
	"github.com/klokku/daybook/pkg/datepath"
	"github.com/klokku/daybook/pkg/partition"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	service  Service
	status   *StatusTracker
	renderer SeriesRenderer
}

type BucketListDTO struct {
	Items    []partition.BucketItem `json:"items"`
	Progress int                    `json:"progress"`
}

type StatusDTO struct {
	Ready          bool                  `json:"ready"`
	BootstrapError string                `json:"bootstrapError,omitempty"`
	Months         []MonthStatus         `json:"months"`
	Unavailable    []UnavailableResource `json:"unavailable"`
}

func NewHandler(service Service, status *StatusTracker, renderer SeriesRenderer) *Handler {
	return &Handler{service, status, renderer}
}

// GetDay serves the view model of ?date= (default: start date) moved by
// ?offset= days. With ?wait=false the month is loaded in the background and
// the response may report isLoading.
func (h *Handler) GetDay(w http.ResponseWriter, r *http.Request) {
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}
	if offsetString := r.URL.Query().Get("offset"); offsetString != "" {
		offset, err := strconv.Atoi(offsetString)
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid offset", "'offset' must be a whole number of days")
			return
		}
		date = h.service.Navigate(date, offset)
	}

	if r.URL.Query().Get("wait") == "false" {
		go func() {
			_ = h.service.EnsureLoaded(context.WithoutCancel(r.Context()), date)
		}()
	} else if err := h.service.EnsureLoaded(r.Context(), date); err != nil {
		log.Debugf("Responding before month of %s was loaded: %v", date, err)
	}

	// Checked after the load, which may be the one that brings the first data.
	if err := h.service.BootstrapError(); err != nil {
		rest.WriteError(w, http.StatusServiceUnavailable, "Dashboard unavailable", err.Error())
		return
	}

	rest.WriteJSON(w, http.StatusOK, h.service.GetViewModel(date))
}

// GetSeries serves the cumulative hours of {kind}, or only the month of ?date=
// as chart points. Accept: text/csv renders the points as CSV.
func (h *Handler) GetSeries(w http.ResponseWriter, r *http.Request) {
	kind, ok := partition.ParseKind(mux.Vars(r)["kind"])
	if !ok || kind == partition.Summary {
		h.seriesError(w, fmt.Errorf("%w: %q", ErrUnknownKind, mux.Vars(r)["kind"]))
		return
	}

	var points []daily.ChartPoint
	if r.URL.Query().Has("date") {
		date, ok := h.dateParam(w, r)
		if !ok {
			return
		}
		if err := h.service.EnsureLoaded(r.Context(), date); err != nil {
			log.Debugf("Serving series before month of %s was loaded: %v", date, err)
		}
		monthPoints, err := h.service.GetMonthSeries(kind, date)
		if err != nil {
			h.seriesError(w, err)
			return
		}
		points = monthPoints
	} else {
		series, err := h.service.GetSeries(kind)
		if err != nil {
			h.seriesError(w, err)
			return
		}
		if r.Header.Get("Accept") != "text/csv" {
			rest.WriteJSON(w, http.StatusOK, series)
			return
		}
		points = daily.SortedSeries(series)
	}

	if r.Header.Get("Accept") == "text/csv" {
		csv, err := h.renderer.RenderSeries(points)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(csv)); err != nil {
			log.Errorf("Failed to write csv: %v", err)
		}
		return
	}
	rest.WriteJSON(w, http.StatusOK, points)
}

func (h *Handler) GetBucketList(w http.ResponseWriter, r *http.Request) {
	rest.WriteJSON(w, http.StatusOK, BucketListDTO{
		Items:    h.service.GetBucketList(),
		Progress: h.service.BucketListProgress(),
	})
}

func (h *Handler) ToggleBucketItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["itemId"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid item id", "'itemId' must be a number")
		return
	}
	item, err := h.service.ToggleBucketItem(id)
	if err != nil {
		if errors.Is(err, bucketlist.ErrItemNotFound) {
			rest.WriteError(w, http.StatusNotFound, "Item not found", err.Error())
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rest.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status := StatusDTO{
		Ready:       h.service.BootstrapError() == nil,
		Months:      h.status.Months(),
		Unavailable: h.status.Unavailable(),
	}
	if err := h.service.BootstrapError(); err != nil {
		status.BootstrapError = err.Error()
	}
	rest.WriteJSON(w, http.StatusOK, status)
}

func (h *Handler) dateParam(w http.ResponseWriter, r *http.Request) (datepath.Date, bool) {
	dateString := r.URL.Query().Get("date")
	if dateString == "" {
		return h.service.StartDate(), true
	}
	date, err := datepath.ParseDate(dateString)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid date format", err.Error())
		return datepath.Date{}, false
	}
	return date, true
}

func (h *Handler) seriesError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrUnknownKind) {
		rest.WriteError(w, http.StatusNotFound, "Unknown series", "series must be 'study' or 'sleep'")
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
