package fileserver

import (
	"encoding/json"
	"net/http"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/google/uuid"

	"github.com/freifunk-luebeck/fwds/pkg/firmware"
	"github.com/freifunk-luebeck/fwds/pkg/journal"
)

// historyResponse is the payload of /v1/history.
type historyResponse struct {
	Records []journal.Record `json:"records"`
}

// handleHistory serves the outcome journal. Records are selectable through
// the query parameters "image", "channel", "event" and "job"; all given
// parameters must match.
func (srv *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	filters, err := historyFilters(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	records, err := srv.cfg.journal.Find(r.Context(), filters...)
	if err != nil {
		logger.FromCtx(r.Context()).Errorf("unable to query the journal: %v", err)
		http.Error(w, "journal query failed", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []journal.Record{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(historyResponse{Records: records}); err != nil {
		logger.FromCtx(r.Context()).Errorf("unable to encode the journal records: %v", err)
	}
}

func historyFilters(r *http.Request) ([]journal.Filter, error) {
	var filters []journal.Filter
	query := r.URL.Query()

	if v := query.Get("image"); v != "" {
		filters = append(filters, journal.FilterImageName(v))
	}
	if v := query.Get("channel"); v != "" {
		channel := firmware.ReleaseChannel(v)
		if !channel.IsValid() {
			return nil, firmware.ErrUnknownReleaseChannel{Value: v}
		}
		filters = append(filters, journal.FilterChannel(channel))
	}
	if v := query.Get("event"); v != "" {
		filters = append(filters, journal.FilterEvent(journal.Event(v)))
	}
	if v := query.Get("job"); v != "" {
		jobID, err := uuid.Parse(v)
		if err != nil {
			return nil, err
		}
		filters = append(filters, journal.FilterJobID(jobID))
	}
	return filters, nil
}
