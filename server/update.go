package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/aufmass/go-aufmass/database"
	"github.com/aufmass/go-aufmass/logger"
)

type GuestUpdateRequest struct {
	ProjectID  string `json:"project_id"`
	Token      string `json:"token"`
	LocationID string `json:"location_id"`
	GuestInfo  string `json:"guest_info"`
}

type GuestUpdateResponse struct {
	Success bool `json:"success"`
}

func (s *Server) GuestUpdateHttp(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	txid := index.Add(1)
	logger.Sugar().Debugf("%d guest update started", txid)
	w.Header().Set("Content-Type", "application/json")

	// Ensure the request method is POST
	if r.Method != http.MethodPost {
		logger.Sugar().Debugf("%d request method denied: %s", txid, r.Method)
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		io.WriteString(w, `{"error":"Invalid request method"}`)
		return
	}

	// Read the request body
	logger.Sugar().Debugf("%d reading request body", txid)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Sugar().Debugf("%d request body invalid: %v", txid, err)
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":"Invalid request body"}`)
		return
	}
	defer r.Body.Close()

	// Parse the JSON request body into the RequestBody struct
	logger.Sugar().Debugf("%d unmarshing request body", txid)
	var req GuestUpdateRequest
	err = json.Unmarshal(body, &req)
	if err != nil || req.LocationID == "" {
		logger.Sugar().Debugf("%d request invalid: %v", txid, err)
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":"Invalid request"}`)
		return
	}

	// Verify the guest token covers the claimed project
	projectID, err := s.verifyToken(req.Token)
	if err != nil || projectID != req.ProjectID {
		logger.Sugar().Debugf("%d guest token rejected", txid)
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":"Unauthorized"}`)
		return
	}

	// Handle the update request
	err = s.GuestUpdate(r.Context(), projectID, req.LocationID, req.GuestInfo)
	if err == nil {
		// update was successful
	} else if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		logger.Sugar().Warnf("%d guest update canceled after %s", txid, time.Since(start).String())
		w.WriteHeader(499)
		io.WriteString(w, `{"error":"Client canceled update request"}`)
		return
	} else if errors.Is(err, database.ErrNotFound) {
		// the token does not cover this location
		logger.Sugar().Debugf("%d guest update denied for location %s", txid, req.LocationID)
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":"Unauthorized"}`)
		return
	} else {
		logger.Sugar().Errorf("%d guest update failed: %s", txid, err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":"Update request failed"}`)
		return
	}

	// Marshal response
	raw, err := json.Marshal(GuestUpdateResponse{Success: true})
	if err != nil {
		logger.Sugar().Errorf("%d marshal response: %v", txid, err)
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":"Marshal response exception"}`)
		return
	}

	// Set the response headers and write the JSON response
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
	logger.Sugar().Infof("%d guest update request succeeded (%dms)", txid, time.Since(start).Milliseconds())
}

func (s *Server) GuestUpdate(ctx context.Context, projectID, locationID, info string) error {
	err := s.store.UpdateLocationGuestInfo(ctx, projectID, locationID, info)
	if err != nil {
		return err
	}
	s.cache.Invalidate(projectID)
	return nil
}
