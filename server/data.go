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

type GuestDataRequest struct {
	ProjectID string `json:"project_id"`
	Token     string `json:"token"`
}

type GuestDataResponse struct {
	ProjectNumber string          `json:"project_number"`
	ProjectType   string          `json:"project_type"`
	Locations     []GuestLocation `json:"locations"`
}

// GuestLocation is the read-mostly slice of a location a guest sees: the
// annotated image and descriptive fields, never the original capture.
type GuestLocation struct {
	ID        string        `json:"id"`
	Number    string        `json:"location_number"`
	Name      *string       `json:"location_name"`
	Comment   *string       `json:"comment"`
	System    *string       `json:"system"`
	Label     *string       `json:"label"`
	Type      *string       `json:"type"`
	GuestInfo string        `json:"guest_info"`
	ImageData string        `json:"image_data"`
	Details   []GuestDetail `json:"detail_images"`
}

type GuestDetail struct {
	ID        string  `json:"id"`
	ImageData string  `json:"image_data"`
	Caption   *string `json:"caption"`
}

func (s *Server) GuestDataHttp(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	txid := index.Add(1)
	logger.Sugar().Debugf("%d guest data started", txid)
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
	var req GuestDataRequest
	err = json.Unmarshal(body, &req)
	if err != nil {
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

	// Handle the data request
	res, err := s.GuestData(r.Context(), projectID)
	if err == nil {
		// fetch was successful
	} else if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		logger.Sugar().Warnf("%d guest data canceled after %s", txid, time.Since(start).String())
		w.WriteHeader(499)
		io.WriteString(w, `{"error":"Client canceled data request"}`)
		return
	} else if errors.Is(err, database.ErrNotFound) {
		// token outlived its project
		logger.Sugar().Debugf("%d guest token project gone", txid)
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":"Unauthorized"}`)
		return
	} else {
		logger.Sugar().Errorf("%d guest data failed: %s", txid, err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":"Data request failed"}`)
		return
	}

	// Marshal response
	raw, err := json.Marshal(res)
	if err != nil {
		logger.Sugar().Errorf("%d marshal response: %v", txid, err)
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":"Marshal response exception"}`)
		return
	}

	// Set the response headers and write the JSON response
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
	logger.Sugar().Infof("%d guest data request succeeded (%dms)", txid, time.Since(start).Milliseconds())
}

func (s *Server) GuestData(ctx context.Context, projectID string) (res GuestDataResponse, err error) {
	project, err := s.cache.FetchProject(projectID, func() (*database.Project, error) {
		return s.store.GetProject(ctx, projectID)
	})
	if err != nil {
		return res, err
	}
	if project == nil {
		return res, database.ErrNotFound
	}

	res = GuestDataResponse{
		ProjectNumber: project.Number,
		ProjectType:   project.Type,
		Locations:     make([]GuestLocation, len(project.Locations)),
	}
	for i, location := range project.Locations {
		details := make([]GuestDetail, len(location.DetailImages))
		for j, detail := range location.DetailImages {
			details[j] = GuestDetail{
				ID:        detail.ID,
				ImageData: detail.ImageData,
				Caption:   detail.Caption,
			}
		}
		res.Locations[i] = GuestLocation{
			ID:        location.ID,
			Number:    location.Number,
			Name:      location.Name,
			Comment:   location.Comment,
			System:    location.System,
			Label:     location.Label,
			Type:      location.Type,
			GuestInfo: location.GuestInfo,
			ImageData: location.ImageData,
			Details:   details,
		}
	}
	return res, nil
}
