package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/aufmass/go-aufmass/database"
	"github.com/aufmass/go-aufmass/logger"
	"golang.org/x/crypto/bcrypt"
)

type ValidateGuestRequest struct {
	ProjectID string `json:"project_id"`
	Password  string `json:"password"`
}

type ValidateGuestResponse struct {
	Valid         bool   `json:"valid"`
	NeedsPassword bool   `json:"needs_password"`
	Token         string `json:"token,omitempty"`
	ProjectNumber string `json:"project_number,omitempty"`
}

func (s *Server) ValidateGuestHttp(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	txid := index.Add(1)
	logger.Sugar().Debugf("%d guest validate started", txid)
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
	var req ValidateGuestRequest
	err = json.Unmarshal(body, &req)
	if err != nil || req.ProjectID == "" {
		logger.Sugar().Debugf("%d request invalid: %v", txid, err)
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":"Invalid request"}`)
		return
	}

	// Handle the validation request
	res, err := s.ValidateGuest(r.Context(), req)
	if err == nil {
		// validation was successful
	} else if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		logger.Sugar().Warnf("%d guest validate canceled after %s", txid, time.Since(start).String())
		w.WriteHeader(499)
		io.WriteString(w, `{"error":"Client canceled validate request"}`)
		return
	} else {
		logger.Sugar().Errorf("%d guest validate failed: %s", txid, err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":"Validate request failed"}`)
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
	logger.Sugar().Infof("%d guest validate request succeeded (%dms)", txid, time.Since(start).Milliseconds())
}

// ValidateGuest checks a shared-link claim. An unknown project id and a
// wrong password produce the same negative answer so the endpoint cannot be
// used to probe which projects exist.
func (s *Server) ValidateGuest(ctx context.Context, req ValidateGuestRequest) (res ValidateGuestResponse, err error) {
	auth, err := s.cache.FetchAuth(req.ProjectID, func() (database.ProjectAuth, error) {
		return s.store.GetProjectAuth(ctx, req.ProjectID)
	})
	if err == nil {
	} else if errors.Is(err, database.ErrNotFound) {
		return ValidateGuestResponse{Valid: false}, nil
	} else {
		return res, err
	}

	// open project: no password configured
	if auth.GuestPassword == "" {
		token, err := s.issueToken(auth.ID)
		if err != nil {
			return res, err
		}
		return ValidateGuestResponse{Valid: true, Token: token, ProjectNumber: auth.Number}, nil
	}

	if req.Password == "" {
		return ValidateGuestResponse{Valid: false, NeedsPassword: true}, nil
	}

	if !s.verifyGuestPassword(ctx, auth, req.Password) {
		return ValidateGuestResponse{Valid: false, NeedsPassword: true}, nil
	}

	token, err := s.issueToken(auth.ID)
	if err != nil {
		return res, err
	}
	return ValidateGuestResponse{Valid: true, NeedsPassword: true, Token: token, ProjectNumber: auth.Number}, nil
}

// verifyGuestPassword accepts bcrypt hashes and, for stores written before
// hashing, the stored plaintext. A successful plaintext match is upgraded
// to a bcrypt hash in place.
func (s *Server) verifyGuestPassword(ctx context.Context, auth database.ProjectAuth, password string) bool {
	stored := auth.GuestPassword
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(password)) != 1 {
		return false
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Sugar().Warnf("guest password upgrade failed to hash: %v", err)
		return true
	}
	if err := s.store.SetProjectGuestPassword(ctx, auth.ID, string(hashed)); err != nil {
		logger.Sugar().Warnf("guest password upgrade failed to store: %v", err)
		return true
	}
	s.cache.InvalidateAuth(auth.ID)
	return true
}

func isBcryptHash(value string) bool {
	if len(value) < 4 {
		return false
	}
	return value[0] == '$' && value[1] == '2' && value[3] == '$'
}
