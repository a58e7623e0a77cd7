package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"unicode/utf8"

	"github.com/chirpgate/chirpgate/status"
)

const maxStatusLength = 280

var statusIDPattern = regexp.MustCompile(`status/(\d+)`)

func statusURL(username, statusID string) string {
	return fmt.Sprintf("https://twitter.com/%s/status/%s", username, statusID)
}

// handlePostStatus relays a status update to the provider under the
// caller's credentials and records it locally.
func (s *Server) handlePostStatus(w http.ResponseWriter, r *http.Request) {
	acct := s.sessionAccount(w, r)
	if acct == nil {
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Content == "" {
		s.writeError(w, http.StatusBadRequest, "Status content is required")
		return
	}
	if utf8.RuneCountInString(req.Content) > maxStatusLength {
		s.writeError(w, http.StatusBadRequest,
			fmt.Sprintf("Status exceeds %d characters", maxStatusLength))
		return
	}

	posted, err := s.provider.PostStatus(r.Context(), acct.AccessToken, req.Content)
	if err != nil {
		s.logger.Error("failed to post status", "account_id", acct.ID.Hex(), "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to post status")
		return
	}

	record := &status.StatusUpdate{
		AccountID: acct.ID,
		StatusID:  posted.ID,
		Text:      posted.Text,
		Verified:  true,
		CreatedAt: s.now().UTC(),
	}
	if err := s.statuses.Insert(r.Context(), record); err != nil {
		// The provider accepted the status, so the relay succeeded; only
		// the local record is missing.
		s.logger.Warn("failed to record posted status", "account_id", acct.ID.Hex(), "error", err)
	}

	s.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Status posted successfully",
		"status": map[string]interface{}{
			"id":        posted.ID,
			"text":      posted.Text,
			"url":       statusURL(acct.Username, posted.ID),
			"createdAt": record.CreatedAt,
		},
	})
}

func (s *Server) handleListStatuses(w http.ResponseWriter, r *http.Request) {
	acct := s.sessionAccount(w, r)
	if acct == nil {
		return
	}

	list, err := s.statuses.ListByAccount(r.Context(), acct.ID)
	if err != nil {
		s.logger.Error("failed to list statuses", "account_id", acct.ID.Hex(), "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to load statuses")
		return
	}
	if list == nil {
		list = []status.StatusUpdate{}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"statuses": list})
}

// handleVerifyStatus checks that a status URL points at a status
// authored by the calling account.
func (s *Server) handleVerifyStatus(w http.ResponseWriter, r *http.Request) {
	acct := s.sessionAccount(w, r)
	if acct == nil {
		return
	}

	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.URL == "" {
		s.writeError(w, http.StatusBadRequest, "Status URL is required")
		return
	}
	m := statusIDPattern.FindStringSubmatch(req.URL)
	if m == nil {
		s.writeError(w, http.StatusBadRequest, "Invalid status URL")
		return
	}
	statusID := m[1]

	detail, err := s.provider.LookupStatus(r.Context(), acct.AccessToken, statusID)
	if err != nil {
		s.logger.Error("status lookup failed", "account_id", acct.ID.Hex(), "status_id", statusID, "error", err)
		s.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"isVerified": false,
			"message":    "Failed to verify status",
		})
		return
	}

	if detail.AuthorID != acct.ExternalID {
		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"isVerified": false,
			"message":    "Status does not belong to the authenticated user",
		})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"isVerified": true,
		"status": map[string]interface{}{
			"id":        detail.ID,
			"text":      detail.Text,
			"createdAt": detail.CreatedAt,
			"url":       statusURL(acct.Username, detail.ID),
			"author": map[string]string{
				"id":              acct.ExternalID,
				"username":        acct.Username,
				"name":            acct.Name,
				"profileImageUrl": acct.ProfileImageURL,
			},
		},
	})
}
