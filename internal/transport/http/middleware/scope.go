package middleware

import (
	"net/http"

	"staffing/internal/domain/auth"
	"staffing/internal/transport/http/api"
)

// CandidateScope resolves which candidate a request may see. Staff roles
// get requested as-is (empty means all candidates). A candidate is pinned
// to their own ID; asking for anyone else writes a 403 and returns false.
func CandidateScope(w http.ResponseWriter, r *http.Request, requested string) (string, bool) {
	user, ok := GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
		return "", false
	}
	if user.RoleName != auth.RoleCandidate {
		return requested, true
	}
	if user.CandidateID == "" || (requested != "" && requested != user.CandidateID) {
		api.Fail(w, http.StatusForbidden, "forbidden", "candidates may only access their own records", GetRequestID(r.Context()))
		return "", false
	}
	return user.CandidateID, true
}

// OwnsRecord reports whether the caller may read a record that belongs to
// candidateID, writing a 404 when not so record existence is not leaked.
func OwnsRecord(w http.ResponseWriter, r *http.Request, candidateID string) bool {
	user, ok := GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
		return false
	}
	if user.RoleName == auth.RoleCandidate && user.CandidateID != candidateID {
		api.Fail(w, http.StatusNotFound, "not_found", "record not found", GetRequestID(r.Context()))
		return false
	}
	return true
}
