package http

import (
	"net/http"
	"strconv"

	"bikerental/pkg/config"
	apperrors "bikerental/pkg/errors"
)

func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}

	var offset int64 = 0
	if s := query.Get("offset"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = v
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	return limit, offset, nil
}

// Identity headers supplied by the authenticating gateway. The engine never
// verifies tokens itself; it trusts these and re-checks eligibility flags
// against the user registry.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

func CallerID(r *http.Request) (string, error) {
	id := r.Header.Get(HeaderUserID)
	if id == "" {
		return "", apperrors.InvalidInput("missing " + HeaderUserID + " header")
	}
	return id, nil
}

func RequireRole(r *http.Request, roles ...string) error {
	role := r.Header.Get(HeaderUserRole)
	for _, allowed := range roles {
		if role == allowed {
			return nil
		}
	}
	return apperrors.Forbidden("caller role is not permitted to perform this operation")
}
