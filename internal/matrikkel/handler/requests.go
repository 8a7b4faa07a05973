package handler

import (
	"strings"

	"masseutsendelse/internal/geometry"
	"masseutsendelse/internal/matrikkel"
	dErrors "masseutsendelse/pkg/domain-errors"
)

const maxQueryParams = 32

// LookupOptions are the per-request overrides shared by both endpoints.
type LookupOptions struct {
	// Context replaces the configured matrikkelContext when set.
	Context *matrikkel.Context     `json:"context,omitempty"`
	Query   []matrikkel.QueryParam `json:"query,omitempty"`
}

func (o *LookupOptions) validate() error {
	if len(o.Query) > maxQueryParams {
		return dErrors.Newf(dErrors.CodeValidation, "at most %d query parameters are allowed", maxQueryParams)
	}
	for i := range o.Query {
		o.Query[i].Key = strings.TrimSpace(o.Query[i].Key)
		if o.Query[i].Key == "" {
			return dErrors.New(dErrors.CodeValidation, "query parameter key is required")
		}
	}
	return nil
}

// Options converts the overrides into request options.
func (o *LookupOptions) Options() []matrikkel.RequestOption {
	var opts []matrikkel.RequestOption
	if o.Context != nil {
		opts = append(opts, matrikkel.WithContext(*o.Context))
	}
	if len(o.Query) > 0 {
		opts = append(opts, matrikkel.WithQuery(o.Query...))
	}
	return opts
}

// OwnersRequest is the HTTP request body for POST /matrikkel/owners.
type OwnersRequest struct {
	Polygon geometry.Polygon `json:"polygon"`
	EPSG    string           `json:"epsg"`
	LookupOptions
}

// Validate checks the request shape. Polygon and EPSG content are checked
// by the service so its error titles reach the caller unchanged.
func (r *OwnersRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.EPSG = strings.TrimSpace(r.EPSG)
	return r.LookupOptions.validate()
}

// StoreRequest is the HTTP request body for POST /matrikkel/store.
type StoreRequest struct {
	Items                 []any                          `json:"items"`
	KoordinatsystemKodeID matrikkel.CoordinateSystemCode `json:"koordinatsystemKodeId"`
	LookupOptions
}

func (r *StoreRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Items == nil {
		return dErrors.New(dErrors.CodeValidation, "items is required")
	}
	if r.KoordinatsystemKodeID <= 0 {
		return dErrors.New(dErrors.CodeValidation, "koordinatsystemKodeId must be a positive code")
	}
	return r.LookupOptions.validate()
}
