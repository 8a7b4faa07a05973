package handler

import "masseutsendelse/internal/matrikkel"

// OwnersResponse is the HTTP response for POST /matrikkel/owners.
type OwnersResponse struct {
	Owners []matrikkel.OwnerRecord `json:"owners"`
	Count  int                     `json:"count"`
}

func NewOwnersResponse(owners []matrikkel.OwnerRecord) *OwnersResponse {
	if owners == nil {
		owners = []matrikkel.OwnerRecord{}
	}
	return &OwnersResponse{Owners: owners, Count: len(owners)}
}

// StoreResponse is the HTTP response for POST /matrikkel/store.
type StoreResponse struct {
	Items []matrikkel.Record `json:"items"`
}
