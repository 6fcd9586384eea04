package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/DiksySingh/InventorySystem2-sub000/utils"
)

// FarmerDetails is the payload of the external farmer registry, consumed as
// an opaque enrichment source. Only the fields the views need are decoded.
type FarmerDetails struct {
	SaralId       string `json:"saralId"`
	FarmerName    string `json:"farmerName"`
	ContactNumber string `json:"contact"`
	Village       string `json:"village"`
	District      string `json:"district"`
	State         string `json:"state"`
}

var farmerHTTPClient = &http.Client{Timeout: 10 * time.Second}

func farmerAPIBase() string {
	base := os.Getenv("FARMER_API_URL")
	if base == "" {
		base = "http://localhost:4000"
	}
	return base
}

// FetchFarmerDetails looks a farmer up by saral id in the external registry.
// A 404 maps to the not-found sentinel so write flows can treat a missing
// farmer as a hard error; read flows treat any error as a nil enrichment.
func FetchFarmerDetails(ctx context.Context, saralId string) (*FarmerDetails, error) {

	url := fmt.Sprintf("%s/farmers/%s", farmerAPIBase(), saralId)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := farmerHTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, utils.ErrorRecordNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("farmer registry returned " + resp.Status)
	}

	var payload struct {
		Success bool          `json:"success"`
		Data    FarmerDetails `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	if payload.Data.SaralId == "" {
		payload.Data.SaralId = saralId
	}
	return &payload.Data, nil
}

// VerifyFarmerExists is the write-path precondition: a dispatch against an
// unknown farmer must fail hard, but a registry outage should not block
// dispatches.
func VerifyFarmerExists(ctx context.Context, saralId string) error {
	_, err := FetchFarmerDetails(ctx, saralId)
	if errors.Is(err, utils.ErrorRecordNotFound) {
		return errors.New("farmer not found")
	}
	// outage or malformed response: proceed, the saral id is recorded as given
	return nil
}
