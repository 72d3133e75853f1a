package models

import (
	"encoding/json"
	"time"
)

// ClaimType is the tenure category of a Forest Rights Act claim
type ClaimType string

const (
	ClaimTypeIFR ClaimType = "IFR" // Individual Forest Rights
	ClaimTypeCR  ClaimType = "CR"  // Community Rights
	ClaimTypeCFR ClaimType = "CFR" // Community Forest Resource rights
)

// Valid reports whether t is one of the known claim types
func (t ClaimType) Valid() bool {
	switch t {
	case ClaimTypeIFR, ClaimTypeCR, ClaimTypeCFR:
		return true
	}
	return false
}

// ClaimStatus is the approval state of a claim
type ClaimStatus string

const (
	ClaimStatusPending  ClaimStatus = "pending"
	ClaimStatusApproved ClaimStatus = "approved"
	ClaimStatusRejected ClaimStatus = "rejected"
)

// AssetType is the land-cover class of a mapped asset parcel
type AssetType string

const (
	AssetTypeAgriculture AssetType = "agriculture"
	AssetTypeForest      AssetType = "forest"
	AssetTypeWaterBody   AssetType = "water_body"
	AssetTypeHomestead   AssetType = "homestead"
)

// AllAssetTypes lists every asset type in display order
var AllAssetTypes = []AssetType{
	AssetTypeAgriculture,
	AssetTypeForest,
	AssetTypeWaterBody,
	AssetTypeHomestead,
}

// Claim is a forest-land tenure application
type Claim struct {
	ID           string      `json:"id"`
	UserID       string      `json:"user_id"`
	VillageName  string      `json:"village_name"`
	District     string      `json:"district"`
	State        string      `json:"state"`
	ClaimType    ClaimType   `json:"claim_type"`
	AreaHectares float64     `json:"area_hectares"`
	Status       ClaimStatus `json:"status"`
	SubmittedAt  time.Time   `json:"submitted_at"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// AssetRecord is a mapped land-cover parcel belonging to a village
type AssetRecord struct {
	ID          string          `json:"id"`
	VillageName string          `json:"village_name"`
	District    string          `json:"district"`
	State       string          `json:"state"`
	AssetType   AssetType       `json:"asset_type"`
	GeoJSON     json.RawMessage `json:"geojson,omitempty"`
	Source      string          `json:"source,omitempty"`
	LastUpdated time.Time       `json:"last_updated"`
}

// ClaimFilter narrows a claim listing
type ClaimFilter struct {
	Status   ClaimStatus
	District string
	State    string
	Limit    int
}

// Locality identifies a district/state pair
type Locality struct {
	District string `json:"district"`
	State    string `json:"state"`
	Claims   int    `json:"claims"`
}

// Coverage counts the pending claims of a locality that already have a
// saved recommendation set
type Coverage struct {
	State    string `json:"state"`
	District string `json:"district"`
	Pending  int    `json:"pending"`
	Covered  int    `json:"covered"`
}

// Missing is the number of pending claims without recommendations
func (c Coverage) Missing() int {
	return c.Pending - c.Covered
}
