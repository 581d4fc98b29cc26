package models

// Listing is a normalized record derived from one mirror row.
type Listing struct {
	ID          string            `json:"id"`            // ID is derived from the row position, e.g. lst_000001.
	RowIndex    int               `json:"raw_row_index"` // RowIndex is the 1-based data row index in the mirror.
	Address     string            `json:"address_full"`  // Address is "<region-detail> <region> <lot>".
	AddressComp AddressParts      `json:"address_comp"`  // AddressComp holds the three address sub-fields.
	Fields      map[string]string `json:"fields"`        // Fields maps every header name to the row value.
	Numbers     NumericFields     `json:"numeric_cache"` // Numbers holds the coerced numeric columns.
	Status      string            `json:"status_raw"`    // Status is the raw current-state column value.
	Coords      *Coordinates      `json:"coords"`        // Coords is nil unless the listing is active and cached.
}

// AddressParts are the address sub-fields a listing address is composed from.
type AddressParts struct {
	RegionDetail string `json:"region2"`
	Region       string `json:"region"`
	Lot          string `json:"lot"`
}

// NumericFields holds the coerced numeric columns of a listing. A nil pointer means "no value".
type NumericFields struct {
	Deposit *int64 `json:"deposit"`
	Rent    *int64 `json:"rent"`
	Premium *int64 `json:"premium"`
	Area    *int64 `json:"area"`
	Total   *int64 `json:"total"`
}

// UpdateResult summarizes one geocoding enrichment pass.
type UpdateResult struct {
	Total   int `json:"total"`
	New     int `json:"new"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}
