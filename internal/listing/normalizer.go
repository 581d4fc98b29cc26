package listing

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/UnknownOlympus/hestia/internal/models"
)

// HeaderIndex maps a header name to its column position.
type HeaderIndex map[string]int

// IndexHeader builds a HeaderIndex from a header row. Blank names are skipped and the
// first occurrence of a duplicated name wins.
func IndexHeader(header []string) HeaderIndex {
	index := make(HeaderIndex, len(header))
	for col, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, seen := index[name]; !seen {
			index[name] = col
		}
	}

	return index
}

// Missing returns the expected names absent from the index, in order.
func (h HeaderIndex) Missing(expected []string) []string {
	var missing []string
	for _, name := range expected {
		if _, ok := h[name]; !ok {
			missing = append(missing, name)
		}
	}

	return missing
}

// value returns the cell under column name, or "" when the column or the cell is absent.
func (h HeaderIndex) value(row []string, name string) string {
	col, ok := h[name]
	if !ok || col >= len(row) {
		return ""
	}

	return row[col]
}

// ID returns the deterministic listing id for a 1-based data row index.
func ID(rowIndex int) string {
	return fmt.Sprintf("lst_%06d", rowIndex)
}

// IsActive reports whether a raw status value equals the active marker.
func IsActive(status string) bool {
	return strings.TrimSpace(status) == ActiveStatus
}

// ComposeAddress joins region-detail, region and lot with single spaces. It reports false
// unless all three parts are present.
func ComposeAddress(row []string, hdr HeaderIndex) (string, models.AddressParts, bool) {
	parts := models.AddressParts{
		RegionDetail: strings.TrimSpace(hdr.value(row, ColumnRegionDetail)),
		Region:       strings.TrimSpace(hdr.value(row, ColumnRegion)),
		Lot:          strings.TrimSpace(hdr.value(row, ColumnLot)),
	}
	if parts.RegionDetail == "" || parts.Region == "" || parts.Lot == "" {
		return "", parts, false
	}

	return strings.Join([]string{parts.RegionDetail, parts.Region, parts.Lot}, " "), parts, true
}

// Normalizer turns raw mirror rows into Listing records.
type Normalizer struct {
	log *slog.Logger
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(log *slog.Logger) *Normalizer {
	return &Normalizer{log: log}
}

// Normalize converts one data row. It returns nil when the row has no fully composed address.
func (n *Normalizer) Normalize(rowIndex int, row []string, hdr HeaderIndex) *models.Listing {
	address, parts, ok := ComposeAddress(row, hdr)
	if !ok {
		n.log.Debug("Row dropped, address is incomplete", "row", rowIndex)
		return nil
	}

	fields := make(map[string]string, len(hdr))
	for name := range hdr {
		fields[name] = hdr.value(row, name)
	}

	numbers := models.NumericFields{
		Deposit: amountPtr(fields[ColumnDeposit]),
		Rent:    amountPtr(fields[ColumnRent]),
		Premium: amountPtr(fields[ColumnPremium]),
		Area:    amountPtr(fields[ColumnArea]),
	}
	if numbers.Deposit != nil && numbers.Premium != nil {
		total := *numbers.Deposit + *numbers.Premium
		numbers.Total = &total
	}

	return &models.Listing{
		ID:          ID(rowIndex),
		RowIndex:    rowIndex,
		Address:     address,
		AddressComp: parts,
		Fields:      fields,
		Numbers:     numbers,
		Status:      strings.TrimSpace(hdr.value(row, ColumnStatus)),
	}
}

// NormalizeAll treats rows[0] as the header and normalizes every following row,
// dropping rows without an address.
func (n *Normalizer) NormalizeAll(rows [][]string) []models.Listing {
	if len(rows) == 0 {
		return nil
	}

	hdr := IndexHeader(rows[0])
	if missing := hdr.Missing(ExpectedHeaders); len(missing) > 0 {
		n.log.Warn("Listing sheet is missing expected headers", "missing", missing)
	}

	listings := make([]models.Listing, 0, len(rows)-1)
	for idx, row := range rows[1:] {
		if item := n.Normalize(idx+1, row, hdr); item != nil {
			listings = append(listings, *item)
		}
	}

	return listings
}
