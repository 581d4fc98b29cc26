package listing

// Column names of the listing sheet header row.
const (
	ColumnReceived     = "접수날짜"
	ColumnRegion       = "지역"
	ColumnLot          = "지번"
	ColumnBuilding     = "건물명"
	ColumnFloor        = "층수"
	ColumnShop         = "가게명"
	ColumnSale         = "분양"
	ColumnArea         = "실평수"
	ColumnDeposit      = "보증금"
	ColumnRent         = "월세"
	ColumnPremium      = "권리금"
	ColumnNote         = "비고"
	ColumnManager      = "담당자"
	ColumnStatus       = "현황"
	ColumnRegionDetail = "지역2"
	ColumnContact      = "연락처"
	ColumnClient       = "의뢰인"
	ColumnNote3        = "비고3"
	ColumnViolation    = "위반여부"
	ColumnBanner       = "현수막번호"
)

// ActiveStatus marks a listing as active: eligible for geocoding and coordinate attachment.
const ActiveStatus = "생"

// ExpectedHeaders is the minimum header set a listing mirror is expected to carry.
var ExpectedHeaders = []string{
	ColumnReceived, ColumnRegion, ColumnLot, ColumnBuilding, ColumnFloor,
	ColumnShop, ColumnSale, ColumnArea, ColumnDeposit, ColumnRent,
	ColumnPremium, ColumnNote, ColumnManager, ColumnStatus, ColumnRegionDetail,
	ColumnContact, ColumnClient, ColumnNote3, ColumnViolation, ColumnBanner,
}
