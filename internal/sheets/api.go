package sheets

import (
	"context"
	"fmt"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// API is the subset of the Google Sheets API needed to mirror a spreadsheet.
type API interface {
	SheetTitles(ctx context.Context, spreadsheetID string) ([]string, error)
	Values(ctx context.Context, spreadsheetID, sheet string) ([][]string, error)
}

type googleAPI struct {
	service *gsheets.Service
}

// NewGoogleAPI authenticates with a service account key and returns a read-only Sheets API.
func NewGoogleAPI(ctx context.Context, serviceAccountJSON []byte) (API, error) {
	serviceConfig, err := google.JWTConfigFromJSON(serviceAccountJSON, gsheets.SpreadsheetsReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account key: %w", err)
	}

	return NewGoogleAPIWithOptions(ctx, option.WithHTTPClient(serviceConfig.Client(ctx)))
}

// NewGoogleAPIWithOptions builds the API from explicit client options.
func NewGoogleAPIWithOptions(ctx context.Context, opts ...option.ClientOption) (API, error) {
	service, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &googleAPI{service: service}, nil
}

func (g *googleAPI) SheetTitles(ctx context.Context, spreadsheetID string) ([]string, error) {
	spreadsheet, err := g.service.Spreadsheets.Get(spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get spreadsheet %s: %w", spreadsheetID, err)
	}

	titles := make([]string, 0, len(spreadsheet.Sheets))
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil {
			titles = append(titles, sheet.Properties.Title)
		}
	}

	return titles, nil
}

func (g *googleAPI) Values(ctx context.Context, spreadsheetID, sheet string) ([][]string, error) {
	resp, err := g.service.Spreadsheets.Values.Get(spreadsheetID, sheet).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get values of %s: %w", sheet, err)
	}

	rows := make([][]string, len(resp.Values))
	for idx, row := range resp.Values {
		rows[idx] = make([]string, len(row))
		for col, cell := range row {
			rows[idx][col] = cellString(cell)
		}
	}

	return rows, nil
}

func cellString(cell any) string {
	switch value := cell.(type) {
	case nil:
		return ""
	case string:
		return value
	default:
		return fmt.Sprint(value)
	}
}

type unavailableAPI struct {
	err error
}

// Unavailable returns an API whose every call fails with err. It stands in when credentials
// could not be loaded so that sync runs keep reporting the cause.
func Unavailable(err error) API {
	return unavailableAPI{err: err}
}

func (u unavailableAPI) SheetTitles(context.Context, string) ([]string, error) {
	return nil, u.err
}

func (u unavailableAPI) Values(context.Context, string, string) ([][]string, error) {
	return nil, u.err
}
