// Package google mirrors work log entries into a Google Sheets
// spreadsheet. The sheet is a reporting copy: SQLite stays the source
// of truth and the sync worker pushes rows here asynchronously.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"worklog/internal/core"

	"golang.org/x/oauth2"
	goauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Mirror row layout: A=id, B=date, C=time in, D=time out, E=break minutes, F=hours.
const rowWidth = "F"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	entriesSheet  string
}

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Auth, in order of preference: OAuth user credentials
// (GOOGLE_OAUTH_CLIENT_JSON/GOOGLE_OAUTH_CLIENT_FILE plus
// GOOGLE_OAUTH_TOKEN_JSON/GOOGLE_OAUTH_TOKEN_FILE, see cmd/oauth-init),
// then a service account (GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS).
// Optional: GOOGLE_SHEET_NAME (default "Worklog"); the current year is
// prefixed automatically so each year gets its own tab.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	base := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if base == "" {
		base = "Worklog"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		entriesSheet:  yearPrefixedName(base, time.Now().Year()),
	}, nil
}

// newSheetsService initializes a Sheets Service, trying OAuth user
// credentials first and falling back to a service account.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	if svc, ok, err := newOAuthSheetsService(ctx); ok {
		return svc, err
	}

	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))

	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created successfully")
	return service, nil
}

// newOAuthSheetsService builds a Sheets Service from OAuth user
// credentials. The second return value reports whether OAuth client
// configuration was present at all; when it is false the caller should
// fall back to service account auth.
func newOAuthSheetsService(ctx context.Context) (*gsheet.Service, bool, error) {
	clientJSON := strings.TrimSpace(os.Getenv("GOOGLE_OAUTH_CLIENT_JSON"))
	clientFile := strings.TrimSpace(os.Getenv("GOOGLE_OAUTH_CLIENT_FILE"))
	if clientJSON == "" && clientFile == "" {
		return nil, false, nil
	}

	var clientBytes []byte
	var err error
	if clientJSON != "" {
		clientBytes = []byte(clientJSON)
	} else {
		clientBytes, err = os.ReadFile(clientFile)
		if err != nil {
			return nil, true, fmt.Errorf("read oauth client file: %w", err)
		}
	}

	cfg, err := goauth.ConfigFromJSON(clientBytes, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, true, fmt.Errorf("parse oauth client config: %w", err)
	}

	tokenJSON := strings.TrimSpace(os.Getenv("GOOGLE_OAUTH_TOKEN_JSON"))
	tokenFile := strings.TrimSpace(os.Getenv("GOOGLE_OAUTH_TOKEN_FILE"))

	var tokenBytes []byte
	switch {
	case tokenJSON != "":
		tokenBytes = []byte(tokenJSON)
	case tokenFile != "":
		tokenBytes, err = os.ReadFile(tokenFile)
		if err != nil {
			return nil, true, fmt.Errorf("read oauth token file: %w", err)
		}
	default:
		return nil, true, errors.New("missing oauth token (set GOOGLE_OAUTH_TOKEN_JSON or GOOGLE_OAUTH_TOKEN_FILE, or run cmd/oauth-init)")
	}

	token := &oauth2.Token{}
	if err := json.Unmarshal(tokenBytes, token); err != nil {
		return nil, true, fmt.Errorf("parse oauth token: %w", err)
	}

	service, err := gsheet.NewService(ctx,
		goption.WithTokenSource(cfg.TokenSource(ctx, token)))
	if err != nil {
		return nil, true, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created with OAuth credentials")
	return service, true, nil
}

// UpsertEntry writes the entry into the mirror sheet. An existing row
// with the same id is overwritten so re-synced updates stay idempotent;
// otherwise the entry is appended after the last used row.
func (c *Client) UpsertEntry(ctx context.Context, e core.LogEntry) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}

	ids, err := c.readIDColumn(ctx)
	if err != nil {
		return "", err
	}

	row := findRowByID(ids, e.ID)
	if row == 0 {
		row = len(ids) + 1
	}

	rng := fmt.Sprintf("%s!A%d:%s%d", c.entriesSheet, row, rowWidth, row)
	vr := &gsheet.ValueRange{Values: [][]any{entryRow(e)}}

	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to update %s: %w", rng, err)
	}

	return rng, nil
}

// DeleteEntry blanks the mirror row carrying the given id. Missing rows
// are not an error: the entry may never have been synced.
func (c *Client) DeleteEntry(ctx context.Context, id string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	ids, err := c.readIDColumn(ctx)
	if err != nil {
		return err
	}

	row := findRowByID(ids, id)
	if row == 0 {
		slog.InfoContext(ctx, "Mirror row not found, nothing to delete", "entry_id", id)
		return nil
	}

	rng := fmt.Sprintf("%s!A%d:%s%d", c.entriesSheet, row, rowWidth, row)
	vr := &gsheet.ValueRange{Values: [][]any{{"", "", "", "", "", ""}}}

	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to clear %s: %w", rng, err)
	}

	return nil
}

func (c *Client) readIDColumn(ctx context.Context) ([]string, error) {
	rng := fmt.Sprintf("%s!A:A", c.entriesSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	ids := make([]string, len(resp.Values))
	for i, row := range resp.Values {
		if len(row) > 0 {
			ids[i] = strings.TrimSpace(fmt.Sprint(row[0]))
		}
	}
	return ids, nil
}

// entryRow converts an entry to its sheet representation.
func entryRow(e core.LogEntry) []any {
	return []any{e.ID, e.Date, e.TimeIn, e.TimeOut, e.BreakMinutes, e.Hours()}
}

// findRowByID returns the 1-based sheet row holding the id, or 0.
func findRowByID(ids []string, id string) int {
	for i, v := range ids {
		if v != "" && v == strings.TrimSpace(id) {
			return i + 1
		}
	}
	return 0
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
