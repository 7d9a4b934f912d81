package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"saldo/internal/log"
	ports "saldo/internal/sheets"
)

const defaultRowCacheTTL = 5 * time.Minute

// Options configures the spreadsheet client.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
	RowCacheTTL     time.Duration
	Logger          *log.Logger
}

// Client appends activity rows to one sheet of a spreadsheet. The row count
// is cached so consecutive appends skip the dimension lookup.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger

	mu                 sync.Mutex
	cachedRowCount     int
	cacheExpiresAt     time.Time
	cacheValidDuration time.Duration
}

var _ ports.ActivityWriter = (*Client)(nil)

// New creates a client authenticated with service account credentials, taken
// from CredentialsJSON, CredentialsFile or GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	credentials, err := loadCredentials(opts)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentials),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, opts)
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, opts Options) (*Client, error) {
	if svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheet := strings.TrimSpace(opts.SheetName)
	if sheet == "" {
		sheet = "Activity"
	}
	ttl := opts.RowCacheTTL
	if ttl <= 0 {
		ttl = defaultRowCacheTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		svc:                svc,
		spreadsheetID:      strings.TrimSpace(opts.SpreadsheetID),
		sheetName:          sheet,
		logger:             logger.WithComponent(log.ComponentSheets),
		cacheValidDuration: ttl,
	}, nil
}

func loadCredentials(opts Options) ([]byte, error) {
	if j := strings.TrimSpace(opts.CredentialsJSON); j != "" {
		return []byte(j), nil
	}
	file := strings.TrimSpace(opts.CredentialsFile)
	if file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if file == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return data, nil
}

// AppendActivity writes row below the last used row, writing the header
// first when the sheet is empty.
func (c *Client) AppendActivity(ctx context.Context, row ports.ActivityRow) (string, error) {
	if row.TransactionID == "" {
		return "", errors.New("activity row without transaction id")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	used, err := c.rowCount(ctx)
	if err != nil {
		return "", err
	}
	if used == 0 {
		header := make([]any, len(ports.Header))
		for i, h := range ports.Header {
			header[i] = h
		}
		if err := c.writeRow(ctx, 1, header); err != nil {
			return "", err
		}
		used = 1
	}

	next := used + 1
	if err := c.writeRow(ctx, next, row.Values()); err != nil {
		return "", err
	}
	c.cachedRowCount = next
	c.cacheExpiresAt = time.Now().Add(c.cacheValidDuration)

	ref := fmt.Sprintf("%s!A%d:%s%d", c.sheetName, next, lastColumn(), next)
	c.logger.DebugContext(ctx, "Activity row appended",
		log.FieldTransaction, row.TransactionID,
		log.FieldEvent, row.Event,
		log.FieldRow, next)
	return ref, nil
}

// rowCount returns the number of used rows. Callers hold c.mu.
func (c *Client) rowCount(ctx context.Context) (int, error) {
	if time.Now().Before(c.cacheExpiresAt) {
		return c.cachedRowCount, nil
	}
	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to get sheet dimensions for %s: %w", c.sheetName, err)
	}
	c.cachedRowCount = len(resp.Values)
	c.cacheExpiresAt = time.Now().Add(c.cacheValidDuration)
	return c.cachedRowCount, nil
}

func (c *Client) writeRow(ctx context.Context, n int, values []any) error {
	rng := fmt.Sprintf("%s!A%d:%s%d", c.sheetName, n, lastColumn(), n)
	vr := &gsheet.ValueRange{Values: [][]any{values}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		c.invalidateRowCache()
		return fmt.Errorf("failed to update %s: %w", rng, err)
	}
	return nil
}

func (c *Client) invalidateRowCache() {
	c.cachedRowCount = 0
	c.cacheExpiresAt = time.Time{}
}

func lastColumn() string {
	return string(rune('A' + len(ports.Header) - 1))
}
