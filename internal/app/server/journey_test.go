package server

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staffing/internal/domain/auth"
	"staffing/internal/platform/config"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error any             `json:"error"`
}

type client struct {
	t     *testing.T
	http  *http.Client
	base  string
	token string
}

func (c client) call(method, path string, body any, headers map[string]string) (int, json.RawMessage) {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.base+path, reader)
	require.NoError(c.t, err)
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		return resp.StatusCode, raw
	}
	var env envelope
	require.NoError(c.t, json.Unmarshal(raw, &env), string(raw))
	return resp.StatusCode, env.Data
}

func (c client) mustCall(status int, method, path string, body any, headers map[string]string, out any) {
	c.t.Helper()
	got, data := c.call(method, path, body, headers)
	require.Equal(c.t, status, got, "%s %s: %s", method, path, string(data))
	if out != nil {
		require.NoError(c.t, json.Unmarshal(data, out))
	}
}

func workWeek(regular, overtime int) []map[string]int {
	days := make([]map[string]int, 7)
	for i := range days {
		days[i] = map[string]int{}
		if i < 5 {
			days[i] = map[string]int{"regular": regular, "overtime": overtime}
		}
	}
	return days
}

func TestTimesheetToInvoiceJourney(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := config.Config{
		DatabaseURL:             dbURL,
		JWTSecret:               "test-secret",
		DataEncryptionKey:       strings.Repeat("cd", 32),
		Environment:             "test",
		RunMigrations:           true,
		RunSeed:                 true,
		MigrationsDir:           "../../../migrations",
		CompanyName:             "Test Staffing",
		MaxBodyBytes:            1048576,
		RateLimitPerMinute:      1000,
		GSTRate:                 decimal.NewFromInt(18),
		InvoicePrefix:           "TST",
		InvoiceDueDays:          30,
		InvoiceBasisCurrency:    "INR",
		InvoiceStorageDir:       t.TempDir(),
		MonthlyAggregation:      config.MonthlyModeFull,
		EnforceSubcontractLeave: true,
	}

	ctx := context.Background()
	app, err := New(ctx, cfg)
	require.NoError(t, err)
	defer app.Close()

	var candidateID string
	email := fmt.Sprintf("journey-%d@example.com", time.Now().UnixNano())
	require.NoError(t, app.DB.QueryRow(ctx, `
    INSERT INTO candidates (full_name, email) VALUES ($1, $2) RETURNING id
  `, "Journey Candidate", email).Scan(&candidateID))

	ts := httptest.NewServer(app.Router)
	defer ts.Close()

	issue := func(claims auth.Claims) client {
		token, err := auth.GenerateToken(cfg.JWTSecret, claims, time.Hour)
		require.NoError(t, err)
		return client{t: t, http: ts.Client(), base: ts.URL + "/api/v1", token: token}
	}
	finance := issue(auth.Claims{UserID: "finance-1", RoleName: auth.RoleFinance})
	recruiter := issue(auth.Claims{UserID: "recruiter-1", RoleName: auth.RoleRecruiter})
	candidate := issue(auth.Claims{UserID: "cand-user", RoleName: auth.RoleCandidate, CandidateID: candidateID})

	finance.mustCall(http.StatusCreated, http.MethodPost, "/candidates/"+candidateID+"/billing-profiles", map[string]any{
		"hourlyRate":     "50",
		"currency":       "USD",
		"employmentType": "subcontract",
		"tdsRate":        "10",
		"effectiveFrom":  "2026-01-01",
	}, nil, nil)

	var weekIDs []string
	for _, start := range []string{"2026-03-02", "2026-03-09"} {
		var week struct {
			ID      string `json:"id"`
			Amounts struct {
				TotalAmount decimal.Decimal `json:"totalAmount"`
			} `json:"amounts"`
		}
		candidate.mustCall(http.StatusCreated, http.MethodPost, "/timesheets/weekly", map[string]any{
			"weekStartDate": start,
			"days":          workWeek(8, 0),
		}, nil, &week)
		assert.Equal(t, "2000", week.Amounts.TotalAmount.String())

		candidate.mustCall(http.StatusOK, http.MethodPost, "/timesheets/weekly/"+week.ID+"/status", map[string]string{"status": "submitted"}, nil, nil)
		recruiter.mustCall(http.StatusOK, http.MethodPost, "/timesheets/weekly/"+week.ID+"/status", map[string]string{"status": "approved"}, nil, nil)
		weekIDs = append(weekIDs, week.ID)
	}

	var period struct {
		ID string `json:"id"`
	}
	recruiter.mustCall(http.StatusCreated, http.MethodPost, "/timesheets/biweekly", map[string]string{
		"week1Id": weekIDs[0],
		"week2Id": weekIDs[1],
	}, nil, &period)
	recruiter.mustCall(http.StatusOK, http.MethodPost, "/timesheets/biweekly/"+period.ID+"/status", map[string]string{"status": "approved"}, nil, nil)

	generate := map[string]any{"biweeklyTimesheetId": period.ID, "sixMonthAverageRate": "83"}
	key := map[string]string{"Idempotency-Key": "journey-" + candidateID}
	var inv struct {
		ID            string          `json:"id"`
		InvoiceNumber string          `json:"invoiceNumber"`
		TotalAmount   decimal.Decimal `json:"totalAmount"`
		GSTAmount     decimal.Decimal `json:"gstAmount"`
		TotalWithGST  decimal.Decimal `json:"totalWithGst"`
		Status        string          `json:"status"`
	}
	finance.mustCall(http.StatusCreated, http.MethodPost, "/invoices", generate, key, &inv)
	assert.True(t, strings.HasPrefix(inv.InvoiceNumber, "TST-"))
	assert.Equal(t, "332000", inv.TotalAmount.String())
	assert.Equal(t, "59760", inv.GSTAmount.String())
	assert.Equal(t, "391760", inv.TotalWithGST.String())

	var replay struct {
		ID string `json:"id"`
	}
	finance.mustCall(http.StatusCreated, http.MethodPost, "/invoices", generate, key, &replay)
	assert.Equal(t, inv.ID, replay.ID)

	status, _ := finance.call(http.MethodPost, "/invoices", generate, nil)
	assert.Equal(t, http.StatusConflict, status)

	finance.mustCall(http.StatusOK, http.MethodPost, "/invoices/"+inv.ID+"/status", map[string]string{"status": "sent"}, nil, nil)

	status, pdf := finance.call(http.MethodGet, "/invoices/"+inv.ID+"/pdf", nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	var dashboard struct {
		Invoices struct {
			Outstanding map[string]decimal.Decimal `json:"outstanding"`
		} `json:"invoices"`
	}
	finance.mustCall(http.StatusOK, http.MethodGet, "/reports/dashboard?candidateId="+candidateID+"&year=2026", nil, nil, &dashboard)
	assert.Equal(t, "391760", dashboard.Invoices.Outstanding["INR"].String())
}
