package export

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/eugene-nechvoloda/meetyai/httpapi"
	"github.com/eugene-nechvoloda/meetyai/store"
)

const (
	sheetsBaseURL  = "https://sheets.googleapis.com"
	googleTokenURL = "https://oauth2.googleapis.com/token"
	sheetsScope    = "https://www.googleapis.com/auth/spreadsheets"
)

// sheetsProvider appends insights as rows to a Google Sheet using a
// service account. The credential is the service account's client email
// (key) and its PEM private key (secret); an access token is minted per
// operation via a signed JWT assertion.
type sheetsProvider struct {
	api      *httpapi.Client
	http     *http.Client
	tokenURL string
	email    string
	pemKey   string
	sheetID  string
}

func newSheetsProvider(creds Credentials, cfg store.ExportConfig) (Provider, error) {
	if cfg.SheetID == "" {
		return nil, fmt.Errorf("sheets: sheet id is required")
	}
	if creds.APISecret == "" {
		return nil, fmt.Errorf("sheets: service account private key is required")
	}

	baseURL := sheetsBaseURL
	tokenURL := googleTokenURL
	if cfg.APIEndpoint != "" {
		baseURL = cfg.APIEndpoint
		tokenURL = cfg.APIEndpoint + "/token"
	}

	return &sheetsProvider{
		api:      httpapi.NewClient(httpapi.ClientConfig{BaseURL: baseURL, ServiceName: ProviderGoogleSheets}),
		http:     &http.Client{Timeout: httpapi.DefaultTimeout},
		tokenURL: tokenURL,
		email:    creds.APIKey,
		pemKey:   creds.APISecret,
		sheetID:  cfg.SheetID,
	}, nil
}

func (p *sheetsProvider) accessToken(ctx context.Context) (string, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(p.pemKey))
	if err != nil {
		return "", fmt.Errorf("sheets: parse private key: %w", err)
	}

	now := time.Now()
	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iss":   p.email,
		"scope": sheetsScope,
		"aud":   googleTokenURL,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sheets: sign assertion: %w", err)
	}

	form := url.Values{
		"grant_type": {"urn:ietf:params:oauth:grant-type:jwt-bearer"},
		"assertion":  {assertion},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("sheets: token exchange: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", httpapi.ParseError(resp, ProviderGoogleSheets, "/token")
	}

	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("sheets: decode token: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("sheets: token response missing access_token")
	}
	return token.AccessToken, nil
}

func (p *sheetsProvider) doJSON(ctx context.Context, method, path string, body, out any) error {
	token, err := p.accessToken(ctx)
	if err != nil {
		return err
	}
	headers := map[string]string{"Authorization": "Bearer " + token}
	return p.api.DoJSONWithHeaders(ctx, method, path, body, out, headers)
}

func (p *sheetsProvider) TestConnection(ctx context.Context) error {
	path := fmt.Sprintf("/v4/spreadsheets/%s?fields=spreadsheetId", p.sheetID)
	var out struct {
		SpreadsheetID string `json:"spreadsheetId"`
	}
	return p.doJSON(ctx, http.MethodGet, path, nil, &out)
}

// headerRow reads the sheet's first row, which names its columns.
func (p *sheetsProvider) headerRow(ctx context.Context) ([]string, error) {
	var out struct {
		Values [][]any `json:"values"`
	}
	path := fmt.Sprintf("/v4/spreadsheets/%s/values/1:1", p.sheetID)
	if err := p.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if len(out.Values) == 0 {
		return nil, nil
	}
	headers := make([]string, 0, len(out.Values[0]))
	for _, v := range out.Values[0] {
		headers = append(headers, fmt.Sprintf("%v", v))
	}
	return headers, nil
}

func (p *sheetsProvider) FetchFields(ctx context.Context) ([]Field, error) {
	headers, err := p.headerRow(ctx)
	if err != nil {
		return nil, err
	}
	fields := make([]Field, 0, len(headers))
	for _, h := range headers {
		fields = append(fields, Field{ID: h, Name: h, Type: "text"})
	}
	return fields, nil
}

func (p *sheetsProvider) FetchExistingRecords(ctx context.Context) ([]Record, error) {
	var out struct {
		Values [][]any `json:"values"`
	}
	path := fmt.Sprintf("/v4/spreadsheets/%s/values/A1:Z1000", p.sheetID)
	if err := p.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if len(out.Values) < 2 {
		return nil, nil
	}

	headers := out.Values[0]
	records := make([]Record, 0, len(out.Values)-1)
	for i, row := range out.Values[1:] {
		fields := map[string]any{}
		for col, h := range headers {
			if col < len(row) {
				fields[fmt.Sprintf("%v", h)] = row[col]
			}
		}
		records = append(records, Record{ID: fmt.Sprintf("row-%d", i+2), Fields: fields})
	}
	return records, nil
}

func (p *sheetsProvider) CreateRecord(ctx context.Context, fields map[string]any) (string, error) {
	headers, err := p.headerRow(ctx)
	if err != nil {
		return "", err
	}
	if len(headers) == 0 {
		// No header row yet: fall back to a stable column order.
		for k := range fields {
			headers = append(headers, k)
		}
		sort.Strings(headers)
	}

	row := make([]any, 0, len(headers))
	for _, h := range headers {
		row = append(row, fields[h])
	}

	var out struct {
		Updates struct {
			UpdatedRange string `json:"updatedRange"`
		} `json:"updates"`
	}
	path := fmt.Sprintf("/v4/spreadsheets/%s/values/A1:append?valueInputOption=USER_ENTERED", p.sheetID)
	body := map[string]any{"values": [][]any{row}}
	if err := p.doJSON(ctx, http.MethodPost, path, body, &out); err != nil {
		return "", err
	}
	return out.Updates.UpdatedRange, nil
}
