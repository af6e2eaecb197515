package export

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/eugene-nechvoloda/meetyai/httpapi"
	"github.com/eugene-nechvoloda/meetyai/store"
)

const airtableBaseURL = "https://api.airtable.com"

// airtableProvider exports insights as Airtable records.
type airtableProvider struct {
	client *httpapi.Client
	baseID string
	table  string
}

func newAirtableProvider(creds Credentials, cfg store.ExportConfig) (Provider, error) {
	if cfg.BaseID == "" {
		return nil, fmt.Errorf("airtable: base id is required")
	}
	table := cfg.TableID
	if table == "" {
		table = cfg.TableName
	}
	if table == "" {
		return nil, fmt.Errorf("airtable: table id or name is required")
	}

	baseURL := cfg.APIEndpoint
	if baseURL == "" {
		baseURL = airtableBaseURL
	}

	client := httpapi.NewClient(httpapi.ClientConfig{
		BaseURL:     baseURL,
		ServiceName: ProviderAirtable,
		BeforeRequest: func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+creds.APIKey)
		},
	})

	return &airtableProvider{client: client, baseID: cfg.BaseID, table: table}, nil
}

type airtableTable struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

type airtableSchema struct {
	Tables []airtableTable `json:"tables"`
}

func (p *airtableProvider) schema(ctx context.Context) (*airtableTable, error) {
	var schema airtableSchema
	path := fmt.Sprintf("/v0/meta/bases/%s/tables", p.baseID)
	if err := p.client.DoJSON(ctx, http.MethodGet, path, nil, &schema); err != nil {
		return nil, err
	}
	for i := range schema.Tables {
		t := &schema.Tables[i]
		if t.ID == p.table || t.Name == p.table {
			return t, nil
		}
	}
	return nil, fmt.Errorf("airtable: table %q not found in base %s", p.table, p.baseID)
}

func (p *airtableProvider) TestConnection(ctx context.Context) error {
	_, err := p.schema(ctx)
	return err
}

func (p *airtableProvider) FetchFields(ctx context.Context) ([]Field, error) {
	table, err := p.schema(ctx)
	if err != nil {
		return nil, err
	}
	return table.Fields, nil
}

func (p *airtableProvider) FetchExistingRecords(ctx context.Context) ([]Record, error) {
	var out struct {
		Records []struct {
			ID     string         `json:"id"`
			Fields map[string]any `json:"fields"`
		} `json:"records"`
	}
	path := fmt.Sprintf("/v0/%s/%s?maxRecords=100", p.baseID, url.PathEscape(p.table))
	if err := p.client.DoJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(out.Records))
	for _, r := range out.Records {
		records = append(records, Record{ID: r.ID, Fields: r.Fields})
	}
	return records, nil
}

func (p *airtableProvider) CreateRecord(ctx context.Context, fields map[string]any) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	path := fmt.Sprintf("/v0/%s/%s", p.baseID, url.PathEscape(p.table))
	body := map[string]any{"fields": fields}
	if err := p.client.DoJSON(ctx, http.MethodPost, path, body, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}
