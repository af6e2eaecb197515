package export

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/eugene-nechvoloda/meetyai/httpapi"
	"github.com/eugene-nechvoloda/meetyai/store"
)

// jiraProvider exports insights as Jira issues over the REST v2 API,
// which both Cloud and Server deployments accept. The credential is the
// account email (key) plus an API token (secret), sent as basic auth.
type jiraProvider struct {
	client     *httpapi.Client
	projectKey string
}

func newJiraProvider(creds Credentials, cfg store.ExportConfig) (Provider, error) {
	if cfg.APIEndpoint == "" {
		return nil, fmt.Errorf("jira: api endpoint is required")
	}
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("jira: project key is required")
	}
	if creds.APISecret == "" {
		return nil, fmt.Errorf("jira: api token is required")
	}

	basic := base64.StdEncoding.EncodeToString([]byte(creds.APIKey + ":" + creds.APISecret))
	client := httpapi.NewClient(httpapi.ClientConfig{
		BaseURL:     strings.TrimSuffix(cfg.APIEndpoint, "/"),
		ServiceName: ProviderJira,
		BeforeRequest: func(req *http.Request) {
			req.Header.Set("Authorization", "Basic "+basic)
		},
	})

	return &jiraProvider{client: client, projectKey: cfg.ProjectID}, nil
}

func (p *jiraProvider) TestConnection(ctx context.Context) error {
	var out struct {
		Key string `json:"key"`
	}
	path := "/rest/api/2/project/" + url.PathEscape(p.projectKey)
	if err := p.client.DoJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return fmt.Errorf("jira: access project %s: %w", p.projectKey, err)
	}
	return nil
}

// FetchFields is unsupported: exported issues use the fixed summary and
// description fields.
func (p *jiraProvider) FetchFields(ctx context.Context) ([]Field, error) {
	return nil, fmt.Errorf("jira: field listing: %w", ErrNotImplemented)
}

func (p *jiraProvider) FetchExistingRecords(ctx context.Context) ([]Record, error) {
	var out struct {
		Issues []struct {
			Key    string `json:"key"`
			Fields struct {
				Summary     string `json:"summary"`
				Description string `json:"description"`
			} `json:"fields"`
		} `json:"issues"`
	}
	jql := url.QueryEscape(fmt.Sprintf("project = %s ORDER BY created DESC", p.projectKey))
	path := "/rest/api/2/search?maxResults=100&fields=summary,description&jql=" + jql
	if err := p.client.DoJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("jira: search issues: %w", err)
	}

	records := make([]Record, 0, len(out.Issues))
	for _, issue := range out.Issues {
		records = append(records, Record{
			ID: issue.Key,
			Fields: map[string]any{
				"title":       issue.Fields.Summary,
				"description": issue.Fields.Description,
			},
		})
	}
	return records, nil
}

func (p *jiraProvider) CreateRecord(ctx context.Context, fields map[string]any) (string, error) {
	body := map[string]any{
		"fields": map[string]any{
			"project":     map[string]string{"key": p.projectKey},
			"summary":     issueTitle(fields),
			"description": issueBody(fields),
			"issuetype":   map[string]string{"name": "Task"},
		},
	}

	var out struct {
		Key string `json:"key"`
	}
	if err := p.client.DoJSON(ctx, http.MethodPost, "/rest/api/2/issue", body, &out); err != nil {
		return "", fmt.Errorf("jira: create issue: %w", err)
	}
	return out.Key, nil
}
