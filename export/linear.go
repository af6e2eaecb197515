package export

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/eugene-nechvoloda/meetyai/httpapi"
	"github.com/eugene-nechvoloda/meetyai/store"
)

const linearBaseURL = "https://api.linear.app"

// linearProvider exports insights as Linear issues via the GraphQL API.
type linearProvider struct {
	client    *httpapi.Client
	teamID    string
	projectID string
}

func newLinearProvider(creds Credentials, cfg store.ExportConfig) (Provider, error) {
	if cfg.TeamID == "" {
		return nil, fmt.Errorf("linear: team id is required")
	}

	baseURL := cfg.APIEndpoint
	if baseURL == "" {
		baseURL = linearBaseURL
	}

	client := httpapi.NewClient(httpapi.ClientConfig{
		BaseURL:     baseURL,
		ServiceName: ProviderLinear,
		BeforeRequest: func(req *http.Request) {
			// Linear personal API keys are sent bare, without a scheme.
			req.Header.Set("Authorization", creds.APIKey)
		},
	})

	return &linearProvider{client: client, teamID: cfg.TeamID, projectID: cfg.ProjectID}, nil
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

func (p *linearProvider) query(ctx context.Context, req graphqlRequest, data any) error {
	var out struct {
		Errors []graphqlError  `json:"errors"`
		Data   json.RawMessage `json:"data"`
	}
	if err := p.client.DoJSON(ctx, http.MethodPost, "/graphql", req, &out); err != nil {
		return err
	}
	if len(out.Errors) > 0 {
		return fmt.Errorf("linear: %s", out.Errors[0].Message)
	}
	if data != nil {
		if err := json.Unmarshal(out.Data, data); err != nil {
			return fmt.Errorf("linear: decode response: %w", err)
		}
	}
	return nil
}

func (p *linearProvider) TestConnection(ctx context.Context) error {
	var data struct {
		Team *struct {
			ID string `json:"id"`
		} `json:"team"`
	}
	err := p.query(ctx, graphqlRequest{
		Query:     `query Team($id: String!) { team(id: $id) { id name } }`,
		Variables: map[string]any{"id": p.teamID},
	}, &data)
	if err != nil {
		return err
	}
	if data.Team == nil {
		return fmt.Errorf("linear: team %s not found", p.teamID)
	}
	return nil
}

// FetchFields is unsupported: Linear issues have a fixed schema, so
// mapping targets the canonical title and description fields directly.
func (p *linearProvider) FetchFields(ctx context.Context) ([]Field, error) {
	return nil, fmt.Errorf("linear: field listing: %w", ErrNotImplemented)
}

func (p *linearProvider) FetchExistingRecords(ctx context.Context) ([]Record, error) {
	var data struct {
		Team struct {
			Issues struct {
				Nodes []struct {
					Identifier  string `json:"identifier"`
					Title       string `json:"title"`
					Description string `json:"description"`
				} `json:"nodes"`
			} `json:"issues"`
		} `json:"team"`
	}
	err := p.query(ctx, graphqlRequest{
		Query: `query TeamIssues($id: String!) {
  team(id: $id) { issues(first: 100) { nodes { identifier title description } } }
}`,
		Variables: map[string]any{"id": p.teamID},
	}, &data)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(data.Team.Issues.Nodes))
	for _, n := range data.Team.Issues.Nodes {
		records = append(records, Record{
			ID: n.Identifier,
			Fields: map[string]any{
				"title":       n.Title,
				"description": n.Description,
			},
		})
	}
	return records, nil
}

func (p *linearProvider) CreateRecord(ctx context.Context, fields map[string]any) (string, error) {
	input := map[string]any{
		"teamId":      p.teamID,
		"title":       issueTitle(fields),
		"description": issueBody(fields),
	}
	if p.projectID != "" {
		input["projectId"] = p.projectID
	}

	var data struct {
		IssueCreate struct {
			Success bool `json:"success"`
			Issue   struct {
				Identifier string `json:"identifier"`
			} `json:"issue"`
		} `json:"issueCreate"`
	}
	err := p.query(ctx, graphqlRequest{
		Query: `mutation IssueCreate($input: IssueCreateInput!) {
  issueCreate(input: $input) { success issue { id identifier } }
}`,
		Variables: map[string]any{"input": input},
	}, &data)
	if err != nil {
		return "", err
	}
	if !data.IssueCreate.Success {
		return "", fmt.Errorf("linear: issue creation was not successful")
	}
	return data.IssueCreate.Issue.Identifier, nil
}
