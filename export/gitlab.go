package export

import (
	"context"
	"fmt"
	"strconv"

	"github.com/xanzy/go-gitlab"

	"github.com/eugene-nechvoloda/meetyai/store"
)

// gitlabProvider exports insights as GitLab issues.
type gitlabProvider struct {
	client    *gitlab.Client
	projectID string
}

func newGitLabProvider(creds Credentials, cfg store.ExportConfig) (Provider, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("gitlab: project id is required")
	}

	var (
		client *gitlab.Client
		err    error
	)
	if cfg.APIEndpoint != "" {
		client, err = gitlab.NewClient(creds.APIKey, gitlab.WithBaseURL(cfg.APIEndpoint))
	} else {
		client, err = gitlab.NewClient(creds.APIKey)
	}
	if err != nil {
		return nil, fmt.Errorf("gitlab: create client: %w", err)
	}

	return &gitlabProvider{client: client, projectID: cfg.ProjectID}, nil
}

func (p *gitlabProvider) TestConnection(ctx context.Context) error {
	_, _, err := p.client.Projects.GetProject(p.projectID, nil, gitlab.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("gitlab: access project %s: %w", p.projectID, err)
	}
	return nil
}

// FetchFields is unsupported: GitLab issues have a fixed schema.
func (p *gitlabProvider) FetchFields(ctx context.Context) ([]Field, error) {
	return nil, fmt.Errorf("gitlab: field listing: %w", ErrNotImplemented)
}

func (p *gitlabProvider) FetchExistingRecords(ctx context.Context) ([]Record, error) {
	issues, _, err := p.client.Issues.ListProjectIssues(p.projectID, &gitlab.ListProjectIssuesOptions{
		ListOptions: gitlab.ListOptions{PerPage: 100},
	}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("gitlab: list issues: %w", err)
	}

	records := make([]Record, 0, len(issues))
	for _, issue := range issues {
		records = append(records, Record{
			ID: strconv.Itoa(issue.IID),
			Fields: map[string]any{
				"title":       issue.Title,
				"description": issue.Description,
			},
		})
	}
	return records, nil
}

func (p *gitlabProvider) CreateRecord(ctx context.Context, fields map[string]any) (string, error) {
	issue, _, err := p.client.Issues.CreateIssue(p.projectID, &gitlab.CreateIssueOptions{
		Title:       gitlab.Ptr(issueTitle(fields)),
		Description: gitlab.Ptr(issueBody(fields)),
	}, gitlab.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("gitlab: create issue: %w", err)
	}
	return strconv.Itoa(issue.IID), nil
}
