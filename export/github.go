package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/eugene-nechvoloda/meetyai/store"
)

// githubProvider exports insights as GitHub issues.
type githubProvider struct {
	client *github.Client
	owner  string
	repo   string
}

func newGitHubProvider(creds Credentials, cfg store.ExportConfig) (Provider, error) {
	owner, repo, ok := strings.Cut(cfg.ProjectID, "/")
	if !ok || owner == "" || repo == "" {
		return nil, fmt.Errorf("github: project id must be owner/repo, got %q", cfg.ProjectID)
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: creds.APIKey})
	tc := oauth2.NewClient(context.Background(), ts)
	client := github.NewClient(tc)

	if cfg.APIEndpoint != "" {
		var err error
		client, err = client.WithEnterpriseURLs(cfg.APIEndpoint, cfg.APIEndpoint)
		if err != nil {
			return nil, fmt.Errorf("github: configure endpoint: %w", err)
		}
	}

	return &githubProvider{client: client, owner: owner, repo: repo}, nil
}

func (p *githubProvider) TestConnection(ctx context.Context) error {
	_, _, err := p.client.Repositories.Get(ctx, p.owner, p.repo)
	if err != nil {
		return fmt.Errorf("github: access %s/%s: %w", p.owner, p.repo, err)
	}
	return nil
}

// FetchFields is unsupported: GitHub issues have a fixed schema.
func (p *githubProvider) FetchFields(ctx context.Context) ([]Field, error) {
	return nil, fmt.Errorf("github: field listing: %w", ErrNotImplemented)
}

func (p *githubProvider) FetchExistingRecords(ctx context.Context) ([]Record, error) {
	issues, _, err := p.client.Issues.ListByRepo(ctx, p.owner, p.repo, &github.IssueListByRepoOptions{
		State:       "all",
		ListOptions: github.ListOptions{PerPage: 100},
	})
	if err != nil {
		return nil, fmt.Errorf("github: list issues: %w", err)
	}

	records := make([]Record, 0, len(issues))
	for _, issue := range issues {
		if issue.IsPullRequest() {
			continue
		}
		records = append(records, Record{
			ID: fmt.Sprintf("%d", issue.GetNumber()),
			Fields: map[string]any{
				"title":       issue.GetTitle(),
				"description": issue.GetBody(),
			},
		})
	}
	return records, nil
}

func (p *githubProvider) CreateRecord(ctx context.Context, fields map[string]any) (string, error) {
	issue, _, err := p.client.Issues.Create(ctx, p.owner, p.repo, &github.IssueRequest{
		Title: github.String(issueTitle(fields)),
		Body:  github.String(issueBody(fields)),
	})
	if err != nil {
		return "", fmt.Errorf("github: create issue: %w", err)
	}
	return fmt.Sprintf("%d", issue.GetNumber()), nil
}
