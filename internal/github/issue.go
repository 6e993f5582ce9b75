package github

import (
	"context"
	"fmt"
)

type IssueState string

const (
	StateOpen   IssueState = "open"
	StateClosed IssueState = "closed"
)

// Issue accumulates changes to one issue and sends them on Push.
type Issue struct {
	client   *Client
	owner    string
	repo     string
	number   int
	state    IssueState
	labels   []string
	comments []string
}

func (c *Client) Issue(owner, repo string, number int) *Issue {
	return &Issue{client: c, owner: owner, repo: repo, number: number}
}

func (i *Issue) Number() int { return i.number }

func (i *Issue) SetState(s IssueState) { i.state = s }

func (i *Issue) AddLabel(name string) { i.labels = append(i.labels, name) }

func (i *Issue) AddComment(body string) { i.comments = append(i.comments, body) }

// Pending reports whether Push has anything to send.
func (i *Issue) Pending() bool {
	return i.state != "" || len(i.labels) > 0 || len(i.comments) > 0
}

// Push sends the state and label update first, then each comment in order.
// Sent changes are cleared, so a failed Push can be retried without
// duplicating what already went through.
func (i *Issue) Push(ctx context.Context) error {
	path := fmt.Sprintf("/repos/%s/%s/issues/%d", i.owner, i.repo, i.number)
	if i.state != "" || len(i.labels) > 0 {
		update := map[string]any{}
		if i.state != "" {
			update["state"] = i.state
		}
		if len(i.labels) > 0 {
			update["labels"] = i.labels
		}
		if err := i.client.do(ctx, "PATCH", path, update, nil); err != nil {
			return fmt.Errorf("updating issue #%d: %w", i.number, err)
		}
		i.state, i.labels = "", nil
	}
	for len(i.comments) > 0 {
		body := map[string]string{"body": i.comments[0]}
		if err := i.client.do(ctx, "POST", path+"/comments", body, nil); err != nil {
			return fmt.Errorf("commenting on issue #%d: %w", i.number, err)
		}
		i.comments = i.comments[1:]
	}
	return nil
}
