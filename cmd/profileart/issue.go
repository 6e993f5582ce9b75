package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/youruser/profileart/internal/errs"
	"github.com/youruser/profileart/internal/github"
	imagepkg "github.com/youruser/profileart/internal/image"
	"github.com/youruser/profileart/internal/table"
)

const (
	labelDelivered = "decoration"
	labelInvalid   = "invalid"
	labelDenied    = "denied"
)

var issueFlags struct {
	token  string
	number int
	user   string
	title  string
}

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Answer a decoration request issue",
	Long: `Answer a decoration request issue opened from the selection table.

The decoration name is read from the issue title. The reply links the decorated
avatar served under public_url, labels the issue and closes it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if issueFlags.number <= 0 || issueFlags.user == "" {
			return fmt.Errorf("--issue and --user are required")
		}
		if cfg.PublicURL == "" {
			return fmt.Errorf("public_url must be configured to link decorated avatars")
		}
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		gh := a.gh
		if issueFlags.token != "" {
			gh = gh.WithToken(issueFlags.token)
		}
		iss := gh.Issue(cfg.Owner, cfg.Repo, issueFlags.number)
		if err := a.answer(cmd.Context(), iss, issueFlags.user, issueFlags.title); err != nil {
			return err
		}
		if err := iss.Push(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "answered issue #%d\n", iss.Number())
		return nil
	},
}

func init() {
	f := issueCmd.Flags()
	f.StringVar(&issueFlags.token, "token", "", "GitHub token used to reply (default from config)")
	f.IntVar(&issueFlags.number, "issue", 0, "issue number")
	f.StringVar(&issueFlags.user, "user", "", "login of the issue author")
	f.StringVar(&issueFlags.title, "title", "", "issue title")
}

// answer stages the reply to a request on iss. Requests the bot can decide
// (bad title, unknown decoration, denied, unknown user) are answered and
// closed; other failures are returned without touching the issue.
func (a *app) answer(ctx context.Context, iss *github.Issue, user, title string) error {
	reject := func(label, msg string) error {
		iss.AddComment(msg)
		iss.AddLabel(label)
		iss.SetState(github.StateClosed)
		return nil
	}

	name, ok := table.ParseRequestTitle(title)
	if !ok {
		return reject(labelInvalid, fmt.Sprintf(
			"I couldn't find a decoration name in the title. Titles should look like `%s <name>`.", table.RequestTitlePrefix))
	}
	d, err := a.loader.Load(ctx, name)
	if errors.Is(err, errs.ErrNotFound) {
		return reject(labelInvalid, fmt.Sprintf("There is no decoration named `%s`.", name))
	}
	if err != nil {
		return err
	}
	allowed, err := a.gate.CanUse(ctx, d, user)
	if errors.Is(err, errs.ErrUnknownUser) {
		return reject(labelInvalid, fmt.Sprintf("I couldn't find a profile picture for @%s.", user))
	}
	if err != nil {
		return err
	}
	if !allowed {
		msg := fmt.Sprintf("Sorry @%s, the `%s` decoration isn't available to you.", user, name)
		if lt, ok := a.policies.Lookup(d.Type); ok && lt.Label != nil {
			msg += fmt.Sprintf(" It is reserved for: %s.", lt.Label.Text)
		}
		return reject(labelDenied, msg)
	}

	// render once so the linked image is known to work
	avatar, err := imagepkg.DownloadImage(ctx, a.gh.HTTPClient(), a.gh.AvatarURL(user))
	if errors.Is(err, imagepkg.ErrImageNotFound) {
		return reject(labelInvalid, fmt.Sprintf("I couldn't find a profile picture for @%s.", user))
	}
	if err != nil {
		return err
	}
	if _, err := a.compositor.Compose(ctx, d, avatar); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/api/decorations/%s/%s.png",
		strings.TrimSuffix(a.cfg.PublicURL, "/"), url.PathEscape(name), url.PathEscape(user))
	iss.AddComment(fmt.Sprintf("Here is your decorated profile picture, @%s!\n\n![%s](%s)", user, name, link))
	iss.AddLabel(labelDelivered)
	iss.SetState(github.StateClosed)
	return nil
}
