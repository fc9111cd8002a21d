package components

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/rakunlabs/flow"
	"github.com/rakunlabs/flow/variant"
)

// GitSync is an entry component: on its single cycle-1 firing it clones the
// repository into Dir if absent, otherwise opens it and pulls, then emits
// the resulting HEAD commit hash. Grounded on go-git's documented
// PlainClone/PlainOpen+Pull idiom.
type GitSync struct {
	Out flow.PortID

	URL string
	Dir string
}

func (c *GitSync) Kind() flow.ComponentKind { return flow.Lazy }
func (c *GitSync) Inputs() *flow.Ports      { return flow.NewPorts(nil) }
func (c *GitSync) Outputs() *flow.Ports     { return flow.NewPorts([]flow.Port{{ID: c.Out}}) }

func (c *GitSync) Run(ctx *flow.Context) (flow.Signal, error) {
	repo, err := git.PlainClone(c.Dir, false, &git.CloneOptions{URL: c.URL})
	if errors.Is(err, git.ErrRepositoryAlreadyExists) {
		repo, err = git.PlainOpen(c.Dir)
		if err != nil {
			return flow.Continue, fmt.Errorf("components: git_sync: open: %w", err)
		}

		wt, wtErr := repo.Worktree()
		if wtErr != nil {
			return flow.Continue, fmt.Errorf("components: git_sync: worktree: %w", wtErr)
		}
		if pullErr := wt.Pull(&git.PullOptions{}); pullErr != nil && !errors.Is(pullErr, git.NoErrAlreadyUpToDate) {
			return flow.Continue, fmt.Errorf("components: git_sync: pull: %w", pullErr)
		}
	} else if err != nil {
		return flow.Continue, fmt.Errorf("components: git_sync: clone: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return flow.Continue, fmt.Errorf("components: git_sync: head: %w", err)
	}

	ctx.Send(c.Out, variant.String(head.Hash().String()))
	return flow.Continue, nil
}
