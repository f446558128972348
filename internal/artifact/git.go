package artifact

import (
	"errors"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/rs/zerolog/log"
)

// Commit records the current artifact tree in a git repository rooted at the
// output directory, initializing it on first use. A clean tree is a no-op,
// which keeps repeated generation of an unchanged model from growing history.
func (w *Writer) Commit(message string) error {
	repo, err := git.PlainOpen(w.dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		repo, err = git.PlainInit(w.dir, false)
	}
	if err != nil {
		return err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return err
	}
	status, err := wt.Status()
	if err != nil {
		return err
	}
	if status.IsClean() {
		log.Debug().Msg("artifact tree unchanged, nothing to commit")
		return nil
	}

	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return err
	}
	hash, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "homelabctl",
			Email: "homelabctl@localhost",
			When:  time.Now(),
		},
	})
	if err != nil {
		return err
	}
	log.Info().Str("commit", hash.String()).Msg("artifacts committed")
	return nil
}
