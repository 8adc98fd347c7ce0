package console

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Banner fallbacks used when the latest commit message is unavailable.
const (
	UnknownCommit = "Unknown Commit"
	CommitError   = "Error fetching commit"
)

// ErrNoCommit reports that the repository has no commit to show.
var ErrNoCommit = errors.New("no commit")

// CommitFunc returns the latest commit message of the site repository.
type CommitFunc func(ctx context.Context) (string, error)

// NewBanner returns a BannerFunc rendering "<name> [Version <version>] | <message>".
// A commit lookup that fails never fails the banner.
func NewBanner(name, version string, commit CommitFunc, log *zap.Logger) BannerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(ctx context.Context) string {
		message := UnknownCommit
		if commit != nil {
			msg, err := commit(ctx)
			switch {
			case errors.Is(err, ErrNoCommit):
				log.Warn("no commits found in the repository")
			case err != nil:
				log.Warn("failed to fetch last commit", zap.Error(err))
				message = CommitError
			case msg != "":
				message = msg
			}
		}
		return fmt.Sprintf("%s [Version %s] | %s", name, version, message)
	}
}
