package gitcmd

import (
	"time"

	"github.com/go-git/go-git/v5/plumbing/object"
)

// newSignature builds the author/committer signature for a commit from the
// validated identity arguments. The host supplies name and email; the
// timestamp is the dispatch time.
func newSignature(name, email string) *object.Signature {
	return &object.Signature{
		Name:  name,
		Email: email,
		When:  time.Now(),
	}
}
