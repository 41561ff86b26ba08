// Package screenlock guards the physical input devices so that only one
// automation session drives them at a time.
//
// Within a process the lock is an owner token. Across processes it is backed by
// an advisory file lock, so two test binaries started side by side do not
// interleave their input.
package screenlock

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/Norgate-AV/uirobot/internal/failure"
)

// Owner identifies a lock holder.
type Owner struct {
	id   uuid.UUID
	name string
}

// NewOwner returns a fresh, unique owner. name is used in diagnostics only.
func NewOwner(name string) Owner {
	return Owner{id: uuid.New(), name: name}
}

func (o Owner) String() string {
	if o.name == "" {
		return o.id.String()
	}

	return fmt.Sprintf("%s (%s)", o.name, o.id)
}

// IsZero reports whether o is the zero Owner.
func (o Owner) IsZero() bool {
	return o.id == uuid.Nil
}

// Lock is an exclusive, fail-fast screen lock.
type Lock struct {
	mu     sync.Mutex
	holder Owner
	file   *flock.Flock
}

// Options configure a Lock.
type Options struct {
	// FilePath enables the cross-process guard. Empty keeps the lock in-process.
	FilePath string
}

// New returns an unheld Lock.
func New(opts Options) *Lock {
	l := &Lock{}

	if opts.FilePath != "" {
		l.file = flock.New(opts.FilePath)
	}

	return l
}

// DefaultFilePath returns the lock file for sessions that drive the real
// screen and want a cross-process guard without naming a path.
func DefaultFilePath() string {
	return filepath.Join(os.TempDir(), "uirobot-screen.lock")
}

var (
	shared     *Lock
	sharedOnce sync.Once
)

// Shared returns the lock shared by every session in this process.
func Shared() *Lock {
	sharedOnce.Do(func() {
		shared = New(Options{})
	})

	return shared
}

// Acquire takes the lock for owner. It never blocks: if a different owner
// holds the lock, in this process or another, it returns *failure.LockFailureError.
// Acquiring a lock already held by owner is a no-op.
func (l *Lock) Acquire(owner Owner) error {
	failure.Precondition(!owner.IsZero(), "screen lock owner must not be the zero Owner")

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.holder == owner {
		return nil
	}

	if !l.holder.IsZero() {
		return &failure.LockFailureError{Holder: l.holder.String()}
	}

	if l.file != nil {
		ok, err := l.file.TryLock()
		if err != nil {
			return fmt.Errorf("failed to lock %s: %w", l.file.Path(), err)
		}

		if !ok {
			return &failure.LockFailureError{Holder: "another process (" + l.file.Path() + ")"}
		}
	}

	l.holder = owner

	return nil
}

// AcquiredBy reports whether owner currently holds the lock.
func (l *Lock) AcquiredBy(owner Owner) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return !owner.IsZero() && l.holder == owner
}

// Release releases the lock if owner holds it and is a no-op otherwise.
func (l *Lock) Release(owner Owner) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if owner.IsZero() || l.holder != owner {
		return nil
	}

	l.holder = Owner{}

	if l.file != nil {
		if err := l.file.Unlock(); err != nil {
			return fmt.Errorf("failed to unlock %s: %w", l.file.Path(), err)
		}
	}

	return nil
}
