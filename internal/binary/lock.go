package binary

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// StaleLockThreshold is the maximum age of a lock before it's considered stale.
	StaleLockThreshold = 10 * time.Minute
	// DefaultLockPoll is how often a busy lock is retried.
	DefaultLockPoll = 100 * time.Millisecond
)

var ErrLockExists = errors.New("provisioning lock exists: another process is provisioning this binary")

// Lock is a per-key provisioning lock held across processes.
type Lock struct {
	path string
	file *os.File
}

// AcquireLock blocks until the lock file at path is created by this process
// or ctx is done. A lock older than StaleLockThreshold is taken over.
func AcquireLock(ctx context.Context, path string, poll time.Duration) (*Lock, error) {
	if poll <= 0 {
		poll = DefaultLockPoll
	}

	for {
		lock, err := tryLock(path)
		if err == nil {
			return lock, nil
		}
		if !errors.Is(err, ErrLockExists) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("wait for lock %s: %w", filepath.Base(path), ctx.Err())
		case <-time.After(poll):
		}
	}
}

// tryLock uses O_CREATE|O_EXCL for atomic lock creation.
func tryLock(lockPath string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
	if err != nil {
		if !os.IsExist(err) {
			return nil, fmt.Errorf("create lock file: %w", err)
		}
		info, stale := staleLock(lockPath)
		if !stale {
			return nil, ErrLockExists
		}
		discardStale(lockPath, info)
		file, err = os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
		if err != nil {
			return nil, ErrLockExists
		}
	}

	// Write lock metadata (PID and timestamp)
	lockData := fmt.Sprintf("pid=%d\ntimestamp=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	if _, err := file.WriteString(lockData); err != nil {
		file.Close()
		os.Remove(lockPath)
		return nil, fmt.Errorf("write lock data: %w", err)
	}

	return &Lock{
		path: lockPath,
		file: file,
	}, nil
}

// Release releases the lock.
func (l *Lock) Release() error {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}

	if l.path != "" {
		if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove lock file: %w", err)
		}
		l.path = ""
	}

	return nil
}

// staleLock reports whether the lock file is older than StaleLockThreshold,
// returning the file it looked at.
func staleLock(lockPath string) (os.FileInfo, bool) {
	info, err := os.Stat(lockPath)
	if err != nil {
		return nil, false
	}
	return info, time.Since(info.ModTime()) > StaleLockThreshold
}

// discardStale moves the lock found stale out of the way. The file is
// renamed aside first and checked: when it is not the one judged stale,
// another process took the lock over in between and its lock is put back.
func discardStale(lockPath string, stale os.FileInfo) {
	aside := fmt.Sprintf("%s.stale-%d-%d", lockPath, os.Getpid(), time.Now().UnixNano())
	if err := os.Rename(lockPath, aside); err != nil {
		return
	}
	defer os.Remove(aside)

	moved, err := os.Stat(aside)
	if err != nil || os.SameFile(stale, moved) {
		return
	}
	// Link never replaces an existing lock.
	_ = os.Link(aside, lockPath)
}
