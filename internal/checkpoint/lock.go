package checkpoint

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

const (
	lockDirName   = ".scrape.lock"
	lockOwnerFile = "owner.json"
)

// Lock marks a checkpoint directory as owned by one process. Two processes
// flushing the same checkpoint path would corrupt each other's progress, so
// acquisition fails when another live lock exists.
type Lock struct {
	lockDir string
}

type lockOwner struct {
	PID       int    `json:"pid"`
	CreatedAt string `json:"created_at"`
	Hostname  string `json:"hostname,omitempty"`
}

// AcquireLock claims single-writer ownership of dir. The lock is a
// directory, created atomically, holding an owner record for diagnostics.
// A lock left behind by a hard-killed process on this host is reclaimed
// when its recorded PID is no longer alive.
func AcquireLock(dir string) (Lock, error) {
	if dir == "" {
		return Lock{}, fmt.Errorf("checkpoint directory is required")
	}

	lockDir := filepath.Join(dir, lockDirName)
	reclaimed := false
	for {
		err := os.Mkdir(lockDir, 0o750)
		if err == nil {
			break
		}
		if !os.IsExist(err) {
			return Lock{}, fmt.Errorf("acquire checkpoint lock for %s: %w", dir, err)
		}

		ownerPath := filepath.Join(lockDir, lockOwnerFile)
		var owner lockOwner
		readErr := readJSON(ownerPath, &owner)
		if !reclaimed && readErr == nil && ownerIsDead(owner) {
			if rmErr := os.RemoveAll(lockDir); rmErr != nil {
				return Lock{}, fmt.Errorf("reclaim stale checkpoint lock %s: %w", lockDir, rmErr)
			}
			reclaimed = true
			continue
		}
		if readErr == nil && owner.PID > 0 {
			return Lock{}, fmt.Errorf(
				"checkpoint directory is locked: %s (pid=%d created_at=%s host=%s); remove %s if no scraper is running",
				dir, owner.PID, owner.CreatedAt, owner.Hostname, lockDir,
			)
		}
		return Lock{}, fmt.Errorf(
			"checkpoint directory is locked: %s; remove %s if no scraper is running",
			dir, lockDir,
		)
	}

	owner := lockOwner{
		PID:       os.Getpid(),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Hostname:  hostnameOrUnknown(),
	}
	if err := writeJSONAtomic(filepath.Join(lockDir, lockOwnerFile), owner); err != nil {
		_ = os.RemoveAll(lockDir)
		return Lock{}, fmt.Errorf("write checkpoint lock owner for %s: %w", dir, err)
	}

	return Lock{lockDir: lockDir}, nil
}

// Release removes the lock. Safe to call on a zero-value Lock.
func (l Lock) Release() error {
	if l.lockDir == "" {
		return nil
	}
	if err := os.RemoveAll(l.lockDir); err != nil {
		return fmt.Errorf("release checkpoint lock %s: %w", l.lockDir, err)
	}
	return nil
}

// ownerIsDead reports whether the recorded owner can no longer be running:
// same host, and its PID no longer maps to a live process. Owners on other
// hosts are never reclaimed.
func ownerIsDead(owner lockOwner) bool {
	if owner.PID <= 0 || owner.Hostname != hostnameOrUnknown() {
		return false
	}
	proc, err := os.FindProcess(owner.PID)
	if err != nil {
		return true
	}
	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrProcessDone) || errors.Is(err, syscall.ESRCH) {
		return true
	}
	// EPERM means the PID exists under another user.
	return false
}

func hostnameOrUnknown() string {
	name, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return name
}
