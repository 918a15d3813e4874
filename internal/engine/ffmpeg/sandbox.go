package ffmpeg

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"framepress/internal/logging"
)

const (
	sandboxPrefix = "engine-"
	lockFileName  = ".lock"
	fsDirName     = "fs"
	runtimeDir    = "runtime"

	// sandboxes without a lock file are left alone for this long since their
	// creator may not have taken the lock yet.
	unlockedGrace = time.Minute
)

type sandbox struct {
	root    string
	fsRoot  string
	runtime string
	lock    *flock.Flock
}

func createSandbox(scratchDir string) (*sandbox, error) {
	root := filepath.Join(scratchDir, sandboxPrefix+uuid.NewString())
	sb := &sandbox{
		root:    root,
		fsRoot:  filepath.Join(root, fsDirName),
		runtime: filepath.Join(root, runtimeDir),
	}
	for _, dir := range []string{sb.fsRoot, sb.runtime} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			_ = os.RemoveAll(root)
			return nil, fmt.Errorf("create sandbox: %w", err)
		}
	}

	sb.lock = flock.New(filepath.Join(root, lockFileName))
	locked, err := sb.lock.TryLock()
	if err != nil {
		_ = os.RemoveAll(root)
		return nil, fmt.Errorf("lock sandbox: %w", err)
	}
	if !locked {
		_ = os.RemoveAll(root)
		return nil, fmt.Errorf("lock sandbox %s: already held", root)
	}
	return sb, nil
}

func (s *sandbox) remove() error {
	err := os.RemoveAll(s.root)
	if unlockErr := s.lock.Unlock(); unlockErr != nil && err == nil {
		err = unlockErr
	}
	return err
}

// path resolves a virtual file name inside fs/. Names must be plain base
// names.
func (s *sandbox) path(name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.fsRoot, name), nil
}

// ErrInvalidName is returned for virtual file names that are not plain base names.
var ErrInvalidName = errors.New("invalid virtual file name")

func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// SweepStale removes sandboxes under scratchDir left behind by processes
// that no longer hold their lock. It returns the number of sandboxes removed.
func SweepStale(scratchDir string, logger *slog.Logger) (int, error) {
	logger = logging.NewComponentLogger(logger, "ffmpeg")
	roots, err := sandboxRoots(scratchDir)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, root := range roots {
		lock, ok := claimStale(root)
		if !ok {
			continue
		}
		if err := os.RemoveAll(root); err != nil {
			logger.Warn("stale sandbox removal failed", logging.String("path", root), logging.Error(err))
		} else {
			removed++
			logger.Debug("removed stale sandbox", logging.String("path", root))
		}
		_ = lock.Unlock()
	}
	return removed, nil
}

// SandboxSummary counts the engine sandboxes under a scratch directory.
type SandboxSummary struct {
	// Live sandboxes are held by a running engine or still being created.
	Live int
	// Stale sandboxes would be removed by the next sweep.
	Stale int
}

// InspectSandboxes reports live and stale sandboxes without removing any.
func InspectSandboxes(scratchDir string) (SandboxSummary, error) {
	roots, err := sandboxRoots(scratchDir)
	if err != nil {
		return SandboxSummary{}, err
	}
	var summary SandboxSummary
	for _, root := range roots {
		lock, ok := claimStale(root)
		if !ok {
			summary.Live++
			continue
		}
		summary.Stale++
		_ = lock.Unlock()
	}
	return summary, nil
}

func sandboxRoots(scratchDir string) ([]string, error) {
	entries, err := os.ReadDir(scratchDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read scratch dir: %w", err)
	}
	roots := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), sandboxPrefix) {
			roots = append(roots, filepath.Join(scratchDir, entry.Name()))
		}
	}
	return roots, nil
}

// claimStale locks root's lock file when no live engine holds it. The caller
// must unlock the returned lock.
func claimStale(root string) (*flock.Flock, bool) {
	lockPath := filepath.Join(root, lockFileName)
	if _, err := os.Stat(lockPath); errors.Is(err, fs.ErrNotExist) {
		info, infoErr := os.Stat(root)
		if infoErr != nil || time.Since(info.ModTime()) < unlockedGrace {
			return nil, false
		}
	}
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil || !locked {
		return nil, false
	}
	return lock, true
}
