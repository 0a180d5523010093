package filesystem

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"xpoz/internal/logging"
)

// renameFile is swapped in tests to simulate cross-device renames.
var renameFile = os.Rename

// publishedFileMode is applied to files copied into the publish directory.
const publishedFileMode os.FileMode = 0o644

// AtomicMove moves src to dst so that dst never exists in a partially
// written state. A same-filesystem move is a single rename. When src and
// dst live on different filesystems the file is copied to a hidden
// sibling of dst, synced, and renamed into place; src is removed after.
func AtomicMove(src, dst string) error {
	err := RenameWithRetry(src, dst, DefaultRetryConfig())
	if err == nil {
		return nil
	}
	if !isCrossDevice(err) {
		return err
	}

	volume := defaultResolver.Resolve(dst)
	if obs := observe(); obs != nil {
		obs.ObserveCopyFallback(volume)
	}
	logging.Debug("Rename %s -> %s crosses filesystems, copying", src, dst)

	if err := copyIntoPlace(src, dst); err != nil {
		return err
	}

	if err := os.Remove(src); err != nil && !os.IsNotExist(err) {
		logging.Warn("Failed to remove %s after copy: %v", src, err)
	}
	return nil
}

func isCrossDevice(err error) bool {
	return errors.Is(err, unix.EXDEV)
}

// copyIntoPlace writes src to a hidden temporary file in dst's directory and
// renames it over dst. The temporary file is removed on any failure.
func copyIntoPlace(src, dst string) (err error) {
	in, err := OpenWithRetry(src, DefaultRetryConfig())
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".partial-*")
	if err != nil {
		return fmt.Errorf("create temporary file for %s: %w", dst, err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			_ = tmp.Close()
			if removeErr := os.Remove(tmpName); removeErr != nil && !os.IsNotExist(removeErr) {
				logging.Warn("Failed to remove temporary file %s: %v", tmpName, removeErr)
			}
		}
	}()

	if _, err = io.Copy(tmp, in); err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err = tmp.Chmod(publishedFileMode); err != nil {
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err = RenameWithRetry(tmpName, dst, DefaultRetryConfig()); err != nil {
		return fmt.Errorf("rename %s: %w", tmpName, err)
	}
	return nil
}
