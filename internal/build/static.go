package build

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// copyStatic copies every file under srcDir to the same relative path under
// dstDir and returns how many files were copied. Per-file failures are
// reported through onError and do not stop the copy.
func copyStatic(ctx context.Context, fs afero.Fs, srcDir, dstDir string, onError func(path string, err error)) (int, error) {
	copied := 0
	err := afero.Walk(fs, srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			onError(path, err)
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dstDir, rel)

		if info.IsDir() {
			if err := fs.MkdirAll(target, 0o755); err != nil {
				onError(path, err)
				return filepath.SkipDir
			}
			return nil
		}

		if err := copyFile(fs, path, target, info.Mode()); err != nil {
			onError(path, err)
			return nil
		}
		copied++
		return nil
	})
	return copied, err
}

func copyFile(fs afero.Fs, src, dst string, mode os.FileMode) error {
	in, err := fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
