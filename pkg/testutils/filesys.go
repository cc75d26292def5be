package testutils

import (
	"path/filepath"

	"github.com/mandelsoft/vfs/pkg/composefs"
	"github.com/mandelsoft/vfs/pkg/layerfs"
	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mandelsoft/vfs/pkg/projectionfs"
	"github.com/mandelsoft/vfs/pkg/readonlyfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
)

// TestFileSystem provides a temporary file system with the real directory
// dir mounted at dir. Unless readonly, writes below dir end up in a
// temporary layer and the real directory is never modified.
func TestFileSystem(dir string, readonly bool) (vfs.FileSystem, error) {
	tmpfs, err := osfs.NewTempFileSystem()
	if err != nil {
		return nil, err
	}
	fs, err := mountDir(tmpfs, dir, readonly)
	if err != nil {
		vfs.Cleanup(tmpfs)
		return nil, err
	}
	return fs, nil
}

func mountDir(tmpfs vfs.FileSystem, dir string, readonly bool) (vfs.FileSystem, error) {
	if err := tmpfs.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	base, err := projectionfs.New(osfs.OsFs, dir)
	if err != nil {
		return nil, err
	}
	if readonly {
		base = readonlyfs.New(base)
	} else {
		upper, err := projectionfs.New(tmpfs, dir)
		if err != nil {
			return nil, err
		}
		base = layerfs.New(upper, base)
	}

	fs := composefs.New(tmpfs, "/tmp")
	if err := fs.Mount(dir, base); err != nil {
		return nil, err
	}
	return fs, nil
}

// TempFileSystem creates a temporary file system holding the given files.
// Missing parent directories are created.
func TempFileSystem(files map[string]string) (vfs.FileSystem, error) {
	fs, err := osfs.NewTempFileSystem()
	if err != nil {
		return nil, err
	}
	for path, content := range files {
		if err := fs.MkdirAll(filepath.Dir(path), 0o755); err == nil {
			err = vfs.WriteFile(fs, path, []byte(content), 0o600)
		}
		if err != nil {
			vfs.Cleanup(fs)
			return nil, err
		}
	}
	return fs, nil
}
