package netcdf

import (
	"context"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/mandelsoft/logging"
	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mandelsoft/vfs/pkg/vfs"

	"github.com/mandelsoft/meshcalc/pkg/calculator"
	"github.com/mandelsoft/meshcalc/pkg/mesh"
	"github.com/mandelsoft/meshcalc/pkg/utils"
)

var REALM = logging.DefineRealm("meshcalc/storage", "NetCDF dataset storage")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)

const SUFFIX = ".nc"

// Store writes every derived dataset into a separate file of a directory.
type Store struct {
	fs  vfs.FileSystem
	dir string
}

var _ calculator.Store = (*Store)(nil)

func New(dir string, fss ...vfs.FileSystem) (*Store, error) {
	fs := utils.OptionalDefaulted(vfs.FileSystem(osfs.OsFs), fss...)

	err := fs.MkdirAll(dir, 0o755)
	if err != nil {
		return nil, err
	}
	return &Store{fs: fs, dir: dir}, nil
}

func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, FileName(name)+SUFFIX)
}

func (s *Store) Store(ctx context.Context, m *mesh.Mesh, ds *mesh.Dataset) (string, error) {
	path := s.Path(ds.Name)
	if err := Write(s.fs, path, m, ds); err != nil {
		return "", err
	}
	log.Debug("written {{dataset}} to {{path}}", "dataset", ds.Name, "path", path)
	return path, nil
}

// Load reads a previously stored dataset.
func (s *Store) Load(name string, m *mesh.Mesh) (*mesh.Dataset, error) {
	return Read(s.fs, s.Path(name), m)
}

// FileName maps a dataset name to a file name. Characters other than
// letters, digits, '-', '_' and '.' are replaced by '_'.
func FileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("-_.", r) {
			return r
		}
		return '_'
	}, name)
}
