package project

import (
	"context"
	"sync"

	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mandelsoft/vfs/pkg/vfs"

	"github.com/mandelsoft/meshcalc/pkg/calculator"
	"github.com/mandelsoft/meshcalc/pkg/mesh"
	"github.com/mandelsoft/meshcalc/pkg/utils"
)

// Store registers derived datasets at their mesh and rewrites the project
// file.
type Store struct {
	lock sync.Mutex
	fs   vfs.FileSystem
	path string
}

var _ calculator.Store = (*Store)(nil)

func NewStore(path string, fss ...vfs.FileSystem) *Store {
	return &Store{
		fs:   utils.OptionalDefaulted(vfs.FileSystem(osfs.OsFs), fss...),
		path: path,
	}
}

func (s *Store) Store(ctx context.Context, m *mesh.Mesh, ds *mesh.Dataset) (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := m.AddDataset(ds); err != nil {
		return "", err
	}
	if err := Save(m, s.path, s.fs); err != nil {
		return "", err
	}
	return s.path + "#" + ds.Name, nil
}
