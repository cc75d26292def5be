package calculator

import (
	"context"

	"github.com/mandelsoft/meshcalc/pkg/mesh"
)

// Store persists derived datasets. It returns a location describing where
// the dataset has been stored.
type Store interface {
	Store(ctx context.Context, m *mesh.Mesh, ds *mesh.Dataset) (string, error)
}

// MeshStore registers derived datasets at the mesh they are calculated for.
type MeshStore struct{}

var _ Store = MeshStore{}

func (MeshStore) Store(ctx context.Context, m *mesh.Mesh, ds *mesh.Dataset) (string, error) {
	if err := m.AddDataset(ds); err != nil {
		return "", err
	}
	return m.Name() + ":" + ds.Name, nil
}
