// Package jobs runs batches of calculations described by HCL job files.
//
//	mesh     = "${PROJECT_DIR}/channel.yaml"
//	output   = "results"
//	parallel = 2
//
//	calculation "max_level" {
//	  formula = "MAX_AGGR(bed + depth)"
//	  start   = 0
//	  end     = 12
//	}
//
// Variables of the form ${NAME} are substituted before the file is parsed.
// Relative paths are resolved against the directory of the job file.
package jobs

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/drone/envsubst"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mandelsoft/vfs/pkg/vfs"

	"github.com/mandelsoft/meshcalc/pkg/calculator"
	"github.com/mandelsoft/meshcalc/pkg/extent"
	"github.com/mandelsoft/meshcalc/pkg/mesh"
	"github.com/mandelsoft/meshcalc/pkg/utils"
)

type File struct {
	// Mesh is the project file providing the mesh and its datasets.
	Mesh string `hcl:"mesh"`
	// Output is a directory for NetCDF results. Without output directory
	// the results are written back to the project file.
	Output   string `hcl:"output,optional"`
	Parallel int    `hcl:"parallel,optional"`
	Timeout  string `hcl:"timeout,optional"`
	FailFast bool   `hcl:"fail_fast,optional"`

	Calculations []*Calculation `hcl:"calculation,block"`

	dir     string
	timeout time.Duration
}

type Calculation struct {
	Name    string   `hcl:"name,label"`
	Formula string   `hcl:"formula"`
	Start   *float64 `hcl:"start,optional"`
	End     *float64 `hcl:"end,optional"`
	Extent  string   `hcl:"extent,optional"`

	extent extent.Extent
}

// Request creates the calculator request for the calculation on mesh m.
func (c *Calculation) Request(m *mesh.Mesh) calculator.Request {
	r := calculator.Request{
		Formula: c.Formula,
		Mesh:    m,
		Name:    c.Name,
		Extent:  c.extent,
	}
	if c.Start != nil || c.End != nil {
		w := calculator.AllTimes()
		if c.Start != nil {
			w.Start = *c.Start
		}
		if c.End != nil {
			w.End = *c.End
		}
		r.Window = &w
	}
	return r
}

// Load reads a job file. Variables are looked up in vars first and then in
// the process environment.
func Load(path string, vars map[string]string, fss ...vfs.FileSystem) (*File, error) {
	fs := utils.OptionalDefaulted(vfs.FileSystem(osfs.OsFs), fss...)
	data, err := vfs.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(path, data, vars)
	if err != nil {
		return nil, err
	}
	f.dir = filepath.Dir(path)
	return f, nil
}

// Parse parses the content of a job file.
func Parse(name string, data []byte, vars map[string]string) (*File, error) {
	text, err := envsubst.Eval(string(data), func(key string) string {
		if v, ok := vars[key]; ok {
			return v
		}
		return os.Getenv(key)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL([]byte(text), name)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse job file %s: %w", name, diags)
	}
	var f File
	diags = gohcl.DecodeBody(file.Body, nil, &f)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode job file %s: %w", name, diags)
	}
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &f, nil
}

func (f *File) validate() error {
	if f.Parallel < 0 {
		return fmt.Errorf("parallel must not be negative")
	}
	if f.Timeout != "" {
		d, err := time.ParseDuration(f.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout: %w", err)
		}
		f.timeout = d
	}
	names := map[string]bool{}
	for _, c := range f.Calculations {
		if names[c.Name] {
			return fmt.Errorf("duplicate calculation %q", c.Name)
		}
		names[c.Name] = true
		if c.Extent != "" {
			e, err := extent.Parse(c.Extent)
			if err != nil {
				return fmt.Errorf("calculation %q: %w", c.Name, err)
			}
			c.extent = e
		}
	}
	return nil
}

func (f *File) path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(f.dir, p)
}
