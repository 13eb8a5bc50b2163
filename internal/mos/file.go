package mos

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// BuiltinPrefix selects a compiled-in device instead of a file path.
const BuiltinPrefix = "builtin:"

// DeviceFile is the on-disk description of one device geometry:
//
//	type: n
//	lch: 180.0e-9
//	width_list: [0.5e-6]
//	envs:
//	  tt:
//	    standard:
//	      square_law: {vth0: 0.45, k: 4.0e-4, ...}
//	    lvt:
//	      grid: {vgs: [...], vds: [...], vbs: [...], params: {ibias: [...], ...}}
type DeviceFile struct {
	Type      Type                        `yaml:"type"`
	Lch       float64                     `yaml:"lch"`
	WidthList []float64                   `yaml:"width_list"`
	Envs      map[string]map[string]Model `yaml:"envs"`
}

// Model holds exactly one of the supported table kinds.
type Model struct {
	SquareLaw *SquareLaw `yaml:"square_law,omitempty"`
	Grid      *Grid      `yaml:"grid,omitempty"`
}

// Table builds the table for a threshold flavor and process corner.
func (f *DeviceFile) Table(intent, env string) (Table, error) {
	if !f.Type.Valid() {
		return nil, errors.Errorf("mos: device type %q", f.Type)
	}
	if len(f.WidthList) == 0 || f.WidthList[0] <= 0 {
		return nil, errors.New("mos: device has no positive width")
	}
	intents, ok := f.Envs[env]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownModel, "env %q", env)
	}
	m, ok := intents[intent]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownModel, "intent %q in env %q", intent, env)
	}

	switch {
	case m.SquareLaw != nil:
		sl := *m.SquareLaw
		sl.Type = f.Type
		sl.Width = f.WidthList[0]
		if err := sl.Validate(); err != nil {
			return nil, errors.Wrapf(err, "%s/%s", env, intent)
		}
		return &sl, nil
	case m.Grid != nil:
		g := *m.Grid
		g.Width = f.WidthList[0]
		if err := g.Validate(); err != nil {
			return nil, errors.Wrapf(err, "%s/%s", env, intent)
		}
		return &g, nil
	}
	return nil, errors.Wrapf(ErrUnknownModel, "%s/%s has neither square_law nor grid", env, intent)
}

func ParseDevice(data []byte) (*DeviceFile, error) {
	var f DeviceFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "mos: parse device file")
	}
	return &f, nil
}

// LoadDevice reads a device file, or a builtin device when path carries
// BuiltinPrefix.
func LoadDevice(path string) (*DeviceFile, error) {
	if name, ok := strings.CutPrefix(path, BuiltinPrefix); ok {
		return Builtin(name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "mos: read device file %s", path)
	}
	f, err := ParseDevice(data)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return f, nil
}

func LoadTable(path, intent, env string) (Table, error) {
	f, err := LoadDevice(path)
	if err != nil {
		return nil, err
	}
	t, err := f.Table(intent, env)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return t, nil
}

func SaveDevice(path string, f *DeviceFile) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return errors.Wrap(err, "mos: marshal device file")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "mos: write device file %s", path)
	}
	return nil
}
