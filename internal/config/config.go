package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/ldodsn/internal/ldo"
	"github.com/san-kum/ldodsn/internal/mos"
)

const (
	DefaultSimEnv  = "tt"
	DefaultVRes    = 0.01
	DefaultIntent  = "standard"
	DefaultLength  = 180e-9
	DefaultDsnMod  = "regulator_ldo_series"
	DefaultDsnCls  = "dsn_ldo_ser"
	builtinNch     = mos.BuiltinPrefix + "nch"
	builtinPch     = mos.BuiltinPrefix + "pch"
	defaultIampMax = 200e-6
)

// ErrMissingKey reports a required spec file key or role entry that is absent.
var ErrMissingKey = errors.New("config: missing required key")

// Config is a design spec file. Params mirrors the keys of the
// characterization flow's spec files.
type Config struct {
	DsnMod string `yaml:"dsn_mod,omitempty"`
	DsnCls string `yaml:"dsn_cls,omitempty"`
	Params Params `yaml:"params"`

	baseDir string
}

type Params struct {
	SpecFiles map[ldo.Role]string  `yaml:"specfile_dict"`
	Intents   map[ldo.Role]string  `yaml:"th_dict"`
	Lengths   map[ldo.Role]float64 `yaml:"l_dict"`
	SimEnv    string               `yaml:"sim_env"`
	SerType   string               `yaml:"ser_type"`

	Vdd     float64 `yaml:"vdd"`
	Vout    float64 `yaml:"vout"`
	Iload   float64 `yaml:"iload"`
	Iref    float64 `yaml:"iref"`
	IampMax float64 `yaml:"iamp_max"`
	Cload   float64 `yaml:"cload"`
	Cdecap  float64 `yaml:"cdecap"`
	Rsource float64 `yaml:"rsource"`

	Err           float64 `yaml:"err"`
	PSRR          float64 `yaml:"psrr"`
	PSRRBandwidth float64 `yaml:"psrr_fbw"`
	PM            float64 `yaml:"pm"`
	LoadReg       float64 `yaml:"loadreg"`
	LoadPole      bool    `yaml:"load_pole"`
	VRes          float64 `yaml:"v_res"`
}

func roleMap[T any](ser, amp, load T) map[ldo.Role]T {
	return map[ldo.Role]T{
		ldo.Series:    ser,
		ldo.AmpIn:     amp,
		ldo.AmpTail:   amp,
		ldo.AmpLoad:   load,
		ldo.AmpMirror: amp,
	}
}

func DefaultConfig() *Config {
	return &Config{
		DsnMod: DefaultDsnMod,
		DsnCls: DefaultDsnCls,
		Params: Params{
			SpecFiles: roleMap(builtinPch, builtinNch, builtinPch),
			Intents:   roleMap(DefaultIntent, DefaultIntent, DefaultIntent),
			Lengths:   roleMap(DefaultLength, DefaultLength, DefaultLength),
			SimEnv:    DefaultSimEnv,
			SerType:   string(mos.P),

			Vdd:     1.8,
			Vout:    1.2,
			Iload:   2e-3,
			Iref:    100e-6,
			IampMax: defaultIampMax,
			Cload:   1e-12,
			Cdecap:  10e-12,

			Err:           0.05,
			PSRR:          20,
			PSRRBandwidth: 1e4,
			PM:            45,
			LoadReg:       0.05,
			VRes:          DefaultVRes,
		},
	}
}

// requiredKeys are the params every spec file must set. A spec file never
// inherits values from DefaultConfig.
var requiredKeys = []string{
	"specfile_dict", "th_dict", "l_dict", "sim_env", "ser_type",
	"vdd", "vout", "iload", "iref", "iamp_max", "cload", "cdecap", "rsource",
	"err", "psrr", "psrr_fbw", "pm", "loadreg", "load_pole", "v_res",
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: read %s", path)
	}
	var raw struct {
		Params map[string]yaml.Node `yaml:"params"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrapf(err, "config: parse %s", path)
	}
	var missing []string
	for _, k := range requiredKeys {
		if _, ok := raw.Params[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return nil, errors.Wrapf(ErrMissingKey, "%s: %s", path, strings.Join(missing, ", "))
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "config: parse %s", path)
	}
	cfg.baseDir = filepath.Dir(path)
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "config: marshal")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "config: write %s", path)
	}
	return nil
}

// Spec converts the parameters to a validated search spec.
func (c *Config) Spec() (ldo.Spec, error) {
	p := c.Params
	typ, err := mos.ParseType(p.SerType)
	if err != nil {
		return ldo.Spec{}, err
	}
	if err := c.checkRoles(); err != nil {
		return ldo.Spec{}, err
	}

	s := ldo.Spec{
		Vdd:           p.Vdd,
		Vout:          p.Vout,
		Iload:         p.Iload,
		Iref:          p.Iref,
		IampMax:       p.IampMax,
		Cload:         p.Cload,
		Cdecap:        p.Cdecap,
		Rsource:       p.Rsource,
		Err:           p.Err,
		PSRR:          p.PSRR,
		PSRRBandwidth: p.PSRRBandwidth,
		PM:            p.PM,
		LoadReg:       p.LoadReg,
		LoadPole:      p.LoadPole,
		VRes:          p.VRes,
		SerType:       typ,
		Devices:       make(map[ldo.Role]ldo.Device, len(ldo.Roles)),
	}
	for _, r := range ldo.Roles {
		s.Devices[r] = ldo.Device{L: p.Lengths[r], Intent: p.Intents[r]}
	}
	if err := s.Validate(); err != nil {
		return ldo.Spec{}, err
	}
	return s, nil
}

// Tables loads the operating-point table of every role. Relative device
// file paths resolve against the directory of the loaded spec file.
func (c *Config) Tables() (ldo.Tables, error) {
	tables := make(ldo.Tables, len(ldo.Roles))
	for _, r := range ldo.Roles {
		path, ok := c.Params.SpecFiles[r]
		if !ok || path == "" {
			return nil, fmt.Errorf("%w: no specfile_dict entry for %s", ldo.ErrMissingTable, r)
		}
		if !strings.HasPrefix(path, mos.BuiltinPrefix) && !filepath.IsAbs(path) {
			path = filepath.Join(c.baseDir, path)
		}
		intent := c.Params.Intents[r]
		if intent == "" {
			return nil, fmt.Errorf("%w: no th_dict entry for %s", ErrMissingKey, r)
		}
		t, err := mos.LoadTable(path, intent, c.Params.SimEnv)
		if err != nil {
			return nil, errors.Wrapf(err, "config: %s table", r)
		}
		tables[r] = t
	}
	return tables, nil
}

// checkRoles requires a device file, threshold flavor and channel length for
// every role, and rejects unknown roles.
func (c *Config) checkRoles() error {
	p := c.Params
	for _, r := range ldo.Roles {
		switch {
		case p.SpecFiles[r] == "":
			return fmt.Errorf("%w: no specfile_dict entry for %s", ldo.ErrMissingTable, r)
		case p.Intents[r] == "":
			return fmt.Errorf("%w: no th_dict entry for %s", ErrMissingKey, r)
		case !(p.Lengths[r] > 0):
			return fmt.Errorf("%w: no positive l_dict entry for %s", ErrMissingKey, r)
		}
	}
	for _, m := range []map[ldo.Role]string{p.SpecFiles, p.Intents} {
		for r := range m {
			if !r.Valid() {
				return fmt.Errorf("%w: unknown role %q", ldo.ErrInvalidSpec, r)
			}
		}
	}
	for r := range p.Lengths {
		if !r.Valid() {
			return fmt.Errorf("%w: unknown role %q", ldo.ErrInvalidSpec, r)
		}
	}
	if p.SimEnv == "" {
		return fmt.Errorf("%w: sim_env", ErrMissingKey)
	}
	return nil
}

// Validate checks that the spec converts with a complete set of roles.
func (c *Config) Validate() error {
	_, err := c.Spec()
	return err
}
