package mos

import (
	"sort"

	"github.com/pkg/errors"
)

// Generic 180 nm style devices. Good enough for exploring the design flow
// without a characterized PDK.
var builtins = map[string]func() *DeviceFile{
	"nch": func() *DeviceFile {
		base := SquareLaw{Vth0: 0.45, K: 4.0e-4, Lambda: 0.2, Gamma: 0.45, Phi: 0.85, Slope: 1.3,
			Cgs: 0.8e-15, Cgd: 0.25e-15, Cgb: 0.05e-15, Cdb: 0.4e-15, Csb: 0.4e-15}
		return cornered(N, base)
	},
	"pch": func() *DeviceFile {
		base := SquareLaw{Vth0: 0.45, K: 1.2e-4, Lambda: 0.25, Gamma: 0.4, Phi: 0.85, Slope: 1.35,
			Cgs: 0.8e-15, Cgd: 0.25e-15, Cgb: 0.05e-15, Cdb: 0.45e-15, Csb: 0.45e-15}
		return cornered(P, base)
	},
}

func cornered(typ Type, base SquareLaw) *DeviceFile {
	corners := map[string]struct{ dvth, kScale float64 }{
		"tt": {0, 1},
		"ff": {-0.05, 1.1},
		"ss": {0.05, 0.9},
	}
	intents := map[string]float64{"standard": 0, "lvt": -0.15, "hvt": 0.1}

	f := &DeviceFile{
		Type:      typ,
		Lch:       180e-9,
		WidthList: []float64{0.5e-6},
		Envs:      make(map[string]map[string]Model, len(corners)),
	}
	for env, c := range corners {
		f.Envs[env] = make(map[string]Model, len(intents))
		for intent, dvth := range intents {
			sl := base
			sl.Vth0 += c.dvth + dvth
			sl.K *= c.kScale
			f.Envs[env][intent] = Model{SquareLaw: &sl}
		}
	}
	return f
}

func Builtin(name string) (*DeviceFile, error) {
	mk, ok := builtins[name]
	if !ok {
		return nil, errors.Errorf("mos: unknown builtin device %q", name)
	}
	return mk(), nil
}

func ListBuiltins() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
