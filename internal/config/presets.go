package config

import (
	"maps"
	"sort"

	"github.com/san-kum/ldodsn/internal/ldo"
)

// Presets are ready-made spec files using the builtin devices, grouped by
// pass device type.
var Presets = map[string]map[string]*Config{
	"p": {
		"1v8_1v2": preset(func(p *Params) {}),
		"low_power": preset(func(p *Params) {
			p.Iload = 500e-6
			p.IampMax = 50e-6
			p.PSRRBandwidth = 1e3
		}),
		"lossy_supply": preset(func(p *Params) {
			p.Rsource = 5
			p.PSRR = 10
		}),
		"load_pole": preset(func(p *Params) {
			p.LoadPole = true
			p.Cdecap = 100e-12
		}),
	},
	"n": {
		"1v8_1v0": preset(func(p *Params) {
			p.SerType = "n"
			p.SpecFiles[ldo.Series] = builtinNch
			p.Intents[ldo.Series] = "lvt"
			p.Vout = 1.0
		}),
		"3v3_1v2": preset(func(p *Params) {
			p.SerType = "n"
			p.SpecFiles[ldo.Series] = builtinNch
			p.Vdd = 3.3
			p.Vout = 1.2
			p.VRes = 0.02
		}),
	},
}

func preset(mutate func(*Params)) *Config {
	cfg := DefaultConfig()
	mutate(&cfg.Params)
	return cfg
}

// GetPreset returns a copy of a preset, or nil when it does not exist.
func GetPreset(serType, name string) *Config {
	group, ok := Presets[serType]
	if !ok {
		return nil
	}
	cfg, ok := group[name]
	if !ok {
		return nil
	}
	out := *cfg
	out.Params.SpecFiles = maps.Clone(cfg.Params.SpecFiles)
	out.Params.Intents = maps.Clone(cfg.Params.Intents)
	out.Params.Lengths = maps.Clone(cfg.Params.Lengths)
	return &out
}

func ListPresets(serType string) []string {
	group, ok := Presets[serType]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(group))
	for name := range group {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
