package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/ldodsn/internal/ldo"
	"github.com/san-kum/ldodsn/internal/mos"
)

func schematic() *ldo.SchematicParams {
	return &ldo.SchematicParams{
		W:      map[ldo.Role]float64{ldo.Series: 2e-6, ldo.AmpIn: 1e-6},
		L:      map[ldo.Role]float64{ldo.Series: 180e-9, ldo.AmpIn: 180e-9},
		Nf:     map[ldo.Role]int{ldo.Series: 40, ldo.AmpIn: 2},
		Intent: map[ldo.Role]string{ldo.Series: "standard", ldo.AmpIn: "lvt"},
		Types:  map[ldo.Role]mos.Type{ldo.Series: mos.P, ldo.AmpIn: mos.N},
		Caps:   ldo.Caps{Amp: 1e-12},
	}
}

func TestWriteSchematicYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSchematic(&buf, schematic(), "yaml"); err != nil {
		t.Fatalf("write: %v", err)
	}
	for _, key := range []string{"w_dict:", "l_dict:", "nf_dict:", "th_dict:", "type_dict:", "cap_dict:"} {
		if !strings.Contains(buf.String(), key) {
			t.Errorf("expected %s in output, got:\n%s", key, buf.String())
		}
	}

	var back ldo.SchematicParams
	if err := yaml.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Nf[ldo.Series] != 40 || back.Types[ldo.AmpIn] != mos.N {
		t.Errorf("expected ser nf 40 and n input, got %v %v", back.Nf, back.Types)
	}
}

func TestWriteSchematicJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSchematic(&buf, schematic(), "JSON"); err != nil {
		t.Fatalf("write: %v", err)
	}
	var back map[string]any
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := back["cap_dict"]; !ok {
		t.Errorf("expected cap_dict key, got %v", back)
	}
}

func TestWriteSchematicUnknownFormat(t *testing.T) {
	err := WriteSchematic(&bytes.Buffer{}, schematic(), "toml")
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestSaveSchematicFromExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sch.json")
	if err := SaveSchematic(path, schematic(), ""); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !json.Valid(data) {
		t.Errorf("expected json content, got %s", data)
	}

	bad := filepath.Join(t.TempDir(), "sch.txt")
	if err := SaveSchematic(bad, schematic(), ""); err == nil {
		t.Error("expected error for unknown extension")
	}
	if _, err := os.Stat(bad); !os.IsNotExist(err) {
		t.Error("expected failed dump to be removed")
	}
}

func TestSaveBode(t *testing.T) {
	freqs := []float64{1, 10, 100, 1e3, 1e4}
	resp := make([]complex128, len(freqs))
	for i, f := range freqs {
		resp[i] = 100 / complex(1, f/100)
	}
	path := filepath.Join(t.TempDir(), "bode.png")
	if err := SaveBode(path, freqs, resp); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("expected non-empty image")
	}

	if err := SaveBode(path, freqs[:1], resp[:1]); err == nil {
		t.Error("expected error for a single point")
	}
}
