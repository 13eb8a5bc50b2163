// Package export writes design results in formats consumed outside the tool:
// schematic parameter dumps and Bode plot images.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/ldodsn/internal/ldo"
)

var ErrUnknownFormat = errors.New("export: unknown format")

// Formats lists the accepted schematic dump formats.
var Formats = []string{"yaml", "json"}

// WriteSchematic encodes sch to w as yaml or json.
func WriteSchematic(w io.Writer, sch *ldo.SchematicParams, format string) error {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(sch); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(sch); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// SaveSchematic writes sch to path. An empty format is taken from the file
// extension.
func SaveSchematic(path string, sch *ldo.SchematicParams, format string) error {
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(path), ".")
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteSchematic(f, sch, format); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
