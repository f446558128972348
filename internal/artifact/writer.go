// Package artifact owns the generated output tree. Every file is derived,
// written wholesale, and carries a header marking it as generated.
package artifact

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/diyhub/homelabctl/internal/util"
)

const headerText = "Generated by homelabctl — do not edit."

// Writer writes artifacts under a single output directory. Writes are
// deterministic (no timestamps) so regenerating from an unchanged model
// produces byte-identical files. Every written path is recorded so Prune
// can drop leftovers from earlier runs.
type Writer struct {
	dir     string
	written map[string]bool
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, written: map[string]bool{}}
}

func (w *Writer) Dir() string { return w.dir }

// Write stores body under name (relative to the output dir), prefixed with a
// generated-file header in the comment style of the file's extension. The
// file is overwritten wholesale, never patched; an unchanged file is left
// alone so its mtime still tells the operator something.
func (w *Writer) Write(name string, body []byte) (string, error) {
	path := filepath.Join(w.dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	buf.WriteString("# " + headerText + "\n")
	buf.Write(body)

	w.written[path] = true
	if util.FingerprintFile(path) == util.Fingerprint(buf.Bytes()) {
		log.Debug().Str("artifact", name).Msg("unchanged")
		return path, nil
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", err
	}
	log.Info().Str("artifact", name).Msg("written")
	return path, nil
}

// WriteYAML marshals doc and writes it under name.
func (w *Writer) WriteYAML(name string, doc any) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return w.Write(name, buf.Bytes())
}
