package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SetEnabled flips a service's enabled flag in both the model and the source
// document. The edit is structural (yaml.Node), never a text splice, so
// neighbouring services, comments, and ordering are left untouched. The
// change is not persisted until Save.
func (c *Config) SetEnabled(key string, enabled bool) error {
	svc, ok := c.Services[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownService, key)
	}
	svc.Enabled = enabled

	node, err := c.serviceNode(key)
	if err != nil {
		return err
	}
	value := "false"
	if enabled {
		value = "true"
	}
	for i := 0; i < len(node.Content)-1; i += 2 {
		if node.Content[i].Value == "enabled" {
			node.Content[i+1].SetString(value)
			node.Content[i+1].Tag = "!!bool"
			return nil
		}
	}
	node.Content = append(node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: "enabled"},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: value},
	)
	return nil
}

// Save writes the (possibly edited) source document back atomically: the new
// content goes to a temporary file in the same directory which is then
// renamed over the original, so a crash mid-write cannot corrupt the source
// of truth.
func (c *Config) Save() error {
	if c.doc == nil || c.path == "" {
		return fmt.Errorf("configuration was not loaded from a file")
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c.doc); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}

	dir := filepath.Dir(c.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(c.path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), c.path)
}

func (c *Config) serviceNode(key string) (*yaml.Node, error) {
	if c.doc == nil || len(c.doc.Content) == 0 {
		return nil, fmt.Errorf("configuration has no source document")
	}
	root := c.doc.Content[0]
	services := mappingValue(root, "services")
	if services == nil {
		return nil, fmt.Errorf("source document has no services mapping")
	}
	node := mappingValue(services, key)
	if node == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownService, key)
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("service %q: definition is not a mapping", key)
	}
	return node, nil
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i < len(node.Content)-1; i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}
