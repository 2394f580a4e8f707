// ABOUTME: Helpers for markdown files with YAML frontmatter.
// ABOUTME: Decode/render frontmatter, atomic writes, slugs, and timestamp formatting.
package storage

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/google/renameio/v2"
	"github.com/gosimple/slug"
	"gopkg.in/yaml.v3"
)

const frontmatterDelim = "---"

// yamlFrontmatter decodes "---" delimited frontmatter with yaml.v3 so that
// reads and writes share one YAML implementation.
var yamlFrontmatter = frontmatter.NewFormat(frontmatterDelim, frontmatterDelim, yaml.Unmarshal)

// decodeFrontmatter decodes the frontmatter of data into fm and returns the
// remaining body. Documents without frontmatter are an error.
func decodeFrontmatter(data []byte, fm interface{}) (string, error) {
	body, err := frontmatter.MustParse(bytes.NewReader(data), fm, yamlFrontmatter)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// renderFrontmatter encodes fm as YAML frontmatter followed by body.
func renderFrontmatter(fm interface{}, body string) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fm); err != nil {
		return "", fmt.Errorf("encode frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode frontmatter: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(frontmatterDelim + "\n")
	sb.Write(buf.Bytes())
	sb.WriteString(frontmatterDelim + "\n")
	sb.WriteString(body)
	return sb.String(), nil
}

// atomicWrite replaces path with data so readers never see a partial file.
func atomicWrite(path string, data []byte) error {
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := renameio.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ensureDir creates dir and any parents with private permissions.
func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}

// slugify turns a workout name into a file name fragment.
func slugify(s string) string {
	if v := slug.Make(s); v != "" {
		return v
	}
	return "untitled"
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
