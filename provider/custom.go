package provider

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tilawa-cli/tilawa/filesystem"
	"github.com/tilawa-cli/tilawa/log"
	"github.com/tilawa-cli/tilawa/where"
)

// Customs returns the providers defined in *.toml files of the sources directory.
// Files that fail to parse are skipped and logged.
func Customs() ([]*Provider, error) {
	dir := where.Sources()
	files, err := filesystem.API().ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var providers []*Provider
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".toml" {
			continue
		}

		path := filepath.Join(dir, f.Name())
		p, err := LoadFile(path)
		if err != nil {
			log.Warnf("skipping custom provider %s: %v", path, err)
			continue
		}
		providers = append(providers, p)
	}

	return providers, nil
}

// LoadFile parses one provider definition. The id defaults to the file name.
func LoadFile(path string) (*Provider, error) {
	data, err := filesystem.API().ReadFile(path)
	if err != nil {
		return nil, err
	}

	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	if p.ID == "" {
		p.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if p.Name == "" {
		p.Name = p.ID
	}
	return p, nil
}

// Parse decodes a provider definition:
//
//	name = "Yasser Al-Dosari"
//	family = "yasser_ad-dussary"
//
//	[[templates]]
//	pattern = "https://server11.mp3quran.net/yasser/{id3}.mp3"
//	provider = "mp3quran.net"
func Parse(data []byte) (*Provider, error) {
	var p Provider
	meta, err := toml.Decode(string(data), &p)
	if err != nil {
		return nil, err
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		log.Warnf("unknown provider keys: %v", undecoded)
	}

	if len(p.Templates) == 0 && (p.NoMirrors || p.Family == "") {
		return nil, fmt.Errorf("no templates and no family for shared mirrors")
	}

	p.IsCustom = true
	return &p, nil
}

// Encode renders p in the format read by Parse.
func Encode(p *Provider) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
