package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cazylab/ceclust/internal/errors"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "ceclust.yaml"

// DatabaseEnv overrides Config.Database when set.
const DatabaseEnv = "CECLUST_DATABASE"

// Target describes one reconciliation run: a family and its files.
type Target struct {
	Family      string `yaml:"family"`
	ClusterFile string `yaml:"cluster_file"`
	SummaryOut  string `yaml:"summary_out"`
	ProteinsOut string `yaml:"proteins_out"`
}

// Config is the in-memory representation of ceclust.yaml.
type Config struct {
	Database     string   `yaml:"database"`
	FamilyPrefix string   `yaml:"family_prefix"`
	IndexFile    string   `yaml:"index_file,omitempty"`
	LockFile     string   `yaml:"lock_file,omitempty"`
	Targets      []Target `yaml:"targets,omitempty"`
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "cannot expand ~")
	}
	return filepath.Join(home, p[1:]), nil
}

// DefaultTarget returns the conventional file layout for family, e.g.
// data/ce12_clusters.tsv for CE12.
func DefaultTarget(family string) Target {
	base := filepath.Join("data", strings.ToLower(family)+"_clusters")
	return Target{
		Family:      family,
		ClusterFile: base + ".tsv",
		SummaryOut:  base + "_summary.csv",
		ProteinsOut: base + "_proteins.csv",
	}
}

// DefaultConfig returns the config written by ceclust init: the CE12 and CE19
// runs against a local CAZyme database.
func DefaultConfig() *Config {
	return &Config{
		Database:     filepath.Join("database", "cazy_db"),
		FamilyPrefix: "CE",
		IndexFile:    filepath.Join("data", "ce_proteins_with_structures.csv"),
		Targets: []Target{
			DefaultTarget("CE12"),
			DefaultTarget("CE19"),
		},
	}
}

// Load reads and parses the config at path, then applies the database
// override from the environment or the .env file next to it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read config %s", path)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "invalid YAML in %s", path)
	}
	if err := cfg.ApplyEnv(DotEnvPath(path)); err != nil {
		return nil, err
	}
	if cfg.FamilyPrefix == "" {
		cfg.FamilyPrefix = "CE"
	}
	return &cfg, nil
}

// ApplyEnv overrides Database from CECLUST_DATABASE and expands ~ in paths.
func (c *Config) ApplyEnv(dotEnvPath string) error {
	db, err := GetConfigValue(DatabaseEnv, dotEnvPath)
	if err != nil {
		return err
	}
	if db != "" {
		c.Database = db
	}
	for _, p := range []*string{&c.Database, &c.IndexFile, &c.LockFile} {
		if *p, err = ExpandPath(*p); err != nil {
			return err
		}
	}
	return nil
}

// Save marshals cfg and writes it to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "cannot marshal config")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "cannot write config %s", path)
	}
	return nil
}

// Validate checks that the config can drive a run.
func (c *Config) Validate() error {
	if c.Database == "" {
		return errors.WithHintf(errors.New("no annotation database configured"),
			"set 'database' in %s or %s", DefaultPath, DatabaseEnv)
	}
	if c.FamilyPrefix == "" {
		return errors.New("family_prefix must not be empty")
	}
	seen := map[string]bool{}
	for i, t := range c.Targets {
		if t.Family == "" {
			return errors.Newf("target %d: family is required", i+1)
		}
		if seen[t.Family] {
			return errors.Newf("target %s: listed more than once", t.Family)
		}
		seen[t.Family] = true
		if t.ClusterFile == "" || t.SummaryOut == "" || t.ProteinsOut == "" {
			return errors.Newf("target %s: cluster_file, summary_out and proteins_out are required", t.Family)
		}
		if t.SummaryOut == t.ProteinsOut {
			return errors.Newf("target %s: summary_out and proteins_out must differ", t.Family)
		}
	}
	return nil
}

// Target returns the configured target for family.
func (c *Config) Target(family string) (Target, bool) {
	for _, t := range c.Targets {
		if t.Family == family {
			return t, true
		}
	}
	return Target{}, false
}

// SelectTargets returns the targets named by families, or all targets when
// families is empty.
func (c *Config) SelectTargets(families []string) ([]Target, error) {
	if len(families) == 0 {
		if len(c.Targets) == 0 {
			return nil, errors.WithHint(errors.New("no targets configured"),
				"add a targets section to ceclust.yaml or pass --family")
		}
		return c.Targets, nil
	}
	out := make([]Target, 0, len(families))
	for _, f := range families {
		t, ok := c.Target(f)
		if !ok {
			return nil, errors.Newf("unknown target family %s", f)
		}
		out = append(out, t)
	}
	return out, nil
}
