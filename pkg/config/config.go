package config

import (
	"fmt"
	"os"

	log "github.com/bioperf/varbench/pkg/logging"
	"gopkg.in/yaml.v3"
)

// Params carries the arguments a catalog query can take. Each query reads
// only the fields it understands; validation happens when the workload is
// built, not when a query first runs.
type Params struct {
	Chromosome   string   `yaml:"chromosome,omitempty"`
	Position     int64    `yaml:"position,omitempty"`
	Ref          string   `yaml:"ref,omitempty"`
	Alt          string   `yaml:"alt,omitempty"`
	RSID         string   `yaml:"rsid,omitempty"`
	Gene         string   `yaml:"gene,omitempty"`
	Limit        int      `yaml:"limit,omitempty"`
	Start        int64    `yaml:"start,omitempty"`
	End          int64    `yaml:"end,omitempty"`
	Transcript   string   `yaml:"transcript,omitempty"`
	Consequences []string `yaml:"consequences,omitempty"`
	MinQuality   float64  `yaml:"minQuality,omitempty"`
	MaxAF        float64  `yaml:"maxAF,omitempty"`
}

// QuerySpec names one catalog query together with its arguments.
type QuerySpec struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description,omitempty"`
	Params      Params `yaml:"params,omitempty"`
}

// ConfigurationError reports a workload definition the harness cannot use.
// Callers fall back to the built-in workload instead of aborting the run.
type ConfigurationError struct {
	File string
	Err  error
}

func (e *ConfigurationError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("workload config %s: %v", e.File, e.Err)
	}
	return fmt.Sprintf("workload config: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func validSpec(q QuerySpec, seen map[string]bool) error {
	if q.ID == "" {
		return fmt.Errorf("query with empty id")
	}
	if seen[q.ID] {
		return fmt.Errorf("duplicate query id %q", q.ID)
	}
	return nil
}

// ParseConf will read in the workload configuration file which
// describes which queries to run.
// Returns the query specs in file order.
func ParseConf(fn string) ([]QuerySpec, error) {
	log.Infof("📒 Reading %s file. ", fn)
	buf, err := os.ReadFile(fn)
	if err != nil {
		return nil, &ConfigurationError{File: fn, Err: err}
	}
	// YAML structure :
	// queries :
	//   - id: Q4
	//     params:
	//       gene: <xyz> ...
	c := struct {
		Queries []QuerySpec `yaml:"queries"`
	}{}
	err = yaml.Unmarshal(buf, &c)
	if err != nil {
		return nil, &ConfigurationError{File: fn, Err: err}
	}
	if len(c.Queries) == 0 {
		return nil, &ConfigurationError{File: fn, Err: fmt.Errorf("no queries defined")}
	}
	seen := make(map[string]bool, len(c.Queries))
	for _, q := range c.Queries {
		if err := validSpec(q, seen); err != nil {
			return nil, &ConfigurationError{File: fn, Err: err}
		}
		seen[q.ID] = true
	}
	return c.Queries, nil
}
