package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version   int      `toml:"version"`
	Admins    []string `toml:"admins"`
	Operators []string `toml:"operators"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
	if s.Admins == nil {
		s.Admins = []string{}
	}
	if s.Operators == nil {
		s.Operators = []string{}
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported roles schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}
