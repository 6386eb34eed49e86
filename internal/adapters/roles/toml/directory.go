package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/velmik/intake/internal/domain"
	"github.com/velmik/intake/internal/ports"
)

const (
	configName      = "config"
	configType      = "toml"
	rolesPathKey    = "roles.path"
	rolesFileMode   = 0o600
	rolesDirMode    = 0o700
	rolesConfigDir  = ".intake"
	rolesConfigFile = "roles.toml"
	tempFilePattern = ".roles-*.toml.tmp"
)

// Directory is a file-backed role directory. An identity present in both
// sets is classified as administrator; administrators may also work as
// operators, and the resolver accounts for that when attributing
// transactions.
type Directory struct {
	rolesPath string
	mu        *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.RoleDirectory = (*Directory)(nil)

func NewDirectory(cfg *viper.Viper) (*Directory, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	defaultPath := filepath.Join(homeDir, rolesConfigDir, rolesConfigFile)

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(filepath.Join(homeDir, rolesConfigDir))
	cfg.SetDefault(rolesPathKey, defaultPath)

	err = cfg.ReadInConfig()
	if err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	rolesPath := cfg.GetString(rolesPathKey)
	if rolesPath == "" {
		return nil, errors.New("roles path is empty")
	}
	rolesPath, err = normalizeRolesPath(rolesPath)
	if err != nil {
		return nil, err
	}

	return &Directory{rolesPath: rolesPath, mu: lockForPath(rolesPath)}, nil
}

func (d *Directory) RoleOf(ctx context.Context, id domain.Identity) (domain.Role, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	file, err := d.readSchema()
	if err != nil {
		return "", err
	}

	if contains(file.Admins, id) {
		return domain.RoleAdministrator, nil
	}
	if contains(file.Operators, id) {
		return domain.RoleOperator, nil
	}

	return domain.RoleUnprivileged, nil
}

func (d *Directory) Operators(ctx context.Context) ([]domain.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	file, err := d.readSchema()
	if err != nil {
		return nil, err
	}

	return identities(file.Operators), nil
}

func (d *Directory) Admins(ctx context.Context) ([]domain.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	file, err := d.readSchema()
	if err != nil {
		return nil, err
	}

	return identities(file.Admins), nil
}

func (d *Directory) AddOperator(ctx context.Context, id domain.Identity) error {
	id = domain.NormalizeIdentity(string(id))
	return d.update(ctx, func(file *fileSchema) {
		file.Operators = appendUnique(file.Operators, id)
	})
}

func (d *Directory) RemoveOperator(ctx context.Context, id domain.Identity) error {
	id = domain.NormalizeIdentity(string(id))
	return d.update(ctx, func(file *fileSchema) {
		file.Operators = remove(file.Operators, id)
	})
}

func (d *Directory) AddAdmin(ctx context.Context, id domain.Identity) error {
	id = domain.NormalizeIdentity(string(id))
	return d.update(ctx, func(file *fileSchema) {
		file.Admins = appendUnique(file.Admins, id)
	})
}

func (d *Directory) update(ctx context.Context, mutate func(*fileSchema)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	file, err := d.readSchema()
	if err != nil {
		return err
	}
	file.applyDefaults()

	mutate(&file)

	if err := ctx.Err(); err != nil {
		return err
	}

	return d.writeSchema(file)
}

func (d *Directory) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(d.rolesPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{}, nil
		}
		return fileSchema{}, fmt.Errorf("read roles file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode roles file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func (d *Directory) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(d.rolesPath), rolesDirMode); err != nil {
		return fmt.Errorf("create roles directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode roles file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(d.rolesPath), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp roles file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp roles file: %w", err)
	}

	if err := tempFile.Chmod(rolesFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp roles file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp roles file: %w", err)
	}

	if err := os.Rename(tempName, d.rolesPath); err != nil {
		return fmt.Errorf("replace roles file: %w", err)
	}
	cleanup = false

	return nil
}

func normalizeRolesPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve roles path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func contains(entries []string, id domain.Identity) bool {
	for _, entry := range entries {
		if domain.NormalizeIdentity(entry) == id {
			return true
		}
	}
	return false
}

func identities(entries []string) []domain.Identity {
	result := make([]domain.Identity, 0, len(entries))
	for _, entry := range entries {
		result = append(result, domain.NormalizeIdentity(entry))
	}
	return result
}

func appendUnique(entries []string, id domain.Identity) []string {
	if contains(entries, id) {
		return entries
	}
	return append(entries, string(id))
}

func remove(entries []string, id domain.Identity) []string {
	kept := entries[:0]
	for _, entry := range entries {
		if domain.NormalizeIdentity(entry) != id {
			kept = append(kept, entry)
		}
	}
	return kept
}
