// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads connection descriptors and cache settings from a YAML
// file with environment-variable expansion.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hkjang/jainsight-sub000/connectors/base"
)

// ConfigFile represents the root structure of a configuration file
type ConfigFile struct {
	Version     string                          `yaml:"version"`
	Connections map[string]ConnectionFileConfig `yaml:"connections,omitempty"`
	Cache       CacheFileConfig                 `yaml:"cache,omitempty"`
}

// ConnectionFileConfig represents one database connection in the config file
type ConnectionFileConfig struct {
	Engine   string `yaml:"engine"`
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	Database string `yaml:"database"`
}

// CacheFileConfig selects the result cache backend. Backend is "memory"
// (default) or "redis".
type CacheFileConfig struct {
	Backend  string `yaml:"backend,omitempty"`
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
}

// YAMLConfigFileLoader loads configurations from a YAML file
type YAMLConfigFileLoader struct {
	filePath string
	config   *ConfigFile
}

// NewYAMLConfigFileLoader creates a new YAML config file loader
func NewYAMLConfigFileLoader(filePath string) (*YAMLConfigFileLoader, error) {
	loader := &YAMLConfigFileLoader{
		filePath: filePath,
	}

	if err := loader.reload(); err != nil {
		return nil, err
	}

	return loader, nil
}

// reload reads and parses the configuration file
func (l *YAMLConfigFileLoader) reload() error {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", l.filePath, err)
	}

	// Expand environment variables in the content
	expanded := expandEnvVars(string(data))

	var config ConfigFile
	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := ValidateConfigFile(&config); err != nil {
		return err
	}

	l.config = &config
	return nil
}

// LoadConnections returns enabled connection descriptors keyed by their
// config name.
func (l *YAMLConfigFileLoader) LoadConnections() (map[string]base.Descriptor, error) {
	if l.config == nil {
		return nil, fmt.Errorf("config not loaded")
	}

	descriptors := make(map[string]base.Descriptor)
	for name, fileConfig := range l.config.Connections {
		if !fileConfig.Enabled {
			continue
		}
		descriptors[name] = base.Descriptor{
			EngineType: fileConfig.Engine,
			Host:       fileConfig.Host,
			Port:       fileConfig.Port,
			Username:   fileConfig.Username,
			Password:   fileConfig.Password,
			Database:   fileConfig.Database,
		}
	}
	return descriptors, nil
}

// CacheConfig returns the cache backend selection, defaulting to memory.
func (l *YAMLConfigFileLoader) CacheConfig() CacheFileConfig {
	if l.config == nil {
		return CacheFileConfig{Backend: "memory"}
	}
	cfg := l.config.Cache
	if cfg.Backend == "" {
		cfg.Backend = "memory"
	}
	return cfg
}

// Reload reloads the configuration file
func (l *YAMLConfigFileLoader) Reload() error {
	return l.reload()
}

// envVarRegex matches ${VAR_NAME} or $VAR_NAME patterns
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandEnvVars expands environment variable references in the string
// Supports both ${VAR_NAME} and $VAR_NAME syntax
// Returns empty string for undefined variables
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		// Handle default values: ${VAR_NAME:-default}
		defaultVal := ""
		if idx := strings.Index(varName, ":-"); idx != -1 {
			defaultVal = varName[idx+2:]
			varName = varName[:idx]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultVal
	})
}

// ValidateConfigFile validates the structure of a config file
func ValidateConfigFile(config *ConfigFile) error {
	if config.Version == "" {
		return fmt.Errorf("config file must specify a version")
	}

	validEngines := map[string]bool{
		base.EngineMySQL:     true,
		base.EngineMariaDB:   true,
		base.EnginePostgres:  true,
		base.EngineSQLServer: true,
		base.EngineMSSQL:     true,
		base.EngineSQLite:    true,
	}

	for name, conn := range config.Connections {
		if conn.Engine == "" {
			return fmt.Errorf("connection '%s' must specify an engine", name)
		}
		if !validEngines[conn.Engine] {
			return fmt.Errorf("connection '%s' has invalid engine '%s'", name, conn.Engine)
		}
		if conn.Database == "" {
			return fmt.Errorf("connection '%s' must specify a database", name)
		}
	}

	switch config.Cache.Backend {
	case "", "memory":
	case "redis":
		if config.Cache.Addr == "" {
			return fmt.Errorf("redis cache requires an addr")
		}
	default:
		return fmt.Errorf("invalid cache backend '%s'", config.Cache.Backend)
	}

	return nil
}

// GenerateExampleConfigFile generates an example configuration file
func GenerateExampleConfigFile() string {
	return `# Database connection configuration
# Environment variables can be referenced using ${VAR_NAME} or ${VAR_NAME:-default} syntax

version: "1.0"

connections:
  main:
    engine: postgres
    enabled: true
    host: ${POSTGRES_HOST:-localhost}
    port: 5432
    username: ${POSTGRES_USER:-postgres}
    password: ${POSTGRES_PASSWORD}
    database: appdata

  legacy:
    engine: mysql
    enabled: false  # Enable when configured
    host: ${MYSQL_HOST}
    port: 3306
    username: ${MYSQL_USER}
    password: ${MYSQL_PASSWORD}
    database: legacy

  reporting:
    engine: sqlserver
    enabled: false  # Enable when configured
    host: ${MSSQL_HOST}
    port: 1433
    username: ${MSSQL_USER}
    password: ${MSSQL_PASSWORD}
    database: reports

  local:
    engine: sqlite
    enabled: false
    database: ./data/local.db

cache:
  backend: ${CACHE_BACKEND:-memory}
  addr: ${REDIS_ADDR:-localhost:6379}
  password: ${REDIS_PASSWORD}
  db: 0
`
}
