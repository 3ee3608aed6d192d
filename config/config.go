package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the application's configuration structure,
// housing Server, Catalog, Health and Metrics configurations.
type Config struct {
	Server  ServerConfig  `yaml:"server" json:"server"`             // ServerConfig for incoming connections.
	Catalog CatalogConfig `yaml:"catalog" json:"catalog"`           // CatalogConfig for the upstream metadata catalog.
	Health  HealthConfig  `yaml:"health" json:"health,omitempty"`   // HealthConfig for the catalog health probe.
	Metrics MetricsConfig `yaml:"metrics" json:"metrics,omitempty"` // MetricsConfig for the Prometheus endpoint.
}

// ServerConfig defines the address the REST server listens on.
type ServerConfig struct {
	Address string          `yaml:"address" json:"address,omitempty" jsonschema:"default=localhost:8000,example=0.0.0.0:8000"` // Address to bind the REST server on.
	Prefix  string          `yaml:"prefix" json:"prefix,omitempty" jsonschema:"default=/api/v1"`                               // Path prefix for the REST routes.
	TLS     ServerTlsConfig `yaml:"tls" json:"tls,omitempty"`                                                                  // TLS configuration for the REST server.
}

// ServerTlsConfig defines the TLS configuration for the REST server.
type ServerTlsConfig struct {
	CertFile string `yaml:"cert" json:"cert"` // Path to the certificate file.
	KeyFile  string `yaml:"key" json:"key"`   // Path to the key file.
}

// CatalogConfig details the configuration for reaching the metadata catalog.
type CatalogConfig struct {
	GraphqlURL string            `yaml:"graphqlURL" json:"graphqlURL" jsonschema:"default=http://localhost:8080/api/graphql"`                 // GraphQL endpoint used for reads and tag associations.
	IngestURL  string            `yaml:"ingestURL" json:"ingestURL" jsonschema:"default=http://localhost:8080/entities?action=ingest"`        // rest.li entities endpoint used to create and delete tags.
	Timeout    int               `yaml:"timeout" json:"timeout,omitempty"`                                                                    // Timeout for catalog requests, in seconds.
	Actor      string            `yaml:"actor" json:"actor,omitempty" jsonschema:"default=urn:li:corpuser:datahub"`                           // Actor urn sent with every request.
	Token      string            `yaml:"token" json:"token,omitempty"`                                                                        // Optional personal access token sent as a bearer token.
	Headers    map[string]string `yaml:"headers" json:"headers,omitempty"`                                                                    // Extra headers sent with every request.
}

// HealthConfig defines the configuration for probing the catalog.
type HealthConfig struct {
	Enabled        *bool  `yaml:"enabled" json:"enabled,omitempty" jsonschema:"default=true"` // Whether the health probe runs.
	Interval       int    `yaml:"interval" json:"interval,omitempty"`                         // Interval between probes, in seconds. Can only use either `interval` or `cronExpression`.
	CronExpression string `yaml:"cronExpression" json:"cronExpression,omitempty"`             // Cron expression to use for probing. Can only use either `interval` or `cronExpression`.
}

// MetricsConfig defines the configuration for exposing Prometheus metrics.
type MetricsConfig struct {
	Enabled *bool  `yaml:"enabled" json:"enabled,omitempty" jsonschema:"default=true"` // Whether metrics are exposed.
	Path    string `yaml:"path" json:"path,omitempty" jsonschema:"default=/metrics"`   // Path to bind the metrics handler on.
}

const (
	ActorHeader    = "X-DataHub-Actor"
	DefaultActor   = "urn:li:corpuser:datahub"
	DefaultGraphql = "http://localhost:8080/api/graphql"
	DefaultIngest  = "http://localhost:8080/entities?action=ingest"
	DefaultPrefix  = "/api/v1"
)

// NewDefaultConfig creates a new default configuration.
func NewDefaultConfig() *Config {
	pTrue := true
	return &Config{
		Server: ServerConfig{
			Address: "localhost:8000",
			Prefix:  DefaultPrefix,
			TLS:     ServerTlsConfig{},
		},
		Catalog: CatalogConfig{
			GraphqlURL: DefaultGraphql,
			IngestURL:  DefaultIngest,
			Timeout:    30,
			Actor:      DefaultActor,
			Headers: map[string]string{
				"Content-Type":    "application/json",
				"Accept-Encoding": "gzip",
			},
		},
		Health: HealthConfig{
			Enabled:  &pTrue,
			Interval: 30,
		},
		Metrics: MetricsConfig{
			Enabled: &pTrue,
			Path:    "/metrics",
		},
	}
}

// MergeWithDefaultConfig merges the default configuration with the loaded configuration.
func MergeWithDefaultConfig(defaultConfig *Config, loadedConfig *Config, logger *slog.Logger) *Config {
	if loadedConfig.Server.Address == "" {
		loadedConfig.Server.Address = defaultConfig.Server.Address
	}

	if loadedConfig.Server.Prefix == "" {
		loadedConfig.Server.Prefix = defaultConfig.Server.Prefix
	}

	if loadedConfig.Catalog.GraphqlURL == "" {
		loadedConfig.Catalog.GraphqlURL = defaultConfig.Catalog.GraphqlURL
	}

	if loadedConfig.Catalog.IngestURL == "" {
		loadedConfig.Catalog.IngestURL = defaultConfig.Catalog.IngestURL
	}

	if loadedConfig.Catalog.Timeout == 0 {
		loadedConfig.Catalog.Timeout = defaultConfig.Catalog.Timeout
	}

	if loadedConfig.Catalog.Actor == "" {
		loadedConfig.Catalog.Actor = defaultConfig.Catalog.Actor
	}

	// User headers override defaults one by one.
	headers := make(map[string]string, len(defaultConfig.Catalog.Headers)+len(loadedConfig.Catalog.Headers))
	for k, v := range defaultConfig.Catalog.Headers {
		headers[k] = v
	}
	for k, v := range loadedConfig.Catalog.Headers {
		headers[k] = v
	}
	loadedConfig.Catalog.Headers = headers

	if loadedConfig.Health.Enabled == nil {
		loadedConfig.Health.Enabled = defaultConfig.Health.Enabled
	}

	if loadedConfig.Health.Interval == 0 && loadedConfig.Health.CronExpression == "" {
		loadedConfig.Health.Interval = defaultConfig.Health.Interval
	}

	if loadedConfig.Metrics.Enabled == nil {
		loadedConfig.Metrics.Enabled = defaultConfig.Metrics.Enabled
	}

	if loadedConfig.Metrics.Path == "" {
		loadedConfig.Metrics.Path = defaultConfig.Metrics.Path
	}

	logger.Debug("Catalog relay configuration", "config", loadedConfig.Redacted())

	return loadedConfig
}

// LoadDotEnv loads variables from the first existing .env file among paths.
// Variables already present in the environment win. It reports the file used,
// or an empty string when none was found.
func LoadDotEnv(paths ...string) (string, error) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return "", fmt.Errorf("failed to load %s: %w", path, err)
		}
		return path, nil
	}
	return "", nil
}

// LoadConfig reads and unmarshals a YAML configuration file into a Config struct.
// A missing file yields an empty configuration so that defaults apply.
func LoadConfig(configPath string) (*Config, error) {
	configFile, err := os.Open(configPath)
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer configFile.Close()

	decoder := yaml.NewDecoder(configFile)

	var config Config
	if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	expandEnvInStruct(reflect.ValueOf(&config))

	return &config, nil
}

// expandEnvInStruct expands environment variables in a struct.
// It recursively traverses the struct and expands environment variables in string fields.
// It also expands environment variables in map keys.
func expandEnvInStruct(v reflect.Value) {
	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() {
			return
		}
		v = v.Elem()
		expandEnvInStruct(v)
	case reflect.Slice:
		for i := 0; i < v.Len(); i++ {
			expandEnvInStruct(v.Index(i))
		}
	case reflect.Map:
		if v.IsNil() {
			return
		}
		newMap := reflect.MakeMap(v.Type())
		for _, key := range v.MapKeys() {
			val := v.MapIndex(key)
			newKey := key
			if key.Kind() == reflect.String {
				newKey = reflect.ValueOf(os.ExpandEnv(key.String()))
			}
			if val.Kind() == reflect.String {
				val = reflect.ValueOf(os.ExpandEnv(val.String()))
			}
			newMap.SetMapIndex(newKey, val)
		}
		v.Set(newMap)
	case reflect.String:
		if v.CanSet() {
			v.SetString(os.ExpandEnv(v.String()))
		}
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			expandEnvInStruct(v.Field(i))
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	// Validate Server configuration
	if c.Server.Address == "" {
		return fmt.Errorf("server address cannot be empty")
	}
	if c.Server.Prefix != "" && !strings.HasPrefix(c.Server.Prefix, "/") {
		return fmt.Errorf(`server prefix "%s" must start with "/"`, c.Server.Prefix)
	}
	if (c.Server.TLS.CertFile == "") != (c.Server.TLS.KeyFile == "") {
		return fmt.Errorf("server tls requires both cert and key")
	}

	// Validate Catalog configuration
	if err := validateURL("catalog graphqlURL", c.Catalog.GraphqlURL); err != nil {
		return err
	}
	if err := validateURL("catalog ingestURL", c.Catalog.IngestURL); err != nil {
		return err
	}
	if c.Catalog.Timeout < 0 {
		return fmt.Errorf("catalog timeout cannot be negative")
	}
	if c.Catalog.Actor == "" {
		return fmt.Errorf("catalog actor cannot be empty")
	}

	// Validate Health configuration
	if c.HealthEnabled() {
		if c.Health.CronExpression != "" {
			if c.Health.Interval > 0 {
				return fmt.Errorf("cannot use both interval and cronExpression for health")
			}
			if _, err := cron.ParseStandard(c.Health.CronExpression); err != nil {
				return fmt.Errorf("invalid cron expression: %s", err)
			}
		} else if c.Health.Interval <= 0 {
			return fmt.Errorf("health interval must be positive")
		}
	}

	// Validate Metrics configuration
	if c.MetricsEnabled() && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf(`metrics path "%s" must start with "/"`, c.Metrics.Path)
	}

	return nil
}

func validateURL(name, raw string) error {
	allowedProtocols := []string{"http", "https"}
	parsedUrl, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %s", name, err)
	}
	if parsedUrl.Scheme == "" || parsedUrl.Host == "" {
		return fmt.Errorf("invalid %s: %s", name, raw)
	}
	if !slices.Contains(allowedProtocols, parsedUrl.Scheme) {
		return fmt.Errorf(`invalid %s scheme "%s"; must be one of "http" or "https"`, name, parsedUrl.Scheme)
	}
	return nil
}

// HealthEnabled reports whether the health probe should run.
func (c *Config) HealthEnabled() bool {
	return c.Health.Enabled != nil && *c.Health.Enabled
}

// MetricsEnabled reports whether the metrics endpoint should be exposed.
func (c *Config) MetricsEnabled() bool {
	return c.Metrics.Enabled != nil && *c.Metrics.Enabled
}

// HealthSchedule returns the cron spec for the health probe.
func (c *Config) HealthSchedule() string {
	if c.Health.CronExpression != "" {
		return c.Health.CronExpression
	}
	return fmt.Sprintf("@every %ds", c.Health.Interval)
}

// Redacted returns a copy of the configuration that is safe to log.
func (c *Config) Redacted() Config {
	redacted := *c
	if redacted.Catalog.Token != "" {
		redacted.Catalog.Token = "REDACTED"
	}
	return redacted
}

func PrintConfigJSONSchema() (string, error) {
	r := new(jsonschema.Reflector)
	r.AddGoComments("compendium/catalog-relay", "./config")
	s := r.Reflect(&Config{})
	jsonSchema, err := s.MarshalJSON()
	if err != nil {
		return "", err
	}
	// this isn't great, but allows us to pretty print the JSON schema vs. compact for readability
	buf := &bytes.Buffer{}
	if err := json.Indent(buf, jsonSchema, "", "\t"); err != nil {
		return "", err
	}

	return buf.String(), nil
}
