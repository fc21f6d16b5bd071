package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/bruin-data/dwh/pkg/path"
)

const (
	DefaultRegion      = "us-west-2"
	DefaultClusterType = ClusterTypeMultiNode
	DefaultPort        = 5439
	DefaultSslMode     = "require"
	DefaultPolicyARN   = "arn:aws:iam::aws:policy/AmazonS3ReadOnlyAccess"
	DefaultSampleLimit = 10

	ClusterTypeSingleNode = "single-node"
	ClusterTypeMultiNode  = "multi-node"
)

type AWS struct {
	AccessKey string `yaml:"access_key,omitempty" json:"access_key,omitempty" mapstructure:"AWS_ACCESS_KEY_ID"`
	SecretKey string `yaml:"secret_key,omitempty" json:"secret_key,omitempty" mapstructure:"AWS_SECRET_ACCESS_KEY"`
	Region    string `yaml:"region" json:"region" mapstructure:"AWS_REGION" validate:"required" jsonschema:"default=us-west-2"`
}

type Cluster struct {
	Identifier string `yaml:"identifier" json:"identifier" mapstructure:"DWH_CLUSTER_IDENTIFIER" validate:"required"`
	Type       string `yaml:"type" json:"type" validate:"oneof=single-node multi-node" jsonschema:"enum=single-node,enum=multi-node,default=multi-node"`
	NodeType   string `yaml:"node_type" json:"node_type" validate:"required" jsonschema:"example=dc2.large"`
	NumNodes   int    `yaml:"num_nodes" json:"num_nodes" validate:"gte=1" jsonschema:"minimum=1"`
}

type Redshift struct {
	Database string `yaml:"database" json:"database" validate:"required"`
	Username string `yaml:"username" json:"username" validate:"required"`
	Password string `yaml:"password" json:"password" mapstructure:"DWH_DB_PASSWORD" validate:"required"`
	Port     int    `yaml:"port" json:"port" validate:"gte=1,lte=65535" jsonschema:"default=5439"`
	SslMode  string `yaml:"ssl_mode" json:"ssl_mode" validate:"oneof=disable allow prefer require verify-ca verify-full" jsonschema:"default=require"`
	Schema   string `yaml:"schema,omitempty" json:"schema,omitempty"`
}

type IAM struct {
	RoleName  string `yaml:"role_name" json:"role_name" validate:"required"`
	PolicyARN string `yaml:"policy_arn" json:"policy_arn" validate:"required" jsonschema:"default=arn:aws:iam::aws:policy/AmazonS3ReadOnlyAccess"`
}

// Sources points at the raw JSON logs the staging tables are loaded from.
type Sources struct {
	LogData     string `yaml:"log_data" json:"log_data" validate:"omitempty,startswith=s3://"`
	SongData    string `yaml:"song_data" json:"song_data" validate:"omitempty,startswith=s3://"`
	LogJSONPath string `yaml:"log_jsonpath" json:"log_jsonpath" validate:"omitempty,startswith=s3://"`
	Region      string `yaml:"region,omitempty" json:"region,omitempty"`
}

type Sample struct {
	Limit int `yaml:"limit" json:"limit" validate:"gte=1" jsonschema:"default=10"`
}

type Config struct {
	AWS      AWS      `yaml:"aws" json:"aws"`
	Cluster  Cluster  `yaml:"cluster" json:"cluster"`
	Redshift Redshift `yaml:"redshift" json:"redshift"`
	IAM      IAM      `yaml:"iam" json:"iam"`
	Sources  Sources  `yaml:"sources" json:"sources"`
	Sample   Sample   `yaml:"sample" json:"sample"`
}

type credentialsFile struct {
	AWS struct {
		AccessKey string `yaml:"access_key" validate:"required"`
		SecretKey string `yaml:"secret_key" validate:"required"`
	} `yaml:"aws"`
}

// environmentOverrides lists the variables that win over the files.
var environmentOverrides = []string{
	"AWS_ACCESS_KEY_ID",
	"AWS_SECRET_ACCESS_KEY",
	"AWS_REGION",
	"DWH_DB_PASSWORD",
	"DWH_CLUSTER_IDENTIFIER",
}

// Load reads the project configuration, merges the credentials file and the environment on top of it,
// fills the defaults and validates the result. A missing credentials file is not an error,
// a present one must carry both keys.
func Load(fs afero.Fs, configPath, credentialsPath string) (*Config, error) {
	return load(fs, configPath, credentialsPath, os.Getenv)
}

func load(fs afero.Fs, configPath, credentialsPath string, getenv func(string) string) (*Config, error) {
	var cfg Config
	found, err := path.ReadYamlIfExists(fs, configPath, &cfg)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.Errorf("config file '%s' does not exist", configPath)
	}

	if credentialsPath != "" {
		exists, err := afero.Exists(fs, credentialsPath)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to check credentials file %s", credentialsPath)
		}
		if exists {
			var creds credentialsFile
			if err := path.ReadYaml(fs, credentialsPath, &creds); err != nil {
				return nil, errors.Wrapf(err, "invalid credentials file %s", credentialsPath)
			}
			cfg.AWS.AccessKey = creds.AWS.AccessKey
			cfg.AWS.SecretKey = creds.AWS.SecretKey
		}
	}

	if err := cfg.applyEnvironment(getenv); err != nil {
		return nil, err
	}

	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyEnvironment(getenv func(string) string) error {
	values := make(map[string]any)
	for _, key := range environmentOverrides {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			values[key] = v
		}
	}
	if len(values) == 0 {
		return nil
	}

	// each target struct only picks the keys it has tags for
	for _, target := range []any{&c.AWS, &c.Cluster, &c.Redshift} {
		if err := mapstructure.Decode(values, target); err != nil {
			return errors.Wrap(err, "failed to apply environment overrides")
		}
	}

	return nil
}

func (c *Config) setDefaults() {
	if c.AWS.Region == "" {
		c.AWS.Region = DefaultRegion
	}
	if c.Cluster.Type == "" {
		c.Cluster.Type = DefaultClusterType
	}
	if c.Cluster.NumNodes == 0 {
		c.Cluster.NumNodes = 1
		if c.Cluster.Type == ClusterTypeMultiNode {
			c.Cluster.NumNodes = 2
		}
	}
	if c.Redshift.Port == 0 {
		c.Redshift.Port = DefaultPort
	}
	if c.Redshift.SslMode == "" {
		c.Redshift.SslMode = DefaultSslMode
	}
	if c.IAM.PolicyARN == "" {
		c.IAM.PolicyARN = DefaultPolicyARN
	}
	if c.Sources.Region == "" {
		c.Sources.Region = c.AWS.Region
	}
	if c.Sample.Limit == 0 {
		c.Sample.Limit = DefaultSampleLimit
	}
}

func (c *Config) Validate() error {
	if err := path.ValidateStruct(c); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	switch {
	case c.Cluster.Type == ClusterTypeSingleNode && c.Cluster.NumNodes != 1:
		return errors.Errorf("invalid configuration: a single-node cluster cannot have %d nodes", c.Cluster.NumNodes)
	case c.Cluster.Type == ClusterTypeMultiNode && c.Cluster.NumNodes < 2:
		return errors.New("invalid configuration: a multi-node cluster needs at least 2 nodes")
	}

	return nil
}

// Parameters lists the cluster parameters in a printable order, masking the password.
func (c *Config) Parameters() [][2]string {
	return [][2]string{
		{"DWH_CLUSTER_TYPE", c.Cluster.Type},
		{"DWH_NUM_NODES", strconv.Itoa(c.Cluster.NumNodes)},
		{"DWH_NODE_TYPE", c.Cluster.NodeType},
		{"DWH_CLUSTER_IDENTIFIER", c.Cluster.Identifier},
		{"DWH_DB", c.Redshift.Database},
		{"DWH_DB_USER", c.Redshift.Username},
		{"DWH_DB_PASSWORD", mask(c.Redshift.Password)},
		{"DWH_PORT", strconv.Itoa(c.Redshift.Port)},
		{"DWH_IAM_ROLE_NAME", c.IAM.RoleName},
		{"AWS_REGION", c.AWS.Region},
	}
}

// Redacted returns a copy of the configuration that is safe to print.
func (c Config) Redacted() Config {
	c.AWS.AccessKey = mask(c.AWS.AccessKey)
	c.AWS.SecretKey = mask(c.AWS.SecretKey)
	c.Redshift.Password = mask(c.Redshift.Password)
	return c
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return strings.Repeat("*", 8)
}
