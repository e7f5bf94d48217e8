package config

import (
	"encoding/json"
	"os"

	pkerrors "github.com/systmms/pkdist/internal/errors"
	"github.com/systmms/pkdist/internal/logging"
	"gopkg.in/yaml.v3"
)

// Config holds the runtime configuration
type Config struct {
	Path     string
	Logger   *logging.Logger
	Settings Settings

	// FlagChanged reports whether a command-line flag was set explicitly.
	// Flag values outrank the rc file; defaults do not.
	FlagChanged func(name string) bool

	// groups holds the inline group definitions from the rc file,
	// keyed by group name, each value a comma-separated member list.
	groups map[string]string
}

func (c *Config) changed(flag string) bool {
	return c.FlagChanged != nil && c.FlagChanged(flag)
}

// Settings is the fully-resolved option set a command acts on. Values come
// from built-in defaults, then the rc file, then command-line flags.
type Settings struct {
	Identity     string `yaml:"identity"`
	CertPath     string `yaml:"certpath"`
	KeyPath      string `yaml:"keypath"`
	CABundle     string `yaml:"cabundle"`
	PwStore      string `yaml:"pwstore"`
	Connect      string `yaml:"connect"` // JSON object: connector name → params
	NoCache      bool   `yaml:"nocache"`
	NoVerify     bool   `yaml:"noverify"`
	NoPassphrase bool   `yaml:"nopassphrase"`
	Users        string `yaml:"users"`
	Groups       string `yaml:"groups"`
	EscrowUsers  string `yaml:"escrow_users"`
}

// rcFile is the on-disk .pkdistrc layout. Group definitions live alongside
// the known keys, so unknown scalar keys are collected inline.
type rcFile struct {
	Settings `yaml:",inline"`
	Extra    map[string]string `yaml:",inline"`
}

// DefaultSettings returns the built-in defaults. certpath intentionally has
// no default because the connect map is an allowed substitute.
func DefaultSettings() Settings {
	return Settings{
		KeyPath:  "./private",
		CABundle: "./certs/ca-bundle",
		PwStore:  "./passwords",
	}
}

// Load reads and parses the rc file, if present. A missing rc file is not an
// error; commands can run on flags alone.
func (c *Config) Load() error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		if os.IsNotExist(err) {
			c.Logger.Debug("No rc file at %s, using flags only", c.Path)
			return nil
		}
		return pkerrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	var rc rcFile
	if err := yaml.Unmarshal(data, &rc); err != nil {
		return pkerrors.ConfigError{
			Message:    "invalid YAML syntax in configuration file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters",
		}
	}

	c.mergeFile(rc.Settings)
	c.groups = rc.Extra
	return nil
}

// mergeFile applies rc-file values on top of the defaults, skipping any
// field whose flag was set explicitly.
func (c *Config) mergeFile(s Settings) {
	if s.Identity != "" && !c.changed("identity") {
		c.Settings.Identity = s.Identity
	}
	if s.CertPath != "" && !c.changed("certpath") {
		c.Settings.CertPath = s.CertPath
	}
	if s.KeyPath != "" && !c.changed("keypath") {
		c.Settings.KeyPath = s.KeyPath
	}
	if s.CABundle != "" && !c.changed("cabundle") {
		c.Settings.CABundle = s.CABundle
	}
	if s.PwStore != "" && !c.changed("pwstore") {
		c.Settings.PwStore = s.PwStore
	}
	if s.Connect != "" && !c.changed("connect") {
		c.Settings.Connect = s.Connect
	}
	if s.Users != "" && !c.changed("users") {
		c.Settings.Users = s.Users
	}
	if s.Groups != "" && !c.changed("groups") {
		c.Settings.Groups = s.Groups
	}
	if s.EscrowUsers != "" && !c.changed("escrow-users") {
		c.Settings.EscrowUsers = s.EscrowUsers
	}
	c.Settings.NoCache = c.Settings.NoCache || s.NoCache
	c.Settings.NoVerify = c.Settings.NoVerify || s.NoVerify
	c.Settings.NoPassphrase = c.Settings.NoPassphrase || s.NoPassphrase
}

// Group returns the member list configured for a group name. The second
// return reports whether the group is defined at all.
func (c *Config) Group(name string) (string, bool) {
	members, ok := c.groups[name]
	return members, ok
}

// Validate checks the cross-field requirements: the CA bundle and password
// store must exist, and certificates must come from somewhere.
func (c *Config) Validate() error {
	for _, path := range []string{c.Settings.CABundle, c.Settings.PwStore} {
		if _, err := os.Stat(path); err != nil {
			return pkerrors.FileOpenError{Path: path, Err: err}
		}
	}

	if c.Settings.CertPath == "" && c.Settings.Connect == "" {
		return pkerrors.ConfigError{
			Field:      "certpath",
			Message:    "'certpath' or 'connect' is required",
			Suggestion: "Point --certpath at a certificate directory, or configure a connect map",
		}
	}
	return nil
}

// ConnectMap parses and validates the connect JSON. The reserved
// base_directory key overrides the connector cache root. String-valued
// entries are shorthand for {"address": value}.
func (c *Config) ConnectMap() (string, map[string]map[string]interface{}, error) {
	if c.Settings.Connect == "" {
		return "", nil, nil
	}

	if err := validateConnectJSON(c.Settings.Connect); err != nil {
		return "", nil, err
	}

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(c.Settings.Connect), &raw); err != nil {
		return "", nil, pkerrors.JSONArgumentError{Argument: "connect", Err: err}
	}

	baseDir := ""
	connect := make(map[string]map[string]interface{})
	for name, value := range raw {
		if name == "base_directory" {
			if dir, ok := value.(string); ok {
				baseDir = dir
			}
			continue
		}
		switch v := value.(type) {
		case string:
			connect[name] = map[string]interface{}{"address": v}
		case map[string]interface{}:
			connect[name] = v
		}
	}
	return baseDir, connect, nil
}
