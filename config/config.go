// Package config implements an optional TOML configuration loader,
// layered on top of the core's functional-options API: deployments can
// describe listen/dial addresses, TLS identity, and dictionary file paths
// in one file rather than composing options in Go.
//
//	dictionary_files = ["myapp.xml"]
//
//	[server]
//	listen_addr = "0.0.0.0:3868"
//	network = "tcp"
//	tls_cert_file = "server.crt"
//	tls_key_file = "server.key"
//
//	[client]
//	server_addr = "peer.example.com:3868"
//	network = "tcp"
//	use_tls = true
//	verify_cert = true
package config

import (
	"fmt"

	"github.com/pelletier/go-toml"
)

// Config is the parsed configuration tree. Server and Client are nil when
// their table is absent from the file; a deployment that only runs a
// client need not supply a [server] table, and vice versa.
type Config struct {
	// Map is the entire tree as parsed from the TOML representation.
	// Callers may read their own tables directly from it.
	Map             map[string]interface{}
	Server          *ServerConfig
	Client          *ClientConfig
	DictionaryFiles []string
}

// ServerConfig mirrors spec.md §6's server configuration surface:
// { tls_identity: optional }, plus the listen address and network.
type ServerConfig struct {
	ListenAddr  string
	Network     string
	TLSCertFile string
	TLSKeyFile  string
}

// ClientConfig mirrors spec.md §6's client configuration surface:
// { use_tls: bool, verify_cert: bool }, plus the dial address and network.
type ClientConfig struct {
	ServerAddr string
	Network    string
	UseTLS     bool
	VerifyCert bool
}

func toString(v interface{}) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return "", fmt.Errorf("supplied value could not be parsed as a string")
}

func toBool(v interface{}) (bool, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	return false, fmt.Errorf("supplied value could not be parsed as a bool")
}

func toStringSlice(v interface{}) ([]string, error) {
	items, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected array value")
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, err := toString(item)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func newServerConfig(scfg map[string]interface{}) (*ServerConfig, error) {
	sc := &ServerConfig{Network: "tcp"}
	for k, v := range scfg {
		var err error
		switch k {
		case "listen_addr":
			sc.ListenAddr, err = toString(v)
		case "network":
			sc.Network, err = toString(v)
		case "tls_cert_file":
			sc.TLSCertFile, err = toString(v)
		case "tls_key_file":
			sc.TLSKeyFile, err = toString(v)
		default:
			return nil, fmt.Errorf("unrecognised server parameter %q", k)
		}
		if err != nil {
			return nil, fmt.Errorf("server.%s: %w", k, err)
		}
	}
	return sc, nil
}

func newClientConfig(ccfg map[string]interface{}) (*ClientConfig, error) {
	cc := &ClientConfig{Network: "tcp", VerifyCert: true}
	for k, v := range ccfg {
		var err error
		switch k {
		case "server_addr":
			cc.ServerAddr, err = toString(v)
		case "network":
			cc.Network, err = toString(v)
		case "use_tls":
			cc.UseTLS, err = toBool(v)
		case "verify_cert":
			cc.VerifyCert, err = toBool(v)
		default:
			return nil, fmt.Errorf("unrecognised client parameter %q", k)
		}
		if err != nil {
			return nil, fmt.Errorf("client.%s: %w", k, err)
		}
	}
	return cc, nil
}

func newConfig(tree *toml.Tree) (*Config, error) {
	cfg := &Config{Map: tree.ToMap()}

	if got, ok := cfg.Map["server"]; ok {
		smap, ok := got.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("[server] must be a table")
		}
		sc, err := newServerConfig(smap)
		if err != nil {
			return nil, err
		}
		cfg.Server = sc
	}

	if got, ok := cfg.Map["client"]; ok {
		cmap, ok := got.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("[client] must be a table")
		}
		cc, err := newClientConfig(cmap)
		if err != nil {
			return nil, err
		}
		cfg.Client = cc
	}

	if got, ok := cfg.Map["dictionary_files"]; ok {
		files, err := toStringSlice(got)
		if err != nil {
			return nil, fmt.Errorf("dictionary_files: %w", err)
		}
		cfg.DictionaryFiles = files
	}

	return cfg, nil
}

// LoadFile loads configuration from the TOML file at path.
func LoadFile(path string) (*Config, error) {
	tree, err := toml.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: loading %s: %w", path, err)
	}
	return newConfig(tree)
}

// LoadString loads configuration from a TOML document held in memory
// (tests, embedded defaults).
func LoadString(content string) (*Config, error) {
	tree, err := toml.Load(content)
	if err != nil {
		return nil, fmt.Errorf("config: parsing string: %w", err)
	}
	return newConfig(tree)
}
