package config_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cariboulabs/diameter/config"
)

const sampleConfig = `
dictionary_files = ["custom.xml", "vendor.xml"]

[server]
listen_addr = "0.0.0.0:3868"
network = "tcp"
tls_cert_file = "server.crt"
tls_key_file = "server.key"

[client]
server_addr = "peer.example.com:3868"
use_tls = true
verify_cert = false
`

func TestLoadStringParsesServerAndClient(t *testing.T) {
	cfg, err := config.LoadString(sampleConfig)
	require.NoError(t, err)

	require.NotNil(t, cfg.Server)
	require.Equal(t, "0.0.0.0:3868", cfg.Server.ListenAddr)
	require.Equal(t, "tcp", cfg.Server.Network)
	require.Equal(t, "server.crt", cfg.Server.TLSCertFile)
	require.Equal(t, "server.key", cfg.Server.TLSKeyFile)

	require.NotNil(t, cfg.Client)
	require.Equal(t, "peer.example.com:3868", cfg.Client.ServerAddr)
	require.Equal(t, "tcp", cfg.Client.Network) // defaulted, not present in the file
	require.True(t, cfg.Client.UseTLS)
	require.False(t, cfg.Client.VerifyCert)

	require.Equal(t, []string{"custom.xml", "vendor.xml"}, cfg.DictionaryFiles)
}

func TestLoadStringWithoutTablesLeavesThemNil(t *testing.T) {
	cfg, err := config.LoadString(`dictionary_files = []`)
	require.NoError(t, err)
	require.Nil(t, cfg.Server)
	require.Nil(t, cfg.Client)
}

func TestLoadStringRejectsUnrecognisedParameter(t *testing.T) {
	_, err := config.LoadString(`
[server]
bogus_key = "x"
`)
	require.Error(t, err)
}

func TestClientVerifyCertDefaultsTrue(t *testing.T) {
	cfg, err := config.LoadString(`
[client]
server_addr = "peer.example.com:3868"
`)
	require.NoError(t, err)
	require.True(t, cfg.Client.VerifyCert)
}
