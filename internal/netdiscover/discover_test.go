package netdiscover

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicIP_HonorsEnvOverride(t *testing.T) {
	t.Setenv("PUBLIC_IP", "198.51.100.7")

	ip, err := PublicIP()
	require.NoError(t, err)
	assert.True(t, net.ParseIP("198.51.100.7").Equal(ip))
}

func TestPublicIP_FallsBackToInterfaceDiscovery(t *testing.T) {
	t.Setenv("PUBLIC_IP", "")

	ip, err := PublicIP()
	require.NoError(t, err)
	assert.False(t, ip.IsLoopback())
}
