package transport

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUDPEndpoint_BindsAndAdvertisesPublicAddr(t *testing.T) {
	publicIP := net.ParseIP("203.0.113.5")

	e, err := NewUDPEndpoint(publicIP)
	require.NoError(t, err)
	defer e.Close()

	addr := e.PublicAddr()
	assert.True(t, publicIP.Equal(addr.IP))
	assert.NotZero(t, addr.Port)

	localPort := e.conn.LocalAddr().(*net.UDPAddr).Port
	assert.Equal(t, localPort, addr.Port)
}

func TestUDPEndpoint_Conn(t *testing.T) {
	e, err := NewUDPEndpoint(net.ParseIP("203.0.113.5"))
	require.NoError(t, err)
	defer e.Close()

	assert.NotNil(t, e.Conn())
}
