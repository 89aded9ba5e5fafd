// Package transport owns the UDP socket each session advertises to ICE as
// its host candidate.
package transport

import (
	"fmt"
	"net"
)

// UDPEndpoint binds an ephemeral UDP port and advertises a fixed public
// address for it. One endpoint per session, per §4.F / ownership rules.
type UDPEndpoint struct {
	conn      *net.UDPConn
	publicIP  net.IP
	localPort int
}

// NewUDPEndpoint binds 0.0.0.0:0 and pairs the bound port with publicIP to
// form the advertised candidate address.
func NewUDPEndpoint(publicIP net.IP) (*UDPEndpoint, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		return nil, fmt.Errorf("transport: bind udp: %w", err)
	}
	port := conn.LocalAddr().(*net.UDPAddr).Port
	return &UDPEndpoint{conn: conn, publicIP: publicIP, localPort: port}, nil
}

// PublicAddr returns the address this endpoint is advertised under.
func (e *UDPEndpoint) PublicAddr() *net.UDPAddr {
	return &net.UDPAddr{IP: e.publicIP, Port: e.localPort}
}

// Conn exposes the underlying PacketConn for handing to the peer-state
// adapter's ICE UDP mux. pion owns all reads and writes over this socket
// once the mux is installed (§4.G's design note on the sans-io/callback
// mismatch); this package's only remaining responsibility is binding the
// port and pairing it with the advertised public address.
func (e *UDPEndpoint) Conn() net.PacketConn {
	return e.conn
}

// Close releases the socket.
func (e *UDPEndpoint) Close() error {
	return e.conn.Close()
}
