package netio

import (
	"net"
	"syscall"
)

// reusableListenConfig returns a net.ListenConfig whose Control callback
// sets SO_REUSEADDR on the socket before bind. A room's multicast group
// address varies but every room shares the configured multicast port
// (§4.7 createRoom/joinMulticastGroup), so without this option the second
// concurrent room a node joins would fail to bind with "address already in
// use" — SO_REUSEADDR is the standard way to let several sockets share one
// local port for independent multicast group membership.
func reusableListenConfig() net.ListenConfig {
	return net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var sockErr error
			if err := c.Control(func(fd uintptr) {
				sockErr = syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1)
			}); err != nil {
				return err
			}
			return sockErr
		},
	}
}

// EnableBroadcast sets SO_BROADCAST on conn's underlying socket. A UDP
// socket cannot send to a broadcast destination such as 255.255.255.255
// until this is set, which discoverNewPeers (§4.7) relies on.
func EnableBroadcast(conn *net.UDPConn) error {
	rc, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	var sockErr error
	if err := rc.Control(func(fd uintptr) {
		sockErr = syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_BROADCAST, 1)
	}); err != nil {
		return err
	}
	return sockErr
}
