//go:build linux

package hotplug

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// kernelGroup is the netlink multicast group the kernel broadcasts uevents on.
const kernelGroup = 1

// Monitor reads sound subsystem uevents from a netlink socket.
type Monitor struct {
	fd int
}

// Open binds a netlink socket to kernel uevents. No root is needed.
func Open() (*Monitor, error) {
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, unix.NETLINK_KOBJECT_UEVENT)
	if err != nil {
		return nil, fmt.Errorf("open uevent socket: %w", err)
	}

	if err := unix.Bind(fd, &unix.SockaddrNetlink{Family: unix.AF_NETLINK, Groups: kernelGroup}); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("bind uevent socket: %w", err)
	}

	// Wake up every second so Run notices cancellation.
	if err := unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &unix.Timeval{Sec: 1}); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("set uevent socket timeout: %w", err)
	}

	return &Monitor{fd: fd}, nil
}

// Run forwards sound uevents to out until ctx is cancelled or the socket
// fails. out is closed when Run returns.
func (m *Monitor) Run(ctx context.Context, out chan<- UEvent) error {
	defer close(out)

	buf := make([]byte, 8192)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, _, err := unix.Recvfrom(m.fd, buf, 0)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("read uevent: %w", err)
		}

		ev, ok := ParseUEvent(buf[:n])
		if !ok || ev.Subsystem != SubsystemSound {
			continue
		}

		select {
		case out <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close releases the socket. Call it after Run has returned.
func (m *Monitor) Close() error {
	return unix.Close(m.fd)
}
