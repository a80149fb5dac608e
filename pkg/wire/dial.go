//go:build unix

package wire

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/samber/oops"
	"golang.org/x/sys/unix"
)

// Network is the socket type of the side-band channel.
const Network = "unixpacket"

const dialRetryInterval = 100 * time.Millisecond

// Dial connects to the driver's channel at addr, "@xeth" by default. The
// driver answers EAGAIN while it is still setting up and ECONNREFUSED
// before it has loaded; Dial keeps retrying both until ctx ends.
func Dial(ctx context.Context, addr string) (*net.UnixConn, error) {
	var d net.Dialer
	for {
		conn, err := d.DialContext(ctx, Network, addr)
		if err == nil {
			return conn.(*net.UnixConn), nil
		}
		if !retryable(err) {
			return nil, oops.In("wire").With("addr", addr).Wrapf(err, "dial")
		}
		select {
		case <-ctx.Done():
			return nil, oops.In("wire").With("addr", addr).Wrapf(err, "dial: %v", ctx.Err())
		case <-time.After(dialRetryInterval):
		}
	}
}

func retryable(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.ECONNREFUSED)
}
