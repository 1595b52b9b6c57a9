package registry

import (
	"net"
	"time"
)

func dialUnixTimeout(path string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout("unix", path, timeout)
}
