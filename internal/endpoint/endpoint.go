// Package endpoint 将用户提供的绑定地址字符串解析为具体的监听端点。
//
// 支持的输入形式：
//   - host:port        如 "10.0.0.1:8080"、"localhost:80"
//   - [ipv6]:port      如 "[::1]:9090"
//   - host             如 "0.0.0.0"、"example.com"，使用默认端口
//   - [ipv6] 或 ipv6   如 "[fe80::1]"、"fe80::1"，使用默认端口
//   - :port            如 ":8080"，主机取本机名解析出的第一个地址
//
// 无法解析为 IP 字面量且主机名解析无结果时返回 *FormatError。
package endpoint

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"strconv"
	"strings"
)

// ErrUnresolvable is wrapped by a FormatError when the host is neither an
// IP literal nor a name that resolves to at least one address.
var ErrUnresolvable = errors.New("host did not resolve to an address")

// FormatError reports a bind string that could not be turned into an endpoint.
type FormatError struct {
	Input string
	Err   error
}

func (e *FormatError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid IP endpoint %q", e.Input)
	}
	return fmt.Sprintf("invalid IP endpoint %q: %v", e.Input, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// LookupFunc resolves a host name to its addresses.
type LookupFunc func(ctx context.Context, host string) ([]netip.Addr, error)

// Normalizer turns bind strings into endpoints. The zero value resolves
// names with net.DefaultResolver.
type Normalizer struct {
	Lookup LookupFunc
	// Hostname names the local host for an empty host such as ":8080".
	// Nil means os.Hostname.
	Hostname func() (string, error)
}

// Normalize parses raw into an endpoint, using defaultPort when raw carries
// no usable port of its own.
func (n Normalizer) Normalize(ctx context.Context, raw string, defaultPort int) (netip.AddrPort, error) {
	host, port := splitHostPort(raw, defaultPort)
	if port <= 0 || port > 0xFFFF {
		return netip.AddrPort{}, &FormatError{Input: raw, Err: fmt.Errorf("port %d out of range", port)}
	}

	if len(host) >= 2 && host[0] == '[' && host[len(host)-1] == ']' {
		host = host[1 : len(host)-1]
	}

	addr, err := netip.ParseAddr(host)
	if err != nil {
		addr, err = n.resolve(ctx, host)
		if err != nil {
			return netip.AddrPort{}, &FormatError{Input: raw, Err: err}
		}
	}

	return netip.AddrPortFrom(addr, uint16(port)), nil
}

// splitHostPort splits at the last colon only when that colon can be a
// port separator: it leads the string, it follows a bracketed literal, or
// it is the only colon. An unparsable or out-of-range port leaves raw whole.
func splitHostPort(raw string, defaultPort int) (string, int) {
	colon := strings.LastIndexByte(raw, ':')
	if colon < 0 {
		return raw, defaultPort
	}

	bracketed := colon > 0 && raw[0] == '[' && raw[colon-1] == ']'
	multiColon := strings.LastIndexByte(raw[:colon], ':') >= 0
	if colon != 0 && !bracketed && multiColon {
		return raw, defaultPort
	}

	n, err := strconv.Atoi(raw[colon+1:])
	if err != nil || n <= 0 || n >= 0x10000 {
		return raw, defaultPort
	}
	return raw[:colon], n
}

func (n Normalizer) resolve(ctx context.Context, host string) (netip.Addr, error) {
	lookup := n.Lookup
	if lookup == nil {
		lookup = defaultLookup
	}

	if host == "" {
		hostname := n.Hostname
		if hostname == nil {
			hostname = os.Hostname
		}
		name, err := hostname()
		if err != nil {
			return netip.Addr{}, fmt.Errorf("%w: local host name: %v", ErrUnresolvable, err)
		}
		host = name
	}

	// Transient and permanent lookup failures are not told apart.
	addrs, err := lookup(ctx, host)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%w: %v", ErrUnresolvable, err)
	}
	if len(addrs) == 0 {
		return netip.Addr{}, ErrUnresolvable
	}
	return addrs[0].Unmap(), nil
}

func defaultLookup(ctx context.Context, host string) ([]netip.Addr, error) {
	return net.DefaultResolver.LookupNetIP(ctx, "ip", host)
}

// URL renders an endpoint as an http listen URL, e.g. "http://[::1]:9090/".
func URL(ap netip.AddrPort) string {
	return "http://" + ap.String() + "/"
}

// SplitList flattens ';'-separated bind values into single tokens,
// dropping empty ones.
func SplitList(values ...string) []string {
	var out []string
	for _, v := range values {
		for _, tok := range strings.Split(v, ";") {
			if tok = strings.TrimSpace(tok); tok != "" {
				out = append(out, tok)
			}
		}
	}
	return out
}
