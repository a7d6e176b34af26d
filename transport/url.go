package transport

import (
	"fmt"
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/idna"

	"github.com/kbukum/gs2kit/errors"
)

// Destination identifies a pooled connection.
type Destination struct {
	Scheme string
	Host   string
	Port   int
}

// String renders the destination as "scheme://host:port".
func (d Destination) String() string {
	return d.Scheme + "://" + net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
}

// NormalizeURL gives an absolute URL with an empty path the root path "/",
// so "https://host?x=1" becomes "https://host/?x=1". Anything else,
// including input that is not an absolute URL, is returned unchanged.
func NormalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" || u.Path != "" || u.Opaque != "" {
		return rawURL
	}
	authority := strings.Index(rawURL, "//") + 2
	end := strings.IndexAny(rawURL[authority:], "?#")
	if end < 0 {
		return rawURL + "/"
	}
	end += authority
	return rawURL[:end] + "/" + rawURL[end:]
}

// DestinationOf extracts the pool key of rawURL. Only http and https are
// accepted; missing ports default to 80 and 443. International host names
// are converted to their ASCII form.
func DestinationOf(rawURL string) (Destination, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Destination{}, errors.InvalidInput("url", "malformed url").WithCause(err)
	}
	return destinationOf(u)
}

func destinationOf(u *url.URL) (Destination, error) {
	scheme := strings.ToLower(u.Scheme)
	var port int
	switch scheme {
	case "http":
		port = 80
	case "https":
		port = 443
	default:
		return Destination{}, errors.InvalidInput("url", fmt.Sprintf("invalid protocol %q", u.Scheme))
	}

	host := u.Hostname()
	if host == "" {
		return Destination{}, errors.InvalidInput("url", "missing host")
	}
	if net.ParseIP(host) == nil {
		ascii, err := idna.Lookup.ToASCII(host)
		if err != nil {
			return Destination{}, errors.InvalidInput("url", fmt.Sprintf("invalid host %q", host)).WithCause(err)
		}
		host = ascii
	}

	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 || n > 65535 {
			return Destination{}, errors.InvalidInput("url", fmt.Sprintf("invalid port %q", p))
		}
		port = n
	}
	return Destination{Scheme: scheme, Host: host, Port: port}, nil
}

// hostHeader renders the Host header value: the ASCII host, plus the port
// when the URL names one.
func hostHeader(u *url.URL, dest Destination) string {
	if p := u.Port(); p != "" {
		return net.JoinHostPort(dest.Host, p)
	}
	if strings.Contains(dest.Host, ":") {
		return "[" + dest.Host + "]"
	}
	return dest.Host
}

// EncodeQuery percent-encodes every key and value and joins the pairs with
// "&" in key order. Spaces become "%20". An empty map encodes to "".
func EncodeQuery(query map[string]string) string {
	if len(query) == 0 {
		return ""
	}
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(escape(k))
		b.WriteByte('=')
		b.WriteString(escape(query[k]))
	}
	return b.String()
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// withQuery appends the encoded query to rawURL.
func withQuery(rawURL string, query map[string]string) string {
	q := EncodeQuery(query)
	if q == "" {
		return rawURL
	}
	if strings.Contains(rawURL, "?") {
		return rawURL + "&" + q
	}
	return rawURL + "?" + q
}
