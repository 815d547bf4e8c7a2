// Package deeplink builds the auto-login URL the embedded web client reads on
// page load. The URL carries a live credential: callers must not log it,
// cache it, or hand it to anything but the iframe that consumes it.
package deeplink

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
)

var (
	ErrInvalidBase        = errors.New("deeplink: base must be an absolute http(s) URL")
	ErrMissingCredentials = errors.New("deeplink: username and secret are required")
	ErrInvalidChannel     = errors.New("deeplink: invalid channel name")
)

// maxChannelLen follows the common CHANNELLEN default.
const maxChannelLen = 50

// Connection is the IRC network the web client should connect to.
type Connection struct {
	Host               string
	Port               int
	TLS                bool
	RejectUnauthorized bool
}

// Params is everything encoded into the link.
type Params struct {
	Connection Connection

	Username string // bouncer account
	Secret   string // plaintext secret or single-use ticket
	Nick     string
	RealName string
	Channels []string
}

// Build returns base with the connection, identity and auto-login parameters
// set as query values. Existing query values on base are kept unless they
// collide. Values are encoded as given; only channel names gain a leading '#'.
func Build(base string, p Params) (string, error) {
	u, err := url.Parse(base)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", ErrInvalidBase
	}
	if p.Username == "" || p.Secret == "" {
		return "", ErrMissingCredentials
	}

	channels, err := NormalizeChannels(p.Channels)
	if err != nil {
		return "", err
	}

	nick := p.Nick
	if nick == "" {
		nick = p.Username
	}

	q := u.Query()

	if c := p.Connection; c.Host != "" {
		q.Set("host", c.Host)
		if c.Port > 0 {
			q.Set("port", strconv.Itoa(c.Port))
		}
		q.Set("tls", strconv.FormatBool(c.TLS))
		q.Set("rejectUnauthorized", strconv.FormatBool(c.RejectUnauthorized))
	}

	q.Set("nick", nick)
	q.Set("username", p.Username)
	q.Set("password", p.Secret)
	if p.RealName != "" {
		q.Set("realname", p.RealName)
	}
	if len(channels) > 0 {
		q.Set("join", strings.Join(channels, ","))
	}

	q.Set("autologin", "true")
	q.Set("user", p.Username)
	q.Set("al-password", p.Secret)
	q.Set("autoconnect", "true")

	// iframe-friendly: no focus stealing, no switching away from the joined channel
	q.Set("lockchannel", "true")
	q.Set("nofocus", "true")

	u.RawQuery = q.Encode()
	return u.String(), nil
}

// NormalizeChannel prefixes a bare name with '#' and rejects names an IRC
// server would refuse.
func NormalizeChannel(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidChannel
	}
	if name[0] != '#' && name[0] != '&' {
		name = "#" + name
	}
	if len(name) < 2 || len(name) > maxChannelLen || strings.ContainsAny(name, " ,\a\r\n\x00") {
		return "", ErrInvalidChannel
	}
	return name, nil
}

// NormalizeChannels normalizes each name and drops duplicates, keeping order.
func NormalizeChannels(names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		c, err := NormalizeChannel(n)
		if err != nil {
			return nil, err
		}
		key := strings.ToLower(c)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out, nil
}
