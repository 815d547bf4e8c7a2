// Package embed is the server side of the iframe bridge: the origin policy,
// the message formats exchanged with the host page and the script that the
// web client page loads to take part.
package embed

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/aussiebroadwan/ircbridge/pkg/deeplink"
)

const (
	TypeLogin = "irc-login"
	TypeEvent = "irc-event"
)

var (
	ErrUntrustedOrigin = errors.New("embed: untrusted origin")
	ErrUnknownMessage  = errors.New("embed: unknown message type")
	ErrMalformed       = errors.New("embed: malformed message")
	ErrInvalidOrigin   = errors.New("embed: invalid origin")
)

// Policy is the explicit list of host page origins trusted to drive the
// client. Matching is exact on scheme, host and port.
type Policy struct {
	origins []string
}

// NewPolicy validates and canonicalises origins.
func NewPolicy(origins []string) (*Policy, error) {
	p := &Policy{}
	for _, o := range origins {
		if strings.TrimSpace(o) == "" {
			continue
		}
		c, err := canonicalOrigin(o)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidOrigin, o)
		}
		if !slices.Contains(p.origins, c) {
			p.origins = append(p.origins, c)
		}
	}
	return p, nil
}

// Origins returns the canonical allow-list.
func (p *Policy) Origins() []string {
	return slices.Clone(p.origins)
}

// Allowed reports whether origin is on the list. The opaque "null" origin
// never is.
func (p *Policy) Allowed(origin string) bool {
	c, err := canonicalOrigin(origin)
	if err != nil {
		return false
	}
	return slices.Contains(p.origins, c)
}

// FrameAncestors is the CSP frame-ancestors source list; 'none' when empty.
func (p *Policy) FrameAncestors() string {
	if len(p.origins) == 0 {
		return "'none'"
	}
	return strings.Join(p.origins, " ")
}

func canonicalOrigin(s string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrInvalidOrigin
	}
	if u.Host == "" || u.User != nil || (u.Path != "" && u.Path != "/") || u.RawQuery != "" || u.Fragment != "" {
		return "", ErrInvalidOrigin
	}

	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		port = ""
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		host += ":" + port
	}
	return u.Scheme + "://" + host, nil
}

// LoginMessage is the host page's request to sign the client in.
type LoginMessage struct {
	Type     string   `json:"type"`
	Nick     string   `json:"nick"`
	Password string   `json:"password"`
	RealName string   `json:"realname"`
	Channels []string `json:"channels"`
}

// Decode checks origin before looking at raw at all, then decodes an
// irc-login message. Channel names are normalised to '#name'.
func (p *Policy) Decode(origin string, raw []byte) (LoginMessage, error) {
	if !p.Allowed(origin) {
		return LoginMessage{}, ErrUntrustedOrigin
	}

	var msg LoginMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return LoginMessage{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if msg.Type != TypeLogin {
		return LoginMessage{}, fmt.Errorf("%w: %q", ErrUnknownMessage, msg.Type)
	}
	if msg.Nick == "" || msg.Password == "" {
		return LoginMessage{}, fmt.Errorf("%w: nick and password are required", ErrMalformed)
	}

	channels, err := deeplink.NormalizeChannels(msg.Channels)
	if err != nil {
		return LoginMessage{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	msg.Channels = channels
	return msg, nil
}

// Event is posted from the client frame to the host page.
type Event struct {
	Type      string `json:"type"`
	EventType string `json:"eventType"`
	Data      any    `json:"data"`
}

func NewEvent(eventType string, data any) Event {
	if data == nil {
		data = map[string]any{}
	}
	return Event{Type: TypeEvent, EventType: eventType, Data: data}
}
