package embed

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
)

var (
	ErrPolicyInstalled = errors.New("navigation policy already installed")
	ErrUnsafeSandbox   = errors.New("sandbox token would allow navigation without a user gesture")
)

// Tokens that let the frame open windows or navigate the top page on its own.
var forbiddenTokens = map[string]bool{
	"allow-popups":                   true,
	"allow-popups-to-escape-sandbox": true,
	"allow-top-navigation":           true,
}

// NavigationPolicy decides what the player frame may do to the surrounding page.
type NavigationPolicy struct {
	Sandbox        []string
	SuppressPopups bool
	FrameOrigin    string // scheme://host of the embed provider
}

// NewNavigationPolicy validates the sandbox tokens and derives the frame origin from base.
func NewNavigationPolicy(base string, sandbox []string, suppressPopups bool) (*NavigationPolicy, error) {
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid player base url %q", base)
	}

	tokens := make([]string, 0, len(sandbox))
	seen := make(map[string]bool)
	for _, token := range sandbox {
		token = strings.ToLower(strings.TrimSpace(token))
		if token == "" || seen[token] {
			continue
		}
		if forbiddenTokens[token] {
			return nil, fmt.Errorf("%s: %w", token, ErrUnsafeSandbox)
		}
		seen[token] = true
		tokens = append(tokens, token)
	}

	return &NavigationPolicy{
		Sandbox:        tokens,
		SuppressPopups: suppressPopups,
		FrameOrigin:    u.Scheme + "://" + u.Host,
	}, nil
}

// SandboxAttr is the value of the iframe sandbox attribute.
func (p *NavigationPolicy) SandboxAttr() string {
	return strings.Join(p.Sandbox, " ")
}

// ContentSecurityPolicy restricts which origins may be framed by our pages.
func (p *NavigationPolicy) ContentSecurityPolicy() string {
	return "frame-src " + p.FrameOrigin
}

var (
	installMu sync.RWMutex
	installed *NavigationPolicy
)

// Install makes p the process-wide policy. It can only be called once.
func Install(p *NavigationPolicy) error {
	if p == nil {
		return errors.New("nil navigation policy")
	}
	installMu.Lock()
	defer installMu.Unlock()
	if installed != nil {
		return ErrPolicyInstalled
	}
	installed = p
	return nil
}

// Installed returns the process-wide policy, if any.
func Installed() (*NavigationPolicy, bool) {
	installMu.RLock()
	defer installMu.RUnlock()
	return installed, installed != nil
}
