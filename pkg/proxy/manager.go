package proxy

import (
	"fmt"
	"net/http"
	"net/url"
	"sync"
)

// Manager hands out proxies from a fixed list, rotating sequentially.
type Manager struct {
	proxies    []*url.URL
	mu         sync.Mutex
	proxyIndex int
}

// NewManager parses the proxy URLs. An empty list is valid and means "no proxy".
func NewManager(rawProxies []string) (*Manager, error) {
	m := &Manager{}
	for _, raw := range rawProxies {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("invalid proxy url %q", raw)
		}
		m.proxies = append(m.proxies, u)
	}
	return m, nil
}

// Len reports how many proxies are configured.
func (m *Manager) Len() int {
	return len(m.proxies)
}

// Next returns the next proxy in the rotation, or nil when none are configured.
func (m *Manager) Next() *url.URL {
	if len(m.proxies) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.proxies[m.proxyIndex]
	m.proxyIndex = (m.proxyIndex + 1) % len(m.proxies)
	return p
}

// ProxyFunc adapts the rotation to http.Transport.Proxy.
func (m *Manager) ProxyFunc() func(*http.Request) (*url.URL, error) {
	return func(*http.Request) (*url.URL, error) {
		return m.Next(), nil
	}
}
