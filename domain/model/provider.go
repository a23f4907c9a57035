package model

import "time"

// Provider represents an infrastructure provider account (e.g., hcloud, ec2).
type Provider struct {
	ID        string
	Name      string
	Driver    string            // e.g., "hcloud", "ec2"
	Settings  map[string]string // credentials and driver configuration
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Setting returns the named setting or def when it is unset or empty.
func (p *Provider) Setting(key, def string) string {
	if p == nil || p.Settings == nil {
		return def
	}
	if v, ok := p.Settings[key]; ok && v != "" {
		return v
	}
	return def
}
