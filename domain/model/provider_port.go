package model

import "context"

// ProviderPort is an interface (domain port) for provider account level setup.
type ProviderPort interface {
	// Prepare makes sure provider-side prerequisites (SSH key, firewall or
	// security group) exist. It returns human readable notes of what was
	// checked or created. Drivers without prerequisites return no notes.
	Prepare(ctx context.Context, provider *Provider) ([]string, error)
}
