package catalog

import (
	"context"
	"sort"

	"github.com/davidbz/costdesk/internal/domain"
)

// Directory is a static domain.ClientDirectory read from the catalog file.
type Directory struct {
	clients map[string]domain.ClientInfo
}

// NewDirectory indexes client definitions. Later duplicates win.
func NewDirectory(defs []ClientDefinition) *Directory {
	clients := make(map[string]domain.ClientInfo, len(defs))
	for _, def := range defs {
		if def.ID == "" {
			continue
		}
		clients[def.ID] = domain.ClientInfo{ID: def.ID, Name: def.Name, Company: def.Company}
	}
	return &Directory{clients: clients}
}

// Lookup implements domain.ClientDirectory.
func (d *Directory) Lookup(_ context.Context, clientID string) (domain.ClientInfo, bool) {
	info, found := d.clients[clientID]
	return info, found
}

// List implements domain.ClientDirectory.
func (d *Directory) List(_ context.Context) []domain.ClientInfo {
	clients := make([]domain.ClientInfo, 0, len(d.clients))
	for _, info := range d.clients {
		clients = append(clients, info)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].ID < clients[j].ID })
	return clients
}
