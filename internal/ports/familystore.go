package ports

import "github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/domain"

// FamilyStore persists whole limit families. Load is atomic: on error no
// family is returned.
type FamilyStore interface {
	Save(path string, f *domain.LimitFamily) error
	Load(path string) (*domain.LimitFamily, error)
}
