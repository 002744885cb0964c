package ports

import "github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/domain"

// ExportLedger keeps an audit trail of limits accepted by the instrument.
type ExportLedger interface {
	Record(records []*domain.ExportRecord) error
	Name() string
}
