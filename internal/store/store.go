package store

import "github.com/jgoulah/powerpal/pkg/models"

// Appender adds records to the end of the usage log
type Appender interface {
	Append(record models.UsageRecord) error
}

// Reader loads the full usage log in insertion order
type Reader interface {
	LoadAll() ([]models.UsageRecord, error)
}

// Store is the append-only source of truth for usage records.
// Implementations validate every record before it is written.
type Store interface {
	Appender
	Reader
}
