package health

import (
	"context"
	"time"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Status is the health payload.
type Status struct {
	OK       bool   `json:"ok"`
	Database string `json:"database"`
	Dialect  string `json:"dialect,omitempty"`
	Workers  int    `json:"workers"`
	Error    string `json:"error,omitempty"`
}

// Service encapsulates health-related checks.
type Service struct {
	DB      Pinger
	Dialect string
	Workers int
	Timeout time.Duration
}

// NewService constructs a health service. A nil db reports the in-memory store.
func NewService(db Pinger, dialect string, workers int) *Service {
	return &Service{DB: db, Dialect: dialect, Workers: workers, Timeout: 2 * time.Second}
}

// Status reports whether the document store is reachable.
func (s *Service) Status(ctx context.Context) Status {
	st := Status{OK: true, Database: "memory", Workers: s.Workers}
	if s.DB == nil {
		return st
	}
	st.Database = "up"
	st.Dialect = s.Dialect

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	if err := s.DB.PingContext(ctx); err != nil {
		st.OK = false
		st.Database = "down"
		st.Error = err.Error()
	}
	return st
}
