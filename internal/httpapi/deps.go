package httpapi

import (
	"database/sql"
	"log/slog"
	"sync/atomic"

	"leasingedge-engine/internal/config"
	"leasingedge-engine/internal/events"
	"leasingedge-engine/internal/refdata"
	"leasingedge-engine/internal/report"
)

type Deps struct {
	// AuditDB is nil when the audit store is disabled.
	AuditDB *sql.DB

	Hub *events.Hub

	CfgVal *atomic.Value // stores config.Config

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	Cache    *refdata.Cache
	Reports  *report.Service
	Sessions *report.Sessions

	Log *slog.Logger
}
