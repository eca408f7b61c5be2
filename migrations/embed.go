// Package migrations holds the audit database's SQL and the ordered
// migration set built from it. There is no filename-convention scanner
// here: each migration is declared explicitly below, right next to the
// files it embeds, so adding one means adding both a pair of .sql files
// and a line in All.
package migrations

import (
	_ "embed"

	"github.com/graylogic-labs/knxnetip/internal/db"
)

//go:embed 20260101_000000_create_audit_events.up.sql
var createAuditEventsUp string

//go:embed 20260101_000000_create_audit_events.down.sql
var createAuditEventsDown string

// All is the audit database's schema migrations, oldest first.
var All = []db.Migration{
	{
		Version: "20260101_000000",
		Name:    "create_audit_events",
		UpSQL:   createAuditEventsUp,
		DownSQL: createAuditEventsDown,
	},
}
