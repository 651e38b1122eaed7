package journal

import (
	"strconv"
	"strings"
)

// dialect holds the SQL that differs between drivers.
type dialect struct {
	driver    string
	createSQL []string
	numbered  bool
}

var dialects = map[string]dialect{
	DriverSQLite: {
		driver: "sqlite",
		createSQL: []string{
			`CREATE TABLE IF NOT EXISTS settlements (
				seq          INTEGER PRIMARY KEY AUTOINCREMENT,
				op           TEXT NOT NULL,
				record_key   TEXT NOT NULL DEFAULT '',
				actor        TEXT NOT NULL DEFAULT '',
				asset_in     TEXT NOT NULL DEFAULT '',
				amount_in    TEXT NOT NULL DEFAULT '0',
				asset_out    TEXT NOT NULL DEFAULT '',
				amount_out   TEXT NOT NULL DEFAULT '0',
				lp_amount    TEXT NOT NULL DEFAULT '0',
				fee          TEXT NOT NULL DEFAULT '0',
				protocol_fee TEXT NOT NULL DEFAULT '0',
				referral_fee TEXT NOT NULL DEFAULT '0',
				settled_at   INTEGER NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS settlements_key ON settlements (record_key)`,
			`CREATE INDEX IF NOT EXISTS settlements_actor ON settlements (actor)`,
		},
	},
	DriverPostgres: {
		driver:   "postgres",
		numbered: true,
		createSQL: []string{
			`CREATE TABLE IF NOT EXISTS settlements (
				seq          BIGSERIAL PRIMARY KEY,
				op           TEXT NOT NULL,
				record_key   TEXT NOT NULL DEFAULT '',
				actor        TEXT NOT NULL DEFAULT '',
				asset_in     TEXT NOT NULL DEFAULT '',
				amount_in    NUMERIC(20,0) NOT NULL DEFAULT 0,
				asset_out    TEXT NOT NULL DEFAULT '',
				amount_out   NUMERIC(20,0) NOT NULL DEFAULT 0,
				lp_amount    NUMERIC(20,0) NOT NULL DEFAULT 0,
				fee          NUMERIC(20,0) NOT NULL DEFAULT 0,
				protocol_fee NUMERIC(20,0) NOT NULL DEFAULT 0,
				referral_fee NUMERIC(20,0) NOT NULL DEFAULT 0,
				settled_at   BIGINT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS settlements_key ON settlements (record_key)`,
			`CREATE INDEX IF NOT EXISTS settlements_actor ON settlements (actor)`,
		},
	},
}

// rebind rewrites ? placeholders as $n for drivers that number them.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// amountColumn reads an amount column as text on every driver.
func (d dialect) amountColumn(col string) string {
	if d.numbered {
		return col + "::TEXT"
	}
	return col
}
