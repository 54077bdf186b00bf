// Package database handles database connections and schema inspection.
//
// It wraps GORM to open the store that holds rc.conf overrides. SQLite is the
// default, matching a single appliance; MySQL is supported for a shared store.
//
// # Schema Inspection
//
// GetTableColumns lists the columns of a table for both dialects. The
// integrity feature uses it to verify that the overrides table matches the
// model the service writes.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	columns, err := database.GetTableColumns(db, "rc_overrides")
package database
