package migrations

import (
	_ "embed"
)

//go:embed 0001_create_registrations.sql
var createRegistrationsSQL string

func init() {
	Migrations.MustRegister(
		execSQL(createRegistrationsSQL),
		execSQL(`DROP TABLE IF EXISTS registrations`),
	)
}
