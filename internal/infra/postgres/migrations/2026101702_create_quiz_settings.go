package migrations

import (
	_ "embed"
)

//go:embed 0002_create_quiz_settings.sql
var createQuizSettingsSQL string

func init() {
	Migrations.MustRegister(
		execSQL(createQuizSettingsSQL),
		execSQL(`DROP TABLE IF EXISTS quiz_settings`),
	)
}
