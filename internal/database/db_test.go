package database

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenSQLiteInMemoryAndMigrate(t *testing.T) {
	db, err := Open(Config{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	require.True(t, db.Migrator().HasTable("family_invites"))
	require.True(t, db.Migrator().HasTable("family_members"))
	require.True(t, db.Migrator().HasTable("users"))
}

func TestOpenDefaultsToSQLite(t *testing.T) {
	db, err := Open(Config{DSN: "file::memory:?cache=shared"})
	require.NoError(t, err)
	require.NotNil(t, db)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	require.Error(t, err)
}

func TestBuildPostgresDSN(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{
		User:     "hearth",
		Password: "secret",
		Name:     "hearthdb",
		Host:     "db.internal",
		Port:     5433,
		Options:  map[string]string{"sslmode": "require"},
	})
	require.NoError(t, err)
	require.Equal(t, "host=db.internal port=5433 user=hearth dbname=hearthdb password=secret sslmode=require", dsn)

	_, err = buildPostgresDSN(Config{Host: "db.internal"})
	require.Error(t, err)

	dsn, err = buildPostgresDSN(Config{DSN: "postgres://override"})
	require.NoError(t, err)
	require.Equal(t, "postgres://override", dsn)
}

func TestBuildMySQLDSN(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{
		User:     "hearth",
		Password: "secret",
		Name:     "hearthdb",
	})
	require.NoError(t, err)
	require.Equal(t, "hearth:secret@tcp(127.0.0.1:3306)/hearthdb?charset=utf8mb4&loc=Local&parseTime=True", dsn)

	_, err = buildMySQLDSN(Config{User: "hearth"})
	require.Error(t, err)
}
