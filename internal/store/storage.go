// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package store

import (
	"database/sql"
	"fmt"
	"math/rand/v2"

	_ "github.com/proullon/ramsql/driver"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// defaultMaxConn avoids issues with concurrent access against the
// in-memory ramsql backend used by tests.
const defaultMaxConn = 1

// Storage wraps *gorm.DB with the auto-migration/join-table/in-memory
// conveniences this repo needs, mirroring the ambient db.Storage idiom.
type Storage struct {
	*gorm.DB

	types   []any
	maxConn int
}

type StorageOption func(*Storage)

// WithAutoMigration adds types to GORM's auto-migration.
func WithAutoMigration(types ...any) StorageOption {
	return func(s *Storage) {
		s.types = append(s.types, types...)
	}
}

// WithInMemory configures Storage to use a fresh in-memory database. Each
// call creates a distinct instance, matching the ambient db package so
// tests can get an isolated store per test.
func WithInMemory() StorageOption {
	return func(s *Storage) {
		s.DB, _ = newInMemoryStorage()
	}
}

// WithMaxOpenConns configures the maximum number of open connections.
func WithMaxOpenConns(max int) StorageOption {
	return func(s *Storage) {
		s.maxConn = max
	}
}

// WithDSN configures Storage to connect to a real Postgres instance via dsn,
// the production counterpart to WithInMemory.
func WithDSN(dsn string) StorageOption {
	return func(s *Storage) {
		s.DB, _ = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}
}

// NewStorage builds a Storage, registering the tags JSON serializer and
// auto-migrating AllModels() plus any additional types.
func NewStorage(opts ...StorageOption) (s *Storage, err error) {
	s = &Storage{maxConn: defaultMaxConn}
	s.types = append(s.types, AllModels()...)

	for _, o := range opts {
		o(s)
	}

	if s.DB == nil {
		s.DB, err = newInMemoryStorage()
		if err != nil {
			return nil, fmt.Errorf("could not create in-memory storage: %w", err)
		}
	}

	if s.maxConn > 0 {
		sqlDB, err := s.DB.DB()
		if err != nil {
			return nil, fmt.Errorf("could not retrieve sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(s.maxConn)
	}

	schema.RegisterSerializer("hbtags", &TagsSerializer{})

	if err = s.DB.AutoMigrate(s.types...); err != nil {
		return nil, fmt.Errorf("error during auto-migration: %w", err)
	}

	return s, nil
}

// newInMemoryStorage opens a fresh ramsql-backed in-memory database,
// wrapped by gorm's postgres dialect — the same trick the ambient db
// package uses to get Postgres-compatible SQL without a real server.
func newInMemoryStorage() (g *gorm.DB, err error) {
	sqlDB, err := sql.Open("ramsql", fmt.Sprintf("hb_inmemory_%d", rand.Uint64()))
	if err != nil {
		return nil, fmt.Errorf("could not open in-memory database: %w", err)
	}

	g, err = gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("could not create gorm connection: %w", err)
	}

	return g, nil
}
