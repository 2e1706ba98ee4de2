// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package store

import (
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Create attempts to insert the provided record into the database.
func (s *Storage) Create(r any) (err error) {
	err = s.DB.Create(r).Error

	if err != nil && (strings.Contains(err.Error(), "constraint failed: UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key value violates unique constraint")) {
		return ErrUniqueConstraintFailed
	}
	if err != nil && strings.Contains(err.Error(), "constraint failed") {
		return ErrConstraintFailed
	}
	return
}

// Save saves the given record, applying optional where-conditions.
func (s *Storage) Save(r any, conds ...any) (err error) {
	db := applyWhere(s.DB, conds...).Save(r)
	err = db.Error
	if err != nil && strings.Contains(err.Error(), "constraint failed") {
		return ErrConstraintFailed
	}
	return err
}

// Update applies changes to a record, optionally filtered by conds.
func (s *Storage) Update(r any, conds ...any) (err error) {
	db := s.DB.Session(&gorm.Session{FullSaveAssociations: true}).Model(r)
	db = applyWhere(db, conds...).Updates(r)
	if err = db.Error; err != nil {
		if strings.Contains(err.Error(), "constraint failed") {
			return ErrConstraintFailed
		}
		return err
	}

	if db.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// Delete removes the record matching conds.
func (s *Storage) Delete(r any, conds ...any) (err error) {
	db := s.DB.Delete(r, conds...)
	if err = db.Error; err != nil {
		return err
	}
	if db.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// Get retrieves a single record, returning ErrRecordNotFound if absent.
func (s *Storage) Get(r any, conds ...any) (err error) {
	db, conds := applyPreload(s.DB, conds...)
	err = db.First(r, conds...).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = ErrRecordNotFound
	}
	return
}

// List retrieves a list of records with optional ordering/offset/limit.
func (s *Storage) List(r any, orderBy string, asc bool, offset int, limit int, conds ...any) error {
	db := s.DB
	orderDirection := "asc"

	if limit != -1 {
		db = s.DB.Limit(limit)
	}
	if !asc {
		orderDirection = "desc"
	}
	orderStmt := orderBy + " " + orderDirection
	if orderBy == "" {
		orderStmt = ""
	}

	db, conds = applyPreload(db.Offset(offset), conds...)
	return db.Order(orderStmt).Find(r, conds...).Error
}

// Count retrieves the count of records matching conds.
func (s *Storage) Count(r any, conds ...any) (count int64, err error) {
	db := applyWhere(s.DB.Model(r), conds...)
	err = db.Count(&count).Error
	return
}

// Raw executes a raw SQL query into dst.
func (s *Storage) Raw(r any, query string, args ...any) error {
	return s.DB.Raw(query, args...).Scan(r).Error
}

func applyWhere(db *gorm.DB, conds ...any) *gorm.DB {
	if len(conds) == 0 {
		return db
	} else if len(conds) == 1 {
		return db.Where(conds[0])
	}
	return db.Where(conds[0], conds[1:]...)
}

func applyPreload(db *gorm.DB, conds ...any) (*gorm.DB, []any) {
	if len(conds) > 0 {
		if preload, ok := conds[0].(*preload); ok {
			if preload.query != "" {
				return db.Preload(preload.query, preload.args...), conds[1:]
			}
			return db, conds[1:]
		}
	}
	return db.Preload(clause.Associations), conds
}

// QueryOption customizes a CRUD query.
type QueryOption interface{}

type preload struct {
	query string
	args  []any
}

// WithPreload customizes GORM's preload with the given query/args.
func WithPreload(query string, args ...any) QueryOption {
	return &preload{query: query, args: args}
}

// WithoutPreload disables preloading, necessary when custom join tables
// are in play.
func WithoutPreload() QueryOption {
	return &preload{query: ""}
}
