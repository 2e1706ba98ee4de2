// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package store

import (
	"context"
	"encoding/json"
	"reflect"

	"gorm.io/gorm/schema"

	"github.com/sentinel-hb/hb/internal/telemetry"
)

// TagsSerializer is a GORM serializer for telemetry.Tags, stored as a JSON
// text column. It follows the same SerializerInterface/
// SerializerValuerInterface shape the ambient db package uses for its
// protobuf well-known types, re-targeted at our own map payload.
type TagsSerializer struct{}

func (TagsSerializer) Value(_ context.Context, _ *schema.Field, _ reflect.Value, fieldValue interface{}) (interface{}, error) {
	tags, ok := fieldValue.(telemetry.Tags)
	if !ok || tags == nil {
		return nil, nil
	}
	return json.Marshal(tags)
}

func (TagsSerializer) Scan(ctx context.Context, field *schema.Field, dst reflect.Value, dbValue interface{}) (err error) {
	var tags telemetry.Tags

	if dbValue != nil {
		var raw []byte
		switch v := dbValue.(type) {
		case []byte:
			raw = v
		case string:
			raw = []byte(v)
		default:
			return ErrUnsupportedType
		}

		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &tags); err != nil {
				return err
			}
		}
	}

	field.ReflectValueOf(ctx, dst).Set(reflect.ValueOf(tags))
	return nil
}
