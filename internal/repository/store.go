package repository

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"testcracker/internal/util"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Op string

const (
	OpEquals     Op = "equals"
	OpNot        Op = "not"
	OpIn         Op = "in"
	OpNotIn      Op = "notIn"
	OpLt         Op = "lt"
	OpLte        Op = "lte"
	OpGt         Op = "gt"
	OpGte        Op = "gte"
	OpContains   Op = "contains"
	OpStartsWith Op = "startsWith"
	OpEndsWith   Op = "endsWith"
	OpIsNull     Op = "isNull"
	OpIsNotNull  Op = "isNotNull"
)

// Filter restricts a query on one field, named as in the JSON representation of the model.
type Filter struct {
	Field string
	Op    Op
	Value any
}

type Order struct {
	Field string
	Desc  bool
}

// Query describes a read. Cursor is the id of the first record to return in
// the query's ordering; it supports at most one order field.
type Query struct {
	Where   []Filter
	OrderBy []Order
	Cursor  string
	Skip    int
	Take    int
	Include []string
}

type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindTime
	KindUUID
)

// Field maps an API field name to its column. Nullable fields cannot order a
// cursor page: NULLs never satisfy the row comparison.
type Field struct {
	Column   string
	Kind     Kind
	Nullable bool
}

// Schema is the whitelist of fields and relations a Store exposes.
type Schema struct {
	Fields    map[string]Field
	Relations map[string]string
}

func (s Schema) field(name string) (Field, error) {
	f, ok := s.Fields[name]
	if !ok {
		return Field{}, fmt.Errorf("%w: unknown field %q", util.ErrInvalidQuery, name)
	}
	return f, nil
}

func (s Schema) numeric(name string) (Field, error) {
	f, err := s.field(name)
	if err != nil {
		return f, err
	}
	if f.Kind != KindInt && f.Kind != KindFloat {
		return f, fmt.Errorf("%w: field %q is not numeric", util.ErrInvalidQuery, name)
	}
	return f, nil
}

// Store implements CRUD, filtering, pagination and aggregation for one model.
type Store[T any] struct {
	DB     *gorm.DB
	schema Schema
	table  string
}

func NewStore[T any](db *gorm.DB, schema Schema) *Store[T] {
	var zero T
	table := ""
	if t, ok := any(zero).(interface{ TableName() string }); ok {
		table = t.TableName()
	}
	return &Store[T]{DB: db, schema: schema, table: table}
}

func (s *Store[T]) Schema() Schema {
	return s.schema
}

func (s *Store[T]) Create(ctx context.Context, entity *T) error {
	return translateError(s.DB.WithContext(ctx).Create(entity).Error)
}

func (s *Store[T]) CreateMany(ctx context.Context, entities []T) error {
	if len(entities) == 0 {
		return nil
	}
	return translateError(s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(entities, 100).Error
	}))
}

// parseID canonicalizes a record id. A malformed id names no record.
func parseID(id string) (string, bool) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return u.String(), true
}

func (s *Store[T]) FindByID(ctx context.Context, id string, include ...string) (*T, error) {
	id, ok := parseID(id)
	if !ok {
		return nil, util.ErrNotFound
	}
	tx, err := s.preload(s.DB.WithContext(ctx), include)
	if err != nil {
		return nil, err
	}
	var entity T
	if err := tx.Where(clause.Eq{Column: clause.PrimaryColumn, Value: id}).Take(&entity).Error; err != nil {
		return nil, translateError(err)
	}
	return &entity, nil
}

func (s *Store[T]) FindFirst(ctx context.Context, q Query) (*T, error) {
	q.Take = 1
	list, err := s.FindMany(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, util.ErrNotFound
	}
	return &list[0], nil
}

func (s *Store[T]) FindMany(ctx context.Context, q Query) ([]T, error) {
	tx, err := s.build(s.DB.WithContext(ctx).Model(new(T)), q)
	if err != nil {
		return nil, err
	}
	var list []T
	if err := tx.Find(&list).Error; err != nil {
		return nil, translateError(err)
	}
	return list, nil
}

func (s *Store[T]) Count(ctx context.Context, where []Filter) (int64, error) {
	tx, err := s.where(s.DB.WithContext(ctx).Model(new(T)), where)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := tx.Count(&n).Error; err != nil {
		return 0, translateError(err)
	}
	return n, nil
}

// Update applies a partial update keyed by JSON field names and returns the fresh record.
func (s *Store[T]) Update(ctx context.Context, id string, fields map[string]any) (*T, error) {
	values, err := s.columns(fields)
	if err != nil {
		return nil, err
	}
	id, ok := parseID(id)
	if !ok {
		return nil, util.ErrNotFound
	}
	res := s.DB.WithContext(ctx).Model(new(T)).
		Where(clause.Eq{Column: clause.PrimaryColumn, Value: id}).
		Updates(values)
	if res.Error != nil {
		return nil, translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, util.ErrNotFound
	}
	return s.FindByID(ctx, id)
}

func (s *Store[T]) UpdateMany(ctx context.Context, where []Filter, fields map[string]any) (int64, error) {
	if len(where) == 0 {
		return 0, fmt.Errorf("%w: bulk update needs a filter", util.ErrInvalidQuery)
	}
	values, err := s.columns(fields)
	if err != nil {
		return 0, err
	}
	tx, err := s.where(s.DB.WithContext(ctx).Model(new(T)), where)
	if err != nil {
		return 0, err
	}
	res := tx.Updates(values)
	return res.RowsAffected, translateError(res.Error)
}

func (s *Store[T]) Delete(ctx context.Context, id string) error {
	id, ok := parseID(id)
	if !ok {
		return util.ErrNotFound
	}
	res := s.DB.WithContext(ctx).Where(clause.Eq{Column: clause.PrimaryColumn, Value: id}).Delete(new(T))
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return util.ErrNotFound
	}
	return nil
}

func (s *Store[T]) DeleteMany(ctx context.Context, where []Filter) (int64, error) {
	if len(where) == 0 {
		return 0, fmt.Errorf("%w: bulk delete needs a filter", util.ErrInvalidQuery)
	}
	tx, err := s.where(s.DB.WithContext(ctx), where)
	if err != nil {
		return 0, err
	}
	res := tx.Delete(new(T))
	return res.RowsAffected, translateError(res.Error)
}

func (s *Store[T]) build(tx *gorm.DB, q Query) (*gorm.DB, error) {
	tx, err := s.where(tx, q.Where)
	if err != nil {
		return nil, err
	}

	orders := q.OrderBy
	if len(orders) == 0 {
		orders = []Order{{Field: "createdAt", Desc: true}}
	}

	if q.Cursor != "" {
		if len(orders) > 1 {
			return nil, fmt.Errorf("%w: cursor pagination supports a single order field", util.ErrInvalidQuery)
		}
		if tx, err = s.cursor(tx, orders[0], q.Cursor); err != nil {
			return nil, err
		}
	}

	hasID := false
	for _, o := range orders {
		f, err := s.schema.field(o.Field)
		if err != nil {
			return nil, err
		}
		if f.Column == "id" {
			hasID = true
		}
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: f.Column}, Desc: o.Desc})
	}
	if !hasID {
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: orders[len(orders)-1].Desc})
	}

	if q.Skip < 0 || q.Take < 0 {
		return nil, fmt.Errorf("%w: skip and take must not be negative", util.ErrInvalidQuery)
	}
	if q.Skip > 0 {
		tx = tx.Offset(q.Skip)
	}
	if q.Take > 0 {
		tx = tx.Limit(q.Take)
	}

	return s.preload(tx, q.Include)
}

// cursor positions the query at the cursor record, inclusive, by comparing the
// (order column, id) row against the cursor's own row.
func (s *Store[T]) cursor(tx *gorm.DB, o Order, id string) (*gorm.DB, error) {
	f, err := s.schema.field(o.Field)
	if err != nil {
		return nil, err
	}
	if f.Nullable {
		return nil, fmt.Errorf("%w: cursor pagination cannot order by nullable field %q", util.ErrInvalidQuery, o.Field)
	}
	raw := id
	id, ok := parseID(raw)
	if !ok {
		return nil, fmt.Errorf("%w: malformed cursor %q", util.ErrInvalidQuery, raw)
	}
	op := ">="
	if o.Desc {
		op = "<="
	}
	if f.Column == "id" {
		return tx.Where(fmt.Sprintf("%s %s ?", quote("id"), op), id), nil
	}
	cols := quote(f.Column) + ", " + quote("id")
	return tx.Where(
		fmt.Sprintf("(%s) %s (SELECT %s FROM %s WHERE %s = ?)", cols, op, cols, quote(s.table), quote("id")),
		id,
	), nil
}

func (s *Store[T]) preload(tx *gorm.DB, include []string) (*gorm.DB, error) {
	for _, name := range include {
		assoc, ok := s.schema.Relations[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown relation %q", util.ErrInvalidQuery, name)
		}
		tx = tx.Preload(assoc)
	}
	return tx, nil
}

func (s *Store[T]) where(tx *gorm.DB, filters []Filter) (*gorm.DB, error) {
	for _, f := range filters {
		expr, err := s.expression(f)
		if err != nil {
			return nil, err
		}
		tx = tx.Where(expr)
	}
	return tx, nil
}

func (s *Store[T]) expression(f Filter) (clause.Expression, error) {
	field, err := s.schema.field(f.Field)
	if err != nil {
		return nil, err
	}
	col := clause.Column{Table: clause.CurrentTable, Name: field.Column}

	switch f.Op {
	case OpIsNull:
		return clause.Eq{Column: col, Value: nil}, nil
	case OpIsNotNull:
		return clause.Neq{Column: col, Value: nil}, nil
	case OpIn, OpNotIn:
		values, err := coerceList(field.Kind, f.Value)
		if err != nil {
			return nil, err
		}
		in := clause.IN{Column: col, Values: values}
		if f.Op == OpNotIn {
			return clause.Not(in), nil
		}
		return in, nil
	case OpContains, OpStartsWith, OpEndsWith:
		if field.Kind != KindString {
			return nil, fmt.Errorf("%w: %s requires a text field", util.ErrInvalidQuery, f.Op)
		}
		pattern := escapeLike(fmt.Sprint(f.Value))
		switch f.Op {
		case OpContains:
			pattern = "%" + pattern + "%"
		case OpStartsWith:
			pattern = pattern + "%"
		default:
			pattern = "%" + pattern
		}
		return clause.Like{Column: col, Value: pattern}, nil
	}

	v, err := coerce(field.Kind, f.Value)
	if err != nil {
		return nil, err
	}
	switch f.Op {
	case OpEquals, "":
		return clause.Eq{Column: col, Value: v}, nil
	case OpNot:
		return clause.Neq{Column: col, Value: v}, nil
	case OpLt:
		return clause.Lt{Column: col, Value: v}, nil
	case OpLte:
		return clause.Lte{Column: col, Value: v}, nil
	case OpGt:
		return clause.Gt{Column: col, Value: v}, nil
	case OpGte:
		return clause.Gte{Column: col, Value: v}, nil
	}
	return nil, fmt.Errorf("%w: unknown operator %q", util.ErrInvalidQuery, f.Op)
}

func (s *Store[T]) columns(fields map[string]any) (map[string]any, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", util.ErrInvalidQuery)
	}
	values := make(map[string]any, len(fields))
	for name, v := range fields {
		f, err := s.schema.field(name)
		if err != nil {
			return nil, err
		}
		if f.Column == "id" {
			return nil, fmt.Errorf("%w: id is immutable", util.ErrInvalidQuery)
		}
		values[f.Column] = v
	}
	return values, nil
}

func quote(name string) string {
	return `"` + name + `"`
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// coerce converts query-string values to the column's Go type; other values pass through.
func coerce(kind Kind, v any) (any, error) {
	str, ok := v.(string)
	if !ok {
		return v, nil
	}
	switch kind {
	case KindInt:
		n, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", util.ErrInvalidQuery, str)
		}
		return n, nil
	case KindFloat:
		n, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", util.ErrInvalidQuery, str)
		}
		return n, nil
	case KindTime:
		t, err := time.Parse(time.RFC3339, str)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an RFC 3339 time", util.ErrInvalidQuery, str)
		}
		return t, nil
	case KindUUID:
		id, ok := parseID(str)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not an id", util.ErrInvalidQuery, str)
		}
		return id, nil
	}
	return str, nil
}

func coerceList(kind Kind, v any) ([]any, error) {
	var raw []any
	switch vv := v.(type) {
	case string:
		for _, part := range strings.Split(vv, ",") {
			raw = append(raw, strings.TrimSpace(part))
		}
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice {
			return nil, fmt.Errorf("%w: in/notIn need a list", util.ErrInvalidQuery)
		}
		for i := 0; i < rv.Len(); i++ {
			raw = append(raw, rv.Index(i).Interface())
		}
	}
	out := make([]any, 0, len(raw))
	for _, item := range raw {
		c, err := coerce(kind, item)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
