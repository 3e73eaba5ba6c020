package repository

import (
	"context"
	"fmt"
	"strings"

	"testcracker/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AggregateSpec selects the aggregates to compute. Avg and Sum accept numeric
// fields only; Min and Max accept any field.
type AggregateSpec struct {
	Count bool
	Min   []string
	Max   []string
	Avg   []string
	Sum   []string
}

func (a AggregateSpec) empty() bool {
	return !a.Count && len(a.Min) == 0 && len(a.Max) == 0 && len(a.Avg) == 0 && len(a.Sum) == 0
}

// AggregateResult is keyed like {"_count": 3, "_avg": {"score": 41.5}}; group
// keys appear at the top level under their field names.
type AggregateResult map[string]any

const aliasSep = "__"

func (s *Store[T]) aggregateSelects(spec AggregateSpec) ([]string, error) {
	var selects []string
	if spec.Count {
		selects = append(selects, `COUNT(*) AS "_count"`)
	}

	add := func(fn, prefix string, fields []string, numeric bool) error {
		for _, name := range fields {
			var f Field
			var err error
			if numeric {
				f, err = s.schema.numeric(name)
			} else {
				f, err = s.schema.field(name)
			}
			if err != nil {
				return err
			}
			expr := fmt.Sprintf("%s(%s)", fn, quote(f.Column))
			if fn == "AVG" || (fn == "SUM" && f.Kind == KindFloat) {
				expr += "::float8"
			}
			selects = append(selects, fmt.Sprintf("%s AS %s", expr, quote(prefix+aliasSep+name)))
		}
		return nil
	}

	if err := add("MIN", "_min", spec.Min, false); err != nil {
		return nil, err
	}
	if err := add("MAX", "_max", spec.Max, false); err != nil {
		return nil, err
	}
	if err := add("AVG", "_avg", spec.Avg, true); err != nil {
		return nil, err
	}
	if err := add("SUM", "_sum", spec.Sum, true); err != nil {
		return nil, err
	}
	return selects, nil
}

// Aggregate computes the requested aggregates over the rows matching where.
func (s *Store[T]) Aggregate(ctx context.Context, where []Filter, spec AggregateSpec) (AggregateResult, error) {
	if spec.empty() {
		return nil, fmt.Errorf("%w: no aggregate requested", util.ErrInvalidQuery)
	}
	selects, err := s.aggregateSelects(spec)
	if err != nil {
		return nil, err
	}
	tx, err := s.where(s.DB.WithContext(ctx).Model(new(T)), where)
	if err != nil {
		return nil, err
	}

	row := map[string]any{}
	if err := tx.Select(strings.Join(selects, ", ")).Scan(&row).Error; err != nil {
		return nil, translateError(err)
	}
	return nest(row), nil
}

// GroupBy groups the rows matching where by the given fields and aggregates each group.
func (s *Store[T]) GroupBy(ctx context.Context, by []string, where []Filter, spec AggregateSpec, q Query) ([]AggregateResult, error) {
	if len(by) == 0 {
		return nil, fmt.Errorf("%w: groupBy needs at least one field", util.ErrInvalidQuery)
	}

	selects := make([]string, 0, len(by))
	groups := make([]string, 0, len(by))
	for _, name := range by {
		f, err := s.schema.field(name)
		if err != nil {
			return nil, err
		}
		selects = append(selects, fmt.Sprintf("%s AS %s", quote(f.Column), quote(name)))
		groups = append(groups, f.Column)
	}
	aggs, err := s.aggregateSelects(spec)
	if err != nil {
		return nil, err
	}
	selects = append(selects, aggs...)

	tx, err := s.where(s.DB.WithContext(ctx).Model(new(T)), where)
	if err != nil {
		return nil, err
	}
	tx = tx.Select(strings.Join(selects, ", "))
	for _, col := range groups {
		tx = tx.Group(col)
	}

	if tx, err = s.groupOrder(tx, by, q.OrderBy); err != nil {
		return nil, err
	}
	if q.Skip > 0 {
		tx = tx.Offset(q.Skip)
	}
	if q.Take > 0 {
		tx = tx.Limit(q.Take)
	}

	var rows []map[string]any
	if err := tx.Scan(&rows).Error; err != nil {
		return nil, translateError(err)
	}

	out := make([]AggregateResult, 0, len(rows))
	for _, row := range rows {
		out = append(out, nest(row))
	}
	return out, nil
}

// groupOrder orders groups by grouped fields only; ordering by an ungrouped
// column is rejected.
func (s *Store[T]) groupOrder(tx *gorm.DB, by []string, orders []Order) (*gorm.DB, error) {
	if len(orders) == 0 {
		for _, name := range by {
			orders = append(orders, Order{Field: name})
		}
	}
	grouped := make(map[string]bool, len(by))
	for _, name := range by {
		grouped[name] = true
	}
	for _, o := range orders {
		if !grouped[o.Field] {
			return nil, fmt.Errorf("%w: cannot order groups by %q", util.ErrInvalidQuery, o.Field)
		}
		f, err := s.schema.field(o.Field)
		if err != nil {
			return nil, err
		}
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: f.Column}, Desc: o.Desc})
	}
	return tx, nil
}

func nest(row map[string]any) AggregateResult {
	out := AggregateResult{}
	for key, v := range row {
		prefix, field, ok := strings.Cut(key, aliasSep)
		if !ok {
			out[key] = v
			continue
		}
		inner, _ := out[prefix].(map[string]any)
		if inner == nil {
			inner = map[string]any{}
			out[prefix] = inner
		}
		inner[field] = v
	}
	return out
}
