package controller

import (
	"fmt"
	"net/url"
	"slices"
	"sort"
	"strings"

	"testcracker/internal/repository"
	"testcracker/internal/util"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

var reservedParams = map[string]bool{
	"page":    true,
	"limit":   true,
	"cursor":  true,
	"take":    true,
	"orderBy": true,
	"include": true,
}

// listParams is a parsed list request. Page is zero in cursor mode.
type listParams struct {
	Query repository.Query
	Page  int
	Limit int
}

// parseListQuery reads paging, ordering, relation and filter parameters.
// Filters are written as field=value or field[op]=value, e.g. score[gte]=50;
// field names are checked by the repository. include may only name one of
// relations; an endpoint passing none rejects include altogether.
func parseListQuery(values url.Values, q interface{ Query(string) string }, relations ...string) (listParams, error) {
	var p listParams

	p.Limit = util.Clamp(util.QueryInt(q, "limit", defaultLimit), 1, maxLimit)
	if cursor := q.Query("cursor"); cursor != "" {
		p.Query.Cursor = cursor
		p.Query.Take = util.Clamp(util.QueryInt(q, "take", p.Limit), 1, maxLimit)
		p.Limit = p.Query.Take
	} else {
		p.Page = util.QueryInt(q, "page", 1)
		if p.Page < 1 {
			p.Page = 1
		}
		p.Query.Skip = (p.Page - 1) * p.Limit
		p.Query.Take = p.Limit
	}

	if orderBy := q.Query("orderBy"); orderBy != "" {
		for _, part := range strings.Split(orderBy, ",") {
			field, dir, _ := strings.Cut(strings.TrimSpace(part), ":")
			o := repository.Order{Field: field}
			switch strings.ToLower(dir) {
			case "", "asc":
			case "desc":
				o.Desc = true
			default:
				return p, fmt.Errorf("%w: bad sort direction %q", util.ErrInvalidQuery, dir)
			}
			p.Query.OrderBy = append(p.Query.OrderBy, o)
		}
	}

	if include := q.Query("include"); include != "" {
		for _, rel := range strings.Split(include, ",") {
			rel = strings.TrimSpace(rel)
			if !slices.Contains(relations, rel) {
				return p, fmt.Errorf("%w: relation %q cannot be included here", util.ErrInvalidQuery, rel)
			}
			p.Query.Include = append(p.Query.Include, rel)
		}
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if reservedParams[key] {
			continue
		}
		f, err := parseFilter(key, values.Get(key))
		if err != nil {
			return p, err
		}
		p.Query.Where = append(p.Query.Where, f)
	}
	return p, nil
}

func parseFilter(key, value string) (repository.Filter, error) {
	field, op := key, repository.OpEquals
	if i := strings.IndexByte(key, '['); i >= 0 {
		if !strings.HasSuffix(key, "]") {
			return repository.Filter{}, fmt.Errorf("%w: malformed filter %q", util.ErrInvalidQuery, key)
		}
		field, op = key[:i], repository.Op(key[i+1:len(key)-1])
	}
	f := repository.Filter{Field: field, Op: op, Value: value}
	if op == repository.OpIsNull || op == repository.OpIsNotNull {
		f.Value = nil
	}
	return f, nil
}

func pageResponse[T any](list []T, total int64, p listParams, next string) util.PageResponse {
	return util.PageResponse{
		List:       list,
		Total:      total,
		Page:       p.Page,
		Limit:      p.Limit,
		NextCursor: next,
	}
}
