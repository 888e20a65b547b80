package database

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-pg/pg"
	"github.com/go-pg/pg/orm"

	"dcmtag2table/utils"
)

type SelectQueryOptions struct {
	Limit          int
	Offset         int
	OrderBy        string
	OrderDirection string
}

// Apply adds pagination and ordering to q. OrderBy is a struct field name,
// ordered on the column of table alias.
func (s *SelectQueryOptions) Apply(q *orm.Query, alias string) *orm.Query {
	if s == nil {
		return q
	}

	if s.Limit > 0 {
		q = q.Limit(s.Limit)
	}

	if s.Offset > 0 {
		q = q.Offset(s.Offset)
	}

	if s.OrderBy != "" {
		direction := strings.ToUpper(s.OrderDirection)
		if direction != "DESC" {
			direction = "ASC"
		}

		q = q.Order(s.orderColumn(alias) + " " + direction)
	}

	return q
}

// whereFields filters q by struct field name of prototype, the columns
// being the snake case of the field names qualified by alias.
func whereFields(q *orm.Query, prototype any, alias string, fields map[string]any) (*orm.Query, error) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !hasField(prototype, name) {
			return nil, fmt.Errorf("invalid field name: %s", name)
		}
		q = q.Where(fmt.Sprintf("%s.%s = ?", alias, utils.ToSnakeCase(name)), fields[name])
	}
	return q, nil
}

// selectQuery builds a filtered, paginated query on model.
func selectQuery(db orm.DB, model, prototype any, alias string, fields map[string]any, options *SelectQueryOptions) (*orm.Query, error) {
	q, err := whereFields(db.Model(model), prototype, alias, fields)
	if err != nil {
		return nil, err
	}
	if options != nil && options.OrderBy != "" && !hasField(prototype, options.OrderBy) {
		return nil, fmt.Errorf("invalid order field: %s", options.OrderBy)
	}
	return options.Apply(q, alias), nil
}

func (s *SelectQueryOptions) orderColumn(alias string) string {
	column := utils.ToSnakeCase(s.OrderBy)
	if alias == "" {
		return column
	}
	return alias + "." + column
}

func hasField(prototype any, name string) bool {
	return reflect.ValueOf(prototype).Elem().FieldByName(name).IsValid()
}

func getOrm(db *pg.DB, tx *pg.Tx) orm.DB {
	if tx != nil {
		return tx
	}
	return db
}
