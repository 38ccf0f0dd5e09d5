package sqlbuilder

import (
	"strings"

	"github.com/ajitpratap0/tabula/pkg/columnar"
	"github.com/ajitpratap0/tabula/pkg/tabulaerrors"
	"github.com/ajitpratap0/tabula/pkg/value"
)

// TableSchema is one introspected column.
type TableSchema struct {
	Name       string     `json:"name"`
	Dtype      value.Kind `json:"dtype"`
	IsNullable bool       `json:"is_nullable"`
}

// ConstraintType is the kind of a table constraint.
type ConstraintType int

const (
	ConstraintCheck ConstraintType = iota
	ConstraintNotNull
	ConstraintUnique
	ConstraintPrimaryKey
	ConstraintForeignKey
)

var constraintKeywords = map[string]ConstraintType{
	"CHECK":       ConstraintCheck,
	"NOT NULL":    ConstraintNotNull,
	"UNIQUE":      ConstraintUnique,
	"PRIMARY KEY": ConstraintPrimaryKey,
	"FOREIGN KEY": ConstraintForeignKey,
}

// ParseConstraintType parses the keyword reported by information_schema.
func ParseConstraintType(s string) (ConstraintType, error) {
	if c, ok := constraintKeywords[s]; ok {
		return c, nil
	}
	return 0, tabulaerrors.Newf(tabulaerrors.ErrorTypeConstraintParse, "invalid constraint type %q", s)
}

func (c ConstraintType) String() string {
	for k, v := range constraintKeywords {
		if v == c {
			return k
		}
	}
	return "UNKNOWN"
}

// TableConstraint is a named constraint on a table.
type TableConstraint struct {
	Name string
	Type ConstraintType
}

// Order sorts a select by one column.
type Order struct {
	Column     string `json:"column"`
	Descending bool   `json:"descending,omitempty"`
}

func Asc(column string) Order  { return Order{Column: column} }
func Desc(column string) Order { return Order{Column: column, Descending: true} }

// ColumnAlias selects a column, optionally under another name.
type ColumnAlias struct {
	From string `json:"from"`
	To   string `json:"to,omitempty"`
}

// Col selects a column under its own name.
func Col(name string) ColumnAlias { return ColumnAlias{From: name} }

// Alias selects column from under the name to.
func Alias(from, to string) ColumnAlias { return ColumnAlias{From: from, To: to} }

// OriginalName is the column name in the database.
func (c ColumnAlias) OriginalName() string { return c.From }

// Name is the name in the result.
func (c ColumnAlias) Name() string {
	if c.To == "" {
		return c.From
	}
	return c.To
}

// AlterKind selects the ALTER TABLE action.
type AlterKind int

const (
	AlterAdd AlterKind = iota
	AlterDrop
	AlterModify
)

// AlterTable is a single column-level schema change.
type AlterTable struct {
	Kind     AlterKind
	Table    string
	Column   string
	Dtype    value.Kind
	Nullable bool
}

func AddColumn(table, column string, dtype value.Kind, nullable bool) AlterTable {
	return AlterTable{Kind: AlterAdd, Table: table, Column: column, Dtype: dtype, Nullable: nullable}
}

func DropColumn(table, column string) AlterTable {
	return AlterTable{Kind: AlterDrop, Table: table, Column: column}
}

func ModifyColumn(table, column string, dtype value.Kind, nullable bool) AlterTable {
	return AlterTable{Kind: AlterModify, Table: table, Column: column, Dtype: dtype, Nullable: nullable}
}

// Select reads rows from one table.
type Select struct {
	Table             string        `json:"table"`
	Columns           []ColumnAlias `json:"columns,omitempty"`
	Filter            *Expressions  `json:"filter,omitempty"`
	Order             []Order       `json:"order,omitempty"`
	Limit             *uint64       `json:"limit,omitempty"`
	Offset            *uint64       `json:"offset,omitempty"`
	IncludePrimaryKey *bool         `json:"include_primary_key,omitempty"`
}

// NewSelect starts a select over every column of table.
func NewSelect(table string) *Select {
	return &Select{Table: table}
}

// WithColumns appends plain columns.
func (s *Select) WithColumns(names ...string) *Select {
	for _, n := range names {
		s.Columns = append(s.Columns, Col(n))
	}
	return s
}

// WithAliases appends aliased columns.
func (s *Select) WithAliases(aliases ...ColumnAlias) *Select {
	s.Columns = append(s.Columns, aliases...)
	return s
}

func (s *Select) Where(filter Expressions) *Select {
	s.Filter = &filter
	return s
}

func (s *Select) OrderBy(orders ...Order) *Select {
	s.Order = append(s.Order, orders...)
	return s
}

func (s *Select) WithLimit(n uint64) *Select {
	s.Limit = &n
	return s
}

func (s *Select) WithOffset(n uint64) *Select {
	s.Offset = &n
	return s
}

// WithPrimaryKey controls whether the executor looks up the primary key and
// uses it as the result index.
func (s *Select) WithPrimaryKey(include bool) *Select {
	s.IncludePrimaryKey = &include
	return s
}

// ColumnNames lists the result names, or the database names when alias is
// false.
func (s *Select) ColumnNames(alias bool) []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		if alias {
			names[i] = c.Name()
		} else {
			names[i] = c.OriginalName()
		}
	}
	return names
}

// Clone returns a copy whose column list can be modified independently.
func (s *Select) Clone() *Select {
	c := *s
	c.Columns = append([]ColumnAlias(nil), s.Columns...)
	c.Order = append([]Order(nil), s.Order...)
	return &c
}

// Delete removes the rows of a table matching a filter. A filter is
// mandatory; there is no unfiltered delete.
type Delete struct {
	Table  string      `json:"table"`
	Filter Expressions `json:"filter"`
}

func NewDelete(table string, filter Expressions) Delete {
	return Delete{Table: table, Filter: filter}
}

// SaveStrategy selects how Save treats an existing table.
type SaveStrategy int

const (
	// FailIfExists refuses to touch an existing table.
	FailIfExists SaveStrategy = iota
	// Replace drops any existing table and recreates it.
	Replace
	// Append inserts into an existing table; the index is discarded and the
	// database generates primary keys.
	Append
	// Upsert inserts rows whose identity is new and updates the others.
	Upsert
)

var strategyNames = map[SaveStrategy]string{
	FailIfExists: "fail_if_exists",
	Replace:      "replace",
	Append:       "append",
	Upsert:       "upsert",
}

func (s SaveStrategy) String() string {
	if n, ok := strategyNames[s]; ok {
		return n
	}
	return "unknown"
}

// ParseSaveStrategy accepts the snake_case names plus "fail".
func ParseSaveStrategy(s string) (SaveStrategy, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	if norm == "fail" || norm == "failifexists" {
		return FailIfExists, nil
	}
	for k, v := range strategyNames {
		if v == norm {
			return k, nil
		}
	}
	return 0, tabulaerrors.Newf(tabulaerrors.ErrorTypeValidation, "unknown save strategy %q", s)
}

// IndexType is the SQL type family of a primary key column.
type IndexType int

const (
	IndexInt IndexType = iota
	IndexBigInt
	IndexUuid
)

// ParseIndexType accepts int/i, bigint/b and uuid/u; anything else is Int.
func ParseIndexType(s string) IndexType {
	switch strings.ToLower(s) {
	case "bigint", "b":
		return IndexBigInt
	case "uuid", "u":
		return IndexUuid
	}
	return IndexInt
}

// IndexOption names the primary key column of a created or updated table.
type IndexOption struct {
	Name string
	Type IndexType
}

// DefaultIndexOption is an Int key named _id.
func DefaultIndexOption() IndexOption {
	return IndexOption{Name: "_id", Type: IndexInt}
}

// IndexOptionFromField maps an index field to its key type. Kinds without a
// key representation fail.
func IndexOptionFromField(f columnar.Field) (IndexOption, error) {
	var t IndexType
	switch f.Kind {
	case value.KindU8, value.KindU16, value.KindU32,
		value.KindI8, value.KindI16, value.KindI32, value.KindF32:
		t = IndexInt
	case value.KindU64, value.KindI64, value.KindF64:
		t = IndexBigInt
	case value.KindUuid:
		t = IndexUuid
	default:
		return IndexOption{}, tabulaerrors.Newf(tabulaerrors.ErrorTypeUnsupportedIndex,
			"%s cannot be used as an index type", f.Kind).
			WithDetail("field", f.Name)
	}
	return IndexOption{Name: f.Name, Type: t}, nil
}

// ExecutionResult is the outcome of a mutating statement.
type ExecutionResult struct {
	RowsAffected uint64
}
