package sqlbuilder

import (
	"strings"

	"github.com/ajitpratap0/tabula/pkg/columnar"
	"github.com/ajitpratap0/tabula/pkg/tabulaerrors"
	"github.com/ajitpratap0/tabula/pkg/value"
)

// Dialect is one of the supported SQL backends. Every rendering method is a
// pure function of the dialect and its arguments; literals are escaped and
// inlined.
type Dialect int

const (
	SQLite Dialect = iota
	MySQL
	Postgres
)

func (d Dialect) String() string {
	switch d {
	case MySQL:
		return "mysql"
	case Postgres:
		return "postgres"
	default:
		return "sqlite"
	}
}

// ParseDialect maps a connection string scheme to a dialect. Unknown
// schemes map to SQLite.
func ParseDialect(token string) Dialect {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "mysql":
		return MySQL
	case "postgres", "postgresql":
		return Postgres
	default:
		return SQLite
	}
}

var columnTypes = map[Dialect]map[value.Kind]string{
	MySQL: {
		value.KindBool:     "BOOL",
		value.KindI8:       "TINYINT",
		value.KindI16:      "SMALLINT",
		value.KindI32:      "INT",
		value.KindI64:      "BIGINT",
		value.KindU8:       "TINYINT UNSIGNED",
		value.KindU16:      "SMALLINT UNSIGNED",
		value.KindU32:      "INT UNSIGNED",
		value.KindU64:      "BIGINT UNSIGNED",
		value.KindF32:      "FLOAT",
		value.KindF64:      "DOUBLE",
		value.KindString:   "VARCHAR(255)",
		value.KindDecimal:  "DECIMAL(38, 10)",
		value.KindDate:     "DATE",
		value.KindTime:     "TIME",
		value.KindDateTime: "DATETIME",
		value.KindUuid:     "CHAR(36)",
		value.KindBytes:    "BLOB",
	},
	Postgres: {
		value.KindBool:     "BOOLEAN",
		value.KindI8:       "SMALLINT",
		value.KindI16:      "SMALLINT",
		value.KindI32:      "INTEGER",
		value.KindI64:      "BIGINT",
		value.KindU8:       "SMALLINT",
		value.KindU16:      "INTEGER",
		value.KindU32:      "BIGINT",
		value.KindU64:      "BIGINT",
		value.KindF32:      "REAL",
		value.KindF64:      "DOUBLE PRECISION",
		value.KindString:   "TEXT",
		value.KindDecimal:  "NUMERIC",
		value.KindDate:     "DATE",
		value.KindTime:     "TIME",
		value.KindDateTime: "TIMESTAMP",
		value.KindUuid:     "UUID",
		value.KindBytes:    "BYTEA",
	},
	SQLite: {
		value.KindBool:     "BOOLEAN",
		value.KindI8:       "TINYINT",
		value.KindI16:      "SMALLINT",
		value.KindI32:      "INTEGER",
		value.KindI64:      "BIGINT",
		value.KindU8:       "TINYINT",
		value.KindU16:      "SMALLINT",
		value.KindU32:      "INTEGER",
		value.KindU64:      "BIGINT",
		value.KindF32:      "REAL",
		value.KindF64:      "DOUBLE",
		value.KindString:   "TEXT",
		value.KindDecimal:  "NUMERIC",
		value.KindDate:     "DATE",
		value.KindTime:     "TIME",
		value.KindDateTime: "DATETIME",
		value.KindUuid:     "TEXT",
		value.KindBytes:    "BLOB",
	},
}

// ColumnType is the SQL type used for a column of kind k. A series with no
// non-null values is stored as text.
func (d Dialect) ColumnType(k value.Kind) string {
	if t, ok := columnTypes[d][k]; ok {
		return t
	}
	return columnTypes[d][value.KindString]
}

var sqlTypeKinds = map[string]value.Kind{
	"BOOL":               value.KindBool,
	"BOOLEAN":            value.KindBool,
	"TINYINT":            value.KindI8,
	"SMALLINT":           value.KindI16,
	"INT2":               value.KindI16,
	"MEDIUMINT":          value.KindI32,
	"INT":                value.KindI32,
	"INTEGER":            value.KindI32,
	"INT4":               value.KindI32,
	"SERIAL":             value.KindI32,
	"BIGINT":             value.KindI64,
	"INT8":               value.KindI64,
	"BIGSERIAL":          value.KindI64,
	"TINYINT UNSIGNED":   value.KindU8,
	"SMALLINT UNSIGNED":  value.KindU16,
	"MEDIUMINT UNSIGNED": value.KindU32,
	"INT UNSIGNED":       value.KindU32,
	"INTEGER UNSIGNED":   value.KindU32,
	"BIGINT UNSIGNED":    value.KindU64,
	// go-sql-driver/mysql puts the qualifier first in DatabaseTypeName.
	"UNSIGNED TINYINT":            value.KindU8,
	"UNSIGNED SMALLINT":           value.KindU16,
	"UNSIGNED MEDIUMINT":          value.KindU32,
	"UNSIGNED INT":                value.KindU32,
	"UNSIGNED BIGINT":             value.KindU64,
	"FLOAT":                       value.KindF32,
	"REAL":                        value.KindF32,
	"FLOAT4":                      value.KindF32,
	"DOUBLE":                      value.KindF64,
	"DOUBLE PRECISION":            value.KindF64,
	"FLOAT8":                      value.KindF64,
	"DECIMAL":                     value.KindDecimal,
	"NUMERIC":                     value.KindDecimal,
	"CHAR":                        value.KindString,
	"VARCHAR":                     value.KindString,
	"CHARACTER":                   value.KindString,
	"CHARACTER VARYING":           value.KindString,
	"TEXT":                        value.KindString,
	"TINYTEXT":                    value.KindString,
	"MEDIUMTEXT":                  value.KindString,
	"LONGTEXT":                    value.KindString,
	"ENUM":                        value.KindString,
	"DATE":                        value.KindDate,
	"TIME":                        value.KindTime,
	"TIME WITHOUT TIME ZONE":      value.KindTime,
	"DATETIME":                    value.KindDateTime,
	"TIMESTAMP":                   value.KindDateTime,
	"TIMESTAMP WITHOUT TIME ZONE": value.KindDateTime,
	"TIMESTAMP WITH TIME ZONE":    value.KindDateTime,
	"TIMESTAMPTZ":                 value.KindDateTime,
	"UUID":                        value.KindUuid,
	"BLOB":                        value.KindBytes,
	"TINYBLOB":                    value.KindBytes,
	"MEDIUMBLOB":                  value.KindBytes,
	"LONGBLOB":                    value.KindBytes,
	"BINARY":                      value.KindBytes,
	"VARBINARY":                   value.KindBytes,
	"BYTEA":                       value.KindBytes,
}

// KindFromSQLType maps a type name reported by the database back to a kind.
// Length and precision arguments are ignored. Unknown types map to KindNull.
func (d Dialect) KindFromSQLType(typ string) value.Kind {
	t := strings.ToUpper(strings.TrimSpace(typ))
	if i := strings.IndexByte(t, '('); i >= 0 {
		if j := strings.IndexByte(t[i:], ')'); j >= 0 {
			t = strings.TrimSpace(t[:i] + t[i+j+1:])
		}
	}
	t = strings.Join(strings.Fields(t), " ")
	if d == SQLite && (t == "INTEGER" || t == "INT") {
		return value.KindI64
	}
	if k, ok := sqlTypeKinds[t]; ok {
		return k
	}
	return value.KindNull
}

func (d Dialect) primaryKeyColumn(w *writer, opt IndexOption) {
	w.ident(opt.Name).space()
	switch opt.Type {
	case IndexUuid:
		switch d {
		case MySQL:
			w.query("CHAR(36)")
		case Postgres:
			w.query("UUID")
		default:
			w.query("TEXT")
		}
		w.query(" PRIMARY KEY")
	case IndexBigInt:
		switch d {
		case MySQL:
			w.query("BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY")
		case Postgres:
			w.query("BIGSERIAL PRIMARY KEY")
		default:
			w.query("INTEGER PRIMARY KEY AUTOINCREMENT")
		}
	default:
		switch d {
		case MySQL:
			w.query("INT NOT NULL AUTO_INCREMENT PRIMARY KEY")
		case Postgres:
			w.query("SERIAL PRIMARY KEY")
		default:
			w.query("INTEGER PRIMARY KEY AUTOINCREMENT")
		}
	}
}

// CreateTable renders CREATE TABLE with an optional auto generated primary
// key followed by one nullable column per field.
func (d Dialect) CreateTable(table string, fields []columnar.Field, index *IndexOption) string {
	w := newWriter(d)
	w.query("CREATE TABLE ").ident(table).query(" (")
	n := 0
	if index != nil {
		d.primaryKeyColumn(w, *index)
		n++
	}
	for _, f := range fields {
		w.comma(n).ident(f.Name).space().query(d.ColumnType(f.Kind))
		n++
	}
	w.query(")")
	return w.finish()
}

// CheckTableExists renders a query returning one row if table exists.
func (d Dialect) CheckTableExists(table string) string {
	w := newWriter(d)
	switch d {
	case MySQL:
		w.query("SELECT 1 FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ").str(table)
	case Postgres:
		w.query("SELECT 1 FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = ").str(table)
	default:
		w.query("SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ").str(table)
	}
	return w.finish()
}

// CheckTableSchema renders a query returning (name, type, 'YES'|'NO') per
// column, in column order.
func (d Dialect) CheckTableSchema(table string) string {
	w := newWriter(d)
	switch d {
	case MySQL:
		w.query("SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = ").
			str(table).query(" ORDER BY ORDINAL_POSITION")
	case Postgres:
		w.query("SELECT column_name::text, data_type::text, is_nullable::text FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = ").
			str(table).query(" ORDER BY ordinal_position")
	default:
		w.query(`SELECT name, type, CASE WHEN "notnull" = 0 THEN 'YES' ELSE 'NO' END FROM pragma_table_info(`).
			str(table).query(") ORDER BY cid")
	}
	return w.finish()
}

// DeleteTable renders DROP TABLE.
func (d Dialect) DeleteTable(table string) string {
	return newWriter(d).query("DROP TABLE ").ident(table).finish()
}

// GetPrimaryKey renders a query returning the primary key column name.
func (d Dialect) GetPrimaryKey(table string) string {
	w := newWriter(d)
	switch d {
	case MySQL:
		w.query("SELECT COLUMN_NAME FROM information_schema.KEY_COLUMN_USAGE WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ").
			str(table).query(" AND CONSTRAINT_NAME = 'PRIMARY'")
	case Postgres:
		w.query("SELECT a.attname::text FROM pg_index i JOIN pg_attribute a ON a.attrelid = i.indrelid AND a.attnum = ANY(i.indkey) WHERE i.indrelid = ").
			str(`"` + strings.ReplaceAll(table, `"`, `""`) + `"`).query("::regclass AND i.indisprimary")
	default:
		w.query("SELECT name FROM pragma_table_info(").str(table).query(") WHERE pk = 1")
	}
	return w.finish()
}

// ListConstraints renders a query returning (name, type keyword) per
// constraint. SQLite only reports its primary key.
func (d Dialect) ListConstraints(table string) string {
	w := newWriter(d)
	switch d {
	case MySQL:
		w.query("SELECT CONSTRAINT_NAME, CONSTRAINT_TYPE FROM information_schema.TABLE_CONSTRAINTS WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ").str(table)
	case Postgres:
		w.query("SELECT constraint_name::text, constraint_type::text FROM information_schema.table_constraints WHERE table_schema = current_schema() AND table_name = ").str(table)
	default:
		w.query("SELECT name, 'PRIMARY KEY' FROM pragma_table_info(").str(table).query(") WHERE pk > 0")
	}
	return w.finish()
}

// AlterTable renders a column level schema change. SQLite cannot modify a
// column in place.
func (d Dialect) AlterTable(a AlterTable) (string, error) {
	w := newWriter(d)
	w.query("ALTER TABLE ").ident(a.Table).space()
	switch a.Kind {
	case AlterAdd:
		w.query("ADD COLUMN ").ident(a.Column).space().query(d.ColumnType(a.Dtype))
		if !a.Nullable {
			w.query(" NOT NULL")
		}
	case AlterDrop:
		w.query("DROP COLUMN ").ident(a.Column)
	case AlterModify:
		switch d {
		case MySQL:
			w.query("MODIFY COLUMN ").ident(a.Column).space().query(d.ColumnType(a.Dtype))
			if !a.Nullable {
				w.query(" NOT NULL")
			}
		case Postgres:
			w.query("ALTER COLUMN ").ident(a.Column).query(" TYPE ").query(d.ColumnType(a.Dtype)).
				query(", ALTER COLUMN ").ident(a.Column)
			if a.Nullable {
				w.query(" DROP NOT NULL")
			} else {
				w.query(" SET NOT NULL")
			}
		default:
			w.close()
			return "", tabulaerrors.New(tabulaerrors.ErrorTypeCapability, "sqlite cannot modify a column").
				WithDetail("table", a.Table).
				WithDetail("column", a.Column)
		}
	default:
		w.close()
		return "", tabulaerrors.Newf(tabulaerrors.ErrorTypeValidation, "unknown alter kind %d", a.Kind)
	}
	return w.finish(), nil
}

// maxMySQLLimit stands in for "no limit" when MySQL needs a LIMIT to accept
// an OFFSET.
const maxMySQLLimit = "18446744073709551615"

// Select renders a SELECT. An empty column list selects every column.
func (d Dialect) Select(s *Select) (string, error) {
	w := newWriter(d)
	w.query("SELECT ")
	if len(s.Columns) == 0 {
		w.query("*")
	}
	for i, c := range s.Columns {
		w.comma(i).ident(c.OriginalName())
	}
	w.query(" FROM ").ident(s.Table)

	if s.Filter != nil && !s.Filter.IsEmpty() {
		w.query(" WHERE ")
		if err := d.filter(w, *s.Filter); err != nil {
			w.close()
			return "", err
		}
	}

	if len(s.Order) > 0 {
		w.query(" ORDER BY ")
		for i, o := range s.Order {
			w.comma(i).ident(o.Column)
			if o.Descending {
				w.query(" DESC")
			} else {
				w.query(" ASC")
			}
		}
	}

	switch {
	case s.Limit != nil:
		w.query(" LIMIT ").uint(*s.Limit)
		if s.Offset != nil {
			w.query(" OFFSET ").uint(*s.Offset)
		}
	case s.Offset != nil:
		switch d {
		case MySQL:
			w.query(" LIMIT " + maxMySQLLimit)
		case SQLite:
			w.query(" LIMIT -1")
		}
		w.query(" OFFSET ").uint(*s.Offset)
	}
	return w.finish(), nil
}

// Insert renders one multi-row INSERT. With ignorePrimaryKey the index
// series is left out so the database generates keys.
func (d Dialect) Insert(table string, data *columnar.Table, ignorePrimaryKey bool) (string, error) {
	if data.Height() == 0 {
		return "", tabulaerrors.EmptyInput()
	}
	if ignorePrimaryKey && data.Width() == 0 {
		return "", tabulaerrors.New(tabulaerrors.ErrorTypeValidation, "insert without the primary key needs at least one column").
			WithDetail("table", table)
	}
	w := newWriter(d)
	w.query("INSERT INTO ").ident(table).query(" (")
	n := 0
	if !ignorePrimaryKey {
		w.ident(data.IndexField().Name)
		n++
	}
	for _, name := range data.ColumnNames() {
		w.comma(n).ident(name)
		n++
	}
	w.query(") VALUES ")

	index := data.Index().Values()
	columns := data.Columns()
	for i := 0; i < data.Height(); i++ {
		w.comma(i).query("(")
		n = 0
		if !ignorePrimaryKey {
			w.literal(index[i])
			n++
		}
		for _, c := range columns {
			w.comma(n).literal(c.Values()[i])
			n++
		}
		w.query(")")
	}
	return w.finish(), nil
}

// Update renders one UPDATE per row, keyed by the row's identity.
func (d Dialect) Update(table string, data *columnar.Table, index IndexOption) ([]string, error) {
	if data.Height() == 0 {
		return nil, tabulaerrors.EmptyInput()
	}
	if data.Width() == 0 {
		return nil, tabulaerrors.New(tabulaerrors.ErrorTypeValidation, "update needs at least one column besides the identity").
			WithDetail("table", table)
	}
	ids := data.Index().Values()
	columns := data.Columns()
	stmts := make([]string, data.Height())
	for i := range stmts {
		w := newWriter(d)
		w.query("UPDATE ").ident(table).query(" SET ")
		for j, c := range columns {
			w.comma(j).ident(c.Name()).query(" = ").literal(c.Values()[i])
		}
		w.query(" WHERE ").ident(index.Name).query(" = ").literal(ids[i])
		stmts[i] = w.finish()
	}
	return stmts, nil
}

// Delete renders a filtered DELETE.
func (d Dialect) Delete(del Delete) (string, error) {
	if del.Filter.IsEmpty() {
		return "", tabulaerrors.New(tabulaerrors.ErrorTypeValidation, "delete requires a filter").
			WithDetail("table", del.Table)
	}
	w := newWriter(d)
	w.query("DELETE FROM ").ident(del.Table).query(" WHERE ")
	if err := d.filter(w, del.Filter); err != nil {
		w.close()
		return "", err
	}
	return w.finish(), nil
}

// SelectExistingIDs renders a query returning those identities of index
// that are already stored in table.
func (d Dialect) SelectExistingIDs(table string, index *columnar.Series) (string, error) {
	if index.Len() == 0 {
		return "", tabulaerrors.EmptyInput()
	}
	w := newWriter(d)
	w.query("SELECT ").ident(index.Name()).query(" FROM ").ident(table).
		query(" WHERE ").ident(index.Name()).query(" IN (")
	for i, v := range index.Values() {
		w.comma(i).literal(v)
	}
	w.query(")")
	return w.finish(), nil
}

func (d Dialect) filter(w *writer, e Expressions) error {
	for _, n := range e.nodes {
		switch x := n.(type) {
		case Conjunction:
			w.space().query(x.String()).space()
		case Condition:
			if err := d.condition(w, x); err != nil {
				return err
			}
		case Nest:
			w.query("(")
			if x.Expressions.IsEmpty() {
				w.query("1 = 1")
			} else if err := d.filter(w, x.Expressions); err != nil {
				return err
			}
			w.query(")")
		}
	}
	return nil
}

var comparators = map[Operator]string{
	OpEqual:        " = ",
	OpNotEqual:     " <> ",
	OpGreater:      " > ",
	OpGreaterEqual: " >= ",
	OpLess:         " < ",
	OpLessEqual:    " <= ",
}

func (d Dialect) condition(w *writer, c Condition) error {
	if err := c.Equation.validate(); err != nil {
		return err
	}
	eq := c.Equation
	if eq.Op == OpNot {
		w.query("NOT ").ident(c.Column)
		return nil
	}
	w.ident(c.Column)
	switch eq.Op {
	case OpIn:
		w.query(" IN (")
		for i, v := range eq.Values {
			w.comma(i).literal(v)
		}
		w.query(")")
	case OpBetween:
		w.query(" BETWEEN ").literal(eq.Values[0]).query(" AND ").literal(eq.Values[1])
	case OpLike:
		w.query(" LIKE ").str(eq.Pattern)
	default:
		w.query(comparators[eq.Op]).literal(eq.Values[0])
	}
	return nil
}
