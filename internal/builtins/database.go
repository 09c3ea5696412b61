package builtins

import (
	"fmt"

	"artlang/internal/database"
	"artlang/internal/errors"
	"artlang/internal/value"
	"artlang/internal/vm"
)

var dbManager = database.NewDBManager()

func init() {
	add(&Declaration{
		Builtin: vm.Builtin{Name: "db.open", Arity: 2, Fn: biDBOpen},
		ArgTypes: []string{"string", "string"}, Returns: []string{"database"},
		Example: `db.open "sqlite" "file:data.db"`,
	})
	add(&Declaration{
		Builtin: vm.Builtin{Name: "db.query", Arity: 2, Fn: biDBQuery},
		ArgTypes: []string{"database", "string"}, Returns: []string{"block"},
		Example: `db.query conn "select * from users"`,
	})
	add(&Declaration{
		Builtin: vm.Builtin{Name: "db.exec", Arity: 2, Fn: biDBExec},
		ArgTypes: []string{"database", "string"}, Returns: []string{"integer"},
		Example: `db.exec conn "delete from users where id = 1"`,
	})
	add(&Declaration{
		Builtin: vm.Builtin{Name: "db.close", Arity: 1, Fn: biDBClose},
		ArgTypes: []string{"database"}, Returns: []string{"null"},
		Example: `db.close conn`,
	})
}

func dbHandle(id string) value.Value {
	return value.Value{Tag: value.Database, DBHandle: id}
}

func dbID(v value.Value) (string, error) {
	if v.Tag != value.Database {
		return "", errors.Newf(errors.TypeMismatch, "expected a database, got %s", v.Tag)
	}
	id, ok := v.DBHandle.(string)
	if !ok {
		return "", errors.New(errors.TypeMismatch, "database value has no handle")
	}
	return id, nil
}

func biDBOpen(m *vm.VM, args []value.Value, attrs map[string]value.Value) (value.Value, error) {
	if args[0].Tag != value.String || args[1].Tag != value.String {
		return value.Value{}, errors.New(errors.TypeMismatch, "db.open expects a driver name and a DSN string")
	}
	id := newHandleID("db")
	if err := dbManager.Connect(id, args[0].Str, args[1].Str); err != nil {
		return value.Value{}, err
	}
	return dbHandle(id), nil
}

func biDBQuery(m *vm.VM, args []value.Value, attrs map[string]value.Value) (value.Value, error) {
	id, err := dbID(args[0])
	if err != nil {
		return value.Value{}, err
	}
	if args[1].Tag != value.String {
		return value.Value{}, errors.New(errors.TypeMismatch, "db.query expects a string query")
	}
	rows, err := dbManager.Query(id, args[1].Str)
	if err != nil {
		return value.Value{}, err
	}
	elems := make([]value.Value, len(rows))
	for i, row := range rows {
		d := value.NewDict()
		for col, v := range row {
			d.Set(col, goToValue(v))
		}
		elems[i] = value.DictVal(d)
	}
	return value.BlockVal(elems), nil
}

func biDBExec(m *vm.VM, args []value.Value, attrs map[string]value.Value) (value.Value, error) {
	id, err := dbID(args[0])
	if err != nil {
		return value.Value{}, err
	}
	if args[1].Tag != value.String {
		return value.Value{}, errors.New(errors.TypeMismatch, "db.exec expects a string statement")
	}
	affected, err := dbManager.Execute(id, args[1].Str)
	if err != nil {
		return value.Value{}, err
	}
	return value.IntVal(affected), nil
}

func biDBClose(m *vm.VM, args []value.Value, attrs map[string]value.Value) (value.Value, error) {
	id, err := dbID(args[0])
	if err != nil {
		return value.Value{}, err
	}
	if err := dbManager.Close(id); err != nil {
		return value.Value{}, err
	}
	return value.NullVal(), nil
}

// goToValue converts a database/sql scan result (already string-coerced or
// a native Go scalar) into a language Value for printing.
func goToValue(v interface{}) value.Value {
	switch t := v.(type) {
	case nil:
		return value.NullVal()
	case string:
		return value.StringVal(t)
	case int64:
		return value.IntVal(t)
	case float64:
		return value.FloatVal(t)
	case bool:
		return value.LogicalVal(t)
	default:
		return value.StringVal(fmt.Sprintf("%v", t))
	}
}
