package message

import (
	"reflect"

	"github.com/imxeno/tsclientlib/internal/command"
)

// Unhandled preserves a command the schema does not know, for observers;
// it never drives book mutations (§4.5).
type Unhandled struct {
	Name string
	Raw  *command.Command
}

// UnmarshalAll parses cmd into one T per canonical row (§4.5: "produces
// one typed value per list entry, or a single value if no list").
func UnmarshalAll[T any](cmd *command.Command) ([]T, error) {
	n := cmd.RowCount()
	out := make([]T, n)
	for i := 0; i < n; i++ {
		if err := unmarshalRow(cmd.Row(i), &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Unmarshal is UnmarshalAll for a command with exactly one row.
func Unmarshal[T any](cmd *command.Command) (T, error) {
	var zero T
	rows, err := UnmarshalAll[T](cmd)
	if err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, nil
	}
	return rows[0], nil
}

// Marshal builds the wire Command for name from rows. Fields tagged
// `static` take their value from rows[0] only (every row must agree, per
// the schema's meaning of a static field); fields tagged as list entries
// go inline with the statics for row 0 (no leading '|', matching how the
// grammar places a list's first row, §3) and into List rows for the rest.
func Marshal[T any](name string, rows []T) (*command.Command, error) {
	cmd := &command.Command{Name: name}
	if len(rows) == 0 {
		return cmd, nil
	}
	t := reflect.TypeOf(rows[0])
	specs, err := fieldSpecs(t)
	if err != nil {
		return nil, err
	}

	v0 := reflect.ValueOf(rows[0])
	for _, fs := range specs {
		val, ok := fieldToString(v0.Field(fs.index))
		if !ok {
			continue
		}
		cmd.Static = append(cmd.Static, command.Pair{Key: fs.key, Value: val, HasValue: true})
	}

	for i := 1; i < len(rows); i++ {
		vi := reflect.ValueOf(rows[i])
		var row []command.Pair
		for _, fs := range specs {
			if fs.static {
				continue
			}
			val, ok := fieldToString(vi.Field(fs.index))
			if !ok {
				continue
			}
			row = append(row, command.Pair{Key: fs.key, Value: val, HasValue: true})
		}
		cmd.List = append(cmd.List, row)
	}
	return cmd, nil
}
