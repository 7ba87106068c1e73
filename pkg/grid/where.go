package grid

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/getmockd/carshop/pkg/car"
)

// compileWhere compiles a boolean row expression such as
// `price < 20000 && fuel == "Diesel"`.
func compileWhere(src string) (*vm.Program, error) {
	program, err := expr.Compile(src, expr.AsBool(), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("invalid where expression: %w", err)
	}
	return program, nil
}

// evalWhere reports whether c satisfies program. A row the expression cannot
// be evaluated on, such as a price that is not a number compared with one,
// does not match.
func evalWhere(program *vm.Program, c car.Car) bool {
	out, err := expr.Run(program, rowEnv(c))
	if err != nil {
		return false
	}
	ok, _ := out.(bool)
	return ok
}

// rowEnv exposes the fields of c to expressions. Numeric fields are float64
// when they parse and their raw text otherwise.
func rowEnv(c car.Car) map[string]interface{} {
	env := map[string]interface{}{"id": c.ID}
	for _, f := range car.Fields {
		v, _ := c.Get(f.Name)
		if f.Numeric {
			if n, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				env[f.Name] = n
				continue
			}
		}
		env[f.Name] = v
	}
	return env
}
