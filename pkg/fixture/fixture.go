// Package fixture defines a small JSON schema for round-trip test cases:
// a Pack200 instruction stream plus its operand tokens, a constant pool,
// and the expected serialized Code attribute bytes. cmd/pack200codec's
// `decode`, `dump` and `roundtrip` subcommands load fixtures through this
// type; no package test uses it and the module ships no fixture files
// (SPEC_FULL.md "Round-trip fixture format" — test/demo scaffolding, not
// a core component).
//
// Grounded on the teacher's plain-stdlib json usage style (none in
// kristofer-smog itself; following other_examples' json.Marshal/
// Unmarshal fixture-loading convention instead of inventing a bespoke
// text format, since no example repo reaches for a third-party config/
// serialization library specifically for test fixtures).
package fixture

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/kristofer/pack200codec/pkg/constpool"
	"github.com/kristofer/pack200codec/pkg/context"
	"github.com/kristofer/pack200codec/pkg/operand"
)

// PoolEntry is one constant-pool row in a fixture file.
type PoolEntry struct {
	ID         string      `json:"id"`
	ClassName  string      `json:"class_name,omitempty"`
	MemberName string      `json:"member_name,omitempty"`
	Descriptor string      `json:"descriptor,omitempty"`
	Value      interface{} `json:"value,omitempty"`
	// Subpool, if set, additionally indexes this entry into the named
	// class's class-specific subpool for the given pool id.
	Subpool string `json:"subpool,omitempty"`
}

// Case is one self-contained round-trip scenario.
type Case struct {
	Name          string              `json:"name"`
	CurrentClass  string              `json:"current_class"`
	SuperClass    string              `json:"super_class"`
	Pool          []PoolEntry         `json:"pool"`
	Opcodes       []int               `json:"opcodes"`
	Tokens        map[string][]int    `json:"tokens"`
	ExpectedBytes []byte              `json:"expected_bytes"`
	MaxStack      int                 `json:"max_stack"`
	MaxLocals     int                 `json:"max_locals"`
}

var poolIDs = map[string]constpool.PoolID{
	"UTF8": constpool.UTF8, "INT": constpool.INT, "FLOAT": constpool.FLOAT,
	"LONG": constpool.LONG, "DOUBLE": constpool.DOUBLE, "STRING": constpool.STRING,
	"CLASS": constpool.CLASS, "FIELD": constpool.FIELD, "METHOD": constpool.METHOD,
	"IMETHOD": constpool.IMETHOD, "NAME_AND_TYPE": constpool.NAME_AND_TYPE, "SIGNATURE": constpool.SIGNATURE,
}

// Load decodes a stream of Case values from r (a JSON array).
func Load(r io.Reader) ([]Case, error) {
	var cases []Case
	if err := json.NewDecoder(r).Decode(&cases); err != nil {
		return nil, fmt.Errorf("fixture: decode: %w", err)
	}
	return cases, nil
}

// BuildPool materializes c's declared constant-pool rows into a
// ready-to-query ClassConstantPool.
func (c *Case) BuildPool(cacheSize int) (*constpool.ClassConstantPool, error) {
	cp := constpool.New(cacheSize)
	for _, row := range c.Pool {
		id, ok := poolIDs[row.ID]
		if !ok {
			return nil, fmt.Errorf("fixture: unknown pool id %q", row.ID)
		}
		entry := &constpool.Entry{
			ID: id, ClassName: row.ClassName, MemberName: row.MemberName,
			Descriptor: row.Descriptor, Value: row.Value,
		}
		if row.Subpool != "" {
			cp.AppendClassSpecific(id, row.Subpool, entry)
		} else {
			cp.Append(entry)
		}
	}
	return cp, nil
}

// BuildContext returns a Tracker seeded from the fixture's declared
// current/super class names.
func (c *Case) BuildContext() *context.Tracker {
	return context.New(c.CurrentClass, c.SuperClass)
}

// BuildSession turns the fixture's token map into an operand.Session,
// keyed by the same string names used in JSON (matching operand.Kind's
// underlying string values).
func (c *Case) BuildSession() *operand.Session {
	values := make(map[operand.Kind][]int, len(c.Tokens))
	for k, v := range c.Tokens {
		values[operand.Kind(k)] = v
	}
	return operand.NewSession(values)
}
