package irtext

import (
	"os"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/roach88/slayout/internal/ir"
)

// Compile parses src and builds its graph.
func Compile(filename, src string) (*ir.Graph, error) {
	prog, err := Parse(filename, src)
	if err != nil {
		return nil, err
	}
	return prog.Graph()
}

// CompileFile reads and compiles the program at path.
func CompileFile(path string) (*ir.Graph, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Compile(path, string(src))
}

// Graph builds the graph of a parsed program.
func (p *Program) Graph() (*ir.Graph, error) {
	c := &compiler{g: ir.NewGraph(), names: make(map[string]ir.ValueID)}
	for _, st := range p.Statements {
		if st.Let != nil {
			if _, dup := c.names[st.Let.Name]; dup {
				return nil, errorf(st.Let.Pos, "%q is already bound", st.Let.Name)
			}
			id, err := c.expr(st.Let.Value)
			if err != nil {
				return nil, err
			}
			c.names[st.Let.Name] = id
			continue
		}
		id, err := c.expr(st.Expr)
		if err != nil {
			return nil, err
		}
		if err := c.g.MarkRoot(id); err != nil {
			return nil, errorf(st.Pos, "%v", err)
		}
	}
	return c.g, nil
}

type compiler struct {
	g     *ir.Graph
	names map[string]ir.ValueID
}

func (c *compiler) add(pos lexer.Position, p ir.Provenance, d ir.Data) (ir.ValueID, error) {
	id, err := c.g.Add(p, d)
	if err != nil {
		return 0, errorf(pos, "%v", err)
	}
	return id, nil
}

func (c *compiler) expr(e *Expr) (ir.ValueID, error) {
	switch {
	case e.Call != nil:
		return c.call(e.Call)
	case e.Integer != nil:
		w, err := ir.ParseWord(*e.Integer)
		if err != nil {
			return 0, errorf(e.Pos, "%v", err)
		}
		return c.add(e.Pos, ir.ProvenanceConstant, ir.Constant{Value: *w})
	case e.String != nil:
		return 0, errorf(e.Pos, "string %q is only valid as an input name", *e.String)
	default:
		name := *e.Name
		if id, ok := c.names[name]; ok {
			return id, nil
		}
		if v, err := ir.ParseEnvVar(name); err == nil {
			return c.add(e.Pos, ir.ProvenanceSynthetic, ir.Env{Var: v})
		}
		return 0, errorf(e.Pos, "undefined name %q", name)
	}
}

func (c *compiler) args(call *Call, n int) ([]ir.ValueID, error) {
	if n >= 0 && len(call.Args) != n {
		return nil, errorf(call.Pos, "%s takes %d arguments, got %d", call.Func, n, len(call.Args))
	}
	if n < 0 && len(call.Args) == 0 {
		return nil, errorf(call.Pos, "%s takes at least one argument", call.Func)
	}
	ids := make([]ir.ValueID, len(call.Args))
	for i, a := range call.Args {
		id, err := c.expr(a)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

// literal reads a small integer argument such as a bit offset.
func literal(e *Expr, limit uint64) (uint64, error) {
	if e.Integer == nil {
		return 0, errorf(e.Pos, "expected an integer literal")
	}
	w, err := ir.ParseWord(*e.Integer)
	if err != nil {
		return 0, errorf(e.Pos, "%v", err)
	}
	if !w.IsUint64() || w.Uint64() > limit {
		return 0, errorf(e.Pos, "%s is larger than %d", *e.Integer, limit)
	}
	return w.Uint64(), nil
}

func (c *compiler) call(call *Call) (ir.ValueID, error) {
	syn := ir.ProvenanceSynthetic
	switch call.Func {
	case "input":
		if len(call.Args) != 1 || call.Args[0].String == nil {
			return 0, errorf(call.Pos, `input takes one string argument, as in input("amount")`)
		}
		return c.add(call.Pos, syn, ir.Unknown{Name: *call.Args[0].String})
	case "sload":
		ids, err := c.args(call, 1)
		if err != nil {
			return 0, err
		}
		return c.add(call.Pos, syn, ir.StorageRead{Key: ids[0]})
	case "sstore":
		ids, err := c.args(call, 2)
		if err != nil {
			return 0, err
		}
		id, err := c.add(call.Pos, syn, ir.StorageWrite{Key: ids[0], Value: ids[1]})
		if err != nil {
			return 0, err
		}
		return id, c.g.MarkRoot(id)
	case "sha3", "keccak256":
		ids, err := c.args(call, -1)
		if err != nil {
			return 0, err
		}
		data := ids[0]
		if len(ids) > 1 {
			if data, err = c.add(call.Pos, syn, ir.Concat{Values: ids}); err != nil {
				return 0, err
			}
		}
		return c.add(call.Pos, syn, ir.Sha3{Data: data})
	case "concat":
		ids, err := c.args(call, -1)
		if err != nil {
			return 0, err
		}
		return c.add(call.Pos, syn, ir.Concat{Values: ids})
	case "mapping":
		ids, err := c.args(call, 2)
		if err != nil {
			return 0, err
		}
		return c.add(call.Pos, syn, ir.MappingIndex{Key: ids[0], Slot: ids[1]})
	case "subword":
		return c.subWord(call)
	case "packed":
		return c.packed(call)
	case "part":
		return 0, errorf(call.Pos, "part is only valid inside packed")
	case "calldata":
		if len(call.Args) != 3 {
			return 0, errorf(call.Pos, "calldata takes 3 arguments (id, offset, size), got %d", len(call.Args))
		}
		frame, err := literal(call.Args[0], 1<<31-1)
		if err != nil {
			return 0, err
		}
		ids, err := c.args(&Call{Pos: call.Pos, Func: call.Func, Args: call.Args[1:]}, 2)
		if err != nil {
			return 0, err
		}
		return c.add(call.Pos, syn, ir.CallData{ID: int(frame), Offset: ids[0], Size: ids[1]})
	case "codecopy":
		ids, err := c.args(call, 2)
		if err != nil {
			return 0, err
		}
		return c.add(call.Pos, syn, ir.CodeCopy{Offset: ids[0], Size: ids[1]})
	case "returndata":
		ids, err := c.args(call, 2)
		if err != nil {
			return 0, err
		}
		return c.add(call.Pos, syn, ir.ReturnData{Offset: ids[0], Size: ids[1]})
	case "call":
		ids, err := c.args(call, 3)
		if err != nil {
			return 0, err
		}
		return c.add(call.Pos, syn, ir.Call{Gas: ids[0], Target: ids[1], Value: ids[2]})
	}

	if op, err := ir.ParseUnaryOp(call.Func); err == nil {
		ids, err := c.args(call, 1)
		if err != nil {
			return 0, err
		}
		return c.add(call.Pos, syn, ir.Unary{Op: op, Operand: ids[0]})
	}
	if op, err := ir.ParseBinaryOp(call.Func); err == nil {
		ids, err := c.args(call, 2)
		if err != nil {
			return 0, err
		}
		return c.add(call.Pos, syn, ir.Binary{Op: op, Left: ids[0], Right: ids[1]})
	}
	return 0, errorf(call.Pos, "unknown operator %q", call.Func)
}

// bitRange reads offset and size arguments of a field.
func bitRange(offset, size *Expr) (uint16, uint16, error) {
	off, err := literal(offset, 255)
	if err != nil {
		return 0, 0, err
	}
	sz, err := literal(size, 256)
	if err != nil {
		return 0, 0, err
	}
	if sz == 0 || off+sz > 256 {
		return 0, 0, errorf(size.Pos, "bit range [%d, %d) is outside the word", off, off+sz)
	}
	return uint16(off), uint16(sz), nil
}

// subWord compiles subword(value, offset, size).
func (c *compiler) subWord(call *Call) (ir.ValueID, error) {
	if len(call.Args) != 3 {
		return 0, errorf(call.Pos, "subword takes 3 arguments (value, offset, size), got %d", len(call.Args))
	}
	off, size, err := bitRange(call.Args[1], call.Args[2])
	if err != nil {
		return 0, err
	}
	value, err := c.expr(call.Args[0])
	if err != nil {
		return 0, err
	}
	return c.add(call.Pos, ir.ProvenanceSynthetic, ir.SubWord{Value: value, Offset: off, Size: size})
}

// packed compiles packed(part(offset, size, value), ...).
func (c *compiler) packed(call *Call) (ir.ValueID, error) {
	if len(call.Args) == 0 {
		return 0, errorf(call.Pos, "packed takes at least one part")
	}
	parts := make([]ir.PackedPart, 0, len(call.Args))
	for _, a := range call.Args {
		if a.Call == nil || a.Call.Func != "part" || len(a.Call.Args) != 3 {
			return 0, errorf(a.Pos, "packed arguments must be part(offset, size, value)")
		}
		off, size, err := bitRange(a.Call.Args[0], a.Call.Args[1])
		if err != nil {
			return 0, err
		}
		value, err := c.expr(a.Call.Args[2])
		if err != nil {
			return 0, err
		}
		parts = append(parts, ir.PackedPart{Offset: off, Size: size, Value: value})
	}
	return c.add(call.Pos, ir.ProvenanceSynthetic, ir.Packed{Parts: parts})
}
