package forms

import (
	"encoding/binary"

	"github.com/kristofer/pack200codec/pkg/codecerr"
	"github.com/kristofer/pack200codec/pkg/constpool"
	"github.com/kristofer/pack200codec/pkg/context"
	"github.com/kristofer/pack200codec/pkg/operand"
)

// Patch marks a byte position in a ByteCode's rewrite where FixUpTargets
// must later write a computed branch/switch offset (as opposed to a
// NestedPos, which holds a constant-pool index). Patches[i] corresponds
// to Targets[i] (spec §4.C "Label" and "TableSwitch"/"LookupSwitch").
type Patch struct {
	Offset int
	Width  int
}

// SetOperands pulls the tokens this form's variant needs from sess,
// resolves any constant-pool references through pool, consults/updates
// ctx for class-specific forms, and mutates bc in place (spec §4.C
// "set_operands"). codeLengthSoFar is the running byte length of the
// method before this instruction, needed only by switch forms to compute
// padding.
func (f *Form) SetOperands(bc *ByteCode, sess *operand.Session, pool constpool.View, ctx *context.Tracker, codeLengthSoFar int) error {
	switch f.Variant {
	case VNoArgument:
		return nil

	case VByte:
		tok, err := sess.Stream(operand.KindByteImm).Next()
		if err != nil {
			return err
		}
		bc.SetOperandBytes(f.FirstOperand, byte(int8(tok)))
		return nil

	case VShort:
		tok, err := sess.Stream(operand.KindShortImm).Next()
		if err != nil {
			return err
		}
		bc.SetOperandSigned2Bytes(tok, f.FirstOperand)
		return nil

	case VLocal:
		tok, err := sess.Stream(operand.KindLocal).Next()
		if err != nil {
			return err
		}
		width := f.LastOperand - f.FirstOperand + 1
		if width == 1 {
			bc.SetOperandBytes(f.FirstOperand, byte(tok))
		} else {
			bc.SetOperandUnsigned2Bytes(tok, f.FirstOperand)
		}
		return nil

	case VIinc:
		loc, err := sess.Stream(operand.KindLocal).Next()
		if err != nil {
			return err
		}
		c, err := sess.Stream(operand.KindByteImm).Next()
		if err != nil {
			return err
		}
		bc.SetOperandBytes(f.FirstOperand, byte(loc))
		bc.SetOperandBytes(f.FirstOperand+1, byte(int8(c)))
		return nil

	case VLabel:
		tok, err := sess.Stream(operand.KindLabel).Next()
		if err != nil {
			return err
		}
		width := 2
		if f.Widened {
			width = 4
		}
		bc.Targets = []int{tok}
		bc.Patches = []Patch{{Offset: f.FirstOperand, Width: width}}
		return nil

	case VStringRef:
		return resolveAndNest(f, bc, sess, pool, operand.KindStringRef, getValue)
	case VIntRef:
		return resolveAndNest(f, bc, sess, pool, operand.KindIntRef, getValue)
	case VFloatRef:
		return resolveAndNest(f, bc, sess, pool, operand.KindFloatRef, getValue)
	case VLongRef:
		return resolveAndNest(f, bc, sess, pool, operand.KindLongRef, getValue)
	case VDoubleRef:
		return resolveAndNest(f, bc, sess, pool, operand.KindDoubleRef, getValue)
	case VNarrowClassRef:
		return resolveAndNest(f, bc, sess, pool, operand.KindClassRef, getEntry)
	case VClassRef:
		return resolveAndNest(f, bc, sess, pool, operand.KindClassRef, getEntry)

	case VNewClassRef:
		if err := resolveAndNest(f, bc, sess, pool, operand.KindClassRef, getEntry); err != nil {
			return err
		}
		ctx.SetNewClass(bc.Nested[len(bc.Nested)-1].Entry.ClassName)
		return nil

	case VFieldRef:
		return resolveAndNest(f, bc, sess, pool, operand.KindFieldRef, getEntry)
	case VMethodRef:
		return resolveAndNest(f, bc, sess, pool, operand.KindMethodRef, getEntry)

	case VIMethodRef:
		if err := resolveAndNest(f, bc, sess, pool, operand.KindIMethodRef, getEntry); err != nil {
			return err
		}
		entry := bc.Nested[len(bc.Nested)-1].Entry
		// Post-fix the arg-count byte that follows the 2-byte CP index
		// (spec §4.C "IMethodRef... overwrite the fourth template byte").
		bc.SetOperandBytes(f.FirstOperand+2, byte(entry.ArgWidth()))
		return nil

	case VThisFieldRef:
		return classSpecificNest(f, bc, sess, pool, operand.KindThisField, ctx.CurrentClass())
	case VThisMethodRef:
		return classSpecificNest(f, bc, sess, pool, operand.KindThisMethod, ctx.CurrentClass())
	case VSuperFieldRef:
		return classSpecificNest(f, bc, sess, pool, operand.KindSuperField, ctx.SuperClass())
	case VSuperMethodRef:
		return classSpecificNest(f, bc, sess, pool, operand.KindSuperMethod, ctx.SuperClass())

	case VThisInitMethodRef:
		return initNest(f, bc, sess, pool, ctx.CurrentClass())
	case VSuperInitMethodRef:
		return initNest(f, bc, sess, pool, ctx.SuperClass())
	case VNewInitMethodRef:
		return initNest(f, bc, sess, pool, ctx.NewClass())

	case VTableSwitch:
		return setTableSwitch(bc, sess, codeLengthSoFar)
	case VLookupSwitch:
		return setLookupSwitch(bc, sess, codeLengthSoFar)

	case VWide:
		return setWide(bc, sess)

	case VMultiANewArray:
		if err := resolveAndNest(f, bc, sess, pool, operand.KindClassRef, getEntry); err != nil {
			return err
		}
		dims, err := sess.Stream(operand.KindByteImm).Next()
		if err != nil {
			return err
		}
		bc.SetOperandBytes(f.FirstOperand+2, byte(dims))
		return nil
	}
	return codecerr.New(codecerr.UnsupportedOpcode, "form %q has unknown variant %d", f.Name, f.Variant)
}

// FixUpTargets is the form's second operation (spec §4.C
// "fix_up_targets"): for label/switch forms it turns each symbolic target
// token into a byte-offset delta; for every other form it is a no-op.
// offsets must have length instrCount+1, with offsets[instrCount] the
// total method byte length (spec §3 Invariants).
func (f *Form) FixUpTargets(bc *ByteCode, srcIndex int, offsets []int) error {
	if len(bc.Targets) == 0 {
		return nil
	}
	if len(bc.Patches) != len(bc.Targets) {
		codecerr.Invariant("ByteCode has %d targets but %d patches", len(bc.Targets), len(bc.Patches))
	}
	for i, tok := range bc.Targets {
		targetIdx := srcIndex + tok
		if targetIdx < 0 || targetIdx >= len(offsets) {
			return codecerr.New(codecerr.DanglingLabel,
				"label target instruction %d out of range (method has %d instructions)", targetIdx, len(offsets)-1)
		}
		delta := offsets[targetIdx] - offsets[srcIndex]
		p := bc.Patches[i]
		switch p.Width {
		case 2:
			bc.SetOperandSigned2Bytes(delta, p.Offset)
		case 4:
			bc.SetOperandSigned4Bytes(delta, p.Offset)
		default:
			codecerr.Invariant("patch at offset %d has unsupported width %d", p.Offset, p.Width)
		}
	}
	return nil
}

// --- shared reference-resolution helpers ---

type poolLookup func(pool constpool.View, id constpool.PoolID, offset int) (*constpool.Entry, error)

func getValue(pool constpool.View, id constpool.PoolID, offset int) (*constpool.Entry, error) {
	return pool.GetValue(id, offset)
}

func getEntry(pool constpool.View, id constpool.PoolID, offset int) (*constpool.Entry, error) {
	return pool.GetEntry(id, offset)
}

func resolveAndNest(f *Form, bc *ByteCode, sess *operand.Session, pool constpool.View, kind operand.Kind, lookup poolLookup) error {
	tok, err := sess.Stream(kind).Next()
	if err != nil {
		return err
	}
	entry, err := lookup(pool, f.PoolID, tok)
	if err != nil {
		return err
	}
	width := 1
	if f.Widened {
		width = 2
	}
	bc.SetNested(NestedPos{Offset: f.FirstOperand, Width: width, Entry: entry})
	return nil
}

func classSpecificNest(f *Form, bc *ByteCode, sess *operand.Session, pool constpool.View, kind operand.Kind, contextClass string) error {
	tok, err := sess.Stream(kind).Next()
	if err != nil {
		return err
	}
	entry, err := pool.GetClassSpecificEntry(f.PoolID, tok, contextClass)
	if err != nil {
		return err
	}
	bc.SetNested(NestedPos{Offset: f.FirstOperand, Width: 2, Entry: entry})
	return nil
}

func initNest(f *Form, bc *ByteCode, sess *operand.Session, pool constpool.View, contextClass string) error {
	tok, err := sess.Stream(operand.KindInitRef).Next()
	if err != nil {
		return err
	}
	entry, err := pool.GetInitEntry(tok, contextClass)
	if err != nil {
		return err
	}
	bc.SetNested(NestedPos{Offset: f.FirstOperand, Width: 2, Entry: entry})
	return nil
}

// --- switch variants ---

func switchPadding(codeLengthSoFar int) (int, error) {
	pad := 3 - (codeLengthSoFar % 4)
	if pad < 0 {
		return 0, codecerr.New(codecerr.AlignmentError, "negative switch padding computed for code length %d", codeLengthSoFar)
	}
	return pad, nil
}

func setTableSwitch(bc *ByteCode, sess *operand.Session, codeLengthSoFar int) error {
	pad, err := switchPadding(codeLengthSoFar)
	if err != nil {
		return err
	}
	caseCount, err := sess.Stream(operand.KindCaseCount).Next()
	if err != nil {
		return err
	}
	defaultTok, err := sess.Stream(operand.KindLabel).Next()
	if err != nil {
		return err
	}
	low, err := sess.Stream(operand.KindCaseValue).Next()
	if err != nil {
		return err
	}
	caseToks := make([]int, caseCount)
	for i := 0; i < caseCount; i++ {
		tok, err := sess.Stream(operand.KindLabel).Next()
		if err != nil {
			return err
		}
		caseToks[i] = tok
	}

	size := 1 + pad + 4 + 4 + 4 + 4*caseCount
	buf := make([]byte, size)
	buf[0] = jvmTableswitch
	pos := 1 + pad
	defaultOffset := pos
	pos += 4
	binary.BigEndian.PutUint32(buf[pos:pos+4], uint32(low))
	pos += 4
	high := low + caseCount - 1
	binary.BigEndian.PutUint32(buf[pos:pos+4], uint32(high))
	pos += 4
	casePositions := make([]int, caseCount)
	for i := range caseToks {
		casePositions[i] = pos
		pos += 4
	}

	bc.Rewrite = buf
	bc.Targets = append([]int{defaultTok}, caseToks...)
	patches := make([]Patch, 0, caseCount+1)
	patches = append(patches, Patch{Offset: defaultOffset, Width: 4})
	for _, p := range casePositions {
		patches = append(patches, Patch{Offset: p, Width: 4})
	}
	bc.Patches = patches
	return nil
}

func setLookupSwitch(bc *ByteCode, sess *operand.Session, codeLengthSoFar int) error {
	pad, err := switchPadding(codeLengthSoFar)
	if err != nil {
		return err
	}
	caseCount, err := sess.Stream(operand.KindCaseCount).Next()
	if err != nil {
		return err
	}
	defaultTok, err := sess.Stream(operand.KindLabel).Next()
	if err != nil {
		return err
	}
	matches := make([]int, caseCount)
	for i := 0; i < caseCount; i++ {
		m, err := sess.Stream(operand.KindCaseValue).Next()
		if err != nil {
			return err
		}
		matches[i] = m
	}
	caseToks := make([]int, caseCount)
	for i := 0; i < caseCount; i++ {
		tok, err := sess.Stream(operand.KindLabel).Next()
		if err != nil {
			return err
		}
		caseToks[i] = tok
	}
	// Decode preserves the read order of (match, target) pairs; an
	// encoder producing tokens for this form must pre-sort by ascending
	// match value to satisfy the JVM class-file format (spec §9 Open
	// Question 1 — resolved in pkg/recorder, not here).

	size := 1 + pad + 4 + 4 + 8*caseCount
	buf := make([]byte, size)
	buf[0] = jvmLookupswitch
	pos := 1 + pad
	defaultOffset := pos
	pos += 4
	binary.BigEndian.PutUint32(buf[pos:pos+4], uint32(caseCount))
	pos += 4
	casePositions := make([]int, caseCount)
	for i := range matches {
		binary.BigEndian.PutUint32(buf[pos:pos+4], uint32(matches[i]))
		pos += 4
		casePositions[i] = pos
		pos += 4
	}

	bc.Rewrite = buf
	bc.Targets = append([]int{defaultTok}, caseToks...)
	patches := make([]Patch, 0, caseCount+1)
	patches = append(patches, Patch{Offset: defaultOffset, Width: 4})
	for _, p := range casePositions {
		patches = append(patches, Patch{Offset: p, Width: 4})
	}
	bc.Patches = patches
	return nil
}

func setWide(bc *ByteCode, sess *operand.Session) error {
	inner, err := sess.Stream(operand.KindWideOpcode).Next()
	if err != nil {
		return err
	}
	local, err := sess.Stream(operand.KindLocal).Next()
	if err != nil {
		return err
	}
	if inner == jvmIinc {
		c, err := sess.Stream(operand.KindShortImm).Next()
		if err != nil {
			return err
		}
		buf := make([]byte, 6)
		buf[0] = jvmWide
		buf[1] = byte(inner)
		binary.BigEndian.PutUint16(buf[2:4], uint16(local))
		binary.BigEndian.PutUint16(buf[4:6], uint16(int16(c)))
		bc.Rewrite = buf
	} else {
		buf := make([]byte, 4)
		buf[0] = jvmWide
		buf[1] = byte(inner)
		binary.BigEndian.PutUint16(buf[2:4], uint16(local))
		bc.Rewrite = buf
	}
	bc.RealOpcode = inner
	return nil
}

// Real JVM opcode values needed by the switch/wide builders above,
// spelled out locally to avoid forms depending on jvmop for three
// constants (kept in sync with pkg/jvmop).
const (
	jvmTableswitch  = 0xAA
	jvmLookupswitch = 0xAB
	jvmWide         = 0xC4
	jvmIinc         = 0x84
)
