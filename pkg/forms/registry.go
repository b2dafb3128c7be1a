package forms

import (
	"github.com/samber/lo"

	"github.com/kristofer/pack200codec/pkg/codecerr"
	"github.com/kristofer/pack200codec/pkg/constpool"
	"github.com/kristofer/pack200codec/pkg/jvmop"
)

// Registry is Component C proper: an opcode-keyed map of every
// Form this codec knows, built once at package init from the literal
// entries below (spec §4.C "a static table of every known form").
type Registry struct {
	byOpcode map[int]*Form
	byName   map[string]*Form
}

var global = buildRegistry()

// Get looks up a form by its Pack200 opcode.
func Get(opcode int) (*Form, error) {
	f, ok := global.byOpcode[opcode]
	if !ok {
		return nil, codecerr.New(codecerr.UnsupportedOpcode, "no form registered for pack200 opcode %d", opcode)
	}
	return f, nil
}

// ByName looks up a form by its mnemonic, mainly for tests.
func ByName(name string) (*Form, error) {
	f, ok := global.byName[name]
	if !ok {
		return nil, codecerr.New(codecerr.UnsupportedOpcode, "no form registered with name %q", name)
	}
	return f, nil
}

// New builds a fresh ByteCode from the named opcode's form, the entry
// point pkg/codeattr uses to start each instruction (spec §4.D).
func New(opcode int) (*ByteCode, *Form, error) {
	f, err := Get(opcode)
	if err != nil {
		return nil, nil, err
	}
	return newByteCode(f, opcode), f, nil
}

// buildRegistry assembles the static form table from a handful of literal
// families plus a few generated families (the *_this/*_super fusions and
// the *_init pseudo-opcodes), the way the retrieved JVM interpreter's
// opcodeCategories table is itself one big literal with a few derived
// spans — grounded on pkg/bytecode.NewByteCodeForms's per-opcode literal
// switch, generalized from one variant per opcode to Pack200's many
// pseudo-opcodes per real opcode.
func buildRegistry() *Registry {
	var entries []*Form

	entries = append(entries, noArgumentForms()...)
	entries = append(entries, localForms()...)
	entries = append(entries, immediateForms()...)
	entries = append(entries, labelForms()...)
	entries = append(entries, literalRefForms()...)
	entries = append(entries, classRefForms()...)
	entries = append(entries, fieldMethodRefForms()...)
	entries = append(entries, classSpecificForms()...)
	entries = append(entries, initMethodForms()...)
	entries = append(entries, switchAndWideForms()...)

	byOpcode := lo.Associate(entries, func(f *Form) (int, *Form) { return f.Pack200Opcode, f })
	byName := lo.Associate(entries, func(f *Form) (string, *Form) { return f.Name, f })
	return &Registry{byOpcode: byOpcode, byName: byName}
}

// noArgumentForms covers every pack200 opcode whose real instruction takes
// no operand bytes at all.
func noArgumentForms() []*Form {
	type row struct {
		name string
		real int
	}
	rows := []row{
		{"nop", jvmop.Nop}, {"aconst_null", jvmop.AconstNull},
		{"iconst_m1", jvmop.IconstM1}, {"iconst_0", jvmop.Iconst0}, {"iconst_1", jvmop.Iconst1},
		{"iconst_2", jvmop.Iconst2}, {"iconst_3", jvmop.Iconst3}, {"iconst_4", jvmop.Iconst4}, {"iconst_5", jvmop.Iconst5},
		{"lconst_0", jvmop.Lconst0}, {"lconst_1", jvmop.Lconst1},
		{"fconst_0", jvmop.Fconst0}, {"fconst_1", jvmop.Fconst1}, {"fconst_2", jvmop.Fconst2},
		{"dconst_0", jvmop.Dconst0}, {"dconst_1", jvmop.Dconst1},
		{"iload_0", jvmop.Iload0}, {"iload_1", jvmop.Iload1}, {"iload_2", jvmop.Iload2}, {"iload_3", jvmop.Iload3},
		{"lload_0", jvmop.Lload0}, {"lload_1", jvmop.Lload1}, {"lload_2", jvmop.Lload2}, {"lload_3", jvmop.Lload3},
		{"fload_0", jvmop.Fload0}, {"fload_1", jvmop.Fload1}, {"fload_2", jvmop.Fload2}, {"fload_3", jvmop.Fload3},
		{"dload_0", jvmop.Dload0}, {"dload_1", jvmop.Dload1}, {"dload_2", jvmop.Dload2}, {"dload_3", jvmop.Dload3},
		{"aload_0", jvmop.Aload0}, {"aload_1", jvmop.Aload1}, {"aload_2", jvmop.Aload2}, {"aload_3", jvmop.Aload3},
		{"iaload", jvmop.Iaload}, {"laload", jvmop.Laload}, {"faload", jvmop.Faload}, {"daload", jvmop.Daload},
		{"aaload", jvmop.Aaload}, {"baload", jvmop.Baload}, {"caload", jvmop.Caload}, {"saload", jvmop.Saload},
		{"istore_0", jvmop.Istore0}, {"istore_1", jvmop.Istore1}, {"istore_2", jvmop.Istore2}, {"istore_3", jvmop.Istore3},
		{"lstore_0", jvmop.Lstore0}, {"lstore_1", jvmop.Lstore1}, {"lstore_2", jvmop.Lstore2}, {"lstore_3", jvmop.Lstore3},
		{"fstore_0", jvmop.Fstore0}, {"fstore_1", jvmop.Fstore1}, {"fstore_2", jvmop.Fstore2}, {"fstore_3", jvmop.Fstore3},
		{"dstore_0", jvmop.Dstore0}, {"dstore_1", jvmop.Dstore1}, {"dstore_2", jvmop.Dstore2}, {"dstore_3", jvmop.Dstore3},
		{"astore_0", jvmop.Astore0}, {"astore_1", jvmop.Astore1}, {"astore_2", jvmop.Astore2}, {"astore_3", jvmop.Astore3},
		{"iastore", jvmop.Iastore}, {"lastore", jvmop.Lastore}, {"fastore", jvmop.Fastore}, {"dastore", jvmop.Dastore},
		{"aastore", jvmop.Aastore}, {"bastore", jvmop.Bastore}, {"castore", jvmop.Castore}, {"sastore", jvmop.Sastore},
		{"pop", jvmop.Pop}, {"pop2", jvmop.Pop2}, {"dup", jvmop.Dup}, {"dup_x1", jvmop.DupX1}, {"dup_x2", jvmop.DupX2},
		{"dup2", jvmop.Dup2}, {"dup2_x1", jvmop.Dup2X1}, {"dup2_x2", jvmop.Dup2X2}, {"swap", jvmop.Swap},
		{"iadd", jvmop.Iadd}, {"ladd", jvmop.Ladd}, {"fadd", jvmop.Fadd}, {"dadd", jvmop.Dadd},
		{"isub", jvmop.Isub}, {"lsub", jvmop.Lsub}, {"fsub", jvmop.Fsub}, {"dsub", jvmop.Dsub},
		{"imul", jvmop.Imul}, {"lmul", jvmop.Lmul}, {"fmul", jvmop.Fmul}, {"dmul", jvmop.Dmul},
		{"idiv", jvmop.Idiv}, {"ldiv", jvmop.Ldiv}, {"fdiv", jvmop.Fdiv}, {"ddiv", jvmop.Ddiv},
		{"irem", jvmop.Irem}, {"lrem", jvmop.Lrem}, {"frem", jvmop.Frem}, {"drem", jvmop.Drem},
		{"ineg", jvmop.Ineg}, {"lneg", jvmop.Lneg}, {"fneg", jvmop.Fneg}, {"dneg", jvmop.Dneg},
		{"ishl", jvmop.Ishl}, {"lshl", jvmop.Lshl}, {"ishr", jvmop.Ishr}, {"lshr", jvmop.Lshr},
		{"iushr", jvmop.Iushr}, {"lushr", jvmop.Lushr},
		{"iand", jvmop.Iand}, {"land", jvmop.Land}, {"ior", jvmop.Ior}, {"lor", jvmop.Lor},
		{"ixor", jvmop.Ixor}, {"lxor", jvmop.Lxor},
		{"i2l", jvmop.I2l}, {"i2f", jvmop.I2f}, {"i2d", jvmop.I2d},
		{"l2i", jvmop.L2i}, {"l2f", jvmop.L2f}, {"l2d", jvmop.L2d},
		{"f2i", jvmop.F2i}, {"f2l", jvmop.F2l}, {"f2d", jvmop.F2d},
		{"d2i", jvmop.D2i}, {"d2l", jvmop.D2l}, {"d2f", jvmop.D2f},
		{"i2b", jvmop.I2b}, {"i2c", jvmop.I2c}, {"i2s", jvmop.I2s},
		{"lcmp", jvmop.Lcmp}, {"fcmpl", jvmop.Fcmpl}, {"fcmpg", jvmop.Fcmpg}, {"dcmpl", jvmop.Dcmpl}, {"dcmpg", jvmop.Dcmpg},
		{"ireturn", jvmop.Ireturn}, {"lreturn", jvmop.Lreturn}, {"freturn", jvmop.Freturn},
		{"dreturn", jvmop.Dreturn}, {"areturn", jvmop.Areturn}, {"return", jvmop.Return},
		{"arraylength", jvmop.Arraylength}, {"athrow", jvmop.Athrow},
		{"monitorenter", jvmop.Monitorenter}, {"monitorexit", jvmop.Monitorexit},
	}
	return lo.Map(rows, func(r row, i int) *Form {
		return newForm(Form{
			Name:          r.name,
			Pack200Opcode: r.real,
			Template:      []int{r.real},
			Variant:       VNoArgument,
			RealOpcode:    r.real,
		})
	})
}

// localForms covers every *load/*store whose single operand is a narrow,
// 1-byte local variable slot index. A wide (2-byte-index) local access is
// not a separate form here: it is real bytecode's `wide` prefix wrapping
// one of these same opcodes, which switchAndWideForms' "wide" pseudo-
// opcode already produces (spec §4.C "Wide").
func localForms() []*Form {
	type row struct {
		name string
		real int
	}
	rows := []row{
		{"iload", jvmop.Iload}, {"lload", jvmop.Lload}, {"fload", jvmop.Fload}, {"dload", jvmop.Dload}, {"aload", jvmop.Aload},
		{"istore", jvmop.Istore}, {"lstore", jvmop.Lstore}, {"fstore", jvmop.Fstore}, {"dstore", jvmop.Dstore}, {"astore", jvmop.Astore},
		{"ret", jvmop.Ret},
	}
	return lo.Map(rows, func(r row, i int) *Form {
		return newForm(Form{Name: r.name, Pack200Opcode: r.real, Template: []int{r.real, sentinel}, Variant: VLocal, RealOpcode: r.real})
	})
}

// immediateForms covers bipush/sipush/newarray/iinc, whose operands are
// plain immediates rather than references or labels.
func immediateForms() []*Form {
	return []*Form{
		newForm(Form{Name: "bipush", Pack200Opcode: jvmop.Bipush, Template: []int{jvmop.Bipush, sentinel}, Variant: VByte, RealOpcode: jvmop.Bipush}),
		newForm(Form{Name: "sipush", Pack200Opcode: jvmop.Sipush, Template: []int{jvmop.Sipush, sentinel, sentinel}, Variant: VShort, RealOpcode: jvmop.Sipush}),
		newForm(Form{Name: "newarray", Pack200Opcode: jvmop.Newarray, Template: []int{jvmop.Newarray, sentinel}, Variant: VByte, RealOpcode: jvmop.Newarray}),
		newForm(Form{Name: "iinc", Pack200Opcode: jvmop.Iinc, Template: []int{jvmop.Iinc, sentinel, sentinel}, Variant: VIinc, RealOpcode: jvmop.Iinc}),
	}
}

// labelForms covers every branch opcode: narrow (2-byte) and wide
// (4-byte, goto_w/jsr_w) targets.
func labelForms() []*Form {
	type row struct {
		name string
		real int
	}
	narrow := []row{
		{"ifeq", jvmop.Ifeq}, {"ifne", jvmop.Ifne}, {"iflt", jvmop.Iflt}, {"ifge", jvmop.Ifge},
		{"ifgt", jvmop.Ifgt}, {"ifle", jvmop.Ifle},
		{"if_icmpeq", jvmop.IfIcmpeq}, {"if_icmpne", jvmop.IfIcmpne}, {"if_icmplt", jvmop.IfIcmplt},
		{"if_icmpge", jvmop.IfIcmpge}, {"if_icmpgt", jvmop.IfIcmpgt}, {"if_icmple", jvmop.IfIcmple},
		{"if_acmpeq", jvmop.IfAcmpeq}, {"if_acmpne", jvmop.IfAcmpne},
		{"goto", jvmop.Goto}, {"jsr", jvmop.Jsr},
		{"ifnull", jvmop.Ifnull}, {"ifnonnull", jvmop.Ifnonnull},
	}
	out := lo.Map(narrow, func(r row, i int) *Form {
		return newForm(Form{Name: r.name, Pack200Opcode: r.real, Template: []int{r.real, sentinel, sentinel}, Variant: VLabel, RealOpcode: r.real})
	})
	out = append(out,
		newForm(Form{Name: "goto_w", Pack200Opcode: jvmop.GotoW, Template: []int{jvmop.GotoW, sentinel, sentinel, sentinel, sentinel}, Widened: true, Variant: VLabel, RealOpcode: jvmop.GotoW}),
		newForm(Form{Name: "jsr_w", Pack200Opcode: jvmop.JsrW, Template: []int{jvmop.JsrW, sentinel, sentinel, sentinel, sentinel}, Widened: true, Variant: VLabel, RealOpcode: jvmop.JsrW}),
	)
	return out
}

// literalRefForms covers ldc/ldc_w/ldc2_w. Pack200 assigns a distinct
// pseudo-opcode per literal kind even though they share one real opcode,
// since the kind determines which subpool (and which width) a form reads
// from (spec §4.C); the synthetic Pack200Opcode numbers below stand in
// for that per-kind pseudo-opcode assignment.
func literalRefForms() []*Form {
	type row struct {
		name    string
		synth   int
		widened bool
		variant Variant
		poolID  constpool.PoolID
		real    int
	}
	rows := []row{
		{"ildc", 1, false, VIntRef, constpool.INT, jvmop.Ldc},
		{"fldc", 2, false, VFloatRef, constpool.FLOAT, jvmop.Ldc},
		{"sldc", 3, false, VStringRef, constpool.STRING, jvmop.Ldc},
		{"cldc", 4, false, VNarrowClassRef, constpool.CLASS, jvmop.Ldc},
		{"ildc_w", 5, true, VIntRef, constpool.INT, jvmop.LdcW},
		{"fldc_w", 6, true, VFloatRef, constpool.FLOAT, jvmop.LdcW},
		{"sldc_w", 7, true, VStringRef, constpool.STRING, jvmop.LdcW},
		{"cldc_w", 8, true, VClassRef, constpool.CLASS, jvmop.LdcW},
		{"lldc2_w", 9, true, VLongRef, constpool.LONG, jvmop.Ldc2W},
		{"dldc2_w", 10, true, VDoubleRef, constpool.DOUBLE, jvmop.Ldc2W},
	}
	return lo.Map(rows, func(r row, i int) *Form {
		width := 1
		if r.widened {
			width = 2
		}
		template := make([]int, 1+width)
		template[0] = r.real
		for j := 1; j <= width; j++ {
			template[j] = sentinel
		}
		return newForm(Form{
			Name: r.name, Pack200Opcode: 6000 + r.synth, Template: template,
			Widened: r.widened, Variant: r.variant, PoolID: r.poolID, RealOpcode: r.real,
		})
	})
}

// classRefForms covers the four opcodes whose sole operand is a 2-byte
// class constant-pool reference, plus multianewarray (a 2-byte class
// reference followed by a dimension byte).
func classRefForms() []*Form {
	type row struct {
		name string
		real int
	}
	rows := []row{
		{"new", jvmop.New}, {"anewarray", jvmop.Anewarray}, {"checkcast", jvmop.Checkcast}, {"instanceof", jvmop.Instanceof},
	}
	out := lo.Map(rows, func(r row, i int) *Form {
		variant := VClassRef
		if r.name == "new" {
			variant = VNewClassRef
		}
		return newForm(Form{Name: r.name, Pack200Opcode: r.real, Template: []int{r.real, sentinel, sentinel}, Widened: true, Variant: variant, PoolID: constpool.CLASS, RealOpcode: r.real})
	})
	out = append(out, newForm(Form{
		Name: "multianewarray", Pack200Opcode: jvmop.Multianewarray,
		Template: []int{jvmop.Multianewarray, sentinel, sentinel, sentinel}, Widened: true,
		Variant: VMultiANewArray, PoolID: constpool.CLASS, RealOpcode: jvmop.Multianewarray,
	}))
	return out
}

// fieldMethodRefForms covers the plain (non class-specific) field and
// method access opcodes: getfield/putfield/getstatic/putstatic,
// invokevirtual/invokestatic, and invokeinterface (which post-fixes an
// argument-count byte per spec §4.C).
func fieldMethodRefForms() []*Form {
	return []*Form{
		newForm(Form{Name: "getstatic", Pack200Opcode: jvmop.Getstatic, Template: []int{jvmop.Getstatic, sentinel, sentinel}, Widened: true, Variant: VFieldRef, PoolID: constpool.FIELD, RealOpcode: jvmop.Getstatic}),
		newForm(Form{Name: "putstatic", Pack200Opcode: jvmop.Putstatic, Template: []int{jvmop.Putstatic, sentinel, sentinel}, Widened: true, Variant: VFieldRef, PoolID: constpool.FIELD, RealOpcode: jvmop.Putstatic}),
		newForm(Form{Name: "getfield", Pack200Opcode: jvmop.Getfield, Template: []int{jvmop.Getfield, sentinel, sentinel}, Widened: true, Variant: VFieldRef, PoolID: constpool.FIELD, RealOpcode: jvmop.Getfield}),
		newForm(Form{Name: "putfield", Pack200Opcode: jvmop.Putfield, Template: []int{jvmop.Putfield, sentinel, sentinel}, Widened: true, Variant: VFieldRef, PoolID: constpool.FIELD, RealOpcode: jvmop.Putfield}),
		newForm(Form{Name: "invokevirtual", Pack200Opcode: jvmop.Invokevirtual, Template: []int{jvmop.Invokevirtual, sentinel, sentinel}, Widened: true, Variant: VMethodRef, PoolID: constpool.METHOD, RealOpcode: jvmop.Invokevirtual}),
		newForm(Form{Name: "invokestatic", Pack200Opcode: jvmop.Invokestatic, Template: []int{jvmop.Invokestatic, sentinel, sentinel}, Widened: true, Variant: VMethodRef, PoolID: constpool.METHOD, RealOpcode: jvmop.Invokestatic}),
		newForm(Form{
			Name: "invokeinterface", Pack200Opcode: jvmop.Invokeinterface,
			Template: []int{jvmop.Invokeinterface, sentinel, sentinel, 0, 0}, Widened: true,
			Variant: VIMethodRef, PoolID: constpool.IMETHOD, RealOpcode: jvmop.Invokeinterface,
		}),
	}
}

// classSpecificForms covers the fused aload_0_getfield_this /
// aload_0_getfield_super family: pseudo-opcodes that collapse a
// `aload_0` followed immediately by a field/method access into one
// Pack200 token, addressing a class-specific subpool instead of the
// class's general constant pool (spec §4.C "ThisFieldRef" etc., and the
// HasMultipleByteCodes invariant). The synthetic Pack200Opcode numbers
// here live in a private range above the real single-byte opcode space,
// standing in for Pack200's own separately-assigned pseudo-opcode values.
func classSpecificForms() []*Form {
	type row struct {
		suffix  string
		real    int
		variant Variant
		kind    string // "field" or "method", selects PoolID
	}
	rows := []row{
		{"getfield_this", jvmop.Getfield, VThisFieldRef, "field"},
		{"putfield_this", jvmop.Putfield, VThisFieldRef, "field"},
		{"getfield_super", jvmop.Getfield, VSuperFieldRef, "field"},
		{"putfield_super", jvmop.Putfield, VSuperFieldRef, "field"},
		{"invokevirtual_this", jvmop.Invokevirtual, VThisMethodRef, "method"},
		{"invokevirtual_super", jvmop.Invokevirtual, VSuperMethodRef, "method"},
		{"invokespecial_this", jvmop.Invokespecial, VThisMethodRef, "method"},
		{"invokespecial_super", jvmop.Invokespecial, VSuperMethodRef, "method"},
	}
	base := 4000
	return lo.Map(rows, func(r row, i int) *Form {
		poolID := constpool.FIELD
		if r.kind == "method" {
			poolID = constpool.METHOD
		}
		return newForm(Form{
			Name:          "aload_0_" + r.suffix,
			Pack200Opcode: base + i,
			Template:      []int{jvmop.Aload0, r.real, sentinel, sentinel},
			Widened:       true,
			Variant:       r.variant,
			PoolID:        poolID,
			RealOpcode:    r.real,
		})
	})
}

// initMethodForms covers the three invokespecial <init> pseudo-opcodes,
// each resolving against a different context class (spec §4.C
// "ThisInitMethodRef"/"SuperInitMethodRef"/"NewInitMethodRef").
func initMethodForms() []*Form {
	type row struct {
		name    string
		variant Variant
	}
	rows := []row{
		{"invokespecial_this_init", VThisInitMethodRef},
		{"invokespecial_super_init", VSuperInitMethodRef},
		{"invokespecial_new_init", VNewInitMethodRef},
	}
	base := 5000
	return lo.Map(rows, func(r row, i int) *Form {
		return newForm(Form{
			Name: r.name, Pack200Opcode: base + i,
			Template: []int{jvmop.Invokespecial, sentinel, sentinel}, Widened: true,
			Variant: r.variant, PoolID: constpool.METHOD, RealOpcode: jvmop.Invokespecial,
		})
	})
}

// switchAndWideForms covers tableswitch, lookupswitch, and wide, whose
// operand layout is built dynamically by their SetOperands
// implementation rather than from a fixed template.
func switchAndWideForms() []*Form {
	return []*Form{
		newForm(Form{Name: "tableswitch", Pack200Opcode: jvmop.Tableswitch, Template: []int{jvmop.Tableswitch}, Variant: VTableSwitch, RealOpcode: jvmop.Tableswitch}),
		newForm(Form{Name: "lookupswitch", Pack200Opcode: jvmop.Lookupswitch, Template: []int{jvmop.Lookupswitch}, Variant: VLookupSwitch, RealOpcode: jvmop.Lookupswitch}),
		newForm(Form{Name: "wide", Pack200Opcode: jvmop.Wide, Template: []int{jvmop.Wide}, Variant: VWide, RealOpcode: jvmop.Wide}),
	}
}
