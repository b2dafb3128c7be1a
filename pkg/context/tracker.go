// Package context implements Component G: the Context Tracker. It
// remembers the current class, its superclass, and the most recently
// `new`-ed class for the specialized *_this/*_super/*_new_init
// pseudo-opcodes.
//
// Grounded on pkg/vm.VM's frame-local bookkeeping around pushFrame and
// popFrame — here reduced to the three slots forms actually need, since
// only the *current* values matter, never a history of them (spec §4.G).
package context

// Tracker holds the three read-mostly slots class-specific forms consult.
type Tracker struct {
	currentClass string
	superClass   string
	newClass     string
}

// New builds a Tracker for a method whose enclosing class is
// currentClass, declared superclass superClass.
func New(currentClass, superClass string) *Tracker {
	return &Tracker{currentClass: currentClass, superClass: superClass}
}

// CurrentClass is the class declaring the method being decoded/encoded.
func (t *Tracker) CurrentClass() string { return t.currentClass }

// SuperClass is CurrentClass's declared superclass.
func (t *Tracker) SuperClass() string { return t.superClass }

// NewClass is the class most recently targeted by a `new` instruction;
// it is what ThisInitMethodRef/SuperInitMethodRef/NewInitMethodRef forms
// resolve their init subpool lookup against when the pseudo-opcode is
// invokespecial_new_init (spec §4.C "NewClassRef").
func (t *Tracker) NewClass() string { return t.newClass }

// SetNewClass updates the new-class slot. Called by the NewClassRef
// form's SetOperands after emitting `new` (spec §4.C).
func (t *Tracker) SetNewClass(class string) { t.newClass = class }
