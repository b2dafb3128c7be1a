// Package constpool implements Component B of the codec: a lookup service
// that resolves (pool_id, offset[, context_class_name]) tuples to concrete
// constant-pool entry handles.
//
// Grounded on pkg/bytecode.Bytecode.Constants ([]interface{} indexed by
// position) and format.go's per-type constant tag switch, generalized
// from the teacher's {int64,float64,string,bool,nil,*ClassDefinition,...}
// tag set to Pack200's UTF8/INT/FLOAT/LONG/DOUBLE/STRING/CLASS/FIELD/
// METHOD/IMETHOD/NAME_AND_TYPE/SIGNATURE pool ids.
package constpool

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kristofer/pack200codec/pkg/codecerr"
)

// PoolID names one of the class-file constant-pool tag families a form may
// look entries up in (spec §4.B).
type PoolID int

const (
	UTF8 PoolID = iota
	INT
	FLOAT
	LONG
	DOUBLE
	STRING
	CLASS
	FIELD
	METHOD
	IMETHOD
	NAME_AND_TYPE
	SIGNATURE
)

// Entry is a resolved constant-pool entry handle. Which fields are
// meaningful depends on PoolID: CLASS/FIELD/METHOD/IMETHOD entries carry
// ClassName/MemberName/Descriptor; INT/FLOAT/LONG/DOUBLE/STRING entries
// carry Value; UTF8 entries carry just Value (a string).
type Entry struct {
	ID         PoolID
	Index      int // position of this entry in the class constant pool, 1-based
	ClassName  string
	MemberName string
	Descriptor string
	Value      interface{}
}

// ArgWidth returns 1 + Σ arg-size for a method/interface-method
// descriptor, where long and double arguments count 2 and everything
// else counts 1 (spec §4.C "IMethodRef... arg count"). It is exposed here
// because the descriptor to parse lives on the Entry, not on the form.
func (e *Entry) ArgWidth() int {
	width := 1
	desc := e.Descriptor
	i := 0
	for i < len(desc) && desc[i] != '(' {
		i++
	}
	i++
	for i < len(desc) && desc[i] != ')' {
		switch desc[i] {
		case 'J', 'D':
			width += 2
			i++
		case 'L':
			for i < len(desc) && desc[i] != ';' {
				i++
			}
			i++
			width++
		case '[':
			for i < len(desc) && desc[i] == '[' {
				i++
			}
			if i < len(desc) && desc[i] == 'L' {
				for i < len(desc) && desc[i] != ';' {
					i++
				}
			}
			i++
			width++
		default:
			i++
			width++
		}
	}
	return width
}

// View is the read contract forms consult during decode (spec §4.B).
type View interface {
	GetEntry(id PoolID, offset int) (*Entry, error)
	GetClassSpecificEntry(id PoolID, offset int, contextClass string) (*Entry, error)
	GetInitEntry(offset int, contextClass string) (*Entry, error)
	GetValue(id PoolID, offset int) (*Entry, error)
}

// subpoolKey indexes a class-specific subpool cache entry.
type subpoolKey struct {
	id    PoolID
	class string
	off   int
}

// ClassConstantPool is the per-class session implementation of View: a
// dense, append-only list of entries plus class-specific subpool indexes,
// with an LRU-backed resolved-entry cache for repeat lookups (spec §4.B
// "the caller may query its live entries").
//
// An LRU is the right shape here (rather than an unbounded map) because
// class-specific subpool lookups from *_this/*_super forms cluster on a
// handful of recently touched classes while decoding one method; bounding
// the cache keeps memory flat across a segment with many classes.
type ClassConstantPool struct {
	entries  []*Entry // 1-based: entries[0] is unused, matching class-file index 1..N
	bySubpool map[subpoolKey][]*Entry
	cache    *lru.Cache[subpoolKey, *Entry]
}

// New builds an empty ClassConstantPool. cacheSize bounds the resolved
// subpool-lookup cache; 0 disables caching.
func New(cacheSize int) *ClassConstantPool {
	cp := &ClassConstantPool{
		entries:   []*Entry{nil},
		bySubpool: make(map[subpoolKey][]*Entry),
	}
	if cacheSize > 0 {
		c, _ := lru.New[subpoolKey, *Entry](cacheSize)
		cp.cache = c
	}
	return cp
}

// Append adds a fully-formed entry to the dense index and returns its
// 1-based class-file index.
func (cp *ClassConstantPool) Append(e *Entry) int {
	e.Index = len(cp.entries)
	cp.entries = append(cp.entries, e)
	return e.Index
}

// AppendClassSpecific adds e to both the dense index and the named
// class's per-PoolID subpool, the partition *_this/*_super forms index
// into by a smaller "offset within this class's entries of this kind"
// number rather than the full pool index (spec GLOSSARY "Class-specific
// subpool").
func (cp *ClassConstantPool) AppendClassSpecific(id PoolID, class string, e *Entry) int {
	idx := cp.Append(e)
	key := subpoolKey{id: id, class: class}
	cp.bySubpool[key] = append(cp.bySubpool[key], e)
	return idx
}

// Len reports the number of live entries (excluding the unused index 0).
func (cp *ClassConstantPool) Len() int { return len(cp.entries) - 1 }

// Entries returns the live entries in class-file index order, for a
// caller that needs to compute inner-class relevance or similar — spec
// §4.B notes this is out of the core's scope but the accessor belongs
// here.
func (cp *ClassConstantPool) Entries() []*Entry {
	return cp.entries[1:]
}

func (cp *ClassConstantPool) GetEntry(id PoolID, offset int) (*Entry, error) {
	if offset <= 0 || offset >= len(cp.entries) {
		return nil, codecerr.New(codecerr.UnknownPoolEntry,
			"pool offset %d out of range for id %v (pool size %d)", offset, id, cp.Len())
	}
	e := cp.entries[offset]
	if e.ID != id {
		return nil, codecerr.New(codecerr.UnknownPoolEntry,
			"pool offset %d is a %v entry, not %v", offset, e.ID, id)
	}
	return e, nil
}

func (cp *ClassConstantPool) GetValue(id PoolID, offset int) (*Entry, error) {
	return cp.GetEntry(id, offset)
}

func (cp *ClassConstantPool) GetClassSpecificEntry(id PoolID, offset int, contextClass string) (*Entry, error) {
	key := subpoolKey{id: id, class: contextClass, off: offset}
	if cp.cache != nil {
		if e, ok := cp.cache.Get(key); ok {
			return e, nil
		}
	}
	list := cp.bySubpool[subpoolKey{id: id, class: contextClass}]
	if offset < 0 || offset >= len(list) {
		return nil, codecerr.New(codecerr.UnknownPoolEntry,
			"class-specific offset %d out of range for %v in class %q (subpool size %d)",
			offset, id, contextClass, len(list))
	}
	e := list[offset]
	if cp.cache != nil {
		cp.cache.Add(key, e)
	}
	return e, nil
}

func (cp *ClassConstantPool) GetInitEntry(offset int, contextClass string) (*Entry, error) {
	return cp.GetClassSpecificEntry(METHOD, offset, contextClass)
}
