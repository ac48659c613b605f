package compiler

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

type SymbolKind int

const (
	SymVariable SymbolKind = iota
	SymParam
	SymFunction
)

func (k SymbolKind) String() string {
	switch k {
	case SymVariable:
		return "var"
	case SymParam:
		return "param"
	case SymFunction:
		return "fn"
	}
	return "?"
}

// StorageClass selects the address instruction for a symbol and the
// counter its slot comes from.
type StorageClass int

const (
	StorageGlobal StorageClass = iota
	StorageLocal
	StorageParam
)

func (c StorageClass) String() string {
	switch c {
	case StorageGlobal:
		return "global"
	case StorageLocal:
		return "local"
	case StorageParam:
		return "param"
	}
	return "?"
}

type Symbol struct {
	Name        string
	Kind        SymbolKind
	Type        Type // value type; return type for functions
	Const       bool
	Initialized bool
	Storage     StorageClass
	Slot        int

	// Functions only.
	Params    []Type
	FuncIndex int // position in the function table, operand of call

	shadowed int // index of the binding this one hides, or -1
}

var (
	errDuplicate   = errors.New("duplicate declaration")
	errNotDeclared = errors.New("not declared")
)

// SymbolTable maps names to storage slots across nested scopes.
//
// Every live symbol sits in one ordered slice; index holds the position
// of the most recent binding per name. Scope entry records the slice
// height, and scope exit pops back to it, re-exposing any binding the
// popped symbols shadowed.
type SymbolTable struct {
	symbols []*Symbol
	index   map[string]int
	scopes  []int

	nextGlobal int
	nextLocal  int
	nextParam  int
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{index: make(map[string]int)}
}

// boundary is the first symbol index that belongs to the current scope.
func (s *SymbolTable) boundary() int {
	if len(s.scopes) == 0 {
		return 0
	}
	return s.scopes[len(s.scopes)-1]
}

// Depth is the number of open scopes; 0 is the global scope.
func (s *SymbolTable) Depth() int {
	return len(s.scopes)
}

func (s *SymbolTable) EnterScope() {
	s.scopes = append(s.scopes, len(s.symbols))
	log.Debugf("enter scope %d at height %d", len(s.scopes), len(s.symbols))
}

func (s *SymbolTable) ExitScope() {
	if len(s.scopes) == 0 {
		panic("ExitScope called at global scope")
	}
	height := s.boundary()
	for i := len(s.symbols) - 1; i >= height; i-- {
		sym := s.symbols[i]
		if sym.shadowed >= 0 {
			s.index[sym.Name] = sym.shadowed
		} else {
			delete(s.index, sym.Name)
		}
	}
	s.symbols = s.symbols[:height]
	s.scopes = s.scopes[:len(s.scopes)-1]
	log.Debugf("exit scope, height back to %d", height)
}

// BeginFunction resets the local and parameter counters.
func (s *SymbolTable) BeginFunction() {
	s.nextLocal = 0
	s.nextParam = 0
}

// EndFunction resets the parameter counter once the function's
// parameters have been bound and its body analyzed.
func (s *SymbolTable) EndFunction() {
	s.nextParam = 0
}

// LocalCount is the number of local slots handed out since BeginFunction.
func (s *SymbolTable) LocalCount() int {
	return s.nextLocal
}

// AllocGlobal reserves an anonymous global slot, for pool constants
// that have no name in the program.
func (s *SymbolTable) AllocGlobal() int {
	slot := s.nextGlobal
	s.nextGlobal++
	return slot
}

// Declare binds name in the current scope and assigns it the next slot
// of its storage class.
func (s *SymbolTable) Declare(name string, kind SymbolKind, typ Type, isConst bool, class StorageClass) (*Symbol, error) {
	prev, exists := s.index[name]
	if exists && prev >= s.boundary() {
		return nil, fmt.Errorf("%w: %s", errDuplicate, name)
	}

	sym := &Symbol{
		Name:     name,
		Kind:     kind,
		Type:     typ,
		Const:    isConst,
		Storage:  class,
		shadowed: -1,
	}
	if exists {
		sym.shadowed = prev
	}
	switch class {
	case StorageGlobal:
		sym.Slot = s.AllocGlobal()
	case StorageLocal:
		sym.Slot = s.nextLocal
		s.nextLocal++
	case StorageParam:
		sym.Slot = s.nextParam
		s.nextParam++
	}

	s.index[name] = len(s.symbols)
	s.symbols = append(s.symbols, sym)
	log.Debugf("declare %s %s: %s %s slot %d", kind, name, typ, class, sym.Slot)
	return sym, nil
}

// Resolve returns the innermost visible binding of name.
func (s *SymbolTable) Resolve(name string) (*Symbol, error) {
	i, ok := s.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errNotDeclared, name)
	}
	return s.symbols[i], nil
}

// ShiftParams moves every parameter of the current scope up by n slots,
// leaving room for the return value at argument 0.
func (s *SymbolTable) ShiftParams(n int) {
	for _, sym := range s.symbols[s.boundary():] {
		if sym.Storage == StorageParam {
			sym.Slot += n
		}
	}
}

// String returns a deterministically ordered dump of the visible bindings.
func (s *SymbolTable) String() string {
	var sb strings.Builder
	names := make([]string, 0, len(s.index))
	for name := range s.index {
		names = append(names, name)
	}
	if len(names) == 0 {
		return "Symbols: (empty)\n"
	}
	sort.Strings(names)
	sb.WriteString("Symbols:\n")
	for _, name := range names {
		sym := s.symbols[s.index[name]]
		mut := "let"
		if sym.Const {
			mut = "const"
		}
		fmt.Fprintf(&sb, "  %-20s  %-5s %-5s %-6s %-6s slot %d\n", name, sym.Kind, mut, sym.Type, sym.Storage, sym.Slot)
	}
	fmt.Fprintf(&sb, "Scopes: %v\n", s.scopes)
	return sb.String()
}
