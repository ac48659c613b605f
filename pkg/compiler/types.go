package compiler

// Type is the static type of a value.
type Type int

const (
	TypeVoid Type = iota
	TypeInt
	TypeDouble
	// TypeBool is the result of a comparison. It can only be consumed by
	// a branch or discarded.
	TypeBool
)

func (t Type) String() string {
	switch t {
	case TypeVoid:
		return "void"
	case TypeInt:
		return "int"
	case TypeDouble:
		return "double"
	case TypeBool:
		return "bool"
	}
	return "unknown"
}

// Numeric reports whether values of t may take part in arithmetic.
func (t Type) Numeric() bool {
	return t == TypeInt || t == TypeDouble
}

// Slots is the number of stack slots a value of t occupies.
func (t Type) Slots() int {
	if t == TypeVoid {
		return 0
	}
	return 1
}

// typeKeyword maps a type-name token to its Type.
func typeKeyword(tt TokenType) (Type, bool) {
	switch tt {
	case INT:
		return TypeInt, true
	case DOUBLE:
		return TypeDouble, true
	case VOID:
		return TypeVoid, true
	}
	return TypeVoid, false
}
