package compiler

// Builtin is a runtime-provided I/O primitive, called by name.
type Builtin struct {
	Params []Type
	Return Type
}

// Builtins lists the primitives a program may call without declaring
// them. A user function of the same name hides the primitive.
var Builtins = map[string]Builtin{
	"getint":    {Return: TypeInt},
	"getchar":   {Return: TypeInt},
	"getdouble": {Return: TypeDouble},
	"putint":    {Params: []Type{TypeInt}, Return: TypeVoid},
	"putchar":   {Params: []Type{TypeInt}, Return: TypeVoid},
	"putstr":    {Params: []Type{TypeInt}, Return: TypeVoid},
	"putdouble": {Params: []Type{TypeDouble}, Return: TypeVoid},
	"putln":     {Return: TypeVoid},
}
