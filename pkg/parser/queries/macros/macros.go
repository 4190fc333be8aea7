// Package macros holds the query that locates calls to Vue's script-setup
// compiler macros.
package macros

// Query matches every call whose callee is a plain identifier. The
// caller filters on @macro.name, which keeps the query portable across the
// JavaScript and TypeScript grammars.
//
// Captures:
//   - @macro.call      - the call expression
//   - @macro.name      - the callee identifier
//   - @macro.arguments - the argument list
const Query = `
(call_expression
  function: (identifier) @macro.name
  arguments: (arguments) @macro.arguments
) @macro.call
`

// Names lists the compiler macros the transforms understand.
var Names = map[string]bool{
	"defineProps":   true,
	"defineEmits":   true,
	"defineSlots":   true,
	"defineModel":   true,
	"defineOptions": true,
	"defineExpose":  true,
	"withDefaults":  true,
	"defineMeta":    true,
}
