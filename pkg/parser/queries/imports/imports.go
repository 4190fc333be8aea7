// Package imports holds the query that locates module import declarations.
package imports

// Query matches every import declaration of a JavaScript or TypeScript
// module. Side-effect imports carry no @import.clause capture.
//
// Captures:
//   - @import.statement - the whole declaration
//   - @import.clause    - default, namespace and named bindings
//   - @import.source    - the quoted module specifier
const Query = `
(import_statement
  (import_clause)? @import.clause
  source: (string) @import.source
) @import.statement
`
