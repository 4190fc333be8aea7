package compiler

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/vuestories/pkg/errs"
	"github.com/gnana997/vuestories/pkg/jsast"
	"github.com/gnana997/vuestories/pkg/parser/queries"
	"github.com/gnana997/vuestories/pkg/parser/queries/macros"
	"github.com/gnana997/vuestories/pkg/sfc"
	"github.com/gnana997/vuestories/pkg/textutil"
)

// importInfo records where a local import binding comes from.
type importInfo struct {
	source   string
	imported string
	isType   bool
}

// setupCompiler holds the state of one <script setup> compilation.
type setupCompiler struct {
	qm   *queries.QueryManager
	desc *sfc.Descriptor
	lang string
	prog *jsast.Program

	scope  *typeScope
	macros map[span]string

	imports  map[string]importInfo
	bindings BindingMetadata
	helpers  []string

	hoisted []string
	body    []string

	propsExpr    string
	emitsExpr    string
	modelProps   []string
	modelEmits   []string
	options      []string
	exposeCalled bool
	usesEmit     bool
	async        bool
}

func (c *setupCompiler) helper(name string) string {
	c.helpers = appendUnique(c.helpers, name)
	return "_" + name
}

func (c *setupCompiler) isTS() bool {
	return c.lang == "ts" || c.lang == "tsx"
}

func compileSetup(qm *queries.QueryManager, desc *sfc.Descriptor) (*ScriptResult, error) {
	lang := desc.ScriptLang()
	prog, err := jsast.Parse(qm.Parser(), desc.ScriptSetup.Content, lang)
	if err != nil {
		return nil, fmt.Errorf("failed to parse <script setup>: %w", err)
	}
	defer prog.Close()

	c := &setupCompiler{
		qm:       qm,
		desc:     desc,
		lang:     lang,
		prog:     prog,
		imports:  make(map[string]importInfo),
		bindings: make(BindingMetadata),
		macros:   make(map[span]string),
	}

	matches, err := qm.Run(prog.Tree, prog.Lang, queries.QueryTypeMacros, prog.Src)
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		name, call := m.Capture("name"), m.Capture("call")
		if name != nil && call != nil && macros.Names[name.Text] {
			c.macros[nodeSpan(call.Node)] = name.Text
		}
	}

	stmts := prog.Statements()
	c.scope = newTypeScope(stmts, prog.Src)

	var plain string
	if desc.Script != nil {
		plain, err = c.plainScript()
		if err != nil {
			return nil, err
		}
	}

	for _, stmt := range stmts {
		if err := c.statement(stmt); err != nil {
			return nil, err
		}
	}

	return &ScriptResult{
		Content:  c.render(plain),
		Lang:     lang,
		Bindings: c.bindings,
		Setup:    true,
	}, nil
}

// plainScript prepares a <script> block that sits next to <script setup>:
// its default export becomes __default__ and its declarations are
// registered as bindings.
func (c *setupCompiler) plainScript() (string, error) {
	script := c.desc.Script
	content, err := jsast.RewriteDefault(c.qm.Parser(), script.Content, c.lang, "__default__")
	if err != nil {
		return "", fmt.Errorf("failed to rewrite <script> default export: %w", err)
	}

	prog, err := jsast.Parse(c.qm.Parser(), script.Content, c.lang)
	if err != nil {
		return "", err
	}
	defer prog.Close()

	for _, stmt := range prog.Statements() {
		switch stmt.Kind() {
		case "import_statement":
			c.registerImport(stmt, prog.Src)
		case "lexical_declaration", "variable_declaration":
			c.registerDeclaration(stmt, prog.Src)
		case "function_declaration", "generator_function_declaration", "class_declaration":
			if name := stmt.ChildByFieldName("name"); name != nil {
				c.bindings[name.Utf8Text(prog.Src)] = BindingSetupConst
			}
		}
	}
	return content, nil
}

func (c *setupCompiler) text(n *ts.Node) string {
	return c.prog.Text(n)
}

func (c *setupCompiler) macroOf(n *ts.Node) string {
	n = unwrapTS(n)
	if n == nil || n.Kind() != "call_expression" {
		return ""
	}
	return c.macros[nodeSpan(n)]
}

type span struct{ start, end uint }

func nodeSpan(n *ts.Node) span {
	return span{n.StartByte(), n.EndByte()}
}

func (c *setupCompiler) statement(stmt *ts.Node) error {
	src := c.prog.Src
	switch stmt.Kind() {
	case "import_statement":
		c.registerImport(stmt, src)
		c.hoisted = append(c.hoisted, c.text(stmt))
		return nil

	case "interface_declaration", "type_alias_declaration", "ambient_declaration":
		c.hoisted = append(c.hoisted, c.text(stmt))
		return nil

	case "export_statement":
		decl := stmt.ChildByFieldName("declaration")
		if decl != nil && (decl.Kind() == "interface_declaration" || decl.Kind() == "type_alias_declaration") {
			c.hoisted = append(c.hoisted, c.text(stmt))
			return nil
		}
		return &errs.UnsupportedError{Construct: "<script setup> cannot contain ES module exports", Offset: int(stmt.StartByte())}

	case "expression_statement":
		expr := jsast.FirstNamedChild(stmt)
		if name := c.macroOf(expr); name != "" {
			return c.macroStatement(name, unwrapTS(expr))
		}

	case "lexical_declaration", "variable_declaration":
		return c.declaration(stmt)

	case "function_declaration", "generator_function_declaration", "class_declaration", "abstract_class_declaration":
		if name := stmt.ChildByFieldName("name"); name != nil {
			c.bindings[c.text(name)] = BindingSetupConst
		}
	}

	if hasTopLevelAwait(stmt) {
		c.async = true
	}
	c.body = append(c.body, c.text(stmt))
	return nil
}

func (c *setupCompiler) macroStatement(name string, call *ts.Node) error {
	switch name {
	case "defineProps", "withDefaults":
		return c.defineProps(call)
	case "defineEmits":
		return c.defineEmits(call)
	case "defineModel":
		c.defineModel(call)
	case "defineExpose":
		c.exposeCalled = true
		c.body = append(c.body, "__expose("+strings.Join(argTexts(call, c.prog.Src), ", ")+")")
	case "defineOptions":
		args := jsast.Arguments(call)
		if len(args) > 0 && args[0].Kind() == "object" {
			c.options = append(c.options, objectInner(args[0], c.prog.Src))
		}
	}
	// defineSlots and defineMeta have no runtime effect
	return nil
}

func (c *setupCompiler) declaration(stmt *ts.Node) error {
	src := c.prog.Src
	kind := jsast.DeclarationKind(stmt, src)
	decls := jsast.Declarators(stmt)

	hasMacro := false
	for _, d := range decls {
		if c.macroOf(d.ChildByFieldName("value")) != "" {
			hasMacro = true
			break
		}
	}
	if !hasMacro {
		c.registerDeclaration(stmt, src)
		if hasTopLevelAwait(stmt) {
			c.async = true
		}
		c.body = append(c.body, c.text(stmt))
		return nil
	}

	for _, d := range decls {
		nameNode := d.ChildByFieldName("name")
		value := d.ChildByFieldName("value")
		macro := c.macroOf(value)
		if macro == "" {
			c.registerDeclarator(kind, d, src)
			c.body = append(c.body, kind+" "+c.text(d))
			continue
		}
		call := unwrapTS(value)
		if nameNode.Kind() != "identifier" {
			return &errs.UnsupportedError{Construct: "destructured " + macro, Offset: int(d.StartByte())}
		}
		name := c.text(nameNode)

		switch macro {
		case "defineProps", "withDefaults":
			if err := c.defineProps(call); err != nil {
				return err
			}
			c.bindings[name] = BindingSetupReactiveConst
			c.body = append(c.body, fmt.Sprintf("%s %s = __props", kind, name))
		case "defineEmits":
			if err := c.defineEmits(call); err != nil {
				return err
			}
			c.bindings[name] = BindingSetupConst
			c.body = append(c.body, fmt.Sprintf("%s %s = __emit", kind, name))
		case "defineModel":
			model := c.defineModel(call)
			c.bindings[name] = BindingSetupRef
			c.body = append(c.body, fmt.Sprintf("%s %s = %s(__props, %s)", kind, name, c.helper("useModel"), jsString(model)))
		case "defineSlots":
			c.bindings[name] = BindingSetupConst
			c.body = append(c.body, fmt.Sprintf("%s %s = %s()", kind, name, c.helper("useSlots")))
		case "defineExpose", "defineOptions", "defineMeta":
			if err := c.macroStatement(macro, call); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *setupCompiler) defineProps(call *ts.Node) error {
	src := c.prog.Src
	defaults := map[string]string{}
	if jsast.Callee(call, src) == "withDefaults" {
		args := jsast.Arguments(call)
		if len(args) == 0 || c.macroOf(args[0]) != "defineProps" {
			return &errs.UnsupportedError{Construct: "withDefaults without defineProps", Offset: int(call.StartByte())}
		}
		if len(args) > 1 && args[1].Kind() == "object" {
			for _, m := range jsast.ObjectMembers(args[1], src) {
				if m.Value != nil {
					defaults[m.Key] = c.text(m.Value)
				} else if m.Node.Kind() == "method_definition" {
					defaults[m.Key] = c.text(m.Node)
				}
			}
		}
		call = unwrapTS(args[0])
	}

	if typeArgs := call.ChildByFieldName("type_arguments"); typeArgs != nil {
		expr, names, err := c.scope.runtimeProps(jsast.FirstNamedChild(typeArgs), defaults)
		if err != nil {
			return &errs.UnsupportedError{Construct: err.Error(), Offset: int(call.StartByte())}
		}
		for _, n := range names {
			c.bindings[n] = BindingProps
		}
		c.propsExpr = expr
		return nil
	}

	args := jsast.Arguments(call)
	if len(args) == 0 {
		c.propsExpr = "{}"
		return nil
	}
	c.propsExpr = c.text(args[0])
	switch args[0].Kind() {
	case "array":
		for _, el := range jsast.NamedChildren(args[0]) {
			if v, ok := jsast.StringValue(el, src); ok {
				c.bindings[v] = BindingProps
			}
		}
	case "object":
		for _, m := range jsast.ObjectMembers(args[0], src) {
			if m.Key != "" {
				c.bindings[m.Key] = BindingProps
			}
		}
	}
	return nil
}

func (c *setupCompiler) defineEmits(call *ts.Node) error {
	c.usesEmit = true
	if typeArgs := call.ChildByFieldName("type_arguments"); typeArgs != nil {
		events, err := c.scope.runtimeEmits(jsast.FirstNamedChild(typeArgs))
		if err != nil {
			return &errs.UnsupportedError{Construct: err.Error(), Offset: int(call.StartByte())}
		}
		quoted := make([]string, len(events))
		for i, e := range events {
			quoted[i] = jsString(e)
		}
		c.emitsExpr = "[" + strings.Join(quoted, ", ") + "]"
		return nil
	}
	if args := jsast.Arguments(call); len(args) > 0 {
		c.emitsExpr = c.text(args[0])
	} else {
		c.emitsExpr = "[]"
	}
	return nil
}

// defineModel registers the model prop and its update event and returns
// the model name.
func (c *setupCompiler) defineModel(call *ts.Node) string {
	src := c.prog.Src
	name := "modelValue"
	options := ""
	for i, arg := range jsast.Arguments(call) {
		if v, ok := jsast.StringValue(arg, src); ok && i == 0 {
			name = v
			continue
		}
		if arg.Kind() == "object" {
			options = objectInner(arg, src)
		}
	}

	var entries []string
	if typeArgs := call.ChildByFieldName("type_arguments"); typeArgs != nil {
		entries = append(entries, "type: "+formatRuntimeType(c.scope.runtimeTypes(jsast.FirstNamedChild(typeArgs), 0)))
	}
	if options != "" {
		entries = append(entries, options)
	}
	prop := "{}"
	if len(entries) > 0 {
		prop = "{ " + strings.Join(entries, ", ") + " }"
	}

	modifiers := name + "Modifiers"
	if name == "modelValue" {
		modifiers = "modelModifiers"
	}
	c.modelProps = append(c.modelProps,
		fmt.Sprintf("    %s: %s", jsString(name), prop),
		fmt.Sprintf("    %s: {}", jsString(modifiers)))
	c.modelEmits = append(c.modelEmits, jsString("update:"+name))
	c.bindings[name] = BindingProps
	c.usesEmit = true
	return name
}

func (c *setupCompiler) registerImport(stmt *ts.Node, src []byte) {
	text := stmt.Utf8Text(src)
	if strings.HasPrefix(strings.TrimPrefix(text, "import"), " type ") {
		return
	}
	sourceNode := stmt.ChildByFieldName("source")
	source, _ := jsast.StringValue(sourceNode, src)

	clause := jsast.ChildOfKind(stmt, "import_clause")
	for _, child := range jsast.NamedChildren(clause) {
		switch child.Kind() {
		case "identifier":
			c.addImport(child.Utf8Text(src), importInfo{source: source, imported: "default"})
		case "namespace_import":
			if id := jsast.FirstNamedChild(child); id != nil {
				c.addImport(id.Utf8Text(src), importInfo{source: source, imported: "*"})
			}
		case "named_imports":
			for _, spec := range jsast.NamedChildren(child) {
				if spec.Kind() != "import_specifier" {
					continue
				}
				name := spec.ChildByFieldName("name")
				local := name
				if alias := spec.ChildByFieldName("alias"); alias != nil {
					local = alias
				}
				if name == nil || local == nil {
					continue
				}
				isType := strings.HasPrefix(strings.TrimSpace(spec.Utf8Text(src)), "type ")
				c.addImport(local.Utf8Text(src), importInfo{source: source, imported: name.Utf8Text(src), isType: isType})
			}
		}
	}
}

func (c *setupCompiler) addImport(local string, info importInfo) {
	c.imports[local] = info
	if info.isType {
		return
	}
	if info.source == "vue" && macros.Names[info.imported] {
		return
	}
	switch {
	case info.source == "vue", info.imported == "*",
		info.imported == "default" && strings.HasSuffix(info.source, ".vue"):
		c.bindings[local] = BindingSetupConst
	default:
		c.bindings[local] = BindingSetupMaybeRef
	}
}

func (c *setupCompiler) registerDeclaration(stmt *ts.Node, src []byte) {
	kind := jsast.DeclarationKind(stmt, src)
	for _, d := range jsast.Declarators(stmt) {
		c.registerDeclarator(kind, d, src)
	}
}

func (c *setupCompiler) registerDeclarator(kind string, d *ts.Node, src []byte) {
	nameNode := d.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	if nameNode.Kind() != "identifier" {
		t := BindingSetupMaybeRef
		if kind != "const" {
			t = BindingSetupLet
		}
		for _, n := range jsast.PatternNames(nameNode, src) {
			c.bindings[n] = t
		}
		return
	}
	name := nameNode.Utf8Text(src)
	if kind != "const" {
		c.bindings[name] = BindingSetupLet
		return
	}
	c.bindings[name] = c.classifyConst(d.ChildByFieldName("value"), src)
}

// classifyConst applies Vue's rules for a const initializer.
func (c *setupCompiler) classifyConst(value *ts.Node, src []byte) BindingType {
	value = unwrapTS(value)
	if value == nil {
		return BindingSetupMaybeRef
	}
	if isLiteral(value, src) {
		return BindingLiteralConst
	}
	if value.Kind() == "call_expression" {
		switch c.vueImported(jsast.Callee(value, src)) {
		case "ref", "shallowRef", "customRef", "toRef", "computed":
			return BindingSetupRef
		case "reactive", "shallowReactive":
			return BindingSetupReactiveConst
		}
		return BindingSetupMaybeRef
	}
	if canNeverBeRef(value, src) {
		return BindingSetupConst
	}
	return BindingSetupMaybeRef
}

// vueImported resolves a local name to the name imported from vue. Names not
// imported at all are returned unchanged to support auto-imports.
func (c *setupCompiler) vueImported(local string) string {
	if info, ok := c.imports[local]; ok {
		if info.source == "vue" {
			return info.imported
		}
		return ""
	}
	return local
}

func isLiteral(n *ts.Node, src []byte) bool {
	switch n.Kind() {
	case "string", "number", "true", "false", "null", "regex":
		return true
	case "template_string":
		_, ok := jsast.StringValue(n, src)
		return ok
	}
	return false
}

func canNeverBeRef(n *ts.Node, src []byte) bool {
	switch n.Kind() {
	case "unary_expression", "binary_expression", "array", "object", "function_expression", "function",
		"arrow_function", "update_expression", "class", "template_string", "generator_function":
		return true
	case "sequence_expression":
		parts := jsast.FlattenSequence(n)
		return canNeverBeRef(unwrapTS(parts[len(parts)-1]), src)
	}
	return isLiteral(n, src)
}

// unwrapTS strips parentheses and TypeScript-only wrappers.
func unwrapTS(n *ts.Node) *ts.Node {
	for n != nil {
		switch n.Kind() {
		case "parenthesized_expression", "as_expression", "satisfies_expression", "non_null_expression", "type_assertion":
			n = jsast.FirstNamedChild(n)
			if n != nil && n.Kind() == "type_arguments" {
				return nil
			}
		default:
			return n
		}
	}
	return nil
}

func hasTopLevelAwait(stmt *ts.Node) bool {
	found := false
	jsast.Walk(stmt, func(n *ts.Node) bool {
		switch n.Kind() {
		case "await_expression":
			found = true
			return false
		case "function_declaration", "function_expression", "function", "arrow_function", "method_definition", "class_body":
			return false
		}
		return !found
	})
	return found
}

func argTexts(call *ts.Node, src []byte) []string {
	var out []string
	for _, a := range jsast.Arguments(call) {
		out = append(out, a.Utf8Text(src))
	}
	return out
}

// objectInner returns the text of an object literal without its braces.
func objectInner(obj *ts.Node, src []byte) string {
	text := obj.Utf8Text(src)
	return strings.TrimSpace(text[1 : len(text)-1])
}

// returned lists the bindings exposed to the template.
func (c *setupCompiler) returned() []string {
	var names []string
	for name, t := range c.bindings {
		if t == BindingProps || t == BindingPropsAliased {
			continue
		}
		if _, ok := c.imports[name]; ok && c.isTS() && !c.usedInTemplate(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// usedInTemplate reports whether an imported name appears in the template,
// either as written or in kebab-case.
func (c *setupCompiler) usedInTemplate(name string) bool {
	if c.desc.Template == nil {
		return true
	}
	content := c.desc.Template.Content
	for _, form := range []string{name, textutil.PascalToKebab(name)} {
		re := regexp.MustCompile(`(^|[^\w$])` + regexp.QuoteMeta(form) + `($|[^\w$-])`)
		if re.MatchString(content) {
			return true
		}
	}
	return false
}

func (c *setupCompiler) render(plain string) string {
	var b strings.Builder

	propsExpr, emitsExpr := c.propsExpr, c.emitsExpr
	if len(c.modelProps) > 0 {
		models := "{\n" + strings.Join(c.modelProps, ",\n") + "\n  }"
		if propsExpr == "" {
			propsExpr = models
		} else {
			propsExpr = fmt.Sprintf("/*#__PURE__*/%s(%s, %s)", c.helper("mergeModels"), propsExpr, models)
		}
		events := "[" + strings.Join(c.modelEmits, ", ") + "]"
		if emitsExpr == "" {
			emitsExpr = events
		} else {
			emitsExpr = fmt.Sprintf("/*#__PURE__*/%s(%s, %s)", c.helper("mergeModels"), emitsExpr, events)
		}
	}
	if c.isTS() {
		c.helper("defineComponent")
	}

	if len(c.helpers) > 0 {
		specs := make([]string, len(c.helpers))
		for i, h := range c.helpers {
			specs[i] = h + " as _" + h
		}
		fmt.Fprintf(&b, "import { %s } from 'vue'\n", strings.Join(specs, ", "))
	}
	if plain != "" {
		b.WriteString(strings.TrimSpace(plain))
		b.WriteString("\n")
	}
	for _, h := range c.hoisted {
		b.WriteString(h)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if c.isTS() {
		b.WriteString("export default /*#__PURE__*/_defineComponent({\n")
	} else {
		b.WriteString("export default {\n")
	}
	if plain != "" {
		b.WriteString("  ...__default__,\n")
	}
	fmt.Fprintf(&b, "  __name: %s,\n", singleQuoted(c.desc.ComponentName()))
	if propsExpr != "" {
		fmt.Fprintf(&b, "  props: %s,\n", propsExpr)
	}
	if emitsExpr != "" {
		fmt.Fprintf(&b, "  emits: %s,\n", emitsExpr)
	}
	for _, opt := range c.options {
		fmt.Fprintf(&b, "  %s,\n", opt)
	}

	ctx := "expose: __expose"
	if c.usesEmit {
		ctx += ", emit: __emit"
	}
	propsParam := "__props"
	if c.isTS() {
		propsParam = "__props: any"
	}
	asyncKw := ""
	if c.async {
		asyncKw = "async "
	}
	fmt.Fprintf(&b, "  %ssetup(%s, { %s }) {\n", asyncKw, propsParam, ctx)
	if !c.exposeCalled {
		b.WriteString("  __expose();\n")
	}
	b.WriteString("\n")
	for _, stmt := range c.body {
		b.WriteString(stmt)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "const __returned__ = { %s }\n", strings.Join(c.returned(), ", "))
	b.WriteString("Object.defineProperty(__returned__, '__isScriptSetup', { enumerable: false, value: true })\n")
	b.WriteString("return __returned__\n")
	b.WriteString("}\n\n")
	if c.isTS() {
		b.WriteString("})")
	} else {
		b.WriteString("}")
	}
	return b.String()
}

func singleQuoted(s string) string {
	return "'" + strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), "'", `\'`) + "'"
}
