package compiler

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/gnana997/vuestories/pkg/errs"
	"github.com/gnana997/vuestories/pkg/parser/queries"
	"github.com/gnana997/vuestories/pkg/sfc"
	"github.com/gnana997/vuestories/pkg/textutil"
)

// Patch flags understood by the Vue runtime.
const (
	flagText           = 1
	flagClass          = 1 << 1
	flagStyle          = 1 << 2
	flagProps          = 1 << 3
	flagFullProps      = 1 << 4
	flagStableFragment = 1 << 6
	flagDynamicSlots   = 1 << 10
)

var flagNames = []struct {
	flag int
	name string
}{
	{flagText, "TEXT"},
	{flagClass, "CLASS"},
	{flagStyle, "STYLE"},
	{flagProps, "PROPS"},
	{flagFullProps, "FULL_PROPS"},
	{flagStableFragment, "STABLE_FRAGMENT"},
	{flagDynamicSlots, "DYNAMIC_SLOTS"},
}

func formatFlag(flag int) string {
	var names []string
	for _, f := range flagNames {
		if flag&f.flag != 0 {
			names = append(names, f.name)
		}
	}
	return fmt.Sprintf("%d /* %s */", flag, strings.Join(names, ", "))
}

type tagKind int

const (
	tagNative tagKind = iota
	tagComponent
	// tagBuiltinArray components take a children array instead of slots.
	tagBuiltinArray
)

// builtinComponents maps the accepted spellings of Vue's built-in
// components to their runtime export.
var builtinComponents = map[string]string{
	"Transition": "Transition", "transition": "Transition",
	"TransitionGroup": "TransitionGroup", "transition-group": "TransitionGroup",
	"KeepAlive": "KeepAlive", "keep-alive": "KeepAlive",
	"Teleport": "Teleport", "teleport": "Teleport",
}

var nativeTags = func() map[string]bool {
	list := "html,body,base,head,link,meta,style,title,address,article,aside,footer," +
		"header,hgroup,h1,h2,h3,h4,h5,h6,nav,section,div,dd,dl,dt,figcaption," +
		"figure,picture,hr,img,li,main,ol,p,pre,ul,a,b,abbr,bdi,bdo,br,cite,code," +
		"data,dfn,em,i,kbd,mark,q,rp,rt,ruby,s,samp,small,span,strong,sub,sup," +
		"time,u,var,wbr,area,audio,map,track,video,embed,object,param,source," +
		"canvas,script,noscript,del,ins,caption,col,colgroup,table,thead,tbody,td," +
		"th,tr,button,datalist,fieldset,form,input,label,legend,meter,optgroup," +
		"option,output,progress,select,textarea,details,dialog,menu," +
		"summary,template,blockquote,iframe,tfoot,search," +
		"svg,animate,animateMotion,animateTransform,circle,clipPath,defs,desc," +
		"ellipse,feBlend,feColorMatrix,feComponentTransfer,feComposite," +
		"feConvolveMatrix,feDiffuseLighting,feDisplacementMap,feFlood,feGaussianBlur," +
		"feImage,feMerge,feMorphology,feOffset,feSpecularLighting,feTile,feTurbulence," +
		"filter,foreignObject,g,image,line,linearGradient,marker,mask,metadata,mpath," +
		"path,pattern,polygon,polyline,radialGradient,rect,set,stop,switch,symbol," +
		"text,textPath,tspan,use,view,math"
	tags := make(map[string]bool)
	for _, t := range strings.Split(list, ",") {
		tags[t] = true
	}
	return tags
}()

// templateGen generates a render function module from template nodes.
type templateGen struct {
	qm       *queries.QueryManager
	bindings BindingMetadata

	helpers   []string
	helperSet map[string]bool

	components   []string
	componentSet map[string]bool

	// scopes holds the names bound by enclosing scoped slots.
	scopes []*exprScope
}

func newTemplateGen(qm *queries.QueryManager, bindings BindingMetadata) *templateGen {
	if bindings == nil {
		bindings = make(BindingMetadata)
	}
	return &templateGen{
		qm:           qm,
		bindings:     bindings,
		helperSet:    make(map[string]bool),
		componentSet: make(map[string]bool),
	}
}

func (g *templateGen) helper(name string) string {
	if !g.helperSet[name] {
		g.helperSet[name] = true
		g.helpers = append(g.helpers, name)
	}
	return "_" + name
}

func (g *templateGen) scope() *exprScope {
	if len(g.scopes) == 0 {
		return nil
	}
	return g.scopes[len(g.scopes)-1]
}

func (g *templateGen) generate(nodes []sfc.Node) (string, error) {
	children, err := g.condense(nodes)
	if err != nil {
		return "", err
	}

	var body string
	switch {
	case len(children) == 0:
		body = "null"
	case len(children) == 1 && children[0].el != nil:
		body, err = g.vnode(children[0].el, 1, true)
	case len(children) == 1:
		body, _, err = g.textExpr(children[0].text)
	default:
		var items []string
		items, err = g.childList(children, 1)
		body = fmt.Sprintf("(%s(), %s(%s, null, %s, %s))",
			g.helper("openBlock"), g.helper("createElementBlock"), g.helper("Fragment"),
			array(items, 1), formatFlag(flagStableFragment))
	}
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if len(g.helpers) > 0 {
		specs := make([]string, len(g.helpers))
		for i, h := range g.helpers {
			specs[i] = h + " as _" + h
		}
		fmt.Fprintf(&b, "import { %s } from \"vue\"\n\n", strings.Join(specs, ", "))
	}
	b.WriteString("export function render(_ctx, _cache, $props, $setup, $data, $options) {\n")
	for _, tag := range g.components {
		fmt.Fprintf(&b, "  const %s = _resolveComponent(%s)\n", componentVar(tag), jsString(tag))
	}
	if len(g.components) > 0 {
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "  return %s\n}\n", body)
	return b.String(), nil
}

// textPart is a static run or an interpolation of a text node.
type textPart struct {
	value  string
	exp    bool
	offset int
}

type textNode struct {
	parts []textPart
}

// child is a template child after whitespace condensing.
type child struct {
	el   *sfc.Element
	text *textNode
}

var whitespaceRun = regexp.MustCompile(`[\t\r\n\f ]+`)

// condense drops comments and applies Vue's "condense" whitespace strategy.
func (g *templateGen) condense(nodes []sfc.Node) ([]child, error) {
	var out []child
	for i, n := range nodes {
		switch n := n.(type) {
		case *sfc.Comment:
			continue
		case *sfc.Element:
			out = append(out, child{el: n})
		case *sfc.Text:
			parts := splitInterpolation(n.Content, n.Start)
			if len(parts) == 1 && !parts[0].exp && strings.TrimSpace(parts[0].value) == "" {
				if i == 0 || i == len(nodes)-1 {
					continue
				}
				prev, next := nodes[i-1], nodes[i+1]
				if prev.Type() == sfc.NodeComment || next.Type() == sfc.NodeComment {
					continue
				}
				if prev.Type() == sfc.NodeElement && next.Type() == sfc.NodeElement && strings.ContainsAny(n.Content, "\r\n") {
					continue
				}
				parts[0].value = " "
			} else {
				for j := range parts {
					if !parts[j].exp {
						parts[j].value = html.UnescapeString(whitespaceRun.ReplaceAllString(parts[j].value, " "))
					}
				}
			}
			out = append(out, child{text: &textNode{parts: parts}})
		}
	}
	return out, nil
}

func splitInterpolation(content string, base int) []textPart {
	var parts []textPart
	pos := 0
	for pos < len(content) {
		open := strings.Index(content[pos:], "{{")
		if open < 0 {
			break
		}
		open += pos
		closing := strings.Index(content[open+2:], "}}")
		if closing < 0 {
			break
		}
		closing += open + 2
		if open > pos {
			parts = append(parts, textPart{value: content[pos:open], offset: base + pos})
		}
		parts = append(parts, textPart{value: strings.TrimSpace(content[open+2 : closing]), exp: true, offset: base + open + 2})
		pos = closing + 2
	}
	if pos < len(content) || len(parts) == 0 {
		parts = append(parts, textPart{value: content[pos:], offset: base + pos})
	}
	return parts
}

// textExpr renders a text node as a string expression. dynamic reports
// whether it contains interpolations.
func (g *templateGen) textExpr(t *textNode) (string, bool, error) {
	var segs []string
	dynamic := false
	for _, p := range t.parts {
		if !p.exp {
			if p.value != "" {
				segs = append(segs, jsString(p.value))
			}
			continue
		}
		r, err := g.expression(p.value, p.offset)
		if err != nil {
			return "", false, err
		}
		segs = append(segs, g.helper("toDisplayString")+"("+r.code+")")
		dynamic = true
	}
	if len(segs) == 0 {
		return `""`, false, nil
	}
	return strings.Join(segs, " + "), dynamic, nil
}

func (g *templateGen) childList(children []child, ind int) ([]string, error) {
	items := make([]string, 0, len(children))
	for _, c := range children {
		if c.el != nil {
			code, err := g.vnode(c.el, ind+1, false)
			if err != nil {
				return nil, err
			}
			items = append(items, code)
			continue
		}
		text, dynamic, err := g.textExpr(c.text)
		if err != nil {
			return nil, err
		}
		if dynamic {
			text += ", " + formatFlag(flagText)
		}
		items = append(items, g.helper("createTextVNode")+"("+text+")")
	}
	return items, nil
}

// vnode renders one element. A block is the root of the render function.
func (g *templateGen) vnode(el *sfc.Element, ind int, block bool) (string, error) {
	switch el.Tag {
	case "slot":
		return g.renderSlot(el, ind)
	case "template":
		return "", &errs.UnsupportedError{Construct: "<template> element", Offset: el.Start}
	}

	kind, target, err := g.resolveTag(el)
	if err != nil {
		return "", err
	}
	props, flag, dynamic, err := g.props(el, ind, kind != tagNative)
	if err != nil {
		return "", err
	}

	var children string
	switch kind {
	case tagComponent:
		children, err = g.slots(el, ind)
	default:
		var textFlag int
		children, textFlag, err = g.elementChildren(el, ind)
		flag |= textFlag
	}
	if err != nil {
		return "", err
	}

	var fn string
	switch {
	case kind == tagNative && block:
		fn = g.helper("createElementBlock")
	case kind == tagNative:
		fn = g.helper("createElementVNode")
	case block:
		fn = g.helper("createBlock")
	default:
		fn = g.helper("createVNode")
	}

	args := []string{target, props, children, "", ""}
	if flag != 0 {
		args[3] = formatFlag(flag)
	}
	if len(dynamic) > 0 {
		args[4] = stringList(dynamic)
	}
	for len(args) > 1 && args[len(args)-1] == "" {
		args = args[:len(args)-1]
	}
	for i := range args {
		if args[i] == "" {
			args[i] = "null"
		}
	}

	call := fn + "(" + strings.Join(args, ", ") + ")"
	if block {
		call = "(" + g.helper("openBlock") + "(), " + call + ")"
	}
	return call, nil
}

func (g *templateGen) resolveTag(el *sfc.Element) (tagKind, string, error) {
	tag := el.Tag
	if tag == "component" {
		attr, bound := el.Prop("is")
		if attr == nil {
			return 0, "", &errs.UnsupportedError{Construct: "<component> without is", Offset: el.Start}
		}
		value := jsString(attr.Value)
		if bound {
			r, err := g.expression(attr.Value, attr.ValueStart)
			if err != nil {
				return 0, "", err
			}
			value = r.code
		}
		return tagComponent, g.helper("resolveDynamicComponent") + "(" + value + ")", nil
	}
	if name, ok := builtinComponents[tag]; ok {
		kind := tagComponent
		if name == "KeepAlive" || name == "Teleport" {
			kind = tagBuiltinArray
		}
		return kind, g.helper(name), nil
	}
	if nativeTags[tag] {
		return tagNative, jsString(tag), nil
	}
	if ref, ok := g.setupComponent(tag); ok {
		return tagComponent, ref, nil
	}

	g.helper("resolveComponent")
	if !g.componentSet[tag] {
		g.componentSet[tag] = true
		g.components = append(g.components, tag)
	}
	return tagComponent, componentVar(tag), nil
}

// setupComponent resolves a tag against the script bindings, trying the tag
// as written, camelized and PascalCased. Namespaced tags (Foo.Bar) resolve
// their first segment.
func (g *templateGen) setupComponent(tag string) (string, bool) {
	head, rest := tag, ""
	if dot := strings.IndexByte(tag, '.'); dot > 0 {
		head, rest = tag[:dot], tag[dot:]
	}
	camel := textutil.ToCamelCase(head)
	for _, name := range []string{head, camel, textutil.UpperFirst(camel)} {
		if t, ok := g.bindings[name]; ok && t.IsSetup() {
			return "$setup[" + jsString(name) + "]" + rest, true
		}
	}
	return "", false
}

func componentVar(tag string) string {
	var b strings.Builder
	b.WriteString("_component_")
	for _, r := range tag {
		switch {
		case r == '-':
			b.WriteByte('_')
		case r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteString(strconv.Itoa(int(r)))
		}
	}
	return b.String()
}

// elementChildren renders the children argument of a native element: a
// single text child is passed as a string, anything else as an array.
func (g *templateGen) elementChildren(el *sfc.Element, ind int) (string, int, error) {
	children, err := g.condense(el.Children)
	if err != nil {
		return "", 0, err
	}
	if len(children) == 0 {
		return "", 0, nil
	}
	if len(children) == 1 && children[0].text != nil {
		text, dynamic, err := g.textExpr(children[0].text)
		if err != nil {
			return "", 0, err
		}
		if dynamic {
			return text, flagText, nil
		}
		return text, 0, nil
	}
	items, err := g.childList(children, ind)
	if err != nil {
		return "", 0, err
	}
	return array(items, ind), 0, nil
}

type slotDef struct {
	name   string
	params string
	offset int
	nodes  []sfc.Node
}

func slotDirective(el *sfc.Element) (sfc.Directive, *sfc.Attr, bool) {
	for i := range el.Attrs {
		if d, ok := el.Attrs[i].Directive(); ok && d.Name == "slot" {
			return d, &el.Attrs[i], true
		}
	}
	return sfc.Directive{}, nil, false
}

// slots renders the slots object of a component.
func (g *templateGen) slots(el *sfc.Element, ind int) (string, error) {
	var defs []slotDef

	if d, attr, ok := slotDirective(el); ok {
		defs = append(defs, slotDef{name: slotName(d.Arg), params: d.Exp, offset: attr.ValueStart, nodes: el.Children})
	} else {
		var implicit []sfc.Node
		for _, c := range el.Children {
			if t, ok := c.(*sfc.Element); ok && t.Tag == "template" {
				if d, attr, ok := slotDirective(t); ok {
					if strings.HasPrefix(d.Arg, "[") {
						return "", &errs.UnsupportedError{Construct: "dynamic slot name", Offset: attr.Start}
					}
					defs = append(defs, slotDef{name: slotName(d.Arg), params: d.Exp, offset: attr.ValueStart, nodes: t.Children})
					continue
				}
			}
			implicit = append(implicit, c)
		}
		content, err := g.condense(implicit)
		if err != nil {
			return "", err
		}
		if hasContent(content) {
			defs = append(defs, slotDef{name: "default", nodes: implicit})
		}
	}
	if len(defs) == 0 {
		return "", nil
	}

	entries := make([]string, 0, len(defs)+1)
	for _, def := range defs {
		fn, err := g.slotFn(def, ind+1)
		if err != nil {
			return "", err
		}
		entries = append(entries, objectKey(def.name)+": "+fn)
	}
	entries = append(entries, "_: 1 /* STABLE */")
	return object(entries, ind), nil
}

func slotName(arg string) string {
	if arg == "" {
		return "default"
	}
	return arg
}

func hasContent(children []child) bool {
	for _, c := range children {
		if c.el != nil {
			return true
		}
		for _, p := range c.text.parts {
			if p.exp || strings.TrimSpace(p.value) != "" {
				return true
			}
		}
	}
	return false
}

func (g *templateGen) slotFn(def slotDef, ind int) (string, error) {
	names, err := g.paramNames(def.params, def.offset)
	if err != nil {
		return "", err
	}
	g.scopes = append(g.scopes, g.scope().child(names...))
	defer func() { g.scopes = g.scopes[:len(g.scopes)-1] }()

	children, err := g.condense(def.nodes)
	if err != nil {
		return "", err
	}
	items, err := g.childList(children, ind)
	if err != nil {
		return "", err
	}
	params := strings.TrimSpace(def.params)
	return g.helper("withCtx") + "((" + params + ") => " + array(items, ind) + ")", nil
}

// renderSlot renders a <slot> outlet with its fallback content.
func (g *templateGen) renderSlot(el *sfc.Element, ind int) (string, error) {
	name := `"default"`
	outlet := *el
	outlet.Attrs = nil
	for _, a := range el.Attrs {
		if a.Name == "name" {
			name = jsString(a.Value)
			continue
		}
		if d, ok := a.Directive(); ok && d.Name == "bind" && d.Arg == "name" {
			r, err := g.expression(d.Exp, a.ValueStart)
			if err != nil {
				return "", err
			}
			name = r.code
			continue
		}
		outlet.Attrs = append(outlet.Attrs, a)
	}

	args := []string{"_ctx.$slots", name}
	props, _, _, err := g.props(&outlet, ind, false)
	if err != nil {
		return "", err
	}

	children, err := g.condense(el.Children)
	if err != nil {
		return "", err
	}
	if hasContent(children) {
		items, err := g.childList(children, ind)
		if err != nil {
			return "", err
		}
		if props == "" {
			props = "{}"
		}
		args = append(args, props, "() => "+array(items, ind))
	} else if props != "" {
		args = append(args, props)
	}
	return g.helper("renderSlot") + "(" + strings.Join(args, ", ") + ")", nil
}

type propItem struct {
	key    string
	value  string
	spread bool
}

// props renders the props argument of an element along with its patch flag
// and dynamic prop names.
func (g *templateGen) props(el *sfc.Element, ind int, component bool) (string, int, []string, error) {
	var items []propItem
	var flag int
	var dynamic []string
	hasSpread := false

	addDynamic := func(name string) {
		for _, d := range dynamic {
			if d == name {
				return
			}
		}
		dynamic = append(dynamic, name)
	}

	classIdx, styleIdx := -1, -1
	var classParts, styleParts []string
	classDynamic, styleDynamic := false, false
	merge := func(idx *int, key string) {
		if *idx < 0 {
			*idx = len(items)
			items = append(items, propItem{key: key})
		}
	}

	for _, a := range el.Attrs {
		d, isDir := a.Directive()
		if !isDir {
			switch {
			case a.Name == "class":
				merge(&classIdx, "class")
				classParts = append(classParts, jsString(strings.TrimSpace(whitespaceRun.ReplaceAllString(a.Value, " "))))
			case a.Name == "style":
				merge(&styleIdx, "style")
				styleParts = append(styleParts, staticStyle(a.Value))
			case a.Name == "is" && el.Tag == "component":
			default:
				value := `""`
				if a.HasValue {
					value = jsString(html.UnescapeString(a.Value))
				}
				items = append(items, propItem{key: a.Name, value: value})
			}
			continue
		}

		if strings.HasPrefix(d.Arg, "[") {
			return "", 0, nil, &errs.UnsupportedError{Construct: "dynamic argument " + a.Name, Offset: a.Start}
		}

		switch d.Name {
		case "bind":
			if d.Arg == "is" && el.Tag == "component" {
				continue
			}
			r, err := g.expression(d.Exp, a.ValueStart)
			if err != nil {
				return "", 0, nil, err
			}
			static := g.isStatic(d.Exp, r)
			switch d.Arg {
			case "":
				hasSpread = true
				items = append(items, propItem{value: r.code, spread: true})
			case "class":
				merge(&classIdx, "class")
				classParts = append(classParts, r.code)
				classDynamic = classDynamic || !static
			case "style":
				merge(&styleIdx, "style")
				styleParts = append(styleParts, r.code)
				styleDynamic = styleDynamic || !static
			default:
				key := d.Arg
				for _, m := range d.Modifiers {
					if m == "camel" {
						key = textutil.ToCamelCase(key)
					}
				}
				items = append(items, propItem{key: key, value: r.code})
				if !static && key != "key" && key != "ref" {
					flag |= flagProps
					addDynamic(key)
				}
			}

		case "on":
			key := handlerKey(d.Arg, d.Modifiers)
			code, err := g.handler(d.Exp, a.ValueStart, key, d.Modifiers)
			if err != nil {
				return "", 0, nil, err
			}
			items = append(items, propItem{key: key, value: code})
			flag |= flagProps
			addDynamic(key)

		case "model":
			if !component {
				return "", 0, nil, &errs.UnsupportedError{Construct: "v-model on <" + el.Tag + ">", Offset: a.Start}
			}
			r, err := g.expression(d.Exp, a.ValueStart)
			if err != nil {
				return "", 0, nil, err
			}
			prop := d.Arg
			if prop == "" {
				prop = "modelValue"
			}
			event := "onUpdate:" + prop
			items = append(items,
				propItem{key: prop, value: r.code},
				propItem{key: event, value: "$event => ((" + r.code + ") = $event)"},
			)
			if len(d.Modifiers) > 0 {
				mods := make([]string, len(d.Modifiers))
				for i, m := range d.Modifiers {
					mods[i] = objectKey(m) + ": true"
				}
				modKey := prop + "Modifiers"
				if prop == "modelValue" {
					modKey = "modelModifiers"
				}
				items = append(items, propItem{key: modKey, value: "{ " + strings.Join(mods, ", ") + " }"})
			}
			flag |= flagProps
			addDynamic(prop)
			addDynamic(event)

		case "slot":
			if !component {
				return "", 0, nil, &errs.UnsupportedError{Construct: "v-slot on <" + el.Tag + ">", Offset: a.Start}
			}

		case "html", "text":
			if component {
				return "", 0, nil, &errs.UnsupportedError{Construct: "v-" + d.Name + " on a component", Offset: a.Start}
			}
			r, err := g.expression(d.Exp, a.ValueStart)
			if err != nil {
				return "", 0, nil, err
			}
			key, value := "innerHTML", r.code
			if d.Name == "text" {
				key, value = "textContent", g.helper("toDisplayString")+"("+r.code+")"
			}
			items = append(items, propItem{key: key, value: value})
			flag |= flagProps
			addDynamic(key)

		default:
			return "", 0, nil, &errs.UnsupportedError{Construct: "directive " + a.Name, Offset: a.Start}
		}
	}

	if classIdx >= 0 {
		items[classIdx].value = g.styleValue("normalizeClass", classParts, classDynamic)
		if classDynamic {
			if component {
				flag |= flagProps
				addDynamic("class")
			} else {
				flag |= flagClass
			}
		}
	}
	if styleIdx >= 0 {
		items[styleIdx].value = g.styleValue("normalizeStyle", styleParts, styleDynamic)
		if styleDynamic {
			if component {
				flag |= flagProps
				addDynamic("style")
			} else {
				flag |= flagStyle
			}
		}
	}

	if hasSpread {
		flag = flag&^(flagClass|flagStyle|flagProps) | flagFullProps
		dynamic = nil
	}
	return g.propsExpr(items, ind, hasSpread), flag, dynamic, nil
}

// styleValue renders a class or style value from its static and bound
// parts.
func (g *templateGen) styleValue(normalizer string, parts []string, dynamic bool) string {
	if !dynamic && len(parts) == 1 {
		return parts[0]
	}
	if len(parts) == 1 {
		return g.helper(normalizer) + "(" + parts[0] + ")"
	}
	return g.helper(normalizer) + "([" + strings.Join(parts, ", ") + "])"
}

func (g *templateGen) propsExpr(items []propItem, ind int, hasSpread bool) string {
	if len(items) == 0 {
		return ""
	}
	if !hasSpread {
		entries := make([]string, len(items))
		for i, it := range items {
			entries[i] = objectKey(it.key) + ": " + it.value
		}
		return object(entries, ind)
	}

	var segments, entries []string
	flush := func() {
		if len(entries) > 0 {
			segments = append(segments, object(entries, ind))
			entries = nil
		}
	}
	for _, it := range items {
		if it.spread {
			flush()
			segments = append(segments, it.value)
			continue
		}
		entries = append(entries, objectKey(it.key)+": "+it.value)
	}
	flush()

	if len(segments) == 1 {
		return g.helper("normalizeProps") + "(" + g.helper("guardReactiveProps") + "(" + segments[0] + "))"
	}
	return g.helper("mergeProps") + "(" + strings.Join(segments, ", ") + ")"
}

// staticStyle converts a style attribute into an object literal.
func staticStyle(value string) string {
	var entries []string
	for _, decl := range strings.Split(value, ";") {
		colon := strings.IndexByte(decl, ':')
		if colon < 0 {
			continue
		}
		prop := strings.TrimSpace(decl[:colon])
		val := strings.TrimSpace(decl[colon+1:])
		if prop == "" {
			continue
		}
		entries = append(entries, jsString(prop)+":"+jsString(val))
	}
	return "{" + strings.Join(entries, ",") + "}"
}

func pad(n int) string {
	return strings.Repeat("  ", n)
}

func array(items []string, ind int) string {
	if len(items) == 0 {
		return "[]"
	}
	return "[\n" + pad(ind+1) + strings.Join(items, ",\n"+pad(ind+1)) + "\n" + pad(ind) + "]"
}

func object(entries []string, ind int) string {
	if len(entries) == 0 {
		return "{}"
	}
	if len(entries) == 1 && !strings.Contains(entries[0], "\n") {
		return "{ " + entries[0] + " }"
	}
	return "{\n" + pad(ind+1) + strings.Join(entries, ",\n"+pad(ind+1)) + "\n" + pad(ind) + "}"
}
