// Package codegen renders scheduled statements as a C++ class template.
package codegen

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

const (
	funcIndent = "    "
	bodyIndent = "        "
)

// Class describes one generated class.
type Class struct {
	Namespace     string
	Name          string
	StaticParams  []string // constructor pointer parameters and members
	DynamicParams []string // call operator pointer parameters
	NumTemps      int      // size of the _i cross-stage array
	StaticBody    string   // refresh() statements, already indented
	DynamicBody   string   // operator() statements, already indented
}

// Validate checks that every emitted name is a C++ identifier.
func (c *Class) Validate() error {
	if !identifier.MatchString(c.Namespace) {
		return fmt.Errorf("invalid namespace %q", c.Namespace)
	}
	if !identifier.MatchString(c.Name) {
		return fmt.Errorf("invalid class name %q", c.Name)
	}
	seen := make(map[string]bool)
	for _, p := range append(append([]string(nil), c.StaticParams...), c.DynamicParams...) {
		if !identifier.MatchString(p) {
			return fmt.Errorf("invalid parameter name %q", p)
		}
		if seen[p] {
			return fmt.Errorf("duplicate parameter %q", p)
		}
		seen[p] = true
	}
	if c.NumTemps < 0 {
		return fmt.Errorf("negative temporary count %d", c.NumTemps)
	}
	return nil
}

type function struct {
	typ, name, args, initials, contents string
}

func (f function) write(w *bufio.Writer) {
	w.WriteString(funcIndent)
	if f.typ != "" {
		w.WriteString(f.typ + " ")
	}
	w.WriteString(f.name + "(" + f.args + ") ")
	if f.initials != "" {
		w.WriteString(": " + f.initials + " ")
	}
	w.WriteString("{\n")
	w.WriteString(f.contents)
	w.WriteString(funcIndent + "}\n")
}

func pointerParams(names []string, suffix string) string {
	params := make([]string, len(names))
	for i, n := range names {
		params[i] = "ProbeScalar *" + n + suffix
	}
	return strings.Join(params, ", ")
}

// WriteCxx renders c:
//
//   - a constructor taking the static parameter pointers and calling refresh()
//   - refresh() with the static-stage statements
//   - operator() taking the dynamic parameter pointers with the dynamic-stage
//     statements
//   - pointer members for the static parameters and the _i array
func WriteCxx(w io.Writer, c Class) error {
	if err := c.Validate(); err != nil {
		return err
	}

	inits := make([]string, len(c.StaticParams))
	for i, p := range c.StaticParams {
		inits[i] = p + "(" + p + "_)"
	}
	ctor := function{
		name:     c.Name,
		args:     pointerParams(c.StaticParams, "_"),
		initials: strings.Join(inits, ", "),
		contents: bodyIndent + "refresh();\n",
	}
	refresh := function{typ: "void", name: "refresh", contents: c.StaticBody}
	call := function{typ: "void", name: "operator()", args: pointerParams(c.DynamicParams, ""), contents: c.DynamicBody}

	bw := bufio.NewWriter(w)
	bw.WriteString("#pragma once\n\n#include <cmath>\n\n")
	fmt.Fprintf(bw, "namespace %s {\n", c.Namespace)
	bw.WriteString("template<class ProbeScalar = double, class IntermediateScalar = double>\n")
	fmt.Fprintf(bw, "class %s {\n", c.Name)
	bw.WriteString(" public:\n")
	for _, f := range []function{ctor, refresh, call} {
		f.write(bw)
		bw.WriteString("\n")
	}
	for _, p := range c.StaticParams {
		fmt.Fprintf(bw, "%sProbeScalar *%s;\n", funcIndent, p)
	}
	if c.NumTemps > 0 {
		fmt.Fprintf(bw, "%sIntermediateScalar _i[%d];\n", funcIndent, c.NumTemps)
	}
	bw.WriteString("};\n")
	fmt.Fprintf(bw, "}  // namespace %s\n", c.Namespace)
	return bw.Flush()
}

// Cxx returns the rendering of c as a string.
func Cxx(c Class) (string, error) {
	var b strings.Builder
	if err := WriteCxx(&b, c); err != nil {
		return "", err
	}
	return b.String(), nil
}
