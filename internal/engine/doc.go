// Package engine drives one generation session.
//
// A Session owns a private expression store and the declared input and
// output slots. Client code (or the kernel compiler) declares slots, builds
// output expressions from input elements, and asks the session to generate:
//
//	s := engine.NewSession()
//	q, _ := s.AddInput("q", 2, graph.StageDynamic)
//	y, _ := s.AddOutput("y", 1, graph.StageDynamic)
//	y.Set(0, sym.Sin(q.At(0)).Mul(q.At(1)))
//	art, err := s.Generate(engine.CodeOptions{Namespace: "dyn", ClassName: "Arm"})
//
// Generation runs in a fixed order:
//  1. Validate: every output element must be assigned (OUTPUT_NOT_SET)
//  2. Partition: split nodes into the static and dynamic stage
//  3. Schedule: one statement per reached operator node, deepest first
//  4. Print: render the C++ class
//
// Expression construction panics inside the sym package are recovered at
// this boundary and returned as *GenerationError values.
package engine
