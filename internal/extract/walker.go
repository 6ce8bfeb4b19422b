package extract

// Walk returns the values of every string literal in a reachable position
// of s, depth-first, pre-order and left to right. Literals inside nested
// function bodies are flattened into the same sequence at the position of
// the function in the source.
//
// Walk keeps its work list on the heap, so deeply nested scripts do not
// grow the goroutine stack.
func Walk(s *Script) []string {
	if s == nil || s.ast == nil {
		return nil
	}

	var out []string
	stack := make([]node, 0, 64)
	for i := len(s.ast.List) - 1; i >= 0; i-- {
		if st := s.ast.List[i]; st != nil {
			stack = append(stack, node{stmt: st})
		}
	}

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		v := classify(n)
		if v.literal != nil {
			out = append(out, decodeString(v.literal))
		}
		for i := len(v.children) - 1; i >= 0; i-- {
			stack = append(stack, v.children[i])
		}
	}
	return out
}
