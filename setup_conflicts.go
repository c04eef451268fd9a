package concretize

import "github.com/gopherpack/concretize/asp"

// setupConflicts emits one integrity constraint per declared conflict
// clause: the combined trigger+constraint body is forbidden unless the
// node is external.
func setupConflicts(c *SolveContext) {
	for _, name := range c.index.names() {
		desc, _ := c.index.get(name)
		for _, cf := range desc.Conflicts {
			body := []asp.Term{realNode(name)}
			body = append(body, conditionClauses(c, name, cf.Trigger)...)
			body = append(body, conditionClauses(c, name, cf.Constraint)...)

			c.program.IntegrityConstraint(body, []asp.Term{asp.Fn("external", pkgTerm(name))})
		}
	}
}
