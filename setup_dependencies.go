package concretize

import "github.com/gopherpack/concretize/asp"

// allDepTypesOrdered fixes an iteration order over the four dependency
// type tags so the emitted rule/fact order is deterministic.
var allDepTypesOrdered = []DepType{DepBuild, DepLink, DepRun, DepTest}

// setupDependencies walks every declared dependency clause of every
// indexed package and emits, per dependency type the clause carries:
//
//   - declared_dependency(dependent, dep, type), as a fact when the clause
//     is unconditional or as a rule over the condition's body clauses
//     otherwise;
//   - for a dependency naming a virtual, single_provider_for(virtual,
//     range) gated on real_node(dependent) plus the condition, and the
//     virtual is added to the possible-virtuals set (deferred to
//     setupVirtuals, which also grounds the resulting depends_on edges
//     once providers are known);
//   - for a concrete dependency, the dependency spec's own clauses
//     (version/variant constraints on the dependency itself) as rules
//     conditioned on depends_on(dependent, dep, type) plus the condition,
//     and the ground depends_on/node propagation rules that let the
//     embedded search's derived closure (search.go's deriveClosure) carry
//     declared_dependency through to a concrete DAG edge.
func setupDependencies(c *SolveContext) {
	for _, name := range c.index.names() {
		desc, _ := c.index.get(name)
		for _, dc := range desc.Dependencies {
			condClauses := conditionClauses(c, name, dc.Condition)
			isVirtual := c.Repo.IsVirtual(dc.Dependency)

			for _, t := range allDepTypesOrdered {
				if !dc.Types.Has(t) {
					continue
				}
				if t == DepTest && !c.wantsTests(name) {
					continue
				}

				head := asp.Fn("declared_dependency", pkgTerm(name), pkgTerm(dc.Dependency), depTypeTerm(t))
				if dc.Condition == nil {
					c.program.Fact(head)
				} else {
					c.program.Rule(head, condClauses)
				}

				if isVirtual {
					c.possibleVirtuals[dc.Dependency] = true
					if dc.Spec != nil {
						if r := dc.Spec.VersionRange; r.String() != "*" {
							body := append([]asp.Term{realNode(name)}, condClauses...)
							c.program.Rule(asp.Fn("single_provider_for", pkgTerm(dc.Dependency), asp.Str(r.String())), body)
							// An unconditional clause's range always binds
							// the provider choice; a conditional one only
							// does once its condition fires, which the
							// embedded search cannot know up front; treat
							// it as binding (over-approximating toward
							// fewer providers; see DESIGN.md).
							c.addVirtualRange(dc.Dependency, r)
						}
					}
					c.addVirtualEdge(name, dc.Dependency, t)
					continue
				}

				// depends_on materializes whenever this clause's declared
				// dependency holds and the dependent itself is a real node;
				// the dependency becomes a node as a consequence, not a
				// precondition. A build edge additionally requires the
				// dependent not to have resolved external: externals do not
				// drag their build dependencies into the DAG.
				dependsOn := asp.Fn("depends_on", pkgTerm(name), pkgTerm(dc.Dependency), depTypeTerm(t))
				dependsOnBody := []asp.Term{head, asp.Fn("node", pkgTerm(name))}
				if t == DepBuild {
					c.program.RuleUnless(dependsOn, dependsOnBody, []asp.Term{asp.Fn("external", pkgTerm(name))})
				} else {
					c.program.Rule(dependsOn, dependsOnBody)
				}
				c.program.Rule(asp.Fn("node", pkgTerm(dc.Dependency)), []asp.Term{dependsOn})

				for _, clause := range specSelfClauses(c, dc.Dependency, dc.Spec) {
					body := append([]asp.Term{dependsOn}, condClauses...)
					c.program.Rule(clause, body)
				}
				if dc.Spec != nil {
					if r := dc.Spec.VersionRange; r.String() != "*" {
						c.addVersionRange(dc.Dependency, r)
					}
				}
			}
		}
	}
}
