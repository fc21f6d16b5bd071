package schema

import (
	"fmt"

	"github.com/xlab/treeprint"
)

// Tree renders the star schema with the fact table at the root of the dimensions it references.
func Tree() treeprint.Tree {
	tree := treeprint.NewWithRoot("warehouse")

	for _, fact := range TablesOfKind(KindFact) {
		factBranch := addTable(tree, fact)
		for _, dim := range TablesOfKind(KindDimension) {
			addTable(factBranch, dim)
		}
	}

	staging := tree.AddMetaBranch(KindStaging, "staging")
	for _, t := range TablesOfKind(KindStaging) {
		addTable(staging, t)
	}

	return tree
}

func addTable(parent treeprint.Tree, t Table) treeprint.Tree {
	branch := parent.AddMetaBranch(t.Kind, t.Name)
	for _, c := range t.Columns {
		if c.Attributes != "" {
			branch.AddNode(fmt.Sprintf("%s %s %s", c.Name, c.Type, c.Attributes))
			continue
		}
		branch.AddNode(c.Name + " " + c.Type)
	}
	return branch
}
