package trie

import (
	"fmt"

	"github.com/emicklei/dot"
)

// DotGraph renders the trie as a graphviz digraph, resolving nodes from
// the database as it descends. Nodes that cannot be resolved are rendered
// as dangling hash references. Intended for debugging small tries.
func (t *Trie) DotGraph() string {
	g := dot.NewGraph(dot.Directed)
	if t.root == nil {
		g.Node("empty").Attr("shape", "plaintext")
		return g.String()
	}
	t.dotNode(g, t.root, []byte("r"))
	return g.String()
}

func (t *Trie) dotNode(g *dot.Graph, n node, path []byte) dot.Node {
	id := string(path)
	if resolved, err := t.resolve(n, nil); err == nil {
		n = resolved
	}
	switch n := n.(type) {
	case *shortNode:
		var v dot.Node
		if hasTerm(n.Key) {
			v = g.Node(id).Attr("label", fmt.Sprintf("leaf\n%x", n.Key[:len(n.Key)-1]))
		} else {
			v = g.Node(id).Attr("label", fmt.Sprintf("ext\n%x", n.Key))
		}
		child := t.dotNode(g, n.Val, append(path, 'v'))
		g.Edge(v, child)
		return v
	case *fullNode:
		v := g.Node(id).Attr("label", "branch")
		for i, c := range &n.Children {
			if c == nil {
				continue
			}
			child := t.dotNode(g, c, append(path, indices[i]...))
			g.Edge(v, child).Attr("label", indices[i])
		}
		return v
	case valueNode:
		return g.Node(id).Attr("shape", "box").Attr("label", fmt.Sprintf("%x", []byte(n)))
	case hashNode:
		return g.Node(id).Attr("shape", "box").Attr("style", "dashed").Attr("label", fmt.Sprintf("%x…", n[:4]))
	default:
		panic("impossible")
	}
}
