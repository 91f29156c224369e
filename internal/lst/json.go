package lst

import (
	"encoding/json"
	"errors"
)

// jsonElem is the wire form of an Elem: exactly one of the fields is set.
type jsonElem struct {
	Node  *Node  `json:"node,omitempty"`
	Token *Token `json:"token,omitempty"`
}

type nodeAlias Node

type jsonNode struct {
	*nodeAlias
	Elems []jsonElem `json:"elems"`
}

// MarshalJSON encodes the node with its elements in order.
func (n *Node) MarshalJSON() ([]byte, error) {
	elems := make([]jsonElem, 0, len(n.Elems))

	for _, e := range n.Elems {
		switch x := e.(type) {
		case *Node:
			elems = append(elems, jsonElem{Node: x})
		case *Token:
			elems = append(elems, jsonElem{Token: x})
		}
	}

	return json.Marshal(jsonNode{nodeAlias: (*nodeAlias)(n), Elems: elems})
}

// UnmarshalJSON decodes a node produced by MarshalJSON.
func (n *Node) UnmarshalJSON(data []byte) error {
	aux := jsonNode{nodeAlias: (*nodeAlias)(n)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	n.Elems = make([]Elem, 0, len(aux.Elems))

	for _, e := range aux.Elems {
		switch {
		case e.Node != nil:
			n.Elems = append(n.Elems, e.Node)
		case e.Token != nil:
			n.Elems = append(n.Elems, e.Token)
		default:
			return errors.New("lst: element has neither node nor token")
		}
	}

	return nil
}
