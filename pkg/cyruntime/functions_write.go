package cyruntime

import (
	"github.com/lucidgraph/lucid/pkg/cyerr"
	"github.com/lucidgraph/lucid/pkg/cyvalue"
)

func stageAttrs(set func(attrID int, v cyvalue.Value), attrIDOf func(string) int, attrs cyvalue.Value) {
	if attrs.Kind != cyvalue.KindMap {
		return
	}
	for k, v := range attrs.Map {
		set(attrIDOf(k), v)
	}
}

func writeCreateNode(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	labelNames := stringsFromList(args[0])
	labelIDs := make([]int, len(labelNames))
	for i, name := range labelNames {
		labelIDs[i] = rt.Graph.LabelID(name)
	}
	id := rt.Pending.CreateNode(labelIDs)
	stageAttrs(func(attrID int, v cyvalue.Value) { rt.Pending.SetNodeAttr(id, attrID, v) }, rt.Graph.AttrID, args[1])
	return cyvalue.Node(id), nil
}

func writeCreateRelationship(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	typeName, from, to, attrs := args[0], args[1], args[2], args[3]
	if from.Kind != cyvalue.KindNode || to.Kind != cyvalue.KindNode {
		return cyvalue.Null, typeMismatch("Node", from)
	}
	typeID := rt.Graph.TypeID(typeName.String)
	id := rt.Pending.CreateRelationship(typeID, from.Node, to.Node)
	stageAttrs(func(attrID int, v cyvalue.Value) { rt.Pending.SetRelAttr(id, attrID, v) }, rt.Graph.AttrID, attrs)
	return cyvalue.Relationship(id, from.Node, to.Node), nil
}

// attrsMatch reports whether every key in attrs equals entity's current
// value for that key, via read.
func attrsMatch(attrs cyvalue.Value, read func(attrID int) cyvalue.Value, lookupAttrID func(string) (int, bool)) bool {
	if attrs.Kind != cyvalue.KindMap {
		return true
	}
	for k, want := range attrs.Map {
		attrID, ok := lookupAttrID(k)
		if !ok {
			return false
		}
		eq := cyvalue.Equal(read(attrID), want)
		if eq.Kind != cyvalue.KindBool || !eq.Bool {
			return false
		}
	}
	return true
}

func writeMergeNode(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	labelNames := stringsFromList(args[0])
	attrs := args[1]
	sel := rt.Graph.ScanNodesByLabels(labelNames)
	var found uint64
	hasMatch := false
	sel.ForEach(func(i, j uint64, v bool) {
		if hasMatch || i != j || !v {
			return
		}
		if attrsMatch(attrs, func(attrID int) cyvalue.Value { return rt.Pending.NodeAttr(i, attrID) }, rt.Graph.LookupAttr) {
			found, hasMatch = i, true
		}
	})
	if hasMatch {
		return cyvalue.Node(found), nil
	}
	return writeCreateNode(rt, args)
}

func writeMergeRelationship(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	typeName, from, to, attrs := args[0], args[1], args[2], args[3]
	if from.Kind != cyvalue.KindNode || to.Kind != cyvalue.KindNode {
		return cyvalue.Null, typeMismatch("Node", from)
	}
	for _, relID := range rt.Graph.EdgesBetween(from.Node, to.Node, []string{typeName.String}) {
		if !rt.Pending.IsLiveRelationship(relID) {
			continue
		}
		if attrsMatch(attrs, func(attrID int) cyvalue.Value { return rt.Pending.RelAttr(relID, attrID) }, rt.Graph.LookupAttr) {
			return cyvalue.Relationship(relID, from.Node, to.Node), nil
		}
	}
	return writeCreateRelationship(rt, args)
}

func writeSetProperty(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	entity, key, value := args[0], args[1], args[2]
	if entity.IsNull() {
		return cyvalue.Null, nil
	}
	if key.Kind != cyvalue.KindString {
		return cyvalue.Null, typeMismatch("String", key)
	}
	attrID := rt.Graph.AttrID(key.String)
	switch entity.Kind {
	case cyvalue.KindNode:
		rt.Pending.SetNodeAttr(entity.Node, attrID, value)
	case cyvalue.KindRelationship:
		rt.Pending.SetRelAttr(entity.RelID, attrID, value)
	default:
		return cyvalue.Null, typeMismatch("Node or Relationship", entity)
	}
	return cyvalue.Null, nil
}

func writeSetPropertyAll(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	entity, attrs := args[0], args[1]
	if entity.IsNull() {
		return cyvalue.Null, nil
	}
	switch entity.Kind {
	case cyvalue.KindNode:
		for _, attrID := range rt.Pending.NodeAttrKeys(entity.Node) {
			if attrs.Kind != cyvalue.KindMap {
				continue
			}
			if _, ok := attrs.Map[rt.Graph.AttrName(attrID)]; !ok {
				rt.Pending.SetNodeAttr(entity.Node, attrID, cyvalue.Null)
			}
		}
		stageAttrs(func(attrID int, v cyvalue.Value) { rt.Pending.SetNodeAttr(entity.Node, attrID, v) }, rt.Graph.AttrID, attrs)
	case cyvalue.KindRelationship:
		for _, attrID := range rt.Pending.RelAttrKeys(entity.RelID) {
			if attrs.Kind != cyvalue.KindMap {
				continue
			}
			if _, ok := attrs.Map[rt.Graph.AttrName(attrID)]; !ok {
				rt.Pending.SetRelAttr(entity.RelID, attrID, cyvalue.Null)
			}
		}
		stageAttrs(func(attrID int, v cyvalue.Value) { rt.Pending.SetRelAttr(entity.RelID, attrID, v) }, rt.Graph.AttrID, attrs)
	default:
		return cyvalue.Null, typeMismatch("Node or Relationship", entity)
	}
	return cyvalue.Null, nil
}

func writeMergePropertyAll(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	entity, attrs := args[0], args[1]
	if entity.IsNull() {
		return cyvalue.Null, nil
	}
	switch entity.Kind {
	case cyvalue.KindNode:
		stageAttrs(func(attrID int, v cyvalue.Value) { rt.Pending.SetNodeAttr(entity.Node, attrID, v) }, rt.Graph.AttrID, attrs)
	case cyvalue.KindRelationship:
		stageAttrs(func(attrID int, v cyvalue.Value) { rt.Pending.SetRelAttr(entity.RelID, attrID, v) }, rt.Graph.AttrID, attrs)
	default:
		return cyvalue.Null, typeMismatch("Node or Relationship", entity)
	}
	return cyvalue.Null, nil
}

func writeRemoveProperty(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	entity, key := args[0], args[1]
	if entity.IsNull() || key.Kind != cyvalue.KindString {
		return cyvalue.Null, nil
	}
	attrID, ok := rt.Graph.LookupAttr(key.String)
	if !ok {
		return cyvalue.Null, nil
	}
	switch entity.Kind {
	case cyvalue.KindNode:
		rt.Pending.SetNodeAttr(entity.Node, attrID, cyvalue.Null)
	case cyvalue.KindRelationship:
		rt.Pending.SetRelAttr(entity.RelID, attrID, cyvalue.Null)
	}
	return cyvalue.Null, nil
}

func writeSetLabels(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	entity, labels := args[0], args[1]
	if entity.Kind != cyvalue.KindNode {
		return cyvalue.Null, typeMismatch("Node", entity)
	}
	for _, name := range stringsFromList(labels) {
		rt.Pending.AddNodeLabel(entity.Node, rt.Graph.LabelID(name))
	}
	return cyvalue.Null, nil
}

func writeRemoveLabels(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	entity, labels := args[0], args[1]
	if entity.Kind != cyvalue.KindNode {
		return cyvalue.Null, typeMismatch("Node", entity)
	}
	for _, name := range stringsFromList(labels) {
		if id, ok := rt.Graph.LookupLabel(name); ok {
			rt.Pending.RemoveNodeLabel(entity.Node, id)
		}
	}
	return cyvalue.Null, nil
}

func writeDeleteEntity(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	detach := args[0].Bool
	for _, e := range args[1:] {
		switch e.Kind {
		case cyvalue.KindNull:
			continue
		case cyvalue.KindRelationship:
			rt.Pending.DeleteRelationship(e.RelID)
		case cyvalue.KindNode:
			if !detach && rt.Pending.AnyEdgeTouching(e.Node) {
				return cyvalue.Null, &cyerr.RuntimeError{Msg: "Cannot delete node, because it still has relationships. To delete this node, you must first delete its relationships."}
			}
			rt.Pending.DeleteNode(e.Node)
		default:
			return cyvalue.Null, typeMismatch("Node or Relationship", e)
		}
	}
	return cyvalue.Null, nil
}

func procDbLabels(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	rows := make([]cyvalue.Value, 0)
	for _, name := range rt.Graph.Labels() {
		rows = append(rows, cyvalue.List([]cyvalue.Value{cyvalue.Str(name)}))
	}
	return cyvalue.List(rows), nil
}

func procDbRelationshipTypes(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	rows := make([]cyvalue.Value, 0)
	for _, name := range rt.Graph.Types() {
		rows = append(rows, cyvalue.List([]cyvalue.Value{cyvalue.Str(name)}))
	}
	return cyvalue.List(rows), nil
}

func procDbPropertyKeys(rt *Runtime, args []cyvalue.Value) (cyvalue.Value, error) {
	rows := make([]cyvalue.Value, 0)
	for _, name := range rt.Graph.Attrs() {
		rows = append(rows, cyvalue.List([]cyvalue.Value{cyvalue.Str(name)}))
	}
	return cyvalue.List(rows), nil
}

func registerWriteFunctions() {
	register(entry{name: "create_node", min: 2, max: 2, write: true, kind: KindFunction, handler: writeCreateNode})
	register(entry{name: "create_relationship", min: 4, max: 4, write: true, kind: KindFunction, handler: writeCreateRelationship})
	register(entry{name: "merge_node", min: 2, max: 2, write: true, kind: KindFunction, handler: writeMergeNode})
	register(entry{name: "merge_relationship", min: 4, max: 4, write: true, kind: KindFunction, handler: writeMergeRelationship})
	register(entry{name: "set_property", min: 3, max: 3, write: true, kind: KindFunction, handler: writeSetProperty})
	register(entry{name: "merge_property", min: 3, max: 3, write: true, kind: KindFunction, handler: writeSetProperty})
	register(entry{name: "set_property_all", min: 2, max: 2, write: true, kind: KindFunction, handler: writeSetPropertyAll})
	register(entry{name: "merge_property_all", min: 2, max: 2, write: true, kind: KindFunction, handler: writeMergePropertyAll})
	register(entry{name: "remove_property", min: 2, max: 2, write: true, kind: KindFunction, handler: writeRemoveProperty})
	register(entry{name: "set_labels", min: 2, max: 2, write: true, kind: KindFunction, handler: writeSetLabels})
	register(entry{name: "remove_labels", min: 2, max: 2, write: true, kind: KindFunction, handler: writeRemoveLabels})
	register(entry{name: "delete_entity", min: 1, max: -1, write: true, kind: KindFunction, handler: writeDeleteEntity})
	register(entry{name: "db.labels", min: 0, max: 0, kind: KindProcedure, handler: procDbLabels})
	register(entry{name: "db.relationshiptypes", min: 0, max: 0, kind: KindProcedure, handler: procDbRelationshipTypes})
	register(entry{name: "db.propertykeys", min: 0, max: 0, kind: KindProcedure, handler: procDbPropertyKeys})
}
