package taskgraph

import "errors"

var ErrDuplicatePort = errors.New("duplicate port id")
var ErrTypeMismatch = errors.New("port element types do not match")
var ErrAlreadyBound = errors.New("input already bound")
var ErrUnboundInput = errors.New("input has no source")
var ErrSlotNotFound = errors.New("port does not belong to this node")
var ErrConstraintUnsatisfiable = errors.New("no worker satisfies thread constraint")
var ErrAlreadyBuilt = errors.New("pipeline already built")
var ErrNodeAlreadyExists = errors.New("node exists already")
var ErrNodeNotFound = errors.New("node not found")
