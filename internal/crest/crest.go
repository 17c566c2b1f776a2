// Package crest holds the domain types shared between the ranking and
// feed services, along with the interfaces they depend on.
package crest

import "errors"

var (
	ErrNotFound    = errors.New("resource not found")
	ErrUnavailable = errors.New("dependency unavailable")
)

// ClusterGlobal is the cluster value for the overall ranking, used when a
// request doesn't name a specific cluster.
const ClusterGlobal = ""
