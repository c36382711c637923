// Package cbm holds the identifiers shared by the simulation and
// reconstruction layers: detector/module ids, particle production
// processes and links into MC data branches.
//
// All enumerations are closed. Switches over them are expected to be
// exhaustive; values outside the declared range report as unknown.
package cbm
