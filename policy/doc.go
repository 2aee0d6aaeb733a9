// Package policy provides optional declarative rules that can be applied on
// top of a running Warden engine – for example to require human approval for
// selected actions or to block execution outright.
package policy
