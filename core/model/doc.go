// Package model defines the provider-agnostic extraction request types shared
// by the prompt compiler, the orchestrator and the HTTP surface.
package model
