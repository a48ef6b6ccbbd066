// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package utils

import "strings"

// RapidaEnvironment identifies the deployment environment a service runs in.
type RapidaEnvironment string

const (
	PRODUCTION  RapidaEnvironment = "production"
	DEVELOPMENT RapidaEnvironment = "development"
)

// Get returns the canonical lowercase environment name.
func (e RapidaEnvironment) Get() string {
	return string(e)
}

// FromEnvironmentStr parses an environment name case-insensitively.
// Anything unrecognized resolves to DEVELOPMENT.
func FromEnvironmentStr(s string) RapidaEnvironment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "production":
		return PRODUCTION
	default:
		return DEVELOPMENT
	}
}
