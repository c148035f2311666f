// Package types provides core types used across the EpiHelix pipeline.
// This package has ZERO dependencies on other epihelix packages to avoid
// circular imports. All other packages should import types from here.
package types
