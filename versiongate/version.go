// Package versiongate decides at build time whether the Python interpreter a
// pyo3 build targets is supported by the ChromaDB Rust bindings.
package versiongate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Version is the major.minor pair of an interpreter version string.
type Version struct {
	Major uint64
	Minor uint64
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

func (v Version) semver() *semver.Version {
	return semver.New(v.Major, v.Minor, 0, "", "")
}

// ParseVersion extracts major and minor from a dotted version string.
// Pieces that are not unsigned integers are dropped, so "3.14.2.beta" and
// "a.3.14" both yield 3.14. ok is false when fewer than two numeric pieces remain.
func ParseVersion(s string) (v Version, ok bool) {
	nums := make([]uint64, 0, 3)
	for _, part := range strings.Split(s, ".") {
		n, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			continue
		}
		nums = append(nums, n)
	}
	if len(nums) < 2 {
		return Version{}, false
	}
	return Version{Major: nums[0], Minor: nums[1]}, true
}
