package util

import (
	"fmt"
	"strings"
)

const TagUrnPrefix = "urn:li:tag:"

// TagUrn builds the urn of the tag with the given name.
func TagUrn(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("tag name cannot be empty")
	}
	if strings.ContainsAny(name, "(),") {
		return "", fmt.Errorf("invalid tag name: %s", name)
	}
	return TagUrnPrefix + name, nil
}

// ParseTagUrn returns the tag name of a tag urn.
func ParseTagUrn(urn string) (string, error) {
	name, ok := strings.CutPrefix(urn, TagUrnPrefix)
	if !ok || name == "" {
		return "", fmt.Errorf("invalid tag urn: %s", urn)
	}
	return name, nil
}

// ResolveTagUrn accepts either a tag urn or a bare tag name and returns the urn.
func ResolveTagUrn(tag string) (string, error) {
	if _, err := ParseTagUrn(tag); err == nil {
		return tag, nil
	}
	if strings.HasPrefix(tag, "urn:") {
		return "", fmt.Errorf("invalid tag urn: %s", tag)
	}
	return TagUrn(tag)
}
