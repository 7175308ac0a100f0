// Package inspect queries container registries for image metadata. An
// Inspector answers two questions about a reference: which tags exist for
// an untagged repository reference, and which labels a tagged image carries.
//
// Two implementations are provided: Skopeo shells out to the skopeo tool and
// decodes its JSON, OCI talks to the registry directly over the OCI
// distribution API. WithTimeout and WithRetry wrap either one.
package inspect
