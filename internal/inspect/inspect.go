package inspect

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Image is the subset of an inspection result the catalog uses. Both fields
// may be absent in a response.
type Image struct {
	Name     string            `json:"Name,omitempty"`
	Digest   string            `json:"Digest,omitempty"`
	RepoTags []string          `json:"RepoTags,omitempty"`
	Labels   map[string]string `json:"Labels,omitempty"`
}

// Inspector inspects one image reference.
type Inspector interface {
	Inspect(ctx context.Context, reference string) (*Image, error)
}

// InspectorFunc adapts a function to the Inspector interface.
type InspectorFunc func(ctx context.Context, reference string) (*Image, error)

// Inspect calls f.
func (f InspectorFunc) Inspect(ctx context.Context, reference string) (*Image, error) {
	return f(ctx, reference)
}

var (
	// ErrToolNotFound is returned when the external inspection tool is not
	// installed.
	ErrToolNotFound = errors.New("inspection tool not found")
	// ErrMalformedOutput is returned when a response cannot be decoded.
	ErrMalformedOutput = errors.New("malformed inspection output")
	// ErrNotFound is returned when the registry has no such image.
	ErrNotFound = errors.New("image not found")
	// ErrTimeout is returned when an inspection exceeds its deadline.
	ErrTimeout = errors.New("inspection timed out")
	// ErrUnknownKind is returned by the inspector built for an unsupported
	// kind.
	ErrUnknownKind = errors.New("unknown inspector kind")
)

// Supported inspector kinds.
const (
	KindSkopeo = "skopeo"
	KindOCI    = "oci"
)

// Options configures the inspectors built by New.
type Options struct {
	SkopeoPath    string
	TLSVerify     bool
	PlainHTTP     bool
	Timeout       time.Duration
	Retries       int
	RetryInterval time.Duration
	Logger        *log.Logger
}

// New returns the Inspector for kind, wrapped with the configured timeout
// and retries. Unknown kinds yield an Inspector that always fails.
func New(kind string, opts Options) Inspector {
	var base Inspector
	switch kind {
	case KindSkopeo:
		base = &Skopeo{Path: opts.SkopeoPath, Insecure: !opts.TLSVerify}
	case KindOCI:
		base = &OCI{PlainHTTP: opts.PlainHTTP, Insecure: !opts.TLSVerify}
	default:
		return &unknownInspector{kind: kind}
	}
	if opts.Timeout > 0 {
		base = WithTimeout(base, opts.Timeout)
	}
	if opts.Retries > 0 {
		base = WithRetry(base, opts.Retries, opts.RetryInterval, opts.Logger)
	}
	return base
}

type unknownInspector struct {
	kind string
}

func (u *unknownInspector) Inspect(_ context.Context, _ string) (*Image, error) {
	return nil, fmt.Errorf("%w %q: supported kinds are %q and %q", ErrUnknownKind, u.kind, KindSkopeo, KindOCI)
}

// Tagged returns the reference of a specific tag of source.
func Tagged(source, tag string) string {
	return source + ":" + tag
}

const dockerTransport = "docker://"

// stripTransport removes a leading docker:// transport prefix.
func stripTransport(reference string) string {
	return strings.TrimPrefix(reference, dockerTransport)
}
