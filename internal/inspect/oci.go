package inspect

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/errdef"
	"oras.land/oras-go/v2/registry"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"
	"oras.land/oras-go/v2/registry/remote/retry"
)

const (
	dockerHub          = "docker.io"
	dockerHubEndpoint  = "registry-1.docker.io"
	mediaTypeDockerIdx = "application/vnd.docker.distribution.manifest.list.v2+json"
)

// DefaultPlatform is the platform picked from multi-platform images.
var DefaultPlatform = ocispec.Platform{OS: "linux", Architecture: "amd64"}

// OCI inspects images through the OCI distribution API.
//
// An untagged reference lists the repository tags. A tagged reference
// resolves the image manifest (choosing Platform from an index) and returns
// the labels of its configuration.
type OCI struct {
	// PlainHTTP talks to the registry over http.
	PlainHTTP bool
	// Insecure skips TLS certificate verification.
	Insecure bool
	// Platform selects a manifest from an image index; DefaultPlatform
	// when zero.
	Platform ocispec.Platform
	// Client overrides the HTTP client. By default an auth client backed by
	// the local docker credential store is used.
	Client remote.Client
}

// Inspect lists tags or reads labels depending on whether reference has a tag.
func (o *OCI) Inspect(ctx context.Context, reference string) (*Image, error) {
	ref, err := parseReference(reference)
	if err != nil {
		return nil, err
	}
	repo, err := o.repository(ref)
	if err != nil {
		return nil, err
	}

	name := ref.Registry + "/" + ref.Repository
	if ref.Reference == "" {
		tags, err := registry.Tags(ctx, repo)
		if err != nil {
			return nil, mapError("listing tags of "+name, err)
		}
		return &Image{Name: name, RepoTags: tags}, nil
	}

	labels, digest, err := o.labels(ctx, repo, ref.Reference)
	if err != nil {
		return nil, mapError("inspecting "+reference, err)
	}
	return &Image{Name: name, Digest: digest, Labels: labels}, nil
}

func (o *OCI) repository(ref registry.Reference) (*remote.Repository, error) {
	host := ref.Registry
	if host == dockerHub {
		host = dockerHubEndpoint
	}
	repo, err := remote.NewRepository(host + "/" + ref.Repository)
	if err != nil {
		return nil, fmt.Errorf("creating repository %s: %w", ref.Repository, err)
	}
	repo.PlainHTTP = o.PlainHTTP
	repo.Client = o.client()
	return repo, nil
}

func (o *OCI) client() remote.Client {
	if o.Client != nil {
		return o.Client
	}

	httpClient := retry.DefaultClient
	if o.Insecure {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		httpClient = &http.Client{Transport: retry.NewTransport(transport)}
	}

	c := &auth.Client{
		Client: httpClient,
		Cache:  auth.NewCache(),
	}
	c.SetUserAgent("repoindex")
	if store, err := credentials.NewStoreFromDocker(credentials.StoreOptions{}); err == nil {
		c.Credential = credentials.Credential(store)
	}
	return c
}

func (o *OCI) platform() ocispec.Platform {
	if o.Platform.OS == "" {
		return DefaultPlatform
	}
	return o.Platform
}

// labels returns the config labels of the image tagged tag and the digest
// the tag resolves to.
func (o *OCI) labels(ctx context.Context, repo *remote.Repository, tag string) (map[string]string, string, error) {
	desc, data, err := oras.FetchBytes(ctx, repo, tag, oras.DefaultFetchBytesOptions)
	if err != nil {
		return nil, "", err
	}
	top := desc.Digest.String()

	if desc.MediaType == ocispec.MediaTypeImageIndex || desc.MediaType == mediaTypeDockerIdx {
		var index ocispec.Index
		if err := json.Unmarshal(data, &index); err != nil {
			return nil, "", fmt.Errorf("%w: image index: %v", ErrMalformedOutput, err)
		}
		chosen, err := selectManifest(index.Manifests, o.platform())
		if err != nil {
			return nil, "", err
		}
		if _, data, err = oras.FetchBytes(ctx, repo, chosen.Digest.String(), oras.DefaultFetchBytesOptions); err != nil {
			return nil, "", err
		}
	}

	var manifest ocispec.Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, "", fmt.Errorf("%w: image manifest: %v", ErrMalformedOutput, err)
	}
	if err := manifest.Config.Digest.Validate(); err != nil {
		return nil, "", fmt.Errorf("%w: config digest: %v", ErrMalformedOutput, err)
	}

	blob, err := content.FetchAll(ctx, repo, manifest.Config)
	if err != nil {
		return nil, "", err
	}
	var img ocispec.Image
	if err := json.Unmarshal(blob, &img); err != nil {
		return nil, "", fmt.Errorf("%w: image config: %v", ErrMalformedOutput, err)
	}
	return img.Config.Labels, top, nil
}

// selectManifest picks the entry matching platform, else the first entry.
func selectManifest(manifests []ocispec.Descriptor, platform ocispec.Platform) (ocispec.Descriptor, error) {
	if len(manifests) == 0 {
		return ocispec.Descriptor{}, fmt.Errorf("%w: empty image index", ErrMalformedOutput)
	}
	chosen := manifests[0]
	for _, m := range manifests {
		if m.Platform != nil && m.Platform.OS == platform.OS && m.Platform.Architecture == platform.Architecture {
			chosen = m
			break
		}
	}
	if err := chosen.Digest.Validate(); err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("%w: manifest digest: %v", ErrMalformedOutput, err)
	}
	return chosen, nil
}

// parseReference normalises short Docker Hub names the way docker does:
// "nginx" → docker.io/library/nginx, "example/mod" → docker.io/example/mod.
func parseReference(reference string) (registry.Reference, error) {
	reference = stripTransport(reference)
	first, _, found := strings.Cut(reference, "/")
	switch {
	case !found:
		reference = dockerHub + "/library/" + reference
	case !strings.ContainsAny(first, ".:") && first != "localhost":
		reference = dockerHub + "/" + reference
	}
	ref, err := registry.ParseReference(reference)
	if err != nil {
		return registry.Reference{}, fmt.Errorf("parsing reference %q: %w", reference, err)
	}
	return ref, nil
}

func mapError(op string, err error) error {
	if errors.Is(err, errdef.ErrNotFound) {
		return fmt.Errorf("%s: %w: %v", op, ErrNotFound, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
