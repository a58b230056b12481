// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package publish pushes cached packages to OCI registries as artifacts.
package publish

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/distribution/reference"
	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/qiniu/x/log"
	oras "oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content/file"
	"oras.land/oras-go/v2/content/oci"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"

	"github.com/goplus/pkgrecipe/recipe"
)

// ArtifactType is the media type of a package artifact.
const ArtifactType = "application/vnd.pkgrecipe.package.v1"

// AnnotationPackageID records the package identity key of an artifact.
const AnnotationPackageID = "dev.pkgrecipe.package.id"

// URIScheme prefixes registry targets, as in oci://ghcr.io/org/repo:tag.
const URIScheme = "oci://"

// Target is a parsed registry target.
type Target struct {
	Registry   string
	Repository string
	// Tag is empty when the target names none; callers apply DefaultTag.
	Tag string
}

// ParseTarget parses oci://registry/repository[:tag].
func ParseTarget(s string) (*Target, error) {
	if !strings.HasPrefix(s, URIScheme) {
		return nil, fmt.Errorf("invalid target %q: want %sregistry/repository[:tag]", s, URIScheme)
	}
	ref, err := reference.ParseNormalizedNamed(stripProtocol(strings.TrimPrefix(s, URIScheme)))
	if err != nil {
		return nil, fmt.Errorf("invalid target %q: %w", s, err)
	}
	if _, ok := ref.(reference.Digested); ok {
		return nil, fmt.Errorf("invalid target %q: digests cannot be pushed to", s)
	}
	t := &Target{
		Registry:   reference.Domain(ref),
		Repository: reference.Path(ref),
	}
	if tagged, ok := ref.(reference.Tagged); ok {
		t.Tag = tagged.Tag()
	}
	return t, nil
}

// String returns the target in URI form.
func (t *Target) String() string {
	return URIScheme + t.ImageReference()
}

// ImageReference returns registry/repository[:tag].
func (t *Target) ImageReference() string {
	if t.Tag == "" {
		return t.Registry + "/" + t.Repository
	}
	return t.Registry + "/" + t.Repository + ":" + t.Tag
}

// DefaultTag returns <version>-<short id>, which names one package
// identity of one version.
func DefaultTag(version string, id recipe.PackageID) string {
	return version + "-" + id.Short()
}

// Annotations returns the manifest annotations of a package.
func Annotations(d recipe.Descriptor, id recipe.PackageID, created time.Time) map[string]string {
	a := map[string]string{
		ociv1.AnnotationTitle:   d.Name,
		ociv1.AnnotationVersion: d.Version,
		AnnotationPackageID:     string(id),
	}
	if !created.IsZero() {
		a[ociv1.AnnotationCreated] = created.UTC().Format(time.RFC3339)
	}
	for k, v := range map[string]string{
		ociv1.AnnotationLicenses:    d.License,
		ociv1.AnnotationAuthors:     d.Author,
		ociv1.AnnotationSource:      d.URL,
		ociv1.AnnotationDescription: d.Description,
	} {
		if v != "" {
			a[k] = v
		}
	}
	return a
}

// Options configures a push.
type Options struct {
	// Dir is the install layout to push.
	Dir string
	// Name is the layer title; the layout unpacks into a directory of
	// this name.
	Name        string
	Annotations map[string]string

	PlainHTTP   bool
	InsecureTLS bool
}

// Result describes a pushed artifact.
type Result struct {
	Digest    string
	Reference string
}

// Push packs opts.Dir as an artifact and copies it to the registry target.
func Push(ctx context.Context, t *Target, opts Options) (*Result, error) {
	if t.Tag == "" {
		return nil, errors.New("tag is required to push a package")
	}
	repo, err := remote.NewRepository(t.Registry + "/" + t.Repository)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize remote repository: %w", err)
	}
	repo.PlainHTTP = opts.PlainHTTP
	repo.Client = createAuthClient(opts.PlainHTTP, opts.InsecureTLS)

	res, err := push(ctx, repo, t.Tag, opts)
	if err != nil {
		return nil, err
	}
	res.Reference = t.ImageReference()
	log.Infof("pushed %s@%s", res.Reference, res.Digest)
	return res, nil
}

// PushLayout packs opts.Dir as an artifact into the OCI image layout at
// layoutDir under tag.
func PushLayout(ctx context.Context, layoutDir, tag string, opts Options) (*Result, error) {
	store, err := oci.New(layoutDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open OCI layout: %w", err)
	}
	res, err := push(ctx, store, tag, opts)
	if err != nil {
		return nil, err
	}
	res.Reference = layoutDir + ":" + tag
	return res, nil
}

func push(ctx context.Context, dst oras.Target, tag string, opts Options) (*Result, error) {
	absDir, err := filepath.Abs(opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for package dir: %w", err)
	}
	name := opts.Name
	if name == "" {
		name = filepath.Base(absDir)
	}

	fs, err := file.New(absDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create file store: %w", err)
	}
	defer func() { _ = fs.Close() }()

	// Make tars deterministic for reproducible artifacts
	fs.TarReproducible = true

	layerDesc, err := fs.Add(ctx, name, ociv1.MediaTypeImageLayerGzip, absDir)
	if err != nil {
		return nil, fmt.Errorf("failed to add package directory to store: %w", err)
	}

	manifestDesc, err := oras.PackManifest(ctx, fs, oras.PackManifestVersion1_1, ArtifactType, oras.PackManifestOptions{
		Layers:              []ociv1.Descriptor{layerDesc},
		ManifestAnnotations: opts.Annotations,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to pack manifest: %w", err)
	}
	if err := fs.Tag(ctx, manifestDesc, tag); err != nil {
		return nil, fmt.Errorf("failed to tag manifest in local store: %w", err)
	}

	desc, err := oras.Copy(ctx, fs, tag, dst, tag, oras.DefaultCopyOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to push artifact: %w", err)
	}
	return &Result{Digest: desc.Digest.String()}, nil
}

// stripProtocol removes an http:// or https:// prefix from a registry URL.
func stripProtocol(registry string) string {
	registry = strings.TrimPrefix(registry, "https://")
	registry = strings.TrimPrefix(registry, "http://")
	return registry
}

// createAuthClient returns a client that reads Docker credentials and
// optionally skips TLS verification.
func createAuthClient(plainHTTP, insecureTLS bool) *auth.Client {
	credStore, err := credentials.NewStoreFromDocker(credentials.StoreOptions{})
	if err != nil {
		log.Debugf("publish: no docker credential store: %v", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !plainHTTP && insecureTLS {
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		} else {
			transport.TLSClientConfig.InsecureSkipVerify = true //nolint:gosec
		}
	}

	client := &auth.Client{
		Client: &http.Client{Transport: transport},
		Cache:  auth.NewCache(),
	}
	if credStore != nil {
		client.Credential = credentials.Credential(credStore)
	}
	return client
}
